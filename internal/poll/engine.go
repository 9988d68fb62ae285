// Package poll drives the periodic crate/slot cycle: one background
// goroutine is the sole writer of a tree.Tree, opening a single shared
// IPMI session to one target at a time.
package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/logging"
	"github.com/ipmi-atca/shelfmon/internal/metrics"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

const shelfIPMBAddress byte = 0x20

// slotIPMBAddress implements the crate's IPMB addressing rule: slot i's
// IPMC sits at 0x80 + 2*i.
func slotIPMBAddress(i int) byte {
	return byte(0x80 + 2*i)
}

// Engine owns the Sensor Tree, the topology policy, and the single IPMI
// session used to poll a crate. Callers obtain read access exclusively
// through the Tree's Query Interface; Engine itself is write-only.
type Engine struct {
	session ipmi.Session
	tree    *tree.Tree
	policy  topology.Policy
	slots   []int
	log     logging.Logger
	rec     *metrics.Recorder
	stopCh  chan struct{}
	doneCh  chan struct{}
	timeNow func() time.Time
}

// Config collects Engine's dependencies.
type Config struct {
	Session  ipmi.Session
	Tree     *tree.Tree
	Policy   topology.Policy
	Slots    []int // defaults to 2..7 if nil
	Logger   logging.Logger
	Recorder *metrics.Recorder
}

// New constructs an Engine. It performs no I/O; call Start to begin
// polling.
func New(cfg Config) *Engine {
	slots := cfg.Slots
	if slots == nil {
		slots = []int{2, 3, 4, 5, 6, 7}
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard
	}
	return &Engine{
		session: cfg.Session,
		tree:    cfg.Tree,
		policy:  cfg.Policy,
		slots:   slots,
		log:     log,
		rec:     cfg.Recorder,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		timeNow: time.Now,
	}
}

// Startup performs the one-time crate scan and, for Dynamic mode, the
// per-slot discovery scan, materializing the tree's shape before the
// first cycle runs. A failure to open the very first session to the
// shelf manager is fatal and propagated to the caller; everything after
// that degrades locally per cycle.
func (e *Engine) Startup(ctx context.Context) error {
	if err := e.session.Open(ctx, shelfIPMBAddress); err != nil {
		return fmt.Errorf("poll: opening shelf manager: %w", err)
	}
	if dev, err := e.session.GetDeviceID(ctx); err != nil {
		e.log.Warn("shelf manager device-id probe failed", "error", err)
	} else {
		e.log.Info("shelf manager identified",
			"device", dev.DeviceID, "ipmi_version", dev.IPMIVersion)
		if !dev.SupportsFunction("sensor") {
			e.log.Warn("shelf manager does not advertise sensor support")
		}
	}

	crate := tree.NewContainer()
	if err := initializeCrate(ctx, e.session, crate); err != nil {
		e.log.Error("crate scan failed", "error", err)
	}

	slotsContainer := tree.NewContainer()
	for _, i := range e.slots {
		slot := e.policy.NewSlotContainer(i)
		if err := e.session.Open(ctx, slotIPMBAddress(i)); err != nil {
			e.log.Warn("slot open failed at startup", "slot", i, "error", err)
		} else if err := e.policy.Initialize(ctx, e.session, i, slot); err != nil {
			e.log.Warn("slot initialize failed", "slot", i, "error", err)
		}
		slotsContainer.AddChild(slotKey(i), slot)
	}

	// Attach both subtrees in one shot: nothing above was reachable by a
	// reader yet, so the startup scans never hold the structure lock
	// across transport I/O.
	e.tree.WithStructureLock(func(root *tree.Node) {
		root.AddChild("Crate", crate)
		root.AddChild("Slots", slotsContainer)
	})

	return nil
}

func slotKey(i int) string { return fmt.Sprintf("%d", i) }

// Start launches the cycle loop in a background goroutine. Callers must
// run Startup first; Start itself never fails, it only begins cycling
// over whatever topology Startup materialized.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

// Stop signals the cycle loop to exit after its current cycle (or
// immediately if it is sleeping between cycles) and waits for it to
// finish.
func (e *Engine) Stop() {
	close(e.stopCh)
	<-e.doneCh
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.doneCh)

	for {
		start := e.timeNow()
		e.tree.SetTimestamp(start)

		e.runCycle(ctx)

		elapsed := e.timeNow().Sub(start)
		e.tree.SetPollPeriod(elapsed)
		if e.rec != nil {
			e.rec.ObserveCycle(float64(start.Unix()), elapsed.Seconds())
		}

		deficit := e.tree.MinPollPeriod() - elapsed
		if deficit <= 0 {
			select {
			case <-e.stopCh:
				return
			default:
			}
			continue
		}

		timer := time.NewTimer(deficit)
		select {
		case <-e.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runCycle performs crate updates (ascending, single pass) followed by
// slot updates in ascending slot order.
func (e *Engine) runCycle(ctx context.Context) {
	if err := e.session.Open(ctx, shelfIPMBAddress); err != nil {
		e.log.Error("shelf manager open failed", "error", err)
	} else if crate, err := e.tree.GetSubtree([]string{"Crate"}); err == nil {
		updateCrate(ctx, e.session, crate, e.rec)
	}

	for _, i := range e.slots {
		slot, err := e.tree.GetSubtree([]string{"Slots", slotKey(i)})
		if err != nil {
			continue
		}
		if err := e.session.Open(ctx, slotIPMBAddress(i)); err != nil {
			// Still run the slot step: every read against the dead session
			// fails, so the Carrier ID degrades to empty and the policy
			// re-arms its search for the next cycle.
			e.log.Warn("slot open failed", "slot", i, "error", err)
		}
		updateSlot(ctx, e.session, e.policy, e.tree, i, slot, e.rec)
	}
}

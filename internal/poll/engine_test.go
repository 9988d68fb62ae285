package poll_test

import (
	"context"
	"testing"
	"time"

	"github.com/ipmi-atca/shelfmon/internal/ipmi/ipmitest"
	"github.com/ipmi-atca/shelfmon/internal/poll"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

const shelfAddr byte = 0x20

func slotAddrFor(i int) byte { return byte(0x80 + 2*i) }

func TestEmptyCrateCycle(t *testing.T) {
	f := ipmitest.New()
	f.Targets[shelfAddr] = &ipmitest.Target{} // no SDR entries at all
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		f.Targets[slotAddrFor(i)] = &ipmitest.Target{Raw: map[string][]byte{}}
	}

	tr := tree.New()
	policy := topology.NewStatic([]int{2, 3, 4, 5, 6, 7})
	engine := poll.New(poll.Config{Session: f, Tree: tr, Policy: policy})

	ctx := context.Background()
	if err := engine.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}

	// Run exactly one cycle: the default 5s minimum period keeps the loop
	// asleep after its first cycle until Stop wakes it.
	engine.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	engine.Stop()

	fanTrays, err := tr.GetSubtree([]string{"Crate", "FanTrays"})
	if err != nil {
		t.Fatalf("GetSubtree(Crate/FanTrays): %v", err)
	}
	if len(fanTrays.Children()) != 0 {
		t.Errorf("FanTrays should be empty, got %v", fanTrays.Children())
	}

	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		id, err := tr.GetValue([]string{"Slots", slotKeyStr(i), "CarrierInfo", "ID"})
		if err != nil {
			t.Fatalf("GetValue CarrierInfo.ID slot %d: %v", i, err)
		}
		if id.S != "" {
			t.Errorf("slot %d CarrierInfo.ID = %q, want empty", i, id.S)
		}
	}

	if tr.PollPeriod() <= 0 {
		t.Error("PollPeriod should be positive after at least one cycle")
	}
}

func slotKeyStr(i int) string {
	switch i {
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	case 5:
		return "5"
	case 6:
		return "6"
	default:
		return "7"
	}
}

func TestZeroMinPollPeriodAccepted(t *testing.T) {
	f := ipmitest.New()
	f.Targets[shelfAddr] = &ipmitest.Target{}
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		f.Targets[slotAddrFor(i)] = &ipmitest.Target{Raw: map[string][]byte{}}
	}

	tr := tree.New()
	tr.SetMinPollPeriod(0) // spacing between cycles is checked by TestMinPollPeriodSpacesCycles
	policy := topology.NewStatic([]int{2, 3, 4, 5, 6, 7})
	engine := poll.New(poll.Config{Session: f, Tree: tr, Policy: policy})

	ctx := context.Background()
	if err := engine.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	engine.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	engine.Stop()

	if tr.MinPollPeriod() != 0 {
		t.Errorf("MinPollPeriod = %v, want 0", tr.MinPollPeriod())
	}
}

func TestMinPollPeriodSpacesCycles(t *testing.T) {
	f := ipmitest.New()
	f.Targets[shelfAddr] = &ipmitest.Target{}
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		f.Targets[slotAddrFor(i)] = &ipmitest.Target{Raw: map[string][]byte{}}
	}

	tr := tree.New()
	tr.SetMinPollPeriod(150 * time.Millisecond)
	policy := topology.NewStatic([]int{2, 3, 4, 5, 6, 7})
	engine := poll.New(poll.Config{Session: f, Tree: tr, Policy: policy})

	ctx := context.Background()
	if err := engine.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	engine.Start(ctx)

	// Each cycle start rewrites the tree's timestamp, so the number of
	// distinct timestamps observed over a fixed window bounds how many
	// cycles began during it.
	seen := map[string]bool{}
	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		seen[tr.Timestamp()] = true
		time.Sleep(5 * time.Millisecond)
	}
	engine.Stop()

	if len(seen) < 2 {
		t.Errorf("engine stopped cycling: %d distinct cycle timestamps in 500ms", len(seen))
	}
	if len(seen) > 5 {
		t.Errorf("minimum period not enforced: %d cycle starts in 500ms with a 150ms floor", len(seen))
	}
}

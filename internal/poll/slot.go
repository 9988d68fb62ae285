package poll

import (
	"context"

	"github.com/ipmi-atca/shelfmon/internal/fru"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/metrics"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// updateSlot runs one cycle's worth of work for an already-open slot
// session: read the Carrier ID, hand it to the topology policy (which
// handles Static's search/rebind or is a no-op for Dynamic), then read
// every sensor the policy didn't already claim. A Carrier that reads
// empty (removed, or mid hot-swap) skips the rest of the cycle entirely
// rather than reading any sensor: every leaf keeps its last observed
// value until the Carrier ID comes back.
func updateSlot(ctx context.Context, session ipmi.Session, policy topology.Policy, tr *tree.Tree, i int, slot *tree.Node, rec *metrics.Recorder) {
	id := fru.ReadID(ctx, session, topology.CarrierIDBay)
	skip := policy.PreSlotUpdate(ctx, session, tr, i, slot, id)

	if id == "" {
		if rec != nil {
			rec.IncIDProbeFailure()
		}
		return
	}

	skipSet := make(map[string]bool, len(skip))
	for _, k := range skip {
		skipSet[k] = true
	}

	for _, name := range slot.Children() {
		if skipSet[name] {
			continue
		}
		readSensor(ctx, session, slot.Child(name), rec)
	}
}

package topology

import (
	"context"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// Policy is the strategy the poll engine delegates per-slot topology
// binding to: Static and Dynamic modes share the same cycle skeleton but
// differ in how (and when) a slot's sensors get bound to SDR entries.
type Policy interface {
	// NewSlotContainer returns slot i's container, already shaped per
	// this policy (Static: the fixed 20-sensor schema; Dynamic: empty,
	// populated later by Initialize).
	NewSlotContainer(i int) *tree.Node

	// Initialize runs once per slot against its freshly opened session,
	// before the first cycle touches it. Dynamic mode does its one-time
	// discovery scan here; Static mode is a no-op, deferring all binding
	// to the first PreSlotUpdate.
	Initialize(ctx context.Context, session ipmi.Session, i int, slot *tree.Node) error

	// PreSlotUpdate runs once per slot per cycle, after the Carrier ID
	// probe and before the generic sensor-read loop. id is the Carrier
	// ID just read ("" if the slot reads empty). tr is the tree the slot
	// belongs to; a policy that adds children to a container mid-cycle
	// must take its structure lock around that change. It returns the set of slot child
	// keys the generic read loop must not touch, because this policy
	// already updated them (or because they aren't sensors).
	PreSlotUpdate(ctx context.Context, session ipmi.Session, tr *tree.Tree, i int, slot *tree.Node, id string) []string
}

package topology

import (
	"context"
	"sync"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/fru"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

var staticSkipKeys = []string{"CarrierInfo", "RTMInfo", AMCInfoKey}

// Static is the fixed-schema topology policy: every slot is
// pre-materialized with the full sensor set at startup, and a search
// only ever rebinds sensorRef on an existing leaf. needSearch
// tracks, per slot, whether the next cycle must re-run that search — set
// on every cycle where the Carrier ID reads empty, so a hot-swap insert
// is rediscovered exactly once.
type Static struct {
	mu         sync.Mutex
	needSearch map[int]bool
}

// NewStatic returns a Static policy with every slot armed for an initial
// search.
func NewStatic(slots []int) *Static {
	s := &Static{needSearch: map[int]bool{}}
	for _, i := range slots {
		s.needSearch[i] = true
	}
	return s
}

func (s *Static) NewSlotContainer(i int) *tree.Node {
	return BuildStaticSlotSchema()
}

// Initialize is a no-op: Static mode performs no per-slot startup work,
// deferring its first bind to the first cycle's PreSlotUpdate.
func (s *Static) Initialize(ctx context.Context, session ipmi.Session, i int, slot *tree.Node) error {
	return nil
}

func (s *Static) needsSearch(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needSearch[i]
}

func (s *Static) arm(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needSearch[i] = true
}

func (s *Static) clear(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needSearch[i] = false
}

func (s *Static) PreSlotUpdate(ctx context.Context, session ipmi.Session, tr *tree.Tree, i int, slot *tree.Node, id string) []string {
	carrier := slot.Child("CarrierInfo")
	carrier.Child("ID").SetValue(common.String(id))

	if id == "" {
		// Carrier absent. Arm a re-search for whenever it returns; the
		// caller skips the rest of this slot's cycle entirely, so the
		// skip list returned here is never consulted.
		s.arm(i)
		return staticSkipKeys
	}

	if s.needsSearch(i) {
		// Gather every inventory blob over the wire first; the structure
		// lock is taken only to create missing leaves, never across
		// transport I/O.
		var carrierFields map[string]string
		if area, err := session.GetFRUProductInfo(ctx, 0); err == nil {
			carrierFields = fru.DecodeProductInfoArea(area)
		}

		amcIDs := make(map[uint8]string, len(amcBays))
		amcFields := make(map[uint8]map[string]string, len(amcBays))
		for _, bay := range amcBays {
			amcID := fru.ReadID(ctx, session, bay)
			amcIDs[bay] = amcID
			if amcID == "" {
				continue
			}
			if raw, err := fru.ReadAMCEEPROM(ctx, session, bay); err == nil {
				if fields, err := fru.DecodeAMCEEPROM(raw); err == nil {
					amcFields[bay] = fields
				}
			}
		}

		rtmID := fru.ReadID(ctx, session, rtmBay)
		var rtmFields map[string]string
		if rtmID != "" {
			if raw, err := fru.ReadRTMEEPROM(ctx, session); err == nil {
				if fields, err := fru.DecodeRTMEEPROM(raw); err == nil {
					rtmFields = fields
				}
			}
		}

		amcInfo := slot.Child(AMCInfoKey)
		rtm := slot.Child("RTMInfo")
		tr.WithStructureLock(func(*tree.Node) {
			ensureFieldLeaves(carrier, carrierFields)
			for _, bay := range amcBays {
				ensureFieldLeaves(amcInfo.Child(amcBayKey(bay)), amcFields[bay])
			}
			ensureFieldLeaves(rtm, rtmFields)
		})

		// Value writes, and the callbacks they fire, stay outside the
		// structure lock.
		setFieldValues(carrier, carrierFields)
		for _, bay := range amcBays {
			amc := amcInfo.Child(amcBayKey(bay))
			amc.Child("ID").SetValue(common.String(amcIDs[bay]))
			setFieldValues(amc, amcFields[bay])
		}
		rtm.Child("ID").SetValue(common.String(rtmID))
		setFieldValues(rtm, rtmFields)

		// Binding swaps each leaf's sensorRef in place without touching
		// any container, so the search runs outside the structure lock.
		_, _ = SearchSensors(ctx, session, slot)

		s.clear(i)
	}

	return staticSkipKeys
}

// MergeProductInfo writes each decoded product-info field into container
// as a FRU field leaf, creating the leaf if this is the first time the
// field has been seen and leaving other fields untouched: a read failure
// must not rewrite the field map, so merges are always additive per
// field, never a wholesale replace.
func MergeProductInfo(container *tree.Node, area ipmi.ProductInfoArea) {
	MergeEEPROMFields(container, fru.DecodeProductInfoArea(area))
}

// MergeEEPROMFields ensures and writes in one step, for containers not
// yet attached to a tree (the startup scans). Mid-cycle rebinds split
// the two phases so leaf creation happens under the structure lock and
// value writes happen outside it.
func MergeEEPROMFields(container *tree.Node, fields map[string]string) {
	ensureFieldLeaves(container, fields)
	setFieldValues(container, fields)
}

// ensureFieldLeaves adds an empty FRU field leaf for every field name
// container does not hold yet. This mutates the container's shape;
// callers touching an attached tree hold its structure lock.
func ensureFieldLeaves(container *tree.Node, fields map[string]string) {
	for name := range fields {
		if container.Child(name) == nil {
			container.AddChild(name, tree.NewFRUFieldLeaf())
		}
	}
}

// setFieldValues writes each decoded field value into its existing leaf.
func setFieldValues(container *tree.Node, fields map[string]string) {
	for name, value := range fields {
		if leaf := container.Child(name); leaf != nil {
			leaf.SetValue(common.String(value))
		}
	}
}

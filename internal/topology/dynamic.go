package topology

import (
	"context"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/fru"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

var dynamicSkipKeys = []string{"ID", "RTM", AMCInfoKey}

// Dynamic is the scan-only topology policy: a slot's
// sensors, AMC bays, and RTM are discovered once at startup by scanning
// whatever the target actually advertises; there is no search/rebind
// loop because topology is fixed once Initialize returns.
type Dynamic struct{}

// NewDynamic returns a Dynamic policy.
func NewDynamic() *Dynamic { return &Dynamic{} }

func (d *Dynamic) NewSlotContainer(i int) *tree.Node {
	return tree.NewContainer()
}

// Initialize performs the one-time Carrier/AMC/RTM discovery and sensor
// scan for slot i's already-open session.
func (d *Dynamic) Initialize(ctx context.Context, session ipmi.Session, i int, slot *tree.Node) error {
	id := fru.ReadID(ctx, session, CarrierIDBay)
	slot.AddChild("ID", tree.NewValueLeaf(common.String(id)))

	amcInfo := tree.NewContainer()
	for _, bay := range amcBays {
		amc := tree.NewContainer()
		amcID := fru.ReadID(ctx, session, bay)
		amc.AddChild("ID", tree.NewValueLeaf(common.String(amcID)))
		if amcID != "" {
			if raw, err := fru.ReadAMCEEPROM(ctx, session, bay); err == nil {
				if fields, err := fru.DecodeAMCEEPROM(raw); err == nil {
					MergeEEPROMFields(amc, fields)
				}
			}
		}
		amcInfo.AddChild(amcBayKey(bay), amc)
	}
	slot.AddChild(AMCInfoKey, amcInfo)

	rtm := tree.NewContainer()
	rtmID := fru.ReadID(ctx, session, rtmBay)
	rtm.AddChild("ID", tree.NewValueLeaf(common.String(rtmID)))
	if rtmID != "" {
		if raw, err := fru.ReadRTMEEPROM(ctx, session); err == nil {
			if fields, err := fru.DecodeRTMEEPROM(raw); err == nil {
				MergeEEPROMFields(rtm, fields)
			}
		}
	}
	slot.AddChild("RTM", rtm)

	return ScanSensors(ctx, session, slot, nil)
}

// PreSlotUpdate is a no-op beyond reporting which children the generic
// sensor loop must skip: Dynamic mode never rebinds after Initialize.
func (d *Dynamic) PreSlotUpdate(ctx context.Context, session ipmi.Session, tr *tree.Tree, i int, slot *tree.Node, id string) []string {
	return dynamicSkipKeys
}

package poll

import (
	"context"
	"strings"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/metrics"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

const shelfFRUName = "ShelfFRU1"

// initializeCrate performs the startup full scan of the shelf manager's
// SDR repository: it populates FanTrays from FRU
// device locators whose name contains "FanTray", reads the shelf's own
// product info from the locator named exactly "ShelfFRU1", and adds any
// other full/compact sensors directly under crate.
func initializeCrate(ctx context.Context, session ipmi.Session, crate *tree.Node) error {
	fanTrays := tree.NewContainer()
	crate.AddChild("FanTrays", fanTrays)
	crateInfo := tree.NewContainer()
	crate.AddChild("CrateInfo", crateInfo)

	return topology.ScanSensors(ctx, session, crate, func(entry ipmi.SDREntry, name string) {
		switch {
		case strings.Contains(name, "FanTray"):
			fanTrays.AddChild(name, tree.NewFanRecord(entry.FRUDeviceID))
		case name == shelfFRUName:
			if area, err := session.GetFRUProductInfo(ctx, entry.FRUDeviceID); err == nil {
				topology.MergeProductInfo(crateInfo, area)
			}
		}
	})
}

// updateCrate runs one cycle's worth of crate-level reads: each fan
// record's level and speed properties, and every other crate sensor's
// reading. CrateInfo is static and never re-read.
func updateCrate(ctx context.Context, session ipmi.Session, crate *tree.Node, rec *metrics.Recorder) {
	for _, name := range crate.Children() {
		child := crate.Child(name)
		switch name {
		case "CrateInfo":
			continue
		case "FanTrays":
			for _, fanName := range child.Children() {
				updateFanRecord(ctx, session, child.Child(fanName))
			}
		default:
			readSensor(ctx, session, child, rec)
		}
	}
}

func updateFanRecord(ctx context.Context, session ipmi.Session, fan *tree.Node) {
	fruID := fan.FRUDeviceID()

	if level, err := session.GetFanLevel(ctx, fruID); err == nil {
		fan.Child("speed_level").Child("value").SetValue(intValue(level))
	}
	if props, err := session.GetFanSpeedProperties(ctx, fruID); err == nil {
		fan.Child("minimum_speed_level").Child("value").SetValue(intValue(props.MinimumSpeedLevel))
		fan.Child("maximum_speed_level").Child("value").SetValue(intValue(props.MaximumSpeedLevel))
	}
	// A failed read leaves the prior minimum/maximum untouched.
}

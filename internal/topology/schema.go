package topology

import (
	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// staticSlotSensors is the fixed set of sensor names Static mode
// pre-materializes on every slot before any SDR search has run, so that
// a search only ever needs to bind sensorRef on an existing leaf rather
// than create one. Names follow common ATCA carrier telemetry points:
// board/zone temperatures, the switched DC rails, and per-AMC summary
// readings.
var staticSlotSensors = []string{
	"FRONT_TEMP",
	"REAR_TEMP",
	"RTM_TEMP",
	"FPGA_TEMP",
	"DDR_TEMP",
	"ETH_TEMP",
	"BACKPLANE_TEMP",
	"PSU_TEMP",
	"12V",
	"3V3",
	"2V5",
	"1V8",
	"1V5",
	"1V2",
	"1V0",
	"VADJ",
	"AMC0_TEMP",
	"AMC2_TEMP",
	"AMC0_12V",
	"AMC2_12V",
}

// amcBays are the two AMC bay numbers a Carrier hosts.
var amcBays = []uint8{0, 2}

// rtmBay is the fixed bay argument for RTM probes.
const rtmBay uint8 = 5

// CarrierIDBay is the bay argument used to probe a Carrier's own ID,
// exported for the poll engine's per-slot cycle step.
const CarrierIDBay uint8 = 4

// AMCInfoKey is the single container name holding both AMC bays' info,
// nested under string bay keys ("0", "2").
const AMCInfoKey = "AMCInfo"

// BuildStaticSlotSchema returns a fresh per-slot container holding the 20
// pre-materialized sensor leaves plus the CarrierInfo, RTMInfo, and
// AMCInfo placeholder containers Static mode's startup step requires.
func BuildStaticSlotSchema() *tree.Node {
	slot := tree.NewContainer()

	for _, name := range staticSlotSensors {
		slot.AddChild(name, tree.NewSensorLeaf())
	}

	carrier := tree.NewContainer()
	carrier.AddChild("ID", tree.NewValueLeaf(common.String("")))
	slot.AddChild("CarrierInfo", carrier)

	rtm := tree.NewContainer()
	rtm.AddChild("ID", tree.NewValueLeaf(common.String("")))
	slot.AddChild("RTMInfo", rtm)

	amcInfo := tree.NewContainer()
	for _, bay := range amcBays {
		amc := tree.NewContainer()
		amc.AddChild("ID", tree.NewValueLeaf(common.String("")))
		amcInfo.AddChild(amcBayKey(bay), amc)
	}
	slot.AddChild(AMCInfoKey, amcInfo)

	return slot
}

// amcBayKey returns the nested key an AMC bay's container sits under
// inside AMCInfo.
func amcBayKey(bay uint8) string {
	switch bay {
	case 0:
		return "0"
	case 2:
		return "2"
	default:
		return "?"
	}
}

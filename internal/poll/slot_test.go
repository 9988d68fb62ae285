package poll_test

import (
	"context"
	"testing"
	"time"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/ipmi/ipmitest"
	"github.com/ipmi-atca/shelfmon/internal/poll"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// buildAMCDump lays out a 160-byte AMC EEPROM image whose decoded
// Product_Serial_No is "123456", starting at the decoder's 0x4c cursor.
func buildAMCDump() []byte {
	dump := make([]byte, 160)
	fields := []byte{
		'A', 'C', 'M', 'E', 0xc0, 0xaa,
		'P', 'N', 0xc3,
		'v', '1', 0x08,
		0x12, 0x34, 0x56, 0xe0,
		'T', 0x00,
	}
	copy(dump[0x4c:], fields)
	return dump
}

func populatedSlotTarget() *ipmitest.Target {
	raw := map[string][]byte{
		"0504": {0x00, 0xab, 0xcd}, // Carrier ID probe, bay 4
		"0500": {0x00, 0x01},       // AMC bay 0 present
		// bay 2 and RTM (bay 5) probes are absent from the map, so the
		// fake answers them with a nonzero completion code.
	}
	dump := buildAMCDump()
	for j := 0; j < 10; j++ {
		key := "fc00" + hexByte(byte(j*16)) + "10"
		raw[key] = append([]byte{0x00}, dump[j*16:(j+1)*16]...)
	}

	return &ipmitest.Target{
		SDR: []ipmi.SDREntry{
			ipmi.NewLinearSensor(1, []byte("FRONT TEMP"), 1, 0, 0),
			ipmi.NewLinearSensor(7, []byte("REAR TEMP"), 1, 0, 0),
		},
		Readings: map[uint8]ipmitest.Reading{
			1: {Raw: 42, OK: true},
			7: {Err: common.ErrTimeout},
		},
		FRU: map[uint8]ipmi.ProductInfoArea{
			0: {Fields: map[string]ipmi.FRUField{
				"manufacturer":  {Value: []byte("Acme")},
				"serial_number": {Value: []byte{0xab, 0xcd}},
			}},
		},
		Raw: raw,
	}
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func TestPopulatedSlotCycle(t *testing.T) {
	f := ipmitest.New()
	f.Targets[shelfAddr] = &ipmitest.Target{
		SDR:       []ipmi.SDREntry{ipmi.NewFRULocator(5, []byte("FanTray_1"))},
		FanLevels: map[uint8]int{5: 3},
		FanProps:  map[uint8]ipmi.FanSpeedProperties{5: {MinimumSpeedLevel: 1, MaximumSpeedLevel: 15}},
	}
	f.Targets[slotAddrFor(3)] = populatedSlotTarget()

	tr := tree.New()
	tr.SetMinPollPeriod(0)
	policy := topology.NewStatic([]int{2, 3, 4, 5, 6, 7})
	engine := poll.New(poll.Config{Session: f, Tree: tr, Policy: policy})

	ctx := context.Background()
	if err := engine.Startup(ctx); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	engine.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	engine.Stop()

	assertString(t, tr, []string{"Slots", "3", "CarrierInfo", "ID"}, "abcd")
	assertString(t, tr, []string{"Slots", "3", "CarrierInfo", "serial_number"}, "abcd")
	assertString(t, tr, []string{"Slots", "3", "CarrierInfo", "manufacturer"}, "Acme")
	assertString(t, tr, []string{"Slots", "3", "AMCInfo", "0", "ID"}, "01")
	assertString(t, tr, []string{"Slots", "3", "AMCInfo", "0", "Product_Serial_No"}, "123456")
	assertString(t, tr, []string{"Slots", "3", "AMCInfo", "2", "ID"}, "")
	assertString(t, tr, []string{"Slots", "3", "RTMInfo", "ID"}, "")

	front, err := tr.GetValue([]string{"Slots", "3", "FRONT_TEMP"})
	if err != nil {
		t.Fatalf("GetValue FRONT_TEMP: %v", err)
	}
	if front.F != 42 {
		t.Errorf("FRONT_TEMP = %v, want 42", front.F)
	}

	// A timed-out sensor reads as 0 without disturbing the rest of the
	// cycle.
	rear, err := tr.GetValue([]string{"Slots", "3", "REAR_TEMP"})
	if err != nil {
		t.Fatalf("GetValue REAR_TEMP: %v", err)
	}
	if rear.F != 0 {
		t.Errorf("REAR_TEMP = %v, want 0 after a transport timeout", rear.F)
	}

	fanLevel, err := tr.GetValue([]string{"Crate", "FanTrays", "FanTray_1", "speed_level", "value"})
	if err != nil {
		t.Fatalf("GetValue fan speed_level: %v", err)
	}
	if fanLevel.I != 3 {
		t.Errorf("fan speed_level = %d, want 3", fanLevel.I)
	}
	fanMax, err := tr.GetValue([]string{"Crate", "FanTrays", "FanTray_1", "maximum_speed_level", "value"})
	if err != nil {
		t.Fatalf("GetValue fan maximum_speed_level: %v", err)
	}
	if fanMax.I != 15 {
		t.Errorf("fan maximum_speed_level = %d, want 15", fanMax.I)
	}
}

func assertString(t *testing.T, tr *tree.Tree, path []string, want string) {
	t.Helper()
	v, err := tr.GetValue(path)
	if err != nil {
		t.Fatalf("GetValue(%v): %v", path, err)
	}
	if v.S != want {
		t.Errorf("GetValue(%v) = %q, want %q", path, v.S, want)
	}
}

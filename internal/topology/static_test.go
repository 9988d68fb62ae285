package topology_test

import (
	"context"
	"testing"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/ipmi/ipmitest"
	"github.com/ipmi-atca/shelfmon/internal/topology"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

const slotAddr byte = 0x86 // slot 3

// buildRTMDump lays out a 256-byte RTM EEPROM image whose fields start
// at the decoder's 0x74 cursor.
func buildRTMDump() []byte {
	dump := make([]byte, 256)
	fields := []byte{
		'V', 'E', 'N', 0xd3,
		'R', 'T', 'M', 0xd1,
		'P', 'N', 0xc3,
		'v', '2', 0x08,
		0x99, 0xe0,
		'T', 0x00,
	}
	copy(dump[0x74:], fields)
	return dump
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return string([]byte{digits[b>>4], digits[b&0x0f]})
}

func newPopulatedFake() *ipmitest.Fake {
	raw := map[string][]byte{
		"0505": {0x00, 0x0f}, // RTM present at bay 5
	}
	dump := buildRTMDump()
	for j := 0; j < 16; j++ {
		key := "0b00" + hexByte(byte(j*16)) + "10"
		raw[key] = append([]byte{0x00}, dump[j*16:(j+1)*16]...)
	}

	f := ipmitest.New()
	f.Targets[slotAddr] = &ipmitest.Target{
		SDR: []ipmi.SDREntry{
			ipmi.NewLinearSensor(1, []byte("FRONT TEMP"), 1, 0, 0),
		},
		Readings: map[uint8]ipmitest.Reading{
			1: {Raw: 42, OK: true},
		},
		FRU: map[uint8]ipmi.ProductInfoArea{
			0: {Fields: map[string]ipmi.FRUField{"serial_number": {Value: []byte{0xab, 0xcd}}}},
		},
		Raw: raw,
	}
	return f
}

func TestStaticSearchRunsOnceOnHotSwap(t *testing.T) {
	f := newPopulatedFake()
	ctx := context.Background()
	tr := tree.New()
	policy := topology.NewStatic([]int{3})
	slot := policy.NewSlotContainer(3)

	// Cycle 1: slot empty.
	if err := f.Open(ctx, slotAddr); err != nil {
		t.Fatalf("Open: %v", err)
	}
	policy.PreSlotUpdate(ctx, f, tr, 3, slot, "")
	if f.IterSDRCalls != 0 {
		t.Fatalf("empty slot should not trigger a search, got %d IterSDR calls", f.IterSDRCalls)
	}

	// Cycle 2: Carrier inserted, ID now reads non-empty.
	policy.PreSlotUpdate(ctx, f, tr, 3, slot, "abcd")
	if f.IterSDRCalls != 1 {
		t.Fatalf("hot-swap insert should trigger exactly one search, got %d calls", f.IterSDRCalls)
	}

	leaf := slot.Child("FRONT_TEMP")
	if leaf == nil || leaf.SensorRef() == nil {
		t.Fatal("FRONT_TEMP should be bound to an SDR entry after the search")
	}

	// Cycle 3: still present, no further search.
	policy.PreSlotUpdate(ctx, f, tr, 3, slot, "abcd")
	if f.IterSDRCalls != 1 {
		t.Fatalf("steady-state cycle should not re-search, got %d calls total", f.IterSDRCalls)
	}
}

func TestStaticMergesCarrierProductInfo(t *testing.T) {
	f := newPopulatedFake()
	ctx := context.Background()
	tr := tree.New()
	policy := topology.NewStatic([]int{3})
	slot := policy.NewSlotContainer(3)

	f.Open(ctx, slotAddr)
	policy.PreSlotUpdate(ctx, f, tr, 3, slot, "abcd")

	carrier := slot.Child("CarrierInfo")
	serial := carrier.Child("serial_number")
	if serial == nil {
		t.Fatal("serial_number field should be merged into CarrierInfo")
	}
	if got := serial.Value().S; got != "abcd" {
		t.Errorf("serial_number = %q, want %q", got, "abcd")
	}
}

func TestStaticDecodesRTMEEPROM(t *testing.T) {
	f := newPopulatedFake()
	ctx := context.Background()
	tr := tree.New()
	policy := topology.NewStatic([]int{3})
	slot := policy.NewSlotContainer(3)

	f.Open(ctx, slotAddr)
	policy.PreSlotUpdate(ctx, f, tr, 3, slot, "abcd")

	rtm := slot.Child("RTMInfo")
	if got := rtm.Child("ID").Value().S; got != "0f" {
		t.Fatalf("RTMInfo.ID = %q, want %q", got, "0f")
	}
	want := map[string]string{
		"Product_Mfg_Name":    "VEN",
		"Product_Name":        "RTM",
		"Product_Part_Number": "PN",
		"Product_Version":     "v2",
		"Product_Serial_No":   "99",
		"Product_Asset_Tag":   "T",
	}
	for name, value := range want {
		leaf := rtm.Child(name)
		if leaf == nil {
			t.Fatalf("RTMInfo.%s missing, want %q", name, value)
		}
		if got := leaf.Value().S; got != value {
			t.Errorf("RTMInfo.%s = %q, want %q", name, got, value)
		}
	}
}

func TestStaticEmptyIDReturnsSkipKeysAndZeroesCarrierID(t *testing.T) {
	f := newPopulatedFake()
	ctx := context.Background()
	tr := tree.New()
	policy := topology.NewStatic([]int{3})
	slot := policy.NewSlotContainer(3)

	f.Open(ctx, slotAddr)
	skip := policy.PreSlotUpdate(ctx, f, tr, 3, slot, "")

	if len(skip) == 0 {
		t.Fatal("PreSlotUpdate must always report container keys to skip")
	}
	carrier := slot.Child("CarrierInfo")
	if got := carrier.Child("ID").Value().S; got != "" {
		t.Errorf("CarrierInfo.ID = %q, want empty", got)
	}
}

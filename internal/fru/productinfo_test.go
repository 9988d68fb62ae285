package fru_test

import (
	"testing"

	"github.com/ipmi-atca/shelfmon/internal/fru"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
)

func TestDecodeProductInfoArea(t *testing.T) {
	area := ipmi.ProductInfoArea{
		Fields: map[string]ipmi.FRUField{
			"manufacturer":  {Value: []byte(" Acme Corp ")},
			"name":          {Value: []byte("Shelf Controller")},
			"serial_number": {Value: []byte{0x12, 0x34, 0xab}},
		},
	}

	got := fru.DecodeProductInfoArea(area)

	if got["manufacturer"] != "Acme Corp" {
		t.Errorf("manufacturer = %q, want trimmed %q", got["manufacturer"], "Acme Corp")
	}
	if _, exists := got["name"]; exists {
		t.Errorf("literal field name %q must be renamed to %q, not kept as-is", "name", "Name")
	}
	if got["Name"] != "Shelf Controller" {
		t.Errorf("Name = %q, want %q", got["Name"], "Shelf Controller")
	}
	if got["serial_number"] != "1234ab" {
		t.Errorf("serial_number = %q, want lowercase hex %q", got["serial_number"], "1234ab")
	}
}

func TestDecodeProductInfoAreaRenamesSpacesToUnderscores(t *testing.T) {
	area := ipmi.ProductInfoArea{
		Fields: map[string]ipmi.FRUField{
			"asset tag": {Value: []byte("RACK-4")},
		},
	}

	got := fru.DecodeProductInfoArea(area)
	if got["asset_tag"] != "RACK-4" {
		t.Errorf("asset_tag = %q, want %q", got["asset_tag"], "RACK-4")
	}
}

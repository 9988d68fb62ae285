package fru

import (
	"bytes"
	"fmt"
)

// fieldFormat is how a field's raw byte span renders to a string.
type fieldFormat int

const (
	formatChar fieldFormat = iota
	formatHex2
)

// eepromField is one entry of an ordered EEPROM field map: read bytes up
// to the next occurrence of marker, render them per format, then skip
// step bytes before resuming the search for the next field.
type eepromField struct {
	name   string
	marker byte
	step   int
	format fieldFormat
}

// amcFieldMap and rtmFieldMap are the two built-in EEPROM field maps.
// Product_Version's marker is 0x08, which also appears as a legitimate
// FRU length-byte prefix elsewhere in the dump; the decoder treats every
// occurrence of a field's marker literally and does not try to
// disambiguate length-byte collisions.
var amcFieldMap = []eepromField{
	{"Product_Mfg_Name", 0xc0, 2, formatChar},
	{"Product_Part_Number", 0xc3, 1, formatChar},
	{"Product_Version", 0x08, 1, formatChar},
	{"Product_Serial_No", 0xe0, 1, formatHex2},
	{"Product_Asset_Tag", 0x00, 1, formatChar},
}

var rtmFieldMap = []eepromField{
	{"Product_Mfg_Name", 0xd3, 1, formatChar},
	{"Product_Name", 0xd1, 1, formatChar},
	{"Product_Part_Number", 0xc3, 1, formatChar},
	{"Product_Version", 0x08, 1, formatChar},
	{"Product_Serial_No", 0xe0, 1, formatHex2},
	{"Product_Asset_Tag", 0x00, 1, formatChar},
}

const (
	amcCursorStart = 0x4c
	rtmCursorStart = 0x74
)

// DecodeAMCEEPROM decodes a dumped AMC module EEPROM into its
// Product_* fields.
func DecodeAMCEEPROM(raw []byte) (map[string]string, error) {
	return decodeEEPROM(raw, amcFieldMap, amcCursorStart)
}

// DecodeRTMEEPROM decodes a dumped RTM module EEPROM into its
// Product_* fields.
func DecodeRTMEEPROM(raw []byte) (map[string]string, error) {
	return decodeEEPROM(raw, rtmFieldMap, rtmCursorStart)
}

// decodeEEPROM walks fields in declared order with a single cursor: each
// field's value runs from the cursor up to the next occurrence of its
// marker byte, after which the cursor advances past the marker by step.
func decodeEEPROM(raw []byte, fields []eepromField, start int) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	cursor := start
	for _, f := range fields {
		if cursor > len(raw) {
			return out, fmt.Errorf("fru: eeprom cursor past end of data decoding %s", f.name)
		}
		rel := bytes.IndexByte(raw[cursor:], f.marker)
		if rel < 0 {
			return out, fmt.Errorf("fru: marker 0x%02x for %s not found", f.marker, f.name)
		}
		end := cursor + rel
		out[f.name] = renderField(raw[cursor:end], f.format)
		cursor = end + f.step
	}
	return out, nil
}

// renderField renders a field's byte span: hex2 as two lowercase hex
// digits per byte, char as a direct byte-to-char conversion with no
// trimming (trimming is a product-info rule, not an EEPROM one).
func renderField(b []byte, format fieldFormat) string {
	switch format {
	case formatHex2:
		return toHex(b)
	default:
		return decodeLatin1(b)
	}
}

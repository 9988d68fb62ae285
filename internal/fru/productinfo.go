// Package fru decodes the two FRU representations this monitor reads:
// standard IPMI product-info areas (read from a shelf's own FRU device)
// and the vendor EEPROM field-map format carried by AMC and RTM modules.
package fru

import (
	"fmt"
	"strings"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
)

// DecodeProductInfoArea renders a decoded ipmi.ProductInfoArea into
// display strings. Field names with spaces are rewritten with
// underscores, the literal field name "name" becomes "Name", and
// serial_number is rendered as a lowercase hex string rather than as
// text since the source stores it as raw binary, not ASCII.
func DecodeProductInfoArea(area ipmi.ProductInfoArea) map[string]string {
	out := make(map[string]string, len(area.Fields))
	for rawName, field := range area.Fields {
		name := strings.ReplaceAll(rawName, " ", "_")
		if name == "name" {
			name = "Name"
		}
		if name == "serial_number" {
			out[name] = toHex(field.Value)
			continue
		}
		out[name] = decodeLatin1Trimmed(field.Value)
	}
	return out
}

func toHex(b []byte) string {
	var sb strings.Builder
	for _, v := range b {
		fmt.Fprintf(&sb, "%02x", v)
	}
	return sb.String()
}

// decodeLatin1 treats each byte as a Latin-1 code point (every byte
// value maps 1:1 to the same Unicode code point up to 0xFF).
func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, v := range b {
		runes[i] = rune(v)
	}
	return string(runes)
}

// decodeLatin1Trimmed additionally trims leading/trailing spaces, tabs,
// CR, LF and NUL bytes, the rendering rule for product-info text fields
// only.
func decodeLatin1Trimmed(b []byte) string {
	return strings.Trim(decodeLatin1(b), " \t\r\n\x00")
}

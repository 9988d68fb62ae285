package ipmi

// decodeProductInfoWire parses a raw FRU inventory area into its product
// info record, per the IPMI Platform Management FRU Information Storage
// layout: a one-byte-per-area offset table, then for the product info
// area a format version, area length, language code, and a sequence of
// type/length-prefixed fields terminated by the 0xC1 end marker.
//
// This only splits the area into named byte fields; internal/fru owns the
// display-string decoding rules (underscore rewriting, hex serials, and
// so on) described for it.
func decodeProductInfoWire(raw []byte) ProductInfoArea {
	area := ProductInfoArea{Fields: map[string]FRUField{}, Data: raw}
	if len(raw) < 8 {
		return area
	}

	// Common header: byte 0 is the format version, bytes 1-5 are area
	// offsets in 8-byte multiples (internal use area, chassis info,
	// board info, product info, multirecord), byte 6 is padding and
	// byte 7 the header checksum. Offset 0 means the area is absent.
	productOffset := int(raw[4]) * 8
	if productOffset == 0 || productOffset >= len(raw) {
		return area
	}

	p := raw[productOffset:]
	if len(p) < 3 {
		return area
	}
	// p[0] format version, p[1] area length in 8-byte multiples, p[2]
	// language code.
	cursor := 3

	names := []string{"manufacturer", "name", "part_number", "version", "serial_number", "asset_tag", "fru_file_id"}
	for _, name := range names {
		if cursor >= len(p) {
			break
		}
		tl := p[cursor]
		if tl == 0xc1 {
			break
		}
		n := int(tl & 0x3f)
		cursor++
		if cursor+n > len(p) {
			break
		}
		area.Fields[name] = FRUField{Value: append([]byte(nil), p[cursor:cursor+n]...)}
		cursor += n
	}

	return area
}

package ipmi

import "fmt"

// The shelf manager's SDR repository is read record by record over the
// wire; each record's body layout depends on its type (full sensor,
// compact sensor, FRU device locator). We use a compact, explicit
// binary layout for the three record kinds this module needs rather than
// reverse-engineering every byte of the full IPMI SDR record formats
// (which also carry threshold/hysteresis/OEM fields this engine never
// reads) — see DESIGN.md for the record on this simplification.
const (
	recKindFull byte = iota
	recKindCompact
	recKindFRULocator
)

// decodeSDRRecord parses one SDR repository record body into an SDREntry.
func decodeSDRRecord(raw []byte) (SDREntry, error) {
	if len(raw) < 2 {
		return SDREntry{}, fmt.Errorf("ipmi: sdr record too short")
	}
	switch raw[0] {
	case recKindFull:
		if len(raw) < 6 {
			return SDREntry{}, fmt.Errorf("ipmi: truncated full-sensor sdr record")
		}
		number := raw[1]
		m := int(int8(raw[2]))
		b := int(int8(raw[3]))
		exp := int(int8(raw[4]))
		nameLen := int(raw[5])
		if len(raw) < 6+nameLen {
			return SDREntry{}, fmt.Errorf("ipmi: truncated sdr device-id string")
		}
		return newLinearSensor(number, raw[6:6+nameLen], m, b, exp), nil

	case recKindCompact:
		if len(raw) < 3 {
			return SDREntry{}, fmt.Errorf("ipmi: truncated compact-sensor sdr record")
		}
		number := raw[1]
		nameLen := int(raw[2])
		if len(raw) < 3+nameLen {
			return SDREntry{}, fmt.Errorf("ipmi: truncated sdr device-id string")
		}
		return SDREntry{Type: CompactSensorRecord, Number: number, DeviceIDString: raw[3 : 3+nameLen]}, nil

	case recKindFRULocator:
		if len(raw) < 4 {
			return SDREntry{}, fmt.Errorf("ipmi: truncated fru-locator sdr record")
		}
		fruID := raw[1]
		nameLen := int(raw[3])
		if len(raw) < 4+nameLen {
			return SDREntry{}, fmt.Errorf("ipmi: truncated sdr device-id string")
		}
		return SDREntry{Type: FRUDeviceLocatorRecord, FRUDeviceID: fruID, DeviceIDString: raw[4 : 4+nameLen]}, nil

	default:
		return SDREntry{}, fmt.Errorf("ipmi: unknown sdr record kind 0x%02x", raw[0])
	}
}

// encodeSDRRecord is the inverse of decodeSDRRecord, used by test fixtures
// standing in for a shelf manager's SDR repository.
func encodeSDRRecord(e SDREntry) []byte {
	switch e.Type {
	case FullSensorRecord:
		out := []byte{recKindFull, e.Number, byte(int8(e.m)), byte(int8(e.b)), byte(int8(e.exp)), byte(len(e.DeviceIDString))}
		return append(out, e.DeviceIDString...)
	case CompactSensorRecord:
		out := []byte{recKindCompact, e.Number, byte(len(e.DeviceIDString))}
		return append(out, e.DeviceIDString...)
	case FRUDeviceLocatorRecord:
		out := []byte{recKindFRULocator, e.FRUDeviceID, 0, byte(len(e.DeviceIDString))}
		return append(out, e.DeviceIDString...)
	default:
		return nil
	}
}

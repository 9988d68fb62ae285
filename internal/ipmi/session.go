// Package ipmi is the IPMI transport adapter: a single-session client
// bound to one shelf-manager host, exposing the
// handful of operations the poll engine and FRU decoder need and nothing
// else. It never decides retry policy — a closed or failed session stays
// closed until the caller reopens it on the next cycle.
package ipmi

import "context"

// DeviceID is the decoded response to Get Device ID.
type DeviceID struct {
	DeviceID                byte
	DeviceRevision          byte
	FirmwareRevision        [2]byte
	IPMIVersion             byte
	AdditionalDeviceSupport byte
}

// function bits of AdditionalDeviceSupport, IPMI Get Device ID response.
const (
	supportsSensor = 1 << 0
)

// SupportsFunction reports whether the device advertises the named IPMI
// function. Only "sensor" is consulted, by the shelf-manager device-id
// probe the poll engine runs once at startup.
func (d DeviceID) SupportsFunction(name string) bool {
	switch name {
	case "sensor":
		return d.AdditionalDeviceSupport&supportsSensor != 0
	default:
		return false
	}
}

// FanSpeedProperties is the decoded response to Get Fan Speed Properties.
type FanSpeedProperties struct {
	MinimumSpeedLevel int
	MaximumSpeedLevel int
}

// FRUField is one decoded product-info-area field: raw bytes as stored in
// the FRU, not yet rendered to a display string (that happens in
// internal/fru).
type FRUField struct {
	Value []byte
}

// ProductInfoArea is the product-info record of a FRU inventory area.
// Fields holds every named field keyed by its wire name (e.g.
// "serial_number", "name", "manufacturer"); Data holds the undivided raw
// area bytes, a pseudo-field the decoder skips over rather than
// exposing as a named field.
type ProductInfoArea struct {
	Fields map[string]FRUField
	Data   []byte
}

// Session is everything the FRU decoder and poll engine need from an open
// IPMI target. A session is bound to one target at a time; callers must
// call Open again to address a different IPMB address.
type Session interface {
	// Open tears down any prior session and establishes a new one to
	// ipmbAddress. On failure it returns a non-nil error and ActiveIPMB
	// reports the sentinel -1.
	Open(ctx context.Context, ipmbAddress byte) error
	Close() error
	// ActiveIPMB returns the IPMB address of the currently open target,
	// or -1 if none is open (diagnostics only).
	ActiveIPMB() int

	GetDeviceID(ctx context.Context) (DeviceID, error)
	// IterSDR walks the open target's SDR repository, calling fn once per
	// entry. It stops and returns fn's error if fn returns one, and
	// returns a transport error if iteration fails mid-stream — in either
	// case entries already delivered to fn remain valid; partial results
	// are retained rather than discarded.
	IterSDR(ctx context.Context, fn func(SDREntry) error) error
	// GetSensorReading returns ok=false when the sensor has no reading
	// available (the IPMI "reading unavailable" case), distinct from an
	// error.
	GetSensorReading(ctx context.Context, number uint8) (raw uint8, ok bool, err error)
	GetFanLevel(ctx context.Context, fruID uint8) (int, error)
	GetFanSpeedProperties(ctx context.Context, fruID uint8) (FanSpeedProperties, error)
	GetFRUProductInfo(ctx context.Context, fruID uint8) (ProductInfoArea, error)
	// RawCommand issues a vendor/OEM command and returns the full response
	// payload, byte 0 being the completion code (0 = success).
	RawCommand(ctx context.Context, lun, netFn byte, payload []byte) ([]byte, error)
}

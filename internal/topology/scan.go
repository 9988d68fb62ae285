package topology

import (
	"context"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
	"github.com/ipmi-atca/shelfmon/internal/tree"
)

// FRULocatorHandler is invoked once per FRU device locator record
// encountered while scanning, after name sanitization. It is the hook
// crate-level scanning uses to recognize fan trays and the shelf FRU;
// slot-level Dynamic scanning passes nil since slots have neither.
type FRULocatorHandler func(entry ipmi.SDREntry, name string)

// ScanSensors walks the SDR repository of the currently open target and
// adds a bound leaf to container for every full or compact sensor it
// finds. A full sensor's initial value is its converted reading; a
// compact sensor's is its raw reading. A failed individual reading
// leaves the leaf at its zero value rather than aborting the scan.
//
// If iteration itself fails partway through, ScanSensors returns the
// error with whatever children it already added left in place; the
// caller logs and moves on, keeping the partial results.
func ScanSensors(ctx context.Context, session ipmi.Session, container *tree.Node, onLocator FRULocatorHandler) error {
	return session.IterSDR(ctx, func(entry ipmi.SDREntry) error {
		switch entry.Type {
		case ipmi.FullSensorRecord:
			name := sanitizeName(entry.DeviceIDString)
			leaf := tree.NewSensorLeaf()
			leaf.Bind(entry)
			if raw, ok, err := session.GetSensorReading(ctx, entry.Number); err == nil && ok {
				leaf.SetValue(common.Float(entry.ConvertSensorRawToValue(raw)))
			}
			container.AddChild(name, leaf)

		case ipmi.CompactSensorRecord:
			name := sanitizeName(entry.DeviceIDString)
			leaf := tree.NewSensorLeaf()
			leaf.Bind(entry)
			if raw, ok, err := session.GetSensorReading(ctx, entry.Number); err == nil && ok {
				leaf.SetValue(common.Int(int64(raw)))
			}
			container.AddChild(name, leaf)

		case ipmi.FRUDeviceLocatorRecord:
			if onLocator != nil {
				onLocator(entry, sanitizeName(entry.DeviceIDString))
			}
		}
		return nil
	})
}

// SearchSensors re-walks the SDR repository but only rebinds sensorRef
// on leaves that already exist in container under the discovered name
// (Static mode's pre-materialized schema); unknown names are ignored.
// It returns the number of leaves bound.
func SearchSensors(ctx context.Context, session ipmi.Session, container *tree.Node) (int, error) {
	bound := 0
	err := session.IterSDR(ctx, func(entry ipmi.SDREntry) error {
		switch entry.Type {
		case ipmi.FullSensorRecord, ipmi.CompactSensorRecord:
			name := sanitizeName(entry.DeviceIDString)
			if leaf := container.Child(name); leaf != nil {
				leaf.Bind(entry)
				bound++
			}
		}
		return nil
	})
	return bound, err
}

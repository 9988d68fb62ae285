// Package tree implements the Sensor Tree and Query Interface: a
// hierarchical, tagged-union in-memory model of a crate's fans,
// inventory, and per-slot sensors, safe for one writer (the poll engine)
// and many concurrent readers.
package tree

import (
	"sync"

	"github.com/ipmi-atca/shelfmon/common"
	"github.com/ipmi-atca/shelfmon/internal/ipmi"
)

// Kind tags which shape a Node has, replacing map-shape duck-typing
// ("does this map have a value key") with an explicit tag for
// recognizing leaves.
type Kind int

const (
	KindContainer Kind = iota
	KindSensor
	KindFRUField
	KindValue
)

// Node is one entry of the Sensor Tree. Containers hold ordered children;
// the other three kinds are leaves holding one value cell and an
// optional callback.
type Node struct {
	kind Kind

	// Container fields.
	order    []string
	children map[string]*Node

	// Sensor-only: the bound SDR entry, nil until a search/scan binds it.
	// sensorKind distinguishes full (converted) from compact (raw) readings.
	sensorMu   sync.RWMutex
	sensorRef  *ipmi.SDREntry
	sensorKind ipmi.SDRType

	// FanRecord metadata: which FRU device ID getFanLevel/
	// getFanSpeedProperties address. Zero for every other kind.
	fruDeviceID uint8

	// Leaf value cell, shared by Sensor/FRUField/Value kinds.
	valueMu  sync.Mutex
	value    common.Value
	callback func(common.Value)
}

// NewContainer returns an empty, ordered container node.
func NewContainer() *Node {
	return &Node{kind: KindContainer, children: map[string]*Node{}}
}

// NewValueLeaf returns a plain value leaf seeded with v.
func NewValueLeaf(v common.Value) *Node {
	return &Node{kind: KindValue, value: v}
}

// NewSensorLeaf returns an unbound sensor leaf seeded with a zero value,
// the shape every Static-mode schema slot starts in before a search
// binds a real SDR entry to it.
func NewSensorLeaf() *Node {
	return &Node{kind: KindSensor, value: common.Float(0)}
}

// NewFRUFieldLeaf returns an empty FRU field leaf.
func NewFRUFieldLeaf() *Node {
	return &Node{kind: KindFRUField, value: common.String("")}
}

// NewFanRecord returns a container pre-populated with the fan tray
// record's three sub-records, bound to the given FRU device ID.
// speed_level also carries fru_id as a queryable leaf so a caller walking
// the tree can recover which FRU device a given fan speed came from
// without reaching into Go-level node metadata.
func NewFanRecord(fruDeviceID uint8) *Node {
	c := NewContainer()
	c.fruDeviceID = fruDeviceID

	speedLevel := NewContainer()
	speedLevel.AddChild("fru_id", NewValueLeaf(common.Int(int64(fruDeviceID))))
	speedLevel.AddChild("value", NewValueLeaf(common.Int(0)))
	c.AddChild("speed_level", speedLevel)

	minSpeedLevel := NewContainer()
	minSpeedLevel.AddChild("value", NewValueLeaf(common.Int(0)))
	c.AddChild("minimum_speed_level", minSpeedLevel)

	maxSpeedLevel := NewContainer()
	maxSpeedLevel.AddChild("value", NewValueLeaf(common.Int(0)))
	c.AddChild("maximum_speed_level", maxSpeedLevel)

	return c
}

func (n *Node) Kind() Kind { return n.kind }

// FRUDeviceID returns the FRU device ID a fan-record container was
// constructed with.
func (n *Node) FRUDeviceID() uint8 { return n.fruDeviceID }

// AddChild inserts child under name, appending to the container's
// insertion order if name is new. Only valid on KindContainer nodes.
func (n *Node) AddChild(name string, child *Node) {
	if _, exists := n.children[name]; !exists {
		n.order = append(n.order, name)
	}
	n.children[name] = child
}

// Child returns the named child, or nil if absent or n is not a
// container.
func (n *Node) Child(name string) *Node {
	if n.children == nil {
		return nil
	}
	return n.children[name]
}

// Children returns child names in insertion order.
func (n *Node) Children() []string {
	out := make([]string, len(n.order))
	copy(out, n.order)
	return out
}

// Bind attaches an SDR entry to a sensor leaf, normalizing its kind tag.
// Used by both the scan path (fresh binding) and the search path
// (rebinding an existing schema slot).
func (n *Node) Bind(ref ipmi.SDREntry) {
	n.sensorMu.Lock()
	defer n.sensorMu.Unlock()
	n.sensorRef = &ref
	n.sensorKind = ref.Type
}

// SensorRef returns the currently bound SDR entry, or nil if the leaf
// has never been bound (the sensor-read rule treats a nil ref as "not
// yet discovered" rather than an error).
func (n *Node) SensorRef() *ipmi.SDREntry {
	n.sensorMu.RLock()
	defer n.sensorMu.RUnlock()
	return n.sensorRef
}

// Value returns the leaf's current value.
func (n *Node) Value() common.Value {
	n.valueMu.Lock()
	defer n.valueMu.Unlock()
	return n.value
}

// SetValue stores v and, if a callback is attached, invokes it with the
// new value after releasing the value lock so the callback can never
// re-enter the tree writer while holding it.
func (n *Node) SetValue(v common.Value) {
	n.valueMu.Lock()
	n.value = v
	cb := n.callback
	n.valueMu.Unlock()
	if cb != nil {
		cb(v)
	}
}

// SetCallback attaches fn, replacing any previously attached callback.
func (n *Node) SetCallback(fn func(common.Value)) {
	n.valueMu.Lock()
	defer n.valueMu.Unlock()
	n.callback = fn
}

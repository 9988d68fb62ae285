// Package ipmitest provides a fake ipmi.Session for exercising the
// topology and poll packages without a real shelf manager. It is
// exported (not a _test.go file) so more than one package's tests can
// share one fake, the way the transport layer's own tests would stand
// one up against a mock target.
package ipmitest

import (
	"context"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
)

// Target is one fake IPMB target's canned responses.
type Target struct {
	DeviceID  ipmi.DeviceID
	SDR       []ipmi.SDREntry
	Readings  map[uint8]Reading
	FanLevels map[uint8]int
	FanProps  map[uint8]ipmi.FanSpeedProperties
	FRU       map[uint8]ipmi.ProductInfoArea
	Raw       map[string][]byte // hex(payload) -> response bytes (cc prepended)
	OpenErr   error
}

// Reading is a canned sensor reading.
type Reading struct {
	Raw uint8
	OK  bool
	Err error
}

// Fake implements ipmi.Session against a map of addr -> Target.
type Fake struct {
	mu      sync.Mutex
	Targets map[byte]*Target

	active byte
	opened bool

	// IterSDRErr, if set, makes IterSDR fail after delivering entries up
	// to (but not including) index FailAt for the currently open target.
	IterSDRErr error
	FailAt     int

	// IterSDRCalls counts how many times IterSDR has been invoked, for
	// tests asserting a search ran exactly once.
	IterSDRCalls int
}

func New() *Fake {
	return &Fake{Targets: map[byte]*Target{}}
}

func (f *Fake) target() *Target {
	t, ok := f.Targets[f.active]
	if !ok {
		t = &Target{}
		f.Targets[f.active] = t
	}
	return t
}

func (f *Fake) Open(ctx context.Context, ipmbAddress byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.Targets[ipmbAddress]
	if t != nil && t.OpenErr != nil {
		f.opened = false
		return t.OpenErr
	}
	f.active = ipmbAddress
	f.opened = true
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened = false
	return nil
}

func (f *Fake) ActiveIPMB() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.opened {
		return -1
	}
	return int(f.active)
}

func (f *Fake) GetDeviceID(ctx context.Context) (ipmi.DeviceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target().DeviceID, nil
}

func (f *Fake) IterSDR(ctx context.Context, fn func(ipmi.SDREntry) error) error {
	f.mu.Lock()
	f.IterSDRCalls++
	entries := append([]ipmi.SDREntry(nil), f.target().SDR...)
	iterErr := f.IterSDRErr
	failAt := f.FailAt
	f.mu.Unlock()

	for i, e := range entries {
		if iterErr != nil && i == failAt {
			return iterErr
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (f *Fake) GetSensorReading(ctx context.Context, number uint8) (uint8, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.target().Readings[number]
	if !ok {
		return 0, false, nil
	}
	return r.Raw, r.OK, r.Err
}

func (f *Fake) GetFanLevel(ctx context.Context, fruID uint8) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target().FanLevels[fruID], nil
}

func (f *Fake) GetFanSpeedProperties(ctx context.Context, fruID uint8) (ipmi.FanSpeedProperties, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.target().FanProps[fruID]
	if !ok {
		return ipmi.FanSpeedProperties{}, fmt.Errorf("ipmitest: no fan properties for fru %d", fruID)
	}
	return p, nil
}

func (f *Fake) GetFRUProductInfo(ctx context.Context, fruID uint8) (ipmi.ProductInfoArea, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	area, ok := f.target().FRU[fruID]
	if !ok {
		return ipmi.ProductInfoArea{}, fmt.Errorf("ipmitest: no fru %d", fruID)
	}
	return area, nil
}

func (f *Fake) RawCommand(ctx context.Context, lun, netFn byte, payload []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := hex.EncodeToString(payload)
	resp, ok := f.target().Raw[key]
	if !ok {
		return []byte{0xc1}, nil // IPMI "invalid command" completion code
	}
	return resp, nil
}

var _ ipmi.Session = (*Fake)(nil)

package ipmi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ipmi-atca/shelfmon/common"
)

const (
	// netFn values used by this module (IPMI spec + PICMG extensions).
	netFnApp        byte = 0x06
	netFnSensor     byte = 0x04
	netFnStorage    byte = 0x0a
	netFnPICMG      byte = 0x2c
	picmgIdentifier byte = 0x00

	cmdGetDeviceID           byte = 0x01
	cmdGetSensorReading      byte = 0x2d
	cmdReserveSDRRepo        byte = 0x22
	cmdGetSDR                byte = 0x23
	cmdGetFRUInventoryArea   byte = 0x10
	cmdReadFRUData           byte = 0x11
	cmdGetFanSpeed           byte = 0x42
	cmdGetFanSpeedProperties byte = 0x43

	readingUnavailableBit byte = 0x20 // states bit 5

	localRqAddr byte = 0x81 // our synthetic requester address
)

// Client is the default Session implementation: RMCP over UDP to a
// shelf-manager host.
type Client struct {
	host    string
	port    int
	timeout time.Duration

	mu         sync.Mutex
	conn       net.Conn
	sessionSeq uint32
	rqSeq      byte
	activeIPMB int
}

var _ Session = (*Client)(nil)

// NewClient creates a transport bound to host:port. It does not dial until
// Open is called.
func NewClient(host string, port int, timeout time.Duration) *Client {
	if port == 0 {
		port = 623
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{host: host, port: port, timeout: timeout, activeIPMB: -1}
}

func (c *Client) ActiveIPMB() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeIPMB
}

// Open tears down the prior UDP socket, if any, and dials a fresh one
// bound to this target IPMB address. Dialing a UDP socket does not itself
// cross the network, so the real failure mode this surfaces is a local
// resolution/routing error; per-command timeouts are what actually detect
// an unreachable target.
func (c *Client) Open(ctx context.Context, ipmbAddress byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	d := net.Dialer{Timeout: c.timeout}
	conn, err := d.DialContext(ctx, "udp", fmt.Sprintf("%s:%d", c.host, c.port))
	if err != nil {
		c.activeIPMB = -1
		return fmt.Errorf("%w: dialing %s:%d: %v", common.ErrTransport, c.host, c.port, err)
	}

	c.conn = conn
	c.sessionSeq = 0
	c.rqSeq = 0
	c.activeIPMB = int(ipmbAddress)
	return nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.activeIPMB = -1
	return err
}

// send issues one request/response exchange against the currently open
// target and returns the response payload, with the completion code
// already checked and stripped.
func (c *Client) send(ctx context.Context, netFn, lun, cmd byte, data []byte) ([]byte, error) {
	c.mu.Lock()
	conn := c.conn
	rsAddr := byte(c.activeIPMB)
	c.sessionSeq++
	c.rqSeq++
	seq := c.sessionSeq
	rqSeq := c.rqSeq
	c.mu.Unlock()

	if conn == nil {
		return nil, fmt.Errorf("%w: no open session", common.ErrTransport)
	}

	req := encodeRequest(seq, rsAddr, netFn, lun, localRqAddr, rqSeq, cmd, data)

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(c.timeout))
	}

	if _, err := conn.Write(req); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	buf := make([]byte, 1024)
	n, err := conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return nil, common.ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}

	resp, err := decodeResponse(buf[:n])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrTransport, err)
	}
	if resp.cc != 0 {
		return nil, &common.CompletionCodeError{CC: resp.cc}
	}
	return resp.data, nil
}

func (c *Client) GetDeviceID(ctx context.Context) (DeviceID, error) {
	data, err := c.send(ctx, netFnApp, 0, cmdGetDeviceID, nil)
	if err != nil {
		return DeviceID{}, err
	}
	if len(data) < 6 {
		return DeviceID{}, fmt.Errorf("%w: short get-device-id response", common.ErrTransport)
	}
	return DeviceID{
		DeviceID:                data[0],
		DeviceRevision:          data[1],
		FirmwareRevision:        [2]byte{data[2], data[3]},
		IPMIVersion:             data[4],
		AdditionalDeviceSupport: data[5],
	}, nil
}

// IterSDR walks the SDR repository by record ID, the standard IPMI
// reserve/get-next-record-id loop, stopping at the 0xFFFF sentinel that
// marks the end of the repository.
func (c *Client) IterSDR(ctx context.Context, fn func(SDREntry) error) error {
	reservation, err := c.send(ctx, netFnStorage, 0, cmdReserveSDRRepo, nil)
	if err != nil {
		return err
	}
	if len(reservation) < 2 {
		return fmt.Errorf("%w: short reserve-sdr-repository response", common.ErrTransport)
	}
	resID := reservation

	recordID := uint16(0)
	for recordID != 0xffff {
		req := []byte{resID[0], resID[1], byte(recordID), byte(recordID >> 8), 0, 0xff}
		data, err := c.send(ctx, netFnStorage, 0, cmdGetSDR, req)
		if err != nil {
			return err
		}
		if len(data) < 2 {
			return fmt.Errorf("%w: short get-sdr response", common.ErrTransport)
		}
		nextID := uint16(data[0]) | uint16(data[1])<<8
		// Record kinds this module does not model are skipped, not fatal.
		if len(data) > 2 && data[2] > recKindFRULocator {
			recordID = nextID
			continue
		}
		entry, err := decodeSDRRecord(data[2:])
		if err != nil {
			return err
		}
		if err := fn(entry); err != nil {
			return err
		}
		recordID = nextID
	}
	return nil
}

func (c *Client) GetSensorReading(ctx context.Context, number uint8) (uint8, bool, error) {
	data, err := c.send(ctx, netFnSensor, 0, cmdGetSensorReading, []byte{number})
	if err != nil {
		return 0, false, err
	}
	if len(data) < 2 {
		return 0, false, fmt.Errorf("%w: short get-sensor-reading response", common.ErrTransport)
	}
	if data[1]&readingUnavailableBit != 0 {
		return 0, false, nil
	}
	return data[0], true, nil
}

func (c *Client) GetFanLevel(ctx context.Context, fruID uint8) (int, error) {
	data, err := c.send(ctx, netFnPICMG, 0, cmdGetFanSpeed, []byte{picmgIdentifier, fruID})
	if err != nil {
		return 0, err
	}
	if len(data) < 2 {
		return 0, fmt.Errorf("%w: short get-fan-speed response", common.ErrTransport)
	}
	return int(data[1]), nil
}

func (c *Client) GetFanSpeedProperties(ctx context.Context, fruID uint8) (FanSpeedProperties, error) {
	data, err := c.send(ctx, netFnPICMG, 0, cmdGetFanSpeedProperties, []byte{picmgIdentifier, fruID})
	if err != nil {
		return FanSpeedProperties{}, err
	}
	if len(data) < 3 {
		return FanSpeedProperties{}, fmt.Errorf("%w: short get-fan-speed-properties response", common.ErrTransport)
	}
	return FanSpeedProperties{MinimumSpeedLevel: int(data[1]), MaximumSpeedLevel: int(data[2])}, nil
}

// GetFRUProductInfo reads and assembles the product-info area of a FRU
// inventory. It issues Get FRU Inventory Area Info for the area size and
// then Read FRU Data in 16-byte slices, mirroring the EEPROM-slice
// acquisition pattern used for AMC/RTM reads.
func (c *Client) GetFRUProductInfo(ctx context.Context, fruID uint8) (ProductInfoArea, error) {
	info, err := c.send(ctx, netFnStorage, 0, cmdGetFRUInventoryArea, []byte{fruID})
	if err != nil {
		return ProductInfoArea{}, err
	}
	if len(info) < 2 {
		return ProductInfoArea{}, fmt.Errorf("%w: short get-fru-inventory-area response", common.ErrTransport)
	}
	size := int(info[0]) | int(info[1])<<8

	var raw []byte
	for offset := 0; offset < size; offset += 16 {
		n := 16
		if offset+n > size {
			n = size - offset
		}
		chunk, err := c.send(ctx, netFnStorage, 0, cmdReadFRUData,
			[]byte{fruID, byte(offset), byte(offset >> 8), byte(n)})
		if err != nil {
			return ProductInfoArea{}, err
		}
		if len(chunk) < 1 {
			return ProductInfoArea{}, fmt.Errorf("%w: short read-fru-data response", common.ErrTransport)
		}
		raw = append(raw, chunk[1:]...)
	}

	return decodeProductInfoWire(raw), nil
}

func (c *Client) RawCommand(ctx context.Context, lun, netFn byte, payload []byte) ([]byte, error) {
	var cmd byte
	var data []byte
	if len(payload) > 0 {
		cmd = payload[0]
		data = payload[1:]
	}
	resp, err := c.send(ctx, netFn, lun, cmd, data)
	if err != nil {
		var ccErr *common.CompletionCodeError
		if errors.As(err, &ccErr) {
			// RawCommand hands completion codes back to the caller as the
			// leading response byte rather than as a Go error, as the
			// Session contract states; only transport failures and
			// timeouts come back as errors.
			return []byte{ccErr.CC}, nil
		}
		return nil, err
	}
	return append([]byte{0x00}, resp...), nil
}

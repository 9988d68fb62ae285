package fru

import (
	"context"
	"fmt"

	"github.com/ipmi-atca/shelfmon/internal/ipmi"
)

const (
	netFnOEM = 0x34

	cmdAMCEEPROMRead = 0xfc
	cmdRTMEEPROMRead = 0x0b
	cmdReadID        = 0x05

	amcEEPROMChunks = 10
	rtmEEPROMChunks = 16
	eepromChunkSize = 16
)

// ReadAMCEEPROM dumps an AMC module's EEPROM by issuing chunked vendor
// reads over IPMB. A non-zero completion code on any chunk aborts the
// read entirely, leaving whatever fields the caller already has in
// place: a failed read must not clobber prior data.
func ReadAMCEEPROM(ctx context.Context, session ipmi.Session, bay uint8) ([]byte, error) {
	return readChunkedEEPROM(ctx, session, cmdAMCEEPROMRead, bay, amcEEPROMChunks)
}

// ReadRTMEEPROM dumps an RTM module's EEPROM. The RTM command addresses
// a fixed bay of 0 regardless of the slot's own bay argument, since a
// shelf has exactly one RTM receptacle per slot.
func ReadRTMEEPROM(ctx context.Context, session ipmi.Session) ([]byte, error) {
	return readChunkedEEPROM(ctx, session, cmdRTMEEPROMRead, 0, rtmEEPROMChunks)
}

func readChunkedEEPROM(ctx context.Context, session ipmi.Session, cmd byte, bay uint8, chunks int) ([]byte, error) {
	var out []byte
	for j := 0; j < chunks; j++ {
		offset := j * eepromChunkSize
		payload := []byte{cmd, bay, byte(offset), eepromChunkSize}
		resp, err := session.RawCommand(ctx, 0, netFnOEM, payload)
		if err != nil {
			return nil, err
		}
		if len(resp) == 0 {
			return nil, fmt.Errorf("fru: empty eeprom chunk response")
		}
		if resp[0] != 0 {
			return nil, fmt.Errorf("fru: eeprom read completion code 0x%02x at chunk %d", resp[0], j)
		}
		out = append(out, resp[1:]...)
	}
	return out, nil
}

// ReadID probes for a device's presence and ID via the vendor "read ID"
// command. A non-zero completion code, or a transport timeout, is a
// common and non-fatal signal that the bay is unoccupied; both report an
// empty string rather than an error.
func ReadID(ctx context.Context, session ipmi.Session, bay uint8) string {
	resp, err := session.RawCommand(ctx, 0, netFnOEM, []byte{cmdReadID, bay})
	if err != nil {
		return ""
	}
	if len(resp) == 0 || resp[0] != 0 {
		return ""
	}
	return toHex(resp[1:])
}

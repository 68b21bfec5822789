// Package identity maps volatile platform display handles to stable,
// hardware-derived display identities.
package identity

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/notchd/internal/model"
)

// ErrNoStableIdentity is returned when a display exposes no hardware
// information that survives a reconnect.
var ErrNoStableIdentity = errors.New("no stable display identity")

// namespace scopes the name-based UUIDs generated for displays.
var namespace = uuid.MustParse("7d0f4f9e-3c1a-5b8e-9a4e-6e6f74636864")

var edidHeader = []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00}

// Deriver computes a stable identity for a display.
type Deriver interface {
	Derive(d model.Display) (model.DisplayIdentity, error)
}

// DeriverFunc adapts a function to Deriver.
type DeriverFunc func(d model.Display) (model.DisplayIdentity, error)

// Derive calls f.
func (f DeriverFunc) Derive(d model.Display) (model.DisplayIdentity, error) { return f(d) }

// HardwareDeriver derives identities from EDID when available, otherwise from
// the manufacturer, model and serial strings the platform reports.
type HardwareDeriver struct{}

// Derive implements Deriver.
func (HardwareDeriver) Derive(d model.Display) (model.DisplayIdentity, error) {
	if key, ok := EDIDKey(d.EDID); ok {
		return fromKey("edid:" + key), nil
	}

	manufacturer := strings.TrimSpace(d.Manufacturer)
	product := strings.TrimSpace(d.Model)
	serial := strings.TrimSpace(d.Serial)
	if manufacturer == "" && product == "" && serial == "" {
		return "", fmt.Errorf("display %q: %w", d.Handle, ErrNoStableIdentity)
	}
	return fromKey(strings.Join([]string{"hw", manufacturer, product, serial}, "\x00")), nil
}

func fromKey(key string) model.DisplayIdentity {
	return model.DisplayIdentity(strings.ToUpper(uuid.NewSHA1(namespace, []byte(key)).String()))
}

// EDIDKey extracts the vendor, product code, serial number and any serial
// string descriptor from an EDID base block.
func EDIDKey(edid []byte) (string, bool) {
	if len(edid) < 128 || !bytes.Equal(edid[:8], edidHeader) {
		return "", false
	}

	vendor := EDIDVendor(edid)
	product := uint16(edid[10]) | uint16(edid[11])<<8
	serial := uint32(edid[12]) | uint32(edid[13])<<8 | uint32(edid[14])<<16 | uint32(edid[15])<<24

	// Detailed descriptors at 54, 72, 90 and 108; tag 0xff is the serial string.
	var serialText string
	for off := 54; off+18 <= 126; off += 18 {
		desc := edid[off : off+18]
		if desc[0] == 0 && desc[1] == 0 && desc[3] == 0xff {
			serialText = strings.TrimSpace(strings.TrimRight(string(desc[5:]), "\n\x00 "))
		}
	}

	return fmt.Sprintf("%s:%04x:%08x:%s", vendor, product, serial, serialText), true
}

// EDIDVendor decodes the three-letter PNP manufacturer id.
func EDIDVendor(edid []byte) string {
	if len(edid) < 10 {
		return ""
	}
	v := uint16(edid[8])<<8 | uint16(edid[9])
	return string([]byte{
		byte('A' - 1 + (v>>10)&0x1f),
		byte('A' - 1 + (v>>5)&0x1f),
		byte('A' - 1 + v&0x1f),
	})
}

// EDIDName returns the monitor name descriptor (tag 0xfc), if present.
func EDIDName(edid []byte) string {
	if len(edid) < 128 {
		return ""
	}
	for off := 54; off+18 <= 126; off += 18 {
		desc := edid[off : off+18]
		if desc[0] == 0 && desc[1] == 0 && desc[3] == 0xfc {
			return strings.TrimSpace(strings.TrimRight(string(desc[5:]), "\n\x00 "))
		}
	}
	return ""
}

package ld2410

import "fmt"

// Resolution is the sensor's gate width.
type Resolution uint8

const (
	ResolutionUnknown Resolution = iota
	ResolutionFine               // 20 cm gates
	ResolutionCoarse             // 75 cm gates
)

// CM returns the gate width in centimeters, 0 when unknown.
func (r Resolution) CM() int {
	switch r {
	case ResolutionFine:
		return 20
	case ResolutionCoarse:
		return 75
	}
	return 0
}

func (r Resolution) String() string {
	if cm := r.CM(); cm != 0 {
		return fmt.Sprintf("%dcm", cm)
	}
	return "unknown"
}

// DeviceConfig accumulates what the sensor has told us about itself.
// Each field is filled in the first time the matching request succeeds
// and only changes on a later successful re-request.
type DeviceConfig struct {
	Version    uint16 // protocol version, from the enter-config reply
	BufferSize uint16 // module protocol buffer size, same reply
	Firmware   string // e.g. "V1.02.22062416", empty until requested
	MAC        [6]byte
	HasMAC     bool

	Resolution Resolution

	MaxGate           byte // furthest gate the module reports at all
	MaxMovingGate     byte // configured detection limit, moving
	MaxStationaryGate byte // configured detection limit, stationary
	NoOneWindow       byte // seconds of stillness before presence clears

	MovingThresholds     GateArray
	StationaryThresholds GateArray
}

// MACString renders the MAC address in the usual colon form, empty when
// the address has not been read yet.
func (c *DeviceConfig) MACString() string {
	if !c.HasMAC {
		return ""
	}
	m := c.MAC
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", m[0], m[1], m[2], m[3], m[4], m[5])
}

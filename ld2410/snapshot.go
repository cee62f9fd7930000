package ld2410

import (
	"time"

	"github.com/sensorhub-io/go-ld2410/protocol"
)

// TargetStatus is the raw status byte from a data frame. Bit 0 flags a
// moving target, bit 1 a stationary one.
type TargetStatus byte

// Moving reports whether a moving target was detected.
func (s TargetStatus) Moving() bool {
	return s&0x01 != 0
}

// Stationary reports whether a stationary target was detected.
func (s TargetStatus) Stationary() bool {
	return s&0x02 != 0
}

// Present reports whether any target was detected.
func (s TargetStatus) Present() bool {
	return s&0x03 != 0
}

func (s TargetStatus) String() string {
	switch s & 0x03 {
	case 0x01:
		return "Moving only"
	case 0x02:
		return "Stationary only"
	case 0x03:
		return "Both moving and stationary"
	}
	return "No target"
}

// GateArray holds one byte value per detection gate, gate 0 nearest.
// It carries at most nine values with an explicit count; iteration via
// Values visits exactly the first Len entries in gate order.
type GateArray struct {
	values [protocol.MaxGates]byte
	n      int
}

// Push appends a gate value. Returns false once all nine gates are set.
func (g *GateArray) Push(v byte) bool {
	if g.n >= len(g.values) {
		return false
	}
	g.values[g.n] = v
	g.n++
	return true
}

// Len returns the number of populated gates.
func (g *GateArray) Len() int {
	return g.n
}

// At returns the value for the given gate, or 0 when out of range.
func (g *GateArray) At(gate int) byte {
	if gate < 0 || gate >= g.n {
		return 0
	}
	return g.values[gate]
}

// Values returns the populated gate values in gate order. The slice
// aliases the array's storage; copy it if it must outlive the array.
func (g *GateArray) Values() []byte {
	return g.values[:g.n]
}

// SensorSnapshot is one decoded presence report. Each valid data frame
// replaces the previous snapshot wholesale; there are no partial
// updates. The per-gate signal arrays are only populated while the
// sensor is in enhanced mode.
type SensorSnapshot struct {
	Status             TargetStatus
	Timestamp          time.Time
	MovingDistance     uint16 // cm
	MovingSignal       byte   // 0-100
	StationaryDistance uint16 // cm
	StationarySignal   byte   // 0-100
	Distance           uint16 // overall detected distance, cm
	MovingSignals      GateArray
	StationarySignals  GateArray
}

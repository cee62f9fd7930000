package ld2410

import (
	"encoding/binary"

	"github.com/sensorhub-io/go-ld2410/protocol"
)

// Basic report layout inside a data frame payload
const (
	dataOffSubtype        = 0
	dataOffHead           = 1
	dataOffStatus         = 2
	dataOffMovingDist     = 3
	dataOffMovingSignal   = 5
	dataOffStationDist    = 6
	dataOffStationSignal  = 8
	dataOffDetectDist     = 9
	dataLenBasic          = 11
	dataOffMaxMovingGate  = 11 // enhanced only
	dataOffMaxStationGate = 12
	dataOffGateSignals    = 13
)

// decodeData turns a data-frame payload into a fresh snapshot. On any
// layout problem the previous snapshot is kept untouched and false is
// returned.
func (d *Driver) decodeData(payload []byte) bool {
	if len(payload) < dataLenBasic {
		d.log.Debug().Int("len", len(payload)).Msg("short data frame")
		return false
	}
	subtype := payload[dataOffSubtype]
	if subtype != protocol.SubtypeBasic && subtype != protocol.SubtypeEnhanced {
		d.log.Debug().Uint8("subtype", subtype).Msg("unknown data frame subtype")
		return false
	}
	if payload[dataOffHead] != protocol.DataHead {
		d.log.Debug().Msg("data frame head marker missing")
		return false
	}

	snap := SensorSnapshot{
		Status:             TargetStatus(payload[dataOffStatus]),
		Timestamp:          d.clock.Now(),
		MovingDistance:     binary.LittleEndian.Uint16(payload[dataOffMovingDist:]),
		MovingSignal:       payload[dataOffMovingSignal],
		StationaryDistance: binary.LittleEndian.Uint16(payload[dataOffStationDist:]),
		StationarySignal:   payload[dataOffStationSignal],
		Distance:           binary.LittleEndian.Uint16(payload[dataOffDetectDist:]),
	}

	if subtype == protocol.SubtypeEnhanced {
		if len(payload) < dataOffGateSignals {
			return false
		}
		// Gate counts come from the frame itself, capped at the nine
		// gates the module can have.
		nMoving := gateCount(payload[dataOffMaxMovingGate])
		nStation := gateCount(payload[dataOffMaxStationGate])
		if len(payload) < dataOffGateSignals+nMoving+nStation {
			d.log.Debug().Int("len", len(payload)).Msg("short enhanced data frame")
			return false
		}
		for _, v := range payload[dataOffGateSignals : dataOffGateSignals+nMoving] {
			snap.MovingSignals.Push(v)
		}
		off := dataOffGateSignals + nMoving
		for _, v := range payload[off : off+nStation] {
			snap.StationarySignals.Push(v)
		}
	}

	// Replace wholesale, never merge
	d.snapshot = snap
	return true
}

// gateCount converts a max-gate index into a value count, capped at the
// module's nine gates.
func gateCount(maxGate byte) int {
	n := int(maxGate) + 1
	if n > protocol.MaxGates {
		n = protocol.MaxGates
	}
	return n
}

package ld2410

import (
	"encoding/binary"
	"fmt"

	"github.com/sensorhub-io/go-ld2410/protocol"
)

// decodeAck parses a command reply and folds it into the device config.
// The payload is the echoed command word, a status word (0 = accepted)
// and command-specific return data. A rejected command changes nothing.
func (d *Driver) decodeAck(payload []byte) bool {
	if len(payload) < 4 {
		d.log.Debug().Int("len", len(payload)).Msg("short ack frame")
		return false
	}
	word := binary.LittleEndian.Uint16(payload)
	status := binary.LittleEndian.Uint16(payload[2:])
	data := payload[4:]

	d.lastAckWord = word
	d.lastAckOK = status == 0

	if status != 0 {
		d.log.Debug().
			Uint16("cmd", word).
			Uint16("status", status).
			Msg("command rejected by sensor")
		return true
	}

	switch word &^ protocol.AckFlag {
	case protocol.CmdEnterConfig:
		if len(data) >= 4 {
			d.config.Version = binary.LittleEndian.Uint16(data)
			d.config.BufferSize = binary.LittleEndian.Uint16(data[2:])
		}
		d.inConfig = true

	case protocol.CmdExitConfig:
		d.inConfig = false

	case protocol.CmdEnhancedOn:
		d.enhanced = true

	case protocol.CmdEnhancedOff:
		d.enhanced = false

	case protocol.CmdReadMAC:
		if len(data) < 6 {
			return false
		}
		copy(d.config.MAC[:], data[:6])
		d.config.HasMAC = true

	case protocol.CmdReadFirmware:
		if len(data) < 8 {
			return false
		}
		// Firmware type LE16, then minor.major, then a 4-byte build
		// stamp rendered byte-reversed, e.g. "V1.02.22062416".
		d.config.Firmware = fmt.Sprintf("V%X.%02X.%02X%02X%02X%02X",
			data[3], data[2], data[7], data[6], data[5], data[4])

	case protocol.CmdReadResolution:
		if len(data) < 2 {
			return false
		}
		if binary.LittleEndian.Uint16(data) == 0x0001 {
			d.config.Resolution = ResolutionFine
		} else {
			d.config.Resolution = ResolutionCoarse
		}

	case protocol.CmdReadParams:
		return d.decodeParams(data)

	case protocol.CmdSetMaxGates,
		protocol.CmdSetGateSens,
		protocol.CmdSetResolution,
		protocol.CmdFactoryReset,
		protocol.CmdRestart,
		protocol.CmdBluetooth:
		// Pure acknowledgements, no return data to fold in

	default:
		d.log.Debug().Uint16("cmd", word).Msg("ack for unknown command")
	}
	return true
}

// decodeParams unpacks the read-parameters reply: a head marker, the
// furthest gate N, both configured max gates, N+1 moving and N+1
// stationary thresholds, then the no-one window in seconds.
func (d *Driver) decodeParams(data []byte) bool {
	if len(data) < 4 || data[0] != protocol.DataHead {
		return false
	}
	n := gateCount(data[1])
	if len(data) < 4+2*n+2 {
		d.log.Debug().Int("len", len(data)).Msg("short parameters ack")
		return false
	}

	var moving, stationary GateArray
	for _, v := range data[4 : 4+n] {
		moving.Push(v)
	}
	for _, v := range data[4+n : 4+2*n] {
		stationary.Push(v)
	}

	d.config.MaxGate = data[1]
	d.config.MaxMovingGate = data[2]
	d.config.MaxStationaryGate = data[3]
	d.config.MovingThresholds = moving
	d.config.StationaryThresholds = stationary
	d.config.NoOneWindow = byte(binary.LittleEndian.Uint16(data[4+2*n:]))
	return true
}

package ld2410

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sensorhub-io/go-ld2410/protocol"
)

// ackAll answers every command with a success ACK except the listed
// command words, which get the given status.
func ackAll(tr *fakeTransport, reject map[uint16]uint16) {
	tr.onWrite = func(frame []byte) {
		cmd := binary.LittleEndian.Uint16(frame[6:8])
		status := reject[cmd]
		var data []byte
		switch cmd {
		case protocol.CmdEnterConfig:
			data = []byte{0x01, 0x00, 0x40, 0x00}
		case protocol.CmdReadParams:
			data = paramsAckData(8, 6, 6, 5)
		case protocol.CmdReadFirmware:
			data = []byte{0x00, 0x00, 0x02, 0x01, 0x16, 0x24, 0x06, 0x22}
		case protocol.CmdReadMAC:
			data = []byte{0x8F, 0x27, 0x2E, 0xB8, 0x0F, 0x65}
		case protocol.CmdReadResolution:
			data = []byte{0x00, 0x00}
		}
		tr.queue(ackFrame(cmd, status, data))
	}
}

// paramsAckData builds the read-parameters return data with flat
// threshold tables.
func paramsAckData(maxGate, maxMoving, maxStationary byte, noOne uint16) []byte {
	data := []byte{protocol.DataHead, maxGate, maxMoving, maxStationary}
	n := int(maxGate) + 1
	for i := 0; i < n; i++ {
		data = append(data, 50)
	}
	for i := 0; i < n; i++ {
		data = append(data, 40)
	}
	return binary.LittleEndian.AppendUint16(data, noOne)
}

func TestConfigGatingLocalReject(t *testing.T) {
	d, tr, _ := newTestDriver(t)

	// A config-only command outside config mode must not touch the wire
	assert.False(t, d.sendCommand(protocol.CmdSetResolution, protocol.AppendValueWord(nil, 1)))
	assert.Empty(t, tr.writes)
}

func TestReadRequestsPassGate(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	// Read-only requests go out even outside config mode
	assert.True(t, d.RequestFirmware())
	require.Len(t, tr.writes, 1)
	assert.Equal(t, protocol.CmdReadFirmware, tr.writtenCommand(0))
}

func TestConfigModeRoundTrip(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.ConfigMode(true))
	assert.True(t, d.InConfigMode())
	// Entering twice is a no-op
	require.True(t, d.ConfigMode(true))
	require.Len(t, tr.writes, 1)

	require.True(t, d.ConfigMode(false))
	assert.False(t, d.InConfigMode())
}

func TestConfigModeEnterTimeout(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	// No replies at all: the zero timeout elapses after one poll

	assert.False(t, d.ConfigMode(true))
	assert.False(t, d.InConfigMode())
	require.Len(t, tr.writes, 1)
}

func TestConfigModeExitTimeoutForcesFlag(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)
	require.True(t, d.ConfigMode(true))

	// Sensor goes silent; the exit must still clear the local flag so
	// data interpretation is never blocked by a lost reply.
	tr.onWrite = nil
	assert.False(t, d.ConfigMode(false))
	assert.False(t, d.InConfigMode())
}

func TestSetResolutionRejected(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)
	require.True(t, d.ConfigMode(true))
	require.True(t, d.RequestResolution())
	before := d.Resolution()

	ackAll(tr, map[uint16]uint16{protocol.CmdSetResolution: 1})
	assert.False(t, d.SetResolution(true))
	assert.Equal(t, before, d.Resolution())
}

func TestFailSafeExitAfterFailure(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, map[uint16]uint16{protocol.CmdSetResolution: 1})

	assert.False(t, d.SetResolution(true))

	// enter, the failed set, and still the forced exit
	require.Len(t, tr.writes, 3)
	assert.Equal(t, protocol.CmdEnterConfig, tr.writtenCommand(0))
	assert.Equal(t, protocol.CmdSetResolution, tr.writtenCommand(1))
	assert.Equal(t, protocol.CmdExitConfig, tr.writtenCommand(2))
	assert.False(t, d.InConfigMode())
}

func TestSetNoOneWindowComposite(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)
	tr.onWrite = func(frame []byte) {
		cmd := binary.LittleEndian.Uint16(frame[6:8])
		var data []byte
		switch cmd {
		case protocol.CmdEnterConfig:
			data = []byte{0x01, 0x00, 0x40, 0x00}
		case protocol.CmdReadParams:
			data = paramsAckData(8, 6, 6, 3)
		}
		tr.queue(ackFrame(cmd, 0, data))
	}

	require.True(t, d.SetNoOneWindow(3))

	// enter, set-max-gates, parameter refresh, exit
	require.Len(t, tr.writes, 4)
	assert.Equal(t, protocol.CmdEnterConfig, tr.writtenCommand(0))
	assert.Equal(t, protocol.CmdSetMaxGates, tr.writtenCommand(1))
	assert.Equal(t, protocol.CmdReadParams, tr.writtenCommand(2))
	assert.Equal(t, protocol.CmdExitConfig, tr.writtenCommand(3))

	assert.Equal(t, byte(3), d.NoOneWindow())
	assert.False(t, d.InConfigMode())
}

func TestSetMaxGateEncodesParams(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.SetMaxGate(6, 5, 4))

	want := protocol.AppendParamWord(nil, protocol.ParamMaxMovingGate, 6)
	want = protocol.AppendParamWord(want, protocol.ParamMaxStationaryGate, 5)
	want = protocol.AppendParamWord(want, protocol.ParamNoOneWindow, 4)
	assert.Equal(t, protocol.BuildCommand(protocol.CmdSetMaxGates, want), tr.writes[1])
}

func TestSetGateParametersAllGates(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.SetGateParameters(0, 60, 40))

	want := protocol.AppendParamWord(nil, protocol.ParamGate, protocol.AllGates)
	want = protocol.AppendParamWord(want, protocol.ParamMovingThreshold, 60)
	want = protocol.AppendParamWord(want, protocol.ParamStationaryThreshold, 40)
	assert.Equal(t, protocol.BuildCommand(protocol.CmdSetGateSens, want), tr.writes[1])
}

func TestSetAllGateParameters(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	var moving, stationary GateArray
	for i := 0; i < 5; i++ {
		moving.Push(byte(50 - i*5))
		stationary.Push(byte(40 - i*5))
	}

	require.True(t, d.SetAllGateParameters(moving, stationary, 5))

	// enter + 5 per-gate writes + set-max-gates + params refresh + exit
	require.Len(t, tr.writes, 9)
	assert.Equal(t, protocol.CmdSetGateSens, tr.writtenCommand(1))
	assert.Equal(t, protocol.CmdSetGateSens, tr.writtenCommand(5))
	assert.Equal(t, protocol.CmdSetMaxGates, tr.writtenCommand(6))
}

func TestEnhancedModeToggle(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.EnhancedMode(true))
	assert.True(t, d.InEnhancedMode())
	assert.False(t, d.InBasicMode())

	require.True(t, d.EnhancedMode(false))
	assert.False(t, d.InEnhancedMode())
	assert.True(t, d.InBasicMode())
}

func TestWaitAckProcessesInterveningData(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	tr.onWrite = func(frame []byte) {
		cmd := binary.LittleEndian.Uint16(frame[6:8])
		// A data report lands before every reply; the wait loop must
		// decode it rather than discard it.
		tr.queue(dataFrame(0x01, 222, 95, 0, 0, 222))
		var data []byte
		if cmd == protocol.CmdEnterConfig {
			data = []byte{0x01, 0x00, 0x40, 0x00}
		}
		tr.queue(ackFrame(cmd, 0, data))
	}

	require.True(t, d.ConfigMode(true))
	assert.Equal(t, uint16(222), d.MovingTargetDistance())
}

func TestRebootClearsConfigFlag(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.Reboot())
	assert.False(t, d.InConfigMode())
	// No exit-config on the wire; the module is restarting
	require.Len(t, tr.writes, 2)
	assert.Equal(t, protocol.CmdEnterConfig, tr.writtenCommand(0))
	assert.Equal(t, protocol.CmdRestart, tr.writtenCommand(1))
}

func TestFactoryReset(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.FactoryReset())
	require.Len(t, tr.writes, 3)
	assert.Equal(t, protocol.CmdFactoryReset, tr.writtenCommand(1))
	assert.Equal(t, protocol.CmdExitConfig, tr.writtenCommand(2))
}

func TestBluetoothCommands(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	ackAll(tr, nil)

	require.True(t, d.BluetoothOn())
	assert.Equal(t, protocol.BuildCommand(protocol.CmdBluetooth, protocol.AppendValueWord(nil, 0x0100)), tr.writes[1])

	require.True(t, d.BluetoothOff())
	assert.Equal(t, protocol.BuildCommand(protocol.CmdBluetooth, protocol.AppendValueWord(nil, 0x0000)), tr.writes[4])
}

func TestUnsolicitedAckIgnoredByWait(t *testing.T) {
	d, tr, _ := newTestDriver(t)
	sent := 0
	tr.onWrite = func(frame []byte) {
		cmd := binary.LittleEndian.Uint16(frame[6:8])
		if cmd == protocol.CmdEnterConfig && sent == 0 {
			sent++
			// A stray reply for a different command arrives first
			tr.queue(ackFrame(protocol.CmdReadFirmware, 0, []byte{0x00, 0x00, 0x02, 0x01, 0x16, 0x24, 0x06, 0x22}))
			tr.queue(ackFrame(cmd, 0, []byte{0x01, 0x00, 0x40, 0x00}))
		}
	}

	require.True(t, d.ConfigMode(true))
	// The stray ack still updated config state
	assert.Equal(t, "V1.02.22062416", d.Firmware())
}

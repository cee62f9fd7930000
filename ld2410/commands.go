package ld2410

import (
	"github.com/sensorhub-io/go-ld2410/protocol"
)

// requiresConfig reports whether the sensor only accepts the command in
// config mode. Enter-config itself and the read-only requests are
// exempt; everything else is rejected locally before touching the wire.
func requiresConfig(cmd uint16) bool {
	switch cmd {
	case protocol.CmdEnterConfig,
		protocol.CmdExitConfig,
		protocol.CmdReadFirmware,
		protocol.CmdReadMAC,
		protocol.CmdReadResolution,
		protocol.CmdReadParams:
		return false
	}
	return true
}

// sendCommand writes one command frame and waits for its ACK within the
// command timeout, processing any data frames that arrive in between.
// Returns true only for a matching ACK with success status.
func (d *Driver) sendCommand(cmd uint16, params []byte) bool {
	if requiresConfig(cmd) && !d.inConfig {
		d.log.Debug().Uint16("cmd", cmd).Msg("command needs config mode, rejected locally")
		return false
	}

	frame := protocol.BuildCommand(cmd, params)
	if _, err := d.tr.Write(frame); err != nil {
		d.log.Debug().Err(err).Uint16("cmd", cmd).Msg("command write failed")
		return false
	}
	d.log.Debug().Uint16("cmd", cmd).Int("len", len(frame)).Msg("command sent")
	return d.waitAck(cmd)
}

// waitAck polls Check until the matching ACK arrives or the timeout
// elapses. Unrelated frames (data reports, stray ACKs) are processed
// normally and do not resolve the wait.
func (d *Driver) waitAck(cmd uint16) bool {
	want := cmd | protocol.AckFlag
	d.lastAckWord = 0

	deadline := d.clock.Now().Add(d.timeout)
	for {
		resp := d.Check()
		if resp == Ack && d.lastAckWord == want {
			return d.lastAckOK
		}
		// Only an idle poll counts against the deadline; data frames
		// and unrelated ACKs keep being processed while we wait.
		if resp == Fail && !d.clock.Now().Before(deadline) {
			d.log.Debug().Uint16("cmd", cmd).Msg("ack wait timed out")
			return false
		}
	}
}

// withConfigMode runs steps inside config mode, entering it first when
// needed and always attempting to leave again, even when a step failed.
// Overall success requires every step and the exit to succeed. When the
// driver is already in config mode it stays there.
func (d *Driver) withConfigMode(steps func() bool) bool {
	wasConfig := d.inConfig
	if !wasConfig && !d.ConfigMode(true) {
		return false
	}
	ok := steps()
	if !wasConfig && !d.ConfigMode(false) {
		ok = false
	}
	return ok
}

// ConfigMode enters or leaves the sensor's config mode. Leaving always
// clears the local flag, ACK or not: a missed exit reply must never
// leave the driver believing it is still configuring, since that would
// block every later command and misread of the data stream.
func (d *Driver) ConfigMode(enable bool) bool {
	if enable {
		if d.inConfig {
			return true
		}
		return d.sendCommand(protocol.CmdEnterConfig, protocol.AppendValueWord(nil, 0x0001))
	}
	if !d.inConfig {
		return true
	}
	ok := d.sendCommand(protocol.CmdExitConfig, nil)
	d.inConfig = false
	return ok
}

// EnhancedMode switches per-gate signal reporting on or off.
func (d *Driver) EnhancedMode(enable bool) bool {
	cmd := protocol.CmdEnhancedOn
	if !enable {
		cmd = protocol.CmdEnhancedOff
	}
	return d.withConfigMode(func() bool {
		return d.sendCommand(cmd, nil)
	})
}

// RequestMAC asks for the Bluetooth MAC address.
func (d *Driver) RequestMAC() bool {
	return d.sendCommand(protocol.CmdReadMAC, protocol.AppendValueWord(nil, 0x0001))
}

// RequestFirmware asks for the firmware identifier.
func (d *Driver) RequestFirmware() bool {
	return d.sendCommand(protocol.CmdReadFirmware, nil)
}

// RequestResolution asks for the gate width.
func (d *Driver) RequestResolution() bool {
	return d.sendCommand(protocol.CmdReadResolution, nil)
}

// RequestParameters asks for range, thresholds and the no-one window.
func (d *Driver) RequestParameters() bool {
	return d.sendCommand(protocol.CmdReadParams, nil)
}

// SetResolution selects fine (20 cm) or coarse (75 cm) gates.
func (d *Driver) SetResolution(fine bool) bool {
	value := uint16(0x0000)
	if fine {
		value = 0x0001
	}
	return d.withConfigMode(func() bool {
		return d.sendCommand(protocol.CmdSetResolution, protocol.AppendValueWord(nil, value))
	})
}

// SetGateParameters sets the moving and stationary thresholds for one
// gate, or for every gate at once when gate is 0.
func (d *Driver) SetGateParameters(gate, movingThreshold, stationaryThreshold byte) bool {
	gateValue := uint32(gate)
	if gate == 0 {
		gateValue = protocol.AllGates
	}
	params := protocol.AppendParamWord(nil, protocol.ParamGate, gateValue)
	params = protocol.AppendParamWord(params, protocol.ParamMovingThreshold, uint32(movingThreshold))
	params = protocol.AppendParamWord(params, protocol.ParamStationaryThreshold, uint32(stationaryThreshold))
	return d.withConfigMode(func() bool {
		return d.sendCommand(protocol.CmdSetGateSens, params)
	})
}

// SetAllGateParameters writes a full threshold table gate by gate and
// sets the no-one window, aborting on the first rejected gate. The exit
// from config mode is still attempted after a failure.
func (d *Driver) SetAllGateParameters(moving, stationary GateArray, noOneWindow byte) bool {
	n := moving.Len()
	if stationary.Len() < n {
		n = stationary.Len()
	}
	if n == 0 {
		return false
	}
	return d.withConfigMode(func() bool {
		for gate := 0; gate < n; gate++ {
			params := protocol.AppendParamWord(nil, protocol.ParamGate, uint32(gate))
			params = protocol.AppendParamWord(params, protocol.ParamMovingThreshold, uint32(moving.At(gate)))
			params = protocol.AppendParamWord(params, protocol.ParamStationaryThreshold, uint32(stationary.At(gate)))
			if !d.sendCommand(protocol.CmdSetGateSens, params) {
				return false
			}
		}
		// The table size defines the detection range
		return d.setMaxGates(byte(moving.Len()-1), byte(stationary.Len()-1), noOneWindow)
	})
}

// SetMaxGate sets the detection limits for moving and stationary
// targets together with the no-one window.
func (d *Driver) SetMaxGate(movingGate, stationaryGate, noOneWindow byte) bool {
	return d.withConfigMode(func() bool {
		return d.setMaxGates(movingGate, stationaryGate, noOneWindow)
	})
}

// SetMaxMovingGate sets only the moving detection limit, keeping the
// other parameters as last read.
func (d *Driver) SetMaxMovingGate(movingGate byte) bool {
	return d.withConfigMode(func() bool {
		return d.setMaxGates(movingGate, d.config.MaxStationaryGate, d.config.NoOneWindow)
	})
}

// SetMaxStationaryGate sets only the stationary detection limit.
func (d *Driver) SetMaxStationaryGate(stationaryGate byte) bool {
	return d.withConfigMode(func() bool {
		return d.setMaxGates(d.config.MaxMovingGate, stationaryGate, d.config.NoOneWindow)
	})
}

// SetNoOneWindow sets only the no-one window, in seconds.
func (d *Driver) SetNoOneWindow(noOneWindow byte) bool {
	return d.withConfigMode(func() bool {
		return d.setMaxGates(d.config.MaxMovingGate, d.config.MaxStationaryGate, noOneWindow)
	})
}

// setMaxGates issues the combined max-gates/no-one-window command and,
// on success, refreshes the cached parameters from the sensor.
func (d *Driver) setMaxGates(movingGate, stationaryGate, noOneWindow byte) bool {
	params := protocol.AppendParamWord(nil, protocol.ParamMaxMovingGate, uint32(movingGate))
	params = protocol.AppendParamWord(params, protocol.ParamMaxStationaryGate, uint32(stationaryGate))
	params = protocol.AppendParamWord(params, protocol.ParamNoOneWindow, uint32(noOneWindow))
	if !d.sendCommand(protocol.CmdSetMaxGates, params) {
		return false
	}
	return d.RequestParameters()
}

// FactoryReset restores the sensor's factory parameters. The module
// keeps running with them only after the next reboot.
func (d *Driver) FactoryReset() bool {
	return d.withConfigMode(func() bool {
		return d.sendCommand(protocol.CmdFactoryReset, nil)
	})
}

// Reboot restarts the module. A restarting sensor answers no exit-config
// command, so the local flag is cleared directly instead of waiting for
// an ACK that will never come.
func (d *Driver) Reboot() bool {
	if !d.inConfig && !d.ConfigMode(true) {
		return false
	}
	ok := d.sendCommand(protocol.CmdRestart, nil)
	d.inConfig = false
	return ok
}

// BluetoothOn enables the module's Bluetooth radio.
func (d *Driver) BluetoothOn() bool {
	return d.setBluetooth(0x0100)
}

// BluetoothOff disables the module's Bluetooth radio.
func (d *Driver) BluetoothOff() bool {
	return d.setBluetooth(0x0000)
}

func (d *Driver) setBluetooth(value uint16) bool {
	return d.withConfigMode(func() bool {
		return d.sendCommand(protocol.CmdBluetooth, protocol.AppendValueWord(nil, value))
	})
}

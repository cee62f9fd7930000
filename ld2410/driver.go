// Package ld2410 is a host-side driver for the HLK-LD2410 presence
// radar. It speaks the module's binary serial protocol: continuous DATA
// reports and request/reply ACK exchanges for configuration commands.
package ld2410

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/sensorhub-io/go-ld2410/protocol"
	"github.com/sensorhub-io/go-ld2410/transport"
)

// Response is the outcome of one Check poll.
type Response uint8

const (
	Fail Response = iota // no complete frame this poll
	Ack                  // a command reply was processed
	Data                 // a presence report was processed
)

func (r Response) String() string {
	switch r {
	case Ack:
		return "ack"
	case Data:
		return "data"
	}
	return "fail"
}

const (
	defaultTimeout  = 2000 * time.Millisecond
	defaultLifespan = 500 * time.Millisecond
)

// Driver owns all protocol and sensor state for one LD2410 module.
//
// A Driver is strictly single-owner: it holds mutable buffers with no
// internal locking, and all progress happens inside the caller's own
// Check and request calls. Calling it from more than one goroutine at a
// time is undefined behavior. The transport is exclusively owned by the
// driver for its lifetime.
type Driver struct {
	tr    transport.Transport
	clock clockwork.Clock
	log   zerolog.Logger

	asm     protocol.Assembler
	readBuf [protocol.BufferMax]byte
	backlog []byte // bytes read from the transport but not yet fed

	snapshot SensorSnapshot
	config   DeviceConfig

	inConfig bool
	enhanced bool

	timeout  time.Duration // ACK wait bound
	lifespan time.Duration // how long a snapshot counts as current

	// Last decoded ACK, consulted by the wait loop
	lastAckWord uint16
	lastAckOK   bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithCommandTimeout sets the bound on waiting for a command's ACK.
func WithCommandTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.timeout = d }
}

// WithDataLifespan sets how long a decoded snapshot is considered
// current by the presence accessors.
func WithDataLifespan(d time.Duration) Option {
	return func(drv *Driver) { drv.lifespan = d }
}

// WithClock injects the time source used for timeouts and snapshot
// timestamps. Tests pass a fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(drv *Driver) { drv.clock = c }
}

// WithLogger attaches a logger for protocol-level tracing.
func WithLogger(log zerolog.Logger) Option {
	return func(drv *Driver) { drv.log = log }
}

// New creates a driver on the given transport.
func New(tr transport.Transport, opts ...Option) *Driver {
	d := &Driver{
		tr:       tr,
		clock:    clockwork.NewRealClock(),
		log:      zerolog.Nop(),
		timeout:  defaultTimeout,
		lifespan: defaultLifespan,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Begin waits for the sensor to produce a valid frame, proving the link
// is alive, then reads the module's identity and parameters. It returns
// false when no frame is observed within the command timeout.
func (d *Driver) Begin() bool {
	deadline := d.clock.Now().Add(d.timeout)
	alive := false
	for {
		if d.Check() != Fail {
			alive = true
			break
		}
		if !d.clock.Now().Before(deadline) {
			break
		}
	}
	if !alive {
		d.log.Warn().Msg("no frame from sensor during startup")
		return false
	}

	// Best effort: a module that answers none of these still reports
	// presence fine.
	d.withConfigMode(func() bool {
		d.RequestFirmware()
		d.RequestMAC()
		d.RequestResolution()
		d.RequestParameters()
		return true
	})
	return true
}

// End gracefully leaves config mode so the sensor resumes streaming.
// The transport itself is left open; closing it is the caller's job.
func (d *Driver) End() bool {
	return d.ConfigMode(false)
}

// Check drains whatever bytes the transport has pending, advances the
// frame assembler, and processes at most one completed frame. It never
// blocks beyond the transport's read timeout and returns Fail when no
// frame finished this poll. Parse failures resynchronize internally and
// also report Fail; they can never stall the stream.
func (d *Driver) Check() Response {
	if len(d.backlog) == 0 {
		n, err := d.tr.Read(d.readBuf[:])
		if err != nil {
			d.log.Debug().Err(err).Msg("transport read failed")
			return Fail
		}
		if n == 0 {
			return Fail
		}
		d.backlog = d.readBuf[:n]
	}

	for len(d.backlog) > 0 {
		b := d.backlog[0]
		d.backlog = d.backlog[1:]
		frame, ok := d.asm.Feed(b)
		if !ok {
			continue
		}
		if frame.Kind == protocol.KindData {
			if d.decodeData(frame.Payload) {
				return Data
			}
			return Fail
		}
		if d.decodeAck(frame.Payload) {
			return Ack
		}
		return Fail
	}
	return Fail
}

// snapshotFresh reports whether the last snapshot is recent enough to
// answer presence queries from.
func (d *Driver) snapshotFresh() bool {
	if d.snapshot.Timestamp.IsZero() {
		return false
	}
	return d.clock.Now().Sub(d.snapshot.Timestamp) < d.lifespan
}

// Snapshot returns the last decoded presence report.
func (d *Driver) Snapshot() SensorSnapshot {
	return d.snapshot
}

// Config returns everything learned about the module so far.
func (d *Driver) Config() DeviceConfig {
	return d.config
}

// InConfigMode reports the driver's belief about the sensor's config
// mode. It is forced false on a missed exit ACK so a lost reply can
// never permanently block data interpretation.
func (d *Driver) InConfigMode() bool {
	return d.inConfig
}

// InEnhancedMode reports whether data frames are expected to carry
// per-gate signal arrays.
func (d *Driver) InEnhancedMode() bool {
	return d.enhanced
}

// InBasicMode reports whether the sensor is sending basic reports.
func (d *Driver) InBasicMode() bool {
	return !d.enhanced
}

// PresenceDetected reports whether the latest fresh frame saw a target.
func (d *Driver) PresenceDetected() bool {
	return d.snapshotFresh() && d.snapshot.Status.Present()
}

// MovingTargetDetected reports a moving target in the latest fresh frame.
func (d *Driver) MovingTargetDetected() bool {
	return d.snapshotFresh() && d.snapshot.Status.Moving()
}

// StationaryTargetDetected reports a stationary target in the latest
// fresh frame.
func (d *Driver) StationaryTargetDetected() bool {
	return d.snapshotFresh() && d.snapshot.Status.Stationary()
}

// MovingTargetDistance returns the moving target distance in cm.
func (d *Driver) MovingTargetDistance() uint16 {
	return d.snapshot.MovingDistance
}

// MovingTargetSignal returns the moving target signal strength.
func (d *Driver) MovingTargetSignal() byte {
	return d.snapshot.MovingSignal
}

// StationaryTargetDistance returns the stationary target distance in cm.
func (d *Driver) StationaryTargetDistance() uint16 {
	return d.snapshot.StationaryDistance
}

// StationaryTargetSignal returns the stationary target signal strength.
func (d *Driver) StationaryTargetSignal() byte {
	return d.snapshot.StationarySignal
}

// DetectedDistance returns the overall detected distance in cm.
func (d *Driver) DetectedDistance() uint16 {
	return d.snapshot.Distance
}

// MovingSignals returns the per-gate moving signals from the latest
// enhanced frame.
func (d *Driver) MovingSignals() GateArray {
	return d.snapshot.MovingSignals
}

// StationarySignals returns the per-gate stationary signals from the
// latest enhanced frame.
func (d *Driver) StationarySignals() GateArray {
	return d.snapshot.StationarySignals
}

// StatusString describes the latest presence status.
func (d *Driver) StatusString() string {
	return d.snapshot.Status.String()
}

// MAC returns the module's Bluetooth MAC address, zero until requested.
func (d *Driver) MAC() [6]byte {
	return d.config.MAC
}

// MACString returns the MAC address as text, empty until requested.
func (d *Driver) MACString() string {
	return d.config.MACString()
}

// Firmware returns the firmware identifier, empty until requested.
func (d *Driver) Firmware() string {
	return d.config.Firmware
}

// Version returns the protocol version reported on entering config mode.
func (d *Driver) Version() uint16 {
	return d.config.Version
}

// Resolution returns the gate width, ResolutionUnknown until requested.
func (d *Driver) Resolution() Resolution {
	return d.config.Resolution
}

// MovingThresholds returns the per-gate moving detection thresholds.
func (d *Driver) MovingThresholds() GateArray {
	return d.config.MovingThresholds
}

// StationaryThresholds returns the per-gate stationary detection
// thresholds.
func (d *Driver) StationaryThresholds() GateArray {
	return d.config.StationaryThresholds
}

// Range returns the furthest configured detection gate.
func (d *Driver) Range() byte {
	return d.config.MaxGate
}

// RangeCm returns the detection range in cm, 0 while the resolution is
// unknown.
func (d *Driver) RangeCm() int {
	return int(d.config.MaxGate+1) * d.config.Resolution.CM()
}

// NoOneWindow returns the configured no-one window in seconds.
func (d *Driver) NoOneWindow() byte {
	return d.config.NoOneWindow
}

// Package transport provides the byte stream the driver talks through.
package transport

import (
	"io"
)

// Transport is an order-preserving duplex byte channel to the sensor.
// Implementations must make Read non-blocking in practice: when no bytes
// are pending, Read returns (0, nil) promptly instead of waiting, so the
// driver's poll loop can drain "whatever is available" and move on.
//
// A Transport is exclusively owned by one driver instance for its
// lifetime.
type Transport interface {
	io.ReadWriteCloser
}

// Config holds serial link settings for the LD2410.
type Config struct {
	// Device path (e.g. "/dev/ttyUSB0", "COM3")
	Device string

	// Baud rate. The LD2410 ships at 256000.
	Baud int

	// Read timeout in milliseconds. Keep this small; it bounds how long
	// a single Check call can stall on an idle line.
	ReadTimeout int
}

// DefaultConfig returns the standard LD2410 link settings.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        256000,
		ReadTimeout: 10,
	}
}

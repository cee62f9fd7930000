// ld2410-monitor connects to an LD2410 presence radar on a serial port
// and logs presence reports and module parameters.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/sensorhub-io/go-ld2410/ld2410"
	"github.com/sensorhub-io/go-ld2410/transport"
)

var (
	device     = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud       = flag.Int("baud", 256000, "Baud rate")
	configPath = flag.String("config", "", "Optional TOML config file")
	enhanced   = flag.Bool("enhanced", false, "Enable per-gate signal reporting")
	timeout    = flag.Duration("timeout", 2*time.Second, "Command ACK timeout")
	verbose    = flag.Bool("verbose", false, "Enable protocol-level tracing")
)

// fileConfig mirrors the flags for users who prefer a config file.
// Flags left at their defaults are overridden by file values.
type fileConfig struct {
	Device   string `toml:"device"`
	Baud     int    `toml:"baud"`
	Enhanced bool   `toml:"enhanced"`
	Timeout  string `toml:"timeout"`
}

func main() {
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).With().Timestamp().Logger()

	if *configPath != "" {
		if err := loadConfig(*configPath); err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config file")
		}
	}

	cfg := transport.DefaultConfig(*device)
	cfg.Baud = *baud

	port, err := transport.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open serial port")
	}
	defer port.Close()

	sensor := ld2410.New(port,
		ld2410.WithCommandTimeout(*timeout),
		ld2410.WithLogger(log),
	)

	log.Info().Str("device", *device).Int("baud", *baud).Msg("connecting to sensor")
	if !sensor.Begin() {
		log.Fatal().Msg("sensor did not respond")
	}

	log.Info().
		Str("firmware", sensor.Firmware()).
		Str("mac", sensor.MACString()).
		Str("resolution", sensor.Resolution().String()).
		Uint8("range", sensor.Range()).
		Uint8("no_one_window", sensor.NoOneWindow()).
		Msg("sensor ready")

	if *enhanced {
		if sensor.EnhancedMode(true) {
			log.Info().Msg("enhanced mode enabled")
		} else {
			log.Warn().Msg("sensor refused enhanced mode")
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wasPresent := false
	for {
		select {
		case <-sigs:
			log.Info().Msg("shutting down")
			sensor.End()
			return
		default:
		}

		if sensor.Check() != ld2410.Data {
			continue
		}

		present := sensor.PresenceDetected()
		if present != wasPresent {
			wasPresent = present
			logPresence(log, sensor)
		}
	}
}

func logPresence(log zerolog.Logger, sensor *ld2410.Driver) {
	event := log.Info().Str("status", sensor.StatusString())
	if sensor.MovingTargetDetected() {
		event = event.
			Uint16("moving_cm", sensor.MovingTargetDistance()).
			Uint8("moving_signal", sensor.MovingTargetSignal())
	}
	if sensor.StationaryTargetDetected() {
		event = event.
			Uint16("stationary_cm", sensor.StationaryTargetDistance()).
			Uint8("stationary_signal", sensor.StationaryTargetSignal())
	}
	if sensor.InEnhancedMode() {
		moving := sensor.MovingSignals()
		stationary := sensor.StationarySignals()
		event = event.
			Str("moving_gates", fmt.Sprint(moving.Values())).
			Str("stationary_gates", fmt.Sprint(stationary.Values()))
	}
	event.Msg("presence changed")
}

// loadConfig overlays file values onto flags still at their defaults.
func loadConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg fileConfig
	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if cfg.Device != "" && !set["device"] {
		*device = cfg.Device
	}
	if cfg.Baud != 0 && !set["baud"] {
		*baud = cfg.Baud
	}
	if cfg.Enhanced && !set["enhanced"] {
		*enhanced = true
	}
	if cfg.Timeout != "" && !set["timeout"] {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		*timeout = d
	}
	return nil
}

package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"armlink/config"
	"armlink/ik"
	"armlink/intent"
	"armlink/motion"
	"armlink/safety"
	"armlink/servo"
)

// arm is the assembled control stack for one session.
type arm struct {
	cfg    *config.Config
	log    *logrus.Logger
	gen    *motion.Generator
	disp   *intent.Dispatcher
	closer io.Closer
}

// openArm loads the configuration, opens the transport and wires the
// control chain. Configuration problems are fatal here, at startup, never
// per-call.
func openArm(opts *rootOptions) (*arm, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.Port != "" {
		cfg.Serial.Port = opts.Port
	}

	log := newLogger(cfg.LogLevel)

	var port io.Writer
	var closer io.Closer
	if opts.DryRun {
		log.Warn("dry run: servo commands are discarded")
		port = io.Discard
	} else {
		p, err := serial.OpenPort(&serial.Config{Name: cfg.Serial.Port, Baud: cfg.Serial.Baud})
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.Serial.Port, err)
		}
		port = p
		closer = p
	}

	ctrl, err := newController(cfg, port)
	if err != nil {
		return nil, err
	}

	solver := ik.NewSolver(cfg.Dimensions)
	val := safety.NewValidator(cfg, log)
	gen := motion.NewGenerator(ctrl, val, log)
	disp := intent.NewDispatcher(solver, val, gen, cfg, log)

	return &arm{
		cfg:    cfg,
		log:    log,
		gen:    gen,
		disp:   disp,
		closer: closer,
	}, nil
}

// newController builds the servo controller for the configured protocol.
func newController(cfg *config.Config, port io.Writer) (servo.Controller, error) {
	switch cfg.Serial.Protocol {
	case config.ProtocolSSC32:
		return servo.NewSSC32(&servo.SSC32Config{Port: port, Channels: cfg.Channels})
	case config.ProtocolArduino:
		return servo.NewArduino(&servo.ArduinoConfig{Port: port, Channels: cfg.Channels})
	}
	return nil, fmt.Errorf("unknown servo protocol %q", cfg.Serial.Protocol)
}

func (a *arm) close() {
	if a.closer != nil {
		a.closer.Close()
	}
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return log
}

// Package config loads and validates the arm configuration: link dimensions,
// per-joint angle limits, workspace bounds, servo channel map and the serial
// and MQTT settings. The configuration is read once at startup and is
// read-only afterwards; a missing or malformed file is a fatal condition.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"armlink/joint"
)

// Range is an inclusive min/max pair.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Contains returns true if v lies inside the range, bounds included.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Dimensions are the arm link lengths in millimeters.
type Dimensions struct {
	BaseHeight float64 `yaml:"base_height"` // base pivot to shoulder pivot
	UpperArm   float64 `yaml:"upper_arm"`   // shoulder pivot to elbow pivot
	Forearm    float64 `yaml:"forearm"`     // elbow pivot to wrist pivot
	Gripper    float64 `yaml:"gripper"`     // wrist pivot to effector tip
}

// Workspace is the axis-aligned safe box in millimeters.
type Workspace struct {
	X Range `yaml:"x"`
	Y Range `yaml:"y"`
	Z Range `yaml:"z"`
}

// Serial is the transport configuration.
type Serial struct {
	Port     string `yaml:"port"`
	Baud     int    `yaml:"baud"`
	Protocol string `yaml:"protocol"` // "ssc32" or "arduino"
}

// Servo controller protocols.
const (
	ProtocolSSC32   = "ssc32"
	ProtocolArduino = "arduino"
)

// MQTT is the broker configuration for the intent/detection bridge.
// An empty broker disables the bridge.
type MQTT struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	ArmID    string `yaml:"arm_id"`
}

// GripperAngles are the servo angles for the two gripper states.
type GripperAngles struct {
	Open  float64 `yaml:"open"`
	Close float64 `yaml:"close"`
}

// Config is the complete arm configuration.
type Config struct {
	Dimensions Dimensions            `yaml:"dimensions"`
	Limits     map[joint.Joint]Range `yaml:"joint_limits"`
	Workspace  Workspace             `yaml:"workspace"`
	Channels   map[joint.Joint]int   `yaml:"channels"`
	Serial     Serial                `yaml:"serial"`
	MQTT       MQTT                  `yaml:"mqtt"`
	Speeds     map[string]float64    `yaml:"speeds"`
	Gripper    GripperAngles         `yaml:"gripper_angles"`
	LogLevel   string                `yaml:"log_level"`
}

// Default returns the configuration for a stock AL5D class arm.
func Default() *Config {
	return &Config{
		Dimensions: Dimensions{
			BaseHeight: 70,
			UpperArm:   146,
			Forearm:    185,
			Gripper:    90,
		},
		Limits: map[joint.Joint]Range{
			joint.Base:     {Min: 0, Max: 180},
			joint.Shoulder: {Min: 20, Max: 140},
			joint.Elbow:    {Min: 20, Max: 165},
			joint.Wrist:    {Min: 0, Max: 180},
			joint.Gripper:  {Min: 0, Max: 180},
		},
		Workspace: Workspace{
			X: Range{Min: -300, Max: 300},
			Y: Range{Min: 0, Max: 400},
			Z: Range{Min: 0, Max: 250},
		},
		Channels: map[joint.Joint]int{
			joint.Base:     1,
			joint.Shoulder: 2,
			joint.Elbow:    3,
			joint.Wrist:    4,
			joint.Gripper:  5,
		},
		Serial: Serial{
			Port:     "/dev/ttyUSB0",
			Baud:     115200,
			Protocol: ProtocolSSC32,
		},
		MQTT: MQTT{
			ClientID: "armlink",
			ArmID:    "arm0",
		},
		Speeds: map[string]float64{
			"slow":   4.0,
			"normal": 2.0,
			"fast":   1.0,
		},
		Gripper:  GripperAngles{Open: 150, Close: 60},
		LogLevel: "info",
	}
}

// Load reads the configuration file at path, applies environment overrides
// and validates the result. Defaults fill any section the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides file settings from the environment. A .env file is
// honored when present.
func (c *Config) applyEnv() {
	_ = godotenv.Load()
	c.Serial.Port = getEnv("ARMLINK_SERIAL_PORT", c.Serial.Port)
	if baud, err := strconv.Atoi(os.Getenv("ARMLINK_SERIAL_BAUD")); err == nil {
		c.Serial.Baud = baud
	}
	c.MQTT.Broker = getEnv("ARMLINK_MQTT_BROKER", c.MQTT.Broker)
	c.MQTT.Username = getEnv("ARMLINK_MQTT_USERNAME", c.MQTT.Username)
	c.MQTT.Password = getEnv("ARMLINK_MQTT_PASSWORD", c.MQTT.Password)
	c.LogLevel = getEnv("ARMLINK_LOG_LEVEL", c.LogLevel)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

// Validate rejects configurations the controller cannot safely run with.
func (c *Config) Validate() error {
	d := c.Dimensions
	if d.BaseHeight <= 0 || d.UpperArm <= 0 || d.Forearm <= 0 || d.Gripper < 0 {
		return fmt.Errorf("dimensions must be positive: %+v", d)
	}
	for j, r := range c.Limits {
		if !joint.Valid(j) {
			return fmt.Errorf("joint limit for unknown joint %q", j)
		}
		if r.Min > r.Max {
			return fmt.Errorf("joint %s limits inverted (%.1f > %.1f)", j, r.Min, r.Max)
		}
	}
	for _, r := range []Range{c.Workspace.X, c.Workspace.Y, c.Workspace.Z} {
		if r.Min > r.Max {
			return fmt.Errorf("workspace range inverted (%.1f > %.1f)", r.Min, r.Max)
		}
	}
	for _, j := range joint.All() {
		ch, ok := c.Channels[j]
		if !ok {
			return fmt.Errorf("no channel configured for joint %s", j)
		}
		if ch < 0 || ch > 31 {
			return fmt.Errorf("joint %s channel %d out of range", j, ch)
		}
	}
	if c.Serial.Protocol != ProtocolSSC32 && c.Serial.Protocol != ProtocolArduino {
		return fmt.Errorf("unknown servo protocol %q", c.Serial.Protocol)
	}
	if c.Serial.Baud <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.Serial.Baud)
	}
	for name, secs := range c.Speeds {
		if secs <= 0 {
			return fmt.Errorf("speed %q must map to a positive duration", name)
		}
	}
	return nil
}

// Duration maps a named speed to a move duration in seconds. Unknown or
// empty names fall back to the normal speed.
func (c *Config) Duration(speed string) float64 {
	if secs, ok := c.Speeds[speed]; ok {
		return secs
	}
	if secs, ok := c.Speeds["normal"]; ok {
		return secs
	}
	return 2.0
}

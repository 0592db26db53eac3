//-----------------------------------------------------------------------------
/*

Arduino Servo Controller

An Arduino running the arm sketch that accepts per-servo angle commands of
the form "#<id>D<angle*10>\r". The sketch has no group move and no stop
command, so a batch is written one frame at a time and an emergency stop
drives every channel to the neutral angle directly.

*/
//-----------------------------------------------------------------------------

package servo

import (
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"armlink/joint"
)

//-----------------------------------------------------------------------------

// Arduino position encoding: tenths of a degree over the servo's 0-180 travel.
const (
	arduinoPosMin = 0
	arduinoPosMax = 1800
)

// arduinoSafePos is the neutral position used for the emergency stop.
const arduinoSafePos = 900

//-----------------------------------------------------------------------------

// ArduinoConfig is the Arduino controller configuration.
type ArduinoConfig struct {
	Port     io.Writer           // serial port
	Channels map[joint.Joint]int // joint to servo id
	MinDelay time.Duration       // floor between writes, 0 = DefaultMinDelay
}

// Arduino drives the custom Arduino servo sketch. Writes are serialized:
// an emergency stop never interleaves with a waypoint frame.
type Arduino struct {
	port     io.Writer
	channels map[joint.Joint]int
	pace     *pacer
	mu       sync.Mutex
}

// NewArduino returns a controller writing to the given port.
func NewArduino(cfg *ArduinoConfig) (*Arduino, error) {
	if cfg.Port == nil {
		return nil, fmt.Errorf("no port configured")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("no channel map configured")
	}
	return &Arduino{
		port:     cfg.Port,
		channels: cfg.Channels,
		pace:     newPacer(cfg.MinDelay),
	}, nil
}

// Encode converts a joint angle into an Arduino frame. The position is
// clamped to the sketch's 0-180 degree travel.
func (c *Arduino) Encode(j joint.Joint, angleDeg float64) (Frame, error) {
	ch, ok := c.channels[j]
	if !ok {
		return Frame{}, fmt.Errorf("no channel for joint %s", j)
	}
	pos := int(math.Round(angleDeg * 10))
	return Frame{
		Channel:  ch,
		Position: clampInt(pos, arduinoPosMin, arduinoPosMax),
	}, nil
}

// Send writes the batch one frame at a time, pacing each write. The sketch
// has no move-time parameter, so Frame.Time is not encoded.
func (c *Arduino) Send(frames []Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, f := range frames {
		c.pace.wait()
		cmd := fmt.Sprintf("#%dD%d\r", f.Channel, f.Position)
		if _, err := io.WriteString(c.port, cmd); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}
	return nil
}

// EStop drives every configured channel to the neutral position. The sketch
// has no dedicated stop command, so a fixed safe pose stands in for one.
// Pacing is skipped.
func (c *Arduino) EStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, j := range joint.All() {
		ch, ok := c.channels[j]
		if !ok {
			continue
		}
		cmd := fmt.Sprintf("#%dD%d\r", ch, arduinoSafePos)
		if _, err := io.WriteString(c.port, cmd); err != nil {
			return fmt.Errorf("%w: %v", ErrTransport, err)
		}
	}
	return nil
}

//-----------------------------------------------------------------------------

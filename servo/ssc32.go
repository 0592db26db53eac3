//-----------------------------------------------------------------------------
/*

SSC-32U Servo Controller

Lynxmotion SSC-32U serial servo controller. Commands are ASCII lines of the
form "#<ch>P<pulse>...T<ms>\r" where pulse is the servo control pulse width
in microseconds. A group command moves all listed channels together.

See: https://www.lynxmotion.com/images/data/lynxmotion_ssc-32u_usb_user_guide.pdf

*/
//-----------------------------------------------------------------------------

package servo

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"
	"time"

	"armlink/joint"
)

//-----------------------------------------------------------------------------

// SSC-32U pulse width encoding: 500us (0 degrees) to 2500us (180 degrees).
const (
	ssc32PulseMin   = 500
	ssc32PulseMax   = 2500
	ssc32PulseRange = ssc32PulseMax - ssc32PulseMin
	ssc32AngleRange = 180
)

// ssc32StopFrame halts all servo movement immediately.
const ssc32StopFrame = "STOP\r"

//-----------------------------------------------------------------------------

// SSC32Config is the SSC-32U controller configuration.
type SSC32Config struct {
	Port     io.Writer           // serial port
	Channels map[joint.Joint]int // joint to servo channel
	MinDelay time.Duration       // floor between writes, 0 = DefaultMinDelay
}

// SSC32 drives a Lynxmotion SSC-32U servo controller board. Writes are
// serialized: an emergency stop never interleaves with a waypoint frame.
type SSC32 struct {
	port     io.Writer
	channels map[joint.Joint]int
	pace     *pacer
	mu       sync.Mutex
}

// NewSSC32 returns a controller writing to the given port.
func NewSSC32(cfg *SSC32Config) (*SSC32, error) {
	if cfg.Port == nil {
		return nil, fmt.Errorf("no port configured")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("no channel map configured")
	}
	return &SSC32{
		port:     cfg.Port,
		channels: cfg.Channels,
		pace:     newPacer(cfg.MinDelay),
	}, nil
}

// Encode converts a joint angle into an SSC-32U frame. The pulse width is
// clamped to the protocol's absolute legal range as a final defensive
// measure; joint-limit validation happens upstream.
func (c *SSC32) Encode(j joint.Joint, angleDeg float64) (Frame, error) {
	ch, ok := c.channels[j]
	if !ok {
		return Frame{}, fmt.Errorf("no channel for joint %s", j)
	}
	pulse := ssc32PulseMin + int(math.Round(ssc32PulseRange*angleDeg/ssc32AngleRange))
	return Frame{
		Channel:  ch,
		Position: clampInt(pulse, ssc32PulseMin, ssc32PulseMax),
	}, nil
}

// Send writes one group command for the batch. The longest per-frame move
// time, if any, becomes the group's T parameter.
func (c *SSC32) Send(frames []Frame) error {
	if len(frames) == 0 {
		return nil
	}
	var b strings.Builder
	moveTime := 0
	for _, f := range frames {
		fmt.Fprintf(&b, "#%dP%d", f.Channel, f.Position)
		if f.Time > moveTime {
			moveTime = f.Time
		}
	}
	if moveTime > 0 {
		fmt.Fprintf(&b, "T%d", moveTime)
	}
	b.WriteString("\r")
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pace.wait()
	if _, err := io.WriteString(c.port, b.String()); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// EStop sends the STOP command, halting all servos. It takes no pacing
// delay of its own and waits for at most one in-progress paced write.
func (c *SSC32) EStop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := io.WriteString(c.port, ssc32StopFrame); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

//-----------------------------------------------------------------------------

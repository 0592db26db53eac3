//-----------------------------------------------------------------------------
/*

Servo Command Encoding

Common types for the servo controller protocols. A controller encodes joint
angles into transport frames, writes them to a serial byte stream and
enforces the minimum inter-frame delay the controller hardware needs to
keep its receive buffer from overflowing.

*/
//-----------------------------------------------------------------------------

// Package servo encodes and paces actuation commands for the arm's servo
// controller board.
package servo

import (
	"errors"
	"time"

	"armlink/joint"
)

//-----------------------------------------------------------------------------

// ErrTransport is wrapped by all write failures to the serial layer.
var ErrTransport = errors.New("transport write failed")

// DefaultMinDelay is the hard floor between consecutive writes.
const DefaultMinDelay = 10 * time.Millisecond

//-----------------------------------------------------------------------------

// Frame is one transport-level servo command: a channel, the position in
// the protocol's native encoding, and an optional move time in ms (0 lets
// the controller use its default).
type Frame struct {
	Channel  int
	Position int
	Time     int
}

// Controller encodes joint angles and writes command frames to the
// transport. Implementations own the transport handle exclusively.
type Controller interface {
	// Encode converts an angle in degrees into a transport frame.
	Encode(j joint.Joint, angleDeg float64) (Frame, error)
	// Send writes a batch of frames. A batch is one waypoint: all moved
	// joints of one interpolation step.
	Send(frames []Frame) error
	// EStop halts the arm immediately, bypassing all pacing.
	EStop() error
}

//-----------------------------------------------------------------------------

// pacer enforces the minimum delay between transport writes.
type pacer struct {
	minDelay time.Duration
	last     time.Time
	sleep    func(time.Duration)
}

func newPacer(minDelay time.Duration) *pacer {
	if minDelay <= 0 {
		minDelay = DefaultMinDelay
	}
	return &pacer{minDelay: minDelay, sleep: time.Sleep}
}

// wait blocks until minDelay has elapsed since the previous write.
func (p *pacer) wait() {
	if !p.last.IsZero() {
		if elapsed := time.Since(p.last); elapsed < p.minDelay {
			p.sleep(p.minDelay - elapsed)
		}
	}
	p.last = time.Now()
}

//-----------------------------------------------------------------------------

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

//-----------------------------------------------------------------------------

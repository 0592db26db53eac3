//-----------------------------------------------------------------------------
/*

Trajectory Generator

Owns the arm's current pose and turns a target pose plus a duration into a
time-paced sequence of interpolated waypoints. A move is atomic: it either
dispatches the full sequence or refuses before the first frame. The pose is
committed to the exact requested target only after the full sequence has
been dispatched, so interpolation error never accumulates across moves.

*/
//-----------------------------------------------------------------------------

// Package motion interpolates and paces arm moves.
package motion

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"armlink/joint"
	"armlink/safety"
	"armlink/servo"
)

//-----------------------------------------------------------------------------

// StepRateHz is the waypoint rate of an interpolated move. Higher rates are
// smoother but multiply the command volume on the serial link.
const StepRateHz = 25

// ErrInvalidDuration is returned for non-positive or non-finite move durations.
var ErrInvalidDuration = errors.New("move duration must be positive and finite")

// ErrStopped is returned by a move interrupted by an emergency stop.
var ErrStopped = errors.New("move interrupted by emergency stop")

//-----------------------------------------------------------------------------

// Waypoint is one interpolated intermediate pose within a timed move.
// Fraction is the elapsed share of the move in (0, 1].
type Waypoint struct {
	Pose     joint.Pose
	Fraction float64
}

// Plan computes the waypoint sequence for a move from start to target over
// the given number of steps. Only joints present in target are
// interpolated. The first waypoint is already one step advanced (the start
// pose is never re-sent) and the last waypoint equals the target exactly.
func Plan(start, target joint.Pose, steps int) []Waypoint {
	if steps < 1 {
		steps = 1
	}
	plan := make([]Waypoint, 0, steps)
	for k := 1; k <= steps; k++ {
		frac := float64(k) / float64(steps)
		p := make(joint.Pose, len(target))
		for j, tgt := range target {
			from := start[j]
			p[j] = from + (tgt-from)*frac
		}
		plan = append(plan, Waypoint{Pose: p, Fraction: frac})
	}
	// commit the exact target values, not the last interpolated values
	last := plan[len(plan)-1]
	for j, tgt := range target {
		last.Pose[j] = tgt
	}
	return plan
}

// Steps returns the waypoint count for a move duration: the step rate times
// the duration, rounded, never less than one.
func Steps(seconds float64) int {
	n := int(math.Round(seconds * StepRateHz))
	if n < 1 {
		n = 1
	}
	return n
}

//-----------------------------------------------------------------------------

// Generator holds the arm's current pose and executes moves against a servo
// controller. It is the sole owner of the pose; one generator drives one arm
// for the lifetime of a session. Moves run one at a time, but EStop may
// arrive from another goroutine at any point of an in-flight move.
type Generator struct {
	ctrl    servo.Controller
	val     *safety.Validator
	home    joint.Pose
	log     *logrus.Entry
	sleep   func(time.Duration)
	stopped atomic.Bool

	mu    sync.Mutex // guards state
	state joint.Pose
}

// NewGenerator returns a generator holding the home pose. The arm is
// assumed parked there at session start; call Home to make it true.
func NewGenerator(ctrl servo.Controller, val *safety.Validator, log *logrus.Logger) *Generator {
	return &Generator{
		ctrl:  ctrl,
		val:   val,
		state: joint.Home(),
		home:  joint.Home(),
		log:   log.WithField("component", "motion"),
		sleep: time.Sleep,
	}
}

// Current returns a copy of the arm's current pose.
func (g *Generator) Current() joint.Pose {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.Clone()
}

// MoveTo moves the joints present in target from their current angles to
// the target angles over the given duration, dispatching interpolated
// waypoints at the step rate. It blocks until the last waypoint has been
// dispatched. On any refusal, transport failure or emergency stop the
// current pose is not committed and no further frames are sent.
func (g *Generator) MoveTo(target joint.Pose, seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return fmt.Errorf("%w: %.3fs", ErrInvalidDuration, seconds)
	}
	if len(target) == 0 {
		return nil
	}
	// the joint-limit gate, before anything is sent
	if err := g.val.ValidateJointLimits(target); err != nil {
		g.log.Warnf("move refused: %v", err)
		return err
	}

	steps := Steps(seconds)
	interval := time.Duration(seconds / float64(steps) * float64(time.Second))
	g.log.Infof("moving %d joint(s) over %.2fs in %d steps", len(target), seconds, steps)

	g.stopped.Store(false)
	g.mu.Lock()
	start := g.state.Clone()
	g.mu.Unlock()

	stepMs := int(interval / time.Millisecond)
	for _, wp := range Plan(start, target, steps) {
		if g.stopped.Load() {
			g.log.Warnf("move interrupted at %.0f%%", wp.Fraction*100)
			return ErrStopped
		}
		frames := make([]servo.Frame, 0, len(wp.Pose))
		for _, j := range joint.All() {
			angle, ok := wp.Pose[j]
			if !ok {
				continue
			}
			f, err := g.ctrl.Encode(j, angle)
			if err != nil {
				return fmt.Errorf("encode %s: %w", j, err)
			}
			f.Time = stepMs
			frames = append(frames, f)
		}
		if err := g.ctrl.Send(frames); err != nil {
			g.log.Errorf("move aborted at %.0f%%: %v", wp.Fraction*100, err)
			return err
		}
		g.sleep(interval)
	}
	if g.stopped.Load() {
		return ErrStopped
	}

	// full move dispatched, commit the exact target
	g.mu.Lock()
	g.state.Merge(target)
	committed := g.state.String()
	g.mu.Unlock()
	g.log.Infof("move complete: %s", committed)
	return nil
}

// Home moves all joints to the neutral home pose.
func (g *Generator) Home(seconds float64) error {
	return g.MoveTo(g.home.Clone(), seconds)
}

// EStop halts the arm through the controller's emergency path, bypassing
// interpolation and pacing, and interrupts any in-flight move at its next
// waypoint. The control model is open loop, so afterwards the current pose
// is treated as resynchronized to the home pose; the next Home call makes
// that true on the hardware.
func (g *Generator) EStop() error {
	g.log.Warn("emergency stop")
	g.stopped.Store(true)
	if err := g.ctrl.EStop(); err != nil {
		return err
	}
	g.mu.Lock()
	g.state = g.home.Clone()
	g.mu.Unlock()
	return nil
}

//-----------------------------------------------------------------------------

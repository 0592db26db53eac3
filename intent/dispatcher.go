package intent

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"armlink/config"
	"armlink/ik"
	"armlink/joint"
	"armlink/motion"
	"armlink/safety"
)

// Dispatcher executes interpreter commands against the arm: workspace gate,
// then solve, then the timed move. Execution is serialized so only one move
// is in flight at a time.
type Dispatcher struct {
	solver *ik.Solver
	val    *safety.Validator
	gen    *motion.Generator
	cfg    *config.Config
	log    *logrus.Entry

	mu sync.Mutex
}

// NewDispatcher wires the control chain together.
func NewDispatcher(solver *ik.Solver, val *safety.Validator, gen *motion.Generator, cfg *config.Config, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		solver: solver,
		val:    val,
		gen:    gen,
		cfg:    cfg,
		log:    log.WithField("component", "dispatcher"),
	}
}

// Handle executes one intent. All failures are recoverable: the caller
// reports them and awaits the next command.
func (d *Dispatcher) Handle(in *Intent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	seconds := d.cfg.Duration(in.Speed)
	switch in.Command {
	case ActionMove:
		if in.Target == nil {
			return fmt.Errorf("MOVE without target")
		}
		return d.moveTo(*in.Target, ik.PitchDown, seconds)
	case ActionGrip:
		return d.grip(in.Gripper, seconds)
	}
	return fmt.Errorf("unknown command %q", in.Command)
}

// MoveCartesian runs the gate chain for a Cartesian target at an explicit
// gripper pitch and named speed.
func (d *Dispatcher) MoveCartesian(x, y, z, pitchDeg float64, speed string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.moveTo(Vec3{X: x, Y: y, Z: z}, pitchDeg, d.cfg.Duration(speed))
}

// moveTo runs the full gate chain for a Cartesian target. The workspace
// check comes before solving and the solver's pose passes the joint-limit
// gate inside the generator; an unreachable or unsafe target is refused
// before any frame is sent.
func (d *Dispatcher) moveTo(t Vec3, pitchDeg, seconds float64) error {
	if err := d.val.ValidateWorkspace(t.X, t.Y, t.Z); err != nil {
		return err
	}
	pose, err := d.solver.Solve(t.X, t.Y, t.Z, pitchDeg)
	if err != nil {
		d.log.Warnf("no solution for (%.1f, %.1f, %.1f): %v", t.X, t.Y, t.Z, err)
		return err
	}
	d.log.Infof("target (%.1f, %.1f, %.1f) -> %s", t.X, t.Y, t.Z, pose)
	return d.gen.MoveTo(pose, seconds)
}

// grip opens or closes the gripper with a gripper-only partial move.
func (d *Dispatcher) grip(state string, seconds float64) error {
	angle := d.cfg.Gripper.Close
	if state == GripperOpen {
		angle = d.cfg.Gripper.Open
	}
	d.log.Infof("gripper %s (%.0f°)", state, angle)
	return d.gen.MoveTo(joint.Pose{joint.Gripper: angle}, seconds)
}

// Current reports the arm's current pose.
func (d *Dispatcher) Current() joint.Pose {
	return d.gen.Current()
}

// EStop halts the arm immediately. It does not take the dispatcher lock:
// a stop must never queue behind an in-flight move.
func (d *Dispatcher) EStop() error {
	return d.gen.EStop()
}

package intent

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armlink/config"
	"armlink/ik"
	"armlink/joint"
	"armlink/motion"
	"armlink/safety"
	"armlink/servo"
)

// recordController counts the frame batches reaching the servo layer.
type recordController struct {
	channels map[joint.Joint]int
	batches  int
	stopped  bool
}

func (r *recordController) Encode(j joint.Joint, angleDeg float64) (servo.Frame, error) {
	return servo.Frame{Channel: r.channels[j], Position: int(angleDeg * 10)}, nil
}

func (r *recordController) Send(frames []servo.Frame) error {
	r.batches++
	return nil
}

func (r *recordController) EStop() error {
	r.stopped = true
	return nil
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *recordController) {
	t.Helper()
	cfg := config.Default()
	cfg.Dimensions = config.Dimensions{BaseHeight: 50, UpperArm: 100, Forearm: 100, Gripper: 50}
	// short moves keep the paced waits out of the test runtime
	cfg.Speeds = map[string]float64{"slow": 0.12, "normal": 0.08, "fast": 0.04}

	log := logrus.New()
	log.SetOutput(io.Discard)

	ctrl := &recordController{channels: cfg.Channels}
	solver := ik.NewSolver(cfg.Dimensions)
	val := safety.NewValidator(cfg, log)
	gen := motion.NewGenerator(ctrl, val, log)
	return NewDispatcher(solver, val, gen, cfg, log), ctrl
}

func TestDispatcher_Move(t *testing.T) {
	d, ctrl := newTestDispatcher(t)

	err := d.Handle(&Intent{Command: ActionMove, Target: &Vec3{X: 150, Y: 0, Z: 50}})
	require.NoError(t, err)
	assert.Equal(t, motion.Steps(0.08), ctrl.batches)

	// the pose moved off home for the solved joints
	assert.NotEqual(t, 90.0, d.Current()[joint.Shoulder])
}

func TestDispatcher_MoveOutsideWorkspace(t *testing.T) {
	d, ctrl := newTestDispatcher(t)

	// inside nothing: beyond the workspace box
	err := d.Handle(&Intent{Command: ActionMove, Target: &Vec3{X: 500, Y: 0, Z: 50}})
	assert.ErrorIs(t, err, safety.ErrUnsafePosition)
	assert.Zero(t, ctrl.batches, "the solver must not even run")
}

func TestDispatcher_MoveUnreachable(t *testing.T) {
	d, ctrl := newTestDispatcher(t)

	// inside the box, geometrically out of reach for the annulus check to pass:
	// high z with a short radius keeps the wrist target beyond the links
	err := d.Handle(&Intent{Command: ActionMove, Target: &Vec3{X: 240, Y: 0, Z: 240}})
	assert.ErrorIs(t, err, ik.ErrUnreachable)
	assert.Zero(t, ctrl.batches)
}

func TestDispatcher_Grip(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.Handle(&Intent{Command: ActionGrip, Gripper: GripperOpen}))
	assert.Equal(t, 150.0, d.Current()[joint.Gripper])

	require.NoError(t, d.Handle(&Intent{Command: ActionGrip, Gripper: GripperClose}))
	assert.Equal(t, 60.0, d.Current()[joint.Gripper])
}

func TestDispatcher_MoveCartesianPitch(t *testing.T) {
	d, _ := newTestDispatcher(t)

	require.NoError(t, d.MoveCartesian(180, 20, 120, 0, "fast"))
	assert.NotEqual(t, 90.0, d.Current()[joint.Base])
}

func TestDispatcher_EStop(t *testing.T) {
	d, ctrl := newTestDispatcher(t)
	require.NoError(t, d.Handle(&Intent{Command: ActionMove, Target: &Vec3{X: 150, Y: 0, Z: 50}}))

	require.NoError(t, d.EStop())
	assert.True(t, ctrl.stopped)
	assert.Equal(t, joint.Home(), d.Current())
}

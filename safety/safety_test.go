package safety

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"armlink/config"
	"armlink/joint"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	cfg := config.Default()
	cfg.Dimensions = config.Dimensions{BaseHeight: 50, UpperArm: 100, Forearm: 100, Gripper: 50}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewValidator(cfg, log)
}

func TestValidateJointLimits_Accepts(t *testing.T) {
	v := testValidator(t)

	require.NoError(t, v.ValidateJointLimits(joint.Home()))

	// exact boundary values are inside
	assert.NoError(t, v.ValidateJointLimits(joint.Pose{
		joint.Base:     0,
		joint.Shoulder: 20,
		joint.Elbow:    165,
		joint.Wrist:    180,
	}))
}

func TestValidateJointLimits_Rejects(t *testing.T) {
	v := testValidator(t)

	cases := []joint.Pose{
		{joint.Base: -0.1},
		{joint.Base: 180.1},
		{joint.Shoulder: 19.9},
		{joint.Shoulder: 140.5},
		{joint.Elbow: 165.01},
		{joint.Wrist: 200},
		// one bad joint poisons an otherwise fine pose
		{joint.Base: 90, joint.Shoulder: 90, joint.Elbow: 300},
	}
	for _, p := range cases {
		err := v.ValidateJointLimits(p)
		assert.ErrorIs(t, err, ErrUnsafeAngle, "pose %s", p)
	}
}

func TestValidateJointLimits_PartialPose(t *testing.T) {
	v := testValidator(t)

	// a gripper-only move checks only the gripper
	assert.NoError(t, v.ValidateJointLimits(joint.Pose{joint.Gripper: 150}))
	assert.ErrorIs(t, v.ValidateJointLimits(joint.Pose{joint.Gripper: 181}), ErrUnsafeAngle)
}

func TestValidateJointLimits_FailsClosed(t *testing.T) {
	cfg := config.Default()
	delete(cfg.Limits, joint.Wrist)
	log := logrus.New()
	log.SetOutput(io.Discard)
	v := NewValidator(cfg, log)

	// a joint present in the pose but absent from the limit table is a
	// failure, not a pass-through
	err := v.ValidateJointLimits(joint.Pose{joint.Wrist: 90})
	assert.ErrorIs(t, err, ErrUnsafeAngle)

	// unknown joints are refused outright
	err = v.ValidateJointLimits(joint.Pose{joint.Joint("thumb"): 90})
	assert.ErrorIs(t, err, ErrUnsafeAngle)
}

func TestValidateWorkspace_Box(t *testing.T) {
	v := testValidator(t)

	assert.NoError(t, v.ValidateWorkspace(150, 0, 50))
	assert.NoError(t, v.ValidateWorkspace(0, 200, 100))

	cases := [][3]float64{
		{301, 0, 50},
		{-301, 0, 50},
		{150, -1, 50},
		{150, 401, 50},
		{150, 0, -1},
		{150, 0, 251},
	}
	for _, c := range cases {
		err := v.ValidateWorkspace(c[0], c[1], c[2])
		assert.ErrorIs(t, err, ErrUnsafePosition, "target %v", c)
	}
}

func TestValidateWorkspace_ReachAnnulus(t *testing.T) {
	cfg := config.Default()
	// unequal links give a non-zero retracted reach
	cfg.Dimensions = config.Dimensions{BaseHeight: 50, UpperArm: 150, Forearm: 100, Gripper: 0}
	log := logrus.New()
	log.SetOutput(io.Discard)
	v := NewValidator(cfg, log)

	// inside the box but radially closer than the retracted reach
	err := v.ValidateWorkspace(10, 10, 50)
	assert.ErrorIs(t, err, ErrUnsafePosition)

	// inside the box but radially beyond full extension
	err = v.ValidateWorkspace(280, 100, 50)
	assert.ErrorIs(t, err, ErrUnsafePosition)

	assert.NoError(t, v.ValidateWorkspace(150, 100, 50))
}

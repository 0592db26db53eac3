//-----------------------------------------------------------------------------
/*

Safety Envelope Validator

Two independent gates: a Cartesian workspace check applied before solving,
and a joint-limit check applied before any angle reaches the servos.
Neither may be bypassed by the motion layer.

*/
//-----------------------------------------------------------------------------

// Package safety validates Cartesian targets and joint poses against the
// configured safe envelope.
package safety

import (
	"errors"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"armlink/config"
	"armlink/joint"
)

//-----------------------------------------------------------------------------

// Validation failures.
var (
	ErrUnsafeAngle    = errors.New("joint angle outside safe limits")
	ErrUnsafePosition = errors.New("position outside safe workspace")
)

//-----------------------------------------------------------------------------

// Validator holds the safe envelope for one arm: per-joint angle limits,
// the Cartesian workspace box and the reach annulus derived from the link
// dimensions. The envelope is read-only for the lifetime of the session.
type Validator struct {
	limits    map[joint.Joint]config.Range
	workspace config.Workspace
	minReach  float64
	maxReach  float64
	log       *logrus.Entry
}

// NewValidator builds a validator from the loaded configuration.
func NewValidator(cfg *config.Config, log *logrus.Logger) *Validator {
	limits := make(map[joint.Joint]config.Range, len(cfg.Limits))
	for j, r := range cfg.Limits {
		limits[j] = r
	}
	d := cfg.Dimensions
	return &Validator{
		limits:    limits,
		workspace: cfg.Workspace,
		minReach:  math.Abs(d.UpperArm - d.Forearm),
		maxReach:  d.UpperArm + d.Forearm + d.Gripper,
		log:       log.WithField("component", "safety"),
	}
}

//-----------------------------------------------------------------------------

// ValidateWorkspace checks a Cartesian target against the workspace box and
// the reach annulus. Targets inside the box but radially closer than the
// retracted reach (or farther than full extension) are rejected.
func (v *Validator) ValidateWorkspace(x, y, z float64) error {
	axes := []struct {
		name  string
		value float64
		r     config.Range
	}{
		{"x", x, v.workspace.X},
		{"y", y, v.workspace.Y},
		{"z", z, v.workspace.Z},
	}
	for _, a := range axes {
		if !a.r.Contains(a.value) {
			v.log.Warnf("target %s=%.1fmm outside workspace [%.1f, %.1f]",
				a.name, a.value, a.r.Min, a.r.Max)
			return fmt.Errorf("%w: %s=%.1fmm outside [%.1f, %.1f]",
				ErrUnsafePosition, a.name, a.value, a.r.Min, a.r.Max)
		}
	}
	radial := math.Hypot(x, y)
	if radial < v.minReach || radial > v.maxReach {
		v.log.Warnf("target radius %.1fmm outside reach [%.1f, %.1f]",
			radial, v.minReach, v.maxReach)
		return fmt.Errorf("%w: radius %.1fmm outside reach [%.1f, %.1f]",
			ErrUnsafePosition, radial, v.minReach, v.maxReach)
	}
	return nil
}

// ValidateJointLimits checks every joint present in the pose against its
// configured limits, bounds inclusive. Joints absent from the pose are not
// checked. A joint with no configured limit fails closed.
func (v *Validator) ValidateJointLimits(p joint.Pose) error {
	for j := range p {
		if !joint.Valid(j) {
			return fmt.Errorf("%w: unknown joint %q", ErrUnsafeAngle, j)
		}
	}
	for _, j := range joint.All() {
		angle, ok := p[j]
		if !ok {
			continue
		}
		r, ok := v.limits[j]
		if !ok {
			v.log.Warnf("joint %s has no configured limits, refusing %.2f°", j, angle)
			return fmt.Errorf("%w: no limits configured for joint %s", ErrUnsafeAngle, j)
		}
		if !r.Contains(angle) {
			v.log.Warnf("joint %s angle %.2f° outside limits [%.1f, %.1f]",
				j, angle, r.Min, r.Max)
			return fmt.Errorf("%w: %s %.2f° outside [%.1f, %.1f]",
				ErrUnsafeAngle, j, angle, r.Min, r.Max)
		}
	}
	return nil
}

//-----------------------------------------------------------------------------

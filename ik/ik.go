//-----------------------------------------------------------------------------
/*

Inverse Kinematics

The arm is a planar 2-link chain (upper arm, forearm) rotated about a
vertical base axis, with a fixed-length effector offset applied at the
requested gripper pitch before the 2-link sub-problem is solved.

*/
//-----------------------------------------------------------------------------

// Package ik solves joint angles for Cartesian targets.
package ik

import (
	"errors"
	"math"

	"armlink/config"
	"armlink/joint"
)

//-----------------------------------------------------------------------------

// ErrUnreachable is returned when no joint solution can place the effector
// at the requested target.
var ErrUnreachable = errors.New("target unreachable")

// PitchDown is the gripper pitch for picking straight down off the table.
const PitchDown = 90.0

// degenerate horizontal distance, in mm
const epsilon = 1e-6

//-----------------------------------------------------------------------------

// Solver computes joint poses from Cartesian targets. It is pure: the link
// dimensions are fixed at construction and no call mutates any state.
type Solver struct {
	dims config.Dimensions
}

// NewSolver returns a solver for an arm with the given link dimensions.
func NewSolver(dims config.Dimensions) *Solver {
	return &Solver{dims: dims}
}

// MinReach returns the shortest wrist distance from the shoulder pivot.
func (s *Solver) MinReach() float64 {
	return math.Abs(s.dims.UpperArm - s.dims.Forearm)
}

// MaxReach returns the longest effector distance from the shoulder pivot.
func (s *Solver) MaxReach() float64 {
	return s.dims.UpperArm + s.dims.Forearm + s.dims.Gripper
}

// Solve computes the base, shoulder, elbow and wrist angles placing the
// effector tip at (x,y,z) mm with the gripper pitched pitchDeg below
// horizontal (0 = level, 90 = pointing straight down). The gripper joint is
// never part of the solution; it is commanded independently.
//
// The shoulder and elbow angles are servo angles: the elbow value is the
// interior angle between upper arm and forearm, so a straight arm reads 180.
func (s *Solver) Solve(x, y, z, pitchDeg float64) (joint.Pose, error) {
	if !finite(x) || !finite(y) || !finite(z) || !finite(pitchDeg) {
		return nil, ErrUnreachable
	}

	// base rotation from the horizontal target components
	r := math.Hypot(x, y)
	if r < epsilon {
		// directly above the base pivot, base angle undefined
		return nil, ErrUnreachable
	}
	baseDeg := deg(math.Atan2(y, x))

	// wrist target: back the effector offset out of the target at the
	// requested pitch, and remove the base height
	pitch := rad(pitchDeg)
	rWrist := r - s.dims.Gripper*math.Cos(pitch)
	zWrist := (z - s.dims.BaseHeight) + s.dims.Gripper*math.Sin(pitch)

	// reachability gate: must hold before any acos call
	u := s.dims.UpperArm
	f := s.dims.Forearm
	d := math.Hypot(rWrist, zWrist)
	if d > u+f || d < math.Abs(u-f) {
		return nil, ErrUnreachable
	}

	// law of cosines, twice; the clamp absorbs floating point overshoot at
	// the reachability boundary, nothing more
	cosShoulder := clamp((u*u+d*d-f*f)/(2*u*d), -1, 1)
	shoulderDeg := deg(math.Atan2(zWrist, rWrist) + math.Acos(cosShoulder))
	cosElbow := clamp((u*u+f*f-d*d)/(2*u*f), -1, 1)
	elbowDeg := deg(math.Acos(cosElbow))

	// hold the effector at the requested pitch; the elbow contributes as a
	// negative offset from straight (elbowDeg - 180)
	wristDeg := pitchDeg + 180 - elbowDeg - shoulderDeg

	return joint.Pose{
		joint.Base:     baseDeg,
		joint.Shoulder: shoulderDeg,
		joint.Elbow:    elbowDeg,
		joint.Wrist:    wristDeg,
	}, nil
}

// Forward computes the effector tip position for a pose produced by Solve.
// It is the verification inverse of Solve, used to confirm round trips.
func (s *Solver) Forward(p joint.Pose) (x, y, z float64) {
	base := rad(p[joint.Base])
	shoulder := rad(p[joint.Shoulder])
	elbow := rad(p[joint.Elbow] - 180) // signed offset from straight
	pitch := shoulder + elbow + rad(p[joint.Wrist])

	u := s.dims.UpperArm
	f := s.dims.Forearm
	g := s.dims.Gripper

	rElbow := u * math.Cos(shoulder)
	zElbow := u * math.Sin(shoulder)
	rWrist := rElbow + f*math.Cos(shoulder+elbow)
	zWrist := zElbow + f*math.Sin(shoulder+elbow)
	rTip := rWrist + g*math.Cos(pitch)
	zTip := zWrist - g*math.Sin(pitch)

	x = rTip * math.Cos(base)
	y = rTip * math.Sin(base)
	z = s.dims.BaseHeight + zTip
	return x, y, z
}

//-----------------------------------------------------------------------------

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func deg(radians float64) float64 {
	return radians * 180 / math.Pi
}

func rad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

//-----------------------------------------------------------------------------

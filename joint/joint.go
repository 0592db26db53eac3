//-----------------------------------------------------------------------------
/*

Joint Model

Static description of the arm's joints and the pose type shared by the
solver, validator and trajectory generator.

*/
//-----------------------------------------------------------------------------

// Package joint defines the joints of the arm and the pose type.
package joint

import (
	"fmt"
	"sort"
	"strings"
)

//-----------------------------------------------------------------------------

// Joint identifies one joint of the arm.
type Joint string

// Joints of a 5 DOF arm, base to gripper.
const (
	Base     Joint = "base"
	Shoulder Joint = "shoulder"
	Elbow    Joint = "elbow"
	Wrist    Joint = "wrist"
	Gripper  Joint = "gripper"
)

// All returns the joints in kinematic order, base first.
func All() []Joint {
	return []Joint{Base, Shoulder, Elbow, Wrist, Gripper}
}

// Valid returns true if j names a known joint.
func Valid(j Joint) bool {
	switch j {
	case Base, Shoulder, Elbow, Wrist, Gripper:
		return true
	}
	return false
}

//-----------------------------------------------------------------------------

// Pose maps joints to angles in degrees. A pose holding a subset of the
// joints is a partial pose and is a valid input to partial-move operations.
type Pose map[Joint]float64

// Clone returns an independent copy of the pose.
func (p Pose) Clone() Pose {
	q := make(Pose, len(p))
	for j, a := range p {
		q[j] = a
	}
	return q
}

// Merge overwrites the pose with the entries of other.
func (p Pose) Merge(other Pose) {
	for j, a := range other {
		p[j] = a
	}
}

// Complete returns true if the pose has an entry for every known joint.
func (p Pose) Complete() bool {
	for _, j := range All() {
		if _, ok := p[j]; !ok {
			return false
		}
	}
	return true
}

func (p Pose) String() string {
	keys := make([]string, 0, len(p))
	for j := range p {
		keys = append(keys, string(j))
	}
	sort.Strings(keys)
	s := make([]string, 0, len(keys))
	for _, k := range keys {
		s = append(s, fmt.Sprintf("%s=%.2f", k, p[Joint(k)]))
	}
	return strings.Join(s, " ")
}

//-----------------------------------------------------------------------------

// homeAngle is the neutral mid-travel angle for every joint.
const homeAngle = 90.0

// Home returns the neutral home pose.
func Home() Pose {
	p := make(Pose, len(All()))
	for _, j := range All() {
		p[j] = homeAngle
	}
	return p
}

//-----------------------------------------------------------------------------

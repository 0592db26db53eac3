// Package intent defines the boundary with the command-interpretation and
// vision collaborators: the structured commands they produce and the
// dispatcher that turns a command into a validated arm move.
package intent

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the command kind the interpreter produces.
type Action string

// Interpreter actions.
const (
	ActionMove Action = "MOVE"
	ActionGrip Action = "GRIP"
)

// Gripper states.
const (
	GripperOpen  = "open"
	GripperClose = "close"
)

// Vec3 is a Cartesian position in millimeters in the arm's base frame.
// It unmarshals from either the interpreter's [x,y,z] array form or the
// detector's {"x":..,"y":..,"z":..} object form.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// UnmarshalJSON accepts both array and object encodings.
func (v *Vec3) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var arr []float64
		if err := json.Unmarshal(data, &arr); err != nil {
			return err
		}
		if len(arr) != 3 {
			return fmt.Errorf("position needs 3 components, got %d", len(arr))
		}
		v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
		return nil
	}
	type vec3 Vec3
	return json.Unmarshal(data, (*vec3)(v))
}

// Intent is one structured command from the interpreter.
type Intent struct {
	Command Action `json:"command"`
	Target  *Vec3  `json:"target,omitempty"`
	Speed   string `json:"speed,omitempty"`   // slow | normal | fast
	Gripper string `json:"gripper,omitempty"` // open | close
}

// ParseIntent decodes and sanity-checks one interpreter command.
func ParseIntent(data []byte) (*Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("intent: %w", err)
	}
	switch in.Command {
	case ActionMove:
		if in.Target == nil {
			return nil, fmt.Errorf("intent: MOVE without target")
		}
	case ActionGrip:
		if in.Gripper != GripperOpen && in.Gripper != GripperClose {
			return nil, fmt.Errorf("intent: GRIP with gripper state %q", in.Gripper)
		}
	default:
		return nil, fmt.Errorf("intent: unknown command %q", in.Command)
	}
	return &in, nil
}

// Detection is one object reported by the vision collaborator, already
// transformed into the arm's base frame. This side never touches pixels.
type Detection struct {
	Label    string `json:"label"`
	Position Vec3   `json:"position"`
}

// ParseDetections decodes a detection snapshot.
func ParseDetections(data []byte) ([]Detection, error) {
	var ds []Detection
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("detections: %w", err)
	}
	return ds, nil
}

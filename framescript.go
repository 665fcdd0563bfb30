package arbor

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScript is wrapped by every frame script parse error.
var ErrInvalidScript = errors.New("arbor: invalid frame script")

// ScriptStep is a single action in a frame script. Node names a node in the
// scene; X, Y and Z are a position, a target or rotation angles in degrees
// depending on Action.
type ScriptStep struct {
	Action string  `yaml:"action"`
	Label  string  `yaml:"label,omitempty"`
	Node   string  `yaml:"node,omitempty"`
	X      float32 `yaml:"x,omitempty"`
	Y      float32 `yaml:"y,omitempty"`
	Z      float32 `yaml:"z,omitempty"`
	Frames int     `yaml:"frames,omitempty"`
}

type scriptFile struct {
	Steps []ScriptStep `yaml:"steps"`
}

// Screenshotter queues labeled captures of the current frame.
type Screenshotter interface {
	Screenshot(label string)
}

// FrameScript replays scene edits and screenshots across frames for
// automated visual checks. Call Step once per tick before rendering.
type FrameScript struct {
	steps     []ScriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadFrameScript parses a YAML (or JSON) script of the form
//
//	steps:
//	  - {action: move, node: box, x: 0, y: 2, z: 0}
//	  - {action: wait, frames: 10}
//	  - {action: screenshot, label: raised}
//
// Supported actions are screenshot, wait, move, rotate, lookAt, show and hide.
func LoadFrameScript(data []byte) (*FrameScript, error) {
	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrInvalidScript)
	}
	for i, st := range file.Steps {
		switch st.Action {
		case "screenshot", "wait":
		case "move", "rotate", "lookAt", "show", "hide":
			if st.Node == "" {
				return nil, fmt.Errorf("%w: step %d: %s needs a node", ErrInvalidScript, i, st.Action)
			}
		default:
			return nil, fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidScript, i, st.Action)
		}
	}
	return &FrameScript{steps: file.Steps}, nil
}

// Done reports whether every step has been executed.
func (r *FrameScript) Done() bool {
	return r.done
}

// Step advances the script by one frame, executing at most one step.
// Screenshots are queued on shots, which may be nil.
func (r *FrameScript) Step(scene *Scene, shots Screenshotter) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++
	r.apply(scene, shots, st)

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *FrameScript) apply(scene *Scene, shots Screenshotter, st ScriptStep) {
	switch st.Action {
	case "screenshot":
		if shots != nil {
			shots.Screenshot(st.Label)
		}
		return
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
		return
	}

	n := scene.Root().FindByName(st.Node)
	if n == nil {
		Logger().Warn("arbor: frame script node not found", "node", st.Node, "action", st.Action)
		return
	}
	switch st.Action {
	case "move":
		n.SetPosition(st.X, st.Y, st.Z)
	case "rotate":
		n.SetRotationXYZ(mgl32.DegToRad(st.X), mgl32.DegToRad(st.Y), mgl32.DegToRad(st.Z))
	case "lookAt":
		n.LookAt(mgl32.Vec3{st.X, st.Y, st.Z})
	case "show":
		n.Visible = true
	case "hide":
		n.Visible = false
	}
}

package arbor

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"
)

// scriptStep represents a single action in a hierarchy script.
type scriptStep struct {
	Action string     `yaml:"action"`
	Name   string     `yaml:"name,omitempty"`
	Parent string     `yaml:"parent,omitempty"`
	Vec    [3]float64 `yaml:"vec,omitempty"`
	Angle  float64    `yaml:"angle,omitempty"` // degrees, for rotate
	Index  int        `yaml:"index,omitempty"`
	Count  int        `yaml:"count,omitempty"`
}

// script is the top-level structure of a hierarchy script.
type script struct {
	Steps []scriptStep `yaml:"steps"`
}

// ScriptRunner replays a scripted sequence of hierarchy operations against a
// Scene, one step per call to Step. Entities are addressed by the names given
// in create steps.
type ScriptRunner struct {
	steps  []scriptStep
	cursor int
	named  map[string]*Entity
	done   bool
}

// LoadScript parses a YAML (or JSON) hierarchy script:
//
//	steps:
//	  - {action: create, name: R}
//	  - {action: create, name: A, parent: R}
//	  - {action: move, name: A, vec: [1, 0, 0]}
//	  - {action: parent, name: A}          # no parent: make root
//	  - {action: validate}
//
// Actions: create, parent, keepworld, sibling, destroy, move, rotate, scale,
// chain (count entities under name, each a child of the last), validate.
func LoadScript(data []byte) (*ScriptRunner, error) {
	var sc script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range sc.Steps {
		if !knownAction(st.Action) {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &ScriptRunner{steps: sc.Steps, named: make(map[string]*Entity)}, nil
}

func knownAction(a string) bool {
	switch a {
	case "create", "parent", "keepworld", "sibling", "destroy", "move", "rotate", "scale", "chain", "validate":
		return true
	}
	return false
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Lookup returns the entity created under name, or nil.
func (r *ScriptRunner) Lookup(name string) *Entity {
	return r.named[name]
}

// Run executes every remaining step and returns the first error.
func (r *ScriptRunner) Run(s *Scene) error {
	for !r.done {
		if err := r.Step(s); err != nil {
			return err
		}
	}
	return nil
}

// Step executes the next step. Hierarchy panics (cycles, capacity) are
// recovered and returned as errors; the scene is left as the failed
// operation's precondition checks left it.
func (r *ScriptRunner) Step(s *Scene) (err error) {
	if r.done {
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}
	st := r.steps[r.cursor]
	r.cursor++
	defer func() {
		if r.cursor >= len(r.steps) {
			r.done = true
		}
		if rec := recover(); rec != nil {
			if e, ok := rec.(error); ok {
				err = fmt.Errorf("step %d (%s): %w", r.cursor-1, st.Action, e)
			} else {
				err = fmt.Errorf("step %d (%s): %v", r.cursor-1, st.Action, rec)
			}
		}
	}()
	if err := r.exec(s, st); err != nil {
		return fmt.Errorf("step %d (%s): %w", r.cursor-1, st.Action, err)
	}
	return nil
}

var errUnknownEntity = errors.New("unknown entity")

func (r *ScriptRunner) entity(name string) (*Entity, error) {
	e, ok := r.named[name]
	if !ok || e.IsDestroyed() {
		return nil, fmt.Errorf("%w %q", errUnknownEntity, name)
	}
	return e, nil
}

// parentOf resolves an optional parent name; empty means none.
func (r *ScriptRunner) parentOf(name string) (*Entity, error) {
	if name == "" {
		return nil, nil
	}
	return r.entity(name)
}

func (r *ScriptRunner) exec(s *Scene, st scriptStep) error {
	switch st.Action {
	case "create":
		p, err := r.parentOf(st.Parent)
		if err != nil {
			return err
		}
		e := s.NewEntity(st.Name)
		r.named[st.Name] = e
		if p != nil {
			e.SetParent(p)
		}
		return nil
	case "chain":
		p, err := r.parentOf(st.Parent)
		if err != nil {
			return err
		}
		for i := 0; i < st.Count; i++ {
			e := s.NewEntity(fmt.Sprintf("%s%d", st.Name, i))
			r.named[e.Name()] = e
			if p != nil {
				e.SetParent(p)
			}
			p = e
		}
		return nil
	case "validate":
		return s.Validate()
	}

	e, err := r.entity(st.Name)
	if err != nil {
		return err
	}
	switch st.Action {
	case "parent", "keepworld":
		p, err := r.parentOf(st.Parent)
		if err != nil {
			return err
		}
		if st.Action == "keepworld" {
			e.SetParentKeepWorld(p)
		} else {
			e.SetParent(p)
		}
	case "sibling":
		e.SetSiblingIndex(st.Index)
	case "destroy":
		e.Destroy()
	case "move":
		e.Transform().SetLocalPosition(mgl64.Vec3(st.Vec))
	case "rotate":
		axis := mgl64.Vec3(st.Vec)
		if axis.Len() == 0 {
			return fmt.Errorf("rotate %q: zero axis", st.Name)
		}
		e.Transform().SetLocalRotation(mgl64.QuatRotate(mgl64.DegToRad(st.Angle), axis.Normalize()))
	case "scale":
		e.Transform().SetLocalScale(mgl64.Vec3(st.Vec))
	}
	return nil
}

// Package scene owns simulated entities and publishes read-only frames of
// their state after each step.
package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/san-kum/softsim/internal/dynamo"
	"github.com/san-kum/softsim/internal/mesh"
	"github.com/san-kum/softsim/internal/physics"
)

// Kind tags which variant of a Component is populated.
type Kind int

const (
	KindNone Kind = iota
	KindSoftBody
	KindStatic
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindSoftBody:
		return "softbody"
	case KindStatic:
		return "static"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Component is a tagged union. Only the field matching Kind is set.
type Component struct {
	Kind   Kind
	Soft   *physics.SoftBody
	Static *mesh.Indexed
}

func SoftBodyComponent(b *physics.SoftBody) Component {
	return Component{Kind: KindSoftBody, Soft: b}
}

// StaticComponent wraps render-only geometry that never steps.
func StaticComponent(m *mesh.Indexed) Component {
	return Component{Kind: KindStatic, Static: m}
}

type Entity struct {
	ID   uuid.UUID
	Name string
	Component
}

// Frame is a published view of one entity. Positions belongs to the scene and
// is overwritten by the next Publish.
type Frame struct {
	EntityID  uuid.UUID
	Name      string
	Kind      Kind
	Positions []mgl64.Vec3
	Indices   []int
}

// Scene steps its soft bodies with a shared Config. It is single-writer:
// Step and Publish must not run concurrently with readers of the frames.
type Scene struct {
	Config dynamo.Config

	entities []*Entity
	buffers  map[uuid.UUID][]mgl64.Vec3
	frames   []Frame
	steps    int
}

func New(cfg dynamo.Config) *Scene {
	return &Scene{
		Config:  cfg,
		buffers: make(map[uuid.UUID][]mgl64.Vec3),
	}
}

func (s *Scene) Add(name string, c Component) *Entity {
	e := &Entity{ID: uuid.New(), Name: name, Component: c}
	s.entities = append(s.entities, e)
	s.frames = nil
	return e
}

func (s *Scene) Get(id uuid.UUID) (*Entity, bool) {
	for _, e := range s.entities {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}

// Find returns the first entity with the given name.
func (s *Scene) Find(name string) (*Entity, bool) {
	for _, e := range s.entities {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

func (s *Scene) Remove(id uuid.UUID) bool {
	for i, e := range s.entities {
		if e.ID == id {
			s.entities = append(s.entities[:i], s.entities[i+1:]...)
			delete(s.buffers, id)
			s.frames = nil
			return true
		}
	}
	return false
}

func (s *Scene) Entities() []*Entity { return s.entities }

func (s *Scene) SoftBodies() []*physics.SoftBody {
	var out []*physics.SoftBody
	for _, e := range s.entities {
		if e.Kind == KindSoftBody {
			out = append(out, e.Soft)
		}
	}
	return out
}

// Steps reports how many times Step has completed since the last Reset.
func (s *Scene) Steps() int { return s.steps }

// Step advances every soft body by one frame.
func (s *Scene) Step() error {
	for _, e := range s.entities {
		switch e.Kind {
		case KindSoftBody:
			e.Soft.Integrate(s.Config.Dt, s.Config.Gravity)
			e.Soft.SolveConstraints(s.Config.Dt, s.Config.Iterations)
			e.Soft.SolveFloorCollision(s.Config.FloorY)
		case KindStatic, KindNone:
		default:
			return fmt.Errorf("%w: entity %q has kind %v", dynamo.ErrUnknownKind, e.Name, e.Kind)
		}
	}
	s.steps++
	return nil
}

func (s *Scene) Reset() {
	for _, b := range s.SoftBodies() {
		b.Reset()
	}
	s.steps = 0
}

// Publish copies the current state of every entity into scene-owned buffers
// and returns one frame per entity, in insertion order.
func (s *Scene) Publish() []Frame {
	if s.frames == nil {
		s.frames = make([]Frame, 0, len(s.entities))
	}
	s.frames = s.frames[:0]

	for _, e := range s.entities {
		f := Frame{EntityID: e.ID, Name: e.Name, Kind: e.Kind}
		switch e.Kind {
		case KindSoftBody:
			buf := e.Soft.Snapshot(s.buffers[e.ID])
			s.buffers[e.ID] = buf
			f.Positions = buf
			f.Indices = e.Soft.Indices()
		case KindStatic:
			f.Positions = e.Static.Points
			f.Indices = e.Static.Indices
		default:
			continue
		}
		s.frames = append(s.frames, f)
	}
	return s.frames
}

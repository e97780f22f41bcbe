package engine

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/entity"
	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

// BodySnapshot is a read-only copy of a body for renderers
type BodySnapshot struct {
	ID               entity.ID
	Position         physics.Vector2D
	Velocity         physics.Vector2D
	Radius           float64
	Color            colorful.Color
	LifetimeFraction float64
}

// Stats summarises the simulation state after the last Step
type Stats struct {
	Bodies           int
	Steps            uint64
	FrameCounter     int
	RefreshThreshold float64
	Refreshes        uint64
	LastCollisions   int
	TotalCollisions  uint64
	Expired          uint64
	Removed          uint64
}

func snapshotOf(b *entity.Body) BodySnapshot {
	return BodySnapshot{
		ID:               b.GetID(),
		Position:         b.Position,
		Velocity:         b.Velocity,
		Radius:           b.Radius,
		Color:            b.Color,
		LifetimeFraction: b.LifetimeFraction(),
	}
}

// Bodies returns a snapshot of every live body in simulation order
func (s *Simulation) Bodies() []BodySnapshot {
	out := make([]BodySnapshot, len(s.bodies))
	for i, b := range s.bodies {
		out[i] = snapshotOf(b)
	}
	return out
}

// Body returns a snapshot of one live body
func (s *Simulation) Body(id entity.ID) (BodySnapshot, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return BodySnapshot{}, false
	}
	return snapshotOf(s.bodies[i]), true
}

// Stats returns counters describing the simulation
func (s *Simulation) Stats() Stats {
	return Stats{
		Bodies:           len(s.bodies),
		Steps:            s.steps,
		FrameCounter:     s.candidates.FrameCounter(),
		RefreshThreshold: s.candidates.RefreshThreshold(),
		Refreshes:        s.candidates.Refreshes(),
		LastCollisions:   s.lastCollisions,
		TotalCollisions:  s.totalCollisions,
		Expired:          s.expired,
		Removed:          s.removed,
	}
}

// ClampDelta caps a measured frame duration, in seconds, at limit so a long
// pause does not turn into one huge step. Negative input becomes zero.
func ClampDelta(measured, limit float64) float64 {
	if measured < 0 {
		return 0
	}
	if measured > limit {
		return limit
	}
	return measured
}

// pkg/entity/entity.go
package entity

import (
	"github.com/EngoEngine/ecs"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

// ID is a unique identifier for a body. It is stable for the body's life
// and never handed to another live body.
type ID uint64

// DefaultLifetime is used when a body is spawned without one
const DefaultLifetime = 100.0

// Body is a single ball in the arena
type Body struct {
	ecs.BasicEntity
	physics.MotionState

	Lifetime        float64
	InitialLifetime float64
	Color           colorful.Color
}

// NewBody creates a body with a fresh identity. A non-positive lifetime is
// replaced by DefaultLifetime. radius must be positive.
func NewBody(position, velocity physics.Vector2D, radius float64, color colorful.Color, lifetime float64) *Body {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Body{
		BasicEntity:     ecs.NewBasic(),
		MotionState:     physics.NewMotionState(position, velocity, radius),
		Lifetime:        lifetime,
		InitialLifetime: lifetime,
		Color:           color,
	}
}

// GetID returns the body's unique identifier
func (b *Body) GetID() ID {
	return ID(b.BasicEntity.ID())
}

// Advance moves the body by deltaTime, drains its lifetime and recolours
// it. It reports whether the body has expired.
//
// The drain is lifetime -= drainRate - deltaTime: longer frames drain
// less, and a frame longer than drainRate extends the lifetime.
func (b *Body) Advance(deltaTime, drainRate float64) bool {
	b.Integrate(deltaTime)
	b.Lifetime -= drainRate - deltaTime
	b.Recolor()
	return b.Expired()
}

// Expired reports whether the lifetime has run out
func (b *Body) Expired() bool {
	return b.Lifetime <= 0
}

// Recolor derives the cosmetic colour from the current position
func (b *Body) Recolor() {
	b.Color = PositionColor(b.Position)
}

// LifetimeFraction is lifetime / initialLifetime, used for fading
func (b *Body) LifetimeFraction() float64 {
	if b.InitialLifetime == 0 {
		return 0
	}
	return b.Lifetime / b.InitialLifetime
}

// IndexItem returns the quadtree reference for this body at slot index
func (b *Body) IndexItem(index int) physics.Item {
	return physics.Item{
		Box:       b.Bounds(),
		Radius:    b.Radius,
		BodyID:    uint64(b.GetID()),
		BodyIndex: index,
	}
}

// pkg/physics/collision.go
package physics

// Reference resolver constants
const (
	DefaultBounce            = 0.7
	DefaultCorrectionPercent = 0.2
	DefaultCorrectionSlop    = 0.01
)

// Circle represents a circular collision shape
type Circle struct {
	Center Vector2D
	Radius float64
}

// Collides reports whether two circles overlap or touch
func (c Circle) Collides(other Circle) bool {
	return c.Center.Distance(other.Center) <= c.Radius+other.Radius
}

// Intersects runs the narrow-phase test on the halved collision radii
func Intersects(a, b *MotionState) bool {
	return a.Collider().Collides(b.Collider())
}

// Resolver applies impulse resolution and soft positional correction to
// pairs of circles. Pairs are handled one at a time with no relaxation
// pass; a body hitting several others in one frame is resolved against
// each in turn.
type Resolver struct {
	Bounce  float64 // restitution
	Percent float64 // fraction of penetration removed per correction
	Slop    float64 // penetration tolerated before correcting
}

// DefaultResolver returns a Resolver with the reference constants
func DefaultResolver() Resolver {
	return Resolver{
		Bounce:  DefaultBounce,
		Percent: DefaultCorrectionPercent,
		Slop:    DefaultCorrectionSlop,
	}
}

// Resolve tests a against b and, when they intersect, corrects positions
// then velocities. It reports whether the pair was handled. Coincident
// centres have no contact normal and are skipped for this frame.
func (r Resolver) Resolve(a, b *MotionState) bool {
	if !Intersects(a, b) {
		return false
	}

	// The raw centre distance is the depth fed to the correction, not the
	// overlap amount.
	depth := a.Position.Distance(b.Position)
	if !r.AdjustPositions(a, b, depth) {
		return false
	}
	r.ResolveCollision(a, b)
	return true
}

// AdjustPositions pushes a and b apart along the centre axis by
// max(depth-slop, 0) / (invA+invB) * percent, each side scaled by its own
// inverse mass and halved. It returns false, touching nothing, when the
// centres coincide.
func (r Resolver) AdjustPositions(a, b *MotionState, depth float64) bool {
	normal, ok := b.Position.Sub(a.Position).Normalize()
	if !ok {
		return false
	}

	penetration := depth - r.Slop
	if penetration < 0 {
		penetration = 0
	}
	correction := normal.Scale(penetration / (a.InverseMass + b.InverseMass) * r.Percent)

	a.Position = a.Position.Sub(correction.Scale(a.InverseMass / 2))
	b.Position = b.Position.Add(correction.Scale(b.InverseMass / 2))
	return true
}

// ResolveCollision applies the restitution impulse along the centre axis.
// Pairs already separating are left alone. It reports whether an impulse
// was applied.
func (r Resolver) ResolveCollision(a, b *MotionState) bool {
	normal, ok := b.Position.Sub(a.Position).Normalize()
	if !ok {
		return false
	}

	relative := b.Velocity.Sub(a.Velocity)
	velocityAlongNormal := relative.Dot(normal)
	if velocityAlongNormal > 0 {
		return false
	}

	j := -(1 + r.Bounce) * velocityAlongNormal
	j /= a.InverseMass + b.InverseMass
	impulse := normal.Scale(j)

	a.Velocity = a.Velocity.Sub(impulse.Scale(a.InverseMass))
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InverseMass))
	return true
}

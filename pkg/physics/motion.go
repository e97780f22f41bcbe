package physics

// MotionState is the physical state of a point-mass circle. Radius doubles
// as mass: every impulse and correction is weighted by InverseMass, which
// is always 1/Radius.
type MotionState struct {
	Position    Vector2D
	Velocity    Vector2D
	Radius      float64
	InverseMass float64
}

// NewMotionState derives InverseMass from radius. radius must be positive.
func NewMotionState(position, velocity Vector2D, radius float64) MotionState {
	return MotionState{
		Position:    position,
		Velocity:    velocity,
		Radius:      radius,
		InverseMass: 1 / radius,
	}
}

// Integrate advances the position by velocity over deltaTime seconds
func (s *MotionState) Integrate(deltaTime float64) {
	s.Position = s.Position.Add(s.Velocity.Scale(deltaTime))
}

// CollisionRadius is half of Radius; Radius is a diameter-like size and all
// contact math runs on the half value.
func (s *MotionState) CollisionRadius() float64 {
	return s.Radius / 2
}

// Collider returns the circle used for narrow-phase tests
func (s *MotionState) Collider() Circle {
	return Circle{Center: s.Position, Radius: s.CollisionRadius()}
}

// Bounds returns the broad-phase box: anchored at the centre and Radius wide,
// deliberately not the collision circle's extent.
func (s *MotionState) Bounds() Box {
	return Box{
		X:      s.Position.X,
		Y:      s.Position.Y,
		Width:  s.Radius,
		Height: s.Radius,
	}
}

// ReflectOffWalls negates each velocity component whose radius-extended
// position lies past an arena edge. Position is never clamped, so a fast
// body may sit outside the arena for a frame.
func ReflectOffWalls(s *MotionState, width, height float64) (flippedX, flippedY bool) {
	if s.Position.X+s.Radius > width {
		s.Velocity.X = -s.Velocity.X
		flippedX = !flippedX
	}
	if s.Position.X-s.Radius < 0 {
		s.Velocity.X = -s.Velocity.X
		flippedX = !flippedX
	}
	if s.Position.Y+s.Radius > height {
		s.Velocity.Y = -s.Velocity.Y
		flippedY = !flippedY
	}
	if s.Position.Y-s.Radius < 0 {
		s.Velocity.Y = -s.Velocity.Y
		flippedY = !flippedY
	}
	return flippedX, flippedY
}

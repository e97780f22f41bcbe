// pkg/engine/simulation.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/opd-ai/go-bouncyballs/pkg/config"
	"github.com/opd-ai/go-bouncyballs/pkg/entity"
	"github.com/opd-ai/go-bouncyballs/pkg/event"
	"github.com/opd-ai/go-bouncyballs/pkg/logging"
	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

var (
	// ErrInvalidArena is returned for non-positive arena dimensions
	ErrInvalidArena = errors.New("arena dimensions must be positive")
	// ErrInvalidRadius is returned when a body's radius is not positive
	ErrInvalidRadius = errors.New("radius must be positive and finite")
	// ErrInvalidBody is returned for non-finite spawn parameters
	ErrInvalidBody = errors.New("position, velocity and lifetime must be finite")
	// ErrBodyNotFound is returned when no live body has the given ID
	ErrBodyNotFound = errors.New("body not found")
)

// Simulation owns the live bodies of one arena and advances them one frame
// per Step. It is single-threaded: callers must not use it from several
// goroutines at once.
type Simulation struct {
	width     float64
	height    float64
	drainRate float64
	resolver  physics.Resolver

	bodies     []*entity.Body
	index      *physics.QuadTree
	candidates *CandidateCache

	eventBus *event.Bus
	logger   *logging.Logger

	// events raised inside Step are held until the frame is finished so
	// handlers never see the body list mid-iteration
	stepping bool
	pending  []event.Event

	steps           uint64
	lastCollisions  int
	totalCollisions uint64
	expired         uint64
	removed         uint64
}

// Option customises a Simulation
type Option func(*Simulation)

// WithLogger sets the logger; the default discards output
func WithLogger(logger *logging.Logger) Option {
	return func(s *Simulation) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBus publishes body lifecycle and collision events to bus
func WithEventBus(bus *event.Bus) Option {
	return func(s *Simulation) {
		s.eventBus = bus
	}
}

// NewSimulation creates an empty simulation for cfg. The arena size is
// fixed for the simulation's lifetime; resizing means building a new one.
// A nil cfg uses config.DefaultConfig.
func NewSimulation(cfg *config.SimulationConfig, opts ...Option) (*Simulation, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if !(cfg.Arena.Width > 0) || !(cfg.Arena.Height > 0) ||
		math.IsInf(cfg.Arena.Width, 0) || math.IsInf(cfg.Arena.Height, 0) {
		return nil, fmt.Errorf("%w: %vx%v", ErrInvalidArena, cfg.Arena.Width, cfg.Arena.Height)
	}
	if err := cfg.Validate(); err != nil {
		return nil, logging.WrapError(err, "create simulation")
	}

	s := &Simulation{
		width:     cfg.Arena.Width,
		height:    cfg.Arena.Height,
		drainRate: cfg.Physics.DrainRate,
		resolver: physics.Resolver{
			Bounce:  cfg.Physics.Bounce,
			Percent: cfg.Physics.CorrectionPercent,
			Slop:    cfg.Physics.CorrectionSlop,
		},
		index: physics.NewQuadTree(
			physics.Box{Width: cfg.Arena.Width, Height: cfg.Arena.Height},
			cfg.Index.MaxObjects,
			cfg.Index.MaxLevels,
		),
		candidates: NewCandidateCache(cfg.Physics.RefreshHysteresis),
		logger:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Width returns the arena width
func (s *Simulation) Width() float64 { return s.width }

// Height returns the arena height
func (s *Simulation) Height() float64 { return s.height }

// Len returns the number of live bodies
func (s *Simulation) Len() int { return len(s.bodies) }

// EventBus returns the bus events are published on, or nil
func (s *Simulation) EventBus() *event.Bus { return s.eventBus }

// SpawnBody adds a body and returns its ID. The colour is only the initial
// value; every Step recomputes it from position. A non-positive lifetime
// means entity.DefaultLifetime.
func (s *Simulation) SpawnBody(position, velocity physics.Vector2D, radius float64, color colorful.Color, lifetime float64) (entity.ID, error) {
	if !(radius > 0) || math.IsInf(radius, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}
	if !position.IsFinite() || !velocity.IsFinite() || math.IsNaN(lifetime) || math.IsInf(lifetime, 0) {
		return 0, ErrInvalidBody
	}

	body := entity.NewBody(position, velocity, radius, color, lifetime)
	s.bodies = append(s.bodies, body)
	s.candidates.MarkBodyAdded()

	id := body.GetID()
	s.publishBody(event.BodySpawned, id)
	return id, nil
}

// RemoveBody removes a live body by ID. Remaining bodies keep their order.
func (s *Simulation) RemoveBody(id entity.ID) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrBodyNotFound, id)
	}

	s.bodies = slices.Delete(s.bodies, i, i+1)
	s.candidates.Forget(id)
	s.removed++
	s.publishBody(event.BodyRemoved, id)
	return nil
}

// Reset drops every body and all throttling state. Arena size is kept.
func (s *Simulation) Reset() {
	count := len(s.bodies)
	clear(s.bodies)
	s.bodies = s.bodies[:0]
	s.index.Clear()
	s.candidates.Reset()
	s.steps = 0
	s.lastCollisions = 0
	s.totalCollisions = 0
	s.expired = 0
	s.removed = 0

	s.logger.Info(context.Background(), "simulation reset", "bodies_dropped", count)
	if s.eventBus.HasSubscribers(event.SimulationReset) {
		s.publish(&event.BaseEvent{EventType: event.SimulationReset, Source: s})
	}
}

// Step advances the simulation by deltaTime seconds: move and age every
// body, drop expired ones, rebuild the spatial index, then resolve each
// body against its candidates and reflect it off the walls. A negative or
// non-finite delta is ignored.
//
// Events raised during the frame are published after it completes, in the
// order they occurred. Handlers may therefore call SpawnBody or RemoveBody
// freely; those changes take effect for the next Step.
func (s *Simulation) Step(deltaTime float64) {
	if math.IsNaN(deltaTime) || math.IsInf(deltaTime, 0) || deltaTime < 0 {
		s.logger.Warn(context.Background(), "ignoring invalid frame delta", "delta", deltaTime)
		return
	}
	if len(s.bodies) == 0 {
		return
	}

	s.stepping = true
	s.step(deltaTime)
	s.stepping = false
	s.flushEvents()
}

func (s *Simulation) step(deltaTime float64) {
	s.candidates.BeginFrame(deltaTime)
	s.advanceBodies(deltaTime)
	if len(s.bodies) == 0 {
		return
	}
	s.rebuildIndex()

	collisions := 0
	for _, body := range s.bodies {
		list := s.candidates.Fetch(body.GetID(), body.Bounds(), deltaTime, s.index)
		collisions += s.handleCollisions(body, list)
		physics.ReflectOffWalls(&body.MotionState, s.width, s.height)
	}

	s.candidates.EndFrame()
	s.steps++
	s.lastCollisions = collisions
	s.totalCollisions += uint64(collisions)
}

// advanceBodies integrates and ages every body and compacts out the ones
// that expired, so they never reach the index this frame.
func (s *Simulation) advanceBodies(deltaTime float64) {
	live := s.bodies[:0]
	expired := 0
	for _, body := range s.bodies {
		if body.Advance(deltaTime, s.drainRate) {
			expired++
			s.candidates.Forget(body.GetID())
			s.publishBody(event.BodyExpired, body.GetID())
			continue
		}
		live = append(live, body)
	}
	clear(s.bodies[len(live):])
	s.bodies = live

	if expired > 0 {
		s.expired += uint64(expired)
		ctx := context.Background()
		if s.logger.DebugEnabled(ctx) {
			s.logger.Debug(ctx, "bodies expired", "count", expired, "remaining", len(live))
		}
	}
}

func (s *Simulation) rebuildIndex() {
	s.index.Clear()
	for i, body := range s.bodies {
		s.index.Insert(body.IndexItem(i))
	}
}

// handleCollisions resolves body against each candidate in order and
// returns the number of contacts handled.
func (s *Simulation) handleCollisions(body *entity.Body, list []physics.Item) int {
	self := uint64(body.GetID())
	publish := s.eventBus.HasSubscribers(event.BodyCollision)

	handled := 0
	for _, item := range list {
		if item.BodyID == self {
			continue
		}
		other := s.lookup(item)
		if other == nil {
			continue
		}
		if !s.resolver.Resolve(&body.MotionState, &other.MotionState) {
			continue
		}
		handled++
		if publish {
			s.publish(event.NewCollisionEvent(s, self, item.BodyID))
		}
	}
	return handled
}

// lookup maps an index item back to its live body, trusting the stored
// slot only when the ID still matches.
func (s *Simulation) lookup(item physics.Item) *entity.Body {
	if item.BodyIndex >= 0 && item.BodyIndex < len(s.bodies) {
		if body := s.bodies[item.BodyIndex]; uint64(body.GetID()) == item.BodyID {
			return body
		}
	}
	if i := s.indexOf(entity.ID(item.BodyID)); i >= 0 {
		return s.bodies[i]
	}
	return nil
}

func (s *Simulation) indexOf(id entity.ID) int {
	for i, body := range s.bodies {
		if body.GetID() == id {
			return i
		}
	}
	return -1
}

func (s *Simulation) publishBody(eventType event.Type, id entity.ID) {
	if s.eventBus.HasSubscribers(eventType) {
		s.publish(event.NewBodyEvent(eventType, s, uint64(id)))
	}
}

func (s *Simulation) publish(e event.Event) {
	if s.stepping {
		s.pending = append(s.pending, e)
		return
	}
	s.eventBus.Publish(e)
}

// flushEvents publishes the events queued by the last frame. The queue is
// detached first so a handler that steps again starts a fresh one.
func (s *Simulation) flushEvents() {
	if len(s.pending) == 0 {
		return
	}
	queued := s.pending
	s.pending = nil
	for i, e := range queued {
		s.eventBus.Publish(e)
		queued[i] = nil
	}
}

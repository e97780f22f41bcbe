package engine

import (
	"github.com/opd-ai/go-bouncyballs/pkg/entity"
	"github.com/opd-ai/go-bouncyballs/pkg/physics"
)

// CandidateCache holds each body's broad-phase neighbour list and the
// throttling state that decides when a list counts as a fresh refresh.
//
// The throttle is currently inert: a refresh and a reuse both re-query the
// index, so the counter only changes when frameCounter is reset. The state
// is kept so a stale-list path can be added without reworking the step.
type CandidateCache struct {
	lists map[entity.ID][]physics.Item

	frameCounter     int
	refreshThreshold float64
	hysteresis       float64
	firstFrame       bool
	bodyAdded        bool
	refreshes        uint64
}

// NewCandidateCache creates an empty cache. A frame whose delta exceeds
// hysteresis always counts as a refresh.
func NewCandidateCache(hysteresis float64) *CandidateCache {
	return &CandidateCache{
		lists:      make(map[entity.ID][]physics.Item),
		hysteresis: hysteresis,
		firstFrame: true,
	}
}

// BeginFrame recomputes the refresh threshold from this frame's delta;
// slower frames refresh sooner.
func (c *CandidateCache) BeginFrame(deltaTime float64) {
	c.refreshThreshold = deltaTime * 100
}

// EndFrame advances the frame counter and clears the one-shot triggers
func (c *CandidateCache) EndFrame() {
	c.frameCounter++
	c.firstFrame = false
	c.bodyAdded = false
}

// MarkBodyAdded forces a refresh on the next frame
func (c *CandidateCache) MarkBodyAdded() {
	c.bodyAdded = true
}

func (c *CandidateCache) shouldRefresh(deltaTime float64) bool {
	return float64(c.frameCounter) >= c.refreshThreshold ||
		c.firstFrame ||
		c.bodyAdded ||
		deltaTime > c.hysteresis
}

// Fetch returns the candidate list for the body with the given id and
// bounds, storing it in the cache.
func (c *CandidateCache) Fetch(id entity.ID, bounds physics.Box, deltaTime float64, index *physics.QuadTree) []physics.Item {
	if c.shouldRefresh(deltaTime) {
		c.frameCounter = 0
		c.refreshes++
	}
	// Both branches re-query; there is no stale-list reuse yet.
	list := index.Retrieve(bounds)
	c.lists[id] = list
	return list
}

// Candidates returns the last list fetched for id
func (c *CandidateCache) Candidates(id entity.ID) ([]physics.Item, bool) {
	list, ok := c.lists[id]
	return list, ok
}

// Forget drops the list of a body that left the simulation
func (c *CandidateCache) Forget(id entity.ID) {
	delete(c.lists, id)
}

// Reset returns the cache to its first-frame state
func (c *CandidateCache) Reset() {
	c.lists = make(map[entity.ID][]physics.Item)
	c.frameCounter = 0
	c.refreshThreshold = 0
	c.firstFrame = true
	c.bodyAdded = false
	c.refreshes = 0
}

// FrameCounter returns frames since the last refresh
func (c *CandidateCache) FrameCounter() int { return c.frameCounter }

// RefreshThreshold returns the threshold computed for the current frame
func (c *CandidateCache) RefreshThreshold() float64 { return c.refreshThreshold }

// Refreshes returns the number of fetches that counted as refreshes
func (c *CandidateCache) Refreshes() uint64 { return c.refreshes }

// Len returns the number of bodies with a cached list
func (c *CandidateCache) Len() int { return len(c.lists) }

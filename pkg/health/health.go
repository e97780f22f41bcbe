// Package health serves liveness and readiness probes for the simulation
// driver. Readiness aggregates named checks such as the step heartbeat and
// process memory.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Check is a single named readiness condition
type Check interface {
	// Name returns the unique name of this check
	Name() string
	// Check returns an error when the component is unhealthy
	Check(ctx context.Context) error
}

// Status is the aggregated result served by the readiness probe
type Status struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is the result of one check
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Checker holds registered checks and runs them on demand.
type Checker struct {
	checks map[string]Check
	mu     sync.RWMutex
}

// NewChecker creates an empty checker
func NewChecker() *Checker {
	return &Checker{
		checks: make(map[string]Check),
	}
}

// AddCheck registers check, replacing any check with the same name
func (c *Checker) AddCheck(check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[check.Name()] = check
}

// RemoveCheck removes a check by name
func (c *Checker) RemoveCheck(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.checks, name)
}

// Run executes every check. The overall status is "healthy" only when all
// checks pass.
func (c *Checker) Run(ctx context.Context) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := Status{
		Status: "healthy",
		Checks: make(map[string]ComponentHealth, len(c.checks)),
	}
	for name, check := range c.checks {
		if err := check.Check(ctx); err != nil {
			status.Status = "unhealthy"
			status.Checks[name] = ComponentHealth{Status: "unhealthy", Message: err.Error()}
			continue
		}
		status.Checks[name] = ComponentHealth{Status: "healthy"}
	}
	return status
}

// LivenessHandler answers 200 while the process can serve HTTP at all
func (c *Checker) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

// ReadinessHandler runs every check with a 5s budget and answers 200 when
// all pass, 503 otherwise.
func (c *Checker) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := c.Run(ctx)

	w.Header().Set("Content-Type", "application/json")
	if status.Status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Handler returns a mux serving /health and /ready
func (c *Checker) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", c.LivenessHandler)
	mux.HandleFunc("/ready", c.ReadinessHandler)
	return mux
}

// Heartbeat records the time of the last completed simulation step. Beat
// is called from the step loop and Check from HTTP handlers, so the
// timestamp is atomic.
type Heartbeat struct {
	maxAge time.Duration
	now    func() time.Time
	last   atomic.Int64
}

// NewHeartbeat creates a check that fails when no beat arrived within
// maxAge. A heartbeat that never beat is unhealthy.
func NewHeartbeat(maxAge time.Duration) *Heartbeat {
	return &Heartbeat{maxAge: maxAge, now: time.Now}
}

// Beat records a completed step
func (h *Heartbeat) Beat() {
	h.last.Store(h.now().UnixNano())
}

// Name returns "simulation"
func (h *Heartbeat) Name() string {
	return "simulation"
}

// Check fails when the step loop has stalled
func (h *Heartbeat) Check(ctx context.Context) error {
	last := h.last.Load()
	if last == 0 {
		return fmt.Errorf("simulation has not stepped yet")
	}
	if age := h.now().Sub(time.Unix(0, last)); age > h.maxAge {
		return fmt.Errorf("last step %v ago exceeds %v", age.Round(time.Millisecond), h.maxAge)
	}
	return nil
}

// MemoryCheck fails when heap allocation exceeds a limit
type MemoryCheck struct {
	maxMemoryMB    int64
	getMemoryUsage func() int64
}

// NewMemoryCheck creates a memory check. A nil getMemoryUsage reads
// runtime.MemStats.
func NewMemoryCheck(maxMemoryMB int64, getMemoryUsage func() int64) *MemoryCheck {
	if getMemoryUsage == nil {
		getMemoryUsage = AllocatedMB
	}
	return &MemoryCheck{
		maxMemoryMB:    maxMemoryMB,
		getMemoryUsage: getMemoryUsage,
	}
}

// Name returns "memory"
func (m *MemoryCheck) Name() string {
	return "memory"
}

// Check verifies that memory usage is within the limit
func (m *MemoryCheck) Check(ctx context.Context) error {
	currentMB := m.getMemoryUsage()
	if currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// AllocatedMB returns the current heap allocation in megabytes
func AllocatedMB() int64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return int64(m.Alloc / 1024 / 1024)
}

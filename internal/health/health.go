// Package health runs component checks and reports overall service health.
package health

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Status represents the health of a component or of the whole service.
type Status string

const (
	StatusOK        Status = "ok"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Name    string                 `json:"name"`
	Status  Status                 `json:"status"`
	Message string                 `json:"message"`
	Latency time.Duration          `json:"latency_ns"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Check reports the health of one component.
type Check func(ctx context.Context) ComponentHealth

// Config holds checker thresholds.
type Config struct {
	Timeout           time.Duration
	MemoryThresholdMB uint64
	SlowDatabase      time.Duration
}

// DefaultConfig returns default thresholds.
func DefaultConfig() Config {
	return Config{
		Timeout:           5 * time.Second,
		MemoryThresholdMB: 500,
		SlowDatabase:      100 * time.Millisecond,
	}
}

// Checker runs registered checks on demand.
type Checker struct {
	mu         sync.RWMutex
	cfg        Config
	startTime  time.Time
	components map[string]Check
	readMem    func(*runtime.MemStats)
}

// NewChecker creates a checker with the memory check registered.
func NewChecker(cfg Config) *Checker {
	c := &Checker{
		cfg:        cfg,
		startTime:  time.Now(),
		components: make(map[string]Check),
		readMem:    runtime.ReadMemStats,
	}
	c.Register("memory", c.checkMemory)
	return c
}

// Register adds or replaces the check for a component.
func (c *Checker) Register(name string, check Check) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.components[name] = check
}

// Report is the outcome of one health run.
type Report struct {
	Status     Status            `json:"status"`
	Uptime     string            `json:"uptime"`
	CheckedAt  time.Time         `json:"checked_at"`
	Goroutines int               `json:"goroutines"`
	Components []ComponentHealth `json:"components"`
}

// Healthy reports whether the service can serve requests.
func (r Report) Healthy() bool {
	return r.Status != StatusUnhealthy
}

// Run executes every check concurrently and combines the results. A check
// that panics is reported unhealthy.
func (c *Checker) Run(ctx context.Context) Report {
	c.mu.RLock()
	components := make(map[string]Check, len(c.components))
	for k, v := range c.components {
		components[k] = v
	}
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var wg sync.WaitGroup
	results := make(chan ComponentHealth, len(components))

	for name, check := range components {
		wg.Add(1)
		go func(n string, chk Check) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					results <- ComponentHealth{Name: n, Status: StatusUnhealthy, Message: fmt.Sprintf("check panicked: %v", r)}
				}
			}()

			start := time.Now()
			h := chk(ctx)
			h.Name = n
			if h.Latency == 0 {
				h.Latency = time.Since(start)
			}
			results <- h
		}(name, check)
	}

	wg.Wait()
	close(results)

	report := Report{
		Status:     StatusOK,
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		CheckedAt:  time.Now().UTC(),
		Goroutines: runtime.NumGoroutine(),
	}
	for h := range results {
		report.Components = append(report.Components, h)
		switch h.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded:
			if report.Status == StatusOK {
				report.Status = StatusDegraded
			}
		}
	}
	sort.Slice(report.Components, func(i, j int) bool {
		return report.Components[i].Name < report.Components[j].Name
	})
	return report
}

func (c *Checker) checkMemory(ctx context.Context) ComponentHealth {
	var memStats runtime.MemStats
	c.readMem(&memStats)

	allocMB := memStats.Alloc / 1024 / 1024
	h := ComponentHealth{
		Status:  StatusOK,
		Message: fmt.Sprintf("Memory usage: %d MB", allocMB),
		Details: map[string]interface{}{
			"alloc_mb": allocMB,
			"sys_mb":   memStats.Sys / 1024 / 1024,
			"num_gc":   memStats.NumGC,
		},
	}
	if allocMB > c.cfg.MemoryThresholdMB {
		h.Status = StatusDegraded
		h.Message = fmt.Sprintf("Memory usage high: %d MB", allocMB)
	}
	return h
}

// DatabaseCheck reports the database unhealthy when ping fails and
// degraded when it answers slower than slow.
func DatabaseCheck(ping func(ctx context.Context) error, slow time.Duration) Check {
	return func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := ping(ctx)
		h := ComponentHealth{Latency: time.Since(start)}

		switch {
		case err != nil:
			h.Status = StatusUnhealthy
			h.Message = fmt.Sprintf("Database ping failed: %v", err)
		case slow > 0 && h.Latency > slow:
			h.Status = StatusDegraded
			h.Message = fmt.Sprintf("Database slow: %v", h.Latency)
		default:
			h.Status = StatusOK
			h.Message = "Database reachable"
		}
		return h
	}
}

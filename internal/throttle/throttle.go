// Package throttle limits how fast one client may start solves.
package throttle

import (
	"sync"
	"time"
)

// Config holds throttle settings
type Config struct {
	Enabled     bool          `yaml:"enabled"`
	MaxRequests int           `yaml:"max_requests"` // allowed within Window
	Window      time.Duration `yaml:"window"`

	// RepeatCooldown blocks the same keyed request for this long. A seeded
	// solve always produces the same grid, so repeating it is wasted work.
	RepeatCooldown time.Duration `yaml:"repeat_cooldown"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		MaxRequests:    10,
		Window:         10 * time.Second,
		RepeatCooldown: 5 * time.Second,
	}
}

// Result is the outcome of a Check
type Result struct {
	Allowed bool
	Reason  string
	Wait    time.Duration // how long to wait before trying again
}

// Tracker tracks the requests of a single client
type Tracker struct {
	mu       sync.Mutex
	config   Config
	times    []time.Time          // recent accepted requests
	lastKeys map[string]time.Time // request key -> last accepted
	now      func() time.Time
}

// NewTracker creates a tracker. Zero limits fall back to the defaults.
func NewTracker(config Config) *Tracker {
	def := DefaultConfig()
	if config.MaxRequests <= 0 {
		config.MaxRequests = def.MaxRequests
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	return &Tracker{
		config:   config,
		times:    make([]time.Time, 0, config.MaxRequests),
		lastKeys: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Check decides whether a request may run and records it if so.
// An empty key is never treated as a repeat.
func (t *Tracker) Check(key string) Result {
	if !t.config.Enabled {
		return Result{Allowed: true}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.cleanup(now)

	if key != "" && t.config.RepeatCooldown > 0 {
		if last, ok := t.lastKeys[key]; ok {
			if elapsed := now.Sub(last); elapsed < t.config.RepeatCooldown {
				return Result{
					Reason: "the same seeded request was just solved",
					Wait:   t.config.RepeatCooldown - elapsed,
				}
			}
		}
	}

	if len(t.times) >= t.config.MaxRequests {
		return Result{
			Reason: "requests are coming too quickly",
			Wait:   t.times[0].Add(t.config.Window).Sub(now),
		}
	}

	t.times = append(t.times, now)
	if key != "" {
		t.lastKeys[key] = now
	}
	return Result{Allowed: true}
}

// cleanup drops entries that can no longer block a request
func (t *Tracker) cleanup(now time.Time) {
	cutoff := now.Add(-t.config.Window)
	kept := t.times[:0]
	for _, at := range t.times {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	t.times = kept

	repeatCutoff := now.Add(-t.config.RepeatCooldown)
	for key, at := range t.lastKeys {
		if !at.After(repeatCutoff) {
			delete(t.lastKeys, key)
		}
	}
}

// Reset clears all tracking data
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.times = t.times[:0]
	t.lastKeys = make(map[string]time.Time)
}

package performance

import (
	"sort"
	"sync"
	"time"
)

// Tracker keeps rolling per-operation statistics for completed markers
type Tracker struct {
	mu      sync.RWMutex
	stats   map[string]*OperationStats
	started time.Time
	config  *TrackerConfig
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	SlowThreshold time.Duration `json:"slowThreshold"` // Operations slower than this count as slow
	MaxOperations int           `json:"maxOperations"` // Upper bound on distinct operation names
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		SlowThreshold: 500 * time.Millisecond,
		MaxOperations: 256,
	}
}

// OperationStats aggregates completed markers for one operation name
type OperationStats struct {
	Operation   string        `json:"operation"`
	Count       int64         `json:"count"`
	Failures    int64         `json:"failures"`
	Slow        int64         `json:"slow"`
	TotalTime   time.Duration `json:"totalTime"`
	MaxDuration time.Duration `json:"maxDuration"`
	LastSeen    time.Time     `json:"lastSeen"`
}

// AverageDuration returns the mean duration across all recorded runs
func (s OperationStats) AverageDuration() time.Duration {
	if s.Count == 0 {
		return 0
	}
	return s.TotalTime / time.Duration(s.Count)
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	return &Tracker{
		stats:   make(map[string]*OperationStats),
		started: time.Now(),
		config:  config,
	}
}

// StartOperation creates a new performance marker for an operation
func (t *Tracker) StartOperation(operation, userID string) *Marker {
	return &Marker{
		Operation: operation,
		UserID:    userID,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true, // Assume success until proven otherwise
		tracker:   t,
	}
}

func (t *Tracker) record(m *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.stats[m.Operation]
	if !ok {
		if len(t.stats) >= t.config.MaxOperations {
			return
		}
		s = &OperationStats{Operation: m.Operation}
		t.stats[m.Operation] = s
	}
	s.Count++
	if !m.Success {
		s.Failures++
	}
	if m.Duration > t.config.SlowThreshold {
		s.Slow++
	}
	s.TotalTime += m.Duration
	if m.Duration > s.MaxDuration {
		s.MaxDuration = m.Duration
	}
	s.LastSeen = m.EndTime
}

// Summary is the health-endpoint view of the tracker
type Summary struct {
	Uptime     time.Duration    `json:"uptime"`
	Operations []OperationStats `json:"operations"`
}

// Summary returns a copy of the current statistics
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := Summary{Uptime: time.Since(t.started)}
	for _, s := range t.stats {
		out.Operations = append(out.Operations, *s)
	}
	sort.Slice(out.Operations, func(i, j int) bool {
		return out.Operations[i].Operation < out.Operations[j].Operation
	})
	return out
}

// Stats returns the statistics for one operation, if any were recorded
func (t *Tracker) Stats(operation string) (OperationStats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.stats[operation]
	if !ok {
		return OperationStats{}, false
	}
	return *s, true
}

package aihttpserver

import (
	"sync"
	"time"
)

// Stats holds request counters shared by all connection handlers and
// read by the management API.
type Stats struct {
	mu          sync.Mutex
	started     time.Time
	hits        int64
	generated   int64
	rateLimited int64
	badRequests int64
	errors      int64
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) Hit()         { s.add(&s.hits) }
func (s *Stats) Generated()   { s.add(&s.generated) }
func (s *Stats) RateLimited() { s.add(&s.rateLimited) }
func (s *Stats) BadRequest()  { s.add(&s.badRequests) }
func (s *Stats) Error()       { s.add(&s.errors) }

func (s *Stats) add(counter *int64) {
	s.mu.Lock()
	*counter++
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	UptimeSeconds int64 `json:"uptimeSeconds"`
	Hits          int64 `json:"hits"`
	Generated     int64 `json:"generated"`
	RateLimited   int64 `json:"rateLimited"`
	BadRequests   int64 `json:"badRequests"`
	Errors        int64 `json:"errors"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Hits:          s.hits,
		Generated:     s.generated,
		RateLimited:   s.rateLimited,
		BadRequests:   s.badRequests,
		Errors:        s.errors,
	}
}

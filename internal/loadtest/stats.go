package loadtest

import (
	"fmt"
	"time"
)

// Stats accumulates round-trip durations.
type Stats struct {
	values []time.Duration
}

// Add records one duration.
func (s *Stats) Add(d time.Duration) {
	s.values = append(s.values, d)
}

// Count returns the number of recorded durations.
func (s *Stats) Count() int {
	return len(s.values)
}

// Min returns the smallest duration, or 0 when empty.
func (s *Stats) Min() (m time.Duration) {
	for i, v := range s.values {
		if i == 0 || v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest duration.
func (s *Stats) Max() (m time.Duration) {
	for _, v := range s.values {
		if v > m {
			m = v
		}
	}
	return m
}

// Avg returns the mean duration, or 0 when empty.
func (s *Stats) Avg() time.Duration {
	if len(s.values) == 0 {
		return 0
	}
	var total time.Duration
	for _, v := range s.values {
		total += v
	}
	return time.Duration(total.Nanoseconds() / int64(len(s.values)))
}

func (s *Stats) String() string {
	return fmt.Sprintf("count: %d min: %dms max: %dms avg: %dms",
		s.Count(),
		s.Min().Milliseconds(),
		s.Max().Milliseconds(),
		s.Avg().Milliseconds(),
	)
}

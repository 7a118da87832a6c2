package utils

import "time"

// Stopwatch measures wall-clock time from its creation until Stop.
type Stopwatch struct {
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// StartStopwatch returns a running stopwatch.
func StartStopwatch() *Stopwatch {
	return &Stopwatch{start: time.Now()}
}

// Stop freezes the elapsed time and returns it. Later calls return the frozen
// value.
func (s *Stopwatch) Stop() time.Duration {
	if !s.stopped {
		s.elapsed = time.Since(s.start)
		s.stopped = true
	}
	return s.elapsed
}

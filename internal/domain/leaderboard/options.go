package leaderboard

import "time"

// Option applies a configuration option to the Merger.
type Option func(*Merger)

// WithTolerance sets the gap tolerance. Non-positive values are ignored.
func WithTolerance(tolerance float64) Option {
	return func(m *Merger) {
		if tolerance > 0 {
			m.tolerance = tolerance
		}
	}
}

// WithClock sets the time source used for record and merge timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Merger) {
		if clock != nil {
			m.clock = clock
		}
	}
}

package api

import "github.com/okian/graphboard/pkg/logger"

type options struct {
	maxLimit  int
	rateLimit float64
	burst     int
	title     string
	log       logger.Logger
}

// Option configures the Server.
type Option func(*options)

// WithMaxLimit caps the limit query parameter of /leaderboard.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithRateLimit sets requests per second and burst. Zero rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) {
		o.rateLimit = rps
		if burst > 0 {
			o.burst = burst
		}
	}
}

// WithTitle sets the heading of the HTML page.
func WithTitle(title string) Option {
	return func(o *options) {
		if title != "" {
			o.title = title
		}
	}
}

// WithLogger sets the logger used for recovered panics.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

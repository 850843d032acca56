package service

import (
	"time"

	"github.com/okian/graphboard/internal/domain/leaderboard"
	"github.com/okian/graphboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHTMLPath renders the leaderboard page to path after each update.
func WithHTMLPath(path string) Option {
	return func(s *Service) {
		s.htmlPath = path
	}
}

// WithTitle sets the heading of the rendered page.
func WithTitle(title string) Option {
	return func(s *Service) {
		s.title = title
	}
}

// WithPushgateway pushes batch metrics to url after each update.
func WithPushgateway(url string) Option {
	return func(s *Service) {
		s.pushURL = url
	}
}

// WithGapTolerance sets the tolerance used for gap repair.
func WithGapTolerance(tolerance float64) Option {
	return func(s *Service) {
		s.mergeOpts = append(s.mergeOpts, leaderboard.WithTolerance(tolerance))
	}
}

// WithClock overrides the merge clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		s.mergeOpts = append(s.mergeOpts, leaderboard.WithClock(clock))
	}
}

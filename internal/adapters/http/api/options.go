package api

import (
	"github.com/okian/dancefloor/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithSubmitRateLimit throttles POST /scores per judge. A non-positive rate
// disables throttling.
func WithSubmitRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond > 0 && burst > 0 {
			s.limiter = newJudgeLimiter(perSecond, burst)
		}
	}
}

// WithMaxRequestBytes caps request bodies.
func WithMaxRequestBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxRequestBytes = n
		}
	}
}

// WithPinger makes /healthz check a dependency.
func WithPinger(p Pinger) Option {
	return func(s *Server) {
		s.pinger = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

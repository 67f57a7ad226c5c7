package log

import (
	"github.com/go-kit/log"
	"golang.org/x/time/rate"
)

// RateLimitedLogger wraps a Logger with a token-bucket limiter so a noisy
// call site (e.g. a per-record drop warning) cannot flood output.
type RateLimitedLogger struct {
	limiter *rate.Limiter
	next    log.Logger
}

// NewRateLimitedLogger returns a logger that forwards at most ratePerSecond
// log lines per second to next, silently dropping the rest.
func NewRateLimitedLogger(ratePerSecond int, next log.Logger) *RateLimitedLogger {
	return &RateLimitedLogger{
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), ratePerSecond),
		next:    next,
	}
}

// Log implements log.Logger, dropping the line if the rate limit is exceeded.
func (r *RateLimitedLogger) Log(keyvals ...interface{}) error {
	if !r.limiter.Allow() {
		return nil
	}
	return r.next.Log(keyvals...)
}

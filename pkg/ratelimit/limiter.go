// Package ratelimit caps the request rate against publisher endpoints.
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute is the publisher-wide cap used when none is configured.
const DefaultRequestsPerMinute = 120

// Limiter blocks until one more request may be sent.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Local is an in-process limiter shared by every fetcher in the process.
type Local struct {
	limiter *rate.Limiter
}

// NewLocal returns a limiter admitting rpm requests per minute with no burst.
func NewLocal(rpm int) *Local {
	if rpm <= 0 {
		rpm = DefaultRequestsPerMinute
	}
	return &Local{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)}
}

func (l *Local) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Unlimited never blocks. Used by tests against local servers.
type Unlimited struct{}

func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }

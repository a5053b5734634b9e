package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Trigger represents the different sources of a refresh cycle
type Trigger string

const (
	// TriggerBoot is the initial load at startup
	TriggerBoot Trigger = "boot"
	// TriggerManual is a user-requested refetch
	TriggerManual Trigger = "manual"
	// TriggerTimer is an auto-refresh tick
	TriggerTimer Trigger = "timer"
)

// Limiter throttles refresh triggers per source. The per-source table is
// fixed at construction.
type Limiter struct {
	limiters map[Trigger]*rate.Limiter
}

// New creates a limiter that lets at most one manual refetch through per
// minManualInterval. A zero interval disables throttling. Boot and timer
// triggers are never limited.
func New(minManualInterval time.Duration) *Limiter {
	l := &Limiter{
		limiters: make(map[Trigger]*rate.Limiter),
	}

	if minManualInterval > 0 {
		l.limiters[TriggerManual] = rate.NewLimiter(rate.Every(minManualInterval), 1)
	} else {
		l.limiters[TriggerManual] = rate.NewLimiter(rate.Inf, 1)
	}

	return l
}

// Allow reports whether a trigger from the given source may start a cycle now
func (l *Limiter) Allow(trigger Trigger) bool {
	if l == nil {
		return true
	}

	limiter, exists := l.limiters[trigger]

	if !exists {
		// If no limiter exists for this source, allow the trigger
		return true
	}

	return limiter.Allow()
}

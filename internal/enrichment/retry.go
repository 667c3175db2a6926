package enrichment

import (
	"context"
	"math"
	"time"
)

// RetryPolicy bounds the attempts and waits of one record
type RetryPolicy struct {
	Attempts   int
	MinWait    time.Duration
	MaxWait    time.Duration
	Multiplier float64
	// JitterFrac spreads each delay uniformly over +/- this fraction
	JitterFrac float64
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.Attempts <= 0 {
		p.Attempts = 3
	}
	if p.MinWait <= 0 {
		p.MinWait = 2 * time.Second
	}
	if p.MaxWait < p.MinWait {
		p.MaxWait = p.MinWait
	}
	if p.Multiplier < 1 {
		p.Multiplier = 2
	}
	if p.JitterFrac < 0 {
		p.JitterFrac = 0
	}
	return p
}

// Backoff returns the delay after the given number of failed attempts:
// MinWait*Multiplier^(attempt-1) capped at MaxWait, jittered, and clamped to
// [MinWait, MaxWait]. rnd returns values in [0, 1); nil disables jitter.
func Backoff(attempt int, p RetryPolicy, rnd func() float64) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	d := float64(p.MinWait) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxWait) || math.IsInf(d, 0) {
		d = float64(p.MaxWait)
	}
	if p.JitterFrac > 0 && rnd != nil {
		d *= 1 + (rnd()*2-1)*p.JitterFrac
	}

	out := time.Duration(d)
	if out < p.MinWait {
		out = p.MinWait
	}
	if out > p.MaxWait {
		out = p.MaxWait
	}
	return out
}

// RetryState tracks one in-flight record. It is owned by a single worker.
type RetryState struct {
	Attempts  int
	NextDelay time.Duration
	LastErr   error
}

// Fail records a failed attempt and reports whether another attempt is allowed.
// When it is, NextDelay holds the wait before that attempt.
func (s *RetryState) Fail(err error, p RetryPolicy, rnd func() float64) bool {
	p = p.withDefaults()
	s.Attempts++
	s.LastErr = err
	if s.Attempts >= p.Attempts {
		s.NextDelay = 0
		return false
	}
	s.NextDelay = Backoff(s.Attempts, p, rnd)
	return true
}

// Sleeper waits for d or until ctx is done
type Sleeper func(ctx context.Context, d time.Duration) error

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// ErrRateLimited marks an error from a backend that asked us to slow down (HTTP 429 or equivalent).
// Clients wrap it with %w so IsRateLimited can see it.
var ErrRateLimited = errors.New("rate limited")

// Policy retries rate-limited operations with exponential backoff and jitter:
// delay = Base * 2^attempt * (0.75 + rand*0.5).
type Policy struct {
	MaxRetries uint64
	Base       time.Duration
}

// DefaultPolicy is 3 retries starting at ~1s.
var DefaultPolicy = Policy{MaxRetries: 3, Base: time.Second}

func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// Do runs op, retrying only while it fails with a rate-limit error. Any other error is returned
// immediately. The last error is returned once retries are exhausted or ctx is done.
func Do(ctx context.Context, p Policy, name string, op func(ctx context.Context) error) error {
	if p.Base <= 0 {
		p = DefaultPolicy
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.Base
	b.RandomizationFactor = 0.25
	b.Multiplier = 2
	b.MaxInterval = p.Base << p.MaxRetries
	b.MaxElapsedTime = 0
	b.Reset()

	attempt := 0
	return backoff.RetryNotify(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(b, p.MaxRetries), ctx), func(err error, d time.Duration) {
		attempt++
		log.Warn().Err(err).Str("op", name).Int("attempt", attempt).Dur("delay", d).Msg("rate limited, retrying")
	})
}

package httputil

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/observability"
)

// RetryAfterHeader names the response header that carries the Unix time,
// in whole seconds, at which a throttled request may be retried.
const RetryAfterHeader = "X-Retry-After"

// Clock abstracts wall time so that rate-limit waits can be observed and
// skipped in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the [Clock] backed by the time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ParseRetryAt parses the value of [RetryAfterHeader].
// An empty value yields RATE_LIMIT_HEADER_MISSING; a value that is not an
// integer yields RATE_LIMIT_HEADER_INVALID.
func ParseRetryAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, herrors.New(herrors.ErrCodeRateLimitHeaderMissing,
			"got 429 without %s header", strings.ToLower(RetryAfterHeader))
	}
	secs, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return time.Time{}, herrors.Wrap(herrors.ErrCodeRateLimitHeaderInvalid, err,
			"could not parse %s %q", strings.ToLower(RetryAfterHeader), value)
	}
	return time.Unix(secs, 0), nil
}

// RetryRateLimited calls fn until it returns something other than a
// [herrors.RateLimitedError]. Before each retry it sleeps until the instant
// the server named, or not at all if that instant has passed. There is no
// attempt limit; only ctx ends the loop early.
//
// A nil clock uses [SystemClock].
func RetryRateLimited(ctx context.Context, clock Clock, fn func() error) error {
	if clock == nil {
		clock = SystemClock{}
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		var rl *herrors.RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}

		wait := rl.Wait(clock.Now())
		observability.HTTP().OnThrottled(ctx, rl.URL, wait)
		if wait <= 0 {
			continue
		}
		if err := clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

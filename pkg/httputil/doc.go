// Package httputil provides HTTP utilities for registry clients.
//
// # Overview
//
// This package provides the throttling infrastructure used by the registry
// API clients:
//
//   - [RetryRateLimited]: Repeat a request while the server answers 429
//   - [ParseRetryAt]: Decode the retry instant sent with a 429
//   - [Clock]: Injectable time source for the waits
//
// # Rate Limits
//
// Docker Hub answers throttled requests with status 429 and an
// x-retry-after header holding a Unix timestamp in seconds. Clients turn
// such a response into a [errors.RateLimitedError] and let
// [RetryRateLimited] wait until that instant before trying the same URL
// again:
//
//	err := httputil.RetryRateLimited(ctx, nil, func() error {
//	    return client.Get(ctx, url, &page)
//	})
//
// The wait is dictated entirely by the server. A timestamp in the past
// retries immediately. There is no attempt limit or backoff cap; cancel the
// context to give up.
//
// A 429 without the header, or with a value that is not an integer, is not
// retried: [ParseRetryAt] reports it as RATE_LIMIT_HEADER_MISSING or
// RATE_LIMIT_HEADER_INVALID and the error is returned to the caller.
//
// [errors.RateLimitedError]: github.com/matzehuels/hubtags/pkg/errors.RateLimitedError
package httputil

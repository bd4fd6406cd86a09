// Package integrations provides HTTP clients for container registry APIs.
//
// # Overview
//
// This package contains the shared HTTP client used by the registry
// subpackages:
//
//   - [dockerhub]: Docker Hub v2 tag listings
//
// # Client Pattern
//
// Registry clients are built on top of a shared [Client]:
//
//	client := integrations.NewClient(integrations.DefaultHeaders(""),
//	    integrations.WithRateLimit(2, 1))
//	src := dockerhub.NewSource(client, "hub.docker.com", "library", "redis")
//
// [Client] handles:
//   - Default headers (Accept, User-Agent)
//   - Optional client-side pacing via golang.org/x/time/rate
//   - Status classification into coded errors from [errors]
//   - JSON decoding of response bodies
//
// # Status Mapping
//
//   - 2xx: body decoded into the caller's value
//   - 429 with x-retry-after: *errors.RateLimitedError, retried by
//     [httputil.RetryRateLimited]
//   - 429 without a usable header: RATE_LIMIT_HEADER_MISSING or
//     RATE_LIMIT_HEADER_INVALID
//   - 404: NOT_FOUND
//   - anything else: HTTP_STATUS
//
// Transport failures are NETWORK_ERROR and undecodable bodies are
// INVALID_RESPONSE.
//
// # Adding a New Registry
//
// To add support for another registry:
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement a source with a Next(ctx) (string, error) method
//  4. Use [NewClient] for HTTP
//
// [dockerhub]: github.com/matzehuels/hubtags/pkg/integrations/dockerhub
// [errors]: github.com/matzehuels/hubtags/pkg/errors
// [httputil.RetryRateLimited]: github.com/matzehuels/hubtags/pkg/httputil.RetryRateLimited
package integrations

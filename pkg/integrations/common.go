package integrations

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/hubtags/pkg/buildinfo"
	herrors "github.com/matzehuels/hubtags/pkg/errors"
)

const httpTimeout = 30 * time.Second

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// DefaultHeaders returns the headers sent with every registry request.
// An empty userAgent falls back to [buildinfo.UserAgent].
func DefaultHeaders(userAgent string) map[string]string {
	if userAgent == "" {
		userAgent = buildinfo.UserAgent()
	}
	return map[string]string{
		"Accept":     "application/json",
		"User-Agent": userAgent,
	}
}

// BaseURL turns a registry host into an absolute base URL without a
// trailing slash. A bare host[:port] gets the https scheme; a host that
// already names http or https is kept as is.
func BaseURL(host string) (string, error) {
	if err := herrors.ValidateHost(host); err != nil {
		return "", err
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	return strings.TrimRight(host, "/"), nil
}

// ResolveURL resolves ref against base. Absolute refs are returned
// unchanged; relative refs such as "/v2/...?page=2" or "?page=2" take
// their missing parts from base.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", herrors.Wrap(herrors.ErrCodeInvalidResponse, err, "invalid base URL %q", base)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", herrors.Wrap(herrors.ErrCodeInvalidResponse, err, "invalid next URL %q", ref)
	}
	return b.ResolveReference(r).String(), nil
}

// URLEncode percent-encodes a string for use in a URL path segment.
// This is a convenience wrapper around [url.PathEscape].
func URLEncode(s string) string { return url.PathEscape(s) }

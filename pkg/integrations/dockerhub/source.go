package dockerhub

import (
	"context"
	"fmt"
	"io"
	"iter"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/httputil"
	"github.com/matzehuels/hubtags/pkg/integrations"
	"github.com/matzehuels/hubtags/pkg/observability"
)

const (
	// DefaultHost is the public Docker Hub API host.
	DefaultHost = "hub.docker.com"

	// DefaultPageSize is the page_size requested for the first page.
	DefaultPageSize = 100
)

// Option configures a [Source].
type Option func(*Source)

// WithPageSize sets the page_size query parameter of the first request.
// Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithClock replaces the wall clock used for rate-limit waits.
func WithClock(c httputil.Clock) Option {
	return func(s *Source) {
		if c != nil {
			s.clock = c
		}
	}
}

// Source streams the tag names of one repository, one page at a time.
//
// A Source is not safe for concurrent use. Once Next returns an error other
// than io.EOF or a context error, every later call returns that same error.
type Source struct {
	client   *integrations.Client
	clock    httputil.Clock
	pageSize int

	namespace, repo string

	next  string   // continuation URL; "" once the last page was read
	buf   []string // names of the current page not yet returned
	err   error    // sticky terminal error
	pages int
	names int
	done  bool
}

// NewSource returns a Source for host/namespace/repo. host is a bare
// host[:port], which is reached over https, or an http(s) URL.
//
// Invalid arguments are not reported here; the first call to Next returns
// the validation error.
func NewSource(client *integrations.Client, host, namespace, repo string, opts ...Option) *Source {
	s := &Source{
		client:    client,
		clock:     httputil.SystemClock{},
		pageSize:  DefaultPageSize,
		namespace: namespace,
		repo:      repo,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.next, s.err = firstPageURL(host, namespace, repo, s.pageSize)
	return s
}

func firstPageURL(host, namespace, repo string, pageSize int) (string, error) {
	if err := herrors.ValidateRepository(namespace, repo); err != nil {
		return "", err
	}
	base, err := integrations.BaseURL(host)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/v2/namespaces/%s/repositories/%s/tags?page_size=%d",
		base, integrations.URLEncode(namespace), integrations.URLEncode(repo), pageSize), nil
}

// Repository returns "namespace/repo".
func (s *Source) Repository() string {
	return s.namespace + "/" + s.repo
}

// Next returns the next tag name in page order. It returns io.EOF once the
// last page has been drained.
//
// Next blocks while a page is fetched, including any wait the registry asks
// for with a 429 response. Cancelling ctx aborts the fetch and returns the
// context's error without ending the stream.
func (s *Source) Next(ctx context.Context) (string, error) {
	for {
		if s.err != nil {
			return "", s.err
		}
		if len(s.buf) > 0 {
			name := s.buf[0]
			s.buf = s.buf[1:]
			return name, nil
		}
		if s.next == "" {
			if !s.done {
				s.done = true
				observability.Source().OnExhausted(ctx, s.pages, s.names)
			}
			return "", io.EOF
		}
		if err := s.fetch(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			s.err = err
			return "", err
		}
	}
}

// All returns an iterator over the remaining tag names. Iteration stops
// after the first error, which is yielded with an empty name.
func (s *Source) All(ctx context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			name, err := s.Next(ctx)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(name, nil) {
				return
			}
		}
	}
}

func (s *Source) fetch(ctx context.Context) error {
	url := s.next

	var p page
	err := httputil.RetryRateLimited(ctx, s.clock, func() error {
		p = page{}
		return s.client.Get(ctx, url, &p)
	})
	if err != nil {
		return err
	}

	names, err := p.names(url)
	if err != nil {
		return err
	}

	next := p.continuation()
	if next != "" {
		if next, err = integrations.ResolveURL(url, next); err != nil {
			return err
		}
	}

	s.buf = names
	s.next = next
	s.pages++
	s.names += len(names)
	observability.Source().OnPage(ctx, url, len(names), next != "")
	return nil
}

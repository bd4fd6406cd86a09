package dockerhub

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/integrations"
	"github.com/matzehuels/hubtags/pkg/observability"
)

const tagsPath = "/v2/namespaces/library/repositories/redis/tags"

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return ctx.Err()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Unix(1767323045, 0)}
}

// registry is a scripted tags endpoint. Each request is answered by the
// next handler in order; the last handler answers any extra requests.
type registry struct {
	mu       sync.Mutex
	handlers []http.HandlerFunc
	requests []*http.Request
}

func (reg *registry) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reg.mu.Lock()
	i := min(len(reg.requests), len(reg.handlers)-1)
	reg.requests = append(reg.requests, r)
	h := reg.handlers[i]
	reg.mu.Unlock()
	h(w, r)
}

func (reg *registry) count() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.requests)
}

func newRegistry(t *testing.T, handlers ...http.HandlerFunc) (*registry, *httptest.Server) {
	t.Helper()
	reg := &registry{handlers: handlers}
	srv := httptest.NewServer(reg)
	t.Cleanup(srv.Close)
	return reg, srv
}

func pageHandler(next any, names ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make([]map[string]any, 0, len(names))
		for _, n := range names {
			results = append(results, map[string]any{"name": n, "full_size": 1024})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"count":   len(names),
			"next":    next,
			"results": results,
		})
	}
}

func statusHandler(status int, retryAfter string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if retryAfter != "" {
			w.Header().Set("x-retry-after", retryAfter)
		}
		w.WriteHeader(status)
	}
}

func rawHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}
}

func newTestSource(srv *httptest.Server, clock *fakeClock, opts ...Option) *Source {
	client := integrations.NewClient(integrations.DefaultHeaders("hubtags/test"), integrations.WithHTTPClient(srv.Client()))
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewSource(client, srv.URL, "library", "redis", opts...)
}

// drainSource pulls until io.EOF or the first error.
func drainSource(t *testing.T, src *Source) ([]string, error) {
	t.Helper()
	var names []string
	for i := 0; i < 10000; i++ {
		name, err := src.Next(context.Background())
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	t.Fatal("source did not terminate")
	return nil, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSourceFirstRequest(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil))

	src := newTestSource(srv, newClock())
	if _, err := src.Next(context.Background()); err != io.EOF {
		t.Fatalf("Next() error = %v, want io.EOF", err)
	}

	if reg.count() != 1 {
		t.Fatalf("requests = %d, want 1", reg.count())
	}
	r := reg.requests[0]
	if r.URL.Path != tagsPath {
		t.Errorf("path = %q, want %q", r.URL.Path, tagsPath)
	}
	if got := r.URL.Query().Get("page_size"); got != "100" {
		t.Errorf("page_size = %q, want 100", got)
	}
	if got := r.Header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want application/json", got)
	}
	if got := r.Header.Get("User-Agent"); got != "hubtags/test" {
		t.Errorf("User-Agent = %q, want hubtags/test", got)
	}
}

func TestSourcePageSize(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil))

	src := newTestSource(srv, newClock(), WithPageSize(25))
	drainSource(t, src)

	if got := reg.requests[0].URL.Query().Get("page_size"); got != "25" {
		t.Errorf("page_size = %q, want 25", got)
	}
}

func TestSourcePagination(t *testing.T) {
	var srv *httptest.Server
	reg, srv := newRegistry(t,
		func(w http.ResponseWriter, r *http.Request) {
			pageHandler(srv.URL+tagsPath+"?page=2&page_size=100", "1.2.0", "1.2.5", "1.3.0", "2.0.0-rc1")(w, r)
		},
		pageHandler(nil, "2.0.0", "garbage"),
	)

	src := newTestSource(srv, newClock())
	names, err := drainSource(t, src)
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}

	want := []string{"1.2.0", "1.2.5", "1.3.0", "2.0.0-rc1", "2.0.0", "garbage"}
	if !equalNames(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if reg.count() != 2 {
		t.Errorf("requests = %d, want 2", reg.count())
	}
	if got := reg.requests[1].URL.Query().Get("page"); got != "2" {
		t.Errorf("second request page = %q, want 2", got)
	}
}

func TestSourceRelativeNext(t *testing.T) {
	reg, srv := newRegistry(t,
		pageHandler(tagsPath+"?page=2", "a"),
		pageHandler("?page=3", "b"),
		pageHandler(nil, "c"),
	)

	names, err := drainSource(t, newTestSource(srv, newClock()))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"a", "b", "c"}) {
		t.Errorf("names = %v", names)
	}
	for i, want := range []string{"", "2", "3"} {
		r := reg.requests[i]
		if r.URL.Path != tagsPath || r.URL.Query().Get("page") != want {
			t.Errorf("request %d = %s, want page %q", i, r.URL, want)
		}
	}
}

func TestSourceEmptyPageWithNext(t *testing.T) {
	reg, srv := newRegistry(t,
		pageHandler(tagsPath+"?page=2"),
		pageHandler(tagsPath+"?page=3"),
		pageHandler(nil, "7.0.0"),
	)

	names, err := drainSource(t, newTestSource(srv, newClock()))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"7.0.0"}) {
		t.Errorf("names = %v, want [7.0.0]", names)
	}
	if reg.count() != 3 {
		t.Errorf("requests = %d, want 3", reg.count())
	}
}

func TestSourceEmptyNextEndsStream(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler("", "1.0.0"))

	names, err := drainSource(t, newTestSource(srv, newClock()))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"1.0.0"}) || reg.count() != 1 {
		t.Errorf("names = %v, requests = %d", names, reg.count())
	}
}

func TestSourceEOFIsRepeated(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil))

	src := newTestSource(srv, newClock())
	for i := 0; i < 3; i++ {
		if _, err := src.Next(context.Background()); err != io.EOF {
			t.Fatalf("call %d: Next() error = %v, want io.EOF", i, err)
		}
	}
	if reg.count() != 1 {
		t.Errorf("requests = %d, want 1", reg.count())
	}
}

func TestSourceRateLimitPastRetryAt(t *testing.T) {
	clock := newClock()
	past := strconv.FormatInt(clock.now.Add(-30*time.Second).Unix(), 10)
	reg, srv := newRegistry(t,
		statusHandler(http.StatusTooManyRequests, past),
		pageHandler(nil, "1.0.0"),
	)

	names, err := drainSource(t, newTestSource(srv, clock))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"1.0.0"}) {
		t.Errorf("names = %v", names)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("sleeps = %v, want none", clock.sleeps)
	}
	if reg.count() != 2 || reg.requests[0].URL.String() != reg.requests[1].URL.String() {
		t.Errorf("want the same URL retried once, got %d requests", reg.count())
	}
}

func TestSourceRateLimitFutureRetryAt(t *testing.T) {
	clock := newClock()
	future := strconv.FormatInt(clock.now.Add(7*time.Second).Unix(), 10)
	reg, srv := newRegistry(t,
		statusHandler(http.StatusTooManyRequests, future),
		statusHandler(http.StatusTooManyRequests, future),
		pageHandler(nil, "1.0.0"),
	)

	names, err := drainSource(t, newTestSource(srv, clock))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"1.0.0"}) {
		t.Errorf("names = %v", names)
	}
	// The second 429 names the same instant, which has passed by then.
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 7*time.Second {
		t.Errorf("sleeps = %v, want [7s]", clock.sleeps)
	}
	if reg.count() != 3 {
		t.Errorf("requests = %d, want 3", reg.count())
	}
}

func TestSourceRateLimitOnLaterPage(t *testing.T) {
	clock := newClock()
	future := strconv.FormatInt(clock.now.Add(2*time.Second).Unix(), 10)
	var srv *httptest.Server
	_, srv = newRegistry(t,
		func(w http.ResponseWriter, r *http.Request) {
			pageHandler(srv.URL+tagsPath+"?page=2", "1.0.0")(w, r)
		},
		statusHandler(http.StatusTooManyRequests, future),
		pageHandler(nil, "1.1.0"),
	)

	names, err := drainSource(t, newTestSource(srv, clock))
	if err != nil {
		t.Fatalf("drain error: %v", err)
	}
	if !equalNames(names, []string{"1.0.0", "1.1.0"}) {
		t.Errorf("names = %v", names)
	}
	if len(clock.sleeps) != 1 || clock.sleeps[0] != 2*time.Second {
		t.Errorf("sleeps = %v, want [2s]", clock.sleeps)
	}
}

func TestSourceFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode herrors.Code
	}{
		{"429 without header", statusHandler(http.StatusTooManyRequests, ""), herrors.ErrCodeRateLimitHeaderMissing},
		{"429 with bad header", statusHandler(http.StatusTooManyRequests, "tomorrow"), herrors.ErrCodeRateLimitHeaderInvalid},
		{"not found", statusHandler(http.StatusNotFound, ""), herrors.ErrCodeNotFound},
		{"server error", statusHandler(http.StatusInternalServerError, ""), herrors.ErrCodeHTTPStatus},
		{"malformed json", rawHandler(`{"next": null, "results": [`), herrors.ErrCodeInvalidResponse},
		{"missing results", rawHandler(`{"next": null}`), herrors.ErrCodeInvalidResponse},
		{"result without name", rawHandler(`{"next": null, "results": [{"name": "1.0.0"}, {"digest": "sha256:abc"}]}`), herrors.ErrCodeInvalidResponse},
		{"name not a string", rawHandler(`{"next": null, "results": [{"name": 1}]}`), herrors.ErrCodeInvalidResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, srv := newRegistry(t, tt.handler)
			clock := newClock()
			src := newTestSource(srv, clock)

			_, err := src.Next(context.Background())
			if !herrors.Is(err, tt.wantCode) {
				t.Fatalf("Next() error = %v, want code %s", err, tt.wantCode)
			}

			// Sticky: the same error again, without another request.
			requests := reg.count()
			_, again := src.Next(context.Background())
			if again != err {
				t.Errorf("second Next() error = %v, want %v", again, err)
			}
			if reg.count() != requests {
				t.Errorf("requests after failure = %d, want %d", reg.count(), requests)
			}
			if len(clock.sleeps) != 0 {
				t.Errorf("sleeps = %v, want none", clock.sleeps)
			}
		})
	}
}

func TestSourceErrorAfterFirstPage(t *testing.T) {
	var srv *httptest.Server
	_, srv = newRegistry(t,
		func(w http.ResponseWriter, r *http.Request) {
			pageHandler(srv.URL+tagsPath+"?page=2", "1.0.0", "1.1.0")(w, r)
		},
		statusHandler(http.StatusTooManyRequests, ""),
	)

	names, err := drainSource(t, newTestSource(srv, newClock()))
	if !herrors.Is(err, herrors.ErrCodeRateLimitHeaderMissing) {
		t.Fatalf("drain error = %v, want RATE_LIMIT_HEADER_MISSING", err)
	}
	if !equalNames(names, []string{"1.0.0", "1.1.0"}) {
		t.Errorf("names before failure = %v", names)
	}
}

func TestSourceNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := integrations.NewClient(nil)
	src := NewSource(client, srv.URL, "library", "redis", WithClock(newClock()))

	_, err := src.Next(context.Background())
	if !herrors.Is(err, herrors.ErrCodeNetwork) {
		t.Errorf("Next() error = %v, want NETWORK_ERROR", err)
	}
}

func TestSourceInvalidArguments(t *testing.T) {
	tests := []struct {
		name           string
		host, ns, repo string
		wantCode       herrors.Code
	}{
		{"empty namespace", "hub.docker.com", "", "redis", herrors.ErrCodeInvalidInput},
		{"traversal", "hub.docker.com", "library", "../etc", herrors.ErrCodeInvalidInput},
		{"bad host", "ftp://hub.docker.com", "library", "redis", herrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewSource(integrations.NewClient(nil), tt.host, tt.ns, tt.repo)
			_, err := src.Next(context.Background())
			if !herrors.Is(err, tt.wantCode) {
				t.Errorf("Next() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestSourceSeparatorRunsInNames(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil, "1.0.0"))
	client := integrations.NewClient(nil, integrations.WithHTTPClient(srv.Client()))
	src := NewSource(client, srv.URL, "my__org", "my--repo", WithClock(newClock()))

	names, err := drainSource(t, src)
	if err != nil {
		t.Fatalf("drain error = %v", err)
	}
	if len(names) != 1 {
		t.Errorf("names = %v, want one tag", names)
	}
	if reg.count() != 1 {
		t.Fatalf("requests = %d, want 1", reg.count())
	}
	if got, want := reg.requests[0].URL.Path, "/v2/namespaces/my__org/repositories/my--repo/tags"; got != want {
		t.Errorf("path = %q, want %q", got, want)
	}
}

func TestSourceCancelledContextIsNotSticky(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil, "1.0.0"))
	src := newTestSource(srv, newClock())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Next() error = %v, want context.Canceled", err)
	}
	if reg.count() != 0 {
		t.Errorf("requests with cancelled context = %d, want 0", reg.count())
	}

	names, err := drainSource(t, src)
	if err != nil {
		t.Fatalf("drain after cancel: %v", err)
	}
	if !equalNames(names, []string{"1.0.0"}) {
		t.Errorf("names = %v", names)
	}
}

func TestSourceAll(t *testing.T) {
	var srv *httptest.Server
	_, srv = newRegistry(t,
		func(w http.ResponseWriter, r *http.Request) {
			pageHandler(srv.URL+tagsPath+"?page=2", "a", "b")(w, r)
		},
		pageHandler(nil, "c"),
	)

	var names []string
	for name, err := range newTestSource(srv, newClock()).All(context.Background()) {
		if err != nil {
			t.Fatalf("All() error: %v", err)
		}
		names = append(names, name)
	}
	if !equalNames(names, []string{"a", "b", "c"}) {
		t.Errorf("names = %v", names)
	}
}

func TestSourceAllStopsAtError(t *testing.T) {
	_, srv := newRegistry(t, statusHandler(http.StatusBadGateway, ""))

	var errs []error
	for name, err := range newTestSource(srv, newClock()).All(context.Background()) {
		if name != "" {
			t.Errorf("unexpected name %q", name)
		}
		errs = append(errs, err)
	}
	if len(errs) != 1 || !herrors.Is(errs[0], herrors.ErrCodeHTTPStatus) {
		t.Errorf("errors = %v, want one HTTP_STATUS", errs)
	}
}

func TestSourceAllBreak(t *testing.T) {
	reg, srv := newRegistry(t, pageHandler(nil, "a", "b", "c"))
	src := newTestSource(srv, newClock())

	for range src.All(context.Background()) {
		break
	}
	name, err := src.Next(context.Background())
	if err != nil || name != "b" {
		t.Errorf("Next() after break = %q, %v; want b", name, err)
	}
	if reg.count() != 1 {
		t.Errorf("requests = %d, want 1", reg.count())
	}
}

func TestSourceEmitsHooks(t *testing.T) {
	hooks := &recordingSourceHooks{}
	observability.SetSourceHooks(hooks)
	defer observability.Reset()

	var srv *httptest.Server
	_, srv = newRegistry(t,
		func(w http.ResponseWriter, r *http.Request) {
			pageHandler(srv.URL+tagsPath+"?page=2", "a", "b")(w, r)
		},
		pageHandler(nil, "c"),
	)

	src := newTestSource(srv, newClock())
	drainSource(t, src)
	src.Next(context.Background())

	if len(hooks.pages) != 2 || hooks.pages[0] != 2 || hooks.pages[1] != 1 {
		t.Errorf("OnPage names = %v, want [2 1]", hooks.pages)
	}
	if hooks.exhausted != 1 || hooks.totalPages != 2 || hooks.totalNames != 3 {
		t.Errorf("OnExhausted = %d calls, %d pages, %d names", hooks.exhausted, hooks.totalPages, hooks.totalNames)
	}
}

func TestSourceRepository(t *testing.T) {
	src := NewSource(integrations.NewClient(nil), DefaultHost, "bitnami", "redis")
	if got := src.Repository(); got != "bitnami/redis" {
		t.Errorf("Repository() = %q, want bitnami/redis", got)
	}
}

type recordingSourceHooks struct {
	observability.NoopSourceHooks
	pages      []int
	exhausted  int
	totalPages int
	totalNames int
}

func (h *recordingSourceHooks) OnPage(_ context.Context, _ string, names int, _ bool) {
	h.pages = append(h.pages, names)
}

func (h *recordingSourceHooks) OnExhausted(_ context.Context, pages, names int) {
	h.exhausted++
	h.totalPages = pages
	h.totalNames = names
}

package cli

import (
	"context"
	"time"

	"github.com/matzehuels/hubtags/pkg/observability"
)

// logHooks reports run progress and registry traffic at debug level on the
// logger carried by the event's context.
type logHooks struct{}

func (logHooks) OnRunStart(ctx context.Context, repo string) {
	loggerFromContext(ctx).Debug("run started", "repo", repo)
}

func (logHooks) OnTagSkipped(ctx context.Context, tag string, err error) {
	loggerFromContext(ctx).Debug("tag not a version", "tag", tag, "err", err)
}

func (logHooks) OnRunComplete(ctx context.Context, repo string, tags, lines int, d time.Duration, err error) {
	l := loggerFromContext(ctx)
	if err != nil {
		l.Debug("run failed", "repo", repo, "tags", tags, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	l.Debug("run complete", "repo", repo, "tags", tags, "lines", lines, "duration", d.Round(time.Millisecond))
}

func (logHooks) OnRequest(ctx context.Context, method, host, path string) {
	loggerFromContext(ctx).Debug("request", "method", method, "host", host, "path", path)
}

func (logHooks) OnResponse(ctx context.Context, method, host, path string, status int, d time.Duration) {
	loggerFromContext(ctx).Debug("response", "status", status, "path", path, "duration", d.Round(time.Millisecond))
}

func (logHooks) OnError(ctx context.Context, method, host, path string, err error) {
	loggerFromContext(ctx).Debug("request failed", "host", host, "path", path, "err", err)
}

func (logHooks) OnThrottled(ctx context.Context, url string, wait time.Duration) {
	loggerFromContext(ctx).Debug("rate limited", "url", url, "wait", wait.Round(time.Second))
}

func (logHooks) OnPage(ctx context.Context, url string, names int, hasNext bool) {
	loggerFromContext(ctx).Debug("fetched page", "tags", names, "more", hasNext)
}

func (logHooks) OnExhausted(ctx context.Context, pages, names int) {
	loggerFromContext(ctx).Debug("no more pages", "pages", pages, "tags", names)
}

// registerLogHooks installs logHooks for pipeline, source and HTTP events.
func registerLogHooks() {
	observability.SetPipelineHooks(logHooks{})
	observability.SetHTTPHooks(logHooks{})
	observability.SetSourceHooks(logHooks{})
}

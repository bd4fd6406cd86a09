package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/observability"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// Runner executes the tag aggregation loop.
//
// The Runner is stateless except for the parser and logger - it doesn't
// store results. Multiple goroutines can use the same Runner with
// different sources.
type Runner struct {
	Parser versions.Parser
	Logger *log.Logger
}

// NewRunner creates a runner with the given parser and logger.
// If parser is nil, [versions.Lenient] is used.
// If logger is nil, log.Default() is used.
func NewRunner(parser versions.Parser, logger *log.Logger) *Runner {
	if parser == nil {
		parser = versions.Lenient
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Parser: parser,
		Logger: logger,
	}
}

// Execute pulls every tag from src and returns the highest version per
// (major, minor) line.
//
// Unparsable names are logged as warnings and skipped. Any error from src
// aborts the run.
func (r *Runner) Execute(ctx context.Context, src TagSource, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	repo := repositoryOf(src)
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, repo)

	start := time.Now()
	agg := versions.NewAggregator()
	var stats Stats

	for {
		name, err := src.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			err = wrapSourceError(err, repo)
			hooks.OnRunComplete(ctx, repo, stats.Tags, agg.Len(), time.Since(start), err)
			return nil, err
		}
		stats.Tags++

		if !opts.keep(name) {
			stats.Filtered++
			continue
		}

		v, err := r.Parser.Parse(name)
		if err != nil {
			stats.Skipped++
			r.Logger.Warn("ignoring unparsable version", "tag", name)
			hooks.OnTagSkipped(ctx, name, err)
			continue
		}
		agg.Insert(v)
	}

	result := &Result{Snapshot: agg.Snapshot()}
	stats.Lines = result.Snapshot.Len()
	stats.Duration = time.Since(start)
	result.Stats = stats

	r.Logger.Debug("aggregated tags",
		"repo", repo,
		"tags", stats.Tags,
		"filtered", stats.Filtered,
		"skipped", stats.Skipped,
		"lines", stats.Lines)
	hooks.OnRunComplete(ctx, repo, stats.Tags, stats.Lines, stats.Duration, nil)

	return result, nil
}

func repositoryOf(src TagSource) string {
	if named, ok := src.(interface{ Repository() string }); ok {
		return named.Repository()
	}
	return ""
}

// wrapSourceError adds the repository to a source error, keeping its code.
// Context errors pass through unchanged.
func wrapSourceError(err error, repo string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	code := herrors.GetCode(err)
	if code == "" {
		code = herrors.ErrCodeInternal
	}
	if repo == "" {
		return herrors.Wrap(code, err, "fetch tags")
	}
	return herrors.Wrap(code, err, "fetch tags for %s", repo)
}

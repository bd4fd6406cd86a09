// Package pipeline drives a tag source into a version aggregate.
//
// This package implements the fetch → filter → parse → aggregate loop that
// the CLI runs. By keeping it out of the CLI, the loop can be exercised
// against any [TagSource], including in-memory ones in tests.
//
// # Stages
//
// For every tag name pulled from the source:
//
//  1. Filter: names not matching Include, or matching Exclude, are counted
//     and dropped
//  2. Parse: the runner's [versions.Parser] turns the name into a version;
//     a failure is logged as a warning and the name is skipped
//  3. Aggregate: the version is offered to a [versions.Aggregator]
//
// The first error from the source aborts the run. No partial result is
// returned.
//
// # Usage
//
//	runner := pipeline.NewRunner(versions.Lenient, logger)
//	result, err := runner.Execute(ctx, src, pipeline.Options{Exclude: `-alpine$`})
//	if err != nil {
//	    return err
//	}
//	out, _ := json.MarshalIndent(result.Snapshot, "", "  ")
package pipeline

import (
	"context"
	"regexp"
	"time"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and config
// =============================================================================

// Format constants for output formats.
const (
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// DefaultFormat is the output format used when none is configured.
const DefaultFormat = FormatJSON

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON:  true,
	FormatYAML:  true,
	FormatTable: true,
}

// ValidateFormat checks if a format string is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return herrors.New(herrors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, yaml, table)", format)
	}
	return nil
}

// =============================================================================
// Source, Options, Result
// =============================================================================

// TagSource yields tag names one at a time and io.EOF when exhausted.
type TagSource interface {
	Next(ctx context.Context) (string, error)
}

// Options holds the per-run settings of [Runner.Execute].
type Options struct {
	// Include, if set, is a regular expression a tag name must match to be
	// considered.
	Include string `json:"include,omitempty"`

	// Exclude, if set, is a regular expression that drops matching tag
	// names.
	Exclude string `json:"exclude,omitempty"`

	include, exclude *regexp.Regexp
	validated        bool
}

// ValidateAndSetDefaults compiles the filters.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	var err error
	if o.include, err = compileFilter("include", o.Include); err != nil {
		return err
	}
	if o.exclude, err = compileFilter("exclude", o.Exclude); err != nil {
		return err
	}
	o.validated = true
	return nil
}

func compileFilter(name, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, herrors.Wrap(herrors.ErrCodeInvalidInput, err, "invalid %s pattern %q", name, expr)
	}
	return re, nil
}

// keep reports whether a tag name passes the filters.
func (o *Options) keep(name string) bool {
	if o.include != nil && !o.include.MatchString(name) {
		return false
	}
	if o.exclude != nil && o.exclude.MatchString(name) {
		return false
	}
	return true
}

// Result is the outcome of a successful run.
type Result struct {
	Snapshot versions.Snapshot `json:"versions"`
	Stats    Stats             `json:"stats"`
}

// Stats counts what happened to the tags of a run.
type Stats struct {
	Tags     int           `json:"tags"`     // Names pulled from the source
	Filtered int           `json:"filtered"` // Names dropped by Include/Exclude
	Skipped  int           `json:"skipped"`  // Names that did not parse
	Lines    int           `json:"lines"`    // Distinct (major, minor) entries
	Duration time.Duration `json:"duration"`
}

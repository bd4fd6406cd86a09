package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/hubtags/pkg/buildinfo"
	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/httputil"
	"github.com/matzehuels/hubtags/pkg/integrations"
	"github.com/matzehuels/hubtags/pkg/integrations/dockerhub"
	"github.com/matzehuels/hubtags/pkg/pipeline"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "hubtags"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command results. Diagnostics never go here.
	Out io.Writer

	// HTTPClient replaces the registry transport when set.
	HTTPClient integrations.Doer

	// Clock replaces the wall clock for rate-limit waits when set.
	Clock httputil.Clock
}

// New creates a new CLI instance writing results to out and logs to logw.
func New(out, logw io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(logw, level),
		Out:    out,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// rootOpts holds the command-line flags of the root command.
type rootOpts struct {
	namespace string
	repo      string
	host      string
	format    string
	parser    string
	include   string
	exclude   string
	pageSize  int
	rps       float64

	configPath string
	verbose    bool
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:   "hubtags --namespace NAMESPACE --repo REPO",
		Short: "hubtags reports the newest image tag of every major.minor line",
		Long: `hubtags pages through the tags of a Docker Hub repository, parses each tag
as a semantic version and prints the highest version seen for every
(major, minor) pair. Tags that are not versions are reported on stderr and
skipped.`,
		Example: `  hubtags -n library -r redis
  hubtags -n bitnami -r postgresql --exclude '-debian-' --format table`,
		Version:       buildinfo.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.verbose {
				c.SetLogLevel(LogDebug)
				registerLogHooks()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTags(cmd, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/hubtags/config.toml)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	f := root.Flags()
	f.StringVarP(&opts.namespace, "namespace", "n", "", "repository namespace (e.g. library)")
	f.StringVarP(&opts.repo, "repo", "r", "", "repository name (e.g. redis)")
	f.StringVar(&opts.host, "host", dockerhub.DefaultHost, "registry API host, optionally with http:// or https://")
	f.StringVar(&opts.format, "format", pipeline.DefaultFormat, "output format: json, yaml, table")
	f.StringVar(&opts.parser, "parser", versions.ParserLenient, "tag parser: lenient, strict")
	f.StringVar(&opts.include, "include", "", "only consider tags matching this regular expression")
	f.StringVar(&opts.exclude, "exclude", "", "ignore tags matching this regular expression")
	f.IntVar(&opts.pageSize, "page-size", dockerhub.DefaultPageSize, "tags requested per page")
	f.Float64Var(&opts.rps, "rps", 0, "maximum requests per second (0 = unlimited)")
	_ = root.MarkFlagRequired("namespace")
	_ = root.MarkFlagRequired("repo")
	registerFlagCompletions(root)

	root.AddCommand(c.configCommand(opts))
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Tag Aggregation
// =============================================================================

// runTags fetches all tags of the requested repository and writes the
// per-line maxima to c.Out.
func (c *CLI) runTags(cmd *cobra.Command, opts *rootOpts) error {
	if err := herrors.ValidateRepository(opts.namespace, opts.repo); err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd, opts)
	if err != nil {
		return err
	}
	parser, err := versions.ParserByName(cfg.Parser)
	if err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "invalid parser")
	}

	ctx := withLogger(cmd.Context(), c.Logger)
	logger := loggerFromContext(ctx)

	client := integrations.NewClient(
		integrations.DefaultHeaders(cfg.UserAgent),
		integrations.WithHTTPClient(c.HTTPClient),
		integrations.WithRateLimit(cfg.RequestsPerSecond, 1),
	)
	src := dockerhub.NewSource(client, cfg.Host, opts.namespace, opts.repo,
		dockerhub.WithPageSize(cfg.PageSize),
		dockerhub.WithClock(c.Clock),
	)

	logger.Debug("fetching tags", "host", cfg.Host, "repo", src.Repository(), "parser", cfg.Parser)
	prog := newProgress(logger)

	runner := pipeline.NewRunner(parser, logger)
	result, err := runner.Execute(ctx, src, pipeline.Options{
		Include: opts.include,
		Exclude: opts.exclude,
	})
	if err != nil {
		return err
	}

	if err := writeResult(c.Out, result.Snapshot, cfg.Format); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Found %d version lines in %d tags", result.Stats.Lines, result.Stats.Tags))
	return nil
}

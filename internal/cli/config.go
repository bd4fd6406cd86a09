package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	herrors "github.com/matzehuels/hubtags/pkg/errors"
	"github.com/matzehuels/hubtags/pkg/integrations/dockerhub"
	"github.com/matzehuels/hubtags/pkg/pipeline"
	"github.com/matzehuels/hubtags/pkg/versions"
)

// configFileName is the name of the config file inside configDir.
const configFileName = "config.toml"

// Config holds the settings that may come from the config file.
// Flags given on the command line take precedence over the file, which
// takes precedence over the defaults.
type Config struct {
	Host              string  `toml:"host"`
	Format            string  `toml:"format"`
	Parser            string  `toml:"parser"`
	PageSize          int     `toml:"page_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	UserAgent         string  `toml:"user_agent,omitempty"`
}

func defaultConfig() Config {
	return Config{
		Host:     dockerhub.DefaultHost,
		Format:   pipeline.DefaultFormat,
		Parser:   versions.ParserLenient,
		PageSize: dockerhub.DefaultPageSize,
	}
}

// Validate checks the effective configuration.
func (cfg Config) Validate() error {
	if err := herrors.ValidateHost(cfg.Host); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "invalid host")
	}
	if err := pipeline.ValidateFormat(cfg.Format); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "invalid format")
	}
	if _, err := versions.ParserByName(cfg.Parser); err != nil {
		return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "invalid parser")
	}
	if cfg.PageSize < 1 {
		return herrors.New(herrors.ErrCodeInvalidConfig, "page_size must be positive, got %d", cfg.PageSize)
	}
	if cfg.RequestsPerSecond < 0 {
		return herrors.New(herrors.ErrCodeInvalidConfig, "requests_per_second must not be negative, got %g", cfg.RequestsPerSecond)
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/hubtags/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// configFile returns explicit if set, otherwise the default config path.
func configFile(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// =============================================================================
// Loading
// =============================================================================

// loadConfig reads the config file over the defaults. A missing default
// file yields the defaults; a missing explicit file is an error.
func loadConfig(explicit string) (Config, error) {
	path, err := configFile(explicit)
	if err != nil {
		// No home directory: only the defaults are available.
		return defaultConfig(), nil
	}

	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if explicit == "" && errors.Is(err, fs.ErrNotExist) {
			return defaultConfig(), nil
		}
		return Config{}, herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, herrors.New(herrors.ErrCodeInvalidConfig, "unknown key %q in %s", undecoded[0].String(), path)
	}
	return cfg, nil
}

// applyFlags overrides cfg with every flag the user set explicitly.
func (cfg *Config) applyFlags(cmd *cobra.Command, opts *rootOpts) {
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = opts.host
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("parser") {
		cfg.Parser = opts.parser
	}
	if flags.Changed("page-size") {
		cfg.PageSize = opts.pageSize
	}
	if flags.Changed("rps") {
		cfg.RequestsPerSecond = opts.rps
	}
}

// resolveConfig returns the validated effective configuration for cmd.
func resolveConfig(cmd *cobra.Command, opts *rootOpts) (Config, error) {
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return Config{}, err
	}
	cfg.applyFlags(cmd, opts)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// Commands
// =============================================================================

// configCommand creates the config inspection command.
func (c *CLI) configCommand(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the hubtags configuration",
	}

	cmd.AddCommand(c.configPathCommand(opts))
	cmd.AddCommand(c.configShowCommand(opts))

	return cmd
}

// configPathCommand creates the "config path" subcommand.
func (c *CLI) configPathCommand(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFile(opts.configPath)
			if err != nil {
				return herrors.Wrap(herrors.ErrCodeInvalidConfig, err, "get config dir")
			}
			printTo(c.Out, "%s", path)
			return nil
		},
	}
}

// configShowCommand creates the "config show" subcommand.
func (c *CLI) configShowCommand(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return toml.NewEncoder(c.Out).Encode(cfg)
		},
	}
}

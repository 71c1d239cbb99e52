package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/graphjson/pkg/buildinfo"
	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/config"
	"github.com/matzehuels/graphjson/pkg/store"
	"github.com/matzehuels/graphjson/pkg/uri"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "graphjson"

	// defaultConfigFile is read from the working directory when --config
	// is not given.
	defaultConfigFile = "graphjson.toml"
)

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

	out         printer
	configPath  string
	schemaFiles []string
	verbose     bool
}

// New creates a CLI that logs to w and prints results to stdout.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		out:    printer{w: os.Stdout},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects command output.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = printer{w: w}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "graphjson reads and writes schema-typed object graphs as JSON",
		Long:         `graphjson decodes JSON documents into typed object graphs described by a YAML schema, resolves references within and across documents, and writes them back in a normalized form.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.verbose {
				c.SetLogLevel(LogDebug)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.SetOut(c.out.w)

	flags := root.PersistentFlags()
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	flags.StringVarP(&c.configPath, "config", "c", "", "config file (default ./"+defaultConfigFile+" when present)")
	flags.StringSliceVarP(&c.schemaFiles, "schema", "s", nil, "schema file, repeatable; overrides the config")

	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Codec
// =============================================================================

// loadConfig reads the config file, or the defaults when there is none,
// and applies the --schema override.
func (c *CLI) loadConfig() (*config.Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err == nil {
			path = defaultConfigFile
		}
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
		c.Logger.Debug("loaded config", "path", path)
	}
	if len(c.schemaFiles) > 0 {
		cfg.Schema.Files = c.schemaFiles
	}
	if !c.verbose {
		c.SetLogLevel(cfg.LogLevel())
	}
	return cfg, nil
}

// newCodec loads the schema named by cfg and builds a codec for it.
func (c *CLI) newCodec(cfg *config.Config) (*codec.Codec, error) {
	reg, err := cfg.LoadSchema()
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("loaded schema", "files", cfg.Schema.Files, "types", len(reg.Types()))
	return cfg.NewCodec(reg, c.Logger)
}

// setup loads the config and codec in one step.
func (c *CLI) setup() (*config.Config, *codec.Codec, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	cd, err := c.newCodec(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, cd, nil
}

// openStore opens the configured store. File URIs always go to the local
// filesystem so command-line paths work with any backend.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (*store.Router, error) {
	r, err := cfg.OpenStore(ctx, c.Logger)
	if err != nil {
		return nil, err
	}
	r.Handle("file", store.Instrument("local", store.NewLocal()))
	return r, nil
}

// documentURI turns a command-line argument into a document URI: URIs
// pass through, paths become file URIs.
func documentURI(arg string) (string, error) {
	if uri.Scheme(arg) != "" {
		return arg, nil
	}
	return uri.FromPath(arg)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file store directory: the configured one, else
// $XDG_CACHE_HOME/graphjson, else ~/.cache/graphjson.
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Store.Dir != "" {
		return cfg.Store.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	return store.DefaultDir()
}

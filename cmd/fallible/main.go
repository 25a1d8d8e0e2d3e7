// Command fallible rewrites //fallible:system declarations into systems
// that report their errors instead of returning them.
//
//	fallible rewrite -w ./...
//	fallible inspect ./game/...
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/funvibe/fallible/internal/gen"
)

// Version is set at build time using: -ldflags "-X main.Version=v1.2.3"
var Version = "dev"

// cli holds the state shared by all subcommands.
type cli struct {
	configPath string
	verbose    bool

	stdout io.Writer
	stderr io.Writer

	config *gen.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "fallible:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	c := &cli{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "fallible",
		Short:         "Rewrite fallible functions into error-reporting systems",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to fallible.yaml (default: search upwards from the working directory)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(c.rewriteCmd(), c.inspectCmd())
	return root
}

// setup loads the configuration and builds the logger.
func (c *cli) setup() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	c.config = cfg

	level := zapcore.InfoLevel
	if c.verbose || cfg.Verbose {
		level = zapcore.DebugLevel
	}
	c.logger = newLogger(c.stderr, level)

	if c.configPath != "" {
		c.logger.Debug("using config", zap.String("path", c.configPath))
	}
	return nil
}

func (c *cli) loadConfig() (*gen.Config, error) {
	if c.configPath == "" {
		path, err := gen.FindConfig(".")
		if err != nil {
			return nil, err
		}
		if path == "" {
			return gen.DefaultConfig(), nil
		}
		c.configPath = path
	}
	return gen.LoadConfig(c.configPath)
}

// newLogger writes human-readable entries to w, with colored levels when w
// is a terminal.
func newLogger(w io.Writer, level zapcore.Level) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

func (c *cli) generator() *gen.Generator {
	return gen.New(c.config, gen.WithLogger(c.logger))
}

// Package cli implements the gitlink command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rpggio/gitlink/internal/app"
	"github.com/rpggio/gitlink/internal/config"
	"github.com/rpggio/gitlink/internal/logging"
)

// Options configures the root command.
type Options struct {
	Out io.Writer
	Err io.Writer
}

type runtimeState struct {
	configPath   string
	outputFormat string
	out          io.Writer
	errOut       io.Writer

	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

type runtimeKey struct{}

// NewRootCommand builds the gitlink command tree.
func NewRootCommand(opts Options) *cobra.Command {
	rt := &runtimeState{out: opts.Out, errOut: opts.Err}
	if rt.out == nil {
		rt.out = os.Stdout
	}
	if rt.errOut == nil {
		rt.errOut = os.Stderr
	}

	root := &cobra.Command{
		Use:           "gitlink",
		Short:         "Register git projects and link them to GitHub",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.configPath == "" {
				rt.configPath = os.Getenv("GITLINK_CONFIG_PATH")
			}
			cfg, err := config.LoadFile(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg

			switch rt.outputFormat {
			case formatTable, formatJSON, formatYAML:
			default:
				return fmt.Errorf("unknown output format: %s", rt.outputFormat)
			}

			// stdout carries the MCP stream in stdio mode, so logs default to stderr.
			logger, closeLog, err := logging.New(cfg.Log.Level, cfg.Log.Path, rt.errOut)
			if err != nil {
				return err
			}
			rt.logger = logger
			rt.closeLog = closeLog
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if rt.closeLog == nil {
				return nil
			}
			return rt.closeLog()
		},
	}
	root.SetOut(rt.out)
	root.SetErr(rt.errOut)

	root.PersistentFlags().StringVar(&rt.configPath, "config", "", "Path to config file (default $GITLINK_CONFIG_PATH)")
	root.PersistentFlags().StringVarP(&rt.outputFormat, "output", "o", "table", "Output format: table, json, yaml")

	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		newServeCommand(),
		newProjectCommand(),
		newAuthCommand(),
	)

	return root
}

// Execute runs the root command with process defaults.
func Execute() int {
	root := NewRootCommand(Options{})
	if err := root.Execute(); err != nil {
		_, _ = io.WriteString(os.Stderr, "Error: "+err.Error()+"\n")
		return 1
	}
	return 0
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}

func (rt *runtimeState) openApp() (*app.App, error) {
	return app.Open(rt.cfg, rt.logger)
}

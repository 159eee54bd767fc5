// File: cmd/replisync/root.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"replisync/internal/flags"
	"replisync/internal/logger"
	"replisync/internal/service"
)

type rootFlags struct {
	configPath string
	catalog    string
	debug      bool
	noColor    bool
}

// exitError carries a non-zero exit status out of a command that already reported its failure
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// exitWith turns a service exit status into a command result
func exitWith(code int) error {
	if code == service.ExitSuccess {
		return nil
	}
	return &exitError{code: code}
}

type appKey struct{}

// session carries the process logger across command execution, including failures
// that happen before the app container exists
type session struct {
	logOut io.Writer
	logger *slog.Logger
}

func appFromContext(ctx context.Context) (*appContainer, error) {
	app, ok := ctx.Value(appKey{}).(*appContainer)
	if !ok || app == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return app, nil
}

func newRootCmd(in io.Reader, out io.Writer, sess *session) *cobra.Command {
	rf := rootFlags{}

	rootCmd := &cobra.Command{
		Use:   "replisync",
		Short: "replisync keeps Algolia replica indices in line with your store sorting options.",
		Long: `A CLI that reads per-store sorting attributes from a catalog document and
creates, updates or removes the matching Algolia replica indices. Configure
your Algolia credentials with 'replisync config set' and point --catalog at
a local file, gs://bucket/object or s3://bucket/key.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if rf.debug {
				sess.logger = logger.NewLogger(sess.logOut, true)
			}
			log := sess.logger

			app, err := newApp(appOptions{
				configPath: rf.configPath,
				catalog:    rf.catalog,
				styled:     !rf.noColor && isTerminal(out),
				in:         in,
				out:        out,
				logger:     log,
			})
			if err != nil {
				log.Error("Failed to initialize application", "error", err)
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, app))
			return nil
		},
	}
	rootCmd.SetIn(in)
	rootCmd.SetOut(out)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rf.configPath, flags.Config, "", "Path to the config file (default ~/.config/replisync/config.yaml)")
	pf.StringVar(&rf.catalog, flags.Catalog, "", "Catalog location, overrides catalog.location")
	pf.BoolVarP(&rf.debug, flags.Debug, flags.DebugShort, false, "Enable debug logging")
	pf.BoolVar(&rf.noColor, flags.NoColor, false, "Disable colored output")

	rootCmd.AddCommand(
		newReplicasSyncCmd(),
		newReplicasRebuildCmd(),
		newReplicasStatusCmd(),
		newStoresCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// Execute runs the CLI against the process streams and returns the exit status
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	sess := &session{logOut: errOut, logger: logger.NewLogger(errOut, false)}
	rootCmd := newRootCmd(in, out, sess)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return service.ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	sess.logger.Debug("Command failed", "error", fmt.Sprintf("%+v", err))
	fmt.Fprintln(errOut, "Error:", err)
	return service.ExitFailure
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

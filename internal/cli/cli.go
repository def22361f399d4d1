package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/specialistvlad/osgraph/internal/app"
	"github.com/specialistvlad/osgraph/internal/config"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath      string
	logLevel        string
	logFormat       string
	backend         string
	storePath       string
	healthcheckPort int
}

// NewRootCommand builds the osgraph command tree. Command output goes to
// outW, logs to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "osgraph",
		Short: "Object-spatial graph store and walker runtime",
		Long: `osgraph persists a graph of typed nodes and edges and runs walkers
over it. Graphs are seeded from HCL files; walkers are compiled in.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "Path to an HCL configuration file.")
	pf.StringVar(&g.logLevel, "log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&g.backend, "store", config.BackendMemory, "Store backend. Options: 'memory', 'badger', 'sqlite'.")
	pf.StringVar(&g.storePath, "store-path", "", "Badger directory or sqlite database file.")
	pf.IntVar(&g.healthcheckPort, "healthcheck-port", 0, "Port for the /health and /metrics server. 0 is disabled.")

	root.AddCommand(
		newSeedCommand(g),
		newWalkCommand(g),
		newGetCommand(g),
		newFindCommand(g),
	)
	return root
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	// Errors raised by cobra itself are usage errors.
	if isUsageError(err) {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return err
}

func isUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "flag needs an argument", "invalid argument", "accepts ", "requires at least"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

// resolveConfig loads the configuration file, if any, and applies the flags
// the user set explicitly.
func resolveConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg := config.Default()
	if g.configPath != "" {
		loaded, err := config.Load(g.configPath)
		if err != nil {
			return nil, &ExitError{Code: 2, Message: err.Error()}
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = strings.ToLower(g.logLevel)
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = strings.ToLower(g.logFormat)
	}
	if flags.Changed("store") {
		cfg.Store.Backend = strings.ToLower(g.backend)
	}
	if flags.Changed("store-path") {
		cfg.Store.Path = g.storePath
	}
	if flags.Changed("healthcheck-port") {
		cfg.HealthcheckPort = g.healthcheckPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

// withApp builds the application for cmd, runs fn and closes the app.
func withApp(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, a *app.App) error) (err error) {
	cfg, err := resolveConfig(cmd, g)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewApp(ctx, cmd.ErrOrStderr(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a.Context(ctx), a)
}

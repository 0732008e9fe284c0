// Package cli implements the wanderplan command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/TomasRacil/WanderPlan-sub000/internal/config"
	"github.com/TomasRacil/WanderPlan-sub000/internal/logging"
	"github.com/TomasRacil/WanderPlan-sub000/internal/paths"
	"github.com/TomasRacil/WanderPlan-sub000/internal/trip"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/sqlite"
	"github.com/TomasRacil/WanderPlan-sub000/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// app holds global flag values and the state PersistentPreRunE resolves.
type app struct {
	configDir string
	dataDir   string
	jsonMode  bool
	logLevel  string

	cfg config.Config
	log zerolog.Logger
	in  io.Reader
}

// NewRootCmd creates the top-level "wanderplan" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(os.Stdin)
}

func newRootCmd(in io.Reader) *cobra.Command {
	a := &app{log: zerolog.Nop(), in: in}

	root := &cobra.Command{
		Use:   "wanderplan",
		Short: "Plan trips and review AI suggestions from the command line",
		Long: "wanderplan keeps trip records (itinerary, tasks, packing, documents)\n" +
			"in a local store, migrates older exports, and applies AI-proposed\n" +
			"change sets only after they have been reviewed.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	root.PersistentFlags().BoolVar(&a.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newCreateCmd(a),
		newDeleteCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newRepairCmd(a),
		newRebuildIndexCmd(a),
		newSuggestCmd(a),
		newReviewCmd(a),
		newToggleCmd(a),
		newCommitCmd(a),
		newDiscardCmd(a),
		newDocsCmd(a),
		newDocDeleteCmd(a),
		newGCCmd(a),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	return exitCode(err)
}

// setup loads .env and config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	if err := config.LoadDotEnv(".env"); err != nil {
		return sysError(err)
	}
	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	cfg, err := config.Load(configDir)
	if err != nil {
		if errors.Is(err, types.ErrBackendUnknown) || errors.Is(err, types.ErrSyncStrategyUnknown) || errors.Is(err, types.ErrBackendEmpty) {
			return userError(err)
		}
		return sysError(err)
	}
	a.cfg = cfg

	level := a.logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	a.log = logging.New(cmd.ErrOrStderr(), level, a.jsonMode)
	return nil
}

// withService attaches the store, runs fn against a trip service, and
// detaches. Errors from fn are classified into user and system failures.
func (a *app) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *trip.Service) error) (err error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve data dir: %w", err))
	}

	backend := sqlite.NewBackend(a.log)
	if err := backend.Attach(a.cfg.Store(dataDir)); err != nil {
		return sysError(fmt.Errorf("attach store: %w", err))
	}
	defer func() {
		if derr := backend.Detach(); derr != nil && err == nil {
			err = sysError(fmt.Errorf("detach store: %w", derr))
		}
	}()

	svc := trip.New(backend,
		trip.WithLogger(a.log),
		trip.WithDefaults(a.cfg.HomeCurrency, a.cfg.Language),
	)
	return classify(fn(cmd.Context(), svc))
}

// exitError carries an exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// userErrors are the sentinels caused by bad input rather than a broken
// environment.
var userErrors = []error{
	types.ErrNotFound,
	types.ErrInvalidID,
	types.ErrChangeSetPending,
	types.ErrNoChangeSet,
	types.ErrInvalidArea,
	types.ErrInvalidMode,
	types.ErrInvalidSection,
	types.ErrArchiveMissingData,
	types.ErrArchiveInvalidJSON,
	types.ErrIndexCorrupt,
	os.ErrNotExist,
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// exitCode maps an error to the process exit code. Errors raised by cobra
// itself (unknown commands, bad flags, wrong argument counts) are user errors.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUserError
}

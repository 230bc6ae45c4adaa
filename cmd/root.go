package cmd

import (
	"errors"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"

	"github.com/josephlewis42/iocsh/commands"
	"github.com/josephlewis42/iocsh/core/config"
	"github.com/josephlewis42/iocsh/core/histstore"
	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/shell"
	"github.com/josephlewis42/iocsh/core/vos"
	"github.com/spf13/cobra"
)

var (
	cfgPath string
	verbose bool
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// errFailed is returned by commands whose interpreter already reported the
// failure.
var errFailed = errors.New("interpreter failed")

// app holds what every interpreter started by the CLI shares.
type app struct {
	// cfg is nil if the command runs without a configuration.
	cfg     *config.Configuration
	env     *vos.MapEnv
	table   *shell.Table
	events  *logger.Logger
	history *histstore.Store
	toClose []io.Closer
}

// newApp sets up the shared environment, command table, event log and
// history. Without a configuration the event log is discarded and history
// is disabled unless requireConfig is set.
func newApp(cmd *cobra.Command, requireConfig bool) (*app, error) {
	a := &app{
		env:   vos.NewMapEnvFromEnvList(os.Environ()),
		table: shell.DefaultTable(),
	}

	if err := commands.Register(a.table); err != nil {
		return nil, err
	}

	var extra []slog.Handler
	if verbose {
		extra = append(extra, slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))
	}

	cfg, err := config.Load(cfgPath)
	switch {
	case err == nil:
		a.cfg = cfg
	case errors.Is(err, fs.ErrNotExist) && !requireConfig:
		a.events = logger.New(extra...)
		return a, nil
	default:
		if errors.Is(err, fs.ErrNotExist) {
			log.Println("Couldn't load config: did you run init?")
		}
		return nil, err
	}

	if cfg.Prompt != "" {
		if _, ok := a.env.LookupEnv(shell.EnvPrompt); !ok {
			a.env.Setenv(shell.EnvPrompt, cfg.Prompt)
		}
	}

	logFd, err := cfg.OpenAppLog()
	if err != nil {
		return nil, err
	}
	a.toClose = append(a.toClose, logFd)
	a.events = logger.NewJSONLinesLogger(logFd, extra...)

	if path := cfg.HistoryPath(); path != "" {
		history, err := histstore.Open(path)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.toClose = append(a.toClose, history)
		a.history = history
	}

	return a, nil
}

func (a *app) historyLimit() int {
	if a.cfg == nil {
		return 0
	}
	return a.cfg.HistoryLimit
}

func (a *app) color() bool {
	return a.cfg == nil || a.cfg.Color
}

// Close releases the event log and history.
func (a *app) Close() error {
	var firstErr error
	for i := len(a.toClose) - 1; i >= 0; i-- {
		if err := a.toClose[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.toClose = nil
	return firstErr
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "iocsh",
	Short: "Device-control command interpreter",
	Long: `A command interpreter for device control applications.

It runs startup scripts, single commands and an interactive console, locally
or over SSH.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "also print warnings from the event log to stderr")
}

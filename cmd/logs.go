package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/josephlewis42/iocsh/core/logger"
	"github.com/josephlewis42/iocsh/core/ttylog"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var idleTimeLimit time.Duration

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the event log and console recordings.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		fd, err := config.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.Report
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := yaml.Marshal(report)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))

		return nil
	},
}

// playCommand replays a recording in real time.
var playCommand = &cobra.Command{
	Use:   "play RECORDING",
	Short: "Replay a recorded console session in the terminal.",
	Long:  `Plays a recorded console session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source, err := createLogSource(args[0], fd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(ctx, idleTimeLimit, sink)
		return ttylog.Replay(source, sink)
	},
}

// catCommand prints a recording without pauses.
var catCommand = &cobra.Command{
	Use:   "cat RECORDING",
	Short: "Print full output of a recorded session to a terminal.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source, err := createLogSource(args[0], fd)
		if err != nil {
			return err
		}

		return ttylog.Replay(source, ttylog.NewClientOutput(cmd.OutOrStdout()))
	},
}

// asciicastCmd converts a recording to the asciicast format
var asciicastCmd = &cobra.Command{
	Use:   "asciicast INPUT.uml > OUTPUT.cast",
	Short: "Convert a recording to asciicast (asciinema) format.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		source, err := createLogSource(args[0], fd)
		if err != nil {
			return err
		}

		return ttylog.Replay(source, ttylog.NewAsciicastLogSink(cmd.OutOrStdout()))
	},
}

// createLogSource picks the recording format from the file extension.
func createLogSource(name string, r io.Reader) (ttylog.LogSource, error) {
	switch strings.TrimPrefix(filepath.Ext(name), ".") {
	case ttylog.UMLFileExt:
		return ttylog.NewLogSource(ttylog.FormatUML, r)
	case ttylog.AsciicastFileExt:
		return ttylog.NewLogSource(ttylog.FormatAsciicast, r)
	default:
		return nil, fmt.Errorf("unknown recording type %q, expected .%s or .%s", name, ttylog.AsciicastFileExt, ttylog.UMLFileExt)
	}
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(reportCommand)
	logsCmd.AddCommand(playCommand)
	logsCmd.AddCommand(asciicastCmd)
	logsCmd.AddCommand(catCommand)

	// cat doesn't allow idle time
	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}

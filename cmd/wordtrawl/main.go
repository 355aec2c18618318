package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var configFile string

func main() {
	var debugMode bool
	rootCommand := cobra.Command{
		Use:           "wordtrawl",
		Short:         "Extract words from Wikidot source text and fetch Merriam-Webster entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return nil
		},
	}
	rootCommand.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCommand.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	rootCommand.AddCommand(
		newFetchCommand(),
		newExtractCommand(),
		newQuotaCommand(),
	)
	if err := rootCommand.Execute(); err != nil {
		var paused *pausedError
		if errors.As(err, &paused) {
			fmt.Fprintln(os.Stderr, paused.Error())
			os.Exit(paused.exitCode)
		}
		if _, fprintfErr := fmt.Fprintf(os.Stderr, "failed to execute a command: %+v\n", err); fprintfErr != nil {
			panic(fmt.Errorf("failed to output an error: %w. Reason: %w", err, fprintfErr))
		}
		os.Exit(1)
	}
	os.Exit(0)
}

// setupLogger configures the default logger based on debug mode
func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}

	slog.SetDefault(
		slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})),
	)
}

// pausedError carries a non-default exit status for paused run outcomes, so
// schedulers can tell "resume tomorrow" apart from a real failure.
type pausedError struct {
	exitCode int
	message  string
}

func (e *pausedError) Error() string {
	return e.message
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/knagata/wordtrawl/internal/batch"
	"github.com/knagata/wordtrawl/internal/mw"
	"github.com/knagata/wordtrawl/internal/quota"
	"github.com/knagata/wordtrawl/internal/resultstore"
	"github.com/knagata/wordtrawl/internal/wikidot"
)

const (
	exitCodePausedQuota     = 3
	exitCodePausedInterrupt = 4
)

// wordDelay spaces out consecutive words that caused API calls.
const wordDelay = 100 * time.Millisecond

func newFetchCommand() *cobra.Command {
	var (
		sources   []string
		startWord string
		maxWords  int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch dictionary and thesaurus entries for every extracted word",
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxWords < 0 {
				return fmt.Errorf("--max-words must be positive, got %d", maxWords)
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			content, err := wikidot.ReadFragments(sources)
			if err != nil {
				return fmt.Errorf("wikidot.ReadFragments > %w", err)
			}
			words := wikidot.ExtractWords(content)

			store := resultstore.New(cfg.Data.Directory)
			if err := store.EnsureDirectories(); err != nil {
				return fmt.Errorf("store.EnsureDirectories > %w", err)
			}
			tracker, err := quota.NewTracker(cfg.QuotaDirectory(), cfg.Quota.DailyLimit)
			if err != nil {
				return fmt.Errorf("quota.NewTracker > %w", err)
			}

			client := mw.NewClient(mw.Config{
				DictionaryBaseURL: cfg.MerriamWebster.DictionaryBaseURL,
				DictionaryKey:     cfg.MerriamWebster.DictionaryKey,
				ThesaurusBaseURL:  cfg.MerriamWebster.ThesaurusBaseURL,
				ThesaurusKey:      cfg.MerriamWebster.ThesaurusKey,
				Timeout:           time.Duration(cfg.MerriamWebster.TimeoutSeconds) * time.Second,
				RetryAttempts:     cfg.MerriamWebster.RetryAttempts,
			})
			defer func() {
				_ = client.Close()
			}()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			runner := batch.NewRunner(words, client, store, tracker, batch.Options{
				StartWord: startWord,
				MaxWords:  maxWords,
				WordDelay: wordDelay,
			})
			report, err := runner.Run(ctx)
			if err != nil {
				return fmt.Errorf("runner.Run > %w", err)
			}

			printReport(report)

			switch report.Outcome {
			case batch.OutcomePausedQuota:
				return &pausedError{
					exitCode: exitCodePausedQuota,
					message:  fmt.Sprintf("daily quota exhausted; resume with --start-word %s", report.ResumeWord),
				}
			case batch.OutcomePausedInterrupt:
				return &pausedError{
					exitCode: exitCodePausedInterrupt,
					message:  fmt.Sprintf("interrupted; resume with --start-word %s", report.ResumeWord),
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sources, "source", nil, "Path(s) to source file fragments")
	cmd.Flags().StringVar(&startWord, "start-word", "", "Optional word to start from (for resuming)")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Maximum number of words to process")
	_ = cmd.MarkFlagRequired("source")

	return cmd
}

func printReport(report batch.Report) {
	switch report.Outcome {
	case batch.OutcomeCompleted:
		color.Green("All words processed.")
	case batch.OutcomePausedQuota:
		color.Yellow("Paused: daily quota exhausted.")
	case batch.OutcomePausedInterrupt:
		color.Yellow("Paused: interrupted.")
	default:
		color.Red("Run failed.")
	}

	fmt.Printf("Words in sequence:  %d\n", report.TotalWords)
	fmt.Printf("Words processed:    %d\n", report.Processed)
	fmt.Printf("API calls made:     %d (dictionary: %d, thesaurus: %d)\n",
		report.CallsMade(), report.DictionaryCalls, report.ThesaurusCalls)
	fmt.Printf("Fetched:            %d\n", report.Fetched)
	fmt.Printf("Not found:          %d\n", report.NotFound)
	fmt.Printf("Errored:            %d\n", report.Errored)
	fmt.Printf("Skipped (stored):   %d\n", report.Skipped)
	fmt.Printf("Quota remaining:    %d\n", report.QuotaRemaining)
	fmt.Printf("Elapsed:            %.2fs (%.2f calls/minute)\n",
		report.Elapsed.Seconds(), report.CallsPerMinute())
	if report.ResumeWord != "" {
		fmt.Printf("To resume, run with: --start-word %s\n", report.ResumeWord)
	}
}

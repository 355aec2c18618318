// Package batch drives the fetch pipeline: it walks the extracted word
// sequence, skips work already persisted, gates every call on the shared
// daily quota, and stops cleanly with a resume word when the budget runs out
// or the operator interrupts the run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/knagata/wordtrawl/internal/mw"
	"github.com/knagata/wordtrawl/internal/resultstore"
)

// ErrUnknownResumeWord is returned when the requested start word is not in
// the extracted word sequence.
var ErrUnknownResumeWord = errors.New("start word not found in the extracted word list")

// LookupClient performs one lookup call per service.
type LookupClient interface {
	LookupDictionary(ctx context.Context, word string) mw.Result
	LookupThesaurus(ctx context.Context, word string) mw.Result
}

// ResultStore persists lookup results and answers whether a word was
// already fetched.
type ResultStore interface {
	Exists(service resultstore.Service, word string) bool
	Write(record resultstore.Record) error
}

// QuotaTracker grants or denies call budget.
type QuotaTracker interface {
	TryConsume(n int) (bool, error)
	Remaining() int
}

// Options configure one run.
type Options struct {
	// StartWord resumes processing from this word in the sequence.
	StartWord string
	// MaxWords caps how many words of the remaining sequence are handled.
	MaxWords int
	// WordDelay is slept between words that caused at least one call.
	WordDelay time.Duration
}

type Runner struct {
	words   []string
	client  LookupClient
	store   ResultStore
	tracker QuotaTracker
	options Options
}

func NewRunner(words []string, client LookupClient, store ResultStore, tracker QuotaTracker, options Options) *Runner {
	return &Runner{
		words:   words,
		client:  client,
		store:   store,
		tracker: tracker,
		options: options,
	}
}

// Run processes the word sequence until it completes, the quota is
// exhausted, or ctx is cancelled. Paused outcomes are reported in the
// Report, not as errors; the returned error is reserved for fatal failures
// (unknown start word, persistence errors).
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{Outcome: OutcomeCompleted, TotalWords: len(r.words)}

	finish := func(outcome Outcome, resumeWord string) Report {
		report.Outcome = outcome
		report.ResumeWord = resumeWord
		report.QuotaRemaining = r.tracker.Remaining()
		report.Elapsed = time.Since(start)
		return report
	}

	words := r.words
	if r.options.StartWord != "" {
		startWord := strings.ToLower(r.options.StartWord)
		index := slices.Index(words, startWord)
		if index < 0 {
			return finish(OutcomeFailed, ""), fmt.Errorf("start word %q: %w", r.options.StartWord, ErrUnknownResumeWord)
		}
		slog.Default().Info("resuming", "word", startWord, "index", index)
		words = words[index:]
	}
	if r.options.MaxWords > 0 && len(words) > r.options.MaxWords {
		slog.Default().Info("limiting run", "maxWords", r.options.MaxWords)
		words = words[:r.options.MaxWords]
	}

	for i, word := range words {
		slog.Default().Info("processing word", "word", word, "position", i+1, "total", len(words))

		fetchedAny := false
		for _, service := range resultstore.Services {
			if r.store.Exists(service, word) {
				slog.Default().Debug("result already stored, skipping", "word", word, "service", service)
				report.Skipped++
				continue
			}

			if ctx.Err() != nil {
				slog.Default().Info("interrupted", "resumeWord", word)
				return finish(OutcomePausedInterrupt, word), nil
			}

			granted, err := r.tracker.TryConsume(1)
			if err != nil {
				return finish(OutcomeFailed, word), fmt.Errorf("tracker.TryConsume > %w", err)
			}
			if !granted {
				slog.Default().Warn("daily quota exhausted", "resumeWord", word)
				return finish(OutcomePausedQuota, word), nil
			}

			result := r.lookup(ctx, service, word)
			switch service {
			case resultstore.ServiceDictionary:
				report.DictionaryCalls++
			case resultstore.ServiceThesaurus:
				report.ThesaurusCalls++
			}

			// A network error caused by our own cancellation is not the
			// word's true status, so it must not be recorded.
			if result.Kind == mw.KindNetworkError && ctx.Err() != nil {
				slog.Default().Info("interrupted during call", "resumeWord", word)
				return finish(OutcomePausedInterrupt, word), nil
			}
			if result.Kind == mw.KindRateLimited {
				slog.Default().Error("service reported rate limit exceeded, stopping", "resumeWord", word)
				return finish(OutcomePausedQuota, word), nil
			}

			if err := r.store.Write(newRecord(word, service, result)); err != nil {
				return finish(OutcomeFailed, word), fmt.Errorf("store.Write > %w", err)
			}
			fetchedAny = true

			switch result.Kind {
			case mw.KindSuccess:
				report.Fetched++
			case mw.KindNotFound:
				slog.Default().Info("no entry found", "word", word, "service", service)
				report.NotFound++
			case mw.KindNetworkError:
				slog.Default().Warn("lookup failed, recorded as error", "word", word, "service", service, "detail", result.Detail)
				report.Errored++
			}
		}
		report.Processed++

		if fetchedAny && r.options.WordDelay > 0 && i < len(words)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(r.options.WordDelay):
			}
		}
	}

	return finish(OutcomeCompleted, ""), nil
}

func (r *Runner) lookup(ctx context.Context, service resultstore.Service, word string) mw.Result {
	if service == resultstore.ServiceThesaurus {
		return r.client.LookupThesaurus(ctx, word)
	}
	return r.client.LookupDictionary(ctx, word)
}

func newRecord(word string, service resultstore.Service, result mw.Result) resultstore.Record {
	record := resultstore.Record{
		Word:        word,
		Service:     service,
		Payload:     result.Payload,
		Suggestions: result.Suggestions,
		Detail:      result.Detail,
	}
	switch result.Kind {
	case mw.KindSuccess:
		record.Kind = resultstore.KindSuccess
	case mw.KindNotFound:
		record.Kind = resultstore.KindNotFound
	default:
		record.Kind = resultstore.KindError
	}
	return record
}

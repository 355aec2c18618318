package batch

import "time"

// Outcome is the terminal state of one run.
type Outcome string

const (
	// OutcomeCompleted means every word in the (possibly capped) sequence
	// has both service results stored.
	OutcomeCompleted Outcome = "completed"
	// OutcomePausedQuota means the daily budget ran out; resume tomorrow
	// with the reported resume word.
	OutcomePausedQuota Outcome = "paused_quota"
	// OutcomePausedInterrupt means the operator stopped the run.
	OutcomePausedInterrupt Outcome = "paused_interrupt"
	// OutcomeFailed means the run aborted on a fatal error.
	OutcomeFailed Outcome = "failed"
)

// Report summarizes one run.
type Report struct {
	Outcome Outcome

	// TotalWords is the size of the full extracted sequence.
	TotalWords int
	// Processed counts words fully handled this run, including skips.
	Processed int

	// Fetched, NotFound and Errored count stored results by kind; Skipped
	// counts (word, service) pairs that already had a record.
	Fetched  int
	NotFound int
	Errored  int
	Skipped  int

	DictionaryCalls int
	ThesaurusCalls  int
	QuotaRemaining  int

	// ResumeWord is what to pass as --start-word after a paused outcome.
	ResumeWord string
	Elapsed    time.Duration
}

// CallsMade is the number of API calls attempted this run.
func (r Report) CallsMade() int {
	return r.DictionaryCalls + r.ThesaurusCalls
}

// CallsPerMinute is the average call rate over the run.
func (r Report) CallsPerMinute() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.CallsMade()) / r.Elapsed.Minutes()
}

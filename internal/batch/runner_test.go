package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knagata/wordtrawl/internal/mw"
	"github.com/knagata/wordtrawl/internal/resultstore"
)

type lookupCall struct {
	service resultstore.Service
	word    string
}

type fakeClient struct {
	calls  []lookupCall
	lookup func(ctx context.Context, service resultstore.Service, word string) mw.Result
}

func (c *fakeClient) do(ctx context.Context, service resultstore.Service, word string) mw.Result {
	c.calls = append(c.calls, lookupCall{service: service, word: word})
	if c.lookup != nil {
		return c.lookup(ctx, service, word)
	}
	return mw.Result{Kind: mw.KindSuccess, Payload: json.RawMessage(`[]`)}
}

func (c *fakeClient) LookupDictionary(ctx context.Context, word string) mw.Result {
	return c.do(ctx, resultstore.ServiceDictionary, word)
}

func (c *fakeClient) LookupThesaurus(ctx context.Context, word string) mw.Result {
	return c.do(ctx, resultstore.ServiceThesaurus, word)
}

type fakeStore struct {
	records  map[string]resultstore.Record
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]resultstore.Record{}}
}

func storeKey(service resultstore.Service, word string) string {
	return fmt.Sprintf("%s/%s", service, word)
}

func (s *fakeStore) seed(service resultstore.Service, word string) {
	s.records[storeKey(service, word)] = resultstore.Record{
		Word:    word,
		Service: service,
		Kind:    resultstore.KindSuccess,
	}
}

func (s *fakeStore) Exists(service resultstore.Service, word string) bool {
	_, ok := s.records[storeKey(service, word)]
	return ok
}

func (s *fakeStore) Write(record resultstore.Record) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	key := storeKey(record.Service, record.Word)
	if _, ok := s.records[key]; ok {
		return resultstore.ErrAlreadyStored
	}
	s.records[key] = record
	return nil
}

type fakeTracker struct {
	remaining  int
	consumeErr error
}

func (t *fakeTracker) TryConsume(n int) (bool, error) {
	if t.consumeErr != nil {
		return false, t.consumeErr
	}
	if n > t.remaining {
		return false, nil
	}
	t.remaining -= n
	return true, nil
}

func (t *fakeTracker) Remaining() int {
	return t.remaining
}

func TestRunner_Completed(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 2, report.TotalWords)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 4, report.Fetched)
	assert.Equal(t, 2, report.DictionaryCalls)
	assert.Equal(t, 2, report.ThesaurusCalls)
	assert.Equal(t, 6, report.QuotaRemaining)
	assert.Empty(t, report.ResumeWord)
	assert.Len(t, store.records, 4)
}

func TestRunner_SecondRunMakesNoCalls(t *testing.T) {
	words := []string{"anomalous", "containment", "procedure"}
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner(words, client, store, tracker, Options{})
	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, client.calls, 6)

	rerunClient := &fakeClient{}
	rerun := NewRunner(words, rerunClient, store, tracker, Options{})
	report, err := rerun.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Empty(t, rerunClient.calls)
	assert.Equal(t, 6, report.Skipped)
	assert.Equal(t, 4, report.QuotaRemaining)
}

func TestRunner_QuotaExhaustedBetweenWords(t *testing.T) {
	// Daily limit of 2: the first word spends both calls, the run halts
	// before the second word.
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 2}

	runner := NewRunner([]string{"anomalous", "containment", "procedure"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedQuota, report.Outcome)
	assert.Equal(t, "containment", report.ResumeWord)
	assert.Len(t, client.calls, 2)
	assert.True(t, store.Exists(resultstore.ServiceDictionary, "anomalous"))
	assert.True(t, store.Exists(resultstore.ServiceThesaurus, "anomalous"))
	assert.False(t, store.Exists(resultstore.ServiceDictionary, "containment"))
}

func TestRunner_QuotaExhaustedMidWord(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 3}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedQuota, report.Outcome)
	// The dictionary result for containment was fetched and stored; the
	// word is still the resume point because its thesaurus half is missing.
	assert.Equal(t, "containment", report.ResumeWord)
	assert.True(t, store.Exists(resultstore.ServiceDictionary, "containment"))
	assert.False(t, store.Exists(resultstore.ServiceThesaurus, "containment"))
}

func TestRunner_RateLimitedHaltsWithoutPersisting(t *testing.T) {
	client := &fakeClient{
		lookup: func(ctx context.Context, service resultstore.Service, word string) mw.Result {
			return mw.Result{Kind: mw.KindRateLimited, Detail: "rate limit exceeded (429)"}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedQuota, report.Outcome)
	assert.Equal(t, "anomalous", report.ResumeWord)
	// A rate-limited response reflects quota exhaustion, not the word's
	// status, so nothing is written for it.
	assert.Empty(t, store.records)
	assert.Len(t, client.calls, 1)
}

func TestRunner_NetworkErrorIsRecordedAndRunContinues(t *testing.T) {
	client := &fakeClient{
		lookup: func(ctx context.Context, service resultstore.Service, word string) mw.Result {
			if word == "anomalous" && service == resultstore.ServiceDictionary {
				return mw.Result{Kind: mw.KindNetworkError, Detail: "max retries exceeded"}
			}
			return mw.Result{Kind: mw.KindSuccess, Payload: json.RawMessage(`[]`)}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 1, report.Errored)
	assert.Equal(t, 3, report.Fetched)

	record := store.records[storeKey(resultstore.ServiceDictionary, "anomalous")]
	assert.Equal(t, resultstore.KindError, record.Kind)
	assert.Equal(t, "max retries exceeded", record.Detail)
}

func TestRunner_NotFoundIsRecorded(t *testing.T) {
	client := &fakeClient{
		lookup: func(ctx context.Context, service resultstore.Service, word string) mw.Result {
			return mw.Result{Kind: mw.KindNotFound, Suggestions: []string{"anomaly"}}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 2, report.NotFound)

	record := store.records[storeKey(resultstore.ServiceDictionary, "anomalous")]
	assert.Equal(t, resultstore.KindNotFound, record.Kind)
	assert.Equal(t, []string{"anomaly"}, record.Suggestions)
}

func TestRunner_StartWord(t *testing.T) {
	words := []string{"anomalous", "containment", "procedure"}

	tests := []struct {
		name          string
		startWord     string
		expectedWords []string
	}{
		{
			name:          "resume from second word",
			startWord:     "containment",
			expectedWords: []string{"containment", "procedure"},
		},
		{
			name:          "start word is normalized",
			startWord:     "Containment",
			expectedWords: []string{"containment", "procedure"},
		},
		{
			name:          "resume from last word",
			startWord:     "procedure",
			expectedWords: []string{"procedure"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			store := newFakeStore()
			tracker := &fakeTracker{remaining: 10}

			runner := NewRunner(words, client, store, tracker, Options{StartWord: tt.startWord})
			report, err := runner.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, OutcomeCompleted, report.Outcome)

			var fetched []string
			for _, call := range client.calls {
				if call.service == resultstore.ServiceDictionary {
					fetched = append(fetched, call.word)
				}
			}
			assert.Equal(t, tt.expectedWords, fetched)
		})
	}
}

func TestRunner_UnknownStartWord(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous"}, client, store, tracker, Options{StartWord: "euclid"})
	report, err := runner.Run(context.Background())

	assert.ErrorIs(t, err, ErrUnknownResumeWord)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Empty(t, client.calls)
}

func TestRunner_MaxWords(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment", "procedure"}, client, store, tracker, Options{MaxWords: 2})
	report, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, report.Outcome)
	assert.Equal(t, 2, report.Processed)
	assert.Len(t, client.calls, 4)
	assert.False(t, store.Exists(resultstore.ServiceDictionary, "procedure"))
}

func TestRunner_InterruptBeforeRun(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedInterrupt, report.Outcome)
	assert.Equal(t, "anomalous", report.ResumeWord)
	assert.Empty(t, client.calls)
}

func TestRunner_InterruptMidWord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{
		lookup: func(_ context.Context, service resultstore.Service, word string) mw.Result {
			// The signal arrives while the dictionary call is in flight;
			// the call itself still completes.
			cancel()
			return mw.Result{Kind: mw.KindSuccess, Payload: json.RawMessage(`[]`)}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedInterrupt, report.Outcome)
	// The word is incomplete (thesaurus half missing), so it is the resume
	// point, and the completed call's record was still persisted.
	assert.Equal(t, "anomalous", report.ResumeWord)
	assert.True(t, store.Exists(resultstore.ServiceDictionary, "anomalous"))
	assert.False(t, store.Exists(resultstore.ServiceThesaurus, "anomalous"))
}

func TestRunner_InterruptAfterCompletedWord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{
		lookup: func(_ context.Context, service resultstore.Service, word string) mw.Result {
			if service == resultstore.ServiceThesaurus {
				cancel()
			}
			return mw.Result{Kind: mw.KindSuccess, Payload: json.RawMessage(`[]`)}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous", "containment"}, client, store, tracker, Options{})
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedInterrupt, report.Outcome)
	// The first word finished both services, so the next word is reported.
	assert.Equal(t, "containment", report.ResumeWord)
	assert.True(t, store.Exists(resultstore.ServiceThesaurus, "anomalous"))
}

func TestRunner_CancelledCallIsNotPersisted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{
		lookup: func(_ context.Context, service resultstore.Service, word string) mw.Result {
			// The in-flight call is aborted by the cancellation itself.
			cancel()
			return mw.Result{Kind: mw.KindNetworkError, Detail: "context canceled"}
		},
	}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous"}, client, store, tracker, Options{})
	report, err := runner.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, OutcomePausedInterrupt, report.Outcome)
	assert.Equal(t, "anomalous", report.ResumeWord)
	assert.Empty(t, store.records)
}

func TestRunner_PersistenceErrorIsFatal(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	store.writeErr = errors.New("disk full")
	tracker := &fakeTracker{remaining: 10}

	runner := NewRunner([]string{"anomalous"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Len(t, client.calls, 1)
}

func TestRunner_QuotaTrackerErrorIsFatal(t *testing.T) {
	client := &fakeClient{}
	store := newFakeStore()
	tracker := &fakeTracker{remaining: 10, consumeErr: errors.New("state file unwritable")}

	runner := NewRunner([]string{"anomalous"}, client, store, tracker, Options{})
	report, err := runner.Run(context.Background())

	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, report.Outcome)
	assert.Empty(t, client.calls)
}

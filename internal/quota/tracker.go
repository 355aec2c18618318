// Package quota enforces the shared daily ceiling on lookup calls across
// both services. The counter is persisted per calendar day so a restarted
// process cannot spend more than the budget.
package quota

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const dateLayout = "2006-01-02"

type state struct {
	Date       string `json:"date"`
	CallsUsed  int    `json:"calls_used"`
	CallsLimit int    `json:"calls_limit"`
}

// Tracker tracks call usage against a daily limit, backed by one JSON state
// file per calendar day under dir.
type Tracker struct {
	dir   string
	limit int
	now   func() time.Time
	state state
}

// NewTracker opens (or starts) today's quota state under dir.
func NewTracker(dir string, limit int) (*Tracker, error) {
	return newTracker(dir, limit, time.Now)
}

func newTracker(dir string, limit int, now func() time.Time) (*Tracker, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("daily limit must be positive, got %d", limit)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll > %w", err)
	}
	tracker := &Tracker{dir: dir, limit: limit, now: now}
	if err := tracker.load(); err != nil {
		return nil, err
	}
	return tracker, nil
}

func (t *Tracker) statePath(date string) string {
	return filepath.Join(t.dir, date+".json")
}

func (t *Tracker) load() error {
	today := t.now().Format(dateLayout)
	contents, err := os.ReadFile(t.statePath(today))
	if errors.Is(err, os.ErrNotExist) {
		t.state = state{Date: today, CallsUsed: 0, CallsLimit: t.limit}
		return nil
	}
	if err != nil {
		return fmt.Errorf("os.ReadFile > %w", err)
	}
	if err := json.Unmarshal(contents, &t.state); err != nil {
		return fmt.Errorf("json.Unmarshal > %w", err)
	}
	t.state.CallsLimit = t.limit
	return nil
}

// roll resets usage when the wall-clock date has moved past the stored one.
func (t *Tracker) roll() {
	today := t.now().Format(dateLayout)
	if t.state.Date != today {
		t.state = state{Date: today, CallsUsed: 0, CallsLimit: t.limit}
	}
}

// TryConsume reserves n calls against today's budget. It returns true and
// durably records the new usage iff the budget allows all n calls; a denial
// leaves the persisted state untouched.
func (t *Tracker) TryConsume(n int) (bool, error) {
	t.roll()
	if t.state.CallsUsed+n > t.state.CallsLimit {
		return false, nil
	}
	t.state.CallsUsed += n
	if err := t.persist(); err != nil {
		t.state.CallsUsed -= n
		return false, err
	}
	return true, nil
}

// Remaining returns how many calls are left in today's budget.
func (t *Tracker) Remaining() int {
	t.roll()
	return t.state.CallsLimit - t.state.CallsUsed
}

// Used returns how many calls today's budget has spent so far.
func (t *Tracker) Used() int {
	t.roll()
	return t.state.CallsUsed
}

func (t *Tracker) persist() error {
	contents, err := json.MarshalIndent(t.state, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent > %w", err)
	}
	destination := t.statePath(t.state.Date)
	temp, err := os.CreateTemp(t.dir, ".quota.tmp")
	if err != nil {
		return fmt.Errorf("os.CreateTemp > %w", err)
	}
	if _, err := temp.Write(contents); err != nil {
		_ = temp.Close()
		_ = os.Remove(temp.Name())
		return fmt.Errorf("temp.Write > %w", err)
	}
	if err := temp.Close(); err != nil {
		_ = os.Remove(temp.Name())
		return fmt.Errorf("temp.Close > %w", err)
	}
	if err := os.Rename(temp.Name(), destination); err != nil {
		_ = os.Remove(temp.Name())
		return fmt.Errorf("os.Rename > %w", err)
	}
	return nil
}

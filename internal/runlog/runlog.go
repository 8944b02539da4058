// Package runlog tracks the state of a single drydock run: the invoking
// command, a timestamped history of every external command outcome, and the
// final exit disposition. One Run is owned by the engine for the duration of
// one operation and is the only mutable audit state in the process.
//
// Two artifacts are produced from a Run:
//
//   - a single trimmed NDJSON line appended to the execution log on every
//     run, success or failure
//   - a full indented JSON dump written only when a run fails, carrying the
//     complete command history and the error cause chain
package runlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Event is one entry in a run's command history.
type Event struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Run captures everything about one drydock invocation.
type Run struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	User      string    `json:"user,omitempty"`
	TimeStart time.Time `json:"time_start"`
	TimeEnd   time.Time `json:"time_end,omitzero"`
	Exit      string    `json:"exit,omitempty"`
	History   []Event   `json:"command_history,omitempty"`
	// ErrorChain holds the unwrapped cause chain of a failed run, outermost
	// first. Only populated in the error dump.
	ErrorChain []string `json:"error_chain,omitempty"`

	now func() time.Time
}

// NewRun starts tracking a run for the given command line.
func NewRun(command string) *Run {
	r := &Run{
		ID:      uuid.NewString(),
		Command: command,
		now:     time.Now,
	}
	r.TimeStart = r.now()
	if u, err := user.Current(); err == nil {
		r.User = u.Username
	}
	return r
}

// Record appends an event to the command history. It satisfies the Recorder
// interfaces declared by the runner and transfer packages.
func (r *Run) Record(level, message string) {
	r.History = append(r.History, Event{Time: r.now(), Level: level, Message: message})
}

// Finish marks the run complete. A nil error (or a deliberate cancel,
// which the caller maps before getting here) records a success exit.
func (r *Run) Finish(err error) {
	r.TimeEnd = r.now()
	if err == nil {
		r.Exit = "success"
		return
	}
	r.Exit = fmt.Sprintf("fatal error | %v", err)
	for e := err; e != nil; e = errors.Unwrap(e) {
		r.ErrorChain = append(r.ErrorChain, e.Error())
	}
}

// trimmed returns a copy of the run without the bulky fields. The execution
// log gets one line per run; full detail belongs in the error dump only.
func (r *Run) trimmed() Run {
	t := *r
	t.History = nil
	t.ErrorChain = nil
	return t
}

// AppendTo appends the trimmed run as one NDJSON line to the execution log,
// creating the file (and its directory) if needed.
func (r *Run) AppendTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	data, err := json.Marshal(r.trimmed())
	if err != nil {
		return fmt.Errorf("failed to encode run for execution log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open execution log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to append to execution log: %w", err)
	}
	return nil
}

// DumpError writes the full run state, history and cause chain included, to
// a per-failure JSON artifact inside dir. Returns the path written.
func (r *Run) DumpError(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create error dump directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode error dump: %w", err)
	}

	name := fmt.Sprintf("drydock-error-%s.json", r.TimeStart.Format("20060102-1504"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write error dump: %w", err)
	}
	return path, nil
}

// Package runlog records what happened in each pipeline invocation. Sealed
// run records are appended to a ledger file that is never rewritten,
// forming the audit trail across runs.
package runlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vninfra/infranews/internal/logger"
)

// Mode names one pipeline invocation flavor.
type Mode string

const (
	ModeCollect   Mode = "collect"
	ModeSummarize Mode = "summarize"
	ModeOutput    Mode = "output"
	ModeNotify    Mode = "notify"
	ModeFull      Mode = "full"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// SourceFailure names one adapter that could not deliver candidates.
type SourceFailure struct {
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Record is the audit entry for one run. It is mutable while the run is in
// flight and immutable once sealed and appended to the ledger.
type Record struct {
	RunID             string            `json:"run_id"`
	Mode              Mode              `json:"mode"`
	StartedAt         time.Time         `json:"started_at"`
	FinishedAt        time.Time         `json:"finished_at"`
	SourcesAttempted  []string          `json:"sources_attempted,omitempty"`
	SourcesFailed     []SourceFailure   `json:"sources_failed,omitempty"`
	ArticlesNew       int               `json:"articles_new"`
	ArticlesTotalSeen int               `json:"articles_total_seen"`
	Summarized        int               `json:"summarized,omitempty"`
	SummaryFailed     int               `json:"summary_failed,omitempty"`
	Outputs           []string          `json:"outputs,omitempty"`
	Notified          map[string]string `json:"notified,omitempty"`
	Status            string            `json:"status"`
	Error             string            `json:"error,omitempty"`
}

// NewRecord starts a run record for the given mode.
func NewRecord(mode Mode) *Record {
	return &Record{
		RunID:     uuid.NewString(),
		Mode:      mode,
		StartedAt: time.Now().UTC(),
	}
}

// Seal finalizes the record. A nil err seals it ok; anything else seals it
// failed with the error text.
func (r *Record) Seal(err error) {
	r.FinishedAt = time.Now().UTC()
	if err != nil {
		r.Status = StatusFailed
		r.Error = err.Error()
		return
	}
	r.Status = StatusOK
}

// Sealed reports whether Seal has been called.
func (r *Record) Sealed() bool { return !r.FinishedAt.IsZero() }

// Ledger is the append-only run history file, one JSON record per line.
type Ledger struct {
	path string
	mu   sync.Mutex
}

func OpenLedger(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger directory: %w", err)
		}
	}
	return &Ledger{path: path}, nil
}

// Append writes a sealed record to the ledger.
func (l *Ledger) Append(r *Record) error {
	if !r.Sealed() {
		return fmt.Errorf("run %s is not sealed", r.RunID)
	}

	line, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", r.RunID, err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	fd, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer fd.Close()

	if _, err := fd.Write(line); err != nil {
		return fmt.Errorf("append run %s: %w", r.RunID, err)
	}
	return fd.Sync()
}

// LoadAll returns every readable record, oldest first. Malformed lines are
// skipped with a warning: the ledger is observability data, a damaged entry
// must not take the audit trail down with it.
func (l *Ledger) LoadAll() ([]*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fd, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer fd.Close()

	var out []*Record
	scanner := bufio.NewScanner(fd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		var r Record
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil || r.RunID == "" {
			logger.Warn("Skipping unreadable ledger entry", "path", l.path, "line", line)
			continue
		}
		out = append(out, &r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	return out, nil
}

// LastSealed returns the most recent record for mode, or nil when the mode
// has never run.
func (l *Ledger) LastSealed(mode Mode) (*Record, error) {
	all, err := l.LoadAll()
	if err != nil {
		return nil, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Mode == mode {
			return all[i], nil
		}
	}
	return nil, nil
}

// Package storage persists the deduplicated article corpus. The Store is
// the only shared mutable state in the pipeline: every append and state
// change funnels through it, and it outlives any single run.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vninfra/infranews/internal/article"
)

// Store is the append-only article corpus. Implementations must keep id
// unique, keep insertion order stable, and make each append all-or-nothing:
// a crash mid-append may lose that one article but never a committed one.
type Store interface {
	// Contains reports whether an article with the given id was already
	// ingested.
	Contains(ctx context.Context, id string) (bool, error)

	// Append adds a new article. It returns ErrDuplicateArticle when the
	// id is already present.
	Append(ctx context.Context, a *article.Article) error

	// LoadAll returns every stored article in insertion order, oldest
	// first.
	LoadAll(ctx context.Context) ([]*article.Article, error)

	// UpdateSummaryState moves an article through the summary lifecycle.
	// It returns ErrNotFound for unknown ids and *InvalidTransitionError
	// when the move violates the monotonic transition table.
	UpdateSummaryState(ctx context.Context, id string, state article.SummaryState, payload *article.SummaryPayload) error

	Close() error
}

var (
	ErrDuplicateArticle = errors.New("article id already in store")
	ErrNotFound         = errors.New("article not found in store")
)

// InvalidTransitionError reports a summary-state change outside the
// monotonic transition table.
type InvalidTransitionError struct {
	ID   string
	From article.SummaryState
	To   article.SummaryState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid summary state transition %s -> %s for article %s", e.From, e.To, e.ID)
}

// CorruptError reports an unreadable corpus. It is fatal: the pipeline must
// not write on top of a store it cannot fully read.
type CorruptError struct {
	Path string
	Line int
	Err  error
}

func (e *CorruptError) Error() string {
	return fmt.Sprintf("corrupt store %s at line %d: %v", e.Path, e.Line, e.Err)
}

func (e *CorruptError) Unwrap() error { return e.Err }

// applyPayload mutates the article for the given transition. Shared by
// backends so the payload semantics stay identical.
func applyPayload(a *article.Article, state article.SummaryState, payload *article.SummaryPayload, now time.Time) {
	a.SummaryState = state
	switch state {
	case article.StateSummarized:
		if payload != nil {
			a.Summaries = payload.Summaries
			a.Headlines = payload.Headlines
			a.Entities = payload.Entities
			a.ProjectValue = payload.ProjectValue
		}
		a.SummaryError = ""
		t := now
		a.SummarizedAt = &t
	case article.StateFailed:
		if payload != nil {
			a.SummaryError = payload.FailureReason
		}
	case article.StatePending:
		// Explicit retry: clear the previous failure.
		a.SummaryError = ""
	}
}

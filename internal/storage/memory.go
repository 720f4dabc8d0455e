package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vninfra/infranews/internal/article"
)

// MemoryStore implements Store without persistence. It backs tests and dry
// runs; semantics mirror the file backend exactly.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []*article.Article
	index    map[string]int
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Contains(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok, nil
}

func (s *MemoryStore) Append(_ context.Context, a *article.Article) error {
	if a.ID == "" {
		return fmt.Errorf("article has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[a.ID]; dup {
		return fmt.Errorf("append %s: %w", a.ID, ErrDuplicateArticle)
	}
	stored := a.Clone()
	s.index[stored.ID] = len(s.articles)
	s.articles = append(s.articles, stored)
	return nil
}

func (s *MemoryStore) LoadAll(_ context.Context) ([]*article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*article.Article, len(s.articles))
	for i, a := range s.articles {
		out[i] = a.Clone()
	}
	return out, nil
}

func (s *MemoryStore) UpdateSummaryState(_ context.Context, id string, state article.SummaryState, payload *article.SummaryPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}

	current := s.articles[idx]
	if !article.ValidTransition(current.SummaryState, state) {
		return &InvalidTransitionError{ID: id, From: current.SummaryState, To: state}
	}

	updated := current.Clone()
	applyPayload(updated, state, payload, time.Now().UTC())
	s.articles[idx] = updated
	return nil
}

func (s *MemoryStore) Close() error { return nil }

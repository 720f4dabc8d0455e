package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/logger"
)

// FileStore keeps the corpus as one JSON object per line. Appends are a
// single O_APPEND write, so a crash can only produce a truncated final
// line, which Open repairs; state updates rewrite the whole file to a temp
// path and rename it into place.
type FileStore struct {
	path string

	mu       sync.RWMutex
	articles []*article.Article
	index    map[string]int
	appendFd *os.File
}

var _ Store = (*FileStore)(nil)

// OpenFileStore loads (or creates) the corpus at path. A malformed line in
// the middle of the file is corruption and fails the open; a malformed,
// unterminated final line is treated as an interrupted append and trimmed.
func OpenFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory: %w", err)
		}
	}

	s := &FileStore{
		path:  path,
		index: make(map[string]int),
	}
	if err := s.load(); err != nil {
		return nil, err
	}

	fd, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open store for append: %w", err)
	}
	s.appendFd = fd
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read store: %w", err)
	}

	offset := 0
	line := 0
	for offset < len(data) {
		line++
		end := offset
		for end < len(data) && data[end] != '\n' {
			end++
		}
		terminated := end < len(data)

		raw := data[offset:end]
		var a article.Article
		if uerr := json.Unmarshal(raw, &a); uerr != nil || a.ID == "" {
			if !terminated {
				// Interrupted append: drop the partial line and cut the
				// file back to the last committed article.
				logger.Warn("Dropping partial trailing record", "path", s.path, "line", line)
				if terr := os.Truncate(s.path, int64(offset)); terr != nil {
					return fmt.Errorf("truncate partial record: %w", terr)
				}
				return nil
			}
			if uerr == nil {
				uerr = fmt.Errorf("record has no id")
			}
			return &CorruptError{Path: s.path, Line: line, Err: uerr}
		}
		if _, dup := s.index[a.ID]; dup {
			return &CorruptError{Path: s.path, Line: line, Err: fmt.Errorf("duplicate id %s", a.ID)}
		}

		copyA := a
		s.index[copyA.ID] = len(s.articles)
		s.articles = append(s.articles, &copyA)

		offset = end
		if terminated {
			offset++
		}
	}
	return nil
}

func (s *FileStore) Contains(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok, nil
}

func (s *FileStore) Append(_ context.Context, a *article.Article) error {
	if a.ID == "" {
		return fmt.Errorf("article has no id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.index[a.ID]; dup {
		return fmt.Errorf("append %s: %w", a.ID, ErrDuplicateArticle)
	}

	stored := a.Clone()
	line, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encode article %s: %w", a.ID, err)
	}
	line = append(line, '\n')

	if _, err := s.appendFd.Write(line); err != nil {
		return fmt.Errorf("append article %s: %w", a.ID, err)
	}
	if err := s.appendFd.Sync(); err != nil {
		return fmt.Errorf("sync store: %w", err)
	}

	s.index[stored.ID] = len(s.articles)
	s.articles = append(s.articles, stored)
	return nil
}

func (s *FileStore) LoadAll(_ context.Context) ([]*article.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*article.Article, len(s.articles))
	for i, a := range s.articles {
		out[i] = a.Clone()
	}
	return out, nil
}

func (s *FileStore) UpdateSummaryState(_ context.Context, id string, state article.SummaryState, payload *article.SummaryPayload) error {
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

	if err := s.rewrite(idx, updated); err != nil {
		return err
	}
	s.articles[idx] = updated
	return nil
}

// rewrite persists the corpus with articles[idx] replaced, atomically via
// temp file + rename, then reopens the append handle on the new inode.
func (s *FileStore) rewrite(idx int, replacement *article.Article) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp store: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	for i, a := range s.articles {
		if i == idx {
			a = replacement
		}
		line, merr := json.Marshal(a)
		if merr != nil {
			tmp.Close()
			return fmt.Errorf("encode article %s: %w", a.ID, merr)
		}
		if _, werr := w.Write(append(line, '\n')); werr != nil {
			tmp.Close()
			return fmt.Errorf("write temp store: %w", werr)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp store: %w", err)
	}

	if s.appendFd != nil {
		s.appendFd.Close()
		s.appendFd = nil
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}

	fd, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("reopen store for append: %w", err)
	}
	s.appendFd = fd
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendFd == nil {
		return nil
	}
	err := s.appendFd.Close()
	s.appendFd = nil
	return err
}

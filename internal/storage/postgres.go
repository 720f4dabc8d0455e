package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/vninfra/infranews/internal/article"
	"github.com/vninfra/infranews/internal/logger"
)

// PostgresStore keeps the corpus in a PostgreSQL table. Insertion order is
// preserved by a sequence column; duplicate detection rides on the unique
// id constraint.
type PostgresStore struct {
	db *sql.DB
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to the database and creates the schema when it
// does not exist yet.
func NewPostgresStore(connectionString string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	logger.Info("Postgres store connected")
	return s, nil
}

func (s *PostgresStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS articles (
		seq BIGSERIAL PRIMARY KEY,
		id VARCHAR(64) UNIQUE NOT NULL,
		source VARCHAR(100) NOT NULL,
		url TEXT NOT NULL,
		title TEXT NOT NULL,
		published_at TIMESTAMPTZ,
		excerpt TEXT,
		sector VARCHAR(50),
		area VARCHAR(50),
		province VARCHAR(100),
		first_seen_at TIMESTAMPTZ NOT NULL,
		summary_state VARCHAR(30) NOT NULL,
		summaries JSONB,
		headlines JSONB,
		entities JSONB,
		project_value TEXT,
		summary_error TEXT,
		summarized_at TIMESTAMPTZ
	);

	CREATE INDEX IF NOT EXISTS idx_articles_state ON articles(summary_state);
	CREATE INDEX IF NOT EXISTS idx_articles_first_seen ON articles(first_seen_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Contains(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM articles WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check article %s: %w", id, err)
	}
	return exists, nil
}

func (s *PostgresStore) Append(ctx context.Context, a *article.Article) error {
	if a.ID == "" {
		return fmt.Errorf("article has no id")
	}

	summaries, err := marshalJSONB(a.Summaries)
	if err != nil {
		return fmt.Errorf("encode summaries for %s: %w", a.ID, err)
	}
	headlines, err := marshalJSONB(a.Headlines)
	if err != nil {
		return fmt.Errorf("encode headlines for %s: %w", a.ID, err)
	}
	entities, err := marshalJSONB(a.Entities)
	if err != nil {
		return fmt.Errorf("encode entities for %s: %w", a.ID, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (id, source, url, title, published_at, excerpt, sector, area, province,
			first_seen_at, summary_state, summaries, headlines, entities, project_value, summary_error, summarized_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO NOTHING
	`, a.ID, a.Source, a.URL, a.Title, nullTime(a.PublishedAt), a.Excerpt, a.Sector, a.Area, a.Province,
		a.FirstSeenAt, string(a.SummaryState), summaries, headlines, entities, a.ProjectValue, a.SummaryError, nullTime(a.SummarizedAt))
	if err != nil {
		return fmt.Errorf("append article %s: %w", a.ID, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append article %s: %w", a.ID, err)
	}
	if rows == 0 {
		return fmt.Errorf("append %s: %w", a.ID, ErrDuplicateArticle)
	}
	return nil
}

func (s *PostgresStore) LoadAll(ctx context.Context) ([]*article.Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, url, title, published_at, excerpt, sector, area, province,
			first_seen_at, summary_state, summaries, headlines, entities, project_value, summary_error, summarized_at
		FROM articles
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	defer rows.Close()

	var out []*article.Article
	for rows.Next() {
		var (
			a            article.Article
			state        string
			publishedAt  sql.NullTime
			summarizedAt sql.NullTime
			summariesRaw []byte
			headlinesRaw []byte
			entitiesRaw  []byte
		)
		if err := rows.Scan(&a.ID, &a.Source, &a.URL, &a.Title, &publishedAt, &a.Excerpt, &a.Sector, &a.Area, &a.Province,
			&a.FirstSeenAt, &state, &summariesRaw, &headlinesRaw, &entitiesRaw, &a.ProjectValue, &a.SummaryError, &summarizedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}

		a.SummaryState = article.SummaryState(state)
		if publishedAt.Valid {
			t := publishedAt.Time
			a.PublishedAt = &t
		}
		if summarizedAt.Valid {
			t := summarizedAt.Time
			a.SummarizedAt = &t
		}
		if err := unmarshalJSONB(summariesRaw, &a.Summaries); err != nil {
			return nil, fmt.Errorf("decode summaries for %s: %w", a.ID, err)
		}
		if err := unmarshalJSONB(headlinesRaw, &a.Headlines); err != nil {
			return nil, fmt.Errorf("decode headlines for %s: %w", a.ID, err)
		}
		if err := unmarshalJSONB(entitiesRaw, &a.Entities); err != nil {
			return nil, fmt.Errorf("decode entities for %s: %w", a.ID, err)
		}

		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateSummaryState(ctx context.Context, id string, state article.SummaryState, payload *article.SummaryPayload) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT summary_state FROM articles WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("update %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock article %s: %w", id, err)
	}

	if !article.ValidTransition(article.SummaryState(current), state) {
		return &InvalidTransitionError{ID: id, From: article.SummaryState(current), To: state}
	}

	switch state {
	case article.StateSummarized:
		var summaries, headlines, entities []byte
		projectValue := ""
		if payload != nil {
			if summaries, err = marshalJSONB(payload.Summaries); err != nil {
				return fmt.Errorf("encode summaries for %s: %w", id, err)
			}
			if headlines, err = marshalJSONB(payload.Headlines); err != nil {
				return fmt.Errorf("encode headlines for %s: %w", id, err)
			}
			if entities, err = marshalJSONB(payload.Entities); err != nil {
				return fmt.Errorf("encode entities for %s: %w", id, err)
			}
			projectValue = payload.ProjectValue
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE articles
			SET summary_state = $2, summaries = $3, headlines = $4, entities = $5,
				project_value = $6, summary_error = '', summarized_at = $7
			WHERE id = $1
		`, id, string(state), summaries, headlines, entities, projectValue, time.Now().UTC())
	case article.StateFailed:
		reason := ""
		if payload != nil {
			reason = payload.FailureReason
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE articles SET summary_state = $2, summary_error = $3 WHERE id = $1
		`, id, string(state), reason)
	default:
		_, err = tx.ExecContext(ctx, `
			UPDATE articles SET summary_state = $2, summary_error = '' WHERE id = $1
		`, id, string(state))
	}
	if err != nil {
		return fmt.Errorf("update article %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update for %s: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func marshalJSONB(v any) ([]byte, error) {
	switch val := v.(type) {
	case map[string]string:
		if val == nil {
			return nil, nil
		}
	case []string:
		if val == nil {
			return nil, nil
		}
	}
	return json.Marshal(v)
}

func unmarshalJSONB(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

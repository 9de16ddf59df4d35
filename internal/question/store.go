// Package question provides persistent storage for questions the persona
// could not answer, so knowledge gaps can be reviewed later.
package question

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"standin/internal/logger"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const questionColumns = "id, question_text, category, asked_by, notes, created_at"

// Question is one logged unanswered question.
type Question struct {
	ID        uuid.UUID `json:"id"`
	Text      string    `json:"question_text"`
	Category  string    `json:"category,omitempty"`
	AskedBy   string    `json:"asked_by,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryCount is one row of category statistics.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Store manages question persistence in SQLite.
type Store struct {
	db         *sql.DB
	ftsEnabled bool
	logger     *logger.Logger
}

// NewStore creates a question store using the given database path.
func NewStore(dbPath string, log *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			question_text TEXT NOT NULL,
			category TEXT,
			asked_by TEXT,
			notes TEXT,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_questions_category ON questions(category);
		CREATE INDEX IF NOT EXISTS idx_questions_created ON questions(created_at);
	`)
	if err != nil {
		return err
	}

	s.tryEnableFTS()
	return nil
}

// tryEnableFTS creates the full-text index if the SQLite build supports
// FTS5. Search falls back to LIKE matching when it doesn't.
func (s *Store) tryEnableFTS() {
	_, err := s.db.Exec(`CREATE VIRTUAL TABLE IF NOT EXISTS questions_fts USING fts5(id UNINDEXED, question_text)`)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("full-text search unavailable, falling back to substring match: %v", err)
		}
		return
	}
	s.ftsEnabled = true
}

// Add records a new unanswered question and returns it.
func (s *Store) Add(ctx context.Context, text, category, askedBy, notes string) (*Question, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("question text cannot be empty")
	}

	q := &Question{
		ID:        uuid.New(),
		Text:      text,
		Category:  category,
		AskedBy:   askedBy,
		Notes:     notes,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (`+questionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`, q.ID.String(), q.Text, nullable(q.Category), nullable(q.AskedBy), nullable(q.Notes), q.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}

	if s.ftsEnabled {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO questions_fts (id, question_text) VALUES (?, ?)`, q.ID.String(), q.Text); err != nil && s.logger != nil {
			s.logger.Warn("failed to index question for search: %v", err)
		}
	}

	return q, nil
}

// Record logs a question with no category or attribution. It satisfies the
// sink interface the conversation tools dispatch to.
func (s *Store) Record(ctx context.Context, text string) error {
	_, err := s.Add(ctx, text, "", "", "")
	return err
}

// All returns every logged question, newest first.
func (s *Store) All(ctx context.Context) ([]*Question, error) {
	return s.query(ctx, `SELECT `+questionColumns+` FROM questions ORDER BY created_at DESC`)
}

// Search returns questions whose text matches the keyword, newest first.
func (s *Store) Search(ctx context.Context, keyword string) ([]*Question, error) {
	if s.ftsEnabled {
		return s.query(ctx, `
			SELECT q.id, q.question_text, q.category, q.asked_by, q.notes, q.created_at
			FROM questions q
			JOIN questions_fts f ON f.id = q.id
			WHERE questions_fts MATCH ?
			ORDER BY q.created_at DESC
		`, ftsQuery(keyword))
	}

	return s.query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE question_text LIKE ? COLLATE NOCASE
		ORDER BY created_at DESC
	`, "%"+keyword+"%")
}

// ByCategory returns questions in the given category, newest first.
func (s *Store) ByCategory(ctx context.Context, category string) ([]*Question, error) {
	return s.query(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE category = ?
		ORDER BY created_at DESC
	`, category)
}

// CategoryStats returns the question count per category, most asked first.
// Uncategorized questions report an empty category.
func (s *Store) CategoryStats(ctx context.Context) ([]CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(category, ''), COUNT(*) AS count
		FROM questions
		GROUP BY category
		ORDER BY count DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query category stats: %w", err)
	}
	defer rows.Close()

	var stats []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Count); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		stats = append(stats, c)
	}
	return stats, rows.Err()
}

// Delete removes a question, for example once it has been answered.
// Returns false if no question with that id exists.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id.String())
	if err != nil {
		return false, fmt.Errorf("delete question: %w", err)
	}

	if s.ftsEnabled {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM questions_fts WHERE id = ?`, id.String())
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateNotes replaces the notes on a question. Returns false if no
// question with that id exists.
func (s *Store) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET notes = ? WHERE id = ?`, nullable(notes), id.String())
	if err != nil {
		return false, fmt.Errorf("update notes: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) query(ctx context.Context, sqlText string, args ...any) ([]*Question, error) {
	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	var questions []*Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func scanQuestion(rows *sql.Rows) (*Question, error) {
	var (
		id        string
		text      string
		category  sql.NullString
		askedBy   sql.NullString
		notes     sql.NullString
		createdAt string
	)
	if err := rows.Scan(&id, &text, &category, &askedBy, &notes, &createdAt); err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse question id %q: %w", id, err)
	}

	createdAtTime, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse question timestamp %q: %w", createdAt, err)
	}

	return &Question{
		ID:        parsedID,
		Text:      text,
		Category:  category.String,
		AskedBy:   askedBy.String,
		Notes:     notes.String,
		CreatedAt: createdAtTime,
	}, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ftsQuery quotes the keyword so user input is matched literally instead of
// being parsed as FTS5 query syntax.
func ftsQuery(keyword string) string {
	return `"` + strings.ReplaceAll(keyword, `"`, `""`) + `"`
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"shop-assistant/internal/domain"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS chat_history (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		message    TEXT NOT NULL,
		reply      TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_chat_history_user ON chat_history(user_id, id)`,
	`CREATE TABLE IF NOT EXISTS qa_pairs (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL DEFAULT '',
		question   TEXT NOT NULL,
		answer     TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_qa_pairs_question ON qa_pairs(question)`,
	`CREATE TABLE IF NOT EXISTS greetings (
		phrase TEXT PRIMARY KEY,
		reply  TEXT NOT NULL
	)`,
}

// OpenSQLite opens the local knowledge database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("repository: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: set busy timeout: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("repository: migration %d: %w", i, err)
		}
	}
	return db, nil
}

// SQLiteStore is the knowledge store used by the local server and CLI.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("repository: db must not be nil")
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) UserName(ctx context.Context, userID string) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, userID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("repository: scan user: %w", err)
	}
	return name, name != "", nil
}

func (s *SQLiteStore) SetUserName(ctx context.Context, userID, name string) error {
	if userID == "" {
		return errors.New("repository: SetUserName: user id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		userID, name, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("repository: upsert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendChatTurn(ctx context.Context, turn domain.ChatTurn) error {
	if turn.UserID == "" {
		return errors.New("repository: AppendChatTurn: user id is required")
	}
	ts := turn.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_history (user_id, message, reply, created_at) VALUES (?, ?, ?, ?)`,
		turn.UserID, turn.Message, turn.Reply, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("repository: insert chat turn: %w", err)
	}
	return nil
}

// ChatHistory returns up to limit of the user's most recent turns, oldest first.
func (s *SQLiteStore) ChatHistory(ctx context.Context, userID string, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT message, reply, created_at FROM (
			SELECT id, message, reply, created_at FROM chat_history
			WHERE user_id = ? ORDER BY id DESC LIMIT ?
		 ) ORDER BY id ASC`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: query chat history: %w", err)
	}
	defer rows.Close()

	var turns []domain.ChatTurn
	for rows.Next() {
		var (
			t       domain.ChatTurn
			created string
		)
		if err := rows.Scan(&t.Message, &t.Reply, &created); err != nil {
			return nil, fmt.Errorf("repository: scan chat turn: %w", err)
		}
		t.UserID = userID
		t.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

func (s *SQLiteStore) RecordQA(ctx context.Context, qa domain.QAPair) error {
	if strings.TrimSpace(qa.Question) == "" {
		return errors.New("repository: RecordQA: question is required")
	}
	if strings.TrimSpace(qa.Answer) == "" {
		return errors.New("repository: RecordQA: answer is required")
	}
	ts := qa.CreatedAt
	if ts.IsZero() {
		ts = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO qa_pairs (user_id, question, answer, created_at) VALUES (?, ?, ?, ?)`,
		qa.UserID, qa.Question, qa.Answer, ts.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("repository: insert qa pair: %w", err)
	}
	return nil
}

// FindStoredAnswer returns the newest answer recorded for exactly question.
func (s *SQLiteStore) FindStoredAnswer(ctx context.Context, question string) (string, bool, error) {
	var answer string
	err := s.db.QueryRowContext(ctx,
		`SELECT answer FROM qa_pairs WHERE question = ? ORDER BY id DESC LIMIT 1`, question).Scan(&answer)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("repository: scan qa pair: %w", err)
	}
	return answer, true, nil
}

func (s *SQLiteStore) PutGreeting(ctx context.Context, entry domain.GreetingEntry) error {
	if strings.TrimSpace(entry.Phrase) == "" {
		return errors.New("repository: PutGreeting: phrase is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO greetings (phrase, reply) VALUES (?, ?)`, entry.Phrase, entry.Reply)
	if err != nil {
		return fmt.Errorf("repository: upsert greeting: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListGreetings(ctx context.Context) ([]domain.GreetingEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT phrase, reply FROM greetings ORDER BY phrase`)
	if err != nil {
		return nil, fmt.Errorf("repository: query greetings: %w", err)
	}
	defer rows.Close()

	var entries []domain.GreetingEntry
	for rows.Next() {
		var e domain.GreetingEntry
		if err := rows.Scan(&e.Phrase, &e.Reply); err != nil {
			return nil, fmt.Errorf("repository: scan greeting: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) ListGreetingPhrases(ctx context.Context) ([]string, error) {
	entries, err := s.ListGreetings(ctx)
	if err != nil {
		return nil, err
	}
	return phrases(entries), nil
}

func (s *SQLiteStore) GreetingReply(ctx context.Context, phrase string) (string, bool, error) {
	var reply string
	err := s.db.QueryRowContext(ctx, `SELECT reply FROM greetings WHERE phrase = ?`, phrase).Scan(&reply)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("repository: scan greeting reply: %w", err)
	}
	return reply, true, nil
}

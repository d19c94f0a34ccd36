package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/puremath/internal/domain"
	"github.com/doeshing/puremath/internal/ports"
)

// SQLiteStore persists the question log in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSQLiteStore creates (or opens) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open question log: %w", err)
	}
	// one writer at a time
	db.SetMaxOpenConns(1)
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init question log: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		chat_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		username TEXT,
		first_name TEXT,
		last_name TEXT,
		question TEXT NOT NULL,
		response TEXT,
		response_length INTEGER
	);`)
	return err
}

// Append inserts a new record.
func (s *SQLiteStore) Append(record domain.QuestionLogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO questions
		(timestamp, chat_id, user_id, username, first_name, last_name, question, response, response_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.UTC().Format(time.RFC3339Nano),
		record.ChatID,
		record.User.ID,
		record.User.Username,
		record.User.FirstName,
		record.User.LastName,
		record.Question,
		record.Response,
		record.ResponseLength,
	)
	return err
}

// Records returns log entries newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.QuestionLogRecord, error) {
	return s.query(limit, search, "DESC")
}

// ExportJSON writes the question table, oldest first, as JSON lines to dest.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.query(0, "", "ASC")
	if err != nil {
		return err
	}
	return writeJSONLines(dest, records)
}

func (s *SQLiteStore) query(limit int, search, order string) ([]domain.QuestionLogRecord, error) {
	builder := strings.Builder{}
	builder.WriteString("SELECT timestamp, chat_id, user_id, username, first_name, last_name, question, response, response_length FROM questions")
	var args []interface{}
	if search = strings.TrimSpace(search); search != "" {
		builder.WriteString(" WHERE question LIKE ? OR response LIKE ? OR username LIKE ?")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	builder.WriteString(" ORDER BY id " + order)
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.QuestionLogRecord
	for rows.Next() {
		var (
			rec                   domain.QuestionLogRecord
			ts                    string
			username, first, last sql.NullString
			response              sql.NullString
			length                sql.NullInt64
		)
		if err := rows.Scan(&ts, &rec.ChatID, &rec.User.ID, &username, &first, &last, &rec.Question, &response, &length); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			rec.Timestamp = t
		}
		rec.User.Username = username.String
		rec.User.FirstName = first.String
		rec.User.LastName = last.String
		rec.Response = response.String
		rec.ResponseLength = int(length.Int64)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all log entries.
func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM questions")
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Path returns the sqlite database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

var _ ports.QuestionLogRepository = (*SQLiteStore)(nil)

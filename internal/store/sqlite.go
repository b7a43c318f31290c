package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite serializes writes; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS car_profiles (
	user_id     TEXT PRIMARY KEY,
	make        TEXT NOT NULL DEFAULT '',
	model       TEXT NOT NULL DEFAULT '',
	year        INTEGER NOT NULL DEFAULT 0,
	resale_pref TEXT NOT NULL DEFAULT '',
	mods        TEXT NOT NULL DEFAULT '[]',
	symptoms    TEXT NOT NULL DEFAULT '[]',
	goals       TEXT NOT NULL DEFAULT '[]',
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS conversations (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          TEXT NOT NULL,
	session_id       TEXT NOT NULL,
	query            TEXT NOT NULL,
	agent_trace      TEXT NOT NULL DEFAULT '[]',
	final_output     TEXT NOT NULL DEFAULT '{}',
	profile_snapshot TEXT NOT NULL DEFAULT '{}',
	created_at       TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversations_user_created
	ON conversations (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_conversations_session
	ON conversations (user_id, session_id, created_at);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetOrCreate(ctx context.Context, userID string) (*CarProfile, error) {
	profile, err := s.getProfile(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO car_profiles (user_id) VALUES (?) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return s.getProfile(ctx, userID)
}

func (s *SQLiteStore) getProfile(ctx context.Context, userID string) (*CarProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT make, model, year, resale_pref, mods, symptoms, goals
		 FROM car_profiles WHERE user_id = ?`, userID)

	profile := &CarProfile{UserID: userID}
	var mods, symptoms, goals string
	if err := row.Scan(&profile.Make, &profile.Model, &profile.Year, &profile.ResalePref,
		&mods, &symptoms, &goals); err != nil {
		return nil, err
	}

	// Malformed rows degrade to empty collections rather than failing the read.
	_ = json.Unmarshal([]byte(mods), &profile.Mods)
	_ = json.Unmarshal([]byte(symptoms), &profile.Symptoms)
	_ = json.Unmarshal([]byte(goals), &profile.Goals)
	return profile, nil
}

func (s *SQLiteStore) ApplyUpdates(ctx context.Context, userID string, updates ProfileUpdates) error {
	if updates.Empty() {
		return nil
	}
	if _, err := s.GetOrCreate(ctx, userID); err != nil {
		return err
	}

	set := "updated_at = CURRENT_TIMESTAMP"
	args := make([]any, 0, 5)
	if updates.Make != nil {
		set += ", make = ?"
		args = append(args, *updates.Make)
	}
	if updates.Model != nil {
		set += ", model = ?"
		args = append(args, *updates.Model)
	}
	if updates.Year != nil {
		set += ", year = ?"
		args = append(args, *updates.Year)
	}
	if updates.ResalePref != nil {
		set += ", resale_pref = ?"
		args = append(args, *updates.ResalePref)
	}
	args = append(args, userID)

	_, err := s.db.ExecContext(ctx, `UPDATE car_profiles SET `+set+` WHERE user_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, conv Conversation) error {
	trace, err := json.Marshal(conv.AgentTrace)
	if err != nil {
		return fmt.Errorf("marshal agent trace: %w", err)
	}
	output, err := json.Marshal(conv.FinalOutput)
	if err != nil {
		return fmt.Errorf("marshal final output: %w", err)
	}
	snapshot, err := json.Marshal(conv.CarProfile)
	if err != nil {
		return fmt.Errorf("marshal profile snapshot: %w", err)
	}

	createdAt := conv.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, session_id, query, agent_trace, final_output, profile_snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.UserID, conv.SessionID, conv.Query, string(trace), string(output), string(snapshot), createdAt)
	if err != nil {
		return fmt.Errorf("append conversation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, userID string, limit int) ([]Conversation, error) {
	if limit <= 0 {
		limit = 3
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, session_id, query, agent_trace, final_output, profile_snapshot, created_at
		 FROM conversations WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanConversations(rows)
}

func (s *SQLiteStore) Session(ctx context.Context, userID, sessionID string) ([]Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, session_id, query, agent_trace, final_output, profile_snapshot, created_at
		 FROM conversations WHERE user_id = ? AND session_id = ?
		 ORDER BY created_at ASC, id ASC`, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanConversations(rows)
}

func (s *SQLiteStore) Prune(ctx context.Context, userID string, policy RetentionPolicy) error {
	if !policy.HasRules() {
		return nil
	}

	if cutoff, ok := policy.Cutoff(time.Now().UTC()); ok {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM conversations WHERE user_id = ? AND created_at < ?`, userID, cutoff); err != nil {
			return fmt.Errorf("prune by age: %w", err)
		}
	}

	if policy.MaxPerUser > 0 {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM conversations WHERE user_id = ? AND id NOT IN (
				SELECT id FROM conversations WHERE user_id = ?
				ORDER BY created_at DESC, id DESC LIMIT ?
			)`, userID, userID, policy.MaxPerUser); err != nil {
			return fmt.Errorf("prune by count: %w", err)
		}
	}
	return nil
}

func scanConversations(rows *sql.Rows) ([]Conversation, error) {
	var out []Conversation
	for rows.Next() {
		var conv Conversation
		var trace, output, snapshot string
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.SessionID, &conv.Query,
			&trace, &output, &snapshot, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		_ = json.Unmarshal([]byte(trace), &conv.AgentTrace)
		_ = json.Unmarshal([]byte(output), &conv.FinalOutput)
		_ = json.Unmarshal([]byte(snapshot), &conv.CarProfile)
		out = append(out, conv)
	}
	return out, rows.Err()
}

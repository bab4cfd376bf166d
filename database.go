package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"ecohub/internal/leaderboard"
	"ecohub/internal/logging"
)

const (
	leaderboardKey = "leaderboard"
	sessionPrefix  = "session:"
)

func sessionKey(id string) string {
	return sessionPrefix + id
}

func initDB(path, adminEmail, adminPassword string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := seedData(db, adminEmail, adminPassword); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed data: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL CHECK(role IN ('admin')),
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		action TEXT NOT NULL,
		details TEXT,
		points INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_activity_session ON activity_logs(session_id);
	CREATE INDEX IF NOT EXISTS idx_activity_action ON activity_logs(action);
	`

	_, err := db.Exec(schema)
	return err
}

func seedData(db *sql.DB, adminEmail, adminPassword string) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM kv WHERE key = ?", leaderboardKey).Scan(&count); err != nil {
		return err
	}

	if count == 0 {
		seed, err := json.Marshal(leaderboard.Seed())
		if err != nil {
			return err
		}
		if _, err := db.Exec("INSERT INTO kv (key, value) VALUES (?, ?)", leaderboardKey, string(seed)); err != nil {
			return fmt.Errorf("failed to seed leaderboard: %w", err)
		}
		logging.Log.Info("Leaderboard seeded")
	}

	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	res, err := db.Exec(
		"INSERT OR IGNORE INTO users (email, password, role) VALUES (?, ?, ?)",
		adminEmail, string(hashedPassword), "admin",
	)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		logging.Log.WithField("email", adminEmail).Info("Admin user created")
	}
	return nil
}

// getRecord decodes the record under key into v. A missing or undecodable
// record reports found=false and leaves v untouched.
func (s *Server) getRecord(ctx context.Context, key string, v interface{}) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		logging.Log.WithError(err).WithField("key", key).Warn("Discarding unreadable record")
		return false, nil
	}
	return true, nil
}

func (s *Server) putRecord(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(data), s.now().UTC())
	return err
}

// loadSession returns the stored state of a visitor, or a fresh one.
func (s *Server) loadSession(ctx context.Context, id string) (SessionState, error) {
	var st SessionState
	found, err := s.getRecord(ctx, sessionKey(id), &st)
	if err != nil {
		return SessionState{}, fmt.Errorf("load session: %w", err)
	}
	if !found {
		return SessionState{}, nil
	}
	st.Challenge = st.Challenge.Normalize()
	return st, nil
}

func (s *Server) saveSession(ctx context.Context, id string, st SessionState) error {
	if err := s.putRecord(ctx, sessionKey(id), st); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// loadLeaderboard returns the stored board. A missing board is reseeded.
func (s *Server) loadLeaderboard(ctx context.Context) ([]leaderboard.Entry, error) {
	var entries []leaderboard.Entry
	found, err := s.getRecord(ctx, leaderboardKey, &entries)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	if !found {
		return leaderboard.Seed(), nil
	}
	return entries, nil
}

func (s *Server) saveLeaderboard(ctx context.Context, entries []leaderboard.Entry) error {
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	if err := s.putRecord(ctx, leaderboardKey, entries); err != nil {
		return fmt.Errorf("save leaderboard: %w", err)
	}
	return nil
}

func (s *Server) logActivity(ctx context.Context, sessionID, action, details string, points int) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (session_id, action, details, points, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, action, details, points, s.now().UTC())

	if err != nil {
		logging.Log.WithError(err).WithField("action", action).Error("Error logging activity")
	}
}

func (s *Server) getActivity(ctx context.Context, sessionID string, limit int) ([]ActivityLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, action, COALESCE(details, ''), points, created_at
		FROM activity_logs
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []ActivityLog{}
	for rows.Next() {
		var a ActivityLog
		if err := rows.Scan(&a.ID, &a.SessionID, &a.Action, &a.Details, &a.Points, &a.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}

func (s *Server) getStats(ctx context.Context, board []leaderboard.Entry) (*Stats, error) {
	stats := &Stats{Participants: len(board)}
	if len(board) > 0 {
		stats.Leader = board[0].Name
	}
	for _, e := range board {
		stats.TotalPoints += e.Score
	}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM kv
		WHERE key LIKE ? AND json_extract(value, '$.challenge.program') IS NOT NULL
	`, sessionPrefix+"%").Scan(&stats.ActiveChallenges)
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM activity_logs WHERE action = 'day_completed'
	`).Scan(&stats.DaysLogged)
	return stats, err
}

func (s *Server) findUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, password, role, created_at
		FROM users
		WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.Password, &u.Role, &u.CreatedAt)
	return u, err
}

func (s *Server) findUserByID(ctx context.Context, id int) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, role, created_at
		FROM users
		WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Role, &u.CreatedAt)
	return u, err
}

func utcPtr(t time.Time) *time.Time {
	t = t.UTC()
	return &t
}

// Package session persists annotation sessions and the per-frame overlay
// samples recorded while a video source is being processed.
//
// Responsibilities:
//   - own the SQLite database (schema via embedded migrations)
//   - CRUD for sessions and batch insertion of overlay samples
//   - admin routes for live SQL debugging and backups
//
// Dependency rule: session depends on internal/pose for the recorded frame
// shape and on internal/overlay for computed results. It never renders.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Session describes one recorded annotation run over a video or synthetic
// source.
type Session struct {
	SessionID   string  `json:"session_id"`
	Label       string  `json:"label,omitempty"`
	Model       string  `json:"model"`
	Source      string  `json:"source,omitempty"`
	VideoWidth  int     `json:"video_width"`
	VideoHeight int     `json:"video_height"`
	FrameRate   float64 `json:"frame_rate"`
	StartedAtNs int64   `json:"started_at_ns"`
	EndedAtNs   *int64  `json:"ended_at_ns,omitempty"`
	CreatedAtNs int64   `json:"created_at_ns"`
	UpdatedAtNs *int64  `json:"updated_at_ns,omitempty"`
}

// Sample is one frame's worth of computed overlay state. PosesJSON carries
// the raw detections so a session can be replayed without the source video.
type Sample struct {
	SampleID        int64           `json:"sample_id"`
	SessionID       string          `json:"session_id"`
	FrameIndex      int64           `json:"frame_index"`
	TimestampNs     int64           `json:"timestamp_ns"`
	PoseCount       int             `json:"pose_count"`
	OrientationDeg  *float64        `json:"orientation_deg,omitempty"`
	OrientationConf *float64        `json:"orientation_conf,omitempty"`
	AnchorX         *float64        `json:"anchor_x,omitempty"`
	AnchorY         *float64        `json:"anchor_y,omitempty"`
	LabelCount      int             `json:"label_count"`
	PosesJSON       json.RawMessage `json:"poses_json,omitempty"`
}

// Store provides persistence for sessions and overlay samples.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the session database at path and applies the
// connection pragmas every handle needs.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	return &Store{db: db, path: path}, nil
}

// DB exposes the underlying handle for the admin routes and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database file path the store was opened with.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession inserts a new session. If sess.SessionID is empty a new
// UUID is generated.
func (s *Store) CreateSession(sess *Session) error {
	if sess.SessionID == "" {
		sess.SessionID = "ses_" + uuid.New().String()
	}
	if sess.CreatedAtNs == 0 {
		sess.CreatedAtNs = time.Now().UnixNano()
	}
	if sess.StartedAtNs == 0 {
		sess.StartedAtNs = sess.CreatedAtNs
	}

	query := `
		INSERT INTO sessions (
			session_id, label, model, source, video_width, video_height,
			frame_rate, started_at_ns, ended_at_ns, created_at_ns, updated_at_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		sess.SessionID,
		nullString(sess.Label),
		sess.Model,
		nullString(sess.Source),
		sess.VideoWidth,
		sess.VideoHeight,
		sess.FrameRate,
		sess.StartedAtNs,
		nullInt64(sess.EndedAtNs),
		sess.CreatedAtNs,
		nullInt64(sess.UpdatedAtNs),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	query := `
		SELECT session_id, label, model, source, video_width, video_height,
		       frame_rate, started_at_ns, ended_at_ns, created_at_ns, updated_at_ns
		FROM sessions
		WHERE session_id = ?
	`

	sess, err := scanSession(s.db.QueryRow(query, sessionID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions retrieves all sessions, optionally filtered by model, newest
// first.
func (s *Store) ListSessions(model string) ([]*Session, error) {
	query := `
		SELECT session_id, label, model, source, video_width, video_height,
		       frame_rate, started_at_ns, ended_at_ns, created_at_ns, updated_at_ns
		FROM sessions
	`
	var args []interface{}
	if model != "" {
		query += ` WHERE model = ?`
		args = append(args, model)
	}
	query += ` ORDER BY created_at_ns DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions rows: %w", err)
	}

	return sessions, nil
}

// EndSession marks the session finished at endedAtNs.
func (s *Store) EndSession(sessionID string, endedAtNs int64) error {
	query := `
		UPDATE sessions
		SET ended_at_ns = ?,
		    updated_at_ns = ?
		WHERE session_id = ?
	`

	result, err := s.db.Exec(query, endedAtNs, time.Now().UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	return requireRow(result, sessionID)
}

// UpdateLabel sets the human-readable label on a session.
func (s *Store) UpdateLabel(sessionID, label string) error {
	query := `
		UPDATE sessions
		SET label = ?,
		    updated_at_ns = ?
		WHERE session_id = ?
	`

	result, err := s.db.Exec(query, nullString(label), time.Now().UnixNano(), sessionID)
	if err != nil {
		return fmt.Errorf("update session label: %w", err)
	}
	return requireRow(result, sessionID)
}

// DeleteSession removes a session and all of its samples.
func (s *Store) DeleteSession(sessionID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete session tx: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM overlay_samples WHERE session_id = ?`, sessionID); err != nil {
		tx.Rollback()
		return fmt.Errorf("delete session samples: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("delete session: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("check delete result: %w", err)
	}
	if rows == 0 {
		tx.Rollback()
		return fmt.Errorf("session not found: %s", sessionID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}

// InsertSamples writes a batch of overlay samples inside one transaction.
// The recorder calls this from its flush loop.
func (s *Store) InsertSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sample tx: %w", err)
	}
	defer func() {
		// ErrTxDone means the transaction already committed.
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback sample batch: %v", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO overlay_samples (
			session_id, frame_index, timestamp_ns, pose_count,
			orientation_deg, orientation_conf, anchor_x, anchor_y,
			label_count, poses_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for i := range samples {
		sample := &samples[i]
		var posesJSON interface{}
		if len(sample.PosesJSON) > 0 {
			posesJSON = string(sample.PosesJSON)
		}
		if _, err := stmt.ExecContext(ctx,
			sample.SessionID,
			sample.FrameIndex,
			sample.TimestampNs,
			sample.PoseCount,
			nullFloat64(sample.OrientationDeg),
			nullFloat64(sample.OrientationConf),
			nullFloat64(sample.AnchorX),
			nullFloat64(sample.AnchorY),
			sample.LabelCount,
			posesJSON,
		); err != nil {
			return fmt.Errorf("insert sample frame %d: %w", sample.FrameIndex, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit sample batch: %w", err)
	}
	return nil
}

// SamplesForSession retrieves samples for a session in frame order. A limit
// of 0 or less returns all samples.
func (s *Store) SamplesForSession(sessionID string, limit int) ([]*Sample, error) {
	query := `
		SELECT sample_id, session_id, frame_index, timestamp_ns, pose_count,
		       orientation_deg, orientation_conf, anchor_x, anchor_y,
		       label_count, poses_json
		FROM overlay_samples
		WHERE session_id = ?
		ORDER BY frame_index ASC
	`
	args := []interface{}{sessionID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []*Sample
	for rows.Next() {
		var sample Sample
		var orientationDeg, orientationConf, anchorX, anchorY sql.NullFloat64
		var posesJSON sql.NullString

		if err := rows.Scan(
			&sample.SampleID,
			&sample.SessionID,
			&sample.FrameIndex,
			&sample.TimestampNs,
			&sample.PoseCount,
			&orientationDeg,
			&orientationConf,
			&anchorX,
			&anchorY,
			&sample.LabelCount,
			&posesJSON,
		); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}

		if orientationDeg.Valid {
			v := orientationDeg.Float64
			sample.OrientationDeg = &v
		}
		if orientationConf.Valid {
			v := orientationConf.Float64
			sample.OrientationConf = &v
		}
		if anchorX.Valid {
			v := anchorX.Float64
			sample.AnchorX = &v
		}
		if anchorY.Valid {
			v := anchorY.Float64
			sample.AnchorY = &v
		}
		if posesJSON.Valid && posesJSON.String != "" {
			sample.PosesJSON = json.RawMessage(posesJSON.String)
		}

		samples = append(samples, &sample)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sample rows: %w", err)
	}

	return samples, nil
}

// SampleCount returns the number of recorded samples for a session.
func (s *Store) SampleCount(sessionID string) (int64, error) {
	var count int64
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM overlay_samples WHERE session_id = ?`, sessionID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return count, nil
}

// rowScanner lets scanSession work over both QueryRow and Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var label, source sql.NullString
	var endedAtNs, updatedAtNs sql.NullInt64

	err := row.Scan(
		&sess.SessionID,
		&label,
		&sess.Model,
		&source,
		&sess.VideoWidth,
		&sess.VideoHeight,
		&sess.FrameRate,
		&sess.StartedAtNs,
		&endedAtNs,
		&sess.CreatedAtNs,
		&updatedAtNs,
	)
	if err != nil {
		return nil, err
	}

	if label.Valid {
		sess.Label = label.String
	}
	if source.Valid {
		sess.Source = source.String
	}
	if endedAtNs.Valid {
		v := endedAtNs.Int64
		sess.EndedAtNs = &v
	}
	if updatedAtNs.Valid {
		v := updatedAtNs.Int64
		sess.UpdatedAtNs = &v
	}

	return &sess, nil
}

// requireRow converts a zero-row update into a not-found error.
func requireRow(result sql.Result, sessionID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// Helper functions for nullable values.

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullFloat64(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt64(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/content-gate/internal/model"
)

// SQLiteStore implements HistoryStore using modernc.org/sqlite. Timestamps
// are stored as UTC unix nanoseconds.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS promotion_records (
	seq              INTEGER PRIMARY KEY AUTOINCREMENT,
	id               TEXT NOT NULL UNIQUE,
	artifact_id      TEXT NOT NULL,
	version          TEXT NOT NULL DEFAULT '',
	quality_score    REAL NOT NULL,
	feedback_score   REAL NOT NULL,
	requested_at     INTEGER,
	segment          TEXT NOT NULL DEFAULT '',
	metadata         TEXT,
	approved         INTEGER NOT NULL,
	rejection_reason TEXT NOT NULL DEFAULT '',
	recorded_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS artifact_state (
	artifact_id    TEXT PRIMARY KEY,
	last_promotion INTEGER,
	score_history  TEXT NOT NULL DEFAULT '[]',
	updated_at     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_promotion_records_artifact ON promotion_records(artifact_id, seq);
CREATE INDEX IF NOT EXISTS idx_promotion_records_recorded_at ON promotion_records(recorded_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const recordColumns = `id, artifact_id, version, quality_score, feedback_score, requested_at, segment, metadata, approved, rejection_reason, recorded_at`

func (s *SQLiteStore) AppendRecord(ctx context.Context, rec model.PromotionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	meta, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal metadata")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO promotion_records (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ArtifactID, rec.Version, rec.QualityScore, rec.FeedbackScore,
		toNanos(rec.Timestamp), rec.Segment, meta, rec.Approved, rec.RejectionReason,
		toNanos(rec.RecordedAt),
	)
	return eris.Wrapf(err, "sqlite: insert record for %s", rec.ArtifactID)
}

func (s *SQLiteStore) Records(ctx context.Context, artifactID string) ([]model.PromotionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM promotion_records WHERE artifact_id = ? ORDER BY seq`,
		artifactID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query records for %s", artifactID)
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLiteStore) RecentRecords(ctx context.Context, since time.Time) ([]model.PromotionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM promotion_records WHERE recorded_at >= ? ORDER BY seq`,
		toNanos(since).Int64,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query recent records")
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLiteStore) LastPromotion(ctx context.Context, artifactID string) (time.Time, bool, error) {
	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT last_promotion FROM artifact_state WHERE artifact_id = ?`, artifactID,
	).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, eris.Wrapf(err, "sqlite: get last promotion for %s", artifactID)
	}
	if !last.Valid {
		return time.Time{}, false, nil
	}
	return fromNanos(last), true, nil
}

func (s *SQLiteStore) SetLastPromotion(ctx context.Context, artifactID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO artifact_state (artifact_id, last_promotion, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(artifact_id) DO UPDATE SET last_promotion = excluded.last_promotion, updated_at = excluded.updated_at`,
		artifactID, toNanos(at), time.Now().UTC().UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: set last promotion for %s", artifactID)
}

func (s *SQLiteStore) ClearLastPromotion(ctx context.Context, artifactID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE artifact_state SET last_promotion = NULL, updated_at = ? WHERE artifact_id = ?`,
		time.Now().UTC().UnixNano(), artifactID,
	)
	return eris.Wrapf(err, "sqlite: clear last promotion for %s", artifactID)
}

func (s *SQLiteStore) ScoreHistory(ctx context.Context, artifactID string) ([]float64, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT score_history FROM artifact_state WHERE artifact_id = ?`, artifactID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []float64{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get score history for %s", artifactID)
	}
	scores := []float64{}
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return nil, eris.Wrapf(err, "sqlite: decode score history for %s", artifactID)
	}
	return scores, nil
}

func (s *SQLiteStore) SetScoreHistory(ctx context.Context, artifactID string, scores []float64) error {
	if scores == nil {
		scores = []float64{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return eris.Wrap(err, "sqlite: encode score history")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifact_state (artifact_id, score_history, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(artifact_id) DO UPDATE SET score_history = excluded.score_history, updated_at = excluded.updated_at`,
		artifactID, string(raw), time.Now().UTC().UnixNano(),
	)
	return eris.Wrapf(err, "sqlite: set score history for %s", artifactID)
}

type scannable interface {
	Scan(dest ...any) error
}

func collectSQLiteRecords(rows *sql.Rows) ([]model.PromotionRecord, error) {
	defer rows.Close() //nolint:errcheck
	out := []model.PromotionRecord{}
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func scanSQLiteRecord(row scannable) (model.PromotionRecord, error) {
	var (
		rec         model.PromotionRecord
		requestedAt sql.NullInt64
		recordedAt  sql.NullInt64
		meta        sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.ArtifactID, &rec.Version, &rec.QualityScore, &rec.FeedbackScore,
		&requestedAt, &rec.Segment, &meta, &rec.Approved, &rec.RejectionReason, &recordedAt,
	)
	if err != nil {
		return rec, eris.Wrap(err, "sqlite: scan record")
	}
	rec.Timestamp = fromNanos(requestedAt)
	rec.RecordedAt = fromNanos(recordedAt)
	if meta.Valid {
		if err := json.Unmarshal([]byte(meta.String), &rec.Metadata); err != nil {
			return rec, eris.Wrapf(err, "sqlite: decode metadata for %s", rec.ID)
		}
	}
	return rec, nil
}

func marshalMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func toNanos(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UTC().UnixNano(), Valid: true}
}

func fromNanos(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}

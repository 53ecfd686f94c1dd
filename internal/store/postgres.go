package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/content-gate/internal/db"
	"github.com/sells-group/content-gate/internal/model"
)

// PostgresStore implements HistoryStore using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlInsertRecord = `INSERT INTO promotion_records (id, artifact_id, version, quality_score, feedback_score, requested_at, segment, metadata, approved, rejection_reason, recorded_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	sqlRecords      = `SELECT id, artifact_id, version, quality_score, feedback_score, requested_at, segment, metadata, approved, rejection_reason, recorded_at FROM promotion_records WHERE artifact_id = $1 ORDER BY seq`
	sqlRecent       = `SELECT id, artifact_id, version, quality_score, feedback_score, requested_at, segment, metadata, approved, rejection_reason, recorded_at FROM promotion_records WHERE recorded_at >= $1 ORDER BY seq`
	sqlLast         = `SELECT last_promotion FROM artifact_state WHERE artifact_id = $1`
	sqlClearLast    = `UPDATE artifact_state SET last_promotion = NULL, updated_at = now() WHERE artifact_id = $1`
	sqlScores       = `SELECT score_history FROM artifact_state WHERE artifact_id = $1`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_record": sqlInsertRecord,
	"get_records":   sqlRecords,
	"get_last":      sqlLast,
	"get_scores":    sqlScores,
}

var (
	lastPromotionUpsert = db.UpsertConfig{
		Table:        "artifact_state",
		Columns:      []string{"artifact_id", "last_promotion", "updated_at"},
		ConflictKeys: []string{"artifact_id"},
	}
	scoreHistoryUpsert = db.UpsertConfig{
		Table:        "artifact_state",
		Columns:      []string{"artifact_id", "score_history", "updated_at"},
		ConflictKeys: []string{"artifact_id"},
	}
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS promotion_records (
	seq              BIGSERIAL PRIMARY KEY,
	id               TEXT NOT NULL UNIQUE,
	artifact_id      TEXT NOT NULL,
	version          TEXT NOT NULL DEFAULT '',
	quality_score    DOUBLE PRECISION NOT NULL,
	feedback_score   DOUBLE PRECISION NOT NULL,
	requested_at     TIMESTAMPTZ,
	segment          TEXT NOT NULL DEFAULT '',
	metadata         JSONB,
	approved         BOOLEAN NOT NULL,
	rejection_reason TEXT NOT NULL DEFAULT '',
	recorded_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_promotion_records_artifact ON promotion_records(artifact_id, seq);
CREATE INDEX IF NOT EXISTS idx_promotion_records_recorded_at ON promotion_records(recorded_at);

CREATE TABLE IF NOT EXISTS artifact_state (
	artifact_id    TEXT PRIMARY KEY,
	last_promotion TIMESTAMPTZ,
	score_history  DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AppendRecord(ctx context.Context, rec model.PromotionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	var meta []byte
	if len(rec.Metadata) > 0 {
		b, err := json.Marshal(rec.Metadata)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal metadata")
		}
		meta = b
	}
	_, err := s.pool.Exec(ctx, sqlInsertRecord,
		rec.ID, rec.ArtifactID, rec.Version, rec.QualityScore, rec.FeedbackScore,
		nullTime(rec.Timestamp), rec.Segment, meta, rec.Approved, rec.RejectionReason,
		rec.RecordedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert record for %s", rec.ArtifactID)
}

func (s *PostgresStore) Records(ctx context.Context, artifactID string) ([]model.PromotionRecord, error) {
	rows, err := s.pool.Query(ctx, sqlRecords, artifactID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query records for %s", artifactID)
	}
	return collectPostgresRecords(rows)
}

func (s *PostgresStore) RecentRecords(ctx context.Context, since time.Time) ([]model.PromotionRecord, error) {
	rows, err := s.pool.Query(ctx, sqlRecent, since.UTC())
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query recent records")
	}
	return collectPostgresRecords(rows)
}

func (s *PostgresStore) LastPromotion(ctx context.Context, artifactID string) (time.Time, bool, error) {
	var last *time.Time
	err := s.pool.QueryRow(ctx, sqlLast, artifactID).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, eris.Wrapf(err, "postgres: get last promotion for %s", artifactID)
	}
	if last == nil {
		return time.Time{}, false, nil
	}
	return last.UTC(), true, nil
}

func (s *PostgresStore) SetLastPromotion(ctx context.Context, artifactID string, at time.Time) error {
	err := db.Upsert(ctx, s.pool, lastPromotionUpsert, artifactID, at.UTC(), time.Now().UTC())
	return eris.Wrapf(err, "postgres: set last promotion for %s", artifactID)
}

func (s *PostgresStore) ClearLastPromotion(ctx context.Context, artifactID string) error {
	_, err := s.pool.Exec(ctx, sqlClearLast, artifactID)
	return eris.Wrapf(err, "postgres: clear last promotion for %s", artifactID)
}

func (s *PostgresStore) ScoreHistory(ctx context.Context, artifactID string) ([]float64, error) {
	var scores []float64
	err := s.pool.QueryRow(ctx, sqlScores, artifactID).Scan(&scores)
	if errors.Is(err, pgx.ErrNoRows) {
		return []float64{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get score history for %s", artifactID)
	}
	if scores == nil {
		scores = []float64{}
	}
	return scores, nil
}

func (s *PostgresStore) SetScoreHistory(ctx context.Context, artifactID string, scores []float64) error {
	if scores == nil {
		scores = []float64{}
	}
	err := db.Upsert(ctx, s.pool, scoreHistoryUpsert, artifactID, scores, time.Now().UTC())
	return eris.Wrapf(err, "postgres: set score history for %s", artifactID)
}

func collectPostgresRecords(rows pgx.Rows) ([]model.PromotionRecord, error) {
	defer rows.Close()
	out := []model.PromotionRecord{}
	for rows.Next() {
		var (
			rec         model.PromotionRecord
			requestedAt *time.Time
			meta        []byte
		)
		err := rows.Scan(
			&rec.ID, &rec.ArtifactID, &rec.Version, &rec.QualityScore, &rec.FeedbackScore,
			&requestedAt, &rec.Segment, &meta, &rec.Approved, &rec.RejectionReason, &rec.RecordedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		if requestedAt != nil {
			rec.Timestamp = requestedAt.UTC()
		}
		rec.RecordedAt = rec.RecordedAt.UTC()
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &rec.Metadata); err != nil {
				return nil, eris.Wrapf(err, "postgres: decode metadata for %s", rec.ID)
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/content-gate/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

var recordCols = []string{"id", "artifact_id", "version", "quality_score", "feedback_score", "requested_at", "segment", "metadata", "approved", "rejection_reason", "recorded_at"}

func TestPostgresStore_AppendRecord(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := record("r1", "story-1", false, base)
	rec.Metadata = map[string]any{"reviewer": "editorial"}

	mock.ExpectExec(`INSERT INTO promotion_records`).
		WithArgs("r1", "story-1", "v1", 0.82, 0.74, pgxmock.AnyArg(), "kids",
			[]byte(`{"reviewer":"editorial"}`), false, model.ReasonCooldown, base).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.AppendRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AppendRecord_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO promotion_records`).WillReturnError(errors.New("disk full"))

	err := s.AppendRecord(context.Background(), record("r1", "story-1", true, base))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: insert record for story-1")
}

func TestPostgresStore_Records(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	requested := base

	rows := pgxmock.NewRows(recordCols).
		AddRow("r1", "story-1", "v1", 0.9, 0.8, &requested, "", []byte(`{"k":"v"}`), true, "", base).
		AddRow("r2", "story-1", "v2", 0.5, 0.8, (*time.Time)(nil), "", []byte(nil), false, model.ReasonInsufficientScore, base.Add(time.Hour))
	mock.ExpectQuery(`SELECT .* FROM promotion_records WHERE artifact_id = \$1 ORDER BY seq`).
		WithArgs("story-1").
		WillReturnRows(rows)

	recs, err := s.Records(context.Background(), "story-1")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.True(t, recs[0].Approved)
	assert.Equal(t, "v", recs[0].Metadata["k"])
	assert.True(t, base.Equal(recs[0].Timestamp))
	assert.True(t, recs[1].Timestamp.IsZero())
	assert.Equal(t, model.ReasonInsufficientScore, recs[1].RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecentRecords(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	since := base.Add(-24 * time.Hour)

	mock.ExpectQuery(`WHERE recorded_at >= \$1`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows(recordCols))

	recs, err := s.RecentRecords(context.Background(), since)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastPromotion(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := base

	mock.ExpectQuery(`SELECT last_promotion FROM artifact_state`).
		WithArgs("story-1").
		WillReturnRows(pgxmock.NewRows([]string{"last_promotion"}).AddRow(&at))

	got, ok, err := s.LastPromotion(context.Background(), "story-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, base.Equal(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LastPromotion_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT last_promotion FROM artifact_state`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, ok, err := s.LastPromotion(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetLastPromotion_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO "artifact_state" .* ON CONFLICT \("artifact_id"\) DO UPDATE SET "last_promotion"`).
		WithArgs("story-1", base, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SetLastPromotion(context.Background(), "story-1", base))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ClearLastPromotion(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE artifact_state SET last_promotion = NULL`).
		WithArgs("story-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, s.ClearLastPromotion(context.Background(), "story-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ScoreHistory(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT score_history FROM artifact_state`).
		WithArgs("story-1").
		WillReturnRows(pgxmock.NewRows([]string{"score_history"}).AddRow([]float64{0.9, 0.3}))
	mock.ExpectQuery(`SELECT score_history FROM artifact_state`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.ScoreHistory(context.Background(), "story-1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.9, 0.3}, got)

	got, err = s.ScoreHistory(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetScoreHistory_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT \("artifact_id"\) DO UPDATE SET "score_history"`).
		WithArgs("story-1", []float64{0.7}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SetScoreHistory(context.Background(), "story-1", []float64{0.7}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS promotion_records`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectPing()

	require.NoError(t, s.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

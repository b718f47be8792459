package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vest-cli/internal/model"
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

var scanColumns = []string{
	"id", "parent_id", "created_at", "item_name", "category", "query", "tier",
	"buy_price", "list_price", "score", "grade", "recommendation", "net_profit", "roi", "payload",
}

func scanRow(rec ScanRecord) []any {
	return []any{
		rec.ID, rec.ParentID, rec.CreatedAt, rec.ItemName, rec.Category, rec.Query, rec.Tier,
		rec.BuyPrice, rec.ListPrice, rec.Score, string(rec.Grade), string(rec.Recommendation),
		rec.NetProfit, float64(rec.ROI), []byte(rec.Payload),
	}
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS scans`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := sampleRecord(1)

	mock.ExpectExec(`(?s)INSERT INTO scans .* ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(rec.ID, "", pgxmock.AnyArg(), rec.ItemName, rec.Category, rec.Query, rec.Tier,
			rec.BuyPrice, rec.ListPrice, rec.Score, "C", "hold", rec.NetProfit, 0.8275, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveScan(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveScan_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO scans`).
		WillReturnError(errors.New("connection refused"))

	err := s.SaveScan(context.Background(), sampleRecord(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: save scan scan-01")
}

func TestPostgresStore_GetScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	rec := sampleRecord(2)

	mock.ExpectQuery(`(?s)SELECT id, parent_id, created_at .* FROM scans WHERE id = \$1`).
		WithArgs(rec.ID).
		WillReturnRows(pgxmock.NewRows(scanColumns).AddRow(scanRow(rec)...))

	got, err := s.GetScan(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ItemName, got.ItemName)
	assert.Equal(t, model.GradeC, got.Grade)
	assert.InDelta(t, 0.8275, got.ROI.Float(), 1e-9)
	assert.JSONEq(t, `{"id":"x"}`, string(got.Payload))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetScan_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM scans WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetScan(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScans(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM scans WHERE true AND grade = \$1 AND score >= \$2 AND \(item_name ILIKE \$3 OR query ILIKE \$3\) ORDER BY created_at DESC, id LIMIT \$4 OFFSET \$5`).
		WithArgs("C", 60.0, "%lego%", 10, 5).
		WillReturnRows(pgxmock.NewRows(scanColumns).
			AddRow(scanRow(sampleRecord(3))...).
			AddRow(scanRow(sampleRecord(2))...))

	got, err := s.ListScans(context.Background(), ScanFilter{
		Grade: model.GradeC, MinScore: 60, Query: "lego", Limit: 10, Offset: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "scan-03", got[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListScans_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM scans WHERE true ORDER BY created_at DESC, id LIMIT \$1$`).
		WithArgs(DefaultListLimit).
		WillReturnRows(pgxmock.NewRows(scanColumns))

	got, err := s.ListScans(context.Background(), ScanFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteScan(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM scans WHERE id = \$1`).
		WithArgs("scan-01").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM scans WHERE id = \$1`).
		WithArgs("scan-01").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, s.DeleteScan(context.Background(), "scan-01"))
	require.ErrorIs(t, s.DeleteScan(context.Background(), "scan-01"), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

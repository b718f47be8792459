package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/vest-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
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
CREATE TABLE IF NOT EXISTS scans (
	id             TEXT PRIMARY KEY,
	parent_id      TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	item_name      TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	query          TEXT NOT NULL,
	tier           INTEGER NOT NULL DEFAULT 1,
	buy_price      DOUBLE PRECISION NOT NULL,
	list_price     DOUBLE PRECISION NOT NULL,
	score          DOUBLE PRECISION NOT NULL,
	grade          TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	net_profit     DOUBLE PRECISION NOT NULL,
	roi            DOUBLE PRECISION NOT NULL,
	payload        JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_scans_grade ON scans(grade);
`

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

func (s *PostgresStore) SaveScan(ctx context.Context, rec ScanRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scans (id, parent_id, created_at, item_name, category, query, tier,
			buy_price, list_price, score, grade, recommendation, net_profit, roi, payload)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (id) DO UPDATE SET
			buy_price = EXCLUDED.buy_price, list_price = EXCLUDED.list_price,
			score = EXCLUDED.score, grade = EXCLUDED.grade,
			recommendation = EXCLUDED.recommendation, net_profit = EXCLUDED.net_profit,
			roi = EXCLUDED.roi, payload = EXCLUDED.payload`,
		rec.ID, rec.ParentID, rec.CreatedAt.UTC(), rec.ItemName, rec.Category, rec.Query, rec.Tier,
		rec.BuyPrice, rec.ListPrice, rec.Score, string(rec.Grade), string(rec.Recommendation),
		rec.NetProfit, float64(rec.ROI), payloadOrNull(rec.Payload),
	)
	return eris.Wrapf(err, "postgres: save scan %s", rec.ID)
}

const postgresSelect = `SELECT id, parent_id, created_at, item_name, category, query, tier,
	buy_price, list_price, score, grade, recommendation, net_profit, roi, payload FROM scans`

func (s *PostgresStore) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	rec, err := scanPgRecord(s.pool.QueryRow(ctx, postgresSelect+` WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get scan %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get scan %s", id)
	}
	return rec, nil
}

func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]ScanRecord, error) {
	query := postgresSelect + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Grade != "" {
		query += fmt.Sprintf(` AND grade = $%d`, argIdx)
		args = append(args, string(filter.Grade))
		argIdx++
	}
	if filter.MinScore > 0 {
		query += fmt.Sprintf(` AND score >= $%d`, argIdx)
		args = append(args, filter.MinScore)
		argIdx++
	}
	if filter.Query != "" {
		query += fmt.Sprintf(` AND (item_name ILIKE $%d OR query ILIKE $%d)`, argIdx, argIdx)
		args = append(args, "%"+filter.Query+"%")
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, filter.limit())
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list scans")
	}
	defer rows.Close()

	var out []ScanRecord
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan row")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list scans iterate")
}

func (s *PostgresStore) DeleteScan(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM scans WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete scan %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: delete scan %s", id)
	}
	return nil
}

func scanPgRecord(row pgx.Row) (*ScanRecord, error) {
	var (
		rec              ScanRecord
		grade, recommend string
		roi              float64
		payload          []byte
	)
	err := row.Scan(&rec.ID, &rec.ParentID, &rec.CreatedAt, &rec.ItemName, &rec.Category, &rec.Query, &rec.Tier,
		&rec.BuyPrice, &rec.ListPrice, &rec.Score, &grade, &recommend, &rec.NetProfit, &roi, &payload)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.Grade = model.Grade(grade)
	rec.Recommendation = model.Recommendation(recommend)
	rec.ROI = model.Ratio(roi)
	if len(payload) > 0 && string(payload) != "null" {
		rec.Payload = payload
	}
	return &rec, nil
}

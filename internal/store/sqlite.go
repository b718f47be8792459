package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/vest-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id             TEXT PRIMARY KEY,
	parent_id      TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL,
	item_name      TEXT NOT NULL,
	category       TEXT NOT NULL DEFAULT '',
	query          TEXT NOT NULL,
	tier           INTEGER NOT NULL DEFAULT 1,
	buy_price      REAL NOT NULL,
	list_price     REAL NOT NULL,
	score          REAL NOT NULL,
	grade          TEXT NOT NULL,
	recommendation TEXT NOT NULL,
	net_profit     REAL NOT NULL,
	roi            REAL NOT NULL,
	payload        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
CREATE INDEX IF NOT EXISTS idx_scans_grade ON scans(grade);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveScan(ctx context.Context, rec ScanRecord) error {
	if err := validate(rec); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scans (id, parent_id, created_at, item_name, category, query, tier,
			buy_price, list_price, score, grade, recommendation, net_profit, roi, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			buy_price = excluded.buy_price, list_price = excluded.list_price,
			score = excluded.score, grade = excluded.grade,
			recommendation = excluded.recommendation, net_profit = excluded.net_profit,
			roi = excluded.roi, payload = excluded.payload`,
		rec.ID, rec.ParentID, rec.CreatedAt.UTC(), rec.ItemName, rec.Category, rec.Query, rec.Tier,
		rec.BuyPrice, rec.ListPrice, rec.Score, string(rec.Grade), string(rec.Recommendation),
		rec.NetProfit, float64(rec.ROI), string(payloadOrNull(rec.Payload)),
	)
	return eris.Wrapf(err, "sqlite: save scan %s", rec.ID)
}

const sqliteSelect = `SELECT id, parent_id, created_at, item_name, category, query, tier,
	buy_price, list_price, score, grade, recommendation, net_profit, roi, payload FROM scans`

func (s *SQLiteStore) GetScan(ctx context.Context, id string) (*ScanRecord, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get scan %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get scan %s", id)
	}
	return rec, nil
}

func (s *SQLiteStore) ListScans(ctx context.Context, filter ScanFilter) ([]ScanRecord, error) {
	query := sqliteSelect + ` WHERE 1=1`
	var args []any

	if filter.Grade != "" {
		query += ` AND grade = ?`
		args = append(args, string(filter.Grade))
	}
	if filter.MinScore > 0 {
		query += ` AND score >= ?`
		args = append(args, filter.MinScore)
	}
	if filter.Query != "" {
		query += ` AND (item_name LIKE ? OR query LIKE ?)`
		like := "%" + filter.Query + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, filter.limit())

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list scans")
	}
	defer rows.Close() //nolint:errcheck

	var out []ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan row")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list scans iterate")
}

func (s *SQLiteStore) DeleteScan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scans WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete scan %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: delete scan %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*ScanRecord, error) {
	var (
		rec              ScanRecord
		grade, recommend string
		roi              float64
		payload          string
		createdAt        time.Time
	)
	err := row.Scan(&rec.ID, &rec.ParentID, &createdAt, &rec.ItemName, &rec.Category, &rec.Query, &rec.Tier,
		&rec.BuyPrice, &rec.ListPrice, &rec.Score, &grade, &recommend, &rec.NetProfit, &roi, &payload)
	if err != nil {
		return nil, err
	}
	rec.CreatedAt = createdAt.UTC()
	rec.Grade = model.Grade(grade)
	rec.Recommendation = model.Recommendation(recommend)
	rec.ROI = model.Ratio(roi)
	if payload != "" && payload != "null" {
		rec.Payload = []byte(payload)
	}
	return &rec, nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/valuation-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS assessments (
	id            TEXT PRIMARY KEY,
	company       TEXT NOT NULL,
	industry_code TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT 'cli',
	grade         TEXT NOT NULL,
	mean_value    REAL NOT NULL DEFAULT 0,
	input         TEXT NOT NULL,
	result        TEXT NOT NULL,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessments_company ON assessments(company);
CREATE INDEX IF NOT EXISTS idx_assessments_industry_code ON assessments(industry_code);
CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
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

// CreateAssessment inserts a. Missing IDs and timestamps are filled in.
func (s *SQLiteStore) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	prepareNew(a)

	inputJSON, resultJSON, err := marshalAssessment(a)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal assessment")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, company, industry_code, source, grade, mean_value, input, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Company, a.IndustryCode(), string(a.Source), string(a.Result.Grade), a.Result.Valuation.Mean,
		string(inputJSON), string(resultJSON), a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert assessment %s", a.ID)
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, company, source, input, result, created_at, updated_at FROM assessments WHERE id = ?`,
		id,
	)
	a, err := scanAssessment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT id, company, source, input, result, created_at, updated_at FROM assessments WHERE 1=1`
	var args []any

	if filter.Company != "" {
		query += ` AND lower(company) LIKE ?`
		args = append(args, "%"+strings.ToLower(filter.Company)+"%")
	}
	if filter.IndustryCode != "" {
		query += ` AND industry_code = ?`
		args = append(args, filter.IndustryCode)
	}
	if filter.Grade != "" {
		query += ` AND grade = ?`
		args = append(args, string(filter.Grade))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, string(filter.Source))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limitOrDefault(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list assessments iterate")
}

func (s *SQLiteStore) DeleteAssessment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM assessments WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete assessment %s", id)
	}
	return checkRowsAffected(res, id)
}

// helpers

func prepareNew(a *model.Assessment) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Source == "" {
		a.Source = model.SourceCLI
	}
}

func marshalAssessment(a *model.Assessment) (input, result []byte, err error) {
	if input, err = json.Marshal(a.Input); err != nil {
		return nil, nil, err
	}
	if result, err = json.Marshal(a.Result); err != nil {
		return nil, nil, err
	}
	return input, result, nil
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: assessment %s", id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAssessment(row scannable) (*model.Assessment, error) {
	var (
		a                     model.Assessment
		source                string
		inputJSON, resultJSON string
	)
	if err := row.Scan(&a.ID, &a.Company, &source, &inputJSON, &resultJSON, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Source = model.Source(source)
	if err := unmarshalAssessment(&a, []byte(inputJSON), []byte(resultJSON)); err != nil {
		return nil, err
	}
	return &a, nil
}

func unmarshalAssessment(a *model.Assessment, input, result []byte) error {
	if err := json.Unmarshal(input, &a.Input); err != nil {
		return eris.Wrap(err, "unmarshal input")
	}
	if err := json.Unmarshal(result, &a.Result); err != nil {
		return eris.Wrap(err, "unmarshal result")
	}
	return nil
}

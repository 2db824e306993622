package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/valuation-cli/internal/db"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/resilience"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	retry   resilience.RetryConfig
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const assessmentColumns = `id, company, source, input, result, created_at, updated_at`

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"insert_assessment": `INSERT INTO assessments (id, company, industry_code, source, grade, mean_value, input, result, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"get_assessment":    `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`,
	"delete_assessment": `DELETE FROM assessments WHERE id = $1`,
}

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
				// Table may not exist before the first migrate.
				var pgErr interface{ SQLState() string }
				if errors.As(err, &pgErr) && pgErr.SQLState() == "42P01" {
					continue
				}
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
	return &PostgresStore{pool: pool, closeFn: pool.Close, retry: storeRetry()}, nil
}

// newPostgresWithPool wraps an existing pool; the caller owns its lifetime.
func newPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, retry: storeRetry()}
}

func storeRetry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.LogRetry("postgres: store")
	return cfg
}

// Pool returns the underlying database pool so the industry provider can
// share it.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	company       TEXT NOT NULL,
	industry_code TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL DEFAULT 'cli',
	grade         TEXT NOT NULL,
	mean_value    DOUBLE PRECISION NOT NULL DEFAULT 0,
	input         JSONB NOT NULL,
	result        JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_assessments_company ON assessments(lower(company));
CREATE INDEX IF NOT EXISTS idx_assessments_industry_code ON assessments(industry_code);
CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
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

func (s *PostgresStore) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	prepareNew(a)

	inputJSON, resultJSON, err := marshalAssessment(a)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assessment")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, company, industry_code, source, grade, mean_value, input, result, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.Company, a.IndustryCode(), string(a.Source), string(a.Result.Grade), a.Result.Valuation.Mean,
		inputJSON, resultJSON, a.CreatedAt, a.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert assessment %s", a.ID)
}

func (s *PostgresStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	a, err := resilience.DoVal(ctx, s.retry, func(ctx context.Context) (*model.Assessment, error) {
		return scanPostgresAssessment(s.pool.QueryRow(ctx,
			`SELECT `+assessmentColumns+` FROM assessments WHERE id = $1`, id))
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get assessment %s", id)
	}
	return a, nil
}

func (s *PostgresStore) ListAssessments(ctx context.Context, filter AssessmentFilter) ([]model.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Company != "" {
		query += fmt.Sprintf(` AND company ILIKE $%d`, argIdx)
		args = append(args, "%"+filter.Company+"%")
		argIdx++
	}
	if filter.IndustryCode != "" {
		query += fmt.Sprintf(` AND industry_code = $%d`, argIdx)
		args = append(args, filter.IndustryCode)
		argIdx++
	}
	if filter.Grade != "" {
		query += fmt.Sprintf(` AND grade = $%d`, argIdx)
		args = append(args, string(filter.Grade))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, string(filter.Source))
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d`, argIdx)
	args = append(args, limitOrDefault(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	return resilience.DoVal(ctx, s.retry, func(ctx context.Context) ([]model.Assessment, error) {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: list assessments")
		}
		defer rows.Close()

		out := []model.Assessment{}
		for rows.Next() {
			a, err := scanPostgresAssessment(rows)
			if err != nil {
				return nil, eris.Wrap(err, "postgres: scan assessment")
			}
			out = append(out, *a)
		}
		return out, eris.Wrap(rows.Err(), "postgres: list assessments iterate")
	})
}

func (s *PostgresStore) DeleteAssessment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete assessment %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: assessment %s", id)
	}
	return nil
}

func scanPostgresAssessment(row scannable) (*model.Assessment, error) {
	var (
		a                     model.Assessment
		source                string
		inputJSON, resultJSON []byte
	)
	if err := row.Scan(&a.ID, &a.Company, &source, &inputJSON, &resultJSON, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Source = model.Source(source)
	if err := unmarshalAssessment(&a, inputJSON, resultJSON); err != nil {
		return nil, err
	}
	return &a, nil
}

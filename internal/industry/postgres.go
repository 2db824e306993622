package industry

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/db"
	"github.com/sells-group/valuation-cli/internal/resilience"
)

// PostgresProvider reads multipliers from the industry_multipliers table.
type PostgresProvider struct {
	pool  db.Pool
	retry resilience.RetryConfig
}

// NewPostgresProvider creates a provider over pool. Returns nil if pool is nil.
func NewPostgresProvider(pool db.Pool) *PostgresProvider {
	if pool == nil {
		return nil
	}
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.LogRetry("industry: lookup")
	return &PostgresProvider{pool: pool, retry: cfg}
}

const industryMigration = `
CREATE TABLE IF NOT EXISTS industry_multipliers (
	code       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	low        DOUBLE PRECISION NOT NULL,
	avg        DOUBLE PRECISION NOT NULL,
	high       DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the industry_multipliers table.
func (p *PostgresProvider) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, industryMigration)
	return eris.Wrap(err, "industry: migrate")
}

// Lookup resolves code against the table, falling back to the 2-digit
// sector row and then DefaultMatch.
func (p *PostgresProvider) Lookup(ctx context.Context, code string) (Match, error) {
	for _, lvl := range Levels(code) {
		e, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (*Entry, error) {
			return p.queryCode(ctx, lvl.Code)
		})
		if err != nil {
			return Match{}, eris.Wrapf(err, "industry: lookup %s", lvl.Code)
		}
		if e != nil {
			return Match{Multiplier: e.Multiplier, Code: e.Code, Title: e.Title, Resolution: lvl.Resolution}, nil
		}
	}

	zap.L().Debug("industry: no multiplier row, using default", zap.String("code", code))
	return DefaultMatch(), nil
}

// queryCode returns nil when no row exists.
func (p *PostgresProvider) queryCode(ctx context.Context, code string) (*Entry, error) {
	var e Entry
	err := p.pool.QueryRow(ctx,
		`SELECT code, title, low, avg, high FROM industry_multipliers WHERE code = $1`, code,
	).Scan(&e.Code, &e.Title, &e.Low, &e.Avg, &e.High)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// List returns all rows ordered by code length then code, so sectors come first.
func (p *PostgresProvider) List(ctx context.Context) ([]Entry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT code, title, low, avg, high FROM industry_multipliers ORDER BY length(code), code`)
	if err != nil {
		return nil, eris.Wrap(err, "industry: list")
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Code, &e.Title, &e.Low, &e.Avg, &e.High); err != nil {
			return nil, eris.Wrap(err, "industry: scan row")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "industry: iterate rows")
}

// Load upserts entries into the table, typically from a Table.
func (p *PostgresProvider) Load(ctx context.Context, entries []Entry) (int64, error) {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{e.Code, e.Title, e.Low, e.Avg, e.High}
	}
	n, err := db.BulkUpsert(ctx, p.pool, db.UpsertSpec{
		Table:        "industry_multipliers",
		Columns:      []string{"code", "title", "low", "avg", "high"},
		ConflictKeys: []string{"code"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "industry: load")
	}

	zap.L().Info("industry: loaded multipliers", zap.Int64("rows", n))
	return n, nil
}

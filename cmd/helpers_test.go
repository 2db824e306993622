//go:build !integration

package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/industry"
	"github.com/sells-group/valuation-cli/internal/questionnaire"
	"github.com/sells-group/valuation-cli/internal/store"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// newTestEnv builds an appEnv over a temp SQLite store and the built-in
// industry table.
func newTestEnv(t *testing.T) *appEnv {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))

	qs, err := questionnaire.Load()
	require.NoError(t, err)
	table, err := industry.DefaultTable()
	require.NoError(t, err)

	env := &appEnv{
		Store:     st,
		Questions: qs,
		Table:     table,
		Service:   valuation.NewService(table, nil),
	}
	t.Cleanup(env.Close)
	return env
}

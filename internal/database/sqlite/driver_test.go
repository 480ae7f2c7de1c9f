package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

func openTestHandle(t *testing.T) *Handle {
	t.Helper()
	h, err := Connect(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestExecReportsRowsAffected(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	_, err := h.Exec(ctx, "CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT)", database.ExecOptions{})
	require.NoError(t, err)

	sr, err := h.Exec(ctx, "INSERT INTO people (name) VALUES ('ann'), ('bob')", database.ExecOptions{})
	require.NoError(t, err)
	assert.False(t, sr.HasRows)
	assert.EqualValues(t, 2, sr.RowsAffected)
}

func TestQueryReturnsCursor(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	_, err := h.Exec(ctx, "CREATE TABLE nums (n INTEGER)", database.ExecOptions{})
	require.NoError(t, err)
	_, err = h.Exec(ctx, "INSERT INTO nums VALUES (1), (2), (3)", database.ExecOptions{})
	require.NoError(t, err)

	sr, err := h.Query(ctx, "SELECT n FROM nums ORDER BY n", database.ExecOptions{})
	require.NoError(t, err)
	require.True(t, sr.HasRows)

	tbl, err := database.Drain(sr.Rows, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"n"}, tbl.Columns)
	assert.Equal(t, [][]string{{"1"}, {"2"}, {"3"}}, tbl.Rows)
}

func TestQueryPreparedBindsArguments(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	_, err := h.Exec(ctx, "CREATE TABLE kv (k TEXT, v TEXT)", database.ExecOptions{})
	require.NoError(t, err)
	_, err = h.ExecPrepared(ctx, "INSERT INTO kv VALUES (?, ?)", database.ExecOptions{}, "color", "green")
	require.NoError(t, err)

	sr, err := h.QueryPrepared(ctx, "SELECT v FROM kv WHERE k = ?", database.ExecOptions{}, "color")
	require.NoError(t, err)
	tbl, err := database.Drain(sr.Rows, 0)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "green", tbl.Rows[0][0])
}

func TestSavepointRollbackUndoesWork(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	_, err := h.Exec(ctx, "CREATE TABLE t (n INTEGER)", database.ExecOptions{})
	require.NoError(t, err)

	require.NoError(t, h.CreateSavepoint(ctx, "sp_one"))
	_, err = h.Exec(ctx, "INSERT INTO t VALUES (1)", database.ExecOptions{})
	require.NoError(t, err)
	require.NoError(t, h.RollbackSavepoint(ctx, "sp_one"))
	require.NoError(t, h.ReleaseSavepoint(ctx, "sp_one"))

	sr, err := h.Query(ctx, "SELECT count(*) FROM t", database.ExecOptions{})
	require.NoError(t, err)
	tbl, err := database.Drain(sr.Rows, 0)
	require.NoError(t, err)
	assert.Equal(t, "0", tbl.Rows[0][0])
}

func TestAutocommitToggle(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	assert.True(t, h.Autocommit())
	require.NoError(t, h.SetAutocommit(ctx, false))
	assert.False(t, h.Autocommit())

	_, err := h.Exec(ctx, "CREATE TABLE t (n INTEGER)", database.ExecOptions{})
	require.NoError(t, err)
	_, err = h.Exec(ctx, "INSERT INTO t VALUES (1)", database.ExecOptions{})
	require.NoError(t, err)

	require.NoError(t, h.SetAutocommit(ctx, true))
	assert.True(t, h.Autocommit())

	sr, err := h.Query(ctx, "SELECT count(*) FROM t", database.ExecOptions{})
	require.NoError(t, err)
	tbl, err := database.Drain(sr.Rows, 0)
	require.NoError(t, err)
	assert.Equal(t, "1", tbl.Rows[0][0])
}

func TestUnsupportedOperations(t *testing.T) {
	h := openTestHandle(t)
	ctx := context.Background()

	assert.True(t, errors.Is(h.SetCurrentSchema(ctx, "other"), database.ErrUnsupported))
	assert.True(t, errors.Is(h.CancelInFlight(ctx), database.ErrUnsupported))

	schema, err := h.CurrentSchema(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", schema)
}

func TestCapabilities(t *testing.T) {
	h := openTestHandle(t)
	caps := h.Capabilities()

	assert.Equal(t, database.FamilySQLite, caps.Family)
	assert.True(t, caps.SupportsSavepoints)
	assert.True(t, caps.LenientSessionDirectives)
	assert.Nil(t, caps.ErrorReader)
	assert.Equal(t, "?", caps.Placeholder(1))
}

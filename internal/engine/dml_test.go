package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

func runDML(t *testing.T, ec *Context, sql string) *Result {
	t.Helper()
	res, err := (&dmlCommand{}).Execute(context.Background(), ec, Classify(sql, nil))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestDMLSuccessWithTableMessage(t *testing.T) {
	h := newFakeHandle()
	h.script(&database.StatementResult{RowsAffected: 3}, nil)
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "UPDATE accounts SET balance = 0")

	assert.True(t, res.Success)
	assert.True(t, res.HasRowCount)
	assert.EqualValues(t, 3, res.RowsAffected)
	require.NotEmpty(t, res.Messages)
	assert.Contains(t, res.Messages[0], "3 row(s) affected in accounts")
	assert.True(t, h.savepointBalance())
	assert.Len(t, h.released, 1)
}

func TestDMLFailureMessageOrder(t *testing.T) {
	h := newFakeHandle()
	h.script(nil, errors.New("constraint violation"))
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "INSERT INTO T VALUES (1)")

	assert.False(t, res.Success)
	require.Len(t, res.Messages, 2)
	// Verb-specific phrase first, underlying error second.
	assert.Contains(t, res.Messages[0], "INSERT INTO T")
	assert.Contains(t, res.Messages[1], "constraint violation")
	assert.True(t, h.savepointBalance())
	assert.Len(t, h.rolledBack, 1)
}

func TestDMLFailureWithoutResolvableTable(t *testing.T) {
	h := newFakeHandle()
	h.script(nil, errors.New("boom"))
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "DELETE WHERE broken")

	assert.False(t, res.Success)
	assert.Contains(t, res.Messages[0], "DELETE failed")
}

func TestDMLMissingLOBFileFailsBeforeExecution(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "INSERT INTO docs (body) VALUES ({$blobfile=/no/such/file.bin})")

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Contains(t, res.Error.Message, "/no/such/file.bin")
	// Never reached the database, no savepoint involved.
	assert.Empty(t, h.execSQL)
	assert.Empty(t, h.created)
}

func TestDMLLOBFileBinding(t *testing.T) {
	dir := t.TempDir()
	blob := filepath.Join(dir, "img.bin")
	clob := filepath.Join(dir, "note.txt")
	require.NoError(t, os.WriteFile(blob, []byte{0x01, 0x02}, 0o600))
	require.NoError(t, os.WriteFile(clob, []byte("hello"), 0o600))

	h := newFakeHandle()
	h.script(&database.StatementResult{RowsAffected: 1}, nil)
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "INSERT INTO docs (img, note) VALUES ({$blobfile="+blob+"}, {$clobfile="+clob+"})")

	assert.True(t, res.Success)
	assert.Equal(t, 1, h.preparedRuns)
	require.Len(t, h.execSQL, 1)
	assert.Equal(t, "INSERT INTO docs (img, note) VALUES (?, ?)", h.execSQL[0])
	require.Len(t, h.execArgs[0], 2)
	assert.Equal(t, []byte{0x01, 0x02}, h.execArgs[0][0])
	assert.Equal(t, "hello", h.execArgs[0][1])
}

func TestDMLPreparedCacheReuse(t *testing.T) {
	h := newFakeHandle()
	h.script(&database.StatementResult{RowsAffected: 1}, nil)
	ec := testContext(h, testSettings())
	ec.Session.RegisterPrepared("DELETE FROM logs")

	runDML(t, ec, "DELETE FROM logs")

	assert.Equal(t, 1, h.preparedRuns)
}

func TestDMLPlainTextPath(t *testing.T) {
	h := newFakeHandle()
	h.script(&database.StatementResult{RowsAffected: 1}, nil)
	ec := testContext(h, testSettings())

	runDML(t, ec, "DELETE FROM logs")

	assert.Equal(t, 0, h.preparedRuns)
}

func TestDMLFamilyReportingResultsForMutations(t *testing.T) {
	h := newFakeHandle()
	h.caps.ReportsResultsForDML = true
	rs := &fakeResultSet{columns: []string{"id"}, rows: [][]any{{1}, {2}}}
	h.script(&database.StatementResult{Rows: rs, HasRows: true}, nil)
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "DELETE FROM logs")

	assert.True(t, res.Success)
	require.NotNil(t, res.Table)
	assert.Len(t, res.Table.Rows, 2)
	assert.False(t, res.HasRowCount)
	assert.True(t, rs.closed)
}

func TestDMLDiscardsUnexpectedRows(t *testing.T) {
	h := newFakeHandle()
	rs := &fakeResultSet{columns: []string{"id"}, rows: [][]any{{1}}}
	h.script(&database.StatementResult{Rows: rs, HasRows: true, RowsAffected: 0}, nil)
	ec := testContext(h, testSettings())

	res := runDML(t, ec, "DELETE FROM logs")

	assert.True(t, res.Success)
	assert.Nil(t, res.Table)
	assert.True(t, rs.closed)
}

func TestBindLOBFilesNoDirectives(t *testing.T) {
	sql := "INSERT INTO t VALUES (1)"
	out, args, err := bindLOBFiles(sql, func(int) string { return "?" })
	require.NoError(t, err)
	assert.Equal(t, sql, out)
	assert.Nil(t, args)
}

func TestBindLOBFilesQuotedPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	out, args, err := bindLOBFiles("UPDATE t SET c = {$clobfile='"+path+"'}", func(i int) string { return "$1" })
	require.NoError(t, err)
	assert.Equal(t, "UPDATE t SET c = $1", out)
	require.Len(t, args, 1)
	assert.Equal(t, "x", args[0])
}

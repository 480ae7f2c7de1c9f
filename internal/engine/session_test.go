package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

func runSession(t *testing.T, ec *Context, sql string) *Result {
	t.Helper()
	res, err := (&sessionCommand{}).Execute(context.Background(), ec, Classify(sql, nil))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestSessionAutocommitToggles(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	off := runSession(t, ec, "SET autocommit = off")
	on := runSession(t, ec, "SET autocommit = on")

	assert.True(t, off.Success)
	assert.True(t, on.Success)
	// Applied through the engine API, never sent as SQL.
	assert.Empty(t, h.execSQL)
	assert.Equal(t, []bool{false, true}, h.autocommitCalls)
	// Distinct confirmation messages.
	require.Len(t, off.Messages, 1)
	require.Len(t, on.Messages, 1)
	assert.NotEqual(t, off.Messages[0], on.Messages[0])
}

func TestSessionAutocommitSpellings(t *testing.T) {
	for _, sql := range []string{"SET AUTOCOMMIT TO TRUE", "set autocommit 1", "SET autocommit=ON"} {
		h := newFakeHandle()
		h.autocommit = false
		ec := testContext(h, testSettings())
		res := runSession(t, ec, sql)
		assert.True(t, res.Success, "sql: %q", sql)
		assert.True(t, h.autocommit, "sql: %q", sql)
	}
}

func TestSessionMaxRows(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET maxrows = 500")

	assert.True(t, res.Success)
	assert.Equal(t, 500, ec.Settings.MaxRows)
	assert.Empty(t, h.execSQL)
}

func TestSessionTimeout(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	runSession(t, ec, "SET timeout 30")
	assert.Equal(t, 30*time.Second, ec.Settings.Timeout)
}

func TestSessionFetchSize(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	runSession(t, ec, "SET fetchsize = 1000")
	assert.Equal(t, 1000, ec.Settings.FetchSize)
}

func TestSessionSchemaChangeNotifiesResolvedValue(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())
	notifier := &recordingNotifier{}
	ec.Notify = notifier

	res := runSession(t, ec, "SET schema sales")

	assert.True(t, res.Success)
	assert.Equal(t, []string{"sales"}, h.schemaSets)
	// The notification carries what the database resolved, not what was
	// requested.
	assert.Equal(t, []string{"sales_resolved"}, notifier.schemas)
	assert.Contains(t, res.Messages[0], "sales_resolved")
}

func TestSessionUseStatement(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())
	notifier := &recordingNotifier{}
	ec.Notify = notifier

	res := runSession(t, ec, "USE warehouse")

	assert.True(t, res.Success)
	assert.Equal(t, []string{"warehouse"}, h.schemaSets)
	assert.Equal(t, []string{"warehouse_resolved"}, notifier.schemas)
}

func TestSessionSchemaChangeFailure(t *testing.T) {
	h := newFakeHandle()
	h.setSchemaErr = errors.New("schema does not exist")
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET schema nope")

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
}

func TestSessionPropertyToggle(t *testing.T) {
	h := newFakeHandle()
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET showplan on")

	assert.True(t, res.Success)
	assert.Equal(t, "on", ec.Session.Property("showplan"))
	assert.Empty(t, h.execSQL)
}

func TestSessionPassthroughForUnknownDirective(t *testing.T) {
	h := newFakeHandle()
	h.script(&database.StatementResult{}, nil)
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET work_mem = '64MB'")

	assert.True(t, res.Success)
	require.Len(t, h.execSQL, 1)
	assert.Equal(t, "SET work_mem = '64MB'", h.execSQL[0])
}

func TestSessionPassthroughErrorLenientFamily(t *testing.T) {
	h := newFakeHandle()
	h.caps.LenientSessionDirectives = true
	h.script(nil, errors.New("unknown directive"))
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET obscure_toggle on off sideways")

	// Downgraded to a warning for this family.
	assert.True(t, res.Success)
	assert.Nil(t, res.Error)
	require.Len(t, res.Messages, 1)
	assert.Contains(t, res.Messages[0], "Warning")
}

func TestSessionPassthroughErrorStrictFamily(t *testing.T) {
	h := newFakeHandle()
	h.script(nil, errors.New("unknown directive"))
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "SET obscure_toggle on off sideways")

	assert.False(t, res.Success)
	require.NotNil(t, res.Error)
}

func TestSessionSchemaUnsupportedFamilyFallsThrough(t *testing.T) {
	h := newFakeHandle()
	h.caps.SupportsSetSchema = false
	h.script(&database.StatementResult{}, nil)
	ec := testContext(h, testSettings())

	res := runSession(t, ec, "USE other")

	// Sent through unmodified instead of the native path.
	assert.True(t, res.Success)
	assert.Empty(t, h.schemaSets)
	require.Len(t, h.execSQL, 1)
}

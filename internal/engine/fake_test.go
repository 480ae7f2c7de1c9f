package engine

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// fakeResultSet serves scripted rows and counts Close calls.
type fakeResultSet struct {
	columns []string
	rows    [][]any
	idx     int
	readErr error
	closed  bool
}

func (f *fakeResultSet) Columns() []string { return f.columns }

func (f *fakeResultSet) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeResultSet) Values() ([]any, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows[f.idx-1], nil
}

func (f *fakeResultSet) Err() error   { return nil }
func (f *fakeResultSet) Close() error { f.closed = true; return nil }

// fakeReader is a scripted ErrorReader that records the hints it was given.
type fakeReader struct {
	detail  *database.ErrorDetail
	err     error
	objType string
	objName string
	execErr error
	calls   int
}

func (r *fakeReader) ReadDiagnostics(ctx context.Context, execErr error, objType, objName string) (*database.ErrorDetail, error) {
	r.calls++
	r.execErr = execErr
	r.objType = objType
	r.objName = objName
	return r.detail, r.err
}

// step is one scripted execution outcome.
type step struct {
	result *database.StatementResult
	err    error
}

// fakeHandle is a scripted database.Handle that records every call, used to
// verify execution paths and the savepoint accounting invariant.
type fakeHandle struct {
	caps  database.Capabilities
	steps []step

	// onExec runs at the start of every execution call, standing in for
	// events that happen while the engine is blocked in the database.
	onExec func()

	execSQL      []string
	execArgs     [][]any
	preparedRuns int

	created    []string
	released   []string
	rolledBack []string

	savepointErr error

	autocommit      bool
	autocommitCalls []bool
	autocommitErr   error

	schema       string
	setSchemaErr error
	schemaSets   []string

	cancelErr    error
	cancelCalled bool

	closed bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		caps: database.Capabilities{
			Family:             "fake",
			SupportsSavepoints: true,
			SupportsSetSchema:  true,
			Placeholder:        func(int) string { return "?" },
		},
		autocommit: true,
		schema:     "public",
	}
}

func (h *fakeHandle) script(result *database.StatementResult, err error) {
	h.steps = append(h.steps, step{result: result, err: err})
}

func (h *fakeHandle) pop() (*database.StatementResult, error) {
	if h.onExec != nil {
		h.onExec()
	}
	if len(h.steps) == 0 {
		return &database.StatementResult{}, nil
	}
	s := h.steps[0]
	h.steps = h.steps[1:]
	return s.result, s.err
}

func (h *fakeHandle) Exec(ctx context.Context, sql string, opts database.ExecOptions) (*database.StatementResult, error) {
	h.execSQL = append(h.execSQL, sql)
	h.execArgs = append(h.execArgs, nil)
	return h.pop()
}

func (h *fakeHandle) Query(ctx context.Context, sql string, opts database.ExecOptions) (*database.StatementResult, error) {
	h.execSQL = append(h.execSQL, sql)
	h.execArgs = append(h.execArgs, nil)
	return h.pop()
}

func (h *fakeHandle) ExecPrepared(ctx context.Context, sql string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	h.preparedRuns++
	h.execSQL = append(h.execSQL, sql)
	h.execArgs = append(h.execArgs, args)
	return h.pop()
}

func (h *fakeHandle) QueryPrepared(ctx context.Context, sql string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	h.preparedRuns++
	h.execSQL = append(h.execSQL, sql)
	h.execArgs = append(h.execArgs, args)
	return h.pop()
}

func (h *fakeHandle) CreateSavepoint(ctx context.Context, name string) error {
	if h.savepointErr != nil {
		return h.savepointErr
	}
	h.created = append(h.created, name)
	return nil
}

func (h *fakeHandle) ReleaseSavepoint(ctx context.Context, name string) error {
	h.released = append(h.released, name)
	return nil
}

func (h *fakeHandle) RollbackSavepoint(ctx context.Context, name string) error {
	h.rolledBack = append(h.rolledBack, name)
	return nil
}

func (h *fakeHandle) Autocommit() bool { return h.autocommit }

func (h *fakeHandle) SetAutocommit(ctx context.Context, on bool) error {
	if h.autocommitErr != nil {
		return h.autocommitErr
	}
	h.autocommit = on
	h.autocommitCalls = append(h.autocommitCalls, on)
	return nil
}

func (h *fakeHandle) CurrentSchema(ctx context.Context) (string, error) {
	return h.schema, nil
}

func (h *fakeHandle) SetCurrentSchema(ctx context.Context, schema string) error {
	if h.setSchemaErr != nil {
		return h.setSchemaErr
	}
	h.schemaSets = append(h.schemaSets, schema)
	// Simulates server-side resolution; what was requested is not echoed
	// back verbatim.
	h.schema = schema + "_resolved"
	return nil
}

func (h *fakeHandle) CancelInFlight(ctx context.Context) error {
	h.cancelCalled = true
	return h.cancelErr
}

func (h *fakeHandle) Capabilities() database.Capabilities { return h.caps }

func (h *fakeHandle) Close() error { h.closed = true; return nil }

// savepointBalance checks the invariant that every acquired savepoint was
// resolved exactly once.
func (h *fakeHandle) savepointBalance() bool {
	return len(h.created) == len(h.released)+len(h.rolledBack)
}

func testContext(h database.Handle, settings Settings) *Context {
	ec := NewContext(h, settings, nil)
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ec.Log = logger.WithField("test", true)
	return ec
}

func testSettings() Settings {
	s := DefaultSettings()
	return s
}

package database

import (
	"context"
	"errors"
	"time"
)

// ErrUnsupported is returned (wrapped) by handles for capabilities the
// database family does not provide. Callers treat it as a degradation, not a
// statement failure.
var ErrUnsupported = errors.New("not supported by this database")

// Family identifies a database product whose quirks need specialized handling.
type Family string

const (
	FamilyPostgres Family = "postgres"
	FamilySQLite   Family = "sqlite"
)

// ExecOptions carries per-statement execution settings. Handles apply what
// they can and report what they cannot via StatementResult.OptionNotes
// instead of failing.
type ExecOptions struct {
	// MaxRows limits result materialization; zero means unlimited. Enforced
	// during draining, passed here so drivers that support server-side limits
	// can use them.
	MaxRows int
	// Timeout bounds the statement execution; zero means none.
	Timeout time.Duration
	// FetchSize is a cursor fetch-size hint.
	FetchSize int
}

// StatementResult is the raw outcome of one statement execution. Exactly one
// of Rows and RowsAffected is authoritative, selected by HasRows.
type StatementResult struct {
	Rows         ResultSet
	HasRows      bool
	RowsAffected int64
	// Warning holds a warning-level condition the server attached to an
	// otherwise successful execution (e.g. a notice), empty when none.
	Warning string
	// OptionNotes lists ExecOptions the handle could not honor.
	OptionNotes []string
}

// ResultSet is a finite, single-pass sequence of result rows. It may wrap a
// live cursor; the consumer must drain it or call Close.
type ResultSet interface {
	Columns() []string
	Next() bool
	Values() ([]any, error)
	Err() error
	Close() error
}

// ErrorDetail is the structured error information a family-specific reader
// extracts for a failed statement. Unknown fields are -1. Line and Column are
// 1-based; Offset is a 0-based character index into the text the database
// received.
type ErrorDetail struct {
	Message string
	Line    int
	Column  int
	Offset  int
}

// ErrorReader provides structured error diagnostics for one database family.
// execErr is the error the execution step returned (nil when diagnosing a
// warning); objType and objName hint at the object the statement defined.
// A nil detail with a nil error means the reader found nothing, which is
// normal for families without error introspection.
type ErrorReader interface {
	ReadDiagnostics(ctx context.Context, execErr error, objType, objName string) (*ErrorDetail, error)
}

// Capabilities describes family behavior the engine branches on. Resolved
// once per connection.
type Capabilities struct {
	Family Family

	// SupportsSavepoints reports whether the handle can create savepoints at
	// all. Individual creations may still fail (e.g. outside a transaction).
	SupportsSavepoints bool

	// ReportsResultsForDML is set for families that return cursors even for
	// mutating statements.
	ReportsResultsForDML bool

	// SupportsSetSchema reports whether the current schema / search path can
	// be changed on a live connection.
	SupportsSetSchema bool

	// OffsetFromFirstToken is set for families whose reported error positions
	// count from the first non-comment token of the sent text rather than
	// from the start of the original statement.
	OffsetFromFirstToken bool

	// LenientSessionDirectives is set for families whose unrecognized session
	// directives should be tolerated: a database-side error on sending one is
	// downgraded to a warning.
	LenientSessionDirectives bool

	// Placeholder renders the 1-based i-th bind parameter placeholder.
	Placeholder func(i int) string

	// ErrorReader is the family diagnostics strategy, nil when the family has
	// no structured error introspection.
	ErrorReader ErrorReader
}

// Handle is the capability surface the engine requires from a live database
// connection. Implementations are not safe for concurrent use; the engine
// executes one statement at a time per handle and callers sharing one must
// serialize externally.
type Handle interface {
	// Exec runs a statement expected to produce an update count. Families
	// with ReportsResultsForDML may return rows instead.
	Exec(ctx context.Context, sql string, opts ExecOptions) (*StatementResult, error)

	// Query runs a statement expected to produce exactly one cursor.
	Query(ctx context.Context, sql string, opts ExecOptions) (*StatementResult, error)

	// ExecPrepared runs a parameterized or cached-prepared statement on the
	// update-count path.
	ExecPrepared(ctx context.Context, sql string, opts ExecOptions, args ...any) (*StatementResult, error)

	// QueryPrepared runs a cached-prepared statement on the cursor path.
	QueryPrepared(ctx context.Context, sql string, opts ExecOptions, args ...any) (*StatementResult, error)

	CreateSavepoint(ctx context.Context, name string) error
	ReleaseSavepoint(ctx context.Context, name string) error
	RollbackSavepoint(ctx context.Context, name string) error

	Autocommit() bool
	SetAutocommit(ctx context.Context, on bool) error

	CurrentSchema(ctx context.Context) (string, error)
	SetCurrentSchema(ctx context.Context, schema string) error

	// CancelInFlight asks the server to interrupt the statement currently
	// executing on this handle. Invoked from a different goroutine than the
	// one blocked in execution.
	CancelInFlight(ctx context.Context) error

	Capabilities() Capabilities
	Close() error
}

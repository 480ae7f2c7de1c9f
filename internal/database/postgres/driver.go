package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// Handle implements database.Handle for PostgreSQL on a single pgx
// connection. A single physical connection is required because savepoints,
// the search path and transaction state are connection-scoped.
type Handle struct {
	conn *pgx.Conn
	caps database.Capabilities

	// tx is the open explicit transaction when autocommit is off.
	tx pgx.Tx

	// notice holds the last server notice seen during the current statement.
	notice string
}

// Connect establishes a PostgreSQL connection.
func Connect(ctx context.Context, dsn string) (*Handle, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	h := &Handle{}
	cfg.OnNotice = func(_ *pgconn.PgConn, n *pgconn.Notice) {
		h.notice = n.Message
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("ping: %w", err)
	}

	h.conn = conn
	h.caps = database.Capabilities{
		Family:               database.FamilyPostgres,
		SupportsSavepoints:   true,
		ReportsResultsForDML: false,
		SupportsSetSchema:    true,
		// PgError.Position indexes the text as sent, which has its leading
		// comments stripped by the engine.
		OffsetFromFirstToken:     true,
		LenientSessionDirectives: false,
		Placeholder:              func(i int) string { return fmt.Sprintf("$%d", i) },
		ErrorReader:              &errorReader{},
	}
	return h, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (h *Handle) q() querier {
	if h.tx != nil {
		return h.tx
	}
	return h.conn
}

// Exec runs a statement and branches on whether the server sent a row
// description: with one the cursor is returned live, without one the command
// tag's row count is reported.
func (h *Handle) Exec(ctx context.Context, sql string, opts database.ExecOptions) (*database.StatementResult, error) {
	return h.run(ctx, sql, opts)
}

// Query runs a statement expecting a cursor.
func (h *Handle) Query(ctx context.Context, sql string, opts database.ExecOptions) (*database.StatementResult, error) {
	return h.run(ctx, sql, opts)
}

// ExecPrepared runs a parameterized statement. pgx caches prepared statements
// by text on the connection, so the statement-cache reuse path and the
// bound-parameter path are the same call.
func (h *Handle) ExecPrepared(ctx context.Context, sql string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	return h.run(ctx, sql, opts, args...)
}

// QueryPrepared runs a cached-prepared statement on the cursor path.
func (h *Handle) QueryPrepared(ctx context.Context, sql string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	return h.run(ctx, sql, opts, args...)
}

func (h *Handle) run(ctx context.Context, sql string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	h.notice = ""

	cancel := func() {}
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
	}

	rows, err := h.q().Query(ctx, sql, args...)
	if err != nil {
		cancel()
		return nil, err
	}

	if len(rows.FieldDescriptions()) == 0 {
		// No row description: drain to completion for the command tag.
		rows.Close()
		cancel()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return &database.StatementResult{
			RowsAffected: rows.CommandTag().RowsAffected(),
			Warning:      h.notice,
			OptionNotes:  h.optionNotes(opts),
		}, nil
	}

	return &database.StatementResult{
		Rows:        &resultSet{rows: rows, cancel: cancel},
		HasRows:     true,
		Warning:     h.notice,
		OptionNotes: h.optionNotes(opts),
	}, nil
}

func (h *Handle) optionNotes(opts database.ExecOptions) []string {
	if opts.FetchSize > 0 {
		// Results are drained through a single portal.
		return []string{"fetch size is not applied on this connection"}
	}
	return nil
}

// CreateSavepoint creates a named savepoint. PostgreSQL only allows
// savepoints inside an explicit transaction.
func (h *Handle) CreateSavepoint(ctx context.Context, name string) error {
	if h.tx == nil {
		return fmt.Errorf("savepoint %s requires an open transaction: %w", name, database.ErrUnsupported)
	}
	_, err := h.tx.Exec(ctx, "SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (h *Handle) ReleaseSavepoint(ctx context.Context, name string) error {
	if h.tx == nil {
		return fmt.Errorf("no open transaction for savepoint %s", name)
	}
	_, err := h.tx.Exec(ctx, "RELEASE SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

func (h *Handle) RollbackSavepoint(ctx context.Context, name string) error {
	if h.tx == nil {
		return fmt.Errorf("no open transaction for savepoint %s", name)
	}
	_, err := h.tx.Exec(ctx, "ROLLBACK TO SAVEPOINT "+pgx.Identifier{name}.Sanitize())
	return err
}

// Autocommit reports whether statements run outside an explicit transaction.
func (h *Handle) Autocommit() bool {
	return h.tx == nil
}

// SetAutocommit switches autocommit mode. Turning it off opens a transaction;
// turning it on commits the open one.
func (h *Handle) SetAutocommit(ctx context.Context, on bool) error {
	if on == (h.tx == nil) {
		return nil
	}
	if on {
		if err := h.tx.Commit(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		h.tx = nil
		return nil
	}
	tx, err := h.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	h.tx = tx
	return nil
}

// CurrentSchema returns the first schema of the effective search path.
func (h *Handle) CurrentSchema(ctx context.Context) (string, error) {
	var schema string
	if err := h.conn.QueryRow(ctx, queryCurrentSchema).Scan(&schema); err != nil {
		return "", fmt.Errorf("current schema: %w", err)
	}
	return schema, nil
}

// SetCurrentSchema changes the search path for this connection.
func (h *Handle) SetCurrentSchema(ctx context.Context, schema string) error {
	_, err := h.conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{schema}.Sanitize())
	return err
}

// CancelInFlight sends a cancel request for the statement currently running
// on this connection. Safe to call from another goroutine.
func (h *Handle) CancelInFlight(ctx context.Context) error {
	return h.conn.PgConn().CancelRequest(ctx)
}

func (h *Handle) Capabilities() database.Capabilities {
	return h.caps
}

func (h *Handle) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if h.tx != nil {
		_ = h.tx.Rollback(ctx)
		h.tx = nil
	}
	return h.conn.Close(ctx)
}

type resultSet struct {
	rows   pgx.Rows
	cancel context.CancelFunc
}

func (r *resultSet) Columns() []string {
	fields := r.rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Name
	}
	return columns
}

func (r *resultSet) Next() bool {
	return r.rows.Next()
}

func (r *resultSet) Values() ([]any, error) {
	return r.rows.Values()
}

func (r *resultSet) Err() error {
	return r.rows.Err()
}

func (r *resultSet) Close() error {
	r.rows.Close()
	r.cancel()
	return nil
}

// Package sqlite implements database.Handle for SQLite through database/sql
// and mattn/go-sqlite3. SQLite exposes no structured error positions and no
// server-side cancel, so this family exercises the engine's degraded paths.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// Handle implements database.Handle for a SQLite database file.
type Handle struct {
	db   *sql.DB
	conn *sql.Conn
	caps database.Capabilities

	// tx is the open explicit transaction when autocommit is off.
	tx *sql.Tx
}

// Connect opens (or creates) a SQLite database file. A single connection is
// pinned so savepoints and transaction state stay on one physical handle.
func Connect(ctx context.Context, path string) (*Handle, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Handle{
		db:   db,
		conn: conn,
		caps: database.Capabilities{
			Family:             database.FamilySQLite,
			SupportsSavepoints: true,
			SupportsSetSchema:  false,
			// Console-style directives are dialect conveniences here; errors
			// on sending them are tolerated.
			LenientSessionDirectives: true,
			Placeholder:              func(int) string { return "?" },
			ErrorReader:              nil,
		},
	}, nil
}

// Exec runs a statement on the update-count path. SQLite never returns
// cursors for mutating statements.
func (h *Handle) Exec(ctx context.Context, sqlText string, opts database.ExecOptions) (*database.StatementResult, error) {
	return h.exec(ctx, sqlText, opts)
}

func (h *Handle) ExecPrepared(ctx context.Context, sqlText string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	return h.exec(ctx, sqlText, opts, args...)
}

func (h *Handle) exec(ctx context.Context, sqlText string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	ctx, cancel := h.withTimeout(ctx, opts)
	defer cancel()

	res, err := h.execer(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		affected = 0
	}
	return &database.StatementResult{
		RowsAffected: affected,
		OptionNotes:  h.optionNotes(opts),
	}, nil
}

func (h *Handle) execer(ctx context.Context, sqlText string, args ...any) (sql.Result, error) {
	if h.tx != nil {
		return h.tx.ExecContext(ctx, sqlText, args...)
	}
	return h.conn.ExecContext(ctx, sqlText, args...)
}

// Query runs a statement on the cursor path.
func (h *Handle) Query(ctx context.Context, sqlText string, opts database.ExecOptions) (*database.StatementResult, error) {
	return h.QueryPrepared(ctx, sqlText, opts)
}

func (h *Handle) QueryPrepared(ctx context.Context, sqlText string, opts database.ExecOptions, args ...any) (*database.StatementResult, error) {
	ctx, cancel := h.withTimeout(ctx, opts)

	var rows *sql.Rows
	var err error
	if h.tx != nil {
		rows, err = h.tx.QueryContext(ctx, sqlText, args...)
	} else {
		rows, err = h.conn.QueryContext(ctx, sqlText, args...)
	}
	if err != nil {
		cancel()
		return nil, err
	}

	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		cancel()
		return nil, err
	}

	return &database.StatementResult{
		Rows:        &resultSet{rows: rows, columns: columns, cancel: cancel},
		HasRows:     true,
		OptionNotes: h.optionNotes(opts),
	}, nil
}

func (h *Handle) withTimeout(ctx context.Context, opts database.ExecOptions) (context.Context, context.CancelFunc) {
	if opts.Timeout > 0 {
		return context.WithTimeout(ctx, opts.Timeout)
	}
	return ctx, func() {}
}

func (h *Handle) optionNotes(opts database.ExecOptions) []string {
	if opts.FetchSize > 0 {
		return []string{"fetch size is not supported by sqlite"}
	}
	return nil
}

// Savepoints are plain statements in SQLite and work with or without an open
// transaction.
func (h *Handle) CreateSavepoint(ctx context.Context, name string) error {
	_, err := h.execer(ctx, "SAVEPOINT "+quoteIdent(name))
	return err
}

func (h *Handle) ReleaseSavepoint(ctx context.Context, name string) error {
	_, err := h.execer(ctx, "RELEASE SAVEPOINT "+quoteIdent(name))
	return err
}

func (h *Handle) RollbackSavepoint(ctx context.Context, name string) error {
	_, err := h.execer(ctx, "ROLLBACK TO SAVEPOINT "+quoteIdent(name))
	return err
}

func (h *Handle) Autocommit() bool {
	return h.tx == nil
}

func (h *Handle) SetAutocommit(ctx context.Context, on bool) error {
	if on == (h.tx == nil) {
		return nil
	}
	if on {
		if err := h.tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		h.tx = nil
		return nil
	}
	tx, err := h.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	h.tx = tx
	return nil
}

// CurrentSchema returns the fixed primary schema name.
func (h *Handle) CurrentSchema(ctx context.Context) (string, error) {
	return "main", nil
}

func (h *Handle) SetCurrentSchema(ctx context.Context, schema string) error {
	return fmt.Errorf("set schema: %w", database.ErrUnsupported)
}

func (h *Handle) CancelInFlight(ctx context.Context) error {
	return fmt.Errorf("cancel: %w", database.ErrUnsupported)
}

func (h *Handle) Capabilities() database.Capabilities {
	return h.caps
}

func (h *Handle) Close() error {
	if h.tx != nil {
		_ = h.tx.Rollback()
		h.tx = nil
	}
	if err := h.conn.Close(); err != nil {
		_ = h.db.Close()
		return err
	}
	return h.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

type resultSet struct {
	rows    *sql.Rows
	columns []string
	cancel  context.CancelFunc
}

func (r *resultSet) Columns() []string {
	return r.columns
}

func (r *resultSet) Next() bool {
	return r.rows.Next()
}

func (r *resultSet) Values() ([]any, error) {
	values := make([]any, len(r.columns))
	ptrs := make([]any, len(values))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := r.rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return values, nil
}

func (r *resultSet) Err() error {
	return r.rows.Err()
}

func (r *resultSet) Close() error {
	err := r.rows.Close()
	r.cancel()
	return err
}

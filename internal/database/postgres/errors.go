package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// errorReader extracts structured diagnostics from PostgreSQL errors.
// PgError.Position is a 1-based character index into the query text as sent
// to the server; the server reports no separate line/column.
type errorReader struct{}

func (r *errorReader) ReadDiagnostics(ctx context.Context, execErr error, objType, objName string) (*database.ErrorDetail, error) {
	var pgErr *pgconn.PgError
	if !errors.As(execErr, &pgErr) {
		return nil, nil
	}

	detail := &database.ErrorDetail{
		Message: pgErr.Message,
		Line:    -1,
		Column:  -1,
		Offset:  -1,
	}
	if pgErr.Detail != "" {
		detail.Message += ": " + pgErr.Detail
	}
	if pgErr.Position > 0 {
		detail.Offset = int(pgErr.Position) - 1
	} else if pgErr.InternalPosition > 0 {
		detail.Offset = int(pgErr.InternalPosition) - 1
	}
	return detail, nil
}

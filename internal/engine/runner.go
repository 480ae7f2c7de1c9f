package engine

import (
	"context"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// Runner drives the per-statement loop: classification, dispatch, and the
// passthrough fallback for verbs no variant claims. The script iteration and
// feedback loop around it belong to the caller.
type Runner struct {
	registry *Registry
}

func NewRunner() *Runner {
	return &Runner{registry: NewRegistry()}
}

// Run executes one statement and returns its Result. The error return is
// reserved for conditions fatal to the whole run; every statement-level
// failure resolves into the Result.
func (r *Runner) Run(ctx context.Context, ec *Context, sqlText string) (*Result, error) {
	stmt := Classify(sqlText, ec.Settings.IgnoredVerbs)

	cmd, ok := r.registry.Lookup(stmt.Verb)
	if !ok {
		return r.passthrough(ctx, ec, stmt)
	}

	res, err := cmd.Execute(ctx, ec, stmt)
	if err != nil {
		return nil, err
	}
	ec.Log.WithFields(map[string]any{
		"verb":    stmt.RawVerb,
		"success": res.Success,
	}).Debug("statement finished")
	return res, nil
}

// passthrough sends a statement with no registered variant to the database
// unmodified. This is the generic fallback path, not an error.
func (r *Runner) passthrough(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()
	ec.acquireSavepoint(ctx)

	sr, err := ec.Handle.Exec(ctx, stmt.Text, ec.execOptions())
	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		ec.rollbackSavepoint(ctx)
		res.fail(diagnoseFailure(ctx, ec, stmt.Text, err, "", ""))
		return res, nil
	}
	ec.logOptionNotes(sr.OptionNotes)

	if sr.HasRows {
		tbl, derr := database.Drain(sr.Rows, ec.Settings.MaxRows)
		if derr != nil {
			if isFatal(ctx, derr) {
				return nil, derr
			}
			ec.rollbackSavepoint(ctx)
			res.fail(diagnoseFailure(ctx, ec, stmt.Text, derr, "", ""))
			return res, nil
		}
		res.Table = tbl
		res.addMessage(msgRowsReturned, len(tbl.Rows))
	} else {
		res.setRowCount(sr.RowsAffected)
		res.addMessage(msgRowsAffected, sr.RowsAffected)
	}
	if sr.Warning != "" {
		res.addMessage(msgWarning, sr.Warning)
	}
	ec.releaseSavepoint(ctx)
	return res, nil
}

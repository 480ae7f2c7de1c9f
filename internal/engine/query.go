package engine

import (
	"context"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// queryCommand executes SELECT statements, returning either a materialized
// tabular payload or handing the live cursor to a registered consumer.
type queryCommand struct{}

func (c *queryCommand) Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()
	ec.resetCancel()

	// A query can still trigger side-effecting database errors worth
	// isolating, e.g. a broken function used in the SELECT list.
	ec.acquireSavepoint(ctx)

	text, _ := lexer.StripLeadingComments(stmt.Text)
	opts := ec.execOptions()

	var sr *database.StatementResult
	var err error
	switch {
	case ec.Session.IsPrepared(text):
		sr, err = ec.Handle.QueryPrepared(ctx, text, opts)
	case ec.Caps.ReportsResultsForDML:
		// The family may or may not produce a cursor; branch afterwards.
		sr, err = ec.Handle.Exec(ctx, text, opts)
	default:
		sr, err = ec.Handle.Query(ctx, text, opts)
	}

	// The flag is polled right after the blocking call returns; mid-call
	// interruption is the handle's own cancel capability.
	if ec.Cancelled() {
		if sr != nil && sr.HasRows {
			_ = sr.Rows.Close()
		}
		return c.cancelled(ctx, ec, res), nil
	}

	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		ec.rollbackSavepoint(ctx)
		desc := diagnoseFailure(ctx, ec, stmt.Text, err, "", "")
		res.fail(desc)
		// Some families surface a secondary warning duplicating the real
		// error; keep it as an annotation, never a second error message.
		if sr != nil && sr.Warning != "" && sr.Warning != desc.Message {
			res.addMessage(msgWarning, sr.Warning)
		}
		return res, nil
	}
	ec.logOptionNotes(sr.OptionNotes)

	if !sr.HasRows {
		// Counts reported for a SELECT are misleading.
		res.SuppressRowCount = true
		res.addMessage(msgNoResult)
		ec.releaseSavepoint(ctx)
		return res, nil
	}

	if ec.Consumer != nil {
		// Streaming mode: the consumer owns the cursor.
		if cerr := ec.Consumer.Consume(sr.Rows); cerr != nil {
			if isFatal(ctx, cerr) {
				return nil, cerr
			}
			ec.rollbackSavepoint(ctx)
			res.fail(diagnoseFailure(ctx, ec, stmt.Text, cerr, "", ""))
			return res, nil
		}
		ec.releaseSavepoint(ctx)
		return res, nil
	}

	tbl, derr := database.Drain(sr.Rows, opts.MaxRows)
	if ec.Cancelled() {
		// Cancel arrived during the drain: discard partials.
		return c.cancelled(ctx, ec, res), nil
	}
	if derr != nil {
		if isFatal(ctx, derr) {
			return nil, derr
		}
		ec.rollbackSavepoint(ctx)
		res.fail(diagnoseFailure(ctx, ec, stmt.Text, derr, "", ""))
		return res, nil
	}

	res.Table = tbl
	if tbl.Truncated {
		res.addMessage(msgRowsTruncated, len(tbl.Rows))
	} else {
		res.addMessage(msgRowsReturned, len(tbl.Rows))
	}
	if sr.Warning != "" {
		res.addMessage(msgWarning, sr.Warning)
	}
	ec.releaseSavepoint(ctx)
	return res, nil
}

// cancelled builds the uniform cancellation outcome: failed, exactly one
// message, no diagnostics. The savepoint is rolled back since the statement
// did not complete.
func (c *queryCommand) cancelled(ctx context.Context, ec *Context, res *Result) *Result {
	ec.rollbackSavepoint(ctx)
	res.Success = false
	res.Cancelled = true
	res.Messages = []string{msgCancelled}
	res.Error = nil
	return res
}

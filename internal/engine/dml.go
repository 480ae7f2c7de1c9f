package engine

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// dmlCommand executes row-mutating statements (INSERT, UPDATE, DELETE,
// TRUNCATE, MERGE) with optional large-object parameter binding and savepoint
// isolation.
type dmlCommand struct{}

// {$blobfile=path} and {$clobfile=path} directives embed file-backed
// large-object parameters in a statement.
var lobDirectivePattern = regexp.MustCompile(`(?i)\{\$(blob|clob)file=([^}]+)\}`)

// bindLOBFiles replaces LOB directives with family placeholders and loads the
// referenced files as bind arguments. Files are closed on every path. A
// missing file is a recoverable pre-execution error.
func bindLOBFiles(sql string, placeholder func(int) string) (string, []any, error) {
	matches := lobDirectivePattern.FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return sql, nil, nil
	}

	var b strings.Builder
	var args []any
	last := 0
	for i, m := range matches {
		kind := strings.ToLower(sql[m[2]:m[3]])
		path := strings.Trim(strings.TrimSpace(sql[m[4]:m[5]]), `'"`)

		f, err := os.Open(path)
		if err != nil {
			return "", nil, fmt.Errorf("%sfile %s: %w", kind, path, err)
		}
		data, rerr := io.ReadAll(f)
		cerr := f.Close()
		if rerr != nil {
			return "", nil, fmt.Errorf("%sfile %s: %w", kind, path, rerr)
		}
		if cerr != nil {
			return "", nil, fmt.Errorf("%sfile %s: %w", kind, path, cerr)
		}

		if kind == "blob" {
			args = append(args, data)
		} else {
			args = append(args, string(data))
		}
		b.WriteString(sql[last:m[0]])
		b.WriteString(placeholder(i + 1))
		last = m[1]
	}
	b.WriteString(sql[last:])
	return b.String(), args, nil
}

func (c *dmlCommand) Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()
	text, _ := lexer.StripLeadingComments(stmt.Text)

	var args []any
	if stmt.Verb == VerbInsert || stmt.Verb == VerbUpdate {
		rewritten, lobArgs, err := bindLOBFiles(text, ec.Caps.Placeholder)
		if err != nil {
			// Never reaches the database; no savepoint involved.
			res.fail(descriptorFromError(err))
			return res, nil
		}
		text, args = rewritten, lobArgs
	}

	// Best-effort; only changes which message template is used.
	table := ResolveTable(stmt.Text)

	ec.acquireSavepoint(ctx)

	opts := ec.execOptions()
	var sr *database.StatementResult
	var err error
	switch {
	case len(args) > 0:
		sr, err = ec.Handle.ExecPrepared(ctx, text, opts, args...)
	case ec.Session.IsPrepared(text):
		sr, err = ec.Handle.ExecPrepared(ctx, text, opts)
	default:
		sr, err = ec.Handle.Exec(ctx, text, opts)
	}
	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		ec.rollbackSavepoint(ctx)
		if table != "" {
			res.addMessage(msgDMLFailed, verbPhrase(stmt.Verb, table))
		} else {
			res.addMessage(msgDMLFailed, stmt.RawVerb)
		}
		desc := diagnoseFailure(ctx, ec, stmt.Text, err, "", "")
		res.Success = false
		res.Error = desc
		res.addMessage("%s", desc.Message)
		return res, nil
	}
	ec.logOptionNotes(sr.OptionNotes)

	if ec.Caps.ReportsResultsForDML && sr.HasRows {
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
	} else {
		if sr.HasRows {
			_ = sr.Rows.Close()
		}
		res.setRowCount(sr.RowsAffected)
	}

	ec.releaseSavepoint(ctx)

	switch {
	case table != "" && res.HasRowCount:
		res.addMessage(msgRowsAffectedIn, sr.RowsAffected, table)
	case res.HasRowCount:
		res.addMessage(msgRowsAffected, sr.RowsAffected)
	default:
		res.addMessage(msgStatementOK, stmt.RawVerb)
	}
	if sr.Warning != "" {
		res.addMessage(msgWarning, sr.Warning)
	}
	return res, nil
}

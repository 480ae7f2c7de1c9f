package engine

import (
	"fmt"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/database"
)

// ErrorDescriptor is the normalized failure detail attached to a failed
// Result. It is built once and never mutated afterwards.
type ErrorDescriptor struct {
	Message string
	// Line and Column are 1-based, -1 when unknown.
	Line   int
	Column int
	// Offset is a byte offset into the original, comment-inclusive statement
	// text; -1 when unknown.
	Offset int
	// OffsetAuthoritative reports whether Offset points at the construct the
	// database complained about, so a console can render a caret under it.
	OffsetAuthoritative bool
}

// Result is the uniform outcome of executing one statement. At most one of
// Table and the update count is authoritative; HasRowCount selects the count.
// Ownership transfers to the caller.
type Result struct {
	Success  bool
	Messages []string
	Error    *ErrorDescriptor

	// Table is the materialized tabular payload, nil when none.
	Table *database.Table

	RowsAffected int64
	HasRowCount  bool
	// SuppressRowCount hides the update count from display for verbs that
	// report it misleadingly.
	SuppressRowCount bool

	// Cancelled distinguishes a cooperative cancellation from a failure;
	// cancelled results carry no ErrorDescriptor.
	Cancelled bool
}

func newResult() *Result {
	return &Result{Success: true}
}

func (r *Result) addMessage(format string, args ...any) {
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// fail marks the result failed with the given descriptor and appends its
// message.
func (r *Result) fail(desc *ErrorDescriptor) {
	r.Success = false
	r.Error = desc
	r.Messages = append(r.Messages, desc.Message)
}

func (r *Result) setRowCount(n int64) {
	if r.Table == nil {
		r.RowsAffected = n
		r.HasRowCount = true
	}
}

// descriptorFromError builds a positionless descriptor from a raw execution
// error, the fallback when no family diagnostics are available.
func descriptorFromError(err error) *ErrorDescriptor {
	return &ErrorDescriptor{
		Message: err.Error(),
		Line:    -1,
		Column:  -1,
		Offset:  -1,
	}
}

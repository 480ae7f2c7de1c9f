package engine

import (
	"context"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// Diagnose asks the family error reader for structured diagnostics on a
// failed (or warned) statement and normalizes them into an ErrorDescriptor.
// stmtText is the original, comment-inclusive statement; execErr is nil when
// diagnosing a warning; objType and objName hint at the defined object. Nil
// means no diagnostics are available, which is normal for families without
// error introspection.
func Diagnose(ctx context.Context, ec *Context, stmtText string, execErr error, objType, objName string, wantPosition bool) *ErrorDescriptor {
	reader := ec.Caps.ErrorReader
	if reader == nil {
		return nil
	}

	// "Show last error" convenience: with no object name, look up the last
	// rememberable DDL object of the session.
	if objName == "" {
		objType, objName = ec.Session.LastDDLObject()
	}

	detail, err := reader.ReadDiagnostics(ctx, execErr, objType, objName)
	if err != nil {
		ec.Log.WithError(err).Debug("error reader failed")
		return nil
	}
	if detail == nil {
		return nil
	}

	desc := &ErrorDescriptor{
		Message: detail.Message,
		Line:    detail.Line,
		Column:  detail.Column,
		Offset:  -1,
	}
	if !wantPosition {
		return desc
	}

	// Families disagree on whether reported positions count leading comment
	// blocks. When they count from the first real token, re-base against the
	// original text; the descriptor offset always refers to the unmodified
	// input.
	base := 0
	text := stmtText
	if ec.Caps.OffsetFromFirstToken {
		text, base = lexer.StripLeadingComments(stmtText)
	}

	switch {
	case detail.Offset >= 0:
		desc.Offset = base + detail.Offset
		desc.OffsetAuthoritative = true
	case detail.Line > 0 && detail.Column > 0:
		if off := lexer.LineColToOffset(text, detail.Line, detail.Column); off >= 0 {
			desc.Offset = base + off
			desc.OffsetAuthoritative = true
		}
	}
	if desc.Offset >= len(stmtText) {
		desc.Offset = -1
		desc.OffsetAuthoritative = false
	}
	return desc
}

// diagnoseFailure wraps Diagnose with the positionless fallback built from
// the raw execution error.
func diagnoseFailure(ctx context.Context, ec *Context, stmtText string, execErr error, objType, objName string) *ErrorDescriptor {
	if desc := Diagnose(ctx, ec, stmtText, execErr, objType, objName, true); desc != nil {
		return desc
	}
	return descriptorFromError(execErr)
}

package engine

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// sessionCommand intercepts SET/USE statements that have a native engine
// equivalent and applies them through the engine configuration instead of
// sending them to the database. Everything else is sent through unmodified.
type sessionCommand struct{}

var (
	setAutocommitPattern = regexp.MustCompile(`(?is)^SET\s+AUTOCOMMIT\s*(?:=|\s+TO\s+)?\s*(ON|OFF|TRUE|FALSE|1|0)$`)
	setMaxRowsPattern    = regexp.MustCompile(`(?is)^SET\s+(?:MAXROWS|ROWLIMIT)\s*=?\s*(\d+)$`)
	setTimeoutPattern    = regexp.MustCompile(`(?is)^SET\s+(?:TIMEOUT|QUERY_TIMEOUT)\s*=?\s*(\d+)$`)
	setFetchSizePattern  = regexp.MustCompile(`(?is)^SET\s+FETCHSIZE\s*=?\s*(\d+)$`)
	setSchemaPattern     = regexp.MustCompile(`(?is)^SET\s+(?:SCHEMA|CURRENT_SCHEMA|SEARCH_PATH)\s*(?:=|\s+TO\s+)?\s*(\S+)$`)
	usePattern           = regexp.MustCompile(`(?is)^USE\s+(\S+)$`)
	setPropertyPattern   = regexp.MustCompile(`(?is)^SET\s+(SHOWPLAN|TIMING|FEEDBACK)\s*=?\s*(\S+)$`)
)

func (c *sessionCommand) Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()

	text, _ := lexer.StripLeadingComments(stmt.Text)
	text = strings.TrimRight(strings.TrimSpace(text), ";")
	text = strings.TrimSpace(text)

	switch {
	case setAutocommitPattern.MatchString(text):
		m := setAutocommitPattern.FindStringSubmatch(text)
		on := isTruthy(m[1])
		if err := ec.Handle.SetAutocommit(ctx, on); err != nil {
			if isFatal(ctx, err) {
				return nil, err
			}
			res.fail(descriptorFromError(err))
			return res, nil
		}
		if on {
			res.addMessage(msgAutocommitOn)
		} else {
			res.addMessage(msgAutocommitOff)
		}

	case setMaxRowsPattern.MatchString(text):
		n, _ := strconv.Atoi(setMaxRowsPattern.FindStringSubmatch(text)[1])
		ec.Settings.MaxRows = n
		res.addMessage(msgMaxRowsSet, n)

	case setTimeoutPattern.MatchString(text):
		n, _ := strconv.Atoi(setTimeoutPattern.FindStringSubmatch(text)[1])
		ec.Settings.Timeout = time.Duration(n) * time.Second
		res.addMessage(msgTimeoutSet, n)

	case setFetchSizePattern.MatchString(text):
		n, _ := strconv.Atoi(setFetchSizePattern.FindStringSubmatch(text)[1])
		ec.Settings.FetchSize = n
		res.addMessage(msgFetchSizeSet, n)

	case setPropertyPattern.MatchString(text):
		m := setPropertyPattern.FindStringSubmatch(text)
		ec.Session.SetProperty(m[1], m[2])
		res.addMessage(msgPropertySet, strings.ToLower(m[1]), m[2])

	case setSchemaPattern.MatchString(text) || usePattern.MatchString(text):
		var target string
		if m := setSchemaPattern.FindStringSubmatch(text); m != nil {
			target = m[1]
		} else {
			target = usePattern.FindStringSubmatch(text)[1]
		}
		return c.changeSchema(ctx, ec, stmt, res, strings.Trim(target, `"'`+"`"))

	default:
		return c.passthrough(ctx, ec, stmt, res, text)
	}
	return res, nil
}

// changeSchema applies a schema/search-path directive and notifies
// collaborators with the value the database actually resolved, which must be
// re-queried because drivers do not reliably echo back what was requested.
func (c *sessionCommand) changeSchema(ctx context.Context, ec *Context, stmt Statement, res *Result, schema string) (*Result, error) {
	if !ec.Caps.SupportsSetSchema {
		return c.passthrough(ctx, ec, stmt, res, "")
	}
	if err := ec.Handle.SetCurrentSchema(ctx, schema); err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		res.fail(diagnoseFailure(ctx, ec, stmt.Text, err, "", ""))
		return res, nil
	}

	resolved, err := ec.Handle.CurrentSchema(ctx)
	if err != nil {
		ec.Log.WithError(err).Warn("could not resolve new schema")
		resolved = schema
	}
	if ec.Notify != nil {
		ec.Notify.SchemaChanged(resolved)
	}
	res.addMessage(msgSchemaChanged, resolved)
	return res, nil
}

// passthrough sends a directive with no native equivalent through
// unmodified. For lenient families a database-side error is downgraded to a
// warning rather than a failure.
func (c *sessionCommand) passthrough(ctx context.Context, ec *Context, stmt Statement, res *Result, text string) (*Result, error) {
	if text == "" {
		text, _ = lexer.StripLeadingComments(stmt.Text)
	}
	sr, err := ec.Handle.Exec(ctx, text, ec.execOptions())
	if err != nil {
		if isFatal(ctx, err) {
			return nil, err
		}
		if ec.Caps.LenientSessionDirectives {
			res.addMessage(msgWarning, err.Error())
			return res, nil
		}
		res.fail(diagnoseFailure(ctx, ec, stmt.Text, err, "", ""))
		return res, nil
	}
	if sr.HasRows {
		_ = sr.Rows.Close()
	}
	res.addMessage(msgStatementOK, stmt.RawVerb)
	if sr.Warning != "" {
		res.addMessage(msgWarning, sr.Warning)
	}
	return res, nil
}

func isTruthy(v string) bool {
	switch strings.ToUpper(v) {
	case "ON", "TRUE", "1":
		return true
	}
	return false
}

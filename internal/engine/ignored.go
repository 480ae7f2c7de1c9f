package engine

import "context"

// ignoredCommand is the deliberate no-op for foreign-tool directives whose
// verb is recognized but intentionally never sent to the database. It always
// succeeds and requires no connectivity.
type ignoredCommand struct{}

func (c *ignoredCommand) Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error) {
	res := newResult()
	if !ec.Settings.QuietIgnored {
		res.addMessage(msgIgnored, stmt.RawVerb)
	}
	return res, nil
}

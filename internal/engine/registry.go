package engine

import "context"

// Command is one statement-execution strategy. Statement-level failures
// resolve into the Result; a non-nil error is reserved for conditions fatal
// to the whole run.
type Command interface {
	Execute(ctx context.Context, ec *Context, stmt Statement) (*Result, error)
}

// Registry maps verbs to command variants. Built once at startup; lookup is a
// pure map read.
type Registry struct {
	commands map[Verb]Command
}

// NewRegistry builds the static verb dispatch table. Every registered verb
// maps to exactly one variant; the switch is exhaustive over the verb enum so
// a new verb is a compile-visible omission here.
func NewRegistry() *Registry {
	ddl := &ddlCommand{}
	dml := &dmlCommand{}
	query := &queryCommand{}
	session := &sessionCommand{}
	ignored := &ignoredCommand{}

	r := &Registry{commands: map[Verb]Command{}}
	for v := VerbCreate; v <= VerbIgnored; v++ {
		switch v {
		case VerbCreate, VerbAlter, VerbDrop, VerbGrant, VerbRevoke, VerbRecreate:
			r.commands[v] = ddl
		case VerbInsert, VerbUpdate, VerbDelete, VerbTruncate, VerbMerge:
			r.commands[v] = dml
		case VerbSelect:
			r.commands[v] = query
		case VerbSet, VerbUse:
			r.commands[v] = session
		case VerbIgnored:
			r.commands[v] = ignored
		}
	}
	return r
}

// Lookup returns the variant for a verb. The false return is the "no
// handler" signal; the caller sends the statement through unmodified.
func (r *Registry) Lookup(v Verb) (Command, bool) {
	cmd, ok := r.commands[v]
	return cmd, ok
}

// Package engine executes one parsed SQL statement at a time against a live
// database handle, isolates failures with statement-scoped savepoints,
// extracts positional error diagnostics, and returns a uniform Result per
// statement.
package engine

import (
	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// Verb is the closed set of statement classifications derived from the first
// keyword of a statement.
type Verb int

const (
	VerbUnknown Verb = iota
	VerbCreate
	VerbAlter
	VerbDrop
	VerbGrant
	VerbRevoke
	VerbRecreate
	VerbInsert
	VerbUpdate
	VerbDelete
	VerbTruncate
	VerbMerge
	VerbSelect
	VerbSet
	VerbUse
	// VerbIgnored marks a recognized foreign-tool directive that is never
	// sent to the database. The raw word travels in Statement.RawVerb.
	VerbIgnored
)

var verbNames = map[Verb]string{
	VerbUnknown:  "UNKNOWN",
	VerbCreate:   "CREATE",
	VerbAlter:    "ALTER",
	VerbDrop:     "DROP",
	VerbGrant:    "GRANT",
	VerbRevoke:   "REVOKE",
	VerbRecreate: "RECREATE",
	VerbInsert:   "INSERT",
	VerbUpdate:   "UPDATE",
	VerbDelete:   "DELETE",
	VerbTruncate: "TRUNCATE",
	VerbMerge:    "MERGE",
	VerbSelect:   "SELECT",
	VerbSet:      "SET",
	VerbUse:      "USE",
	VerbIgnored:  "IGNORED",
}

func (v Verb) String() string {
	return verbNames[v]
}

var verbWords = map[string]Verb{
	"CREATE":   VerbCreate,
	"ALTER":    VerbAlter,
	"DROP":     VerbDrop,
	"GRANT":    VerbGrant,
	"REVOKE":   VerbRevoke,
	"RECREATE": VerbRecreate,
	"INSERT":   VerbInsert,
	"UPDATE":   VerbUpdate,
	"DELETE":   VerbDelete,
	"TRUNCATE": VerbTruncate,
	"MERGE":    VerbMerge,
	"SELECT":   VerbSelect,
	"SET":      VerbSet,
	"USE":      VerbUse,
}

// Statement is one statement text with its verb classification. Text is the
// original input including comments.
type Statement struct {
	Text string
	Verb Verb
	// RawVerb is the uppercased first word of the statement.
	RawVerb string
}

// Classify derives the verb from the first non-comment word of sql. Words in
// ignoredWords (already uppercased) classify as VerbIgnored; anything else
// unrecognized is VerbUnknown, which the runner sends through unmodified.
func Classify(sql string, ignoredWords []string) Statement {
	word, _ := lexer.FirstWord(sql)
	stmt := Statement{Text: sql, RawVerb: word}
	if word == "" {
		return stmt
	}
	if v, ok := verbWords[word]; ok {
		stmt.Verb = v
		return stmt
	}
	for _, w := range ignoredWords {
		if w == word {
			stmt.Verb = VerbIgnored
			return stmt
		}
	}
	return stmt
}

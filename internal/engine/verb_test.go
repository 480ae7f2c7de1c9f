package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		sql  string
		verb Verb
		raw  string
	}{
		{"SELECT * FROM t", VerbSelect, "SELECT"},
		{"insert into t values (1)", VerbInsert, "INSERT"},
		{"  Update t set a=1", VerbUpdate, "UPDATE"},
		{"DELETE FROM t", VerbDelete, "DELETE"},
		{"truncate table t", VerbTruncate, "TRUNCATE"},
		{"MERGE INTO t USING s ON (1=1)", VerbMerge, "MERGE"},
		{"CREATE TABLE t (a int)", VerbCreate, "CREATE"},
		{"ALTER TABLE t ADD b int", VerbAlter, "ALTER"},
		{"DROP VIEW v", VerbDrop, "DROP"},
		{"GRANT SELECT ON t TO u", VerbGrant, "GRANT"},
		{"REVOKE ALL ON t FROM u", VerbRevoke, "REVOKE"},
		{"RECREATE VIEW v AS SELECT 1", VerbRecreate, "RECREATE"},
		{"SET autocommit = off", VerbSet, "SET"},
		{"USE otherdb", VerbUse, "USE"},
		{"-- comment first\nSELECT 1", VerbSelect, "SELECT"},
		{"/* hdr */ DROP TABLE t", VerbDrop, "DROP"},
		{"COMMIT", VerbUnknown, "COMMIT"},
		{"", VerbUnknown, ""},
	}
	for _, c := range cases {
		stmt := Classify(c.sql, nil)
		assert.Equal(t, c.verb, stmt.Verb, "sql: %q", c.sql)
		assert.Equal(t, c.raw, stmt.RawVerb, "sql: %q", c.sql)
		assert.Equal(t, c.sql, stmt.Text)
	}
}

func TestClassifyIgnoredWords(t *testing.T) {
	ignored := []string{"ECHO", "SPOOL"}

	stmt := Classify("ECHO hello", ignored)
	assert.Equal(t, VerbIgnored, stmt.Verb)
	assert.Equal(t, "ECHO", stmt.RawVerb)

	stmt = Classify("spool out.txt", ignored)
	assert.Equal(t, VerbIgnored, stmt.Verb)

	// Not in the ignored set: unknown, handled by the passthrough fallback.
	stmt = Classify("PROMPT hi", ignored)
	assert.Equal(t, VerbUnknown, stmt.Verb)
}

package engine

import "fmt"

// Message templates. Positional detail travels on the ErrorDescriptor, never
// interpolated here, so a console can render a caret independently of the
// message text.
const (
	msgStatementOK    = "%s statement executed successfully"
	msgObjectOK       = "%s %s executed successfully"
	msgRowsAffected   = "%d row(s) affected"
	msgRowsAffectedIn = "%d row(s) affected in %s"
	msgRowsReturned   = "%d row(s) returned"
	msgRowsTruncated  = "%d row(s) returned (limit reached)"
	msgNoResult       = "Statement produced no result"
	msgCancelled      = "Statement cancelled"
	msgDropIgnored    = "Drop of %s failed, error ignored: %v"
	msgObjectFailed   = "%s %s failed"
	msgDMLFailed      = "%s failed"
	msgIgnored        = "%s statement ignored"
	msgWarning        = "Warning: %s"
	msgAutocommitOn   = "Autocommit turned on"
	msgAutocommitOff  = "Autocommit turned off"
	msgMaxRowsSet     = "Row limit set to %d"
	msgTimeoutSet     = "Query timeout set to %ds"
	msgFetchSizeSet   = "Fetch size set to %d"
	msgSchemaChanged  = "Current schema changed to %s"
	msgPropertySet    = "Session property %s set to %s"
)

// verbPhrase renders the verb-specific phrase naming the target table, used
// in DML success and failure messages.
func verbPhrase(verb Verb, table string) string {
	switch verb {
	case VerbInsert:
		return "INSERT INTO " + table
	case VerbUpdate:
		return "UPDATE " + table
	case VerbDelete:
		return "DELETE FROM " + table
	case VerbTruncate:
		return "TRUNCATE TABLE " + table
	case VerbMerge:
		return "MERGE INTO " + table
	default:
		return fmt.Sprintf("%s %s", verb, table)
	}
}

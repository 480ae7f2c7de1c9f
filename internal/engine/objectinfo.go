package engine

import (
	"regexp"
	"strings"

	"github.com/felipe-louzas/sqlworkbench-sub007/internal/lexer"
)

// ObjectInfo is best-effort metadata extracted from DDL text. Absence of any
// field is not an error; it only degrades messages and cache invalidation.
type ObjectInfo struct {
	// Type is the uppercased object type, possibly two words (PACKAGE BODY).
	Type string
	// Names holds the affected object names, schema-qualified where written.
	Names []string
	// StructuralDrop is set when the statement removes an object or a
	// sub-object (DROP, or ALTER ... DROP CONSTRAINT and friends).
	StructuralDrop bool
}

// Object types whose database-reported compile errors can be queried later
// with no object name ("show last error" semantics).
var rememberableTypes = map[string]bool{
	"PROCEDURE":    true,
	"FUNCTION":     true,
	"TRIGGER":      true,
	"PACKAGE":      true,
	"PACKAGE BODY": true,
	"TYPE":         true,
}

// Modifier words between the verb and the object type.
var typeModifiers = map[string]bool{
	"OR":           true,
	"REPLACE":      true,
	"GLOBAL":       true,
	"LOCAL":        true,
	"TEMP":         true,
	"TEMPORARY":    true,
	"UNLOGGED":     true,
	"UNIQUE":       true,
	"FORCE":        true,
	"EDITIONABLE":  true,
	"MATERIALIZED": true,
}

// Object types that continue with a second word.
var twoWordTypes = map[string]string{
	"PACKAGE": "BODY",
	"TYPE":    "BODY",
}

var alterDropPattern = regexp.MustCompile(`(?is)\bDROP\s+(PRIMARY\s+KEY|FOREIGN\s+KEY|CONSTRAINT|COLUMN|PARTITION|INDEX)\b`)

// ParseObjectInfo extracts object type and names from a DDL statement. It is
// a pure text inspection; nil means nothing recognizable was found.
func ParseObjectInfo(sql string) *ObjectInfo {
	tokens := wordsOf(sql)
	if len(tokens) < 2 {
		return nil
	}

	verb := strings.ToUpper(tokens[0].Value)
	switch verb {
	case "CREATE", "ALTER", "DROP", "RECREATE":
	default:
		return nil
	}

	i := 1
	for i < len(tokens) && typeModifiers[strings.ToUpper(tokens[i].Value)] {
		if strings.ToUpper(tokens[i].Value) == "MATERIALIZED" {
			break
		}
		i++
	}
	if i >= len(tokens) {
		return nil
	}

	objType := strings.ToUpper(tokens[i].Value)
	i++
	if objType == "MATERIALIZED" && i < len(tokens) {
		objType += " " + strings.ToUpper(tokens[i].Value)
		i++
	} else if second, ok := twoWordTypes[objType]; ok {
		if i < len(tokens) && strings.ToUpper(tokens[i].Value) == second {
			objType += " " + second
			i++
		}
	}

	info := &ObjectInfo{Type: objType}

	// IF [NOT] EXISTS
	if i < len(tokens) && strings.ToUpper(tokens[i].Value) == "IF" {
		i++
		for i < len(tokens) {
			w := strings.ToUpper(tokens[i].Value)
			i++
			if w == "EXISTS" {
				break
			}
		}
	}

	info.Names = collectNames(sql, tokens, i, verb == "DROP")

	switch {
	case verb == "DROP":
		info.StructuralDrop = true
	case verb == "ALTER" && alterDropPattern.MatchString(sql):
		info.StructuralDrop = true
	}
	return info
}

// collectNames reads one qualified name, or for DROP a comma-separated list.
func collectNames(sql string, tokens []lexer.Token, i int, list bool) []string {
	var names []string
	for i < len(tokens) {
		name, next := qualifiedName(tokens, i)
		if name == "" {
			break
		}
		names = append(names, name)
		i = next
		if !list {
			break
		}
		if i < len(tokens) && tokens[i].Type == lexer.Symbol && tokens[i].Value == "," {
			i++
			continue
		}
		break
	}
	return names
}

// qualifiedName joins dotted identifier parts starting at tokens[i]; returns
// the name and the index after it.
func qualifiedName(tokens []lexer.Token, i int) (string, int) {
	var parts []string
	for i < len(tokens) {
		t := tokens[i]
		if t.Type != lexer.Word && t.Type != lexer.Identifier {
			break
		}
		parts = append(parts, unquote(t))
		i++
		if i < len(tokens) && tokens[i].Type == lexer.Symbol && tokens[i].Value == "." {
			i++
			continue
		}
		break
	}
	if len(parts) == 0 {
		return "", i
	}
	return strings.Join(parts, "."), i
}

func unquote(t lexer.Token) string {
	v := t.Value
	if t.Type != lexer.Identifier || len(v) < 2 {
		return v
	}
	switch v[0] {
	case '"', '`':
		return v[1 : len(v)-1]
	case '[':
		return v[1 : len(v)-1]
	}
	return v
}

// wordsOf returns the non-comment tokens of sql.
func wordsOf(sql string) []lexer.Token {
	all := lexer.Scan(sql)
	tokens := all[:0:0]
	for _, t := range all {
		if !t.IsComment() {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

var tableAfter = map[Verb][]string{
	VerbInsert:   {"INTO"},
	VerbMerge:    {"INTO"},
	VerbDelete:   {"FROM"},
	VerbUpdate:   nil,
	VerbTruncate: nil,
}

// Words that may sit between the DML verb and the table name.
var tableSkip = map[string]bool{
	"TABLE": true, "ONLY": true, "IGNORE": true, "LOW_PRIORITY": true, "DELAYED": true,
}

// ResolveTable extracts the target table of a DML statement for messaging
// purposes. Empty when the table cannot be determined; callers fall back to a
// generic message.
func ResolveTable(sql string) string {
	tokens := wordsOf(sql)
	if len(tokens) == 0 {
		return ""
	}
	verb, ok := verbWords[strings.ToUpper(tokens[0].Value)]
	if !ok {
		return ""
	}
	marker, known := tableAfter[verb]
	if !known {
		return ""
	}

	i := 1
	for _, m := range marker {
		for i < len(tokens) && strings.ToUpper(tokens[i].Value) != m {
			i++
		}
		i++
	}
	for i < len(tokens) && tableSkip[strings.ToUpper(tokens[i].Value)] {
		i++
	}
	if i >= len(tokens) {
		return ""
	}
	name, _ := qualifiedName(tokens, i)
	return name
}

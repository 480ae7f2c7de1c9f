// Package lexer is a minimal SQL token scanner. It produces tokens with byte
// offsets into the original input, which the engine uses for verb
// classification, object-name extraction, and error position correction.
// It is deliberately not a parser.
package lexer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenType identifies the kind of a scanned token.
type TokenType int

const (
	// Word is an unquoted keyword or bare identifier.
	Word TokenType = iota + 1
	// Identifier is a quoted identifier ("name", `name` or [name]).
	Identifier
	// String is a single-quoted string literal, quotes included.
	String
	// Number is a numeric literal.
	Number
	// LineComment is a -- comment up to (not including) the newline.
	LineComment
	// BlockComment is a /* ... */ comment, delimiters included.
	BlockComment
	// Symbol is any other punctuation, one rune per token.
	Symbol
)

// Token is a single scanned token. Start and End are byte offsets into the
// input; Value is input[Start:End].
type Token struct {
	Type  TokenType
	Value string
	Start int
	End   int
}

// IsComment reports whether the token is a line or block comment.
func (t Token) IsComment() bool {
	return t.Type == LineComment || t.Type == BlockComment
}

type scanner struct {
	src string
	pos int
}

// Scan tokenizes sql. Whitespace is skipped; comments and string literals are
// returned as single tokens so callers can reason about their spans.
func Scan(sql string) []Token {
	s := &scanner{src: sql}
	var tokens []Token
	for {
		t, ok := s.next()
		if !ok {
			return tokens
		}
		tokens = append(tokens, t)
	}
}

func (s *scanner) next() (Token, bool) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return Token{}, false
	}
	r := s.peek(s.pos)
	switch {
	case r == '-' && s.peek(s.pos+1) == '-':
		return s.scanLineComment(), true
	case r == '/' && s.peek(s.pos+1) == '*':
		return s.scanBlockComment(), true
	case r == '\'':
		return s.scanString(), true
	case r == '"' || r == '`':
		return s.scanQuoted(byte(r)), true
	case r == '[':
		return s.scanBracketed(), true
	case unicode.IsDigit(r):
		return s.scanNumber(), true
	case isWordRune(r):
		return s.scanWord(), true
	default:
		start := s.pos
		_, size := utf8.DecodeRuneInString(s.src[s.pos:])
		s.pos += size
		return Token{Type: Symbol, Value: s.src[start:s.pos], Start: start, End: s.pos}, true
	}
}

func (s *scanner) peek(pos int) rune {
	if pos >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(s.src[pos:])
	return r
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

func (s *scanner) scanLineComment() Token {
	start := s.pos
	end := strings.IndexByte(s.src[start:], '\n')
	if end < 0 {
		s.pos = len(s.src)
	} else {
		s.pos = start + end
	}
	return Token{Type: LineComment, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) scanBlockComment() Token {
	start := s.pos
	end := strings.Index(s.src[start+2:], "*/")
	if end < 0 {
		s.pos = len(s.src)
	} else {
		s.pos = start + 2 + end + 2
	}
	return Token{Type: BlockComment, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

// scanString scans a single-quoted literal. A doubled quote ('') is an
// escaped quote, not a terminator.
func (s *scanner) scanString() Token {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		if s.src[s.pos] == '\'' {
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '\'' {
				s.pos += 2
				continue
			}
			s.pos++
			break
		}
		s.pos++
	}
	return Token{Type: String, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) scanQuoted(quote byte) Token {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		if s.src[s.pos] == quote {
			s.pos++
			break
		}
		s.pos++
	}
	return Token{Type: Identifier, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) scanBracketed() Token {
	start := s.pos
	s.pos++
	for s.pos < len(s.src) {
		if s.src[s.pos] == ']' {
			s.pos++
			break
		}
		s.pos++
	}
	return Token{Type: Identifier, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) scanNumber() Token {
	start := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsDigit(r) && r != '.' {
			break
		}
		s.pos += size
	}
	return Token{Type: Number, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func (s *scanner) scanWord() Token {
	start := s.pos
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !isWordRune(r) && !unicode.IsDigit(r) {
			break
		}
		s.pos += size
	}
	return Token{Type: Word, Value: s.src[start:s.pos], Start: start, End: s.pos}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == '$' || r == '#'
}

// FirstWord returns the first non-comment word of sql, uppercased, with its
// byte offset in the original text. Returns ("", -1) when sql holds no word.
func FirstWord(sql string) (string, int) {
	s := &scanner{src: sql}
	for {
		t, ok := s.next()
		if !ok {
			return "", -1
		}
		if t.IsComment() {
			continue
		}
		if t.Type == Word {
			return strings.ToUpper(t.Value), t.Start
		}
		return "", -1
	}
}

// StripLeadingComments removes leading whitespace and comments from sql and
// returns the remainder together with the number of bytes removed. The prefix
// length is the base for mapping driver-reported positions back onto the
// original text.
func StripLeadingComments(sql string) (string, int) {
	s := &scanner{src: sql}
	for {
		t, ok := s.next()
		if !ok {
			return "", len(sql)
		}
		if t.IsComment() {
			continue
		}
		return sql[t.Start:], t.Start
	}
}

// LineColToOffset converts a 1-based line/column pair into a byte offset into
// text. Columns count bytes within the line. Returns -1 when the position is
// outside the text.
func LineColToOffset(text string, line, col int) int {
	if line < 1 || col < 1 {
		return -1
	}
	offset := 0
	for line > 1 {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return -1
		}
		offset += nl + 1
		line--
	}
	offset += col - 1
	if offset > len(text) {
		return -1
	}
	return offset
}

// Statement is one piece of a split script, with the byte offset of its first
// character in the script.
type Statement struct {
	Text   string
	Offset int
}

// SplitStatements splits a script on top-level semicolons, honoring string
// literals, quoted identifiers and comments. The terminating semicolon is not
// part of the returned text. Pieces containing only whitespace or comments
// are dropped.
func SplitStatements(script string) []Statement {
	var out []Statement
	start := 0
	s := &scanner{src: script}
	flush := func(end int) {
		text := script[start:end]
		if word, _ := FirstWord(text); word != "" {
			out = append(out, Statement{Text: text, Offset: start})
		}
	}
	for {
		t, ok := s.next()
		if !ok {
			break
		}
		if t.Type == Symbol && t.Value == ";" {
			flush(t.Start)
			start = t.End
		}
	}
	flush(len(script))
	return out
}

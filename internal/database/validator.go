package database

import (
	"fmt"
	"strings"
)

// deniedKeywords are rejected anywhere in the raw query text, case-insensitive
// and position-independent. This layers on top of the leading-keyword gate and
// is intentionally strict: a column literally named call_date trips it too.
var deniedKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
	"TRUNCATE", "EXEC", "CALL", "MERGE", "UPSERT",
}

// allowedLeading are the only statement-leading keywords accepted.
var allowedLeading = map[string]bool{
	"SELECT": true,
	"WITH":   true,
}

var sqlKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "BY": true,
	"ORDER": true, "HAVING": true, "LIMIT": true, "OFFSET": true, "AS": true,
	"AND": true, "OR": true, "NOT": true, "IN": true, "IS": true, "NULL": true,
	"LIKE": true, "BETWEEN": true, "JOIN": true, "LEFT": true, "RIGHT": true,
	"INNER": true, "OUTER": true, "FULL": true, "CROSS": true, "ON": true,
	"UNION": true, "ALL": true, "DISTINCT": true, "CASE": true, "WHEN": true,
	"THEN": true, "ELSE": true, "END": true, "WITH": true, "ASC": true,
	"DESC": true,
}

// clauseKeywords start a new line in the normalized query.
var clauseKeywords = map[string]bool{
	"FROM": true, "WHERE": true, "GROUP": true, "ORDER": true,
	"HAVING": true, "LIMIT": true, "UNION": true,
}

// Validator gates raw SQL before it reaches the executor. Accepted queries
// come back reformatted with a row-limit clause injected when absent.
type Validator struct {
	maxRows int
}

func NewValidator(maxRows int) *Validator {
	return &Validator{maxRows: maxRows}
}

func (v *Validator) Validate(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", &ValidationError{Reason: "empty query"}
	}

	upper := strings.ToUpper(raw)
	for _, kw := range deniedKeywords {
		if strings.Contains(upper, kw) {
			return "", &ValidationError{Reason: fmt.Sprintf("forbidden keyword %q present in query", kw)}
		}
	}

	for _, stmt := range splitStatements(raw) {
		lead := firstKeyword(stmt)
		if lead == "" {
			continue
		}
		if !allowedLeading[lead] {
			return "", &ValidationError{Reason: fmt.Sprintf("only read-only statements are allowed, statement starts with %q", lead)}
		}
	}

	formatted := formatQuery(raw)
	if formatted == "" {
		return "", &ValidationError{Reason: "query contains no statements"}
	}

	if !strings.Contains(strings.ToUpper(formatted), "LIMIT") {
		formatted = strings.TrimRight(formatted, "; \t\n") + fmt.Sprintf("\nLIMIT %d", v.maxRows)
	}

	return formatted, nil
}

type sqlToken struct {
	text   string
	isWord bool
}

// tokenizeSQL yields word and string-literal tokens, dropping whitespace and
// comments. Quoted literals are kept verbatim, including their quotes.
func tokenizeSQL(q string) []sqlToken {
	var tokens []sqlToken
	n := len(q)
	i := 0
	for i < n {
		c := q[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '-' && i+1 < n && q[i+1] == '-':
			for i < n && q[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && q[i+1] == '*':
			i += 2
			for i+1 < n && !(q[i] == '*' && q[i+1] == '/') {
				i++
			}
			i += 2
		case c == '\'' || c == '"':
			j := scanQuoted(q, i)
			tokens = append(tokens, sqlToken{text: q[i:j]})
			i = j
		default:
			j := i
			for j < n && !isSQLSpace(q[j]) && q[j] != '\'' && q[j] != '"' {
				if q[j] == '-' && j+1 < n && q[j+1] == '-' {
					break
				}
				if q[j] == '/' && j+1 < n && q[j+1] == '*' {
					break
				}
				j++
			}
			tokens = append(tokens, sqlToken{text: q[i:j], isWord: true})
			i = j
		}
	}
	return tokens
}

// scanQuoted returns the index just past the literal starting at i.
// Doubled quotes inside the literal are treated as escapes.
func scanQuoted(q string, i int) int {
	quote := q[i]
	j := i + 1
	for j < len(q) {
		if q[j] == quote {
			if j+1 < len(q) && q[j+1] == quote {
				j += 2
				continue
			}
			return j + 1
		}
		j++
	}
	return j
}

func isSQLSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// splitStatements splits on semicolons outside quoted literals.
func splitStatements(q string) []string {
	var stmts []string
	start := 0
	i := 0
	for i < len(q) {
		switch q[i] {
		case '\'', '"':
			i = scanQuoted(q, i)
		case ';':
			stmts = append(stmts, q[start:i])
			start = i + 1
			i++
		default:
			i++
		}
	}
	if start < len(q) {
		stmts = append(stmts, q[start:])
	}
	return stmts
}

// firstKeyword returns the first semantically meaningful token of a
// statement, upper-cased, with any leading parens stripped. Empty string
// means the statement holds nothing but whitespace and comments.
func firstKeyword(stmt string) string {
	tokens := tokenizeSQL(stmt)
	if len(tokens) == 0 {
		return ""
	}
	tok := tokens[0]
	if !tok.isWord {
		return tok.text
	}
	word := tok.text
	k := 0
	for k < len(word) && word[k] == '(' {
		k++
	}
	j := k
	for j < len(word) && (isAlpha(word[j]) || word[j] == '_') {
		j++
	}
	if j == k {
		return word
	}
	return strings.ToUpper(word[k:j])
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// formatQuery normalizes keyword casing and puts major clauses on their own
// lines. String literals pass through untouched.
func formatQuery(q string) string {
	tokens := tokenizeSQL(q)
	var b strings.Builder
	for idx, tok := range tokens {
		text := tok.text
		if tok.isWord {
			if word := strings.ToUpper(text); sqlKeywords[word] {
				text = word
			}
		}
		if idx > 0 {
			if tok.isWord && clauseKeywords[strings.ToUpper(tok.text)] {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(text)
	}
	return strings.TrimRight(b.String(), "; \t\n")
}

// Package d1 talks to Cloudflare D1: it splits SQL scripts into
// individual statements and executes them against the HTTP API.
package d1

import "strings"

// SplitStatements splits a SQL script on semicolons while respecting
// string literals, quoted identifiers, comments, and compound
// BEGIN...END blocks (trigger bodies, CASE expressions). Empty
// statements are dropped; trailing semicolons are removed.
func SplitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	depth := 0

	i := 0
	for i < len(sql) {
		switch {
		case strings.HasPrefix(sql[i:], "--"):
			end := strings.IndexByte(sql[i:], '\n')
			if end == -1 {
				i = len(sql)
			} else {
				current.WriteByte('\n')
				i += end + 1
			}

		case strings.HasPrefix(sql[i:], "/*"):
			end := strings.Index(sql[i+2:], "*/")
			if end == -1 {
				i = len(sql)
			} else {
				i += end + 4
			}

		case sql[i] == '\'' || sql[i] == '"' || sql[i] == '`':
			i = copyQuoted(sql, i, &current)

		case sql[i] == '[':
			// SQLite bracket-quoted identifier.
			end := strings.IndexByte(sql[i:], ']')
			if end == -1 {
				current.WriteString(sql[i:])
				i = len(sql)
			} else {
				current.WriteString(sql[i : i+end+1])
				i += end + 1
			}

		case sql[i] == ';':
			if depth > 0 {
				current.WriteByte(';')
			} else if stmt := strings.TrimSpace(current.String()); stmt != "" {
				statements = append(statements, stmt)
				current.Reset()
			}
			i++

		case isWordStart(sql[i]):
			start := i
			for i < len(sql) && isWordChar(sql[i]) {
				i++
			}
			word := sql[start:i]
			switch {
			case strings.EqualFold(word, "BEGIN") && opensBlock(sql[i:]):
				depth++
			case strings.EqualFold(word, "CASE"):
				depth++
			case strings.EqualFold(word, "END") && depth > 0:
				depth--
			}
			current.WriteString(word)

		default:
			current.WriteByte(sql[i])
			i++
		}
	}

	if stmt := strings.TrimSpace(current.String()); stmt != "" {
		statements = append(statements, stmt)
	}
	return statements
}

// copyQuoted copies a quoted region starting at i, honoring the
// doubled-quote escape, and returns the index past its end.
func copyQuoted(sql string, i int, out *strings.Builder) int {
	quote := sql[i]
	out.WriteByte(quote)
	i++
	for i < len(sql) {
		out.WriteByte(sql[i])
		if sql[i] == quote {
			if i+1 < len(sql) && sql[i+1] == quote {
				// Doubled quote: literal character, stay inside.
				out.WriteByte(quote)
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return i
}

// opensBlock reports whether a BEGIN keyword starts a compound block,
// as opposed to a transaction (BEGIN; / BEGIN TRANSACTION / DEFERRED /
// IMMEDIATE / EXCLUSIVE).
func opensBlock(rest string) bool {
	trimmed := strings.TrimLeft(rest, " \t\r\n")
	if trimmed == "" || trimmed[0] == ';' {
		return false
	}
	for _, kw := range []string{"TRANSACTION", "DEFERRED", "IMMEDIATE", "EXCLUSIVE"} {
		if len(trimmed) >= len(kw) && strings.EqualFold(trimmed[:len(kw)], kw) {
			return false
		}
	}
	return true
}

func isWordStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isWordChar(c byte) bool {
	return isWordStart(c) || (c >= '0' && c <= '9')
}

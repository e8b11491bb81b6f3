package database

import (
	"regexp"
	"strconv"
	"strings"
)

// statement describes a query after placeholder translation.
type statement struct {
	query string
	// params is the number of placeholders rewritten.
	params int
	// verb is the upper-cased leading keyword, e.g. "INSERT".
	verb string
	// returning is true when RETURNING appears outside literals and comments.
	returning bool
}

var returningRe = regexp.MustCompile(`(?i)\bRETURNING\b`)

// Rebind rewrites ? placeholders to PostgreSQL's $1, $2, ... in left-to-right
// order. A ? inside a single-quoted literal (including E'...' escape strings),
// a $tag$...$tag$ dollar-quoted body, a double-quoted identifier, a -- comment
// or a /* */ comment is left as is.
func Rebind(query string) string {
	return parseStatement(query).query
}

func parseStatement(query string) statement {
	var out, bare strings.Builder
	out.Grow(len(query) + 8)
	bare.Grow(len(query))

	n := 0
	for i := 0; i < len(query); {
		c := query[i]
		switch {
		case (c == 'E' || c == 'e') && i+1 < len(query) && query[i+1] == '\'' &&
			(i == 0 || !isIdentByte(query[i-1])):
			end := escapeStringEnd(query, i+1)
			out.WriteString(query[i:end])
			bare.WriteByte(' ')
			i = end
		case c == '$' && (i == 0 || !isIdentByte(query[i-1])) && dollarTag(query[i:]) != "":
			tag := dollarTag(query[i:])
			end := strings.Index(query[i+len(tag):], tag)
			if end < 0 {
				end = len(query)
			} else {
				end = i + len(tag) + end + len(tag)
			}
			out.WriteString(query[i:end])
			bare.WriteByte(' ')
			i = end
		case c == '\'' || c == '"':
			end := quotedEnd(query, i, c)
			out.WriteString(query[i:end])
			bare.WriteByte(' ')
			i = end
		case c == '-' && i+1 < len(query) && query[i+1] == '-':
			end := strings.IndexByte(query[i:], '\n')
			if end < 0 {
				end = len(query)
			} else {
				end += i
			}
			out.WriteString(query[i:end])
			bare.WriteByte(' ')
			i = end
		case c == '/' && i+1 < len(query) && query[i+1] == '*':
			end := strings.Index(query[i+2:], "*/")
			if end < 0 {
				end = len(query)
			} else {
				end = i + 2 + end + 2
			}
			out.WriteString(query[i:end])
			bare.WriteByte(' ')
			i = end
		case c == '?':
			n++
			out.WriteByte('$')
			out.WriteString(strconv.Itoa(n))
			bare.WriteByte(' ')
			i++
		default:
			out.WriteByte(c)
			bare.WriteByte(c)
			i++
		}
	}

	b := bare.String()
	verb := ""
	if fields := strings.Fields(b); len(fields) > 0 {
		verb = strings.ToUpper(fields[0])
	}
	return statement{
		query:     out.String(),
		params:    n,
		verb:      verb,
		returning: returningRe.MatchString(b),
	}
}

// quotedEnd returns the index just past the closing quote of the literal that
// starts at s[start]. A doubled quote is an escaped quote. An unterminated
// literal runs to the end of s.
func quotedEnd(s string, start int, q byte) int {
	for i := start + 1; i < len(s); i++ {
		if s[i] != q {
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			i++
			continue
		}
		return i + 1
	}
	return len(s)
}

// escapeStringEnd is quotedEnd for E'...' strings, where a backslash escapes
// the following byte.
func escapeStringEnd(s string, start int) int {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '\'':
			if i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(s)
}

// dollarTag returns the opening tag ($$ or $name$) at the start of s, or ""
// when s does not start a dollar-quoted string. $1 style parameters never
// match because a tag cannot start with a digit.
func dollarTag(s string) string {
	if len(s) < 2 || s[0] != '$' {
		return ""
	}
	if s[1] == '$' {
		return "$$"
	}
	if !isIdentStart(s[1]) {
		return ""
	}
	for i := 2; i < len(s); i++ {
		switch {
		case s[i] == '$':
			return s[:i+1]
		case !isIdentByte(s[i]):
			return ""
		}
	}
	return ""
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9') || b == '$'
}

package nl2sql

import (
	"strings"
	"unicode"
)

var knownLanguageTags = map[string]struct{}{
	"sql":        {},
	"postgresql": {},
	"postgres":   {},
	"pgsql":      {},
	"psql":       {},
	"plpgsql":    {},
}

// stripMarkdownSQL removes a surrounding code fence and its language tag.
// Text outside the first fenced block is discarded.
func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	start := strings.Index(trimmed, "```")
	if start < 0 {
		return trimmed
	}
	body := trimmed[start+3:]
	if end := strings.Index(body, "```"); end >= 0 {
		body = body[:end]
	}

	if newline := strings.IndexAny(body, "\r\n"); newline >= 0 {
		if isLanguageTag(strings.TrimSpace(body[:newline])) {
			body = body[newline+1:]
		}
		return strings.TrimSpace(body)
	}

	// single-line fence, e.g. ```sql SELECT 1```
	fields := strings.Fields(body)
	if len(fields) > 1 {
		if _, ok := knownLanguageTags[strings.ToLower(fields[0])]; ok {
			body = strings.TrimSpace(body)[len(fields[0]):]
		}
	}
	return strings.TrimSpace(body)
}

func isLanguageTag(token string) bool {
	if token == "" {
		return false
	}
	lower := strings.ToLower(token)
	if _, ok := knownLanguageTags[lower]; ok {
		return true
	}
	if lower == "select" || lower == "with" {
		return false
	}
	for _, r := range token {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// isSingleReadStatement reports whether sqlText is one SELECT/WITH statement,
// optionally wrapped in parentheses. Comments are ignored, semicolons inside
// quoted literals and identifiers are ignored, and one trailing semicolon is
// allowed.
func isSingleReadStatement(sqlText string) bool {
	code, ok := blankSQLComments(sqlText)
	if !ok {
		return false
	}
	head := strings.ToLower(strings.TrimLeft(code, "( \t\r\n"))
	if !hasKeyword(head, "select") && !hasKeyword(head, "with") {
		return false
	}

	var quote rune
	terminated := false
	for _, r := range code {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			if terminated {
				return false
			}
			quote = r
		case r == ';':
			if terminated {
				return false
			}
			terminated = true
		case terminated && !unicode.IsSpace(r):
			return false
		}
	}
	return quote == 0
}

// blankSQLComments replaces -- and /* */ comments outside quotes with a
// space. It reports false for an unterminated quote or block comment.
func blankSQLComments(sqlText string) (string, bool) {
	runes := []rune(sqlText)
	var out strings.Builder
	var quote rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		next := rune(0)
		if i+1 < len(runes) {
			next = runes[i+1]
		}
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '-' && next == '-':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			out.WriteRune(' ')
			if i < len(runes) {
				out.WriteRune('\n')
			}
			continue
		case r == '/' && next == '*':
			j := i + 2
			for j+1 < len(runes) && (runes[j] != '*' || runes[j+1] != '/') {
				j++
			}
			if j+1 >= len(runes) {
				return "", false
			}
			i = j + 1
			out.WriteRune(' ')
			continue
		case r == '\'' || r == '"':
			quote = r
		}
		out.WriteRune(r)
	}
	return out.String(), quote == 0
}

func hasKeyword(text, keyword string) bool {
	if !strings.HasPrefix(text, keyword) {
		return false
	}
	if len(text) == len(keyword) {
		return true
	}
	next := rune(text[len(keyword)])
	return !unicode.IsLetter(next) && !unicode.IsDigit(next) && next != '_'
}

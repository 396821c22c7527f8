// FILE: internal/analysis/pgn.go
package analysis

import (
	"regexp"
	"strings"
)

var (
	bracePattern     = regexp.MustCompile(`\{[^}]*\}`)
	inlineTagPattern = regexp.MustCompile(`\[%[^\]]*\]`)
	dupMovePattern   = regexp.MustCompile(`(\d+)\.\.\.\s*`)
	spacePattern     = regexp.MustCompile(`\s+`)
)

// CleanPGN strips brace comments, inline command tags and black-side move
// number repetitions from a movetext body, collapsing the result to single
// spaces. Header tag pairs are preserved untouched.
func CleanPGN(pgn string) string {
	var headers []string
	body := pgn
	if idx := strings.LastIndex(pgn, "]\n"); idx >= 0 {
		headers = strings.Split(pgn[:idx+1], "\n")
		body = pgn[idx+2:]
	}

	body = inlineTagPattern.ReplaceAllString(body, "")
	body = bracePattern.ReplaceAllString(body, "")
	body = dupMovePattern.ReplaceAllString(body, "")
	body = spacePattern.ReplaceAllString(body, " ")
	body = strings.TrimSpace(body)

	if len(headers) == 0 {
		return body
	}
	return strings.Join(headers, "\n") + "\n\n" + body
}

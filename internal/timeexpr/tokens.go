package timeexpr

import (
	"regexp"
	"strings"
)

// Token is a time-token-shaped substring of a task line.
type Token struct {
	Text  string
	Start int // byte offset of the token in the line
	End   int
	Due   bool
}

// tokenPattern matches substrings that look like time tokens. Mentions such as
// "@bob" do not match: after the @ the token must begin with a digit, a Chinese
// period word, "半", or the English relative form.
var tokenPattern = regexp.MustCompile(
	`(?:^|\s)((?i:@|due:)(?:(?i:in)\s+\d+(?:\.\d+)?\s*(?i:minutes|minute|mins|min|hours|hour|hrs|hr|h|m)\b|\d{1,2}(?::\d{2})?\s?(?i:am\b|pm\b|a\.m\.|p\.m\.)(?:[-+~]\S+)?|[\d上下晚凌中早半]\S*))`,
)

// FindTokens returns every time-token-shaped substring of line, in order.
func FindTokens(line string) []Token {
	matches := tokenPattern.FindAllStringSubmatchIndex(line, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		start, end := m[2], m[3]
		text := line[start:end]
		tokens = append(tokens, Token{
			Text:  text,
			Start: start,
			End:   end,
			Due:   len(text) >= 4 && strings.EqualFold(text[:4], "due:"),
		})
	}
	return tokens
}

// StripTokens removes every time token from line and collapses whitespace.
func StripTokens(line string) string {
	tokens := FindTokens(line)
	if len(tokens) == 0 {
		return strings.Join(strings.Fields(line), " ")
	}
	var b strings.Builder
	prev := 0
	for _, tok := range tokens {
		b.WriteString(line[prev:tok.Start])
		b.WriteByte(' ')
		prev = tok.End
	}
	b.WriteString(line[prev:])
	return strings.Join(strings.Fields(b.String()), " ")
}

package guess

import "regexp"

// parenGroup strips parenthesised content, e.g. "(2019)", "(Dub)".
var parenGroup = regexp.MustCompile(`\([^)]*\)`)

// separatorRun matches runs of characters the original scanner treats as
// word separators when comparing titles across naming conventions.
var separatorRun = regexp.MustCompile("[:\\-_/\\\\&|,;.=\"'+~@`]+")

var whitespaceRun = regexp.MustCompile(`\s+`)

// Clean normalises a title for comparison: lowercase, strip parenthesised
// groups, collapse separator runs to a single space (GLOSSARY: clean(s)).
func Clean(s string) string {
	s = parenGroup.ReplaceAllString(s, "")
	s = separatorRun.ReplaceAllString(s, " ")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return trimSpaceLower(s)
}

func trimSpaceLower(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return toLower(s[start:end])
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

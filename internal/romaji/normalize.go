package romaji

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// punctuationReplacer removes the fixed punctuation set during normalization.
var punctuationReplacer = strings.NewReplacer(
	",", "", ".", "", "!", "", "?", "", ";", "", ":", "",
	`"`, "", "'", "", "(", "", ")", "", "[", "", "]", "", "{", "", "}", "",
)

// Normalize canonicalizes romanized text for comparison: NFKC fold,
// lowercase, punctuation stripping, and whitespace collapsing. The result is
// stable under a second application.
func Normalize(text string) string {
	folded := norm.NFKC.String(text)
	lowered := strings.ToLower(folded)
	stripped := punctuationReplacer.Replace(lowered)
	return strings.Join(strings.Fields(stripped), " ")
}

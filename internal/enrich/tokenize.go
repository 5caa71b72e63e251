package enrich

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {}, "you": {},
	"your": {}, "about": {}, "just": {}, "into": {}, "more": {},
	"some": {}, "than": {}, "then": {}, "there": {}, "these": {},
	"been": {}, "being": {}, "very": {}, "also": {}, "after": {},
	"before": {}, "over": {}, "under": {}, "out": {}, "all": {},
}

// tokenize lower-cases text and splits it on non-alphanumeric boundaries.
// Stop words are kept; callers that need them removed filter afterwards,
// because the sentiment formula counts every token.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isStopWord(word string) bool {
	_, ok := stopWords[word]
	return ok
}

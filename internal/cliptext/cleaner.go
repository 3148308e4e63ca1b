// Package cliptext tidies text copied from documents before it is spoken.
//
// Copied text often carries hard line breaks, words hyphenated across
// lines, typographic quotes and reference markers such as "[12]". None of
// these read well aloud.
package cliptext

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	urlRegexPattern        = `https?://\S+`
	emailRegexPattern      = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	hyphenBreakPattern     = `(\p{L})-[ \t]*\r?\n[ \t]*(\p{L})`
	referenceRegexPattern  = `\[\d+(?:[,–-]\s*\d+)*\]|[¹²³⁴⁵⁶⁷⁸⁹⁰]+`
	whitespaceRegexPattern = `\s+`
	spaceBeforePunctuation = `\s+([.,;:!?])`
	placeholderFormat      = "\x00%d\x00"
)

// Cleaner normalizes copied text. It is safe for concurrent use.
type Cleaner struct {
	urlPattern        *regexp.Regexp
	emailPattern      *regexp.Regexp
	hyphenBreak       *regexp.Regexp
	referencePattern  *regexp.Regexp
	whitespacePattern *regexp.Regexp
	punctuationSpace  *regexp.Regexp
	typography        *strings.Replacer
}

// NewCleaner compiles the patterns once.
func NewCleaner() *Cleaner {
	return &Cleaner{
		urlPattern:        regexp.MustCompile(urlRegexPattern),
		emailPattern:      regexp.MustCompile(emailRegexPattern),
		hyphenBreak:       regexp.MustCompile(hyphenBreakPattern),
		referencePattern:  regexp.MustCompile(referenceRegexPattern),
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctuationSpace:  regexp.MustCompile(spaceBeforePunctuation),
		typography: strings.NewReplacer(
			"—", " - ",
			"–", "-",
			"‒", "-",
			"…", "...",
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
			"\u00a0", " ",
			"\u00ad", "",
		),
	}
}

// Clean returns text ready to speak. URLs and e-mail addresses are kept
// verbatim. The result has no leading or trailing space.
func (c *Cleaner) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	text = c.hyphenBreak.ReplaceAllString(text, "$1$2")

	text, tokens := c.protect(text)

	text = c.typography.Replace(text)
	text = c.referencePattern.ReplaceAllString(text, "")
	text = c.whitespacePattern.ReplaceAllString(text, " ")
	text = c.punctuationSpace.ReplaceAllString(text, "$1")

	for i, token := range tokens {
		text = strings.Replace(text, fmt.Sprintf(placeholderFormat, i), token, 1)
	}

	return strings.TrimSpace(text)
}

// protect swaps URLs and e-mail addresses for numbered placeholders.
func (c *Cleaner) protect(text string) (string, []string) {
	var tokens []string

	swap := func(match string) string {
		tokens = append(tokens, match)

		return fmt.Sprintf(placeholderFormat, len(tokens)-1)
	}

	text = c.urlPattern.ReplaceAllStringFunc(text, swap)
	text = c.emailPattern.ReplaceAllStringFunc(text, swap)

	return text, tokens
}

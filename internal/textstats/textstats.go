// Package textstats computes the surface statistics the scoring and
// constraint engines share.
package textstats

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

var lower = cases.Lower(language.Und)

// Lower lowercases s with Unicode-aware rules.
func Lower(s string) string {
	return lower.String(s)
}

// Words splits s on whitespace.
func Words(s string) []string {
	return strings.Fields(s)
}

// WordCount returns the number of whitespace-separated tokens.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// IsBlank reports whether s has no non-space content.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Sentences splits on runs of terminal punctuation and drops empty pieces.
func Sentences(s string) []string {
	var out []string
	for _, part := range sentenceSplit.Split(s, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MeanSentenceLength is the average word count per sentence, 0 when there
// are no sentences.
func MeanSentenceLength(s string) float64 {
	sentences := Sentences(s)
	if len(sentences) == 0 {
		return 0
	}
	total := 0
	for _, sent := range sentences {
		total += WordCount(sent)
	}
	return float64(total) / float64(len(sentences))
}

// Paragraphs splits on blank lines and drops empty pieces.
func Paragraphs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "\n\n") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// MeanParagraphLength is the average word count per paragraph.
func MeanParagraphLength(paragraphs []string) float64 {
	if len(paragraphs) == 0 {
		return 0
	}
	total := 0
	for _, p := range paragraphs {
		total += WordCount(p)
	}
	return float64(total) / float64(len(paragraphs))
}

// UniqueRatio is distinct lowercase tokens over total tokens.
func UniqueRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		seen[Lower(w)] = struct{}{}
	}
	return float64(len(seen)) / float64(len(words))
}

// LetterTokens splits s on every rune that is not a letter or digit and
// lowercases the pieces.
func LetterTokens(s string) []string {
	return strings.FieldsFunc(Lower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CountLetterTokens counts letter tokens of s that appear in keywords.
func CountLetterTokens(s string, keywords []string) int {
	set := keywordSet(keywords)
	n := 0
	for _, w := range LetterTokens(s) {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		set[Lower(k)] = struct{}{}
	}
	return set
}

// CountTokens counts lowercase tokens of s that appear in keywords.
func CountTokens(s string, keywords []string) int {
	if len(keywords) == 0 {
		return 0
	}
	set := keywordSet(keywords)
	n := 0
	for _, w := range Words(Lower(s)) {
		if _, ok := set[w]; ok {
			n++
		}
	}
	return n
}

// quotePairs are the opening and closing marks that delimit direct speech.
var quotePairs = [][2]rune{
	{'"', '"'},
	{'“', '”'},
	{'„', '“'},
	{'»', '«'},
}

// DialogueRatio is the share of characters (runes) that sit inside quoted
// speech, quotes included.
func DialogueRatio(s string) float64 {
	total := utf8.RuneCountInString(s)
	if total == 0 {
		return 0
	}
	runes := []rune(s)
	inside := 0
	for i := 0; i < len(runes); i++ {
		closer, ok := closingQuote(runes[i])
		if !ok {
			continue
		}
		for j := i + 1; j < len(runes); j++ {
			if runes[j] == closer {
				inside += j - i + 1
				i = j
				break
			}
		}
	}
	return float64(inside) / float64(total)
}

func closingQuote(r rune) (rune, bool) {
	for _, p := range quotePairs {
		if p[0] == r {
			return p[1], true
		}
	}
	return 0, false
}

// LineNumber returns the 1-based line of the byte offset pos.
func LineNumber(s string, pos int) int {
	if pos > len(s) {
		pos = len(s)
	}
	return strings.Count(s[:pos], "\n") + 1
}

// LongWords counts word-character runs of at least minRunes runes.
func LongWords(s string, minRunes int) int {
	n := 0
	run := 0
	for _, r := range s {
		if isWordRune(r) {
			run++
			continue
		}
		if run >= minRunes {
			n++
		}
		run = 0
	}
	if run >= minRunes {
		n++
	}
	return n
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

package pipeline

import (
	"strings"
	"unicode"
)

// maxScriptChars bounds what is sent to the hosted avatar provider. Longer
// scripts are cut at a sentence boundary rather than mid-word.
const maxScriptChars = 1500

// fallbackScript replaces input that fails the garble check. A short neutral
// line is better than an anchor reading extraction noise aloud.
const fallbackScript = "Here is a quick update on today's top story. Full details are available in the article below."

// SanitizeScript prepares article text for the hosted avatar provider:
// collapse whitespace, drop garbled extraction output, and bound the length
// at a sentence boundary.
func SanitizeScript(text string) string {
	clean := strings.Join(strings.Fields(text), " ")
	if clean == "" {
		return fallbackScript
	}
	if isGarbled(clean) {
		return fallbackScript
	}
	if len(clean) > maxScriptChars {
		clean = truncateAtSentence(clean, maxScriptChars)
	}
	return clean
}

// isGarbled flags text that looks like failed article extraction rather than
// prose: almost no vowels, or run-together words far longer than English has.
func isGarbled(text string) bool {
	var letters, vowels int
	longestWord := 0
	wordLen := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			wordLen++
			if strings.ContainsRune("aeiouAEIOU", r) {
				vowels++
			}
		} else {
			if wordLen > longestWord {
				longestWord = wordLen
			}
			wordLen = 0
		}
	}
	if wordLen > longestWord {
		longestWord = wordLen
	}

	if letters > 20 && float64(vowels)/float64(letters) < 0.25 {
		return true
	}
	if longestWord > 40 {
		return true
	}
	return false
}

// truncateAtSentence cuts text to at most limit bytes, preferring the last
// sentence end before the limit and falling back to the last word boundary.
func truncateAtSentence(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]

	end := -1
	for _, mark := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(cut, mark); i > end {
			end = i
		}
	}
	if end > 0 {
		return cut[:end+1]
	}
	if i := strings.LastIndex(cut, " "); i > 0 {
		return cut[:i] + "."
	}
	return cut
}

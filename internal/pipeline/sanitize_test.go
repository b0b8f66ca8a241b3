package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeScript_CollapsesWhitespace(t *testing.T) {
	got := SanitizeScript("Breaking   news:\n\tmarkets rallied\n today.")
	assert.Equal(t, "Breaking news: markets rallied today.", got)
}

func TestSanitizeScript_EmptyInputUsesFallback(t *testing.T) {
	assert.Equal(t, fallbackScript, SanitizeScript(""))
	assert.Equal(t, fallbackScript, SanitizeScript("   \n\t  "))
}

func TestSanitizeScript_GarbledInputUsesFallback(t *testing.T) {
	// Almost no vowels: typical of binary or markup leaking into extraction.
	garbled := "xjqwrtplkmnbvcxzsdfghjklqwrtpsdfghjklzxcvbnm"
	assert.Equal(t, fallbackScript, SanitizeScript(garbled))
}

func TestSanitizeScript_RunTogetherWordsUseFallback(t *testing.T) {
	// One "word" longer than anything in English.
	mashed := "The market " + strings.Repeat("datadatadata", 5) + " closed higher."
	assert.Equal(t, fallbackScript, SanitizeScript(mashed))
}

func TestSanitizeScript_NormalProsePassesThrough(t *testing.T) {
	text := "The central bank held interest rates steady on Wednesday, citing easing inflation."
	assert.Equal(t, text, SanitizeScript(text))
}

func TestSanitizeScript_TruncatesAtSentenceBoundary(t *testing.T) {
	sentence := "This is a complete sentence about the economy and markets today. "
	long := strings.Repeat(sentence, 50)

	got := SanitizeScript(long)
	assert.LessOrEqual(t, len(got), maxScriptChars)
	assert.True(t, strings.HasSuffix(got, "."), "truncated script should end at a sentence: %q", got[len(got)-20:])
}

func TestTruncateAtSentence_NoSentenceBoundary(t *testing.T) {
	long := strings.Repeat("word ", 400)

	got := truncateAtSentence(long, maxScriptChars)
	assert.LessOrEqual(t, len(got), maxScriptChars)
	assert.True(t, strings.HasSuffix(got, "."))
	assert.False(t, strings.HasSuffix(got, "wor."), "must cut at a word boundary")
}

func TestIsGarbled(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"normal prose", "Officials announced the new policy this morning.", false},
		{"short consonant cluster", "xyz", false}, // too short to judge
		{"no vowels", strings.Repeat("bcdfghjklmnpqrstvwxz", 3), true},
		{"numbers and prose", "Revenue grew 23% to $4.5 billion in 2026.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isGarbled(tt.text))
		})
	}
}

package sentiment

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// Base canonical word lists. Inputs are cleaned to canonical form first,
// so obfuscated spellings ("h4ppy", "saaad") still land on these words.
var basePositiveWords = []string{
	"happy",
	"joy",
	"joyful",
	"grateful",
	"thankful",
	"excited",
	"proud",
	"calm",
	"peaceful",
	"relaxed",
	"hopeful",
	"love",
	"loved",
	"wonderful",
	"amazing",
	"great",
	"good",
	"fun",
	"energized",
	"accomplished",
	"confident",
	"content",
}

var baseNegativeWords = []string{
	"sad",
	"angry",
	"anxious",
	"worried",
	"stressed",
	"tired",
	"exhausted",
	"lonely",
	"afraid",
	"scared",
	"frustrated",
	"upset",
	"miserable",
	"hopeless",
	"terrible",
	"awful",
	"bad",
	"hate",
	"hurt",
	"cry",
	"crying",
	"overwhelmed",
}

var spaceRegex = regexp.MustCompile(`\s+`)

// LexiconClassifier scores text offline against positive and negative
// word lists. Deterministic, which is what mock mode and tests need.
type LexiconClassifier struct {
	positive map[string]struct{}
	negative map[string]struct{}
}

var _ Classifier = (*LexiconClassifier)(nil)

// NewLexiconClassifier builds a classifier over the base word lists.
// The canonical words go through the same cleaning as inputs so both
// sides of a comparison live in the same canonical form.
func NewLexiconClassifier() *LexiconClassifier {
	c := &LexiconClassifier{
		positive: make(map[string]struct{}, len(basePositiveWords)),
		negative: make(map[string]struct{}, len(baseNegativeWords)),
	}
	for _, w := range basePositiveWords {
		c.positive[cleanText(w)] = struct{}{}
	}
	for _, w := range baseNegativeWords {
		c.negative[cleanText(w)] = struct{}{}
	}
	return c
}

// Score maps each text to 0.5 + 0.5*(pos-neg)/(pos+neg), counting
// word-boundary hits in the cleaned text. No hits means neutral 0.5.
func (c *LexiconClassifier) Score(_ context.Context, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	for i, text := range texts {
		scores[i] = c.scoreOne(text)
	}
	return scores, nil
}

func (c *LexiconClassifier) scoreOne(text string) float64 {
	var pos, neg int
	for _, word := range strings.Fields(cleanText(text)) {
		if _, ok := c.positive[word]; ok {
			pos++
		}
		if _, ok := c.negative[word]; ok {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0.5
	}
	return 0.5 + 0.5*float64(pos-neg)/float64(pos+neg)
}

// cleanText normalizes input to canonical form: lowercase, obfuscation
// characters folded to letters, non-letters dropped, letter repeats
// collapsed, whitespace normalized.
func cleanText(text string) string {
	cleaned := strings.ToLower(text)

	replacements := map[string]string{
		"@": "a",
		"4": "a",
		"3": "e",
		"!": "i",
		"1": "i",
		"0": "o",
		"$": "s",
		"5": "s",
		"7": "t",
		"+": "t",
	}
	for old, repl := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, repl)
	}

	var builder strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	cleaned = collapseRepeats(builder.String())

	cleaned = spaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// collapseRepeats reduces runs of the same letter to a single letter.
// "saaad" -> "sad". Spaces are preserved for word separation.
func collapseRepeats(text string) string {
	if len(text) == 0 {
		return text
	}

	var result strings.Builder
	lastChar := rune(0)
	lastWasLetter := false

	for _, char := range text {
		isLetter := unicode.IsLetter(char)
		if isLetter && lastWasLetter && char == lastChar {
			continue
		}
		result.WriteRune(char)
		lastChar = char
		lastWasLetter = isLetter
	}
	return result.String()
}

package sentiment

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/brandpulse/brandpulse/internal/domain"
)

var positiveEmoticons = []string{":)", ":-)", ":D", ":-D", ";)", "<3", ":]", "=)", "🙂", "😀", "😍", "❤️", "👍", "🎉"}
var negativeEmoticons = []string{":(", ":-(", ":'(", "D:", ":[", "=(", "🙁", "😞", "😡", "💔", "👎", "😠"}

// PatternModel scores surface polarity cues: emoticons and emoji, emphatic
// punctuation, shouting case, and letter stretching ("soooo"). It is weak on
// plain prose and reports low confidence when no cue is present.
type PatternModel struct{}

func NewPatternModel() *PatternModel { return &PatternModel{} }

func (m *PatternModel) Name() string { return "pattern" }

func (m *PatternModel) Classify(_ context.Context, text string) (domain.ModelResult, error) {
	var polarity float64
	cues := 0

	for _, e := range positiveEmoticons {
		if n := strings.Count(text, e); n > 0 {
			polarity += 0.5 * float64(n)
			cues += n
		}
	}
	for _, e := range negativeEmoticons {
		if n := strings.Count(text, e); n > 0 {
			polarity -= 0.5 * float64(n)
			cues += n
		}
	}

	// Emphasis cues have no polarity of their own; they amplify whatever
	// polarity the emoticons established.
	emphasis := 1.0
	if n := strings.Count(text, "!"); n > 0 {
		emphasis += 0.15 * math.Min(float64(n), 4)
	}
	if hasShouting(text) {
		emphasis += 0.2
	}
	if hasStretching(text) {
		emphasis += 0.15
	}

	polarity *= emphasis
	compound := polarity / math.Sqrt(polarity*polarity+4)

	confidence := 0.2
	if cues > 0 {
		confidence = math.Min(0.85, 0.4+0.15*float64(cues))
	}

	return domain.ModelResult{
		Label:      domain.LabelForCompound(compound),
		Positive:   math.Max(compound, 0),
		Negative:   math.Max(-compound, 0),
		Neutral:    1 - math.Abs(compound),
		Confidence: confidence,
	}, nil
}

// hasShouting reports whether the text contains a fully-uppercase word of at
// least three letters.
func hasShouting(text string) bool {
	for _, word := range strings.Fields(text) {
		letters := 0
		upper := 0
		for _, r := range word {
			if unicode.IsLetter(r) {
				letters++
				if unicode.IsUpper(r) {
					upper++
				}
			}
		}
		if letters >= 3 && letters == upper {
			return true
		}
	}
	return false
}

// hasStretching reports whether any letter repeats three or more times in a row.
func hasStretching(text string) bool {
	var prev rune
	run := 1
	for _, r := range strings.ToLower(text) {
		if r == prev && unicode.IsLetter(r) {
			run++
			if run >= 3 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}

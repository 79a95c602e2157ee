package sentiment

import (
	"context"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// Phrase is one noun-phrase span found by a chunking capability.
type Phrase struct {
	Text  string
	Start int
}

// PhraseChunker is the optional phrase-chunking capability. When the engine
// has none, aspect extraction returns an empty list, never an error.
type PhraseChunker interface {
	Chunk(text string) []Phrase
}

// modifierWindow is how many tokens on each side of a phrase are inspected for
// sentiment-bearing modifiers.
const modifierWindow = 2

// extractAspects pairs each noun phrase with its adjacent sentiment-bearing
// modifier tokens and scores the modifier-augmented span with the lexicon.
func extractAspects(ctx context.Context, text string, chunker PhraseChunker, lexicon *LexiconModel) []domain.AspectSentiment {
	if chunker == nil {
		return nil
	}

	tokens := Tokenize(text)
	var aspects []domain.AspectSentiment

	for _, phrase := range chunker.Chunk(text) {
		phraseTokens := Tokenize(phrase.Text)
		if len(phraseTokens) == 0 {
			continue
		}

		start, end := locateTokens(tokens, phraseTokens)
		var modifiers []string
		if start >= 0 {
			for i := start - modifierWindow; i < start; i++ {
				if i >= 0 {
					if _, ok := valence[tokens[i]]; ok {
						modifiers = append(modifiers, tokens[i])
					}
				}
			}
			for i := end; i < end+modifierWindow && i < len(tokens); i++ {
				if _, ok := valence[tokens[i]]; ok {
					modifiers = append(modifiers, tokens[i])
				}
			}
		}

		span := phrase.Text
		for _, m := range modifiers {
			span = m + " " + span
		}
		result, err := lexicon.Classify(ctx, span)
		if err != nil {
			continue
		}

		aspects = append(aspects, domain.AspectSentiment{
			Aspect:         phrase.Text,
			SentimentWords: modifiers,
			Sentiment:      result.Label,
			Score:          result.Compound(),
		})
	}

	return aspects
}

// locateTokens finds the first occurrence of needle as a contiguous token run
// in haystack, returning [start, end) token indices or (-1, -1).
func locateTokens(haystack, needle []string) (int, int) {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return -1, -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i, i + len(needle)
		}
	}
	return -1, -1
}

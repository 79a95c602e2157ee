package sentiment

import (
	"context"
	"math"
	"strings"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// valence maps sentiment-bearing words to polarity weights in [-1,1].
// A small embedded table tuned for social-media vocabulary.
var valence = map[string]float64{
	// positive
	"love": 0.85, "loved": 0.85, "loving": 0.8, "like": 0.4, "liked": 0.4,
	"great": 0.7, "good": 0.5, "nice": 0.45, "awesome": 0.85, "amazing": 0.85,
	"excellent": 0.8, "fantastic": 0.85, "wonderful": 0.8, "best": 0.75,
	"perfect": 0.8, "beautiful": 0.65, "brilliant": 0.75, "happy": 0.6,
	"glad": 0.5, "excited": 0.65, "impressive": 0.6, "impressed": 0.6,
	"recommend": 0.55, "recommended": 0.55, "win": 0.5, "winning": 0.5,
	"fast": 0.3, "smooth": 0.35, "solid": 0.35, "cool": 0.4, "fun": 0.45,
	"thanks": 0.4, "thank": 0.4, "helpful": 0.5, "reliable": 0.45,
	"enjoy": 0.55, "enjoyed": 0.55, "fresh": 0.3, "quality": 0.35,
	"stunning": 0.7, "superb": 0.75, "delight": 0.6, "delighted": 0.65,

	// negative
	"hate": -0.85, "hated": -0.85, "hating": -0.8, "dislike": -0.5,
	"bad": -0.55, "terrible": -0.8, "awful": -0.8, "horrible": -0.85,
	"worst": -0.85, "poor": -0.5, "disappointing": -0.65, "disappointed": -0.65,
	"broken": -0.6, "broke": -0.55, "useless": -0.7, "garbage": -0.75,
	"trash": -0.7, "scam": -0.8, "fraud": -0.8, "fail": -0.6, "failed": -0.6,
	"failure": -0.65, "angry": -0.6, "furious": -0.75, "annoying": -0.5,
	"annoyed": -0.5, "slow": -0.35, "buggy": -0.55, "crash": -0.55,
	"crashes": -0.55, "crashed": -0.55, "refund": -0.4, "overpriced": -0.5,
	"expensive": -0.3, "ugly": -0.5, "boring": -0.4, "sad": -0.5,
	"pathetic": -0.7, "disaster": -0.75, "nightmare": -0.7, "waste": -0.55,
	"worse": -0.6, "avoid": -0.45, "misleading": -0.55, "lied": -0.65,
	"lie": -0.5, "dangerous": -0.55, "unsafe": -0.6, "recall": -0.45,
}

// negators invert the valence of the following sentiment word.
var negators = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "cannot": true,
	"cant": true, "dont": true, "doesnt": true, "didnt": true, "wont": true,
	"isnt": true, "wasnt": true, "arent": true, "without": true, "hardly": true,
}

// boosters scale the valence of the following sentiment word.
var boosters = map[string]float64{
	"very": 0.3, "really": 0.3, "extremely": 0.4, "absolutely": 0.4,
	"totally": 0.3, "so": 0.2, "super": 0.3, "incredibly": 0.4,
	"completely": 0.3, "utterly": 0.4, "slightly": -0.3, "somewhat": -0.2,
	"barely": -0.4, "kinda": -0.2, "bit": -0.3,
}

const (
	negationFlip       = -0.74
	negationWindow     = 3
	valenceNormFactor  = 15.0
	lexiconMinimumConf = 0.3
)

// LexiconModel is the rule-based lexicon scorer. Stateless and deterministic.
type LexiconModel struct{}

func NewLexiconModel() *LexiconModel { return &LexiconModel{} }

func (m *LexiconModel) Name() string { return "lexicon" }

func (m *LexiconModel) Classify(_ context.Context, text string) (domain.ModelResult, error) {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return domain.ModelResult{Label: domain.LabelNeutral, Neutral: 1, Confidence: lexiconMinimumConf}, nil
	}

	var score float64
	hits := 0
	for i, tok := range tokens {
		v, ok := valence[tok]
		if !ok {
			continue
		}
		hits++

		// Scan the preceding window for boosters and negators. Negation
		// dampens and flips rather than mirroring exactly.
		for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
			prev := tokens[j]
			if b, ok := boosters[prev]; ok {
				if v > 0 {
					v += b * math.Abs(v)
				} else {
					v -= b * math.Abs(v)
				}
			}
			if negators[prev] {
				v *= negationFlip
				break
			}
		}
		score += v
	}

	// Squash the raw sum into [-1,1].
	compound := score / math.Sqrt(score*score+valenceNormFactor)

	pos := math.Max(compound, 0)
	neg := math.Max(-compound, 0)
	neu := 1 - math.Abs(compound)

	hitRatio := float64(hits) / float64(len(tokens))
	confidence := math.Min(1, lexiconMinimumConf+hitRatio*1.4)

	return domain.ModelResult{
		Label:      domain.LabelForCompound(compound),
		Positive:   pos,
		Negative:   neg,
		Neutral:    neu,
		Confidence: confidence,
	}, nil
}

// Tokenize lowercases and splits text into alphanumeric tokens, stripping
// punctuation except in-word apostrophes (which are dropped, so "don't"
// becomes "dont" and matches the negator table).
func Tokenize(text string) []string {
	var tokens []string
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// drop
		default:
			if b.Len() > 0 {
				tokens = append(tokens, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}

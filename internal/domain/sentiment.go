package domain

import "context"

// Label is the discrete sentiment class of a judgment.
type Label string

const (
	LabelPositive Label = "POSITIVE"
	LabelNegative Label = "NEGATIVE"
	LabelNeutral  Label = "NEUTRAL"
)

// LabelForCompound maps a compound score onto a discrete label using the
// standard +-0.05 thresholds.
func LabelForCompound(compound float64) Label {
	switch {
	case compound >= 0.05:
		return LabelPositive
	case compound <= -0.05:
		return LabelNegative
	default:
		return LabelNeutral
	}
}

// AspectSentiment is the sentiment attached to one aspect (noun phrase) of a text.
type AspectSentiment struct {
	Aspect         string   `json:"aspect"`
	SentimentWords []string `json:"sentiment_words,omitempty"`
	Sentiment      Label    `json:"sentiment"`
	Score          float64  `json:"score"`
}

// SentimentJudgment is the ensemble result for one text. Compound is in [-1,1];
// Positive/Negative/Neutral/Confidence are in [0,1]. Emotions, when present,
// sum to 1 across the taxonomy (or are all zero).
type SentimentJudgment struct {
	Label      Label              `json:"label"`
	Compound   float64            `json:"compound"`
	Positive   float64            `json:"positive"`
	Negative   float64            `json:"negative"`
	Neutral    float64            `json:"neutral"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions,omitempty"`
	Aspects    []AspectSentiment  `json:"aspects,omitempty"`
}

// NeutralJudgment is the degraded judgment emitted when every model fails.
// Downstream stages always receive a well-formed judgment, never an error.
func NeutralJudgment() SentimentJudgment {
	return SentimentJudgment{Label: LabelNeutral, Neutral: 1}
}

// ModelResult is the common schema every sentiment model returns.
type ModelResult struct {
	Label      Label
	Positive   float64
	Negative   float64
	Neutral    float64
	Confidence float64
}

// Compound collapses the class probabilities into a single polarity score.
func (r ModelResult) Compound() float64 {
	return r.Positive - r.Negative
}

// Classifier is the pluggable model capability: given text, return a label with
// class probabilities and a confidence. Implementations must be safe for
// concurrent use.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (ModelResult, error)
}

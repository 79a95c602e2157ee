package domain

// Named scores produced by the scoring engine. Sentiment-named scores live in
// [-1,1]; everything else is normalized to [0,1].
const (
	ScoreSentiment      = "sentiment_score"
	ScoreEngagement     = "engagement_score"
	ScoreVirality       = "virality_score"
	ScoreReach          = "reach_score"
	ScoreBrandRelevance = "brand_relevance"
	ScoreBrandSentiment = "brand_sentiment"
	ScoreOverallImpact  = "overall_impact"
	ScoreEmotionPrefix  = "emotion_"
)

// ScoreSet maps score names to values.
type ScoreSet map[string]float64

// SentimentScored reports whether the named score carries sentiment polarity
// and therefore ranges over [-1,1] instead of [0,1].
func SentimentScored(name string) bool {
	return name == ScoreSentiment || name == ScoreBrandSentiment
}

// ImpactLevel classifies overall impact into operator-facing buckets.
type ImpactLevel string

const (
	ImpactCritical ImpactLevel = "CRITICAL"
	ImpactHigh     ImpactLevel = "HIGH"
	ImpactMedium   ImpactLevel = "MEDIUM"
	ImpactLow      ImpactLevel = "LOW"
	ImpactMinimal  ImpactLevel = "MINIMAL"
)

// ImpactFactors explains a brand impact classification.
type ImpactFactors struct {
	PrimaryDrivers     []string `json:"primary_drivers"`
	RiskFactors        []string `json:"risk_factors"`
	OpportunityFactors []string `json:"opportunity_factors"`
}

// BrandImpactScore is the composite per-post classification of how much a post
// matters to a brand. Derived and read-only; recomputed per post.
type BrandImpactScore struct {
	Overall    float64       `json:"overall_score"`
	Sentiment  float64       `json:"sentiment_score"`
	Reach      float64       `json:"reach_score"`
	Engagement float64       `json:"engagement_score"`
	Virality   float64       `json:"virality_score"`
	Level      ImpactLevel   `json:"impact_level"`
	Confidence float64       `json:"confidence"`
	Factors    ImpactFactors `json:"factors"`
}

// TrendDirection summarizes the slope of a brand's recent score history.
type TrendDirection string

const (
	TrendRisingFast    TrendDirection = "RISING_FAST"
	TrendRising        TrendDirection = "RISING"
	TrendStable        TrendDirection = "STABLE"
	TrendDeclining     TrendDirection = "DECLINING"
	TrendDecliningFast TrendDirection = "DECLINING_FAST"
)

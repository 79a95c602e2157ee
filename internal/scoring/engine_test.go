package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/domain"
)

func newTestEngine() *Engine {
	return NewEngine(clockwork.NewFakeClock(), nil)
}

func positiveJudgment() domain.SentimentJudgment {
	return domain.SentimentJudgment{
		Label: domain.LabelPositive, Compound: 0.6,
		Positive: 0.6, Neutral: 0.4, Confidence: 0.8,
	}
}

func negativeJudgment() domain.SentimentJudgment {
	return domain.SentimentJudgment{
		Label: domain.LabelNegative, Compound: -0.6,
		Negative: 0.6, Neutral: 0.4, Confidence: 0.8,
	}
}

func appleMention() domain.BrandMention {
	return domain.BrandMention{Brand: "Apple", MatchedText: "Apple", Confidence: 1.0, MatchType: domain.MatchDirect}
}

func TestCalculateScores_SentimentWeighting(t *testing.T) {
	e := newTestEngine()

	pos := e.CalculateScores(positiveJudgment(), nil, domain.Engagement{}, domain.SourceTwitter)
	neg := e.CalculateScores(negativeJudgment(), nil, domain.Engagement{}, domain.SourceTwitter)

	// positive: 0.6 * 0.8 * 1.0
	assert.InDelta(t, 0.48, pos[domain.ScoreSentiment], 1e-9)
	// negative: amplified by 1.5 and carrying the negative sign
	assert.InDelta(t, -0.72, neg[domain.ScoreSentiment], 1e-9)
}

func TestCalculateScores_ViralityZeroWithoutShares(t *testing.T) {
	e := newTestEngine()
	scores := e.CalculateScores(positiveJudgment(), nil, domain.Engagement{Likes: 500, Comments: 200}, domain.SourceTwitter)
	assert.Equal(t, 0.0, scores[domain.ScoreVirality])
}

func TestCalculateScores_ViralityWithShares(t *testing.T) {
	e := newTestEngine()
	scores := e.CalculateScores(positiveJudgment(), nil, domain.Engagement{Likes: 100, Shares: 100, Comments: 0}, domain.SourceTwitter)

	// shareRatio = 100/200 = 0.5; 0.5*0.5 + 0.3*ln(101)/10 + 0
	expected := 0.25 + 0.3*math.Log(101)/10
	assert.InDelta(t, expected, scores[domain.ScoreVirality], 1e-9)
}

func TestCalculateScores_Bounds(t *testing.T) {
	e := newTestEngine()
	judgment := domain.SentimentJudgment{
		Label: domain.LabelNegative, Compound: -1, Negative: 1, Confidence: 1,
		Emotions: map[string]float64{"anger": 0.7, "disgust": 0.3},
	}
	eng := domain.Engagement{Likes: 1e7, Shares: 1e7, Comments: 1e7, Views: 1e8, Followers: 1e8}
	mentions := []domain.BrandMention{appleMention(), {Brand: "Samsung", MatchedText: "Samsung", Confidence: 0.9}}

	scores := e.CalculateScores(judgment, mentions, eng, domain.SourceTikTok)

	for name, value := range scores {
		if domain.SentimentScored(name) {
			assert.GreaterOrEqual(t, value, -1.0, name)
			assert.LessOrEqual(t, value, 1.0, name)
		} else {
			assert.GreaterOrEqual(t, value, 0.0, name)
			assert.LessOrEqual(t, value, 1.0, name)
		}
	}
}

func TestCalculateScores_BrandScoresAbsentWithoutMentions(t *testing.T) {
	e := newTestEngine()
	scores := e.CalculateScores(positiveJudgment(), nil, domain.Engagement{}, domain.SourceTwitter)
	_, hasRelevance := scores[domain.ScoreBrandRelevance]
	_, hasBrandSent := scores[domain.ScoreBrandSentiment]
	assert.False(t, hasRelevance)
	assert.False(t, hasBrandSent)
}

func TestCalculateScores_BrandRelevance(t *testing.T) {
	e := newTestEngine()
	mentions := []domain.BrandMention{appleMention()}
	scores := e.CalculateScores(positiveJudgment(), mentions, domain.Engagement{}, domain.SourceTwitter)

	// avgConf 1.0 * (1 + ln(2)/10)
	expected := 1 * (1 + math.Log(2)/10)
	if expected > 1 {
		expected = 1
	}
	assert.InDelta(t, expected, scores[domain.ScoreBrandRelevance], 1e-9)
}

func TestCalculateScores_BrandSentimentAspectLink(t *testing.T) {
	e := newTestEngine()
	judgment := positiveJudgment()
	judgment.Aspects = []domain.AspectSentiment{
		{Aspect: "apple camera", Score: -0.4, Sentiment: domain.LabelNegative},
		{Aspect: "shipping", Score: 0.9, Sentiment: domain.LabelPositive},
	}

	scores := e.CalculateScores(judgment, []domain.BrandMention{appleMention()}, domain.Engagement{}, domain.SourceTwitter)

	// only the aspect containing the mention text participates
	assert.InDelta(t, -0.4, scores[domain.ScoreBrandSentiment], 1e-9)
}

func TestCalculateScores_BrandSentimentFallback(t *testing.T) {
	e := newTestEngine()
	mentions := []domain.BrandMention{appleMention()}
	scores := e.CalculateScores(positiveJudgment(), mentions, domain.Engagement{}, domain.SourceTwitter)

	expected := 0.6 * scores[domain.ScoreBrandRelevance]
	assert.InDelta(t, expected, scores[domain.ScoreBrandSentiment], 1e-9)
}

func TestCalculateScores_ReachPlatformMultiplier(t *testing.T) {
	e := newTestEngine()
	eng := domain.Engagement{Views: 1000}

	tiktok := e.CalculateScores(positiveJudgment(), nil, eng, domain.SourceTikTok)
	reddit := e.CalculateScores(positiveJudgment(), nil, eng, domain.SourceReddit)

	assert.Greater(t, tiktok[domain.ScoreReach], reddit[domain.ScoreReach])
}

func TestClassifyImpact_Buckets(t *testing.T) {
	assert.Equal(t, domain.ImpactCritical, classifyImpact(0.95))
	assert.Equal(t, domain.ImpactCritical, classifyImpact(0.9))
	assert.Equal(t, domain.ImpactHigh, classifyImpact(0.7))
	assert.Equal(t, domain.ImpactMedium, classifyImpact(0.5))
	assert.Equal(t, domain.ImpactLow, classifyImpact(0.3))
	assert.Equal(t, domain.ImpactMinimal, classifyImpact(0.29))
}

func TestCalculateBrandImpact_RiskFactors(t *testing.T) {
	e := newTestEngine()
	judgment := domain.SentimentJudgment{Label: domain.LabelNegative, Compound: -0.9, Negative: 0.9, Confidence: 0.9}
	eng := domain.Engagement{Likes: 100, Shares: 5000, Comments: 300, Views: 2000000}

	impact := e.CalculateBrandImpact(judgment, []domain.BrandMention{appleMention()}, eng, domain.SourceTikTok)

	assert.Contains(t, impact.Factors.RiskFactors, "strong_negative_sentiment")
	assert.Contains(t, impact.Factors.RiskFactors, "viral_negative_content")
	assert.NotEmpty(t, impact.Factors.PrimaryDrivers)
	assert.Less(t, impact.Sentiment, 0.0)
}

func TestCalculateBrandImpact_Confidence(t *testing.T) {
	e := newTestEngine()
	judgment := positiveJudgment()
	eng := domain.Engagement{Likes: 10}

	impact := e.CalculateBrandImpact(judgment, []domain.BrandMention{appleMention()}, eng, domain.SourceTwitter)

	// mean of judgment confidence (0.8), mention confidence (1.0),
	// completeness (0.4+0.3+0.3 = 1.0)
	assert.InDelta(t, (0.8+1.0+1.0)/3, impact.Confidence, 1e-9)
}

func TestAnalyzeTrend_InsufficientPointsStable(t *testing.T) {
	e := newTestEngine()
	assert.Equal(t, domain.TrendStable, e.AnalyzeTrend("Apple", 0.5, 1))
	assert.Equal(t, domain.TrendStable, e.AnalyzeTrend("Apple", 0.6, 1))
}

func TestAnalyzeTrend_Directions(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := NewEngine(clock, nil)

	// 0.1 score increase per second: slope 0.1 > 0.05 -> RISING_FAST
	e.AnalyzeTrend("Apple", 0.1, 1)
	clock.Advance(time.Second)
	e.AnalyzeTrend("Apple", 0.2, 1)
	clock.Advance(time.Second)
	direction := e.AnalyzeTrend("Apple", 0.3, 1)
	assert.Equal(t, domain.TrendRisingFast, direction)

	// separate brand, declining slowly: slope -0.02
	e.AnalyzeTrend("Samsung", 0.50, 1)
	clock.Advance(time.Second)
	e.AnalyzeTrend("Samsung", 0.48, 1)
	clock.Advance(time.Second)
	direction = e.AnalyzeTrend("Samsung", 0.46, 1)
	assert.Equal(t, domain.TrendDeclining, direction)

	// flat history stays stable
	e.AnalyzeTrend("Nokia", 0.5, 1)
	clock.Advance(time.Second)
	e.AnalyzeTrend("Nokia", 0.5, 1)
	clock.Advance(time.Second)
	direction = e.AnalyzeTrend("Nokia", 0.5, 1)
	assert.Equal(t, domain.TrendStable, direction)
}

func TestAnalyzeTrend_WindowPruning(t *testing.T) {
	clock := clockwork.NewFakeClock()
	e := NewEngine(clock, nil)

	e.AnalyzeTrend("Apple", 0.9, 1)
	e.AnalyzeTrend("Apple", 0.9, 1)

	// old points fall outside the 1h window; only the new ones remain, so
	// the history restarts and reports stable
	clock.Advance(2 * time.Hour)
	assert.Equal(t, domain.TrendStable, e.AnalyzeTrend("Apple", 0.1, 1))
	clock.Advance(time.Second)
	assert.Equal(t, domain.TrendStable, e.AnalyzeTrend("Apple", 0.1, 1))
}

func TestEmotionIntensity_Clamped(t *testing.T) {
	require.LessOrEqual(t, emotionIntensity(map[string]float64{"joy": 1.0}), 1.0)
	assert.Equal(t, 0.0, emotionIntensity(nil))
}

package scoring

import (
	"math"
	"sort"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// sentimentTypeWeight amplifies negative sentiment relative to positive;
// neutral is nearly flattened.
var sentimentTypeWeight = map[domain.Label]float64{
	domain.LabelPositive: 1.0,
	domain.LabelNegative: -1.5,
	domain.LabelNeutral:  0.1,
}

// engagementWeight is the per-counter weight in the engagement sum.
var engagementWeight = struct {
	likes, shares, comments, views float64
}{likes: 1, shares: 3, comments: 2, views: 0.1}

// impactWeight drives the overall_impact combination; absolute values are
// used and the result is renormalized over the components actually present.
var impactWeight = map[string]float64{
	domain.ScoreSentiment:      0.25,
	domain.ScoreEngagement:     0.20,
	domain.ScoreVirality:       0.20,
	domain.ScoreReach:          0.15,
	domain.ScoreBrandRelevance: 0.10,
	domain.ScoreBrandSentiment: 0.10,
}

// defaultPlatformMultipliers weight reach by platform; short-video platforms
// spread further per view.
var defaultPlatformMultipliers = map[domain.Source]float64{
	domain.SourceTikTok:    1.5,
	domain.SourceYouTube:   1.3,
	domain.SourceInstagram: 1.2,
	domain.SourceTwitter:   1.0,
	domain.SourceFacebook:  1.0,
	domain.SourceNews:      1.1,
	domain.SourceReddit:    0.9,
	domain.SourceOther:     1.0,
}

// Engine computes composite scores and tracks per-brand trend history.
// Safe for concurrent use.
type Engine struct {
	multipliers map[domain.Source]float64
	trends      *trendTracker
}

// NewEngine builds a scoring engine. multipliers may be nil to use defaults;
// entries override per platform.
func NewEngine(clock clockwork.Clock, multipliers map[domain.Source]float64) *Engine {
	merged := make(map[domain.Source]float64, len(defaultPlatformMultipliers))
	for k, v := range defaultPlatformMultipliers {
		merged[k] = v
	}
	for k, v := range multipliers {
		merged[k] = v
	}
	return &Engine{
		multipliers: merged,
		trends:      newTrendTracker(clock),
	}
}

// CalculateScores produces the named score map for one post. All scores are
// in [0,1] except sentiment-named scores, which are in [-1,1].
func (e *Engine) CalculateScores(judgment domain.SentimentJudgment, mentions []domain.BrandMention, eng domain.Engagement, source domain.Source) domain.ScoreSet {
	scores := make(domain.ScoreSet)

	scores[domain.ScoreSentiment] = sentimentScore(judgment)
	scores[domain.ScoreEngagement] = engagementScore(eng)
	scores[domain.ScoreVirality] = viralityScore(eng)
	scores[domain.ScoreReach] = e.reachScore(eng, source)

	if len(judgment.Emotions) > 0 {
		for emotion, value := range judgment.Emotions {
			scores[domain.ScoreEmotionPrefix+emotion] = value
		}
		scores[domain.ScoreEmotionPrefix+"intensity"] = emotionIntensity(judgment.Emotions)
	}

	if len(mentions) > 0 {
		relevance := brandRelevance(mentions)
		scores[domain.ScoreBrandRelevance] = relevance
		scores[domain.ScoreBrandSentiment] = brandSentiment(judgment, mentions, relevance)
	}

	scores[domain.ScoreOverallImpact] = overallImpact(scores)
	return scores
}

// sentimentScore scales the compound magnitude by confidence and the
// label-type weight, clamped to [-1,1]. The negative weight both flips the
// direction marker onto the score and amplifies it.
func sentimentScore(j domain.SentimentJudgment) float64 {
	score := math.Abs(j.Compound) * j.Confidence * sentimentTypeWeight[j.Label]
	return clamp(score, -1, 1)
}

func emotionIntensity(emotions map[string]float64) float64 {
	if len(emotions) == 0 {
		return 0
	}
	var sum float64
	for _, v := range emotions {
		sum += v
	}
	mean := sum / float64(len(emotions))
	var variance float64
	for _, v := range emotions {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(emotions))
	return math.Min(1, 0.3*variance+0.7*sum)
}

func brandRelevance(mentions []domain.BrandMention) float64 {
	var confSum float64
	unique := make(map[string]bool)
	for _, m := range mentions {
		confSum += m.Confidence
		unique[m.Brand] = true
	}
	avg := confSum / float64(len(mentions))
	return math.Min(1, avg*(1+math.Log(1+float64(len(unique)))/10))
}

// brandSentiment averages aspect scores whose aspect text links to a mention
// by substring containment; without such a link it falls back to
// compound * brand_relevance.
func brandSentiment(j domain.SentimentJudgment, mentions []domain.BrandMention, relevance float64) float64 {
	var linked []float64
	for _, aspect := range j.Aspects {
		for _, m := range mentions {
			if containsFold(aspect.Aspect, m.MatchedText) || containsFold(m.MatchedText, aspect.Aspect) {
				linked = append(linked, aspect.Score)
				break
			}
		}
	}
	if len(linked) > 0 {
		var sum float64
		for _, s := range linked {
			sum += s
		}
		return clamp(sum/float64(len(linked)), -1, 1)
	}
	return clamp(j.Compound*relevance, -1, 1)
}

func engagementScore(eng domain.Engagement) float64 {
	weighted := float64(eng.Likes)*engagementWeight.likes +
		float64(eng.Shares)*engagementWeight.shares +
		float64(eng.Comments)*engagementWeight.comments +
		float64(eng.Views)*engagementWeight.views
	return math.Min(1, math.Log(1+weighted)/10)
}

// viralityScore emphasizes the share-to-total ratio plus absolute share
// volume. Zero when there are no shares.
func viralityScore(eng domain.Engagement) float64 {
	if eng.Shares == 0 {
		return 0
	}
	total := float64(eng.Shares + eng.Comments + eng.Likes)
	shareRatio := float64(eng.Shares) / total
	score := 0.5*shareRatio +
		0.3*math.Log(1+float64(eng.Shares))/10 +
		0.2*math.Log(1+float64(eng.Comments))/20
	return math.Min(1, score)
}

func (e *Engine) reachScore(eng domain.Engagement, source domain.Source) float64 {
	base := math.Max(float64(eng.Views), math.Max(float64(eng.Impressions), float64(eng.Followers)*0.1))
	mult, ok := e.multipliers[source]
	if !ok {
		mult = 1.0
	}
	return math.Min(1, math.Log(1+base*mult)/15)
}

// overallImpact combines absolute component scores, renormalizing the weights
// over the components present in the set.
func overallImpact(scores domain.ScoreSet) float64 {
	var sum, weightSum float64
	for name, weight := range impactWeight {
		value, ok := scores[name]
		if !ok {
			continue
		}
		sum += math.Abs(value) * weight
		weightSum += weight
	}
	if weightSum == 0 {
		return 0
	}
	return math.Min(1, sum/weightSum)
}

// classifyImpact buckets overall impact against descending thresholds.
func classifyImpact(overall float64) domain.ImpactLevel {
	switch {
	case overall >= 0.9:
		return domain.ImpactCritical
	case overall >= 0.7:
		return domain.ImpactHigh
	case overall >= 0.5:
		return domain.ImpactMedium
	case overall >= 0.3:
		return domain.ImpactLow
	default:
		return domain.ImpactMinimal
	}
}

// CalculateBrandImpact produces the composite per-post brand impact
// classification with its driving factors.
func (e *Engine) CalculateBrandImpact(judgment domain.SentimentJudgment, mentions []domain.BrandMention, eng domain.Engagement, source domain.Source) domain.BrandImpactScore {
	scores := e.CalculateScores(judgment, mentions, eng, source)
	overall := scores[domain.ScoreOverallImpact]

	impact := domain.BrandImpactScore{
		Overall:    overall,
		Sentiment:  scores[domain.ScoreSentiment],
		Reach:      scores[domain.ScoreReach],
		Engagement: scores[domain.ScoreEngagement],
		Virality:   scores[domain.ScoreVirality],
		Level:      classifyImpact(overall),
		Confidence: impactConfidence(judgment, mentions, eng),
		Factors:    impactFactors(scores),
	}
	return impact
}

// impactConfidence averages sentiment confidence, mean mention confidence,
// and a data-completeness ratio.
func impactConfidence(judgment domain.SentimentJudgment, mentions []domain.BrandMention, eng domain.Engagement) float64 {
	parts := []float64{judgment.Confidence}

	if len(mentions) > 0 {
		var sum float64
		for _, m := range mentions {
			sum += m.Confidence
		}
		parts = append(parts, sum/float64(len(mentions)))
	}

	completeness := 0.4 // a judgment is always present
	if len(mentions) > 0 {
		completeness += 0.3
	}
	if eng.Likes > 0 || eng.Shares > 0 || eng.Comments > 0 || eng.Views > 0 {
		completeness += 0.3
	}
	parts = append(parts, completeness)

	var sum float64
	for _, p := range parts {
		sum += p
	}
	return sum / float64(len(parts))
}

func impactFactors(scores domain.ScoreSet) domain.ImpactFactors {
	factors := domain.ImpactFactors{}

	type contribution struct {
		name  string
		value float64
	}
	var contributions []contribution
	for name, weight := range impactWeight {
		if value, ok := scores[name]; ok && value != 0 {
			contributions = append(contributions, contribution{name: name, value: math.Abs(value) * weight})
		}
	}
	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].value != contributions[j].value {
			return contributions[i].value > contributions[j].value
		}
		return contributions[i].name < contributions[j].name
	})
	for i, c := range contributions {
		if i >= 3 {
			break
		}
		factors.PrimaryDrivers = append(factors.PrimaryDrivers, c.name)
	}

	sentiment := scores[domain.ScoreSentiment]
	if sentiment < -0.3 {
		factors.RiskFactors = append(factors.RiskFactors, "strong_negative_sentiment")
	}
	if scores[domain.ScoreVirality] > 0.6 && sentiment < 0 {
		factors.RiskFactors = append(factors.RiskFactors, "viral_negative_content")
	}
	if scores[domain.ScoreReach] > 0.7 && sentiment < 0 {
		factors.RiskFactors = append(factors.RiskFactors, "wide_negative_reach")
	}

	if sentiment > 0.3 {
		factors.OpportunityFactors = append(factors.OpportunityFactors, "strong_positive_sentiment")
	}
	if scores[domain.ScoreVirality] > 0.6 && sentiment > 0 {
		factors.OpportunityFactors = append(factors.OpportunityFactors, "viral_positive_momentum")
	}
	if scores[domain.ScoreEngagement] > 0.7 {
		factors.OpportunityFactors = append(factors.OpportunityFactors, "high_engagement")
	}

	return factors
}

// AnalyzeTrend records currentScore for brand and classifies the direction of
// its recent history within windowHours.
func (e *Engine) AnalyzeTrend(brand string, currentScore float64, windowHours float64) domain.TrendDirection {
	return e.trends.analyze(brand, currentScore, windowHours)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

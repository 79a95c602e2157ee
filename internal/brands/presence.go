package brands

import (
	"context"
	"sort"
	"strings"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// AnalyzePresence aggregates mention statistics per brand across a corpus of
// texts: counts, per-document frequency, confidence spread, and which match
// passes contributed.
func (p *Processor) AnalyzePresence(ctx context.Context, texts []string) []domain.BrandPresence {
	type agg struct {
		mentions  int
		documents map[int]bool
		confSum   float64
		confMin   float64
		confMax   float64
		types     map[string]bool
	}
	byBrand := make(map[string]*agg)

	for docIdx, text := range texts {
		for _, m := range p.ExtractMentions(ctx, text, domain.SourceOther) {
			a, ok := byBrand[m.Brand]
			if !ok {
				a = &agg{documents: make(map[int]bool), types: make(map[string]bool), confMin: m.Confidence, confMax: m.Confidence}
				byBrand[m.Brand] = a
			}
			a.mentions++
			a.documents[docIdx] = true
			a.confSum += m.Confidence
			if m.Confidence < a.confMin {
				a.confMin = m.Confidence
			}
			if m.Confidence > a.confMax {
				a.confMax = m.Confidence
			}
			a.types[string(m.MatchType)] = true
		}
	}

	out := make([]domain.BrandPresence, 0, len(byBrand))
	for brand, a := range byBrand {
		var matchTypes []string
		for t := range a.types {
			matchTypes = append(matchTypes, t)
		}
		sort.Strings(matchTypes)

		frequency := 0.0
		if len(texts) > 0 {
			frequency = float64(a.mentions) / float64(len(texts))
		}
		out = append(out, domain.BrandPresence{
			Brand:         brand,
			Mentions:      a.mentions,
			Documents:     len(a.documents),
			Frequency:     frequency,
			AvgConfidence: a.confSum / float64(a.mentions),
			MinConfidence: a.confMin,
			MaxConfidence: a.confMax,
			MatchTypes:    matchTypes,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Brand < out[j].Brand
	})
	return out
}

// CompareMentions computes, for the target brand and its configured
// competitors, each party's share of total mentions and the competitors'
// mention volume relative to the target's. Competitors need no profile of
// their own; they are counted by direct whole-word name scan.
func (p *Processor) CompareMentions(_ context.Context, texts []string, brandName string) []domain.CompetitorShare {
	p.mu.RLock()
	profile, ok := p.profiles[strings.ToLower(brandName)]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	parties := append([]string{profile.Name}, profile.Competitors...)
	counts := make(map[string]int, len(parties))

	total := 0
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, name := range parties {
			n := countWholeWord(lower, strings.ToLower(name))
			counts[name] += n
			total += n
		}
	}

	targetCount := counts[profile.Name]
	out := make([]domain.CompetitorShare, 0, len(parties))
	for _, name := range parties {
		n := counts[name]
		share := 0.0
		if total > 0 {
			share = float64(n) / float64(total)
		}
		relative := 0.0
		if targetCount > 0 {
			relative = float64(n) / float64(targetCount)
		}
		out = append(out, domain.CompetitorShare{
			Brand:          name,
			Mentions:       n,
			Share:          share,
			RelativeVolume: relative,
		})
	}
	return out
}

// countWholeWord counts whole-word occurrences of term in lowercased text.
func countWholeWord(lower, term string) int {
	if term == "" {
		return 0
	}
	count := 0
	from := 0
	for {
		idx := strings.Index(lower[from:], term)
		if idx < 0 {
			return count
		}
		pos := from + idx
		if wholeWord(lower, pos, len(term)) {
			count++
		}
		from = pos + len(term)
	}
}

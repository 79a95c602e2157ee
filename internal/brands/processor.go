package brands

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/brandpulse/brandpulse/internal/domain"
)

const (
	directConfidence  = 1.0
	hashtagConfidence = 0.95
	handleConfidence  = 1.0
	entityScale       = 0.9
	contextWindow     = 50
	fuzzyMinWordLen   = 3

	// defaultMinConfidence applies when a profile leaves min_confidence unset;
	// a zero floor would admit every fuzzy comparison.
	defaultMinConfidence = 0.8
)

type indexedTerm struct {
	term  string
	brand string
}

// Processor extracts brand mentions from text. Matching passes run against
// lookup indices rebuilt whenever a profile is added; reads take the read
// lock so extraction can run from concurrent batch workers.
type Processor struct {
	mu         sync.RWMutex
	profiles   map[string]domain.BrandProfile
	nameIndex  map[string]string // lowercased name/alias -> brand
	hashtags   map[string]string // lowercased tag (no '#') -> brand
	handles    map[string]string // lowercased handle (no '@') -> brand
	fuzzyTerms []indexedTerm     // all names and aliases, lowercased
	recognizer domain.EntityRecognizer
}

// NewProcessor builds a processor over the given profiles. recognizer may be
// nil; the entity pass then degrades to nothing.
func NewProcessor(profiles []domain.BrandProfile, recognizer domain.EntityRecognizer) *Processor {
	p := &Processor{
		profiles:   make(map[string]domain.BrandProfile),
		recognizer: recognizer,
	}
	for _, profile := range profiles {
		p.profiles[strings.ToLower(profile.Name)] = normalizeProfile(profile)
	}
	p.rebuild()
	return p
}

func normalizeProfile(profile domain.BrandProfile) domain.BrandProfile {
	if profile.MinConfidence == 0 {
		profile.MinConfidence = defaultMinConfidence
	}
	return profile
}

// AddBrand registers a profile at runtime and rebuilds the lookup indices.
func (p *Processor) AddBrand(profile domain.BrandProfile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles[strings.ToLower(profile.Name)] = normalizeProfile(profile)
	p.rebuild()
	slog.Info("Brand profile added", "brand", profile.Name, "profiles", len(p.profiles))
}

// rebuild recomputes all indices from the profile set. Caller holds the write
// lock (or has exclusive access during construction).
func (p *Processor) rebuild() {
	p.nameIndex = make(map[string]string)
	p.hashtags = make(map[string]string)
	p.handles = make(map[string]string)
	p.fuzzyTerms = p.fuzzyTerms[:0]

	for _, profile := range p.profiles {
		terms := append([]string{profile.Name}, profile.Aliases...)
		for _, term := range terms {
			lower := strings.ToLower(term)
			if lower == "" {
				continue
			}
			p.nameIndex[lower] = profile.Name
			p.fuzzyTerms = append(p.fuzzyTerms, indexedTerm{term: lower, brand: profile.Name})
		}
		for _, tag := range profile.Hashtags {
			p.hashtags[strings.ToLower(strings.TrimPrefix(tag, "#"))] = profile.Name
		}
		for _, handle := range profile.Handles {
			p.handles[strings.ToLower(strings.TrimPrefix(handle, "@"))] = profile.Name
		}
	}

	// Deterministic fuzzy iteration order regardless of map ordering.
	sort.Slice(p.fuzzyTerms, func(i, j int) bool {
		if p.fuzzyTerms[i].term != p.fuzzyTerms[j].term {
			return p.fuzzyTerms[i].term < p.fuzzyTerms[j].term
		}
		return p.fuzzyTerms[i].brand < p.fuzzyTerms[j].brand
	})
}

// ExtractMentions runs all matching passes over text and returns mentions
// deduplicated by (brand, position), keeping the highest confidence.
func (p *Processor) ExtractMentions(ctx context.Context, text string, source domain.Source) []domain.BrandMention {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var candidates []domain.BrandMention
	candidates = append(candidates, p.matchDirect(text, source)...)
	candidates = append(candidates, p.matchTags(text, source)...)
	candidates = append(candidates, p.matchFuzzy(text, source)...)
	candidates = append(candidates, p.matchEntities(ctx, text, source)...)

	mentions := dedupe(candidates)
	for i := range mentions {
		mentions[i].Context = contextSnippet(text, mentions[i].Position, len(mentions[i].MatchedText))
	}

	sort.Slice(mentions, func(i, j int) bool {
		if mentions[i].Position != mentions[j].Position {
			return mentions[i].Position < mentions[j].Position
		}
		return mentions[i].Brand < mentions[j].Brand
	})
	return mentions
}

// foldedText is a lowercased copy of a text together with a map from every
// byte of the folded form back to the byte offset of the originating rune.
// Lowercasing changes byte length for some runes (U+0130 shrinks, U+023A
// grows), so offsets found in the folded text cannot index the original
// directly.
type foldedText struct {
	lower   string
	offsets []int // len(lower)+1 entries; offsets[len(lower)] == len(original)
}

func foldText(text string) foldedText {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		folded := unicode.ToLower(r)
		for j := 0; j < utf8.RuneLen(folded); j++ {
			offsets = append(offsets, i)
		}
		b.WriteRune(folded)
	}
	offsets = append(offsets, len(text))
	return foldedText{lower: b.String(), offsets: offsets}
}

// matchDirect finds case-insensitive whole-word occurrences of brand names
// and aliases. Matches run over the folded text; positions and matched text
// are reported in original-text byte offsets.
func (p *Processor) matchDirect(text string, source domain.Source) []domain.BrandMention {
	folded := foldText(text)
	var out []domain.BrandMention

	for term, brand := range p.nameIndex {
		from := 0
		for {
			idx := strings.Index(folded.lower[from:], term)
			if idx < 0 {
				break
			}
			pos := from + idx
			if wholeWord(folded.lower, pos, len(term)) {
				start := folded.offsets[pos]
				end := folded.offsets[pos+len(term)]
				out = append(out, domain.BrandMention{
					Brand:       brand,
					MatchedText: text[start:end],
					Position:    start,
					Confidence:  directConfidence,
					MatchType:   domain.MatchDirect,
					Source:      source,
				})
			}
			from = pos + len(term)
		}
	}
	return out
}

// matchTags resolves #hashtag and @handle tokens against their lookup maps.
func (p *Processor) matchTags(text string, source domain.Source) []domain.BrandMention {
	var out []domain.BrandMention
	for _, tok := range tokenizeOffsets(text) {
		switch {
		case strings.HasPrefix(tok.text, "#"):
			key := strings.ToLower(strings.TrimRight(tok.text[1:], ".,!?:;"))
			if brand, ok := p.hashtags[key]; ok {
				out = append(out, domain.BrandMention{
					Brand:       brand,
					MatchedText: tok.text,
					Position:    tok.offset,
					Confidence:  hashtagConfidence,
					MatchType:   domain.MatchHashtag,
					Source:      source,
				})
			}
		case strings.HasPrefix(tok.text, "@"):
			key := strings.ToLower(strings.TrimRight(tok.text[1:], ".,!?:;"))
			if brand, ok := p.handles[key]; ok {
				out = append(out, domain.BrandMention{
					Brand:       brand,
					MatchedText: tok.text,
					Position:    tok.offset,
					Confidence:  handleConfidence,
					MatchType:   domain.MatchHandle,
					Source:      source,
				})
			}
		}
	}
	return out
}

// matchFuzzy compares every word of at least three characters against all
// known names and aliases. Exact matches are already covered by the direct
// pass, so only similarities strictly below 1.0 are kept here.
func (p *Processor) matchFuzzy(text string, source domain.Source) []domain.BrandMention {
	var out []domain.BrandMention
	for _, tok := range tokenizeOffsets(text) {
		word := strings.ToLower(strings.Trim(tok.text, ".,!?:;'\"()"))
		if len(word) < fuzzyMinWordLen || strings.HasPrefix(word, "#") || strings.HasPrefix(word, "@") {
			continue
		}
		for _, entry := range p.fuzzyTerms {
			sim := Similarity(word, entry.term)
			if sim >= 1.0 {
				continue
			}
			profile := p.profiles[strings.ToLower(entry.brand)]
			if sim < profile.MinConfidence {
				continue
			}
			out = append(out, domain.BrandMention{
				Brand:       entry.brand,
				MatchedText: tok.text,
				Position:    tok.offset,
				Confidence:  sim,
				MatchType:   domain.MatchFuzzy,
				Source:      source,
			})
		}
	}
	return out
}

// matchEntities compares recognized organization/product entities to brand
// names. Confidence is the similarity scaled by 0.9 to reflect the lower
// trust in this channel. Degrades to nothing without a recognizer.
func (p *Processor) matchEntities(ctx context.Context, text string, source domain.Source) []domain.BrandMention {
	if p.recognizer == nil {
		return nil
	}
	entities, err := p.recognizer.ExtractEntities(ctx, text)
	if err != nil {
		slog.Warn("Entity recognition failed, skipping entity pass", "error", err)
		return nil
	}

	var out []domain.BrandMention
	for _, entity := range entities {
		label := strings.ToUpper(entity.Label)
		if label != "ORG" && label != "ORGANIZATION" && label != "PRODUCT" {
			continue
		}
		lower := strings.ToLower(entity.Text)
		for _, entry := range p.fuzzyTerms {
			sim := Similarity(lower, entry.term)
			confidence := sim * entityScale
			profile := p.profiles[strings.ToLower(entry.brand)]
			if confidence < profile.MinConfidence {
				continue
			}
			out = append(out, domain.BrandMention{
				Brand:       entry.brand,
				MatchedText: entity.Text,
				Position:    entity.Start,
				Confidence:  confidence,
				MatchType:   domain.MatchEntity,
				Source:      source,
			})
		}
	}
	return out
}

// dedupe keeps the highest-confidence mention per (brand, position).
func dedupe(candidates []domain.BrandMention) []domain.BrandMention {
	type key struct {
		brand    string
		position int
	}
	best := make(map[key]domain.BrandMention, len(candidates))
	for _, m := range candidates {
		k := key{brand: m.Brand, position: m.Position}
		if existing, ok := best[k]; !ok || m.Confidence > existing.Confidence {
			best[k] = m
		}
	}
	out := make([]domain.BrandMention, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	return out
}

// contextSnippet slices a fixed-width window around the match, marking
// truncated sides with an ellipsis. Window edges are widened to the nearest
// rune boundary so multi-byte text is never cut mid-rune.
func contextSnippet(text string, position, matchLen int) string {
	start := position - contextWindow
	end := position + matchLen + contextWindow

	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}

	prefix, suffix := "", ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(text) {
		suffix = "..."
	}
	return prefix + text[start:end] + suffix
}

// wholeWord reports whether s[pos:pos+n] is bounded by non-word characters.
func wholeWord(s string, pos, n int) bool {
	if pos > 0 {
		if r := rune(s[pos-1]); isWordChar(r) || r == '#' || r == '@' {
			return false
		}
	}
	if pos+n < len(s) && isWordChar(rune(s[pos+n])) {
		return false
	}
	return true
}

func isWordChar(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

type token struct {
	text   string
	offset int
}

// tokenizeOffsets splits on whitespace keeping byte offsets.
func tokenizeOffsets(text string) []token {
	var tokens []token
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, token{text: text[start:i], offset: start})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, token{text: text[start:], offset: start})
	}
	return tokens
}

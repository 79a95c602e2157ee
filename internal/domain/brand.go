package domain

import "context"

// MatchType records which matching pass produced a brand mention.
type MatchType string

const (
	MatchDirect  MatchType = "direct"
	MatchHashtag MatchType = "hashtag"
	MatchHandle  MatchType = "handle"
	MatchFuzzy   MatchType = "fuzzy"
	MatchEntity  MatchType = "entity"
)

// BrandMention is one occurrence of a brand in a text. Position is the byte
// offset of the matched token. Mentions are deduplicated by (Brand, Position)
// keeping the highest confidence.
type BrandMention struct {
	Brand       string    `json:"brand"`
	MatchedText string    `json:"matched_text"`
	Position    int       `json:"position"`
	Context     string    `json:"context"`
	Confidence  float64   `json:"confidence"`
	MatchType   MatchType `json:"match_type"`
	Source      Source    `json:"source"`
}

// BrandProfile is the reference data driving mention extraction for one brand.
// Loaded at startup; AddBrand rebuilds the processor's lookup indices.
type BrandProfile struct {
	Name          string   `yaml:"name" json:"name"`
	Aliases       []string `yaml:"aliases" json:"aliases"`
	Hashtags      []string `yaml:"hashtags" json:"hashtags"`
	Handles       []string `yaml:"handles" json:"handles"`
	Competitors   []string `yaml:"competitors" json:"competitors"`
	Products      []string `yaml:"products" json:"products"`
	MinConfidence float64  `yaml:"min_confidence" json:"min_confidence"`
}

// Entity is a named entity found by an external recognition capability.
type Entity struct {
	Text  string
	Label string
	Start int
}

// EntityRecognizer is the optional named-entity capability. When absent, the
// entity matching pass and aspect extraction degrade to empty results.
type EntityRecognizer interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// BrandPresence aggregates mention statistics for one brand across a corpus.
type BrandPresence struct {
	Brand         string   `json:"brand"`
	Mentions      int      `json:"mentions"`
	Documents     int      `json:"documents"`
	Frequency     float64  `json:"frequency"`
	AvgConfidence float64  `json:"avg_confidence"`
	MinConfidence float64  `json:"min_confidence"`
	MaxConfidence float64  `json:"max_confidence"`
	MatchTypes    []string `json:"match_types"`
}

// CompetitorShare is one party's share of mentions in a competitor comparison.
type CompetitorShare struct {
	Brand          string  `json:"brand"`
	Mentions       int     `json:"mentions"`
	Share          float64 `json:"share"`
	RelativeVolume float64 `json:"relative_volume"`
}

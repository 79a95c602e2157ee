package domain

import "errors"

// ErrStopped is returned when work is submitted to a pipeline that has
// already shut down.
var ErrStopped = errors.New("pipeline stopped")

// ProcessedPost is the pipeline's unit of output: one per input post, strict
// 1:1 correspondence.
type ProcessedPost struct {
	Post             Post              `json:"post"`
	Sentiment        SentimentJudgment `json:"sentiment"`
	Brands           []BrandMention    `json:"brands"`
	Scores           ScoreSet          `json:"scores"`
	Alerts           []Alert           `json:"alerts,omitempty"`
	ProcessingMicros int64             `json:"processing_time_us"`
}

package pipeline

import (
	"context"
	"log/slog"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// ProcessHistorical analyzes a fixed slice of posts outside the streaming
// stages. Input is chunked into batchSize groups; parallel runs each chunk
// on the worker pool, otherwise posts run one by one. Results come back in
// input order in both modes, one per post. A post whose analysis fails
// yields a neutral result rather than being dropped.
func (p *Pipeline) ProcessHistorical(ctx context.Context, posts []domain.Post, parallel bool) []domain.ProcessedPost {
	results := make([]domain.ProcessedPost, 0, len(posts))

	for start := 0; start < len(posts); start += p.cfg.BatchSize {
		end := start + p.cfg.BatchSize
		if end > len(posts) {
			end = len(posts)
		}
		chunk := posts[start:end]

		if parallel {
			results = append(results, p.historicalChunk(ctx, chunk)...)
			continue
		}
		for _, post := range chunk {
			results = append(results, p.analyzeSafe(ctx, post))
		}
	}
	return results
}

// historicalChunk runs one chunk through the worker pool, falling back to
// per-post sequential analysis if the parallel pass fails.
func (p *Pipeline) historicalChunk(ctx context.Context, chunk []domain.Post) []domain.ProcessedPost {
	processed, err := p.processBatch(ctx, chunk)
	if err == nil {
		return processed
	}

	slog.Warn("Historical batch failed in parallel mode, retrying sequentially",
		"batch_size", len(chunk), "error", err)
	out := make([]domain.ProcessedPost, 0, len(chunk))
	for _, post := range chunk {
		out = append(out, p.analyzeSafe(ctx, post))
	}
	return out
}

// analyzeSafe never fails: a panicking analysis degrades to a neutral
// judgment with no brands and no scores.
func (p *Pipeline) analyzeSafe(ctx context.Context, post domain.Post) domain.ProcessedPost {
	result, err := p.analyze(ctx, post)
	if err != nil {
		slog.Error("Post analysis failed, emitting neutral result",
			"post_id", post.ID, "error", err)
		return domain.ProcessedPost{
			Post:      post,
			Sentiment: domain.NeutralJudgment(),
			Scores:    domain.ScoreSet{},
		}
	}
	return result
}

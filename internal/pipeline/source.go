package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/brandpulse/brandpulse/internal/domain"
)

// JSONSource reads newline-delimited JSON posts from a reader, one post per
// line. It is the built-in source for feeding the pipeline from a file or
// stdin; production deployments plug their own collector behind
// domain.PostSource.
type JSONSource struct {
	decoder *json.Decoder
	failed  bool
}

func NewJSONSource(r io.Reader) *JSONSource {
	return &JSONSource{decoder: json.NewDecoder(r)}
}

func (s *JSONSource) Next(ctx context.Context) (domain.Post, error) {
	if err := ctx.Err(); err != nil {
		return domain.Post{}, err
	}
	// A json.Decoder cannot resynchronize after a syntax error, so the
	// stream ends after the first malformed document instead of returning
	// the same error forever.
	if s.failed {
		return domain.Post{}, domain.ErrEndOfStream
	}

	var post domain.Post
	if err := s.decoder.Decode(&post); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Post{}, domain.ErrEndOfStream
		}
		s.failed = true
		return domain.Post{}, fmt.Errorf("failed to decode post: %w", err)
	}
	return post, nil
}

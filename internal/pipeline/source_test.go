package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/domain"
)

func TestJSONSource_ReadsPostsInOrder(t *testing.T) {
	input := `{"id":"p1","text":"first","source":"twitter"}
{"id":"p2","text":"second","source":"reddit"}`
	source := NewJSONSource(strings.NewReader(input))

	first, err := source.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", first.ID)
	assert.Equal(t, domain.SourceTwitter, first.Source)

	second, err := source.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p2", second.ID)

	_, err = source.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrEndOfStream)
}

func TestJSONSource_MalformedDocumentEndsStream(t *testing.T) {
	source := NewJSONSource(strings.NewReader("{not json"))

	_, err := source.Next(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrEndOfStream)

	_, err = source.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrEndOfStream)
}

func TestJSONSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := NewJSONSource(strings.NewReader(`{"id":"p1"}`))
	_, err := source.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandpulse/brandpulse/internal/alerting"
	"github.com/brandpulse/brandpulse/internal/brands"
	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/scoring"
	"github.com/brandpulse/brandpulse/internal/sentiment"
	"github.com/brandpulse/brandpulse/internal/store"
)

type sliceSource struct {
	posts []domain.Post
	next  int
}

func (s *sliceSource) Next(_ context.Context) (domain.Post, error) {
	if s.next >= len(s.posts) {
		return domain.Post{}, domain.ErrEndOfStream
	}
	post := s.posts[s.next]
	s.next++
	return post, nil
}

type channelSource struct {
	posts chan domain.Post
}

func (s *channelSource) Next(ctx context.Context) (domain.Post, error) {
	select {
	case post := <-s.posts:
		return post, nil
	case <-ctx.Done():
		return domain.Post{}, ctx.Err()
	}
}

func makePosts(n int) []domain.Post {
	posts := make([]domain.Post, n)
	for i := range posts {
		posts[i] = domain.Post{
			ID:        fmt.Sprintf("post-%d", i),
			Text:      "I absolutely love the new Apple iPhone camera!",
			Source:    domain.SourceTwitter,
			Timestamp: time.Now(),
		}
	}
	return posts
}

func newTestPipeline(t *testing.T, cfg Config) *Pipeline {
	t.Helper()
	clock := clockwork.NewRealClock()
	se := sentiment.NewEngine(time.Second, nil)
	bp := brands.NewProcessor([]domain.BrandProfile{{Name: "Apple"}}, nil)
	sc := scoring.NewEngine(clock, nil)
	ae := alerting.NewEngine(clock)
	persister := store.NewPersister(store.NewMemoryStore(clock), time.Hour)
	return New(cfg, se, bp, sc, ae, persister, clock)
}

func TestPipeline_DrainCompleteness(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	p := newTestPipeline(t, Config{
		BufferSize: 64,
		BatchSize:  10,
		OnResult: func(result domain.ProcessedPost) {
			mu.Lock()
			seen[result.Post.ID]++
			mu.Unlock()
		},
	})
	require.NoError(t, p.Initialize())

	posts := makePosts(250)
	require.NoError(t, p.ProcessStream(context.Background(), &sliceSource{posts: posts}))

	assert.Equal(t, StateStopped, p.State())
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 250)
	for _, post := range posts {
		assert.Equal(t, 1, seen[post.ID], "post %s must appear exactly once", post.ID)
	}
}

func TestPipeline_ResultsCarryFullAnalysis(t *testing.T) {
	var mu sync.Mutex
	var results []domain.ProcessedPost

	p := newTestPipeline(t, Config{
		BufferSize: 8,
		BatchSize:  4,
		OnResult: func(result domain.ProcessedPost) {
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		},
	})
	require.NoError(t, p.Initialize())
	require.NoError(t, p.ProcessStream(context.Background(), &sliceSource{posts: makePosts(3)}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 3)
	for _, result := range results {
		assert.Equal(t, domain.LabelPositive, result.Sentiment.Label)
		require.Len(t, result.Brands, 1)
		assert.Equal(t, "Apple", result.Brands[0].Brand)
		assert.Contains(t, result.Scores, domain.ScoreSentiment)
		assert.Contains(t, result.Scores, domain.ScoreOverallImpact)
	}
}

func TestPipeline_BackpressureBlocksIngress(t *testing.T) {
	gate := make(chan struct{})

	p := newTestPipeline(t, Config{
		BufferSize: 4,
		BatchSize:  2,
		OnResult: func(domain.ProcessedPost) {
			<-gate
		},
	})
	require.NoError(t, p.Initialize())

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		_ = p.ProcessStream(context.Background(), &sliceSource{posts: makePosts(50)})
	}()

	require.Eventually(t, func() bool {
		return p.Stats().PostsReceived > 0
	}, 2*time.Second, 10*time.Millisecond)

	// With egress blocked, every buffer fills and ingress must stall well
	// short of the full stream.
	time.Sleep(500 * time.Millisecond)
	stalled := p.Stats().PostsReceived
	assert.Less(t, stalled, int64(50))

	close(gate)
	select {
	case <-streamDone:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not finish after releasing backpressure")
	}
	assert.Equal(t, int64(50), p.Stats().PostsOutput)
}

func TestPipeline_StopDrainsAcceptedPosts(t *testing.T) {
	var emitted atomic.Int64

	p := newTestPipeline(t, Config{
		BufferSize: 16,
		BatchSize:  4,
		OnResult:   func(domain.ProcessedPost) { emitted.Add(1) },
	})
	require.NoError(t, p.Initialize())

	source := &channelSource{posts: make(chan domain.Post, 16)}
	for _, post := range makePosts(10) {
		source.posts <- post
	}

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		_ = p.ProcessStream(context.Background(), source)
	}()

	require.Eventually(t, func() bool {
		return p.Stats().PostsReceived == 10
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Stop(context.Background()))
	<-streamDone

	assert.Equal(t, StateStopped, p.State())
	assert.Equal(t, int64(10), emitted.Load())
}

func TestPipeline_FailedBatchRetriedIntact(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]int)

	p := newTestPipeline(t, Config{
		BufferSize: 16,
		BatchSize:  4,
		OnResult: func(result domain.ProcessedPost) {
			mu.Lock()
			seen[result.Post.ID]++
			mu.Unlock()
		},
	})
	require.NoError(t, p.Initialize())

	var failedOnce atomic.Bool
	realAnalyze := p.analyze
	p.analyze = func(ctx context.Context, post domain.Post) (domain.ProcessedPost, error) {
		if post.ID == "post-2" && failedOnce.CompareAndSwap(false, true) {
			return domain.ProcessedPost{}, errors.New("transient analysis failure")
		}
		return realAnalyze(ctx, post)
	}

	require.NoError(t, p.ProcessStream(context.Background(), &sliceSource{posts: makePosts(12)}))

	stats := p.Stats()
	assert.GreaterOrEqual(t, stats.BatchesRetried, int64(1))
	assert.Equal(t, int64(12), stats.PostsOutput)
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 12)
	assert.Equal(t, 1, seen["post-2"])
}

func TestPipeline_DeterministicFailureDegradesAfterRetries(t *testing.T) {
	var mu sync.Mutex
	results := make(map[string]domain.ProcessedPost)

	p := newTestPipeline(t, Config{
		BufferSize: 16,
		BatchSize:  4,
		OnResult: func(result domain.ProcessedPost) {
			mu.Lock()
			results[result.Post.ID] = result
			mu.Unlock()
		},
	})
	require.NoError(t, p.Initialize())

	realAnalyze := p.analyze
	p.analyze = func(ctx context.Context, post domain.Post) (domain.ProcessedPost, error) {
		if post.ID == "post-2" {
			return domain.ProcessedPost{}, errors.New("analysis always fails for this post")
		}
		return realAnalyze(ctx, post)
	}

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		_ = p.ProcessStream(context.Background(), &sliceSource{posts: makePosts(12)})
	}()

	// The stream must still drain and return: the poisoned batch is retried
	// a bounded number of times, then degraded per post.
	select {
	case <-streamDone:
	case <-time.After(10 * time.Second):
		t.Fatal("pipeline stalled on a deterministically failing post")
	}

	stats := p.Stats()
	assert.Equal(t, int64(maxBatchAttempts-1), stats.BatchesRetried)
	assert.Equal(t, int64(12), stats.PostsOutput)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 12)
	degraded := results["post-2"]
	assert.Equal(t, domain.LabelNeutral, degraded.Sentiment.Label)
	assert.Zero(t, degraded.Sentiment.Confidence)
	assert.Equal(t, domain.LabelPositive, results["post-1"].Sentiment.Label)
}

func TestPipeline_ProcessStreamRequiresInitialize(t *testing.T) {
	p := newTestPipeline(t, Config{})
	err := p.ProcessStream(context.Background(), &sliceSource{})
	require.Error(t, err)
}

func TestPipeline_StopBeforeStartIsNoop(t *testing.T) {
	p := newTestPipeline(t, Config{})
	require.NoError(t, p.Initialize())
	require.NoError(t, p.Stop(context.Background()))
}

func TestProcessHistorical_SequentialPreservesOrder(t *testing.T) {
	p := newTestPipeline(t, Config{BatchSize: 10})
	posts := makePosts(25)

	results := p.ProcessHistorical(context.Background(), posts, false)

	require.Len(t, results, 25)
	for i, result := range results {
		assert.Equal(t, posts[i].ID, result.Post.ID)
	}
}

func TestProcessHistorical_ParallelMatchesSequential(t *testing.T) {
	p := newTestPipeline(t, Config{BatchSize: 10, Workers: 4})
	posts := makePosts(25)

	sequential := p.ProcessHistorical(context.Background(), posts, false)
	parallel := p.ProcessHistorical(context.Background(), posts, true)

	require.Len(t, parallel, len(sequential))
	for i := range sequential {
		assert.Equal(t, sequential[i].Post.ID, parallel[i].Post.ID)
		assert.Equal(t, sequential[i].Sentiment.Label, parallel[i].Sentiment.Label)
		assert.Equal(t, sequential[i].Scores, parallel[i].Scores)
	}
}

func TestProcessHistorical_FailingPostDegradesToNeutral(t *testing.T) {
	p := newTestPipeline(t, Config{BatchSize: 10})
	p.analyze = func(_ context.Context, post domain.Post) (domain.ProcessedPost, error) {
		return domain.ProcessedPost{}, errors.New("analysis broken")
	}

	results := p.ProcessHistorical(context.Background(), makePosts(3), false)

	require.Len(t, results, 3)
	for _, result := range results {
		assert.Equal(t, domain.LabelNeutral, result.Sentiment.Label)
		assert.Zero(t, result.Sentiment.Confidence)
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/brandpulse/brandpulse/internal/alerting"
	"github.com/brandpulse/brandpulse/internal/brands"
	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/metrics"
	"github.com/brandpulse/brandpulse/internal/scoring"
	"github.com/brandpulse/brandpulse/internal/sentiment"
	"github.com/brandpulse/brandpulse/internal/store"
)

// State is the pipeline lifecycle phase.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDraining State = "draining"
	StateStopped  State = "stopped"
)

const (
	defaultBufferSize = 10000
	defaultBatchSize  = 100
	defaultBatchFlush = 200 * time.Millisecond
	defaultStatsEvery = 60 * time.Second

	// A failed batch is retried intact this many times before its posts are
	// degraded individually; an uncapped retry of a deterministic failure
	// would stall the processor and wedge ingress behind a full buffer.
	maxBatchAttempts = 3
	batchRetryDelay  = 100 * time.Millisecond
)

// Config sizes the pipeline. Zero values fall back to defaults.
type Config struct {
	BufferSize    int
	BatchSize     int
	Workers       int
	BatchFlush    time.Duration
	StatsInterval time.Duration

	// OnResult is invoked by the egress stage for every processed post.
	// It runs on the egress goroutine, so a slow callback applies
	// backpressure upstream. May be nil.
	OnResult func(domain.ProcessedPost)
}

func (c *Config) applyDefaults() {
	if c.BufferSize <= 0 {
		c.BufferSize = defaultBufferSize
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.BatchSize > c.BufferSize {
		c.BatchSize = c.BufferSize
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.BatchFlush <= 0 {
		c.BatchFlush = defaultBatchFlush
	}
	if c.StatsInterval <= 0 {
		c.StatsInterval = defaultStatsEvery
	}
}

// Pipeline runs the streaming analysis: four stages (ingress, batch
// processor, egress, stats) joined by two bounded channels. Ingress blocks
// when the input buffer is full, so a slow pipeline pushes back on the
// source instead of dropping posts.
type Pipeline struct {
	cfg       Config
	sentiment *sentiment.Engine
	brands    *brands.Processor
	scoring   *scoring.Engine
	alerts    *alerting.Engine
	persister *store.Persister
	clock     clockwork.Clock

	analyze func(ctx context.Context, post domain.Post) (domain.ProcessedPost, error)

	mu          sync.Mutex
	state       State
	initialized bool
	cancel      context.CancelFunc
	input       chan domain.Post
	output      chan domain.ProcessedPost
	statsStop   chan struct{}
	done        chan struct{}

	received       atomic.Int64
	processed      atomic.Int64
	emitted        atomic.Int64
	batches        atomic.Int64
	batchesRetried atomic.Int64
}

// New builds a pipeline over the four analysis engines. Call Initialize
// before ProcessStream.
func New(cfg Config, se *sentiment.Engine, bp *brands.Processor, sc *scoring.Engine, ae *alerting.Engine, persister *store.Persister, clock clockwork.Clock) *Pipeline {
	cfg.applyDefaults()
	p := &Pipeline{
		cfg:       cfg,
		sentiment: se,
		brands:    bp,
		scoring:   sc,
		alerts:    ae,
		persister: persister,
		clock:     clock,
		state:     StateIdle,
	}
	p.analyze = p.tryAnalyze
	return p
}

// Initialize allocates the stage buffers. The pipeline is single-use: after
// it stops it cannot be re-initialized.
func (p *Pipeline) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return fmt.Errorf("cannot initialize pipeline in state %q", p.state)
	}
	if p.initialized {
		return nil
	}

	p.input = make(chan domain.Post, p.cfg.BufferSize)
	p.output = make(chan domain.ProcessedPost, p.cfg.BufferSize)
	p.statsStop = make(chan struct{})
	p.done = make(chan struct{})
	p.initialized = true
	return nil
}

// ProcessStream consumes posts from source until the stream ends or Stop is
// called, then drains all buffered work and returns. Every post accepted
// into the input buffer is processed and emitted exactly once.
func (p *Pipeline) ProcessStream(ctx context.Context, source domain.PostSource) error {
	p.mu.Lock()
	switch {
	case !p.initialized:
		p.mu.Unlock()
		return errors.New("pipeline not initialized")
	case p.state == StateStopped:
		p.mu.Unlock()
		return domain.ErrStopped
	case p.state != StateIdle:
		p.mu.Unlock()
		return fmt.Errorf("pipeline already %s", p.state)
	}
	streamCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = StateRunning
	p.mu.Unlock()

	slog.Info("Pipeline started",
		"buffer_size", p.cfg.BufferSize,
		"batch_size", p.cfg.BatchSize,
		"workers", p.cfg.Workers)

	// Draining must survive caller cancellation: accepted posts are never
	// dropped, so the processor and egress stages run detached from ctx.
	drainCtx := context.WithoutCancel(ctx)

	egressDone := make(chan struct{})
	go p.runIngress(streamCtx, source)
	go p.runProcessor(drainCtx)
	go func() {
		defer close(egressDone)
		p.runEgress(drainCtx)
	}()
	go p.runStats(drainCtx)

	<-egressDone
	cancel()
	close(p.statsStop)
	p.setState(StateStopped)
	close(p.done)

	slog.Info("Pipeline stopped",
		"posts_received", p.received.Load(),
		"posts_output", p.emitted.Load())
	return nil
}

// Stop halts ingress immediately and waits until buffered and in-flight
// work has drained, or ctx expires. Safe to call more than once.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateRunning && p.state != StateDraining {
		p.mu.Unlock()
		return nil
	}
	p.state = StateDraining
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	slog.Info("Pipeline stop requested, draining")
	cancel()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle phase.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// runIngress pulls from the source into the input buffer, blocking when the
// buffer is full. It owns the input channel and closes it on exit.
func (p *Pipeline) runIngress(ctx context.Context, source domain.PostSource) {
	defer func() {
		p.setState(StateDraining)
		close(p.input)
	}()

	for {
		post, err := source.Next(ctx)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrEndOfStream):
				slog.Info("Post stream ended")
			case ctx.Err() != nil:
				// stop requested
			default:
				slog.Warn("Post source failed", "error", err)
				continue
			}
			return
		}

		select {
		case p.input <- post:
			p.received.Add(1)
			metrics.PostsReceived.Inc()
		case <-ctx.Done():
			return
		}
	}
}

// runProcessor drains batches from the input buffer, analyzes them on the
// worker pool, and pushes results in batch order to the output buffer. A
// failed batch is kept intact and retried (with a short delay) before any
// new posts are taken; once retries are exhausted its posts are degraded
// one by one so no accepted post is ever dropped. It owns the output channel
// and closes it on exit.
func (p *Pipeline) runProcessor(ctx context.Context) {
	defer close(p.output)

	var pending []domain.Post
	attempts := 0
	for {
		var batch []domain.Post
		inputClosed := false
		if pending != nil {
			batch, pending = pending, nil
		} else {
			batch, inputClosed = p.collectBatch()
		}

		if len(batch) > 0 {
			results, err := p.processBatch(ctx, batch)
			if err != nil {
				attempts++
				if attempts < maxBatchAttempts {
					slog.Error("Batch failed, requeueing for retry",
						"batch_size", len(batch), "attempt", attempts, "error", err)
					metrics.BatchesProcessed.WithLabelValues("retried").Inc()
					p.batchesRetried.Add(1)
					pending = batch
					p.clock.Sleep(batchRetryDelay)
					continue
				}
				slog.Error("Batch failed after retries, degrading posts individually",
					"batch_size", len(batch), "attempts", attempts, "error", err)
				metrics.BatchesProcessed.WithLabelValues("degraded").Inc()
				results = make([]domain.ProcessedPost, 0, len(batch))
				for _, post := range batch {
					results = append(results, p.analyzeSafe(ctx, post))
				}
			} else {
				metrics.BatchesProcessed.WithLabelValues("ok").Inc()
			}
			attempts = 0
			p.batches.Add(1)
			for _, result := range results {
				p.output <- result
			}
		}

		metrics.InputBufferDepth.Set(float64(len(p.input)))
		if inputClosed {
			return
		}
	}
}

// collectBatch takes up to batchSize posts from the input buffer. Once the
// first post arrives a flush timer starts, so partial batches still move
// under low load. The second return is true when the input channel is
// closed and fully drained.
func (p *Pipeline) collectBatch() ([]domain.Post, bool) {
	batch := make([]domain.Post, 0, p.cfg.BatchSize)
	var flush <-chan time.Time

	for len(batch) < p.cfg.BatchSize {
		select {
		case post, ok := <-p.input:
			if !ok {
				return batch, true
			}
			batch = append(batch, post)
			if flush == nil {
				flush = p.clock.After(p.cfg.BatchFlush)
			}
		case <-flush:
			return batch, false
		}
	}
	return batch, false
}

// processBatch fans the batch out over the worker pool and returns results
// in input order. Any per-post failure fails the whole batch so it can be
// retried intact.
func (p *Pipeline) processBatch(ctx context.Context, batch []domain.Post) ([]domain.ProcessedPost, error) {
	results := make([]domain.ProcessedPost, len(batch))

	workers := p.cfg.Workers
	if workers > len(batch) {
		workers = len(batch)
	}

	indices := make(chan int)
	var wg sync.WaitGroup
	var errMu sync.Mutex
	var firstErr error

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				result, err := p.analyze(ctx, batch[i])
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
					continue
				}
				results[i] = result
			}
		}()
	}

	for i := range batch {
		indices <- i
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// tryAnalyze runs the full per-post sequence, converting a panic anywhere in
// the analysis into an error so the batch can be retried.
func (p *Pipeline) tryAnalyze(ctx context.Context, post domain.Post) (result domain.ProcessedPost, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("post analysis panicked: %v", r)
		}
	}()
	result = p.analyzePost(ctx, post)
	return result, nil
}

// analyzePost is the synchronous per-post sequence:
// sentiment -> brands -> scores -> alerts.
func (p *Pipeline) analyzePost(ctx context.Context, post domain.Post) domain.ProcessedPost {
	start := time.Now()

	judgment := p.sentiment.Analyze(ctx, post.Text, sentiment.Options{
		ExtractAspects: true,
		DetectEmotions: true,
	})
	mentions := p.brands.ExtractMentions(ctx, post.Text, post.Source)
	scores := p.scoring.CalculateScores(judgment, mentions, post.Engagement, post.Source)
	alerts := p.alerts.CheckThresholds(post, judgment, scores, mentions)

	elapsed := time.Since(start)
	p.processed.Add(1)
	metrics.PostsProcessed.Inc()
	metrics.ProcessingDuration.Observe(elapsed.Seconds())

	return domain.ProcessedPost{
		Post:             post,
		Sentiment:        judgment,
		Brands:           mentions,
		Scores:           scores,
		Alerts:           alerts,
		ProcessingMicros: elapsed.Microseconds(),
	}
}

// runEgress drains the output buffer: persist, dispatch alerts, invoke the
// caller callback. Returns when the output channel is closed and drained.
func (p *Pipeline) runEgress(ctx context.Context) {
	for result := range p.output {
		p.persister.SavePost(ctx, result.Post)
		p.persister.SaveProcessed(ctx, result)

		for _, alert := range result.Alerts {
			p.alerts.SendAlert(ctx, alert)
		}

		if p.cfg.OnResult != nil {
			p.cfg.OnResult(result)
		}

		p.emitted.Add(1)
		metrics.PostsOutput.Inc()
		metrics.OutputBufferDepth.Set(float64(len(p.output)))
	}
}

// runStats reports counters on a fixed interval and once more on shutdown.
func (p *Pipeline) runStats(ctx context.Context) {
	ticker := p.clock.NewTicker(p.cfg.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			p.reportStats(ctx)
		case <-p.statsStop:
			p.reportStats(ctx)
			return
		}
	}
}

func (p *Pipeline) reportStats(ctx context.Context) {
	snapshot := p.Stats()

	slog.Info("Pipeline stats",
		"state", snapshot.State,
		"posts_received", snapshot.PostsReceived,
		"posts_processed", snapshot.PostsProcessed,
		"posts_output", snapshot.PostsOutput,
		"batches", snapshot.Batches,
		"batches_retried", snapshot.BatchesRetried,
		"input_depth", snapshot.InputDepth,
		"output_depth", snapshot.OutputDepth)

	metrics.InputBufferDepth.Set(float64(snapshot.InputDepth))
	metrics.OutputBufferDepth.Set(float64(snapshot.OutputDepth))
	p.persister.SaveStats(ctx, snapshot)
}

// Stats is a point-in-time snapshot of pipeline counters.
type Stats struct {
	State          State                    `json:"state"`
	PostsReceived  int64                    `json:"posts_received"`
	PostsProcessed int64                    `json:"posts_processed"`
	PostsOutput    int64                    `json:"posts_output"`
	Batches        int64                    `json:"batches_processed"`
	BatchesRetried int64                    `json:"batches_retried"`
	InputDepth     int                      `json:"input_buffer_depth"`
	OutputDepth    int                      `json:"output_buffer_depth"`
	AlertCounts    map[domain.AlertType]int `json:"alert_counts"`
	AlertHistory   int                      `json:"alert_history_size"`
}

// Stats returns current counters. Safe to call from any goroutine at any
// lifecycle phase.
func (p *Pipeline) Stats() Stats {
	counts, historySize := p.alerts.Stats()

	p.mu.Lock()
	state := p.state
	input, output := p.input, p.output
	p.mu.Unlock()

	snapshot := Stats{
		State:          state,
		PostsReceived:  p.received.Load(),
		PostsProcessed: p.processed.Load(),
		PostsOutput:    p.emitted.Load(),
		Batches:        p.batches.Load(),
		BatchesRetried: p.batchesRetried.Load(),
		AlertCounts:    counts,
		AlertHistory:   historySize,
	}
	if input != nil {
		snapshot.InputDepth = len(input)
	}
	if output != nil {
		snapshot.OutputDepth = len(output)
	}
	return snapshot
}

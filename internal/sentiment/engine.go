package sentiment

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/brandpulse/brandpulse/internal/domain"
	"github.com/brandpulse/brandpulse/internal/metrics"
)

const defaultModelTimeout = 5 * time.Second

// Options selects models and optional extractions for one analysis.
// An empty Models list means every registered model.
type Options struct {
	Models         []string
	ExtractAspects bool
	DetectEmotions bool
}

// Engine combines pluggable sentiment models into one judgment.
// Safe for concurrent use after registration is complete.
type Engine struct {
	classifiers map[string]domain.Classifier
	order       []string
	lexicon     *LexiconModel
	chunker     PhraseChunker
	timeout     time.Duration
}

// NewEngine builds an engine with the two built-in models (lexicon, pattern)
// registered. chunker may be nil; aspect extraction then yields empty lists.
func NewEngine(timeout time.Duration, chunker PhraseChunker) *Engine {
	if timeout <= 0 {
		timeout = defaultModelTimeout
	}
	e := &Engine{
		classifiers: make(map[string]domain.Classifier),
		lexicon:     NewLexiconModel(),
		chunker:     chunker,
		timeout:     timeout,
	}
	e.Register(e.lexicon)
	e.Register(NewPatternModel())
	return e
}

// Register adds a model to the engine. Not safe to call concurrently with
// Analyze; wire all models at startup.
func (e *Engine) Register(c domain.Classifier) {
	name := c.Name()
	if _, exists := e.classifiers[name]; !exists {
		e.order = append(e.order, name)
	}
	e.classifiers[name] = c
}

// Models returns the registered model names in registration order.
func (e *Engine) Models() []string {
	out := make([]string, len(e.order))
	copy(out, e.order)
	return out
}

// Analyze runs the requested models over text and combines their results by
// confidence-weighted averaging. A failing or timed-out model is excluded; if
// every model fails the result degrades to a neutral zero-confidence judgment.
// Analyze never returns an error.
func (e *Engine) Analyze(ctx context.Context, text string, opts Options) domain.SentimentJudgment {
	names := opts.Models
	if len(names) == 0 {
		names = e.order
	}

	var results []domain.ModelResult
	for _, name := range names {
		c, ok := e.classifiers[name]
		if !ok {
			slog.Warn("Unknown sentiment model requested", "model", name)
			continue
		}
		result, err := e.runModel(ctx, c, text)
		if err != nil {
			reason := "error"
			if errors.Is(err, context.DeadlineExceeded) {
				reason = "timeout"
			}
			metrics.ModelFailures.WithLabelValues(name, reason).Inc()
			slog.Warn("Sentiment model failed, excluding from ensemble", "model", name, "reason", reason, "error", err)
			continue
		}
		results = append(results, result)
	}

	if len(results) == 0 {
		metrics.EnsembleDegraded.Inc()
		judgment := domain.NeutralJudgment()
		e.attachExtras(ctx, text, &judgment, opts)
		return judgment
	}

	judgment := combine(results)
	e.attachExtras(ctx, text, &judgment, opts)
	return judgment
}

// AnalyzeBatch analyzes texts preserving input order, optionally fanning out
// across goroutines.
func (e *Engine) AnalyzeBatch(ctx context.Context, texts []string, parallel bool, opts Options) []domain.SentimentJudgment {
	judgments := make([]domain.SentimentJudgment, len(texts))
	if !parallel {
		for i, text := range texts {
			judgments[i] = e.Analyze(ctx, text, opts)
		}
		return judgments
	}

	var wg sync.WaitGroup
	for i, text := range texts {
		wg.Add(1)
		go func(i int, text string) {
			defer wg.Done()
			judgments[i] = e.Analyze(ctx, text, opts)
		}(i, text)
	}
	wg.Wait()
	return judgments
}

func (e *Engine) attachExtras(ctx context.Context, text string, judgment *domain.SentimentJudgment, opts Options) {
	if opts.ExtractAspects {
		judgment.Aspects = extractAspects(ctx, text, e.chunker, e.lexicon)
	}
	if opts.DetectEmotions {
		judgment.Emotions = DetectEmotions(text)
	}
}

// runModel invokes one classifier under the per-model timeout. The classifier
// runs in its own goroutine so a stuck model cannot wedge the ensemble.
func (e *Engine) runModel(ctx context.Context, c domain.Classifier, text string) (domain.ModelResult, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result domain.ModelResult
		err    error
	}
	ch := make(chan outcome, 1)
	go func() {
		result, err := c.Classify(cctx, text)
		ch <- outcome{result: result, err: err}
	}()

	select {
	case o := <-ch:
		return o.result, o.err
	case <-cctx.Done():
		return domain.ModelResult{}, cctx.Err()
	}
}

// combine merges model results by confidence-weighted averaging. When every
// confidence is zero the models are weighted equally.
func combine(results []domain.ModelResult) domain.SentimentJudgment {
	var weightSum, confSum float64
	for _, r := range results {
		weightSum += r.Confidence
		confSum += r.Confidence
	}

	equal := weightSum == 0
	if equal {
		weightSum = float64(len(results))
	}

	var compound, pos, neg, neu float64
	for _, r := range results {
		w := r.Confidence
		if equal {
			w = 1
		}
		compound += r.Compound() * w
		pos += r.Positive * w
		neg += r.Negative * w
		neu += r.Neutral * w
	}
	compound /= weightSum
	pos /= weightSum
	neg /= weightSum
	neu /= weightSum

	return domain.SentimentJudgment{
		Label:      domain.LabelForCompound(compound),
		Compound:   compound,
		Positive:   pos,
		Negative:   neg,
		Neutral:    neu,
		Confidence: confSum / float64(len(results)),
	}
}

// Package embed adapts an external embedding provider to skill-split's
// token-aware batching and worker-pool contract, grounded on the
// teacher's internal/memory/batch_embedder.go (channel-of-jobs worker
// pool, per-batch fallback to individual retries) and generalized to
// the byte/4 token estimate and per-call caps spec.md §4.12 specifies.
package embed

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/skill-split/skill-split/internal/diag"
)

const (
	// MaxTextsPerBatch is the provider's per-call text count cap.
	MaxTextsPerBatch = 2048
	// MaxTokensPerBatch is the provider's per-call estimated-token cap.
	MaxTokensPerBatch = 8000
)

// Provider generates embedding vectors for text. Implementations wrap
// a concrete HTTP/gRPC embedding API; HTTPProvider in this package is
// an OpenAI-compatible default (the wire format is a named external
// collaborator, see DESIGN.md).
type Provider interface {
	// Embed generates vectors for texts already known to satisfy the
	// per-call caps.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	// ModelName identifies the model the Provider calls, stored
	// alongside each vector so later searches can filter by model.
	ModelName() string
	// Dimensions returns the vector length the Provider produces.
	Dimensions() int
}

// Config controls batching, concurrency, and retry behavior.
type Config struct {
	MaxWorkers   int           // default 5, per spec.md §5
	RetryBudget  int           // max retries per batch before it is recorded failed, default 3
	RetryBackoff time.Duration // base backoff duration, doubled per attempt, default 500ms
	TotalTimeout time.Duration // 0 disables; overall budget across all batches
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxWorkers:   5,
		RetryBudget:  3,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// FailedBatch records a batch that exhausted its retry budget.
type FailedBatch struct {
	Texts []string
	Index int
	Err   error
}

// Result is the outcome of a parallel batch run: succeeded texts keep
// their original position via Vectors[i], failed batches are
// collected separately so callers can persist partial progress.
type Result struct {
	Vectors  [][]float32 // len == len(texts); nil entry where embedding failed
	Failed   []FailedBatch
	Duration time.Duration
}

// ProgressFunc is invoked after each batch completes, successfully or
// not, with the count of batches done so far and the total.
type ProgressFunc func(done, total int)

// Embedder batches texts under the provider's caps and dispatches them
// across a bounded worker pool, retrying failed batches with
// exponential backoff before giving up on them.
type Embedder struct {
	provider Provider
	cfg      Config
	logger   zerolog.Logger
}

// New builds an Embedder. A zero Config is replaced with DefaultConfig.
func New(provider Provider, cfg Config, logger zerolog.Logger) *Embedder {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = DefaultConfig().MaxWorkers
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = DefaultConfig().RetryBudget
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultConfig().RetryBackoff
	}
	return &Embedder{provider: provider, cfg: cfg, logger: logger}
}

// ModelName exposes the underlying provider's model name, satisfying
// the query.Embedder interface the Query Layer's hybrid search uses.
func (e *Embedder) ModelName() string { return e.provider.ModelName() }

// EmbedQuery embeds a single ad hoc query string, satisfying
// query.Embedder.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	out, err := e.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, diag.New(diag.KindRemoteFailure, "embed_query", e.provider.ModelName(), err)
	}
	if len(out) == 0 {
		return nil, diag.New(diag.KindRemoteFailure, "embed_query", e.provider.ModelName(), errEmptyResponse{})
	}
	return out[0], nil
}

// EmbedAll splits texts into caps-respecting batches, dispatches them
// across a bounded worker pool, retries failures with exponential
// backoff up to cfg.RetryBudget, and invokes progress after each
// completed batch (success or exhausted-retry failure).
func (e *Embedder) EmbedAll(ctx context.Context, texts []string, progress ProgressFunc) (*Result, error) {
	if len(texts) == 0 {
		return &Result{}, nil
	}

	start := time.Now()
	if e.cfg.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.TotalTimeout)
		defer cancel()
	}

	batches := tokenAwareBatches(texts)

	type job struct {
		index int
		texts []string
	}
	type outcome struct {
		index   int
		vectors [][]float32
		err     error
	}

	jobs := make(chan job, len(batches))
	results := make(chan outcome, len(batches))

	workers := e.cfg.MaxWorkers
	if workers > len(batches) {
		workers = len(batches)
	}

	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				vecs, err := e.embedWithRetry(ctx, j.texts)
				results <- outcome{index: j.index, vectors: vecs, err: err}
			}
		}()
	}
	for i, b := range batches {
		jobs <- job{index: i, texts: b}
	}
	close(jobs)

	vectors := make([][]float32, len(texts))
	var failed []FailedBatch
	done := 0
	for range batches {
		out := <-results
		done++
		if progress != nil {
			progress(done, len(batches))
		}
		offset := batchOffset(batches, out.index)
		if out.err != nil {
			failed = append(failed, FailedBatch{Texts: batches[out.index], Index: out.index, Err: out.err})
			continue
		}
		for i, v := range out.vectors {
			vectors[offset+i] = v
		}
	}

	e.logger.Info().
		Int("texts", len(texts)).
		Int("batches", len(batches)).
		Int("failed_batches", len(failed)).
		Dur("duration", time.Since(start)).
		Msg("embed: batch run complete")

	return &Result{Vectors: vectors, Failed: failed, Duration: time.Since(start)}, nil
}

// embedWithRetry calls the provider, retrying up to cfg.RetryBudget
// times with doubling backoff on failure; the last error is returned
// if every attempt fails.
func (e *Embedder) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	backoff := e.cfg.RetryBackoff
	for attempt := 0; attempt <= e.cfg.RetryBudget; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		vecs, err := e.provider.Embed(ctx, texts)
		if err == nil {
			return vecs, nil
		}
		lastErr = err
		e.logger.Warn().Err(err).Int("attempt", attempt+1).Int("batchSize", len(texts)).Msg("embed: batch attempt failed")
	}
	return nil, diag.New(diag.KindRemoteFailure, "embed_batch", e.provider.ModelName(), lastErr)
}

// tokenAwareBatches splits texts into groups that each respect both
// MaxTextsPerBatch and the bytes/4 token estimate's MaxTokensPerBatch.
func tokenAwareBatches(texts []string) [][]string {
	var batches [][]string
	var current []string
	var tokens int

	flush := func() {
		if len(current) > 0 {
			batches = append(batches, current)
			current = nil
			tokens = 0
		}
	}

	for _, t := range texts {
		est := estimateTokens(t)
		if len(current) > 0 && (len(current) >= MaxTextsPerBatch || tokens+est > MaxTokensPerBatch) {
			flush()
		}
		current = append(current, t)
		tokens += est
	}
	flush()
	return batches
}

func estimateTokens(text string) int {
	return int(math.Ceil(float64(len(text)) / 4))
}

func batchOffset(batches [][]string, index int) int {
	offset := 0
	for i := 0; i < index; i++ {
		offset += len(batches[i])
	}
	return offset
}

type errEmptyResponse struct{}

func (errEmptyResponse) Error() string { return "embedding provider returned no vectors" }

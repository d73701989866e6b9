package embed

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	dims      int
	calls     int32
	failUntil map[string]int32 // batch key -> attempts to fail before succeeding
	mu        sync.Mutex
	alwaysErr error
}

func (f *fakeProvider) ModelName() string { return "fake-model" }
func (f *fakeProvider) Dimensions() int   { return f.dims }

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.alwaysErr != nil {
		key := strings.Join(texts, "|")
		f.mu.Lock()
		remaining := f.failUntil[key]
		f.failUntil[key]--
		f.mu.Unlock()
		if remaining > 0 {
			return nil, f.alwaysErr
		}
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

func TestEmbedAllSucceedsWithinSingleBatch(t *testing.T) {
	p := &fakeProvider{dims: 4, failUntil: map[string]int32{}}
	e := New(p, DefaultConfig(), zerolog.Nop())

	texts := []string{"one", "two", "three"}
	result, err := e.EmbedAll(context.Background(), texts, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Vectors, 3)
	for _, v := range result.Vectors {
		assert.Len(t, v, 4)
	}
}

func TestEmbedAllSplitsOnTextCountCap(t *testing.T) {
	p := &fakeProvider{dims: 2, failUntil: map[string]int32{}}
	e := New(p, Config{MaxWorkers: 2, RetryBudget: 1, RetryBackoff: time.Millisecond}, zerolog.Nop())

	texts := make([]string, MaxTextsPerBatch+10)
	for i := range texts {
		texts[i] = "x"
	}
	result, err := e.EmbedAll(context.Background(), texts, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	assert.Greater(t, int(atomic.LoadInt32(&p.calls)), 1, "must issue more than one provider call to respect the per-batch text cap")
}

func TestEmbedAllRetriesThenSucceeds(t *testing.T) {
	p := &fakeProvider{dims: 3, alwaysErr: assertErr{}, failUntil: map[string]int32{"flaky": 2}}
	e := New(p, Config{MaxWorkers: 1, RetryBudget: 3, RetryBackoff: time.Millisecond}, zerolog.Nop())

	result, err := e.EmbedAll(context.Background(), []string{"flaky"}, nil)
	require.NoError(t, err)
	assert.Empty(t, result.Failed)
	require.Len(t, result.Vectors, 1)
	assert.NotNil(t, result.Vectors[0])
}

func TestEmbedAllSurfacesPartialFailureAfterRetryBudgetExhausted(t *testing.T) {
	p := &fakeProvider{dims: 3, alwaysErr: assertErr{}, failUntil: map[string]int32{"doomed": 99}}
	e := New(p, Config{MaxWorkers: 1, RetryBudget: 2, RetryBackoff: time.Millisecond}, zerolog.Nop())

	result, err := e.EmbedAll(context.Background(), []string{"doomed"}, nil)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Nil(t, result.Vectors[0])
}

func TestEmbedAllInvokesProgressPerBatch(t *testing.T) {
	p := &fakeProvider{dims: 2, failUntil: map[string]int32{}}
	e := New(p, Config{MaxWorkers: 2, RetryBudget: 1, RetryBackoff: time.Millisecond}, zerolog.Nop())

	texts := make([]string, MaxTextsPerBatch*2)
	for i := range texts {
		texts[i] = "x"
	}
	var progressCalls int32
	_, err := e.EmbedAll(context.Background(), texts, func(done, total int) {
		atomic.AddInt32(&progressCalls, 1)
		assert.LessOrEqual(t, done, total)
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, progressCalls)
}

func TestEmbedQueryReturnsSingleVector(t *testing.T) {
	p := &fakeProvider{dims: 5, failUntil: map[string]int32{}}
	e := New(p, DefaultConfig(), zerolog.Nop())

	v, err := e.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Len(t, v, 5)
}

func TestModelNameDelegatesToProvider(t *testing.T) {
	p := &fakeProvider{dims: 1, failUntil: map[string]int32{}}
	e := New(p, DefaultConfig(), zerolog.Nop())
	assert.Equal(t, "fake-model", e.ModelName())
}

func TestTokenAwareBatchesRespectsTokenCap(t *testing.T) {
	big := strings.Repeat("a", MaxTokensPerBatch*4) // ~MaxTokensPerBatch tokens alone
	batches := tokenAwareBatches([]string{big, "small", "small"})
	require.Len(t, batches, 2)
	assert.Equal(t, []string{big}, batches[0])
	assert.Equal(t, []string{"small", "small"}, batches[1])
}

type assertErr struct{}

func (assertErr) Error() string { return "simulated provider failure" }

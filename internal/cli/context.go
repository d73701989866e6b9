package cli

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skill-split/skill-split/internal/config"
	"github.com/skill-split/skill-split/internal/embed"
	"github.com/skill-split/skill-split/internal/query"
	"github.com/skill-split/skill-split/internal/store"
)

// Context carries the resources every subcommand needs, grounded on
// the teacher's internal/cli/context.go CLIContext: a lazily-opened
// Store (one command invocation rarely needs two connections) behind
// sync.Once, plus the loaded Config and a bound Logger.
type Context struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zerolog.Logger

	storeOnce sync.Once
	db        *store.DB
	store     *store.Store
	storeErr  error
}

// NewContext builds a Context from a loaded Config.
func NewContext(cfg *config.Config, configPath string, log *zerolog.Logger) *Context {
	return &Context{Config: cfg, ConfigPath: configPath, Logger: log}
}

// Store opens (once) and returns the Store backing cfg.Store.Path.
func (c *Context) Store() (*store.Store, error) {
	c.storeOnce.Do(func() {
		db, err := store.Open(c.Config.Store.Path)
		if err != nil {
			c.storeErr = err
			return
		}
		c.db = db
		c.store = store.New(db)
	})
	return c.store, c.storeErr
}

// Close releases resources opened by the Context.
func (c *Context) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// embedderAdapter satisfies query.Embedder's context-free EmbedQuery by
// binding context.Background() — CLI invocations are single-shot, so
// there is no caller context to thread through the query facade.
type embedderAdapter struct{ e *embed.Embedder }

func (a embedderAdapter) EmbedQuery(text string) ([]float32, error) {
	return a.e.EmbedQuery(context.Background(), text)
}

func (a embedderAdapter) ModelName() string { return a.e.ModelName() }

// Embedder builds a query.Embedder from the Config's embedding
// section, or nil if no provider is configured — callers degrade to
// text-only search in that case (see internal/query.Hybrid).
func (c *Context) Embedder() query.Embedder {
	if c.Config.Embedding.Provider == "" {
		return nil
	}
	chain := c.Config.SecretChain(nil)
	apiKey, err := chain.Resolve(c.Config.Embedding.APIKeyRef)
	if err != nil {
		return nil
	}
	provider := embed.NewHTTPProvider(embed.HTTPProviderOptions{
		APIKey: apiKey,
		Model:  c.Config.Embedding.Model,
	})
	cfg := embed.Config{
		MaxWorkers:   c.Config.Embedding.MaxWorkers,
		RetryBudget:  c.Config.Embedding.RetryBudget,
		RetryBackoff: c.Config.Embedding.RetryBackoff,
	}
	return embedderAdapter{embed.New(provider, cfg, *c.Logger)}
}

// QueryLayer builds the Query Layer over this Context's Store.
func (c *Context) QueryLayer() (*query.Layer, error) {
	s, err := c.Store()
	if err != nil {
		return nil, err
	}
	return query.New(s, c.Embedder()), nil
}

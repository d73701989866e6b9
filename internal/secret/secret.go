// Package secret resolves credentials (the embedding provider key,
// remote-store credentials) through a priority chain: config file,
// then OS keyring, then environment variable — the first source that
// has the key wins. It generalizes the teacher's SecretStore interface
// in internal/config/secrets.go (Get/Set/Delete/Available on a single
// backend) into an ordered chain of sources, since skill-split never
// implemented platform keyring access either (OS keyring mechanics are
// a named external collaborator, see DESIGN.md) but still needs a real
// fallback path rather than the teacher's no-op PlaintextStore.
package secret

import (
	"os"
	"strings"

	"github.com/skill-split/skill-split/internal/diag"
)

// Source looks a key up in one backend, reporting whether it was
// found at all (an empty value with ok=false is "not configured",
// distinct from an intentionally empty secret).
type Source interface {
	Lookup(key string) (value string, ok bool)
	Name() string
}

// ConfigSource resolves secrets from the already-loaded config file's
// key/value map (e.g. the `secrets:` block of config.yaml).
type ConfigSource struct {
	values map[string]string
}

// NewConfigSource wraps a config file's secret map. A nil map behaves
// like an empty one.
func NewConfigSource(values map[string]string) ConfigSource {
	return ConfigSource{values: values}
}

func (c ConfigSource) Lookup(key string) (string, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c ConfigSource) Name() string { return "config_file" }

// KeyringSource is the OS-keyring tier of the chain. skill-split ships
// no concrete platform keyring integration (out of scope, see
// DESIGN.md); NoopKeyring always reports not-found so the chain falls
// through to the environment tier. A real implementation satisfying
// this interface can be substituted without changing Chain.
type KeyringSource interface {
	Source
}

// NoopKeyring is the default KeyringSource: always misses.
type NoopKeyring struct{}

func (NoopKeyring) Lookup(string) (string, bool) { return "", false }
func (NoopKeyring) Name() string                 { return "os_keyring" }

// EnvSource resolves secrets from environment variables under a
// prefix, mirroring the teacher's SKILLSPLIT_<KEY> convention (the
// config Load path uses the same prefix for non-secret settings).
type EnvSource struct {
	prefix string
}

// NewEnvSource builds an EnvSource. prefix is upper-cased and
// underscore-joined with the key, e.g. prefix "SKILLSPLIT" and key
// "embedding.api_key" resolves env var SKILLSPLIT_EMBEDDING_API_KEY.
func NewEnvSource(prefix string) EnvSource {
	return EnvSource{prefix: strings.ToUpper(prefix)}
}

func (e EnvSource) Lookup(key string) (string, bool) {
	envKey := e.prefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(key))
	return os.LookupEnv(envKey)
}

func (e EnvSource) Name() string { return "environment" }

// Chain resolves a secret by trying each Source in order and
// returning the first hit, per spec.md §6's "config file → OS keyring
// → environment variable" priority.
type Chain struct {
	sources []Source
}

// NewChain builds the standard three-tier chain.
func NewChain(config ConfigSource, keyring KeyringSource, env EnvSource) Chain {
	if keyring == nil {
		keyring = NoopKeyring{}
	}
	return Chain{sources: []Source{config, keyring, env}}
}

// Resolve returns the secret for key, or a KindSecretNotFound error
// naming every source that was tried.
func (c Chain) Resolve(key string) (string, error) {
	for _, src := range c.sources {
		if v, ok := src.Lookup(key); ok {
			return v, nil
		}
	}
	tried := make([]string, len(c.sources))
	for i, src := range c.sources {
		tried[i] = src.Name()
	}
	return "", diag.New(diag.KindSecretNotFound, "resolve_secret", key, errNotConfigured{tried: tried})
}

type errNotConfigured struct{ tried []string }

func (e errNotConfigured) Error() string {
	return "not found in any of: " + strings.Join(e.tried, ", ")
}

package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/skill-split/skill-split/internal/secret"
)

// Config is skill-split's full runtime configuration: where the Store
// lives, how to reach an embedding provider, remote-store credentials,
// and logging — trimmed from the teacher's much larger Config struct
// (gateway/agents/MCP/cron settings it carried for a different
// product) down to what this content library actually consumes.
type Config struct {
	Store     StoreConfig       `mapstructure:"store" yaml:"store"`
	Embedding EmbeddingConfig   `mapstructure:"embedding" yaml:"embedding"`
	Remote    RemoteConfig      `mapstructure:"remote" yaml:"remote,omitempty"`
	Log       LogConfig         `mapstructure:"log" yaml:"log"`
	Secrets   map[string]string `mapstructure:"secrets" yaml:"secrets,omitempty"`
}

// StoreConfig locates the relational index's SQLite file.
type StoreConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// EmbeddingConfig names the embedding provider and batching behavior
// for the Embedding Adapter. APIKeyRef is a secret-chain key, not the
// key itself; skill-split never stores the credential in the struct.
type EmbeddingConfig struct {
	Provider     string        `mapstructure:"provider" yaml:"provider,omitempty"`
	Model        string        `mapstructure:"model" yaml:"model,omitempty"`
	APIKeyRef    string        `mapstructure:"api_key_ref" yaml:"api_key_ref,omitempty"`
	MaxWorkers   int           `mapstructure:"max_workers" yaml:"max_workers,omitempty"`
	RetryBudget  int           `mapstructure:"retry_budget" yaml:"retry_budget,omitempty"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff,omitempty"`
	VectorWeight float64       `mapstructure:"vector_weight" yaml:"vector_weight,omitempty"`
}

// RemoteConfig names a remote store's endpoint and credential
// reference. No remote wire format is implemented; this only carries enough for a future client to resolve where to
// connect and which secret to present.
type RemoteConfig struct {
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`
	TokenRef string `mapstructure:"token_ref" yaml:"token_ref,omitempty"`
}

// LogConfig controls the zerolog writer skill-split's CLI bootstraps.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

const envPrefix = "SKILLSPLIT"

// Load reads config at path (if non-empty and present) over top of
// defaults, then applies SKILLSPLIT_* environment overrides, matching
// the teacher's Load priority: ENV > config file > defaults. A missing
// config file is not an error; a malformed one is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		v.SetConfigFile(expanded)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			notFound := errors.As(err, &pathErr) || os.IsNotExist(err)
			if !notFound {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if cfg.Store.Path == "" {
		dataPath, err := DefaultDataPath()
		if err != nil {
			return nil, err
		}
		cfg.Store.Path = dataPath
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("embedding.max_workers", 5)
	v.SetDefault("embedding.retry_budget", 3)
	v.SetDefault("embedding.retry_backoff", 500*time.Millisecond)
	v.SetDefault("embedding.vector_weight", 0.7)
}

// SecretChain builds the config-file -> OS-keyring -> environment
// priority chain spec.md §6 requires, seeded with this Config's own
// secrets block. keyring may be nil to use the NoopKeyring default.
func (c *Config) SecretChain(keyring secret.KeyringSource) secret.Chain {
	return secret.NewChain(secret.NewConfigSource(c.Secrets), keyring, secret.NewEnvSource(envPrefix))
}

// Package config handles loading and accessing application configuration
// using Viper, supporting environment variables and config files.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every option in spec.md §6.4's closed configuration set.
// Tags are used by Viper to map config file keys and environment variables.
type Config struct {
	Vector struct {
		Dim   int `mapstructure:"dim"`
		Index struct {
			M              int `mapstructure:"m"`
			EFConstruction int `mapstructure:"ef_construction"`
			EFSearch       int `mapstructure:"ef_search"`
		} `mapstructure:"index"`
	} `mapstructure:"vector"`

	Search struct {
		RecallTopK int `mapstructure:"recall_top_k"`
		RerankTopK int `mapstructure:"rerank_top_k"`
		Hybrid     struct {
			VectorWeight float64 `mapstructure:"vector_weight"`
			BM25Weight   float64 `mapstructure:"bm25_weight"`
		} `mapstructure:"hybrid"`
		MinScore float64 `mapstructure:"min_score"`
		Rerank   struct {
			Enabled         bool    `mapstructure:"enabled"`
			BatchSize       int     `mapstructure:"batch_size"`
			DiversityWeight float64 `mapstructure:"diversity_weight"`
		} `mapstructure:"rerank"`
	} `mapstructure:"search"`

	Memory struct {
		Session struct {
			WindowSize int    `mapstructure:"window_size"`
			TTLSeconds int    `mapstructure:"ttl_seconds"`
			Backend    string `mapstructure:"backend"`
		} `mapstructure:"session"`
		Episodic struct {
			DecayHalfLifeDays int     `mapstructure:"decay_half_life_days"`
			PruneThreshold    float64 `mapstructure:"prune_threshold"`
		} `mapstructure:"episodic"`
	} `mapstructure:"memory"`

	Ingest struct {
		MaxFileBytes      int64    `mapstructure:"max_file_bytes"`
		MaxContentChars   int      `mapstructure:"max_content_chars"`
		AllowedExtensions []string `mapstructure:"allowed_extensions"`
		Workers           struct {
			Extract int `mapstructure:"extract"`
			LLM     int `mapstructure:"llm"`
		} `mapstructure:"workers"`
	} `mapstructure:"ingest"`

	Watcher struct {
		DebounceMS int `mapstructure:"debounce_ms"`
	} `mapstructure:"watcher"`

	LLM struct {
		TimeoutMS    int     `mapstructure:"timeout_ms"`
		Temperature  float64 `mapstructure:"temperature"`
		MaxTokens    int     `mapstructure:"max_tokens"`
		UnifiedModel string  `mapstructure:"unified_model"`
	} `mapstructure:"llm"`

	Workflow struct {
		TimeoutMS        int `mapstructure:"timeout_ms"`
		NodeTimeoutMS    int `mapstructure:"node_timeout_ms"`
		Retries          int `mapstructure:"retries"`
		BreakerThreshold int `mapstructure:"breaker_threshold"`
	} `mapstructure:"workflow"`
}

var Cfg Config

// LoadConfig reads configuration from file and environment variables,
// populating Cfg with §6.4's defaults overridden by any config file and
// then by VANTAGE_-prefixed environment variables.
func LoadConfig(configPaths ...string) error {
	v := viper.New()

	v.SetDefault("vector.dim", 1536)
	v.SetDefault("vector.index.m", 16)
	v.SetDefault("vector.index.ef_construction", 200)
	v.SetDefault("vector.index.ef_search", 100)

	v.SetDefault("search.recall_top_k", 50)
	v.SetDefault("search.rerank_top_k", 5)
	v.SetDefault("search.hybrid.vector_weight", 0.7)
	v.SetDefault("search.hybrid.bm25_weight", 0.3)
	v.SetDefault("search.min_score", 0.3)
	v.SetDefault("search.rerank.enabled", true)
	v.SetDefault("search.rerank.batch_size", 32)
	v.SetDefault("search.rerank.diversity_weight", 0.0)

	v.SetDefault("memory.session.window_size", 10)
	v.SetDefault("memory.session.ttl_seconds", 3600)
	v.SetDefault("memory.session.backend", "inmemory")
	v.SetDefault("memory.episodic.decay_half_life_days", 365)
	v.SetDefault("memory.episodic.prune_threshold", 0.1)

	v.SetDefault("ingest.max_file_bytes", 20*1024*1024)
	v.SetDefault("ingest.max_content_chars", 200000)
	v.SetDefault("ingest.allowed_extensions", []string{".pdf", ".docx", ".txt", ".md", ".html", ".csv"})
	v.SetDefault("ingest.workers.extract", 4)
	v.SetDefault("ingest.workers.llm", 2)

	v.SetDefault("watcher.debounce_ms", 500)

	v.SetDefault("llm.timeout_ms", 30000)
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.unified_model", "gpt-4o")

	v.SetDefault("workflow.timeout_ms", 60000)
	v.SetDefault("workflow.node_timeout_ms", 20000)
	v.SetDefault("workflow.retries", 2)
	v.SetDefault("workflow.breaker_threshold", 5)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/vantage/")
	v.AddConfigPath("$HOME/.vantage")
	for _, path := range configPaths {
		v.AddConfigPath(path)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("VANTAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(&Cfg); err != nil {
		return fmt.Errorf("unable to decode config into struct: %w", err)
	}

	return nil
}

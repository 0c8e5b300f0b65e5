package indexcorpus

import (
	"time"

	"rag-brand-guard/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	DefaultIndex string
}

func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Timeout:      config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout),
		DefaultIndex: cfg.Corpus.Index,
	}
}

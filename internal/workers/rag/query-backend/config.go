package querybackend

import (
	"time"

	"rag-brand-guard/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// NewConfig leaves room for the backend's own retries inside the job deadline.
func NewConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if backend := config.GetDuration(cfg.Backend.Timeout); backend > timeout {
		timeout = backend
	}
	return &Config{Timeout: timeout}
}

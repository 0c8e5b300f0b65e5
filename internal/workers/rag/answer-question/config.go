package answerquestion

import (
	"time"

	"rag-brand-guard/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// NewConfig allows two backend calls inside the job deadline because the
// pipeline may widen once.
func NewConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if pipeline := 2 * config.GetDuration(cfg.Backend.Timeout); pipeline > timeout {
		timeout = pipeline
	}
	return &Config{Timeout: timeout}
}

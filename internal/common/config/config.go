package config

import "fmt"

// Config is the full service configuration.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Backend       BackendConfig           `mapstructure:"backend"`
	Enhancement   EnhancementConfig       `mapstructure:"enhancement"`
	Catalog       CatalogConfig           `mapstructure:"catalog"`
	Corpus        CorpusConfig            `mapstructure:"corpus"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
	Diagnostics   DiagnosticsConfig       `mapstructure:"diagnostics"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Observability ObservabilityConfig     `mapstructure:"observability"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	HealthPort  int    `mapstructure:"health_port"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// Configured reports whether enough is set to open a connection.
func (p PostgresConfig) Configured() bool {
	return p.Host != "" && p.Database != ""
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses  []string `mapstructure:"addresses"`
	Username   string   `mapstructure:"username"`
	Password   string   `mapstructure:"password"`
	SSLEnabled bool     `mapstructure:"ssl_enabled"`
	URL        string   `mapstructure:"url"` // Single URL for backwards compatibility
}

func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

func (e ElasticsearchConfig) Configured() bool {
	return e.GetURL() != ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r RedisConfig) Configured() bool {
	return r.Address != ""
}

type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// BackendConfig points at the retrieval and generation service.
type BackendConfig struct {
	BaseURL                    string  `mapstructure:"base_url"`
	QueryPath                  string  `mapstructure:"query_path"`
	APIKey                     string  `mapstructure:"api_key"`
	Timeout                    int     `mapstructure:"timeout"` // milliseconds
	MaxRetries                 int     `mapstructure:"max_retries"`
	DefaultMaxChunks           int     `mapstructure:"default_max_chunks"`
	DefaultSimilarityThreshold float64 `mapstructure:"default_similarity_threshold"`
	CacheTTL                   int     `mapstructure:"cache_ttl"` // seconds, 0 disables the cache
}

// EnhancementConfig overrides the retrieval numbers used for low-coverage
// entities. Zero values fall back to the registry document.
type EnhancementConfig struct {
	BoostedMaxChunks           int     `mapstructure:"boosted_max_chunks"`
	LoweredSimilarityThreshold float64 `mapstructure:"lowered_similarity_threshold"`
	MarketQualifier            string  `mapstructure:"market_qualifier"`
	EnableWidening             bool    `mapstructure:"enable_widening"`
}

type CatalogConfig struct {
	RegistryPath string `mapstructure:"registry_path"` // empty selects the embedded registry
}

type CorpusConfig struct {
	Index string `mapstructure:"index"`
}

// NotificationConfig holds settings for coverage-gap alerts.
type NotificationConfig struct {
	CoverageGaps struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"coverage_gaps"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Table   string `mapstructure:"table"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type ObservabilityConfig struct {
	ServiceName    string  `mapstructure:"service_name"`
	TracingEnabled bool    `mapstructure:"tracing_enabled"`
	SampleRatio    float64 `mapstructure:"sample_ratio"`
}

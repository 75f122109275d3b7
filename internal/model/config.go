package model

// Config holds runtime configuration, loaded from ~/.kinseek.yaml and
// KINSEEK_* environment variables.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http" mapstructure:"http"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Rate    RateConfig    `yaml:"rate" mapstructure:"rate"`
	Workers int           `yaml:"workers" mapstructure:"workers"`
	Scoring ScoringConfig `yaml:"scoring" mapstructure:"scoring"`
	Staging StagingConfig `yaml:"staging" mapstructure:"staging"`
	Submit  SubmitConfig  `yaml:"submit" mapstructure:"submit"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Verbose bool          `yaml:"verbose" mapstructure:"verbose"`
}

type HTTPConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects   int    `yaml:"max_redirects" mapstructure:"max_redirects"`
	RespectRobots  bool   `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy      string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy     string `yaml:"https_proxy" mapstructure:"https_proxy"`
}

type CacheConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir            string `yaml:"dir" mapstructure:"dir"`
	MemoryTTLMin   int    `yaml:"memory_ttl_minutes" mapstructure:"memory_ttl_minutes"`
	DiskTTLHours   int    `yaml:"disk_ttl_hours" mapstructure:"disk_ttl_hours"`
}

type RateConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// ScoringConfig tunes the match scorer and the clusterer.
type ScoringConfig struct {
	FallbackScore  int `yaml:"fallback_score" mapstructure:"fallback_score"`
	MergeThreshold int `yaml:"merge_threshold" mapstructure:"merge_threshold"`
	SourceBoost    int `yaml:"source_boost" mapstructure:"source_boost"`
	MinStageScore  int `yaml:"min_stage_score" mapstructure:"min_stage_score"`
}

type StagingConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path" mapstructure:"path"`
	DSN     string `yaml:"dsn" mapstructure:"dsn"`
}

type SubmitConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	Token          string `yaml:"token" mapstructure:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

type LLMConfig struct {
	Enabled        bool   `yaml:"enabled" mapstructure:"enabled"`
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds: 30,
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36 kinseek/0.1",
			MaxBodyBytes:   10 << 20,
			MaxRedirects:   5,
			RespectRobots:  true,
		},
		Cache: CacheConfig{
			Enabled:      true,
			Dir:          "~/.kinseek/cache",
			MemoryTTLMin: 30,
			DiskTTLHours: 24,
		},
		Rate: RateConfig{
			RequestsPerSecond: 0.5,
			Burst:             1,
		},
		Workers: 4,
		Scoring: ScoringConfig{
			FallbackScore:  50,
			MergeThreshold: 70,
			SourceBoost:    15,
			MinStageScore:  40,
		},
		Staging: StagingConfig{
			Backend: "sqlite",
			Path:    "~/.kinseek/findings.db",
		},
		Submit: SubmitConfig{
			TimeoutSeconds: 30,
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			MaxTokens:      600,
			TimeoutSeconds: 60,
		},
	}
}

package config

import "time"

type Config struct {
	ConfigVersion int             `yaml:"configVersion"`
	Server        ServerConfig    `yaml:"server"`
	Limits        Limits          `yaml:"limits"`
	Wildcard      WildcardConfig  `yaml:"wildcard"`
	RateLimit     RateLimitConfig `yaml:"rateLimit"`
	Logging       LoggingConfig   `yaml:"logging"`
	Metrics       MetricsConfig   `yaml:"metrics"`

	baseDir string `yaml:"-"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
}

type Limits struct {
	MaxBodyBytes int64         `yaml:"maxBodyBytes"`
	MaxPatterns  int           `yaml:"maxPatterns"`
	Timeout      time.Duration `yaml:"timeout"`
}

type WildcardConfig struct {
	Symbol string `yaml:"symbol"`
}

type RateLimitConfig struct {
	Enabled    bool    `yaml:"enabled"`
	RPS        float64 `yaml:"rps"`
	Burst      int     `yaml:"burst"`
	StatusCode int     `yaml:"statusCode"`
}

type LoggingConfig struct {
	RequestLog string `yaml:"requestLog"`
	TraceLog   string `yaml:"traceLog"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

const DefaultWildcard = "?"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ConfigVersion: 1,
		Server:        ServerConfig{Listen: "127.0.0.1:8080"},
		Limits: Limits{
			MaxBodyBytes: 1 << 20,
			MaxPatterns:  10000,
			Timeout:      5 * time.Second,
		},
		Wildcard: WildcardConfig{Symbol: DefaultWildcard},
	}
}

func (c *Config) BaseDir() string {
	return c.baseDir
}

func (c *Config) ResolvePath(path string) string {
	return c.resolvePath(path)
}

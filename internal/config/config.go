package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Search SearchConfig `yaml:"search" mapstructure:"search"`
	Fetch  FetchConfig  `yaml:"fetch" mapstructure:"fetch"`
	Score  ScoreConfig  `yaml:"score" mapstructure:"score"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Notify NotifyConfig `yaml:"notify" mapstructure:"notify"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SearchConfig holds Google Custom Search credentials and query planning
// limits. APIKey and CSEID have no defaults; a run refuses to start without
// them.
type SearchConfig struct {
	APIKey       string `yaml:"api_key" mapstructure:"api_key"`
	CSEID        string `yaml:"cse_id" mapstructure:"cse_id"`
	MaxQueries   int    `yaml:"max_queries" mapstructure:"max_queries"`
	DateRestrict string `yaml:"date_restrict" mapstructure:"date_restrict"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures page fetching and outbound pacing.
type FetchConfig struct {
	PageTimeoutSecs   int     `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	PauseSecs         float64 `yaml:"pause_secs" mapstructure:"pause_secs"`
	MaxContainerChars int     `yaml:"max_container_chars" mapstructure:"max_container_chars"`
	MaxBodyChars      int     `yaml:"max_body_chars" mapstructure:"max_body_chars"`
}

// ScoreConfig carries the relevance scoring weights. The values are
// heuristic; they live in configuration rather than code so they can be
// tuned without a rebuild.
type ScoreConfig struct {
	CompanyBonus    int `yaml:"company_bonus" mapstructure:"company_bonus"`
	LocationBonus   int `yaml:"location_bonus" mapstructure:"location_bonus"`
	KeywordBonus    int `yaml:"keyword_bonus" mapstructure:"keyword_bonus"`
	KeywordCap      int `yaml:"keyword_cap" mapstructure:"keyword_cap"`
	TokenBonus      int `yaml:"token_bonus" mapstructure:"token_bonus"`
	TokenCap        int `yaml:"token_cap" mapstructure:"token_cap"`
	LanguageBonus   int `yaml:"language_bonus" mapstructure:"language_bonus"`
	SizeBonus       int `yaml:"size_bonus" mapstructure:"size_bonus"`
	AcceptThreshold int `yaml:"accept_threshold" mapstructure:"accept_threshold"`
}

// StoreConfig configures the SQLite database location.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// NotifyConfig configures the email digest.
type NotifyConfig struct {
	Language      string `yaml:"language" mapstructure:"language"` // "en" or "el"
	Recipient     string `yaml:"recipient" mapstructure:"recipient"`
	Sender        string `yaml:"sender" mapstructure:"sender"`
	Password      string `yaml:"password" mapstructure:"password"`
	SMTPHost      string `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort      int    `yaml:"smtp_port" mapstructure:"smtp_port"`
	SendAnalytics bool   `yaml:"send_analytics" mapstructure:"send_analytics"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OFFICERADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Credentials default to empty so the environment can supply
	// them without a config file.
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.cse_id", "")
	v.SetDefault("search.max_queries", 30)
	v.SetDefault("search.date_restrict", "d7")
	v.SetDefault("search.timeout_secs", 30)
	v.SetDefault("fetch.page_timeout_secs", 20)
	v.SetDefault("fetch.pause_secs", 2.0)
	v.SetDefault("fetch.max_container_chars", 10000)
	v.SetDefault("fetch.max_body_chars", 5000)
	v.SetDefault("score.company_bonus", 25)
	v.SetDefault("score.location_bonus", 15)
	v.SetDefault("score.keyword_bonus", 5)
	v.SetDefault("score.keyword_cap", 25)
	v.SetDefault("score.token_bonus", 1)
	v.SetDefault("score.token_cap", 20)
	v.SetDefault("score.language_bonus", 5)
	v.SetDefault("score.size_bonus", 10)
	v.SetDefault("score.accept_threshold", 30)
	v.SetDefault("store.path", "office_projects.db")
	v.SetDefault("notify.language", "en")
	v.SetDefault("notify.recipient", "")
	v.SetDefault("notify.sender", "")
	v.SetDefault("notify.password", "")
	v.SetDefault("notify.smtp_host", "smtp.gmail.com")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.send_analytics", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the inputs a run cannot start without. A missing search
// credential is a fatal configuration error: the run aborts before any
// network activity.
func (c *Config) Validate() error {
	if c.Search.APIKey == "" {
		return eris.New("config: search.api_key is required")
	}
	if c.Search.CSEID == "" {
		return eris.New("config: search.cse_id is required")
	}
	if c.Search.MaxQueries <= 0 {
		return eris.New("config: search.max_queries must be positive")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

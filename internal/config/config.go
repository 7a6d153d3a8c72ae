package config

import (
	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/echomed/resonance/pkg/logger"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Logger      logger.Config     `yaml:"logger"`
	OpenAI      OpenAIConfig      `yaml:"openai"`
	Perplexity  PerplexityConfig  `yaml:"perplexity"`
	Gemini      GeminiConfig      `yaml:"gemini"`
	Slack       SlackConfig       `yaml:"slack"`
	Measurement MeasurementConfig `yaml:"measurement"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Admin       AdminConfig       `yaml:"admin"`
	Report      ReportConfig      `yaml:"report"`
	Site        SiteConfig        `yaml:"site"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	TimeZone string `yaml:"timezone"`
}

// OpenAIConfig covers both the probe model and the cheaper classification model.
type OpenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	QueryModel string `yaml:"query_model"`
	ParseModel string `yaml:"parse_model"`
}

type PerplexityConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	WriteModel string `yaml:"write_model"`
	ImageModel string `yaml:"image_model"`
}

type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type MeasurementConfig struct {
	RepeatCount    int `yaml:"repeat_count"`
	MaxConcurrency int `yaml:"max_concurrency"`
	QueryLimit     int `yaml:"query_limit"`
}

type SchedulerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Timezone string `yaml:"timezone"`
}

type AdminConfig struct {
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

type ReportConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// SiteConfig controls where built tenant sites land and how they are exposed.
type SiteConfig struct {
	OutputDir      string `yaml:"output_dir"`
	DomainSuffix   string `yaml:"domain_suffix"`
	PreviewBaseURL string `yaml:"preview_base_url"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}

	// Set default values
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5335
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.OpenAI.QueryModel == "" {
		cfg.OpenAI.QueryModel = "gpt-4o"
	}
	if cfg.OpenAI.ParseModel == "" {
		cfg.OpenAI.ParseModel = "gpt-4o-mini"
	}
	if cfg.Perplexity.Model == "" {
		cfg.Perplexity.Model = "sonar"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
	if cfg.Gemini.WriteModel == "" {
		cfg.Gemini.WriteModel = "gemini-2.0-flash"
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = "imagen-3.0-generate-002"
	}
	if cfg.Measurement.RepeatCount == 0 {
		cfg.Measurement.RepeatCount = 10
	}
	if cfg.Measurement.RepeatCount > 20 {
		// hard cap, cost control
		cfg.Measurement.RepeatCount = 20
	}
	if cfg.Measurement.MaxConcurrency == 0 {
		cfg.Measurement.MaxConcurrency = 3
	}
	if cfg.Measurement.QueryLimit == 0 {
		cfg.Measurement.QueryLimit = 10
	}
	if cfg.Scheduler.Timezone == "" {
		cfg.Scheduler.Timezone = "Asia/Seoul"
	}
	if cfg.Admin.BaseURL == "" {
		cfg.Admin.BaseURL = "http://localhost:3000"
	}
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = "/tmp/reports"
	}
	if cfg.Site.OutputDir == "" {
		cfg.Site.OutputDir = "/tmp/sites"
	}
	if cfg.Site.DomainSuffix == "" {
		cfg.Site.DomainSuffix = "echomed.io"
	}
	if cfg.Site.PreviewBaseURL == "" {
		cfg.Site.PreviewBaseURL = "https://preview.echomed.io"
	}

	return cfg, nil
}

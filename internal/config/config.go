package config

import (
	"errors"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"LWS"`
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"30"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"60"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	JWT struct {
		Secret string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Auth struct {
		CodeExpiration    int `env:"CODE_EXPIRATION" envDefault:"600"`     // 10 minutes
		SessionExpiration int `env:"SESSION_EXPIRATION" envDefault:"86400"` // 1 day
		ResendInterval    int `env:"RESEND_INTERVAL" envDefault:"60"`
		SessionCacheTTL   int `env:"SESSION_CACHE_TTL" envDefault:"300"`
	} `envPrefix:"AUTH_"`
	Invite struct {
		Expiration int `env:"EXPIRATION" envDefault:"3600"`
	} `envPrefix:"INVITE_"`
	Email struct {
		From string `env:"FROM,required"`
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
		TemplateDir string `env:"TEMPLATE_DIR" envDefault:"./templates"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host             string `env:"HOST" envDefault:"localhost"`
		Port             int    `env:"PORT" envDefault:"6379"`
		Password         string `env:"PASSWORD"`
		OperationTimeout int    `env:"OPERATION_TIMEOUT" envDefault:"5"`
	} `envPrefix:"REDIS_"`
	Storage struct {
		Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
		AccessKey string `env:"ACCESS_KEY,required"`
		SecretKey string `env:"SECRET_KEY,required"`
		Region    string `env:"REGION" envDefault:"us-east-1"`
		Bucket    string `env:"BUCKET" envDefault:"resumes"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
		Timeout   int    `env:"TIMEOUT" envDefault:"60"`
	} `envPrefix:"STORAGE_"`
	AI struct {
		Provider       string `env:"PROVIDER" envDefault:"openai"`
		Endpoint       string `env:"ENDPOINT"`
		Model          string `env:"MODEL"`
		Key            string `env:"KEY"`
		EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`
		Timeout        int    `env:"TIMEOUT" envDefault:"120"`

		// 0 disables the limiter
		RequestsPerMinute int `env:"REQUESTS_PER_MINUTE" envDefault:"0"`
	} `envPrefix:"AI_"`
	Upload struct {
		MaxFileSize int64 `env:"MAX_FILE_SIZE" envDefault:"10485760"` // 10MB
		MaxFiles    int   `env:"MAX_FILES" envDefault:"20"`
		Concurrency int   `env:"CONCURRENCY" envDefault:"8"`

		// caps the whole multipart body, which is held in memory until stored
		MaxTotalSize int64 `env:"MAX_TOTAL_SIZE" envDefault:"104857600"` // 100MB
	} `envPrefix:"UPLOAD_"`
	Screening struct {
		Concurrency int  `env:"CONCURRENCY" envDefault:"4"`
		MaxAttempts int  `env:"MAX_ATTEMPTS" envDefault:"3"`
		Index       bool `env:"INDEX" envDefault:"false"`
	} `envPrefix:"SCREENING_"`
	Unidoc struct {
		LicenseKey string `env:"LICENSE_KEY"`
	} `envPrefix:"UNIDOC_"`
}

const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error, keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	cfg.resolveAIProvider()

	return cfg, nil
}

// resolveAIProvider fills in the endpoint and model for the well known providers.
func (cfg *Config) resolveAIProvider() {
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))

	switch cfg.AI.Provider {
	case ProviderOllama:
		cfg.AI.Key = "ollama"
		cfg.AI.Endpoint = "http://localhost:11434/v1"
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gemma3:12b"
		}
	case ProviderOpenAI:
		cfg.AI.Endpoint = "https://api.openai.com/v1"
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gpt-4o-mini"
		}
		if cfg.AI.EmbeddingModel == "nomic-embed-text" {
			cfg.AI.EmbeddingModel = "text-embedding-3-small"
		}
	case ProviderGemini:
		cfg.AI.Endpoint = ""
		if cfg.AI.Model == "" {
			cfg.AI.Model = "gemini-2.5-flash"
		}
		if cfg.AI.EmbeddingModel == "nomic-embed-text" {
			cfg.AI.EmbeddingModel = "text-embedding-004"
		}
	}
}

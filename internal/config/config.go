package config

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Embedding provider
	OpenAIAPIKey   string `envconfig:"OPENAI_API_KEY"`
	EmbeddingModel string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-ada-002"`

	// Completion provider (any OpenAI-compatible endpoint; Groq by default)
	LLMAPIKey   string  `envconfig:"LLM_API_KEY"`
	LLMBaseURL  string  `envconfig:"LLM_BASE_URL" default:"https://api.groq.com/openai/v1"`
	LLMModel    string  `envconfig:"LLM_MODEL" default:"llama-3.3-70b-versatile"`
	Temperature float32 `envconfig:"TEMPERATURE" default:"0.2"`
	MaxTokens   int     `envconfig:"MAX_TOKENS" default:"1024"`

	// Ingestion pipeline
	FetchBaseURL     string `envconfig:"FETCH_BASE_URL" default:"https://gitingest.com"`
	ChunkSize        int    `envconfig:"CHUNK_SIZE" default:"512"`
	ChunkOverlap     int    `envconfig:"CHUNK_OVERLAP" default:"64"`
	MinContentLength int    `envconfig:"MIN_CONTENT_LENGTH" default:"50"`

	// Retrieval
	TopK int `envconfig:"TOP_K" default:"5"`

	// Optional raw dump archive
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"docsmith-dumps"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("DOCSMITH", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// Validate checks option values before any pipeline uses them.
func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap cannot be negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.MinContentLength < 0 {
		return fmt.Errorf("minimum content length cannot be negative, got %d", c.MinContentLength)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top-k must be at least 1, got %d", c.TopK)
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %g", c.Temperature)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasOpenAI() bool {
	return c.OpenAIAPIKey != ""
}

func (c *Config) HasLLM() bool {
	return c.LLMAPIKey != ""
}

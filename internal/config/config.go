package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	LLM        LLMConfig
	Embedding  EmbeddingConfig
	Generation GenerationConfig
	Auth       AuthConfig
	Logger     LoggerConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LLMConfig struct {
	APIKey  string        `yaml:"api_key"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}

type EmbeddingConfig struct {
	Model string `yaml:"model"`
}

// GenerationConfig bounds the generation pipeline.
type GenerationConfig struct {
	DocumentCharBudget   int `yaml:"document_char_budget"`
	RetryCharBudget      int `yaml:"retry_char_budget"`
	DefaultQuestionCount int `yaml:"default_question_count"`
	RetrievalTopK        int `yaml:"retrieval_top_k"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	Env   string `yaml:"env"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if os.Getenv("ENV") == "test" {
		viper.AddConfigPath("../../config")
		viper.AddConfigPath("../../")
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	viper.AutomaticEnv()

	viper.SetDefault("db.path", "quizforge.db")
	viper.SetDefault("server.port", 8090)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.timeout", 60)
	viper.SetDefault("embedding.model", "text-embedding-ada-002")
	viper.SetDefault("generation.document_char_budget", 50000)
	viper.SetDefault("generation.retry_char_budget", 10000)
	viper.SetDefault("generation.default_question_count", 10)
	viper.SetDefault("generation.retrieval_top_k", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         viper.GetInt("server.port"),
			ReadTimeout:  viper.GetDuration("server.read_timeout") * time.Second,
			WriteTimeout: viper.GetDuration("server.write_timeout") * time.Second,
		},
		Database: DatabaseConfig{
			Path: viper.GetString("db.path"),
		},
		Redis: RedisConfig{
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		LLM: LLMConfig{
			APIKey:  viper.GetString("llm.api_key"),
			Model:   viper.GetString("llm.model"),
			Timeout: viper.GetDuration("llm.timeout") * time.Second,
		},
		Embedding: EmbeddingConfig{
			Model: viper.GetString("embedding.model"),
		},
		Generation: GenerationConfig{
			DocumentCharBudget:   viper.GetInt("generation.document_char_budget"),
			RetryCharBudget:      viper.GetInt("generation.retry_char_budget"),
			DefaultQuestionCount: viper.GetInt("generation.default_question_count"),
			RetrievalTopK:        viper.GetInt("generation.retrieval_top_k"),
		},
		Auth: AuthConfig{
			JWTSecret: viper.GetString("auth.jwt_secret"),
		},
		Logger: LoggerConfig{
			Level: viper.GetString("logger.level"),
			Env:   viper.GetString("logger.env"),
		},
	}

	// Override with environment variables if set
	if path := os.Getenv("DB_PATH"); path != "" {
		config.Database.Path = path
	}
	if redisAddress := os.Getenv("REDIS_ADDRESS"); redisAddress != "" {
		config.Redis.Address = redisAddress
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.Redis.Password = redisPassword
	}
	if openAIKey := os.Getenv("OPENAI_API_KEY"); openAIKey != "" {
		config.LLM.APIKey = openAIKey
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Auth.JWTSecret = secret
	}

	return config, nil
}

// GetDSN returns the sqlite connection string with foreign keys enforced,
// which the cascade rules on questions/answers/history rely on.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on", c.Database.Path)
}

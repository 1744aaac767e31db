package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "PORTRAIT"

// legacyEnv maps config keys to the unprefixed variables documented for the
// original command line tool. Prefixed variables win when both are set.
var legacyEnv = map[string]string{
	"llm.gemini_api_key":    "GOOGLE_API_KEY",
	"llm.model":             "GEMINI_MODEL",
	"generation.output_dir": "OUTPUT_DIR",
}

// Load configuration from environment variables and an optional config.yaml
// in the working directory. Environment variables take precedence over values
// from config files.
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration using the given config file. An empty path
// looks for ./config.yaml and silently continues when it does not exist.
// Returns a populated Config struct or an error if loading/validation fails.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if _, _, err := cfg.Generation.Resolution(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("llm.model", "gemini-3-pro-image-preview")
	v.SetDefault("llm.text_model", "gemini-2.0-flash-exp")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("llm.max_concurrent_requests", 5)
	v.SetDefault("llm.request_timeout_seconds", 120)

	v.SetDefault("generation.output_dir", "./output")
	v.SetDefault("generation.image_resolution", "768,1024")
	v.SetDefault("generation.save_prompts", true)
	v.SetDefault("generation.max_generation_attempts", 0)
	v.SetDefault("generation.enable_evaluation", true)
	v.SetDefault("generation.enable_references", true)
	v.SetDefault("generation.enable_pre_validation", true)
	v.SetDefault("generation.max_style_workers", 4)
	v.SetDefault("generation.research_cache_ttl_minutes", 60)
	v.SetDefault("generation.reference_download_dir", ".cpf/reference_images")

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)
	v.SetDefault("task.stuck_task_age_minutes", 30)

	v.SetDefault("database.url", "")
}

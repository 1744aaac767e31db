package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	LLM        LLMConfig        `mapstructure:"llm" validate:"required"`
	Generation GenerationConfig `mapstructure:"generation" validate:"required"`
	Task       TaskConfig       `mapstructure:"task" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
}

// ServerConfig contains the REST server settings.
type ServerConfig struct {
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// LLMConfig contains the Gemini integration settings.
// The API key is optional at load time so that offline commands such as
// status work without credentials; the Gemini client enforces it.
type LLMConfig struct {
	GeminiAPIKey          string `mapstructure:"gemini_api_key" validate:"omitempty,min=20"`
	ModelName             string `mapstructure:"model" validate:"required"`
	TextModelName         string `mapstructure:"text_model" validate:"required"`
	MaxRetries            int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds     int    `mapstructure:"retry_delay_seconds" validate:"gte=0,lte=60"`
	MaxConcurrentRequests int    `mapstructure:"max_concurrent_requests" validate:"gte=1,lte=20"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"gte=1"`
}

// RequestTimeout returns the per-call deadline for the vendor API.
func (c LLMConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// GenerationConfig controls the portrait pipeline.
type GenerationConfig struct {
	OutputDir               string `mapstructure:"output_dir" validate:"required"`
	ImageResolution         string `mapstructure:"image_resolution" validate:"required"`
	SavePrompts             bool   `mapstructure:"save_prompts"`
	MaxGenerationAttempts   int    `mapstructure:"max_generation_attempts" validate:"gte=0,lte=5"`
	EnableEvaluation        bool   `mapstructure:"enable_evaluation"`
	EnableReferences        bool   `mapstructure:"enable_references"`
	EnablePreValidation     bool   `mapstructure:"enable_pre_validation"`
	MaxStyleWorkers         int    `mapstructure:"max_style_workers" validate:"gte=1,lte=4"`
	ResearchCacheTTLMinutes int    `mapstructure:"research_cache_ttl_minutes" validate:"gte=0"`
	ReferenceDownloadDir    string `mapstructure:"reference_download_dir"`
}

// Resolution parses ImageResolution ("width,height") into its components.
// It is the smallest acceptable portrait and fixes the expected frame.
func (c GenerationConfig) Resolution() (int, int, error) {
	parts := strings.Split(c.ImageResolution, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("image resolution %q must be formatted as width,height", c.ImageResolution)
	}

	width, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("image resolution %q has an invalid width", c.ImageResolution)
	}

	height, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("image resolution %q has an invalid height", c.ImageResolution)
	}

	return width, height, nil
}

// ResearchCacheTTL returns how long researched subjects stay cached.
func (c GenerationConfig) ResearchCacheTTL() time.Duration {
	return time.Duration(c.ResearchCacheTTLMinutes) * time.Minute
}

// TaskConfig contains settings for the asynchronous batch job runner.
type TaskConfig struct {
	WorkerCount         int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize           int `mapstructure:"queue_size" validate:"gte=1"`
	StuckTaskAgeMinutes int `mapstructure:"stuck_task_age_minutes" validate:"gte=1"`
}

// StuckTaskAge is how long a job may stay processing before it is requeued.
func (c TaskConfig) StuckTaskAge() time.Duration {
	return time.Duration(c.StuckTaskAgeMinutes) * time.Minute
}

// DatabaseConfig is optional. When URL is set, jobs and the generation
// ledger are persisted in PostgreSQL.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Enabled reports whether a database has been configured.
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

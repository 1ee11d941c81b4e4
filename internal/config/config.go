package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Embedding   EmbeddingConfig
	Recognition RecognitionConfig
	Quality     QualityConfig
	Liveness    LivenessConfig
	Attendance  AttendanceConfig
	Database    DatabaseConfig
	Thresholds  ThresholdsConfig
}

type EmbeddingConfig struct {
	URL          string // face embedding server base URL (defaults to http://localhost:8000)
	ModelVersion string // model version tag stored with every enrollment (defaults to buffalo_l)
	Dim          int    // expected embedding dimensionality (defaults to 512)
}

type RecognitionConfig struct {
	Metric    string  // "cosine" or "euclidean"
	Threshold float64 // maximum accepted distance; 0 means use the embedded default for the model version
}

type QualityConfig struct {
	MinConfidence float64 // minimum detector score (default 0.9)
	MinFaceSize   float64 // minimum face bbox side in pixels (default 80)
	MinSharpness  float64 // Laplacian sharpness floor (default 3.0)
	MinVariance   float64 // grayscale variance floor (default 150.0)
}

type LivenessConfig struct {
	Provider     string // "openai", "gemini" or empty to disable the second opinion
	OpenAIToken  string
	GeminiAPIKey string
}

type AttendanceConfig struct {
	Timezone string // IANA zone for the day window boundary (default UTC)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type ThresholdsConfig struct {
	Models map[string]ModelThreshold `yaml:"models"`
}

type ModelThreshold struct {
	Metric    string  `yaml:"metric"`
	Threshold float64 `yaml:"threshold"`
	Dim       int     `yaml:"dim"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	cfg := &Config{
		Embedding: EmbeddingConfig{
			URL:          os.Getenv("EMBEDDING_URL"),
			ModelVersion: envString("EMBEDDING_MODEL_VERSION", "buffalo_l"),
			Dim:          envInt("EMBEDDING_DIM", 512),
		},
		Recognition: RecognitionConfig{
			Metric:    os.Getenv("RECOGNITION_METRIC"),
			Threshold: envFloat("RECOGNITION_THRESHOLD", 0),
		},
		Quality: QualityConfig{
			MinConfidence: envFloat("QUALITY_MIN_CONFIDENCE", 0.9),
			MinFaceSize:   envFloat("QUALITY_MIN_FACE_SIZE", 80),
			MinSharpness:  envFloat("QUALITY_MIN_SHARPNESS", 3.0),
			MinVariance:   envFloat("QUALITY_MIN_VARIANCE", 150.0),
		},
		Liveness: LivenessConfig{
			Provider:     os.Getenv("LIVENESS_PROVIDER"),
			OpenAIToken:  os.Getenv("OPENAI_TOKEN"),
			GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Attendance: AttendanceConfig{
			Timezone: envString("ATTENDANCE_TIMEZONE", "UTC"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Thresholds: thresholds,
	}

	cfg.applyThresholdDefaults()
	return cfg
}

// applyThresholdDefaults fills in metric and threshold from the embedded
// per-model defaults when they were not set explicitly.
func (c *Config) applyThresholdDefaults() {
	mt, ok := c.Thresholds.Models[c.Embedding.ModelVersion]
	if !ok {
		if c.Recognition.Metric == "" {
			c.Recognition.Metric = "cosine"
		}
		if c.Recognition.Threshold == 0 {
			c.Recognition.Threshold = 0.5
		}
		return
	}
	if c.Recognition.Metric == "" {
		c.Recognition.Metric = mt.Metric
	}
	if c.Recognition.Threshold == 0 {
		c.Recognition.Threshold = mt.Threshold
	}
}

// ModelThresholdFor returns the embedded defaults for a model version, with a
// zero value when the version is unknown.
func (c *Config) ModelThresholdFor(modelVersion string) ModelThreshold {
	if mt, ok := c.Thresholds.Models[modelVersion]; ok {
		return mt
	}
	return ModelThreshold{}
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"roidecode/internal/errors"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Data       DataConfig
	Classifier ClassifierConfig
	Stats      StatsConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Workers    int
	LogLevel   string
}

// DataConfig holds input/output locations and cohort selection
type DataConfig struct {
	SamplesFile    string
	MaskDir        string
	OutputDir      string
	CohortGroup    string
	PositiveTarget string
	NegativeTarget string
	ROIMasks       []ROIMask
}

// ROIMask maps an ROI name to its mask file, relative to MaskDir
type ROIMask struct {
	Name string
	File string
}

// ClassifierConfig holds the fixed linear SVM settings
type ClassifierConfig struct {
	Seed    int64
	C       float64
	MaxIter int
	Tol     float64
}

// StatsConfig holds significance settings
type StatsConfig struct {
	Alpha float64
}

// DatabaseConfig holds the optional results database connection
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds results API settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DefaultROIMasks is the anatomical ROI set decoded when ROI_MASKS is unset
var DefaultROIMasks = []ROIMask{
	{Name: "amygdala_left", File: "amygdala_L.nii.gz"},
	{Name: "amygdala_right", File: "amygdala_R.nii.gz"},
	{Name: "insula_left", File: "insula_L.nii.gz"},
	{Name: "insula_right", File: "insula_R.nii.gz"},
	{Name: "anterior_cingulate", File: "ACC.nii.gz"},
	{Name: "vmpfc", File: "vmPFC.nii.gz"},
	{Name: "dlpfc_left", File: "dlPFC_L.nii.gz"},
	{Name: "hippocampus_left", File: "hippocampus_L.nii.gz"},
	{Name: "hippocampus_right", File: "hippocampus_R.nii.gz"},
}

// Default returns the configuration used when no environment is set
func Default() *Config {
	masks := make([]ROIMask, len(DefaultROIMasks))
	copy(masks, DefaultROIMasks)
	return &Config{
		Data: DataConfig{
			SamplesFile:    "data/samples.csv",
			MaskDir:        "data/masks",
			OutputDir:      "results",
			CohortGroup:    "depression",
			PositiveTarget: "positive",
			NegativeTarget: "negative",
			ROIMasks:       masks,
		},
		Classifier: ClassifierConfig{
			Seed:    42,
			C:       1.0,
			MaxIter: 10000,
			Tol:     1e-4,
		},
		Stats:    StatsConfig{Alpha: 0.05},
		Server:   ServerConfig{Port: "8080", GinMode: "release"},
		Workers:  runtime.NumCPU(),
		LogLevel: "INFO",
	}
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a configuration from the current environment and validates it
func FromEnv() (*Config, error) {
	cfg := Default()

	cfg.Data.SamplesFile = getEnvOrDefault("SAMPLES_FILE", cfg.Data.SamplesFile)
	cfg.Data.MaskDir = getEnvOrDefault("MASK_DIR", cfg.Data.MaskDir)
	cfg.Data.OutputDir = getEnvOrDefault("OUTPUT_DIR", cfg.Data.OutputDir)
	cfg.Data.CohortGroup = getEnvOrDefault("COHORT_GROUP", cfg.Data.CohortGroup)
	cfg.Data.PositiveTarget = getEnvOrDefault("POSITIVE_TARGET", cfg.Data.PositiveTarget)
	cfg.Data.NegativeTarget = getEnvOrDefault("NEGATIVE_TARGET", cfg.Data.NegativeTarget)

	if spec := os.Getenv("ROI_MASKS"); spec != "" {
		masks, err := ParseROIMasks(spec)
		if err != nil {
			return nil, errors.Wrap(err, "failed to parse ROI_MASKS")
		}
		cfg.Data.ROIMasks = masks
	}

	cfg.Classifier.Seed = int64(getEnvIntOrDefault("SEED", int(cfg.Classifier.Seed)))
	cfg.Classifier.C = getEnvFloatOrDefault("SVM_C", cfg.Classifier.C)
	cfg.Classifier.MaxIter = getEnvIntOrDefault("SVM_MAX_ITER", cfg.Classifier.MaxIter)
	cfg.Classifier.Tol = getEnvFloatOrDefault("SVM_TOL", cfg.Classifier.Tol)
	cfg.Stats.Alpha = getEnvFloatOrDefault("ALPHA", cfg.Stats.Alpha)

	cfg.Workers = getEnvIntOrDefault("WORKERS", cfg.Workers)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Server.Port = getEnvOrDefault("PORT", cfg.Server.Port)
	cfg.Server.GinMode = getEnvOrDefault("GIN_MODE", cfg.Server.GinMode)

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if len(c.Data.ROIMasks) == 0 {
		return errors.ConfigInvalid("at least one ROI mask must be configured")
	}
	seen := make(map[string]bool, len(c.Data.ROIMasks))
	for _, m := range c.Data.ROIMasks {
		if seen[m.Name] {
			return errors.ConfigInvalid(fmt.Sprintf("duplicate ROI name %q", m.Name))
		}
		seen[m.Name] = true
	}
	if c.Data.PositiveTarget == c.Data.NegativeTarget {
		return errors.ConfigInvalid("positive and negative targets must differ")
	}
	if c.Classifier.C <= 0 {
		return errors.ConfigInvalid("SVM_C must be positive")
	}
	if c.Classifier.MaxIter <= 0 {
		return errors.ConfigInvalid("SVM_MAX_ITER must be positive")
	}
	if c.Classifier.Tol <= 0 {
		return errors.ConfigInvalid("SVM_TOL must be positive")
	}
	if c.Stats.Alpha <= 0 || c.Stats.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be in (0, 1)")
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	return nil
}

// MaskPath resolves an ROI mask file against MaskDir
func (c *Config) MaskPath(m ROIMask) string {
	return MaskPathIn(c.Data.MaskDir, m)
}

// MaskPathIn resolves an ROI mask file against dir; absolute files are kept
func MaskPathIn(dir string, m ROIMask) string {
	if filepath.IsAbs(m.File) {
		return m.File
	}
	return filepath.Join(dir, m.File)
}

// ParseROIMasks parses "name=file,name=file" preserving order
func ParseROIMasks(spec string) ([]ROIMask, error) {
	var masks []ROIMask
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, file, ok := strings.Cut(part, "=")
		name, file = strings.TrimSpace(name), strings.TrimSpace(file)
		if !ok || name == "" || file == "" {
			return nil, errors.ConfigInvalid(fmt.Sprintf("malformed ROI mapping %q, want name=file", part))
		}
		masks = append(masks, ROIMask{Name: name, File: file})
	}
	if len(masks) == 0 {
		return nil, errors.ConfigInvalid("ROI mapping is empty")
	}
	return masks, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

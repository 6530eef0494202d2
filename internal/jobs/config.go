package jobs

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/FrejusAdedemi/wim-plateform/internal/logger"
	"github.com/FrejusAdedemi/wim-plateform/internal/utils"
)

// Config drives the periodic sync worker. Values load in three layers:
// defaults, then the optional YAML file named by SYNC_CONFIG_YAML, then env
// var overrides.
type Config struct {
	// Interval between sync passes.
	Interval time.Duration `yaml:"interval"`
	// FreshnessWindow suppresses re-syncing a course synced this recently.
	FreshnessWindow time.Duration `yaml:"freshness_window"`
	// MaxVideos caps videos pulled per course; 0 means no cap.
	MaxVideos int `yaml:"max_videos"`
	// CreateModules lets the sync create a default module for module-less
	// courses.
	CreateModules bool `yaml:"create_modules"`
	// MetadataBatchSize bounds how many stale lessons one metadata refresh
	// touches.
	MetadataBatchSize int `yaml:"metadata_batch_size"`
	// MetadataMaxAge is how old a lesson's metadata may get before the
	// refresh picks it up.
	MetadataMaxAge time.Duration `yaml:"metadata_max_age"`
}

func DefaultConfig() Config {
	return Config{
		Interval:          6 * time.Hour,
		FreshnessWindow:   time.Hour,
		MaxVideos:         200,
		CreateModules:     true,
		MetadataBatchSize: 50,
		MetadataMaxAge:    7 * 24 * time.Hour,
	}
}

func LoadConfig(log *logger.Logger) Config {
	cfg := DefaultConfig()

	if path := os.Getenv("SYNC_CONFIG_YAML"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Could not read sync config file, using defaults", "path", path, "error", err)
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Warn("Could not parse sync config file, using defaults", "path", path, "error", err)
			cfg = DefaultConfig()
		}
	}

	if v := utils.GetEnvAsInt("SYNC_INTERVAL_MINUTES", 0, log); v > 0 {
		cfg.Interval = time.Duration(v) * time.Minute
	}
	if v := utils.GetEnvAsInt("SYNC_FRESHNESS_MINUTES", 0, log); v > 0 {
		cfg.FreshnessWindow = time.Duration(v) * time.Minute
	}
	if v := utils.GetEnvAsInt("SYNC_MAX_VIDEOS", -1, log); v >= 0 {
		cfg.MaxVideos = v
	}
	if v := utils.GetEnvAsInt("SYNC_METADATA_BATCH_SIZE", 0, log); v > 0 {
		cfg.MetadataBatchSize = v
	}
	if v := utils.GetEnvAsInt("SYNC_METADATA_MAX_AGE_DAYS", 0, log); v > 0 {
		cfg.MetadataMaxAge = time.Duration(v) * 24 * time.Hour
	}
	return cfg
}

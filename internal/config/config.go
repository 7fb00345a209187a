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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Zenlist   ZenlistConfig   `yaml:"zenlist" mapstructure:"zenlist"`
	Homescout HomescoutConfig `yaml:"homescout" mapstructure:"homescout"`
	County    CountyConfig    `yaml:"county" mapstructure:"county"`
	Grounded  GroundedConfig  `yaml:"grounded" mapstructure:"grounded"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Layout    LayoutConfig    `yaml:"layout" mapstructure:"layout"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ZenlistConfig holds Zenlist API settings.
type ZenlistConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// HomescoutConfig holds HomeScout API settings.
type HomescoutConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// CountyConfig configures the county roll index.
type CountyConfig struct {
	RollURL       string `yaml:"roll_url" mapstructure:"roll_url"`
	RollPath      string `yaml:"roll_path" mapstructure:"roll_path"`
	ParcelShpPath string `yaml:"parcel_shp_path" mapstructure:"parcel_shp_path"`
	ParcelField   string `yaml:"parcel_field" mapstructure:"parcel_field"`
}

// GroundedConfig holds the AI-grounded search settings.
type GroundedConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// ReconcileConfig configures the reconciliation engine.
type ReconcileConfig struct {
	PriorityTablePath string   `yaml:"priority_table_path" mapstructure:"priority_table_path"`
	TimeoutSecs       int      `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Sources           []string `yaml:"sources" mapstructure:"sources"`
}

// LayoutConfig configures the room-layout synthesizer.
type LayoutConfig struct {
	WallThickness float64 `yaml:"wall_thickness" mapstructure:"wall_thickness"`
	CeilingHeight float64 `yaml:"ceiling_height" mapstructure:"ceiling_height"`
}

// BatchConfig configures batch reconciliation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// NotionConfig holds the conflict-audit export settings.
type NotionConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	ConflictDB string `yaml:"conflict_db" mapstructure:"conflict_db"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("PROPERTY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "property.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("reconcile.timeout_secs", 30)
	v.SetDefault("reconcile.sources", []string{"zenlist", "homescout", "county", "grounded"})
	v.SetDefault("county.parcel_field", "APN")
	v.SetDefault("grounded.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("layout.wall_thickness", 0.5)
	v.SetDefault("layout.ceiling_height", 9)

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

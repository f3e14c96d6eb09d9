// Package config loads filmcam settings from FILMLOOK_* environment
// variables and an optional config file.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/gogpu/filmlook"
)

// EnvPrefix prefixes every environment variable, e.g. FILMLOOK_LUT_DIR.
const EnvPrefix = "FILMLOOK"

// Device choices.
const (
	DeviceAuto = "auto"
	DeviceHost = "host"
	DeviceGPU  = "gpu"
)

// Config holds the settings shared by the filmcam commands.
type Config struct {
	// Device selects the executor: a hardware adapter, the host CPU, or
	// the adapter with a host fallback.
	Device string `mapstructure:"device" validate:"oneof=auto host gpu"`

	LUTDir          string `mapstructure:"lut_dir" validate:"omitempty,dir"`
	Workers         int    `mapstructure:"workers" validate:"gte=0,lte=1024"`
	ValidateShaders bool   `mapstructure:"validate_shaders"`
	ThumbnailSize   int    `mapstructure:"thumbnail_size" validate:"gte=16,lte=4096"`
	JPEGQuality     int    `mapstructure:"jpeg_quality" validate:"gte=1,lte=100"`
	PreviewFPS      int    `mapstructure:"preview_fps" validate:"gte=1,lte=240"`
	Preset          string `mapstructure:"preset" validate:"required"`
	LogLevel        string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
}

// bindEnv binds an environment variable for every mapstructure tag, so
// Unmarshal sees variables that have no default.
func bindEnv(v *viper.Viper, c Config) error {
	typ := reflect.TypeOf(c)
	for i := 0; i < typ.NumField(); i++ {
		if tag := typ.Field(i).Tag.Get("mapstructure"); tag != "" {
			if err := v.BindEnv(tag); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads the configuration. path names an optional config file in any
// format viper reads (YAML, TOML, JSON); environment variables override it.
func Load(ctx context.Context, path string) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := bindEnv(v, Config{}); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	// Defaults
	v.SetDefault("device", DeviceAuto)
	v.SetDefault("workers", 0)
	v.SetDefault("thumbnail_size", filmlook.DefaultThumbnailSize)
	v.SetDefault("jpeg_quality", 92)
	v.SetDefault("preview_fps", 30)
	v.SetDefault("preset", "portra-400")
	v.SetDefault("log_level", "warn")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Device = strings.ToLower(cfg.Device)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validator.New().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return nil, fmt.Errorf("validate config: invalid %s: %w", strings.Join(fields, ", "), err)
		}
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// EngineOptions converts the configuration into engine options.
func (c *Config) EngineOptions() []filmlook.Option {
	return []filmlook.Option{
		filmlook.WithLUTDir(c.LUTDir),
		filmlook.WithWorkers(c.Workers),
		filmlook.WithShaderValidation(c.ValidateShaders),
		filmlook.WithThumbnailSize(c.ThumbnailSize),
	}
}

// OpenEngine creates an engine on the configured device.
func (c *Config) OpenEngine() *filmlook.Engine {
	switch c.Device {
	case DeviceHost:
		return filmlook.NewHost(c.EngineOptions()...)
	case DeviceGPU:
		return filmlook.OpenGPU(c.EngineOptions()...)
	default:
		return filmlook.Open(c.EngineOptions()...)
	}
}

// SlogLevel returns the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Package config loads server configuration the way
// VictorNM-elsa-coding-challenges's internal/config does: seed a defaults
// struct, merge it into viper ahead of any config file or environment
// override, then unmarshal back into a typed struct via mapstructure.
package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config holds every ambient and domain setting the server needs at
// startup.
type Config struct {
	HTTPAddr string `mapstructure:"http_addr"`

	JWTSigningKey string `mapstructure:"jwt_signing_key"`

	DatabaseDSN string `mapstructure:"database_dsn"`
	RedisAddr   string `mapstructure:"redis_addr"`

	RoomCodeLength int `mapstructure:"room_code_length"`

	LogLevel string `mapstructure:"log_level"`
}

// Defaults returns the built-in configuration used when nothing in the
// environment overrides it. DatabaseDSN and RedisAddr default to empty,
// which selects the no-op persistence/idempotency implementations.
func Defaults() Config {
	return Config{
		HTTPAddr:       ":8080",
		JWTSigningKey:  "",
		DatabaseDSN:    "",
		RedisAddr:      "",
		RoomCodeLength: 6,
		LogLevel:       "info",
	}
}

// envPrefix namespaces every environment override, e.g. OPENWORD_HTTP_ADDR.
const envPrefix = "OPENWORD"

// Load builds a Config from Defaults(), overridden by an optional config
// file at path (may be empty to skip) and then by OPENWORD_*
// environment variables, following VictorNM-elsa-coding-challenges's
// defaults -> mapstructure.Decode -> viper.MergeConfigMap -> AutomaticEnv
// -> Unmarshal pipeline.
func Load(path string) (Config, error) {
	defaults := Defaults()

	defaultsMap := map[string]any{}
	if err := mapstructure.Decode(defaults, &defaultsMap); err != nil {
		return Config{}, fmt.Errorf("config: encode defaults: %w", err)
	}

	v := viper.New()
	if err := v.MergeConfigMap(defaultsMap); err != nil {
		return Config{}, fmt.Errorf("config: merge defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read config file %q: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.JWTSigningKey == "" {
		return Config{}, fmt.Errorf("config: %s_JWT_SIGNING_KEY is required", envPrefix)
	}
	return cfg, nil
}

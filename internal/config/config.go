// Package config resolves azwebapps settings from flags, environment
// variables and an optional azwebapps.yaml file.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Setting keys. Flag names match the keys.
const (
	KeyGroup    = "group"
	KeyRecord   = "record"
	KeyReplay   = "replay"
	KeyLogLevel = "log-level"
)

// EnvPrefix is prepended to every key when looking up the environment, so
// log-level is read from AZWEBAPPS_LOG_LEVEL.
const EnvPrefix = "AZWEBAPPS"

// ErrRecordAndReplay is returned when both a record and a replay path are set.
var ErrRecordAndReplay = errors.New("--record and --replay are mutually exclusive")

// Config is the resolved runtime configuration.
type Config struct {
	Group    string // Azure resource group
	Record   string // session log to write, empty for no recording
	Replay   string // session log to replay, empty for live execution
	LogLevel string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyGroup, "")
	v.SetDefault(KeyRecord, "")
	v.SetDefault(KeyReplay, "")
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads configuration into a Config. configFile names an explicit YAML
// file; when empty, azwebapps.yaml in the working directory is used if it
// exists. Flags bound to v take precedence over the environment, which takes
// precedence over the file.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("azwebapps")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Group:    v.GetString(KeyGroup),
		Record:   v.GetString(KeyRecord),
		Replay:   v.GetString(KeyReplay),
		LogLevel: v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects contradictory settings.
func (c *Config) Validate() error {
	if c.Record != "" && c.Replay != "" {
		return ErrRecordAndReplay
	}
	return nil
}

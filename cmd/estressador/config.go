package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"cpu-estressador/pkg/monitor"
	"gopkg.in/yaml.v3"
)

const (
	envMonitorInterval = "ESTRESSADOR_MONITOR_INTERVAL"
	envTempLimit       = "ESTRESSADOR_TEMP_LIMIT"
)

type runtimeConfig struct {
	Monitor monitorConfig
}

type monitorConfig struct {
	Interval  time.Duration
	TempLimit float64
}

type fileConfig struct {
	Monitor monitorFileConfig `yaml:"monitor"`
}

type monitorFileConfig struct {
	Interval  *time.Duration `yaml:"interval"`
	TempLimit *float64       `yaml:"tempLimit"`
}

func defaultRuntimeConfig() runtimeConfig {
	var cfg runtimeConfig

	cfg.Monitor.Interval = monitor.DefaultInterval
	cfg.Monitor.TempLimit = 0

	return cfg
}

func loadConfig(path string) (runtimeConfig, error) {
	cfg := defaultRuntimeConfig()

	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		applyEnvOverrides(&cfg)

		return cfg, nil
	}

	data, err := os.ReadFile(trimmed)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return runtimeConfig{}, fmt.Errorf("read config file %q: %w", trimmed, err)
		}
	} else {
		var fileCfg fileConfig

		err := yaml.Unmarshal(data, &fileCfg)
		if err != nil {
			return runtimeConfig{}, fmt.Errorf("decode config file %q: %w", trimmed, err)
		}

		mergeMonitorConfig(&cfg.Monitor, fileCfg.Monitor)
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

func mergeMonitorConfig(dst *monitorConfig, src monitorFileConfig) {
	assignDuration(&dst.Interval, src.Interval)
	assignFloat(&dst.TempLimit, src.TempLimit)
}

func applyEnvOverrides(cfg *runtimeConfig) {
	cfg.Monitor.Interval = envDuration(envMonitorInterval, cfg.Monitor.Interval)
	cfg.Monitor.TempLimit = envFloat(envTempLimit, cfg.Monitor.TempLimit)

	if cfg.Monitor.Interval <= 0 {
		cfg.Monitor.Interval = monitor.DefaultInterval
	}

	if cfg.Monitor.TempLimit < 0 {
		cfg.Monitor.TempLimit = 0
	}
}

var lookupEnv = os.LookupEnv //nolint:gochecknoglobals // overridden in tests

func parseFloatDefault(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}

	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}

	return parsed
}

func assignFloat(target *float64, value *float64) {
	if value != nil {
		*target = *value
	}
}

func assignDuration(target *time.Duration, value *time.Duration) {
	if value != nil {
		*target = *value
	}
}

func envFloat(key string, fallback float64) float64 {
	value, ok := lookupEnv(key)
	if !ok {
		return fallback
	}

	return parseFloatDefault(value, fallback)
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value, ok := lookupEnv(key)
	if !ok {
		return fallback
	}

	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}

	duration, err := time.ParseDuration(trimmed)
	if err != nil {
		return fallback
	}

	return duration
}

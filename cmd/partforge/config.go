package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"github.com/partforge/partforge/internal/config"
	"github.com/spf13/viper"
)

func loadConfig(workDir string) (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = filepath.Join(".partforge", "config.json")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("json")

	var cfg config.Config
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file falls back to defaults; anything else
		// is a real error.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := config.ValidateSettings(viper.AllSettings()); err != nil {
			return config.Config{}, err
		}
		hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		))
		if err := viper.Unmarshal(&cfg, hook); err != nil {
			return config.Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

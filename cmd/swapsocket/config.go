package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// config is the file form of the command settings. Flags override it.
type config struct {
	Addr         string        `yaml:"addr"`
	MaxFrameSize int           `yaml:"max_frame_size"`
	Timeout      time.Duration `yaml:"timeout"`
	LogLevel     string        `yaml:"log_level"`
}

func defaultConfig() *config {
	return &config{
		Addr:     "127.0.0.1:12345",
		Timeout:  30 * time.Second,
		LogLevel: "info",
	}
}

// loadConfig reads path over the defaults. An empty path yields the defaults.
func loadConfig(path string) (*config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

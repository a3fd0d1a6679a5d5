package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eivy/smartir-learn/metrics"
	"github.com/eivy/smartir-learn/mqtt"
)

// Config is the optional config.yaml wrapped around the document.
// Everything has a default; a missing file just means defaults.
type Config struct {
	Device struct {
		Address               string `yaml:"Address"`
		CaptureTimeoutSeconds int    `yaml:"CaptureTimeoutSeconds"`
		PollIntervalMillis    int    `yaml:"PollIntervalMillis"`
	} `yaml:"Device"`
	Document string          `yaml:"Document"`
	MQTT     *mqtt.Config    `yaml:"MQTT"`
	Metrics  *metrics.Config `yaml:"Metrics"`
}

func loadConfig(path string) (Config, error) {
	var config Config
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &config); err != nil {
		return config, fmt.Errorf("parse config %s: %w", path, err)
	}
	return config, nil
}

func (c Config) documentPath() string {
	if c.Document == "" {
		return "smartir.json"
	}
	return c.Document
}

func (c Config) captureTimeout() time.Duration {
	return time.Duration(c.Device.CaptureTimeoutSeconds) * time.Second
}

func (c Config) pollInterval() time.Duration {
	return time.Duration(c.Device.PollIntervalMillis) * time.Millisecond
}

package aihttpserver

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML configuration file. Durations are
// strings in time.ParseDuration format ("3s", "5m"). Flag values
// override anything set here; the backend URL and key only ever come
// from the environment.
type FileConfig struct {
	Addr           string `yaml:"addr"`
	ManagementAddr string `yaml:"managementAddr"`
	ArtifactsDir   string `yaml:"artifactsDir"`
	Provider       string `yaml:"provider"`
	DBFilename     string `yaml:"dbFilename"`
	Model          string `yaml:"model"`
	RateTTL        string `yaml:"rateTTL"`
	SitemapTTL     string `yaml:"sitemapTTL"`
	ReadTimeout    string `yaml:"readTimeout"`
}

func GetConfig(filename string) (FileConfig, error) {
	var config FileConfig
	configBytes, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = yaml.Unmarshal(configBytes, &config)
	return config, err
}

// ParseTTL parses a duration field, returning fallback for the empty string.
func ParseTTL(value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", value, err)
	}
	return d, nil
}

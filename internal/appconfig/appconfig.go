package appconfig

import (
	"bytes"
	"errors"
	"html/template"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
)

// Config holds all configuration details
type Config struct {
	Host     string         `yaml:"host"`
	BasePath string         `yaml:"basePath"`
	Database DatabaseConfig `yaml:"database"`
	Pulsar   PulsarConfig   `yaml:"pulsar"`
	Auth     AuthConfig     `yaml:"auth"`
}

// DatabaseConfig defines the database connection details
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Source string `yaml:"source"`
}

// PulsarConfig defines the messaging system connection details
type PulsarConfig struct {
	URL           string `yaml:"url"`
	TopicProducer string `yaml:"topicProducer"`
}

// AuthConfig defines token signing configuration. The signing secret is
// interpolated from the environment; it is never stored in the file.
type AuthConfig struct {
	SigningSecret     string `yaml:"signingSecret"`
	AccessTTLMinutes  int    `yaml:"accessTTLMinutes"`
	RefreshTTLHours   int    `yaml:"refreshTTLHours"`
	AccessCookieName  string `yaml:"accessCookieName"`
	RefreshCookieName string `yaml:"refreshCookieName"`
}

// LoadConfig loads and parses the configuration from a given file path
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		err := errors.New("config file path is required")
		log.Fatal().Err(err).Msg("config file not provided")
		return nil, err
	}

	// Parse the template file
	tmpl, err := template.ParseFiles(path)
	if err != nil {
		log.Fatal().Err(err).Msg("error parsing config file template")
		return nil, err
	}

	// Create a map of environment variables
	envVars := loadEnvVars()

	// Execute the template with environment variables
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, envVars); err != nil {
		log.Fatal().Err(err).Msg("error executing config file template")
		return nil, err
	}

	// Load and unmarshal the YAML
	var config Config
	if err := yaml.Unmarshal(buf.Bytes(), &config); err != nil {
		log.Fatal().Err(err).Msg("failed to unmarshal config YAML")
		return nil, err
	}

	config.applyDefaults()

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Auth.AccessTTLMinutes == 0 {
		c.Auth.AccessTTLMinutes = 15
	}
	if c.Auth.RefreshTTLHours == 0 {
		c.Auth.RefreshTTLHours = 24 * 7
	}
	if c.Auth.AccessCookieName == "" {
		c.Auth.AccessCookieName = "accessToken"
	}
	if c.Auth.RefreshCookieName == "" {
		c.Auth.RefreshCookieName = "refreshToken"
	}
}

// loadEnvVars loads environment variables into a map
func loadEnvVars() map[string]string {
	envVars := make(map[string]string)
	for _, env := range os.Environ() {
		kv := strings.SplitN(env, "=", 2)
		if len(kv) == 2 {
			envVars[kv[0]] = kv[1]
		}
	}
	return envVars
}

// Package viper loads postmap configuration from a YAML file and the
// environment.
package viper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fwojciec/postmap"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "POSTMAP"

// Config is the complete runtime configuration.
type Config struct {
	DB         string            `mapstructure:"db"`
	Media      MediaConfig       `mapstructure:"media"`
	ImportIO   ImportIOConfig    `mapstructure:"importio"`
	Gemini     GeminiConfig      `mapstructure:"gemini"`
	Fetch      FetchConfig       `mapstructure:"fetch"`
	Server     ServerConfig      `mapstructure:"server"`
	Connectors []ConnectorConfig `mapstructure:"connectors"`
}

// MediaConfig configures side-loaded image storage.
type MediaConfig struct {
	Dir string `mapstructure:"dir"`
	URL string `mapstructure:"url"`
	// RateLimit is the number of image requests per second per host.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// ImportIOConfig configures the Import.io client.
type ImportIOConfig struct {
	APIKey    string  `mapstructure:"api_key"`
	BaseURL   string  `mapstructure:"base_url"`
	RateLimit float64 `mapstructure:"rate_limit"`
}

// GeminiConfig configures the Gemini provider.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// FetchConfig configures page fetching.
type FetchConfig struct {
	// Browser renders pages with headless Chrome instead of plain HTTP.
	Browser   bool   `mapstructure:"browser"`
	UserAgent string `mapstructure:"user_agent"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// ConnectorConfig declares a connector in the config file.
// Mapping is a list rather than a map so that field names keep their case.
type ConnectorConfig struct {
	ID             string                   `mapstructure:"id"`
	Name           string                   `mapstructure:"name"`
	Provider       string                   `mapstructure:"provider"`
	RecordSelector string                   `mapstructure:"record_selector"`
	Fields         []postmap.ConnectorField `mapstructure:"fields"`
	Mapping        []MappingEntry           `mapstructure:"mapping"`
}

// MappingEntry routes one field to a role.
type MappingEntry struct {
	Field string `mapstructure:"field"`
	Role  string `mapstructure:"role"`
}

// Connector converts the declaration to a validated connector.
// An empty provider means importio.
func (c ConnectorConfig) Connector() (*postmap.Connector, error) {
	if c.ID == "" {
		return nil, postmap.Errorf(postmap.EINVALID, "connector id required")
	}

	provider := postmap.Provider(c.Provider)
	if provider == "" {
		provider = postmap.ProviderImportIO
	}

	mapping := make(postmap.FieldMapping, len(c.Mapping))
	for _, e := range c.Mapping {
		if e.Field == "" {
			return nil, postmap.Errorf(postmap.EINVALID, "connector %q: mapping field required", c.ID)
		}
		role, err := postmap.ParseRole(e.Role)
		if err != nil {
			return nil, postmap.Errorf(postmap.EINVALID, "connector %q: field %q: unknown role %q", c.ID, e.Field, e.Role)
		}
		mapping[e.Field] = role
	}

	name := c.Name
	if name == "" {
		name = c.ID
	}

	conn := &postmap.Connector{
		ID:             c.ID,
		Name:           name,
		Provider:       provider,
		RecordSelector: c.RecordSelector,
		Fields:         c.Fields,
		Mapping:        mapping,
	}
	if err := conn.Validate(); err != nil {
		return nil, fmt.Errorf("connector %q: %w", c.ID, err)
	}
	return conn, nil
}

// AllConnectors converts every declared connector.
func (c *Config) AllConnectors() ([]*postmap.Connector, error) {
	seen := make(map[string]bool, len(c.Connectors))
	out := make([]*postmap.Connector, 0, len(c.Connectors))
	for _, cc := range c.Connectors {
		conn, err := cc.Connector()
		if err != nil {
			return nil, err
		}
		if seen[conn.ID] {
			return nil, postmap.Errorf(postmap.ECONFLICT, "connector %q declared twice", conn.ID)
		}
		seen[conn.ID] = true
		out = append(out, conn)
	}
	return out, nil
}

// Load reads configuration from path and POSTMAP_* environment variables.
// Environment variables take precedence over the file. With an empty path,
// postmap.yaml in the working directory is read if it exists.
// GEMINI_API_KEY is accepted in place of POSTMAP_GEMINI_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GEMINI_API_KEY"); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("postmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", "postmap.db")
	v.SetDefault("media.dir", "media")
	v.SetDefault("media.url", "/media")
	v.SetDefault("media.rate_limit", 1.0)
	v.SetDefault("importio.api_key", "")
	v.SetDefault("importio.base_url", "https://api.import.io")
	v.SetDefault("importio.rate_limit", 2.0)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("fetch.browser", false)
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("server.addr", ":8080")
}

package platform

import (
	"embed"
	"log"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/platforms.yaml
var platformsYAML embed.FS

// Registry holds the configuration for all supported event platforms.
type Registry struct {
	Platforms []Config `yaml:"platforms"`
}

// Config describes one platform: which hosts map to it, how to reach its
// API (if any), and how to scrape it when structured data is missing.
type Config struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Hosts []string  `yaml:"hosts"`
	API   APIConfig `yaml:"api,omitempty"`
	// StructuredData is false for platforms that never embed an Event
	// JSON-LD block and need DOM-selector scraping instead.
	StructuredData bool           `yaml:"structured_data"`
	Selectors      SelectorConfig `yaml:"selectors,omitempty"`
}

// APIConfig describes the platform's authenticated lookup endpoint.
// The key is read from the named environment variable; an unset variable
// disables the API strategy for that platform.
type APIConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	KeyEnvVar string `yaml:"key_env_var,omitempty"`
	// AuthHeader is the header the key is sent in ("x-luma-api-key"),
	// or "bearer" for an Authorization: Bearer token.
	AuthHeader string `yaml:"auth_header,omitempty"`
}

// SelectorConfig lists CSS selector candidates per field, in priority order.
type SelectorConfig struct {
	Title       []string `yaml:"title,omitempty"`
	DateTime    []string `yaml:"datetime,omitempty"`
	Location    []string `yaml:"location,omitempty"`
	Description []string `yaml:"description,omitempty"`
	Organizer   []string `yaml:"organizer,omitempty"`
}

var (
	registryOnce sync.Once
	registry     *Registry
)

// LoadedRegistry returns the embedded platform registry, parsed once.
func LoadedRegistry() *Registry {
	registryOnce.Do(func() {
		data, err := platformsYAML.ReadFile("config/platforms.yaml")
		if err != nil {
			log.Fatalf("embedded platforms.yaml missing: %v", err)
		}
		var reg Registry
		if err := yaml.Unmarshal(data, &reg); err != nil {
			log.Fatalf("invalid platforms.yaml: %v", err)
		}
		registry = &reg
	})
	return registry
}

// Lookup returns the config for a platform, or nil for Unknown.
func Lookup(p Platform) *Config {
	for i := range LoadedRegistry().Platforms {
		pc := &LoadedRegistry().Platforms[i]
		if pc.ID == string(p) {
			return pc
		}
	}
	return nil
}

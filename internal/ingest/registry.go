package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

// Registry holds the configuration for all data sources and pipeline stages.
type Registry struct {
	Sources  []SourceConfig `yaml:"sources"`
	Geocoder GeocoderConfig `yaml:"geocoder"`
	Matcher  MatcherConfig  `yaml:"matcher"`
	Telegram TelegramConfig `yaml:"telegram"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds    int     `yaml:"timeout_seconds,omitempty"`     // Default: 30
	MaxRetries        int     `yaml:"max_retries,omitempty"`         // Default: 3
	RateLimitRPS      float64 `yaml:"rate_limit_rps,omitempty"`      // Requests per second, default: 1.0
	BackoffBaseMillis int     `yaml:"backoff_base_millis,omitempty"` // Default: 500
	ProxyURL          string  `yaml:"proxy_url,omitempty"`
	Accept            string  `yaml:"accept,omitempty"`
	AcceptLanguage    string  `yaml:"accept_language,omitempty"` // e.g., "uk-UA,uk;q=0.9"
}

// SourceConfig defines a single upstream data source.
type SourceConfig struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Kind        string `yaml:"kind"` // "prozorro_search", "incident_feed"
	BaseURL     string `yaml:"base_url,omitempty"`
	PageURL     string `yaml:"page_url,omitempty"` // fmt template for detail pages
	Description string `yaml:"description,omitempty"`

	Fetch  FetchConfig  `yaml:"fetch,omitempty"`
	Search SearchConfig `yaml:"search,omitempty"`
	Filter FilterConfig `yaml:"filter,omitempty"`
	Cache  CacheConfig  `yaml:"cache,omitempty"`
}

type SearchConfig struct {
	Text         string `yaml:"text,omitempty"`
	Region       string `yaml:"region,omitempty"` // e.g. "61-64"
	PerPage      int    `yaml:"per_page,omitempty"`
	MaxPages     int    `yaml:"max_pages,omitempty"`
	DelaySeconds int    `yaml:"delay_seconds,omitempty"`
}

type FilterConfig struct {
	Impact string `yaml:"impact,omitempty"`
}

type CacheConfig struct {
	Dir      string `yaml:"dir,omitempty"`
	TTLHours int    `yaml:"ttl_hours,omitempty"`
}

type GeocoderConfig struct {
	BaseURL        string `yaml:"base_url"`
	AccessToken    string `yaml:"access_token,omitempty"` // used as-is when set
	TeamID         string `yaml:"team_id"`
	KeyID          string `yaml:"key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
	Language       string `yaml:"language"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type MatcherConfig struct {
	ThresholdMeters  float64 `yaml:"threshold_meters"`
	NoiseProbability float64 `yaml:"noise_probability"`
}

type TelegramConfig struct {
	CacheDir string `yaml:"cache_dir"`
}

type AnalysisConfig struct {
	DamageKeywords []string `yaml:"damage_keywords"`
	TopN           int      `yaml:"top_n"`
}

// LoadRegistry reads the registry from path, or from the embedded
// sources.yaml when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}

	// Expand environment variables within the YAML content (e.g. ${MAPKIT_TEAM_ID})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}

	return &reg, nil
}

// Source returns the source configuration with the given id.
func (r *Registry) Source(id string) (SourceConfig, error) {
	for _, s := range r.Sources {
		if s.ID == id {
			return s, nil
		}
	}
	return SourceConfig{}, fmt.Errorf("%w: %s", ErrUnknownSource, id)
}

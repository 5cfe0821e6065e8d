package feed

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const (
	DefaultURL      = "https://www.nbcsports.com/fantasy/football/player-news"
	DefaultMaxItems = 100
	DefaultTimeout  = 30 // seconds
	DefaultLinkAttr = "data-share-url"
	DefaultDateAttr = "data-timestamp"
)

// DefaultConfig returns the built-in NBC Sports player news profile.
func DefaultConfig() *Config {
	return &Config{
		Name: "nbc-fantasy-football",
		URL:  DefaultURL,
		Channel: ConfigChannel{
			Title:       "NBC Sports Fantasy Football News",
			Link:        DefaultURL,
			Description: "Latest player news and analysis for fantasy football from NBC Sports.",
			Language:    "en",
		},
		Selectors: ConfigSelectors{
			Post:     "div.PlayerNewsPost-content",
			Title:    "div.PlayerNewsPost-headline",
			Body:     "div.PlayerNewsPost-analysis",
			Link:     "button[data-share-url]",
			LinkAttr: DefaultLinkAttr,
			DateAttr: DefaultDateAttr,
		},
		Settings: ConfigSettings{
			MaxItems:   DefaultMaxItems,
			Order:      OrderNewestFirst,
			DatePolicy: DatePolicyOptional,
			Timeout:    DefaultTimeout,
		},
	}
}

// ConfigOverride carries command-line overrides applied on every load.
// Zero values leave the profile untouched; MaxItems below zero is ignored.
type ConfigOverride struct {
	URL      string
	MaxItems int
	Order    Order
}

func (o ConfigOverride) apply(feedConfig *Config) {
	if o.URL != "" {
		if feedConfig.Channel.Link == feedConfig.URL {
			feedConfig.Channel.Link = o.URL
		}
		feedConfig.URL = o.URL
	}
	if o.MaxItems > 0 {
		feedConfig.Settings.MaxItems = o.MaxItems
	}
	if o.Order != "" {
		feedConfig.Settings.Order = o.Order
	}
}

// ConfigCache holds the current scrape profile. Serve mode reloads it before
// every run so edits to the file apply without a restart.
type ConfigCache struct {
	path     string
	override ConfigOverride
	config   *Config
	mu       sync.RWMutex
}

func NewConfigCache(path string, override ConfigOverride) *ConfigCache {
	return &ConfigCache{path: path, override: override}
}

func (cc *ConfigCache) Run() error {
	feedConfig, err := LoadConfig(cc.path)
	if err != nil {
		return err
	}

	cc.override.apply(feedConfig)
	if err := ValidateConfig(feedConfig); err != nil {
		return fmt.Errorf("invalid config %s after overrides: %w", cc.path, err)
	}

	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.config = feedConfig

	slog.Debug("Configuration loaded", "feed", feedConfig.Name, "url", feedConfig.URL, "max_items", feedConfig.Settings.MaxItems, "order", feedConfig.Settings.Order)
	return nil
}

func (cc *ConfigCache) GetConfig() (*Config, error) {
	cc.mu.RLock()
	defer cc.mu.RUnlock()

	if cc.config == nil {
		return nil, fmt.Errorf("feed config '%s' not loaded", cc.path)
	}
	copied := *cc.config
	return &copied, nil
}

// LoadConfig reads a YAML profile. A missing file yields DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("Profile not found, using built-in defaults", "path", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	feedConfig, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	fileName := filepath.Base(path)
	feedConfig.Name = strings.TrimSuffix(fileName, filepath.Ext(fileName))

	return feedConfig, nil
}

// ParseConfig decodes a YAML profile over the built-in defaults, so any field
// the profile leaves out keeps its default value. The result is validated.
func ParseConfig(data []byte) (*Config, error) {
	feedConfig := DefaultConfig()
	// Link follows url unless the profile sets it
	feedConfig.Channel.Link = ""

	if err := yaml.Unmarshal(data, feedConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Default channel text describes the default page only
	if feedConfig.URL != DefaultURL {
		defaults := DefaultConfig().Channel
		if feedConfig.Channel.Title == defaults.Title {
			feedConfig.Channel.Title = ""
		}
		if feedConfig.Channel.Description == defaults.Description {
			feedConfig.Channel.Description = ""
		}
	}

	setDefaults(feedConfig)

	if err := ValidateConfig(feedConfig); err != nil {
		return nil, err
	}

	return feedConfig, nil
}

func setDefaults(feedConfig *Config) {
	if feedConfig.Channel.Link == "" {
		feedConfig.Channel.Link = feedConfig.URL
	}
	if feedConfig.Selectors.LinkAttr == "" {
		feedConfig.Selectors.LinkAttr = DefaultLinkAttr
	}
	if feedConfig.Selectors.DateAttr == "" {
		feedConfig.Selectors.DateAttr = DefaultDateAttr
	}
	if feedConfig.Settings.MaxItems == 0 {
		feedConfig.Settings.MaxItems = DefaultMaxItems
	}
	if feedConfig.Settings.Order == "" {
		feedConfig.Settings.Order = OrderNewestFirst
	}
	if feedConfig.Settings.DatePolicy == "" {
		feedConfig.Settings.DatePolicy = DatePolicyOptional
	}
	if feedConfig.Settings.Timeout == 0 {
		feedConfig.Settings.Timeout = DefaultTimeout
	}
}

func ValidateConfig(feedConfig *Config) error {
	if feedConfig == nil {
		return fmt.Errorf("feedConfig is nil")
	}

	if feedConfig.URL == "" {
		return fmt.Errorf("feed URL is required")
	}

	requiredSelectors := []struct {
		name  string
		value string
	}{
		{"post", feedConfig.Selectors.Post},
		{"title", feedConfig.Selectors.Title},
		{"body", feedConfig.Selectors.Body},
		{"link", feedConfig.Selectors.Link},
	}

	for _, s := range requiredSelectors {
		if s.value == "" {
			return fmt.Errorf("%s selector is required", s.name)
		}
		if _, err := cascadia.Compile(s.value); err != nil {
			return fmt.Errorf("invalid %s selector %q: %w", s.name, s.value, err)
		}
	}

	if feedConfig.Selectors.Date != "" {
		if _, err := cascadia.Compile(feedConfig.Selectors.Date); err != nil {
			return fmt.Errorf("invalid date selector %q: %w", feedConfig.Selectors.Date, err)
		}
	}

	nonNegativeFields := map[string]int{
		"max items": feedConfig.Settings.MaxItems,
		"timeout":   feedConfig.Settings.Timeout,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	switch feedConfig.Settings.Order {
	case OrderNewestFirst, OrderOldestFirst:
	default:
		return fmt.Errorf("invalid order: %s", feedConfig.Settings.Order)
	}

	switch feedConfig.Settings.DatePolicy {
	case DatePolicyOptional:
	case DatePolicyRequired:
		if feedConfig.Selectors.Date == "" {
			return fmt.Errorf("date policy 'required' needs a date selector")
		}
	default:
		return fmt.Errorf("invalid date policy: %s", feedConfig.Settings.DatePolicy)
	}

	if feedConfig.Channel.Language != "" {
		if _, err := language.Parse(feedConfig.Channel.Language); err != nil {
			return fmt.Errorf("invalid channel language %q: %w", feedConfig.Channel.Language, err)
		}
	}

	validFields := map[string]bool{
		"title": true,
		"body":  true,
		"link":  true,
	}

	for i, filter := range feedConfig.Filters {
		if !validFields[filter.Field] {
			return fmt.Errorf("invalid filter field at index %d: %s", i, filter.Field)
		}
		if len(filter.Includes) == 0 && len(filter.Excludes) == 0 {
			return fmt.Errorf("filter at index %d must have at least one include or exclude rule", i)
		}
	}

	return nil
}

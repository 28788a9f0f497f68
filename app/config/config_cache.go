package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// SourceConfigCache loads per-source YAML files from the sources directory
// and keeps them in memory. The source name is derived from the filename.
type SourceConfigCache struct {
	sourcesDir      string
	defaultMaxDepth int
	defaultMaxPages int
	cache           map[string]*SourceConfig
	mu              sync.RWMutex
}

// NewSourceConfigCache creates a cache reading from sourcesDir. The depth
// and page defaults apply to sources whose YAML omits them; non-positive
// values fall back to built-in defaults.
func NewSourceConfigCache(sourcesDir string, defaultMaxDepth, defaultMaxPages int) *SourceConfigCache {
	if defaultMaxDepth <= 0 {
		defaultMaxDepth = 3
	}
	if defaultMaxPages <= 0 {
		defaultMaxPages = 50
	}
	return &SourceConfigCache{
		sourcesDir:      sourcesDir,
		defaultMaxDepth: defaultMaxDepth,
		defaultMaxPages: defaultMaxPages,
		cache:           make(map[string]*SourceConfig),
	}
}

func (sc *SourceConfigCache) Run() error {
	if _, err := os.Stat(sc.sourcesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(sc.sourcesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		sourceName := strings.TrimSuffix(filepath.Base(file), ".yml")

		sourceConfig, err := sc.LoadConfig(sourceName)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Source configuration loaded", "source", sourceName, "enabled", sourceConfig.Settings.Enabled, "crawl_interval", sourceConfig.Settings.CrawlInterval)
	}

	return nil
}

func (sc *SourceConfigCache) LoadConfig(sourceName string) (*SourceConfig, error) {
	configFile := sc.getConfigFilePath(sourceName)
	sourceConfig, err := sc.parseConfig(configFile)
	if err != nil {
		return nil, err
	}

	sourceConfig.Name = sourceName

	if err := sc.validateConfig(sourceConfig); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.cache[sourceConfig.Name] = sourceConfig

	return sourceConfig, nil
}

func (sc *SourceConfigCache) GetConfig(sourceName string) (*SourceConfig, error) {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	sourceConfig, ok := sc.cache[sourceName]
	if !ok {
		return nil, fmt.Errorf("source config with name '%s' not found", sourceName)
	}
	return sourceConfig, nil
}

func (sc *SourceConfigCache) GetConfigs() map[string]*SourceConfig {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	configsCopy := make(map[string]*SourceConfig, len(sc.cache))
	for k, v := range sc.cache {
		configsCopy[k] = v
	}
	return configsCopy
}

func (sc *SourceConfigCache) GetEnabledConfigs() map[string]*SourceConfig {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	enabledConfigs := make(map[string]*SourceConfig)
	for k, v := range sc.cache {
		if v.Settings.Enabled {
			enabledConfigs[k] = v
		}
	}
	return enabledConfigs
}

func (sc *SourceConfigCache) GetConfigCount() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return len(sc.cache)
}

func (sc *SourceConfigCache) parseConfig(configFile string) (*SourceConfig, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var sourceConfig SourceConfig
	if err := yaml.Unmarshal(data, &sourceConfig); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// max_pages caps collected articles; an omitted max_depth means the
	// default, not a seed-only crawl.
	if sourceConfig.Settings.CrawlInterval == 0 {
		sourceConfig.Settings.CrawlInterval = 3600
	}
	if sourceConfig.Settings.MaxDepth == 0 {
		sourceConfig.Settings.MaxDepth = sc.defaultMaxDepth
	}
	if sourceConfig.Settings.MaxPages == 0 {
		sourceConfig.Settings.MaxPages = sc.defaultMaxPages
	}

	return &sourceConfig, nil
}

func (sc *SourceConfigCache) validateConfig(sourceConfig *SourceConfig) error {
	if sourceConfig == nil {
		return fmt.Errorf("sourceConfig is nil")
	}

	if sourceConfig.Name == "" {
		return fmt.Errorf("source name is required")
	}
	if sourceConfig.URL == "" {
		return fmt.Errorf("source URL is required")
	}

	parsed, err := url.Parse(sourceConfig.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("source URL must be an absolute http(s) URL")
	}

	nonNegativeFields := map[string]int{
		"crawl interval": sourceConfig.Settings.CrawlInterval,
		"max depth":      sourceConfig.Settings.MaxDepth,
	}

	for fieldName, fieldValue := range nonNegativeFields {
		if fieldValue < 0 {
			return fmt.Errorf("%s must be non-negative", fieldName)
		}
	}

	if sourceConfig.Settings.MaxPages < 1 {
		return fmt.Errorf("max pages must be positive")
	}
	if sourceConfig.Settings.RateLimitDelay < 0 {
		return fmt.Errorf("rate limit delay must be non-negative")
	}

	return nil
}

func (sc *SourceConfigCache) getConfigFilePath(sourceName string) string {
	return filepath.Join(sc.sourcesDir, sourceName+".yml")
}

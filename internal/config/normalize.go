package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStore()
	c.normalizeConverter()
	c.normalizeExtractor()
	c.normalizePool()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}

	if c.Paths.TrackList == "" {
		if value, ok := os.LookupEnv("MUSICREPLACER_TRACK_LIST"); ok {
			c.Paths.TrackList = value
		}
	}

	derived := []struct {
		field *string
		name  string
		key   string
	}{
		{&c.Paths.OverridesDir, defaultOverridesDirName, "paths.overrides_dir"},
		{&c.Paths.StorePath, defaultStoreFileName, "paths.store_path"},
		{&c.Paths.TrackList, defaultTrackListFileName, "paths.track_list"},
		{&c.Paths.LogDir, defaultLogDirName, "paths.log_dir"},
	}
	for _, entry := range derived {
		value := strings.TrimSpace(*entry.field)
		if value == "" {
			value = filepath.Join(c.Paths.DataDir, entry.name)
		}
		if *entry.field, err = expandPath(value); err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
	}
	return nil
}

func (c *Config) normalizeStore() {
	c.Store.Group = strings.TrimSpace(c.Store.Group)
	if c.Store.Group == "" {
		c.Store.Group = defaultStoreGroup
	}
}

func (c *Config) normalizeConverter() {
	if value, ok := os.LookupEnv("MUSICREPLACER_CONVERTER_ENDPOINT"); ok && strings.TrimSpace(value) != "" {
		c.Converter.Endpoint = value
	}
	c.Converter.Endpoint = strings.TrimSpace(c.Converter.Endpoint)
	if c.Converter.Endpoint == "" {
		c.Converter.Endpoint = defaultConverterEndpoint
	}
	if c.Converter.ReadTimeoutSeconds == 0 {
		c.Converter.ReadTimeoutSeconds = defaultConverterReadTimeout
	}
}

func (c *Config) normalizeExtractor() {
	c.Extractor.Binary = strings.TrimSpace(c.Extractor.Binary)
	if c.Extractor.Binary == "" {
		c.Extractor.Binary = defaultExtractorBinary
	}
	if c.Extractor.SocketTimeoutSeconds == 0 {
		c.Extractor.SocketTimeoutSeconds = defaultExtractorSocketTimeout
	}
	if c.Extractor.SearchLimit == 0 {
		c.Extractor.SearchLimit = defaultExtractorSearchLimit
	}
}

func (c *Config) normalizePool() {
	if c.Pool.Workers == 0 {
		c.Pool.Workers = defaultPoolWorkers
	}
	if c.Pool.QueueSize == 0 {
		c.Pool.QueueSize = defaultPoolQueueSize
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if value, ok := os.LookupEnv("MUSICREPLACER_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.API.Token = value
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

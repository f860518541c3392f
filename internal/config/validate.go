package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateConverter(); err != nil {
		return err
	}
	if err := c.validateExtractor(); err != nil {
		return err
	}
	if err := c.validatePool(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if c.Store.Group == "" {
		return errors.New("store.group must be set")
	}
	return nil
}

func (c *Config) validateConverter() error {
	parsed, err := url.Parse(c.Converter.Endpoint)
	if err != nil {
		return fmt.Errorf("converter.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("converter.endpoint must be an http(s) URL, got %q", c.Converter.Endpoint)
	}
	if parsed.Host == "" {
		return fmt.Errorf("converter.endpoint is missing a host: %q", c.Converter.Endpoint)
	}
	if c.Converter.ReadTimeoutSeconds <= 0 {
		return errors.New("converter.read_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateExtractor() error {
	if c.Extractor.Binary == "" {
		return errors.New("extractor.binary must be set")
	}
	if c.Extractor.SocketTimeoutSeconds <= 0 {
		return errors.New("extractor.socket_timeout_seconds must be positive")
	}
	if c.Extractor.SearchLimit <= 0 {
		return errors.New("extractor.search_limit must be positive")
	}
	return nil
}

func (c *Config) validatePool() error {
	if c.Pool.Workers <= 0 {
		return errors.New("pool.workers must be positive")
	}
	if c.Pool.QueueSize <= 0 {
		return errors.New("pool.queue_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

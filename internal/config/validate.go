package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if c.Extraction.RangeMaxDurationSeconds > c.Extraction.MaxEditDurationSeconds {
		return fmt.Errorf(
			"extraction.range_max_duration_seconds (%d) must not exceed extraction.max_edit_duration_seconds (%d)",
			c.Extraction.RangeMaxDurationSeconds, c.Extraction.MaxEditDurationSeconds)
	}
	return nil
}

func (c *Config) validateRender() error {
	if c.Render.CanvasWidth%2 != 0 || c.Render.CanvasHeight%2 != 0 {
		return errors.New("render.canvas dimensions must be even for the encoder")
	}
	for creator, color := range c.Render.CreatorColors {
		if !strings.HasPrefix(color, "#") || (len(color) != 7 && len(color) != 4) {
			return fmt.Errorf("render.creator_colors[%q]: %q is not a hex color", creator, color)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	if _, err := url.Parse(c.Storage.BaseURL); err != nil {
		return fmt.Errorf("storage.base_url: %w", err)
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

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateWorker(); err != nil {
		return err
	}
	if err := c.validateAssembly(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateRemote() error {
	if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		return fmt.Errorf("remote.base_url must be an http(s) URL, got %q", c.Remote.BaseURL)
	}
	if c.Remote.RequestTimeout > 600 {
		return errors.New("remote.request_timeout must be 600 seconds or less")
	}
	return nil
}

func (c *Config) validateWorker() error {
	if c.Worker.PollInterval > 3600 {
		return errors.New("worker.poll_interval must be 3600 seconds or less")
	}
	if c.Worker.MaxPolls > 100000 {
		return errors.New("worker.max_polls is unreasonably large")
	}
	return nil
}

func (c *Config) validateAssembly() error {
	if c.Assembly.MaxWidth < 0 || c.Assembly.MaxHeight < 0 {
		return errors.New("assembly.max_width and assembly.max_height must not be negative")
	}
	if (c.Assembly.MaxWidth == 0) != (c.Assembly.MaxHeight == 0) {
		return errors.New("assembly.max_width and assembly.max_height must be set together")
	}
	if c.Assembly.CRF > 51 {
		return errors.New("assembly.crf must be 51 or less")
	}
	if c.Assembly.BurnSubtitles && strings.TrimSpace(c.Assembly.FontFile) == "" {
		return errors.New("assembly.font_file must be set when assembly.burn_subtitles is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

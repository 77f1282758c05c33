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
	if err := c.normalizeRemote(); err != nil {
		return err
	}
	c.normalizeWorker()
	c.normalizeAssembly()
	c.normalizeTools()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeTools() {
	if c.Tools.FFmpeg != "" {
		if expanded, err := expandPath(c.Tools.FFmpeg); err == nil {
			c.Tools.FFmpeg = expanded
		}
	}
	if c.Tools.FFprobe != "" {
		if expanded, err := expandPath(c.Tools.FFprobe); err == nil {
			c.Tools.FFprobe = expanded
		}
	}
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.Workdir) == "" {
		c.Paths.Workdir = defaultWorkdir
	}
	if c.Paths.Workdir, err = expandPath(c.Paths.Workdir); err != nil {
		return fmt.Errorf("paths.workdir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.TaskTable) == "" {
		c.Paths.TaskTable = filepath.Join(c.Paths.Workdir, "db", defaultTaskTableName)
	}
	if c.Paths.TaskTable, err = expandPath(c.Paths.TaskTable); err != nil {
		return fmt.Errorf("paths.task_table: %w", err)
	}
	return nil
}

func (c *Config) normalizeRemote() error {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	if strings.TrimSpace(c.Remote.APIToken) == "" {
		c.Remote.APIToken = strings.TrimSpace(os.Getenv("VIDEOGEN_API_TOKEN"))
	}
	if strings.TrimSpace(c.Remote.Model) == "" {
		c.Remote.Model = defaultRemoteModel
	}
	if strings.TrimSpace(c.Remote.ImageSize) == "" {
		c.Remote.ImageSize = defaultImageSize
	}
	if c.Remote.RequestTimeout <= 0 {
		c.Remote.RequestTimeout = defaultRequestTimeout
	}
	if c.Remote.SubmitRetries <= 0 {
		c.Remote.SubmitRetries = defaultSubmitRetries
	}
	return nil
}

func (c *Config) normalizeWorker() {
	if c.Worker.PollInterval <= 0 {
		c.Worker.PollInterval = defaultPollInterval
	}
	if c.Worker.MaxPolls <= 0 {
		c.Worker.MaxPolls = defaultMaxPolls
	}
	if c.Worker.IdleRounds <= 0 {
		c.Worker.IdleRounds = defaultIdleRounds
	}
	if c.Worker.WaitTimeout <= 0 {
		c.Worker.WaitTimeout = defaultWaitTimeout
	}
}

func (c *Config) normalizeAssembly() {
	if c.Assembly.Preset == "" {
		c.Assembly.Preset = defaultPreset
	}
	if c.Assembly.CRF <= 0 {
		c.Assembly.CRF = defaultCRF
	}
	if c.Assembly.PixelFormat == "" {
		c.Assembly.PixelFormat = defaultPixelFormat
	}
	if c.Assembly.AudioRate <= 0 {
		c.Assembly.AudioRate = defaultAudioRate
	}
	if c.Assembly.AudioBitrate == "" {
		c.Assembly.AudioBitrate = defaultAudioBitrate
	}
	if c.Assembly.FontFile != "" {
		if expanded, err := expandPath(c.Assembly.FontFile); err == nil {
			c.Assembly.FontFile = expanded
		}
	}
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

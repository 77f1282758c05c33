package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	Workdir   string `toml:"workdir"`
	LogDir    string `toml:"log_dir"`
	TaskTable string `toml:"task_table"`
}

// Remote contains connection settings for the asynchronous generation API.
type Remote struct {
	BaseURL        string `toml:"base_url"`
	APIToken       string `toml:"api_token"`
	Model          string `toml:"model"`
	ImageSize      string `toml:"image_size"`
	RequestTimeout int    `toml:"request_timeout"`
	SubmitRetries  int    `toml:"submit_retries"`
}

// Worker contains polling loop timing and bounds.
type Worker struct {
	PollInterval int `toml:"poll_interval"`
	MaxPolls     int `toml:"max_polls"`
	IdleRounds   int `toml:"idle_rounds"`
	WaitTimeout  int `toml:"wait_timeout"`
}

// Assembly contains normalization and concatenation settings.
type Assembly struct {
	MaxWidth      int    `toml:"max_width"`
	MaxHeight     int    `toml:"max_height"`
	Preset        string `toml:"preset"`
	CRF           int    `toml:"crf"`
	PixelFormat   string `toml:"pixel_format"`
	AudioRate     int    `toml:"audio_rate"`
	AudioBitrate  string `toml:"audio_bitrate"`
	BurnSubtitles bool   `toml:"burn_subtitles"`
	FontFile      string `toml:"font_file"`
}

// Tools contains overrides for external binary locations. Empty values
// resolve through PATH.
type Tools struct {
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for videogen.
type Config struct {
	Paths         Paths         `toml:"paths"`
	Remote        Remote        `toml:"remote"`
	Worker        Worker        `toml:"worker"`
	Assembly      Assembly      `toml:"assembly"`
	Tools         Tools         `toml:"tools"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/videogen/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("videogen.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a pipeline run.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.Workdir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if table := strings.TrimSpace(c.Paths.TaskTable); table != "" {
		if err := os.MkdirAll(filepath.Dir(table), 0o755); err != nil {
			return fmt.Errorf("create task table directory: %w", err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable to invoke.
func (c *Config) FFmpegBinary() string {
	if binary := strings.TrimSpace(c.Tools.FFmpeg); binary != "" {
		return binary
	}
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable to invoke.
func (c *Config) FFprobeBinary() string {
	if binary := strings.TrimSpace(c.Tools.FFprobe); binary != "" {
		return binary
	}
	return "ffprobe"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

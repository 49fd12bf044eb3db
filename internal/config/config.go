package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	StorageDir string `toml:"storage_dir"`
	APIBind    string `toml:"api_bind"`
}

// Extraction contains thresholds for the segment extraction strategies.
type Extraction struct {
	// RangeMinSizeBytes is the source size above which range extraction is
	// considered. Smaller files are always downloaded in full.
	RangeMinSizeBytes int64 `toml:"range_min_size_bytes"`
	// RangeMaxDurationSeconds caps the requested window for range extraction.
	RangeMaxDurationSeconds int `toml:"range_max_duration_seconds"`
	// RangeMinOffsetSeconds is the minimum start offset for range extraction.
	// Seeking near the very start of a large remote file gains nothing from
	// range requests and risks seek instability.
	RangeMinOffsetSeconds int `toml:"range_min_offset_seconds"`
	// DownloadTimeoutSeconds bounds a full-source download.
	DownloadTimeoutSeconds int `toml:"download_timeout_seconds"`
	// ProbeTimeoutSeconds bounds metadata probes used for fast-fail validation.
	ProbeTimeoutSeconds int `toml:"probe_timeout_seconds"`
	// MaxEditDurationSeconds caps the requested edit window.
	MaxEditDurationSeconds int `toml:"max_edit_duration_seconds"`
	// TrustedDomains lists host suffixes edit sources may come from.
	TrustedDomains []string `toml:"trusted_domains"`
	// MinDiskHeadroomBytes refuses full downloads when the staging filesystem
	// has less free space than this.
	MinDiskHeadroomBytes int64 `toml:"min_disk_headroom_bytes"`
}

// Render contains frame synthesis settings.
type Render struct {
	MaxConcurrentFrames     int    `toml:"max_concurrent_frames"`
	FrameRate               int    `toml:"frame_rate"`
	CanvasWidth             int    `toml:"canvas_width"`
	CanvasHeight            int    `toml:"canvas_height"`
	TranscodeTimeoutSeconds int    `toml:"transcode_timeout_seconds"`
	WatermarkPath           string `toml:"watermark_path"`
	// CreatorColors overrides automatic palette extraction per creator name,
	// as a hex color (e.g. "#1db954").
	CreatorColors map[string]string `toml:"creator_colors"`
}

// Resources contains the process resource policy.
type Resources struct {
	MemoryCeilingBytes    int64 `toml:"memory_ceiling_bytes"`
	SweepIntervalSeconds  int   `toml:"sweep_interval_seconds"`
	TempFileMaxAgeSeconds int   `toml:"temp_file_max_age_seconds"`
}

// Cache contains derived-asset cache settings.
type Cache struct {
	TTLSeconds  int  `toml:"ttl_seconds"`
	BlockOnMiss bool `toml:"block_on_miss"`
}

// Storage contains object storage settings.
type Storage struct {
	BaseURL     string `toml:"base_url"`
	ClipsBucket string `toml:"clips_bucket"`
	EditsBucket string `toml:"edits_bucket"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for clipforge.
//
// Configuration sections by subsystem:
//   - Paths: staging/log/storage directories and API bind address
//   - Extraction: strategy thresholds, timeouts, trusted source domains
//   - Render: frame synthesis concurrency, canvas, presets
//   - Resources: memory ceiling and temp-file sweep policy
//   - Cache: derived-asset cache TTL and miss behavior
//   - Storage: object store location and public URL base
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Extraction Extraction `toml:"extraction"`
	Render     Render     `toml:"render"`
	Resources  Resources  `toml:"resources"`
	Cache      Cache      `toml:"cache"`
	Storage    Storage    `toml:"storage"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. A .env file in the
// working directory and CLIPFORGE_* variables override file values.
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

	_ = godotenv.Load()
	cfg.applyEnvOverrides()

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

	projectPath, err := filepath.Abs("clipforge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the embedded sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	}
	return os.WriteFile(expanded, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir, c.Paths.StorageDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable name used for extraction and
// muxing.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media validation.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// TranscodeTimeout bounds any single ffmpeg invocation so a hung transcode
// cannot park a background job forever.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.Render.TranscodeTimeoutSeconds) * time.Second
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
			return home, nil
		}
		if strings.HasPrefix(pathValue, "~/") {
			return filepath.Join(home, pathValue[2:]), nil
		}
		return "", fmt.Errorf("unsupported home expansion in %q", pathValue)
	}
	return filepath.Abs(pathValue)
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeRender()
	c.normalizeResources()
	c.normalizeCache()
	c.normalizeStorage()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.StorageDir, err = expandPath(c.Paths.StorageDir); err != nil {
		return fmt.Errorf("paths.storage_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeExtraction() {
	if c.Extraction.RangeMinSizeBytes <= 0 {
		c.Extraction.RangeMinSizeBytes = defaultRangeMinSizeBytes
	}
	if c.Extraction.RangeMaxDurationSeconds <= 0 {
		c.Extraction.RangeMaxDurationSeconds = defaultRangeMaxDurationSeconds
	}
	if c.Extraction.RangeMinOffsetSeconds <= 0 {
		c.Extraction.RangeMinOffsetSeconds = defaultRangeMinOffsetSeconds
	}
	if c.Extraction.DownloadTimeoutSeconds <= 0 {
		c.Extraction.DownloadTimeoutSeconds = defaultDownloadTimeoutSeconds
	}
	if c.Extraction.ProbeTimeoutSeconds <= 0 {
		c.Extraction.ProbeTimeoutSeconds = defaultProbeTimeoutSeconds
	}
	if c.Extraction.MaxEditDurationSeconds <= 0 {
		c.Extraction.MaxEditDurationSeconds = defaultMaxEditDurationSeconds
	}
	if c.Extraction.MinDiskHeadroomBytes <= 0 {
		c.Extraction.MinDiskHeadroomBytes = defaultMinDiskHeadroomBytes
	}
	trimmed := make([]string, 0, len(c.Extraction.TrustedDomains))
	for _, domain := range c.Extraction.TrustedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain != "" {
			trimmed = append(trimmed, domain)
		}
	}
	c.Extraction.TrustedDomains = trimmed
}

func (c *Config) normalizeRender() {
	if c.Render.MaxConcurrentFrames <= 0 {
		c.Render.MaxConcurrentFrames = defaultMaxConcurrentFrames
	}
	if c.Render.FrameRate <= 0 {
		c.Render.FrameRate = defaultFrameRate
	}
	if c.Render.CanvasWidth <= 0 {
		c.Render.CanvasWidth = defaultCanvasWidth
	}
	if c.Render.CanvasHeight <= 0 {
		c.Render.CanvasHeight = defaultCanvasHeight
	}
	if c.Render.TranscodeTimeoutSeconds <= 0 {
		c.Render.TranscodeTimeoutSeconds = defaultTranscodeTimeoutSeconds
	}
}

func (c *Config) normalizeResources() {
	if c.Resources.MemoryCeilingBytes <= 0 {
		c.Resources.MemoryCeilingBytes = defaultMemoryCeilingBytes
	}
	if c.Resources.SweepIntervalSeconds <= 0 {
		c.Resources.SweepIntervalSeconds = defaultSweepIntervalSeconds
	}
	if c.Resources.TempFileMaxAgeSeconds <= 0 {
		c.Resources.TempFileMaxAgeSeconds = defaultTempFileMaxAgeSeconds
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = defaultCacheTTLSeconds
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = defaultStorageBaseURL
	}
	if strings.TrimSpace(c.Storage.ClipsBucket) == "" {
		c.Storage.ClipsBucket = defaultClipsBucket
	}
	if strings.TrimSpace(c.Storage.EditsBucket) == "" {
		c.Storage.EditsBucket = defaultEditsBucket
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

// applyEnvOverrides maps CLIPFORGE_* environment variables onto config
// fields. File values lose to the environment so containerized deploys can
// tune thresholds without editing the TOML.
func (c *Config) applyEnvOverrides() {
	if v, ok := os.LookupEnv("CLIPFORGE_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv("CLIPFORGE_LOG_FORMAT"); ok {
		c.Logging.Format = v
	}
	if v, ok := os.LookupEnv("CLIPFORGE_API_BIND"); ok {
		c.Paths.APIBind = v
	}
	if v, ok := os.LookupEnv("CLIPFORGE_STAGING_DIR"); ok {
		c.Paths.StagingDir = v
	}
	if v, ok := os.LookupEnv("CLIPFORGE_STORAGE_DIR"); ok {
		c.Paths.StorageDir = v
	}
	if v, ok := os.LookupEnv("CLIPFORGE_TRUSTED_DOMAINS"); ok {
		c.Extraction.TrustedDomains = strings.Split(v, ",")
	}
	if v, ok := lookupInt64("CLIPFORGE_MEMORY_CEILING_BYTES"); ok {
		c.Resources.MemoryCeilingBytes = v
	}
	if v, ok := lookupInt("CLIPFORGE_MAX_CONCURRENT_FRAMES"); ok {
		c.Render.MaxConcurrentFrames = v
	}
	if v, ok := lookupInt("CLIPFORGE_MAX_EDIT_DURATION_SECONDS"); ok {
		c.Extraction.MaxEditDurationSeconds = v
	}
	if v, ok := lookupInt("CLIPFORGE_CACHE_TTL_SECONDS"); ok {
		c.Cache.TTLSeconds = v
	}
}

func lookupInt(name string) (int, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return value, true
}

func lookupInt64(name string) (int64, bool) {
	raw, ok := os.LookupEnv(name)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

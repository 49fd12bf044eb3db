package config

const (
	defaultStagingDir = "~/.local/share/clipforge/staging"
	defaultLogDir     = "~/.local/share/clipforge/logs"
	defaultStorageDir = "~/.local/share/clipforge/storage"
	defaultAPIBind    = "127.0.0.1:7718"

	defaultRangeMinSizeBytes       = int64(100) << 20 // 100 MiB
	defaultRangeMaxDurationSeconds = 300
	defaultRangeMinOffsetSeconds   = 30
	defaultDownloadTimeoutSeconds  = 600
	defaultProbeTimeoutSeconds     = 10
	defaultMaxEditDurationSeconds  = 600
	defaultMinDiskHeadroomBytes    = int64(2) << 30 // 2 GiB

	defaultMaxConcurrentFrames     = 8
	defaultFrameRate               = 24
	defaultCanvasWidth             = 1280
	defaultCanvasHeight            = 720
	defaultTranscodeTimeoutSeconds = 600

	defaultMemoryCeilingBytes    = int64(2) << 30 // 2 GiB
	defaultSweepIntervalSeconds  = 300
	defaultTempFileMaxAgeSeconds = 3600

	defaultCacheTTLSeconds = 86400

	defaultStorageBaseURL = "http://127.0.0.1:7718/assets"
	defaultClipsBucket    = "clips"
	defaultEditsBucket    = "edits"

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			StorageDir: defaultStorageDir,
			APIBind:    defaultAPIBind,
		},
		Extraction: Extraction{
			RangeMinSizeBytes:       defaultRangeMinSizeBytes,
			RangeMaxDurationSeconds: defaultRangeMaxDurationSeconds,
			RangeMinOffsetSeconds:   defaultRangeMinOffsetSeconds,
			DownloadTimeoutSeconds:  defaultDownloadTimeoutSeconds,
			ProbeTimeoutSeconds:     defaultProbeTimeoutSeconds,
			MaxEditDurationSeconds:  defaultMaxEditDurationSeconds,
			TrustedDomains:          nil,
			MinDiskHeadroomBytes:    defaultMinDiskHeadroomBytes,
		},
		Render: Render{
			MaxConcurrentFrames:     defaultMaxConcurrentFrames,
			FrameRate:               defaultFrameRate,
			CanvasWidth:             defaultCanvasWidth,
			CanvasHeight:            defaultCanvasHeight,
			TranscodeTimeoutSeconds: defaultTranscodeTimeoutSeconds,
		},
		Resources: Resources{
			MemoryCeilingBytes:    defaultMemoryCeilingBytes,
			SweepIntervalSeconds:  defaultSweepIntervalSeconds,
			TempFileMaxAgeSeconds: defaultTempFileMaxAgeSeconds,
		},
		Cache: Cache{
			TTLSeconds:  defaultCacheTTLSeconds,
			BlockOnMiss: true,
		},
		Storage: Storage{
			BaseURL:     defaultStorageBaseURL,
			ClipsBucket: defaultClipsBucket,
			EditsBucket: defaultEditsBucket,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

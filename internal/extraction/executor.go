package extraction

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/media/ffprobe"
	"clipforge/internal/resourceguard"
	"clipforge/internal/services"
)

// downloadChunkBytes is the granularity at which memory pressure is
// re-checked while streaming a source to disk.
const downloadChunkBytes = 1 << 20

// Request describes one segment to cut from a source asset. Fingerprint
// identifies the owning job so staged files are attributed to it.
type Request struct {
	Fingerprint    string
	SourceLocation string
	StartTime      int64
	EndTime        int64
}

// segmentCutter is the slice of the ffmpeg runner the executor drives.
type segmentCutter interface {
	ExtractSegment(ctx context.Context, input string, startSec, endSec int64, output string) error
}

// Executor runs extraction strategies in order with a hard stop after the
// last one.
type Executor struct {
	cfg    *config.Config
	guard  *resourceguard.Guard
	ffmpeg segmentCutter
	logger *slog.Logger
	client *http.Client

	probe func(ctx context.Context, binary, location string) (ffprobe.Result, error)
}

// NewExecutor wires an Executor against the shared guard and ffmpeg runner.
func NewExecutor(cfg *config.Config, guard *resourceguard.Guard, runner *ffmpeg.Runner, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Executor{
		cfg:    cfg,
		guard:  guard,
		ffmpeg: runner,
		logger: logger,
		client: &http.Client{},
		probe:  ffprobe.Inspect,
	}
}

// Extract materializes the requested window as a local file and reports the
// strategy that produced it. The output is registered with the resource
// guard; the caller releases it after upload.
func (e *Executor) Extract(ctx context.Context, req Request, sourceSizeBytes int64) (string, Strategy, error) {
	strategies := Select(e.cfg, sourceSizeBytes, req.StartTime, req.EndTime)

	var lastErr error
	for i, strategy := range strategies {
		output, err := e.runStrategy(ctx, strategy, req)
		if err == nil {
			return output, strategy, nil
		}
		lastErr = err
		if services.IsResource(err) {
			// Memory pressure will not clear by switching strategy.
			break
		}
		if i < len(strategies)-1 {
			e.logger.Warn("extraction strategy failed, falling back",
				logging.String(logging.FieldStrategy, string(strategy)),
				logging.Error(err))
		}
	}
	return "", "", lastErr
}

func (e *Executor) runStrategy(ctx context.Context, strategy Strategy, req Request) (string, error) {
	switch strategy {
	case StrategyRange:
		return e.extractRange(ctx, req)
	case StrategyFullDownload:
		return e.extractFullDownload(ctx, req)
	default:
		return "", services.Wrap(services.ErrValidation, "extraction", "run", fmt.Sprintf("unknown strategy %q", strategy), nil)
	}
}

// extractRange lets ffmpeg seek into the remote source directly.
func (e *Executor) extractRange(ctx context.Context, req Request) (string, error) {
	output := e.stagePath("segment.mp4")
	e.guard.RegisterTempFile(req.Fingerprint, output)
	cutCtx, cancel := context.WithTimeout(ctx, e.cfg.TranscodeTimeout())
	defer cancel()
	if err := e.ffmpeg.ExtractSegment(cutCtx, req.SourceLocation, req.StartTime, req.EndTime, output); err != nil {
		e.guard.ReleaseTempFile(output)
		return "", err
	}
	return output, nil
}

// extractFullDownload streams the whole source to staging, validates the
// window against the probed duration, and cuts the segment locally. The
// local source copy is removed whether the cut succeeds or fails.
func (e *Executor) extractFullDownload(ctx context.Context, req Request) (string, error) {
	if err := e.guard.AdmitFullDownload(); err != nil {
		return "", err
	}

	sourceCopy := e.stagePath("source.media")
	e.guard.RegisterTempFile(req.Fingerprint, sourceCopy)
	defer e.guard.ReleaseTempFile(sourceCopy)

	if err := e.download(ctx, req.SourceLocation, sourceCopy); err != nil {
		return "", err
	}

	probed, err := e.probe(ctx, e.cfg.FFprobeBinary(), sourceCopy)
	if err != nil {
		return "", err
	}
	actual := probed.DurationSeconds()
	if actual > 0 && float64(req.EndTime) > actual {
		return "", services.Wrap(services.ErrValidation, "extraction", "full_download",
			fmt.Sprintf("requested end %ds exceeds source duration %.1fs", req.EndTime, actual), nil)
	}

	output := e.stagePath("segment.mp4")
	e.guard.RegisterTempFile(req.Fingerprint, output)
	cutCtx, cancel := context.WithTimeout(ctx, e.cfg.TranscodeTimeout())
	defer cancel()
	if err := e.ffmpeg.ExtractSegment(cutCtx, sourceCopy, req.StartTime, req.EndTime, output); err != nil {
		e.guard.ReleaseTempFile(output)
		return "", err
	}
	return output, nil
}

func (e *Executor) download(ctx context.Context, location, destination string) error {
	timeout := time.Duration(e.cfg.Extraction.DownloadTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "extraction", "download", "build request", err)
	}
	response, err := e.client.Do(request)
	if err != nil {
		return services.Wrap(services.ErrTransient, "extraction", "download", "fetch source", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return services.Wrap(services.ErrTransient, "extraction", "download",
			fmt.Sprintf("source returned status %d", response.StatusCode), nil)
	}

	file, err := os.Create(destination)
	if err != nil {
		return services.Wrap(services.ErrTransient, "extraction", "download", "create staging file", err)
	}
	defer file.Close()

	// Copy chunk by chunk so a memory ceiling breach aborts the transfer
	// instead of finishing a download the process cannot afford.
	for {
		if err := e.guard.CheckMemory(); err != nil {
			return err
		}
		_, err := io.CopyN(file, response.Body, downloadChunkBytes)
		if err == io.EOF {
			break
		}
		if err != nil {
			return services.Wrap(services.ErrTransient, "extraction", "download", "stream source", err)
		}
	}
	if err := file.Sync(); err != nil {
		return services.Wrap(services.ErrTransient, "extraction", "download", "flush staging file", err)
	}
	return nil
}

func (e *Executor) stagePath(suffix string) string {
	return filepath.Join(e.cfg.Paths.StagingDir, uuid.NewString()+"-"+suffix)
}

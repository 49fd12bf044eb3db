package clipsynth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clipforge/internal/config"
	"clipforge/internal/fingerprint"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffmpeg"
	"clipforge/internal/render"
	"clipforge/internal/resourceguard"
	"clipforge/internal/services"
	"clipforge/internal/storage"
	"clipforge/internal/subtitles"
)

// Request describes one clip to synthesize from an episode's audio.
type Request struct {
	FeedID      int64
	EpisodeGUID string
	AudioSource string
	StartTime   float64
	EndTime     float64

	// ShareToken, when set, replaces the time window as the fingerprinted
	// identity of the clip.
	ShareToken string

	Creator          string
	EpisodeTitle     string
	ProfileImagePath string
	Cues             []subtitles.Subtitle
}

// Response is the synchronous answer to a synthesize call. Completed jobs
// carry their result; everything else is identified by fingerprint for
// polling.
type Response struct {
	Status      jobstore.Status
	Fingerprint string
	Result      *jobstore.Result
	Error       string
}

// Orchestrator ties the hasher, job store, resource guard, subtitle
// adjuster and frame engine together.
type Orchestrator struct {
	cfg     *config.Config
	store   *jobstore.Store
	guard   *resourceguard.Guard
	engine  *render.Engine
	ffmpeg  *ffmpeg.Runner
	objects storage.Client
	logger  *slog.Logger

	// dispatch schedules the background attempt; replaced in tests.
	dispatch func(fp string, req Request, startSec, endSec int64)
}

// New wires a clip synthesis orchestrator.
func New(cfg *config.Config, store *jobstore.Store, guard *resourceguard.Guard, engine *render.Engine, runner *ffmpeg.Runner, objects storage.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:     cfg,
		store:   store,
		guard:   guard,
		engine:  engine,
		ffmpeg:  runner,
		objects: objects,
		logger:  logging.NewComponentLogger(logger, "clipsynth"),
	}
	o.dispatch = func(fp string, req Request, startSec, endSec int64) {
		go o.run(fp, req, startSec, endSec)
	}
	return o
}

// Synthesize deduplicates the request against the job store and schedules
// at most one background attempt per fingerprint. Callers poll by the
// returned fingerprint.
func (o *Orchestrator) Synthesize(ctx context.Context, req Request) (Response, error) {
	startSec := fingerprint.RoundSeconds(req.StartTime)
	endSec := fingerprint.RoundSeconds(req.EndTime)
	if startSec < 0 || endSec <= startSec {
		return Response{}, services.Wrap(services.ErrValidation, "clipsynth", "synthesize",
			fmt.Sprintf("invalid time window %v..%v", req.StartTime, req.EndTime), nil)
	}

	window := req.ShareToken
	if window == "" {
		window = fingerprint.Window(req.StartTime, req.EndTime)
	}
	fp := fingerprint.Clip(req.FeedID, req.EpisodeGUID, window)

	if existing, err := o.store.GetByFingerprint(ctx, fp); err != nil {
		return Response{}, err
	} else if existing != nil {
		return responseFor(existing), nil
	}

	_, created, err := o.store.CreateIfAbsent(ctx, fp, jobstore.KindClipSynthesis)
	if err != nil {
		return Response{}, err
	}
	if created {
		o.dispatch(fp, req, startSec, endSec)
	}
	return Response{Status: jobstore.StatusProcessing, Fingerprint: fp}, nil
}

// Status reports the current state of a fingerprint for polling callers.
func (o *Orchestrator) Status(ctx context.Context, fp string) (Response, error) {
	item, err := o.store.GetByFingerprint(ctx, fp)
	if err != nil {
		return Response{}, err
	}
	if item == nil {
		return Response{Fingerprint: fp}, services.Wrap(services.ErrNotFound, "clipsynth", "status", "unknown fingerprint", nil)
	}
	return responseFor(item), nil
}

func responseFor(item *jobstore.WorkItem) Response {
	resp := Response{
		Status:      item.Status,
		Fingerprint: item.Fingerprint,
		Error:       item.ErrorMessage,
	}
	if item.Status == jobstore.StatusCompleted && !item.Result.Empty() {
		result := item.Result
		resp.Result = &result
	}
	if item.InFlight() {
		resp.Status = jobstore.StatusProcessing
	}
	return resp
}

// run is the single background attempt for a fingerprint. Whatever happens,
// the work item reaches a terminal state: failures are recorded rather than
// leaving the record parked in processing.
func (o *Orchestrator) run(fp string, req Request, startSec, endSec int64) {
	ctx := services.WithFingerprint(context.Background(), fp)
	logger := o.logger.With(logging.String(logging.FieldFingerprint, fp))

	err := o.attempt(ctx, fp, req, startSec, endSec)
	if err == nil {
		logger.Info("clip synthesis completed")
		return
	}
	logger.Error("clip synthesis failed", logging.Error(err))
	if markErr := o.store.MarkFailed(ctx, fp, err.Error()); markErr != nil {
		logger.Error("failed to record terminal state", logging.Error(markErr))
	}
}

func (o *Orchestrator) attempt(ctx context.Context, fp string, req Request, startSec, endSec int64) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("clip synthesis panic: %v", recovered)
		}
	}()

	if err := o.guard.RegisterJob(fp, req.AudioSource); err != nil {
		return err
	}
	defer o.guard.UnregisterJob(fp)

	if err := o.store.MarkProcessing(ctx, fp); err != nil {
		return err
	}

	duration := endSec - startSec
	audioPath := filepath.Join(o.cfg.Paths.StagingDir, uuid.NewString()+"-audio.m4a")
	o.guard.RegisterTempFile(fp, audioPath)
	defer o.guard.ReleaseTempFile(audioPath)

	extractCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.Extraction.DownloadTimeoutSeconds)*time.Second)
	defer cancel()
	if err := o.ffmpeg.ExtractAudioWindow(extractCtx, req.AudioSource, startSec, duration, audioPath); err != nil {
		return err
	}

	cues := subtitles.AdjustToClip(req.Cues, float64(startSec), float64(duration))

	outputs, err := o.engine.Synthesize(ctx, render.Job{
		Fingerprint:     fp,
		AudioPath:       audioPath,
		DurationSeconds: float64(duration),
		Title:           req.Creator,
		Subtitle:        req.EpisodeTitle,
		Creator:         req.Creator,
		ProfilePath:     req.ProfileImagePath,
		Cues:            cues,
	})
	if err != nil {
		return err
	}
	defer o.guard.ReleaseTempFile(outputs.VideoPath)
	defer o.guard.ReleaseTempFile(outputs.PreviewPath)

	clipKey := storage.ClipKey(req.FeedID, req.EpisodeGUID, fp)
	clipURL, err := o.upload(ctx, o.cfg.Storage.ClipsBucket, clipKey, outputs.VideoPath, "video/mp4")
	if err != nil {
		return err
	}
	previewURL, err := o.upload(ctx, o.cfg.Storage.ClipsBucket, storage.PreviewKey(req.FeedID, req.EpisodeGUID, fp), outputs.PreviewPath, "image/png")
	if err != nil {
		return err
	}

	result := jobstore.Result{
		Kind: jobstore.KindClipSynthesis,
		Clip: &jobstore.ClipResult{
			FeedID:      req.FeedID,
			EpisodeGUID: req.EpisodeGUID,
			ClipURL:     clipURL,
			PreviewURL:  previewURL,
		},
	}
	return o.store.MarkCompleted(ctx, fp, clipKey, result)
}

func (o *Orchestrator) upload(ctx context.Context, bucket, key, path, contentType string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrResource, "clipsynth", "upload", "open artifact", err)
	}
	defer file.Close()
	return o.objects.Put(ctx, bucket, key, file, contentType)
}

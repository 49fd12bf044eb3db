package editor

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"clipforge/internal/config"
	"clipforge/internal/derivedcache"
	"clipforge/internal/extraction"
	"clipforge/internal/fingerprint"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/media/ffprobe"
	"clipforge/internal/resourceguard"
	"clipforge/internal/services"
	"clipforge/internal/storage"
)

// Request describes one segment to cut from an existing source asset.
type Request struct {
	SourceLocation string
	StartTime      float64
	EndTime        float64
	UseSubtitles   bool
}

// Response mirrors the clip-synthesis answer shape: completed jobs carry
// their result, everything else is identified by fingerprint.
type Response struct {
	Status      jobstore.Status
	Fingerprint string
	Result      *jobstore.Result
	Error       string
}

// Orchestrator validates edit requests synchronously and runs the
// extraction pipeline as a single background attempt per fingerprint.
type Orchestrator struct {
	cfg      *config.Config
	store    *jobstore.Store
	guard    *resourceguard.Guard
	executor *extraction.Executor
	objects  storage.Client
	cache    *derivedcache.Cache
	logger   *slog.Logger

	probe func(ctx context.Context, location string) (ffprobe.Result, error)

	// dispatch schedules the background attempt; replaced in tests.
	dispatch func(fp, parentKey string, req Request, startSec, endSec int64)
}

// New wires an edit orchestrator.
func New(cfg *config.Config, store *jobstore.Store, guard *resourceguard.Guard, executor *extraction.Executor, objects storage.Client, cache *derivedcache.Cache, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	o := &Orchestrator{
		cfg:      cfg,
		store:    store,
		guard:    guard,
		executor: executor,
		objects:  objects,
		cache:    cache,
		logger:   logging.NewComponentLogger(logger, "editor"),
	}
	o.probe = func(ctx context.Context, location string) (ffprobe.Result, error) {
		return ffprobe.Inspect(ctx, cfg.FFprobeBinary(), location)
	}
	o.dispatch = func(fp, parentKey string, req Request, startSec, endSec int64) {
		go o.run(fp, parentKey, req, startSec, endSec)
	}
	return o
}

// Edit validates the request, deduplicates it by fingerprint, and schedules
// at most one background attempt. All validation happens before any job
// record exists, so bad input never leaves a trace in the store.
func (o *Orchestrator) Edit(ctx context.Context, req Request) (Response, error) {
	startSec := fingerprint.RoundSeconds(req.StartTime)
	endSec := fingerprint.RoundSeconds(req.EndTime)
	if err := o.validate(ctx, req, startSec, endSec); err != nil {
		return Response{}, err
	}

	parentKey, err := storage.ParentKey(req.SourceLocation)
	if err != nil {
		return Response{}, services.Wrap(services.ErrValidation, "editor", "edit", "derive parent key", err)
	}

	fp := fingerprint.Edit(req.SourceLocation, req.StartTime, req.EndTime, req.UseSubtitles)

	if existing, err := o.store.GetByFingerprint(ctx, fp); err != nil {
		return Response{}, err
	} else if existing != nil {
		return responseFor(existing), nil
	}

	_, created, err := o.store.CreateIfAbsent(ctx, fp, jobstore.KindVideoEdit)
	if err != nil {
		return Response{}, err
	}
	if created {
		o.dispatch(fp, parentKey, req, startSec, endSec)
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
		return Response{Fingerprint: fp}, services.Wrap(services.ErrNotFound, "editor", "status", "unknown fingerprint", nil)
	}
	return responseFor(item), nil
}

// Children lists the completed edits derived from the request's source.
func (o *Orchestrator) Children(ctx context.Context, sourceLocation string) ([]derivedcache.Child, error) {
	parentKey, err := storage.ParentKey(sourceLocation)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "editor", "children", "derive parent key", err)
	}
	return o.cache.GetChildren(ctx, parentKey), nil
}

// validate fails fast on bad input: untrusted domain, bad time window,
// oversized duration, or a source that does not probe as playable media.
func (o *Orchestrator) validate(ctx context.Context, req Request, startSec, endSec int64) error {
	if startSec < 0 || endSec <= startSec {
		return services.Wrap(services.ErrValidation, "editor", "validate",
			fmt.Sprintf("invalid time window %v..%v", req.StartTime, req.EndTime), nil)
	}
	if duration := endSec - startSec; duration > int64(o.cfg.Extraction.MaxEditDurationSeconds) {
		return services.Wrap(services.ErrValidation, "editor", "validate",
			fmt.Sprintf("duration %ds exceeds maximum %ds", duration, o.cfg.Extraction.MaxEditDurationSeconds), nil)
	}
	if err := o.checkTrustedDomain(req.SourceLocation); err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.Extraction.ProbeTimeoutSeconds)*time.Second)
	defer cancel()
	probed, err := o.probe(probeCtx, req.SourceLocation)
	if err != nil {
		return services.Wrap(services.ErrValidation, "editor", "validate", "source asset unreachable", err)
	}
	if !probed.HasPlayableStream() {
		return services.Wrap(services.ErrValidation, "editor", "validate", "source has no playable video or audio stream", nil)
	}
	return nil
}

func (o *Orchestrator) checkTrustedDomain(location string) error {
	parsed, err := url.Parse(location)
	if err != nil || parsed.Hostname() == "" {
		return services.Wrap(services.ErrValidation, "editor", "validate", "source location is not a valid URL", err)
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range o.cfg.Extraction.TrustedDomains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return nil
		}
	}
	return services.Wrap(services.ErrValidation, "editor", "validate",
		fmt.Sprintf("source domain %q is not trusted", host), nil)
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

// run is the single background attempt for a fingerprint. The work item
// always reaches a terminal state; the error message is preserved for
// polling clients.
func (o *Orchestrator) run(fp, parentKey string, req Request, startSec, endSec int64) {
	ctx := services.WithFingerprint(context.Background(), fp)
	logger := o.logger.With(logging.String(logging.FieldFingerprint, fp))

	err := o.attempt(ctx, fp, parentKey, req, startSec, endSec)
	if err == nil {
		o.cache.Invalidate(parentKey)
		logger.Info("edit completed")
		return
	}
	logger.Error("edit failed", logging.Error(err))
	if markErr := o.store.MarkFailed(ctx, fp, err.Error()); markErr != nil {
		logger.Error("failed to record terminal state", logging.Error(markErr))
	}
}

func (o *Orchestrator) attempt(ctx context.Context, fp, parentKey string, req Request, startSec, endSec int64) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("edit panic: %v", recovered)
		}
	}()

	if err := o.guard.RegisterJob(fp, req.SourceLocation); err != nil {
		return err
	}
	defer o.guard.UnregisterJob(fp)

	if err := o.store.MarkProcessing(ctx, fp); err != nil {
		return err
	}

	probeCtx, cancel := context.WithTimeout(ctx, time.Duration(o.cfg.Extraction.ProbeTimeoutSeconds)*time.Second)
	probed, err := o.probe(probeCtx, req.SourceLocation)
	cancel()
	if err != nil {
		return err
	}

	segment, strategy, err := o.executor.Extract(ctx, extraction.Request{
		Fingerprint:    fp,
		SourceLocation: req.SourceLocation,
		StartTime:      startSec,
		EndTime:        endSec,
	}, probed.SizeBytes())
	if err != nil {
		return err
	}
	defer o.guard.ReleaseTempFile(segment)

	childKey := storage.ChildKey(parentKey, fp)
	file, err := os.Open(segment)
	if err != nil {
		return services.Wrap(services.ErrResource, "editor", "upload", "open segment", err)
	}
	outputURL, err := o.objects.Put(ctx, o.cfg.Storage.EditsBucket, childKey, file, "video/mp4")
	file.Close()
	if err != nil {
		return err
	}

	o.logger.Info("segment extracted",
		logging.String(logging.FieldFingerprint, fp),
		logging.String(logging.FieldStrategy, string(strategy)))

	result := jobstore.Result{
		Kind: jobstore.KindVideoEdit,
		Edit: &jobstore.EditResult{
			ParentKey:    parentKey,
			SourceURL:    req.SourceLocation,
			OutputURL:    outputURL,
			StartTime:    startSec,
			EndTime:      endSec,
			UseSubtitles: req.UseSubtitles,
		},
	}
	return o.store.MarkCompleted(ctx, fp, childKey, result)
}

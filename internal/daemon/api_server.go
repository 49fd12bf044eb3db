package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"clipforge/internal/api"
	"clipforge/internal/clipsynth"
	"clipforge/internal/config"
	"clipforge/internal/editor"
	"clipforge/internal/jobstore"
	"clipforge/internal/logging"
	"clipforge/internal/services"
	"clipforge/internal/storage"
	"clipforge/internal/subtitles"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", srv.handleStatus)
	mux.HandleFunc("/api/jobs", srv.handleJobs)
	mux.HandleFunc("/api/jobs/", srv.handleJob)
	mux.HandleFunc("/api/clips", srv.handleClips)
	mux.HandleFunc("/api/edits", srv.handleEdits)
	mux.HandleFunc("/api/children", srv.handleChildren)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	counts := make(map[string]int, len(status.Counts))
	for key, count := range status.Counts {
		counts[string(key)] = count
	}
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobsDBPath:   status.JobsDBPath,
		LockFilePath: status.LockFilePath,
		ActiveJobs:   status.ActiveJobs,
		Counts:       counts,
		CachedKeys:   status.CachedKeys,
	})
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []jobstore.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := jobstore.ParseStatus(strings.TrimSpace(value))
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, parsed)
	}

	items, err := s.daemon.store.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]api.JobView, 0, len(items))
	for _, item := range items {
		views = append(views, api.JobView{
			Fingerprint: item.Fingerprint,
			Kind:        string(item.Kind),
			Status:      string(item.Status),
			AssetID:     item.OutputAssetID,
			Error:       item.ErrorMessage,
			CreatedAt:   item.CreatedAt,
			UpdatedAt:   item.UpdatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Items: views})
}

// handleJob implements the polling contract: unknown fingerprints are a
// normal answer, not an HTTP error.
func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	fp := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if fp == "" || strings.Contains(fp, "/") {
		s.writeError(w, http.StatusBadRequest, "invalid fingerprint")
		return
	}

	item, err := s.daemon.store.GetByFingerprint(r.Context(), fp)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeJSON(w, http.StatusOK, api.JobStatusResponse{Status: api.JobNotFound, Fingerprint: fp})
		return
	}
	s.writeJSON(w, http.StatusOK, jobStatusView(item))
}

func (s *apiServer) handleClips(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload api.SynthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cues := make([]subtitles.Subtitle, 0, len(payload.Subtitles))
	for _, cue := range payload.Subtitles {
		cues = append(cues, subtitles.Subtitle{Start: cue.Start, End: cue.End, Text: cue.Text})
	}

	response, err := s.daemon.clips.Synthesize(r.Context(), clipsynth.Request{
		FeedID:           payload.FeedID,
		EpisodeGUID:      payload.EpisodeGUID,
		AudioSource:      payload.AudioSource,
		StartTime:        payload.StartTime,
		EndTime:          payload.EndTime,
		ShareToken:       payload.ShareToken,
		Creator:          payload.Creator,
		EpisodeTitle:     payload.EpisodeTitle,
		ProfileImagePath: payload.ProfileImagePath,
		Cues:             cues,
	})
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.JobStatusResponse{
		Status:      responseStatus(response.Status),
		Fingerprint: response.Fingerprint,
		Asset:       clipAsset(response.Result),
		Error:       response.Error,
	})
}

func (s *apiServer) handleEdits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var payload api.EditRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	response, err := s.daemon.edits.Edit(r.Context(), editor.Request{
		SourceLocation: payload.SourceLocation,
		StartTime:      payload.StartTime,
		EndTime:        payload.EndTime,
		UseSubtitles:   payload.UseSubtitles,
	})
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.JobStatusResponse{
		Status:      responseStatus(response.Status),
		Fingerprint: response.Fingerprint,
		Asset:       editAsset(response.Result),
		Error:       response.Error,
	})
}

func (s *apiServer) handleChildren(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	source := strings.TrimSpace(r.URL.Query().Get("source"))
	if source == "" {
		s.writeError(w, http.StatusBadRequest, "source query parameter is required")
		return
	}

	parentKey, err := storage.ParentKey(source)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	children, err := s.daemon.edits.Children(r.Context(), source)
	if err != nil {
		s.writeOrchestratorError(w, err)
		return
	}
	views := make([]api.ChildView, 0, len(children))
	for _, child := range children {
		views = append(views, api.ChildView{
			Fingerprint:  child.Fingerprint,
			OutputURL:    child.OutputURL,
			StartTime:    child.StartTime,
			EndTime:      child.EndTime,
			UseSubtitles: child.UseSubtitles,
			CreatedAt:    child.CreatedAt,
		})
	}
	s.writeJSON(w, http.StatusOK, api.ChildrenResponse{ParentKey: parentKey, Children: views})
}

func (s *apiServer) writeOrchestratorError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidation(err):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode api response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func jobStatusView(item *jobstore.WorkItem) api.JobStatusResponse {
	response := api.JobStatusResponse{
		Status:      responseStatus(item.Status),
		Fingerprint: item.Fingerprint,
		Error:       item.ErrorMessage,
	}
	if item.Status == jobstore.StatusCompleted {
		switch {
		case item.Result.Clip != nil:
			response.Asset = &api.AssetRefs{URL: item.Result.Clip.ClipURL, PreviewURL: item.Result.Clip.PreviewURL}
		case item.Result.Edit != nil:
			response.Asset = &api.AssetRefs{URL: item.Result.Edit.OutputURL}
		}
	}
	return response
}

// responseStatus maps store statuses onto the polling vocabulary: queued
// collapses into processing.
func responseStatus(status jobstore.Status) string {
	switch status {
	case jobstore.StatusCompleted:
		return api.JobCompleted
	case jobstore.StatusFailed:
		return api.JobFailed
	default:
		return api.JobProcessing
	}
}

func clipAsset(result *jobstore.Result) *api.AssetRefs {
	if result == nil || result.Clip == nil {
		return nil
	}
	return &api.AssetRefs{URL: result.Clip.ClipURL, PreviewURL: result.Clip.PreviewURL}
}

func editAsset(result *jobstore.Result) *api.AssetRefs {
	if result == nil || result.Edit == nil {
		return nil
	}
	return &api.AssetRefs{URL: result.Edit.OutputURL}
}

package api

import "time"

// Job lookup statuses exposed to polling clients. These are intentionally a
// superset of the store's statuses: a fingerprint nobody has requested yet
// reports not_found, and queued jobs report processing.
const (
	JobNotFound   = "not_found"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobStatusResponse answers GET /api/jobs/{fingerprint}.
type JobStatusResponse struct {
	Status      string     `json:"status"`
	Fingerprint string     `json:"fingerprint"`
	Asset       *AssetRefs `json:"asset,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// AssetRefs carries the output references of a completed job.
type AssetRefs struct {
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
}

// JobView is one work item in a job listing.
type JobView struct {
	Fingerprint string    `json:"fingerprint"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	AssetID     string    `json:"asset_id,omitempty"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// JobListResponse answers GET /api/jobs.
type JobListResponse struct {
	Items []JobView `json:"items"`
}

// DaemonStatus answers GET /api/status.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	JobsDBPath   string         `json:"jobs_db_path"`
	LockFilePath string         `json:"lock_file_path"`
	ActiveJobs   int            `json:"active_jobs"`
	Counts       map[string]int `json:"counts"`
	CachedKeys   int            `json:"cached_keys"`
}

// SynthesizeRequest is the POST /api/clips payload.
type SynthesizeRequest struct {
	FeedID           int64     `json:"feed_id"`
	EpisodeGUID      string    `json:"episode_guid"`
	AudioSource      string    `json:"audio_source"`
	StartTime        float64   `json:"start_time"`
	EndTime          float64   `json:"end_time"`
	ShareToken       string    `json:"share_token,omitempty"`
	Creator          string    `json:"creator"`
	EpisodeTitle     string    `json:"episode_title"`
	ProfileImagePath string    `json:"profile_image_path,omitempty"`
	Subtitles        []CueView `json:"subtitles,omitempty"`
}

// CueView is one subtitle cue on the wire.
type CueView struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// EditRequest is the POST /api/edits payload.
type EditRequest struct {
	SourceLocation string  `json:"source_location"`
	StartTime      float64 `json:"start_time"`
	EndTime        float64 `json:"end_time"`
	UseSubtitles   bool    `json:"use_subtitles"`
}

// ChildView is one derived edit in a children listing.
type ChildView struct {
	Fingerprint  string    `json:"fingerprint"`
	OutputURL    string    `json:"output_url"`
	StartTime    int64     `json:"start_time"`
	EndTime      int64     `json:"end_time"`
	UseSubtitles bool      `json:"use_subtitles"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChildrenResponse answers GET /api/children.
type ChildrenResponse struct {
	ParentKey string      `json:"parent_key"`
	Children  []ChildView `json:"children"`
}

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

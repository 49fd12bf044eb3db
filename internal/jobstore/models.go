package jobstore

import (
	"strings"
	"time"
)

// Kind distinguishes the two job flavors tracked by the store.
type Kind string

const (
	KindClipSynthesis Kind = "clip-synthesis"
	KindVideoEdit     Kind = "video-edit"
)

// ParseKind converts a string into a known Kind.
func ParseKind(value string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(value))) {
	case KindClipSynthesis:
		return KindClipSynthesis, true
	case KindVideoEdit:
		return KindVideoEdit, true
	default:
		return "", false
	}
}

// Status represents the lifecycle of a work item. Transitions only move
// forward: queued → processing → completed or failed.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var allStatuses = []Status{StatusQueued, StatusProcessing, StatusCompleted, StatusFailed}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// allowedPriors returns the statuses a record may hold immediately before
// moving to s.
func (s Status) allowedPriors() []Status {
	switch s {
	case StatusProcessing:
		return []Status{StatusQueued}
	case StatusCompleted, StatusFailed:
		return []Status{StatusQueued, StatusProcessing}
	default:
		return nil
	}
}

// WorkItem is the persisted record of one synthesis or edit job.
type WorkItem struct {
	ID            int64
	Fingerprint   string
	Kind          Kind
	Status        Status
	OutputAssetID string
	ErrorMessage  string
	Result        Result
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InFlight reports whether the item has been accepted but not finished.
func (w WorkItem) InFlight() bool {
	return w.Status == StatusQueued || w.Status == StatusProcessing
}

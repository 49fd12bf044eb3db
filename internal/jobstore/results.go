package jobstore

import (
	"encoding/json"
	"fmt"
)

// ClipResult carries the clip-synthesis output references.
type ClipResult struct {
	FeedID      int64  `json:"feed_id"`
	EpisodeGUID string `json:"episode_guid"`
	ClipURL     string `json:"clip_url"`
	PreviewURL  string `json:"preview_url"`
}

// EditResult carries the video-edit output references. ParentKey groups this
// edit under its source asset for derived-asset lookups.
type EditResult struct {
	ParentKey    string `json:"parent_key"`
	SourceURL    string `json:"source_url"`
	OutputURL    string `json:"output_url"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time"`
	UseSubtitles bool   `json:"use_subtitles"`
}

// Result is the kind-tagged union stored on a work item. Exactly one of Clip
// or Edit is set for a populated result; both nil means no result yet.
type Result struct {
	Kind Kind        `json:"kind,omitempty"`
	Clip *ClipResult `json:"clip,omitempty"`
	Edit *EditResult `json:"edit,omitempty"`
}

// Empty reports whether the result carries no payload.
func (r Result) Empty() bool {
	return r.Clip == nil && r.Edit == nil
}

// legacyEditResult is the historical unscoped record shape: edit fields flat
// at the top level with no kind tag. Still accepted on read so records
// written before the tagged union survive.
type legacyEditResult struct {
	ParentKey    string `json:"parent_key"`
	SourceURL    string `json:"source_url"`
	OutputURL    string `json:"output_url"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time"`
	UseSubtitles bool   `json:"use_subtitles"`
}

// EncodeResult serializes a result for storage.
func EncodeResult(result Result) (string, error) {
	if result.Empty() {
		return "", nil
	}
	switch result.Kind {
	case KindClipSynthesis:
		if result.Clip == nil {
			return "", fmt.Errorf("encode result: clip-synthesis result missing clip payload")
		}
	case KindVideoEdit:
		if result.Edit == nil {
			return "", fmt.Errorf("encode result: video-edit result missing edit payload")
		}
	default:
		return "", fmt.Errorf("encode result: unknown kind %q", result.Kind)
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	return string(data), nil
}

// DecodeResult parses a stored result, accepting both the tagged union and
// the legacy unscoped edit shape.
func DecodeResult(raw string) (Result, error) {
	if raw == "" {
		return Result{}, nil
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return Result{}, fmt.Errorf("decode result: %w", err)
	}
	if result.Kind != "" {
		return result, nil
	}

	var legacy legacyEditResult
	if err := json.Unmarshal([]byte(raw), &legacy); err != nil {
		return Result{}, fmt.Errorf("decode legacy result: %w", err)
	}
	if legacy.ParentKey == "" && legacy.OutputURL == "" {
		return Result{}, nil
	}
	return Result{
		Kind: KindVideoEdit,
		Edit: &EditResult{
			ParentKey:    legacy.ParentKey,
			SourceURL:    legacy.SourceURL,
			OutputURL:    legacy.OutputURL,
			StartTime:    legacy.StartTime,
			EndTime:      legacy.EndTime,
			UseSubtitles: legacy.UseSubtitles,
		},
	}, nil
}

package storage

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ClipKey returns the object key for a synthesized clip video.
func ClipKey(feedID int64, episodeGUID, fingerprint string) string {
	return fmt.Sprintf("%d/%s/%s-clip.mp4", feedID, sanitizeSegment(episodeGUID), fingerprint)
}

// PreviewKey returns the object key for a clip's first-frame preview image.
func PreviewKey(feedID int64, episodeGUID, fingerprint string) string {
	return fmt.Sprintf("%d/%s/%s-preview.png", feedID, sanitizeSegment(episodeGUID), fingerprint)
}

// ParentKey derives the grouping identity of a source asset from its
// location: the URL path without extension. Children of the same source land
// under the same parent key regardless of query strings or scheme.
func ParentKey(sourceLocation string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(sourceLocation))
	if err != nil {
		return "", fmt.Errorf("parse source location: %w", err)
	}
	cleaned := strings.Trim(path.Clean(parsed.Path), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("source location %q has no path", sourceLocation)
	}
	ext := path.Ext(cleaned)
	return strings.TrimSuffix(cleaned, ext), nil
}

// ChildKey returns the object key for an edited segment, nested under its
// parent so derived-asset lookups can group children by prefix.
func ChildKey(parentKey, fingerprint string) string {
	return parentKey + "-children/" + fingerprint + ".mp4"
}

func sanitizeSegment(value string) string {
	value = strings.TrimSpace(value)
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return replacer.Replace(value)
}

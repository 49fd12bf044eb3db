package storage

import "testing"

func TestClipAndPreviewKeys(t *testing.T) {
	clip := ClipKey(42, "abc", "deadbeef")
	if clip != "42/abc/deadbeef-clip.mp4" {
		t.Fatalf("unexpected clip key: %q", clip)
	}
	preview := PreviewKey(42, "abc", "deadbeef")
	if preview != "42/abc/deadbeef-preview.png" {
		t.Fatalf("unexpected preview key: %q", preview)
	}
}

func TestClipKeySanitizesGUID(t *testing.T) {
	clip := ClipKey(7, "ep 01/intro", "ff")
	if clip != "7/ep_01_intro/ff-clip.mp4" {
		t.Fatalf("unexpected sanitized key: %q", clip)
	}
}

func TestParentKeyFromURL(t *testing.T) {
	key, err := ParentKey("https://storage.example.com/videos/episode-12.mp4?token=x")
	if err != nil {
		t.Fatalf("ParentKey failed: %v", err)
	}
	if key != "videos/episode-12" {
		t.Fatalf("unexpected parent key: %q", key)
	}

	same, err := ParentKey("http://storage.example.com/videos/episode-12.mp4")
	if err != nil {
		t.Fatalf("ParentKey failed: %v", err)
	}
	if same != key {
		t.Fatal("scheme and query must not affect parent identity")
	}
}

func TestParentKeyRejectsPathless(t *testing.T) {
	if _, err := ParentKey("https://storage.example.com"); err == nil {
		t.Fatal("expected error for location without path")
	}
}

func TestChildKeyNesting(t *testing.T) {
	key := ChildKey("videos/episode-12", "cafe01")
	if key != "videos/episode-12-children/cafe01.mp4" {
		t.Fatalf("unexpected child key: %q", key)
	}
}

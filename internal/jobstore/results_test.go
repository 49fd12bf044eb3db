package jobstore

import "testing"

func TestEncodeResultRequiresMatchingPayload(t *testing.T) {
	if _, err := EncodeResult(Result{Kind: KindClipSynthesis}); err == nil {
		t.Fatal("expected error for clip kind without clip payload")
	}
	if _, err := EncodeResult(Result{Kind: KindVideoEdit}); err == nil {
		t.Fatal("expected error for edit kind without edit payload")
	}
	if _, err := EncodeResult(Result{Kind: "other", Clip: &ClipResult{}}); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	in := Result{
		Kind: KindVideoEdit,
		Edit: &EditResult{ParentKey: "videos/source.mp4", OutputURL: "https://cdn/x.mp4", StartTime: 120, EndTime: 180, UseSubtitles: true},
	}
	raw, err := EncodeResult(in)
	if err != nil {
		t.Fatalf("EncodeResult failed: %v", err)
	}
	out, err := DecodeResult(raw)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if out.Kind != KindVideoEdit || out.Edit == nil || *out.Edit != *in.Edit {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestDecodeLegacyUnscopedShape(t *testing.T) {
	raw := `{"parent_key":"videos/old.mp4","output_url":"https://cdn/old-child.mp4","start_time":5,"end_time":35}`
	result, err := DecodeResult(raw)
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if result.Kind != KindVideoEdit {
		t.Fatalf("legacy shape must decode as video edit, got %q", result.Kind)
	}
	if result.Edit == nil || result.Edit.ParentKey != "videos/old.mp4" {
		t.Fatalf("unexpected legacy payload: %#v", result.Edit)
	}
}

func TestDecodeEmpty(t *testing.T) {
	result, err := DecodeResult("")
	if err != nil {
		t.Fatalf("DecodeResult failed: %v", err)
	}
	if !result.Empty() {
		t.Fatalf("expected empty result, got %#v", result)
	}
}

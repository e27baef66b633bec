package storage

import "testing"

func TestValidateContentType(t *testing.T) {
	svc := &MinIOService{}

	allowed := []string{
		"audio/wav",
		"video/mxf",
		"application/pdf",
		"image/png",
		// parameters and casing are normalized away
		"text/csv; charset=utf-8",
		"Audio/FLAC",
	}
	for _, ct := range allowed {
		if err := svc.ValidateContentType(ct); err != nil {
			t.Errorf("ValidateContentType(%q) = %v, want nil", ct, err)
		}
	}

	denied := []string{"application/x-msdownload", "text/html", "", "audio/"}
	for _, ct := range denied {
		if err := svc.ValidateContentType(ct); err == nil {
			t.Errorf("ValidateContentType(%q) = nil, want error", ct)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	svc := &MinIOService{maxFileSize: 10 << 20}

	if err := svc.ValidateFileSize(10 << 20); err != nil {
		t.Errorf("size at the limit should pass: %v", err)
	}
	if err := svc.ValidateFileSize(0); err == nil {
		t.Error("zero size should be rejected")
	}
	if err := svc.ValidateFileSize(10<<20 + 1); err == nil {
		t.Error("oversize should be rejected")
	}
}

func TestContentTypeFamilies(t *testing.T) {
	if !IsAudioContentType("audio/wav") || IsAudioContentType("video/mp4") {
		t.Error("audio detection broken")
	}
	if !IsVideoContentType("Video/MXF") || IsVideoContentType("audio/wav") {
		t.Error("video detection broken")
	}
}

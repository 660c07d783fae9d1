package validation

import (
	"strings"
	"testing"
	"time"
)

func TestValidateImageID(t *testing.T) {
	if err := ValidateImageID("img_20260220_103000.jpg"); err != nil {
		t.Errorf("Expected valid id, got: %v", err)
	}
	if err := ValidateImageID(strings.Repeat("a", 255)); err != nil {
		t.Errorf("Expected 255 chars to pass, got: %v", err)
	}
	if err := ValidateImageID(strings.Repeat("ç", 255)); err != nil {
		t.Errorf("Expected length to be counted in characters, got: %v", err)
	}
	if err := ValidateImageID(""); err == nil {
		t.Error("Expected empty id to fail")
	}
	if err := ValidateImageID(strings.Repeat("a", 256)); err == nil {
		t.Error("Expected 256 chars to fail")
	}
}

func TestParseTimestamp(t *testing.T) {
	fixedNow := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	now := func() time.Time { return fixedNow }

	tests := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{"empty defaults to now in UTC", "", fixedNow.UTC(), false},
		{"zulu", "2026-02-20T10:30:00Z", time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC), false},
		{"offset", "2026-02-20T07:30:00-03:00", time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC), false},
		{"fractional", "2026-02-20T10:30:00.250Z", time.Date(2026, 2, 20, 10, 30, 0, 250_000_000, time.UTC), false},
		{"naive", "2026-02-20T10:30:00", time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC), false},
		{"date only", "2026-02-20", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), false},
		{"garbage", "yesterday", time.Time{}, true},
		{"bad month", "2026-13-20T10:30:00Z", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.raw, now)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), "Invalid timestamp format") {
					t.Errorf("Expected timestamp format error, got: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

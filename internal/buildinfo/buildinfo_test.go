package buildinfo

import "testing"

func TestBanner(t *testing.T) {
	defer func(v, c, d string) { Version, Commit, Date = v, c, d }(Version, Commit, Date)

	tests := []struct {
		version, commit, date string
		short, banner         string
	}{
		{"dev", "unknown", "unknown", "dev", "ember dev"},
		{"dev", "abc123", "unknown", "abc123", "ember abc123"},
		{"v0.3.0", "abc123", "2026-10-01", "v0.3.0", "ember v0.3.0 (abc123) built 2026-10-01"},
		{"", "", "", "dev", "ember dev"},
	}
	for _, tt := range tests {
		Version, Commit, Date = tt.version, tt.commit, tt.date
		if got := Short(); got != tt.short {
			t.Fatalf("Short() = %q, want %q", got, tt.short)
		}
		if got := Banner(); got != tt.banner {
			t.Fatalf("Banner() = %q, want %q", got, tt.banner)
		}
	}
}

package server

import (
	"testing"
)

func TestIdentifierFromSegment(t *testing.T) {
	testCases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"plain name", "song.mp3", "song.mp3", false},
		{"space encoded once", "my%20song.mp3", "my song.mp3", false},
		{"double encoded space", "my%2520song.mp3", "my song.mp3", false},
		{"double encoded letter", "%2541.mp3", "A.mp3", false},
		{"unicode name", "%E6%9B%B2.mp3", "曲.mp3", false},
		{"malformed escape kept verbatim", "50%off.mp3", "50%off.mp3", false},
		{"empty", "", "", true},
		{"traversal", "..%2Fsecret.mp3", "", true},
		{"encoded traversal", "%2E%2E%2Fsecret.mp3", "", true},
		{"absolute path", "%2Fetc%2Fpasswd", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := identifierFromSegment(tc.raw)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("identifierFromSegment(%q) = %q, want error", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("identifierFromSegment(%q): unexpected error %v", tc.raw, err)
			}
			if got != tc.want {
				t.Errorf("identifierFromSegment(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdentifier(t *testing.T) {
	testCases := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{"plain", "song.flac", "song.flac", false},
		{"second pass decodes", "my%20song.mp3", "my song.mp3", false},
		{"no marker left alone", "my song.mp3", "my song.mp3", false},
		{"bad escape kept", "100%.mp3", "100%.mp3", false},
		{"empty", "", "", true},
		{"dotdot component", "a/../b.mp3", "", true},
		{"leading slash", "/abs.mp3", "", true},
		{"backslash traversal", "..\\x.mp3", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := normalizeIdentifier(tc.id)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("normalizeIdentifier(%q) = %q, want error", tc.id, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeIdentifier(%q): unexpected error %v", tc.id, err)
			}
			if got != tc.want {
				t.Errorf("normalizeIdentifier(%q) = %q, want %q", tc.id, got, tc.want)
			}
		})
	}
}

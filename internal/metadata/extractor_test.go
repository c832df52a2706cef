package metadata

import (
	"bytes"
	"errors"
	"testing"
)

// id3Frame renders a single ID3v2.3 frame (plain big-endian size).
func id3Frame(id string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	size := len(body)
	buf.Write([]byte{byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)})
	buf.Write([]byte{0, 0}) // flags
	buf.Write(body)
	return buf.Bytes()
}

func id3TextFrame(id, text string) []byte {
	body := append([]byte{0}, []byte(text)...) // latin-1 encoding marker
	return id3Frame(id, body)
}

func id3PictureFrame(mime string, data []byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0) // latin-1
	body.WriteString(mime)
	body.WriteByte(0)
	body.WriteByte(3) // front cover
	body.WriteByte(0) // empty description
	body.Write(data)
	return id3Frame("APIC", body.Bytes())
}

// buildTaggedMP3 assembles a minimal MP3 buffer carrying an ID3v2.3 tag.
// The tag header size field is synchsafe; frame sizes are not.
func buildTaggedMP3(frames ...[]byte) []byte {
	var payload bytes.Buffer
	for _, frame := range frames {
		payload.Write(frame)
	}

	size := payload.Len()
	header := []byte{
		'I', 'D', '3', 3, 0, 0,
		byte(size >> 21 & 0x7F), byte(size >> 14 & 0x7F), byte(size >> 7 & 0x7F), byte(size & 0x7F),
	}

	out := append(header, payload.Bytes()...)
	return append(out, make([]byte, 64)...) // trailing padding in place of audio frames
}

var jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func TestExtract(t *testing.T) {
	extractor := NewExtractor([]string{".mp3", ".flac", ".wav", ".m4a"})

	t.Run("full tag", func(t *testing.T) {
		data := buildTaggedMP3(
			id3TextFrame("TIT2", "Night Drive"),
			id3TextFrame("TPE1", "The Testers"),
			id3TextFrame("TALB", "Fixtures"),
			id3PictureFrame("image/jpeg", jpegBytes),
		)

		tags, err := extractor.Extract(data)
		if err != nil {
			t.Fatalf("Extract failed: %v", err)
		}
		if tags.Title != "Night Drive" {
			t.Errorf("Title = %q, want %q", tags.Title, "Night Drive")
		}
		if tags.Artist != "The Testers" {
			t.Errorf("Artist = %q, want %q", tags.Artist, "The Testers")
		}
		if tags.Album != "Fixtures" {
			t.Errorf("Album = %q, want %q", tags.Album, "Fixtures")
		}
		if len(tags.Pictures) != 1 {
			t.Fatalf("got %d pictures, want 1", len(tags.Pictures))
		}
		if tags.Pictures[0].Format != "image/jpeg" {
			t.Errorf("picture format = %q, want image/jpeg", tags.Pictures[0].Format)
		}
		if !bytes.Equal(tags.Pictures[0].Data, jpegBytes) {
			t.Error("picture data does not match embedded bytes")
		}
	})

	t.Run("garbage buffer", func(t *testing.T) {
		if _, err := extractor.Extract([]byte("not an audio file at all")); err == nil {
			t.Error("Extract on garbage succeeded, want error")
		}
	})
}

func TestFrontCover(t *testing.T) {
	extractor := NewExtractor([]string{".mp3"})

	t.Run("present", func(t *testing.T) {
		data := buildTaggedMP3(
			id3TextFrame("TIT2", "With Art"),
			id3PictureFrame("image/jpeg", jpegBytes),
		)
		pic, err := extractor.FrontCover(data)
		if err != nil {
			t.Fatalf("FrontCover failed: %v", err)
		}
		if pic.Format != "image/jpeg" {
			t.Errorf("format = %q, want image/jpeg", pic.Format)
		}
	})

	t.Run("absent", func(t *testing.T) {
		data := buildTaggedMP3(id3TextFrame("TIT2", "No Art"))
		_, err := extractor.FrontCover(data)
		if !errors.Is(err, ErrNoPicture) {
			t.Fatalf("FrontCover error = %v, want ErrNoPicture", err)
		}
	})
}

func TestTrackFromObject(t *testing.T) {
	extractor := NewExtractor([]string{".mp3"})

	t.Run("tagged", func(t *testing.T) {
		data := buildTaggedMP3(
			id3TextFrame("TIT2", "Tagged Title"),
			id3TextFrame("TPE1", "Someone"),
			id3TextFrame("TALB", "Somewhere"),
			id3PictureFrame("image/jpeg", jpegBytes),
		)
		track := extractor.TrackFromObject("upload.mp3", data)
		if track.Title != "Tagged Title" || track.Artist != "Someone" || track.Album != "Somewhere" {
			t.Errorf("unexpected track fields: %+v", track)
		}
		if !track.HasCover {
			t.Error("HasCover = false, want true")
		}
		if track.Size != int64(len(data)) {
			t.Errorf("Size = %d, want %d", track.Size, len(data))
		}
	})

	t.Run("untagged falls back to filename", func(t *testing.T) {
		track := extractor.TrackFromObject("fallback song.mp3", []byte{0, 1, 2, 3})
		if track.Title != "fallback song" {
			t.Errorf("Title = %q, want %q", track.Title, "fallback song")
		}
		if track.Artist != "Unknown Artist" || track.Album != "Unknown Album" {
			t.Errorf("unexpected placeholders: %+v", track)
		}
		if track.HasCover {
			t.Error("HasCover = true for untagged data")
		}
	})
}

func TestIsAudioFile(t *testing.T) {
	extractor := NewExtractor([]string{".mp3", ".flac", ".wav", ".ogg", ".m4a"})

	testCases := []struct {
		filename string
		expected bool
	}{
		{"song.mp3", true},
		{"song.MP3", true},
		{"song.flac", true},
		{"song.ogg", true},
		{"song.m4a", true},
		{"song.txt", false},
		{"song.jpg", false},
		{"song", false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := extractor.IsAudioFile(tc.filename); got != tc.expected {
			t.Errorf("IsAudioFile(%q) = %v, want %v", tc.filename, got, tc.expected)
		}
	}
}

func TestContentTypeFor(t *testing.T) {
	testCases := []struct {
		filename string
		expected string
	}{
		{"song.mp3", "audio/mpeg"},
		{"song.MP3", "audio/mpeg"},
		{"song.wav", "audio/wav"},
		{"song.ogg", "audio/ogg"},
		{"song.flac", "audio/flac"},
		{"song.m4a", "audio/mp4"},
		{"song.unknown", "audio/mpeg"},
		{"noextension", "audio/mpeg"},
	}

	for _, tc := range testCases {
		if got := ContentTypeFor(tc.filename); got != tc.expected {
			t.Errorf("ContentTypeFor(%q) = %q, want %q", tc.filename, got, tc.expected)
		}
	}
}

func TestSniffImageFormat(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"JPEG", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "image/jpeg"},
		{"PNG", []byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
		{"GIF", []byte{0x47, 0x49, 0x46, 0x38}, "image/gif"},
		{"Unknown", []byte{0x00, 0x00, 0x00, 0x00}, "application/octet-stream"},
		{"Too short", []byte{0xFF}, "application/octet-stream"},
		{"Empty", []byte{}, "application/octet-stream"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SniffImageFormat(tc.data); got != tc.expected {
				t.Errorf("SniffImageFormat = %q, want %q", got, tc.expected)
			}
		})
	}
}

package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"cadenza/internal/catalog"
	"cadenza/internal/config"
	"cadenza/internal/server"
	"cadenza/internal/storage"
	"cadenza/pkg/models"

	"github.com/sirupsen/logrus"
)

func id3Frame(id string, body []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString(id)
	size := len(body)
	buf.Write([]byte{byte(size >> 24), byte(size >> 16), byte(size >> 8), byte(size)})
	buf.Write([]byte{0, 0})
	buf.Write(body)
	return buf.Bytes()
}

func id3TextFrame(id, text string) []byte {
	return id3Frame(id, append([]byte{0}, []byte(text)...))
}

func id3PictureFrame(mime string, data []byte) []byte {
	var body bytes.Buffer
	body.WriteByte(0)
	body.WriteString(mime)
	body.WriteByte(0)
	body.WriteByte(3)
	body.WriteByte(0)
	body.Write(data)
	return id3Frame("APIC", body.Bytes())
}

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
	return append(out, make([]byte, 128)...)
}

var coverJPEG = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

type testEnv struct {
	handler http.Handler
	root    string
	catalog *catalog.Catalog
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	root := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.Root = root
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "catalog.db")
	cfg.Library.WatchForChanges = false
	cfg.Logging.RequestLogging = false

	cat, err := catalog.Open(cfg.Catalog.Path)
	if err != nil {
		t.Fatalf("catalog.Open failed: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	store, err := storage.NewStore(&cfg.Storage, logger)
	if err != nil {
		t.Fatalf("storage.NewStore failed: %v", err)
	}

	ms, err := server.NewMediaServer(cfg, cat, store, logger)
	if err != nil {
		t.Fatalf("NewMediaServer failed: %v", err)
	}

	return &testEnv{handler: ms.Handler(), root: root, catalog: cat}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) upload(t *testing.T, filename string, data []byte) string {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := env.do(req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success  bool   `json:"success"`
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("upload response decode failed: %v", err)
	}
	if !resp.Success {
		t.Fatal("upload reported failure")
	}
	return resp.Filename
}

func TestUploadListStreamDelete(t *testing.T) {
	env := newTestEnv(t)

	audio := buildTaggedMP3(
		id3TextFrame("TIT2", "Round Trip"),
		id3TextFrame("TPE1", "Integration"),
		id3TextFrame("TALB", "End to End"),
		id3PictureFrame("image/jpeg", coverJPEG),
	)

	name := env.upload(t, "roundtrip.mp3", audio)
	if name != "roundtrip.mp3" {
		t.Fatalf("stored name = %q, want roundtrip.mp3", name)
	}

	t.Run("catalog row created", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/tracks", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var tracks []models.Track
		if err := json.NewDecoder(rec.Body).Decode(&tracks); err != nil {
			t.Fatal(err)
		}
		if len(tracks) != 1 {
			t.Fatalf("got %d tracks, want 1", len(tracks))
		}
		if tracks[0].Title != "Round Trip" || tracks[0].Artist != "Integration" {
			t.Errorf("unexpected track: %+v", tracks[0])
		}
		if !tracks[0].HasCover {
			t.Error("HasCover = false, want true")
		}
	})

	t.Run("count endpoint", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/tracks/count", nil))
		var resp map[string]int
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatal(err)
		}
		if resp["count"] != 1 {
			t.Errorf("count = %d, want 1", resp["count"])
		}
	})

	t.Run("streams with range", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/media/roundtrip.mp3", nil)
		req.Header.Set("Range", "bytes=0-9")
		rec := env.do(req)
		if rec.Code != http.StatusPartialContent {
			t.Fatalf("status = %d, want 206", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), audio[:10]) {
			t.Error("range body mismatch")
		}
	})

	t.Run("serves cover", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/media/roundtrip.mp3/cover", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !bytes.Equal(rec.Body.Bytes(), coverJPEG) {
			t.Error("cover body mismatch")
		}
	})

	t.Run("metadata endpoint", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodGet, "/api/metadata?file=roundtrip.mp3", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		var meta models.TrackMetadata
		if err := json.NewDecoder(rec.Body).Decode(&meta); err != nil {
			t.Fatal(err)
		}
		if meta.Title != "Round Trip" || meta.Album != "End to End" {
			t.Errorf("unexpected metadata: %+v", meta)
		}
		if meta.Picture == nil || !strings.HasPrefix(*meta.Picture, "data:image/jpeg;base64,") {
			t.Error("picture data URL missing or malformed")
		}
	})

	t.Run("delete removes object and row", func(t *testing.T) {
		rec := env.do(httptest.NewRequest(http.MethodDelete, "/api/tracks/roundtrip.mp3", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		if _, err := os.Stat(filepath.Join(env.root, "roundtrip.mp3")); !os.IsNotExist(err) {
			t.Error("stored object still exists after delete")
		}

		count, err := env.catalog.CountTracks()
		if err != nil {
			t.Fatal(err)
		}
		if count != 0 {
			t.Errorf("catalog count after delete = %d, want 0", count)
		}
	})
}

func TestUploadNameCollision(t *testing.T) {
	env := newTestEnv(t)

	audio := buildTaggedMP3(id3TextFrame("TIT2", "Twin"))
	first := env.upload(t, "twin.mp3", audio)
	second := env.upload(t, "twin.mp3", audio)

	if first != "twin.mp3" {
		t.Errorf("first name = %q", first)
	}
	if second != "twin_1.mp3" {
		t.Errorf("second name = %q, want twin_1.mp3", second)
	}
}

func TestUploadRejectsNonAudio(t *testing.T) {
	env := newTestEnv(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, _ := writer.CreateFormFile("file", "notes.txt")
	part.Write([]byte("plain text"))
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := env.do(req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSyncEndpoint(t *testing.T) {
	env := newTestEnv(t)

	audio := buildTaggedMP3(id3TextFrame("TIT2", "Dropped In"))
	if err := os.WriteFile(filepath.Join(env.root, "dropped.mp3"), audio, 0644); err != nil {
		t.Fatal(err)
	}

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("sync status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Added   int `json:"added"`
		Removed int `json:"removed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Added != 1 || resp.Removed != 0 {
		t.Errorf("sync = %+v, want added 1 removed 0", resp)
	}

	// Remove the object; a second sync drops the stale row.
	if err := os.Remove(filepath.Join(env.root, "dropped.mp3")); err != nil {
		t.Fatal(err)
	}

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/sync", nil))
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Added != 0 || resp.Removed != 1 {
		t.Errorf("second sync = %+v, want added 0 removed 1", resp)
	}
}

func TestPlaylistEndpoints(t *testing.T) {
	env := newTestEnv(t)

	audio := buildTaggedMP3(id3TextFrame("TIT2", "Listed"))
	env.upload(t, "listed.mp3", audio)

	track, err := env.catalog.GetTrackByFile("listed.mp3")
	if err != nil {
		t.Fatal(err)
	}

	// Create
	body := bytes.NewBufferString(`{"name":"Favorites","description":"test set"}`)
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/playlists", body))
	if rec.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}

	// Add a track
	addBody := bytes.NewBufferString(`{"trackId":` + fmtInt(track.ID) + `}`)
	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/playlists/"+fmtInt(created.ID)+"/tracks", addBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("add track status = %d: %s", rec.Code, rec.Body.String())
	}

	// List playlist tracks
	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/playlists/"+fmtInt(created.ID)+"/tracks", nil))
	var tracks []models.Track
	if err := json.NewDecoder(rec.Body).Decode(&tracks); err != nil {
		t.Fatal(err)
	}
	if len(tracks) != 1 || tracks[0].File != "listed.mp3" {
		t.Errorf("playlist tracks = %+v", tracks)
	}

	// Delete the playlist
	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/playlists/"+fmtInt(created.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var health struct {
		Status  string `json:"status"`
		Catalog string `json:"catalog"`
		Storage string `json:"storage"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Catalog != "ok" || health.Storage != "ok" {
		t.Errorf("health = %+v", health)
	}
}

func fmtInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

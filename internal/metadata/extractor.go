package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"cadenza/pkg/models"

	"github.com/dhowden/tag"
	"github.com/sirupsen/logrus"
)

// ErrNoPicture signals that a tag block parsed cleanly but carries no
// embedded picture. Callers treat it as "cover absent", not as a parse
// failure.
var ErrNoPicture = errors.New("no embedded picture")

// Picture is an embedded image with the MIME format declared by the tag.
// Format is taken as-is from the container, never re-derived from the file
// extension.
type Picture struct {
	Format string
	Data   []byte
}

// Tags holds the descriptive fields parsed from an audio container.
type Tags struct {
	Title       string
	Artist      string
	Album       string
	TrackNumber int
	Pictures    []Picture
}

// Extractor parses embedded tag metadata from audio file buffers. It
// understands the tag formats of MP3 (ID3v1/v2), FLAC (Vorbis comment) and
// MP4 containers.
type Extractor struct {
	supportedFormats []string
	logger           *logrus.Logger
}

// NewExtractor creates a new metadata extractor
func NewExtractor(supportedFormats []string) *Extractor {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &Extractor{
		supportedFormats: supportedFormats,
		logger:           logger,
	}
}

// Extract parses the tag block of the given audio buffer.
func (e *Extractor) Extract(data []byte) (Tags, error) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return Tags{}, fmt.Errorf("parse tags: %w", err)
	}

	tags := Tags{
		Title:  m.Title(),
		Artist: m.Artist(),
		Album:  m.Album(),
	}
	tags.TrackNumber, _ = m.Track()

	if pic := m.Picture(); pic != nil {
		format := pic.MIMEType
		if format == "" {
			format = SniffImageFormat(pic.Data)
		}
		tags.Pictures = append(tags.Pictures, Picture{Format: format, Data: pic.Data})
	}

	return tags, nil
}

// FrontCover returns the first embedded picture of the buffer, or
// ErrNoPicture when the tags parse cleanly but contain none.
func (e *Extractor) FrontCover(data []byte) (Picture, error) {
	tags, err := e.Extract(data)
	if err != nil {
		return Picture{}, err
	}
	if len(tags.Pictures) == 0 {
		return Picture{}, ErrNoPicture
	}
	return tags.Pictures[0], nil
}

// TrackFromObject builds a catalog row for a stored object, falling back to
// the file name and placeholder fields when the buffer carries no usable
// tags. It never fails: an untagged or corrupt file still gets a row.
func (e *Extractor) TrackFromObject(file string, data []byte) models.Track {
	track := models.Track{
		File:   file,
		Title:  strings.TrimSuffix(path.Base(file), path.Ext(file)),
		Artist: "Unknown Artist",
		Album:  "Unknown Album",
		Size:   int64(len(data)),
	}

	duration, err := e.Duration(file, data)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"file":  file,
			"error": err.Error(),
		}).Warn("Failed to calculate duration, setting to 0")
		duration = 0
	}
	track.Duration = duration

	tags, err := e.Extract(data)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"file":  file,
			"error": err.Error(),
		}).Warn("Failed to extract metadata, using filename")
		return track
	}

	if tags.Title != "" {
		track.Title = tags.Title
	}
	if tags.Artist != "" {
		track.Artist = tags.Artist
	}
	if tags.Album != "" {
		track.Album = tags.Album
	}
	track.TrackNumber = tags.TrackNumber
	track.HasCover = len(tags.Pictures) > 0

	return track
}

// SniffImageFormat guesses an image MIME type from magic bytes. Used only as
// a fallback when the tag declares no format for an embedded picture.
func SniffImageFormat(data []byte) string {
	if len(data) < 4 {
		return "application/octet-stream"
	}

	if data[0] == 0xFF && data[1] == 0xD8 {
		return "image/jpeg"
	}
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 {
		return "image/gif"
	}

	return "application/octet-stream"
}

// IsAudioFile checks if a file name has a supported audio extension
func (e *Extractor) IsAudioFile(file string) bool {
	ext := strings.ToLower(path.Ext(file))
	for _, format := range e.supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

// ContentTypeFor returns the content type served for an audio file, derived
// from its extension via a fixed table. Unknown extensions default to
// audio/mpeg; this is a deliberate heuristic, not content sniffing.
func ContentTypeFor(file string) string {
	switch strings.ToLower(path.Ext(file)) {
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}

package models

import "time"

// Track represents an audio file in the library catalog. File is the logical
// identifier of the stored object; it is the key clients use against the
// /media endpoints and is decoupled from any real filesystem path.
type Track struct {
	ID          int64     `json:"id"`
	File        string    `json:"file"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Album       string    `json:"album"`
	TrackNumber int       `json:"trackNumber"`
	Duration    int       `json:"duration"` // in seconds
	Size        int64     `json:"fileSize"`
	Owner       string    `json:"owner,omitempty"`
	HasCover    bool      `json:"hasCover"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TrackMetadata is the response shape of the /api/metadata endpoint. Picture
// carries the first embedded cover as a data: URL, or null when absent.
type TrackMetadata struct {
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Album    string  `json:"album"`
	Duration int     `json:"duration"`
	Picture  *string `json:"picture"`
}

// Playlist represents a user-created playlist
type Playlist struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	TrackCount  int       `json:"trackCount"`
}

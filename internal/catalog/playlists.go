package catalog

import (
	"cadenza/pkg/models"
)

// CreatePlaylist creates a new playlist and returns its ID.
func (c *Catalog) CreatePlaylist(name, description string) (int64, error) {
	result, err := c.conn.Exec(
		"INSERT INTO playlists (name, description) VALUES (?, ?)",
		name, description)
	if err != nil {
		c.logger.WithError(err).WithField("name", name).Error("Failed to create playlist")
		return 0, err
	}
	return result.LastInsertId()
}

// GetAllPlaylists returns all playlists with their track counts.
func (c *Catalog) GetAllPlaylists() ([]models.Playlist, error) {
	rows, err := c.conn.Query(`
		SELECT p.id, p.name, COALESCE(p.description, ''), p.created_at, COUNT(pt.track_id)
		FROM playlists p
		LEFT JOIN playlist_tracks pt ON p.id = pt.playlist_id
		GROUP BY p.id
		ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []models.Playlist
	for rows.Next() {
		var p models.Playlist
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.TrackCount); err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}
	return playlists, rows.Err()
}

// UpdatePlaylist updates a playlist's name and description.
func (c *Catalog) UpdatePlaylist(playlistID int64, name, description string) error {
	_, err := c.conn.Exec(
		"UPDATE playlists SET name = ?, description = ? WHERE id = ?",
		name, description, playlistID)
	return err
}

// DeletePlaylist removes a playlist; its track entries cascade away.
func (c *Catalog) DeletePlaylist(playlistID int64) error {
	_, err := c.conn.Exec("DELETE FROM playlists WHERE id = ?", playlistID)
	return err
}

// AddTrackToPlaylist appends a track to the end of a playlist. Adding a
// track that is already present is a no-op.
func (c *Catalog) AddTrackToPlaylist(playlistID, trackID int64) error {
	_, err := c.conn.Exec(`
		INSERT INTO playlist_tracks (playlist_id, track_id, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM playlist_tracks WHERE playlist_id = ?))
		ON CONFLICT (playlist_id, track_id) DO NOTHING`,
		playlistID, trackID, playlistID)
	return err
}

// RemoveTrackFromPlaylist removes a track from a playlist.
func (c *Catalog) RemoveTrackFromPlaylist(playlistID, trackID int64) error {
	_, err := c.conn.Exec(
		"DELETE FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?",
		playlistID, trackID)
	return err
}

// GetPlaylistTracks returns a playlist's tracks in playlist order.
func (c *Catalog) GetPlaylistTracks(playlistID int64) ([]models.Track, error) {
	rows, err := c.conn.Query(`
		SELECT t.id, t.file, t.title, t.artist, t.album, t.track_number, t.duration, t.file_size, t.owner, t.has_cover, t.created_at
		FROM tracks t
		JOIN playlist_tracks pt ON t.id = pt.track_id
		WHERE pt.playlist_id = ?
		ORDER BY pt.position`,
		playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

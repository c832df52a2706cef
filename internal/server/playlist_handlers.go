package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// handlePlaylists serves GET (list) and POST (create) on /api/playlists.
func (ms *MediaServer) handlePlaylists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		ms.handleGetPlaylists(w, r)
	case http.MethodPost:
		ms.handleCreatePlaylist(w, r)
	default:
		ms.respondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed", nil)
	}
}

// handleGetPlaylists returns all playlists (with track counts) as JSON.
func (ms *MediaServer) handleGetPlaylists(w http.ResponseWriter, r *http.Request) {
	playlists, err := ms.catalog.GetAllPlaylists()
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlists", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, playlists)
}

// handleCreatePlaylist creates a new playlist (POST json name/description).
func (ms *MediaServer) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if req.Name == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Playlist name is required", nil)
		return
	}

	id, err := ms.catalog.CreatePlaylist(req.Name, req.Description)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error creating playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]interface{}{
		"id":      id,
		"message": "Playlist created successfully",
	})
}

// playlistIDFromPath parses the playlist ID path segment of
// /api/playlists/{id}/... routes.
func playlistIDFromPath(path string) (int64, bool) {
	pathParts := strings.Split(path, "/")
	if len(pathParts) < 4 {
		return 0, false
	}
	id, err := strconv.ParseInt(pathParts[3], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleGetPlaylistTracks returns tracks contained in the specified playlist.
func (ms *MediaServer) handleGetPlaylistTracks(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist ID", nil)
		return
	}

	tracks, err := ms.catalog.GetPlaylistTracks(playlistID)
	if err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error retrieving playlist tracks", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, tracks)
}

// handleAddTrackToPlaylist appends a track to a playlist (POST json trackId).
func (ms *MediaServer) handleAddTrackToPlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist ID", nil)
		return
	}

	var req struct {
		TrackID int64 `json:"trackId"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if err := ms.catalog.AddTrackToPlaylist(playlistID, req.TrackID); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error adding track to playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Track added to playlist"})
}

// handleRemoveTrackFromPlaylist removes a track from a playlist
// (DELETE /api/playlists/{id}/tracks/{trackId}).
func (ms *MediaServer) handleRemoveTrackFromPlaylist(w http.ResponseWriter, r *http.Request) {
	pathParts := strings.Split(r.URL.Path, "/")
	if len(pathParts) < 6 {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist or track ID", nil)
		return
	}

	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist ID", nil)
		return
	}

	trackID, err := strconv.ParseInt(pathParts[5], 10, 64)
	if err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid track ID", nil)
		return
	}

	if err := ms.catalog.RemoveTrackFromPlaylist(playlistID, trackID); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error removing track from playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Track removed from playlist"})
}

// handleDeletePlaylist deletes a playlist (DELETE).
func (ms *MediaServer) handleDeletePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist ID", nil)
		return
	}

	if err := ms.catalog.DeletePlaylist(playlistID); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error deleting playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Playlist deleted"})
}

// handleUpdatePlaylist updates playlist name/description (PUT json).
func (ms *MediaServer) handleUpdatePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID, ok := playlistIDFromPath(r.URL.Path)
	if !ok {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid playlist ID", nil)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ms.respondWithError(w, r, http.StatusBadRequest, "Invalid JSON", err)
		return
	}

	if req.Name == "" {
		ms.respondWithError(w, r, http.StatusBadRequest, "Playlist name is required", nil)
		return
	}

	if err := ms.catalog.UpdatePlaylist(playlistID, req.Name, req.Description); err != nil {
		ms.respondWithError(w, r, http.StatusInternalServerError, "Error updating playlist", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	ms.respondJSON(w, map[string]string{"message": "Playlist updated successfully"})
}

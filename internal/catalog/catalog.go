package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cadenza/pkg/models"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when no catalog row exists for the requested
// logical file identifier.
var ErrNotFound = errors.New("track not found")

// Catalog wraps a *sql.DB providing higher-level helper methods for the
// library's relational store. It is safe for concurrent use because the
// underlying *sql.DB is concurrency-safe.
type Catalog struct {
	conn   *sql.DB
	logger *logrus.Logger

	// Prepared statements for hot paths
	insertTrackStmt    *sql.Stmt
	updateTrackStmt    *sql.Stmt
	getTrackByFileStmt *sql.Stmt
	trackExistsStmt    *sql.Stmt
	removeTrackStmt    *sql.Stmt
	searchTracksStmt   *sql.Stmt
}

// Open opens (or creates) a SQLite catalog at the provided path and ensures
// all required tables and indices exist. It also applies lightweight
// performance-oriented pragmas (WAL, cache sizing). Caller should Close() it
// when finished.
func Open(dbPath string) (*Catalog, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	conn, err := sql.Open("sqlite3", dbPath+"?cache=shared&mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite works better with fewer connections
	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(15 * time.Minute)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=2000;",
		"PRAGMA temp_store=memory;",
		"PRAGMA foreign_keys=ON;",
	}

	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to set pragma")
		}
	}

	c := &Catalog{
		conn:   conn,
		logger: logger,
	}

	if err := c.createTables(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if err := c.prepareStatements(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	logger.WithField("catalog_path", dbPath).Info("Catalog initialized successfully")
	return c, nil
}

// createTables creates tables and indices if they do not already exist. This
// is idempotent and safe to call multiple times.
func (c *Catalog) createTables() error {
	tracksTable := `
	CREATE TABLE IF NOT EXISTS tracks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		file TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		artist TEXT NOT NULL,
		album TEXT NOT NULL,
		track_number INTEGER DEFAULT 0,
		duration INTEGER DEFAULT 0,
		file_size INTEGER NOT NULL,
		owner TEXT DEFAULT '',
		has_cover BOOLEAN DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	playlistsTable := `
	CREATE TABLE IF NOT EXISTS playlists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	playlistTracksTable := `
	CREATE TABLE IF NOT EXISTS playlist_tracks (
		playlist_id INTEGER,
		track_id INTEGER,
		position INTEGER,
		added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (playlist_id) REFERENCES playlists(id) ON DELETE CASCADE,
		FOREIGN KEY (track_id) REFERENCES tracks(id) ON DELETE CASCADE,
		PRIMARY KEY (playlist_id, track_id)
	);`

	indices := []string{
		"CREATE INDEX IF NOT EXISTS idx_tracks_artist ON tracks(artist);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_album ON tracks(album);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_search ON tracks(title, artist, album);",
		"CREATE INDEX IF NOT EXISTS idx_tracks_owner ON tracks(owner);",
		"CREATE INDEX IF NOT EXISTS idx_playlist_tracks_position ON playlist_tracks(playlist_id, position);",
	}

	tables := []string{tracksTable, playlistsTable, playlistTracksTable}
	for _, table := range tables {
		if _, err := c.conn.Exec(table); err != nil {
			return err
		}
	}

	for _, index := range indices {
		if _, err := c.conn.Exec(index); err != nil {
			return err
		}
	}

	return nil
}

// prepareStatements prepares commonly used SQL statements
func (c *Catalog) prepareStatements() error {
	var err error

	c.insertTrackStmt, err = c.conn.Prepare(`
		INSERT INTO tracks (file, title, artist, album, track_number, duration, file_size, owner, has_cover)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert track statement: %w", err)
	}

	c.updateTrackStmt, err = c.conn.Prepare(`
		UPDATE tracks SET title = ?, artist = ?, album = ?, track_number = ?, duration = ?, file_size = ?, owner = ?, has_cover = ?
		WHERE file = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare update track statement: %w", err)
	}

	c.getTrackByFileStmt, err = c.conn.Prepare(`
		SELECT id, file, title, artist, album, track_number, duration, file_size, owner, has_cover, created_at
		FROM tracks WHERE file = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare get track statement: %w", err)
	}

	c.trackExistsStmt, err = c.conn.Prepare(`
		SELECT COUNT(*) FROM tracks WHERE file = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare track exists statement: %w", err)
	}

	c.removeTrackStmt, err = c.conn.Prepare(`
		DELETE FROM tracks WHERE file = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare remove track statement: %w", err)
	}

	c.searchTracksStmt, err = c.conn.Prepare(`
		SELECT id, file, title, artist, album, track_number, duration, file_size, owner, has_cover, created_at
		FROM tracks
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY artist, album, track_number, title`)
	if err != nil {
		return fmt.Errorf("failed to prepare search tracks statement: %w", err)
	}

	return nil
}

// InsertTrack inserts a new track or updates an existing track (matched by
// its logical file identifier) returning the track's catalog ID.
func (c *Catalog) InsertTrack(track models.Track) (int64, error) {
	var existingID int64
	err := c.conn.QueryRow("SELECT id FROM tracks WHERE file = ?", track.File).Scan(&existingID)
	if err == nil {
		_, err = c.updateTrackStmt.Exec(
			track.Title, track.Artist, track.Album, track.TrackNumber,
			track.Duration, track.Size, track.Owner, track.HasCover,
			track.File)
		if err != nil {
			c.logger.WithError(err).WithField("file", track.File).Error("Failed to update existing track")
		}
		return existingID, err
	}

	result, err := c.insertTrackStmt.Exec(
		track.File, track.Title, track.Artist, track.Album, track.TrackNumber,
		track.Duration, track.Size, track.Owner, track.HasCover)
	if err != nil {
		c.logger.WithError(err).WithField("file", track.File).Error("Failed to insert new track")
		return 0, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		c.logger.WithError(err).Error("Failed to get last insert ID")
		return 0, err
	}

	return id, nil
}

// GetTrackByFile returns a single track by its logical file identifier.
func (c *Catalog) GetTrackByFile(file string) (*models.Track, error) {
	var track models.Track
	err := c.getTrackByFileStmt.QueryRow(file).Scan(
		&track.ID, &track.File, &track.Title, &track.Artist, &track.Album,
		&track.TrackNumber, &track.Duration, &track.Size,
		&track.Owner, &track.HasCover, &track.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		c.logger.WithError(err).WithField("file", file).Error("Failed to get track")
		return nil, err
	}
	return &track, nil
}

// GetAllTracks returns all tracks ordered by artist/album/track/title.
func (c *Catalog) GetAllTracks() ([]models.Track, error) {
	rows, err := c.conn.Query(`
		SELECT id, file, title, artist, album, track_number, duration, file_size, owner, has_cover, created_at
		FROM tracks
		ORDER BY artist, album, track_number, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// GetTracksSortedByAlbum returns all tracks ordered by album/track/title.
func (c *Catalog) GetTracksSortedByAlbum() ([]models.Track, error) {
	rows, err := c.conn.Query(`
		SELECT id, file, title, artist, album, track_number, duration, file_size, owner, has_cover, created_at
		FROM tracks
		ORDER BY album, track_number, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// SearchTracks performs a simple LIKE-based search over title, artist and
// album.
func (c *Catalog) SearchTracks(query string) ([]models.Track, error) {
	searchQuery := "%" + query + "%"
	rows, err := c.searchTracksStmt.Query(searchQuery, searchQuery, searchQuery)
	if err != nil {
		c.logger.WithError(err).WithField("query", query).Error("Failed to search tracks")
		return nil, err
	}
	defer rows.Close()
	return scanTrackRows(rows)
}

// Files returns the logical identifiers of every cataloged track. Used by
// the library sync to diff the catalog against the object store.
func (c *Catalog) Files() ([]string, error) {
	rows, err := c.conn.Query("SELECT file FROM tracks")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []string
	for rows.Next() {
		var file string
		if err := rows.Scan(&file); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

// CountTracks returns the total number of cataloged tracks.
func (c *Catalog) CountTracks() (int, error) {
	var count int
	err := c.conn.QueryRow("SELECT COUNT(*) FROM tracks").Scan(&count)
	return count, err
}

// RemoveTrackByFile deletes a track row identified by its logical file
// identifier.
func (c *Catalog) RemoveTrackByFile(file string) error {
	_, err := c.removeTrackStmt.Exec(file)
	if err != nil {
		c.logger.WithError(err).WithField("file", file).Error("Failed to remove track")
	}
	return err
}

// TrackExists returns true if a track exists with the given file identifier.
func (c *Catalog) TrackExists(file string) (bool, error) {
	var count int
	err := c.trackExistsStmt.QueryRow(file).Scan(&count)
	if err != nil {
		c.logger.WithError(err).WithField("file", file).Error("Failed to check if track exists")
		return false, err
	}
	return count > 0, nil
}

// Close closes the underlying database connection and prepared statements.
func (c *Catalog) Close() error {
	statements := []*sql.Stmt{
		c.insertTrackStmt,
		c.updateTrackStmt,
		c.getTrackByFileStmt,
		c.trackExistsStmt,
		c.removeTrackStmt,
		c.searchTracksStmt,
	}

	for _, stmt := range statements {
		if stmt != nil {
			if err := stmt.Close(); err != nil {
				c.logger.WithError(err).Error("Failed to close prepared statement")
			}
		}
	}

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// scanTrackRows scans standard track result sets into a slice of
// models.Track. Callers must have already deferred rows.Close().
func scanTrackRows(rows *sql.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		var track models.Track
		if err := rows.Scan(&track.ID, &track.File, &track.Title, &track.Artist, &track.Album,
			&track.TrackNumber, &track.Duration, &track.Size,
			&track.Owner, &track.HasCover, &track.CreatedAt); err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}

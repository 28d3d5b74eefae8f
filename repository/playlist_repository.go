package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"harmonyhub/db"
	"harmonyhub/model"
)

// PlaylistRepository defines the interface for playlist data operations.
// The virtual "library" playlist is never stored here.
type PlaylistRepository interface {
	CreatePlaylist(playlist *model.Playlist) error
	GetPlaylistByID(id string) (*model.Playlist, error)
	GetPlaylistsByUserID(userID int64) ([]*model.Playlist, error)
	AddSongToPlaylist(ownerID int64, playlistID, songID string) error
}

// mysqlPlaylistRepository implements PlaylistRepository for MySQL.
type mysqlPlaylistRepository struct {
	DB *sql.DB
}

// NewMySQLPlaylistRepository creates a new instance of mysqlPlaylistRepository.
func NewMySQLPlaylistRepository() PlaylistRepository {
	return &mysqlPlaylistRepository{DB: db.DB}
}

// CreatePlaylist adds a new playlist to the database.
func (r *mysqlPlaylistRepository) CreatePlaylist(playlist *model.Playlist) error {
	if playlist.SongIDs == nil {
		playlist.SongIDs = []string{}
	}
	songIDs, err := json.Marshal(playlist.SongIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal song ids: %w", err)
	}

	query := `INSERT INTO playlists (id, user_id, name, song_ids, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now
	if _, err := r.DB.Exec(query, playlist.ID, playlist.UserID, playlist.Name, songIDs, now, now); err != nil {
		return fmt.Errorf("failed to execute CreatePlaylist: %w", err)
	}
	return nil
}

// GetPlaylistByID retrieves a playlist by its ID.
func (r *mysqlPlaylistRepository) GetPlaylistByID(id string) (*model.Playlist, error) {
	query := `SELECT id, user_id, name, song_ids, created_at, updated_at FROM playlists WHERE id = ?`
	playlist, err := scanPlaylist(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Playlist not found
		}
		return nil, fmt.Errorf("failed to scan playlist by ID %s: %w", id, err)
	}
	return playlist, nil
}

// GetPlaylistsByUserID retrieves all playlists owned by the given user.
func (r *mysqlPlaylistRepository) GetPlaylistsByUserID(userID int64) ([]*model.Playlist, error) {
	query := `SELECT id, user_id, name, song_ids, created_at, updated_at FROM playlists WHERE user_id = ? ORDER BY created_at ASC`
	rows, err := r.DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists for user %d: %w", userID, err)
	}
	defer rows.Close()

	playlists := make([]*model.Playlist, 0)
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan playlist row: %w", err)
		}
		playlists = append(playlists, playlist)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return playlists, nil
}

// AddSongToPlaylist appends songID to the playlist's song list. Membership is
// a monotonic union: the list only ever grows, and duplicates are not
// rejected here (the UI suppresses them).
func (r *mysqlPlaylistRepository) AddSongToPlaylist(ownerID int64, playlistID, songID string) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT user_id, song_ids FROM playlists WHERE id = ? FOR UPDATE`, playlistID)
	var userID int64
	var rawSongIDs []byte
	if err := row.Scan(&userID, &rawSongIDs); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read playlist %s: %w", playlistID, err)
	}
	if userID != ownerID {
		return ErrPermissionDenied
	}

	var songIDs []string
	if err := json.Unmarshal(rawSongIDs, &songIDs); err != nil {
		return fmt.Errorf("failed to unmarshal song ids for playlist %s: %w", playlistID, err)
	}
	songIDs = append(songIDs, songID)

	updated, err := json.Marshal(songIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal song ids: %w", err)
	}
	if _, err := tx.Exec(`UPDATE playlists SET song_ids = ?, updated_at = ? WHERE id = ?`, updated, time.Now(), playlistID); err != nil {
		return fmt.Errorf("failed to update playlist %s: %w", playlistID, err)
	}

	return tx.Commit()
}

func scanPlaylist(row interface{ Scan(...interface{}) error }) (*model.Playlist, error) {
	playlist := &model.Playlist{}
	var rawSongIDs []byte
	err := row.Scan(&playlist.ID, &playlist.UserID, &playlist.Name, &rawSongIDs, &playlist.CreatedAt, &playlist.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(rawSongIDs, &playlist.SongIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal song ids: %w", err)
	}
	return playlist, nil
}

package repository

import (
	"database/sql"
	"fmt"
	"time"

	"harmonyhub/db"
	"harmonyhub/model"
)

// SongRepository defines the interface for song data operations.
type SongRepository interface {
	CreateSong(song *model.Song) error
	GetSongByID(id string) (*model.Song, error)
	GetAllSongs() ([]*model.Song, error)
	GetSongsByUserID(userID int64) ([]*model.Song, error)
	UpdateSong(ownerID int64, song *model.Song) error
	DeleteSong(ownerID int64, id string) error
}

// mysqlSongRepository implements SongRepository for MySQL.
type mysqlSongRepository struct {
	DB *sql.DB
}

// NewMySQLSongRepository creates a new instance of mysqlSongRepository.
func NewMySQLSongRepository() SongRepository {
	return &mysqlSongRepository{DB: db.DB}
}

const songColumns = `id, user_id, title, artist, genre, album_art_url, file_url, duration, created_at, updated_at`

func scanSong(row interface{ Scan(...interface{}) error }) (*model.Song, error) {
	song := &model.Song{}
	var albumArt sql.NullString
	err := row.Scan(&song.ID, &song.UserID, &song.Title, &song.Artist, &song.Genre,
		&albumArt, &song.FileURL, &song.Duration, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	song.AlbumArtURL = albumArt.String
	return song, nil
}

// CreateSong adds a new song to the database.
func (r *mysqlSongRepository) CreateSong(song *model.Song) error {
	query := `INSERT INTO songs (id, user_id, title, artist, genre, album_art_url, file_url, duration, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.DB.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for CreateSong: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now
	_, err = stmt.Exec(song.ID, song.UserID, song.Title, song.Artist, song.Genre,
		song.AlbumArtURL, song.FileURL, song.Duration, now, now)
	if err != nil {
		return fmt.Errorf("failed to execute CreateSong: %w", err)
	}
	return nil
}

// GetSongByID retrieves a song by its ID.
func (r *mysqlSongRepository) GetSongByID(id string) (*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE id = ?`
	song, err := scanSong(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Song not found
		}
		return nil, fmt.Errorf("failed to scan song by ID %s: %w", id, err)
	}
	return song, nil
}

// GetAllSongs retrieves every song, in collection order (creation time).
func (r *mysqlSongRepository) GetAllSongs() ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs ORDER BY created_at ASC`
	return r.querySongs(query)
}

// GetSongsByUserID retrieves all songs owned by the given user.
func (r *mysqlSongRepository) GetSongsByUserID(userID int64) ([]*model.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs WHERE user_id = ? ORDER BY created_at ASC`
	return r.querySongs(query, userID)
}

func (r *mysqlSongRepository) querySongs(query string, args ...interface{}) ([]*model.Song, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}

	return songs, nil
}

// UpdateSong updates the user-editable fields of a song owned by ownerID.
func (r *mysqlSongRepository) UpdateSong(ownerID int64, song *model.Song) error {
	query := `UPDATE songs SET title = ?, artist = ?, genre = ?, album_art_url = ?, updated_at = ?
	           WHERE id = ? AND user_id = ?`
	res, err := r.DB.Exec(query, song.Title, song.Artist, song.Genre, song.AlbumArtURL, time.Now(), song.ID, ownerID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdateSong for song %s: %w", song.ID, err)
	}
	return r.checkOwnedWrite(res, song.ID)
}

// DeleteSong removes a song owned by ownerID. Playlist references to the
// deleted id are left dangling; the resolver drops them at read time.
func (r *mysqlSongRepository) DeleteSong(ownerID int64, id string) error {
	res, err := r.DB.Exec(`DELETE FROM songs WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to execute DeleteSong for song %s: %w", id, err)
	}
	return r.checkOwnedWrite(res, id)
}

// checkOwnedWrite distinguishes "no such song" from "not the owner" after an
// owner-scoped write matched zero rows.
func (r *mysqlSongRepository) checkOwnedWrite(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	existing, err := r.GetSongByID(id)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	return ErrPermissionDenied
}

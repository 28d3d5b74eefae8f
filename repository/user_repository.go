package repository

import (
	"database/sql"
	"fmt"
	"time"

	"harmonyhub/db"
	"harmonyhub/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(user *model.User) (int64, error)
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	GetUserByEmail(email string) (*model.User, error)
	UpdatePasswordHash(userID int64, passwordHash string) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	DB *sql.DB
}

// NewMySQLUserRepository creates a new instance of mysqlUserRepository.
func NewMySQLUserRepository() UserRepository {
	return &mysqlUserRepository{DB: db.DB}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(user *model.User) (int64, error) {
	query := `INSERT INTO users (username, email, password_hash, avatar_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	res, err := r.DB.Exec(query, user.Username, user.Email, user.PasswordHash, user.AvatarURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateUser: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateUser: %w", err)
	}
	return id, nil
}

const userColumns = `id, username, email, password_hash, avatar_url, created_at, updated_at`

func (r *mysqlUserRepository) getUser(query string, arg interface{}) (*model.User, error) {
	user := &model.User{}
	var avatar sql.NullString
	err := r.DB.QueryRow(query, arg).Scan(&user.ID, &user.Username, &user.Email,
		&user.PasswordHash, &avatar, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	user.AvatarURL = avatar.String
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	return r.getUser(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetUserByUsername retrieves a user by username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	return r.getUser(`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetUserByEmail retrieves a user by email.
func (r *mysqlUserRepository) GetUserByEmail(email string) (*model.User, error) {
	return r.getUser(`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// UpdatePasswordHash replaces the stored password hash (password reset).
func (r *mysqlUserRepository) UpdatePasswordHash(userID int64, passwordHash string) error {
	res, err := r.DB.Exec(`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to execute UpdatePasswordHash for user %d: %w", userID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

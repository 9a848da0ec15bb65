package repository

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mycloudhq/mycloud/internal/model"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrDuplicateEmail    = errors.New("email already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByUsername(username string) (*model.User, error)
	All() ([]*model.User, error)
	Update(user *model.User) error
	Delete(id string) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, username, email, password_hash, is_admin, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(query, user.ID, user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.CreatedAt)
	if err != nil {
		return uniqueViolation(err)
	}

	return nil
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) ByUsername(username string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE username = $1`

	err := r.db.Get(user, query, username)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}

	return user, err
}

func (r *userRepository) All() ([]*model.User, error) {
	var users []*model.User
	query := `SELECT * FROM users ORDER BY created_at, id`

	err := r.db.Select(&users, query)
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) Update(user *model.User) error {
	query := `UPDATE users SET username = $1, email = $2, password_hash = $3, is_admin = $4 WHERE id = $5`

	result, err := r.db.Exec(query, user.Username, user.Email, user.PasswordHash, user.IsAdmin, user.ID)
	if err != nil {
		return uniqueViolation(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

// uniqueViolation maps unique constraint errors to sentinel errors
// (works for both SQLite and PostgreSQL)
func uniqueViolation(err error) error {
	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") && !strings.Contains(errStr, "duplicate key value") {
		return err
	}
	if strings.Contains(errStr, "username") {
		return ErrDuplicateUsername
	}
	if strings.Contains(errStr, "email") {
		return ErrDuplicateEmail
	}
	return err
}

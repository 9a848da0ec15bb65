package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mycloudhq/mycloud/internal/model"
)

var (
	ErrFileNotFound         = errors.New("file not found")
	ErrDuplicateStorageName = errors.New("storage name already exists")
	ErrDuplicateShareToken  = errors.New("share token already exists")
)

// Usage is the derived per-owner storage aggregate. Computed on demand,
// never cached.
type Usage struct {
	FileCount  int64 `db:"file_count"`
	TotalBytes int64 `db:"total_bytes"`
}

type FileRepository interface {
	Create(file *model.File) error
	ByID(id string) (*model.File, error)
	ByShareToken(token string) (*model.File, error)
	ByOwner(ownerID string) ([]*model.File, error)
	All() ([]*model.File, error)
	Rename(id, newName string) error
	Delete(id string) error
	RecordDownload(id string, at time.Time) error
	ClaimShareToken(id, token string, expiresAt time.Time) (bool, error)
	UsageByOwner(ownerID string) (*Usage, error)
}

type fileRepository struct {
	db *sqlx.DB
}

func NewFileRepository(db *sqlx.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(file *model.File) error {
	query := `INSERT INTO files (id, owner_id, original_name, storage_name, size, comment, uploaded_at, last_download, share_token, share_expires_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(query,
		file.ID,
		file.OwnerID,
		file.OriginalName,
		file.StorageName,
		file.Size,
		file.Comment,
		file.UploadedAt,
		file.LastDownload,
		file.ShareToken,
		file.ShareExpiresAt,
	)
	if err != nil && isUniqueViolation(err) {
		if strings.Contains(err.Error(), "storage_name") {
			return ErrDuplicateStorageName
		}
		return ErrDuplicateShareToken
	}

	return err
}

func (r *fileRepository) ByID(id string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE id = $1`

	err := r.db.Get(file, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

func (r *fileRepository) ByShareToken(token string) (*model.File, error) {
	file := &model.File{}
	query := `SELECT * FROM files WHERE share_token = $1`

	err := r.db.Get(file, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrFileNotFound
	}

	return file, err
}

// ByOwner returns the owner's files ordered by upload time. The id tiebreak
// keeps the ordering deterministic for files uploaded in the same instant.
func (r *fileRepository) ByOwner(ownerID string) ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files WHERE owner_id = $1 ORDER BY uploaded_at, id`

	err := r.db.Select(&files, query, ownerID)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) All() ([]*model.File, error) {
	var files []*model.File
	query := `SELECT * FROM files ORDER BY uploaded_at, id`

	err := r.db.Select(&files, query)
	if err != nil {
		return nil, err
	}

	return files, nil
}

func (r *fileRepository) Rename(id, newName string) error {
	query := `UPDATE files SET original_name = $1 WHERE id = $2`

	result, err := r.db.Exec(query, newName, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *fileRepository) Delete(id string) error {
	query := `DELETE FROM files WHERE id = $1`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrFileNotFound
	}

	return nil
}

func (r *fileRepository) RecordDownload(id string, at time.Time) error {
	query := `UPDATE files SET last_download = $1 WHERE id = $2`

	_, err := r.db.Exec(query, at, id)
	return err
}

// ClaimShareToken sets the share token and expiry only if no token has been
// issued yet. This is a single conditional UPDATE so two concurrent claims on
// the same file cannot both win; the loser sees claimed=false and must read
// back the winner's token. A unique violation on the token column means the
// generated token collided with another file's and is returned as
// ErrDuplicateShareToken so the caller can retry with a fresh one.
func (r *fileRepository) ClaimShareToken(id, token string, expiresAt time.Time) (bool, error) {
	query := `UPDATE files SET share_token = $1, share_expires_at = $2 WHERE id = $3 AND share_token IS NULL`

	result, err := r.db.Exec(query, token, expiresAt, id)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrDuplicateShareToken
		}
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rows > 0, nil
}

func (r *fileRepository) UsageByOwner(ownerID string) (*Usage, error) {
	usage := &Usage{}
	query := `SELECT COUNT(*) AS file_count, COALESCE(SUM(size), 0) AS total_bytes FROM files WHERE owner_id = $1`

	err := r.db.Get(usage, query, ownerID)
	if err != nil {
		return nil, err
	}

	return usage, nil
}

// isUniqueViolation detects unique constraint errors for both SQLite and
// PostgreSQL drivers
func isUniqueViolation(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

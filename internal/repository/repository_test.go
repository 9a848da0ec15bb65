package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mycloudhq/mycloud/internal/db"
	"github.com/mycloudhq/mycloud/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	return database
}

func seedUser(t *testing.T, users UserRepository, username string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$notarealhashnotarealhashnotarealhash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, users.Create(user))
	return user
}

func seedFile(t *testing.T, files FileRepository, ownerID, name string, size int64) *model.File {
	t.Helper()

	id := uuid.New().String()
	file := &model.File{
		ID:           id,
		OwnerID:      ownerID,
		OriginalName: name,
		StorageName:  id + filepath.Ext(name),
		Size:         size,
		UploadedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, files.Create(file))
	return file
}

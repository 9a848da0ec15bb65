package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/mycloudhq/mycloud/internal/db"
	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/storage"
)

type testEnv struct {
	db       *sqlx.DB
	users    repository.UserRepository
	files    repository.FileRepository
	storage  storage.Storage
	fileSvc  *FileService
	shareSvc *ShareService
	userSvc  *UserService
	authSvc  *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	err = db.RunMigrations(database.DB, "sqlite")
	require.NoError(t, err)

	users := repository.NewUserRepository(database)
	files := repository.NewFileRepository(database)
	blobs := storage.NewLocalStorage(t.TempDir())

	fileSvc := NewFileService(files, blobs)
	shareSvc := NewShareService(files, blobs, 7*24*time.Hour)
	userSvc := NewUserService(users, fileSvc)
	authSvc := NewAuthService(users, "test-secret", false, time.Hour)

	return &testEnv{
		db:       database,
		users:    users,
		files:    files,
		storage:  blobs,
		fileSvc:  fileSvc,
		shareSvc: shareSvc,
		userSvc:  userSvc,
		authSvc:  authSvc,
	}
}

func (e *testEnv) registerUser(t *testing.T, username string) *model.User {
	t.Helper()

	user, err := e.authSvc.Register(username, username+"@example.com", "Passw0rd!")
	require.NoError(t, err)
	return user
}

func (e *testEnv) makeAdmin(t *testing.T, user *model.User) *model.User {
	t.Helper()

	user.IsAdmin = true
	require.NoError(t, e.users.Update(user))
	return user
}

func randomID() string {
	return uuid.New().String()
}

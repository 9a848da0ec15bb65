package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mycloudhq/mycloud/internal/config"
	"github.com/mycloudhq/mycloud/internal/db"
	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/service"
	"github.com/mycloudhq/mycloud/internal/storage"
)

type App struct {
	Cfg          *config.Config
	DB           *sqlx.DB
	AuthService  *service.AuthService
	UserService  *service.UserService
	FileService  *service.FileService
	ShareService *service.ShareService
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	fileRepository := repository.NewFileRepository(database)

	// Storage
	blobStorage, err := storage.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// Services
	fileService := service.NewFileService(fileRepository, blobStorage)
	shareService := service.NewShareService(fileRepository, blobStorage, cfg.ShareLinkTTL)
	userService := service.NewUserService(userRepository, fileService)
	authService := service.NewAuthService(userRepository, cfg.JWTSecret, cfg.IsProduction(), cfg.JWTExpiry)

	return &App{
		Cfg:          cfg,
		DB:           database,
		AuthService:  authService,
		UserService:  userService,
		FileService:  fileService,
		ShareService: shareService,
	}, nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

package routes

import (
	"net/http"

	"github.com/mycloudhq/mycloud/internal/app"
	"github.com/mycloudhq/mycloud/internal/handler"
	"github.com/mycloudhq/mycloud/internal/middleware"
)

func SetupRoutes(a *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(a.AuthService, a.Cfg.JWTExpiry)
	profile := handler.NewProfileHandler(a.UserService)
	file := handler.NewFileHandler(a.FileService, a.ShareService, a.UserService, a.Cfg.AppURL, a.Cfg.MaxUploadSize)
	admin := handler.NewAdminHandler(a.UserService)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/auth/register", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// Profile
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(profile.Get))
	mux.HandleFunc("PUT /api/profile", middleware.RequireAuth(profile.Update))

	// Files
	mux.HandleFunc("GET /api/files", middleware.RequireAuth(file.List))
	mux.HandleFunc("POST /api/files", middleware.RequireAuth(file.Upload))
	mux.HandleFunc("GET /api/files/{id}", middleware.RequireAuth(file.Get))
	mux.HandleFunc("PATCH /api/files/{id}", middleware.RequireAuth(file.Rename))
	mux.HandleFunc("DELETE /api/files/{id}", middleware.RequireAuth(file.Delete))
	mux.HandleFunc("GET /api/files/{id}/download", middleware.RequireAuth(file.Download))
	mux.HandleFunc("POST /api/files/{id}/share", middleware.RequireAuth(file.Share))

	// Anonymous share-link access
	mux.HandleFunc("GET /api/shared/{token}", file.SharedDownload)

	// Admin
	mux.HandleFunc("GET /api/admin/users", middleware.RequireAdmin(admin.ListUsers))
	mux.HandleFunc("GET /api/admin/users/{id}/storage", middleware.RequireAdmin(admin.StorageInfo))
	mux.HandleFunc("POST /api/admin/users/{id}/toggle-admin", middleware.RequireAdmin(admin.ToggleAdmin))
	mux.HandleFunc("DELETE /api/admin/users/{id}", middleware.RequireAdmin(admin.DeleteUser))

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.RequestLogging,
		middleware.Auth(a.AuthService, a.UserService),
	)
}

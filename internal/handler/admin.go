package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/mycloudhq/mycloud/internal/ctxkeys"
	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/service"
)

// AdminHandler manages user accounts and aggregate storage views.
// All routes are gated by middleware.RequireAdmin.
type AdminHandler struct {
	userService *service.UserService
}

func NewAdminHandler(userService *service.UserService) *AdminHandler {
	return &AdminHandler{userService: userService}
}

type adminUserResponse struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	FileCount  int64     `json:"file_count"`
	TotalBytes int64     `json:"total_bytes"`
	TotalSize  string    `json:"total_size"`
}

func (h *AdminHandler) toAdminUserResponse(user *model.User) adminUserResponse {
	resp := adminUserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		IsAdmin:   user.IsAdmin,
		CreatedAt: user.CreatedAt,
	}

	usage, err := h.userService.Usage(user.ID)
	if err != nil {
		slog.Warn("failed to compute storage usage", "user_id", user.ID, "error", err)
		return resp
	}

	resp.FileCount = usage.FileCount
	resp.TotalBytes = usage.TotalBytes
	resp.TotalSize = humanize.IBytes(uint64(usage.TotalBytes))
	return resp
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.All()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := make([]adminUserResponse, 0, len(users))
	for _, user := range users {
		resp = append(resp, h.toAdminUserResponse(user))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *AdminHandler) StorageInfo(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	usage, err := h.userService.Usage(user.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"file_count":  usage.FileCount,
		"total_bytes": usage.TotalBytes,
		"total_size":  humanize.IBytes(uint64(usage.TotalBytes)),
	})
}

func (h *AdminHandler) ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	isAdmin, err := h.userService.ToggleAdmin(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"is_admin": isAdmin})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())
	id := r.PathValue("id")

	if id == principal.ID {
		writeError(w, http.StatusBadRequest, CodeValidationError, "id: admins cannot delete their own account")
		return
	}

	err := h.userService.DeleteUser(id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

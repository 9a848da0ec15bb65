package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mycloudhq/mycloud/internal/ctxkeys"
	"github.com/mycloudhq/mycloud/internal/service"
)

type ProfileHandler struct {
	userService *service.UserService
}

func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService: userService}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

type profileUpdateRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	var req profileUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid JSON body")
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, service.ProfileUpdate{
		Username:        req.Username,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCurrentPassword):
			writeError(w, http.StatusBadRequest, CodeValidationError, "current_password: incorrect")
		case errors.Is(err, service.ErrCurrentPasswordRequired):
			writeError(w, http.StatusBadRequest, CodeValidationError, "current_password: required to change password")
		default:
			writeServiceError(w, err)
		}
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(updated))
}

package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mycloudhq/mycloud/internal/ctxkeys"
	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/service"
)

type FileHandler struct {
	fileService   *service.FileService
	shareService  *service.ShareService
	userService   *service.UserService
	appURL        string
	maxUploadSize int64
}

func NewFileHandler(fileService *service.FileService, shareService *service.ShareService, userService *service.UserService, appURL string, maxUploadSize int64) *FileHandler {
	return &FileHandler{
		fileService:   fileService,
		shareService:  shareService,
		userService:   userService,
		appURL:        appURL,
		maxUploadSize: maxUploadSize,
	}
}

type fileResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	StorageName   string     `json:"storage_name"`
	Size          int64      `json:"size"`
	Comment       string     `json:"comment,omitempty"`
	OwnerID       string     `json:"owner_id"`
	OwnerUsername string     `json:"owner_username,omitempty"`
	IsOwner       bool       `json:"is_owner"`
	UploadedAt    time.Time  `json:"uploaded_at"`
	LastDownload  *time.Time `json:"last_download,omitempty"`
	HasShareLink  bool       `json:"has_share_link"`
}

func (h *FileHandler) toFileResponse(file *model.File, principal *model.User, usernames map[string]string) fileResponse {
	return fileResponse{
		ID:            file.ID,
		Name:          file.OriginalName,
		StorageName:   file.StorageName,
		Size:          file.Size,
		Comment:       file.Comment,
		OwnerID:       file.OwnerID,
		OwnerUsername: usernames[file.OwnerID],
		IsOwner:       principal != nil && file.OwnerID == principal.ID,
		UploadedAt:    file.UploadedAt,
		LastDownload:  file.LastDownload,
		HasShareLink:  file.HasShareLink(),
	}
}

// ownerUsernames resolves the owner display names for a listing. Lookups are
// deduplicated per owner; a missing owner just leaves the name blank.
func (h *FileHandler) ownerUsernames(files []*model.File) map[string]string {
	usernames := make(map[string]string)
	for _, file := range files {
		if _, ok := usernames[file.OwnerID]; ok {
			continue
		}
		owner, err := h.userService.ByID(file.OwnerID)
		if err != nil {
			slog.Warn("failed to resolve file owner", "owner_id", file.OwnerID, "error", err)
			usernames[file.OwnerID] = ""
			continue
		}
		usernames[file.OwnerID] = owner.Username
	}
	return usernames
}

func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	files, err := h.fileService.List(principal, r.URL.Query().Get("owner_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	usernames := h.ownerUsernames(files)
	resp := make([]fileResponse, 0, len(files))
	for _, file := range files {
		resp = append(resp, h.toFileResponse(file, principal, usernames))
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "file: multipart file field is required")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "file: multipart file field is required")
		return
	}
	defer part.Close()

	file, err := h.fileService.Upload(principal, header.Filename, r.FormValue("comment"), part)
	if err != nil {
		if errors.Is(err, service.ErrNameRequired) {
			writeError(w, http.StatusBadRequest, CodeValidationError, "file: filename is required")
			return
		}
		slog.Error("upload failed", "error", err, "user_id", principal.ID)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to store file")
		return
	}

	usernames := map[string]string{principal.ID: principal.Username}
	writeJSON(w, http.StatusCreated, h.toFileResponse(file, principal, usernames))
}

func (h *FileHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	file, err := h.fileService.Get(principal, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toFileResponse(file, principal, h.ownerUsernames([]*model.File{file})))
}

type renameRequest struct {
	Name string `json:"name"`
}

func (h *FileHandler) Rename(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "invalid JSON body")
		return
	}

	file, err := h.fileService.Rename(principal, r.PathValue("id"), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toFileResponse(file, principal, h.ownerUsernames([]*model.File{file})))
}

func (h *FileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	err := h.fileService.Delete(principal, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	file, content, err := h.fileService.Download(principal, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer content.Close()

	streamAttachment(w, file, content)
}

func (h *FileHandler) Share(w http.ResponseWriter, r *http.Request) {
	principal := ctxkeys.User(r.Context())

	token, expiresAt, err := h.shareService.EnsureLink(principal, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"share_url":  fmt.Sprintf("%s/api/shared/%s", strings.TrimSuffix(h.appURL, "/"), token),
		"expires_at": expiresAt,
	})
}

// SharedDownload serves a file to an anonymous caller holding a share token.
func (h *FileHandler) SharedDownload(w http.ResponseWriter, r *http.Request) {
	file, content, err := h.shareService.Resolve(r.PathValue("token"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	defer content.Close()

	streamAttachment(w, file, content)
}

// streamAttachment writes the content as a download with the user-facing
// name, never the storage name.
func streamAttachment(w http.ResponseWriter, file *model.File, content io.Reader) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.OriginalName}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", file.Size))

	_, err := io.Copy(w, content)
	if err != nil {
		// Headers are already sent; nothing useful to report to the client
		slog.Warn("failed to stream file content", "file_id", file.ID, "error", err)
	}
}

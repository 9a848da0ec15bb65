package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mycloudhq/mycloud/internal/authz"
	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/storage"
)

var (
	ErrNameRequired = errors.New("file name is required")
)

// FileService owns the file record lifecycle: upload, listing, rename,
// delete and download. Every operation takes an explicit principal and is
// gated through authz; denied access to an existing id reports
// repository.ErrFileNotFound so callers cannot probe for file existence.
type FileService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
}

func NewFileService(fileRepo repository.FileRepository, storage storage.Storage) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		storage:  storage,
	}
}

// Upload streams content to the object store and creates the metadata
// record. The stored size is the byte count the store reports, never a
// client-supplied value. The blob is written first; if the metadata insert
// fails the blob is removed again so no record ever references unwritten
// bytes and no bytes outlive a failed create.
func (s *FileService) Upload(owner *model.User, originalName, comment string, content io.Reader) (*model.File, error) {
	if originalName == "" {
		return nil, ErrNameRequired
	}

	id := uuid.New().String()
	storageName := id + filepath.Ext(originalName)

	size, err := s.storage.Save(storageName, content)
	if err != nil {
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &model.File{
		ID:           id,
		OwnerID:      owner.ID,
		OriginalName: originalName,
		StorageName:  storageName,
		Size:         size,
		Comment:      comment,
		UploadedAt:   time.Now(),
	}

	err = s.fileRepo.Create(file)
	if err != nil {
		delErr := s.storage.Delete(storageName)
		if delErr != nil {
			slog.Error("failed to delete blob during upload cleanup", "error", delErr, "storage_name", storageName)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	return file, nil
}

// Get returns the record if the principal may read it. A denied read on an
// existing id is indistinguishable from a missing id.
func (s *FileService) Get(principal *model.User, id string) (*model.File, error) {
	file, err := s.fileRepo.ByID(id)
	if err != nil {
		return nil, err
	}

	if !authz.Allowed(principal, file, authz.ActionRead) {
		return nil, repository.ErrFileNotFound
	}

	return file, nil
}

// List returns the principal's files, or every file for admins. Admins may
// narrow the listing to one owner via ownerFilter; for non-admins the filter
// is ignored.
func (s *FileService) List(principal *model.User, ownerFilter string) ([]*model.File, error) {
	if !principal.IsAdmin {
		return s.fileRepo.ByOwner(principal.ID)
	}
	if ownerFilter != "" {
		return s.fileRepo.ByOwner(ownerFilter)
	}
	return s.fileRepo.All()
}

// Rename updates the display name only; the storage name is immutable.
func (s *FileService) Rename(principal *model.User, id, newName string) (*model.File, error) {
	file, err := s.Get(principal, id)
	if err != nil {
		return nil, err
	}

	if newName == "" {
		return nil, ErrNameRequired
	}

	err = s.fileRepo.Rename(file.ID, newName)
	if err != nil {
		return nil, err
	}

	file.OriginalName = newName
	return file, nil
}

// Delete removes the metadata record and then best-effort removes the
// backing bytes. A failed blob delete is logged, not surfaced: the record
// must disappear from listings either way, orphaned bytes are reclaimed by
// an external sweep.
func (s *FileService) Delete(principal *model.User, id string) error {
	file, err := s.fileRepo.ByID(id)
	if err != nil {
		return err
	}

	if !authz.Allowed(principal, file, authz.ActionDelete) {
		return repository.ErrFileNotFound
	}

	err = s.fileRepo.Delete(file.ID)
	if err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}

	delErr := s.storage.Delete(file.StorageName)
	if delErr != nil {
		slog.Error("failed to delete blob from storage", "error", delErr, "storage_name", file.StorageName)
	}

	return nil
}

// Download opens the stored content and records the download time.
func (s *FileService) Download(principal *model.User, id string) (*model.File, io.ReadCloser, error) {
	file, err := s.fileRepo.ByID(id)
	if err != nil {
		return nil, nil, err
	}

	if !authz.Allowed(principal, file, authz.ActionDownload) {
		return nil, nil, repository.ErrFileNotFound
	}

	content, err := s.storage.Open(file.StorageName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open stored content: %w", err)
	}

	err = s.fileRepo.RecordDownload(file.ID, time.Now())
	if err != nil {
		slog.Warn("failed to record download", "error", err, "file_id", file.ID)
	}

	return file, content, nil
}

// Usage computes the owner's aggregate file count and total bytes on demand.
func (s *FileService) Usage(ownerID string) (*repository.Usage, error) {
	return s.fileRepo.UsageByOwner(ownerID)
}

// DeleteAllOwnedBy removes every blob belonging to the owner, best-effort.
// The metadata rows are expected to go away with the owner row (FK cascade);
// this only cleans the object store.
func (s *FileService) DeleteAllOwnedBy(ownerID string) error {
	files, err := s.fileRepo.ByOwner(ownerID)
	if err != nil {
		return fmt.Errorf("failed to list owner files: %w", err)
	}

	for _, file := range files {
		err = s.storage.Delete(file.StorageName)
		if err != nil {
			// Log but continue - the blob may already be gone
			slog.Warn("failed to delete blob from storage", "storage_name", file.StorageName, "error", err)
		}
	}

	return nil
}

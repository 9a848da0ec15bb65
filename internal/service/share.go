package service

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mycloudhq/mycloud/internal/authz"
	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/storage"
)

var (
	ErrShareLinkExpired = errors.New("share link has expired")
)

// claimRetries bounds token regeneration on unique-index collisions.
// Collisions on uuid tokens are effectively impossible, so hitting the bound
// means something is wrong with the store.
const claimRetries = 5

// ShareService issues and resolves share links. A link is a capability bound
// 1:1 to a file record: issuing is idempotent and never extends an already
// communicated expiry, resolving grants anonymous download access only.
type ShareService struct {
	fileRepo repository.FileRepository
	storage  storage.Storage
	linkTTL  time.Duration
}

func NewShareService(fileRepo repository.FileRepository, storage storage.Storage, linkTTL time.Duration) *ShareService {
	return &ShareService{
		fileRepo: fileRepo,
		storage:  storage,
		linkTTL:  linkTTL,
	}
}

// EnsureLink returns the file's share token, generating one on first use.
// Re-requesting an existing link returns it unchanged: the expiry window is
// fixed at issuance so a stale link holder cannot gain more lifetime just
// because the owner re-opened the share dialog. Two concurrent first-time
// requests are serialized by a conditional claim in the store; the loser
// reads back and returns the winner's token.
func (s *ShareService) EnsureLink(principal *model.User, fileID string) (string, time.Time, error) {
	file, err := s.fileRepo.ByID(fileID)
	if err != nil {
		return "", time.Time{}, err
	}

	if !authz.Allowed(principal, file, authz.ActionMutate) {
		return "", time.Time{}, repository.ErrFileNotFound
	}

	if file.HasShareLink() {
		return *file.ShareToken, *file.ShareExpiresAt, nil
	}

	expiresAt := time.Now().Add(s.linkTTL)
	for i := 0; i < claimRetries; i++ {
		token := uuid.New().String()

		claimed, err := s.fileRepo.ClaimShareToken(file.ID, token, expiresAt)
		if errors.Is(err, repository.ErrDuplicateShareToken) {
			slog.Warn("share token collision, regenerating", "file_id", file.ID)
			continue
		}
		if err != nil {
			return "", time.Time{}, fmt.Errorf("failed to claim share token: %w", err)
		}

		if claimed {
			return token, expiresAt, nil
		}

		// Lost the race to a concurrent claim: return the winner's link.
		file, err = s.fileRepo.ByID(file.ID)
		if err != nil {
			return "", time.Time{}, err
		}
		if file.HasShareLink() {
			return *file.ShareToken, *file.ShareExpiresAt, nil
		}
		// Claim affected no row yet no token is set; retry.
	}

	return "", time.Time{}, errors.New("failed to issue share token")
}

// Resolve exchanges a share token for the file and its content. An unknown
// token reports ErrFileNotFound; a known token past its expiry reports
// ErrShareLinkExpired so callers can tell a rotted link from one that never
// existed. A successful resolve counts as a download.
func (s *ShareService) Resolve(token string) (*model.File, io.ReadCloser, error) {
	file, err := s.fileRepo.ByShareToken(token)
	if err != nil {
		return nil, nil, err
	}

	if file.ShareLinkExpired(time.Now()) {
		return nil, nil, ErrShareLinkExpired
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

package service

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mycloudhq/mycloud/internal/model"
	"github.com/mycloudhq/mycloud/internal/repository"
	"github.com/mycloudhq/mycloud/internal/validation"
)

var (
	ErrInvalidCurrentPassword  = errors.New("current password is incorrect")
	ErrCurrentPasswordRequired = errors.New("current password is required to set a new password")
)

type UserService struct {
	userRepository repository.UserRepository
	fileService    *FileService
}

func NewUserService(userRepository repository.UserRepository, fileService *FileService) *UserService {
	return &UserService{
		userRepository: userRepository,
		fileService:    fileService,
	}
}

func (s *UserService) ByID(id string) (*model.User, error) {
	return s.userRepository.ByID(id)
}

// ProfileUpdate carries the mutable profile fields. Empty strings mean
// "leave unchanged".
type ProfileUpdate struct {
	Username        string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// UpdateProfile applies the requested changes after re-validating formats
// and, for password changes, the current password. Uniqueness of username
// and email is enforced by the store on commit.
func (s *UserService) UpdateProfile(userID string, update ProfileUpdate) (*model.User, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if update.Username != "" && update.Username != user.Username {
		if err := validation.ValidateUsername(update.Username); err != nil {
			return nil, err
		}
		user.Username = update.Username
	}

	if update.Email != "" {
		email := strings.TrimSpace(strings.ToLower(update.Email))
		if email != user.Email {
			if err := validation.ValidateEmail(email); err != nil {
				return nil, err
			}
			user.Email = email
		}
	}

	if update.NewPassword != "" {
		if update.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}

		err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(update.CurrentPassword))
		if err != nil {
			return nil, ErrInvalidCurrentPassword
		}

		if err := validation.ValidatePassword(update.NewPassword); err != nil {
			return nil, err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(update.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
	}

	err = s.userRepository.Update(user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// All returns every registered user. Admin-only, enforced at the boundary.
func (s *UserService) All() ([]*model.User, error) {
	return s.userRepository.All()
}

// Usage returns the user's derived storage aggregate.
func (s *UserService) Usage(userID string) (*repository.Usage, error) {
	return s.fileService.Usage(userID)
}

// ToggleAdmin flips the admin flag and returns the new value.
func (s *UserService) ToggleAdmin(userID string) (bool, error) {
	user, err := s.userRepository.ByID(userID)
	if err != nil {
		return false, err
	}

	user.IsAdmin = !user.IsAdmin

	err = s.userRepository.Update(user)
	if err != nil {
		return false, fmt.Errorf("failed to update user: %w", err)
	}

	return user.IsAdmin, nil
}

// DeleteUser removes the account. Blobs are cleaned from the object store
// best-effort first; the file metadata rows go away with the user row via
// the FK cascade.
func (s *UserService) DeleteUser(userID string) error {
	err := s.fileService.DeleteAllOwnedBy(userID)
	if err != nil {
		slog.Warn("failed to clean user blobs before delete", "user_id", userID, "error", err)
	}

	err = s.userRepository.Delete(userID)
	if err != nil {
		return err
	}

	return nil
}

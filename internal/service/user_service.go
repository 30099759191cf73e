package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/validation"
)

// UserRepo описывает зависимости UserService от хранилища пользователей.
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error
}

// AvatarStorage сохраняет загруженный аватар и возвращает публичный URL.
type AvatarStorage interface {
	SaveAvatar(userID uuid.UUID, data []byte) (string, error)
}

// UserService отвечает за профили пользователей.
type UserService struct {
	users   UserRepo
	avatars AvatarStorage
}

// NewUserService создаёт сервис профилей.
func NewUserService(users UserRepo, avatars AvatarStorage) *UserService {
	return &UserService{users: users, avatars: avatars}
}

// GetProfile возвращает собственный профиль пользователя.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль")
	}
	return user, nil
}

// GetPublicProfile возвращает публичную проекцию чужого профиля.
// Агрегаты заработанного и потраченного наружу не отдаются.
func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*models.PublicUser, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := user.Public()
	return &public, nil
}

// ProfileInput содержит редактируемые поля профиля.
type ProfileInput struct {
	FirstName string
	LastName  *string
	Username  *string
}

// UpdateProfile обновляет редактируемые поля профиля.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*models.User, error) {
	if err := validation.ValidateLength("имя", input.FirstName, 1, 100); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.Username = input.Username

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить профиль")
	}
	return user, nil
}

// UploadAvatar сохраняет аватар пользователя и обновляет ссылку в профиле.
func (s *UserService) UploadAvatar(ctx context.Context, userID uuid.UUID, data []byte) (string, error) {
	url, err := s.avatars.SaveAvatar(userID, data)
	if err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	if err := s.users.UpdateAvatar(ctx, userID, url); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperror.ErrUserNotFound
		}
		return "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить аватар")
	}
	return url, nil
}

package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
)

// AuthRepository описывает зависимости AuthService от слоя хранилища.
type AuthRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	SetLoginToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ClearLoginToken(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AuthService инкапсулирует аутентификацию: регистрацию по Telegram аккаунту
// и одноразовый токен для входа в веб.
type AuthService struct {
	repo          AuthRepository
	tokenManager  *TokenManager
	loginTokenTTL time.Duration
}

// TelegramInput содержит данные пользователя, которые передаёт бот.
type TelegramInput struct {
	TelegramID int64
	FirstName  string
	LastName   *string
	Username   *string
	AvatarURL  *string
}

// AuthResult возвращает итог аутентификации.
type AuthResult struct {
	User      *models.User
	TokenPair *TokenPair
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(repo AuthRepository, tokenManager *TokenManager, loginTokenTTL time.Duration) *AuthService {
	return &AuthService{
		repo:          repo,
		tokenManager:  tokenManager,
		loginTokenTTL: loginTokenTTL,
	}
}

// AuthenticateTelegram регистрирует или обновляет пользователя по данным из
// Telegram и выдаёт JWT пару. Вызывается ботом при /start.
func (s *AuthService) AuthenticateTelegram(ctx context.Context, in TelegramInput) (*AuthResult, error) {
	if in.TelegramID <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "telegram_id обязателен")
	}
	if in.FirstName == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "имя пользователя обязательно")
	}

	user := &models.User{
		TelegramID: in.TelegramID,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Username:   in.Username,
		AvatarURL:  in.AvatarURL,
	}
	if err := s.repo.Upsert(ctx, user); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить пользователя")
	}

	pair, err := s.tokenManager.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// IssueLoginToken выпускает одноразовый токен для входа в веб.
// В базе хранится только bcrypt-хэш; плейнтекст уходит боту один раз
// и встраивается в ссылку.
func (s *AuthService) IssueLoginToken(ctx context.Context, telegramID int64) (string, error) {
	user, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", apperror.ErrUserNotFound
		}
		return "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось найти пользователя")
	}

	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("auth service: не удалось сгенерировать токен: %w", err)
	}
	token := hex.EncodeToString(raw)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth service: не удалось захешировать токен: %w", err)
	}

	expiresAt := time.Now().Add(s.loginTokenTTL)
	if err := s.repo.SetLoginToken(ctx, user.ID, string(hash), expiresAt); err != nil {
		return "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить токен входа")
	}

	return token, nil
}

// ExchangeLoginToken обменивает одноразовый токен на JWT пару.
// Токен сбрасывается условным UPDATE'ом, поэтому обменять его дважды нельзя
// даже при конкурентных запросах.
func (s *AuthService) ExchangeLoginToken(ctx context.Context, telegramID int64, token string) (*AuthResult, error) {
	if token == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "токен обязателен")
	}

	user, err := s.repo.GetByTelegramID(ctx, telegramID)
	if err != nil {
		// Не раскрываем, существует ли пользователь.
		return nil, apperror.ErrInvalidToken
	}

	if user.LoginTokenHash == nil || user.LoginTokenExpiry == nil {
		return nil, apperror.ErrInvalidToken
	}
	if time.Now().After(*user.LoginTokenExpiry) {
		return nil, apperror.ErrInvalidToken
	}
	if bcrypt.CompareHashAndPassword([]byte(*user.LoginTokenHash), []byte(token)) != nil {
		return nil, apperror.ErrInvalidToken
	}

	cleared, err := s.repo.ClearLoginToken(ctx, user.ID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сбросить токен входа")
	}
	if !cleared {
		// Токен успел обменять конкурентный запрос.
		return nil, apperror.ErrInvalidToken
	}

	pair, err := s.tokenManager.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

// Refresh выпускает новую пару токенов по refresh токену.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokenManager.ParseRefresh(refreshToken)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, apperror.ErrInvalidToken
	}

	pair, err := s.tokenManager.GeneratePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("auth service: не удалось выпустить токены: %w", err)
	}

	return &AuthResult{User: user, TokenPair: pair}, nil
}

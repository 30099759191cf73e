package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	byTelegram map[int64]*models.User
	byID       map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		byTelegram: make(map[int64]*models.User),
		byID:       make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	if u, ok := m.byTelegram[telegramID]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) Upsert(ctx context.Context, user *models.User) error {
	if existing, ok := m.byTelegram[user.TelegramID]; ok {
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.Username = user.Username
		existing.UpdatedAt = time.Now()
		*user = *existing
		return nil
	}
	user.ID = uuid.New()
	user.IsActive = true
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.byTelegram[user.TelegramID] = &stored
	m.byID[user.ID] = &stored
	return nil
}

func (m *mockAuthRepository) SetLoginToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	u, ok := m.byID[userID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LoginTokenHash = &tokenHash
	u.LoginTokenExpiry = &expiresAt
	return nil
}

func (m *mockAuthRepository) ClearLoginToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	u, ok := m.byID[userID]
	if !ok || u.LoginTokenHash == nil {
		return false, nil
	}
	u.LoginTokenHash = nil
	u.LoginTokenExpiry = nil
	return true, nil
}

func newAuthFixture() (*AuthService, *mockAuthRepository) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("access-secret-for-tests", "refresh-secret-for-tests", 15*time.Minute, 720*time.Hour)
	return NewAuthService(repo, tokens, 5*time.Minute), repo
}

func TestAuthService_AuthenticateTelegram(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	res, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 123456, FirstName: "Анна"})
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.User.ID)
	assert.NotEmpty(t, res.TokenPair.AccessToken)
	assert.NotEmpty(t, res.TokenPair.RefreshToken)

	// Повторный /start обновляет данные, а не создаёт второй аккаунт.
	res2, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 123456, FirstName: "Анна Петровна"})
	assert.NoError(t, err)
	assert.Equal(t, res.User.ID, res2.User.ID)
	assert.Equal(t, "Анна Петровна", res2.User.FirstName)
}

func TestAuthService_AuthenticateTelegram_Validation(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 0, FirstName: "Анна"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 42, FirstName: ""})
	assert.True(t, apperror.IsValidation(err))
}

func TestAuthService_LoginTokenFlow(t *testing.T) {
	svc, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 777, FirstName: "Борис"})
	assert.NoError(t, err)

	token, err := svc.IssueLoginToken(ctx, 777)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	res, err := svc.ExchangeLoginToken(ctx, 777, token)
	assert.NoError(t, err)
	assert.NotEmpty(t, res.TokenPair.AccessToken)

	// Токен одноразовый: повторный обмен отклоняется.
	_, err = svc.ExchangeLoginToken(ctx, 777, token)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

func TestAuthService_ExchangeLoginToken_Rejections(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	_, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 888, FirstName: "Вера"})
	assert.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.ExchangeLoginToken(ctx, 888, "")
		assert.True(t, apperror.IsValidation(err))
	})

	t.Run("unknown telegram id", func(t *testing.T) {
		_, err := svc.ExchangeLoginToken(ctx, 999, "whatever")
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("no token issued", func(t *testing.T) {
		_, err := svc.ExchangeLoginToken(ctx, 888, "whatever")
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("wrong token", func(t *testing.T) {
		_, err := svc.IssueLoginToken(ctx, 888)
		assert.NoError(t, err)
		_, err = svc.ExchangeLoginToken(ctx, 888, "not-the-token")
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.IssueLoginToken(ctx, 888)
		assert.NoError(t, err)

		user := repo.byTelegram[888]
		past := time.Now().Add(-time.Minute)
		user.LoginTokenExpiry = &past

		_, err = svc.ExchangeLoginToken(ctx, 888, token)
		assert.ErrorIs(t, err, apperror.ErrInvalidToken)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	svc, repo := newAuthFixture()
	ctx := context.Background()

	res, err := svc.AuthenticateTelegram(ctx, TelegramInput{TelegramID: 555, FirstName: "Глеб"})
	assert.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.TokenPair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, res.User.ID, refreshed.User.ID)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	// Access токен не годится как refresh: подписан другим секретом.
	_, err = svc.Refresh(ctx, res.TokenPair.AccessToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)

	// Деактивированный пользователь не может обновить токены.
	repo.byTelegram[555].IsActive = false
	_, err = svc.Refresh(ctx, res.TokenPair.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrInvalidToken)
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/repository/common"
)

// Ошибки уровня репозитория.
var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository отвечает за работу с пользователями.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт новый экземпляр.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetByTelegramID возвращает пользователя по Telegram идентификатору.
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	return common.GetByField[models.User](ctx, r.db, "users", "telegram_id", telegramID, ErrUserNotFound)
}

// Upsert создаёт пользователя по Telegram аккаунту или обновляет его данные,
// если он уже зарегистрирован. Актуальные имя/username приходят от бота при
// каждом /start.
func (r *UserRepository) Upsert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (telegram_id, first_name, last_name, username, avatar_url, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		ON CONFLICT (telegram_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name  = EXCLUDED.last_name,
			username   = EXCLUDED.username,
			is_active  = TRUE,
			updated_at = NOW()
		RETURNING id, is_active, total_earned_cents, total_spent_cents, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		user.TelegramID, user.FirstName, user.LastName, user.Username, user.AvatarURL,
	).Scan(&user.ID, &user.IsActive, &user.TotalEarnedCents, &user.TotalSpentCents, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("user repository: upsert: %w", err)
	}
	return nil
}

// UpdateProfile обновляет редактируемые поля пользователя.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, username = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Username,
	).Scan(&user.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update profile: %w", err)
	}
	return nil
}

// UpdateAvatar сохраняет путь к загруженному аватару.
func (r *UserRepository) UpdateAvatar(ctx context.Context, userID uuid.UUID, avatarURL string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET avatar_url = $2, updated_at = NOW() WHERE id = $1`, userID, avatarURL)
	if err != nil {
		return fmt.Errorf("user repository: update avatar: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetLoginToken сохраняет bcrypt-хэш одноразового токена входа и срок его действия.
func (r *UserRepository) SetLoginToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET login_token_hash = $2, login_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`, userID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("user repository: set login token: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ClearLoginToken сбрасывает одноразовый токен после успешного обмена.
// Условие на непустой хэш гарантирует, что токен нельзя обменять дважды.
func (r *UserRepository) ClearLoginToken(ctx context.Context, userID uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET login_token_hash = NULL, login_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND login_token_hash IS NOT NULL
	`, userID)
	if err != nil {
		return false, fmt.Errorf("user repository: clear login token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("user repository: clear login token: %w", err)
	}
	return affected > 0, nil
}

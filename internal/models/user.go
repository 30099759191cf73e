package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя платформы, привязанного к Telegram аккаунту.
// Роль (заказчик/исполнитель) не хранится на пользователе: она определяется
// полями конкретной сделки.
type User struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	TelegramID       int64      `db:"telegram_id" json:"telegram_id"`
	FirstName        string     `db:"first_name" json:"first_name"`
	LastName         *string    `db:"last_name" json:"last_name,omitempty"`
	Username         *string    `db:"username" json:"username,omitempty"`
	AvatarURL        *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	IsActive         bool       `db:"is_active" json:"is_active"`
	LoginTokenHash   *string    `db:"login_token_hash" json:"-"`
	LoginTokenExpiry *time.Time `db:"login_token_expires_at" json:"-"`
	TotalEarnedCents int64      `db:"total_earned_cents" json:"total_earned_cents"`
	TotalSpentCents  int64      `db:"total_spent_cents" json:"total_spent_cents"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// PublicUser содержит только публичные поля пользователя.
type PublicUser struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  *string   `json:"last_name,omitempty"`
	Username  *string   `json:"username,omitempty"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Public возвращает публичную проекцию пользователя.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}

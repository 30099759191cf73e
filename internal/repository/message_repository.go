package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/retasker/retasker-backend/internal/models"
)

// MessageRepository отвечает за чат сделок. Сообщения append-only:
// ни обновления, ни удаления не предусмотрены.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт новый экземпляр.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение в чате сделки.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (deal_id, sender_id, sender_role, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		msg.DealID, msg.SenderID, msg.SenderRole, msg.Content,
	).Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("message repository: insert: %w", err)
	}
	return nil
}

// ListByDeal возвращает сообщения сделки в хронологическом порядке.
func (r *MessageRepository) ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var messages []models.Message
	query := `
		SELECT * FROM messages
		WHERE deal_id = $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, dealID, limit, offset); err != nil {
		return nil, fmt.Errorf("message repository: list by deal: %w", err)
	}
	return messages, nil
}

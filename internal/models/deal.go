package models

import (
	"time"

	"github.com/google/uuid"
)

// Deal описывает принятую сделку между заказчиком и исполнителем по заказу.
// Статусы сделки и правила переходов определяет пакет lifecycle.
// Сумма хранится единственным каноническим полем amount_cents.
type Deal struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	OrderID      uuid.UUID  `db:"order_id" json:"order_id"`
	CustomerID   uuid.UUID  `db:"customer_id" json:"customer_id"`
	FreelancerID uuid.UUID  `db:"freelancer_id" json:"freelancer_id"`
	AmountCents  int64      `db:"amount_cents" json:"amount_cents"`
	Status       string     `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	DeliveredAt  *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt  *time.Time `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

// DealDetails объединяет сделку со связанными проекциями для выдачи клиенту.
type DealDetails struct {
	Deal       Deal       `json:"deal"`
	Order      Order      `json:"order"`
	Customer   PublicUser `json:"customer"`
	Freelancer PublicUser `json:"freelancer"`
	// AvailableActions заполняется сервисным слоем под конкретного актора.
	AvailableActions []string `json:"available_actions"`
}

// DealFilter содержит параметры выборки сделок пользователя.
type DealFilter struct {
	UserID uuid.UUID
	// Role фильтрует по роли пользователя в сделке: customer или freelancer.
	// Пустое значение — обе роли.
	Role   string
	Status *string
	Limit  int
	Offset int
}

// Message описывает одно сообщение в чате сделки. Чат append-only.
type Message struct {
	ID         uuid.UUID `db:"id" json:"id"`
	DealID     uuid.UUID `db:"deal_id" json:"deal_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	SenderRole string    `db:"sender_role" json:"sender_role"`
	Content    string    `db:"content" json:"content"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Complaint описывает жалобу участника сделки.
// На пару (сделка, автор) допускается не более одной жалобы.
type Complaint struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DealID      uuid.UUID `db:"deal_id" json:"deal_id"`
	AuthorID    uuid.UUID `db:"author_id" json:"author_id"`
	Reason      string    `db:"reason" json:"reason"`
	Description string    `db:"description" json:"description"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

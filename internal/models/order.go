package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Order описывает задачу, размещённую заказчиком.
// Бюджет хранится в копейках (минимальных единицах валюты).
type Order struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	Code        string         `db:"code" json:"code"`
	CustomerID  uuid.UUID      `db:"customer_id" json:"customer_id"`
	Title       string         `db:"title" json:"title"`
	Description string         `db:"description" json:"description"`
	BudgetCents int64          `db:"budget_cents" json:"budget_cents"`
	Category    string         `db:"category" json:"category"`
	Priority    string         `db:"priority" json:"priority"`
	WorkType    string         `db:"work_type" json:"work_type"`
	Tags        pq.StringArray `db:"tags" json:"tags"`
	DeadlineAt  *time.Time     `db:"deadline_at" json:"deadline_at,omitempty"`
	Status      string         `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`

	// Подсчитывается отдельным запросом при выдаче списка.
	ResponsesCount *int `db:"responses_count" json:"responses_count,omitempty"`
}

// Response представляет отклик исполнителя на заказ.
// На пару (заказ, исполнитель) допускается не более одного отклика;
// после создания сделки отклик становится неизменяемым.
type Response struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrderID      uuid.UUID `db:"order_id" json:"order_id"`
	FreelancerID uuid.UUID `db:"freelancer_id" json:"freelancer_id"`
	PriceCents   int64     `db:"price_cents" json:"price_cents"`
	Message      string    `db:"message" json:"message"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`

	// Публичные данные исполнителя, подгружаются JOIN'ом для списка откликов.
	Freelancer *PublicUser `json:"freelancer,omitempty"`
}

// OrderFilter содержит параметры фильтрации списка заказов.
type OrderFilter struct {
	Status         *string
	Category       *string
	Priority       *string
	WorkType       *string
	Search         *string
	MinBudgetCents *int64
	MaxBudgetCents *int64
	CustomerID     *uuid.UUID
	SortBy         string
	SortOrder      string
	Limit          int
	Offset         int
}

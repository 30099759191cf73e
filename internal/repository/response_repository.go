package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/retasker/retasker-backend/internal/models"
)

var (
	ErrResponseNotFound      = errors.New("response not found")
	ErrResponseAlreadyExists = errors.New("response already exists for this order and freelancer")
)

// ResponseRepository отвечает за отклики исполнителей на заказы.
type ResponseRepository struct {
	db *sqlx.DB
}

// NewResponseRepository создаёт новый экземпляр.
func NewResponseRepository(db *sqlx.DB) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// Create сохраняет отклик. Уникальность пары (заказ, исполнитель) обеспечивает
// индекс в базе; нарушение транслируется в ErrResponseAlreadyExists.
func (r *ResponseRepository) Create(ctx context.Context, resp *models.Response) error {
	query := `
		INSERT INTO responses (order_id, freelancer_id, price_cents, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		resp.OrderID, resp.FreelancerID, resp.PriceCents, resp.Message,
	).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrResponseAlreadyExists
		}
		return fmt.Errorf("response repository: insert: %w", err)
	}
	return nil
}

// GetByID возвращает отклик по идентификатору.
func (r *ResponseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	var resp models.Response
	query := `SELECT id, order_id, freelancer_id, price_cents, message, created_at FROM responses WHERE id = $1`
	if err := r.db.GetContext(ctx, &resp, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("response repository: get by id: %w", err)
	}
	return &resp, nil
}

// GetByOrderAndFreelancer возвращает отклик исполнителя на конкретный заказ.
func (r *ResponseRepository) GetByOrderAndFreelancer(ctx context.Context, orderID, freelancerID uuid.UUID) (*models.Response, error) {
	var resp models.Response
	query := `
		SELECT id, order_id, freelancer_id, price_cents, message, created_at
		FROM responses
		WHERE order_id = $1 AND freelancer_id = $2
	`
	if err := r.db.GetContext(ctx, &resp, query, orderID, freelancerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrResponseNotFound
		}
		return nil, fmt.Errorf("response repository: get by order and freelancer: %w", err)
	}
	return &resp, nil
}

// ListByOrder возвращает отклики на заказ вместе с публичными данными исполнителей.
func (r *ResponseRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Response, error) {
	query := `
		SELECT
			resp.id, resp.order_id, resp.freelancer_id, resp.price_cents, resp.message, resp.created_at,
			u.id, u.first_name, u.last_name, u.username, u.avatar_url, u.created_at
		FROM responses resp
		JOIN users u ON u.id = resp.freelancer_id
		WHERE resp.order_id = $1
		ORDER BY resp.created_at
	`
	rows, err := r.db.QueryxContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("response repository: list by order: %w", err)
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var resp models.Response
		var freelancer models.PublicUser
		if err := rows.Scan(
			&resp.ID, &resp.OrderID, &resp.FreelancerID, &resp.PriceCents, &resp.Message, &resp.CreatedAt,
			&freelancer.ID, &freelancer.FirstName, &freelancer.LastName, &freelancer.Username, &freelancer.AvatarURL, &freelancer.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("response repository: scan: %w", err)
		}
		resp.Freelancer = &freelancer
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

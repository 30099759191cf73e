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
	ErrComplaintNotFound      = errors.New("complaint not found")
	ErrComplaintAlreadyExists = errors.New("complaint already exists for this deal and author")
)

// ComplaintRepository отвечает за жалобы участников сделок.
type ComplaintRepository struct {
	db *sqlx.DB
}

// NewComplaintRepository создаёт новый экземпляр.
func NewComplaintRepository(db *sqlx.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

// Create сохраняет жалобу. Повторная жалоба того же автора по той же сделке
// отклоняется уникальным индексом.
func (r *ComplaintRepository) Create(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (deal_id, author_id, reason, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.DealID, c.AuthorID, c.Reason, c.Description, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrComplaintAlreadyExists
		}
		return fmt.Errorf("complaint repository: insert: %w", err)
	}
	return nil
}

// GetByDealAndAuthor возвращает жалобу автора по сделке.
func (r *ComplaintRepository) GetByDealAndAuthor(ctx context.Context, dealID, authorID uuid.UUID) (*models.Complaint, error) {
	var c models.Complaint
	query := `SELECT * FROM complaints WHERE deal_id = $1 AND author_id = $2`
	if err := r.db.GetContext(ctx, &c, query, dealID, authorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrComplaintNotFound
		}
		return nil, fmt.Errorf("complaint repository: get by deal and author: %w", err)
	}
	return &c, nil
}

// ListByAuthor возвращает жалобы пользователя.
func (r *ComplaintRepository) ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Complaint, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var complaints []models.Complaint
	query := `
		SELECT * FROM complaints
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &complaints, query, authorID, limit, offset); err != nil {
		return nil, fmt.Errorf("complaint repository: list by author: %w", err)
	}
	return complaints, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/retasker/retasker-backend/internal/lifecycle"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/repository/common"
)

var (
	ErrDealNotFound      = errors.New("deal not found")
	ErrDealAlreadyExists = errors.New("order already has a non-cancelled deal")
)

// DealRepository отвечает за сделки и их переходы в базе.
//
// Каждый переход статуса — один условный UPDATE с условием на прежний статус.
// Ноль затронутых строк означает, что статус уже изменился конкурентным
// запросом, и трактуется вызывающим кодом как недопустимый переход.
type DealRepository struct {
	db *sqlx.DB
}

// NewDealRepository создаёт новый экземпляр.
func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// GetByID возвращает сделку по идентификатору.
func (r *DealRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	return common.GetByID[models.Deal](ctx, r.db, "deals", id, ErrDealNotFound)
}

// CreateFromResponse создаёт сделку из отклика и переводит заказ в работу.
// Обе записи идут в одной транзакции: заказ переводится условным UPDATE'ом
// open -> in_progress, поэтому два конкурентных принятия откликов на один
// заказ не породят две сделки. Частичный уникальный индекс по order_id
// (status <> 'cancelled') страхует инвариант на уровне базы.
func (r *DealRepository) CreateFromResponse(ctx context.Context, deal *models.Deal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := common.UpdateConditional(ctx, tx, `
			UPDATE orders SET status = 'in_progress', updated_at = NOW()
			WHERE id = $1 AND status = 'open'
		`, deal.OrderID)
		if errors.Is(err, common.ErrNoRowsAffected) {
			return ErrDealAlreadyExists
		}
		if err != nil {
			return fmt.Errorf("deal repository: move order to in_progress: %w", err)
		}

		query := `
			INSERT INTO deals (order_id, customer_id, freelancer_id, amount_cents, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			deal.OrderID, deal.CustomerID, deal.FreelancerID, deal.AmountCents, deal.Status,
		).Scan(&deal.ID, &deal.CreatedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return ErrDealAlreadyExists
			}
			return fmt.Errorf("deal repository: insert deal: %w", err)
		}
		return nil
	})
}

// MarkDelivered переводит сделку active -> delivered.
func (r *DealRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	return common.UpdateConditional(ctx, r.db, `
		UPDATE deals SET status = $2, delivered_at = NOW()
		WHERE id = $1 AND status = $3
	`, id, string(lifecycle.StatusDelivered), string(lifecycle.StatusActive))
}

// Complete подтверждает завершение сделки: в одной транзакции сделка
// переводится delivered -> completed, заказ закрывается, исполнителю
// начисляется заработанное, заказчику — потраченное. Условие на прежний
// статус сделки гарантирует, что из двух конкурентных подтверждений
// агрегаты обновит ровно одно.
func (r *DealRepository) Complete(ctx context.Context, deal *models.Deal) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := common.UpdateConditional(ctx, tx, `
			UPDATE deals SET status = $2, completed_at = NOW()
			WHERE id = $1 AND status = $3
		`, deal.ID, string(lifecycle.StatusCompleted), string(lifecycle.StatusDelivered))
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = 'completed', updated_at = NOW() WHERE id = $1
		`, deal.OrderID); err != nil {
			return fmt.Errorf("deal repository: complete order: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET total_earned_cents = total_earned_cents + $2, updated_at = NOW() WHERE id = $1
		`, deal.FreelancerID, deal.AmountCents); err != nil {
			return fmt.Errorf("deal repository: credit freelancer: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET total_spent_cents = total_spent_cents + $2, updated_at = NOW() WHERE id = $1
		`, deal.CustomerID, deal.AmountCents); err != nil {
			return fmt.Errorf("deal repository: debit customer: %w", err)
		}
		return nil
	})
}

// Cancel отменяет сделку из указанного статуса и возвращает заказ в open,
// чтобы заказчик мог принять другой отклик.
func (r *DealRepository) Cancel(ctx context.Context, deal *models.Deal, fromStatus lifecycle.Status) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := common.UpdateConditional(ctx, tx, `
			UPDATE deals SET status = $2, cancelled_at = NOW()
			WHERE id = $1 AND status = $3
		`, deal.ID, string(lifecycle.StatusCancelled), string(fromStatus))
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = 'open', updated_at = NOW()
			WHERE id = $1 AND status = 'in_progress'
		`, deal.OrderID); err != nil {
			return fmt.Errorf("deal repository: reopen order: %w", err)
		}
		return nil
	})
}

// GetDetails возвращает сделку вместе с заказом и публичными данными сторон.
func (r *DealRepository) GetDetails(ctx context.Context, id uuid.UUID) (*models.DealDetails, error) {
	query := `
		SELECT
			d.id, d.order_id, d.customer_id, d.freelancer_id, d.amount_cents, d.status,
			d.created_at, d.delivered_at, d.completed_at, d.cancelled_at,
			o.id, o.code, o.customer_id, o.title, o.description, o.budget_cents,
			o.category, o.priority, o.work_type, o.tags, o.deadline_at, o.status, o.created_at, o.updated_at,
			c.id, c.first_name, c.last_name, c.username, c.avatar_url, c.created_at,
			f.id, f.first_name, f.last_name, f.username, f.avatar_url, f.created_at
		FROM deals d
		JOIN orders o ON o.id = d.order_id
		JOIN users c ON c.id = d.customer_id
		JOIN users f ON f.id = d.freelancer_id
		WHERE d.id = $1
	`
	var det models.DealDetails
	err := r.db.QueryRowxContext(ctx, query, id).Scan(
		&det.Deal.ID, &det.Deal.OrderID, &det.Deal.CustomerID, &det.Deal.FreelancerID,
		&det.Deal.AmountCents, &det.Deal.Status,
		&det.Deal.CreatedAt, &det.Deal.DeliveredAt, &det.Deal.CompletedAt, &det.Deal.CancelledAt,
		&det.Order.ID, &det.Order.Code, &det.Order.CustomerID, &det.Order.Title, &det.Order.Description,
		&det.Order.BudgetCents, &det.Order.Category, &det.Order.Priority, &det.Order.WorkType,
		&det.Order.Tags, &det.Order.DeadlineAt, &det.Order.Status, &det.Order.CreatedAt, &det.Order.UpdatedAt,
		&det.Customer.ID, &det.Customer.FirstName, &det.Customer.LastName, &det.Customer.Username,
		&det.Customer.AvatarURL, &det.Customer.CreatedAt,
		&det.Freelancer.ID, &det.Freelancer.FirstName, &det.Freelancer.LastName, &det.Freelancer.Username,
		&det.Freelancer.AvatarURL, &det.Freelancer.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("deal repository: get details: %w", err)
	}
	return &det, nil
}

// ListByUser возвращает сделки пользователя с фильтром по роли и статусу.
func (r *DealRepository) ListByUser(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	query := `
		SELECT * FROM deals
		WHERE (
			($3 = 'customer' AND customer_id = $1) OR
			($3 = 'freelancer' AND freelancer_id = $1) OR
			($3 = '' AND (customer_id = $1 OR freelancer_id = $1))
		)
		AND ($4::text IS NULL OR status = $4)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $5
	`
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var deals []models.Deal
	if err := r.db.SelectContext(ctx, &deals, query,
		filter.UserID, limit, filter.Role, filter.Status, filter.Offset); err != nil {
		return nil, fmt.Errorf("deal repository: list by user: %w", err)
	}
	return deals, nil
}

// GetActiveByOrder возвращает неотменённую сделку по заказу, если она есть.
func (r *DealRepository) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Deal, error) {
	var deal models.Deal
	query := `SELECT * FROM deals WHERE order_id = $1 AND status <> 'cancelled'`
	if err := r.db.GetContext(ctx, &deal, query, orderID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDealNotFound
		}
		return nil, fmt.Errorf("deal repository: get active by order: %w", err)
	}
	return &deal, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/retasker/retasker-backend/internal/models"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderRepository отвечает за работу с заказами.
type OrderRepository struct {
	db *sqlx.DB
	// squirrel с $-плейсхолдерами для динамических фильтров списка.
	sb sq.StatementBuilderType
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create сохраняет заказ. Короткий код вида ORD-0001 выдаёт последовательность
// в базе, так что он монотонный даже при конкурентных вставках.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (code, customer_id, title, description, budget_cents, category, priority, work_type, tags, deadline_at, status)
		VALUES ('ORD-' || lpad(nextval('order_code_seq')::text, 4, '0'), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, code, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		order.CustomerID,
		order.Title,
		order.Description,
		order.BudgetCents,
		order.Category,
		order.Priority,
		order.WorkType,
		order.Tags,
		order.DeadlineAt,
		order.Status,
	).Scan(&order.ID, &order.Code, &order.CreatedAt, &order.UpdatedAt); err != nil {
		return fmt.Errorf("order repository: insert order: %w", err)
	}
	return nil
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	query := `
		SELECT id, code, customer_id, title, description, budget_cents, category, priority, work_type, tags, deadline_at, status, created_at, updated_at
		FROM orders
		WHERE id = $1
	`
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("order repository: get by id: %w", err)
	}
	return &order, nil
}

// List возвращает заказы по фильтру с количеством откликов на каждый.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	builder := r.sb.
		Select(
			"o.id", "o.code", "o.customer_id", "o.title", "o.description",
			"o.budget_cents", "o.category", "o.priority", "o.work_type",
			"o.tags", "o.deadline_at", "o.status", "o.created_at", "o.updated_at",
			"COUNT(resp.id)::int AS responses_count",
		).
		From("orders o").
		LeftJoin("responses resp ON resp.order_id = o.id").
		GroupBy("o.id")

	if filter.Status != nil {
		builder = builder.Where(sq.Eq{"o.status": *filter.Status})
	}
	if filter.Category != nil {
		builder = builder.Where(sq.Eq{"o.category": *filter.Category})
	}
	if filter.Priority != nil {
		builder = builder.Where(sq.Eq{"o.priority": *filter.Priority})
	}
	if filter.WorkType != nil {
		builder = builder.Where(sq.Eq{"o.work_type": *filter.WorkType})
	}
	if filter.CustomerID != nil {
		builder = builder.Where(sq.Eq{"o.customer_id": *filter.CustomerID})
	}
	if filter.Search != nil && *filter.Search != "" {
		pattern := "%" + *filter.Search + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"o.title": pattern},
			sq.ILike{"o.description": pattern},
		})
	}
	if filter.MinBudgetCents != nil {
		builder = builder.Where(sq.GtOrEq{"o.budget_cents": *filter.MinBudgetCents})
	}
	if filter.MaxBudgetCents != nil {
		builder = builder.Where(sq.LtOrEq{"o.budget_cents": *filter.MaxBudgetCents})
	}

	builder = builder.OrderBy(orderListSort(filter.SortBy, filter.SortOrder))

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("order repository: build list query: %w", err)
	}

	var orders []models.Order
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, fmt.Errorf("order repository: list: %w", err)
	}
	return orders, nil
}

// orderListSort возвращает безопасное ORDER BY выражение: сортировать можно
// только по белому списку колонок.
func orderListSort(sortBy, sortOrder string) string {
	column := "o.created_at"
	switch sortBy {
	case "budget":
		column = "o.budget_cents"
	case "deadline":
		column = "o.deadline_at"
	case "created_at", "":
	}

	direction := "DESC"
	if sortOrder == "asc" {
		direction = "ASC"
	}
	return column + " " + direction
}

// Update обновляет редактируемые поля заказа. Обновление разрешено только
// пока заказ открыт и только его владельцу: оба условия зашиты в WHERE, а не
// проверяются отдельным чтением.
func (r *OrderRepository) Update(ctx context.Context, order *models.Order) error {
	query := `
		UPDATE orders
		SET title = $3, description = $4, budget_cents = $5, category = $6,
		    priority = $7, work_type = $8, tags = $9, deadline_at = $10, updated_at = NOW()
		WHERE id = $1 AND customer_id = $2 AND status = 'open'
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		order.ID, order.CustomerID,
		order.Title, order.Description, order.BudgetCents, order.Category,
		order.Priority, order.WorkType, order.Tags, order.DeadlineAt,
	).Scan(&order.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("order repository: update: %w", err)
	}
	return nil
}

// Delete удаляет открытый заказ владельца. Заказ с начатой сделкой удалить
// нельзя: его статус уже не open.
func (r *OrderRepository) Delete(ctx context.Context, id, customerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM orders WHERE id = $1 AND customer_id = $2 AND status = 'open'`, id, customerID)
	if err != nil {
		return fmt.Errorf("order repository: delete: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrOrderNotFound
	}
	return nil
}

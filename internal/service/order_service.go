package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/validation"
)

// OrderRepo описывает зависимости OrderService от хранилища заказов.
type OrderRepo interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Delete(ctx context.Context, id, customerID uuid.UUID) error
}

// ResponseRepo описывает зависимости OrderService от хранилища откликов.
type ResponseRepo interface {
	Create(ctx context.Context, resp *models.Response) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error)
	GetByOrderAndFreelancer(ctx context.Context, orderID, freelancerID uuid.UUID) (*models.Response, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Response, error)
}

// OrderService инкапсулирует бизнес-логику заказов и откликов.
type OrderService struct {
	orders    OrderRepo
	responses ResponseRepo
}

// OrderInput содержит данные для создания или обновления заказа.
type OrderInput struct {
	Title       string
	Description string
	BudgetCents int64
	Category    string
	Priority    string
	WorkType    string
	Tags        []string
	DeadlineAt  *time.Time
}

// ResponseInput содержит данные отклика исполнителя.
type ResponseInput struct {
	OrderID      uuid.UUID
	FreelancerID uuid.UUID
	PriceCents   int64
	Message      string
}

// NewOrderService создаёт сервис заказов.
func NewOrderService(orders OrderRepo, responses ResponseRepo) *OrderService {
	return &OrderService{orders: orders, responses: responses}
}

// validateOrderInput проверяет поля заказа единым набором правил.
func validateOrderInput(in OrderInput) error {
	if err := validation.ValidateOrderTitle(in.Title); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateOrderDescription(in.Description); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmountCents("бюджет", in.BudgetCents); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateOrderPriority(in.Priority); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateWorkType(in.WorkType); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateTags(in.Tags); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	return nil
}

// CreateOrder создаёт заказ от имени заказчика.
func (s *OrderService) CreateOrder(ctx context.Context, customerID uuid.UUID, in OrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		CustomerID:  customerID,
		Title:       in.Title,
		Description: in.Description,
		BudgetCents: in.BudgetCents,
		Category:    in.Category,
		Priority:    in.Priority,
		WorkType:    in.WorkType,
		Tags:        in.Tags,
		DeadlineAt:  in.DeadlineAt,
		Status:      models.OrderStatusOpen,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать заказ")
	}
	return order, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	return order, nil
}

// ListOrders возвращает заказы по фильтру.
func (s *OrderService) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить список заказов")
	}
	return orders, nil
}

// UpdateOrder обновляет открытый заказ владельца.
func (s *OrderService) UpdateOrder(ctx context.Context, orderID, customerID uuid.UUID, in OrderInput) (*models.Order, error) {
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:          orderID,
		CustomerID:  customerID,
		Title:       in.Title,
		Description: in.Description,
		BudgetCents: in.BudgetCents,
		Category:    in.Category,
		Priority:    in.Priority,
		WorkType:    in.WorkType,
		Tags:        in.Tags,
		DeadlineAt:  in.DeadlineAt,
	}
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			// Либо заказа нет, либо он не принадлежит пользователю,
			// либо уже не open - наружу одна и та же ошибка.
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить заказ")
	}
	return s.GetOrder(ctx, orderID)
}

// DeleteOrder удаляет открытый заказ владельца.
func (s *OrderService) DeleteOrder(ctx context.Context, orderID, customerID uuid.UUID) error {
	if err := s.orders.Delete(ctx, orderID, customerID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return apperror.ErrOrderNotFound
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось удалить заказ")
	}
	return nil
}

// CreateResponse создаёт отклик исполнителя на открытый заказ.
func (s *OrderService) CreateResponse(ctx context.Context, in ResponseInput) (*models.Response, error) {
	if err := validation.ValidateResponseMessage(in.Message); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateAmountCents("цена отклика", in.PriceCents); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	order, err := s.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже не принимает отклики")
	}
	if order.CustomerID == in.FreelancerID {
		return nil, apperror.New(apperror.ErrCodeValidation, "нельзя откликнуться на собственный заказ")
	}

	resp := &models.Response{
		OrderID:      in.OrderID,
		FreelancerID: in.FreelancerID,
		PriceCents:   in.PriceCents,
		Message:      in.Message,
	}
	if err := s.responses.Create(ctx, resp); err != nil {
		if errors.Is(err, repository.ErrResponseAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на этот заказ")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать отклик")
	}
	return resp, nil
}

// ListResponses возвращает отклики на заказ. Полный список видит только
// владелец заказа.
func (s *OrderService) ListResponses(ctx context.Context, orderID, userID uuid.UUID) ([]models.Response, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "отклики видит только владелец заказа")
	}

	responses, err := s.responses.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклики")
	}
	return responses, nil
}

// GetMyResponse возвращает отклик пользователя на заказ.
func (s *OrderService) GetMyResponse(ctx context.Context, orderID, freelancerID uuid.UUID) (*models.Response, error) {
	resp, err := s.responses.GetByOrderAndFreelancer(ctx, orderID, freelancerID)
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return nil, apperror.ErrResponseNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклик")
	}
	return resp, nil
}

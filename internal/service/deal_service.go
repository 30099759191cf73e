package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/retasker/retasker-backend/internal/lifecycle"
	"github.com/retasker/retasker-backend/internal/logger"
	"github.com/retasker/retasker-backend/internal/metrics"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/repository/common"
	"github.com/retasker/retasker-backend/internal/validation"
)

// DealRepo описывает зависимости DealService от хранилища сделок.
type DealRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error)
	GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Deal, error)
	CreateFromResponse(ctx context.Context, deal *models.Deal) error
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, deal *models.Deal) error
	Cancel(ctx context.Context, deal *models.Deal, fromStatus lifecycle.Status) error
	GetDetails(ctx context.Context, id uuid.UUID) (*models.DealDetails, error)
	ListByUser(ctx context.Context, filter models.DealFilter) ([]models.Deal, error)
}

// MessageRepo описывает зависимости DealService от хранилища сообщений.
type MessageRepo interface {
	Create(ctx context.Context, msg *models.Message) error
	ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error)
}

// OrderRepoForDeal описывает минимальную зависимость от хранилища заказов.
type OrderRepoForDeal interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// ResponseRepoForDeal описывает минимальную зависимость от хранилища откликов.
type ResponseRepoForDeal interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error)
}

// Notifier доставляет событие пользователю (WebSocket). Ошибка доставки не
// влияет на результат операции.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// DealService реализует жизненный цикл сделки поверх чистой машины состояний
// из пакета lifecycle. Это единственное место в системе, где переходы
// исполняются: все транспорты ходят сюда.
type DealService struct {
	deals     DealRepo
	orders    OrderRepoForDeal
	responses ResponseRepoForDeal
	messages  MessageRepo
	notifier  Notifier
	metrics   *metrics.DealMetrics
}

// NewDealService создаёт сервис сделок.
func NewDealService(deals DealRepo, orders OrderRepoForDeal, responses ResponseRepoForDeal, messages MessageRepo) *DealService {
	return &DealService{
		deals:     deals,
		orders:    orders,
		responses: responses,
		messages:  messages,
	}
}

// SetNotifier подключает доставку событий пользователям.
func (s *DealService) SetNotifier(n Notifier) {
	s.notifier = n
}

// SetMetrics подключает метрики жизненного цикла.
func (s *DealService) SetMetrics(m *metrics.DealMetrics) {
	s.metrics = m
}

// getDealForActor возвращает сделку и роль пользователя в ней.
// "Сделки нет" и "сделка чужая" наружу неразличимы: обе дают ErrDealNotFound,
// чтобы не раскрывать существование чужих сделок.
func (s *DealService) getDealForActor(ctx context.Context, dealID, actorID uuid.UUID) (*models.Deal, lifecycle.Role, error) {
	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, repository.ErrDealNotFound) {
			return nil, "", apperror.ErrDealNotFound
		}
		return nil, "", apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сделку")
	}

	role, ok := lifecycle.ResolveRole(deal.CustomerID, deal.FreelancerID, actorID)
	if !ok {
		return nil, "", apperror.ErrDealNotFound
	}
	return deal, role, nil
}

// AcceptResponse принимает отклик и создаёт сделку.
// Заказ переводится open -> in_progress в той же транзакции, что и вставка
// сделки, поэтому у заказа не может оказаться двух неотменённых сделок.
func (s *DealService) AcceptResponse(ctx context.Context, orderID, responseID, customerID uuid.UUID) (*models.Deal, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, apperror.ErrOrderNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить заказ")
	}
	if order.CustomerID != customerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "принять отклик может только владелец заказа")
	}
	if order.Status != models.OrderStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "заказ уже не принимает отклики")
	}

	resp, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, repository.ErrResponseNotFound) {
			return nil, apperror.ErrResponseNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отклик")
	}
	if resp.OrderID != orderID {
		return nil, apperror.ErrResponseNotFound
	}

	// Дружелюбная проверка до INSERT; гонку всё равно ловит частичный
	// уникальный индекс по живым сделкам заказа.
	if _, err := s.deals.GetActiveByOrder(ctx, orderID); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "по заказу уже есть действующая сделка")
	} else if !errors.Is(err, repository.ErrDealNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить сделки заказа")
	}

	deal := &models.Deal{
		OrderID:      orderID,
		CustomerID:   order.CustomerID,
		FreelancerID: resp.FreelancerID,
		AmountCents:  resp.PriceCents,
		Status:       string(lifecycle.StatusActive),
	}
	if err := s.deals.CreateFromResponse(ctx, deal); err != nil {
		if errors.Is(err, repository.ErrDealAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "по заказу уже есть действующая сделка")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать сделку")
	}

	s.metrics.DealCreated()
	s.notify(deal.FreelancerID, "deals.created", deal)

	logger.Log.WithFields(logrus.Fields{
		"deal_id":  deal.ID,
		"order_id": orderID,
	}).Info("сделка создана из отклика")

	return deal, nil
}

// Deliver переводит сделку active -> delivered. Доступно только исполнителю.
func (s *DealService) Deliver(ctx context.Context, dealID, actorID uuid.UUID) (*models.Deal, error) {
	return s.transition(ctx, dealID, actorID, lifecycle.ActionDeliver)
}

// Confirm подтверждает завершение сделки. Доступно только заказчику,
// только из delivered. Агрегаты сторон обновляются в той же транзакции.
func (s *DealService) Confirm(ctx context.Context, dealID, actorID uuid.UUID) (*models.Deal, error) {
	return s.transition(ctx, dealID, actorID, lifecycle.ActionConfirm)
}

// Cancel отменяет сделку. Из active - любой участник, из delivered - только
// заказчик. Заказ возвращается в open.
func (s *DealService) Cancel(ctx context.Context, dealID, actorID uuid.UUID) (*models.Deal, error) {
	return s.transition(ctx, dealID, actorID, lifecycle.ActionCancel)
}

// transition исполняет переход: правила даёт чистая машина состояний,
// запись в базу условная - по прежнему статусу. Ноль затронутых строк
// означает, что статус успел измениться конкурентным запросом, и
// возвращается как недопустимый переход, а не как успех.
func (s *DealService) transition(ctx context.Context, dealID, actorID uuid.UUID, action lifecycle.Action) (*models.Deal, error) {
	deal, role, err := s.getDealForActor(ctx, dealID, actorID)
	if err != nil {
		return nil, err
	}

	current := lifecycle.Status(deal.Status)
	if _, err := lifecycle.Next(current, action, role); err != nil {
		s.metrics.Transition(string(action), "rejected")
		switch {
		case errors.Is(err, lifecycle.ErrWrongRole):
			return nil, apperror.ErrWrongRole
		case errors.Is(err, lifecycle.ErrInvalidState):
			return nil, apperror.ErrInvalidState
		default:
			return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "недопустимое действие")
		}
	}

	switch action {
	case lifecycle.ActionDeliver:
		err = s.deals.MarkDelivered(ctx, deal.ID)
	case lifecycle.ActionConfirm:
		err = s.deals.Complete(ctx, deal)
	case lifecycle.ActionCancel:
		err = s.deals.Cancel(ctx, deal, current)
	}
	if err != nil {
		if errors.Is(err, common.ErrNoRowsAffected) {
			s.metrics.Transition(string(action), "conflict")
			return nil, apperror.ErrInvalidState
		}
		s.metrics.Transition(string(action), "error")
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось выполнить переход")
	}

	s.metrics.Transition(string(action), "ok")

	updated, err := s.deals.GetByID(ctx, deal.ID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось перечитать сделку")
	}

	// Уведомляем контрагента о смене статуса.
	counterpart := updated.CustomerID
	if role == lifecycle.RoleCustomer {
		counterpart = updated.FreelancerID
	}
	s.notify(counterpart, "deals.status", updated)

	logger.Log.WithFields(logrus.Fields{
		"deal_id": updated.ID,
		"action":  action,
		"status":  updated.Status,
	}).Info("переход статуса сделки")

	return updated, nil
}

// GetDeal возвращает сделку со связанными проекциями. Только для участников.
func (s *DealService) GetDeal(ctx context.Context, dealID, actorID uuid.UUID) (*models.DealDetails, error) {
	deal, role, err := s.getDealForActor(ctx, dealID, actorID)
	if err != nil {
		return nil, err
	}

	details, err := s.deals.GetDetails(ctx, dealID)
	if err != nil {
		if errors.Is(err, repository.ErrDealNotFound) {
			return nil, apperror.ErrDealNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сделку")
	}

	for _, a := range lifecycle.AvailableActions(lifecycle.Status(deal.Status), role) {
		details.AvailableActions = append(details.AvailableActions, string(a))
	}
	return details, nil
}

// ListDeals возвращает сделки пользователя с фильтром по роли и статусу.
func (s *DealService) ListDeals(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	if filter.Status != nil && !lifecycle.Valid(lifecycle.Status(*filter.Status)) {
		return nil, apperror.New(apperror.ErrCodeValidation, "недопустимый статус сделки")
	}
	deals, err := s.deals.ListByUser(ctx, filter)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сделки")
	}
	return deals, nil
}

// SendMessage добавляет сообщение в чат сделки и доставляет его контрагенту.
func (s *DealService) SendMessage(ctx context.Context, dealID, actorID uuid.UUID, content string) (*models.Message, error) {
	if err := validation.ValidateChatMessage(content); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	deal, role, err := s.getDealForActor(ctx, dealID, actorID)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		DealID:     dealID,
		SenderID:   actorID,
		SenderRole: string(role),
		Content:    content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отправить сообщение")
	}

	counterpart := deal.CustomerID
	if role == lifecycle.RoleCustomer {
		counterpart = deal.FreelancerID
	}
	s.notify(counterpart, "deals.message", msg)

	return msg, nil
}

// ListMessages возвращает сообщения чата сделки. Только для участников.
func (s *DealService) ListMessages(ctx context.Context, dealID, actorID uuid.UUID, limit, offset int) ([]models.Message, error) {
	if _, _, err := s.getDealForActor(ctx, dealID, actorID); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByDeal(ctx, dealID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщения")
	}
	return messages, nil
}

func (s *DealService) notify(userID uuid.UUID, event string, data any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.BroadcastToUser(userID, event, data); err != nil {
		logger.Log.WithError(err).Warn("не удалось доставить событие пользователю")
	}
}

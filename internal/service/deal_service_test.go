package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/retasker/retasker-backend/internal/lifecycle"
	"github.com/retasker/retasker-backend/internal/logger"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/repository/common"
)

func init() {
	logger.Init("error", "test")
}

// mockDealRepo повторяет семантику условных обновлений настоящего
// репозитория: переход применяется только из ожидаемого статуса.
type mockDealRepo struct {
	deals  map[uuid.UUID]*models.Deal
	orders *mockOrderRepo

	// forceConflict имитирует гонку: условное обновление возвращает
	// ноль затронутых строк независимо от статуса в памяти.
	forceConflict bool
}

func newMockDealRepo(orders *mockOrderRepo) *mockDealRepo {
	return &mockDealRepo{deals: make(map[uuid.UUID]*models.Deal), orders: orders}
}

func (m *mockDealRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deal, error) {
	if d, ok := m.deals[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, repository.ErrDealNotFound
}

func (m *mockDealRepo) GetActiveByOrder(ctx context.Context, orderID uuid.UUID) (*models.Deal, error) {
	for _, d := range m.deals {
		if d.OrderID == orderID && d.Status != string(lifecycle.StatusCancelled) {
			copied := *d
			return &copied, nil
		}
	}
	return nil, repository.ErrDealNotFound
}

func (m *mockDealRepo) CreateFromResponse(ctx context.Context, deal *models.Deal) error {
	order, ok := m.orders.orders[deal.OrderID]
	if !ok || order.Status != models.OrderStatusOpen {
		return repository.ErrDealAlreadyExists
	}
	for _, d := range m.deals {
		if d.OrderID == deal.OrderID && d.Status != string(lifecycle.StatusCancelled) {
			return repository.ErrDealAlreadyExists
		}
	}
	order.Status = models.OrderStatusInProgress
	deal.ID = uuid.New()
	deal.CreatedAt = time.Now()
	stored := *deal
	m.deals[deal.ID] = &stored
	return nil
}

func (m *mockDealRepo) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	d, ok := m.deals[id]
	if m.forceConflict || !ok || d.Status != string(lifecycle.StatusActive) {
		return common.ErrNoRowsAffected
	}
	now := time.Now()
	d.Status = string(lifecycle.StatusDelivered)
	d.DeliveredAt = &now
	return nil
}

func (m *mockDealRepo) Complete(ctx context.Context, deal *models.Deal) error {
	d, ok := m.deals[deal.ID]
	if m.forceConflict || !ok || d.Status != string(lifecycle.StatusDelivered) {
		return common.ErrNoRowsAffected
	}
	now := time.Now()
	d.Status = string(lifecycle.StatusCompleted)
	d.CompletedAt = &now
	if order, ok := m.orders.orders[d.OrderID]; ok {
		order.Status = models.OrderStatusCompleted
	}
	m.orders.earned[d.FreelancerID] += d.AmountCents
	m.orders.spent[d.CustomerID] += d.AmountCents
	return nil
}

func (m *mockDealRepo) Cancel(ctx context.Context, deal *models.Deal, fromStatus lifecycle.Status) error {
	d, ok := m.deals[deal.ID]
	if m.forceConflict || !ok || d.Status != string(fromStatus) {
		return common.ErrNoRowsAffected
	}
	now := time.Now()
	d.Status = string(lifecycle.StatusCancelled)
	d.CancelledAt = &now
	if order, ok := m.orders.orders[d.OrderID]; ok {
		order.Status = models.OrderStatusOpen
	}
	return nil
}

func (m *mockDealRepo) GetDetails(ctx context.Context, id uuid.UUID) (*models.DealDetails, error) {
	d, ok := m.deals[id]
	if !ok {
		return nil, repository.ErrDealNotFound
	}
	return &models.DealDetails{Deal: *d}, nil
}

func (m *mockDealRepo) ListByUser(ctx context.Context, filter models.DealFilter) ([]models.Deal, error) {
	var result []models.Deal
	for _, d := range m.deals {
		if d.CustomerID != filter.UserID && d.FreelancerID != filter.UserID {
			continue
		}
		if filter.Status != nil && d.Status != *filter.Status {
			continue
		}
		result = append(result, *d)
	}
	return result, nil
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*models.Order
	earned map[uuid.UUID]int64
	spent  map[uuid.UUID]int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*models.Order),
		earned: make(map[uuid.UUID]int64),
		spent:  make(map[uuid.UUID]int64),
	}
}

func (m *mockOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, repository.ErrOrderNotFound
}

type mockResponseRepo struct {
	responses map[uuid.UUID]*models.Response
}

func newMockResponseRepo() *mockResponseRepo {
	return &mockResponseRepo{responses: make(map[uuid.UUID]*models.Response)}
}

func (m *mockResponseRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	if r, ok := m.responses[id]; ok {
		return r, nil
	}
	return nil, repository.ErrResponseNotFound
}

type mockMessageRepo struct {
	messages []models.Message
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	msg.ID = uuid.New()
	msg.CreatedAt = time.Now()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *mockMessageRepo) ListByDeal(ctx context.Context, dealID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var result []models.Message
	for _, msg := range m.messages {
		if msg.DealID == dealID {
			result = append(result, msg)
		}
	}
	return result, nil
}

type mockNotifier struct {
	events []string
}

func (m *mockNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	m.events = append(m.events, event)
	return nil
}

type dealFixture struct {
	svc        *DealService
	deals      *mockDealRepo
	orders     *mockOrderRepo
	responses  *mockResponseRepo
	messages   *mockMessageRepo
	notifier   *mockNotifier
	customer   uuid.UUID
	freelancer uuid.UUID
	orderID    uuid.UUID
	responseID uuid.UUID
}

func newDealFixture(t *testing.T) *dealFixture {
	t.Helper()

	orders := newMockOrderRepo()
	deals := newMockDealRepo(orders)
	responses := newMockResponseRepo()
	messages := &mockMessageRepo{}
	notifier := &mockNotifier{}

	f := &dealFixture{
		svc:        NewDealService(deals, orders, responses, messages),
		deals:      deals,
		orders:     orders,
		responses:  responses,
		messages:   messages,
		notifier:   notifier,
		customer:   uuid.New(),
		freelancer: uuid.New(),
		orderID:    uuid.New(),
		responseID: uuid.New(),
	}
	f.svc.SetNotifier(notifier)

	orders.orders[f.orderID] = &models.Order{
		ID:          f.orderID,
		CustomerID:  f.customer,
		Title:       "Логотип для кофейни",
		BudgetCents: 10_000_00,
		Status:      models.OrderStatusOpen,
	}
	responses.responses[f.responseID] = &models.Response{
		ID:           f.responseID,
		OrderID:      f.orderID,
		FreelancerID: f.freelancer,
		PriceCents:   9_000_00,
	}
	return f
}

func (f *dealFixture) acceptDeal(t *testing.T) *models.Deal {
	t.Helper()
	deal, err := f.svc.AcceptResponse(context.Background(), f.orderID, f.responseID, f.customer)
	assert.NoError(t, err)
	return deal
}

func TestDealService_FullLifecycle(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()

	deal := f.acceptDeal(t)
	assert.Equal(t, string(lifecycle.StatusActive), deal.Status)
	// Сумма сделки берётся из отклика, а не из бюджета заказа.
	assert.Equal(t, int64(9_000_00), deal.AmountCents)
	assert.Equal(t, models.OrderStatusInProgress, f.orders.orders[f.orderID].Status)

	delivered, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
	assert.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusDelivered), delivered.Status)
	assert.NotNil(t, delivered.DeliveredAt)

	completed, err := f.svc.Confirm(ctx, deal.ID, f.customer)
	assert.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusCompleted), completed.Status)
	assert.NotNil(t, completed.CompletedAt)

	assert.Equal(t, models.OrderStatusCompleted, f.orders.orders[f.orderID].Status)
	assert.Equal(t, int64(9_000_00), f.orders.earned[f.freelancer])
	assert.Equal(t, int64(9_000_00), f.orders.spent[f.customer])

	// Контрагенты получили события о создании и двух переходах.
	assert.Equal(t, []string{"deals.created", "deals.status", "deals.status"}, f.notifier.events)
}

func TestDealService_AcceptResponse_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("not order owner", func(t *testing.T) {
		f := newDealFixture(t)
		_, err := f.svc.AcceptResponse(ctx, f.orderID, f.responseID, f.freelancer)
		assert.True(t, apperror.IsForbidden(err))
	})

	t.Run("order not open", func(t *testing.T) {
		f := newDealFixture(t)
		f.orders.orders[f.orderID].Status = models.OrderStatusInProgress
		_, err := f.svc.AcceptResponse(ctx, f.orderID, f.responseID, f.customer)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("response from another order", func(t *testing.T) {
		f := newDealFixture(t)
		f.responses.responses[f.responseID].OrderID = uuid.New()
		_, err := f.svc.AcceptResponse(ctx, f.orderID, f.responseID, f.customer)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("second accept conflicts", func(t *testing.T) {
		f := newDealFixture(t)
		f.acceptDeal(t)
		_, err := f.svc.AcceptResponse(ctx, f.orderID, f.responseID, f.customer)
		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.ErrCodeInvalidState, appErr.Code)
	})

	t.Run("open order with live deal conflicts", func(t *testing.T) {
		f := newDealFixture(t)
		f.acceptDeal(t)
		// Заказ открыт, но живая сделка по нему ещё существует.
		f.orders.orders[f.orderID].Status = models.OrderStatusOpen
		_, err := f.svc.AcceptResponse(ctx, f.orderID, f.responseID, f.customer)
		var appErr *apperror.AppError
		assert.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)
		assert.Len(t, f.deals.deals, 1)
	})
}

func TestDealService_WrongRole(t *testing.T) {
	ctx := context.Background()

	t.Run("customer cannot deliver", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Deliver(ctx, deal.ID, f.customer)
		assert.ErrorIs(t, err, apperror.ErrWrongRole)
	})

	t.Run("freelancer cannot confirm", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
		assert.NoError(t, err)
		_, err = f.svc.Confirm(ctx, deal.ID, f.freelancer)
		assert.ErrorIs(t, err, apperror.ErrWrongRole)
	})

	t.Run("freelancer cannot cancel delivered deal", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
		assert.NoError(t, err)
		_, err = f.svc.Cancel(ctx, deal.ID, f.freelancer)
		assert.ErrorIs(t, err, apperror.ErrWrongRole)
	})
}

func TestDealService_InvalidState(t *testing.T) {
	ctx := context.Background()

	t.Run("confirm before deliver", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Confirm(ctx, deal.ID, f.customer)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("deliver twice", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
		assert.NoError(t, err)
		_, err = f.svc.Deliver(ctx, deal.ID, f.freelancer)
		assert.True(t, apperror.IsInvalidState(err))
	})

	t.Run("completed deal is immutable", func(t *testing.T) {
		f := newDealFixture(t)
		deal := f.acceptDeal(t)
		_, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
		assert.NoError(t, err)
		_, err = f.svc.Confirm(ctx, deal.ID, f.customer)
		assert.NoError(t, err)

		_, err = f.svc.Cancel(ctx, deal.ID, f.customer)
		assert.True(t, apperror.IsInvalidState(err))
	})
}

// Гонка двух одинаковых переходов: статус в памяти подходящий, но условное
// обновление возвращает ноль строк. Клиент получает конфликт, не успех.
func TestDealService_ConcurrentTransitionConflict(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)

	f.deals.forceConflict = true
	_, err := f.svc.Deliver(ctx, deal.ID, f.freelancer)
	assert.True(t, apperror.IsInvalidState(err))
}

// Выдача сделки подсказывает клиенту доступные действия под его роль.
func TestDealService_GetDeal_AvailableActions(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)

	details, err := f.svc.GetDeal(ctx, deal.ID, f.freelancer)
	assert.NoError(t, err)
	assert.Equal(t, []string{"deliver", "cancel"}, details.AvailableActions)

	details, err = f.svc.GetDeal(ctx, deal.ID, f.customer)
	assert.NoError(t, err)
	assert.Equal(t, []string{"cancel"}, details.AvailableActions)

	_, err = f.svc.Deliver(ctx, deal.ID, f.freelancer)
	assert.NoError(t, err)

	details, err = f.svc.GetDeal(ctx, deal.ID, f.customer)
	assert.NoError(t, err)
	assert.Equal(t, []string{"confirm", "cancel"}, details.AvailableActions)

	details, err = f.svc.GetDeal(ctx, deal.ID, f.freelancer)
	assert.NoError(t, err)
	assert.Empty(t, details.AvailableActions)
}

func TestDealService_NonParticipantSeesNotFound(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)
	stranger := uuid.New()

	_, err := f.svc.GetDeal(ctx, deal.ID, stranger)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.Deliver(ctx, deal.ID, stranger)
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.SendMessage(ctx, deal.ID, stranger, "привет")
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.ListMessages(ctx, deal.ID, stranger, 50, 0)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDealService_CancelActiveReopensOrder(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)

	cancelled, err := f.svc.Cancel(ctx, deal.ID, f.freelancer)
	assert.NoError(t, err)
	assert.Equal(t, string(lifecycle.StatusCancelled), cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, models.OrderStatusOpen, f.orders.orders[f.orderID].Status)

	// Агрегаты не меняются при отмене.
	assert.Zero(t, f.orders.earned[f.freelancer])
	assert.Zero(t, f.orders.spent[f.customer])
}

func TestDealService_Messages(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)

	msg, err := f.svc.SendMessage(ctx, deal.ID, f.freelancer, "Работа почти готова")
	assert.NoError(t, err)
	assert.Equal(t, string(lifecycle.RoleFreelancer), msg.SenderRole)

	_, err = f.svc.SendMessage(ctx, deal.ID, f.customer, "")
	assert.True(t, apperror.IsValidation(err))

	messages, err := f.svc.ListMessages(ctx, deal.ID, f.customer, 50, 0)
	assert.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestDealService_ListDeals(t *testing.T) {
	f := newDealFixture(t)
	ctx := context.Background()
	deal := f.acceptDeal(t)

	deals, err := f.svc.ListDeals(ctx, models.DealFilter{UserID: f.customer, Limit: 20})
	assert.NoError(t, err)
	assert.Len(t, deals, 1)
	assert.Equal(t, deal.ID, deals[0].ID)

	_, err = f.svc.ListDeals(ctx, models.DealFilter{UserID: f.customer, Status: strPtr("pending")})
	assert.True(t, apperror.IsValidation(err))
}

func strPtr(s string) *string { return &s }

package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
)

// mockOrderStore повторяет семантику репозитория заказов, включая условие
// "редактировать можно только собственный открытый заказ".
type mockOrderStore struct {
	orders map[uuid.UUID]*models.Order
}

func newMockOrderStore() *mockOrderStore {
	return &mockOrderStore{orders: make(map[uuid.UUID]*models.Order)}
}

func (m *mockOrderStore) Create(ctx context.Context, order *models.Order) error {
	order.ID = uuid.New()
	order.Code = "ORD-0001"
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockOrderStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if o, ok := m.orders[id]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderStore) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	var result []models.Order
	for _, o := range m.orders {
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		result = append(result, *o)
	}
	return result, nil
}

func (m *mockOrderStore) Update(ctx context.Context, order *models.Order) error {
	existing, ok := m.orders[order.ID]
	if !ok || existing.CustomerID != order.CustomerID || existing.Status != models.OrderStatusOpen {
		return repository.ErrOrderNotFound
	}
	existing.Title = order.Title
	existing.Description = order.Description
	existing.BudgetCents = order.BudgetCents
	existing.Category = order.Category
	existing.Priority = order.Priority
	existing.WorkType = order.WorkType
	existing.Tags = order.Tags
	existing.DeadlineAt = order.DeadlineAt
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockOrderStore) Delete(ctx context.Context, id, customerID uuid.UUID) error {
	existing, ok := m.orders[id]
	if !ok || existing.CustomerID != customerID || existing.Status != models.OrderStatusOpen {
		return repository.ErrOrderNotFound
	}
	delete(m.orders, id)
	return nil
}

type mockResponseStore struct {
	responses map[uuid.UUID]*models.Response
}

func newMockResponseStore() *mockResponseStore {
	return &mockResponseStore{responses: make(map[uuid.UUID]*models.Response)}
}

func (m *mockResponseStore) Create(ctx context.Context, resp *models.Response) error {
	for _, existing := range m.responses {
		if existing.OrderID == resp.OrderID && existing.FreelancerID == resp.FreelancerID {
			return repository.ErrResponseAlreadyExists
		}
	}
	resp.ID = uuid.New()
	resp.CreatedAt = time.Now()
	stored := *resp
	m.responses[resp.ID] = &stored
	return nil
}

func (m *mockResponseStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Response, error) {
	if r, ok := m.responses[id]; ok {
		return r, nil
	}
	return nil, repository.ErrResponseNotFound
}

func (m *mockResponseStore) GetByOrderAndFreelancer(ctx context.Context, orderID, freelancerID uuid.UUID) (*models.Response, error) {
	for _, r := range m.responses {
		if r.OrderID == orderID && r.FreelancerID == freelancerID {
			return r, nil
		}
	}
	return nil, repository.ErrResponseNotFound
}

func (m *mockResponseStore) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Response, error) {
	var result []models.Response
	for _, r := range m.responses {
		if r.OrderID == orderID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func validOrderInput() OrderInput {
	return OrderInput{
		Title:       "Лендинг для стоматологии",
		Description: "Нужен одностраничный сайт с формой записи на приём.",
		BudgetCents: 50_000_00,
		Category:    "web",
		Priority:    models.OrderPriorityMedium,
		WorkType:    models.WorkTypeFixed,
		Tags:        []string{"html", "css"},
	}
}

func TestOrderService_CreateOrder(t *testing.T) {
	svc := NewOrderService(newMockOrderStore(), newMockResponseStore())
	customerID := uuid.New()

	order, err := svc.CreateOrder(context.Background(), customerID, validOrderInput())
	assert.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, order.Status)
	assert.Equal(t, customerID, order.CustomerID)
	assert.NotEmpty(t, order.Code)
}

func TestOrderService_CreateOrder_Validation(t *testing.T) {
	svc := NewOrderService(newMockOrderStore(), newMockResponseStore())
	ctx := context.Background()
	customerID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*OrderInput)
	}{
		{"short title", func(in *OrderInput) { in.Title = "ab" }},
		{"short description", func(in *OrderInput) { in.Description = "мало" }},
		{"zero budget", func(in *OrderInput) { in.BudgetCents = 0 }},
		{"negative budget", func(in *OrderInput) { in.BudgetCents = -100 }},
		{"unknown priority", func(in *OrderInput) { in.Priority = "critical" }},
		{"unknown work type", func(in *OrderInput) { in.WorkType = "retainer" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validOrderInput()
			tt.mutate(&in)
			_, err := svc.CreateOrder(ctx, customerID, in)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestOrderService_UpdateOrder(t *testing.T) {
	store := newMockOrderStore()
	svc := NewOrderService(store, newMockResponseStore())
	ctx := context.Background()
	customerID := uuid.New()

	order, err := svc.CreateOrder(ctx, customerID, validOrderInput())
	assert.NoError(t, err)

	in := validOrderInput()
	in.Title = "Лендинг и логотип для стоматологии"
	updated, err := svc.UpdateOrder(ctx, order.ID, customerID, in)
	assert.NoError(t, err)
	assert.Equal(t, in.Title, updated.Title)

	// Чужой заказ и не-open заказ дают одинаковый ответ.
	_, err = svc.UpdateOrder(ctx, order.ID, uuid.New(), in)
	assert.True(t, apperror.IsNotFound(err))

	store.orders[order.ID].Status = models.OrderStatusInProgress
	_, err = svc.UpdateOrder(ctx, order.ID, customerID, in)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_DeleteOrder(t *testing.T) {
	store := newMockOrderStore()
	svc := NewOrderService(store, newMockResponseStore())
	ctx := context.Background()
	customerID := uuid.New()

	order, err := svc.CreateOrder(ctx, customerID, validOrderInput())
	assert.NoError(t, err)

	assert.True(t, apperror.IsNotFound(svc.DeleteOrder(ctx, order.ID, uuid.New())))
	assert.NoError(t, svc.DeleteOrder(ctx, order.ID, customerID))

	_, err = svc.GetOrder(ctx, order.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestOrderService_CreateResponse(t *testing.T) {
	store := newMockOrderStore()
	svc := NewOrderService(store, newMockResponseStore())
	ctx := context.Background()
	customerID := uuid.New()
	freelancerID := uuid.New()

	order, err := svc.CreateOrder(ctx, customerID, validOrderInput())
	assert.NoError(t, err)

	input := ResponseInput{
		OrderID:      order.ID,
		FreelancerID: freelancerID,
		PriceCents:   45_000_00,
		Message:      "Сделаю за неделю, портфолио по ссылке.",
	}

	resp, err := svc.CreateResponse(ctx, input)
	assert.NoError(t, err)
	assert.Equal(t, order.ID, resp.OrderID)

	// Повторный отклик того же исполнителя - конфликт.
	_, err = svc.CreateResponse(ctx, input)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeConflict, appErr.Code)

	// Отклик на собственный заказ запрещён.
	own := input
	own.FreelancerID = customerID
	_, err = svc.CreateResponse(ctx, own)
	assert.True(t, apperror.IsValidation(err))

	// Закрытый заказ не принимает отклики.
	store.orders[order.ID].Status = models.OrderStatusInProgress
	other := input
	other.FreelancerID = uuid.New()
	_, err = svc.CreateResponse(ctx, other)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestOrderService_ListResponses_OwnerOnly(t *testing.T) {
	store := newMockOrderStore()
	svc := NewOrderService(store, newMockResponseStore())
	ctx := context.Background()
	customerID := uuid.New()
	freelancerID := uuid.New()

	order, err := svc.CreateOrder(ctx, customerID, validOrderInput())
	assert.NoError(t, err)

	_, err = svc.CreateResponse(ctx, ResponseInput{
		OrderID:      order.ID,
		FreelancerID: freelancerID,
		PriceCents:   40_000_00,
		Message:      "Готов взяться прямо сейчас.",
	})
	assert.NoError(t, err)

	responses, err := svc.ListResponses(ctx, order.ID, customerID)
	assert.NoError(t, err)
	assert.Len(t, responses, 1)

	_, err = svc.ListResponses(ctx, order.ID, freelancerID)
	assert.True(t, apperror.IsForbidden(err))

	mine, err := svc.GetMyResponse(ctx, order.ID, freelancerID)
	assert.NoError(t, err)
	assert.Equal(t, freelancerID, mine.FreelancerID)

	_, err = svc.GetMyResponse(ctx, order.ID, uuid.New())
	assert.True(t, apperror.IsNotFound(err))
}

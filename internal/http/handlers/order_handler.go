package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/http/handlers/common"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/service"
)

var errDeadlineFormat = errors.New("deadline_at должен быть в формате RFC3339")

// OrderHandler обслуживает заказы и отклики на них.
type OrderHandler struct {
	orders *service.OrderService
}

// NewOrderHandler создаёт новый хэндлер.
func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// CreateOrder обрабатывает POST /api/orders.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	input, err := orderInputFromRequest(req.Title, req.Description, req.BudgetCents,
		req.Category, req.Priority, req.WorkType, req.Tags, req.DeadlineAt)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), userID, input)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, order)
}

// GetOrder обрабатывает GET /api/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, order)
}

// ListOrders обрабатывает GET /api/orders со всеми фильтрами ленты.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, offset := common.ParsePagination(c, 20, 100)

	filter := models.OrderFilter{
		Status:    queryPtr(c, "status"),
		Category:  queryPtr(c, "category"),
		Priority:  queryPtr(c, "priority"),
		WorkType:  queryPtr(c, "work_type"),
		Search:    queryPtr(c, "search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
		Limit:     limit,
		Offset:    offset,
	}

	if raw := c.Query("budget_min"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.MinBudgetCents = &v
		}
	}
	if raw := c.Query("budget_max"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.MaxBudgetCents = &v
		}
	}
	if raw := c.Query("customer_id"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			filter.CustomerID = &id
		}
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.OrderListResponse{
		Orders: orders,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// ListMyOrders обрабатывает GET /api/orders/my.
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.ParsePagination(c, 20, 100)
	filter := models.OrderFilter{
		CustomerID: &userID,
		Status:     queryPtr(c, "status"),
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
		Limit:      limit,
		Offset:     offset,
	}

	orders, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.OrderListResponse{
		Orders: orders,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// UpdateOrder обрабатывает PUT /api/orders/:id. Редактировать можно
// только собственный открытый заказ.
func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	input, err := orderInputFromRequest(req.Title, req.Description, req.BudgetCents,
		req.Category, req.Priority, req.WorkType, req.Tags, req.DeadlineAt)
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), orderID, userID, input)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, order)
}

// DeleteOrder обрабатывает DELETE /api/orders/:id.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.orders.DeleteOrder(c.Request.Context(), orderID, userID); err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// CreateResponse обрабатывает POST /api/orders/:id/responses.
func (h *OrderHandler) CreateResponse(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	resp, err := h.orders.CreateResponse(c.Request.Context(), service.ResponseInput{
		OrderID:      orderID,
		FreelancerID: userID,
		PriceCents:   req.PriceCents,
		Message:      req.Message,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, resp)
}

// ListResponses обрабатывает GET /api/orders/:id/responses.
// Список откликов видит только владелец заказа.
func (h *OrderHandler) ListResponses(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	responses, err := h.orders.ListResponses(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, responses)
}

// GetMyResponse обрабатывает GET /api/orders/:id/responses/my.
func (h *OrderHandler) GetMyResponse(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	orderID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.orders.GetMyResponse(c.Request.Context(), orderID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, resp)
}

// orderInputFromRequest собирает OrderInput, разбирая дедлайн из RFC3339.
func orderInputFromRequest(title, description string, budgetCents int64,
	category, priority, workType string, tags []string, deadlineAt *string) (service.OrderInput, error) {

	input := service.OrderInput{
		Title:       title,
		Description: description,
		BudgetCents: budgetCents,
		Category:    category,
		Priority:    priority,
		WorkType:    workType,
		Tags:        tags,
	}

	if deadlineAt != nil && *deadlineAt != "" {
		parsed, err := time.Parse(time.RFC3339, *deadlineAt)
		if err != nil {
			return service.OrderInput{}, errDeadlineFormat
		}
		input.DeadlineAt = &parsed
	}

	return input, nil
}

func queryPtr(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}

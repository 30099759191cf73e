package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/dto"
	"github.com/retasker/retasker-backend/internal/http/handlers/common"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/service"
)

// DealHandler обслуживает сделки: создание из отклика, переходы статусов,
// чат и жалобы.
type DealHandler struct {
	deals      *service.DealService
	complaints *service.ComplaintService
}

// NewDealHandler создаёт новый хэндлер.
func NewDealHandler(deals *service.DealService, complaints *service.ComplaintService) *DealHandler {
	return &DealHandler{deals: deals, complaints: complaints}
}

// AcceptResponse обрабатывает POST /api/orders/:id/accept.
// Заказчик принимает отклик, создаётся сделка.
func (h *DealHandler) AcceptResponse(c *gin.Context) {
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

	var req dto.AcceptResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}
	responseID, err := uuid.Parse(req.ResponseID)
	if err != nil {
		common.RespondBadRequest(c, "response_id должен быть валидным UUID")
		return
	}

	deal, err := h.deals.AcceptResponse(c.Request.Context(), orderID, responseID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, deal)
}

// GetDeal обрабатывает GET /api/deals/:id.
func (h *DealHandler) GetDeal(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	details, err := h.deals.GetDeal(c.Request.Context(), dealID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, details)
}

// ListDeals обрабатывает GET /api/deals с фильтрами role и status.
func (h *DealHandler) ListDeals(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.ParsePagination(c, 20, 100)
	filter := models.DealFilter{
		UserID: userID,
		Role:   c.Query("role"),
		Status: queryPtr(c, "status"),
		Limit:  limit,
		Offset: offset,
	}

	deals, err := h.deals.ListDeals(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, dto.DealListResponse{
		Deals:  deals,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Deliver обрабатывает POST /api/deals/:id/deliver.
func (h *DealHandler) Deliver(c *gin.Context) {
	h.transition(c, h.deals.Deliver)
}

// Confirm обрабатывает POST /api/deals/:id/confirm.
func (h *DealHandler) Confirm(c *gin.Context) {
	h.transition(c, h.deals.Confirm)
}

// Cancel обрабатывает POST /api/deals/:id/cancel.
func (h *DealHandler) Cancel(c *gin.Context) {
	h.transition(c, h.deals.Cancel)
}

func (h *DealHandler) transition(c *gin.Context, op func(ctx context.Context, dealID, actorID uuid.UUID) (*models.Deal, error)) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	deal, err := op(c.Request.Context(), dealID, userID)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, deal)
}

// SendMessage обрабатывает POST /api/deals/:id/messages.
func (h *DealHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	msg, err := h.deals.SendMessage(c.Request.Context(), dealID, userID, req.Content)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, msg)
}

// ListMessages обрабатывает GET /api/deals/:id/messages.
func (h *DealHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.ParsePagination(c, 50, 200)
	messages, err := h.deals.ListMessages(c.Request.Context(), dealID, userID, limit, offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, messages)
}

// FileComplaint обрабатывает POST /api/deals/:id/complaints.
func (h *DealHandler) FileComplaint(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	dealID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.CreateComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	complaint, err := h.complaints.FileComplaint(c.Request.Context(), dealID, userID, service.ComplaintInput{
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusCreated, complaint)
}

// ListMyComplaints обрабатывает GET /api/complaints/my.
func (h *DealHandler) ListMyComplaints(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.ParsePagination(c, 20, 100)
	complaints, err := h.complaints.ListMyComplaints(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	common.RespondOK(c, http.StatusOK, complaints)
}

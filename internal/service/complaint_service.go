package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/retasker/retasker-backend/internal/lifecycle"
	"github.com/retasker/retasker-backend/internal/metrics"
	"github.com/retasker/retasker-backend/internal/models"
	"github.com/retasker/retasker-backend/internal/pkg/apperror"
	"github.com/retasker/retasker-backend/internal/repository"
	"github.com/retasker/retasker-backend/internal/validation"
)

// ComplaintRepo описывает зависимости ComplaintService от хранилища жалоб.
type ComplaintRepo interface {
	Create(ctx context.Context, c *models.Complaint) error
	GetByDealAndAuthor(ctx context.Context, dealID, authorID uuid.UUID) (*models.Complaint, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Complaint, error)
}

// ComplaintService принимает жалобы участников сделок. Разбор жалоб
// выполняется вне системы, здесь только приём и хранение.
type ComplaintService struct {
	complaints ComplaintRepo
	deals      DealRepo
	metrics    *metrics.DealMetrics
}

// NewComplaintService создаёт сервис жалоб.
func NewComplaintService(complaints ComplaintRepo, deals DealRepo) *ComplaintService {
	return &ComplaintService{complaints: complaints, deals: deals}
}

// SetMetrics подключает метрики.
func (s *ComplaintService) SetMetrics(m *metrics.DealMetrics) {
	s.metrics = m
}

// ComplaintInput содержит данные новой жалобы.
type ComplaintInput struct {
	Reason      string
	Description string
}

// FileComplaint регистрирует жалобу участника по сделке.
// Одна жалоба на сделку от одного автора.
func (s *ComplaintService) FileComplaint(ctx context.Context, dealID, authorID uuid.UUID, input ComplaintInput) (*models.Complaint, error) {
	if err := validation.ValidateComplaintReason(input.Reason); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateComplaintDescription(input.Description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	deal, err := s.deals.GetByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, repository.ErrDealNotFound) {
			return nil, apperror.ErrDealNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сделку")
	}
	if _, ok := lifecycle.ResolveRole(deal.CustomerID, deal.FreelancerID, authorID); !ok {
		return nil, apperror.ErrDealNotFound
	}

	// Дружелюбная проверка до INSERT; гонку всё равно ловит уникальный индекс.
	if _, err := s.complaints.GetByDealAndAuthor(ctx, dealID, authorID); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "жалоба по этой сделке уже подана")
	} else if !errors.Is(err, repository.ErrComplaintNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить жалобу")
	}

	complaint := &models.Complaint{
		DealID:      dealID,
		AuthorID:    authorID,
		Reason:      input.Reason,
		Description: input.Description,
		Status:      models.ComplaintStatusOpen,
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		if errors.Is(err, repository.ErrComplaintAlreadyExists) {
			return nil, apperror.New(apperror.ErrCodeConflict, "жалоба по этой сделке уже подана")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить жалобу")
	}

	s.metrics.ComplaintFiled()
	return complaint, nil
}

// ListMyComplaints возвращает жалобы пользователя.
func (s *ComplaintService) ListMyComplaints(ctx context.Context, authorID uuid.UUID, limit, offset int) ([]models.Complaint, error) {
	complaints, err := s.complaints.ListByAuthor(ctx, authorID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить жалобы")
	}
	return complaints, nil
}

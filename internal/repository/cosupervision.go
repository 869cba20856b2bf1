package repository

import (
	"context"
	"errors"

	"capmatch/internal/models"

	"gorm.io/gorm"
)

// CoSupervisionRequestRepository defines the interface for co-supervision
// request data operations.
type CoSupervisionRequestRepository interface {
	Create(ctx context.Context, request *models.CoSupervisionRequest) error
	GetByID(ctx context.Context, id uint) (*models.CoSupervisionRequest, error)
	FindPendingForProject(ctx context.Context, projectID uint) (*models.CoSupervisionRequest, error)
	ListForSupervisor(ctx context.Context, supervisorID uint, direction RequestDirection) ([]models.CoSupervisionRequest, error)
	UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error
}

// coSupervisionRequestRepository implements CoSupervisionRequestRepository.
type coSupervisionRequestRepository struct {
	db *gorm.DB
}

// NewCoSupervisionRequestRepository creates a new co-supervision request repository.
func NewCoSupervisionRequestRepository(db *gorm.DB) CoSupervisionRequestRepository {
	return &coSupervisionRequestRepository{db: db}
}

func (r *coSupervisionRequestRepository) Create(ctx context.Context, request *models.CoSupervisionRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *coSupervisionRequestRepository) GetByID(ctx context.Context, id uint) (*models.CoSupervisionRequest, error) {
	var request models.CoSupervisionRequest
	if err := r.db.WithContext(ctx).
		Preload("RequestingSupervisor").
		Preload("TargetSupervisor").
		Preload("Project").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Co-supervision request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *coSupervisionRequestRepository) FindPendingForProject(ctx context.Context, projectID uint) (*models.CoSupervisionRequest, error) {
	var request models.CoSupervisionRequest
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND status = ?", projectID, models.RequestStatusPending).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request exists
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *coSupervisionRequestRepository) ListForSupervisor(ctx context.Context, supervisorID uint, direction RequestDirection) ([]models.CoSupervisionRequest, error) {
	query := r.db.WithContext(ctx).
		Preload("RequestingSupervisor").
		Preload("TargetSupervisor").
		Preload("Project").
		Order("created_at DESC")

	switch direction {
	case RequestDirectionIncoming:
		query = query.Where("target_supervisor_id = ?", supervisorID)
	case RequestDirectionOutgoing:
		query = query.Where("requesting_supervisor_id = ?", supervisorID)
	default:
		query = query.Where("requesting_supervisor_id = ? OR target_supervisor_id = ?", supervisorID, supervisorID)
	}

	var requests []models.CoSupervisionRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *coSupervisionRequestRepository) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.CoSupervisionRequest{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

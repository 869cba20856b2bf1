package repository

import (
	"context"
	"errors"

	"capmatch/internal/models"

	"gorm.io/gorm"
)

// RequestDirection filters partnership request listings.
type RequestDirection string

const (
	// RequestDirectionIncoming lists requests targeting the student.
	RequestDirectionIncoming RequestDirection = "incoming"
	// RequestDirectionOutgoing lists requests sent by the student.
	RequestDirectionOutgoing RequestDirection = "outgoing"
	// RequestDirectionAll lists both.
	RequestDirectionAll RequestDirection = "all"
)

// PartnershipRequestRepository defines the interface for student partnership
// request data operations.
type PartnershipRequestRepository interface {
	Create(ctx context.Context, request *models.PartnershipRequest) error
	GetByID(ctx context.Context, id uint) (*models.PartnershipRequest, error)
	FindPendingBetween(ctx context.Context, studentID1, studentID2 uint) (*models.PartnershipRequest, error)
	ListForStudent(ctx context.Context, studentID uint, direction RequestDirection) ([]models.PartnershipRequest, error)
	UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error
}

// partnershipRequestRepository implements PartnershipRequestRepository.
type partnershipRequestRepository struct {
	db *gorm.DB
}

// NewPartnershipRequestRepository creates a new partnership request repository.
func NewPartnershipRequestRepository(db *gorm.DB) PartnershipRequestRepository {
	return &partnershipRequestRepository{db: db}
}

func (r *partnershipRequestRepository) Create(ctx context.Context, request *models.PartnershipRequest) error {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *partnershipRequestRepository) GetByID(ctx context.Context, id uint) (*models.PartnershipRequest, error) {
	var request models.PartnershipRequest
	if err := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("TargetStudent").
		First(&request, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Partnership request", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *partnershipRequestRepository) FindPendingBetween(ctx context.Context, studentID1, studentID2 uint) (*models.PartnershipRequest, error) {
	var request models.PartnershipRequest

	// Find a pending request between the pair in either direction
	if err := r.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Where("(requester_id = ? AND target_student_id = ?) OR (requester_id = ? AND target_student_id = ?)",
			studentID1, studentID2, studentID2, studentID1).
		First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No pending request exists
		}
		return nil, models.NewInternalError(err)
	}
	return &request, nil
}

func (r *partnershipRequestRepository) ListForStudent(ctx context.Context, studentID uint, direction RequestDirection) ([]models.PartnershipRequest, error) {
	query := r.db.WithContext(ctx).
		Preload("Requester").
		Preload("TargetStudent").
		Order("created_at DESC")

	switch direction {
	case RequestDirectionIncoming:
		query = query.Where("target_student_id = ?", studentID)
	case RequestDirectionOutgoing:
		query = query.Where("requester_id = ?", studentID)
	default:
		query = query.Where("requester_id = ? OR target_student_id = ?", studentID, studentID)
	}

	var requests []models.PartnershipRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return requests, nil
}

func (r *partnershipRequestRepository) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	if err := r.db.WithContext(ctx).
		Model(&models.PartnershipRequest{}).
		Where("id = ?", id).
		Update("status", status).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

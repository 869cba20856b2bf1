package repository

import (
	"context"
	"errors"

	"capmatch/internal/models"

	"gorm.io/gorm"
)

// SupervisorRepository defines the interface for supervisor data operations.
// CurrentCapacity is never written through this repository; the capacity
// ledger mutates it inside transactions only.
type SupervisorRepository interface {
	Create(ctx context.Context, supervisor *models.Supervisor) error
	GetByID(ctx context.Context, id uint) (*models.Supervisor, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Supervisor, error)
	List(ctx context.Context, limit, offset int) ([]models.Supervisor, error)
}

// supervisorRepository implements SupervisorRepository.
type supervisorRepository struct {
	db *gorm.DB
}

// NewSupervisorRepository creates a new supervisor repository.
func NewSupervisorRepository(db *gorm.DB) SupervisorRepository {
	return &supervisorRepository{db: db}
}

func (r *supervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	if err := r.db.WithContext(ctx).Create(supervisor).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *supervisorRepository) GetByID(ctx context.Context, id uint) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).First(&supervisor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Supervisor", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &supervisor, nil
}

func (r *supervisorRepository) GetByUserID(ctx context.Context, userID uint) (*models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&supervisor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Supervisor profile for user", userID)
		}
		return nil, models.NewInternalError(err)
	}
	return &supervisor, nil
}

func (r *supervisorRepository) List(ctx context.Context, limit, offset int) ([]models.Supervisor, error) {
	var supervisors []models.Supervisor
	if err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Find(&supervisors).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return supervisors, nil
}

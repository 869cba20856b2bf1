// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"capmatch/internal/models"

	"gorm.io/gorm"
)

// nonTerminalStatuses are the application states counted by the duplicate guard.
var nonTerminalStatuses = []models.ApplicationStatus{
	models.ApplicationStatusPending,
	models.ApplicationStatusUnderReview,
	models.ApplicationStatusRevisionRequested,
}

// ApplicationRepository defines the interface for application data operations.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uint) (*models.Application, error)
	FindActive(ctx context.Context, studentID, supervisorID uint) (*models.Application, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error)
	ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Application, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	ListActiveWithPartner(ctx context.Context, studentID, partnerID uint) ([]models.Application, error)
}

// applicationRepository implements ApplicationRepository.
type applicationRepository struct {
	db *gorm.DB
}

// NewApplicationRepository creates a new application repository.
func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &applicationRepository{db: db}
}

func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	if err := r.db.WithContext(ctx).Create(app).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Application", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) FindActive(ctx context.Context, studentID, supervisorID uint) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND supervisor_id = ? AND status IN ?", studentID, supervisorID, nonTerminalStatuses).
		First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil // No active application exists
		}
		return nil, models.NewInternalError(err)
	}
	return &app, nil
}

func (r *applicationRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Preload("Supervisor").
		Order("date_applied DESC").
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.WithContext(ctx).
		Where("supervisor_id = ?", supervisorID).
		Preload("Student").
		Order("date_applied ASC").
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

func (r *applicationRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *applicationRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Application{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListActiveWithPartner returns non-terminal applications that recorded the
// given student/partner combination, in either direction. Used by the stale
// partner-field sync after unpairing.
func (r *applicationRepository) ListActiveWithPartner(ctx context.Context, studentID, partnerID uint) ([]models.Application, error) {
	var apps []models.Application
	if err := r.db.WithContext(ctx).
		Where("status IN ?", nonTerminalStatuses).
		Where("(student_id = ? AND partner_id = ?) OR (student_id = ? AND partner_id = ?)",
			studentID, partnerID, partnerID, studentID).
		Find(&apps).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return apps, nil
}

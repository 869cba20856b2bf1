package service

import (
	"context"
	"strings"

	"capmatch/internal/models"
	"capmatch/internal/observability"
	"capmatch/internal/repository"
)

// ProjectService manages project records and their delivery lifecycle. Its
// main job beyond CRUD is firing co-supervision cleanup when a project
// reaches completed.
type ProjectService struct {
	projects      repository.ProjectRepository
	supervisors   repository.SupervisorRepository
	coSupervision *SupervisorPartnershipService
	logger        *observability.Logger
}

// NewProjectService returns a new ProjectService.
func NewProjectService(
	projects repository.ProjectRepository,
	supervisors repository.SupervisorRepository,
	coSupervision *SupervisorPartnershipService,
) *ProjectService {
	return &ProjectService{
		projects:      projects,
		supervisors:   supervisors,
		coSupervision: coSupervision,
		logger:        observability.Component("projects"),
	}
}

// CreateProject registers a new project owned by the supervisor.
func (s *ProjectService) CreateProject(ctx context.Context, supervisorID uint, title string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, models.NewValidationError("Project title is required")
	}
	if len(title) > 200 {
		return nil, models.NewValidationError("Project title must be at most 200 characters")
	}

	if _, err := s.supervisors.GetByID(ctx, supervisorID); err != nil {
		return nil, err
	}

	project := &models.Project{
		Title:        title,
		SupervisorID: supervisorID,
		Status:       models.ProjectStatusPendingApproval,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// GetProject fetches a single project.
func (s *ProjectService) GetProject(ctx context.Context, projectID uint) (*models.Project, error) {
	return s.projects.GetByID(ctx, projectID)
}

// ListBySupervisor lists projects the supervisor owns or co-supervises.
func (s *ProjectService) ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Project, error) {
	return s.projects.ListBySupervisor(ctx, supervisorID)
}

// UpdateStatus moves a project through its delivery lifecycle. Only the
// owning supervisor or an admin may change status. Completing a project
// triggers co-supervision cleanup; cleanup failures are logged, never
// surfaced, since the status change itself has already committed.
func (s *ProjectService) UpdateStatus(ctx context.Context, projectID uint, caller models.Identity, callerSupervisorID uint, newStatus models.ProjectStatus) (*models.Project, error) {
	if !isKnownProjectStatus(newStatus) {
		return nil, models.NewValidationError("Unknown project status: " + string(newStatus))
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && project.SupervisorID != callerSupervisorID {
		return nil, models.NewForbiddenError("Only the project's supervisor can change its status")
	}

	if project.Status == newStatus {
		return project, nil
	}
	if !caller.IsAdmin() && !isAllowedProjectTransition(project.Status, newStatus) {
		return nil, models.NewInvalidStateError(
			"Cannot move project from " + string(project.Status) + " to " + string(newStatus))
	}

	if err := s.projects.UpdateFields(ctx, projectID, map[string]interface{}{
		"status": newStatus,
	}); err != nil {
		return nil, err
	}

	if newStatus == models.ProjectStatusCompleted {
		if err := s.coSupervision.CleanupOnProjectCompletion(ctx, projectID); err != nil {
			s.logger.WarnContext(ctx, "co-supervision cleanup failed on completion",
				"project_id", projectID, "error", err)
		}
	}

	return s.projects.GetByID(ctx, projectID)
}

func isKnownProjectStatus(status models.ProjectStatus) bool {
	switch status {
	case models.ProjectStatusPendingApproval,
		models.ProjectStatusApproved,
		models.ProjectStatusInProgress,
		models.ProjectStatusCompleted:
		return true
	}
	return false
}

// isAllowedProjectTransition encodes the forward-only delivery lifecycle.
func isAllowedProjectTransition(from, to models.ProjectStatus) bool {
	switch from {
	case models.ProjectStatusPendingApproval:
		return to == models.ProjectStatusApproved
	case models.ProjectStatusApproved:
		return to == models.ProjectStatusInProgress
	case models.ProjectStatusInProgress:
		return to == models.ProjectStatusCompleted
	}
	return false
}

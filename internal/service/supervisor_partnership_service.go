package service

import (
	"context"
	"errors"

	"capmatch/internal/models"
	"capmatch/internal/observability"
	"capmatch/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SupervisorPartnershipService owns co-supervision requests between
// supervisors, scoped to a project. Accepting a request reserves one unit of
// the target supervisor's capacity through the same transaction protocol the
// application workflow uses.
type SupervisorPartnershipService struct {
	db          *gorm.DB
	ledger      *CapacityLedger
	requests    repository.CoSupervisionRequestRepository
	supervisors repository.SupervisorRepository
	projects    repository.ProjectRepository
	logger      *observability.Logger
}

// NewSupervisorPartnershipService returns a new SupervisorPartnershipService.
func NewSupervisorPartnershipService(
	db *gorm.DB,
	ledger *CapacityLedger,
	requests repository.CoSupervisionRequestRepository,
	supervisors repository.SupervisorRepository,
	projects repository.ProjectRepository,
) *SupervisorPartnershipService {
	return &SupervisorPartnershipService{
		db:          db,
		ledger:      ledger,
		requests:    requests,
		supervisors: supervisors,
		projects:    projects,
		logger:      observability.Component("co-supervision"),
	}
}

// SendRequest proposes co-supervision of the project to the target
// supervisor. Only the project's primary supervisor may propose.
func (s *SupervisorPartnershipService) SendRequest(ctx context.Context, requestingSupervisorID, targetSupervisorID, projectID uint) (*models.CoSupervisionRequest, error) {
	if requestingSupervisorID == targetSupervisorID {
		return nil, models.NewSelfPartnershipError()
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.SupervisorID != requestingSupervisorID {
		return nil, models.NewForbiddenError("Only the project's primary supervisor can request co-supervision")
	}
	if project.CoSupervisorID != nil {
		return nil, models.NewInvalidStateError("Project already has a co-supervisor")
	}
	if project.Status == models.ProjectStatusCompleted {
		return nil, models.NewInvalidStateError("Completed projects cannot take a co-supervisor")
	}

	if _, err := s.supervisors.GetByID(ctx, targetSupervisorID); err != nil {
		return nil, err
	}

	existing, err := s.requests.FindPendingForProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateRequestError()
	}

	request := &models.CoSupervisionRequest{
		RequestingSupervisorID: requestingSupervisorID,
		TargetSupervisorID:     targetSupervisorID,
		ProjectID:              projectID,
		Status:                 models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, request.ID)
}

// RespondToRequest accepts or rejects a pending co-supervision request. Only
// the target supervisor may respond. Acceptance reserves the target's
// capacity and links the project atomically.
func (s *SupervisorPartnershipService) RespondToRequest(ctx context.Context, requestID, callerSupervisorID uint, action RespondAction) (*models.CoSupervisionRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TargetSupervisorID != callerSupervisorID {
		return nil, models.NewForbiddenError("Only the request's target can respond to it")
	}
	if request.Status != models.RequestStatusPending {
		return nil, models.NewAlreadyProcessedError()
	}

	switch action {
	case RespondActionAccept:
		if err := s.acceptRequest(ctx, request); err != nil {
			return nil, err
		}
	case RespondActionReject:
		if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusRejected); err != nil {
			return nil, err
		}
	default:
		return nil, models.NewValidationError("action must be accept or reject")
	}

	return s.requests.GetByID(ctx, requestID)
}

// acceptRequest runs the capacity transaction: re-read the request and
// project under locks, reserve the co-supervisor's capacity, link the
// project, and mark the request accepted, all or nothing.
func (s *SupervisorPartnershipService) acceptRequest(ctx context.Context, request *models.CoSupervisionRequest) error {
	return s.ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var locked models.CoSupervisionRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, request.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Co-supervision request", request.ID)
			}
			return err
		}
		if locked.Status != models.RequestStatusPending {
			return models.NewAlreadyProcessedError()
		}

		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, locked.ProjectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Project", locked.ProjectID)
			}
			return err
		}
		if project.CoSupervisorID != nil {
			return models.NewInvalidStateError("Project already has a co-supervisor")
		}
		if project.Status == models.ProjectStatusCompleted {
			return models.NewInvalidStateError("Completed projects cannot take a co-supervisor")
		}

		if _, err := s.ledger.Reserve(tx, locked.TargetSupervisorID); err != nil {
			return err
		}

		if err := tx.Model(&models.Project{}).
			Where("id = ?", project.ID).
			Update("co_supervisor_id", locked.TargetSupervisorID).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.CoSupervisionRequest{}).
			Where("id = ?", locked.ID).
			Update("status", models.RequestStatusAccepted).Error; err != nil {
			return err
		}
		return nil
	})
}

// CancelRequest withdraws a pending request. Single-document write; no
// capacity was reserved for a pending request, so no transaction is needed.
func (s *SupervisorPartnershipService) CancelRequest(ctx context.Context, requestID, callerSupervisorID uint) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequestingSupervisorID != callerSupervisorID {
		return models.NewForbiddenError("Only the requester can cancel a request")
	}
	if request.Status != models.RequestStatusPending {
		return models.NewInvalidStateError("Only pending requests can be cancelled")
	}
	return s.requests.UpdateStatus(ctx, requestID, models.RequestStatusCancelled)
}

// ListRequests lists co-supervision requests involving the supervisor.
func (s *SupervisorPartnershipService) ListRequests(ctx context.Context, supervisorID uint, direction repository.RequestDirection) ([]models.CoSupervisionRequest, error) {
	return s.requests.ListForSupervisor(ctx, supervisorID, direction)
}

// UnpairCoSupervisor releases the co-supervisor from the project, freeing
// their capacity. Restricted to the project's primary supervisor.
func (s *SupervisorPartnershipService) UnpairCoSupervisor(ctx context.Context, projectID, callerSupervisorID uint) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.SupervisorID != callerSupervisorID {
		return models.NewForbiddenError("Only the project's primary supervisor can release a co-supervisor")
	}
	if project.CoSupervisorID == nil {
		return models.NewInvalidStateError("Project has no co-supervisor")
	}

	return s.releaseCoSupervisor(ctx, projectID)
}

// CleanupOnProjectCompletion releases any active co-supervision when a
// project completes. Idempotent: a second invocation on an already-cleaned
// project is a no-op. Callers treat failures as operational noise, never as
// a request error.
func (s *SupervisorPartnershipService) CleanupOnProjectCompletion(ctx context.Context, projectID uint) error {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if project.CoSupervisorID != nil {
		if err := s.releaseCoSupervisor(ctx, projectID); err != nil {
			return err
		}
	}

	// Open proposals for a completed project are moot.
	pending, err := s.requests.FindPendingForProject(ctx, projectID)
	if err != nil {
		return err
	}
	if pending != nil {
		if err := s.requests.UpdateStatus(ctx, pending.ID, models.RequestStatusCancelled); err != nil {
			return err
		}
	}
	return nil
}

// releaseCoSupervisor frees the co-supervisor's capacity and clears the link
// in one transaction. The row lock on the project makes the release
// exactly-once: a concurrent or repeated call sees CoSupervisorID already
// cleared and stops.
func (s *SupervisorPartnershipService) releaseCoSupervisor(ctx context.Context, projectID uint) error {
	return s.ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Project", projectID)
			}
			return err
		}
		if project.CoSupervisorID == nil {
			return nil
		}

		if _, err := s.ledger.Release(tx, *project.CoSupervisorID); err != nil {
			return err
		}
		if err := tx.Model(&models.Project{}).
			Where("id = ?", project.ID).
			Update("co_supervisor_id", nil).Error; err != nil {
			return err
		}
		return nil
	})
}

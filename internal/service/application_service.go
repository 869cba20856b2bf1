package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"capmatch/internal/models"
	"capmatch/internal/observability"
	"capmatch/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ApplicationService owns the application lifecycle: submission, supervisor
// review, resubmission, withdrawal, and the capacity accounting that must
// stay consistent with approval state under concurrent requests.
type ApplicationService struct {
	ledger      *CapacityLedger
	apps        repository.ApplicationRepository
	students    repository.StudentRepository
	supervisors repository.SupervisorRepository
	logger      *observability.Logger
}

// NewApplicationService returns a new ApplicationService.
func NewApplicationService(
	ledger *CapacityLedger,
	apps repository.ApplicationRepository,
	students repository.StudentRepository,
	supervisors repository.SupervisorRepository,
) *ApplicationService {
	return &ApplicationService{
		ledger:      ledger,
		apps:        apps,
		students:    students,
		supervisors: supervisors,
		logger:      observability.Component("applications"),
	}
}

// CreateApplicationInput carries the submission payload.
type CreateApplicationInput struct {
	SupervisorID uint   `json:"supervisor_id"`
	ProjectTitle string `json:"project_title"`
}

// CreateApplication submits a new pending application for the student.
// At most one non-terminal application may exist per (student, supervisor).
func (s *ApplicationService) CreateApplication(ctx context.Context, studentID uint, input CreateApplicationInput) (*models.Application, error) {
	title := strings.TrimSpace(input.ProjectTitle)
	if title == "" {
		return nil, models.NewValidationError("project_title is required")
	}
	if input.SupervisorID == 0 {
		return nil, models.NewValidationError("supervisor_id is required")
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.supervisors.GetByID(ctx, input.SupervisorID); err != nil {
		return nil, err
	}

	existing, err := s.apps.FindActive(ctx, studentID, input.SupervisorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateApplicationError()
	}

	app := &models.Application{
		StudentID:         studentID,
		SupervisorID:      input.SupervisorID,
		Status:            models.ApplicationStatusPending,
		ProjectTitle:      title,
		IsLeadApplication: true,
	}
	if student.PartnershipStatus == models.PartnershipStatusPaired && student.PartnerID != nil {
		app.HasPartner = true
		app.PartnerID = student.PartnerID
	}

	if err := s.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	observability.ApplicationTransitions.WithLabelValues(string(models.ApplicationStatusPending)).Inc()
	return app, nil
}

// CheckDuplicate reports whether a non-terminal application already exists
// for the (student, supervisor) pair.
func (s *ApplicationService) CheckDuplicate(ctx context.Context, studentID, supervisorID uint) (bool, error) {
	existing, err := s.apps.FindActive(ctx, studentID, supervisorID)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

// UpdateStatus applies a supervisor or admin review decision. Transitions
// into or out of approved for a lead application run the capacity
// transaction; everything else is a direct status write.
func (s *ApplicationService) UpdateStatus(ctx context.Context, caller models.Identity, applicationID uint, newStatus models.ApplicationStatus, feedback string) (*models.Application, error) {
	if !isKnownApplicationStatus(newStatus) {
		return nil, models.NewValidationError("status must be pending, under_review, approved, rejected, or revision_requested")
	}

	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeReviewer(ctx, caller, app); err != nil {
		return nil, err
	}

	if newStatus == app.Status {
		// Feedback-only update, no transition.
		fields := map[string]interface{}{"last_updated": time.Now().UTC()}
		if feedback != "" {
			fields["supervisor_feedback"] = feedback
		}
		if err := s.apps.UpdateFields(ctx, applicationID, fields); err != nil {
			return nil, err
		}
		return s.apps.GetByID(ctx, applicationID)
	}

	if !caller.IsAdmin() && !isAllowedReviewTransition(app.Status, newStatus) {
		if app.Status.IsTerminal() {
			return nil, models.NewInvalidStateError("Application status is final")
		}
		return nil, models.NewInvalidStateError("Invalid status transition")
	}

	isApproving := newStatus == models.ApplicationStatusApproved && app.Status != models.ApplicationStatusApproved
	isUnapproving := app.Status == models.ApplicationStatusApproved && newStatus != models.ApplicationStatusApproved

	if (isApproving || isUnapproving) && app.IsLeadApplication {
		err = s.updateStatusWithCapacity(ctx, caller, app, newStatus, feedback)
	} else {
		err = s.apps.UpdateFields(ctx, applicationID, statusUpdateFields(newStatus, feedback))
	}
	if err != nil {
		return nil, err
	}

	observability.ApplicationTransitions.WithLabelValues(string(newStatus)).Inc()

	if newStatus == models.ApplicationStatusRejected && app.LinkedApplicationID != nil {
		// Capacity was never incremented for a non-approved linked record,
		// so the auto-reject is a plain status write outside the transaction.
		s.autoRejectLinked(ctx, *app.LinkedApplicationID, feedback)
	}

	return s.apps.GetByID(ctx, applicationID)
}

// updateStatusWithCapacity runs the capacity transaction protocol: re-read
// the supervisor and application under row locks, validate, mutate the
// ledger and the application atomically. Any error aborts all writes.
func (s *ApplicationService) updateStatusWithCapacity(ctx context.Context, caller models.Identity, app *models.Application, newStatus models.ApplicationStatus, feedback string) error {
	return s.ledger.RunInTx(ctx, func(tx *gorm.DB) error {
		var locked models.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, app.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Application", app.ID)
			}
			return err
		}

		// The pre-transaction read may be stale by the time the lock is
		// held; the transition must still be legal against the row as
		// locked, or a concurrent admin rejection could be overwritten.
		if locked.Status == newStatus {
			return models.NewAlreadyProcessedError()
		}
		if !caller.IsAdmin() && !isAllowedReviewTransition(locked.Status, newStatus) {
			if locked.Status.IsTerminal() {
				return models.NewInvalidStateError("Application status is final")
			}
			return models.NewInvalidStateError("Invalid status transition")
		}

		// Recompute the capacity direction from the row as it exists inside
		// the transaction; a concurrent writer may have raced us here.
		isApproving := newStatus == models.ApplicationStatusApproved && locked.Status != models.ApplicationStatusApproved
		isUnapproving := locked.Status == models.ApplicationStatusApproved && newStatus != models.ApplicationStatusApproved

		if isApproving {
			if _, err := s.ledger.Reserve(tx, locked.SupervisorID); err != nil {
				return err
			}
		}
		if isUnapproving {
			if _, err := s.ledger.Release(tx, locked.SupervisorID); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Application{}).
			Where("id = ?", locked.ID).
			Updates(statusUpdateFields(newStatus, feedback)).Error; err != nil {
			return err
		}
		return nil
	})
}

// statusUpdateFields builds the application mutation for a status change,
// stamping responseDate on terminal transitions.
func statusUpdateFields(newStatus models.ApplicationStatus, feedback string) map[string]interface{} {
	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":       newStatus,
		"last_updated": now,
	}
	if feedback != "" {
		fields["supervisor_feedback"] = feedback
	}
	if newStatus.IsTerminal() {
		fields["response_date"] = now
	}
	return fields
}

// autoRejectLinked rejects a legacy linked partner application still awaiting
// review. Best-effort: a failure is logged, never propagated.
func (s *ApplicationService) autoRejectLinked(ctx context.Context, linkedID uint, feedback string) {
	linked, err := s.apps.GetByID(ctx, linkedID)
	if err != nil {
		s.logger.WarnContext(ctx, "linked application sync failed on reject",
			"linked_id", linkedID, "error", err)
		return
	}
	if linked.Status != models.ApplicationStatusPending && linked.Status != models.ApplicationStatusUnderReview {
		return
	}

	note := "Automatically rejected: the linked partner application was rejected"
	if feedback != "" {
		note += " (" + feedback + ")"
	}
	if err := s.apps.UpdateFields(ctx, linkedID, statusUpdateFields(models.ApplicationStatusRejected, note)); err != nil {
		s.logger.WarnContext(ctx, "linked application auto-reject failed",
			"linked_id", linkedID, "error", err)
	}
}

// ResubmitApplication moves a revision_requested application back to pending.
// Only the owning student or an admin may resubmit.
func (s *ApplicationService) ResubmitApplication(ctx context.Context, caller models.Identity, applicationID uint) (*models.Application, error) {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeOwner(ctx, caller, app); err != nil {
		return nil, err
	}

	if app.Status != models.ApplicationStatusRevisionRequested {
		return nil, models.NewInvalidStateError("Only applications in revision_requested status can be resubmitted")
	}

	now := time.Now().UTC()
	fields := map[string]interface{}{
		"status":           models.ApplicationStatusPending,
		"resubmitted_date": now,
		"last_updated":     now,
	}
	if err := s.apps.UpdateFields(ctx, applicationID, fields); err != nil {
		return nil, err
	}
	observability.ApplicationTransitions.WithLabelValues(string(models.ApplicationStatusPending)).Inc()

	// Legacy linked record follows in the same pass, best-effort: a failure
	// here must not roll back the primary resubmission.
	if app.LinkedApplicationID != nil {
		s.resubmitLinked(ctx, *app.LinkedApplicationID, fields)
	}

	return s.apps.GetByID(ctx, applicationID)
}

func (s *ApplicationService) resubmitLinked(ctx context.Context, linkedID uint, fields map[string]interface{}) {
	linked, err := s.apps.GetByID(ctx, linkedID)
	if err != nil {
		s.logger.WarnContext(ctx, "linked application sync failed on resubmit",
			"linked_id", linkedID, "error", err)
		return
	}
	if linked.Status != models.ApplicationStatusRevisionRequested {
		return
	}
	if err := s.apps.UpdateFields(ctx, linkedID, fields); err != nil {
		s.logger.WarnContext(ctx, "linked application resubmit failed",
			"linked_id", linkedID, "error", err)
	}
}

// WithdrawApplication deletes a pending application at the student's request.
func (s *ApplicationService) WithdrawApplication(ctx context.Context, caller models.Identity, applicationID uint) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwner(ctx, caller, app); err != nil {
		return err
	}
	if app.Status != models.ApplicationStatusPending {
		return models.NewInvalidStateError("Only pending applications can be withdrawn")
	}
	return s.apps.Delete(ctx, applicationID)
}

// ListByStudent returns the student's applications, newest first.
func (s *ApplicationService) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	return s.apps.ListByStudent(ctx, studentID)
}

// ListBySupervisor returns applications submitted to the supervisor.
func (s *ApplicationService) ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Application, error) {
	return s.apps.ListBySupervisor(ctx, supervisorID)
}

// authorizeReviewer permits the application's supervisor or an admin.
func (s *ApplicationService) authorizeReviewer(ctx context.Context, caller models.Identity, app *models.Application) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.Role != models.RoleSupervisor {
		return models.NewForbiddenError("Only the application's supervisor or an admin can update its status")
	}
	supervisor, err := s.supervisors.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return models.NewForbiddenError("Only the application's supervisor or an admin can update its status")
	}
	if supervisor.ID != app.SupervisorID {
		return models.NewForbiddenError("Application belongs to another supervisor")
	}
	return nil
}

// authorizeOwner permits the owning student or an admin.
func (s *ApplicationService) authorizeOwner(ctx context.Context, caller models.Identity, app *models.Application) error {
	if caller.IsAdmin() {
		return nil
	}
	if caller.Role != models.RoleStudent {
		return models.NewForbiddenError("Only the owning student or an admin can perform this action")
	}
	student, err := s.students.GetByUserID(ctx, caller.UserID)
	if err != nil {
		return models.NewForbiddenError("Only the owning student or an admin can perform this action")
	}
	if student.ID != app.StudentID {
		return models.NewForbiddenError("Application belongs to another student")
	}
	return nil
}

func isKnownApplicationStatus(status models.ApplicationStatus) bool {
	switch status {
	case models.ApplicationStatusPending,
		models.ApplicationStatusUnderReview,
		models.ApplicationStatusApproved,
		models.ApplicationStatusRejected,
		models.ApplicationStatusRevisionRequested:
		return true
	default:
		return false
	}
}

// isAllowedReviewTransition encodes the reviewer-driven state machine:
// pending and under_review flow freely between each other and into any
// decision; revision_requested only moves via student resubmission; terminal
// states need an admin override.
func isAllowedReviewTransition(from, to models.ApplicationStatus) bool {
	switch from {
	case models.ApplicationStatusPending:
		return to == models.ApplicationStatusUnderReview ||
			to == models.ApplicationStatusApproved ||
			to == models.ApplicationStatusRejected ||
			to == models.ApplicationStatusRevisionRequested
	case models.ApplicationStatusUnderReview:
		return to == models.ApplicationStatusPending ||
			to == models.ApplicationStatusApproved ||
			to == models.ApplicationStatusRejected ||
			to == models.ApplicationStatusRevisionRequested
	default:
		return false
	}
}

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

// StudentPartnershipService owns peer-to-peer partnership requests between
// students and the paired/unpaired state on Student records.
type StudentPartnershipService struct {
	db       *gorm.DB
	requests repository.PartnershipRequestRepository
	students repository.StudentRepository
	apps     repository.ApplicationRepository
	logger   *observability.Logger
}

// NewStudentPartnershipService returns a new StudentPartnershipService.
func NewStudentPartnershipService(
	db *gorm.DB,
	requests repository.PartnershipRequestRepository,
	students repository.StudentRepository,
	apps repository.ApplicationRepository,
) *StudentPartnershipService {
	return &StudentPartnershipService{
		db:       db,
		requests: requests,
		students: students,
		apps:     apps,
		logger:   observability.Component("partnerships"),
	}
}

// SendRequest creates a pending partnership proposal from requester to target.
func (s *StudentPartnershipService) SendRequest(ctx context.Context, requesterID, targetStudentID uint) (*models.PartnershipRequest, error) {
	if requesterID == targetStudentID {
		return nil, models.NewSelfPartnershipError()
	}

	requester, err := s.students.GetByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}
	target, err := s.students.GetByID(ctx, targetStudentID)
	if err != nil {
		return nil, err
	}

	if requester.PartnershipStatus == models.PartnershipStatusPaired {
		return nil, models.NewAlreadyPairedError("You already have a partner")
	}
	if target.PartnershipStatus == models.PartnershipStatusPaired {
		return nil, models.NewAlreadyPairedError("This student already has a partner")
	}

	existing, err := s.requests.FindPendingBetween(ctx, requesterID, targetStudentID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewDuplicateRequestError()
	}

	request := &models.PartnershipRequest{
		RequesterID:     requesterID,
		TargetStudentID: targetStudentID,
		Status:          models.RequestStatusPending,
	}
	if err := s.requests.Create(ctx, request); err != nil {
		return nil, err
	}

	// Informational only; the request status is authoritative.
	s.setPartnershipStatus(ctx, requesterID, models.PartnershipStatusPendingSent)
	s.setPartnershipStatus(ctx, targetStudentID, models.PartnershipStatusPendingReceived)

	return s.requests.GetByID(ctx, request.ID)
}

// RespondAction is the target's decision on a pending request.
type RespondAction string

const (
	// RespondActionAccept pairs the two students.
	RespondActionAccept RespondAction = "accept"
	// RespondActionReject declines the proposal.
	RespondActionReject RespondAction = "reject"
)

// RespondToRequest accepts or rejects a pending request. Only the target
// student may respond. Accepting pairs both students transactionally and
// cancels every other pending request involving either of them.
func (s *StudentPartnershipService) RespondToRequest(ctx context.Context, requestID, callerStudentID uint, action RespondAction) (*models.PartnershipRequest, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.TargetStudentID != callerStudentID {
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
		s.setPartnershipStatus(ctx, request.RequesterID, models.PartnershipStatusNone)
		s.setPartnershipStatus(ctx, request.TargetStudentID, models.PartnershipStatusNone)
	default:
		return nil, models.NewValidationError("action must be accept or reject")
	}

	return s.requests.GetByID(ctx, requestID)
}

// acceptRequest pairs both students and resolves competing proposals in one
// transaction: a student can have only one partner, so every other pending
// request touching either party becomes moot.
func (s *StudentPartnershipService) acceptRequest(ctx context.Context, request *models.PartnershipRequest) error {
	return runInTx(ctx, s.db, func(tx *gorm.DB) error {
		var locked models.PartnershipRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, request.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Partnership request", request.ID)
			}
			return err
		}
		if locked.Status != models.RequestStatusPending {
			return models.NewAlreadyProcessedError()
		}

		requester, partner, err := lockStudentPair(tx, locked.RequesterID, locked.TargetStudentID)
		if err != nil {
			return err
		}
		if requester.PartnershipStatus == models.PartnershipStatusPaired {
			return models.NewAlreadyPairedError("The requester has already been paired")
		}
		if partner.PartnershipStatus == models.PartnershipStatusPaired {
			return models.NewAlreadyPairedError("You have already been paired")
		}

		if err := tx.Model(&models.Student{}).Where("id = ?", requester.ID).Updates(map[string]interface{}{
			"partner_id":         partner.ID,
			"partnership_status": models.PartnershipStatusPaired,
		}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Student{}).Where("id = ?", partner.ID).Updates(map[string]interface{}{
			"partner_id":         requester.ID,
			"partnership_status": models.PartnershipStatusPaired,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.PartnershipRequest{}).
			Where("id = ?", locked.ID).
			Update("status", models.RequestStatusAccepted).Error; err != nil {
			return err
		}

		// Cancel competing proposals involving either student.
		pair := []uint{requester.ID, partner.ID}
		if err := tx.Model(&models.PartnershipRequest{}).
			Where("status = ? AND id <> ?", models.RequestStatusPending, locked.ID).
			Where("requester_id IN ? OR target_student_id IN ?", pair, pair).
			Update("status", models.RequestStatusCancelled).Error; err != nil {
			return err
		}

		return nil
	})
}

// lockStudentPair locks both student rows in ascending ID order so two
// concurrent acceptances touching the same students cannot deadlock.
func lockStudentPair(tx *gorm.DB, id1, id2 uint) (*models.Student, *models.Student, error) {
	first, second := id1, id2
	if second < first {
		first, second = second, first
	}

	lock := func(id uint) (*models.Student, error) {
		var student models.Student
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&student, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Student", id)
			}
			return nil, err
		}
		return &student, nil
	}

	a, err := lock(first)
	if err != nil {
		return nil, nil, err
	}
	b, err := lock(second)
	if err != nil {
		return nil, nil, err
	}

	if a.ID == id1 {
		return a, b, nil
	}
	return b, a, nil
}

// CancelRequest withdraws a pending request. Only the requester may cancel.
func (s *StudentPartnershipService) CancelRequest(ctx context.Context, requestID, callerStudentID uint) error {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequesterID != callerStudentID {
		return models.NewForbiddenError("Only the requester can cancel a request")
	}
	if request.Status != models.RequestStatusPending {
		return models.NewInvalidStateError("Only pending requests can be cancelled")
	}

	if err := s.requests.UpdateStatus(ctx, requestID, models.RequestStatusCancelled); err != nil {
		return err
	}
	s.resetPendingStatus(ctx, request.RequesterID)
	s.resetPendingStatus(ctx, request.TargetStudentID)
	return nil
}

// Unpair dissolves an established partnership. The caller must currently be
// paired with the named partner, checked in both directions.
func (s *StudentPartnershipService) Unpair(ctx context.Context, callerStudentID, partnerID uint) error {
	caller, err := s.students.GetByID(ctx, callerStudentID)
	if err != nil {
		return err
	}
	partner, err := s.students.GetByID(ctx, partnerID)
	if err != nil {
		return err
	}

	if caller.PartnershipStatus != models.PartnershipStatusPaired ||
		caller.PartnerID == nil || *caller.PartnerID != partnerID ||
		partner.PartnershipStatus != models.PartnershipStatusPaired ||
		partner.PartnerID == nil || *partner.PartnerID != callerStudentID {
		return models.NewInvalidStateError("Students are not paired with each other")
	}

	err = runInTx(ctx, s.db, func(tx *gorm.DB) error {
		lockedCaller, lockedPartner, err := lockStudentPair(tx, callerStudentID, partnerID)
		if err != nil {
			return err
		}
		if lockedCaller.PartnerID == nil || *lockedCaller.PartnerID != partnerID ||
			lockedPartner.PartnerID == nil || *lockedPartner.PartnerID != callerStudentID {
			return models.NewInvalidStateError("Students are not paired with each other")
		}

		clear := map[string]interface{}{
			"partner_id":         nil,
			"partnership_status": models.PartnershipStatusNone,
		}
		if err := tx.Model(&models.Student{}).Where("id = ?", callerStudentID).Updates(clear).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Student{}).Where("id = ?", partnerID).Updates(clear).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Applications that recorded the dissolved pair keep stale partner
	// fields otherwise. A missed sync is a data-quality issue, not a
	// failure of the unpair itself.
	s.clearStalePartnerFields(ctx, callerStudentID, partnerID)
	return nil
}

func (s *StudentPartnershipService) clearStalePartnerFields(ctx context.Context, studentID, partnerID uint) {
	apps, err := s.apps.ListActiveWithPartner(ctx, studentID, partnerID)
	if err != nil {
		s.logger.WarnContext(ctx, "stale partner sync: listing applications failed",
			"student_id", studentID, "partner_id", partnerID, "error", err)
		return
	}
	for _, app := range apps {
		if err := s.apps.UpdateFields(ctx, app.ID, map[string]interface{}{
			"has_partner": false,
			"partner_id":  nil,
		}); err != nil {
			s.logger.WarnContext(ctx, "stale partner sync: clearing application failed",
				"application_id", app.ID, "error", err)
		}
	}
}

// GetRequests lists requests involving the student, filtered by direction.
func (s *StudentPartnershipService) GetRequests(ctx context.Context, studentID uint, direction repository.RequestDirection) ([]models.PartnershipRequest, error) {
	return s.requests.ListForStudent(ctx, studentID, direction)
}

// setPartnershipStatus updates the informational status field, logging
// failures rather than propagating them.
func (s *StudentPartnershipService) setPartnershipStatus(ctx context.Context, studentID uint, status models.PartnershipStatus) {
	if err := s.students.UpdateFields(ctx, studentID, map[string]interface{}{
		"partnership_status": status,
	}); err != nil {
		s.logger.WarnContext(ctx, "partnership status update failed",
			"student_id", studentID, "status", status, "error", err)
	}
}

// resetPendingStatus returns a student's informational status to none unless
// they are paired.
func (s *StudentPartnershipService) resetPendingStatus(ctx context.Context, studentID uint) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		s.logger.WarnContext(ctx, "partnership status reset failed",
			"student_id", studentID, "error", err)
		return
	}
	if student.PartnershipStatus == models.PartnershipStatusPaired {
		return
	}
	s.setPartnershipStatus(ctx, studentID, models.PartnershipStatusNone)
}

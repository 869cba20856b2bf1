package repository_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"capmatch/internal/models"
	"capmatch/internal/repository"
	"capmatch/internal/service"
)

var userIDSeq atomic.Uint32

func nextUserID() uint {
	return uint(100000 + userIDSeq.Add(1))
}

func createTestStudent(t *testing.T) *models.Student {
	t.Helper()
	uid := nextUserID()
	student := &models.Student{
		UserID:            uid,
		FullName:          fmt.Sprintf("Student %d", uid),
		Email:             fmt.Sprintf("student%d@test.local", uid),
		PartnershipStatus: models.PartnershipStatusNone,
	}
	if err := testDB.Create(student).Error; err != nil {
		t.Fatalf("failed to create student: %v", err)
	}
	return student
}

func createTestSupervisor(t *testing.T, maxCapacity int) *models.Supervisor {
	t.Helper()
	uid := nextUserID()
	supervisor := &models.Supervisor{
		UserID:      uid,
		FullName:    fmt.Sprintf("Supervisor %d", uid),
		Email:       fmt.Sprintf("supervisor%d@test.local", uid),
		MaxCapacity: maxCapacity,
	}
	if err := testDB.Create(supervisor).Error; err != nil {
		t.Fatalf("failed to create supervisor: %v", err)
	}
	return supervisor
}

func createPendingApplication(t *testing.T, studentID, supervisorID uint) *models.Application {
	t.Helper()
	app := &models.Application{
		StudentID:         studentID,
		SupervisorID:      supervisorID,
		Status:            models.ApplicationStatusPending,
		ProjectTitle:      "Integration test project",
		IsLeadApplication: true,
	}
	if err := testDB.Create(app).Error; err != nil {
		t.Fatalf("failed to create application: %v", err)
	}
	return app
}

func newApplicationService() *service.ApplicationService {
	return service.NewApplicationService(
		service.NewCapacityLedger(testDB),
		repository.NewApplicationRepository(testDB),
		repository.NewStudentRepository(testDB),
		repository.NewSupervisorRepository(testDB),
	)
}

func newStudentPartnershipService() *service.StudentPartnershipService {
	return service.NewStudentPartnershipService(
		testDB,
		repository.NewPartnershipRequestRepository(testDB),
		repository.NewStudentRepository(testDB),
		repository.NewApplicationRepository(testDB),
	)
}

func newCoSupervisionService() *service.SupervisorPartnershipService {
	return service.NewSupervisorPartnershipService(
		testDB,
		service.NewCapacityLedger(testDB),
		repository.NewCoSupervisionRequestRepository(testDB),
		repository.NewSupervisorRepository(testDB),
		repository.NewProjectRepository(testDB),
	)
}

func supervisorIdentity(supervisor *models.Supervisor) models.Identity {
	return models.Identity{UserID: supervisor.UserID, Role: models.RoleSupervisor}
}

func appErrCode(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Two approvals race for a single capacity slot; exactly one may win.
func TestConcurrentApprovalSingleSlot(t *testing.T) {
	supervisor := createTestSupervisor(t, 1)
	appA := createPendingApplication(t, createTestStudent(t).ID, supervisor.ID)
	appB := createPendingApplication(t, createTestStudent(t).ID, supervisor.ID)

	svc := newApplicationService()
	caller := supervisorIdentity(supervisor)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, appID := range []uint{appA.ID, appB.ID} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, results[i] = svc.UpdateStatus(context.Background(), caller, id,
				models.ApplicationStatusApproved, "")
		}(i, appID)
	}
	wg.Wait()

	successes := 0
	capacityRejections := 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case appErrCode(err) == models.CodeCapacityExceeded:
			capacityRejections++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || capacityRejections != 1 {
		t.Fatalf("got %d successes and %d capacity rejections, want 1 and 1", successes, capacityRejections)
	}

	var persisted models.Supervisor
	if err := testDB.First(&persisted, supervisor.ID).Error; err != nil {
		t.Fatalf("failed to reload supervisor: %v", err)
	}
	if persisted.CurrentCapacity != 1 {
		t.Fatalf("current_capacity = %d, want 1", persisted.CurrentCapacity)
	}
}

// staleStatusApplicationRepo serves a fixed status from the unlocked read,
// standing in for a concurrent writer that commits between that read and the
// row lock.
type staleStatusApplicationRepo struct {
	repository.ApplicationRepository
	status models.ApplicationStatus
}

func (r *staleStatusApplicationRepo) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	app, err := r.ApplicationRepository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stale := *app
	stale.Status = r.status
	return &stale, nil
}

// An approval validated against a read that an admin rejection has since
// outdated must be re-checked under the row lock and abort.
func TestApproveAfterConcurrentRejectAborts(t *testing.T) {
	supervisor := createTestSupervisor(t, 2)
	app := createPendingApplication(t, createTestStudent(t).ID, supervisor.ID)

	if err := testDB.Model(&models.Application{}).Where("id = ?", app.ID).
		Update("status", models.ApplicationStatusRejected).Error; err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	apps := &staleStatusApplicationRepo{
		ApplicationRepository: repository.NewApplicationRepository(testDB),
		status:                models.ApplicationStatusPending,
	}
	svc := service.NewApplicationService(
		service.NewCapacityLedger(testDB),
		apps,
		repository.NewStudentRepository(testDB),
		repository.NewSupervisorRepository(testDB),
	)

	_, err := svc.UpdateStatus(context.Background(), supervisorIdentity(supervisor), app.ID,
		models.ApplicationStatusApproved, "")
	if appErrCode(err) != models.CodeInvalidState {
		t.Fatalf("expected INVALID_STATE, got %v", err)
	}

	var persisted models.Supervisor
	testDB.First(&persisted, supervisor.ID)
	if persisted.CurrentCapacity != 0 {
		t.Fatalf("capacity reserved despite aborted approval: %d", persisted.CurrentCapacity)
	}
	var reloaded models.Application
	testDB.First(&reloaded, app.ID)
	if reloaded.Status != models.ApplicationStatusRejected {
		t.Fatalf("status = %s, want rejected", reloaded.Status)
	}
}

// Rejecting an approved application must release the slot it held.
func TestUnapprovalReleasesCapacity(t *testing.T) {
	supervisor := createTestSupervisor(t, 2)
	app := createPendingApplication(t, createTestStudent(t).ID, supervisor.ID)

	svc := newApplicationService()
	caller := supervisorIdentity(supervisor)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, caller, app.ID, models.ApplicationStatusApproved, ""); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	var persisted models.Supervisor
	testDB.First(&persisted, supervisor.ID)
	if persisted.CurrentCapacity != 1 {
		t.Fatalf("current_capacity after approve = %d, want 1", persisted.CurrentCapacity)
	}

	// approved -> rejected needs the admin override; reviewers cannot leave
	// a terminal state.
	admin := models.Identity{UserID: supervisor.UserID, Role: models.RoleAdmin}
	updated, err := svc.UpdateStatus(ctx, admin, app.ID, models.ApplicationStatusRejected, "withdrawn by admin")
	if err != nil {
		t.Fatalf("admin reject failed: %v", err)
	}
	if updated.ResponseDate == nil {
		t.Fatal("terminal transition must stamp response_date")
	}

	testDB.First(&persisted, supervisor.ID)
	if persisted.CurrentCapacity != 0 {
		t.Fatalf("current_capacity after release = %d, want 0", persisted.CurrentCapacity)
	}
}

// The duplicate guard counts only non-terminal applications.
func TestDuplicateGuardIgnoresTerminal(t *testing.T) {
	supervisor := createTestSupervisor(t, 5)
	student := createTestStudent(t)
	app := createPendingApplication(t, student.ID, supervisor.ID)

	repo := repository.NewApplicationRepository(testDB)
	ctx := context.Background()

	active, err := repo.FindActive(ctx, student.ID, supervisor.ID)
	if err != nil || active == nil {
		t.Fatalf("expected active application, got %v, %v", active, err)
	}

	if err := testDB.Model(&models.Application{}).Where("id = ?", app.ID).
		Update("status", models.ApplicationStatusRejected).Error; err != nil {
		t.Fatalf("failed to reject: %v", err)
	}

	active, err = repo.FindActive(ctx, student.ID, supervisor.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active != nil {
		t.Fatalf("terminal application still counted as active: %+v", active)
	}
}

// Accepting a request pairs both students and cancels every other pending
// request touching either of them.
func TestAcceptPartnershipCancelsCompetingRequests(t *testing.T) {
	alice := createTestStudent(t)
	bob := createTestStudent(t)
	carol := createTestStudent(t)

	svc := newStudentPartnershipService()
	ctx := context.Background()

	main, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	competing1, err := svc.SendRequest(ctx, carol.ID, alice.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	competing2, err := svc.SendRequest(ctx, carol.ID, bob.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if _, err := svc.RespondToRequest(ctx, main.ID, bob.ID, service.RespondActionAccept); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	var a, b models.Student
	testDB.First(&a, alice.ID)
	testDB.First(&b, bob.ID)
	if a.PartnershipStatus != models.PartnershipStatusPaired || a.PartnerID == nil || *a.PartnerID != bob.ID {
		t.Fatalf("alice not paired with bob: %+v", a)
	}
	if b.PartnershipStatus != models.PartnershipStatusPaired || b.PartnerID == nil || *b.PartnerID != alice.ID {
		t.Fatalf("bob not paired with alice: %+v", b)
	}

	for _, id := range []uint{competing1.ID, competing2.ID} {
		var request models.PartnershipRequest
		testDB.First(&request, id)
		if request.Status != models.RequestStatusCancelled {
			t.Fatalf("competing request %d status = %s, want cancelled", id, request.Status)
		}
	}
}

// A second acceptance of the same request must fail once it is processed.
func TestAcceptPartnershipTwiceAlreadyProcessed(t *testing.T) {
	alice := createTestStudent(t)
	bob := createTestStudent(t)

	svc := newStudentPartnershipService()
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.RespondToRequest(ctx, request.ID, bob.ID, service.RespondActionAccept); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	_, err = svc.RespondToRequest(ctx, request.ID, bob.ID, service.RespondActionAccept)
	if appErrCode(err) != models.CodeAlreadyProcessed {
		t.Fatalf("expected ALREADY_PROCESSED, got %v", err)
	}
}

// Unpairing clears both sides and scrubs partner fields from active applications.
func TestUnpairClearsStalePartnerFields(t *testing.T) {
	alice := createTestStudent(t)
	bob := createTestStudent(t)
	supervisor := createTestSupervisor(t, 5)

	svc := newStudentPartnershipService()
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.RespondToRequest(ctx, request.ID, bob.ID, service.RespondActionAccept); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	app := &models.Application{
		StudentID:    alice.ID,
		SupervisorID: supervisor.ID,
		Status:       models.ApplicationStatusPending,
		ProjectTitle: "Joint project",
		HasPartner:   true,
		PartnerID:    &bob.ID,
	}
	if err := testDB.Create(app).Error; err != nil {
		t.Fatalf("failed to create application: %v", err)
	}

	if err := svc.Unpair(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("unpair failed: %v", err)
	}

	var a, b models.Student
	testDB.First(&a, alice.ID)
	testDB.First(&b, bob.ID)
	if a.PartnerID != nil || b.PartnerID != nil {
		t.Fatalf("partner links survived unpair: %+v %+v", a, b)
	}

	var reloaded models.Application
	testDB.First(&reloaded, app.ID)
	if reloaded.HasPartner || reloaded.PartnerID != nil {
		t.Fatalf("stale partner fields survived: %+v", reloaded)
	}
}

// Accepting co-supervision charges the target's capacity and links the
// project; completion cleanup releases exactly once no matter how often it runs.
func TestCoSupervisionLifecycleAndIdempotentCleanup(t *testing.T) {
	owner := createTestSupervisor(t, 3)
	target := createTestSupervisor(t, 1)

	project := &models.Project{
		Title:        "Co-supervised project",
		SupervisorID: owner.ID,
		Status:       models.ProjectStatusInProgress,
	}
	if err := testDB.Create(project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	svc := newCoSupervisionService()
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, owner.ID, target.ID, project.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if _, err := svc.RespondToRequest(ctx, request.ID, target.ID, service.RespondActionAccept); err != nil {
		t.Fatalf("accept failed: %v", err)
	}

	var persisted models.Supervisor
	testDB.First(&persisted, target.ID)
	if persisted.CurrentCapacity != 1 {
		t.Fatalf("target capacity = %d, want 1", persisted.CurrentCapacity)
	}
	var reloaded models.Project
	testDB.First(&reloaded, project.ID)
	if reloaded.CoSupervisorID == nil || *reloaded.CoSupervisorID != target.ID {
		t.Fatalf("project not linked: %+v", reloaded)
	}

	for i := 0; i < 2; i++ {
		if err := svc.CleanupOnProjectCompletion(ctx, project.ID); err != nil {
			t.Fatalf("cleanup run %d failed: %v", i+1, err)
		}
	}

	testDB.First(&persisted, target.ID)
	if persisted.CurrentCapacity != 0 {
		t.Fatalf("target capacity after cleanup = %d, want 0", persisted.CurrentCapacity)
	}
	testDB.First(&reloaded, project.ID)
	if reloaded.CoSupervisorID != nil {
		t.Fatalf("co-supervisor link survived cleanup: %+v", reloaded)
	}
}

// A full target supervisor rejects the acceptance with the ledger intact.
func TestCoSupervisionAcceptCapacityExceeded(t *testing.T) {
	owner := createTestSupervisor(t, 3)
	target := createTestSupervisor(t, 1)
	target.CurrentCapacity = 1
	if err := testDB.Model(&models.Supervisor{}).Where("id = ?", target.ID).
		Update("current_capacity", 1).Error; err != nil {
		t.Fatalf("failed to fill capacity: %v", err)
	}

	project := &models.Project{
		Title:        "Oversubscribed project",
		SupervisorID: owner.ID,
		Status:       models.ProjectStatusInProgress,
	}
	if err := testDB.Create(project).Error; err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	svc := newCoSupervisionService()
	ctx := context.Background()

	request, err := svc.SendRequest(ctx, owner.ID, target.ID, project.ID)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	_, err = svc.RespondToRequest(ctx, request.ID, target.ID, service.RespondActionAccept)
	if appErrCode(err) != models.CodeCapacityExceeded {
		t.Fatalf("expected CAPACITY_EXCEEDED, got %v", err)
	}

	// The failed acceptance must leave nothing behind.
	var reloaded models.Project
	testDB.First(&reloaded, project.ID)
	if reloaded.CoSupervisorID != nil {
		t.Fatalf("project linked despite capacity failure: %+v", reloaded)
	}
	var persistedRequest models.CoSupervisionRequest
	testDB.First(&persistedRequest, request.ID)
	if persistedRequest.Status != models.RequestStatusPending {
		t.Fatalf("request status = %s, want pending", persistedRequest.Status)
	}
}

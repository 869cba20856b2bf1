package service

import (
	"context"

	"capmatch/internal/models"
	"capmatch/internal/repository"
)

type applicationRepoStub struct {
	createFn                func(context.Context, *models.Application) error
	getByIDFn               func(context.Context, uint) (*models.Application, error)
	findActiveFn            func(context.Context, uint, uint) (*models.Application, error)
	listByStudentFn         func(context.Context, uint) ([]models.Application, error)
	listBySupervisorFn      func(context.Context, uint) ([]models.Application, error)
	updateFieldsFn          func(context.Context, uint, map[string]interface{}) error
	deleteFn                func(context.Context, uint) error
	listActiveWithPartnerFn func(context.Context, uint, uint) ([]models.Application, error)
}

func (s *applicationRepoStub) Create(ctx context.Context, app *models.Application) error {
	return s.createFn(ctx, app)
}
func (s *applicationRepoStub) GetByID(ctx context.Context, id uint) (*models.Application, error) {
	return s.getByIDFn(ctx, id)
}
func (s *applicationRepoStub) FindActive(ctx context.Context, studentID, supervisorID uint) (*models.Application, error) {
	return s.findActiveFn(ctx, studentID, supervisorID)
}
func (s *applicationRepoStub) ListByStudent(ctx context.Context, studentID uint) ([]models.Application, error) {
	return s.listByStudentFn(ctx, studentID)
}
func (s *applicationRepoStub) ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Application, error) {
	return s.listBySupervisorFn(ctx, supervisorID)
}
func (s *applicationRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}
func (s *applicationRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *applicationRepoStub) ListActiveWithPartner(ctx context.Context, studentID, partnerID uint) ([]models.Application, error) {
	return s.listActiveWithPartnerFn(ctx, studentID, partnerID)
}

func noopApplicationRepo() *applicationRepoStub {
	return &applicationRepoStub{
		createFn:  func(context.Context, *models.Application) error { return nil },
		getByIDFn: func(context.Context, uint) (*models.Application, error) { return &models.Application{}, nil },
		findActiveFn: func(context.Context, uint, uint) (*models.Application, error) {
			return nil, nil
		},
		listByStudentFn:    func(context.Context, uint) ([]models.Application, error) { return nil, nil },
		listBySupervisorFn: func(context.Context, uint) ([]models.Application, error) { return nil, nil },
		updateFieldsFn:     func(context.Context, uint, map[string]interface{}) error { return nil },
		deleteFn:           func(context.Context, uint) error { return nil },
		listActiveWithPartnerFn: func(context.Context, uint, uint) ([]models.Application, error) {
			return nil, nil
		},
	}
}

type studentRepoStub struct {
	createFn       func(context.Context, *models.Student) error
	getByIDFn      func(context.Context, uint) (*models.Student, error)
	getByUserIDFn  func(context.Context, uint) (*models.Student, error)
	updateFieldsFn func(context.Context, uint, map[string]interface{}) error
}

func (s *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	return s.createFn(ctx, student)
}
func (s *studentRepoStub) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	return s.getByIDFn(ctx, id)
}
func (s *studentRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *studentRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}

func noopStudentRepo() *studentRepoStub {
	return &studentRepoStub{
		createFn: func(context.Context, *models.Student) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Student, error) {
			return &models.Student{ID: id, PartnershipStatus: models.PartnershipStatusNone}, nil
		},
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Student, error) {
			return &models.Student{ID: userID, UserID: userID}, nil
		},
		updateFieldsFn: func(context.Context, uint, map[string]interface{}) error { return nil },
	}
}

type supervisorRepoStub struct {
	createFn      func(context.Context, *models.Supervisor) error
	getByIDFn     func(context.Context, uint) (*models.Supervisor, error)
	getByUserIDFn func(context.Context, uint) (*models.Supervisor, error)
	listFn        func(context.Context, int, int) ([]models.Supervisor, error)
}

func (s *supervisorRepoStub) Create(ctx context.Context, supervisor *models.Supervisor) error {
	return s.createFn(ctx, supervisor)
}
func (s *supervisorRepoStub) GetByID(ctx context.Context, id uint) (*models.Supervisor, error) {
	return s.getByIDFn(ctx, id)
}
func (s *supervisorRepoStub) GetByUserID(ctx context.Context, userID uint) (*models.Supervisor, error) {
	return s.getByUserIDFn(ctx, userID)
}
func (s *supervisorRepoStub) List(ctx context.Context, limit, offset int) ([]models.Supervisor, error) {
	return s.listFn(ctx, limit, offset)
}

func noopSupervisorRepo() *supervisorRepoStub {
	return &supervisorRepoStub{
		createFn: func(context.Context, *models.Supervisor) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Supervisor, error) {
			return &models.Supervisor{ID: id, MaxCapacity: 5}, nil
		},
		getByUserIDFn: func(_ context.Context, userID uint) (*models.Supervisor, error) {
			return &models.Supervisor{ID: userID, UserID: userID, MaxCapacity: 5}, nil
		},
		listFn: func(context.Context, int, int) ([]models.Supervisor, error) { return nil, nil },
	}
}

type partnershipRepoStub struct {
	createFn             func(context.Context, *models.PartnershipRequest) error
	getByIDFn            func(context.Context, uint) (*models.PartnershipRequest, error)
	findPendingBetweenFn func(context.Context, uint, uint) (*models.PartnershipRequest, error)
	listForStudentFn     func(context.Context, uint, repository.RequestDirection) ([]models.PartnershipRequest, error)
	updateStatusFn       func(context.Context, uint, models.RequestStatus) error
}

func (s *partnershipRepoStub) Create(ctx context.Context, request *models.PartnershipRequest) error {
	return s.createFn(ctx, request)
}
func (s *partnershipRepoStub) GetByID(ctx context.Context, id uint) (*models.PartnershipRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *partnershipRepoStub) FindPendingBetween(ctx context.Context, studentID1, studentID2 uint) (*models.PartnershipRequest, error) {
	return s.findPendingBetweenFn(ctx, studentID1, studentID2)
}
func (s *partnershipRepoStub) ListForStudent(ctx context.Context, studentID uint, direction repository.RequestDirection) ([]models.PartnershipRequest, error) {
	return s.listForStudentFn(ctx, studentID, direction)
}
func (s *partnershipRepoStub) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	return s.updateStatusFn(ctx, id, status)
}

func noopPartnershipRepo() *partnershipRepoStub {
	return &partnershipRepoStub{
		createFn: func(context.Context, *models.PartnershipRequest) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.PartnershipRequest, error) {
			return &models.PartnershipRequest{ID: id, Status: models.RequestStatusPending}, nil
		},
		findPendingBetweenFn: func(context.Context, uint, uint) (*models.PartnershipRequest, error) {
			return nil, nil
		},
		listForStudentFn: func(context.Context, uint, repository.RequestDirection) ([]models.PartnershipRequest, error) {
			return nil, nil
		},
		updateStatusFn: func(context.Context, uint, models.RequestStatus) error { return nil },
	}
}

type coSupervisionRepoStub struct {
	createFn                func(context.Context, *models.CoSupervisionRequest) error
	getByIDFn               func(context.Context, uint) (*models.CoSupervisionRequest, error)
	findPendingForProjectFn func(context.Context, uint) (*models.CoSupervisionRequest, error)
	listForSupervisorFn     func(context.Context, uint, repository.RequestDirection) ([]models.CoSupervisionRequest, error)
	updateStatusFn          func(context.Context, uint, models.RequestStatus) error
}

func (s *coSupervisionRepoStub) Create(ctx context.Context, request *models.CoSupervisionRequest) error {
	return s.createFn(ctx, request)
}
func (s *coSupervisionRepoStub) GetByID(ctx context.Context, id uint) (*models.CoSupervisionRequest, error) {
	return s.getByIDFn(ctx, id)
}
func (s *coSupervisionRepoStub) FindPendingForProject(ctx context.Context, projectID uint) (*models.CoSupervisionRequest, error) {
	return s.findPendingForProjectFn(ctx, projectID)
}
func (s *coSupervisionRepoStub) ListForSupervisor(ctx context.Context, supervisorID uint, direction repository.RequestDirection) ([]models.CoSupervisionRequest, error) {
	return s.listForSupervisorFn(ctx, supervisorID, direction)
}
func (s *coSupervisionRepoStub) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus) error {
	return s.updateStatusFn(ctx, id, status)
}

func noopCoSupervisionRepo() *coSupervisionRepoStub {
	return &coSupervisionRepoStub{
		createFn: func(context.Context, *models.CoSupervisionRequest) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.CoSupervisionRequest, error) {
			return &models.CoSupervisionRequest{ID: id, Status: models.RequestStatusPending}, nil
		},
		findPendingForProjectFn: func(context.Context, uint) (*models.CoSupervisionRequest, error) {
			return nil, nil
		},
		listForSupervisorFn: func(context.Context, uint, repository.RequestDirection) ([]models.CoSupervisionRequest, error) {
			return nil, nil
		},
		updateStatusFn: func(context.Context, uint, models.RequestStatus) error { return nil },
	}
}

type projectRepoStub struct {
	createFn           func(context.Context, *models.Project) error
	getByIDFn          func(context.Context, uint) (*models.Project, error)
	listBySupervisorFn func(context.Context, uint) ([]models.Project, error)
	updateFieldsFn     func(context.Context, uint, map[string]interface{}) error
}

func (s *projectRepoStub) Create(ctx context.Context, project *models.Project) error {
	return s.createFn(ctx, project)
}
func (s *projectRepoStub) GetByID(ctx context.Context, id uint) (*models.Project, error) {
	return s.getByIDFn(ctx, id)
}
func (s *projectRepoStub) ListBySupervisor(ctx context.Context, supervisorID uint) ([]models.Project, error) {
	return s.listBySupervisorFn(ctx, supervisorID)
}
func (s *projectRepoStub) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	return s.updateFieldsFn(ctx, id, fields)
}

func noopProjectRepo() *projectRepoStub {
	return &projectRepoStub{
		createFn: func(context.Context, *models.Project) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Project, error) {
			return &models.Project{ID: id, Status: models.ProjectStatusApproved}, nil
		},
		listBySupervisorFn: func(context.Context, uint) ([]models.Project, error) { return nil, nil },
		updateFieldsFn:     func(context.Context, uint, map[string]interface{}) error { return nil },
	}
}

// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"capmatch/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumStudents    int
	NumSupervisors int
	ShouldClean    bool
}

var departments = []string{
	"Computer Science", "Software Engineering", "Data Science",
	"Electrical Engineering", "Information Systems", "Cybersecurity",
}

// Seed populates the database with test data: supervisors with varied
// capacity, students (some paired), projects, and a spread of applications
// across the lifecycle.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding %d students and %d supervisors...", opts.NumStudents, opts.NumSupervisors)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	supervisors, err := createSupervisors(db, opts.NumSupervisors)
	if err != nil {
		return fmt.Errorf("failed to create supervisors: %w", err)
	}
	log.Printf("created %d supervisors", len(supervisors))

	students, err := createStudents(db, opts.NumStudents)
	if err != nil {
		return fmt.Errorf("failed to create students: %w", err)
	}
	log.Printf("created %d students", len(students))

	if err := pairSomeStudents(db, students); err != nil {
		return fmt.Errorf("failed to pair students: %w", err)
	}

	projects, err := createProjects(db, supervisors)
	if err != nil {
		return fmt.Errorf("failed to create projects: %w", err)
	}
	log.Printf("created %d projects", len(projects))

	if err := createApplications(db, students, supervisors); err != nil {
		return fmt.Errorf("failed to create applications: %w", err)
	}

	log.Println("seeding complete")
	return nil
}

func clearData(db *gorm.DB) error {
	// Order matters: children before parents.
	tables := []interface{}{
		&models.Application{},
		&models.PartnershipRequest{},
		&models.CoSupervisionRequest{},
		&models.Project{},
		&models.Student{},
		&models.Supervisor{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createSupervisors(db *gorm.DB, count int) ([]models.Supervisor, error) {
	supervisors := make([]models.Supervisor, 0, count)
	for i := 0; i < count; i++ {
		maxCapacity := rand.Intn(models.MaxCapacityCeiling) + 1
		supervisor := models.Supervisor{
			UserID:      uint(1000 + i),
			FullName:    gofakeit.Name(),
			Email:       gofakeit.Email(),
			Department:  departments[rand.Intn(len(departments))],
			MaxCapacity: maxCapacity,
		}
		if err := db.Create(&supervisor).Error; err != nil {
			return nil, err
		}
		supervisors = append(supervisors, supervisor)
	}
	return supervisors, nil
}

func createStudents(db *gorm.DB, count int) ([]models.Student, error) {
	students := make([]models.Student, 0, count)
	for i := 0; i < count; i++ {
		student := models.Student{
			UserID:            uint(2000 + i),
			FullName:          gofakeit.Name(),
			Email:             gofakeit.Email(),
			PartnershipStatus: models.PartnershipStatusNone,
		}
		if err := db.Create(&student).Error; err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, nil
}

// pairSomeStudents pairs roughly a third of the students with each other,
// recording the accepted request each pairing came from.
func pairSomeStudents(db *gorm.DB, students []models.Student) error {
	for i := 0; i+1 < len(students); i += 6 {
		a, b := students[i], students[i+1]

		request := models.PartnershipRequest{
			RequesterID:     a.ID,
			TargetStudentID: b.ID,
			Status:          models.RequestStatusAccepted,
		}
		if err := db.Create(&request).Error; err != nil {
			return err
		}

		pairUpdate := func(id, partnerID uint) error {
			return db.Model(&models.Student{}).Where("id = ?", id).Updates(map[string]interface{}{
				"partner_id":         partnerID,
				"partnership_status": models.PartnershipStatusPaired,
			}).Error
		}
		if err := pairUpdate(a.ID, b.ID); err != nil {
			return err
		}
		if err := pairUpdate(b.ID, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func createProjects(db *gorm.DB, supervisors []models.Supervisor) ([]models.Project, error) {
	statuses := []models.ProjectStatus{
		models.ProjectStatusPendingApproval,
		models.ProjectStatusApproved,
		models.ProjectStatusInProgress,
	}

	projects := make([]models.Project, 0, len(supervisors)*2)
	for _, supervisor := range supervisors {
		for j := 0; j < 2; j++ {
			project := models.Project{
				Title:        gofakeit.BS(),
				SupervisorID: supervisor.ID,
				Status:       statuses[rand.Intn(len(statuses))],
			}
			if err := db.Create(&project).Error; err != nil {
				return nil, err
			}
			projects = append(projects, project)
		}
	}
	return projects, nil
}

// createApplications submits one application per student, approving some of
// them and charging the supervisor's capacity to match.
func createApplications(db *gorm.DB, students []models.Student, supervisors []models.Supervisor) error {
	if len(supervisors) == 0 {
		return nil
	}

	// Track capacity locally so approvals never outrun the ledger.
	load := make(map[uint]int, len(supervisors))

	approved := 0
	for i, student := range students {
		supervisor := supervisors[i%len(supervisors)]

		app := models.Application{
			StudentID:    student.ID,
			SupervisorID: supervisor.ID,
			Status:       models.ApplicationStatusPending,
			ProjectTitle: gofakeit.Sentence(4),
		}
		if student.PartnershipStatus == models.PartnershipStatusPaired && student.PartnerID != nil {
			app.HasPartner = true
			app.PartnerID = student.PartnerID
		}

		// Approve a slice of applications where the supervisor has room.
		if i%4 == 0 && load[supervisor.ID] < supervisor.MaxCapacity {
			app.Status = models.ApplicationStatusApproved
			if err := db.Model(&models.Supervisor{}).
				Where("id = ?", supervisor.ID).
				Update("current_capacity", gorm.Expr("current_capacity + 1")).Error; err != nil {
				return err
			}
			load[supervisor.ID]++
			approved++
		} else if i%4 == 1 {
			app.Status = models.ApplicationStatusUnderReview
		} else if i%4 == 2 {
			app.Status = models.ApplicationStatusRevisionRequested
			app.SupervisorFeedback = gofakeit.Sentence(8)
		}

		if err := db.Create(&app).Error; err != nil {
			return err
		}
	}

	log.Printf("created %d applications (%d approved)", len(students), approved)
	return nil
}

// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationStatus represents the lifecycle state of a project application.
type ApplicationStatus string

const (
	// ApplicationStatusPending indicates a submitted application awaiting review.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusUnderReview indicates a supervisor is actively reviewing.
	ApplicationStatusUnderReview ApplicationStatus = "under_review"
	// ApplicationStatusApproved indicates the application was accepted.
	ApplicationStatusApproved ApplicationStatus = "approved"
	// ApplicationStatusRejected indicates the application was declined.
	ApplicationStatusRejected ApplicationStatus = "rejected"
	// ApplicationStatusRevisionRequested indicates the supervisor asked for changes.
	ApplicationStatusRevisionRequested ApplicationStatus = "revision_requested"
)

// IsTerminal reports whether the status ends the review cycle. Terminal
// applications no longer count against the per-supervisor duplicate guard.
func (s ApplicationStatus) IsTerminal() bool {
	return s == ApplicationStatusApproved || s == ApplicationStatusRejected
}

// Application is one student's (or partnered pair's) request to a supervisor.
type Application struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	PublicID     uuid.UUID         `gorm:"type:uuid;uniqueIndex" json:"public_id"`
	StudentID    uint              `gorm:"not null;index" json:"student_id"`
	SupervisorID uint              `gorm:"not null;index" json:"supervisor_id"`
	Status       ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ProjectTitle string            `gorm:"size:200;not null" json:"project_title"`
	HasPartner   bool              `gorm:"not null;default:false" json:"has_partner"`
	PartnerID    *uint             `json:"partner_id,omitempty"`

	// Legacy dual-application mode. New applications are created with
	// IsLeadApplication=true and no link; the fields are honored for
	// records that predate the single-application model.
	LinkedApplicationID *uint `gorm:"index" json:"linked_application_id,omitempty"`
	IsLeadApplication   bool  `gorm:"not null;default:true" json:"is_lead_application"`

	SupervisorFeedback string     `gorm:"type:text" json:"supervisor_feedback,omitempty"`
	DateApplied        time.Time  `json:"date_applied"`
	LastUpdated        time.Time  `json:"last_updated"`
	ResponseDate       *time.Time `json:"response_date,omitempty"`
	ResubmittedDate    *time.Time `json:"resubmitted_date,omitempty"`

	// Relationships
	Student    *Student    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Supervisor *Supervisor `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
}

// TableName specifies the table name for GORM.
func (Application) TableName() string {
	return "applications"
}

// BeforeCreate stamps the public identifier and submission timestamps.
func (a *Application) BeforeCreate(_ *gorm.DB) error {
	if a.PublicID == uuid.Nil {
		a.PublicID = uuid.New()
	}
	now := time.Now().UTC()
	if a.DateApplied.IsZero() {
		a.DateApplied = now
	}
	if a.LastUpdated.IsZero() {
		a.LastUpdated = now
	}
	return nil
}

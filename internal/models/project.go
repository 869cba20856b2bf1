package models

import "time"

// ProjectStatus represents a project's delivery state.
type ProjectStatus string

const (
	// ProjectStatusPendingApproval indicates the project awaits sign-off.
	ProjectStatusPendingApproval ProjectStatus = "pending_approval"
	// ProjectStatusApproved indicates the project may begin.
	ProjectStatusApproved ProjectStatus = "approved"
	// ProjectStatusInProgress indicates active work.
	ProjectStatusInProgress ProjectStatus = "in_progress"
	// ProjectStatusCompleted indicates delivery. Completion releases any
	// active co-supervision exactly once.
	ProjectStatusCompleted ProjectStatus = "completed"
)

// Project is supervisor-owned and optionally co-supervised.
type Project struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	Title          string        `gorm:"size:200;not null" json:"title"`
	SupervisorID   uint          `gorm:"not null;index" json:"supervisor_id"`
	CoSupervisorID *uint         `gorm:"index" json:"co_supervisor_id,omitempty"`
	Status         ProjectStatus `gorm:"type:varchar(20);not null;default:'pending_approval'" json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// Relationships
	Supervisor   *Supervisor `gorm:"foreignKey:SupervisorID" json:"supervisor,omitempty"`
	CoSupervisor *Supervisor `gorm:"foreignKey:CoSupervisorID" json:"co_supervisor,omitempty"`
}

// TableName specifies the table name for GORM.
func (Project) TableName() string {
	return "projects"
}

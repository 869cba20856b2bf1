package models

import "time"

// CoSupervisionRequest is a proposal from a project's primary supervisor to a
// second supervisor. Accepting it sets Project.CoSupervisorID and reserves one
// unit of the target's capacity, checked transactionally.
type CoSupervisionRequest struct {
	ID                     uint          `gorm:"primaryKey" json:"id"`
	RequestingSupervisorID uint          `gorm:"not null;index" json:"requesting_supervisor_id"`
	TargetSupervisorID     uint          `gorm:"not null;index" json:"target_supervisor_id"`
	ProjectID              uint          `gorm:"not null;index" json:"project_id"`
	Status                 RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt              time.Time     `json:"created_at"`
	UpdatedAt              time.Time     `json:"updated_at"`

	// Relationships
	RequestingSupervisor *Supervisor `gorm:"foreignKey:RequestingSupervisorID" json:"requesting_supervisor,omitempty"`
	TargetSupervisor     *Supervisor `gorm:"foreignKey:TargetSupervisorID" json:"target_supervisor,omitempty"`
	Project              *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName specifies the table name for GORM.
func (CoSupervisionRequest) TableName() string {
	return "co_supervision_requests"
}

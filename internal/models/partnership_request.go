package models

import "time"

// RequestStatus represents the lifecycle of a partnership proposal, shared by
// student and co-supervision requests.
type RequestStatus string

const (
	// RequestStatusPending indicates the proposal awaits a response.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusAccepted indicates the proposal was accepted.
	RequestStatusAccepted RequestStatus = "accepted"
	// RequestStatusRejected indicates the target declined.
	RequestStatusRejected RequestStatus = "rejected"
	// RequestStatusCancelled indicates the requester withdrew it, or it was
	// made moot by a competing acceptance.
	RequestStatusCancelled RequestStatus = "cancelled"
)

// PartnershipRequest is a pending proposal between two students. Only one
// pending request may exist per unordered pair.
type PartnershipRequest struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	RequesterID     uint          `gorm:"not null;index" json:"requester_id"`
	TargetStudentID uint          `gorm:"not null;index" json:"target_student_id"`
	Status          RequestStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	// Relationships
	Requester     *Student `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	TargetStudent *Student `gorm:"foreignKey:TargetStudentID" json:"target_student,omitempty"`
}

// TableName specifies the table name for GORM.
func (PartnershipRequest) TableName() string {
	return "partnership_requests"
}

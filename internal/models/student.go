package models

import "time"

// PartnershipStatus mirrors a student's side of the pairing workflow. It is
// informational; the authoritative state lives on the PartnershipRequest.
type PartnershipStatus string

const (
	// PartnershipStatusNone indicates no partner and no open request.
	PartnershipStatusNone PartnershipStatus = "none"
	// PartnershipStatusPendingSent indicates the student sent a request.
	PartnershipStatusPendingSent PartnershipStatus = "pending_sent"
	// PartnershipStatusPendingReceived indicates the student received a request.
	PartnershipStatusPendingReceived PartnershipStatus = "pending_received"
	// PartnershipStatusPaired indicates an accepted partnership.
	PartnershipStatusPaired PartnershipStatus = "paired"
)

// Student is the partnership-bearing side of the matching portal.
// If PartnershipStatus is paired, the referenced partner must point back.
type Student struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	UserID            uint              `gorm:"not null;uniqueIndex" json:"user_id"`
	FullName          string            `gorm:"size:120;not null" json:"full_name"`
	Email             string            `gorm:"size:254;not null;uniqueIndex" json:"email"`
	PartnerID         *uint             `json:"partner_id,omitempty"`
	PartnershipStatus PartnershipStatus `gorm:"type:varchar(20);not null;default:'none'" json:"partnership_status"`
	CreatedAt         time.Time         `json:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at"`

	Partner *Student `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

// TableName specifies the table name for GORM.
func (Student) TableName() string {
	return "students"
}

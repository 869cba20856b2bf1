package models

import "time"

// MaxCapacityCeiling is the system-wide upper bound on a supervisor's
// configured maximum capacity.
const MaxCapacityCeiling = 10

// Supervisor is the capacity-bearing entity. CurrentCapacity is mutated only
// inside capacity transactions; 0 <= CurrentCapacity <= MaxCapacity holds
// after every commit.
type Supervisor struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	FullName        string    `gorm:"size:120;not null" json:"full_name"`
	Email           string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Department      string    `gorm:"size:120" json:"department,omitempty"`
	CurrentCapacity int       `gorm:"not null;default:0" json:"current_capacity"`
	MaxCapacity     int       `gorm:"not null;default:5" json:"max_capacity"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for GORM.
func (Supervisor) TableName() string {
	return "supervisors"
}

// HasSpareCapacity reports whether one more project can be taken on.
func (s *Supervisor) HasSpareCapacity() bool {
	return s.CurrentCapacity < s.MaxCapacity
}

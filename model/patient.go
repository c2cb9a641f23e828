package model

import "time"

// Patient is one patient record owned by a single user. CNIC is stored in
// canonical digits-only form and is unique per owner: the composite index
// lets two different users register the same CNIC while rejecting a
// duplicate for the same owner even if two requests race past the
// application-level existence check. CNIC never changes after creation.
//
// Patients are hard-deleted, so there is no DeletedAt column. UpdatedAt is
// stamped manually by the update path and stays NULL until the first update.
type Patient struct {
	ID        uint       `gorm:"primaryKey" json:"patient_id"`
	UserID    uint       `gorm:"not null;uniqueIndex:idx_owner_cnic" json:"user_id"`
	Name      string     `gorm:"type:varchar(255);not null" json:"name"`
	CNIC      string     `gorm:"column:cnic;type:char(13);not null;uniqueIndex:idx_owner_cnic" json:"cnic"`
	DOB       time.Time  `gorm:"column:dob;type:date" json:"dob"`
	Gender    string     `gorm:"type:varchar(10)" json:"gender"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false" json:"updated_at"`
}

// UpdatePatientRequest carries the mutable patient fields. CNIC is absent on
// purpose: it cannot be changed after creation.
type UpdatePatientRequest struct {
	Name   string `json:"name" example:"Ali Khan"`
	DOB    string `json:"dob" example:"2000-01-01"`
	Gender string `json:"gender" example:"male"`
}

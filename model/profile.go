package model

import "time"

// Profile is the account holder's own record, one row per user. Email is
// copied from the authenticated identity when the row is first created.
// CNIC is accepted only on the insert path; once the row exists no save may
// alter it.
type Profile struct {
	UserID    uint       `gorm:"primaryKey" json:"id"`
	Email     string     `gorm:"type:varchar(191)" json:"email"`
	FullName  string     `gorm:"type:varchar(255)" json:"full_name"`
	Phone     string     `gorm:"type:varchar(32)" json:"phone"`
	Gender    string     `gorm:"type:varchar(10)" json:"gender"`
	DOB       *time.Time `gorm:"column:dob;type:date" json:"dob"`
	CNIC      string     `gorm:"column:cnic;type:char(13)" json:"cnic"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

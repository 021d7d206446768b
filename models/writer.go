package models

import "time"

// Login holds writer credentials. Passwords are stored as bcrypt hashes.
type Login struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:128;not null" json:"-"`
	Email     string    `gorm:"size:255" json:"email"`
	Role      string    `gorm:"size:32;default:'writer'" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Writer is the content-writer profile. All milestone data is keyed by the
// writer ID, not the login ID; the two are linked through LoginID.
type Writer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	LoginID   uint      `gorm:"index;not null" json:"login_id"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

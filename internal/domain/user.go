// Package domain defines the persistence models shared by the repository and
// service layers. GORM maps them to the database schema via AutoMigrate.
package domain

import "time"

// User is a portal account. School is the organization affiliation used by the
// cross-school join check; an empty string means no affiliation.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;size:191;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"uniqueIndex;size:191" json:"email,omitempty"`
	School    string    `gorm:"index;size:191" json:"school,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

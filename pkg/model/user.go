package model

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id" yaml:"-"`
	Username     string    `gorm:"uniqueIndex;size:64" json:"username" yaml:"username"`
	Tenant       string    `gorm:"size:64" json:"tenant" yaml:"tenant"`
	PasswordHash string    `json:"-" yaml:"-"`
	IsAdmin      bool      `json:"isAdmin" yaml:"admin"`
	CreatedAt    time.Time `json:"createdAt" yaml:"-"`
}

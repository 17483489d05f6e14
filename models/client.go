package models

import "time"

// Client is the account holder and login identity (email is the username).
type Client struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Email          string `gorm:"size:255;not null;uniqueIndex"`
	FirstName      string `gorm:"size:30;not null"`
	LastName       string `gorm:"size:30;not null"`
	Phone          string `gorm:"size:15"`
	HashedPassword []byte `gorm:"not null"`
	IsActive       bool   `gorm:"default:true;not null"`
	IsAdmin        bool   `gorm:"default:false;not null"`
	IsStaff        bool   `gorm:"default:false;not null"`
	// Accounts are protected: a client with accounts cannot be deleted.
	Accounts []CurrentAccount `gorm:"foreignKey:ClientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

package models

import "time"

// CurrentAccount is a running ledger owned by one client.
type CurrentAccount struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	ClientID  uint   `gorm:"index;not null"`
	Client    Client `gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	// Movements are protected: an account with movements cannot be deleted.
	Movements []Movement `gorm:"foreignKey:AccountID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
}

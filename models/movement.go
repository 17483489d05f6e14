package models

import "time"

// DescriptionMaxLen bounds a movement description.
const DescriptionMaxLen = 125

// Movement is a single signed ledger entry. Amount is a whole-number
// quantity; positive means credit and negative debit by convention only.
// Created is set once at insertion and never updated.
type Movement struct {
	ID          uint           `gorm:"primaryKey"`
	AccountID   uint           `gorm:"index;not null"`
	Account     CurrentAccount `gorm:"foreignKey:AccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;"`
	Amount      int64          `gorm:"not null"`
	Description string         `gorm:"size:125;not null"`
	Created     time.Time      `gorm:"autoCreateTime;not null"`
}

package domain

import (
	"time"
)

// AllowlistEntry is a phone number that bypasses AI screening and is
// connected directly. Entries are soft-deleted via IsActive so that removing
// and re-adding the same number toggles the flag instead of inserting a
// duplicate row.
type AllowlistEntry struct {
	ID          string    `json:"id" gorm:"column:id;primaryKey"`
	PhoneNumber string    `json:"phone_number" gorm:"column:phone_number;uniqueIndex"`
	ContactName string    `json:"contact_name" gorm:"column:contact_name"`
	Category    string    `json:"category" gorm:"column:category"`
	AddedDate   time.Time `json:"added_date" gorm:"column:added_date"`
	IsActive    bool      `json:"is_active" gorm:"column:is_active"`
}

func (AllowlistEntry) TableName() string {
	return "exception_phone_numbers"
}

package hashfarm

import "time"

// Bank holds a user's payout details. One row per user.
type Bank struct {
	Id                uint      `json:"id" gorm:"primarykey"`
	CreatedAt         time.Time `json:"created_at"`
	UserId            uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	AccountHolderName string    `gorm:"not null" json:"account_holder_name"`
	AccountNumber     string    `gorm:"not null" json:"account_number"`
	BankName          string    `gorm:"not null" json:"bank_name"`
	IfscCode          string    `gorm:"not null" json:"ifsc_code"`
}

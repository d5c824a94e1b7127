package hashfarm

import (
	"time"
)

type User struct {
	Id         uint      `json:"id" gorm:"primarykey"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Name       string    `gorm:"not null" json:"name"`
	Email      string    `gorm:"uniqueIndex;not null" json:"email"`
	Password   string    `gorm:"not null" json:"-"` // bcrypt hash
	Balance    float64   `json:"balance"`
	IsAdmin    bool      `json:"is_admin"`
	Upline     uint      `gorm:"index" json:"upline"` // referrer user ID, 0 when none
	RefCode    string    `gorm:"index" json:"ref_code"`
	RefCounter uint      `json:"ref_counter"` // how many users signed up with this user's code
}

type UserData struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Balance    float64 `json:"balance"` // up-to-date platform balance
	RefCode    string  `json:"ref_code"`
	RefCounter uint    `json:"ref_counter"`
}

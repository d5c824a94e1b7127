package hashfarm

import "time"

const (
	RigStopped   = "stopped"
	RigActive    = "active"
	RigCompleted = "completed" // terminal, a completed rig never mines again
)

// Rig is a purchased mining position. DailyReturn is fixed at purchase time
// and is never recalculated.
type Rig struct {
	Id           uint      `json:"id" gorm:"primarykey"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	UserId       uint      `gorm:"index;not null" json:"user_id"`
	RigType      string    `gorm:"not null" json:"rig_type"`
	Price        float64   `gorm:"not null" json:"price"`
	DailyReturn  float64   `gorm:"not null" json:"daily_return"`
	PurchaseDate time.Time `json:"purchase_date"`
	MiningDays   uint      `json:"mining_days"`
	Status       string    `gorm:"index" json:"status"` // Status [stopped, active, completed]
}

// RigOffer is one catalog entry users can buy.
type RigOffer struct {
	RigType     string  `json:"rigType"`
	Price       float64 `json:"price"`
	DailyReturn float64 `json:"dailyReturn"`
	MiningDays  uint    `json:"miningDays"`
	Status      string  `json:"status"`
}

const RigDailyRate = 0.02

var AvailableRigs = []RigOffer{
	{RigType: "rig_1000", Price: 1000, DailyReturn: 1000 * RigDailyRate, MiningDays: 90, Status: "active"},
	{RigType: "rig_4000", Price: 4000, DailyReturn: 4000 * RigDailyRate, MiningDays: 90, Status: "active"},
	{RigType: "rig_8000", Price: 8000, DailyReturn: 8000 * RigDailyRate, MiningDays: 90, Status: "active"},
	{RigType: "rig_15000", Price: 15000, DailyReturn: 15000 * RigDailyRate, MiningDays: 90, Status: "active"},
	{RigType: "rig_60000", Price: 60000, DailyReturn: 60000 * RigDailyRate, MiningDays: 90, Status: "active"},
	{RigType: "rig_200000", Price: 200000, DailyReturn: 200000 * RigDailyRate, MiningDays: 90, Status: "active"},
}

// FindOffer returns the catalog entry matching both type and price, or nil.
// Price is part of the match so a tampered order body cannot buy a cheap rig
// under an expensive type.
func FindOffer(rigType string, price float64) *RigOffer {
	for i := range AvailableRigs {
		if AvailableRigs[i].RigType == rigType && AvailableRigs[i].Price == price {
			return &AvailableRigs[i]
		}
	}
	return nil
}

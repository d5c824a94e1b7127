package hashfarm

import (
	"time"

	"gorm.io/gorm"
)

// Referral is one commission payout record. Rows are append-only: every tick
// an upline earned from produces a new row, nothing is ever updated in place.
type Referral struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UserId    uint      `gorm:"index" json:"user_id"`   // beneficiary, whose balance got the commission
	AuthorId  uint      `gorm:"index" json:"author_id"` // originating earner
	Layer     uint      `json:"layer"`                  // 1 = direct referral, 2 = referral of a referral
	Amount    float64   `json:"amount"`
}

type RefData struct {
	TotalCounter  uint    `json:"total_counter"`
	LvlOneCounter uint    `json:"lvl_one_counter"`
	LvlTwoCounter uint    `json:"lvl_two_counter"`
	Total         float64 `json:"total"`
	LvlOne        float64 `json:"lvl_one"`
	LvlTwo        float64 `json:"lvl_two"`
}

// SumRefStats aggregates payout rows into per-layer counters and totals.
func SumRefStats(payouts []Referral) (refStats RefData) {
	for _, payout := range payouts {
		refStats.TotalCounter++
		refStats.Total += payout.Amount
		switch payout.Layer {
		case 1:
			refStats.LvlOneCounter++
			refStats.LvlOne += payout.Amount
		case 2:
			refStats.LvlTwoCounter++
			refStats.LvlTwo += payout.Amount
		}
	}
	return refStats
}

func GetRefStats(db *gorm.DB, user User) RefData {
	var payouts []Referral
	db.Where("user_id = ?", user.Id).Find(&payouts)
	return SumRefStats(payouts)
}

package hashfarm

import "time"

const (
	DepositInitiated = "initiated"
	DepositPending   = "pending"
	DepositSuccess   = "success"
	DepositFailed    = "failed"
)

// Deposit tracks one payment-gateway top-up attempt from initiation to the
// gateway callback.
type Deposit struct {
	Id          uint      `json:"id" gorm:"primarykey"`
	InitiatedAt time.Time `gorm:"autoCreateTime" json:"initiated_at"`
	UserId      uint      `gorm:"index;not null" json:"user_id"`
	Chid        string    `gorm:"not null" json:"chid"` // gateway channel id
	Amount      float64   `gorm:"not null" json:"amount"`
	OrderId     string    `gorm:"index;not null" json:"order_id"`
	ApiResponse string    `json:"api_response"` // raw gateway reply, kept for disputes
	Status      string    `json:"status"`       // Status [initiated, pending, success, failed]
}

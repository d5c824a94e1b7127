package hashfarm

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalDenied   = "denied"
)

type Withdrawal struct {
	Id        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	UserId    uint      `gorm:"index;not null" json:"user_id"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Status    string    `json:"status"` // Status [pending, approved, denied]
	Message   string    `json:"message"`
}

const TypeWithdrawalPayout = "withdrawal:payout"

type WithdrawalPayoutPayload struct {
	WithdrawalId uint `json:"withdrawal_id"`
}

// NewWithdrawalPayoutTask builds the asynq task the payout worker consumes.
func NewWithdrawalPayoutTask(withdrawalId uint) (*asynq.Task, error) {
	payload, err := json.Marshal(WithdrawalPayoutPayload{WithdrawalId: withdrawalId})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWithdrawalPayout, payload, asynq.Queue("payouts")), nil
}

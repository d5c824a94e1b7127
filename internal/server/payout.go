package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"hashfarm/internal/hashfarm"
)

var AppPayout *hashfarm.AppPayout

func PayoutInit() { // Run Payout Worker
	AppPayout = hashfarm.InitPayout()
	mux := asynq.NewServeMux()
	mux.HandleFunc(hashfarm.TypeWithdrawalPayout, handleWithdrawalPayout)
	fmt.Println("[ Hashfarm Payout Worker is up ]")
	if err := AppPayout.Aqs.Run(mux); err != nil {
		log.Fatal("Failed to run Hashfarm Payout Worker: ", err)
	}
}

type payoutGatewayReply struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
}

// handleWithdrawalPayout forwards a pending withdrawal to the payment
// gateway. The amount was already debited when the request was created, so a
// denial refunds it; an error return makes asynq retry the task later.
func handleWithdrawalPayout(ctx context.Context, t *asynq.Task) error {
	var payload hashfarm.WithdrawalPayoutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	var withdrawal hashfarm.Withdrawal
	res := AppPayout.Db.Where("id = ?", payload.WithdrawalId).First(&withdrawal)
	if res.RowsAffected != 1 {
		return fmt.Errorf("withdrawal %d not found: %w", payload.WithdrawalId, asynq.SkipRetry)
	}
	if withdrawal.Status != hashfarm.WithdrawalPending {
		// Asynq redelivers on worker crashes, a settled withdrawal must not
		// be paid twice.
		return nil
	}
	var bank hashfarm.Bank
	res = AppPayout.Db.Where("user_id = ?", withdrawal.UserId).First(&bank)
	if res.RowsAffected != 1 {
		return denyWithdrawal(&withdrawal, "no bank details on file")
	}
	client := resty.New()
	resp, err := client.R().
		SetFormData(map[string]string{
			"api_key":        os.Getenv("GATEWAY_API_KEY"),
			"amount":         fmt.Sprintf("%f", withdrawal.Amount),
			"order_id":       fmt.Sprintf("wd-%d", withdrawal.Id),
			"account_number": bank.AccountNumber,
			"account_name":   bank.AccountHolderName,
			"bank_name":      bank.BankName,
			"ifsc_code":      bank.IfscCode,
		}).
		Post(os.Getenv("GATEWAY_PAYOUT_URL"))
	if err != nil {
		fmt.Println("[[Payout]] Gateway unreachable for withdrawal", withdrawal.Id, ":", err)
		return err
	}
	var reply payoutGatewayReply
	_ = json.Unmarshal(resp.Body(), &reply)
	if !reply.Status {
		return denyWithdrawal(&withdrawal, reply.Message)
	}
	withdrawal.Status = hashfarm.WithdrawalApproved
	withdrawal.Message = reply.Message
	if err := AppPayout.Db.Save(&withdrawal).Error; err != nil {
		return err
	}
	msg := fmt.Sprintf(
		`WITHDRAWAL PAID [Withdrawal: %d]
[User: %d]
Amount: %s`,
		withdrawal.Id,
		withdrawal.UserId,
		hashfarm.EscapeMarkdownV2(fmt.Sprintf("%f", withdrawal.Amount)),
	)
	fmt.Println(hashfarm.SendTelegramMessage(msg, "finance"))
	return nil
}

// denyWithdrawal marks the request denied and puts the reserved amount back.
func denyWithdrawal(withdrawal *hashfarm.Withdrawal, reason string) error {
	withdrawal.Status = hashfarm.WithdrawalDenied
	withdrawal.Message = reason
	if err := AppPayout.Db.Save(withdrawal).Error; err != nil {
		return err
	}
	res := AppPayout.Db.Model(&hashfarm.User{}).
		Where("id = ?", withdrawal.UserId).
		UpdateColumn("balance", gorm.Expr("balance + ?", withdrawal.Amount))
	if res.Error != nil {
		return res.Error
	}
	msg := fmt.Sprintf(
		`WITHDRAWAL DENIED [Withdrawal: %d]
[User: %d]
Reason: %s`,
		withdrawal.Id,
		withdrawal.UserId,
		hashfarm.EscapeMarkdownV2(reason),
	)
	fmt.Println(hashfarm.SendTelegramMessage(msg, "finance"))
	return nil
}

package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hashfarm/internal/hashfarm"
)

type withdrawalParams struct {
	Amount float64 `json:"amount" binding:"required"`
}

// CreateWithdrawal reserves the amount out of the user's balance and queues a
// payout task. The debit is conditional on the balance covering the amount,
// a concurrent purchase or second withdrawal can never overdraw.
func CreateWithdrawal(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)
	var wParams withdrawalParams
	if err := c.ShouldBindJSON(&wParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if wParams.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "withdrawal amount must be positive"})
		return
	}
	appConfigRaw, _ := app.Rdb.Get(c, "app_config").Result()
	if len(appConfigRaw) > 0 {
		_ = json.Unmarshal([]byte(appConfigRaw), &hashfarm.CurrentAppConfig)
	}
	if wParams.Amount < hashfarm.CurrentAppConfig.Settings.Limits.WithdrawMin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "min_withdrawal"})
		return
	}
	if wParams.Amount > hashfarm.CurrentAppConfig.Settings.Limits.WithdrawMax {
		c.JSON(http.StatusBadRequest, gin.H{"error": "max_withdrawal"})
		return
	}
	res := app.Db.Model(&hashfarm.User{}).
		Where("id = ? AND balance >= ?", userId, wParams.Amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", wParams.Amount))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating withdrawal request"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		return
	}
	withdrawal := hashfarm.Withdrawal{
		UserId: userId,
		Amount: wParams.Amount,
		Status: hashfarm.WithdrawalPending,
	}
	res = app.Db.Create(&withdrawal)
	if res.Error != nil {
		// The debit already went through, put the money back.
		app.Db.Model(&hashfarm.User{}).
			Where("id = ?", userId).
			UpdateColumn("balance", gorm.Expr("balance + ?", wParams.Amount))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error creating withdrawal request"})
		return
	}
	task, err := hashfarm.NewWithdrawalPayoutTask(withdrawal.Id)
	if err == nil {
		_, err = app.Aqc.Enqueue(task)
	}
	if err != nil {
		fmt.Println("[[Withdraw]] Failed to enqueue payout task:", err)
	}
	msg := fmt.Sprintf(
		`WITHDRAWAL REQUESTED [Withdrawal: %d]
[User: %d]
Amount: %s`,
		withdrawal.Id,
		userId,
		hashfarm.EscapeMarkdownV2(fmt.Sprintf("%f", wParams.Amount)),
	)
	fmt.Println(hashfarm.SendTelegramMessage(msg, "finance"))
	c.JSON(http.StatusCreated, gin.H{"message": "withdrawal request created", "withdrawal": withdrawal})
}

func GetWithdrawals(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var withdrawals []hashfarm.Withdrawal
	app.Db.Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&withdrawals)
	if len(withdrawals) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "no withdrawals found for this user"})
		return
	}
	c.JSON(http.StatusOK, withdrawals)
}

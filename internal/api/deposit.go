package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"gorm.io/gorm"

	"hashfarm/internal/hashfarm"
	"hashfarm/internal/mining"
)

type depositParams struct {
	Chid     string  `json:"chid" binding:"required"`
	Amount   float64 `json:"amount" binding:"required"`
	OrderId  string  `json:"order_id" binding:"required"`
	Callback string  `json:"callback" binding:"required"`
	PageUrl  string  `json:"page_url" binding:"required"`
}

type callbackParams struct {
	OrderId string  `json:"order_id" binding:"required"`
	Status  string  `json:"status" binding:"required"`
	Amount  float64 `json:"amount" binding:"required"`
}

type gatewayReply struct {
	Status bool `json:"status"`
}

// CreateDeposit registers a top-up and forwards it to the payment gateway as
// a form-encoded request. The deposit stays "pending" until the gateway
// calls back.
func CreateDeposit(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)
	var dParams depositParams
	if err := c.ShouldBindJSON(&dParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}
	deposit := hashfarm.Deposit{
		UserId:  userId,
		Chid:    dParams.Chid,
		Amount:  dParams.Amount,
		OrderId: dParams.OrderId,
		Status:  hashfarm.DepositInitiated,
	}
	client := resty.New()
	resp, err := client.R().
		SetFormData(map[string]string{
			"api_key":  os.Getenv("GATEWAY_API_KEY"),
			"chid":     dParams.Chid,
			"amount":   fmt.Sprintf("%f", dParams.Amount),
			"order_id": dParams.OrderId,
			"callback": dParams.Callback,
			"page_url": dParams.PageUrl,
		}).
		Post(os.Getenv("GATEWAY_URL"))
	if err != nil {
		deposit.Status = hashfarm.DepositFailed
		app.Db.Create(&deposit)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred while processing the deposit", "deposit": deposit})
		return
	}
	deposit.ApiResponse = string(resp.Body())
	var reply gatewayReply
	_ = json.Unmarshal(resp.Body(), &reply)
	if reply.Status {
		deposit.Status = hashfarm.DepositPending
		app.Db.Create(&deposit)
		c.JSON(http.StatusOK, gin.H{"message": "deposit initiated successfully", "deposit": deposit})
		return
	}
	deposit.Status = hashfarm.DepositInitiated
	app.Db.Create(&deposit)
	c.JSON(http.StatusBadRequest, gin.H{"error": "failed to initiate deposit", "deposit": deposit})
}

// HandleCallback is the gateway's server-to-server confirmation. A success
// credits the user's balance atomically and notifies the finance chat.
func HandleCallback(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	var cbParams callbackParams
	if err := c.ShouldBindJSON(&cbParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid callback data"})
		return
	}
	var deposit hashfarm.Deposit
	res := app.Db.Where("order_id = ?", cbParams.OrderId).First(&deposit)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "deposit not found"})
		return
	}
	if deposit.Status == hashfarm.DepositSuccess {
		// Gateways retry callbacks, a settled deposit must not credit twice.
		c.JSON(http.StatusOK, gin.H{"message": "callback received and processed successfully"})
		return
	}
	if cbParams.Status == "success" {
		deposit.Status = hashfarm.DepositSuccess
		res = app.Db.Model(&hashfarm.User{}).
			Where("id = ?", deposit.UserId).
			UpdateColumn("balance", gorm.Expr("balance + ?", cbParams.Amount))
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		payload, _ := json.Marshal(mining.EarnedEvent{UserId: deposit.UserId, Earned: cbParams.Amount})
		app.Rdb.Publish(context.Background(), fmt.Sprintf("balance_ch@%d", deposit.UserId), payload)
		msg := fmt.Sprintf(
			`DEPOSIT CONFIRMED [Order: %s]
[User: %d]
Amount: %s`,
			hashfarm.EscapeMarkdownV2(deposit.OrderId),
			deposit.UserId,
			hashfarm.EscapeMarkdownV2(fmt.Sprintf("%f", cbParams.Amount)),
		)
		fmt.Println(hashfarm.SendTelegramMessage(msg, "finance"))
	} else {
		deposit.Status = hashfarm.DepositFailed
	}
	app.Db.Save(&deposit)
	fmt.Println("[[Deposit]] Callback processed for order:", deposit.OrderId, "status:", deposit.Status)
	c.JSON(http.StatusOK, gin.H{"message": "callback received and processed successfully"})
}

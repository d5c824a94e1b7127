package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/hashfarm"
)

func GetAllUsers(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)

	var users []hashfarm.User
	app.Db.Order("created_at DESC").Find(&users)
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

func GetAllRigs(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)

	var rigs []hashfarm.Rig
	app.Db.Order("created_at DESC").Find(&rigs)
	c.JSON(http.StatusOK, gin.H{"count": len(rigs), "rigs": rigs})
}

type dailyReward struct {
	UserId uint    `json:"user_id"`
	Total  float64 `json:"total"`
}

// GetPayoutQueue reports the state of the withdrawal payout queue.
func GetPayoutQueue(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)

	info, err := app.Aqi.GetQueueInfo("payouts")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to inspect payout queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pending":   info.Pending,
		"active":    info.Active,
		"retry":     info.Retry,
		"failed":    info.Failed,
		"processed": info.Processed,
	})
}

// GetDailyRewards reports the daily payout obligation per user, summed over
// that user's active rigs.
func GetDailyRewards(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)

	var rewards []dailyReward
	app.Db.Model(&hashfarm.Rig{}).
		Select("user_id, SUM(daily_return) as total").
		Where("status = ?", hashfarm.RigActive).
		Group("user_id").
		Order("total DESC").
		Scan(&rewards)
	c.JSON(http.StatusOK, gin.H{"count": len(rewards), "rewards": rewards})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/hashfarm"
)

func GetUser(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var user hashfarm.User
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": hashfarm.UserData{
			ID:         user.Id,
			Name:       user.Name,
			Email:      user.Email,
			Balance:    user.Balance,
			RefCode:    user.RefCode,
			RefCounter: user.RefCounter,
		},
		"referral_stats": hashfarm.GetRefStats(app.Db, user),
	})
}

func GetBalance(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var user hashfarm.User
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": user.Balance})
}

func GetRigs(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var rigs []hashfarm.Rig
	app.Db.Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&rigs)
	c.JSON(http.StatusOK, rigs)
}

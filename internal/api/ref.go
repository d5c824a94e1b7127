package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/hashfarm"
)

type PaginatedRef struct {
	Count    int                 `json:"count"`
	Next     string              `json:"next"`
	Previous string              `json:"previous"`
	Results  []hashfarm.Referral `json:"results"`
}

// GetReferredUsers lists the users who signed up with the caller's code.
func GetReferredUsers(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var referred []hashfarm.User
	app.Db.Where("upline = ?", userId).
		Order("created_at DESC").
		Find(&referred)
	results := make([]hashfarm.UserData, 0, len(referred))
	for _, user := range referred {
		results = append(results, hashfarm.UserData{
			ID:         user.Id,
			Name:       user.Name,
			Email:      user.Email,
			RefCode:    user.RefCode,
			RefCounter: user.RefCounter,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(results), "results": results})
}

// GetReferralEarnings returns the caller's commission payout feed plus
// per-layer totals.
func GetReferralEarnings(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	if page < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if size < 1 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errors.New("maximum size is 100").Error()})
		return
	}
	var user hashfarm.User
	res := app.Db.Where("id = ?", userId).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid jwt"})
		return
	}
	var payouts []hashfarm.Referral
	app.Db.Where("user_id = ?", userId).
		Order("created_at DESC").
		Find(&payouts)
	paginated := paginateRef(payouts, page, size)
	c.JSON(http.StatusOK, gin.H{
		"stats":   hashfarm.SumRefStats(payouts),
		"payouts": paginated,
	})
}

func paginateRef(payouts []hashfarm.Referral, page int, size int) (paginatedRef PaginatedRef) {
	paginatedRef.Results = []hashfarm.Referral{}
	feedLen := len(payouts)
	i := (page - 1) * size
	if feedLen <= i {
		return paginatedRef
	}
	if feedLen > page*size {
		paginatedRef.Next = fmt.Sprintf("/api/users/referral-earnings?page=%d&size=%d", page+1, size)
	}
	if page > 1 {
		paginatedRef.Previous = fmt.Sprintf("/api/users/referral-earnings?page=%d&size=%d", page-1, size)
	}
	if size > feedLen {
		size = feedLen
	}
	k := i + size
	j := k
	if feedLen < page*size {
		j = feedLen
	}
	paginatedRef.Count = len(payouts)
	if k > feedLen {
		k = feedLen
	}
	paginatedRef.Results = payouts[i:j:k]
	return paginatedRef
}

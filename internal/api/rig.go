package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/hashfarm"
	"hashfarm/internal/mining"
)

type orderRigParams struct {
	RigType string  `json:"rigType" binding:"required"`
	Price   float64 `json:"price" binding:"required"`
}

type rigIdParams struct {
	RigId uint `json:"rigId" binding:"required"`
}

func GetAvailableRigs(c *gin.Context) {
	c.JSON(http.StatusOK, hashfarm.AvailableRigs)
}

// OrderRig buys a rig from the catalog. The new rig starts stopped; mining
// begins with an explicit start-mining call.
func OrderRig(c *gin.Context) {
	lifecycle := c.MustGet("lifecycle").(*mining.Lifecycle)
	userId := c.MustGet("user_id").(uint)
	var oParams orderRigParams
	if err := c.ShouldBindJSON(&oParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rig, err := lifecycle.Open(userId, oParams.RigType, oParams.Price)
	if err != nil {
		switch {
		case errors.Is(err, mining.ErrInvalidRigType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rig type"})
		case errors.Is(err, mining.ErrInsufficientFunds):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "rig ordered successfully", "rig": rig})
}

func StartMining(c *gin.Context) {
	lifecycle := c.MustGet("lifecycle").(*mining.Lifecycle)
	userId := c.MustGet("user_id").(uint)
	var rParams rigIdParams
	if err := c.ShouldBindJSON(&rParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rig, err := lifecycle.Start(rParams.RigId, userId)
	if err != nil {
		rigError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "mining started or resumed successfully", "rig": rig})
}

func StopMining(c *gin.Context) {
	lifecycle := c.MustGet("lifecycle").(*mining.Lifecycle)
	userId := c.MustGet("user_id").(uint)
	var rParams rigIdParams
	if err := c.ShouldBindJSON(&rParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rig, err := lifecycle.Stop(rParams.RigId, userId)
	if err != nil {
		rigError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "mining stopped successfully", "rig": rig})
}

func rigError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mining.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "invalid rig"})
	case errors.Is(err, mining.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized access to this rig"})
	case errors.Is(err, mining.ErrAlreadyCompleted):
		c.JSON(http.StatusBadRequest, gin.H{"error": "mining period is completed for this rig"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/hashfarm"
)

type bankParams struct {
	AccountHolderName string `json:"accountHolderName" binding:"required"`
	AccountNumber     string `json:"accountNumber" binding:"required"`
	BankName          string `json:"bankName" binding:"required"`
	IfscCode          string `json:"ifscCode" binding:"required"`
}

func CreateBankDetails(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)
	var bParams bankParams
	if err := c.ShouldBindJSON(&bParams); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var existing hashfarm.Bank
	res := app.Db.Where("user_id = ?", userId).First(&existing)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user already has bank details"})
		return
	}
	bank := hashfarm.Bank{
		UserId:            userId,
		AccountHolderName: bParams.AccountHolderName,
		AccountNumber:     bParams.AccountNumber,
		BankName:          bParams.BankName,
		IfscCode:          bParams.IfscCode,
	}
	res = app.Db.Create(&bank)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "an error occurred while creating bank details"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "bank details created successfully", "data": bank})
}

func GetBankDetails(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	userId := c.MustGet("user_id").(uint)

	var bank hashfarm.Bank
	res := app.Db.Where("user_id = ?", userId).First(&bank)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusNotFound, gin.H{"error": "bank details not found for the user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "bank details retrieved successfully", "data": bank})
}

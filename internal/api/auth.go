package api

import (
	"fmt"
	"net/http"

	"github.com/dchest/uniuri"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hashfarm/internal/api/jwt"
	"hashfarm/internal/hashfarm"
)

type signupParams struct {
	Name         string `json:"name" binding:"required" validate:"required,max=100"`
	Email        string `json:"email" binding:"required" validate:"required,max=150"`
	Password     string `json:"password" binding:"required" validate:"required,max=100"`
	ReferralCode string `json:"referral_code" validate:"max=8"`
}

type loginParams struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup registers a user, links the upline when a referral code is supplied
// and replies with a jwt.
func Signup(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	var signupP signupParams
	if err := c.ShouldBindJSON(&signupP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var userDouble hashfarm.User
	res := app.Db.Where("email = ?", signupP.Email).First(&userDouble)
	if res.RowsAffected == 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
		return
	}
	upline := uint(0)
	if signupP.ReferralCode != "" {
		var referrer hashfarm.User
		res = app.Db.Where("ref_code NOT IN ('') AND ref_code = ?", signupP.ReferralCode).First(&referrer)
		if res.RowsAffected == 1 {
			upline = referrer.Id
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(signupP.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	user := hashfarm.User{
		Name:     signupP.Name,
		Email:    signupP.Email,
		Password: string(hash),
		Upline:   upline,
	}
	for {
		refNew := uniuri.NewLenChars(8, []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"))
		var double hashfarm.User
		res = app.Db.Where("ref_code = ?", refNew).First(&double)
		if res.RowsAffected == 1 {
			continue
		}
		user.RefCode = refNew
		break
	}
	res = app.Db.Create(&user)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if upline > 0 {
		app.Db.Model(&hashfarm.User{}).
			Where("id = ?", upline).
			UpdateColumn("ref_counter", gorm.Expr("ref_counter + 1"))
	}
	token, err := jwt.GenerateJWT(user.Id, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	msg := fmt.Sprintf(
		`NEW SIGNUP [User: %d]
Name: %s
Upline: %d`,
		user.Id,
		hashfarm.EscapeMarkdownV2(user.Name),
		upline,
	)
	fmt.Println(hashfarm.SendTelegramMessage(msg, "signup"))
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func Login(c *gin.Context) {
	app := c.MustGet("app").(*hashfarm.App)
	var loginP loginParams
	if err := c.ShouldBindJSON(&loginP); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var user hashfarm.User
	res := app.Db.Where("email = ?", loginP.Email).First(&user)
	if res.RowsAffected != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(loginP.Password)) != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
		return
	}
	token, err := jwt.GenerateJWT(user.Id, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

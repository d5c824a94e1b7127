package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashfarm/internal/api/jwt"
	"hashfarm/internal/hashfarm"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "jwt missing"})
			return
		}
		userId, email, err := jwt.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set("user_id", userId)
		c.Set("email", email)
		c.Next()
	}
}

// Admin gates admin routes. Must run after Auth and the app injector.
func Admin() gin.HandlerFunc {
	return func(c *gin.Context) {
		app := c.MustGet("app").(*hashfarm.App)
		userId := c.MustGet("user_id").(uint)
		var user hashfarm.User
		res := app.Db.Where("id = ?", userId).First(&user)
		if res.RowsAffected != 1 || !user.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Next()
	}
}

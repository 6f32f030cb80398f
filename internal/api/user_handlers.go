package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cogniverse/internal/auth"
	"cogniverse/internal/config"
	"cogniverse/internal/db"
	"cogniverse/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type LoginResponse struct {
	Token  string `json:"token"`
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

func LoginHandler(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// If no users exist, indicate need for setup
		var count int64
		if err := db.DB.Model(&user.User{}).Count(&count).Error; err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "DB error")
			return
		}
		if count == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "FORBIDDEN", "message": "Initial setup required", "need_setup": true}})
			return
		}
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request")
			return
		}
		var u user.User
		if err := db.DB.Where("email = ?", user.NormalizeEmail(req.Email)).First(&u).Error; err != nil {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
			return
		}
		if u.Blocked {
			errorJSON(c, http.StatusForbidden, "FORBIDDEN", "Account is blocked")
			return
		}
		if err := user.CheckPassword(u.PasswordHash, req.Password); err != nil {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password")
			return
		}
		token, err := auth.GenerateJWT(cfg.Server.JWTSecret, u.ID, u.Email, string(u.Role), 7*24*time.Hour)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to generate token")
			return
		}
		_ = auth.SetSession(rdb, u.ID, token, 7*24*time.Hour)
		c.JSON(http.StatusOK, LoginResponse{
			Token:  token,
			UserID: u.ID,
			Email:  u.Email,
			Role:   string(u.Role),
		})
	}
}

func LogoutHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, exists := c.Get("userId")
		if !exists {
			errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated")
			return
		}
		_ = auth.DeleteSession(rdb, userId.(uint))
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, _ := c.Get("userId")
		var u user.User
		if err := db.DB.First(&u, userId.(uint)).Error; err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "User not found")
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":          u.ID,
			"email":       u.Email,
			"role":        u.Role,
			"examGoal":    u.ExamGoal,
			"weeklyHours": u.WeeklyHours,
			"createdAt":   u.CreatedAt,
		})
	}
}

// OnlineUserCountHandler returns the number of unique online users.
func OnlineUserCountHandler(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := auth.OnlineUserCount(rdb)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Failed to count online users")
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": count})
	}
}

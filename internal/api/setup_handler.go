package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cogniverse/internal/db"
	"cogniverse/internal/user"
)

type SetupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SetupHandler bootstraps the first (admin) account. Once any user exists the
// endpoint is closed.
func SetupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var count int64
		if err := db.DB.Model(&user.User{}).Count(&count).Error; err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "DB error")
			return
		}
		if count != 0 {
			errorJSON(c, http.StatusForbidden, "FORBIDDEN", "Setup not allowed; users already exist")
			return
		}
		var req SetupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request")
			return
		}
		email := user.NormalizeEmail(req.Email)
		if email == "" || req.Password == "" {
			errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Email and password required")
			return
		}
		pwHash, err := user.HashPassword(req.Password)
		if err != nil {
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "Password hash failed")
			return
		}
		u := user.User{
			Email:        email,
			PasswordHash: pwHash,
			Role:         user.RoleAdmin,
		}
		if err := db.DB.Create(&u).Error; err != nil {
			if strings.Contains(err.Error(), "unique") {
				errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "Email already exists")
				return
			}
			errorJSON(c, http.StatusInternalServerError, "INTERNAL", "DB error")
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"id":             u.ID,
			"email":          u.Email,
			"role":           u.Role,
			"createdAt":      u.CreatedAt,
			"setup_complete": true,
		})
	}
}

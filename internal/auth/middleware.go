package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cogniverse/internal/config"
	"cogniverse/internal/user"
)

const AnonCookie = "cv_uid"

// AuthMiddleware requires a valid JWT backed by a live redis session.
func AuthMiddleware(cfg *config.Config, rdb *redis.Client, requireAdmin bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := bearerClaims(c, cfg, rdb)
		if !ok {
			return
		}
		attachClaims(c, claims)
		if requireAdmin && claims.Role != string(user.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": gin.H{"code": "FORBIDDEN", "message": "Admin only"}})
			return
		}
		c.Next()
	}
}

// IdentityMiddleware resolves a durable identity from a Bearer session when one
// is present, and otherwise falls back to the signed anonymous cookie, minting
// one if needed. It never rejects a request.
func IdentityMiddleware(cfg *config.Config, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
			if err == nil {
				sessionToken, serr := GetSession(rdb, claims.UserID)
				if serr == nil && sessionToken == tokenStr {
					_ = SetSession(rdb, claims.UserID, tokenStr, 30*time.Minute)
					attachClaims(c, claims)
					c.Set("identity", DurableIdentity(user.NormalizeEmail(claims.Email)))
					c.Next()
					return
				}
			}
		}

		if cookie, err := c.Cookie(AnonCookie); err == nil {
			if id, ok := VerifyAnonCookie(cfg.Server.JWTSecret, cookie); ok {
				c.Set("identity", Identity{ID: id, Ephemeral: true})
				c.Next()
				return
			}
		}

		ident := NewEphemeralIdentity()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(AnonCookie, SignAnonID(cfg.Server.JWTSecret, ident.ID), 365*24*3600, "/", "", false, true)
		c.Set("identity", ident)
		c.Next()
	}
}

// IdentityFromContext returns the identity set by IdentityMiddleware.
func IdentityFromContext(c *gin.Context) (Identity, bool) {
	v, ok := c.Get("identity")
	if !ok {
		return Identity{}, false
	}
	ident, ok := v.(Identity)
	return ident, ok
}

func bearerClaims(c *gin.Context, cfg *config.Config, rdb *redis.Client) (*Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Missing or invalid Authorization header"}})
		return nil, false
	}
	tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := ParseJWT(cfg.Server.JWTSecret, tokenStr)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Invalid or expired token"}})
		return nil, false
	}
	sessionToken, err := GetSession(rdb, claims.UserID)
	if err != nil || sessionToken != tokenStr {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "Session expired or invalid"}})
		return nil, false
	}
	// Enforce inactivity timeout (refresh expiry)
	_ = SetSession(rdb, claims.UserID, tokenStr, 30*time.Minute)
	return claims, true
}

func attachClaims(c *gin.Context, claims *Claims) {
	c.Set("userId", claims.UserID)
	c.Set("email", claims.Email)
	c.Set("userRole", claims.Role)
}

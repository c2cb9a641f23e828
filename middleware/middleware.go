package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

// Context keys set by the middleware in this package.
const (
	DBKey        = "db"
	UserIDKey    = "user_id"
	UserEmailKey = "user_email"
)

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH, PUT")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, session-token")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Content-Type", "application/json")

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware injects the gorm DB handle into the request context so
// handlers never reach for a package-level connection.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the DB handle placed in context by DatabaseMiddleware, or nil.
func GetDB(c *gin.Context) *gorm.DB {
	value, exists := c.Get(DBKey)
	if !exists {
		return nil
	}
	db, ok := value.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// ValidateLoginToken authenticates the request from the session-token header.
// On success the owning user's id and email are placed in the context; every
// downstream data operation takes that identity explicitly. A missing or
// expired token aborts with 401 so callers can distinguish "no session" from
// "zero records".
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionToken := c.GetHeader("session-token")
		if sessionToken == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Missing session token",
				Err: fmt.Errorf("no session"),
			})
			c.Abort()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		var result struct {
			UserID uint
			Email  string
		}
		err := db.Table("sessions").
			Select("sessions.user_id as user_id, users.email as email").
			Joins("JOIN users ON sessions.user_id = users.id").
			Where("session_token = ? AND expires_at > ? AND sessions.deleted_at IS NULL", sessionToken, time.Now()).
			First(&result).Error
		if err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Invalid or expired session token",
				Err: fmt.Errorf("session not found"),
			})
			c.Abort()
			return
		}

		c.Set(UserIDKey, result.UserID)
		c.Set(UserEmailKey, result.Email)
		c.Next()
	}
}

// GetUserID returns the authenticated user's id from context.
func GetUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

// GetUserEmail returns the authenticated user's email from context.
func GetUserEmail(c *gin.Context) (string, bool) {
	value, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	email, ok := value.(string)
	return email, ok
}

// GetSessionToken returns the raw session token carried by the request.
func GetSessionToken(c *gin.Context) string {
	return c.GetHeader("session-token")
}

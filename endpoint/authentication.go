package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/hamzawaheed/patient-registry/config"
	"github.com/hamzawaheed/patient-registry/middleware"
	"github.com/hamzawaheed/patient-registry/model"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

const sessionTTL = time.Hour

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ali@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token  string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	UserID uint   `json:"user_id" example:"1"`
	Email  string `json:"email" example:"ali@example.com"`
}

type clientInfo struct {
	IP    string
	Agent string
}

func loadUserByEmail(db *gorm.DB, email string) (model.User, error) {
	var user model.User
	err := db.Where("email = ?", email).First(&user).Error
	return user, err
}

func createJWTToken(user model.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     time.Now().Add(sessionTTL).Unix(),
	})
	return token.SignedString(util.GetJWTSecretByte())
}

func recordSession(db *gorm.DB, userID uint, token string, ci clientInfo, expires time.Time) (model.Session, error) {
	session := model.Session{
		SessionToken: token,
		UserID:       userID,
		ExpiresAt:    expires,
		ClientIP:     ci.IP,
		Browser:      ci.Agent,
	}
	err := db.Create(&session).Error
	return session, err
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email and password; returns a session token valid for one hour
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid email or password"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}

	user, err := loadUserByEmail(db, req.Email)
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "user not found")
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("user not found")})
		return
	}
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "database error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: fmt.Errorf("lookup failed")})
		return
	}

	match, err := util.VerifyPassword(req.Password, user.Password)
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "password verification error")
		util.CallServerError(c, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return
	}
	if !match {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "invalid password")
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid password")})
		return
	}

	tokenString, err := createJWTToken(user)
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "token generation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	session, err := recordSession(db, user.ID, tokenString, ci, time.Now().Add(sessionTTL))
	if err != nil {
		util.LogLoginFailure(req.Email, ci.IP, ci.Agent, "session creation failed")
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to record session", Err: fmt.Errorf("session insert failed")})
		return
	}

	// Mirror the session into Redis (best-effort).
	if rdb := config.GetRedisClient(); rdb != nil {
		exp := time.Until(session.ExpiresAt)
		_ = rdb.Set(context.Background(), fmt.Sprintf("session:%s", tokenString), fmt.Sprintf("%d", session.UserID), exp).Err()
		_ = util.AddSessionToUserSet(session.UserID, tokenString, exp)
	}

	util.LogLoginSuccess(user.ID, user.Email, ci.IP, ci.Agent)
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: tokenString, UserID: user.ID, Email: user.Email},
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Invalidate the current session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Logged out"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /logout [delete]
func Logout(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	userID, email, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	token := middleware.GetSessionToken(c)

	if err := db.Where("session_token = ?", token).Delete(&model.Session{}).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to invalidate session", Err: fmt.Errorf("session delete failed")})
		return
	}

	if rdb := config.GetRedisClient(); rdb != nil {
		_ = rdb.Del(context.Background(), fmt.Sprintf("session:%s", token)).Err()
		_ = util.RemoveSessionTokenFromUserSet(userID, token)
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventLogout,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "User logged out",
	})
	util.CallSuccessOK(c, util.APISuccessParams{Msg: "Logged out"})
}

package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/model"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

type createUserRequest struct {
	Name     string `json:"name" binding:"required" example:"Ali Khan"`
	Email    string `json:"email" binding:"required,email" example:"ali@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

func ensureEmailAvailable(c *gin.Context, db *gorm.DB, email string) bool {
	var existingUser model.User
	err := db.First(&existingUser, "email = ?", email).Error
	if err != gorm.ErrRecordNotFound {
		if err == nil {
			util.CallUserError(c, util.APIErrorParams{Msg: "Email already exists", Err: fmt.Errorf("email already exists")})
			return false
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Database error", Err: err})
		return false
	}
	return true
}

// CreateUser godoc
// @Summary      Sign up
// @Description  Register a new account with name, email, and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body createUserRequest true "Account information"
// @Success      200 {object} util.APIResponse "User created"
// @Failure      400 {object} util.APIResponse "Invalid request or email already exists"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /user [post]
func CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	if !ensureEmailAvailable(c, db, req.Email) {
		return
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to generate password salt", Err: err})
		return
	}
	hashed, err := util.HashPassword(req.Password, salt)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	user := model.User{
		Name:     util.NormalizeName(req.Name),
		Email:    req.Email,
		Password: hashed,
	}
	if err := db.Create(&user).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create new user", Err: fmt.Errorf("insert failed")})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventSignupSuccess,
		UserID:    fmt.Sprintf("%d", user.ID),
		Email:     user.Email,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
		Message:   "User signed up",
	})
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "User created",
		Data: map[string]interface{}{"user_id": user.ID, "email": user.Email},
	})
}

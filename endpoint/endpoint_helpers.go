package endpoint

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/middleware"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

// currentUserOrRespond returns the authenticated caller's identity, set by
// the auth middleware. Handlers never read session state ambiently; the
// identity flows from here into every data operation as a parameter.
func currentUserOrRespond(c *gin.Context) (uint, string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok || userID == 0 {
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Not authenticated", Err: fmt.Errorf("no session")})
		return 0, "", false
	}
	email, _ := middleware.GetUserEmail(c)
	return userID, email, true
}

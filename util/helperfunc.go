package util

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data"`
}

type APIErrorParams struct {
	Msg string
	Err error
}

type APISuccessParams struct {
	Msg  string
	Data interface{}
}

// Notification is the status/message pair consumed by the front end's toast
// surface. Status is one of success, danger, warning, info.
type Notification struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func Notify(status, message string) Notification {
	return Notification{Status: status, Message: message}
}

// Contains function is to check item whether is exist or not in a list and will return bool
func Contains(d string, dl []string) bool {
	for _, v := range dl {
		if v == d {
			return true
		}
	}
	return false
}

// CallErrorNotFound is for return API response not found
func CallErrorNotFound(c *gin.Context, params APIErrorParams) {
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
	}
	c.JSON(http.StatusNotFound, response)
}

// CallUserError is for return error from user side
func CallUserError(c *gin.Context, params APIErrorParams) {
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
	}
	c.JSON(http.StatusBadRequest, response)
}

// CallValidationError reports every failed field at once so the form can
// render all messages in a single round trip.
func CallValidationError(c *gin.Context, fieldErrors map[string]string) {
	response := APIResponse{
		Success: false,
		Error:   "validation failed",
		Msg:     "One or more fields are invalid",
		Data:    map[string]interface{}{"fields": fieldErrors},
	}
	c.JSON(http.StatusBadRequest, response)
}

// CallUserConflict is for return API response conflict, e.g. a CNIC already
// registered for the calling user
func CallUserConflict(c *gin.Context, params APIErrorParams) {
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
	}
	c.JSON(http.StatusConflict, response)
}

// CallServerError is for return API response server error
func CallServerError(c *gin.Context, params APIErrorParams) {
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
		Data:    map[string]interface{}{},
	}
	c.JSON(http.StatusInternalServerError, response)
}

// CallSuccessOK is for return API response with status code 200, you need to specify msg, and data as function parameter
func CallSuccessOK(c *gin.Context, params APISuccessParams) {
	response := APIResponse{
		Success: true,
		Error:   "",
		Msg:     params.Msg,
		Data:    params.Data,
	}
	c.JSON(http.StatusOK, response)
}

// CallUserNotAuthorized is for return API response with status code 401, you need to specify msg, and data as function paramenter
func CallUserNotAuthorized(c *gin.Context, params APIErrorParams) {
	response := APIResponse{
		Success: false,
		Error:   params.Err.Error(),
		Msg:     params.Msg,
	}
	c.JSON(http.StatusUnauthorized, response)
}

// NormalizeName normalizes a name by trimming leading/trailing whitespace
// and collapsing multiple internal spaces into single spaces.
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	return strings.Join(strings.Fields(name), " ")
}

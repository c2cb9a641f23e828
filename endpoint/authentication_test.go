package endpoint

import (
	"net/http"
	"testing"

	"github.com/hamzawaheed/patient-registry/model"
	"github.com/stretchr/testify/assert"
)

func TestSignupLoginAndAuthenticatedAccess(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)

	w := doRequest(r, requestParams{method: "POST", path: "/user", body: map[string]interface{}{
		"name":     "Ali Khan",
		"email":    "ali@example.com",
		"password": "password123",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("signup status = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, requestParams{method: "POST", path: "/login", body: map[string]interface{}{
		"email":    "ali@example.com",
		"password": "password123",
	}})
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeAPIResponse(t, w)
	data := resp.Data.(map[string]interface{})
	token, _ := data["token"].(string)
	assert.NotEmpty(t, token)

	// The issued token opens the protected surface.
	w = doRequest(r, requestParams{method: "GET", path: "/patient", token: token})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignup_DuplicateEmailRejected(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)

	body := map[string]interface{}{"name": "Ali Khan", "email": "ali@example.com", "password": "password123"}
	w := doRequest(r, requestParams{method: "POST", path: "/user", body: body})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, requestParams{method: "POST", path: "/user", body: body})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)

	doRequest(r, requestParams{method: "POST", path: "/user", body: map[string]interface{}{
		"name": "Ali Khan", "email": "ali@example.com", "password": "password123",
	}})

	w := doRequest(r, requestParams{method: "POST", path: "/login", body: map[string]interface{}{
		"email": "ali@example.com", "password": "wrong",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_UnknownUser(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)

	w := doRequest(r, requestParams{method: "POST", path: "/login", body: map[string]interface{}{
		"email": "ghost@example.com", "password": "password123",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token := seedUserWithSession(t, db, "u1@example.com")

	w := doRequest(r, requestParams{method: "DELETE", path: "/logout", token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d: %s", w.Code, w.Body.String())
	}

	// The invalidated token no longer opens the protected surface.
	w = doRequest(r, requestParams{method: "GET", path: "/patient", token: token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var count int64
	db.Model(&model.Session{}).Where("session_token = ?", token).Count(&count)
	assert.Zero(t, count)
}

package endpoint

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/hamzawaheed/patient-registry/model"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func validPatientBody() map[string]interface{} {
	return map[string]interface{}{
		"name":   "Ali Khan",
		"cnic":   "1234567890123",
		"dob":    "2000-01-01",
		"gender": "male",
	}
}

func createPatientForUser(t *testing.T, db *gorm.DB, userID uint, cnic string) model.Patient {
	t.Helper()
	patient := model.Patient{
		UserID: userID,
		Name:   "Ali Khan",
		CNIC:   cnic,
		DOB:    time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		Gender: "male",
	}
	if err := db.Create(&patient).Error; err != nil {
		t.Fatalf("failed to seed patient: %v", err)
	}
	return patient
}

func TestCreatePatient_AppearsInOwnList(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")

	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: validPatientBody(), token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	var stored model.Patient
	assert.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	assert.NotZero(t, stored.ID)
	assert.Equal(t, "Ali Khan", stored.Name)
	assert.Equal(t, "1234567890123", stored.CNIC)
	assert.Equal(t, "male", stored.Gender)
	assert.Nil(t, stored.UpdatedAt)

	w = doRequest(r, requestParams{method: "GET", path: "/patient", token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", w.Code, w.Body.String())
	}
	resp := decodeAPIResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, "u1@example.com", data["email"])
}

func TestCreatePatient_NormalizesDashedCNIC(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")

	body := validPatientBody()
	body["cnic"] = "12345-1234567-1"
	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: body, token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	var stored model.Patient
	assert.NoError(t, db.Where("user_id = ?", user.ID).First(&stored).Error)
	assert.Equal(t, "1234512345671", stored.CNIC)
}

func TestCreatePatient_DuplicateCNICSameUserConflicts(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")

	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: validPatientBody(), token: token})
	assert.Equal(t, http.StatusOK, w.Code)

	// Same CNIC for the same owner: rejected, no second row.
	body := validPatientBody()
	body["name"] = "Someone Else"
	w = doRequest(r, requestParams{method: "POST", path: "/patient", body: body, token: token})
	assert.Equal(t, http.StatusConflict, w.Code)

	var count int64
	db.Model(&model.Patient{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestCreatePatient_SameCNICDifferentUserAllowed(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token1 := seedUserWithSession(t, db, "u1@example.com")
	_, token2 := seedUserWithSession(t, db, "u2@example.com")

	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: validPatientBody(), token: token1})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, requestParams{method: "POST", path: "/patient", body: validPatientBody(), token: token2})
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	db.Model(&model.Patient{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestCreatePatient_ReportsEveryInvalidField(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token := seedUserWithSession(t, db, "u1@example.com")

	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: map[string]interface{}{}, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeAPIResponse(t, w)
	data := resp.Data.(map[string]interface{})
	fields := data["fields"].(map[string]interface{})
	for _, field := range []string{"name", "cnic", "dob", "gender"} {
		if _, ok := fields[field]; !ok {
			t.Errorf("expected a reported failure for field %q, got %v", field, fields)
		}
	}

	// Nothing was written.
	var count int64
	db.Model(&model.Patient{}).Count(&count)
	assert.Zero(t, count)
}

func TestCreatePatient_FutureDOBRejected(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token := seedUserWithSession(t, db, "u1@example.com")

	body := validPatientBody()
	body["dob"] = time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	w := doRequest(r, requestParams{method: "POST", path: "/patient", body: body, token: token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetPatientInfo_NotFoundForUnknownID(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token := seedUserWithSession(t, db, "u1@example.com")

	w := doRequest(r, requestParams{method: "GET", path: "/patient/9999", token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetPatientInfo_OtherUsersPatientIsNotFound(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	owner, _ := seedUserWithSession(t, db, "owner@example.com")
	_, intruderToken := seedUserWithSession(t, db, "intruder@example.com")

	patient := createPatientForUser(t, db, owner.ID, "1234567890123")

	w := doRequest(r, requestParams{method: "GET", path: fmt.Sprintf("/patient/%d", patient.ID), token: intruderToken})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdatePatient_SkipsWriteWhenUnchanged(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")
	patient := createPatientForUser(t, db, user.ID, "1234567890123")

	same := map[string]interface{}{"name": "Ali Khan", "dob": "2000-01-01", "gender": "male"}
	w := doRequest(r, requestParams{method: "PATCH", path: fmt.Sprintf("/patient/%d", patient.ID), body: same, token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", w.Code, w.Body.String())
	}

	var stored model.Patient
	assert.NoError(t, db.First(&stored, patient.ID).Error)
	assert.Nil(t, stored.UpdatedAt, "identical update must not stamp updated_at")

	// A real change stamps updated_at once.
	changed := map[string]interface{}{"name": "Ali Ahmed", "dob": "2000-01-01", "gender": "male"}
	w = doRequest(r, requestParams{method: "PATCH", path: fmt.Sprintf("/patient/%d", patient.ID), body: changed, token: token})
	assert.Equal(t, http.StatusOK, w.Code)

	assert.NoError(t, db.First(&stored, patient.ID).Error)
	if stored.UpdatedAt == nil {
		t.Fatal("expected updated_at after a real change")
	}
	firstStamp := *stored.UpdatedAt

	// Repeating the identical request leaves the stamp untouched.
	w = doRequest(r, requestParams{method: "PATCH", path: fmt.Sprintf("/patient/%d", patient.ID), body: changed, token: token})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, db.First(&stored, patient.ID).Error)
	assert.True(t, stored.UpdatedAt.Equal(firstStamp), "no-op repeat must not move updated_at")
}

func TestUpdatePatient_NeverTouchesCNIC(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")
	patient := createPatientForUser(t, db, user.ID, "1234567890123")

	body := map[string]interface{}{"name": "New Name", "dob": "1999-12-31", "gender": "female", "cnic": "9999999999999"}
	w := doRequest(r, requestParams{method: "PATCH", path: fmt.Sprintf("/patient/%d", patient.ID), body: body, token: token})
	assert.Equal(t, http.StatusOK, w.Code)

	var stored model.Patient
	assert.NoError(t, db.First(&stored, patient.ID).Error)
	assert.Equal(t, "1234567890123", stored.CNIC)
	assert.Equal(t, "New Name", stored.Name)
	assert.Equal(t, "female", stored.Gender)
}

func TestUpdatePatient_NotFound(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	_, token := seedUserWithSession(t, db, "u1@example.com")

	body := map[string]interface{}{"name": "Ali Khan", "dob": "2000-01-01", "gender": "male"}
	w := doRequest(r, requestParams{method: "PATCH", path: "/patient/424242", body: body, token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePatient_ThenGetReturnsNotFound(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)
	user, token := seedUserWithSession(t, db, "u1@example.com")
	patient := createPatientForUser(t, db, user.ID, "1234567890123")

	w := doRequest(r, requestParams{method: "DELETE", path: fmt.Sprintf("/patient/%d", patient.ID), token: token})
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(r, requestParams{method: "GET", path: fmt.Sprintf("/patient/%d", patient.ID), token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting again reports the same not-found failure shape.
	w = doRequest(r, requestParams{method: "DELETE", path: fmt.Sprintf("/patient/%d", patient.ID), token: token})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPatientEndpoints_RequireSession(t *testing.T) {
	db := newEndpointTestDB(t)
	r := newTestRouter(db)

	paths := []struct {
		method string
		path   string
	}{
		{"GET", "/patient"},
		{"POST", "/patient"},
		{"GET", "/patient/1"},
		{"PATCH", "/patient/1"},
		{"DELETE", "/patient/1"},
	}
	for _, p := range paths {
		w := doRequest(r, requestParams{method: p.method, path: p.path, body: map[string]interface{}{}})
		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s without session: status = %d, want 401", p.method, p.path, w.Code)
		}
	}
}

func TestListPatients_NewestFirst(t *testing.T) {
	db := newEndpointTestDB(t)
	user, _ := seedUserWithSession(t, db, "u1@example.com")

	older := model.Patient{UserID: user.ID, Name: "Older Patient", CNIC: "1111111111111",
		DOB: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC), Gender: "male", CreatedAt: time.Now().Add(-time.Hour)}
	assert.NoError(t, db.Create(&older).Error)
	newer := model.Patient{UserID: user.ID, Name: "Newer Patient", CNIC: "2222222222222",
		DOB: time.Date(1991, 1, 1, 0, 0, 0, 0, time.UTC), Gender: "female", CreatedAt: time.Now()}
	assert.NoError(t, db.Create(&newer).Error)

	patients, total, err := fetchPatientsForUser(db, user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Newer Patient", patients[0].Name)
	assert.Equal(t, "Older Patient", patients[1].Name)
}

func TestCnicExistsForUser_ScopedToOwner(t *testing.T) {
	db := newEndpointTestDB(t)
	u1, _ := seedUserWithSession(t, db, "u1@example.com")
	u2, _ := seedUserWithSession(t, db, "u2@example.com")
	createPatientForUser(t, db, u1.ID, "1234567890123")

	exists, err := cnicExistsForUser(db, u1.ID, "1234567890123")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = cnicExistsForUser(db, u2.ID, "1234567890123")
	assert.NoError(t, err)
	assert.False(t, exists)
}

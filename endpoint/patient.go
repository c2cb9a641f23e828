package endpoint

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/model"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

const dobLayout = "2006-01-02"

// fetchPatientsForUser returns every patient owned by the given user,
// newest-first by creation time, plus the owner's total count. An owner with
// no patients gets an empty slice, not an error.
func fetchPatientsForUser(db *gorm.DB, ownerID uint) ([]model.Patient, int64, error) {
	var patients []model.Patient
	err := db.Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}
	return patients, int64(len(patients)), nil
}

// cnicExistsForUser reports whether the owner already registered a patient
// with the given canonical CNIC. Scoped per owner: a different user holding
// the same CNIC does not count.
func cnicExistsForUser(db *gorm.DB, ownerID uint, cnicDigits string) (bool, error) {
	var count int64
	err := db.Model(&model.Patient{}).
		Where("user_id = ? AND cnic = ?", ownerID, cnicDigits).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// findPatientForUser fetches one patient by id, scoped to its owner.
// gorm.ErrRecordNotFound distinguishes "zero rows" from transport failures.
func findPatientForUser(db *gorm.DB, ownerID uint, patientID uint) (model.Patient, error) {
	var patient model.Patient
	err := db.Where("id = ? AND user_id = ?", patientID, ownerID).First(&patient).Error
	return patient, err
}

// patientChanged compares the requested values against the stored snapshot.
// The update path skips the write entirely when nothing differs, leaving
// updated_at untouched.
func patientChanged(existing model.Patient, name string, dob time.Time, gender string) bool {
	if existing.Name != name {
		return true
	}
	ey, em, ed := existing.DOB.Date()
	ny, nm, nd := dob.Date()
	if ey != ny || em != nm || ed != nd {
		return true
	}
	return existing.Gender != gender
}

func parsePatientID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	if raw == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient ID",
			Err: fmt.Errorf("patient ID is required"),
		})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid patient ID",
			Err: err,
		})
		return 0, false
	}
	return uint(id), true
}

// ListPatients godoc
// @Summary      List the caller's patients
// @Description  Get all patients owned by the authenticated user, newest first
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	ownerID, email, ok := currentUserOrRespond(c)
	if !ok {
		return
	}

	patients, total, err := fetchPatientsForUser(db, ownerID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: fmt.Errorf("unable to fetch patients"),
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patients retrieved",
		Data: map[string]interface{}{
			"email":    email,
			"total":    total,
			"patients": patients,
		},
	})
}

type createPatientRequest struct {
	Name   string `json:"name" example:"Ali Khan"`
	CNIC   string `json:"cnic" example:"12345-1234567-1"`
	DOB    string `json:"dob" example:"2000-01-01"`
	Gender string `json:"gender" example:"male"`
}

// CreatePatient godoc
// @Summary      Register a new patient
// @Description  Create a patient owned by the authenticated user. The CNIC is normalized to its 13-digit canonical form, must be unique among the caller's patients, and can never be changed afterwards.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body createPatientRequest true "Patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Validation failed"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      409 {object} util.APIResponse "CNIC already registered for this user"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	ownerID, _, ok := currentUserOrRespond(c)
	if !ok {
		return
	}

	cnic := util.NormalizeCNIC(req.CNIC)

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobLayout, req.DOB)
		if err != nil {
			util.CallValidationError(c, map[string]string{"dob": "date of birth must be in YYYY-MM-DD format"})
			return
		}
		dob = &parsed
	}

	// Every field is validated before any database call; all failures are
	// reported together.
	if fieldErrors := util.ValidatePatientFields(req.Name, cnic.Digits, dob, req.Gender); len(fieldErrors) > 0 {
		util.CallValidationError(c, fieldErrors)
		return
	}

	exists, err := cnicExistsForUser(db, ownerID, cnic.Digits)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Unable to save patient",
			Err: fmt.Errorf("failed to check existing patients"),
		})
		return
	}
	if exists {
		util.CallUserConflict(c, util.APIErrorParams{
			Msg: "This CNIC already exists for this user",
			Err: fmt.Errorf("cnic already registered"),
		})
		return
	}

	patient := model.Patient{
		UserID: ownerID,
		Name:   util.NormalizeName(req.Name),
		CNIC:   cnic.Digits,
		DOB:    *dob,
		Gender: req.Gender,
	}
	if err := db.Create(&patient).Error; err != nil {
		// Two concurrent submissions can both pass the existence check; the
		// composite (user_id, cnic) index rejects the loser, which surfaces
		// as the same conflict as the pre-check.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallUserConflict(c, util.APIErrorParams{
				Msg: "This CNIC already exists for this user",
				Err: fmt.Errorf("cnic already registered"),
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Unable to save patient",
			Err: fmt.Errorf("insert failed"),
		})
		return
	}

	util.LogPatientMutation(util.EventPatientCreated, ownerID, patient.ID, c.ClientIP())
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient saved successfully.",
		Data: map[string]interface{}{
			"patient":      patient,
			"notification": util.Notify("success", "Patient saved successfully."),
		},
	})
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Description  Get one of the caller's patients by ID
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	ownerID, _, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(c)
	if !ok {
		return
	}

	patient, err := findPatientForUser(db, ownerID, patientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: fmt.Errorf("no patient with id %d", patientID),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patient",
			Err: fmt.Errorf("lookup failed"),
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update name, date of birth, and gender of one of the caller's patients. CNIC cannot be changed. A request identical to the stored record performs no write.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Validation failed"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [patch]
func UpdatePatient(c *gin.Context) {
	var req model.UpdatePatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	ownerID, _, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(c)
	if !ok {
		return
	}

	existing, err := findPatientForUser(db, ownerID, patientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Patient not found",
			Err: fmt.Errorf("no patient with id %d", patientID),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save changes",
			Err: fmt.Errorf("lookup failed"),
		})
		return
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, parseErr := time.Parse(dobLayout, req.DOB)
		if parseErr != nil {
			util.CallValidationError(c, map[string]string{"dob": "date of birth must be in YYYY-MM-DD format"})
			return
		}
		dob = &parsed
	}

	fieldErrors := map[string]string{}
	if err := util.ValidateName(req.Name); err != nil {
		fieldErrors["name"] = err.Error()
	}
	if err := util.ValidateDOB(dob); err != nil {
		fieldErrors["dob"] = err.Error()
	}
	if err := util.ValidateGender(req.Gender, util.PatientGenders); err != nil {
		fieldErrors["gender"] = err.Error()
	}
	if len(fieldErrors) > 0 {
		util.CallValidationError(c, fieldErrors)
		return
	}

	name := util.NormalizeName(req.Name)
	if !patientChanged(existing, name, *dob, req.Gender) {
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg: "No changes to save",
			Data: map[string]interface{}{
				"patient":      existing,
				"notification": util.Notify("info", "No changes to save"),
			},
		})
		return
	}

	now := time.Now()
	updates := map[string]interface{}{
		"name":       name,
		"dob":        *dob,
		"gender":     req.Gender,
		"updated_at": now,
	}
	if err := db.Model(&model.Patient{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save changes",
			Err: fmt.Errorf("update failed"),
		})
		return
	}

	existing.Name = name
	existing.DOB = *dob
	existing.Gender = req.Gender
	existing.UpdatedAt = &now

	util.LogPatientMutation(util.EventPatientUpdated, ownerID, existing.ID, c.ClientIP())
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Changes saved successfully.",
		Data: map[string]interface{}{
			"patient":      existing,
			"notification": util.Notify("success", "Changes saved successfully."),
		},
	})
}

// DeletePatient godoc
// @Summary      Delete a patient
// @Description  Permanently delete one of the caller's patients. The record disappears from all subsequent reads.
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse "Patient deleted"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patient/{id} [delete]
func DeletePatient(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	ownerID, _, ok := currentUserOrRespond(c)
	if !ok {
		return
	}
	patientID, ok := parsePatientID(c)
	if !ok {
		return
	}

	patient, err := findPatientForUser(db, ownerID, patientID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.CallErrorNotFound(c, util.APIErrorParams{
			Msg: "Failed to delete patient.",
			Err: fmt.Errorf("no patient with id %d", patientID),
		})
		return
	}
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient.",
			Err: fmt.Errorf("lookup failed"),
		})
		return
	}

	if err := db.Delete(&patient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete patient.",
			Err: fmt.Errorf("delete failed"),
		})
		return
	}

	util.LogPatientMutation(util.EventPatientDeleted, ownerID, patient.ID, c.ClientIP())
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Patient deleted successfully",
		Data: map[string]interface{}{
			"notification": util.Notify("success", "Patient deleted successfully"),
		},
	})
}

package endpoint

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamzawaheed/patient-registry/model"
	"github.com/hamzawaheed/patient-registry/util"
	"gorm.io/gorm"
)

// loadProfile fetches the caller's profile row. A missing row is not an
// error: it signals "profile not yet created", which is what switches the
// save path between insert and update.
func loadProfile(db *gorm.DB, userID uint) (*model.Profile, error) {
	var profile model.Profile
	err := db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile godoc
// @Summary      Get the caller's profile
// @Description  Load the authenticated user's profile. A user who has never saved a profile gets exists=false, not an error.
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Profile retrieved"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [get]
func GetProfile(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	userID, email, ok := currentUserOrRespond(c)
	if !ok {
		return
	}

	profile, err := loadProfile(db, userID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to load profile",
			Err: fmt.Errorf("profile lookup failed"),
		})
		return
	}

	data := map[string]interface{}{
		"email":   email,
		"exists":  profile != nil,
		"profile": profile,
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Profile retrieved",
		Data: data,
	})
}

type saveProfileRequest struct {
	FullName string `json:"full_name" example:"Ali Khan"`
	Phone    string `json:"phone" example:"03001234567"`
	Gender   string `json:"gender" example:"male"`
	DOB      string `json:"dob" example:"1990-05-20"`
	CNIC     string `json:"cnic" example:"12345-1234567-1"`
}

func validateProfileFields(req saveProfileRequest, dob *time.Time, requireCNIC bool, cnicDigits string) map[string]string {
	errs := map[string]string{}
	if err := util.ValidateName(req.FullName); err != nil {
		errs["full_name"] = err.Error()
	}
	if req.Gender != "" {
		if err := util.ValidateGender(req.Gender, util.ProfileGenders); err != nil {
			errs["gender"] = err.Error()
		}
	}
	if dob != nil {
		if err := util.ValidateDOB(dob); err != nil {
			errs["dob"] = err.Error()
		}
	}
	if requireCNIC {
		if err := util.ValidateCNIC(cnicDigits); err != nil {
			errs["cnic"] = err.Error()
		}
	}
	return errs
}

// SaveProfile godoc
// @Summary      Create or update the caller's profile
// @Description  Saves the authenticated user's profile. The branch between insert and update is re-decided on every call from the row's existence: the first save accepts a CNIC and copies the session identity's email; every later save updates the mutable fields only and never touches the CNIC.
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Param        request body saveProfileRequest true "Profile fields"
// @Success      200 {object} util.APIResponse{data=model.Profile} "Profile saved"
// @Failure      400 {object} util.APIResponse "Validation failed"
// @Failure      401 {object} util.APIResponse "Unauthorized"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /profile [put]
func SaveProfile(c *gin.Context) {
	var req saveProfileRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}
	userID, email, ok := currentUserOrRespond(c)
	if !ok {
		return
	}

	var dob *time.Time
	if req.DOB != "" {
		parsed, err := time.Parse(dobLayout, req.DOB)
		if err != nil {
			util.CallValidationError(c, map[string]string{"dob": "date of birth must be in YYYY-MM-DD format"})
			return
		}
		dob = &parsed
	}

	// Existence is re-checked on every save; it is the only gate keeping
	// the CNIC immutable once set.
	existing, err := loadProfile(db, userID)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save profile",
			Err: fmt.Errorf("profile lookup failed"),
		})
		return
	}

	cnic := util.NormalizeCNIC(req.CNIC)
	fieldErrors := validateProfileFields(req, dob, existing == nil, cnic.Digits)
	if len(fieldErrors) > 0 {
		util.CallValidationError(c, fieldErrors)
		return
	}

	fullName := util.NormalizeName(req.FullName)
	now := time.Now()

	if existing != nil {
		updates := map[string]interface{}{
			"full_name":  fullName,
			"phone":      req.Phone,
			"gender":     req.Gender,
			"dob":        dob,
			"updated_at": now,
		}
		if err := db.Model(&model.Profile{}).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Failed to save profile",
				Err: fmt.Errorf("update failed"),
			})
			return
		}

		existing.FullName = fullName
		existing.Phone = req.Phone
		existing.Gender = req.Gender
		existing.DOB = dob
		existing.UpdatedAt = now

		util.LogAuditEvent(util.AuditEvent{
			EventType: util.EventProfileSaved,
			UserID:    fmt.Sprintf("%d", userID),
			Email:     email,
			IP:        c.ClientIP(),
			Message:   "Profile updated",
		})
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg: "Profile updated successfully",
			Data: map[string]interface{}{
				"profile":      existing,
				"notification": util.Notify("success", "Profile updated successfully"),
			},
		})
		return
	}

	profile := model.Profile{
		UserID:   userID,
		Email:    email,
		FullName: fullName,
		Phone:    req.Phone,
		Gender:   req.Gender,
		DOB:      dob,
		CNIC:     cnic.Digits,
	}
	if err := db.Create(&profile).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to save profile",
			Err: fmt.Errorf("insert failed"),
		})
		return
	}

	util.LogAuditEvent(util.AuditEvent{
		EventType: util.EventProfileSaved,
		UserID:    fmt.Sprintf("%d", userID),
		Email:     email,
		IP:        c.ClientIP(),
		Message:   "Profile created",
	})
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Profile created successfully",
		Data: map[string]interface{}{
			"profile":      profile,
			"notification": util.Notify("success", "Profile created successfully"),
		},
	})
}

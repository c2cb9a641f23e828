package util

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Gender domains. Patient records accept male/female; profiles additionally
// accept other.
var (
	PatientGenders = []string{"male", "female"}
	ProfileGenders = []string{"male", "female", "other"}
)

// ValidateName checks a patient or profile name: required, at least 3
// characters after trimming, letters and spaces only.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(trimmed)) < 3 {
		return fmt.Errorf("name must be at least 3 characters")
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return fmt.Errorf("only letters and spaces allowed")
		}
	}
	return nil
}

// ValidateDOB checks a date of birth. A nil date is a missing value and a
// date strictly after the current moment is rejected.
func ValidateDOB(dob *time.Time) error {
	if dob == nil {
		return fmt.Errorf("date of birth is required")
	}
	if dob.After(time.Now()) {
		return fmt.Errorf("date of birth cannot be in the future")
	}
	return nil
}

// ValidateGender checks a gender value against the allowed domain.
func ValidateGender(gender string, allowed []string) error {
	if gender == "" {
		return fmt.Errorf("gender is required")
	}
	if !Contains(gender, allowed) {
		return fmt.Errorf("gender must be one of: %s", strings.Join(allowed, ", "))
	}
	return nil
}

// ValidatePatientFields runs every field validator and collects all failures
// keyed by field name. An empty map means the submission may proceed; a
// non-empty map must block it before any database call is made.
func ValidatePatientFields(name, cnicDigits string, dob *time.Time, gender string) map[string]string {
	errs := map[string]string{}
	if err := ValidateName(name); err != nil {
		errs["name"] = err.Error()
	}
	if err := ValidateCNIC(cnicDigits); err != nil {
		errs["cnic"] = err.Error()
	}
	if err := ValidateDOB(dob); err != nil {
		errs["dob"] = err.Error()
	}
	if err := ValidateGender(gender, PatientGenders); err != nil {
		errs["gender"] = err.Error()
	}
	return errs
}

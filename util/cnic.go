package util

import (
	"fmt"
	"strings"
)

// CNICLength is the number of digits in a canonical CNIC.
const CNICLength = 13

// CNIC holds both representations of a national identity number: the
// canonical digits-only form that is stored, and the progressively dashed
// display form shown in form inputs.
type CNIC struct {
	Digits  string `json:"digits"`
	Display string `json:"display"`
}

// NormalizeCNIC strips every non-digit character from raw, truncates the
// result to 13 digits, and derives the dashed display form:
// "XXXXX" up to 5 digits, "XXXXX-XXXXXXX" up to 12, "XXXXX-XXXXXXX-X" at 13.
// Calling it again on its own Digits output returns the same value.
func NormalizeCNIC(raw string) CNIC {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
		if b.Len() == CNICLength {
			break
		}
	}
	digits := b.String()

	display := digits
	if len(digits) > 5 {
		display = digits[:5] + "-" + digits[5:]
	}
	if len(digits) > 12 {
		display = digits[:5] + "-" + digits[5:12] + "-" + digits[12:]
	}

	return CNIC{Digits: digits, Display: display}
}

// ValidateCNIC checks a canonical CNIC value. The empty string is a missing
// value; anything that is not exactly 13 decimal digits is a format error.
func ValidateCNIC(digits string) error {
	if digits == "" {
		return fmt.Errorf("CNIC is required")
	}
	if len(digits) != CNICLength {
		return fmt.Errorf("CNIC must be exactly 13 digits")
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return fmt.Errorf("CNIC must be exactly 13 digits")
		}
	}
	return nil
}

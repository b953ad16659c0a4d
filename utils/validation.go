package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate    = validator.New()
	mobilePhone = regexp.MustCompile(`^09\d{9}$`)
	rentPeriod  = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	taxQuarter  = regexp.MustCompile(`^Q[1-4]$`)
	numericCode = regexp.MustCompile(`^\d{6}$`)
)

// ValidateRequired checks if a string field is not empty
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fmt.Sprintf("%s is required", fieldName))
	}
	return nil
}

// ValidatePhone accepts national mobile numbers in 09XXXXXXXXX form
func ValidatePhone(phone string) error {
	if !mobilePhone.MatchString(strings.TrimSpace(phone)) {
		return NewValidationError("Invalid phone number, use the 09XXXXXXXXX format")
	}
	return nil
}

// ValidateEmail checks standard email syntax
func ValidateEmail(email string) error {
	if err := validate.Var(strings.TrimSpace(email), "required,email"); err != nil {
		return NewValidationError("Invalid email address")
	}
	return nil
}

// ValidateCodeFormat checks a submitted one-time code is six digits
func ValidateCodeFormat(code string) error {
	if !numericCode.MatchString(strings.TrimSpace(code)) {
		return NewValidationError("Verification code must be 6 digits")
	}
	return nil
}

// ValidateRentPeriod accepts "all" or YYYY-MM
func ValidateRentPeriod(period string) error {
	if period == "all" || rentPeriod.MatchString(period) {
		return nil
	}
	return NewValidationError("period must be 'all' or YYYY-MM")
}

// ValidateQuarter accepts "all" or Q1..Q4
func ValidateQuarter(period string) error {
	if period == "all" || taxQuarter.MatchString(period) {
		return nil
	}
	return NewValidationError("period must be 'all' or Q1-Q4")
}

// ValidateNonNegative checks if an amount is non-negative
func ValidateNonNegative(value decimal.Decimal, fieldName string) error {
	if value.IsNegative() {
		return NewValidationError(fmt.Sprintf("%s cannot be negative", fieldName))
	}
	return nil
}

// ValidatePositive checks if an amount is positive
func ValidatePositive(value decimal.Decimal, fieldName string) error {
	if !value.IsPositive() {
		return NewValidationError(fmt.Sprintf("%s must be positive", fieldName))
	}
	return nil
}

// Paginate clamps page and per-page and returns the offset
func Paginate(page, perPage int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage, (page - 1) * perPage
}

package utils

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone("09171234567"))
	assert.NoError(t, ValidatePhone(" 09171234567 "))
	for _, bad := range []string{"", "9171234567", "0917123456", "+639171234567", "0917-123-4567"} {
		assert.Error(t, ValidatePhone(bad), bad)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("juan@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("juan@"))
}

func TestValidatePeriods(t *testing.T) {
	assert.NoError(t, ValidateRentPeriod("all"))
	assert.NoError(t, ValidateRentPeriod("2025-12"))
	assert.Error(t, ValidateRentPeriod("2025-13"))
	assert.Error(t, ValidateRentPeriod("Q1"))

	assert.NoError(t, ValidateQuarter("all"))
	assert.NoError(t, ValidateQuarter("Q4"))
	assert.Error(t, ValidateQuarter("Q0"))
	assert.Error(t, ValidateQuarter("2025-01"))
}

func TestValidateCodeFormat(t *testing.T) {
	assert.NoError(t, ValidateCodeFormat("012345"))
	assert.Error(t, ValidateCodeFormat("12345"))
	assert.Error(t, ValidateCodeFormat("abcdef"))
}

func TestValidateAmounts(t *testing.T) {
	assert.NoError(t, ValidateNonNegative(decimal.Zero, "discounts"))
	assert.Error(t, ValidateNonNegative(decimal.NewFromInt(-1), "discounts"))
	assert.NoError(t, ValidatePositive(decimal.NewFromInt(1), "amount_paid"))
	assert.Error(t, ValidatePositive(decimal.Zero, "amount_paid"))
}

func TestPaginate(t *testing.T) {
	page, perPage, offset := Paginate(0, 0)
	assert.Equal(t, []int{1, DefaultPerPage, 0}, []int{page, perPage, offset})

	page, perPage, offset = Paginate(3, 500)
	assert.Equal(t, []int{3, MaxPerPage, 200}, []int{page, perPage, offset})
}

func TestAppErrorHelpers(t *testing.T) {
	err := NewTransientError("Failed to store data", errors.New("connection reset"))
	assert.Equal(t, http.StatusInternalServerError, err.Status)
	assert.True(t, IsCode(err, CodeTransient))
	assert.False(t, IsCode(errors.New("plain"), CodeTransient))
	assert.Equal(t, "Payment not found", NewNotFoundError("Payment").Message)
	assert.Equal(t, http.StatusTooManyRequests, NewRateLimitedError("slow down").Status)
}

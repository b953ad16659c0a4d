package services

import (
	"context"
	"testing"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/testutil"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_CollectionsWorkbook(t *testing.T) {
	store := testutil.NewMemStore()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	store.AddPaymentRecord(models.PaymentRecord{
		ReferenceNumber: "GCASH-20250310090000-1234", SubjectKind: models.SubjectApplicationFee,
		SubjectKey: "application_fee:10", Amount: decimal.NewFromInt(11600), Method: models.MethodGCash,
		PaidAt: day.Add(9 * time.Hour),
	})
	store.AddPaymentRecord(models.PaymentRecord{
		ReferenceNumber: "MAYA-20250310100000-5678", SubjectKind: models.SubjectMonthlyRent,
		SubjectKey: "monthly_rent:20:all", Amount: decimal.NewFromInt(1040), Method: models.MethodMaya,
		Periods: []string{"2025-01", "2025-02"}, PaidAt: day.Add(10 * time.Hour),
	})
	store.AddPaymentRecord(models.PaymentRecord{
		ReferenceNumber: "OTC-20250311100000-0001", SubjectKind: models.SubjectMonthlyRent,
		Amount: decimal.NewFromInt(500), PaidAt: day.Add(30 * time.Hour),
	})

	svc := NewReportService(store)
	f, filename, err := svc.CollectionsWorkbook(context.Background(), day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "Collections_2025-03-10_2025-03-11.xlsx", filename)
	assert.Equal(t, []string{"Collections", "Summary"}, f.GetSheetList())

	ref, err := f.GetCellValue("Collections", "A3")
	require.NoError(t, err)
	assert.Equal(t, "MAYA-20250310100000-5678", ref)

	periods, _ := f.GetCellValue("Collections", "F3")
	assert.Equal(t, "2025-01, 2025-02", periods)

	label, _ := f.GetCellValue("Collections", "F4")
	total, _ := f.GetCellValue("Collections", "G4")
	assert.Equal(t, "Total", label)
	assert.Equal(t, "12640", total)

	kind, _ := f.GetCellValue("Summary", "A2")
	assert.Equal(t, "application_fee", kind)
}

func TestReportService_RejectsEmptyRange(t *testing.T) {
	svc := NewReportService(testutil.NewMemStore())
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	_, _, err := svc.CollectionsWorkbook(context.Background(), day, day)
	assertCode(t, err, utils.CodeValidation)
}

func TestSummarizeByKind(t *testing.T) {
	totals := SummarizeByKind([]models.PaymentRecord{
		{SubjectKind: models.SubjectQuarterlyTax, Amount: decimal.NewFromInt(1000)},
		{SubjectKind: models.SubjectMonthlyRent, Amount: decimal.NewFromInt(500)},
		{SubjectKind: models.SubjectQuarterlyTax, Amount: decimal.NewFromInt(1050)},
	})
	require.Len(t, totals, 2)
	assert.Equal(t, models.SubjectMonthlyRent, totals[0].Kind)
	assert.Equal(t, 2, totals[1].Count)
	assert.Equal(t, "2050", totals[1].Total.String())
}

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

const (
	assessorID int64 = 7
	businessID int64 = 40
	ownerID    int64 = 41
)

func newAssessmentFixture(t *testing.T) (*AssessmentService, *testutil.MemStore) {
	t.Helper()
	store := testutil.NewMemStore()
	store.AddBusiness(models.Business{ID: businessID, OwnerUserID: ownerID, BusinessName: "Sari-Sari Store"})
	svc := NewAssessmentService(store)
	svc.now = func() time.Time { return time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC) }
	return svc, store
}

func saveRequest() models.SaveAssessmentRequest {
	return models.SaveAssessmentRequest{
		BusinessID: businessID,
		Year:       2025,
		GrossSales: decimal.NewFromInt(500000),
		TaxAmount:  decimal.NewFromInt(3000),
		Fees: []models.AssessmentItem{
			{FeeName: "Mayor's permit", Amount: decimal.NewFromInt(500)},
			{FeeName: "Garbage fee", Amount: decimal.NewFromInt(200)},
		},
		Discounts: decimal.NewFromInt(100),
		Penalties: decimal.NewFromInt(50),
	}
}

func TestAssessmentService_SaveUpsertsByBusinessYear(t *testing.T) {
	svc, store := newAssessmentFixture(t)
	ctx := context.Background()

	created, err := svc.Save(ctx, assessorID, saveRequest())
	require.NoError(t, err)
	assert.Equal(t, "3650", created.TotalDue.String())
	assert.Equal(t, models.AssessmentAssessed, created.Status)
	assert.Equal(t, assessorID, created.AssessorID)
	assert.Len(t, created.Items, 2)

	req := saveRequest()
	req.Fees = req.Fees[:1]
	updated, err := svc.Save(ctx, assessorID, req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "3450", updated.TotalDue.String())
	assert.Len(t, store.Assessment(created.ID).Items, 1)

	logs := store.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, "assessment_created", logs[0].Action)
	assert.Equal(t, "assessment_updated", logs[1].Action)
}

func TestAssessmentService_SaveValidation(t *testing.T) {
	svc, _ := newAssessmentFixture(t)
	ctx := context.Background()

	req := saveRequest()
	req.TaxAmount = decimal.NewFromInt(-1)
	_, err := svc.Save(ctx, assessorID, req)
	assertCode(t, err, utils.CodeValidation)

	req = saveRequest()
	req.Fees = append(req.Fees, models.AssessmentItem{FeeName: " ", Amount: decimal.NewFromInt(10)})
	_, err = svc.Save(ctx, assessorID, req)
	assertCode(t, err, utils.CodeValidation)

	req = saveRequest()
	req.BusinessID = 999
	_, err = svc.Save(ctx, assessorID, req)
	assertCode(t, err, utils.CodeNotFound)
}

func TestAssessmentService_MarkPaid(t *testing.T) {
	svc, store := newAssessmentFixture(t)
	ctx := context.Background()
	a, err := svc.Save(ctx, assessorID, saveRequest())
	require.NoError(t, err)

	partial, err := svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{
		AssessmentID: a.ID, AmountPaid: decimal.NewFromInt(2000), ORNumber: "OR-0001", PaymentMethod: "cash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentAssessed, partial.Status)
	assert.Equal(t, "1650", partial.PaymentInfo.Balance.String())

	_, err = svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{
		AssessmentID: a.ID, AmountPaid: decimal.NewFromInt(1650), ORNumber: "OR-0001", PaymentMethod: "cash",
	})
	assertCode(t, err, utils.CodeConflict)

	full, err := svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{
		AssessmentID: a.ID, AmountPaid: decimal.NewFromInt(1650), ORNumber: "OR-0002", PaymentMethod: "gcash",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssessmentPaid, full.Status)
	assert.Equal(t, 2, full.PaymentInfo.PaymentCount)
	assert.True(t, full.PaymentInfo.Balance.IsZero())
	assert.Equal(t, models.AssessmentPaid, store.Assessment(a.ID).Status)

	_, err = svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{
		AssessmentID: a.ID, AmountPaid: decimal.NewFromInt(1), ORNumber: "OR-0003", PaymentMethod: "cash",
	})
	assertCode(t, err, utils.CodeConflict)

	// a paid assessment is frozen
	_, err = svc.Save(ctx, assessorID, saveRequest())
	assertCode(t, err, utils.CodeConflict)

	notes := store.Notifications()
	require.Len(t, notes, 2)
	assert.Equal(t, ownerID, notes[1].UserID)
	assert.Contains(t, notes[1].Message, "fully paid")
	assert.Len(t, store.BusinessPayments(), 2)
}

func TestAssessmentService_MarkPaidValidation(t *testing.T) {
	svc, _ := newAssessmentFixture(t)
	ctx := context.Background()

	_, err := svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{AssessmentID: 1, AmountPaid: decimal.Zero, ORNumber: "OR-1"})
	assertCode(t, err, utils.CodeValidation)

	_, err = svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{AssessmentID: 1, AmountPaid: decimal.NewFromInt(5), ORNumber: "  "})
	assertCode(t, err, utils.CodeValidation)

	_, err = svc.MarkPaid(ctx, assessorID, models.MarkPaidRequest{AssessmentID: 404, AmountPaid: decimal.NewFromInt(5), ORNumber: "OR-1"})
	assertCode(t, err, utils.CodeNotFound)
}

func TestAssessmentService_ListPaginates(t *testing.T) {
	svc, store := newAssessmentFixture(t)
	store.AddBusiness(models.Business{ID: businessID + 1, OwnerUserID: ownerID, BusinessName: "Carinderia"})
	ctx := context.Background()

	for year := 2021; year <= 2025; year++ {
		req := saveRequest()
		req.Year = year
		_, err := svc.Save(ctx, assessorID, req)
		require.NoError(t, err)
	}
	other := saveRequest()
	other.BusinessID = businessID + 1
	_, err := svc.Save(ctx, assessorID, other)
	require.NoError(t, err)

	page, err := svc.List(ctx, models.AssessmentFilter{BusinessID: businessID, Page: 2, PerPage: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Assessments, 2)
	assert.Equal(t, 2023, page.Assessments[0].Year)
	assert.Len(t, page.Assessments[0].Items, 2)
	require.NotNil(t, page.Assessments[0].PaymentInfo)

	empty, err := svc.List(ctx, models.AssessmentFilter{Status: models.AssessmentPaid})
	require.NoError(t, err)
	assert.Equal(t, utils.DefaultPerPage, empty.PerPage)
	assert.NotNil(t, empty.Assessments)
	assert.Empty(t, empty.Assessments)
}

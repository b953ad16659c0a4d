package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepos(t *testing.T) (*Repositories, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewRepositories(db), mock
}

func paymentRecord(periods []string) *models.PaymentRecord {
	return &models.PaymentRecord{
		ReferenceNumber: "GCASH-20250310090000-1234",
		SubjectKind:     models.SubjectApplicationFee,
		SubjectKey:      "application_fee:10",
		UserID:          1,
		Amount:          decimal.NewFromInt(11600),
		Method:          models.MethodGCash,
		Phone:           "09171234567",
		Email:           "juan@example.com",
		Periods:         periods,
		Description:     "Stall A-12 application fee",
		PaidAt:          time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

// insertRecordArgs matches every bound column except periods loosely
func insertRecordArgs(periods string) []driver.Value {
	anyArg := sqlmock.AnyArg()
	return []driver.Value{anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, anyArg, periods, anyArg, anyArg}
}

func TestPaymentRecordRepo_InsertBindsEmptyPeriods(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payment_records")).
		WithArgs(insertRecordArgs("{}")...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	rec := paymentRecord(nil)
	require.NoError(t, repos.Payments.Insert(context.Background(), rec))
	assert.Equal(t, int64(7), rec.ID)
}

func TestPaymentRecordRepo_InsertBindsPeriods(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payment_records")).
		WithArgs(insertRecordArgs(`{"2025-01","2025-02"}`)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(8)))

	require.NoError(t, repos.Payments.Insert(context.Background(), paymentRecord([]string{"2025-01", "2025-02"})))
}

func TestPaymentRecordRepo_InsertDuplicateReference(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (reference_number) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repos.Payments.Insert(context.Background(), paymentRecord(nil))
	assert.ErrorIs(t, err, ErrDuplicateReference)
}

func TestPaymentRecordRepo_InsertWrapsOtherErrors(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payment_records")).
		WillReturnError(sql.ErrConnDone)

	err := repos.Payments.Insert(context.Background(), paymentRecord(nil))
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.False(t, errors.Is(err, ErrDuplicateReference))
}

func TestRentRepo_ListOpen(t *testing.T) {
	repos, mock := newMockRepos(t)
	due := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("($2 = 'all' OR month = $2)")+".*FOR UPDATE").
		WithArgs(int64(20), "all").
		WillReturnRows(sqlmock.NewRows([]string{"id", "renter_id", "month", "due_date", "amount", "late_fee", "status"}).
			AddRow(int64(1), int64(20), "2025-01", due, "500.00", "0.00", "pending").
			AddRow(int64(2), int64(20), "2025-02", due.AddDate(0, 1, 0), "520.00", "20.00", "overdue"))

	months, err := repos.Rent.ListOpen(context.Background(), 20, "all", true)
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, "2025-01", months[0].Month)
	assert.True(t, months[1].LateFee.Equal(decimal.NewFromInt(20)))
}

func TestRentRepo_ListOpenSingleMonthWithoutLock(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY month ASC")+"$").
		WithArgs(int64(20), "2025-02").
		WillReturnRows(sqlmock.NewRows([]string{"id", "renter_id", "month", "due_date", "amount", "late_fee", "status"}))

	months, err := repos.Rent.ListOpen(context.Background(), 20, "2025-02", false)
	require.NoError(t, err)
	assert.Empty(t, months)
}

func TestRentRepo_MarkPaidReturnsAffectedRows(t *testing.T) {
	repos, mock := newMockRepos(t)
	paidAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE monthly_payments")).
		WithArgs("GCASH-20250310090000-1234", paidAt, int64(20), "all").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repos.Rent.MarkPaid(context.Background(), 20, "all", "GCASH-20250310090000-1234", paidAt)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestApplicationRepo_TransitionStatus(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $2 AND status = ANY($3)")).
		WithArgs(models.ApplicationPaid, int64(10), `{"approved","payment_phase"}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $2 AND status = ANY($3)")).
		WithArgs(models.ApplicationPaid, int64(10), `{"approved"}`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ctx := context.Background()
	moved, err := repos.Applications.TransitionStatus(ctx, 10, models.ApplicationPaid, "approved", "payment_phase")
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repos.Applications.TransitionStatus(ctx, 10, models.ApplicationPaid, "approved")
	require.NoError(t, err)
	assert.False(t, moved)
}

func businessPayment() *models.BusinessPayment {
	return &models.BusinessPayment{
		AssessmentID:  3,
		AmountPaid:    decimal.NewFromInt(3500),
		ORNumber:      "OR-0001",
		PaymentMethod: "cash",
		ReceivedBy:    9,
		PaidAt:        time.Date(2025, 1, 20, 8, 0, 0, 0, time.UTC),
	}
}

func TestAssessmentRepo_InsertPayment(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	p := businessPayment()
	require.NoError(t, repos.Assessments.InsertPayment(context.Background(), p))
	assert.Equal(t, int64(11), p.ID)
}

func TestAssessmentRepo_InsertPaymentDuplicateOR(t *testing.T) {
	repos, mock := newMockRepos(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "payments_or_number_key"})
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO payments")).
		WillReturnError(&pq.Error{Code: "23503"})

	ctx := context.Background()
	assert.ErrorIs(t, repos.Assessments.InsertPayment(ctx, businessPayment()), ErrDuplicateORNumber)

	err := repos.Assessments.InsertPayment(ctx, businessPayment())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrDuplicateORNumber))
}

func TestSQLStore_RunInTxRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	store := NewSQLStore(db)
	failure := errors.New("apply failed")
	err = store.RunInTx(context.Background(), func(r *Repositories) error {
		if _, err := r.Applications.TransitionStatus(context.Background(), 10, models.ApplicationPaid, "approved"); err != nil {
			return err
		}
		return failure
	})
	assert.ErrorIs(t, err, failure)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStore_RunInTxCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	store := NewSQLStore(db)
	require.NoError(t, store.RunInTx(context.Background(), func(r *Repositories) error { return nil }))
	assert.NoError(t, mock.ExpectationsWereMet())
}

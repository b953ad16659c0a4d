package services

import (
	"context"
	"fmt"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/utils"
)

// MonthlyRentAdapter settles one or every open rent month of a renter
type MonthlyRentAdapter struct{}

func (MonthlyRentAdapter) Kind() models.SubjectKind { return models.SubjectMonthlyRent }

func (MonthlyRentAdapter) NormalizeRef(ref models.SubjectRef) (models.SubjectRef, error) {
	if ref.ID <= 0 {
		return ref, utils.NewValidationError("Invalid renter id")
	}
	if ref.Period == "" {
		ref.Period = models.PeriodAll
	}
	return ref, utils.ValidateRentPeriod(ref.Period)
}

func (MonthlyRentAdapter) Resolve(ctx context.Context, r *repository.Repositories, userID int64, ref models.SubjectRef, lock bool) (*models.PaymentSubject, error) {
	renter, err := r.Rent.GetRenter(ctx, ref.ID, userID)
	if err != nil {
		return nil, lookupError(err, "Renter")
	}
	rows, err := r.Rent.ListOpen(ctx, renter.ID, ref.Period, lock)
	if err != nil {
		return nil, lookupError(err, "Rent")
	}
	if len(rows) == 0 {
		return nil, nothingOpen(ref.Period)
	}

	installments := make([]Installment, len(rows))
	periods := make([]string, len(rows))
	for i, row := range rows {
		installments[i] = Installment{Period: row.Month, Amount: row.Amount, Surcharge: row.LateFee}
		periods[i] = row.Month
	}
	fee := InstallmentBreakdown("Rent", installments)
	return &models.PaymentSubject{
		Ref:         ref,
		OwnerID:     renter.UserID,
		AmountDue:   fee.Total,
		Components:  fee.Components,
		Periods:     periods,
		Description: fmt.Sprintf("%s (%s)", renter.BusinessName, renter.RenterCode),
		Status:      models.InstallmentPending,
		RenterID:    renter.ID,
		StallID:     renter.StallID,
	}, nil
}

func (MonthlyRentAdapter) Describe(subject *models.PaymentSubject) string {
	return fmt.Sprintf("Stall rent %s, %s", periodLabel(subject), subject.Description)
}

func (MonthlyRentAdapter) ApplySuccess(ctx context.Context, r *repository.Repositories, subject *models.PaymentSubject, rec *models.PaymentRecord) error {
	n, err := r.Rent.MarkPaid(ctx, subject.RenterID, subject.Ref.Period, rec.ReferenceNumber, rec.PaidAt)
	if err != nil {
		return err
	}
	if n != int64(len(subject.Periods)) {
		return utils.NewConflictError(utils.ErrAlreadyPaid)
	}
	return r.Audit.Append(ctx, &models.AuditLog{
		ActorID:     rec.UserID,
		Action:      "rent_paid",
		EntityType:  "monthly_payments",
		EntityID:    subject.Ref.Key(),
		AfterStatus: models.InstallmentPaid,
		Details:     fmt.Sprintf("%s months=%v", rec.ReferenceNumber, subject.Periods),
		CreatedAt:   rec.PaidAt,
	})
}

// QuarterlyTaxAdapter settles one or every open real-property tax quarter
type QuarterlyTaxAdapter struct{}

func (QuarterlyTaxAdapter) Kind() models.SubjectKind { return models.SubjectQuarterlyTax }

func (QuarterlyTaxAdapter) NormalizeRef(ref models.SubjectRef) (models.SubjectRef, error) {
	if ref.ID <= 0 {
		return ref, utils.NewValidationError("Invalid land tax id")
	}
	if ref.Period == "" {
		ref.Period = models.PeriodAll
	}
	return ref, utils.ValidateQuarter(ref.Period)
}

func (QuarterlyTaxAdapter) Resolve(ctx context.Context, r *repository.Repositories, userID int64, ref models.SubjectRef, lock bool) (*models.PaymentSubject, error) {
	tax, err := r.Tax.GetLandTax(ctx, ref.ID, userID, lock)
	if err != nil {
		return nil, lookupError(err, "Land tax")
	}
	rows, err := r.Tax.ListOpenQuarters(ctx, tax.ID, ref.Period, lock)
	if err != nil {
		return nil, lookupError(err, "Quarter")
	}
	if len(rows) == 0 {
		return nil, nothingOpen(ref.Period)
	}

	installments := make([]Installment, len(rows))
	periods := make([]string, len(rows))
	for i, row := range rows {
		installments[i] = Installment{Period: row.Quarter, Amount: row.TaxAmount, Surcharge: row.Penalty}
		periods[i] = row.Quarter
	}
	fee := InstallmentBreakdown("Tax", installments)
	return &models.PaymentSubject{
		Ref:         ref,
		OwnerID:     tax.UserID,
		AmountDue:   fee.Total,
		Components:  fee.Components,
		Periods:     periods,
		Description: fmt.Sprintf("TD %s, %s, tax year %d", tax.TDNumber, tax.Location, tax.TaxYear),
		Status:      tax.Status,
		LandTaxID:   tax.ID,
	}, nil
}

func (QuarterlyTaxAdapter) Describe(subject *models.PaymentSubject) string {
	return fmt.Sprintf("Real property tax %s, %s", periodLabel(subject), subject.Description)
}

// ApplySuccess marks the quarters paid and settles the annual tax once no quarter is open
func (QuarterlyTaxAdapter) ApplySuccess(ctx context.Context, r *repository.Repositories, subject *models.PaymentSubject, rec *models.PaymentRecord) error {
	n, err := r.Tax.MarkQuartersPaid(ctx, subject.LandTaxID, subject.Ref.Period, rec.ReferenceNumber, rec.PaidAt)
	if err != nil {
		return err
	}
	if n != int64(len(subject.Periods)) {
		return utils.NewConflictError(utils.ErrAlreadyPaid)
	}
	if err := r.Audit.Append(ctx, &models.AuditLog{
		ActorID:     rec.UserID,
		Action:      "quarter_paid",
		EntityType:  "quarterly",
		EntityID:    subject.Ref.Key(),
		AfterStatus: models.InstallmentPaid,
		Details:     fmt.Sprintf("%s quarters=%v", rec.ReferenceNumber, subject.Periods),
		CreatedAt:   rec.PaidAt,
	}); err != nil {
		return err
	}

	settled, err := r.Tax.SettleIfComplete(ctx, subject.LandTaxID)
	if err != nil || !settled {
		return err
	}
	return r.Audit.Append(ctx, &models.AuditLog{
		ActorID:      rec.UserID,
		Action:       "land_tax_settled",
		EntityType:   "land_assessment_tax",
		EntityID:     fmt.Sprint(subject.LandTaxID),
		BeforeStatus: subject.Status,
		AfterStatus:  "paid",
		Details:      rec.ReferenceNumber,
		CreatedAt:    rec.PaidAt,
	})
}

func nothingOpen(period string) error {
	if period == models.PeriodAll {
		return utils.NewConflictError(utils.ErrNothingDue)
	}
	return utils.NewConflictError(fmt.Sprintf("%s is not open for payment", period))
}

func periodLabel(subject *models.PaymentSubject) string {
	if subject.Ref.Period == models.PeriodAll && len(subject.Periods) > 1 {
		return fmt.Sprintf("%s to %s", subject.Periods[0], subject.Periods[len(subject.Periods)-1])
	}
	if len(subject.Periods) > 0 {
		return subject.Periods[0]
	}
	return subject.Ref.Period
}

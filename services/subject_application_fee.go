package services

import (
	"context"
	"fmt"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/shopspring/decimal"
)

// ScheduledRentMonths is how many rent months a new lease pre-generates
const ScheduledRentMonths = 12

// ApplicationFeeAdapter settles the one-time stall application fee
type ApplicationFeeAdapter struct{}

func (ApplicationFeeAdapter) Kind() models.SubjectKind { return models.SubjectApplicationFee }

func (ApplicationFeeAdapter) NormalizeRef(ref models.SubjectRef) (models.SubjectRef, error) {
	if ref.ID <= 0 {
		return ref, utils.NewValidationError("Invalid application id")
	}
	ref.Period = ""
	return ref, nil
}

func (ApplicationFeeAdapter) Resolve(ctx context.Context, r *repository.Repositories, userID int64, ref models.SubjectRef, lock bool) (*models.PaymentSubject, error) {
	app, err := r.Applications.GetFeeSubject(ctx, ref.ID, userID, lock)
	if err != nil {
		return nil, lookupError(err, "Application")
	}
	switch app.Status {
	case models.ApplicationApproved, models.ApplicationPaymentPhase:
	case models.ApplicationPaid, models.ApplicationDocumentsSubmitted:
		return nil, utils.NewConflictError(utils.ErrAlreadyPaid)
	default:
		return nil, utils.NewConflictError(fmt.Sprintf("Application is %s and cannot be paid", app.Status))
	}

	fee := ApplicationFeeBreakdown(app.MonthlyRent, app.RightsFee)
	return &models.PaymentSubject{
		Ref:           ref,
		OwnerID:       app.UserID,
		AmountDue:     fee.Total,
		Components:    fee.Components,
		Description:   fmt.Sprintf("stall %s (%s) for %s", app.StallNumber, app.StallClass, app.BusinessName),
		Status:        app.Status,
		ApplicationID: app.ID,
		StallID:       app.StallID,
	}, nil
}

func (ApplicationFeeAdapter) Describe(subject *models.PaymentSubject) string {
	return "Market stall application fee, " + subject.Description
}

// ApplySuccess marks the application paid and, the first time only, creates the renter, lease,
// rights certificate and rent schedule
func (ApplicationFeeAdapter) ApplySuccess(ctx context.Context, r *repository.Repositories, subject *models.PaymentSubject, rec *models.PaymentRecord) error {
	ok, err := r.Applications.TransitionStatus(ctx, subject.ApplicationID, models.ApplicationPaid,
		models.ApplicationApproved, models.ApplicationPaymentPhase)
	if err != nil {
		return err
	}
	if !ok {
		return utils.NewConflictError(utils.ErrAlreadyPaid)
	}
	if err := r.Audit.Append(ctx, &models.AuditLog{
		ActorID:      rec.UserID,
		Action:       "application_paid",
		EntityType:   "applications",
		EntityID:     fmt.Sprint(subject.ApplicationID),
		BeforeStatus: subject.Status,
		AfterStatus:  models.ApplicationPaid,
		Details:      rec.ReferenceNumber,
		CreatedAt:    rec.PaidAt,
	}); err != nil {
		return err
	}

	app, err := r.Applications.GetFeeSubject(ctx, subject.ApplicationID, rec.UserID, false)
	if err != nil {
		return err
	}
	fee := &models.ApplicationFee{
		ApplicationID:   app.ID,
		ReferenceNumber: rec.ReferenceNumber,
		MonthlyRent:     utils.Round(app.MonthlyRent),
		RightsFee:       utils.Round(app.RightsFee),
		ApplicationFee:  ApplicationFee,
		SecurityBond:    SecurityBond,
		Total:           rec.Amount,
		PaidAt:          rec.PaidAt,
	}
	if err := r.Applications.RecordFee(ctx, fee); err != nil {
		return err
	}

	exists, err := r.Applications.RenterExists(ctx, app.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return createTenancy(ctx, r, app, rec)
}

func createTenancy(ctx context.Context, r *repository.Repositories, app *models.ApplicationFeeSubject, rec *models.PaymentRecord) error {
	now := rec.PaidAt
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	renter := &models.Renter{
		RenterCode:    utils.RenterCode(app.ID, now),
		ApplicationID: app.ID,
		UserID:        app.UserID,
		StallID:       app.StallID,
		BusinessName:  app.BusinessName,
		Status:        "active",
		CreatedAt:     now,
	}
	if err := r.Applications.CreateRenter(ctx, renter); err != nil {
		return err
	}

	lease := &models.LeaseContract{
		ContractNumber: utils.ContractNumber(app.ID, now),
		RenterID:       renter.ID,
		ApplicationID:  app.ID,
		StallID:        app.StallID,
		StartDate:      today,
		EndDate:        today.AddDate(1, 0, 0),
		MonthlyRent:    utils.Round(app.MonthlyRent),
		Status:         "active",
	}
	if err := r.Applications.CreateLease(ctx, lease); err != nil {
		return err
	}

	cert := &models.StallRightsCertificate{
		CertificateNumber: utils.CertificateNumber(app.ID, now),
		RenterID:          renter.ID,
		ApplicationID:     app.ID,
		StallClass:        app.StallClass,
		RightsFee:         utils.Round(app.RightsFee),
		IssuedAt:          today,
		ExpiresAt:         lease.EndDate,
	}
	if err := r.Applications.CreateCertificate(ctx, cert); err != nil {
		return err
	}

	if err := r.Applications.OccupyStall(ctx, app.StallID); err != nil {
		return err
	}
	if err := r.Rent.Schedule(ctx, RentSchedule(renter.ID, lease.StartDate, lease.MonthlyRent, ScheduledRentMonths)); err != nil {
		return err
	}

	return r.Audit.Append(ctx, &models.AuditLog{
		ActorID:     rec.UserID,
		Action:      "renter_created",
		EntityType:  "renters",
		EntityID:    renter.RenterCode,
		AfterStatus: renter.Status,
		Details:     fmt.Sprintf("lease %s, certificate %s", lease.ContractNumber, cert.CertificateNumber),
		CreatedAt:   now,
	})
}

// RentSchedule lists monthly rent rows starting the month after start; the first month is
// collected with the application fee
func RentSchedule(renterID int64, start time.Time, rent decimal.Decimal, months int) []models.MonthlyPayment {
	amount := utils.Round(rent)
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location()).AddDate(0, 1, 0)
	rows := make([]models.MonthlyPayment, 0, months)
	for i := 0; i < months; i++ {
		due := first.AddDate(0, i, 0)
		rows = append(rows, models.MonthlyPayment{
			RenterID: renterID,
			Month:    due.Format("2006-01"),
			DueDate:  due,
			Amount:   amount,
			Status:   models.InstallmentPending,
		})
	}
	return rows
}

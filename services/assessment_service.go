package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/fadhlanhapp/egov-portal/utils"
	"github.com/shopspring/decimal"
)

// AssessmentService handles the business tax back office
type AssessmentService struct {
	store repository.Store
	now   func() time.Time
}

func NewAssessmentService(store repository.Store) *AssessmentService {
	return &AssessmentService{store: store, now: time.Now}
}

// Save creates or updates the assessment for a business and year
func (s *AssessmentService) Save(ctx context.Context, actorID int64, req models.SaveAssessmentRequest) (*models.Assessment, error) {
	if err := validateAssessment(req); err != nil {
		return nil, err
	}
	assessorID := req.AssessorID
	if assessorID == 0 {
		assessorID = actorID
	}

	var saved *models.Assessment
	err := s.store.RunInTx(ctx, func(r *repository.Repositories) error {
		if _, err := r.Assessments.GetBusiness(ctx, req.BusinessID); err != nil {
			return lookupError(err, "Business")
		}

		now := s.now()
		a, err := r.Assessments.FindByBusinessYear(ctx, req.BusinessID, req.Year, true)
		before := ""
		switch {
		case errors.Is(err, repository.ErrNotFound):
			a = &models.Assessment{BusinessID: req.BusinessID, Year: req.Year, CreatedAt: now}
		case err != nil:
			return err
		case a.Status == models.AssessmentPaid:
			return utils.NewConflictError("Assessment is already paid and cannot be changed")
		default:
			before = a.Status
		}

		items := make([]models.AssessmentItem, len(req.Fees))
		for i, fee := range req.Fees {
			items[i] = models.AssessmentItem{FeeName: strings.TrimSpace(fee.FeeName), Amount: utils.Round(fee.Amount)}
		}
		a.GrossSales = utils.Round(req.GrossSales)
		a.TaxAmount = utils.Round(req.TaxAmount)
		a.Discounts = utils.Round(req.Discounts)
		a.Penalties = utils.Round(req.Penalties)
		a.TotalDue = AssessmentTotal(a.TaxAmount, items, a.Penalties, a.Discounts)
		a.Status = models.AssessmentAssessed
		a.AssessorID = assessorID
		a.UpdatedAt = now

		if err := r.Assessments.Save(ctx, a); err != nil {
			return err
		}
		if err := r.Assessments.ReplaceItems(ctx, a.ID, items); err != nil {
			return err
		}
		for i := range items {
			items[i].AssessmentID = a.ID
		}
		a.Items = items

		action := "assessment_updated"
		if before == "" {
			action = "assessment_created"
		}
		saved = a
		return r.Audit.Append(ctx, &models.AuditLog{
			ActorID:      actorID,
			Action:       action,
			EntityType:   "assessments",
			EntityID:     fmt.Sprint(a.ID),
			BeforeStatus: before,
			AfterStatus:  a.Status,
			Details:      fmt.Sprintf("business=%d year=%d total_due=%s", a.BusinessID, a.Year, a.TotalDue.StringFixed(2)),
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, txError(err)
	}

	log.Printf("[assessment] saved %d for business %d year %d total_due=%s", saved.ID, saved.BusinessID, saved.Year, saved.TotalDue.StringFixed(2))
	return saved, nil
}

// MarkPaid records an official-receipt payment and settles the assessment once fully paid
func (s *AssessmentService) MarkPaid(ctx context.Context, actorID int64, req models.MarkPaidRequest) (*models.Assessment, error) {
	orNumber := strings.TrimSpace(req.ORNumber)
	if err := utils.ValidateRequired(orNumber, "or_number"); err != nil {
		return nil, err
	}
	if err := utils.ValidatePositive(req.AmountPaid, "amount_paid"); err != nil {
		return nil, err
	}

	var (
		assessment *models.Assessment
		payment    *models.BusinessPayment
	)
	err := s.store.RunInTx(ctx, func(r *repository.Repositories) error {
		a, err := r.Assessments.Get(ctx, req.AssessmentID, true)
		if err != nil {
			return lookupError(err, "Assessment")
		}
		if a.Status == models.AssessmentPaid {
			return utils.NewConflictError("Assessment is already paid")
		}
		exists, err := r.Assessments.ORNumberExists(ctx, orNumber)
		if err != nil {
			return err
		}
		if exists {
			return utils.NewConflictError(fmt.Sprintf("OR number %s was already used", orNumber))
		}

		now := s.now()
		payment = &models.BusinessPayment{
			AssessmentID:  a.ID,
			AmountPaid:    utils.Round(req.AmountPaid),
			ORNumber:      orNumber,
			PaymentMethod: req.PaymentMethod,
			Notes:         strings.TrimSpace(req.Notes),
			ReceivedBy:    actorID,
			PaidAt:        now,
		}
		if err := r.Assessments.InsertPayment(ctx, payment); err != nil {
			if errors.Is(err, repository.ErrDuplicateORNumber) {
				return utils.NewConflictError(fmt.Sprintf("OR number %s was already used", orNumber))
			}
			return err
		}

		info, err := r.Assessments.TotalPaid(ctx, a.ID)
		if err != nil {
			return err
		}
		info.Balance = utils.NonNegative(a.TotalDue.Sub(info.TotalPaid))

		before := a.Status
		a.Status = models.AssessmentAssessed
		if info.TotalPaid.GreaterThanOrEqual(a.TotalDue) {
			a.Status = models.AssessmentPaid
		}
		if a.Status != before {
			if err := r.Assessments.UpdateStatus(ctx, a.ID, a.Status); err != nil {
				return err
			}
		}
		a.PaymentInfo = &info
		assessment = a

		return r.Audit.Append(ctx, &models.AuditLog{
			ActorID:      actorID,
			Action:       "assessment_payment",
			EntityType:   "assessments",
			EntityID:     fmt.Sprint(a.ID),
			BeforeStatus: before,
			AfterStatus:  a.Status,
			Details:      fmt.Sprintf("or=%s amount=%s method=%s", orNumber, payment.AmountPaid.StringFixed(2), payment.PaymentMethod),
			CreatedAt:    now,
		})
	})
	if err != nil {
		return nil, txError(err)
	}

	s.notifyOwner(ctx, assessment, payment)
	return assessment, nil
}

// List returns one page of assessments with their items and payment totals
func (s *AssessmentService) List(ctx context.Context, filter models.AssessmentFilter) (*models.AssessmentPage, error) {
	page, perPage, offset := utils.Paginate(filter.Page, filter.PerPage)
	assessments, total, err := s.store.Repos().Assessments.List(ctx, filter, perPage, offset)
	if err != nil {
		return nil, utils.NewTransientError(utils.ErrFailedToRetrieve, err)
	}
	if assessments == nil {
		assessments = []models.Assessment{}
	}
	return &models.AssessmentPage{
		Assessments: assessments,
		Page:        page,
		PerPage:     perPage,
		Total:       total,
		TotalPages:  (total + perPage - 1) / perPage,
	}, nil
}

func (s *AssessmentService) notifyOwner(ctx context.Context, a *models.Assessment, p *models.BusinessPayment) {
	repos := s.store.Repos()
	business, err := repos.Assessments.GetBusiness(ctx, a.BusinessID)
	if err != nil {
		log.Printf("[assessment] failed to load business %d for notification: %v", a.BusinessID, err)
		return
	}
	msg := fmt.Sprintf("Payment of PHP %s (OR %s) was recorded for %s, tax year %d.",
		p.AmountPaid.StringFixed(2), p.ORNumber, business.BusinessName, a.Year)
	if a.Status == models.AssessmentPaid {
		msg += " Your assessment is fully paid."
	}
	err = repos.Notifications.Create(ctx, &models.Notification{
		UserID:      business.OwnerUserID,
		Type:        "assessment_payment",
		Message:     msg,
		ReferenceID: p.ORNumber,
		CreatedAt:   p.PaidAt,
	})
	if err != nil {
		log.Printf("[assessment] failed to notify owner of business %d: %v", a.BusinessID, err)
	}
}

func validateAssessment(req models.SaveAssessmentRequest) error {
	if req.BusinessID <= 0 {
		return utils.NewValidationError("business_id is required")
	}
	if req.Year < 2000 || req.Year > 2100 {
		return utils.NewValidationError("year must be between 2000 and 2100")
	}
	amounts := []struct {
		name  string
		value decimal.Decimal
	}{
		{"gross_sales", req.GrossSales},
		{"tax_amount", req.TaxAmount},
		{"discounts", req.Discounts},
		{"penalties", req.Penalties},
	}
	for _, a := range amounts {
		if err := utils.ValidateNonNegative(a.value, a.name); err != nil {
			return err
		}
	}
	for _, fee := range req.Fees {
		if strings.TrimSpace(fee.FeeName) == "" {
			return utils.NewValidationError("fee_name is required for every fee")
		}
		if err := utils.ValidateNonNegative(fee.Amount, "fee amount"); err != nil {
			return err
		}
	}
	return nil
}

// txError keeps application errors and hides everything else behind a transient error
func txError(err error) error {
	var appErr *utils.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return utils.NewTransientError(utils.ErrFailedToStore, err)
}

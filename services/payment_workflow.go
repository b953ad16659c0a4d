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
	"golang.org/x/crypto/bcrypt"
)

// SubjectAdapter is the per-kind part of the payment workflow
type SubjectAdapter interface {
	Kind() models.SubjectKind
	// NormalizeRef validates the reference and fills defaults
	NormalizeRef(ref models.SubjectRef) (models.SubjectRef, error)
	// Resolve derives the subject and its amount due; it returns a not-found error for
	// subjects the user does not own and a conflict when nothing is owed
	Resolve(ctx context.Context, r *repository.Repositories, userID int64, ref models.SubjectRef, lock bool) (*models.PaymentSubject, error)
	// ApplySuccess transitions the owning aggregate inside the payment transaction
	ApplySuccess(ctx context.Context, r *repository.Repositories, subject *models.PaymentSubject, rec *models.PaymentRecord) error
	Describe(subject *models.PaymentSubject) string
}

// WorkflowConfig is the code policy
type WorkflowConfig struct {
	CodeTTL     time.Duration
	MaxAttempts int
	BcryptCost  int
}

// PaymentWorkflow runs select method -> issue code -> verify -> apply for every subject kind
type PaymentWorkflow struct {
	store        repository.Store
	adapters     map[models.SubjectKind]SubjectAdapter
	sender       OtpSender
	limiter      IssueLimiter
	cfg          WorkflowConfig
	now          func() time.Time
	newCode      func() string
	newReference func(prefix string, now time.Time) string
}

// NewPaymentWorkflow creates the workflow; limiter may be nil
func NewPaymentWorkflow(store repository.Store, sender OtpSender, limiter IssueLimiter, cfg WorkflowConfig, adapters ...SubjectAdapter) *PaymentWorkflow {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = utils.DefaultCodeTTL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = utils.DefaultMaxAttempts
	}
	if cfg.BcryptCost < bcrypt.MinCost {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	w := &PaymentWorkflow{
		store:        store,
		adapters:     make(map[models.SubjectKind]SubjectAdapter, len(adapters)),
		sender:       sender,
		limiter:      limiter,
		cfg:          cfg,
		now:          time.Now,
		newCode:      utils.GenerateVerificationCode,
		newReference: utils.GenerateReferenceNumber,
	}
	for _, a := range adapters {
		w.adapters[a.Kind()] = a
	}
	return w
}

// NewDefaultPaymentWorkflow wires the three municipal subject kinds
func NewDefaultPaymentWorkflow(store repository.Store, sender OtpSender, limiter IssueLimiter, cfg WorkflowConfig) *PaymentWorkflow {
	return NewPaymentWorkflow(store, sender, limiter, cfg,
		ApplicationFeeAdapter{}, MonthlyRentAdapter{}, QuarterlyTaxAdapter{})
}

func (w *PaymentWorkflow) adapterFor(ref models.SubjectRef) (SubjectAdapter, models.SubjectRef, error) {
	a, ok := w.adapters[ref.Kind]
	if !ok {
		return nil, ref, utils.NewValidationError(fmt.Sprintf("unsupported payment type %q", ref.Kind))
	}
	normalized, err := a.NormalizeRef(ref)
	if err != nil {
		return nil, ref, err
	}
	return a, normalized, nil
}

// Summary resolves the subject and reports the verification state without purging anything
func (w *PaymentWorkflow) Summary(ctx context.Context, userID int64, ref models.SubjectRef) (*models.PaymentSummary, error) {
	adapter, ref, err := w.adapterFor(ref)
	if err != nil {
		return nil, err
	}
	repos := w.store.Repos()
	subject, err := adapter.Resolve(ctx, repos, userID, ref, false)
	if err != nil {
		return nil, err
	}
	subject.Description = adapter.Describe(subject)

	summary := &models.PaymentSummary{Subject: subject, Verification: models.VerificationNone}
	v, err := repos.Verifications.FindOpen(ctx, ref.Key(), userID, false)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return summary, nil
	case err != nil:
		return nil, utils.NewTransientError(utils.ErrFailedToRetrieve, err)
	}

	switch {
	case v.Expired(w.now()):
		summary.Verification = models.VerificationExpired
	case v.Attempts >= w.cfg.MaxAttempts:
		summary.Verification = models.VerificationExhausted
	default:
		summary.Verification = models.VerificationIssued
		expires := v.ExpiresAt
		summary.ExpiresAt = &expires
		summary.AttemptsLeft = w.cfg.MaxAttempts - v.Attempts
	}
	return summary, nil
}

// IssueCode creates a fresh verification for the subject and sends the code out of band
func (w *PaymentWorkflow) IssueCode(ctx context.Context, userID int64, ref models.SubjectRef, req models.IssueCodeRequest) (*models.IssueCodeResponse, error) {
	phone := strings.TrimSpace(req.Phone)
	email := strings.TrimSpace(req.Email)
	if err := utils.ValidatePhone(phone); err != nil {
		return nil, err
	}
	if err := utils.ValidateEmail(email); err != nil {
		return nil, err
	}
	if !req.Method.Valid() {
		return nil, utils.NewValidationError(fmt.Sprintf("unsupported payment method %q", req.Method))
	}
	adapter, ref, err := w.adapterFor(ref)
	if err != nil {
		return nil, err
	}

	subject, err := adapter.Resolve(ctx, w.store.Repos(), userID, ref, false)
	if err != nil {
		return nil, err
	}

	if w.limiter != nil {
		allowed, err := w.limiter.Allow(ctx, fmt.Sprintf("%s:%d", ref.Key(), userID))
		if err != nil {
			log.Printf("[payment] issue limiter unavailable, allowing request: %v", err)
		} else if !allowed {
			return nil, utils.NewRateLimitedError(utils.ErrTooManyCodeRequest)
		}
	}

	code := w.newCode()
	hash, err := bcrypt.GenerateFromPassword([]byte(code), w.cfg.BcryptCost)
	if err != nil {
		return nil, utils.NewTransientError("Failed to issue verification code", err)
	}

	now := w.now()
	v := &models.PendingVerification{
		SubjectKey: ref.Key(),
		UserID:     userID,
		CodeHash:   string(hash),
		AmountDue:  subject.AmountDue,
		Method:     req.Method,
		Phone:      phone,
		Email:      email,
		ExpiresAt:  now.Add(w.cfg.CodeTTL),
		CreatedAt:  now,
	}
	err = w.store.RunInTx(ctx, func(r *repository.Repositories) error {
		if _, err := r.Verifications.PurgeExpired(ctx, v.SubjectKey, now); err != nil {
			return err
		}
		// a fresh request supersedes the user's previous code
		if _, err := r.Verifications.DeleteForSubject(ctx, v.SubjectKey, userID); err != nil {
			return err
		}
		return r.Verifications.Create(ctx, v)
	})
	if err != nil {
		return nil, utils.NewTransientError("Failed to issue verification code", err)
	}

	if err := w.sender.Send(ctx, phone, email, code); err != nil {
		if _, delErr := w.store.Repos().Verifications.DeleteForSubject(ctx, v.SubjectKey, userID); delErr != nil {
			log.Printf("[payment] failed to withdraw undelivered code for %s: %v", v.SubjectKey, delErr)
		}
		return nil, utils.NewTransientError("Failed to deliver verification code", err)
	}

	log.Printf("[payment] code issued for %s user=%d method=%s", v.SubjectKey, userID, v.Method)
	return &models.IssueCodeResponse{
		SubjectKey: v.SubjectKey,
		AmountDue:  v.AmountDue,
		Method:     v.Method,
		SentTo:     utils.MaskPhone(phone) + " / " + utils.MaskEmail(email),
		ExpiresAt:  v.ExpiresAt,
	}, nil
}

// Verify checks the submitted code and, on success, applies the payment atomically
func (w *PaymentWorkflow) Verify(ctx context.Context, userID int64, ref models.SubjectRef, req models.VerifyCodeRequest) (*models.Receipt, error) {
	code := strings.TrimSpace(req.Code)
	if err := utils.ValidateCodeFormat(code); err != nil {
		return nil, err
	}
	adapter, ref, err := w.adapterFor(ref)
	if err != nil {
		return nil, err
	}
	if err := w.checkOwner(ctx, adapter, userID, ref); err != nil {
		return nil, err
	}

	var (
		outcome error // rejection that must be returned after the transaction commits
		receipt *models.Receipt
		subject *models.PaymentSubject
	)
	err = w.store.RunInTx(ctx, func(r *repository.Repositories) error {
		v, err := r.Verifications.FindOpen(ctx, ref.Key(), userID, true)
		if errors.Is(err, repository.ErrNotFound) {
			return utils.NewConflictError(utils.ErrNoPendingCode)
		}
		if err != nil {
			return err
		}

		now := w.now()
		if v.Expired(now) {
			outcome = utils.NewCodeError(utils.CodeExpired, utils.ErrCodeExpired)
			_, err := r.Verifications.Consume(ctx, v.ID)
			return err
		}
		if v.Attempts >= w.cfg.MaxAttempts {
			outcome = utils.NewCodeError(utils.CodeAttemptsExhausted, utils.ErrAttemptsExhausted)
			_, err := r.Verifications.Consume(ctx, v.ID)
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(v.CodeHash), []byte(code)) != nil {
			attempts, err := r.Verifications.IncrementAttempts(ctx, v.ID)
			if err != nil {
				return err
			}
			if attempts >= w.cfg.MaxAttempts {
				outcome = utils.NewCodeError(utils.CodeAttemptsExhausted, utils.ErrAttemptsExhausted)
				_, err := r.Verifications.Consume(ctx, v.ID)
				return err
			}
			outcome = utils.NewCodeError(utils.CodeInvalid,
				fmt.Sprintf("Invalid verification code, %d attempt(s) left", w.cfg.MaxAttempts-attempts))
			return nil
		}

		subject, err = adapter.Resolve(ctx, r, userID, ref, true)
		if err != nil {
			if utils.IsCode(err, utils.CodeConflict) {
				outcome = err
				_, err := r.Verifications.Consume(ctx, v.ID)
				return err
			}
			return err
		}
		if !subject.AmountDue.Equal(v.AmountDue) {
			outcome = utils.NewConflictError(utils.ErrAmountChanged)
			_, err := r.Verifications.Consume(ctx, v.ID)
			return err
		}
		if req.Amount != nil && !req.Amount.Equal(subject.AmountDue) {
			return utils.NewValidationError(utils.ErrAmountMismatch)
		}

		consumed, err := r.Verifications.Consume(ctx, v.ID)
		if err != nil {
			return err
		}
		if !consumed {
			return utils.NewConflictError(utils.ErrNoPendingCode)
		}

		subject.Description = adapter.Describe(subject)
		rec := &models.PaymentRecord{
			SubjectKind: ref.Kind,
			SubjectKey:  ref.Key(),
			UserID:      userID,
			Amount:      subject.AmountDue,
			Method:      v.Method,
			Phone:       v.Phone,
			Email:       v.Email,
			Periods:     subject.Periods,
			Description: subject.Description,
			PaidAt:      now,
		}
		if err := w.insertRecord(ctx, r, rec); err != nil {
			return err
		}
		if err := adapter.ApplySuccess(ctx, r, subject, rec); err != nil {
			return err
		}
		if err := r.Audit.Append(ctx, &models.AuditLog{
			ActorID:     userID,
			Action:      "payment_recorded",
			EntityType:  "payment_records",
			EntityID:    rec.ReferenceNumber,
			AfterStatus: "paid",
			Details:     fmt.Sprintf("%s amount=%s method=%s", rec.SubjectKey, rec.Amount.StringFixed(2), rec.Method),
			CreatedAt:   now,
		}); err != nil {
			return err
		}

		receipt = &models.Receipt{Record: rec, Components: subject.Components}
		return nil
	})
	if err != nil {
		var appErr *utils.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, utils.NewTransientError(utils.ErrPaymentNotApplied, err)
	}
	if outcome != nil {
		return nil, outcome
	}

	log.Printf("[payment] %s paid by user=%d ref=%s amount=%s",
		receipt.Record.SubjectKey, userID, receipt.Record.ReferenceNumber, receipt.Record.Amount.StringFixed(2))
	w.notify(ctx, subject, receipt.Record)
	return receipt, nil
}

// Cancel withdraws the user's open code for a subject
func (w *PaymentWorkflow) Cancel(ctx context.Context, userID int64, ref models.SubjectRef) error {
	adapter, ref, err := w.adapterFor(ref)
	if err != nil {
		return err
	}
	if err := w.checkOwner(ctx, adapter, userID, ref); err != nil {
		return err
	}
	n, err := w.store.Repos().Verifications.DeleteForSubject(ctx, ref.Key(), userID)
	if err != nil {
		return utils.NewTransientError(utils.ErrFailedToStore, err)
	}
	if n == 0 {
		return utils.NewConflictError(utils.ErrNoPendingCode)
	}
	return nil
}

// checkOwner fails with not found when the subject does not belong to the user.
// Conflicts such as an already paid subject are left to the caller's own checks.
func (w *PaymentWorkflow) checkOwner(ctx context.Context, adapter SubjectAdapter, userID int64, ref models.SubjectRef) error {
	_, err := adapter.Resolve(ctx, w.store.Repos(), userID, ref, false)
	if err == nil || utils.IsCode(err, utils.CodeConflict) {
		return nil
	}
	return err
}

// Receipt returns a payment record owned by the user
func (w *PaymentWorkflow) Receipt(ctx context.Context, userID int64, reference string) (*models.Receipt, error) {
	rec, err := w.store.Repos().Payments.GetByReference(ctx, strings.TrimSpace(reference))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, utils.NewNotFoundError("Payment")
	}
	if err != nil {
		return nil, utils.NewTransientError(utils.ErrFailedToRetrieve, err)
	}
	if rec.UserID != userID {
		return nil, utils.NewNotFoundError("Payment")
	}
	return &models.Receipt{Record: rec}, nil
}

// insertRecord allocates a reference number, regenerating on collision
func (w *PaymentWorkflow) insertRecord(ctx context.Context, r *repository.Repositories, rec *models.PaymentRecord) error {
	prefix := rec.Method.ReferencePrefix()
	for i := 0; i < utils.MaxReferenceCollisions; i++ {
		rec.ReferenceNumber = w.newReference(prefix, rec.PaidAt)
		err := r.Payments.Insert(ctx, rec)
		if errors.Is(err, repository.ErrDuplicateReference) {
			log.Printf("[payment] reference %s already taken, regenerating", rec.ReferenceNumber)
			continue
		}
		return err
	}
	return fmt.Errorf("no unique reference number after %d attempts", utils.MaxReferenceCollisions)
}

// notify is fire-and-forget: the payment is already committed
func (w *PaymentWorkflow) notify(ctx context.Context, subject *models.PaymentSubject, rec *models.PaymentRecord) {
	if subject == nil {
		return
	}
	n := &models.Notification{
		UserID:      subject.OwnerID,
		Type:        "payment_received",
		Message:     fmt.Sprintf("Payment %s of PHP %s received for %s.", rec.ReferenceNumber, rec.Amount.StringFixed(2), rec.Description),
		ReferenceID: rec.ReferenceNumber,
		CreatedAt:   w.now(),
	}
	if err := w.store.Repos().Notifications.Create(ctx, n); err != nil {
		log.Printf("[payment] failed to create notification for %s: %v", rec.ReferenceNumber, err)
	}
}

func lookupError(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return utils.NewNotFoundError(resource)
	}
	return utils.NewTransientError(utils.ErrFailedToRetrieve, err)
}

// Package testutil provides an in-memory repository.Store for service and handler tests.
package testutil

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fadhlanhapp/egov-portal/models"
	"github.com/fadhlanhapp/egov-portal/repository"
	"github.com/shopspring/decimal"
)

// Stall is the stall row an application targets
type Stall struct {
	ID          int64
	Number      string
	Class       string
	MonthlyRent decimal.Decimal
	RightsFee   decimal.Decimal
	Status      string
}

type memData struct {
	nextID        int64
	verifications map[int64]models.PendingVerification
	payments      []models.PaymentRecord
	applications  map[int64]models.Application
	stalls        map[int64]Stall
	fees          []models.ApplicationFee
	renters       map[int64]models.Renter
	leases        []models.LeaseContract
	certificates  []models.StallRightsCertificate
	monthly       []models.MonthlyPayment
	documents     []models.Document
	landTaxes     map[int64]models.LandTax
	quarters      []models.QuarterlyPayment
	businesses    map[int64]models.Business
	assessments   map[int64]models.Assessment
	items         map[int64][]models.AssessmentItem
	bizPayments   []models.BusinessPayment
	audit         []models.AuditLog
	notifications []models.Notification
}

func (d *memData) clone() *memData {
	c := *d
	c.verifications = maps.Clone(d.verifications)
	c.payments = slices.Clone(d.payments)
	c.applications = maps.Clone(d.applications)
	c.stalls = maps.Clone(d.stalls)
	c.fees = slices.Clone(d.fees)
	c.renters = maps.Clone(d.renters)
	c.leases = slices.Clone(d.leases)
	c.certificates = slices.Clone(d.certificates)
	c.monthly = slices.Clone(d.monthly)
	c.documents = slices.Clone(d.documents)
	c.landTaxes = maps.Clone(d.landTaxes)
	c.quarters = slices.Clone(d.quarters)
	c.businesses = maps.Clone(d.businesses)
	c.assessments = maps.Clone(d.assessments)
	c.items = maps.Clone(d.items)
	c.bizPayments = slices.Clone(d.bizPayments)
	c.audit = slices.Clone(d.audit)
	c.notifications = slices.Clone(d.notifications)
	return &c
}

func (d *memData) id() int64 {
	d.nextID++
	return d.nextID
}

// MemStore keeps every table in memory; RunInTx snapshots the data and restores it on error
type MemStore struct {
	mu       sync.Mutex
	data     *memData
	failures map[string]error
}

func NewMemStore() *MemStore {
	return &MemStore{
		data: &memData{
			verifications: map[int64]models.PendingVerification{},
			applications:  map[int64]models.Application{},
			stalls:        map[int64]Stall{},
			renters:       map[int64]models.Renter{},
			landTaxes:     map[int64]models.LandTax{},
			businesses:    map[int64]models.Business{},
			assessments:   map[int64]models.Assessment{},
			items:         map[int64][]models.AssessmentItem{},
		},
		failures: map[string]error{},
	}
}

// Fail makes the named operation (e.g. "payments.insert") return err until cleared with a nil err
func (s *MemStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, op)
		return
	}
	s.failures[op] = err
}

func (s *MemStore) Repos() *repository.Repositories {
	return s.repositories(false)
}

func (s *MemStore) RunInTx(ctx context.Context, fn func(r *repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.data.clone()
	if err := fn(s.repositories(true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *MemStore) repositories(inTx bool) *repository.Repositories {
	m := &memRepo{s: s, inTx: inTx}
	return &repository.Repositories{
		Verifications: (*verificationRepo)(m),
		Payments:      (*paymentRepo)(m),
		Applications:  (*applicationRepo)(m),
		Rent:          (*rentRepo)(m),
		Tax:           (*taxRepo)(m),
		Assessments:   (*assessmentRepo)(m),
		Audit:         (*auditRepo)(m),
		Notifications: (*notificationRepo)(m),
	}
}

type memRepo struct {
	s    *MemStore
	inTx bool
}

// do runs fn against the data, locking unless a transaction already holds the lock
func (m *memRepo) do(op string, fn func(d *memData) error) error {
	if !m.inTx {
		m.s.mu.Lock()
		defer m.s.mu.Unlock()
	}
	if err := m.s.failures[op]; err != nil {
		return err
	}
	return fn(m.s.data)
}

// seeding and inspection

func (s *MemStore) read(fn func(d *memData)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *MemStore) AddStall(st Stall) {
	s.read(func(d *memData) {
		if st.Status == "" {
			st.Status = "available"
		}
		d.stalls[st.ID] = st
	})
}

func (s *MemStore) AddApplication(app models.Application) {
	s.read(func(d *memData) {
		if app.CreatedAt.IsZero() {
			app.CreatedAt = time.Now()
		}
		d.applications[app.ID] = app
	})
}

func (s *MemStore) AddRenter(r models.Renter) {
	s.read(func(d *memData) { d.renters[r.ID] = r })
}

func (s *MemStore) AddMonthlyPayment(p models.MonthlyPayment) {
	s.read(func(d *memData) {
		p.ID = d.id()
		d.monthly = append(d.monthly, p)
	})
}

func (s *MemStore) AddLandTax(t models.LandTax) {
	s.read(func(d *memData) { d.landTaxes[t.ID] = t })
}

func (s *MemStore) AddQuarter(q models.QuarterlyPayment) {
	s.read(func(d *memData) {
		q.ID = d.id()
		d.quarters = append(d.quarters, q)
	})
}

func (s *MemStore) AddBusiness(b models.Business) {
	s.read(func(d *memData) { d.businesses[b.ID] = b })
}

func (s *MemStore) AddPaymentRecord(rec models.PaymentRecord) {
	s.read(func(d *memData) {
		rec.ID = d.id()
		d.payments = append(d.payments, rec)
	})
}

func (s *MemStore) Application(id int64) models.Application {
	var app models.Application
	s.read(func(d *memData) { app = d.applications[id] })
	return app
}

func (s *MemStore) Stall(id int64) Stall {
	var st Stall
	s.read(func(d *memData) { st = d.stalls[id] })
	return st
}

func (s *MemStore) LandTax(id int64) models.LandTax {
	var t models.LandTax
	s.read(func(d *memData) { t = d.landTaxes[id] })
	return t
}

func (s *MemStore) Verifications() []models.PendingVerification {
	var out []models.PendingVerification
	s.read(func(d *memData) {
		for _, v := range d.verifications {
			out = append(out, v)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemStore) PaymentRecords() []models.PaymentRecord {
	var out []models.PaymentRecord
	s.read(func(d *memData) { out = slices.Clone(d.payments) })
	return out
}

func (s *MemStore) ApplicationFees() []models.ApplicationFee {
	var out []models.ApplicationFee
	s.read(func(d *memData) { out = slices.Clone(d.fees) })
	return out
}

func (s *MemStore) Renters() []models.Renter {
	var out []models.Renter
	s.read(func(d *memData) {
		for _, r := range d.renters {
			out = append(out, r)
		}
	})
	return out
}

func (s *MemStore) Leases() []models.LeaseContract {
	var out []models.LeaseContract
	s.read(func(d *memData) { out = slices.Clone(d.leases) })
	return out
}

func (s *MemStore) Certificates() []models.StallRightsCertificate {
	var out []models.StallRightsCertificate
	s.read(func(d *memData) { out = slices.Clone(d.certificates) })
	return out
}

func (s *MemStore) MonthlyPayments(renterID int64) []models.MonthlyPayment {
	var out []models.MonthlyPayment
	s.read(func(d *memData) {
		for _, p := range d.monthly {
			if p.RenterID == renterID {
				out = append(out, p)
			}
		}
	})
	return out
}

func (s *MemStore) Quarters(landTaxID int64) []models.QuarterlyPayment {
	var out []models.QuarterlyPayment
	s.read(func(d *memData) {
		for _, q := range d.quarters {
			if q.LandTaxID == landTaxID {
				out = append(out, q)
			}
		}
	})
	return out
}

func (s *MemStore) Documents(applicationID int64) []models.Document {
	var out []models.Document
	s.read(func(d *memData) {
		for _, doc := range d.documents {
			if doc.ApplicationID == applicationID {
				out = append(out, doc)
			}
		}
	})
	return out
}

func (s *MemStore) Assessment(id int64) models.Assessment {
	var a models.Assessment
	s.read(func(d *memData) {
		a = d.assessments[id]
		a.Items = slices.Clone(d.items[id])
	})
	return a
}

func (s *MemStore) BusinessPayments() []models.BusinessPayment {
	var out []models.BusinessPayment
	s.read(func(d *memData) { out = slices.Clone(d.bizPayments) })
	return out
}

func (s *MemStore) AuditLogs() []models.AuditLog {
	var out []models.AuditLog
	s.read(func(d *memData) { out = slices.Clone(d.audit) })
	return out
}

func (s *MemStore) Notifications() []models.Notification {
	var out []models.Notification
	s.read(func(d *memData) { out = slices.Clone(d.notifications) })
	return out
}

// verifications

type verificationRepo memRepo

func (r *verificationRepo) FindOpen(ctx context.Context, subjectKey string, userID int64, lock bool) (*models.PendingVerification, error) {
	var found *models.PendingVerification
	err := (*memRepo)(r).do("verifications.find", func(d *memData) error {
		for _, v := range d.verifications {
			if v.SubjectKey != subjectKey || v.UserID != userID {
				continue
			}
			if found == nil || v.ID > found.ID {
				v := v
				found = &v
			}
		}
		if found == nil {
			return repository.ErrNotFound
		}
		return nil
	})
	return found, err
}

func (r *verificationRepo) Create(ctx context.Context, v *models.PendingVerification) error {
	return (*memRepo)(r).do("verifications.create", func(d *memData) error {
		v.ID = d.id()
		d.verifications[v.ID] = *v
		return nil
	})
}

func (r *verificationRepo) PurgeExpired(ctx context.Context, subjectKey string, now time.Time) (int64, error) {
	var n int64
	err := (*memRepo)(r).do("verifications.purge", func(d *memData) error {
		for id, v := range d.verifications {
			if v.SubjectKey == subjectKey && v.Expired(now) {
				delete(d.verifications, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *verificationRepo) DeleteForSubject(ctx context.Context, subjectKey string, userID int64) (int64, error) {
	var n int64
	err := (*memRepo)(r).do("verifications.delete", func(d *memData) error {
		for id, v := range d.verifications {
			if v.SubjectKey == subjectKey && v.UserID == userID {
				delete(d.verifications, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *verificationRepo) IncrementAttempts(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := (*memRepo)(r).do("verifications.increment", func(d *memData) error {
		v, ok := d.verifications[id]
		if !ok {
			return repository.ErrNotFound
		}
		v.Attempts++
		d.verifications[id] = v
		attempts = v.Attempts
		return nil
	})
	return attempts, err
}

func (r *verificationRepo) Consume(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := (*memRepo)(r).do("verifications.consume", func(d *memData) error {
		_, ok = d.verifications[id]
		delete(d.verifications, id)
		return nil
	})
	return ok, err
}

// payment records

type paymentRepo memRepo

func (r *paymentRepo) Insert(ctx context.Context, rec *models.PaymentRecord) error {
	return (*memRepo)(r).do("payments.insert", func(d *memData) error {
		for _, p := range d.payments {
			if p.ReferenceNumber == rec.ReferenceNumber {
				return repository.ErrDuplicateReference
			}
		}
		rec.ID = d.id()
		d.payments = append(d.payments, *rec)
		return nil
	})
}

func (r *paymentRepo) GetByReference(ctx context.Context, reference string) (*models.PaymentRecord, error) {
	var found *models.PaymentRecord
	err := (*memRepo)(r).do("payments.get", func(d *memData) error {
		for _, p := range d.payments {
			if p.ReferenceNumber == reference {
				p := p
				found = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return found, err
}

func (r *paymentRepo) ListBetween(ctx context.Context, from, to time.Time) ([]models.PaymentRecord, error) {
	var out []models.PaymentRecord
	err := (*memRepo)(r).do("payments.list", func(d *memData) error {
		for _, p := range d.payments {
			if !p.PaidAt.Before(from) && p.PaidAt.Before(to) {
				out = append(out, p)
			}
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
		return nil
	})
	return out, err
}

// applications

type applicationRepo memRepo

func (r *applicationRepo) GetFeeSubject(ctx context.Context, applicationID, userID int64, lock bool) (*models.ApplicationFeeSubject, error) {
	var out *models.ApplicationFeeSubject
	err := (*memRepo)(r).do("applications.get", func(d *memData) error {
		app, ok := d.applications[applicationID]
		if !ok || app.UserID != userID {
			return repository.ErrNotFound
		}
		st, ok := d.stalls[app.StallID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &models.ApplicationFeeSubject{
			Application: app,
			StallNumber: st.Number,
			StallClass:  st.Class,
			MonthlyRent: st.MonthlyRent,
			RightsFee:   st.RightsFee,
		}
		return nil
	})
	return out, err
}

func (r *applicationRepo) GetOwned(ctx context.Context, applicationID, userID int64, lock bool) (*models.Application, error) {
	var out *models.Application
	err := (*memRepo)(r).do("applications.get", func(d *memData) error {
		app, ok := d.applications[applicationID]
		if !ok || app.UserID != userID {
			return repository.ErrNotFound
		}
		out = &app
		return nil
	})
	return out, err
}

func (r *applicationRepo) TransitionStatus(ctx context.Context, applicationID int64, to string, from ...string) (bool, error) {
	var ok bool
	err := (*memRepo)(r).do("applications.transition", func(d *memData) error {
		app, exists := d.applications[applicationID]
		if !exists || !slices.Contains(from, app.Status) {
			return nil
		}
		app.Status = to
		d.applications[applicationID] = app
		ok = true
		return nil
	})
	return ok, err
}

func (r *applicationRepo) RecordFee(ctx context.Context, fee *models.ApplicationFee) error {
	return (*memRepo)(r).do("applications.fee", func(d *memData) error {
		fee.ID = d.id()
		d.fees = append(d.fees, *fee)
		return nil
	})
}

func (r *applicationRepo) RenterExists(ctx context.Context, applicationID int64) (bool, error) {
	var exists bool
	err := (*memRepo)(r).do("renters.exists", func(d *memData) error {
		for _, rn := range d.renters {
			if rn.ApplicationID == applicationID {
				exists = true
			}
		}
		return nil
	})
	return exists, err
}

func (r *applicationRepo) CreateRenter(ctx context.Context, renter *models.Renter) error {
	return (*memRepo)(r).do("renters.create", func(d *memData) error {
		for _, rn := range d.renters {
			if rn.ApplicationID == renter.ApplicationID {
				return errors.New("duplicate key value violates unique constraint \"renters_application_id_key\"")
			}
		}
		renter.ID = d.id()
		d.renters[renter.ID] = *renter
		return nil
	})
}

func (r *applicationRepo) CreateLease(ctx context.Context, lease *models.LeaseContract) error {
	return (*memRepo)(r).do("leases.create", func(d *memData) error {
		lease.ID = d.id()
		d.leases = append(d.leases, *lease)
		return nil
	})
}

func (r *applicationRepo) CreateCertificate(ctx context.Context, cert *models.StallRightsCertificate) error {
	return (*memRepo)(r).do("certificates.create", func(d *memData) error {
		cert.ID = d.id()
		d.certificates = append(d.certificates, *cert)
		return nil
	})
}

func (r *applicationRepo) OccupyStall(ctx context.Context, stallID int64) error {
	return (*memRepo)(r).do("stalls.occupy", func(d *memData) error {
		st := d.stalls[stallID]
		st.Status = "occupied"
		d.stalls[stallID] = st
		return nil
	})
}

func (r *applicationRepo) UpsertDocument(ctx context.Context, doc *models.Document) error {
	return (*memRepo)(r).do("documents.upsert", func(d *memData) error {
		for i, existing := range d.documents {
			if existing.ApplicationID == doc.ApplicationID && existing.DocumentType == doc.DocumentType {
				doc.ID = existing.ID
				d.documents[i] = *doc
				return nil
			}
		}
		doc.ID = d.id()
		d.documents = append(d.documents, *doc)
		return nil
	})
}

func (r *applicationRepo) ListDocuments(ctx context.Context, applicationID int64) ([]models.Document, error) {
	var out []models.Document
	err := (*memRepo)(r).do("documents.list", func(d *memData) error {
		for _, doc := range d.documents {
			if doc.ApplicationID == applicationID {
				out = append(out, doc)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].DocumentType < out[j].DocumentType })
		return nil
	})
	return out, err
}

// rent

type rentRepo memRepo

func openStatus(status string) bool {
	return status == models.InstallmentPending || status == models.InstallmentOverdue
}

func (r *rentRepo) GetRenter(ctx context.Context, renterID, userID int64) (*models.Renter, error) {
	var out *models.Renter
	err := (*memRepo)(r).do("renters.get", func(d *memData) error {
		rn, ok := d.renters[renterID]
		if !ok || rn.UserID != userID {
			return repository.ErrNotFound
		}
		out = &rn
		return nil
	})
	return out, err
}

func (r *rentRepo) ListOpen(ctx context.Context, renterID int64, month string, lock bool) ([]models.MonthlyPayment, error) {
	var out []models.MonthlyPayment
	err := (*memRepo)(r).do("rent.list", func(d *memData) error {
		for _, p := range d.monthly {
			if p.RenterID == renterID && openStatus(p.Status) && (month == models.PeriodAll || p.Month == month) {
				out = append(out, p)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
		return nil
	})
	return out, err
}

func (r *rentRepo) Schedule(ctx context.Context, rows []models.MonthlyPayment) error {
	return (*memRepo)(r).do("rent.schedule", func(d *memData) error {
		for _, row := range rows {
			exists := slices.ContainsFunc(d.monthly, func(p models.MonthlyPayment) bool {
				return p.RenterID == row.RenterID && p.Month == row.Month
			})
			if exists {
				continue
			}
			row.ID = d.id()
			d.monthly = append(d.monthly, row)
		}
		return nil
	})
}

func (r *rentRepo) MarkPaid(ctx context.Context, renterID int64, month, reference string, paidAt time.Time) (int64, error) {
	var n int64
	err := (*memRepo)(r).do("rent.mark_paid", func(d *memData) error {
		for i, p := range d.monthly {
			if p.RenterID == renterID && openStatus(p.Status) && (month == models.PeriodAll || p.Month == month) {
				at := paidAt
				d.monthly[i].Status = models.InstallmentPaid
				d.monthly[i].ReferenceNumber = reference
				d.monthly[i].PaidAt = &at
				n++
			}
		}
		return nil
	})
	return n, err
}

// real property tax

type taxRepo memRepo

func (r *taxRepo) GetLandTax(ctx context.Context, landTaxID, userID int64, lock bool) (*models.LandTax, error) {
	var out *models.LandTax
	err := (*memRepo)(r).do("tax.get", func(d *memData) error {
		t, ok := d.landTaxes[landTaxID]
		if !ok || t.UserID != userID {
			return repository.ErrNotFound
		}
		out = &t
		return nil
	})
	return out, err
}

func (r *taxRepo) ListOpenQuarters(ctx context.Context, landTaxID int64, quarter string, lock bool) ([]models.QuarterlyPayment, error) {
	var out []models.QuarterlyPayment
	err := (*memRepo)(r).do("tax.list", func(d *memData) error {
		for _, q := range d.quarters {
			if q.LandTaxID == landTaxID && openStatus(q.Status) && (quarter == models.PeriodAll || q.Quarter == quarter) {
				out = append(out, q)
			}
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Quarter < out[j].Quarter })
		return nil
	})
	return out, err
}

func (r *taxRepo) MarkQuartersPaid(ctx context.Context, landTaxID int64, quarter, reference string, paidAt time.Time) (int64, error) {
	var n int64
	err := (*memRepo)(r).do("tax.mark_paid", func(d *memData) error {
		for i, q := range d.quarters {
			if q.LandTaxID == landTaxID && openStatus(q.Status) && (quarter == models.PeriodAll || q.Quarter == quarter) {
				at := paidAt
				d.quarters[i].Status = models.InstallmentPaid
				d.quarters[i].ReferenceNumber = reference
				d.quarters[i].PaidAt = &at
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *taxRepo) SettleIfComplete(ctx context.Context, landTaxID int64) (bool, error) {
	var settled bool
	err := (*memRepo)(r).do("tax.settle", func(d *memData) error {
		t, ok := d.landTaxes[landTaxID]
		if !ok || t.Status == "paid" {
			return nil
		}
		for _, q := range d.quarters {
			if q.LandTaxID == landTaxID && openStatus(q.Status) {
				return nil
			}
		}
		t.Status = "paid"
		d.landTaxes[landTaxID] = t
		settled = true
		return nil
	})
	return settled, err
}

// business tax

type assessmentRepo memRepo

func (r *assessmentRepo) GetBusiness(ctx context.Context, businessID int64) (*models.Business, error) {
	var out *models.Business
	err := (*memRepo)(r).do("businesses.get", func(d *memData) error {
		b, ok := d.businesses[businessID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &b
		return nil
	})
	return out, err
}

func (r *assessmentRepo) FindByBusinessYear(ctx context.Context, businessID int64, year int, lock bool) (*models.Assessment, error) {
	var out *models.Assessment
	err := (*memRepo)(r).do("assessments.get", func(d *memData) error {
		for _, a := range d.assessments {
			if a.BusinessID == businessID && a.Year == year {
				out = &a
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *assessmentRepo) Get(ctx context.Context, assessmentID int64, lock bool) (*models.Assessment, error) {
	var out *models.Assessment
	err := (*memRepo)(r).do("assessments.get", func(d *memData) error {
		a, ok := d.assessments[assessmentID]
		if !ok {
			return repository.ErrNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

func (r *assessmentRepo) Save(ctx context.Context, a *models.Assessment) error {
	return (*memRepo)(r).do("assessments.save", func(d *memData) error {
		if a.ID == 0 {
			a.ID = d.id()
		}
		stored := *a
		stored.Items = nil
		stored.PaymentInfo = nil
		d.assessments[a.ID] = stored
		return nil
	})
}

func (r *assessmentRepo) ReplaceItems(ctx context.Context, assessmentID int64, items []models.AssessmentItem) error {
	return (*memRepo)(r).do("assessments.items", func(d *memData) error {
		stored := make([]models.AssessmentItem, len(items))
		for i, item := range items {
			item.ID = d.id()
			item.AssessmentID = assessmentID
			stored[i] = item
		}
		d.items[assessmentID] = stored
		return nil
	})
}

func (r *assessmentRepo) List(ctx context.Context, filter models.AssessmentFilter, limit, offset int) ([]models.Assessment, int, error) {
	var out []models.Assessment
	var total int
	err := (*memRepo)(r).do("assessments.list", func(d *memData) error {
		var matched []models.Assessment
		for _, a := range d.assessments {
			if filter.BusinessID > 0 && a.BusinessID != filter.BusinessID {
				continue
			}
			if filter.Year > 0 && a.Year != filter.Year {
				continue
			}
			if filter.Status != "" && a.Status != filter.Status {
				continue
			}
			matched = append(matched, a)
		}
		sort.Slice(matched, func(i, j int) bool {
			if matched[i].Year != matched[j].Year {
				return matched[i].Year > matched[j].Year
			}
			return matched[i].ID > matched[j].ID
		})
		total = len(matched)
		if offset >= len(matched) {
			return nil
		}
		end := min(offset+limit, len(matched))
		for _, a := range matched[offset:end] {
			a.Items = slices.Clone(d.items[a.ID])
			info := totalPaid(d, a.ID)
			info.Balance = a.TotalDue.Sub(info.TotalPaid)
			a.PaymentInfo = &info
			out = append(out, a)
		}
		return nil
	})
	return out, total, err
}

func (r *assessmentRepo) ORNumberExists(ctx context.Context, orNumber string) (bool, error) {
	var exists bool
	err := (*memRepo)(r).do("payments.or_exists", func(d *memData) error {
		exists = slices.ContainsFunc(d.bizPayments, func(p models.BusinessPayment) bool { return p.ORNumber == orNumber })
		return nil
	})
	return exists, err
}

func (r *assessmentRepo) InsertPayment(ctx context.Context, p *models.BusinessPayment) error {
	return (*memRepo)(r).do("payments.or_insert", func(d *memData) error {
		if slices.ContainsFunc(d.bizPayments, func(bp models.BusinessPayment) bool { return bp.ORNumber == p.ORNumber }) {
			return repository.ErrDuplicateORNumber
		}
		p.ID = d.id()
		d.bizPayments = append(d.bizPayments, *p)
		return nil
	})
}

func (r *assessmentRepo) TotalPaid(ctx context.Context, assessmentID int64) (models.PaymentInfo, error) {
	var info models.PaymentInfo
	err := (*memRepo)(r).do("payments.total", func(d *memData) error {
		info = totalPaid(d, assessmentID)
		return nil
	})
	return info, err
}

func totalPaid(d *memData, assessmentID int64) models.PaymentInfo {
	info := models.PaymentInfo{TotalPaid: decimal.Zero}
	for _, p := range d.bizPayments {
		if p.AssessmentID != assessmentID {
			continue
		}
		info.TotalPaid = info.TotalPaid.Add(p.AmountPaid)
		info.PaymentCount++
		if info.LastPaymentAt == nil || !p.PaidAt.Before(*info.LastPaymentAt) {
			at := p.PaidAt
			info.LastPaymentAt = &at
			info.LastORNumber = p.ORNumber
		}
	}
	return info
}

func (r *assessmentRepo) UpdateStatus(ctx context.Context, assessmentID int64, status string) error {
	return (*memRepo)(r).do("assessments.status", func(d *memData) error {
		a, ok := d.assessments[assessmentID]
		if !ok {
			return repository.ErrNotFound
		}
		a.Status = status
		d.assessments[assessmentID] = a
		return nil
	})
}

// audit and notifications

type auditRepo memRepo

func (r *auditRepo) Append(ctx context.Context, entry *models.AuditLog) error {
	return (*memRepo)(r).do("audit.append", func(d *memData) error {
		entry.ID = d.id()
		d.audit = append(d.audit, *entry)
		return nil
	})
}

type notificationRepo memRepo

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return (*memRepo)(r).do("notifications.create", func(d *memData) error {
		n.ID = d.id()
		d.notifications = append(d.notifications, *n)
		return nil
	})
}

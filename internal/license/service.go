// Package license implements the lifecycle of a condo's license:
// creation, sparse updates, suspend/activate/renew transitions, and
// enriched reads. It talks to the remote row store and never keeps
// state of its own.
package license

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

// ErrNotFound is returned when no license matches the given id.
var ErrNotFound = errors.New("licença não encontrada")

// Rows is the slice of the backend client this service needs.
type Rows interface {
	SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]backend.Row, error)
	SelectRow(ctx context.Context, table string, filters map[string]string) (backend.Row, error)
	InsertRow(ctx context.Context, table string, values backend.Row) (backend.Row, error)
	UpdateRows(ctx context.Context, table string, filters map[string]string, values backend.Row) ([]backend.Row, error)
}

// Service manages licenses against the remote row store.
type Service struct {
	rows Rows
}

func NewService(rows Rows) *Service {
	return &Service{rows: rows}
}

// CreateInput is everything needed to issue a license. CreatedBy is the
// operator's user id; "system" when unattributed.
type CreateInput struct {
	CondoID        string
	PlanType       models.PlanType
	DurationMonths int
	MaxUnits       int
	MaxUsers       int
	Amount         float64
	IsTrial        bool
	TrialDays      *int
	Notes          string
	ResidentEmails []string
	CreatedBy      string
}

// Create issues a license: expiry = now + duration months, fresh
// display codes, trial or active status. Caps and amount default from
// the plan when the caller leaves them zero. An invalid condo reference
// is rejected by the store's referential constraint, not here.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.License, error) {
	if input.DurationMonths <= 0 {
		return nil, errors.New("duração do contrato deve ser de pelo menos 1 mês")
	}
	limits := models.LimitsFor(input.PlanType)
	if input.MaxUnits <= 0 {
		input.MaxUnits = limits.MaxUnits
	}
	if input.MaxUsers <= 0 {
		input.MaxUsers = limits.MaxUsers
	}
	if input.Amount <= 0 {
		input.Amount = limits.DefaultAmount
	}
	if input.CreatedBy == "" {
		input.CreatedBy = "system"
	}
	if input.ResidentEmails == nil {
		input.ResidentEmails = []string{}
	}

	now := time.Now()
	expiry := now.AddDate(0, input.DurationMonths, 0)

	status := models.LicenseActive
	if input.IsTrial {
		status = models.LicenseTrial
	}

	values := backend.Row{
		"condo_id":          input.CondoID,
		"license_key":       newDisplayCode("LIC"),
		"contract_number":   newDisplayCode("CT"),
		"plan_type":         string(input.PlanType),
		"max_units":         input.MaxUnits,
		"max_users":         input.MaxUsers,
		"start_date":        canonical(now),
		"expiry_date":       canonical(expiry),
		"is_active":         true,
		"is_trial":          input.IsTrial,
		"trial_days":        input.TrialDays,
		"auto_renew":        false,
		"payment_status":    string(models.PaymentPending),
		"next_payment_date": canonical(expiry),
		"amount":            input.Amount,
		"currency":          "BRL",
		"download_count":    0,
		"max_downloads":     100,
		"created_by":        input.CreatedBy,
		"notes":             input.Notes,
		"status":            string(status),
		"resident_emails":   input.ResidentEmails,
	}

	row, err := s.rows.InsertRow(ctx, "licenses", values)
	if err != nil {
		return nil, fmt.Errorf("criar licença: %w", err)
	}
	return models.LicenseFromRow(row), nil
}

// UpdateFields is a sparse update: nil fields are left untouched,
// date fields are serialized to the canonical timestamp format.
type UpdateFields struct {
	PlanType        *models.PlanType
	MaxUnits        *int
	MaxUsers        *int
	ExpiryDate      *time.Time
	IsActive        *bool
	AutoRenew       *bool
	PaymentStatus   *models.PaymentStatus
	LastPaymentDate *time.Time
	NextPaymentDate *time.Time
	Amount          *float64
	Notes           *string
	Status          *models.LicenseStatus
	ResidentEmails  *[]string
}

func (f UpdateFields) toRow() backend.Row {
	values := backend.Row{}
	if f.PlanType != nil {
		values["plan_type"] = string(*f.PlanType)
	}
	if f.MaxUnits != nil {
		values["max_units"] = *f.MaxUnits
	}
	if f.MaxUsers != nil {
		values["max_users"] = *f.MaxUsers
	}
	if f.ExpiryDate != nil {
		values["expiry_date"] = canonical(*f.ExpiryDate)
	}
	if f.IsActive != nil {
		values["is_active"] = *f.IsActive
	}
	if f.AutoRenew != nil {
		values["auto_renew"] = *f.AutoRenew
	}
	if f.PaymentStatus != nil {
		values["payment_status"] = string(*f.PaymentStatus)
	}
	if f.LastPaymentDate != nil {
		values["last_payment_date"] = canonical(*f.LastPaymentDate)
	}
	if f.NextPaymentDate != nil {
		values["next_payment_date"] = canonical(*f.NextPaymentDate)
	}
	if f.Amount != nil {
		values["amount"] = *f.Amount
	}
	if f.Notes != nil {
		values["notes"] = *f.Notes
	}
	if f.Status != nil {
		values["status"] = string(*f.Status)
	}
	if f.ResidentEmails != nil {
		values["resident_emails"] = *f.ResidentEmails
	}
	return values
}

// Update persists a sparse field update and returns the stored license.
func (s *Service) Update(ctx context.Context, id string, fields UpdateFields) (*models.License, error) {
	values := fields.toRow()
	if len(values) == 0 {
		return s.GetByID(ctx, id)
	}
	values["updated_at"] = canonical(time.Now())

	rows, err := s.rows.UpdateRows(ctx, "licenses", map[string]string{"id": id}, values)
	if err != nil {
		return nil, fmt.Errorf("atualizar licença: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return models.LicenseFromRow(rows[0]), nil
}

// Suspend deactivates a license and appends the reason to its notes
// without destroying what was there. Suspending an already-suspended
// license is a valid no-op transition, not an error.
func (s *Service) Suspend(ctx context.Context, id, reason string) (*models.License, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	inactive := false
	status := models.LicenseSuspended
	fields := UpdateFields{IsActive: &inactive, Status: &status}
	if reason != "" {
		notes := fmt.Sprintf("%s\n[Suspenso: %s]", current.Notes, reason)
		fields.Notes = &notes
	}
	return s.Update(ctx, id, fields)
}

// Activate re-enables a license. The status only becomes active when
// the expiry is still in the future; activation never resurrects an
// expired license — that takes a renewal.
func (s *Service) Activate(ctx context.Context, id string) (*models.License, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	active := true
	status := models.LicenseActive
	if !current.ExpiryDate.After(time.Now()) {
		status = models.LicenseExpired
	}
	return s.Update(ctx, id, UpdateFields{IsActive: &active, Status: &status})
}

// Renew extends the expiry by additionalMonths from its CURRENT value
// (not from now — remaining paid-for time is never thrown away), resets
// the payment to pending with the new expiry as the next payment date,
// and puts the license back in active status.
func (s *Service) Renew(ctx context.Context, id string, additionalMonths int) (*models.License, error) {
	if additionalMonths <= 0 {
		return nil, errors.New("renovação deve adicionar pelo menos 1 mês")
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newExpiry := current.ExpiryDate.AddDate(0, additionalMonths, 0)
	pending := models.PaymentPending
	status := models.LicenseActive
	return s.Update(ctx, id, UpdateFields{
		ExpiryDate:      &newExpiry,
		PaymentStatus:   &pending,
		NextPaymentDate: &newExpiry,
		Status:          &status,
	})
}

// GetByID reads one license, reconciles its status against the clock,
// and enriches it with the linked condo's operator email (syndicEmail)
// when available. The enrichment is read-only; nothing is written back.
func (s *Service) GetByID(ctx context.Context, id string) (*models.License, error) {
	row, err := s.rows.SelectRow(ctx, "licenses", map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}

	lic := models.LicenseFromRow(row)
	lic.Reconcile(time.Now())

	if lic.CondoID != "" {
		condo, err := s.rows.SelectRow(ctx, "condos", map[string]string{"id": lic.CondoID})
		if err == nil && condo != nil {
			if email, ok := condo["admin_email"].(string); ok {
				lic.SyndicEmail = email
			}
		}
	}
	return lic, nil
}

// GetAll reads every license, newest first.
func (s *Service) GetAll(ctx context.Context) ([]*models.License, error) {
	rows, err := s.rows.SelectRows(ctx, "licenses", nil, "created_at.desc")
	if err != nil {
		return nil, err
	}
	now := time.Now()
	out := make([]*models.License, 0, len(rows))
	for _, row := range rows {
		lic := models.LicenseFromRow(row)
		lic.Reconcile(now)
		out = append(out, lic)
	}
	return out, nil
}

// GetByCondoID reads the license tied to a condo, or ErrNotFound.
func (s *Service) GetByCondoID(ctx context.Context, condoID string) (*models.License, error) {
	row, err := s.rows.SelectRow(ctx, "licenses", map[string]string{"condo_id": condoID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	lic := models.LicenseFromRow(row)
	lic.Reconcile(time.Now())
	return lic, nil
}

// GetContracts lists a license's contracts, newest first.
func (s *Service) GetContracts(ctx context.Context, licenseID string) ([]*models.Contract, error) {
	rows, err := s.rows.SelectRows(ctx, "contracts", map[string]string{"license_id": licenseID}, "created_at.desc")
	if err != nil {
		return nil, err
	}
	out := make([]*models.Contract, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ContractFromRow(row))
	}
	return out, nil
}

// canonical is the timestamp format the row store expects.
func canonical(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// newDisplayCode builds a short human-facing code like LIC-2026-483.
// Uniqueness is enforced by the store's unique constraint; the random
// suffix just keeps collisions rare within a year.
func newDisplayCode(prefix string) string {
	n, err := rand.Int(rand.Reader, big.NewInt(1000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, time.Now().Year(), suffix)
}

package models

import (
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// LicenseStatus is the lifecycle state of a license. Transitions:
// trial → active, active ⇄ suspended, active → expired (time-driven,
// detected lazily on read/activate), any → cancelled.
type LicenseStatus string

const (
	LicenseActive    LicenseStatus = "active"
	LicenseExpired   LicenseStatus = "expired"
	LicenseTrial     LicenseStatus = "trial"
	LicenseSuspended LicenseStatus = "suspended"
	LicenseCancelled LicenseStatus = "cancelled"
)

// PaymentStatus is the billing state of a license.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

// License ties exactly one condo to a plan, expiry and usage caps. It
// owns its contracts, download links and charges; the condo is only
// referenced.
type License struct {
	ID              string        `json:"id"`
	CondoID         string        `json:"condoId"`
	ResidentEmails  []string      `json:"residentEmails"`
	SyndicEmail     string        `json:"syndicEmail,omitempty"`
	LicenseKey      string        `json:"licenseKey"`
	ContractNumber  string        `json:"contractNumber"`
	PlanType        PlanType      `json:"planType"`
	MaxUnits        int           `json:"maxUnits"`
	MaxUsers        int           `json:"maxUsers"`
	StartDate       time.Time     `json:"startDate"`
	ExpiryDate      time.Time     `json:"expiryDate"`
	IsActive        bool          `json:"isActive"`
	IsTrial         bool          `json:"isTrial"`
	TrialDays       *int          `json:"trialDays,omitempty"`
	AutoRenew       bool          `json:"autoRenew"`
	PaymentStatus   PaymentStatus `json:"paymentStatus"`
	LastPaymentDate *time.Time    `json:"lastPaymentDate,omitempty"`
	NextPaymentDate *time.Time    `json:"nextPaymentDate,omitempty"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	DownloadCount   int           `json:"downloadCount"`
	MaxDownloads    int           `json:"maxDownloads"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
	CreatedBy       string        `json:"createdBy"`
	Notes           string        `json:"notes,omitempty"`
	Status          LicenseStatus `json:"status"`
}

// LicenseFromRow maps a licenses row into the typed entity, with a
// defined default for every optional column.
func LicenseFromRow(row backend.Row) *License {
	return &License{
		ID:              rowString(row, "id", ""),
		CondoID:         rowString(row, "condo_id", ""),
		ResidentEmails:  rowStringSlice(row, "resident_emails"),
		LicenseKey:      rowString(row, "license_key", ""),
		ContractNumber:  rowString(row, "contract_number", ""),
		PlanType:        PlanType(rowString(row, "plan_type", string(PlanBasic))),
		MaxUnits:        rowInt(row, "max_units", 0),
		MaxUsers:        rowInt(row, "max_users", 0),
		StartDate:       rowTime(row, "start_date"),
		ExpiryDate:      rowTime(row, "expiry_date"),
		IsActive:        rowBool(row, "is_active", true),
		IsTrial:         rowBool(row, "is_trial", false),
		TrialDays:       rowIntPtr(row, "trial_days"),
		AutoRenew:       rowBool(row, "auto_renew", false),
		PaymentStatus:   PaymentStatus(rowString(row, "payment_status", string(PaymentPending))),
		LastPaymentDate: rowTimePtr(row, "last_payment_date"),
		NextPaymentDate: rowTimePtr(row, "next_payment_date"),
		Amount:          rowFloat(row, "amount", 0),
		Currency:        rowString(row, "currency", "BRL"),
		DownloadCount:   rowInt(row, "download_count", 0),
		MaxDownloads:    rowInt(row, "max_downloads", 100),
		CreatedAt:       rowTime(row, "created_at"),
		UpdatedAt:       rowTime(row, "updated_at"),
		CreatedBy:       rowString(row, "created_by", ""),
		Notes:           rowString(row, "notes", ""),
		Status:          LicenseStatus(rowString(row, "status", string(LicenseActive))),
	}
}

// Reconcile enforces the status/isActive/expiry consistency rule on a
// freshly-read license: an active or trial license past its expiry is
// expired, whatever the stored status says. The correction is applied
// in memory only; persistence happens on the next explicit transition.
func (l *License) Reconcile(now time.Time) {
	if (l.Status == LicenseActive || l.Status == LicenseTrial) &&
		!l.ExpiryDate.IsZero() && now.After(l.ExpiryDate) {
		l.Status = LicenseExpired
	}
}

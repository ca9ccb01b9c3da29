package models

import (
	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// ChargeStatus is the payment provider's view of a charge.
type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeReceived  ChargeStatus = "received"
	ChargeConfirmed ChargeStatus = "confirmed"
	ChargeOverdue   ChargeStatus = "overdue"
	ChargeRefunded  ChargeStatus = "refunded"
	ChargeCancelled ChargeStatus = "cancelled"
)

// Charge is the billing record produced when the payment provider is
// asked to bill a License's periodic amount. Timestamps stay as the
// store's canonical strings; the UI formats them.
type Charge struct {
	ID               string       `json:"id"`
	LicenseID        string       `json:"licenseId"`
	CondoID          string       `json:"condoId"`
	AsaasPaymentID   string       `json:"asaasPaymentId"`
	AsaasInvoiceURL  *string      `json:"asaasInvoiceUrl"`
	AsaasBankSlipURL *string      `json:"asaasBankSlipUrl"`
	Amount           float64      `json:"amount"`
	DueDate          string       `json:"dueDate"`
	Status           ChargeStatus `json:"status"`
	EmailSentAt      *string      `json:"emailSentAt"`
	PaidAt           *string      `json:"paidAt"`
	CreatedAt        string       `json:"createdAt"`
}

func ChargeFromRow(row backend.Row) *Charge {
	return &Charge{
		ID:               rowString(row, "id", ""),
		LicenseID:        rowString(row, "license_id", ""),
		CondoID:          rowString(row, "condo_id", ""),
		AsaasPaymentID:   rowString(row, "asaas_payment_id", ""),
		AsaasInvoiceURL:  rowStringPtr(row, "asaas_invoice_url"),
		AsaasBankSlipURL: rowStringPtr(row, "asaas_bank_slip_url"),
		Amount:           rowFloat(row, "amount", 0),
		DueDate:          rowString(row, "due_date", ""),
		Status:           ChargeStatus(rowString(row, "status", string(ChargePending))),
		EmailSentAt:      rowStringPtr(row, "email_sent_at"),
		PaidAt:           rowStringPtr(row, "paid_at"),
		CreatedAt:        rowString(row, "created_at", ""),
	}
}

package models

import (
	"encoding/json"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// ContractType distinguishes how a contract came to be.
type ContractType string

const (
	ContractNew       ContractType = "new"
	ContractRenewal   ContractType = "renewal"
	ContractUpgrade   ContractType = "upgrade"
	ContractDowngrade ContractType = "downgrade"
)

// ContractStatus is the signing lifecycle of a contract.
type ContractStatus string

const (
	ContractDraft           ContractStatus = "draft"
	ContractSent            ContractStatus = "sent"
	ContractSigned          ContractStatus = "signed"
	ContractActiveStatus    ContractStatus = "active"
	ContractExpiredStatus   ContractStatus = "expired"
	ContractCancelledStatus ContractStatus = "cancelled"
)

// ContractTerms are the commercial terms embedded in the contract row
// as a JSON column.
type ContractTerms struct {
	Duration     int      `json:"duration"`
	Price        float64  `json:"price"`
	Features     []string `json:"features"`
	Restrictions []string `json:"restrictions"`
}

// Contract is a signed (or to-be-signed) agreement owned by a License.
type Contract struct {
	ID             string         `json:"id"`
	LicenseID      string         `json:"licenseId"`
	CondoID        string         `json:"condoId"`
	ContractType   ContractType   `json:"contractType"`
	Status         ContractStatus `json:"status"`
	ContractPDFURL *string        `json:"contractPdfUrl,omitempty"`
	SignedAt       *time.Time     `json:"signedAt,omitempty"`
	SignedBy       *string        `json:"signedBy,omitempty"`
	Terms          ContractTerms  `json:"terms"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func ContractFromRow(row backend.Row) *Contract {
	c := &Contract{
		ID:             rowString(row, "id", ""),
		LicenseID:      rowString(row, "license_id", ""),
		CondoID:        rowString(row, "condo_id", ""),
		ContractType:   ContractType(rowString(row, "contract_type", string(ContractNew))),
		Status:         ContractStatus(rowString(row, "status", string(ContractDraft))),
		ContractPDFURL: rowStringPtr(row, "contract_pdf_url"),
		SignedAt:       rowTimePtr(row, "signed_at"),
		SignedBy:       rowStringPtr(row, "signed_by"),
		Terms:          ContractTerms{Features: []string{}, Restrictions: []string{}},
		CreatedAt:      rowTime(row, "created_at"),
		UpdatedAt:      rowTime(row, "updated_at"),
	}

	// The terms column arrives either as a JSON object or as a string
	// holding JSON, depending on how the row was written.
	switch v := row["terms"].(type) {
	case string:
		_ = json.Unmarshal([]byte(v), &c.Terms)
	case map[string]any:
		if data, err := json.Marshal(v); err == nil {
			_ = json.Unmarshal(data, &c.Terms)
		}
	}
	if c.Terms.Features == nil {
		c.Terms.Features = []string{}
	}
	if c.Terms.Restrictions == nil {
		c.Terms.Restrictions = []string{}
	}
	return c
}

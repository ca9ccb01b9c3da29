package models

import (
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
)

// Condo is a managed condominium. Its id is a human-chosen slug,
// immutable after creation.
type Condo struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Address       string     `json:"address"`
	CNPJ          *string    `json:"cnpj,omitempty"`
	AdminEmail    *string    `json:"adminEmail,omitempty"`
	AdminID       *string    `json:"adminId,omitempty"`
	SubAdminID    *string    `json:"subAdminId,omitempty"`
	TotalUnits    int        `json:"totalUnits"`
	IsActive      bool       `json:"isActive"`
	LicenseKey    *string    `json:"licenseKey,omitempty"`
	LicenseExpiry *time.Time `json:"licenseExpiry,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func CondoFromRow(row backend.Row) *Condo {
	return &Condo{
		ID:            rowString(row, "id", ""),
		Name:          rowString(row, "name", ""),
		Address:       rowString(row, "address", ""),
		CNPJ:          rowStringPtr(row, "cnpj"),
		AdminEmail:    rowStringPtr(row, "admin_email"),
		AdminID:       rowStringPtr(row, "admin_id"),
		SubAdminID:    rowStringPtr(row, "sub_admin_id"),
		TotalUnits:    rowInt(row, "total_units", 0),
		IsActive:      rowBool(row, "is_active", true),
		LicenseKey:    rowStringPtr(row, "license_key"),
		LicenseExpiry: rowTimePtr(row, "license_expiry"),
		CreatedAt:     rowTime(row, "created_at"),
		UpdatedAt:     rowTime(row, "updated_at"),
	}
}

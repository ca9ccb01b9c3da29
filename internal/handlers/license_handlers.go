package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/license"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- SuperAdmin: License Handlers ---
//

// licenses builds the license service bound to the caller's session,
// so every row access carries the caller's token.
func (h *Handlers) licenses(c *gin.Context) *license.Service {
	return license.NewService(entryFrom(c).Client)
}

// CreateLicenseInput defines the JSON input for issuing a license.
type CreateLicenseInput struct {
	CondoID        string          `json:"condoId" binding:"required"`
	PlanType       models.PlanType `json:"planType" binding:"required"`
	Duration       int             `json:"duration" binding:"required,gt=0"`
	MaxUnits       int             `json:"maxUnits"`
	MaxUsers       int             `json:"maxUsers"`
	Amount         float64         `json:"amount"`
	IsTrial        bool            `json:"isTrial"`
	TrialDays      *int            `json:"trialDays"`
	Notes          string          `json:"notes"`
	ResidentEmails []string        `json:"residentEmails"`
}

// CreateLicense is the handler for POST /v1/admin/licenses
func (h *Handlers) CreateLicense(c *gin.Context) {
	var input CreateLicenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidPlan(input.PlanType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Plano desconhecido"})
		return
	}

	created, err := h.licenses(c).Create(c.Request.Context(), license.CreateInput{
		CondoID:        input.CondoID,
		PlanType:       input.PlanType,
		DurationMonths: input.Duration,
		MaxUnits:       input.MaxUnits,
		MaxUsers:       input.MaxUsers,
		Amount:         input.Amount,
		IsTrial:        input.IsTrial,
		TrialDays:      input.TrialDays,
		Notes:          input.Notes,
		ResidentEmails: input.ResidentEmails,
		CreatedBy:      createdBy(c),
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"license": created})
}

// GetAllLicenses is the handler for GET /v1/admin/licenses
func (h *Handlers) GetAllLicenses(c *gin.Context) {
	all, err := h.licenses(c).GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar licenças"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"licenses": all})
}

// GetLicense is the handler for GET /v1/admin/licenses/:id
func (h *Handlers) GetLicense(c *gin.Context) {
	found, err := h.licenses(c).GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": found})
}

// GetLicenseByCondo is the handler for GET /v1/licenses/condo/:condoId
// Available to the condo's own operator, not just superAdmin.
func (h *Handlers) GetLicenseByCondo(c *gin.Context) {
	found, err := h.licenses(c).GetByCondoID(c.Request.Context(), c.Param("condoId"))
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": found})
}

// UpdateLicenseInput is a sparse update; absent fields stay untouched.
type UpdateLicenseInput struct {
	PlanType        *models.PlanType      `json:"planType"`
	MaxUnits        *int                  `json:"maxUnits"`
	MaxUsers        *int                  `json:"maxUsers"`
	ExpiryDate      *time.Time            `json:"expiryDate"`
	IsActive        *bool                 `json:"isActive"`
	AutoRenew       *bool                 `json:"autoRenew"`
	PaymentStatus   *models.PaymentStatus `json:"paymentStatus"`
	LastPaymentDate *time.Time            `json:"lastPaymentDate"`
	NextPaymentDate *time.Time            `json:"nextPaymentDate"`
	Amount          *float64              `json:"amount"`
	Notes           *string               `json:"notes"`
	Status          *models.LicenseStatus `json:"status"`
	ResidentEmails  *[]string             `json:"residentEmails"`
}

// UpdateLicense is the handler for PATCH /v1/admin/licenses/:id
func (h *Handlers) UpdateLicense(c *gin.Context) {
	var input UpdateLicenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.licenses(c).Update(c.Request.Context(), c.Param("id"), license.UpdateFields{
		PlanType:        input.PlanType,
		MaxUnits:        input.MaxUnits,
		MaxUsers:        input.MaxUsers,
		ExpiryDate:      input.ExpiryDate,
		IsActive:        input.IsActive,
		AutoRenew:       input.AutoRenew,
		PaymentStatus:   input.PaymentStatus,
		LastPaymentDate: input.LastPaymentDate,
		NextPaymentDate: input.NextPaymentDate,
		Amount:          input.Amount,
		Notes:           input.Notes,
		Status:          input.Status,
		ResidentEmails:  input.ResidentEmails,
	})
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": updated})
}

// SuspendLicenseInput carries the optional suspension reason.
type SuspendLicenseInput struct {
	Reason string `json:"reason"`
}

// SuspendLicense is the handler for POST /v1/admin/licenses/:id/suspend
func (h *Handlers) SuspendLicense(c *gin.Context) {
	var input SuspendLicenseInput
	_ = c.ShouldBindJSON(&input)

	updated, err := h.licenses(c).Suspend(c.Request.Context(), c.Param("id"), input.Reason)
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": updated})
}

// ActivateLicense is the handler for POST /v1/admin/licenses/:id/activate
func (h *Handlers) ActivateLicense(c *gin.Context) {
	updated, err := h.licenses(c).Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": updated})
}

// RenewLicenseInput carries the extension length.
type RenewLicenseInput struct {
	Months int `json:"months" binding:"required,gt=0"`
}

// RenewLicense is the handler for POST /v1/admin/licenses/:id/renew
func (h *Handlers) RenewLicense(c *gin.Context) {
	var input RenewLicenseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.licenses(c).Renew(c.Request.Context(), c.Param("id"), input.Months)
	if err != nil {
		licenseError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"license": updated})
}

// GetContracts is the handler for GET /v1/admin/licenses/:id/contracts
func (h *Handlers) GetContracts(c *gin.Context) {
	contracts, err := h.licenses(c).GetContracts(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar contratos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func licenseError(c *gin.Context, err error) {
	if errors.Is(err, license.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": license.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

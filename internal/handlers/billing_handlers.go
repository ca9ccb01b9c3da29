package handlers

import (
	"errors"
	"net/http"

	"github.com/Ruhancpereira/conectacond.site/internal/billing"
	"github.com/gin-gonic/gin"
)

//
// --- SuperAdmin: Billing Handlers ---
//

func (h *Handlers) billing(c *gin.Context) *billing.Bridge {
	return billing.NewBridge(entryFrom(c).Client)
}

// CreateChargeInput defines the JSON input for billing a license.
type CreateChargeInput struct {
	SendEmail *bool `json:"sendEmail"`
}

// CreateCharge is the handler for POST /v1/admin/licenses/:id/charges
// An authorization failure maps to 401 so the frontend prompts a
// re-login; a provider failure maps to 502 so it offers a retry.
func (h *Handlers) CreateCharge(c *gin.Context) {
	var input CreateChargeInput
	_ = c.ShouldBindJSON(&input)
	sendEmail := true
	if input.SendEmail != nil {
		sendEmail = *input.SendEmail
	}

	result, err := h.billing(c).CreateCharge(c.Request.Context(), c.Param("id"), sendEmail)
	if err != nil {
		var billErr *billing.Error
		if errors.As(err, &billErr) {
			status := http.StatusBadGateway
			if billErr.Kind == billing.KindAuthorization {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"error": billErr.Message, "kind": billErr.Kind})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetCharges is the handler for GET /v1/admin/licenses/:id/charges
func (h *Handlers) GetCharges(c *gin.Context) {
	charges, err := h.billing(c).ChargesByLicense(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar cobranças"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"charges": charges})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/Ruhancpereira/conectacond.site/internal/download"
	"github.com/Ruhancpereira/conectacond.site/internal/email"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- SuperAdmin: Download-Link Handlers ---
//

func (h *Handlers) downloads(c *gin.Context) *download.Issuer {
	return download.NewIssuer(entryFrom(c).Client, h.BaseURL)
}

// GenerateLinkInput defines the JSON input for issuing a download link.
type GenerateLinkInput struct {
	LicenseID  string          `json:"licenseId" binding:"required"`
	CondoID    string          `json:"condoId" binding:"required"`
	Platform   models.Platform `json:"platform" binding:"required"`
	MaxUses    int             `json:"maxUses"`
	ExpiryDays int             `json:"expiryDays"`
}

// GenerateDownloadLink is the handler for POST /v1/admin/download-links
func (h *Handlers) GenerateDownloadLink(c *gin.Context) {
	var input GenerateLinkInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.downloads(c).Generate(c.Request.Context(), download.GenerateInput{
		LicenseID:  input.LicenseID,
		CondoID:    input.CondoID,
		Platform:   input.Platform,
		MaxUses:    input.MaxUses,
		ExpiryDays: input.ExpiryDays,
		CreatedBy:  createdBy(c),
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"downloadLink": link})
}

// GetDownloadLinks is the handler for GET /v1/admin/licenses/:id/download-links
func (h *Handlers) GetDownloadLinks(c *gin.Context) {
	links, err := h.downloads(c).List(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar links"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadLinks": links})
}

// RevokeDownloadLink is the handler for POST /v1/admin/download-links/:id/revoke
func (h *Handlers) RevokeDownloadLink(c *gin.Context) {
	if err := h.downloads(c).Revoke(c.Request.Context(), c.Param("id")); err != nil {
		downloadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link desativado"})
}

// ReactivateDownloadLink is the handler for POST /v1/admin/download-links/:id/reactivate
func (h *Handlers) ReactivateDownloadLink(c *gin.Context) {
	if err := h.downloads(c).Reactivate(c.Request.Context(), c.Param("id")); err != nil {
		downloadError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Link reativado"})
}

func downloadError(c *gin.Context, err error) {
	if errors.Is(err, download.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": download.ErrNotFound.Error()})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
}

// SendLinksInput optionally overrides the stored download URL.
type SendLinksInput struct {
	DownloadURL string `json:"downloadUrl"`
}

// SendDownloadLinks is the handler for POST /v1/admin/licenses/:id/send-links
// It triggers the server-side bulk email to the license's residents.
func (h *Handlers) SendDownloadLinks(c *gin.Context) {
	var input SendLinksInput
	_ = c.ShouldBindJSON(&input)

	bridge := email.NewBridge(entryFrom(c).Client)
	report, err := bridge.SendDownloadLinks(c.Request.Context(), c.Param("id"), input.DownloadURL)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

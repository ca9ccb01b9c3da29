package handlers

import (
	"net/http"

	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/gin-gonic/gin"
)

//
// --- SuperAdmin: Profile Directory Handlers ---
//

// GetAllProfiles is the handler for GET /v1/admin/profiles
func (h *Handlers) GetAllProfiles(c *gin.Context) {
	rows, err := entryFrom(c).Client.SelectRows(c.Request.Context(), "profiles", nil, "created_at.desc")
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao listar perfis"})
		return
	}

	profiles := make([]*models.Profile, 0, len(rows))
	for _, row := range rows {
		profiles = append(profiles, models.ProfileFromRow(row))
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

// UpdateProfileCondoInput defines the JSON input for moving a profile
// to another condominium, optionally updating its unit.
type UpdateProfileCondoInput struct {
	CondoID string  `json:"condoId" binding:"required"`
	Unit    *string `json:"unit"`
}

// UpdateProfileCondo is the handler for PATCH /v1/admin/profiles/:id/condo
func (h *Handlers) UpdateProfileCondo(c *gin.Context) {
	var input UpdateProfileCondoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	values := map[string]any{"condo_id": input.CondoID}
	if input.Unit != nil {
		values["unit"] = *input.Unit
	}

	client := entryFrom(c).Client
	rows, err := client.UpdateRows(c.Request.Context(), "profiles",
		map[string]string{"id": c.Param("id")}, values)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao atualizar perfil"})
		return
	}
	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Perfil não encontrado"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": models.ProfileFromRow(rows[0])})
}

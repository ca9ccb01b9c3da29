package handlers

import (
	"errors"
	"net/http"

	"github.com/Ruhancpereira/conectacond.site/internal/condo"
	"github.com/gin-gonic/gin"
)

//
// --- SuperAdmin: Condo Handlers ---
//

func (h *Handlers) condos(c *gin.Context) *condo.Service {
	return condo.NewService(entryFrom(c).Client)
}

// CreateCondoInput defines the JSON input for registering a condo.
type CreateCondoInput struct {
	ID         string `json:"id"`
	Name       string `json:"name" binding:"required"`
	Address    string `json:"address" binding:"required"`
	CNPJ       string `json:"cnpj"`
	AdminEmail string `json:"adminEmail" binding:"required,email"`
}

// CreateCondo is the handler for POST /v1/admin/condos
func (h *Handlers) CreateCondo(c *gin.Context) {
	var input CreateCondoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.condos(c).Create(c.Request.Context(), condo.CreateInput{
		ID:         input.ID,
		Name:       input.Name,
		Address:    input.Address,
		CNPJ:       input.CNPJ,
		AdminEmail: input.AdminEmail,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"condo": created})
}

// GetAllCondos is the handler for GET /v1/admin/condos
func (h *Handlers) GetAllCondos(c *gin.Context) {
	all, err := h.condos(c).GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Falha ao consultar condomínios"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"condos": all})
}

// GetCondo is the handler for GET /v1/admin/condos/:id
func (h *Handlers) GetCondo(c *gin.Context) {
	found, err := h.condos(c).GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, condo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": condo.ErrNotFound.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"condo": found})
}

// UpdateCondoInput is a sparse update; absent fields stay untouched.
type UpdateCondoInput struct {
	Name       *string `json:"name"`
	Address    *string `json:"address"`
	CNPJ       *string `json:"cnpj"`
	AdminEmail *string `json:"adminEmail"`
	AdminID    *string `json:"adminId"`
	SubAdminID *string `json:"subAdminId"`
	TotalUnits *int    `json:"totalUnits"`
	IsActive   *bool   `json:"isActive"`
}

// UpdateCondo is the handler for PATCH /v1/admin/condos/:id
func (h *Handlers) UpdateCondo(c *gin.Context) {
	var input UpdateCondoInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.condos(c).Update(c.Request.Context(), c.Param("id"), condo.UpdateFields{
		Name:       input.Name,
		Address:    input.Address,
		CNPJ:       input.CNPJ,
		AdminEmail: input.AdminEmail,
		AdminID:    input.AdminID,
		SubAdminID: input.SubAdminID,
		TotalUnits: input.TotalUnits,
		IsActive:   input.IsActive,
	})
	if err != nil {
		if errors.Is(err, condo.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": condo.ErrNotFound.Error()})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"condo": updated})
}

// DeleteCondo is the handler for DELETE /v1/admin/condos/:id
// The row store's referential constraints decide whether a condo with
// linked licenses can go.
func (h *Handlers) DeleteCondo(c *gin.Context) {
	if err := h.condos(c).Delete(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Condomínio removido"})
}

package handlers

import (
	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/Ruhancpereira/conectacond.site/internal/session"
	"github.com/gin-gonic/gin"
)

// Handlers holds all dependencies for the HTTP layer.
type Handlers struct {
	Cfg      backend.Config    // backend connection settings (may be unconfigured)
	Probe    *backend.Client   // anonymous client for health/signup/reset; nil when unconfigured
	Sessions *session.Registry // live portal sessions
	BaseURL  string            // public portal origin, used in download links
}

// entryFrom returns the portal-session entry the middleware resolved.
func entryFrom(c *gin.Context) *session.Entry {
	v, ok := c.Get("entry")
	if !ok {
		return nil
	}
	return v.(*session.Entry)
}

// currentUser returns the resolved user the middleware attached.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	return v.(*models.User)
}

// createdBy resolves the operator id to stamp on created records.
func createdBy(c *gin.Context) string {
	if user := currentUser(c); user != nil {
		return user.ID
	}
	return "system"
}

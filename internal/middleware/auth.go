package middleware

import (
	"net/http"
	"strings"

	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/Ruhancpereira/conectacond.site/internal/session"
	"github.com/gin-gonic/gin"
)

// sessionID extracts the opaque portal-session id from the
// Authorization header.
func sessionID(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// WithSession resolves the portal session named by the bearer token and
// puts its entry on the context. It does NOT require the session to be
// authenticated — the resume and visibility endpoints work on
// unauthenticated sessions too.
func WithSession(reg *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := sessionID(c)
		if id == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token de sessão ausente (use Bearer)"})
			c.Abort()
			return
		}
		entry := reg.Lookup(id)
		if entry == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sessão inválida ou expirada"})
			c.Abort()
			return
		}
		c.Set("entry", entry)
		if user := entry.Store.User(); user != nil {
			c.Set("user", user)
		}
		c.Next()
	}
}

// Authenticated requires a resolved user on the portal session.
// Must run after WithSession.
func Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, ok := c.Get("entry")
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Sessão inválida ou expirada"})
			c.Abort()
			return
		}
		if !entry.(*session.Entry).Store.Authenticated() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Faça login para continuar"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// SuperAdminOnly gates the license back office. Must run after
// Authenticated.
func SuperAdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("user")
		if !ok || v.(*models.User).Role != models.RoleSuperAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "Acesso restrito aos administradores do sistema"})
			c.Abort()
			return
		}
		c.Next()
	}
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/Ruhancpereira/conectacond.site/internal/session"
	"github.com/gin-gonic/gin"
)

//
// --- Session / Login Handlers ---
//

// ConfigStatus is the handler for GET /v1/config
// It reports whether the backend connection is configured at all, so
// the frontend can show "not configured" instead of a doomed login form.
func (h *Handlers) ConfigStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"configured": h.Cfg.Configured()})
}

// Health is the handler for GET /v1/health
// It probes the backend with the generous cold-start timeout.
func (h *Handlers) Health(c *gin.Context) {
	if h.Probe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"ok":    false,
			"error": "Backend não configurado. Defina BACKEND_URL e BACKEND_ANON_KEY.",
		})
		return
	}
	if err := h.Probe.CheckConnection(c.Request.Context(), backend.DefaultHealthTimeout); err != nil {
		status := http.StatusBadGateway
		msg := err.Error()
		if errors.Is(err, backend.ErrHealthTimeout) {
			msg = "O servidor não respondeu a tempo. Se o backend estiver pausado, reative o projeto e tente novamente."
		}
		c.JSON(status, gin.H{"ok": false, "error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// LoginInput defines the JSON input for a login attempt. Role selects
// the portal being entered; "superAdmin" triggers the role check.
type LoginInput struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required"`
	Role     models.UserRole `json:"role" binding:"required"`
}

// Login is the handler for POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	// Blocked pre-emptively when not configured: failing downstream
	// would surface as a confusing network error.
	if !h.Cfg.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Backend não configurado. Defina BACKEND_URL e BACKEND_ANON_KEY.",
			"kind":  session.KindNotConfigured,
		})
		return
	}

	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.Sessions.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha ao iniciar a sessão"})
		return
	}

	user, err := entry.Store.Login(c.Request.Context(), input.Email, input.Password, input.Role)
	if err != nil {
		h.Sessions.Close(entry.Store.ID())

		var loginErr *session.LoginError
		if errors.As(err, &loginErr) {
			c.JSON(loginStatus(loginErr.Kind), gin.H{
				"error":       loginErr.Message,
				"kind":        loginErr.Kind,
				"diagnostics": loginErr.Diagnostics,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	entry.Store.StartWatch()
	c.JSON(http.StatusOK, gin.H{
		"token": entry.Store.ID(),
		"user":  user,
	})
}

// loginStatus maps a login error kind to an HTTP status.
func loginStatus(kind session.ErrorKind) int {
	switch kind {
	case session.KindInvalidCredentials:
		return http.StatusUnauthorized
	case session.KindAccessDenied, session.KindEmailNotVerified, session.KindProfileNotFound:
		return http.StatusForbidden
	case session.KindNotConfigured, session.KindConnectivity, session.KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ResumeInput optionally names a previous portal session to restore.
type ResumeInput struct {
	Token string `json:"token"`
}

// Resume is the handler for POST /v1/auth/resume
// It restores a previous portal session when one is still alive —
// re-validating it against the backend — or opens a fresh one and
// runs the bounded bootstrap. Either way the caller gets a definitive
// state back, never an indefinite "loading".
func (h *Handlers) Resume(c *gin.Context) {
	if !h.Cfg.Configured() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Backend não configurado. Defina BACKEND_URL e BACKEND_ANON_KEY.",
			"kind":  session.KindNotConfigured,
		})
		return
	}

	var input ResumeInput
	_ = c.ShouldBindJSON(&input)

	var entry *session.Entry
	if input.Token != "" {
		entry = h.Sessions.Lookup(input.Token)
	}
	if entry != nil {
		// A restored session is re-validated against the backend; the
		// marker-gated retry inside Refresh covers a paused backend
		// waking up slowly.
		entry.Store.Refresh(c.Request.Context())
	} else {
		var err error
		entry, err = h.Sessions.Open()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Falha ao iniciar a sessão"})
			return
		}
		entry.Store.Start()
	}

	// Wait for the bootstrap to resolve; the store's own safety
	// ceiling guarantees this returns.
	select {
	case <-entry.Store.Ready():
	case <-c.Request.Context().Done():
		c.JSON(http.StatusRequestTimeout, gin.H{"error": "Requisição cancelada"})
		return
	}

	state, user := entry.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"token": entry.Store.ID(),
		"state": state,
		"user":  user,
	})
}

// SessionStatus is the handler for GET /v1/auth/session
func (h *Handlers) SessionStatus(c *gin.Context) {
	entry := entryFrom(c)
	state, user := entry.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"state": state, "user": user})
}

// Visible is the handler for POST /v1/auth/visible
// The frontend calls it when the tab becomes visible again; a present
// backend session refreshes the user, an absent one changes nothing.
func (h *Handlers) Visible(c *gin.Context) {
	entry := entryFrom(c)
	entry.Store.Refresh(c.Request.Context())
	state, user := entry.Store.Snapshot()
	c.JSON(http.StatusOK, gin.H{"state": state, "user": user})
}

// Logout is the handler for POST /v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	entry := entryFrom(c)
	entry.Store.Logout(c.Request.Context())
	h.Sessions.Close(entry.Store.ID())
	c.JSON(http.StatusOK, gin.H{"message": "Sessão encerrada"})
}

// RegisterInput defines the JSON input for resident/admin signup.
type RegisterInput struct {
	Name      string          `json:"name" binding:"required"`
	Email     string          `json:"email" binding:"required,email"`
	Password  string          `json:"password" binding:"required,min=8"`
	Role      models.UserRole `json:"role" binding:"required"`
	Unit      string          `json:"unit"`
	CondoName string          `json:"condoName"`
}

// Register is the handler for POST /v1/auth/register
// The identity service copies the metadata into the profiles
// collection on confirmation.
func (h *Handlers) Register(c *gin.Context) {
	if h.Probe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend não configurado"})
		return
	}

	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	condoID := input.CondoName
	if condoID == "" {
		condoID = "condo1"
	}
	metadata := map[string]any{
		"name":     input.Name,
		"role":     input.Role,
		"unit":     input.Unit,
		"condo_id": condoID,
	}
	if err := h.Probe.SignUp(c.Request.Context(), input.Email, input.Password, metadata); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Cadastro criado. Verifique seu e-mail para confirmar a conta.",
	})
}

// ResetPasswordInput defines the JSON input for a reset request.
type ResetPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPassword is the handler for POST /v1/auth/reset-password
func (h *Handlers) ResetPassword(c *gin.Context) {
	if h.Probe == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend não configurado"})
		return
	}

	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Probe.ResetPassword(c.Request.Context(), input.Email); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "E-mail de redefinição enviado, se a conta existir."})
}

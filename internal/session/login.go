package session

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

// ErrorKind classifies a login failure so the UI can say the right
// thing: re-enter the password, check your inbox, check connectivity —
// different problems, different remediations.
type ErrorKind string

const (
	KindNotConfigured      ErrorKind = "not_configured"
	KindConnectivity       ErrorKind = "connectivity"
	KindTimeout            ErrorKind = "timeout"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindEmailNotVerified   ErrorKind = "email_not_verified"
	KindProfileNotFound    ErrorKind = "profile_not_found"
	KindAccessDenied       ErrorKind = "access_denied"
	KindUnknown            ErrorKind = "unknown"
)

// StepTiming is one entry of the login diagnostic record.
type StepTiming struct {
	Step     string        `json:"step"`
	Duration time.Duration `json:"duration"`
}

// Diagnostics is the structured troubleshooting record captured during
// a login attempt: ordered step timings, where it failed, and the raw
// error. For operators, not for end users.
type Diagnostics struct {
	Steps      []StepTiming `json:"steps"`
	FailedStep string       `json:"failedStep,omitempty"`
	RawError   string       `json:"rawError,omitempty"`
}

// LoginError is a classified login failure with a user-facing message.
type LoginError struct {
	Kind        ErrorKind
	Message     string
	Diagnostics *Diagnostics
	cause       error
}

func (e *LoginError) Error() string { return e.Message }
func (e *LoginError) Unwrap() error { return e.cause }

var (
	errProfileNotFound = errors.New("perfil não encontrado")
	errAccessDenied    = errors.New("acesso negado para o perfil autenticado")
)

// Login performs the credential exchange protocol: clean-slate sign-out
// when (and only when) a session already exists, credential exchange,
// profile resolution, and — for the superAdmin portal — role
// verification that tears the fresh session down on mismatch so no
// privileged-looking session outlives the denial. Each step is timed
// for the diagnostic record. On success the resolved user is published
// to the store; on failure the store is left exactly as it was.
func (s *Store) Login(ctx context.Context, email, password string, role models.UserRole) (*models.User, error) {
	s.mu.Lock()
	if s.loggingIn {
		s.mu.Unlock()
		return nil, &LoginError{Kind: KindUnknown, Message: "Um login já está em andamento."}
	}
	s.loggingIn = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loggingIn = false
		s.mu.Unlock()
	}()

	diag := &Diagnostics{}
	step := func(name string, fn func() error) error {
		start := time.Now()
		err := fn()
		diag.Steps = append(diag.Steps, StepTiming{Step: name, Duration: time.Since(start)})
		if err != nil {
			diag.FailedStep = name
			diag.RawError = err.Error()
		}
		return err
	}

	// Sign out first ONLY when a session actually exists; a redundant
	// sign-out call just adds latency on the critical path.
	var existing *backend.Session
	_ = step("get_session", func() error {
		existing, _ = firstOf(ctx, s.opts.SessionTimeout, s.backend.GetSession)
		return nil
	})
	if existing != nil {
		if err := step("sign_out", func() error { return s.backend.SignOut(ctx) }); err != nil {
			return nil, s.classify(err, diag)
		}
	}

	var sess *backend.Session
	if err := step("sign_in", func() error {
		var err error
		sess, err = s.backend.SignInWithPassword(ctx, email, password)
		if err != nil {
			return err
		}
		if sess == nil {
			return errors.New("resposta de login sem sessão")
		}
		return nil
	}); err != nil {
		return nil, s.classify(err, diag)
	}

	var user *models.User
	if err := step("fetch_profile", func() error {
		u, err := s.fetchProfile(ctx, sess)
		if err != nil {
			return err
		}
		if u == nil {
			return errProfileNotFound
		}
		user = u
		return nil
	}); err != nil {
		return nil, s.classify(err, diag)
	}

	if err := step("role_check", func() error {
		if role != models.RoleSuperAdmin || user.Role == models.RoleSuperAdmin {
			return nil
		}
		// Terminate the just-created session before surfacing the
		// denial: a non-privileged credential pair must not hold a
		// privileged-portal session even transiently.
		_ = s.backend.SignOut(ctx)
		return errAccessDenied
	}); err != nil {
		return nil, s.classify(err, diag)
	}

	s.markers.Mark(ctx, s.id, s.opts.MarkerWindow)
	s.mu.Lock()
	s.user = user
	s.state = StateAuthenticated
	s.mu.Unlock()
	s.signalReady()
	return user, nil
}

// Logout unconditionally clears the marker and the resolved user and
// requests backend sign-out. It does not care what state it starts in.
func (s *Store) Logout(ctx context.Context) {
	s.markers.Clear(ctx, s.id)
	_ = s.backend.SignOut(ctx)
	s.mu.Lock()
	s.user = nil
	s.state = StateUnauthenticated
	s.mu.Unlock()
	s.signalReady()
}

// classify converts a raw failure into a LoginError with a user-facing
// message matching its kind. The raw text is preserved in the
// diagnostics for triage.
func (s *Store) classify(err error, diag *Diagnostics) *LoginError {
	out := &LoginError{Diagnostics: diag, cause: err}
	raw := err.Error()

	var reqErr *backend.RequestError
	switch {
	case errors.Is(err, backend.ErrNotConfigured):
		out.Kind = KindNotConfigured
		out.Message = "Backend não configurado. Defina BACKEND_URL e BACKEND_ANON_KEY."
	case errors.Is(err, errAccessDenied):
		out.Kind = KindAccessDenied
		out.Message = "Acesso negado. Apenas administradores do sistema podem acessar."
	case errors.Is(err, errProfileNotFound):
		out.Kind = KindProfileNotFound
		out.Message = "Perfil não encontrado. Fale com o administrador do seu condomínio."
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		out.Kind = KindTimeout
		out.Message = "O servidor demorou para responder. Se o backend estiver hibernando, aguarde alguns segundos e tente novamente."
	case errors.As(err, &reqErr):
		lower := strings.ToLower(reqErr.Message)
		switch {
		case strings.Contains(lower, "email not confirmed") || strings.Contains(lower, "email_not_confirmed"):
			out.Kind = KindEmailNotVerified
			out.Message = "E-mail não verificado. Verifique sua caixa de entrada e confirme o cadastro."
		case strings.Contains(lower, "invalid login credentials") ||
			strings.Contains(lower, "invalid_credentials") ||
			reqErr.Status == http.StatusBadRequest ||
			reqErr.Status == http.StatusUnauthorized:
			out.Kind = KindInvalidCredentials
			out.Message = "E-mail ou senha incorretos. Tente novamente."
		default:
			out.Kind = KindUnknown
			out.Message = raw
		}
	case isConnectivity(raw):
		out.Kind = KindConnectivity
		out.Message = "Erro de conexão com o servidor. Verifique sua internet e a disponibilidade do backend."
	default:
		out.Kind = KindUnknown
		out.Message = raw
	}
	return out
}

func isConnectivity(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range []string{
		"connection refused",
		"no such host",
		"network is unreachable",
		"failed to fetch",
		"i/o timeout",
		"eof",
	} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

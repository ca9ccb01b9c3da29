// Package billing bridges licenses to the external payment provider.
// The provider itself is never called directly: a server-side function
// at the backend owns the provider credentials and this bridge only
// invokes it and records what came back.
package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/auth"
	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

const createChargeFunction = "asaas-create-cobranca"

// The provider plus the email relay behind the function can be slow;
// give the invocation a budget to match.
const invokeTimeout = 2 * time.Minute

// Kind separates the two failure families the caller must treat
// differently: an authorization failure means "log in again", a
// provider failure means "try again / read the provider message".
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindProvider      Kind = "provider"
)

// Error is a classified charge-creation failure.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.cause }

// Backend is the slice of the remote client the bridge needs.
type Backend interface {
	GetSession(ctx context.Context) (*backend.Session, error)
	Invoke(ctx context.Context, name string, payload any) (map[string]any, error)
	SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]backend.Row, error)
}

// Bridge invokes the payment-provider function and reads the resulting
// charge records.
type Bridge struct {
	backend Backend
}

func NewBridge(b Backend) *Bridge {
	return &Bridge{backend: b}
}

// ChargeResult is what a successful charge creation returns.
type ChargeResult struct {
	Success        bool   `json:"success"`
	AsaasPaymentID string `json:"asaasPaymentId,omitempty"`
	InvoiceURL     string `json:"invoiceUrl,omitempty"`
	DueDate        string `json:"dueDate,omitempty"`
	EmailSent      bool   `json:"emailSent"`
	Message        string `json:"message"`
}

// CreateCharge asks the provider function to bill a license. The
// session is refreshed first so we never ship an expired token, and
// the token's own expiry claim is checked on top — a stale token is an
// authorization failure (prompt re-login), never a provider one.
func (b *Bridge) CreateCharge(ctx context.Context, licenseID string, sendEmail bool) (*ChargeResult, error) {
	sess, err := b.backend.GetSession(ctx)
	if err != nil {
		return nil, &Error{Kind: KindAuthorization, Message: "Não foi possível validar sua sessão. Faça login novamente.", cause: err}
	}
	if sess == nil {
		return nil, &Error{Kind: KindAuthorization, Message: "Você precisa estar logado para gerar boletos."}
	}
	if auth.TokenExpired(sess.AccessToken, 10*time.Second) {
		return nil, &Error{Kind: KindAuthorization, Message: "Sua sessão expirou. Faça login novamente."}
	}

	ctx, cancel := context.WithTimeout(ctx, invokeTimeout)
	defer cancel()

	payload := map[string]any{
		"licenseId": licenseID,
		"sendEmail": sendEmail,
		"createdBy": sess.UserID,
	}
	data, err := b.backend.Invoke(ctx, createChargeFunction, payload)
	if err != nil {
		return nil, classifyInvoke(err)
	}

	result := &ChargeResult{
		Success: true,
		Message: "Boleto gerado com sucesso.",
	}
	if v, ok := data["success"].(bool); ok {
		result.Success = v
	}
	if v, ok := data["asaasPaymentId"].(string); ok {
		result.AsaasPaymentID = v
	}
	if v, ok := data["invoiceUrl"].(string); ok {
		result.InvoiceURL = v
	}
	if v, ok := data["dueDate"].(string); ok {
		result.DueDate = v
	}
	if v, ok := data["emailSent"].(bool); ok {
		result.EmailSent = v
	}
	if v, ok := data["message"].(string); ok && v != "" {
		result.Message = v
	}
	return result, nil
}

// ChargesByLicense reads a license's charge records, newest first.
func (b *Bridge) ChargesByLicense(ctx context.Context, licenseID string) ([]*models.Charge, error) {
	rows, err := b.backend.SelectRows(ctx, "license_charges", map[string]string{"license_id": licenseID}, "created_at.desc")
	if err != nil {
		return nil, err
	}
	out := make([]*models.Charge, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.ChargeFromRow(row))
	}
	return out, nil
}

func classifyInvoke(err error) *Error {
	if errors.Is(err, backend.ErrNoSession) {
		return &Error{Kind: KindAuthorization, Message: "Você precisa estar logado para gerar boletos.", cause: err}
	}

	var fnErr *backend.FunctionError
	if errors.As(err, &fnErr) {
		if fnErr.Unauthorized() {
			return &Error{Kind: KindAuthorization, Message: "Sua sessão expirou ou não tem permissão. Faça login novamente.", cause: err}
		}
		msg := fnErr.Message
		if msg == "" {
			msg = fmt.Sprintf("O provedor de pagamento recusou a operação (HTTP %d).", fnErr.Status)
		}
		return &Error{Kind: KindProvider, Message: msg, cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{
			Kind:    KindProvider,
			Message: "A requisição demorou muito. O boleto pode ter sido criado – verifique no provedor ou tente novamente.",
			cause:   err,
		}
	}
	return &Error{Kind: KindProvider, Message: err.Error(), cause: err}
}

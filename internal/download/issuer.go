// Package download issues the scoped, capped, expiring links that let
// a condo's residents install the app.
package download

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
)

const (
	DefaultMaxUses    = 100
	DefaultExpiryDays = 30
)

// ErrNotFound is returned when no link matches the given id.
var ErrNotFound = errors.New("link de download não encontrado")

// Rows is the slice of the backend client this issuer needs.
type Rows interface {
	SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]backend.Row, error)
	InsertRow(ctx context.Context, table string, values backend.Row) (backend.Row, error)
	UpdateRows(ctx context.Context, table string, filters map[string]string, values backend.Row) ([]backend.Row, error)
}

// Issuer creates and manages download links. BaseURL is the public
// portal origin the links point at.
type Issuer struct {
	rows    Rows
	baseURL string
}

func NewIssuer(rows Rows, baseURL string) *Issuer {
	return &Issuer{rows: rows, baseURL: strings.TrimRight(baseURL, "/")}
}

// GenerateInput parameterizes a new link. Zero MaxUses/ExpiryDays take
// the defaults (100 uses, 30 days).
type GenerateInput struct {
	LicenseID  string
	CondoID    string
	Platform   models.Platform
	MaxUses    int
	ExpiryDays int
	CreatedBy  string
}

// Generate issues a link with an unguessable opaque token. The token
// must be practically impossible to collide or enumerate; 16 random
// bytes cover both.
func (i *Issuer) Generate(ctx context.Context, input GenerateInput) (*models.DownloadLink, error) {
	if !models.ValidPlatform(input.Platform) {
		return nil, fmt.Errorf("plataforma inválida: %q", input.Platform)
	}
	if input.MaxUses <= 0 {
		input.MaxUses = DefaultMaxUses
	}
	if input.ExpiryDays <= 0 {
		input.ExpiryDays = DefaultExpiryDays
	}
	if input.CreatedBy == "" {
		input.CreatedBy = "system"
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("gerar token: %w", err)
	}
	expiresAt := time.Now().AddDate(0, 0, input.ExpiryDays)

	query := url.Values{}
	query.Set("token", token)
	query.Set("license", input.LicenseID)
	query.Set("platform", string(input.Platform))
	downloadURL := fmt.Sprintf("%s/download?%s", i.baseURL, query.Encode())

	values := backend.Row{
		"license_id":   input.LicenseID,
		"condo_id":     input.CondoID,
		"link_token":   token,
		"download_url": downloadURL,
		"platform":     string(input.Platform),
		"expires_at":   expiresAt.UTC().Format(time.RFC3339),
		"max_uses":     input.MaxUses,
		"current_uses": 0,
		"is_active":    true,
		"created_by":   input.CreatedBy,
	}

	row, err := i.rows.InsertRow(ctx, "download_links", values)
	if err != nil {
		return nil, fmt.Errorf("criar link de download: %w", err)
	}
	return models.DownloadLinkFromRow(row), nil
}

// List returns a license's links, newest first.
func (i *Issuer) List(ctx context.Context, licenseID string) ([]*models.DownloadLink, error) {
	rows, err := i.rows.SelectRows(ctx, "download_links", map[string]string{"license_id": licenseID}, "created_at.desc")
	if err != nil {
		return nil, err
	}
	out := make([]*models.DownloadLink, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.DownloadLinkFromRow(row))
	}
	return out, nil
}

// Revoke deactivates a link.
func (i *Issuer) Revoke(ctx context.Context, linkID string) error {
	return i.setActive(ctx, linkID, false)
}

// Reactivate re-enables a link. Usage count and expiry are NOT reset;
// a link that ran out stays ran out.
func (i *Issuer) Reactivate(ctx context.Context, linkID string) error {
	return i.setActive(ctx, linkID, true)
}

func (i *Issuer) setActive(ctx context.Context, linkID string, active bool) error {
	rows, err := i.rows.UpdateRows(ctx, "download_links", map[string]string{"id": linkID}, backend.Row{"is_active": active})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return ErrNotFound
	}
	return nil
}

// newToken builds the opaque link token: a DL- prefix for log
// greppability plus 128 bits from crypto/rand.
func newToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "DL-" + strings.ToUpper(hex.EncodeToString(raw)), nil
}

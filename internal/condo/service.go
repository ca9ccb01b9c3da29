// Package condo manages the condominium directory. A condo's id is a
// human-chosen slug, fixed at creation.
package condo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ruhancpereira/conectacond.site/internal/backend"
	"github.com/Ruhancpereira/conectacond.site/internal/models"
	"github.com/gosimple/slug"
)

// ErrNotFound is returned when no condo matches the given id.
var ErrNotFound = errors.New("condomínio não encontrado")

// Rows is the slice of the backend client this service needs.
type Rows interface {
	SelectRows(ctx context.Context, table string, filters map[string]string, order string) ([]backend.Row, error)
	SelectRow(ctx context.Context, table string, filters map[string]string) (backend.Row, error)
	InsertRow(ctx context.Context, table string, values backend.Row) (backend.Row, error)
	UpdateRows(ctx context.Context, table string, filters map[string]string, values backend.Row) ([]backend.Row, error)
	DeleteRows(ctx context.Context, table string, filters map[string]string) error
}

// Service manages condos against the remote row store.
type Service struct {
	rows Rows
}

func NewService(rows Rows) *Service {
	return &Service{rows: rows}
}

// CreateInput describes a new condo. An empty ID derives the slug from
// the name; a provided ID must already be a valid slug.
type CreateInput struct {
	ID         string
	Name       string
	Address    string
	CNPJ       string
	AdminEmail string
}

// Create inserts a condo. The id is normalized to (and validated as) a
// URL-safe slug, because it ends up in download URLs and deep links.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Condo, error) {
	if input.Name == "" {
		return nil, errors.New("nome do condomínio é obrigatório")
	}

	id := input.ID
	if id == "" {
		id = slug.Make(input.Name)
	} else if !slug.IsSlug(id) {
		return nil, fmt.Errorf("id %q não é um slug válido (use algo como %q)", id, slug.Make(id))
	}

	values := backend.Row{
		"id":          id,
		"name":        input.Name,
		"address":     input.Address,
		"admin_email": input.AdminEmail,
		"is_active":   true,
		"total_units": 0,
	}
	if input.CNPJ != "" {
		values["cnpj"] = input.CNPJ
	}

	row, err := s.rows.InsertRow(ctx, "condos", values)
	if err != nil {
		return nil, fmt.Errorf("criar condomínio: %w", err)
	}
	return models.CondoFromRow(row), nil
}

// UpdateFields is a sparse condo update. The id itself is immutable.
type UpdateFields struct {
	Name       *string
	Address    *string
	CNPJ       *string
	AdminEmail *string
	AdminID    *string
	SubAdminID *string
	TotalUnits *int
	IsActive   *bool
}

// Update applies a sparse update and returns the stored condo.
func (s *Service) Update(ctx context.Context, id string, fields UpdateFields) (*models.Condo, error) {
	values := backend.Row{}
	if fields.Name != nil {
		values["name"] = *fields.Name
	}
	if fields.Address != nil {
		values["address"] = *fields.Address
	}
	if fields.CNPJ != nil {
		values["cnpj"] = *fields.CNPJ
	}
	if fields.AdminEmail != nil {
		values["admin_email"] = *fields.AdminEmail
	}
	if fields.AdminID != nil {
		values["admin_id"] = *fields.AdminID
	}
	if fields.SubAdminID != nil {
		values["sub_admin_id"] = *fields.SubAdminID
	}
	if fields.TotalUnits != nil {
		values["total_units"] = *fields.TotalUnits
	}
	if fields.IsActive != nil {
		values["is_active"] = *fields.IsActive
	}
	if len(values) == 0 {
		return s.GetByID(ctx, id)
	}

	rows, err := s.rows.UpdateRows(ctx, "condos", map[string]string{"id": id}, values)
	if err != nil {
		return nil, fmt.Errorf("atualizar condomínio: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return models.CondoFromRow(rows[0]), nil
}

// GetAll lists every condo ordered by name.
func (s *Service) GetAll(ctx context.Context) ([]*models.Condo, error) {
	rows, err := s.rows.SelectRows(ctx, "condos", nil, "name")
	if err != nil {
		return nil, err
	}
	out := make([]*models.Condo, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.CondoFromRow(row))
	}
	return out, nil
}

// GetByID reads one condo, or ErrNotFound.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Condo, error) {
	row, err := s.rows.SelectRow(ctx, "condos", map[string]string{"id": id})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, ErrNotFound
	}
	return models.CondoFromRow(row), nil
}

// Delete removes a condo. The store's referential constraints decide
// whether linked licenses block the delete.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.rows.DeleteRows(ctx, "condos", map[string]string{"id": id})
}

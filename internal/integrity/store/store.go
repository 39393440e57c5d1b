// Package store persists integrity reports. The integrity service is the only
// writer; everything else reads projections through the service.
package store

import (
	"context"

	"github.com/google/uuid"

	"vigil/internal/integrity"
)

// Filter narrows List results. Nil fields mean "any".
type Filter struct {
	Status   *integrity.Status
	Category *integrity.Category
}

// Store is interface-driven so the service stays testable against the
// in-memory implementation while production writes go through postgres.
// Implementations return sentinel.ErrNotFound for unknown ids/tokens.
type Store interface {
	Create(ctx context.Context, report *integrity.Report) error
	FindByID(ctx context.Context, id uuid.UUID) (*integrity.Report, error)
	FindByToken(ctx context.Context, token string) (*integrity.Report, error)
	List(ctx context.Context, filter Filter) ([]*integrity.Report, error)
	Update(ctx context.Context, report *integrity.Report) error
}

package sale

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound indicates the requested sale could not be located.
var ErrNotFound = errors.New("sale not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ListParams controls pagination for sale listings.
type ListParams struct {
	Page    int
	PerPage int
}

// Offset returns the row offset implied by the pagination parameters.
func (p ListParams) Offset() int {
	page := p.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * p.PerPage
}

// Store persists whole Sale aggregates by identifier. Implementations do not
// serialize concurrent read-modify-write cycles for the same sale; callers
// that need that guarantee must arrange it themselves.
type Store interface {
	Save(ctx context.Context, s Sale) (Sale, error)
	FindByID(ctx context.Context, id uuid.UUID) (Sale, error)
	List(ctx context.Context, p ListParams) ([]Sale, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

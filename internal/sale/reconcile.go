package sale

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sales-backoffice/internal/pricing"
)

// ErrNilTargetList is returned when a reconciliation is attempted against a
// nil desired-items list. This is a programmer error, distinct from an empty
// list, which is a business rule failure.
var ErrNilTargetList = errors.New("desired item list is nil")

// ItemInput is one desired line in a reconciliation target list. A nil ID
// marks a line the caller considers new.
type ItemInput struct {
	ID        *uuid.UUID
	ProductID string
	Qty       int
	UnitPrice pricing.Money
}

// ReconcileInput carries the desired state for a sale. CustomerID and
// BranchID only overwrite the existing values when non-empty.
type ReconcileInput struct {
	CustomerID string
	BranchID   string
	Items      []ItemInput
}

// Reconcile converges the existing sale's item collection toward the desired
// list, then validates and re-prices the result. Items are matched by
// identity only, never by product: existing items absent from the target
// list are removed, matched identifiers are overwritten in place keeping
// their identity and CreatedAt, and the rest become fresh inserts.
//
// The function never mutates existing; it assembles a candidate copy and
// returns it fully priced, so a business rule failure leaves no partial
// state behind. Duplicate identifiers in the target list are not
// deduplicated; the last entry wins.
func Reconcile(existing Sale, in ReconcileInput, now time.Time, newID func() uuid.UUID) (Sale, error) {
	if in.Items == nil {
		return Sale{}, ErrNilTargetList
	}
	if newID == nil {
		newID = uuid.New
	}

	known := make(map[uuid.UUID]struct{}, len(existing.Items))
	for _, it := range existing.Items {
		known[it.ID] = struct{}{}
	}

	updates := make(map[uuid.UUID]ItemInput)
	var inserts []ItemInput
	for _, want := range in.Items {
		if want.ID != nil {
			if _, ok := known[*want.ID]; ok {
				updates[*want.ID] = want
				continue
			}
			// An incoming identifier with no matching item is treated as an
			// insert: the supplied identity is discarded and a fresh one
			// assigned. A client retrying with a stale identifier therefore
			// silently duplicates the line instead of getting an error.
			inserts = append(inserts, want)
			continue
		}
		inserts = append(inserts, want)
	}

	next := existing.Clone()
	items := make([]Item, 0, len(updates)+len(inserts))
	for _, it := range next.Items {
		want, keep := updates[it.ID]
		if !keep {
			// Removal pass: identity absent from the target list.
			continue
		}
		it.ProductID = want.ProductID
		it.Qty = want.Qty
		it.UnitPrice = want.UnitPrice
		items = append(items, it)
	}
	for _, want := range inserts {
		items = append(items, Item{
			ID:        newID(),
			ProductID: want.ProductID,
			Qty:       want.Qty,
			UnitPrice: want.UnitPrice,
			CreatedAt: now,
		})
	}
	next.Items = items

	if v := strings.TrimSpace(in.CustomerID); v != "" {
		next.CustomerID = v
	}
	if v := strings.TrimSpace(in.BranchID); v != "" {
		next.BranchID = v
	}

	if err := pricing.Validate(next.Lines()); err != nil {
		return Sale{}, err
	}
	next.applyQuote(pricing.Price(next.Lines()))
	next.UpdatedAt = now
	return next, nil
}

package pricing

import (
	"errors"
	"fmt"
)

// Money represents a monetary value stored in minor units.
type Money = int64

const (
	// MaxItemsPerSale caps how many line items a sale may carry.
	MaxItemsPerSale = 20
	// MaxQtyPerItem caps the quantity of a single line item.
	MaxQtyPerItem = 20

	upperTierMinQty  = 10
	upperTierPercent = 20
	lowerTierMinQty  = 4
	lowerTierPercent = 10
)

var (
	// ErrNoItems indicates a sale with an empty item collection.
	ErrNoItems = errors.New("sale has no items")
	// ErrTooManyItems indicates the item count exceeds MaxItemsPerSale.
	ErrTooManyItems = errors.New("sale exceeds maximum item count")
	// ErrQtyOutOfRange indicates an item quantity outside of (0, MaxQtyPerItem].
	ErrQtyOutOfRange = errors.New("item quantity out of range")
	// ErrPriceNotPositive indicates an item with a zero or negative unit price.
	ErrPriceNotPositive = errors.New("item unit price must be positive")
)

// Line describes a line item used for pricing calculation.
type Line struct {
	Qty       int
	UnitPrice Money
}

// LineQuote carries the priced breakdown of a single line.
type LineQuote struct {
	Gross    Money
	Percent  int
	Discount Money
	Net      Money
}

// Quote aggregates computed pricing components for a whole sale.
type Quote struct {
	Subtotal    Money
	Discount    Money
	DiscountBps int32
	Total       Money
	Lines       []LineQuote
}

// DiscountPercent returns the discount tier earned by a single line quantity.
// The upper band is checked first, so a quantity of exactly 10 earns 20%.
func DiscountPercent(qty int) int {
	switch {
	case qty >= upperTierMinQty && qty <= MaxQtyPerItem:
		return upperTierPercent
	case qty >= lowerTierMinQty:
		return lowerTierPercent
	default:
		return 0
	}
}

// DiscountAmount computes the discount over a gross line total, rounded
// half-up to the nearest minor unit.
func DiscountAmount(lineTotal Money, percent int) Money {
	if lineTotal <= 0 || percent <= 0 {
		return 0
	}
	return (lineTotal*Money(percent) + 50) / 100
}

// Validate checks the business invariants of an item collection: item count
// in [1, MaxItemsPerSale], every quantity in (0, MaxQtyPerItem] and every
// unit price positive. The first violation wins; nothing is clamped or
// repaired on the caller's behalf.
func Validate(lines []Line) error {
	if len(lines) == 0 {
		return ErrNoItems
	}
	if len(lines) > MaxItemsPerSale {
		return fmt.Errorf("%d items: %w", len(lines), ErrTooManyItems)
	}
	for i, ln := range lines {
		if ln.Qty <= 0 || ln.Qty > MaxQtyPerItem {
			return fmt.Errorf("item %d qty %d: %w", i, ln.Qty, ErrQtyOutOfRange)
		}
		if ln.UnitPrice <= 0 {
			return fmt.Errorf("item %d: %w", i, ErrPriceNotPositive)
		}
	}
	return nil
}

// Valid reports whether the item collection passes Validate.
func Valid(lines []Line) bool {
	return Validate(lines) == nil
}

// IsRuleViolation reports whether err stems from a business rule check.
func IsRuleViolation(err error) bool {
	return errors.Is(err, ErrNoItems) ||
		errors.Is(err, ErrTooManyItems) ||
		errors.Is(err, ErrQtyOutOfRange) ||
		errors.Is(err, ErrPriceNotPositive)
}

// Price computes the full quote for the provided lines. Each line earns the
// tier selected by its own quantity, never by the size of the sale. The
// result is deterministic and the input is never mutated, so pricing the
// same lines twice yields identical quotes. Callers must run Validate first;
// Price assumes the invariants hold.
func Price(lines []Line) Quote {
	q := Quote{Lines: make([]LineQuote, 0, len(lines))}
	for _, ln := range lines {
		gross := Money(ln.Qty) * ln.UnitPrice
		percent := DiscountPercent(ln.Qty)
		discount := DiscountAmount(gross, percent)
		q.Subtotal += gross
		q.Discount += discount
		q.Lines = append(q.Lines, LineQuote{
			Gross:    gross,
			Percent:  percent,
			Discount: discount,
			Net:      gross - discount,
		})
	}
	q.Total = q.Subtotal - q.Discount
	if q.Subtotal > 0 {
		q.DiscountBps = int32((q.Discount*10000 + q.Subtotal/2) / q.Subtotal)
	}
	return q
}

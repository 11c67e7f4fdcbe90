package sale

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sales-backoffice/internal/pricing"
)

// Item is a single product line owned by exactly one Sale. A zero ID marks
// an item that has not been persisted yet.
type Item struct {
	ID         uuid.UUID     `json:"id"`
	ProductID  string        `json:"productId"`
	Qty        int           `json:"qty"`
	UnitPrice  pricing.Money `json:"unitPrice"`
	TotalPrice pricing.Money `json:"totalPrice"`
	Percent    int           `json:"discountPercent"`
	CreatedAt  time.Time     `json:"createdAt"`
}

// Sale is the priced aggregate of line items for one customer/branch
// transaction. Subtotal, Discount, DiscountBps and Total are derived by the
// pricing engine and never set directly by callers.
type Sale struct {
	ID          uuid.UUID     `json:"id"`
	CustomerID  string        `json:"customerId"`
	BranchID    string        `json:"branchId"`
	Items       []Item        `json:"items"`
	Subtotal    pricing.Money `json:"subtotal"`
	Discount    pricing.Money `json:"discountAmount"`
	DiscountBps int32         `json:"discountBps"`
	Total       pricing.Money `json:"total"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Lines projects the item collection into pricing inputs, preserving order.
func (s Sale) Lines() []pricing.Line {
	lines := make([]pricing.Line, 0, len(s.Items))
	for _, it := range s.Items {
		lines = append(lines, pricing.Line{Qty: it.Qty, UnitPrice: it.UnitPrice})
	}
	return lines
}

// Clone returns a deep copy so callers can build a candidate state without
// touching the original aggregate.
func (s Sale) Clone() Sale {
	out := s
	if s.Items != nil {
		out.Items = make([]Item, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// applyQuote stamps the derived fields from a computed quote onto the sale
// and its items. The quote's lines must correspond 1:1 with s.Items.
func (s *Sale) applyQuote(q pricing.Quote) {
	s.Subtotal = q.Subtotal
	s.Discount = q.Discount
	s.DiscountBps = q.DiscountBps
	s.Total = q.Total
	for i := range s.Items {
		s.Items[i].TotalPrice = q.Lines[i].Net
		s.Items[i].Percent = q.Lines[i].Percent
	}
}

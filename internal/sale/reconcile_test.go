package sale_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-backoffice/internal/pricing"
	"github.com/noah-isme/sales-backoffice/internal/sale"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func seedSale(t *testing.T) sale.Sale {
	t.Helper()
	s := sale.Sale{
		ID:         uuid.New(),
		CustomerID: "customer-1",
		BranchID:   "branch-1",
		CreatedAt:  testNow.Add(-time.Hour),
	}
	priced, err := sale.Reconcile(s, sale.ReconcileInput{
		CustomerID: s.CustomerID,
		BranchID:   s.BranchID,
		Items: []sale.ItemInput{
			{ProductID: "product-a", Qty: 2, UnitPrice: 1000},
			{ProductID: "product-b", Qty: 4, UnitPrice: 500},
		},
	}, testNow.Add(-time.Hour), nil)
	require.NoError(t, err)
	return priced
}

func TestReconcileCreate(t *testing.T) {
	s := seedSale(t)
	require.Len(t, s.Items, 2)
	// 2x10.00 with no tier plus 4x5.00 at 10%.
	require.Equal(t, int64(4000), s.Subtotal)
	require.Equal(t, int64(200), s.Discount)
	require.Equal(t, int64(3800), s.Total)
	for _, it := range s.Items {
		require.NotEqual(t, uuid.Nil, it.ID)
		require.False(t, it.CreatedAt.IsZero())
	}
}

func TestReconcileRoundTrip(t *testing.T) {
	s := seedSale(t)
	desired := make([]sale.ItemInput, 0, len(s.Items))
	for _, it := range s.Items {
		id := it.ID
		desired = append(desired, sale.ItemInput{
			ID:        &id,
			ProductID: it.ProductID,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
		})
	}

	next, err := sale.Reconcile(s, sale.ReconcileInput{Items: desired}, testNow, nil)
	require.NoError(t, err)
	require.Len(t, next.Items, len(s.Items))
	for i := range s.Items {
		require.Equal(t, s.Items[i].ID, next.Items[i].ID)
		require.Equal(t, s.Items[i].CreatedAt, next.Items[i].CreatedAt)
		require.Equal(t, s.Items[i].TotalPrice, next.Items[i].TotalPrice)
	}
	require.Equal(t, s.Subtotal, next.Subtotal)
	require.Equal(t, s.Discount, next.Discount)
	require.Equal(t, s.Total, next.Total)
	require.Equal(t, testNow, next.UpdatedAt)
}

func TestReconcileUpdateInsertRemove(t *testing.T) {
	s := seedSale(t)
	keepID := s.Items[1].ID
	removedID := s.Items[0].ID

	next, err := sale.Reconcile(s, sale.ReconcileInput{
		Items: []sale.ItemInput{
			{ID: &keepID, ProductID: s.Items[1].ProductID, Qty: 6, UnitPrice: 500},
			{ProductID: "product-new", Qty: 1, UnitPrice: 750},
		},
	}, testNow, nil)
	require.NoError(t, err)
	require.Len(t, next.Items, 2)

	// Matched identifier keeps identity and creation time but re-prices.
	require.Equal(t, keepID, next.Items[0].ID)
	require.Equal(t, s.Items[1].CreatedAt, next.Items[0].CreatedAt)
	require.Equal(t, 6, next.Items[0].Qty)
	require.Equal(t, int64(2700), next.Items[0].TotalPrice)

	// Unlisted identifier is gone; the new line carries a fresh identity.
	for _, it := range next.Items {
		require.NotEqual(t, removedID, it.ID)
	}
	require.Equal(t, "product-new", next.Items[1].ProductID)
	require.NotEqual(t, uuid.Nil, next.Items[1].ID)
	require.Equal(t, testNow, next.Items[1].CreatedAt)
}

func TestReconcileStaleIdentifierBecomesInsert(t *testing.T) {
	s := seedSale(t)
	stale := uuid.New()
	existingID := s.Items[0].ID

	next, err := sale.Reconcile(s, sale.ReconcileInput{
		Items: []sale.ItemInput{
			{ID: &existingID, ProductID: s.Items[0].ProductID, Qty: s.Items[0].Qty, UnitPrice: s.Items[0].UnitPrice},
			{ID: &stale, ProductID: "product-stale", Qty: 1, UnitPrice: 100},
		},
	}, testNow, nil)
	require.NoError(t, err)
	require.Len(t, next.Items, 2)
	// The supplied identifier is discarded and a fresh one assigned.
	require.NotEqual(t, stale, next.Items[1].ID)
	require.Equal(t, "product-stale", next.Items[1].ProductID)
}

func TestReconcileDuplicateIdentifierLastWins(t *testing.T) {
	s := seedSale(t)
	target := s.Items[0].ID

	next, err := sale.Reconcile(s, sale.ReconcileInput{
		Items: []sale.ItemInput{
			{ID: &target, ProductID: "product-a", Qty: 2, UnitPrice: 1000},
			{ID: &target, ProductID: "product-a", Qty: 5, UnitPrice: 1000},
		},
	}, testNow, nil)
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	require.Equal(t, 5, next.Items[0].Qty)
}

func TestReconcileEmptyTargetRejected(t *testing.T) {
	s := seedSale(t)
	_, err := sale.Reconcile(s, sale.ReconcileInput{Items: []sale.ItemInput{}}, testNow, nil)
	require.ErrorIs(t, err, pricing.ErrNoItems)
}

func TestReconcileNilTargetRejected(t *testing.T) {
	s := seedSale(t)
	_, err := sale.Reconcile(s, sale.ReconcileInput{}, testNow, nil)
	require.ErrorIs(t, err, sale.ErrNilTargetList)
}

func TestReconcileLeavesExistingUntouchedOnFailure(t *testing.T) {
	s := seedSale(t)
	before := s.Clone()

	_, err := sale.Reconcile(s, sale.ReconcileInput{
		Items: []sale.ItemInput{{ProductID: "product-x", Qty: 50, UnitPrice: 100}},
	}, testNow, nil)
	require.ErrorIs(t, err, pricing.ErrQtyOutOfRange)

	require.Equal(t, before.Items, s.Items)
	require.Equal(t, before.Subtotal, s.Subtotal)
	require.Equal(t, before.UpdatedAt, s.UpdatedAt)
}

func TestReconcileTooManyItemsRejected(t *testing.T) {
	s := seedSale(t)
	desired := make([]sale.ItemInput, 0, pricing.MaxItemsPerSale+1)
	for i := 0; i < pricing.MaxItemsPerSale+1; i++ {
		desired = append(desired, sale.ItemInput{ProductID: "product-bulk", Qty: 1, UnitPrice: 100})
	}
	_, err := sale.Reconcile(s, sale.ReconcileInput{Items: desired}, testNow, nil)
	require.ErrorIs(t, err, pricing.ErrTooManyItems)
}

func TestReconcileUpdatesCustomerAndBranch(t *testing.T) {
	s := seedSale(t)
	next, err := sale.Reconcile(s, sale.ReconcileInput{
		CustomerID: "customer-2",
		BranchID:   "branch-9",
		Items:      []sale.ItemInput{{ProductID: "product-a", Qty: 1, UnitPrice: 100}},
	}, testNow, nil)
	require.NoError(t, err)
	require.Equal(t, "customer-2", next.CustomerID)
	require.Equal(t, "branch-9", next.BranchID)

	// Empty values leave the existing references in place.
	again, err := sale.Reconcile(next, sale.ReconcileInput{
		Items: []sale.ItemInput{{ProductID: "product-a", Qty: 1, UnitPrice: 100}},
	}, testNow, nil)
	require.NoError(t, err)
	require.Equal(t, "customer-2", again.CustomerID)
	require.Equal(t, "branch-9", again.BranchID)
}

package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/sales-backoffice/internal/sale"
)

const uniqueViolationCode = "23505"

// PostgresSales persists sale aggregates in PostgreSQL. Save replaces the
// whole aggregate inside a single transaction; there is no optimistic
// concurrency check, so concurrent writers to the same sale last-write-win.
type PostgresSales struct {
	Pool *pgxpool.Pool
}

// Save upserts the sale row and converges its items to the aggregate's
// current collection.
func (r PostgresSales) Save(ctx context.Context, s sale.Sale) (sale.Sale, error) {
	if r.Pool == nil {
		return sale.Sale{}, errors.New("sales repository not configured")
	}
	tx, err := r.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return sale.Sale{}, fmt.Errorf("begin save sale: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `
		INSERT INTO sales (id, customer_id, branch_id, subtotal, discount, discount_bps, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			branch_id = EXCLUDED.branch_id,
			subtotal = EXCLUDED.subtotal,
			discount = EXCLUDED.discount,
			discount_bps = EXCLUDED.discount_bps,
			total = EXCLUDED.total,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.CustomerID, s.BranchID, s.Subtotal, s.Discount, s.DiscountBps, s.Total, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return sale.Sale{}, mapPgError("save sale", err)
	}

	keep := make([]uuid.UUID, 0, len(s.Items))
	for _, it := range s.Items {
		keep = append(keep, it.ID)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM sale_items WHERE sale_id = $1 AND NOT (id = ANY($2))`, s.ID, keep); err != nil {
		return sale.Sale{}, mapPgError("prune sale items", err)
	}

	for pos, it := range s.Items {
		_, err = tx.Exec(ctx, `
			INSERT INTO sale_items (id, sale_id, position, product_id, qty, unit_price, total_price, discount_pct, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO UPDATE SET
				position = EXCLUDED.position,
				product_id = EXCLUDED.product_id,
				qty = EXCLUDED.qty,
				unit_price = EXCLUDED.unit_price,
				total_price = EXCLUDED.total_price,
				discount_pct = EXCLUDED.discount_pct`,
			it.ID, s.ID, pos, it.ProductID, it.Qty, it.UnitPrice, it.TotalPrice, it.Percent, it.CreatedAt)
		if err != nil {
			return sale.Sale{}, mapPgError("save sale item", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return sale.Sale{}, fmt.Errorf("commit save sale: %w", err)
	}
	return s, nil
}

// FindByID loads the whole aggregate, items in stored order.
func (r PostgresSales) FindByID(ctx context.Context, id uuid.UUID) (sale.Sale, error) {
	if r.Pool == nil {
		return sale.Sale{}, errors.New("sales repository not configured")
	}
	var s sale.Sale
	err := r.Pool.QueryRow(ctx, `
		SELECT id, customer_id, branch_id, subtotal, discount, discount_bps, total, created_at, updated_at
		FROM sales WHERE id = $1`, id).
		Scan(&s.ID, &s.CustomerID, &s.BranchID, &s.Subtotal, &s.Discount, &s.DiscountBps, &s.Total, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sale.Sale{}, sale.ErrNotFound
		}
		return sale.Sale{}, fmt.Errorf("find sale: %w", err)
	}
	items, err := r.loadItems(ctx, id)
	if err != nil {
		return sale.Sale{}, err
	}
	s.Items = items
	return s, nil
}

// List returns a page of sales ordered by creation time, newest first.
func (r PostgresSales) List(ctx context.Context, p sale.ListParams) ([]sale.Sale, int64, error) {
	if r.Pool == nil {
		return nil, 0, errors.New("sales repository not configured")
	}
	var total int64
	if err := r.Pool.QueryRow(ctx, `SELECT count(*) FROM sales`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sales: %w", err)
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT id, customer_id, branch_id, subtotal, discount, discount_bps, total, created_at, updated_at
		FROM sales ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`, p.PerPage, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()

	sales := make([]sale.Sale, 0, p.PerPage)
	for rows.Next() {
		var s sale.Sale
		if err := rows.Scan(&s.ID, &s.CustomerID, &s.BranchID, &s.Subtotal, &s.Discount, &s.DiscountBps, &s.Total, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan sale: %w", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list sales: %w", err)
	}
	for i := range sales {
		items, err := r.loadItems(ctx, sales[i].ID)
		if err != nil {
			return nil, 0, err
		}
		sales[i].Items = items
	}
	return sales, total, nil
}

// Delete removes a sale and, via cascade, its items.
func (r PostgresSales) Delete(ctx context.Context, id uuid.UUID) error {
	if r.Pool == nil {
		return errors.New("sales repository not configured")
	}
	tag, err := r.Pool.Exec(ctx, `DELETE FROM sales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sale.ErrNotFound
	}
	return nil
}

func (r PostgresSales) loadItems(ctx context.Context, saleID uuid.UUID) ([]sale.Item, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT id, product_id, qty, unit_price, total_price, discount_pct, created_at
		FROM sale_items WHERE sale_id = $1 ORDER BY position`, saleID)
	if err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()

	var items []sale.Item
	for rows.Next() {
		var it sale.Item
		if err := rows.Scan(&it.ID, &it.ProductID, &it.Qty, &it.UnitPrice, &it.TotalPrice, &it.Percent, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan sale item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sale items: %w", err)
	}
	return items, nil
}

func mapPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return fmt.Errorf("%s: duplicate identifier: %w", op, sale.ErrInvalidInput)
	}
	return fmt.Errorf("%s: %w", op, err)
}

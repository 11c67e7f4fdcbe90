package sale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/sales-backoffice/internal/common"
	"github.com/noah-isme/sales-backoffice/internal/lock"
	"github.com/noah-isme/sales-backoffice/internal/obs"
	"github.com/noah-isme/sales-backoffice/internal/pricing"
)

// Service orchestrates sale operations: it resolves the current aggregate,
// hands it to the reconciler and persists the priced result. The engine
// itself is pure; updates against the same sale identifier are serialized
// through Lock when one is configured, otherwise last write wins.
type Service struct {
	Store  Store
	Cache  *Cache
	Lock   *lock.Locker
	Logger zerolog.Logger
	Now    func() time.Time
	NewID  func() uuid.UUID
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) newID() uuid.UUID {
	if s != nil && s.NewID != nil {
		return s.NewID()
	}
	return uuid.New()
}

// Create builds, prices and persists a new sale from the desired item list.
func (s *Service) Create(ctx context.Context, in ReconcileInput) (Sale, error) {
	if s == nil || s.Store == nil {
		return Sale{}, errors.New("sale service not configured")
	}
	now := s.now()
	draft := Sale{ID: s.newID(), CreatedAt: now}
	priced, err := Reconcile(draft, in, now, s.NewID)
	if err != nil {
		s.countFailure("create", err)
		return Sale{}, err
	}
	saved, err := s.Store.Save(ctx, priced)
	if err != nil {
		obs.CountReconcile("create", "store_error")
		return Sale{}, common.Internal("persist sale", err)
	}
	obs.CountReconcile("create", "ok")
	s.refreshCache(ctx, saved)
	return saved, nil
}

// Update reconciles an existing sale against the desired item list. The
// stored sale remains untouched when any business rule fails.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ReconcileInput) (Sale, error) {
	if s == nil || s.Store == nil {
		return Sale{}, errors.New("sale service not configured")
	}
	var out Sale
	err := s.withSaleLock(ctx, id, func(ctx context.Context) error {
		existing, err := s.Store.FindByID(ctx, id)
		if err != nil {
			return err
		}
		priced, err := Reconcile(existing, in, s.now(), s.NewID)
		if err != nil {
			s.countFailure("update", err)
			return err
		}
		saved, err := s.Store.Save(ctx, priced)
		if err != nil {
			obs.CountReconcile("update", "store_error")
			return common.Internal("persist sale", err)
		}
		obs.CountReconcile("update", "ok")
		s.refreshCache(ctx, saved)
		out = saved
		return nil
	})
	if err != nil {
		return Sale{}, err
	}
	return out, nil
}

func (s *Service) withSaleLock(ctx context.Context, id uuid.UUID, fn func(context.Context) error) error {
	if s.Lock == nil || s.Lock.Client == nil {
		return fn(ctx)
	}
	return s.Lock.WithLock(ctx, lock.SaleKey(id), 10*time.Second, fn)
}

// Get returns a sale by identifier, serving from the cache when possible.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	if s == nil || s.Store == nil {
		return Sale{}, errors.New("sale service not configured")
	}
	if cached, ok, err := s.Cache.Get(ctx, id); err == nil && ok {
		return cached, nil
	} else if err != nil {
		s.Logger.Warn().Err(err).Str("sale_id", id.String()).Msg("sale cache read failed")
	}
	found, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return Sale{}, err
	}
	if err := s.Cache.Set(ctx, found); err != nil {
		s.Logger.Warn().Err(err).Str("sale_id", id.String()).Msg("sale cache write failed")
	}
	return found, nil
}

// List returns a page of sales plus the total count.
func (s *Service) List(ctx context.Context, p ListParams) ([]Sale, int64, error) {
	if s == nil || s.Store == nil {
		return nil, 0, errors.New("sale service not configured")
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = 20
	}
	return s.Store.List(ctx, p)
}

// Delete removes a sale by identifier.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.Store == nil {
		return errors.New("sale service not configured")
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Cache.Drop(ctx, id); err != nil {
		s.Logger.Warn().Err(err).Str("sale_id", id.String()).Msg("sale cache drop failed")
	}
	return nil
}

func (s *Service) refreshCache(ctx context.Context, saved Sale) {
	if err := s.Cache.Set(ctx, saved); err != nil {
		s.Logger.Warn().Err(err).Str("sale_id", saved.ID.String()).Msg("sale cache write failed")
	}
}

func (s *Service) countFailure(op string, err error) {
	if !pricing.IsRuleViolation(err) {
		obs.CountReconcile(op, "invalid_input")
		return
	}
	obs.CountReconcile(op, "rule_violation")
	obs.CountRuleViolation(ruleName(err))
}

func ruleName(err error) string {
	switch {
	case errors.Is(err, pricing.ErrNoItems):
		return "no_items"
	case errors.Is(err, pricing.ErrTooManyItems):
		return "too_many_items"
	case errors.Is(err, pricing.ErrQtyOutOfRange):
		return "qty_out_of_range"
	case errors.Is(err, pricing.ErrPriceNotPositive):
		return "price_not_positive"
	default:
		return "unknown"
	}
}

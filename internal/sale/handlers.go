package sale

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/sales-backoffice/internal/common"
	"github.com/noah-isme/sales-backoffice/internal/pricing"
)

// Handler exposes sale management endpoints. Structural validation of the
// payload happens here, before the reconciler runs; the engine's own
// business rules are enforced downstream and surface as 422.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type itemPayload struct {
	ID        *string `json:"id" validate:"omitempty,uuid4"`
	ProductID string  `json:"productId" validate:"required"`
	Qty       int     `json:"qty"`
	UnitPrice int64   `json:"unitPrice"`
}

type createPayload struct {
	CustomerID string        `json:"customerId" validate:"required"`
	BranchID   string        `json:"branchId" validate:"required"`
	Items      []itemPayload `json:"items" validate:"required,dive"`
}

type updatePayload struct {
	CustomerID string        `json:"customerId"`
	BranchID   string        `json:"branchId"`
	Items      []itemPayload `json:"items" validate:"required,dive"`
}

// ItemView is the wire representation of a priced line item.
type ItemView struct {
	ID                 string    `json:"id"`
	ProductID          string    `json:"productId"`
	Qty                int       `json:"qty"`
	UnitPrice          int64     `json:"unitPrice"`
	TotalPrice         int64     `json:"totalPrice"`
	DiscountPercentage float64   `json:"discountPercentage"`
	CreatedAt          time.Time `json:"createdAt"`
}

// SaleView is the wire representation of a priced sale.
type SaleView struct {
	ID                 string     `json:"id"`
	CustomerID         string     `json:"customerId"`
	BranchID           string     `json:"branchId"`
	Items              []ItemView `json:"items"`
	Subtotal           int64      `json:"subtotal"`
	DiscountAmount     int64      `json:"discountAmount"`
	DiscountPercentage float64    `json:"discountPercentage"`
	Total              int64      `json:"total"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// View converts a sale aggregate into its wire representation.
func View(s Sale) SaleView {
	items := make([]ItemView, 0, len(s.Items))
	for _, it := range s.Items {
		items = append(items, ItemView{
			ID:                 it.ID.String(),
			ProductID:          it.ProductID,
			Qty:                it.Qty,
			UnitPrice:          it.UnitPrice,
			TotalPrice:         it.TotalPrice,
			DiscountPercentage: float64(it.Percent),
			CreatedAt:          it.CreatedAt,
		})
	}
	return SaleView{
		ID:                 s.ID.String(),
		CustomerID:         s.CustomerID,
		BranchID:           s.BranchID,
		Items:              items,
		Subtotal:           s.Subtotal,
		DiscountAmount:     s.Discount,
		DiscountPercentage: float64(s.DiscountBps) / 100,
		Total:              s.Total,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// Create handles POST /sales.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	var payload createPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	in, err := toInput(payload.CustomerID, payload.BranchID, payload.Items)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	created, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": View(created)})
}

// Update handles PUT /sales/{saleId}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "saleId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := h.validate(payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	in, err := toInput(payload.CustomerID, payload.BranchID, payload.Items)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	updated, err := h.Svc.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": View(updated)})
}

// Get handles GET /sales/{saleId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "saleId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	found, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": View(found)})
}

// List handles GET /sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	sales, total, err := h.Svc.List(r.Context(), ListParams{Page: page, PerPage: perPage})
	if err != nil {
		writeError(w, err)
		return
	}
	views := make([]SaleView, 0, len(sales))
	for _, s := range sales {
		views = append(views, View(s))
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": views,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    perPage,
			TotalItems: int(total),
		},
	})
}

// Delete handles DELETE /sales/{saleId}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "sale service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "saleId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid sale id", nil)
		return
	}
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) validate(payload any) error {
	if h.Validate == nil {
		return nil
	}
	return h.Validate.Struct(payload)
}

func toInput(customerID, branchID string, items []itemPayload) (ReconcileInput, error) {
	in := ReconcileInput{
		CustomerID: customerID,
		BranchID:   branchID,
		Items:      make([]ItemInput, 0, len(items)),
	}
	for _, item := range items {
		want := ItemInput{
			ProductID: item.ProductID,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
		}
		if item.ID != nil && *item.ID != "" {
			parsed, err := uuid.Parse(*item.ID)
			if err != nil {
				return ReconcileInput{}, errors.New("invalid item id: " + *item.ID)
			}
			want.ID = &parsed
		}
		in.Items = append(in.Items, want)
	}
	return in, nil
}

func writeError(w http.ResponseWriter, err error) {
	var app *common.AppError
	switch {
	case errors.As(err, &app):
		common.JSONError(w, app.HTTPStatus, app.Code, app.Message, app.Details)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
	case errors.Is(err, ErrNilTargetList), errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case pricing.IsRuleViolation(err):
		common.JSONError(w, http.StatusUnprocessableEntity, "BUSINESS_RULE_VIOLATION", err.Error(), map[string]any{
			"rule": ruleName(err),
		})
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error", nil)
	}
}

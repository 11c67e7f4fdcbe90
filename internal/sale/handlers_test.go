package sale_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sales-backoffice/internal/repo"
	"github.com/noah-isme/sales-backoffice/internal/sale"
)

func newRouter(t *testing.T) (chi.Router, *sale.Service) {
	t.Helper()
	svc := newService(repo.NewMemorySales())
	h := &sale.Handler{Svc: svc, Validate: validator.New()}

	r := chi.NewRouter()
	r.Route("/api/v1/sales", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{saleId}", h.Get)
		r.Put("/{saleId}", h.Update)
		r.Delete("/{saleId}", h.Delete)
	})
	return r, svc
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeSale(t *testing.T, rec *httptest.ResponseRecorder) sale.SaleView {
	t.Helper()
	var envelope struct {
		Data sale.SaleView `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestHandlerCreate(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
		"customerId": "customer-1",
		"branchId":   "branch-1",
		"items": []map[string]any{
			{"productId": "product-a", "qty": 15, "unitPrice": 200},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	view := decodeSale(t, rec)
	require.Equal(t, int64(3000), view.Subtotal)
	require.Equal(t, int64(600), view.DiscountAmount)
	require.Equal(t, int64(2400), view.Total)
	require.InDelta(t, 20.0, view.DiscountPercentage, 0.001)
	require.Len(t, view.Items, 1)
	require.InDelta(t, 20.0, view.Items[0].DiscountPercentage, 0.001)
}

func TestHandlerCreateValidation(t *testing.T) {
	r, _ := newRouter(t)

	// Missing customerId fails structural validation before the engine runs.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
		"branchId": "branch-1",
		"items": []map[string]any{
			{"productId": "product-a", "qty": 1, "unitPrice": 100},
		},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestHandlerCreateRuleViolation(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
		"customerId": "customer-1",
		"branchId":   "branch-1",
		"items": []map[string]any{
			{"productId": "product-a", "qty": 21, "unitPrice": 100},
		},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var envelope struct {
		Error struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Equal(t, "BUSINESS_RULE_VIOLATION", envelope.Error.Code)
	require.Equal(t, "qty_out_of_range", envelope.Error.Details["rule"])
}

func TestHandlerGetNotFound(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/sales/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")
}

func TestHandlerGetInvalidID(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodGet, "/api/v1/sales/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerUpdateReconciles(t *testing.T) {
	r, _ := newRouter(t)

	created := decodeSale(t, doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
		"customerId": "customer-1",
		"branchId":   "branch-1",
		"items": []map[string]any{
			{"productId": "product-a", "qty": 2, "unitPrice": 1000},
			{"productId": "product-b", "qty": 4, "unitPrice": 500},
		},
	}))

	keepID := created.Items[0].ID
	rec := doJSON(t, r, http.MethodPut, "/api/v1/sales/"+created.ID, map[string]any{
		"items": []map[string]any{
			{"id": keepID, "productId": "product-a", "qty": 10, "unitPrice": 1000},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	view := decodeSale(t, rec)
	require.Len(t, view.Items, 1)
	require.Equal(t, keepID, view.Items[0].ID)
	require.Equal(t, 10, view.Items[0].Qty)
	require.Equal(t, int64(8000), view.Total)
	require.Equal(t, created.CustomerID, view.CustomerID)
}

func TestHandlerUpdateNotFound(t *testing.T) {
	r, _ := newRouter(t)

	rec := doJSON(t, r, http.MethodPut, "/api/v1/sales/"+uuid.NewString(), map[string]any{
		"items": []map[string]any{
			{"productId": "product-a", "qty": 1, "unitPrice": 100},
		},
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerListEnvelope(t *testing.T) {
	r, _ := newRouter(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
			"customerId": "customer-1",
			"branchId":   "branch-1",
			"items": []map[string]any{
				{"productId": "product-a", "qty": 1, "unitPrice": 100},
			},
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, r, http.MethodGet, "/api/v1/sales?page=1&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "3", rec.Header().Get("X-Total-Count"))

	var envelope struct {
		Data       []sale.SaleView `json:"data"`
		Pagination struct {
			Page       int `json:"page"`
			PerPage    int `json:"per_page"`
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 2)
	require.Equal(t, 3, envelope.Pagination.TotalItems)
}

func TestHandlerDelete(t *testing.T) {
	r, _ := newRouter(t)

	created := decodeSale(t, doJSON(t, r, http.MethodPost, "/api/v1/sales", map[string]any{
		"customerId": "customer-1",
		"branchId":   "branch-1",
		"items": []map[string]any{
			{"productId": "product-a", "qty": 1, "unitPrice": 100},
		},
	}))

	rec := doJSON(t, r, http.MethodDelete, "/api/v1/sales/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, r, http.MethodGet, "/api/v1/sales/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

package orders

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/threadline/storefront/internal/domain"
)

func newTestHandler(t *testing.T) (*Handler, *fakeStore) {
	t.Helper()

	svc, store := newTestService(0)
	handler, err := NewHandler(svc, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return handler, store
}

func TestHandler_HandleCreate(t *testing.T) {
	t.Run("creates an order", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		body := `{
			"email": "a@b.com", "first_name": "Ada", "last_name": "Lovelace",
			"phone": "+1-555-0100", "address": "1 Analytical Way", "city": "London",
			"state": "LDN", "zip_code": "E1 6AN", "country": "UK",
			"total_amount": "59.98",
			"items": [{"product_id": 1, "quantity": 2, "size": "M", "price": "29.99"}]
		}`
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if !orderNumberPattern.MatchString(order.OrderNumber) {
			t.Errorf("order number %q does not match %s", order.OrderNumber, orderNumberPattern)
		}
		if order.Status != domain.OrderStatusPending {
			t.Errorf("expected status pending, got %s", order.Status)
		}
		if len(order.Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(order.Items))
		}
		if want := decimal.RequireFromString("59.98"); !order.Items[0].Total.Equal(want) {
			t.Errorf("expected item total 59.98, got %s", order.Items[0].Total)
		}
	})

	t.Run("rejects a malformed body", func(t *testing.T) {
		handler, store := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"email":`))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
		if len(store.orders) != 0 {
			t.Errorf("expected no writes, got %d orders", len(store.orders))
		}
	})

	t.Run("returns field-level validation errors", func(t *testing.T) {
		handler, store := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPost, "/orders",
			strings.NewReader(`{"email": "nope", "items": []}`))
		rec := httptest.NewRecorder()

		handler.HandleCreate(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}

		var resp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		if resp.Error != "validation failed" {
			t.Errorf("unexpected error message: %q", resp.Error)
		}
		if resp.Fields["email"] != "must be a valid email address" {
			t.Errorf("unexpected email error: %q", resp.Fields["email"])
		}
		if _, ok := resp.Fields["first_name"]; !ok {
			t.Errorf("expected error for first_name, got %v", resp.Fields)
		}
		if _, ok := resp.Fields["items"]; !ok {
			t.Errorf("expected error for items, got %v", resp.Fields)
		}
		if len(store.orders) != 0 {
			t.Errorf("expected no writes, got %d orders", len(store.orders))
		}
	})
}

func TestHandler_HandleTrack(t *testing.T) {
	t.Run("returns the tracked order", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		created, err := handler.service.Create(t.Context(), validRequest())
		if err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/orders/"+created.OrderNumber+"/track", nil)
		req.SetPathValue("orderNumber", created.OrderNumber)
		rec := httptest.NewRecorder()

		handler.HandleTrack(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.OrderNumber != created.OrderNumber {
			t.Errorf("expected order number %q, got %q", created.OrderNumber, order.OrderNumber)
		}
	})

	t.Run("unknown number returns the not-found payload", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodGet, "/orders/ORD-00000000/track", nil)
		req.SetPathValue("orderNumber", "ORD-00000000")
		rec := httptest.NewRecorder()

		handler.HandleTrack(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["error"] != "Order not found" {
			t.Errorf(`expected "Order not found", got %q`, resp["error"])
		}
	})
}

func TestHandler_HandleUpdateStatus(t *testing.T) {
	t.Run("updates the status", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		created, err := handler.service.Create(t.Context(), validRequest())
		if err != nil {
			t.Fatalf("failed to seed order: %v", err)
		}

		req := httptest.NewRequest(http.MethodPatch, "/orders/1/status", strings.NewReader(`{"status": "shipped"}`))
		req.SetPathValue("id", "1")
		rec := httptest.NewRecorder()

		handler.HandleUpdateStatus(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var order domain.Order
		if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if order.Status != domain.OrderStatusShipped {
			t.Errorf("expected status shipped, got %s", order.Status)
		}
		if order.OrderNumber != created.OrderNumber {
			t.Errorf("status update must not touch the order number")
		}
	})

	t.Run("rejects an unknown status value", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPatch, "/orders/1/status", strings.NewReader(`{"status": "teleported"}`))
		req.SetPathValue("id", "1")
		rec := httptest.NewRecorder()

		handler.HandleUpdateStatus(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("missing order returns 404", func(t *testing.T) {
		handler, _ := newTestHandler(t)

		req := httptest.NewRequest(http.MethodPatch, "/orders/42/status", strings.NewReader(`{"status": "paid"}`))
		req.SetPathValue("id", "42")
		rec := httptest.NewRecorder()

		handler.HandleUpdateStatus(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

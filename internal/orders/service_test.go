package orders

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/threadline/storefront/internal/domain"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-[0-9A-F]{8}$`)

type fakeStore struct {
	orders           []*domain.Order
	attemptedNumbers []string
	failCreates      int
	nextID           int64
}

func (s *fakeStore) Create(_ context.Context, order *domain.Order) error {
	s.attemptedNumbers = append(s.attemptedNumbers, order.OrderNumber)

	if s.failCreates > 0 {
		s.failCreates--
		return ErrOrderNumberTaken
	}

	s.nextID++
	order.ID = s.nextID
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = int64(i + 1)
		order.Items[i].Total = order.Items[i].Subtotal()
	}

	stored := *order
	s.orders = append(s.orders, &stored)
	return nil
}

func (s *fakeStore) GetByOrderNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) GetByID(_ context.Context, id int64) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) List(_ context.Context) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, *o)
	}
	return orders, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	for _, o := range s.orders {
		if o.ID == id {
			o.Status = status
			o.UpdatedAt = time.Now().UTC()
			return o, nil
		}
	}
	return nil, nil
}

type fakeCatalog struct {
	products map[int64]*domain.Product
}

func (c *fakeCatalog) GetByID(_ context.Context, id int64) (*domain.Product, error) {
	return c.products[id], nil
}

func newTestService(failCreates int) (*Service, *fakeStore) {
	store := &fakeStore{failCreates: failCreates}
	catalog := &fakeCatalog{products: map[int64]*domain.Product{
		1: {ID: 1, Name: "Classic Tee", Slug: "classic-tee"},
		2: {ID: 2, Name: "Zip Hoodie", Slug: "zip-hoodie"},
	}}
	return NewService(store, catalog), store
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func validRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		Email:       "a@b.com",
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Phone:       "+1-555-0100",
		Address:     "1 Analytical Way",
		City:        "London",
		State:       "LDN",
		ZipCode:     "E1 6AN",
		Country:     "UK",
		TotalAmount: dec("59.98"),
		Items: []CreateItemRequest{
			{ProductID: 1, Quantity: 2, Size: "M", Color: "Black", Price: dec("29.99")},
		},
	}
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates order with generated number and pending status", func(t *testing.T) {
		svc, store := newTestService(0)

		order, err := svc.Create(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
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
		if len(store.orders) != 1 {
			t.Errorf("expected 1 stored order, got %d", len(store.orders))
		}
	})

	t.Run("distinct numbers across creations", func(t *testing.T) {
		svc, _ := newTestService(0)

		first, err := svc.Create(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		second, err := svc.Create(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if first.OrderNumber == second.OrderNumber {
			t.Errorf("order number %q issued twice", first.OrderNumber)
		}
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		svc, store := newTestService(0)

		_, err := svc.Create(ctx, &CreateOrderRequest{
			Items: []CreateItemRequest{{ProductID: 1, Quantity: 1, Price: dec("10.00")}},
		})

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"email", "first_name", "last_name", "phone", "address", "city", "state", "zip_code", "country", "total_amount"} {
			if _, ok := verr.Fields[field]; !ok {
				t.Errorf("expected error for field %s, got %v", field, verr.Fields)
			}
		}
		if len(store.orders) != 0 {
			t.Errorf("expected no writes, got %d orders", len(store.orders))
		}
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		svc, _ := newTestService(0)

		req := validRequest()
		req.Email = "not-an-email"

		_, err := svc.Create(ctx, req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Fields["email"] != "must be a valid email address" {
			t.Errorf("unexpected email error: %q", verr.Fields["email"])
		}
	})

	t.Run("rejects negative total amount", func(t *testing.T) {
		svc, _ := newTestService(0)

		req := validRequest()
		req.TotalAmount = dec("-1.00")

		_, err := svc.Create(ctx, req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Fields["total_amount"] != "must not be negative" {
			t.Errorf("unexpected total_amount error: %q", verr.Fields["total_amount"])
		}
	})

	t.Run("accepts zero total amount", func(t *testing.T) {
		svc, _ := newTestService(0)

		req := validRequest()
		req.TotalAmount = dec("0")

		if _, err := svc.Create(ctx, req); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects empty item list", func(t *testing.T) {
		svc, _ := newTestService(0)

		req := validRequest()
		req.Items = nil

		_, err := svc.Create(ctx, req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := verr.Fields["items"]; !ok {
			t.Errorf("expected error for items, got %v", verr.Fields)
		}
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		svc, _ := newTestService(0)

		req := validRequest()
		req.Items[0].Quantity = 0

		_, err := svc.Create(ctx, req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := verr.Fields["items[0].quantity"]; !ok {
			t.Errorf("expected error for items[0].quantity, got %v", verr.Fields)
		}
	})

	t.Run("rejects unknown product and writes nothing", func(t *testing.T) {
		svc, store := newTestService(0)

		req := validRequest()
		req.Items = append(req.Items, CreateItemRequest{ProductID: 999, Quantity: 1, Price: dec("5.00")})

		_, err := svc.Create(ctx, req)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Fields["items[1].product_id"] != "product 999 does not exist" {
			t.Errorf("unexpected product error: %q", verr.Fields["items[1].product_id"])
		}
		if len(store.orders) != 0 {
			t.Errorf("expected no writes, got %d orders", len(store.orders))
		}
	})

	t.Run("retries once on order number collision", func(t *testing.T) {
		svc, store := newTestService(1)

		order, err := svc.Create(ctx, validRequest())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(store.attemptedNumbers) != 2 {
			t.Fatalf("expected 2 attempts, got %d", len(store.attemptedNumbers))
		}
		if store.attemptedNumbers[0] == store.attemptedNumbers[1] {
			t.Error("retry reused the colliding order number")
		}
		if order.OrderNumber != store.attemptedNumbers[1] {
			t.Errorf("expected order number %q, got %q", store.attemptedNumbers[1], order.OrderNumber)
		}
	})

	t.Run("surfaces a second collision", func(t *testing.T) {
		svc, store := newTestService(2)

		_, err := svc.Create(ctx, validRequest())
		if !errors.Is(err, ErrOrderNumberTaken) {
			t.Fatalf("expected ErrOrderNumberTaken, got %v", err)
		}
		if len(store.orders) != 0 {
			t.Errorf("expected no writes, got %d orders", len(store.orders))
		}
	})
}

func TestServiceTrack(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(0)

	created, err := svc.Create(ctx, validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("returns the order for its number", func(t *testing.T) {
		order, err := svc.Track(ctx, created.OrderNumber)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order == nil {
			t.Fatal("expected order, got nil")
		}
		if order.Email != "a@b.com" {
			t.Errorf("unexpected email: %s", order.Email)
		}
	})

	t.Run("match is case-sensitive", func(t *testing.T) {
		lowered := "ord-" + created.OrderNumber[4:]
		order, err := svc.Track(ctx, lowered)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order != nil {
			t.Errorf("expected no match for %q", lowered)
		}
	})

	t.Run("absence is nil, not an error", func(t *testing.T) {
		order, err := svc.Track(ctx, "ORD-00000000")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order != nil {
			t.Error("expected nil for unissued order number")
		}
	})
}

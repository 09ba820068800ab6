package orders

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/threadline/storefront/internal/domain"
	"github.com/threadline/storefront/internal/ordernum"
)

// Store is the order persistence surface the service writes to and reads
// from. Lookups return (nil, nil) when nothing matches.
type Store interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
}

// ProductFinder is the slice of the catalog the service needs: existence
// checks for line-item product references.
type ProductFinder interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
}

type CreateItemRequest struct {
	ProductID int64            `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Size      string           `json:"size"`
	Color     string           `json:"color"`
	Price     *decimal.Decimal `json:"price"`
}

type CreateOrderRequest struct {
	Email         string              `json:"email" validate:"required,email"`
	FirstName     string              `json:"first_name" validate:"required"`
	LastName      string              `json:"last_name" validate:"required"`
	Phone         string              `json:"phone" validate:"required"`
	Address       string              `json:"address" validate:"required"`
	City          string              `json:"city" validate:"required"`
	State         string              `json:"state" validate:"required"`
	ZipCode       string              `json:"zip_code" validate:"required"`
	Country       string              `json:"country" validate:"required"`
	TotalAmount   *decimal.Decimal    `json:"total_amount"`
	PaymentMethod string              `json:"payment_method"`
	Notes         string              `json:"notes"`
	Items         []CreateItemRequest `json:"items" validate:"min=1,dive"`
}

type Service struct {
	store    Store
	products ProductFinder
	validate *validator.Validate
}

func NewService(store Store, products ProductFinder) *Service {
	return &Service{
		store:    store,
		products: products,
		validate: newValidator(),
	}
}

// Create validates the request, assigns an order number and persists the
// order with all items atomically. The returned order is re-read from the
// store so the caller sees exactly what tracking will serve. A collision on
// the generated number is retried once with a fresh number.
func (s *Service) Create(ctx context.Context, req *CreateOrderRequest) (*domain.Order, error) {
	if err := s.validateRequest(ctx, req); err != nil {
		return nil, err
	}

	order := &domain.Order{
		OrderNumber:   ordernum.New(),
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		ZipCode:       req.ZipCode,
		Country:       req.Country,
		TotalAmount:   *req.TotalAmount,
		Status:        domain.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	}

	for _, item := range req.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Size:      item.Size,
			Color:     item.Color,
			Price:     *item.Price,
		})
	}

	err := s.store.Create(ctx, order)
	if err == ErrOrderNumberTaken {
		order.OrderNumber = ordernum.New()
		err = s.store.Create(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	return s.store.GetByOrderNumber(ctx, order.OrderNumber)
}

// Track is the public lookup by order number. It returns (nil, nil) when no
// order carries the number; absence is an expected outcome, not an error.
func (s *Service) Track(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return s.store.GetByOrderNumber(ctx, orderNumber)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]domain.Order, error) {
	return s.store.List(ctx)
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	return s.store.UpdateStatus(ctx, id, status)
}

func (s *Service) validateRequest(ctx context.Context, req *CreateOrderRequest) error {
	fields := map[string]string{}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !asValidationErrors(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[fieldName(fe)] = fieldMessage(fe)
		}
	}

	// Decimal fields are checked by hand: required needs pointer presence
	// and zero is a legal amount.
	if req.TotalAmount == nil {
		fields["total_amount"] = "this field is required"
	} else if req.TotalAmount.IsNegative() {
		fields["total_amount"] = "must not be negative"
	}

	for i, item := range req.Items {
		key := func(f string) string { return fmt.Sprintf("items[%d].%s", i, f) }

		if item.Price == nil {
			fields[key("price")] = "this field is required"
		} else if item.Price.IsNegative() {
			fields[key("price")] = "must not be negative"
		}

		if item.ProductID == 0 {
			continue
		}
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			fields[key("product_id")] = fmt.Sprintf("product %d does not exist", item.ProductID)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

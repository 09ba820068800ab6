package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/threadline/storefront/internal/domain"
	"github.com/threadline/storefront/internal/messaging"
)

var meter = otel.Meter("storefront/orders")

type Handler struct {
	service       *Service
	producer      *messaging.Producer
	logger        *slog.Logger
	ordersCreated metric.Int64Counter
}

func NewHandler(service *Service, producer *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	ordersCreated, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Number of orders placed"),
	)
	if err != nil {
		return nil, err
	}

	return &Handler{
		service:       service,
		producer:      producer,
		logger:        logger,
		ordersCreated: ordersCreated,
	}, nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.Create(r.Context(), &req)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
		case errors.Is(err, ErrOrderNumberTaken):
			h.logger.Error("order number collision persisted after retry")
			h.writeError(w, http.StatusConflict, "could not allocate an order number, please retry")
		default:
			h.logger.Error("failed to create order", "error", err)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.ordersCreated.Add(r.Context(), 1)

	if h.producer != nil {
		event := domain.OrderCreatedEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			Email:       order.Email,
			FirstName:   order.FirstName,
			TotalAmount: order.TotalAmount,
			Items:       order.Items,
			Timestamp:   time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), order.OrderNumber, event); err != nil {
			h.logger.Error("failed to publish order created event", "error", err, "order_number", order.OrderNumber)
		}
	}

	h.logger.Info("order created", "order_number", order.OrderNumber, "email", order.Email)
	h.writeJSON(w, http.StatusCreated, order)
}

// HandleTrack serves the public tracking lookup by order number.
func (h *Handler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.PathValue("orderNumber")
	if orderNumber == "" {
		h.writeError(w, http.StatusBadRequest, "missing order number")
		return
	}

	order, err := h.service.Track(r.Context(), orderNumber)
	if err != nil {
		h.logger.Error("failed to track order", "error", err, "order_number", orderNumber)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, orders)
}

type updateStatusRequest struct {
	Status domain.OrderStatus `json:"status"`
}

func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !req.Status.Valid() {
		h.writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	h.logger.Info("order status updated", "order_number", order.OrderNumber, "status", order.Status)
	h.writeJSON(w, http.StatusOK, order)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

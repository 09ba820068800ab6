package catalog

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/threadline/storefront/internal/domain"
)

// Store is the read-only catalog surface the handler serves from.
type Store interface {
	List(ctx context.Context, filter ListFilter) ([]domain.ProductSummary, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
}

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		CategorySlug: r.URL.Query().Get("category"),
		Search:       r.URL.Query().Get("search"),
		Ordering:     r.URL.Query().Get("ordering"),
	}

	if raw := r.URL.Query().Get("featured"); raw != "" {
		featured, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "featured must be true or false")
			return
		}
		filter.Featured = &featured
	}

	products, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleFeaturedProducts(w http.ResponseWriter, r *http.Request) {
	featured := true
	products, err := h.store.List(r.Context(), ListFilter{Featured: &featured})
	if err != nil {
		h.logger.Error("failed to list featured products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing product slug")
		return
	}

	product, err := h.store.GetBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		h.writeError(w, http.StatusBadRequest, "missing category slug")
		return
	}

	category, err := h.store.GetCategoryBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get category", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if category == nil {
		h.writeError(w, http.StatusNotFound, "category not found")
		return
	}

	h.writeJSON(w, http.StatusOK, category)
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

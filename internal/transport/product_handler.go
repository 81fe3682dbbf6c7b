package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"shelflife/internal/middleware"
	"shelflife/internal/recognition"
	"shelflife/internal/repository"
	"shelflife/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxRecognizeBytes caps uploaded photos; anything larger than this is not a
// phone snapshot of a bottle.
const maxRecognizeBytes = 8 << 20

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// ProductRequest carries the user-editable fields of a product.
type ProductRequest struct {
	Brand        string `json:"brand" validate:"required"`
	Name         string `json:"name" validate:"required"`
	ExpiryDate   string `json:"expiry_date,omitempty"`
	OpenedDate   string `json:"opened_date,omitempty"`
	PurchaseDate string `json:"purchase_date,omitempty"`
	Notes        string `json:"notes,omitempty"`
	Photo        string `json:"photo,omitempty"`
}

// ProductListResponse is the payload for GET /api/products and for every SSE
// snapshot.
type ProductListResponse struct {
	Products []*service.ProductView `json:"products"`
	Total    int                    `json:"total"`
}

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	products service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		products: products,
		logger:   logger,
	}
}

// RegisterRoutes registers all product routes. Every route runs behind the
// owner-scope middleware; the recognition route additionally sits behind the
// rate limiter when one is configured.
func (h *ProductHandler) RegisterRoutes(r chi.Router, scopeMiddleware func(http.Handler) http.Handler, recognizeLimiter func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Use(scopeMiddleware)

		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/stream", h.Stream)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)

		r.Group(func(r chi.Router) {
			if recognizeLimiter != nil {
				r.Use(recognizeLimiter)
			}
			r.Post("/recognize", h.Recognize)
		})
	})
}

// List returns the owner's products in display order with derived statuses.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetOwnerScope(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	views, err := h.products.List(r.Context(), scope)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: views,
		Total:    len(views),
	})
}

// Create handles new product submissions.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetOwnerScope(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Create(r.Context(), scope, requestToInput(req))
	if err != nil {
		h.respondOperationError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("owner", scope),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update overwrites an existing product's mutable fields.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetOwnerScope(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Update(r.Context(), scope, id, requestToInput(req))
	if err != nil {
		h.respondOperationError(w, err, "failed to update product")
		return
	}

	h.logger.Info("Product updated",
		zap.String("product_id", product.ID),
		zap.String("owner", scope),
	)
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Delete removes a product permanently.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetOwnerScope(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")

	if err := h.products.Delete(r.Context(), scope, id); err != nil {
		h.respondOperationError(w, err, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted",
		zap.String("product_id", id),
		zap.String("owner", scope),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// Recognize accepts a multipart photo upload plus the caller's current draft
// values and returns the merged prefill.
func (h *ProductHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetOwnerScope(r.Context()); !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRecognizeBytes)
	if err := r.ParseMultipartForm(maxRecognizeBytes); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid multipart payload")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	draft := recognition.Result{
		Brand: r.FormValue("brand"),
		Name:  r.FormValue("name"),
	}

	result, err := h.products.Recognize(r.Context(), image, mimeType, draft)
	if err != nil {
		h.logger.Warn("Recognition failed", zap.Error(err))
		h.respondOperationError(w, err, "recognition failed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Stream serves the live product list over SSE. Each event carries a full
// snapshot; a later event supersedes everything before it.
func (h *ProductHandler) Stream(w http.ResponseWriter, r *http.Request) {
	scope, ok := middleware.GetOwnerScope(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		middleware.RespondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()

	// The subscription is released when the handler exits, so repeated
	// connect/disconnect cycles never leak listeners.
	ticks, cancel := h.products.Watch(scope)
	defer cancel()

	if !h.sendSnapshot(ctx, w, flusher, scope) {
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case _, open := <-ticks:
			if !open {
				return
			}
			if !h.sendSnapshot(ctx, w, flusher, scope) {
				return
			}
		}
	}
}

// sendSnapshot emits one full-list snapshot event. It reports false when the
// stream should terminate, after surfacing the failure to the client.
func (h *ProductHandler) sendSnapshot(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, scope string) bool {
	views, err := h.products.List(ctx, scope)
	if err != nil {
		h.logger.Error("Failed to build snapshot", zap.Error(err))
		h.sendEvent(w, flusher, "error", map[string]string{"message": "failed to load products"})
		return false
	}

	return h.sendEvent(w, flusher, "snapshot", ProductListResponse{
		Products: views,
		Total:    len(views),
	})
}

func (h *ProductHandler) sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to encode SSE payload", zap.Error(err))
		return false
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

func requestToInput(req ProductRequest) service.ProductInput {
	return service.ProductInput{
		Brand:        req.Brand,
		Name:         req.Name,
		ExpiryDate:   req.ExpiryDate,
		OpenedDate:   req.OpenedDate,
		PurchaseDate: req.PurchaseDate,
		Notes:        req.Notes,
		Photo:        req.Photo,
	}
}

// respondOperationError maps service errors onto HTTP statuses. Validation
// and not-found outcomes are the caller's to fix; everything else is a 5xx.
func (h *ProductHandler) respondOperationError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrBrandRequired),
		errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidPhoto),
		errors.Is(err, recognition.ErrEmptyImage),
		errors.Is(err, recognition.ErrUnsupportedImage):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, service.ErrRecognitionUnavailable):
		middleware.RespondWithError(w, http.StatusServiceUnavailable, "recognition is not available")
	case errors.Is(err, context.DeadlineExceeded):
		middleware.RespondWithError(w, http.StatusGatewayTimeout, "the operation timed out")
	default:
		h.logger.Error(fallback, zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}

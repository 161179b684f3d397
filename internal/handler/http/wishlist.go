package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shunshunshopify/solstar-horizon/internal/catalog"
	"github.com/shunshunshopify/solstar-horizon/internal/domain"
	"github.com/shunshunshopify/solstar-horizon/internal/money"
	"github.com/shunshunshopify/solstar-horizon/internal/render"
	"github.com/shunshunshopify/solstar-horizon/internal/service"
	"github.com/shunshunshopify/solstar-horizon/internal/variant"
	apperrors "github.com/shunshunshopify/solstar-horizon/pkg/errors"
	"github.com/shunshunshopify/solstar-horizon/pkg/validator"
)

// WishlistHandler handles HTTP requests for wishlist endpoints.
type WishlistHandler struct {
	service  *service.WishlistService
	pipeline *render.Pipeline
	resolver render.Resolver
	format   money.Formatter
	logger   *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, pipeline *render.Pipeline, resolver render.Resolver, format money.Formatter, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{
		service:  svc,
		pipeline: pipeline,
		resolver: resolver,
		format:   format,
		logger:   logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for saving an item.
type AddItemRequest struct {
	ID        string `json:"id" validate:"required"`
	Title     string `json:"title" validate:"required,min=1,max=500"`
	Image     string `json:"image"`
	URL       string `json:"url"`
	Price     string `json:"price"`
	VariantID string `json:"variant_id"`
	Available *bool  `json:"available"`
	Handle    string `json:"handle"`
}

func (r AddItemRequest) input() service.AddItemInput {
	return service.AddItemInput{
		ID:        r.ID,
		Title:     r.Title,
		Image:     r.Image,
		URL:       r.URL,
		Price:     r.Price,
		VariantID: r.VariantID,
		Available: r.Available,
		Handle:    r.Handle,
	}
}

// UpdateOptionsRequest is the JSON request body for an option change.
// Selection entries align with option positions; "" leaves a position open.
type UpdateOptionsRequest struct {
	Selection []string `json:"selection" validate:"required,min=1,max=3"`
}

// --- Response envelope ---

type response struct {
	Data  any            `json:"data,omitempty"`
	Error *errorResponse `json:"error,omitempty"`
}

type errorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type listResponse struct {
	Items []domain.WishlistItem `json:"items"`
	Count int                   `json:"count"`
	Saved *bool                 `json:"saved,omitempty"`
}

type optionRow struct {
	Name     string               `json:"name"`
	Position int                  `json:"position"`
	Selected string               `json:"selected"`
	Values   []variant.ValueState `json:"values"`
}

type optionsResponse struct {
	Item    domain.WishlistItem `json:"item"`
	Options []optionRow         `json:"options"`
	Changed bool                `json:"changed"`
}

// --- Handlers ---

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	items, err := h.service.List(r.Context(), shopperID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: listResponse{Items: items, Count: len(items)}})
}

// GetCount handles GET /api/v1/wishlist/count
func (h *WishlistHandler) GetCount(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	items, err := h.service.List(r.Context(), shopperID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]int{"count": len(items)}})
}

// RenderWishlist handles GET /api/v1/wishlist/render
func (h *WishlistHandler) RenderWishlist(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	result, err := h.pipeline.Render(r.Context(), shopperID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(result.HTML))
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	items, added, err := h.service.Add(r.Context(), shopperID, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, response{Data: listResponse{Items: items, Count: len(items), Saved: &added}})
}

// ToggleItem handles POST /api/v1/wishlist/items/{productId}/toggle
func (h *WishlistHandler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}
	req.ID = productID

	alreadySaved, err := h.service.Contains(r.Context(), shopperID, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	// A toggle that removes needs nothing beyond the path id; the full item
	// payload is only required when the toggle will save.
	if !alreadySaved {
		if err := validator.Validate(req); err != nil {
			h.writeValidationError(w, err)
			return
		}
	}

	items, saved, err := h.service.Toggle(r.Context(), shopperID, req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: listResponse{Items: items, Count: len(items), Saved: &saved}})
}

// UpdateOptions handles PUT /api/v1/wishlist/items/{productId}/options
func (h *WishlistHandler) UpdateOptions(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	var req UpdateOptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		h.writeValidationError(w, err)
		return
	}

	items, err := h.service.List(r.Context(), shopperID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	idx := domain.IndexOf(items, productID)
	if idx < 0 {
		h.writeError(w, r, apperrors.NotFound("wishlist item", productID))
		return
	}
	item := &items[idx]

	handle := catalog.HandleOf(*item)
	if handle == "" {
		h.writeError(w, r, apperrors.InvalidInput("item has no resolvable product handle"))
		return
	}

	product, err := h.resolver.Resolve(r.Context(), handle)
	if err != nil {
		h.writeError(w, r, apperrors.Unavailable("catalog data is unavailable"))
		return
	}

	chosen, states, repaired := variant.Choose(product, variant.Selection(req.Selection))

	changed := variant.Apply(item, product, chosen, h.format)
	if changed {
		if err := h.service.Replace(r.Context(), shopperID, items); err != nil {
			h.writeError(w, r, err)
			return
		}
	}

	rows := make([]optionRow, 0, len(product.Options))
	for i, opt := range product.Options {
		row := optionRow{Name: opt.Name, Position: opt.Position}
		if i < len(states) {
			row.Values = states[i]
		}
		if i < len(repaired) {
			row.Selected = repaired[i]
		}
		rows = append(rows, row)
	}

	writeJSON(w, http.StatusOK, response{Data: optionsResponse{
		Item:    *item,
		Options: rows,
		Changed: changed,
	}})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	productID := chi.URLParam(r, "productId")
	if productID == "" {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{Code: "INVALID_INPUT", Message: "productId is required"},
		})
		return
	}

	items, _, err := h.service.Remove(r.Context(), shopperID, productID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: listResponse{Items: items, Count: len(items)}})
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	shopperID, ok := shopperIDFromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Clear(r.Context(), shopperID); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: map[string]string{"status": "cleared"}})
}

// --- Helpers ---

func (h *WishlistHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		writeJSON(w, appErr.Status, response{
			Error: &errorResponse{Code: appErr.Code, Message: appErr.Message},
		})
		return
	}

	status := apperrors.HTTPStatus(err)
	code := "INTERNAL_ERROR"
	message := "an internal error occurred"

	if errors.Is(err, apperrors.ErrNotFound) {
		code = "NOT_FOUND"
		message = "resource not found"
		status = http.StatusNotFound
	} else if errors.Is(err, apperrors.ErrInvalidInput) {
		code = "INVALID_INPUT"
		message = err.Error()
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	writeJSON(w, status, response{
		Error: &errorResponse{Code: code, Message: message},
	})
}

func (h *WishlistHandler) writeValidationError(w http.ResponseWriter, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusBadRequest, response{
			Error: &errorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  valErr.Fields(),
			},
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, response{
		Error: &errorResponse{Code: "INVALID_INPUT", Message: err.Error()},
	})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, response{
		Error: &errorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"offer-board/internal/models"
	"offer-board/internal/service"
	"offer-board/internal/validation"
)

// Client-facing error messages. Store failures never expose their cause.
const (
	msgOfferNotFound = "Offer not found"
	msgFetchOffers   = "Failed to fetch offers"
	msgFetchOffer    = "Failed to fetch offer"
	msgCreateOffer   = "Failed to create offer"
	msgDeleteOffer   = "Failed to delete offer"
	msgOfferDeleted  = "Offer deleted successfully"
)

// Handler provides HTTP handlers for the offers API.
type Handler struct {
	service     *service.Service
	logger      *slog.Logger
	maxBodySize int64
}

// NewHandlerOptions holds options for creating a handler.
type NewHandlerOptions struct {
	MaxBodySize int64
}

// DefaultHandlerOptions returns default handler options.
func DefaultHandlerOptions() NewHandlerOptions {
	return NewHandlerOptions{
		MaxBodySize: 1 << 20, // 1MB default
	}
}

// NewHandler creates a new handler instance.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return NewHandlerWithOptions(svc, logger, DefaultHandlerOptions())
}

// NewHandlerWithOptions creates a new handler instance with custom options.
func NewHandlerWithOptions(svc *service.Service, logger *slog.Logger, opts NewHandlerOptions) *Handler {
	return &Handler{
		service:     svc,
		logger:      logger,
		maxBodySize: opts.MaxBodySize,
	}
}

// Routes mounts the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Route("/api/offers", func(r chi.Router) {
		r.Get("/", h.ListOffers)
		r.Post("/", h.CreateOffer)
		r.Get("/{id}", h.GetOffer)
		r.Delete("/{id}", h.DeleteOffer)
	})
}

// Health handles GET /health. It never touches the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Message: "Server is running",
	})
}

// ListOffers handles GET /api/offers
func (h *Handler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListOffers(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "error fetching offers", "error", err)
		h.respondError(w, http.StatusInternalServerError, msgFetchOffers)
		return
	}

	h.respondJSON(w, http.StatusOK, offers)
}

// GetOffer handles GET /api/offers/{id}
func (h *Handler) GetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := offerID(r)
	if !ok {
		h.respondError(w, http.StatusNotFound, msgOfferNotFound)
		return
	}

	offer, err := h.service.GetOffer(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.respondError(w, http.StatusNotFound, msgOfferNotFound)
	case err != nil:
		h.logger.ErrorContext(r.Context(), "error fetching offer", "offer_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, msgFetchOffer)
	default:
		h.respondJSON(w, http.StatusOK, offer)
	}
}

// CreateOffer handles POST /api/offers
func (h *Handler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req models.CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.DebugContext(r.Context(), "rejecting undecodable offer body", "error", err)
		h.respondError(w, http.StatusBadRequest, validation.MissingFieldsMessage)
		return
	}

	offer, err := h.service.CreateOffer(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		h.logger.DebugContext(r.Context(), "rejecting offer", "error", err)
		h.respondError(w, http.StatusBadRequest, validation.MissingFieldsMessage)
	case err != nil:
		h.logger.ErrorContext(r.Context(), "error creating offer", "error", err)
		h.respondError(w, http.StatusInternalServerError, msgCreateOffer)
	default:
		h.respondJSON(w, http.StatusCreated, offer)
	}
}

// DeleteOffer handles DELETE /api/offers/{id}
func (h *Handler) DeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := offerID(r)
	if !ok {
		h.respondError(w, http.StatusNotFound, msgOfferNotFound)
		return
	}

	offer, err := h.service.DeleteOffer(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.respondError(w, http.StatusNotFound, msgOfferNotFound)
	case err != nil:
		h.logger.ErrorContext(r.Context(), "error deleting offer", "offer_id", id, "error", err)
		h.respondError(w, http.StatusInternalServerError, msgDeleteOffer)
	default:
		h.respondJSON(w, http.StatusOK, models.DeleteOfferResponse{
			Message: msgOfferDeleted,
			Offer:   offer,
		})
	}
}

// offerID parses the {id} path parameter. Anything that is not an integer
// cannot match a row, so callers report it as not found.
func offerID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// respondJSON sends a JSON response with the given status code.
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// respondError sends an error response with the given status code and message.
func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, models.ErrorResponse{Error: message})
}

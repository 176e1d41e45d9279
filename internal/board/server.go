package board

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"offer-board/internal/middleware"
	"offer-board/internal/models"
)

//go:embed static
var staticFS embed.FS

// OffersChangedEvent is the client-side event that makes the offers
// container reload itself.
const OffersChangedEvent = "offers-changed"

const (
	msgCreated      = "Offer added successfully!"
	msgCreateFailed = "Could not add the offer. Please try again."
	msgDeleted      = "Offer deleted successfully!"
	msgDeleteFailed = "Could not delete the offer. Please try again."
)

// OfferAPI is the subset of the API client the board needs.
type OfferAPI interface {
	List(ctx context.Context) ([]models.Offer, error)
	Create(ctx context.Context, req models.CreateOfferRequest) (models.Offer, error)
	Delete(ctx context.Context, id int64) (models.DeleteOfferResponse, error)
	BaseURL() string
}

// Server serves the offer board page and drives the API on behalf of the
// browser. All markup comes from the Renderer.
type Server struct {
	api      OfferAPI
	renderer *Renderer
	logger   *slog.Logger
	router   chi.Router
}

// NewServer builds the board router.
func NewServer(api OfferAPI, renderer *Renderer, logger *slog.Logger) *Server {
	s := &Server{
		api:      api,
		renderer: renderer,
		logger:   logger,
		router:   chi.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.router
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(securityHeaders)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handlePage)
	r.Get("/health", s.handleHealth)
	r.Get("/offers", s.handleListOffers)
	r.Post("/offers", s.handleCreateOffer)
	r.Delete("/offers/{id}", s.handleDeleteOffer)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.renderer.Page(buf, s.api.BaseURL())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","message":"Server is running"}`))
}

// handleListOffers renders the offers fragment. A failed API call still
// yields 200 so the browser swaps the error message into place.
func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := s.api.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "error loading offers", "api_url", s.api.BaseURL(), "error", err)
		s.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
			return s.renderer.LoadError(buf, s.api.BaseURL())
		})
		return
	}

	s.render(w, http.StatusOK, func(buf *bytes.Buffer) error {
		return s.renderer.Offers(buf, offers)
	})
}

// handleCreateOffer forwards the form to the API as is; the API owns
// validation. Success answers 201, which tells the page to reset the form.
func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.notify(w, http.StatusOK, KindError, msgCreateFailed)
		return
	}

	req := models.CreateOfferRequest{
		Title:       formValue(r, "title"),
		Description: formValue(r, "description"),
		Price:       models.ParsePrice(r.PostForm.Get("price")),
		Company:     formValue(r, "company"),
	}

	offer, err := s.api.Create(r.Context(), req)
	if err != nil {
		s.logger.WarnContext(r.Context(), "error adding offer", "error", err)
		s.notify(w, http.StatusOK, KindError, msgCreateFailed)
		return
	}

	s.logger.InfoContext(r.Context(), "offer added", "offer_id", offer.ID)
	w.Header().Set("HX-Trigger", OffersChangedEvent)
	s.notify(w, http.StatusCreated, KindSuccess, msgCreated)
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.notify(w, http.StatusOK, KindError, msgDeleteFailed)
		return
	}

	if _, err := s.api.Delete(r.Context(), id); err != nil {
		s.logger.WarnContext(r.Context(), "error deleting offer", "offer_id", id, "error", err)
		s.notify(w, http.StatusOK, KindError, msgDeleteFailed)
		return
	}

	w.Header().Set("HX-Trigger", OffersChangedEvent)
	s.notify(w, http.StatusOK, KindSuccess, msgDeleted)
}

func (s *Server) notify(w http.ResponseWriter, status int, kind, message string) {
	s.render(w, status, func(buf *bytes.Buffer) error {
		return s.renderer.Notification(buf, Notification{Kind: kind, Message: message})
	})
}

// render buffers the output so a template error never leaves a half-written
// response behind.
func (s *Server) render(w http.ResponseWriter, status int, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.logger.Error("template error", "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

func formValue(r *http.Request, key string) *string {
	if _, ok := r.PostForm[key]; !ok {
		return nil
	}
	v := r.PostForm.Get(key)
	return &v
}


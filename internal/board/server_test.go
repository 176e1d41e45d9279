package board

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"offer-board/internal/client"
	"offer-board/internal/database"
	"offer-board/internal/handler"
	"offer-board/internal/logging"
	"offer-board/internal/models"
	"offer-board/internal/service"
)

// setupBoard wires the board to a real API backed by SQLite.
func setupBoard(t *testing.T) (*Server, *client.Client) {
	db, err := database.NewSQLiteDB(filepath.Join(t.TempDir(), "board.db"), 1)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r := chi.NewRouter()
	handler.NewHandler(service.NewService(db, nil, nil), logging.Discard()).Routes(r)
	api := httptest.NewServer(r)
	t.Cleanup(api.Close)

	c := client.New(api.URL, api.Client())
	return NewServer(c, newTestRenderer(t), logging.Discard()), c
}

type failingAPI struct{}

func (failingAPI) List(context.Context) ([]models.Offer, error) {
	return nil, errors.New("connection refused")
}

func (failingAPI) Create(context.Context, models.CreateOfferRequest) (models.Offer, error) {
	return models.Offer{}, &client.APIError{StatusCode: http.StatusInternalServerError, Message: "Failed to create offer"}
}

func (failingAPI) Delete(context.Context, int64) (models.DeleteOfferResponse, error) {
	return models.DeleteOfferResponse{}, errors.New("connection refused")
}

func (failingAPI) BaseURL() string { return "http://offers-api:3000" }

func serve(s http.Handler, method, target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestBoard_Page(t *testing.T) {
	s, api := setupBoard(t)

	rr := serve(s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rr.Body.String(), "Loading offers...")
	assert.Contains(t, rr.Body.String(), api.BaseURL())

	rr = serve(s, http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestBoard_Health(t *testing.T) {
	s := NewServer(failingAPI{}, newTestRenderer(t), logging.Discard())

	rr := serve(s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","message":"Server is running"}`, rr.Body.String())
}

func TestBoard_EmptyList(t *testing.T) {
	s, _ := setupBoard(t)

	rr := serve(s, http.MethodGet, "/offers", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No offers yet")
}

func TestBoard_CreateListDelete(t *testing.T) {
	s, api := setupBoard(t)

	rr := serve(s, http.MethodPost, "/offers", url.Values{
		"title":       {"Senior Engineer"},
		"company":     {""},
		"price":       {"120000"},
		"description": {"<b>Remote</b> role"},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, OffersChangedEvent, rr.Header().Get("HX-Trigger"))
	assert.Contains(t, rr.Body.String(), "Offer added successfully!")
	assert.Contains(t, rr.Body.String(), `class="success"`)

	offers, err := api.List(context.Background())
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, models.DefaultCompany, offers[0].Company)

	rr = serve(s, http.MethodGet, "/offers", nil)
	assert.Contains(t, rr.Body.String(), "Senior Engineer")
	assert.Contains(t, rr.Body.String(), "&lt;b&gt;Remote&lt;/b&gt; role")
	assert.Contains(t, rr.Body.String(), "120\u00a0000\u00a0₽")

	rr = serve(s, http.MethodDelete, "/offers/"+strconv.FormatInt(offers[0].ID, 10), nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, OffersChangedEvent, rr.Header().Get("HX-Trigger"))
	assert.Contains(t, rr.Body.String(), "Offer deleted successfully!")

	offers, err = api.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestBoard_CreateRejectedByAPI(t *testing.T) {
	s, api := setupBoard(t)

	rr := serve(s, http.MethodPost, "/offers", url.Values{
		"title":       {"No price"},
		"description": {"d"},
		"price":       {""},
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("HX-Trigger"))
	assert.Contains(t, rr.Body.String(), `class="error"`)
	assert.Contains(t, rr.Body.String(), "Could not add the offer")

	offers, err := api.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, offers)
}

func TestBoard_DeleteUnknown(t *testing.T) {
	s, _ := setupBoard(t)

	for _, target := range []string{"/offers/777", "/offers/abc"} {
		rr := serve(s, http.MethodDelete, target, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("HX-Trigger"))
		assert.Contains(t, rr.Body.String(), "Could not delete the offer")
	}
}

func TestBoard_APIUnavailable(t *testing.T) {
	s := NewServer(failingAPI{}, newTestRenderer(t), logging.Discard())

	rr := serve(s, http.MethodGet, "/offers", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Could not connect to the server")
	assert.Contains(t, rr.Body.String(), "http://offers-api:3000")
	assert.NotContains(t, rr.Body.String(), "Loading offers")

	rr = serve(s, http.MethodPost, "/offers", url.Values{"title": {"t"}, "description": {"d"}, "price": {"1"}})
	assert.Contains(t, rr.Body.String(), "Could not add the offer")

	rr = serve(s, http.MethodDelete, "/offers/1", nil)
	assert.Contains(t, rr.Body.String(), "Could not delete the offer")
}

// Package client is a Go client for the offers REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"offer-board/internal/models"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("api returned status %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the offers API at BaseURL.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New returns a client for the API rooted at baseURL. A nil httpClient gets
// a client with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the API root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health calls GET /health.
func (c *Client) Health(ctx context.Context) (models.HealthResponse, error) {
	var resp models.HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, http.StatusOK, &resp)
	return resp, err
}

// List calls GET /api/offers.
func (c *Client) List(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	if err := c.do(ctx, http.MethodGet, "/api/offers", nil, http.StatusOK, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// Get calls GET /api/offers/{id}.
func (c *Client) Get(ctx context.Context, id int64) (models.Offer, error) {
	var offer models.Offer
	err := c.do(ctx, http.MethodGet, offerPath(id), nil, http.StatusOK, &offer)
	return offer, err
}

// Create calls POST /api/offers.
func (c *Client) Create(ctx context.Context, req models.CreateOfferRequest) (models.Offer, error) {
	var offer models.Offer
	err := c.do(ctx, http.MethodPost, "/api/offers", req, http.StatusCreated, &offer)
	return offer, err
}

// Delete calls DELETE /api/offers/{id}.
func (c *Client) Delete(ctx context.Context, id int64) (models.DeleteOfferResponse, error) {
	var resp models.DeleteOfferResponse
	err := c.do(ctx, http.MethodDelete, offerPath(id), nil, http.StatusOK, &resp)
	return resp, err
}

func offerPath(id int64) string {
	return "/api/offers/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp models.ErrorResponse
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

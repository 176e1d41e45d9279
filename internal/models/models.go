package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCompany is stored when an offer is created without a company.
const DefaultCompany = "Unknown Company"

// Offer represents a single job offer listing.
type Offer struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"` // serialized as a string, e.g. "120000.00"
	Company     string          `json:"company"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewOffer holds the validated fields the store needs to insert an offer.
// ID and CreatedAt are assigned by the store.
type NewOffer struct {
	Title       string
	Description string
	Price       decimal.Decimal
	Company     string
}

// Price is a decimal amount that accepts both JSON numbers and numeric
// strings. Set reports whether the field was present and non-null; Invalid
// marks a present value that is not a decimal number; Number marks a value
// that arrived as a JSON number rather than a string.
type Price struct {
	Value   decimal.Decimal
	Raw     string
	Set     bool
	Invalid bool
	Number  bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}

	var raw string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("price must be a number or numeric string: %w", err)
		}
		raw = n.String()
		p.Number = true
	}

	p.Raw = raw
	p.Set = true
	if raw == "" {
		return nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.Invalid = true
		return nil
	}
	p.Value = v
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Set {
		return []byte("null"), nil
	}
	if p.Raw != "" || p.Value.IsZero() {
		return json.Marshal(p.Raw)
	}
	return json.Marshal(p.Value.String())
}

// NewPrice returns a Price holding d.
func NewPrice(d decimal.Decimal) Price {
	return Price{Value: d, Raw: d.String(), Set: true}
}

// ParsePrice returns a Price for a raw form value. Empty input yields a set
// but empty price, which fails validation the same way a missing one does.
func ParsePrice(raw string) Price {
	p := Price{Raw: raw, Set: true}
	if raw == "" {
		return p
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		p.Invalid = true
		return p
	}
	p.Value = v
	return p
}

// CreateOfferRequest is the request body for POST /api/offers.
type CreateOfferRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       Price   `json:"price"`
	Company     *string `json:"company,omitempty"`
}

// DeleteOfferResponse is returned by DELETE /api/offers/{id}.
type DeleteOfferResponse struct {
	Message string `json:"message"`
	Offer   Offer  `json:"offer"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

package validation

import (
	"fmt"
	"strings"

	"offer-board/internal/models"
)

// MissingFieldsMessage is the client-facing message for any failed create.
const MissingFieldsMessage = "Title, description, and price are required"

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidateCreateOffer checks the presence of the required create fields and
// returns the insert payload with the company default applied.
//
// A field is missing when it is absent, null or empty. A price sent as the
// JSON number 0 is missing too; "0" as a string is a valid price. A price
// that is not a decimal number is invalid.
func ValidateCreateOffer(req models.CreateOfferRequest) (models.NewOffer, error) {
	if isBlank(req.Title) {
		return models.NewOffer{}, &ValidationError{Field: "title", Message: "is required"}
	}
	if isBlank(req.Description) {
		return models.NewOffer{}, &ValidationError{Field: "description", Message: "is required"}
	}
	if err := validatePrice(req.Price); err != nil {
		return models.NewOffer{}, err
	}

	company := models.DefaultCompany
	if !isBlank(req.Company) {
		company = *req.Company
	}

	return models.NewOffer{
		Title:       *req.Title,
		Description: *req.Description,
		Price:       req.Price.Value,
		Company:     company,
	}, nil
}

func validatePrice(p models.Price) error {
	if !p.Set || strings.TrimSpace(p.Raw) == "" {
		return &ValidationError{Field: "price", Message: "is required"}
	}
	if p.Invalid {
		return &ValidationError{Field: "price", Message: "must be a decimal number"}
	}
	if p.Number && p.Value.IsZero() {
		return &ValidationError{Field: "price", Message: "is required"}
	}
	return nil
}

func isBlank(s *string) bool {
	return s == nil || *s == ""
}

package board

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"offer-board/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// NotificationTTL is how long a notification stays on the page.
const NotificationTTL = 3 * time.Second

// Notification kinds; they double as CSS classes.
const (
	KindSuccess = "success"
	KindError   = "error"
)

// Notification is a transient message shown at the top of the page.
type Notification struct {
	Kind    string
	Message string
	TTL     time.Duration
}

// Renderer turns offers and notifications into HTML. It performs no I/O
// beyond writing to the given writer. All text is escaped by html/template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"formatPrice": formatPrice,
		"formatDate":  formatDate,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type pageData struct {
	APIURL          string
	NotificationTTL int64
	CreateFailed    string
	DeleteFailed    string
}

// Page renders the page shell. Offers are loaded by the browser afterwards;
// apiURL is named in the connectivity error shown when that load fails.
func (r *Renderer) Page(w io.Writer, apiURL string) error {
	return r.tmpl.ExecuteTemplate(w, "page", pageData{
		APIURL:          apiURL,
		NotificationTTL: NotificationTTL.Milliseconds(),
		CreateFailed:    msgCreateFailed,
		DeleteFailed:    msgDeleteFailed,
	})
}

// Offers renders one card per offer, or the empty-state message.
func (r *Renderer) Offers(w io.Writer, offers []models.Offer) error {
	return r.tmpl.ExecuteTemplate(w, "offers", offers)
}

// LoadError renders the connectivity error shown when the list cannot be
// fetched from the API at apiURL.
func (r *Renderer) LoadError(w io.Writer, apiURL string) error {
	return r.tmpl.ExecuteTemplate(w, "load-error", apiURL)
}

// Notification renders a self-removing notification.
func (r *Renderer) Notification(w io.Writer, n Notification) error {
	if n.TTL <= 0 {
		n.TTL = NotificationTTL
	}
	return r.tmpl.ExecuteTemplate(w, "notification", n)
}

// nbsp separates digit groups and the currency sign, as ru-RU locale
// formatting does.
const nbsp = "\u00a0"

// formatPrice renders an amount with space-grouped thousands, two decimals
// when there is a fractional part, and the ruble sign.
func formatPrice(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteString(nbsp)
		}
		b.WriteRune(c)
	}
	if hasFrac {
		b.WriteString("," + frac)
	}
	return sign + b.String() + nbsp + "₽"
}

func formatDate(t time.Time) string {
	return t.UTC().Format("02.01.2006")
}

package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"offer-board/internal/database"
	"offer-board/internal/events"
	"offer-board/internal/models"
	"offer-board/internal/tracing"
	"offer-board/internal/validation"
)

// Error classes returned by Service. Handlers map them to HTTP statuses.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("offer not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Service provides the offer operations on top of a Store.
type Service struct {
	store  database.Store
	events *events.Manager
	tracer *tracing.Tracer
}

// NewService creates a new service instance. A nil events manager or tracer
// is replaced by a disabled one.
func NewService(store database.Store, ev *events.Manager, tracer *tracing.Tracer) *Service {
	if ev == nil {
		ev = events.NewManager(false, nil)
	}
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &Service{store: store, events: ev, tracer: tracer}
}

// ListOffers returns all offers, newest first.
func (s *Service) ListOffers(ctx context.Context) ([]models.Offer, error) {
	ctx, span := s.tracer.StartSpan(ctx, "Service.ListOffers")
	defer span.End()

	offers, err := s.store.ListOffers(ctx)
	if err != nil {
		return nil, unavailable(span, err)
	}
	span.SetAttributes(attribute.Int("offers.count", len(offers)))
	return offers, nil
}

// GetOffer returns one offer by id.
func (s *Service) GetOffer(ctx context.Context, id int64) (models.Offer, error) {
	ctx, span := s.tracer.StartSpan(ctx, "Service.GetOffer",
		trace.WithAttributes(attribute.Int64("offer.id", id)))
	defer span.End()

	offer, err := s.store.GetOffer(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, unavailable(span, err)
	}
	return offer, nil
}

// CreateOffer validates the request, inserts the offer and returns it as
// stored.
func (s *Service) CreateOffer(ctx context.Context, req models.CreateOfferRequest) (models.Offer, error) {
	ctx, span := s.tracer.StartSpan(ctx, "Service.CreateOffer")
	defer span.End()

	newOffer, err := validation.ValidateCreateOffer(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return models.Offer{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	offer, err := s.store.CreateOffer(ctx, newOffer)
	if err != nil {
		return models.Offer{}, unavailable(span, err)
	}
	span.SetAttributes(attribute.Int64("offer.id", offer.ID))

	s.events.PublishOfferCreated(ctx, offer)
	return offer, nil
}

// DeleteOffer removes an offer and returns its last state.
func (s *Service) DeleteOffer(ctx context.Context, id int64) (models.Offer, error) {
	ctx, span := s.tracer.StartSpan(ctx, "Service.DeleteOffer",
		trace.WithAttributes(attribute.Int64("offer.id", id)))
	defer span.End()

	offer, err := s.store.DeleteOffer(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return models.Offer{}, ErrNotFound
	}
	if err != nil {
		return models.Offer{}, unavailable(span, err)
	}

	s.events.PublishOfferDeleted(ctx, offer)
	return offer, nil
}

func unavailable(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "store unavailable")
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

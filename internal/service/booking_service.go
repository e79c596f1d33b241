package service

import (
	"context"
	"errors"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/database"
	"sharekeep/internal/domain"
	"sharekeep/internal/events"
	"sharekeep/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{repo: repo, eventBus: eventBus, logger: logger}
}

// Create validates the interval and the item, then records a WAITING
// booking. Owners cannot book their own items.
func (s *BookingService) Create(ctx context.Context, bookerID, itemID int64, start, end time.Time) (*models.BookingView, error) {
	if !end.After(start) {
		return nil, apperr.Validation("booking end must be strictly after start")
	}

	booker, err := s.getUser(ctx, bookerID)
	if err != nil {
		return nil, err
	}
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID == bookerID {
		// Сохраняем поведение исходной модели: владелец "не видит"
		// собственную вещь как объект бронирования.
		return nil, apperr.NotFound("item with id %d not found for booker %d", itemID, bookerID)
	}
	if !item.Available {
		return nil, apperr.Validation("item %d is not available for booking", itemID)
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: bookerID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, booking, item.OwnerID)
	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", itemID).Int64("booker_id", bookerID).Msg("booking created")

	return s.buildView(booking, item, booker), nil
}

// Approve sets the final status. Only the item's owner may decide; deciding
// an already decided booking is idempotent and rewrites the same status.
func (s *BookingService) Approve(ctx context.Context, ownerID, bookingID int64, approved bool) (*models.BookingView, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.getItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, apperr.Forbidden("user %d is not the owner of item %d", ownerID, item.ID)
	}

	status := models.StatusRejected
	eventType := events.EventBookingRejected
	if approved {
		status = models.StatusApproved
		eventType = events.EventBookingApproved
	}

	if err := s.repo.UpdateBookingStatus(ctx, bookingID, status); err != nil {
		return nil, err
	}
	booking.Status = status

	s.publishEvent(eventType, booking, ownerID)

	booker, err := s.getUser(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}
	return s.buildView(booking, item, booker), nil
}

// Get returns the booking view to its booker or the item's owner.
func (s *BookingService) Get(ctx context.Context, requesterID, bookingID int64) (*models.BookingView, error) {
	booking, err := s.getBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	item, err := s.getItem(ctx, booking.ItemID)
	if err != nil {
		return nil, err
	}
	if booking.BookerID != requesterID && item.OwnerID != requesterID {
		return nil, apperr.Forbidden("user %d has no access to booking %d", requesterID, bookingID)
	}

	booker, err := s.getUser(ctx, booking.BookerID)
	if err != nil {
		return nil, err
	}
	return s.buildView(booking, item, booker), nil
}

func (s *BookingService) ListByBooker(ctx context.Context, bookerID int64, state string, offset, limit int) ([]models.BookingView, error) {
	if err := s.validateState(state); err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, bookerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsByBooker(ctx, bookerID, state, time.Now(), offset, limit)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, bookings)
}

func (s *BookingService) ListByOwner(ctx context.Context, ownerID int64, state string, offset, limit int) ([]models.BookingView, error) {
	if err := s.validateState(state); err != nil {
		return nil, err
	}
	if _, err := s.getUser(ctx, ownerID); err != nil {
		return nil, err
	}

	bookings, err := s.repo.ListBookingsByOwner(ctx, ownerID, state, time.Now(), offset, limit)
	if err != nil {
		return nil, err
	}
	return s.buildViews(ctx, bookings)
}

func (s *BookingService) validateState(state string) error {
	if !models.KnownState(state) {
		return apperr.Validation("Unknown state: %s", state)
	}
	return nil
}

func (s *BookingService) buildViews(ctx context.Context, bookings []models.Booking) ([]models.BookingView, error) {
	views := make([]models.BookingView, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		item, err := s.getItem(ctx, b.ItemID)
		if err != nil {
			return nil, err
		}
		booker, err := s.getUser(ctx, b.BookerID)
		if err != nil {
			return nil, err
		}
		views = append(views, *s.buildView(b, item, booker))
	}
	return views, nil
}

func (s *BookingService) buildView(booking *models.Booking, item *models.Item, booker *models.User) *models.BookingView {
	return &models.BookingView{
		ID:     booking.ID,
		Start:  booking.Start,
		End:    booking.End,
		Status: booking.Status,
		Item: models.ItemShort{
			ID:        item.ID,
			OwnerID:   item.OwnerID,
			Name:      item.Name,
			Available: item.Available,
			RequestID: item.RequestID,
		},
		Booker: *booker,
	}
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking, ownerID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: booking.ID,
		ItemID:    booking.ItemID,
		BookerID:  booking.BookerID,
		OwnerID:   ownerID,
		Status:    booking.Status,
		Start:     booking.Start,
		End:       booking.End,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("publish event error")
	}
}

func (s *BookingService) getBooking(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("booking with id %d not found", id)
	}
	return booking, err
}

func (s *BookingService) getItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("item with id %d not found", id)
	}
	return item, err
}

func (s *BookingService) getUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", id)
	}
	return user, err
}

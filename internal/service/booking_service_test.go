package service

import (
	"context"
	"testing"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/database"
	"sharekeep/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBookingService(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	booker := &models.User{ID: 2, Name: "Booker", Email: "b@example.com"}
	item := &models.Item{ID: 5, OwnerID: 1, Name: "Drill", Description: "d", Available: true}

	t.Run("Create", func(t *testing.T) {
		repo := new(MockRepository)
		bus := new(mockEventBus)
		svc := NewBookingService(repo, bus, newTestLogger())

		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()
		repo.On("CreateBooking", ctx, mock.Anything).Return(nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		view, err := svc.Create(ctx, 2, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, models.StatusWaiting, view.Status)
		assert.Equal(t, int64(5), view.Item.ID)
		assert.Equal(t, int64(2), view.Booker.ID)
		repo.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("CreateBadInterval", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		_, err := svc.Create(ctx, 2, 5, now.Add(2*time.Hour), now.Add(time.Hour))
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

		// Zero-length interval is rejected too
		_, err = svc.Create(ctx, 2, 5, now, now)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("CreateOwnItem", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		owner := &models.User{ID: 1, Name: "Owner"}
		repo.On("GetUser", ctx, int64(1)).Return(owner, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()

		_, err := svc.Create(ctx, 1, 5, now.Add(time.Hour), now.Add(2*time.Hour))
		assert.True(t, apperr.IsNotFound(err))
	})

	t.Run("CreateUnavailableItem", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		unavailable := &models.Item{ID: 6, OwnerID: 1, Name: "Saw", Available: false}
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		repo.On("GetItem", ctx, int64(6)).Return(unavailable, nil).Once()

		_, err := svc.Create(ctx, 2, 6, now.Add(time.Hour), now.Add(2*time.Hour))
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("Approve", func(t *testing.T) {
		repo := new(MockRepository)
		bus := new(mockEventBus)
		svc := NewBookingService(repo, bus, newTestLogger())

		booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}
		repo.On("GetBooking", ctx, int64(10)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()
		repo.On("UpdateBookingStatus", ctx, int64(10), models.StatusApproved).Return(nil).Once()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		view, err := svc.Approve(ctx, 1, 10, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, view.Status)
		repo.AssertExpectations(t)
	})

	t.Run("ApproveAlreadyApprovedIdempotent", func(t *testing.T) {
		repo := new(MockRepository)
		bus := new(mockEventBus)
		svc := NewBookingService(repo, bus, newTestLogger())

		// Re-deciding an already decided booking succeeds and rewrites the
		// same status rather than failing.
		booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusApproved}
		repo.On("GetBooking", ctx, int64(10)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()
		repo.On("UpdateBookingStatus", ctx, int64(10), models.StatusApproved).Return(nil).Once()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		view, err := svc.Approve(ctx, 1, 10, true)
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, view.Status)
		repo.AssertExpectations(t)
	})

	t.Run("Reject", func(t *testing.T) {
		repo := new(MockRepository)
		bus := new(mockEventBus)
		svc := NewBookingService(repo, bus, newTestLogger())

		booking := &models.Booking{ID: 11, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}
		repo.On("GetBooking", ctx, int64(11)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()
		repo.On("UpdateBookingStatus", ctx, int64(11), models.StatusRejected).Return(nil).Once()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()
		bus.On("PublishJSON", mock.Anything, mock.Anything).Return(nil).Once()

		view, err := svc.Approve(ctx, 1, 11, false)
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, view.Status)
	})

	t.Run("ApproveNotOwner", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}
		repo.On("GetBooking", ctx, int64(10)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()

		_, err := svc.Approve(ctx, 2, 10, true)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("GetByStranger", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}
		repo.On("GetBooking", ctx, int64(10)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()

		_, err := svc.Get(ctx, 99, 10)
		assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	})

	t.Run("GetByBooker", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		booking := &models.Booking{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}
		repo.On("GetBooking", ctx, int64(10)).Return(booking, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil).Once()

		view, err := svc.Get(ctx, 2, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(10), view.ID)
	})

	t.Run("ListUnknownState", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		_, err := svc.ListByBooker(ctx, 2, "SOMEDAY", 0, 20)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		assert.Contains(t, err.Error(), "Unknown state: SOMEDAY")

		_, err = svc.ListByOwner(ctx, 1, "SOMEDAY", 0, 20)
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("ListByBooker", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		bookings := []models.Booking{{ID: 10, ItemID: 5, BookerID: 2, Status: models.StatusWaiting}}
		repo.On("GetUser", ctx, int64(2)).Return(booker, nil)
		repo.On("ListBookingsByBooker", ctx, int64(2), models.StateAll, mock.Anything, 0, 20).Return(bookings, nil).Once()
		repo.On("GetItem", ctx, int64(5)).Return(item, nil).Once()

		views, err := svc.ListByBooker(ctx, 2, models.StateAll, 0, 20)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "Drill", views[0].Item.Name)
	})

	t.Run("ListByOwnerUnknownUser", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewBookingService(repo, nil, newTestLogger())

		repo.On("GetUser", ctx, int64(77)).Return(nil, database.ErrNotFound).Once()

		_, err := svc.ListByOwner(ctx, 77, models.StateAll, 0, 20)
		assert.True(t, apperr.IsNotFound(err))
	})
}

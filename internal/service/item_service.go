package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/database"
	"sharekeep/internal/domain"
	"sharekeep/internal/events"
	"sharekeep/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, eventBus: eventBus, logger: logger}
}

// ListByOwner returns the owner's items enriched with booking timeline,
// comments and the originating request.
func (s *ItemService) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]models.ItemView, error) {
	if _, err := s.getUser(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.repo.ListItemsByOwner(ctx, ownerID, offset, limit)
	if err != nil {
		return nil, err
	}

	views := make([]models.ItemView, 0, len(items))
	for i := range items {
		view, err := s.buildItemView(ctx, &items[i], true)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// Search matches available items by name. Blank text returns an empty
// result without touching the store.
func (s *ItemService) Search(ctx context.Context, text string, offset, limit int) ([]models.Item, error) {
	if strings.TrimSpace(text) == "" {
		return []models.Item{}, nil
	}
	items, err := s.repo.SearchItems(ctx, text, offset, limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// Get returns the enriched item view. Access requires the caller to be the
// owner or to hold (or have held) a WAITING/APPROVED booking of the item.
// The booking timeline is attached for the owner only.
func (s *ItemService) Get(ctx context.Context, itemID, userID int64) (*models.ItemView, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	isOwner := item.OwnerID == userID
	if !isOwner {
		booked, err := s.repo.HasBookingForViewer(ctx, itemID, userID)
		if err != nil {
			return nil, err
		}
		if !booked {
			return nil, apperr.Validation("user %d has no access to item %d", userID, itemID)
		}
	}

	return s.buildItemView(ctx, item, isOwner)
}

func (s *ItemService) Create(ctx context.Context, ownerID int64, name, description string, available *bool, requestID *int64) (*models.Item, error) {
	if _, err := s.getUser(ctx, ownerID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation("item name must not be blank")
	}
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("item description must not be blank")
	}
	if available == nil {
		return nil, apperr.Validation("item availability is required")
	}
	if requestID != nil {
		if _, err := s.repo.GetRequest(ctx, *requestID); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return nil, apperr.NotFound("request with id %d not found", *requestID)
			}
			return nil, err
		}
	}

	item := &models.Item{
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		Available:   *available,
		RequestID:   requestID,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, apperr.Forbidden("user %d is not the owner of item %d", ownerID, itemID)
	}

	if name := trimmedPatchField(patch.Name); name != "" {
		item.Name = name
	}
	if desc := trimmedPatchField(patch.Description); desc != "" {
		item.Description = desc
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, ownerID, itemID int64) error {
	item, err := s.getItem(ctx, itemID)
	if err != nil {
		return err
	}
	if item.OwnerID != ownerID {
		return apperr.Validation("user %d is not the owner of item %d", ownerID, itemID)
	}
	return s.repo.DeleteItem(ctx, itemID)
}

// CreateComment appends a review. Only a booker whose approved booking of
// the item has already ended may comment.
func (s *ItemService) CreateComment(ctx context.Context, itemID, authorID int64, text string) (*models.CommentView, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.Validation("comment text must not be blank")
	}
	if _, err := s.getItem(ctx, itemID); err != nil {
		return nil, err
	}
	author, err := s.getUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	finished, err := s.repo.HasFinishedBooking(ctx, itemID, authorID, now)
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, apperr.Validation("user %d has no finished booking of item %d", authorID, itemID)
	}

	comment := &models.Comment{
		ItemID:   itemID,
		AuthorID: authorID,
		Text:     text,
		Created:  now,
	}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	s.publishCommentEvent(comment)

	return &models.CommentView{
		ID:         comment.ID,
		Text:       comment.Text,
		AuthorName: author.Name,
		Created:    comment.Created,
	}, nil
}

// buildItemView assembles the composite read model: base item, booking
// timeline (owner only), comments with author names, and the originating
// request with its fulfilling items. Request recursion stops at one level.
// publishCommentEvent mirrors BookingService.publishEvent: a failed publish
// is logged, never surfaced to the caller.
func (s *ItemService) publishCommentEvent(comment *models.Comment) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(events.EventCommentCreated, comment); err != nil {
		s.logger.Error().Err(err).Str("event_type", events.EventCommentCreated).Int64("comment_id", comment.ID).Msg("publish event error")
	}
}

func (s *ItemService) buildItemView(ctx context.Context, item *models.Item, withBookings bool) (*models.ItemView, error) {
	view := &models.ItemView{
		ID:          item.ID,
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		Description: item.Description,
		Available:   item.Available,
		Comments:    []models.CommentView{},
	}

	if withBookings {
		now := time.Now()
		last, err := s.repo.LastBookingForItem(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		if last != nil {
			view.LastBooking = &models.BookingShort{ID: last.ID, BookerID: last.BookerID}
		}

		next, err := s.repo.NextBookingForItem(ctx, item.ID, now)
		if err != nil {
			return nil, err
		}
		if next != nil {
			view.NextBooking = &models.BookingShort{ID: next.ID, BookerID: next.BookerID}
		}
	}

	comments, err := s.repo.ListCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		authorName := ""
		if author, err := s.repo.GetUser(ctx, c.AuthorID); err == nil {
			authorName = author.Name
		}
		view.Comments = append(view.Comments, models.CommentView{
			ID:         c.ID,
			Text:       c.Text,
			AuthorName: authorName,
			Created:    c.Created,
		})
	}

	if item.RequestID != nil {
		req, err := s.repo.GetRequest(ctx, *item.RequestID)
		if err != nil && !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		if req != nil {
			reqView, err := buildRequestView(ctx, s.repo, req)
			if err != nil {
				return nil, err
			}
			view.Request = reqView
		}
	}

	return view, nil
}

func (s *ItemService) getItem(ctx context.Context, id int64) (*models.Item, error) {
	item, err := s.repo.GetItem(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("item with id %d not found", id)
	}
	return item, err
}

func (s *ItemService) getUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("user with id %d not found", id)
	}
	return user, err
}

// buildRequestView attaches the fulfilling items to a request. Nested items
// carry only short request info, which bounds the recursion to one level.
func buildRequestView(ctx context.Context, repo domain.Repository, req *models.ItemRequest) (*models.RequestView, error) {
	items, err := repo.ListItemsByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	view := &models.RequestView{
		ID:          req.ID,
		Description: req.Description,
		RequestorID: req.RequestorID,
		Created:     req.Created,
		Items:       []models.ItemShort{},
	}
	for _, item := range items {
		view.Items = append(view.Items, models.ItemShort{
			ID:        item.ID,
			OwnerID:   item.OwnerID,
			Name:      item.Name,
			Available: item.Available,
			RequestID: item.RequestID,
		})
	}
	return view, nil
}

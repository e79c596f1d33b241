package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"sharekeep/internal/apperr"
	"sharekeep/internal/database"
	"sharekeep/internal/domain"
	"sharekeep/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger}
}

func (s *RequestService) Create(ctx context.Context, requestorID int64, description string) (*models.ItemRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("request description must not be blank")
	}
	if _, err := s.repo.GetUser(ctx, requestorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("user with id %d not found", requestorID)
		}
		return nil, err
	}

	req := &models.ItemRequest{
		Description: description,
		RequestorID: requestorID,
		Created:     time.Now(),
	}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", req.ID).Int64("requestor_id", requestorID).Msg("item request created")
	return req, nil
}

// ListAll returns all requests newest first, in short form (no fulfilling
// items attached).
func (s *RequestService) ListAll(ctx context.Context, offset, limit int) ([]models.ItemRequest, error) {
	requests, err := s.repo.ListRequests(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []models.ItemRequest{}
	}
	return requests, nil
}

// ListByRequestor returns the requestor's own requests in full form.
func (s *RequestService) ListByRequestor(ctx context.Context, requestorID int64, offset, limit int) ([]models.RequestView, error) {
	if _, err := s.repo.GetUser(ctx, requestorID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, apperr.NotFound("user with id %d not found", requestorID)
		}
		return nil, err
	}

	requests, err := s.repo.ListRequestsByRequestor(ctx, requestorID, offset, limit)
	if err != nil {
		return nil, err
	}

	views := make([]models.RequestView, 0, len(requests))
	for i := range requests {
		view, err := buildRequestView(ctx, s.repo, &requests[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

func (s *RequestService) Get(ctx context.Context, id int64) (*models.RequestView, error) {
	req, err := s.repo.GetRequest(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, apperr.NotFound("request with id %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return buildRequestView(ctx, s.repo, req)
}

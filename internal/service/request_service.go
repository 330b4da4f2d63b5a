package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type RequestService struct {
	repo   domain.Repository
	logger *zerolog.Logger
	now    func() time.Time
}

var _ domain.RequestService = (*RequestService)(nil)

func NewRequestService(repo domain.Repository, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, logger: logger, now: time.Now}
}

func (s *RequestService) AddRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("%w: description is required", domain.ErrValidation)
	}

	req := &models.ItemRequest{RequesterID: userID, Description: description, Created: s.now()}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("request_id", req.ID).Int64("user_id", userID).Msg("item request created")
	return req, nil
}

func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.RequestDetails, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	details, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return details[0], nil
}

func (s *RequestService) ListOwnRequests(ctx context.Context, userID int64, page models.Page) ([]*models.RequestDetails, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsByRequester(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *RequestService) ListOtherRequests(ctx context.Context, userID int64, page models.Page) ([]*models.RequestDetails, error) {
	if err := s.requireUser(ctx, userID); err != nil {
		return nil, err
	}
	requests, err := s.repo.GetRequestsExcept(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, requests)
}

func (s *RequestService) requireUser(ctx context.Context, userID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return nil
}

func (s *RequestService) withItems(ctx context.Context, requests []*models.ItemRequest) ([]*models.RequestDetails, error) {
	out := make([]*models.RequestDetails, 0, len(requests))
	if len(requests) == 0 {
		return out, nil
	}

	ids := make([]int64, len(requests))
	byID := make(map[int64]*models.RequestDetails, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
		d := &models.RequestDetails{ItemRequest: *r, Items: []*models.Item{}}
		byID[r.ID] = d
		out = append(out, d)
	}

	items, err := s.repo.GetItemsByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if d, ok := byID[item.RequestID]; ok {
			d.Items = append(d.Items, item)
		}
	}
	return out, nil
}

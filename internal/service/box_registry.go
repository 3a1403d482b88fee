package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppnshub/notification-hub/internal/domain"
	"github.com/ppnshub/notification-hub/internal/repository"
)

// BoxRegistry owns box identity: create-or-retrieve, lookup, and the list
// of boxes a client owns. It does not know about notifications or pushes.
type BoxRegistry struct {
	boxes  repository.BoxRepository
	logger *zap.Logger
}

func NewBoxRegistry(boxes repository.BoxRepository, logger *zap.Logger) *BoxRegistry {
	return &BoxRegistry{boxes: boxes, logger: logger}
}

// CreateBox implements the PUT /box create-or-retrieve contract: a second
// call with the same (boxName, clientId) pair returns the existing box
// rather than erroring, since the unique index is the source of truth for
// collision detection, not a prior read.
func (r *BoxRegistry) CreateBox(ctx context.Context, req domain.CreateBoxRequest) domain.CreateBoxResult {
	now := time.Now().UTC()
	box := &domain.Box{
		BoxID:           uuid.New().String(),
		BoxName:         req.BoxName,
		BoxCreator:      domain.BoxCreator{ClientID: req.ClientID},
		CreatedDateTime: now,
		UpdatedDateTime: now,
	}

	err := r.boxes.Insert(ctx, box)
	if err == nil {
		return domain.CreateBoxResult{Outcome: domain.BoxCreated, Box: box}
	}

	if errors.Is(err, repository.ErrDuplicateBoxName) {
		existing, findErr := r.boxes.FindByNameAndClientID(ctx, req.BoxName, req.ClientID)
		if findErr != nil {
			r.logger.Error("box collision but retrieve failed",
				zap.String("box_name", req.BoxName), zap.Error(findErr))
			return domain.CreateBoxResult{Outcome: domain.BoxCreateFailed, Reason: "box exists but could not be retrieved"}
		}
		return domain.CreateBoxResult{Outcome: domain.BoxRetrieved, Box: existing}
	}

	r.logger.Error("create box failed", zap.Error(err))
	return domain.CreateBoxResult{Outcome: domain.BoxCreateFailed, Reason: "storage failure"}
}

func (r *BoxRegistry) GetBox(ctx context.Context, boxID string) (*domain.Box, error) {
	box, err := r.boxes.FindByID(ctx, boxID)
	if err != nil {
		return nil, err
	}
	return box, nil
}

// GetBoxByNameAndClientID implements getBoxByNameAndClientId (spec.md §4.1,
// §6): GET /box?boxName&clientId.
func (r *BoxRegistry) GetBoxByNameAndClientID(ctx context.Context, boxName, clientID string) (*domain.Box, error) {
	box, err := r.boxes.FindByNameAndClientID(ctx, boxName, clientID)
	if err != nil {
		return nil, err
	}
	return box, nil
}

func (r *BoxRegistry) ListBoxesByClientID(ctx context.Context, clientID string) ([]*domain.Box, error) {
	boxes, err := r.boxes.ListByClientID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	return boxes, nil
}

// UpdateSubscriber persists a new subscriber binding for boxID. Callers
// (CallbackValidator) are responsible for authorization and validation;
// this method only writes.
func (r *BoxRegistry) UpdateSubscriber(ctx context.Context, boxID string, subscriber *domain.Subscriber) error {
	return r.boxes.UpdateSubscriber(ctx, boxID, subscriber)
}

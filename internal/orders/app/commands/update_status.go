package commands

import (
	"context"
	"strings"
	"time"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/orders/ports"
)

type UpdateStatusCommand struct {
	OrderID string
	Status  string
	ActorID string
}

// StatusChange is the outcome of an UpdateStatusCommand.
type StatusChange struct {
	Order         *domain.Order
	Previous      domain.Status
	PointsAwarded int
}

type StatusHandler interface {
	Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error)
}

type UpdateStatusCommandHandler struct {
	repo             ports.OrderRepository
	pointsPerHundred int
	now              func() time.Time
}

func NewUpdateStatusCommandHandler(repo ports.OrderRepository, pointsPerHundred int) *UpdateStatusCommandHandler {
	return &UpdateStatusCommandHandler{
		repo:             repo,
		pointsPerHundred: pointsPerHundred,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (h *UpdateStatusCommandHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*StatusChange, error) {
	if strings.TrimSpace(cmd.OrderID) == "" {
		return nil, apperr.Invalid("order_id is required")
	}
	status, err := domain.ParseStatus(cmd.Status)
	if err != nil {
		return nil, apperr.Invalid(err.Error())
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	award := order.SetStatus(status, h.now(), h.pointsPerHundred)

	events, err := StatusEvents(*order, cmd.ActorID, previous, award)
	if err != nil {
		return nil, err
	}
	if err := h.repo.UpdateStatus(ctx, *order, award, events); err != nil {
		return nil, err
	}
	order.Version++

	return &StatusChange{Order: order, Previous: previous, PointsAwarded: award}, nil
}

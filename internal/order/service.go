package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an order id does not exist in the store.
var ErrNotFound = errors.New("order not found")

// Repo is the persistence contract implemented by the Postgres storage.
type Repo interface {
	SaveOrder(ctx context.Context, o Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status Status) (*Order, error)
}

// FileInspector reports the page count of an attached document.
type FileInspector interface {
	PageCount(ctx context.Context, fileID string) (int, error)
}

// Calculator prices a draft order.
type Calculator interface {
	Cost(o *Order) float64
}

// PageRate prices an order as pages times a fixed per-page rate.
type PageRate struct {
	PricePerPage float64
}

func (c PageRate) Cost(o *Order) float64 {
	return float64(o.Pages) * c.PricePerPage
}

type Service struct {
	repo      Repo
	calc      Calculator
	inspector FileInspector
	logger    *zap.Logger
}

func NewService(repo Repo, calc Calculator, inspector FileInspector, logger *zap.Logger) *Service {
	return &Service{repo: repo, calc: calc, inspector: inspector, logger: logger}
}

// NewOrderNumber assigns the externally visible order number.
func (s *Service) NewOrderNumber() string {
	return uuid.NewString()
}

// Confirm prices and persists a confirmed order. If the page count is absent
// but a file is attached, the inspector's count is used as a fallback; an
// inspector failure is logged and priced as zero pages rather than blocking
// the confirmation.
func (s *Service) Confirm(ctx context.Context, o *Order) error {
	if o.Pages == 0 && o.FileID != "" && s.inspector != nil {
		pages, err := s.inspector.PageCount(ctx, o.FileID)
		if err != nil {
			s.logger.Warn("Failed to inspect page count",
				zap.String("order_number", o.OrderNumber),
				zap.String("file_id", o.FileID),
				zap.Error(err))
		} else {
			o.Pages = pages
		}
	}

	o.Status = StatusAccepted
	o.Cost = s.calc.Cost(o)
	o.CreatedAt = time.Now()

	id, err := s.repo.SaveOrder(ctx, *o)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	o.ID = id
	return nil
}

// Cancel persists an order canceled before confirmation. No cost is assigned.
func (s *Service) Cancel(ctx context.Context, o *Order) error {
	o.Status = StatusCanceled
	o.CreatedAt = time.Now()

	id, err := s.repo.SaveOrder(ctx, *o)
	if err != nil {
		return fmt.Errorf("failed to save canceled order: %w", err)
	}
	o.ID = id
	return nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.repo.GetOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus validates and applies an operator status change. Applying the
// same status twice is a no-op the second time and returns the same order.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	o, err := s.repo.UpdateOrderStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	return o, nil
}

package orders

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/crave/loyalty-engine/loyalty"
	"github.com/crave/loyalty-engine/metrics"
)

// Store is the persistence contract the order service needs.
// SetOrderStatus writes conditionally on the expected prior status and
// returns loyalty.ErrConflict when a concurrent writer moved the order
// first, so the transition check and the write act as one unit.
type Store interface {
	SaveOrder(ctx context.Context, ord Order) error
	GetOrder(ctx context.Context, id string) (*Order, error)
	SetOrderStatus(ctx context.Context, id string, from, to Status) error
	ListOrders(ctx context.Context, status Status, limit int) ([]Order, error)
}

// Service drives the order lifecycle and fires the fulfillment hook.
type Service struct {
	store  Store
	engine *loyalty.Engine
	log    *zap.Logger
}

func NewService(store Store, engine *loyalty.Engine, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, engine: engine, log: log}
}

// Create persists a new pending order built from the given items.
func (s *Service) Create(ctx context.Context, customerID string, items []Item) (Order, error) {
	ord := New(customerID, items)
	if err := s.store.SaveOrder(ctx, ord); err != nil {
		return Order{}, err
	}
	return ord, nil
}

// Get returns an order or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	ord, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, ErrNotFound
	}
	return ord, nil
}

// Transition moves an order to the next status. Reaching delivered fires
// the loyalty credit hook; a credit failure is logged and swallowed so
// the fulfillment itself always stands.
func (s *Service) Transition(ctx context.Context, id string, next Status) (*Order, error) {
	ord, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ord.Status.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: ord.Status, To: next}
	}

	if err := s.store.SetOrderStatus(ctx, id, ord.Status, next); err != nil {
		if errors.Is(err, loyalty.ErrConflict) {
			// Another writer moved the order between our read and
			// write; re-read and judge the transition against the
			// status that actually won.
			cur, gerr := s.Get(ctx, id)
			if gerr != nil {
				return nil, gerr
			}
			if !cur.Status.CanTransitionTo(next) {
				return nil, &InvalidTransitionError{From: cur.Status, To: next}
			}
			return nil, err
		}
		return nil, err
	}

	if next == StatusDelivered {
		metrics.OrdersFulfilled.Inc()
		s.credit(ctx, *ord)
	}

	return s.Get(ctx, id)
}

// credit fires the points engine for a delivered order. Errors are
// reported here and go no further.
func (s *Service) credit(ctx context.Context, ord Order) {
	res, err := s.engine.CreditForOrder(ctx, loyalty.OrderRef{
		ID:           ord.ID,
		CustomerID:   ord.CustomerID,
		TotalAmount:  ord.TotalAmount,
		PointsEarned: ord.PointsEarned,
	})
	if err != nil {
		s.log.Error("loyalty credit failed, order fulfillment unaffected",
			zap.String("order_id", ord.ID),
			zap.Error(err))
		return
	}
	if !res.Credited {
		s.log.Debug("loyalty credit skipped",
			zap.String("order_id", ord.ID),
			zap.String("reason", res.Reason))
	}
}

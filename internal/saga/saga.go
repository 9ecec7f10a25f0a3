// Package saga places an order across the catalog, ledger, order log and
// notifier. There is no shared transaction: the ledger debit is the commit
// point, nothing before it needs undoing, and nothing after it is undone.
package saga

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/catalog"
	"github.com/ariefcatur/go-canteen-orders/internal/ledger"
	"github.com/ariefcatur/go-canteen-orders/internal/notify"
	"github.com/ariefcatur/go-canteen-orders/internal/observability"
	"github.com/ariefcatur/go-canteen-orders/internal/orders"
)

type Catalog interface {
	GetItem(ctx context.Context, id string) (catalog.Item, error)
	UpdateStock(ctx context.Context, id string, quantity int) (catalog.Item, error)
}

type Ledger interface {
	Debit(ctx context.Context, userID string, amount decimal.Decimal) (ledger.Account, error)
}

type OrderLog interface {
	Append(ctx context.Context, r orders.Record) (orders.Record, error)
}

// Notifier sends message to userID. key is the same for every attempt made
// for one order, so the notifier can drop the duplicate a retry produces.
type Notifier interface {
	Send(ctx context.Context, userID, message, key string) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, userID, message, key string) error

func (f NotifierFunc) Send(ctx context.Context, userID, message, key string) error {
	return f(ctx, userID, message, key)
}

const DefaultCallTimeout = 2 * time.Second

type Saga struct {
	catalog  Catalog
	ledger   Ledger
	orders   OrderLog
	notifier Notifier

	callTimeout time.Duration
	log         *zap.Logger
	tracer      trace.Tracer
}

type Option func(*Saga)

// WithCallTimeout bounds each attempt of each remote call.
func WithCallTimeout(d time.Duration) Option {
	return func(s *Saga) {
		if d > 0 {
			s.callTimeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Saga) { s.log = l }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Saga) { s.tracer = t }
}

func New(c Catalog, l Ledger, o OrderLog, n Notifier, opts ...Option) *Saga {
	s := &Saga{
		catalog:     c,
		ledger:      l,
		orders:      o,
		notifier:    n,
		callTimeout: DefaultCallTimeout,
		log:         zap.NewNop(),
		tracer:      otel.Tracer("github.com/ariefcatur/go-canteen-orders/internal/saga"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run is the state of one PlaceOrder call.
type run struct {
	state State
	log   *zap.Logger
	span  trace.Span
}

func (r *run) advance(to State) {
	if !CanTransition(r.state, to) {
		r.log.DPanic("illegal saga transition", zap.String("from", string(r.state)), zap.String("to", string(to)))
	}
	r.log.Debug("saga transition", zap.String("from", string(r.state)), zap.String("to", string(to)))
	r.span.AddEvent(string(to))
	r.state = to
}

// PlaceOrder buys one unit of itemID for userID. A non-nil error is always a
// *Failure. Once the debit succeeds the order is committed: caller
// cancellation no longer stops it, and only a persistence failure is
// reported.
func (s *Saga) PlaceOrder(ctx context.Context, userID, itemID string) (orders.Record, error) {
	ctx, span := s.tracer.Start(ctx, "saga.PlaceOrder", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("item.id", itemID),
	))
	defer span.End()

	r := &run{
		state: StateStarted,
		log:   s.log.With(zap.String("user_id", userID), zap.String("item_id", itemID)),
		span:  span,
	}
	rec, err := s.place(ctx, r, userID, itemID)
	if err != nil {
		reason := ReasonOf(err)
		last := r.state
		committed := last.Committed()
		r.advance(StateFailed)
		span.SetAttributes(attribute.Bool("saga.funds_debited", committed))
		span.SetStatus(codes.Error, string(reason))
		span.RecordError(err)
		observability.SagaOrders.WithLabelValues("failed", string(reason)).Inc()
		if committed {
			r.log.Error("order failed after debit", zap.String("reason", string(reason)),
				zap.String("last_state", string(last)), zap.Error(err))
		} else {
			r.log.Info("order failed", zap.String("reason", string(reason)), zap.Error(err))
		}
		return orders.Record{}, err
	}
	r.advance(StateDone)
	span.SetAttributes(attribute.String("order.id", rec.ID))
	observability.SagaOrders.WithLabelValues("confirmed", "").Inc()
	r.log.Info("order confirmed", zap.String("order_id", rec.ID), zap.Stringer("amount", rec.Amount))
	return rec, nil
}

func (s *Saga) place(ctx context.Context, r *run, userID, itemID string) (orders.Record, error) {
	if err := ctx.Err(); err != nil {
		return orders.Record{}, fail(ReasonCanceled, err)
	}

	item, err := call(ctx, s, "fetch_item", catalog.ErrUnavailable, func(ctx context.Context) (catalog.Item, error) {
		return s.catalog.GetItem(ctx, itemID)
	})
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		return orders.Record{}, fail(ReasonItemNotFound, err)
	case err != nil && ctx.Err() != nil:
		return orders.Record{}, fail(ReasonCanceled, err)
	case err != nil:
		return orders.Record{}, fail(ReasonCatalogUnavailable, err)
	}
	r.advance(StateItemFetched)

	if item.Quantity <= 0 {
		return orders.Record{}, fail(ReasonSoldOut, nil)
	}
	r.advance(StateStockOK)

	// Last point where cancellation is honoured.
	if err := ctx.Err(); err != nil {
		return orders.Record{}, fail(ReasonCanceled, err)
	}
	_, err = call(ctx, s, "debit", nil, func(ctx context.Context) (ledger.Account, error) {
		return s.ledger.Debit(ctx, userID, item.Price)
	})
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return orders.Record{}, fail(ReasonInsufficientFunds, err)
	case errors.Is(err, ledger.ErrAccountNotFound):
		return orders.Record{}, fail(ReasonAccountNotFound, err)
	case err != nil:
		// A timed-out debit may still have been applied; it is reported as
		// unavailable and never retried.
		return orders.Record{}, fail(ReasonLedgerUnavailable, err)
	}
	r.advance(StateFundsDebited)

	committed := context.WithoutCancel(ctx)

	// Overwrite with observed-1. Concurrent orders for the same item race
	// here and the last write wins.
	_, err = call(committed, s, "decrement_stock", catalog.ErrUnavailable, func(ctx context.Context) (catalog.Item, error) {
		return s.catalog.UpdateStock(ctx, itemID, item.Quantity-1)
	})
	if err != nil {
		observability.SagaInconsistencies.WithLabelValues("stock_not_decremented").Inc()
		r.log.Warn("stock decrement failed, order stays confirmed",
			zap.Int("observed_quantity", item.Quantity), zap.Error(err))
	} else {
		r.advance(StateStockDecremented)
	}

	rec, err := call(committed, s, "persist_order", nil, func(ctx context.Context) (orders.Record, error) {
		return s.orders.Append(ctx, orders.Record{
			UserID:   userID,
			ItemID:   itemID,
			ItemName: item.Name,
			Amount:   item.Price,
			Status:   orders.StatusConfirmed,
		})
	})
	if err != nil {
		observability.SagaInconsistencies.WithLabelValues("debited_not_recorded").Inc()
		r.log.Error("debited but order not recorded, reconcile manually",
			zap.String("item_name", item.Name),
			zap.Stringer("amount", item.Price),
			zap.Error(err))
		return orders.Record{}, fail(ReasonPersistenceFailure, err)
	}
	r.advance(StateOrderPersisted)

	_, err = call(committed, s, "notify", notify.ErrUnavailable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.notifier.Send(ctx, userID, "Order placed successfully for "+item.Name, rec.ID)
	})
	if err != nil {
		observability.SagaInconsistencies.WithLabelValues("not_notified").Inc()
		r.log.Warn("notification failed", zap.String("reason", string(ReasonNotificationFailure)),
			zap.String("order_id", rec.ID), zap.Error(err))
	} else {
		r.advance(StateNotified)
	}
	return rec, nil
}

// call runs fn under the per-call timeout inside its own span. When
// retryable is non-nil an error matching it is retried once; Debit and
// Append pass nil and run exactly once.
func call[T any](ctx context.Context, s *Saga, step string, retryable error, fn func(context.Context) (T, error)) (T, error) {
	attempts := 1
	if retryable != nil {
		attempts = 2
	}
	var (
		out T
		err error
	)
	for i := 0; i < attempts; i++ {
		out, err = attempt(ctx, s, step, i, fn)
		if err == nil || !errors.Is(err, retryable) || ctx.Err() != nil {
			return out, err
		}
	}
	return out, err
}

func attempt[T any](ctx context.Context, s *Saga, step string, n int, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := s.tracer.Start(ctx, "saga."+step, trace.WithAttributes(attribute.Int("attempt", n+1)))
	defer span.End()
	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	start := time.Now()
	out, err := fn(ctx)
	observability.SagaStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}
	return out, err
}

package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	kafkax "github.com/ariefcatur/go-canteen-orders/internal/kafka"
	"github.com/ariefcatur/go-canteen-orders/internal/orders"
	"github.com/ariefcatur/go-canteen-orders/internal/redisx"
	"github.com/ariefcatur/go-canteen-orders/internal/saga"
)

// Placer is satisfied by *saga.Saga.
type Placer interface {
	PlaceOrder(ctx context.Context, userID, itemID string) (orders.Record, error)
}

type OrderReader interface {
	FindByUser(ctx context.Context, userID string) ([]orders.Record, error)
	Get(ctx context.Context, id string) (orders.Record, error)
}

type OrdersHandler struct {
	Saga     Placer
	Orders   OrderReader
	Idem     *redisx.IdempotencyStore // nil: X-Idempotency-Key is ignored
	Producer kafkax.Publisher         // nil: no OrderPlaced events
	Service  string
	Log      *zap.Logger
}

type PlaceOrderResp struct {
	Status     string `json:"status"`
	OrderID    string `json:"order_id,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message"`
	Idempotent bool   `json:"idempotent,omitempty"`
}

const headerIdempotencyKey = "X-Idempotency-Key"

// StatusNotCompleted is the non-standard 499 used when the client gave up
// before the order was paid.
const StatusNotCompleted = 499

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/orders/place", h.placeOrder)
	r.Get("/orders/history", h.history)
	r.Get("/orders/{id}", h.getOrder)
}

func statusForReason(reason saga.Reason) int {
	switch reason {
	case saga.ReasonItemNotFound, saga.ReasonAccountNotFound:
		return http.StatusNotFound
	case saga.ReasonSoldOut:
		return http.StatusConflict
	case saga.ReasonInsufficientFunds:
		return http.StatusPaymentRequired
	case saga.ReasonCatalogUnavailable, saga.ReasonLedgerUnavailable:
		return http.StatusServiceUnavailable
	case saga.ReasonCanceled:
		return StatusNotCompleted
	default:
		return http.StatusInternalServerError
	}
}

func confirmedResp(rec orders.Record) PlaceOrderResp {
	return PlaceOrderResp{
		Status:  string(orders.StatusConfirmed),
		OrderID: rec.ID,
		Message: "Order placed successfully for " + rec.ItemName,
	}
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	item := r.URL.Query().Get("item")
	if user == "" || item == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "user and item are required")
		return
	}
	ctx := r.Context()

	key := r.Header.Get(headerIdempotencyKey)
	if key != "" && h.Idem != nil {
		if rec, ok := h.replay(ctx, user, key); ok {
			resp := confirmedResp(rec)
			resp.Idempotent = true
			writeJSON(w, http.StatusOK, resp)
			return
		}
		won, err := h.Idem.TryLock(ctx, user, key)
		if err != nil {
			// Redis down: place the order without the guard.
			h.Log.Warn("idempotency lock failed", zap.Error(err))
			key = ""
		} else if !won {
			writeError(w, http.StatusConflict, "DUPLICATE_REQUEST", "a request with this idempotency key is in progress")
			return
		}
	}

	rec, err := h.Saga.PlaceOrder(ctx, user, item)
	if err != nil {
		reason := saga.ReasonOf(err)
		// Funds may be gone on a persistence failure; keep the lock so a
		// retry with the same key cannot debit twice within TTLIdemLock.
		if key != "" && h.Idem != nil && reason != saga.ReasonPersistenceFailure {
			_ = h.Idem.Unlock(context.WithoutCancel(ctx), user, key)
		}
		writeJSON(w, statusForReason(reason), PlaceOrderResp{
			Status:  string(orders.StatusFailed),
			Reason:  string(reason),
			Message: reason.Message(),
		})
		return
	}

	bg := context.WithoutCancel(ctx)
	if key != "" && h.Idem != nil {
		if err := h.Idem.Remember(bg, user, key, rec.ID); err != nil {
			h.Log.Warn("idempotency remember failed", zap.String("order_id", rec.ID), zap.Error(err))
		}
	}
	h.publishPlaced(bg, rec, middleware.GetReqID(r.Context()))
	writeJSON(w, http.StatusOK, confirmedResp(rec))
}

func (h *OrdersHandler) replay(ctx context.Context, user, key string) (orders.Record, bool) {
	id, found, err := h.Idem.Recall(ctx, user, key)
	if err != nil || !found {
		return orders.Record{}, false
	}
	rec, err := h.Orders.Get(ctx, id)
	if err != nil {
		h.Log.Warn("idempotent replay lookup failed", zap.String("order_id", id), zap.Error(err))
		return orders.Record{}, false
	}
	return rec, true
}

func (h *OrdersHandler) publishPlaced(ctx context.Context, rec orders.Record, traceID string) {
	if h.Producer == nil {
		return
	}
	env, err := kafkax.NewEnvelope(orders.EventOrderPlaced, h.Service, rec.ID, orders.PlacedPayload(rec))
	if err != nil {
		h.Log.Error("encode OrderPlaced", zap.Error(err))
		return
	}
	env.TraceID = traceID
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := h.Producer.Publish(ctx, orders.PartitionKey(rec.UserID), kafkax.MustMarshal(env), env.Headers()...); err != nil {
		h.Log.Warn("publish OrderPlaced failed", zap.String("order_id", rec.ID), zap.Error(err))
	}
}

func (h *OrdersHandler) history(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "MISSING_FIELDS", "user is required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Orders.FindByUser(ctx, user)
	if err != nil {
		h.Log.Error("order history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	rec, err := h.Orders.Get(ctx, chi.URLParam(r, "id"))
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "ORDER_NOT_FOUND", "not found")
		return
	}
	if err != nil {
		h.Log.Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

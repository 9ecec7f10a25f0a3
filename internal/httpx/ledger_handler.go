package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/ledger"
)

type LedgerHandler struct {
	Store ledger.Store
	Log   *zap.Logger
}

type RegisterReq struct {
	UserID   string `json:"user_id"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginReq struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *LedgerHandler) Register(r chi.Router) {
	r.Get("/ledger", h.listAccounts)
	r.Get("/ledger/{user}", h.getAccount)
	r.Post("/ledger/debit", h.debit)
	r.Post("/ledger/credit", h.credit)
	r.Post("/ledger/register", h.register)
	r.Post("/ledger/login", h.login)
}

func (h *LedgerHandler) listAccounts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	as, err := h.Store.ListAccounts(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (h *LedgerHandler) getAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Store.GetAccount(ctx, chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// amountParams reads ?user=&amount= shared by debit and credit.
func amountParams(r *http.Request) (string, decimal.Decimal, bool) {
	user := r.URL.Query().Get("user")
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if user == "" || err != nil {
		return "", decimal.Decimal{}, false
	}
	return user, amount, true
}

func (h *LedgerHandler) debit(w http.ResponseWriter, r *http.Request) {
	user, amount, ok := amountParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "user and numeric amount are required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Store.Debit(ctx, user, amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Log.Info("debit", zap.String("user_id", user), zap.Stringer("amount", amount), zap.Stringer("balance", a.Balance))
	writeJSON(w, http.StatusOK, a)
}

func (h *LedgerHandler) credit(w http.ResponseWriter, r *http.Request) {
	user, amount, ok := amountParams(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_AMOUNT", "user and numeric amount are required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := h.Store.Credit(ctx, user, amount)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Log.Info("credit", zap.String("user_id", user), zap.Stringer("amount", amount), zap.Stringer("balance", a.Balance))
	writeJSON(w, http.StatusOK, a)
}

func (h *LedgerHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := ledger.Register(ctx, h.Store, req.UserID, req.Name, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *LedgerHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, err := ledger.Login(ctx, h.Store, req.UserID, req.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *LedgerHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, ledger.CodeAccountNotFound, err.Error())
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, ledger.CodeInsufficientFunds, err.Error())
	case errors.Is(err, ledger.ErrAccountExists):
		writeError(w, http.StatusConflict, "ACCOUNT_EXISTS", err.Error())
	case errors.Is(err, ledger.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "BAD_CREDENTIALS", err.Error())
	case errors.Is(err, ledger.ErrInvalidAmount), errors.Is(err, ledger.ErrInvalidAccount):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		h.Log.Error("ledger store", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

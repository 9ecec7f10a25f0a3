package httpx

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-canteen-orders/internal/catalog"
)

type CatalogHandler struct {
	Store catalog.Store
	Log   *zap.Logger
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/item", h.listItems)
	r.Post("/item", h.createItem)
	r.Get("/item/{id}", h.getItem)
	r.Post("/item/updateStock/{id}/{quantity}", h.updateStock)
}

func (h *CatalogHandler) listItems(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Store.ListItems(ctx)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CatalogHandler) getItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Store.GetItem(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CatalogHandler) createItem(w http.ResponseWriter, r *http.Request) {
	var it catalog.Item
	if err := decodeJSON(w, r, &it); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	created, err := h.Store.CreateItem(ctx, it)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *CatalogHandler) updateStock(w http.ResponseWriter, r *http.Request) {
	q, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ITEM", "quantity must be an integer")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	it, err := h.Store.UpdateStock(ctx, chi.URLParam(r, "id"), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *CatalogHandler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrItemNotFound):
		writeError(w, http.StatusNotFound, catalog.CodeItemNotFound, err.Error())
	case errors.Is(err, catalog.ErrInvalidItem):
		writeError(w, http.StatusBadRequest, "INVALID_ITEM", err.Error())
	default:
		h.Log.Error("catalog store", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}

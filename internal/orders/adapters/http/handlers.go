package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/idempotency"
	"github.com/dejobratic/cafe/internal/orders/app"
	"github.com/dejobratic/cafe/internal/orders/app/queries"
	"github.com/dejobratic/cafe/internal/orders/domain"
	"github.com/dejobratic/cafe/internal/web"
)

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service *app.Service
	logger  *slog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(service *app.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register binds the order handlers. Checkout and order lookup accept
// anonymous callers so guests can buy.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Post("/gateway", h.createGatewayOrder)
		r.With(auth.RequireUser).Get("/mine", h.listMine)
		r.Get("/{id}", h.getOrder)
	})

	r.Route("/admin/orders", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.listAll)
		r.Put("/{id}/status", h.updateStatus)
	})
}

func actorFrom(r *http.Request) queries.Actor {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		return queries.Actor{}
	}
	return queries.Actor{UserID: principal.UserID, Admin: principal.IsAdmin()}
}

// placeOrder reserves the Idempotency-Key before placing so concurrent
// retries cannot both create an order. Once the order is committed the
// response is 201 even if storing it for replay fails.
func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := actorFrom(r)

	var idemKey string
	if header := r.Header.Get(idempotency.Header); strings.TrimSpace(header) != "" {
		idemKey = idempotency.Key(actor.UserID, header)
		if idemKey == "" {
			web.RespondError(w, r, apperr.Invalid("invalid "+idempotency.Header+" header"))
			return
		}
		if h.replay(w, r, idemKey) {
			return
		}
	}

	var payload app.PlaceOrderInput
	if err := web.DecodeJSON(w, r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if idemKey != "" {
		reserved, err := h.service.ReserveIdempotencyKey(ctx, idemKey)
		if err != nil {
			web.RespondError(w, r, err)
			return
		}
		if !reserved {
			if !h.replay(w, r, idemKey) {
				web.RespondError(w, r, idempotency.ErrInProgress)
			}
			return
		}
	}

	order, err := h.service.PlaceOrder(ctx, actor, payload)
	if err != nil {
		h.release(ctx, idemKey)
		web.RespondError(w, r, err)
		return
	}

	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(map[string]any{"order": order}); err != nil {
		h.release(ctx, idemKey)
		web.RespondError(w, r, err)
		return
	}

	if idemKey != "" {
		stored := idempotency.Response{
			StatusCode: http.StatusCreated,
			Body:       body.Bytes(),
			ResourceID: order.ID,
		}
		if err := h.service.SaveIdempotentResponse(context.WithoutCancel(ctx), idemKey, stored); err != nil {
			h.logger.ErrorContext(ctx, "store idempotent response",
				"order_id", order.ID,
				"error", err,
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/orders/"+order.ID)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body.Bytes())
}

// replay answers from the stored response for key and reports whether it
// wrote anything.
func (h *Handler) replay(w http.ResponseWriter, r *http.Request, key string) bool {
	stored, err := h.service.GetIdempotentResponse(r.Context(), key)
	if err != nil {
		web.RespondError(w, r, err)
		return true
	}
	if stored == nil {
		return false
	}
	if stored.Pending() {
		web.RespondError(w, r, idempotency.ErrInProgress)
		return true
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.StatusCode)
	_, _ = w.Write(stored.Body)
	return true
}

func (h *Handler) release(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := h.service.ReleaseIdempotencyKey(context.WithoutCancel(ctx), key); err != nil {
		h.logger.WarnContext(ctx, "release idempotency key", "error", err)
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	page, pageSize := web.Page(r)
	orders, err := h.service.ListMine(r.Context(), actorFrom(r), page, pageSize)
	respondOrders(w, r, orders, err)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	var status *domain.Status
	if value := r.URL.Query().Get("status"); value != "" {
		parsed, err := domain.ParseStatus(value)
		if err != nil {
			web.RespondError(w, r, apperr.Invalid(err.Error()))
			return
		}
		status = &parsed
	}

	page, pageSize := web.Page(r)
	orders, err := h.service.ListAll(r.Context(), actorFrom(r), status, page, pageSize)
	respondOrders(w, r, orders, err)
}

func respondOrders(w http.ResponseWriter, r *http.Request, orders []domain.Order, err error) {
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Status string `json:"status"`
	}
	if err := web.DecodeJSON(w, r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	change, err := h.service.UpdateStatus(r.Context(), actorFrom(r), chi.URLParam(r, "id"), payload.Status)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"order":          change.Order,
		"points_awarded": change.PointsAwarded,
	})
}

// createGatewayOrder takes the same checkout body as placeOrder and opens a
// gateway order for its server-side total.
func (h *Handler) createGatewayOrder(w http.ResponseWriter, r *http.Request) {
	var payload app.PlaceOrderInput
	if err := web.DecodeJSON(w, r, &payload); err != nil {
		web.RespondError(w, r, err)
		return
	}

	checkout, err := h.service.CreateGatewayOrder(r.Context(), actorFrom(r), payload)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, checkout)
}

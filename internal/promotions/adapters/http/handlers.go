package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/promotions/app"
	"github.com/dejobratic/cafe/internal/promotions/domain"
	"github.com/dejobratic/cafe/internal/web"
)

// CouponHistory returns the codes a user has already redeemed.
type CouponHistory interface {
	UsedCoupons(ctx context.Context, userID string) ([]string, error)
}

type Handler struct {
	service *app.Service
	history CouponHistory
}

func NewHandler(service *app.Service, history CouponHistory) *Handler {
	return &Handler{service: service, history: history}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/offers", func(r chi.Router) {
		r.Get("/", h.listActive)
		r.Post("/validate", h.validate)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Get("/all", h.listAll)
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.delete)
			r.Patch("/{id}/toggle", h.toggle)
		})
	})
}

func (h *Handler) listActive(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.ListActive(r.Context())
	h.respondList(w, r, offers, err)
}

func (h *Handler) listAll(w http.ResponseWriter, r *http.Request) {
	offers, err := h.service.List(r.Context())
	h.respondList(w, r, offers, err)
}

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, offers []domain.Offer, err error) {
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if offers == nil {
		offers = []domain.Offer{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"offers": offers})
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Code     string          `json:"code"`
		Subtotal decimal.Decimal `json:"subtotal"`
	}
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	var used []string
	if principal, ok := auth.FromContext(r.Context()); ok {
		var err error
		if used, err = h.history.UsedCoupons(r.Context(), principal.UserID); err != nil {
			web.RespondError(w, r, err)
			return
		}
	}

	quote, err := h.service.Validate(r.Context(), input.Code, input.Subtotal, used)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, quote)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input app.OfferInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	offer, err := h.service.Create(r.Context(), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"offer": offer})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var input app.OfferInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	offer, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"offer": offer})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	offer, err := h.service.Toggle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"offer": offer})
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/content/app"
	"github.com/dejobratic/cafe/internal/content/domain"
	"github.com/dejobratic/cafe/internal/web"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Get("/faqs", h.listFAQs)
		r.Get("/contact", h.getContact)
		r.Get("/pages", h.listPages)
		r.Get("/pages/{slug}", h.getPage)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/faqs", h.createFAQ)
			r.Put("/faqs/{id}", h.updateFAQ)
			r.Delete("/faqs/{id}", h.deleteFAQ)
			r.Put("/contact", h.putContact)
			r.Put("/pages/{slug}", h.putPage)
		})
	})

	r.Get("/settings/payment", h.publicPaymentSettings)
	r.Get("/settings/tax", h.publicTaxSettings)

	r.Route("/admin/settings", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/{key}", h.getSetting)
		r.Put("/{key}", h.putSetting)
	})
}

func (h *Handler) listFAQs(w http.ResponseWriter, r *http.Request) {
	faqs, err := h.service.ListFAQs(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if faqs == nil {
		faqs = []domain.FAQ{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"faqs": faqs})
}

func (h *Handler) createFAQ(w http.ResponseWriter, r *http.Request) {
	var input app.FAQInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	faq, err := h.service.CreateFAQ(r.Context(), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"faq": faq})
}

func (h *Handler) updateFAQ(w http.ResponseWriter, r *http.Request) {
	var input app.FAQInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	faq, err := h.service.UpdateFAQ(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"faq": faq})
}

func (h *Handler) deleteFAQ(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFAQ(r.Context(), chi.URLParam(r, "id")); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getContact(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Contact(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"contact": info})
}

func (h *Handler) putContact(w http.ResponseWriter, r *http.Request) {
	var input domain.ContactInfo
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	info, err := h.service.PutContact(r.Context(), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"contact": info})
}

func (h *Handler) listPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.service.ListPages(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if pages == nil {
		pages = []domain.Page{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"pages": pages})
}

func (h *Handler) getPage(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.Page(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"page": page})
}

func (h *Handler) putPage(w http.ResponseWriter, r *http.Request) {
	var input app.PageInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	page, err := h.service.PutPage(r.Context(), chi.URLParam(r, "slug"), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"page": page})
}

func (h *Handler) publicPaymentSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.PaymentSettings(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, settings.Public())
}

func (h *Handler) publicTaxSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.TaxSettings(r.Context())
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, settings)
}

func (h *Handler) getSetting(w http.ResponseWriter, r *http.Request) {
	value, err := h.service.Setting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, value)
}

func (h *Handler) putSetting(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := web.DecodeJSON(w, r, &raw); err != nil {
		web.RespondError(w, r, err)
		return
	}

	value, err := h.service.PutSetting(r.Context(), chi.URLParam(r, "key"), raw)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, value)
}

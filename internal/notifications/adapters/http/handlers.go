package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/notifications/app"
	"github.com/dejobratic/cafe/internal/notifications/domain"
	"github.com/dejobratic/cafe/internal/notifications/ports"
	"github.com/dejobratic/cafe/internal/web"
)

type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.list)
		r.Patch("/{id}/read", h.markRead)
		r.Post("/read-all", h.markAllRead)
	})

	r.With(auth.RequireAdmin).Get("/admin/audit-logs", h.listAuditLogs)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	filter := ports.ListFilter{}
	filter.UnreadOnly, _ = strconv.ParseBool(r.URL.Query().Get("unread"))
	filter.Page, filter.PageSize = web.Page(r)

	notifications, err := h.service.ListMine(r.Context(), principal.UserID, filter)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if notifications == nil {
		notifications = []domain.Notification{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"notifications": notifications})
}

func (h *Handler) markRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	if err := h.service.MarkRead(r.Context(), principal.UserID, chi.URLParam(r, "id")); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) markAllRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	changed, err := h.service.MarkAllRead(r.Context(), principal.UserID)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]int{"updated": changed})
}

func (h *Handler) listAuditLogs(w http.ResponseWriter, r *http.Request) {
	filter := ports.AuditFilter{
		Entity:   r.URL.Query().Get("entity"),
		EntityID: r.URL.Query().Get("entity_id"),
	}
	filter.Page, filter.PageSize = web.Page(r)

	logs, err := h.service.ListAuditLogs(r.Context(), filter)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if logs == nil {
		logs = []domain.AuditLog{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"audit_logs": logs})
}

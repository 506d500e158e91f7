package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/apperr"
	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/reports/app"
	"github.com/dejobratic/cafe/internal/reports/domain"
	"github.com/dejobratic/cafe/internal/web"
)

const (
	defaultProductLimit = 10
	maxProductLimit     = 100
)

type Handler struct {
	service *app.Service
	now     func() time.Time
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Register binds the admin report endpoints. Each accepts from and to
// query parameters as YYYY-MM-DD.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/reports", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/sales", h.sales)
		r.Get("/revenue", h.revenue)
		r.Get("/products", h.products)
	})
}

func (h *Handler) window(r *http.Request) (domain.Range, error) {
	query := r.URL.Query()
	window, err := domain.ParseRange(query.Get("from"), query.Get("to"), h.now())
	if err != nil {
		return domain.Range{}, apperr.Invalid(err.Error())
	}
	return window, nil
}

func (h *Handler) sales(w http.ResponseWriter, r *http.Request) {
	window, err := h.window(r)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	summary, err := h.service.SalesSummary(r.Context(), window)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, summary)
}

func (h *Handler) revenue(w http.ResponseWriter, r *http.Request) {
	window, err := h.window(r)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	days, err := h.service.RevenueByDay(r.Context(), window)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"range": window, "days": days})
}

func (h *Handler) products(w http.ResponseWriter, r *http.Request) {
	window, err := h.window(r)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	limit := defaultProductLimit
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > maxProductLimit {
			web.RespondError(w, r, apperr.Invalidf("limit must be between 1 and %d", maxProductLimit))
			return
		}
		limit = parsed
	}

	ranked, err := h.service.ProductPerformance(r.Context(), window, limit)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"range": window, "products": ranked})
}

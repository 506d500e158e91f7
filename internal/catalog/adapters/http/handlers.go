package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/auth"
	"github.com/dejobratic/cafe/internal/catalog/app"
	"github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/catalog/ports"
	"github.com/dejobratic/cafe/internal/web"
)

// Handler exposes product and review endpoints.
type Handler struct {
	service *app.Service
}

func NewHandler(service *app.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Get("/{id}", h.getProduct)
		r.Get("/{id}/reviews", h.listReviews)
		r.With(auth.RequireUser).Post("/{id}/reviews", h.addReview)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/", h.createProduct)
			r.Put("/{id}", h.updateProduct)
			r.Delete("/{id}", h.archiveProduct)
		})
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := ports.ListFilter{
		Search:         query.Get("search"),
		BestSellerOnly: query.Get("best_seller") == "true",
	}
	filter.Page, filter.PageSize = web.Page(r)

	if value := query.Get("category"); value != "" {
		category, err := domain.ParseCategory(value)
		if err != nil {
			web.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Category = &category
	}

	if include, _ := strconv.ParseBool(query.Get("include_archived")); include && isAdmin(r) {
		filter.IncludeArchived = true
	}

	products, err := h.service.ListProducts(r.Context(), filter)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	web.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"), isAdmin(r))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var input app.ProductInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var input app.ProductInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) archiveProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.ArchiveProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"product": product})
}

func (h *Handler) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"reviews": reviews})
}

func (h *Handler) addReview(w http.ResponseWriter, r *http.Request) {
	principal, _ := auth.FromContext(r.Context())

	var input app.ReviewInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	review, err := h.service.AddReview(r.Context(), chi.URLParam(r, "id"), principal.UserID, input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"review": review})
}

func isAdmin(r *http.Request) bool {
	principal, ok := auth.FromContext(r.Context())
	return ok && principal.IsAdmin()
}

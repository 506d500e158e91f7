package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dejobratic/cafe/internal/auth"
	catalogdomain "github.com/dejobratic/cafe/internal/catalog/domain"
	"github.com/dejobratic/cafe/internal/identity/app"
	"github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/identity/ports"
	"github.com/dejobratic/cafe/internal/web"
)

// ProductLookup resolves wishlist product ids to catalog entries.
type ProductLookup interface {
	ProductsByID(ctx context.Context, ids []string) (map[string]catalogdomain.Product, error)
}

type Handler struct {
	service  *app.Service
	products ProductLookup
}

func NewHandler(service *app.Service, products ProductLookup) *Handler {
	return &Handler{service: service, products: products}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.register)
		r.Post("/login", h.login)
		r.Post("/verify-email", h.verifyEmail)
		r.Post("/resend-verification", h.resendVerification)
		r.Post("/forgot-password", h.forgotPassword)
		r.Post("/reset-password", h.resetPassword)
	})

	r.Route("/users/me", func(r chi.Router) {
		r.Use(auth.RequireUser)
		r.Get("/", h.getProfile)
		r.Put("/", h.updateProfile)
		r.Put("/password", h.changePassword)
		r.Post("/addresses", h.addAddress)
		r.Put("/addresses/{addressID}", h.updateAddress)
		r.Delete("/addresses/{addressID}", h.deleteAddress)
		r.Post("/payment-methods", h.addPaymentMethod)
		r.Delete("/payment-methods/{paymentID}", h.deletePaymentMethod)
		r.Get("/rewards", h.rewards)
		r.Get("/wishlist", h.wishlist)
		r.Put("/wishlist/{productID}", h.addToWishlist)
		r.Delete("/wishlist/{productID}", h.removeFromWishlist)
	})

	r.Route("/admin/users", func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/", h.listUsers)
		r.Put("/{id}/role", h.setRole)
		r.Post("/{id}/reward-points", h.adjustRewardPoints)
	})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var input app.RegisterInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"user": user})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	session, err := h.service.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, session)
}

type codeRequest struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var input codeRequest
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if err := h.service.VerifyEmail(r.Context(), input.Email, input.Code); err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var input codeRequest
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if err := h.service.ResendVerification(r.Context(), input.Email); err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var input codeRequest
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if err := h.service.ForgotPassword(r.Context(), input.Email); err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var input codeRequest
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}
	if err := h.service.ResetPassword(r.Context(), input.Email, input.Code, input.Password); err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]string{"status": "password_reset"})
}

func currentUserID(r *http.Request) string {
	principal, _ := auth.FromContext(r.Context())
	return principal.UserID
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetProfile(r.Context(), currentUserID(r))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var input app.ProfileInput
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), currentUserID(r), input)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), currentUserID(r), input.Current, input.New); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) addAddress(w http.ResponseWriter, r *http.Request) {
	h.saveAddress(w, r, "", http.StatusCreated)
}

func (h *Handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	h.saveAddress(w, r, chi.URLParam(r, "addressID"), http.StatusOK)
}

func (h *Handler) saveAddress(w http.ResponseWriter, r *http.Request, id string, status int) {
	var addr domain.Address
	if err := web.DecodeJSON(w, r, &addr); err != nil {
		web.RespondError(w, r, err)
		return
	}
	addr.ID = id

	user, err := h.service.SaveAddress(r.Context(), currentUserID(r), addr)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, status, map[string]any{"addresses": user.Addresses})
}

func (h *Handler) deleteAddress(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeleteAddress(r.Context(), currentUserID(r), chi.URLParam(r, "addressID"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"addresses": user.Addresses})
}

func (h *Handler) addPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var pm domain.PaymentMethod
	if err := web.DecodeJSON(w, r, &pm); err != nil {
		web.RespondError(w, r, err)
		return
	}

	user, err := h.service.AddPaymentMethod(r.Context(), currentUserID(r), pm)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusCreated, map[string]any{"payment_methods": user.PaymentMethods})
}

func (h *Handler) deletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.DeletePaymentMethod(r.Context(), currentUserID(r), chi.URLParam(r, "paymentID"))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"payment_methods": user.PaymentMethods})
}

func (h *Handler) rewards(w http.ResponseWriter, r *http.Request) {
	points, err := h.service.RewardPoints(r.Context(), currentUserID(r))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]int{"reward_points": points})
}

func (h *Handler) wishlist(w http.ResponseWriter, r *http.Request) {
	ids, err := h.service.Wishlist(r.Context(), currentUserID(r))
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	byID, err := h.products.ProductsByID(r.Context(), ids)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}

	products := make([]catalogdomain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok && !p.Archived {
			products = append(products, p)
		}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) addToWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.service.AddToWishlist(r.Context(), currentUserID(r), chi.URLParam(r, "productID")); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeFromWishlist(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveFromWishlist(r.Context(), currentUserID(r), chi.URLParam(r, "productID")); err != nil {
		web.RespondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	filter := ports.ListFilter{Search: r.URL.Query().Get("search")}
	filter.Page, filter.PageSize = web.Page(r)

	if value := r.URL.Query().Get("role"); value != "" {
		role, err := domain.ParseRole(value)
		if err != nil {
			web.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Role = &role
	}

	users, err := h.service.ListUsers(r.Context(), filter)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"users": users})
}

func (h *Handler) setRole(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Role string `json:"role"`
	}
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	user, err := h.service.SetRole(r.Context(), chi.URLParam(r, "id"), input.Role)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *Handler) adjustRewardPoints(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Delta int `json:"delta"`
	}
	if err := web.DecodeJSON(w, r, &input); err != nil {
		web.RespondError(w, r, err)
		return
	}

	balance, err := h.service.AdjustRewardPoints(r.Context(), chi.URLParam(r, "id"), input.Delta)
	if err != nil {
		web.RespondError(w, r, err)
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]int{"reward_points": balance})
}

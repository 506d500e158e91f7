package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dejobratic/cafe/internal/auth"
	notificationshttp "github.com/dejobratic/cafe/internal/notifications/adapters/http"
	"github.com/dejobratic/cafe/internal/notifications/adapters/memory"
	"github.com/dejobratic/cafe/internal/notifications/app"
	"github.com/dejobratic/cafe/internal/notifications/domain"
)

var (
	alice = &auth.Principal{UserID: "alice", Role: "customer"}
	admin = &auth.Principal{UserID: "root", Role: auth.RoleAdmin}
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewRepository()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	for _, n := range []domain.Notification{
		{ID: "n1", UserID: "alice", Type: domain.TypeOrderPlaced, Message: "Order placed", CreatedAt: created},
		{ID: "n2", UserID: "alice", Type: domain.TypePointsAwarded, Message: "You earned 10 points", CreatedAt: created.Add(time.Hour)},
		{ID: "n3", UserID: "bob", Type: domain.TypeOrderPlaced, Message: "Order placed", CreatedAt: created},
	} {
		require.NoError(t, repo.AddNotification(ctx, n))
	}
	require.NoError(t, repo.AddAuditLog(ctx, domain.AuditLog{
		ID: "a1", ActorID: "alice", Action: "order.placed", Entity: "order", EntityID: "o-1", CreatedAt: created,
	}))
	require.NoError(t, repo.AddAuditLog(ctx, domain.AuditLog{
		ID: "a2", ActorID: "root", Action: "offer.created", Entity: "offer", EntityID: "WELCOME10", CreatedAt: created,
	}))

	router := chi.NewRouter()
	notificationshttp.NewHandler(app.NewService(repo)).Register(router)
	return router
}

func do(h http.Handler, method, path string, principal *auth.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if principal != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func notifications(t *testing.T, rec *httptest.ResponseRecorder) []domain.Notification {
	t.Helper()
	var body struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Notifications
}

func TestNotifications(t *testing.T) {
	t.Run("requires a signed in user", func(t *testing.T) {
		rec := do(newRouter(t), http.MethodGet, "/notifications", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("lists only own notifications newest first", func(t *testing.T) {
		rec := do(newRouter(t), http.MethodGet, "/notifications", alice)
		require.Equal(t, http.StatusOK, rec.Code)

		got := notifications(t, rec)
		require.Len(t, got, 2)
		assert.Equal(t, "n2", got[0].ID)
		assert.Equal(t, "n1", got[1].ID)
	})

	t.Run("marks one as read", func(t *testing.T) {
		router := newRouter(t)

		rec := do(router, http.MethodPatch, "/notifications/n1/read", alice)
		require.Equal(t, http.StatusNoContent, rec.Code)

		unread := notifications(t, do(router, http.MethodGet, "/notifications?unread=true", alice))
		require.Len(t, unread, 1)
		assert.Equal(t, "n2", unread[0].ID)
	})

	t.Run("cannot mark another user's notification", func(t *testing.T) {
		rec := do(newRouter(t), http.MethodPatch, "/notifications/n3/read", alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("marks all as read", func(t *testing.T) {
		router := newRouter(t)

		rec := do(router, http.MethodPost, "/notifications/read-all", alice)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"updated":2}`, rec.Body.String())

		rec = do(router, http.MethodPost, "/notifications/read-all", alice)
		assert.JSONEq(t, `{"updated":0}`, rec.Body.String())
	})
}

func TestAuditLogs(t *testing.T) {
	t.Run("forbidden for customers", func(t *testing.T) {
		rec := do(newRouter(t), http.MethodGet, "/admin/audit-logs", alice)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("filters by entity", func(t *testing.T) {
		rec := do(newRouter(t), http.MethodGet, "/admin/audit-logs?entity=offer", admin)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			AuditLogs []domain.AuditLog `json:"audit_logs"`
		}
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.AuditLogs, 1)
		assert.Equal(t, "WELCOME10", body.AuditLogs[0].EntityID)
	})
}

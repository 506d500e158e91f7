package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dejobratic/cafe/internal/auth"
	catalogdomain "github.com/dejobratic/cafe/internal/catalog/domain"
	contentmemory "github.com/dejobratic/cafe/internal/content/adapters/memory"
	contentapp "github.com/dejobratic/cafe/internal/content/app"
	identitymemory "github.com/dejobratic/cafe/internal/identity/adapters/memory"
	identitydomain "github.com/dejobratic/cafe/internal/identity/domain"
	"github.com/dejobratic/cafe/internal/idempotency"
	idempotencymemory "github.com/dejobratic/cafe/internal/idempotency/memory"
	ordershttp "github.com/dejobratic/cafe/internal/orders/adapters/http"
	"github.com/dejobratic/cafe/internal/orders/adapters/memory"
	"github.com/dejobratic/cafe/internal/orders/app"
	"github.com/dejobratic/cafe/internal/orders/metrics"
	outboxmemory "github.com/dejobratic/cafe/internal/outbox/memory"
	"github.com/dejobratic/cafe/internal/payment"
	promotionsmemory "github.com/dejobratic/cafe/internal/promotions/adapters/memory"
	promotionsapp "github.com/dejobratic/cafe/internal/promotions/app"
)

type catalogStub map[string]catalogdomain.Product

func (c catalogStub) ProductsByID(_ context.Context, ids []string) (map[string]catalogdomain.Product, error) {
	out := make(map[string]catalogdomain.Product)
	for _, id := range ids {
		if p, ok := c[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type customers struct {
	repo *identitymemory.Repository
}

func (c customers) GetProfile(ctx context.Context, userID string) (*identitydomain.User, error) {
	return c.repo.GetByID(ctx, userID)
}

type noGateway struct{}

func (noGateway) CreateOrder(context.Context, payment.Credentials, payment.CreateOrderRequest) (*payment.GatewayOrder, error) {
	return nil, payment.ErrMissingCredentials
}

var (
	admin    = &auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin}
	customer = &auth.Principal{UserID: "user-1", Role: auth.RoleCustomer}
)

const checkout = `{
	"email": "guest@example.com",
	"items": [{"product_id": "latte", "quantity": 3}],
	"shipping_address": {"line1": "1 Bean St", "city": "Pune", "postal_code": "411001", "country": "IN"},
	"payment_method": "cod"
}`

// unsavedStore loses every answered response, like a store that fails
// after the order was committed.
type unsavedStore struct {
	*idempotencymemory.Store
}

func (unsavedStore) Save(context.Context, string, idempotency.Response) error {
	return errors.New("connection reset")
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	return newRouterWith(t, idempotencymemory.NewStore(time.Hour))
}

func newRouterWith(t *testing.T, store idempotency.Store) http.Handler {
	t.Helper()

	m, err := metrics.NewMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	users := identitymemory.NewRepository()
	require.NoError(t, users.Create(context.Background(), identitydomain.User{
		ID:    customer.UserID,
		Name:  "Ada",
		Email: "ada@example.com",
		Role:  identitydomain.RoleCustomer,
	}))

	service := app.NewService(app.Dependencies{
		Repository:       memory.NewRepository(users, outboxmemory.NewStore()),
		Catalog:          catalogStub{"latte": {ID: "latte", Name: "Latte", Price: decimal.NewFromInt(60)}},
		Customers:        customers{repo: users},
		Coupons:          promotionsapp.NewService(promotionsmemory.NewRepository()),
		Settings:         contentapp.NewService(contentmemory.NewStore()),
		Gateway:          noGateway{},
		Idempotency:      store,
		PointsPerHundred: 10,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:          m,
	})

	router := chi.NewRouter()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ordershttp.NewHandler(service, logger).Register(router)
	return router
}

func do(h http.Handler, method, path, body string, principal *auth.Principal, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if principal != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *principal))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type orderBody struct {
	Order struct {
		ID     string          `json:"id"`
		Status string          `json:"status"`
		Total  decimal.Decimal `json:"total"`
		IsPaid bool            `json:"is_paid"`
	} `json:"order"`
	PointsAwarded int `json:"points_awarded"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) orderBody {
	t.Helper()
	var body orderBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestPlaceOrderIdempotency(t *testing.T) {
	router := newRouter(t)
	key := map[string]string{"Idempotency-Key": "checkout-42"}

	first := do(router, http.MethodPost, "/orders", checkout, nil, key)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	placed := decode(t, first)
	assert.Equal(t, "/api/orders/"+placed.Order.ID, first.Header().Get("Location"))
	assert.True(t, placed.Order.Total.Equal(decimal.NewFromInt(180)))

	replay := do(router, http.MethodPost, "/orders", checkout, nil, key)
	require.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, placed.Order.ID, decode(t, replay).Order.ID)

	fresh := do(router, http.MethodPost, "/orders", checkout, nil, nil)
	require.Equal(t, http.StatusCreated, fresh.Code)
	assert.NotEqual(t, placed.Order.ID, decode(t, fresh).Order.ID)

	list := do(router, http.MethodGet, "/admin/orders", "", admin, nil)
	require.Equal(t, http.StatusOK, list.Code)
	var all struct {
		Orders []json.RawMessage `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &all))
	assert.Len(t, all.Orders, 2)

	long := map[string]string{"Idempotency-Key": strings.Repeat("k", 300)}
	rec := do(router, http.MethodPost, "/orders", checkout, nil, long)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPlaceOrderIdempotencyReservation(t *testing.T) {
	ctx := context.Background()

	t.Run("key held by an in-flight request conflicts", func(t *testing.T) {
		store := idempotencymemory.NewStore(time.Hour)
		router := newRouterWith(t, store)
		reserved, err := store.Reserve(ctx, idempotency.Key("", "checkout-7"))
		require.NoError(t, err)
		require.True(t, reserved)

		rec := do(router, http.MethodPost, "/orders", checkout, nil, map[string]string{"Idempotency-Key": "checkout-7"})
		assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

		list := do(router, http.MethodGet, "/admin/orders", "", admin, nil)
		assert.JSONEq(t, `{"orders":[]}`, list.Body.String())
	})

	t.Run("failed placement frees the key", func(t *testing.T) {
		router := newRouter(t)
		key := map[string]string{"Idempotency-Key": "checkout-8"}

		bad := do(router, http.MethodPost, "/orders", strings.Replace(checkout, `"latte"`, `"mocha"`, 1), nil, key)
		require.Equal(t, http.StatusBadRequest, bad.Code)

		retry := do(router, http.MethodPost, "/orders", checkout, nil, key)
		require.Equal(t, http.StatusCreated, retry.Code, retry.Body.String())
		assert.Empty(t, retry.Header().Get("Idempotent-Replayed"))
	})

	t.Run("committed order is reported even if the response is not stored", func(t *testing.T) {
		router := newRouterWith(t, unsavedStore{idempotencymemory.NewStore(time.Hour)})
		key := map[string]string{"Idempotency-Key": "checkout-9"}

		rec := do(router, http.MethodPost, "/orders", checkout, nil, key)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.NotEmpty(t, decode(t, rec).Order.ID)

		retry := do(router, http.MethodPost, "/orders", checkout, nil, key)
		assert.Equal(t, http.StatusConflict, retry.Code, "reservation still guards the key")

		list := do(router, http.MethodGet, "/admin/orders", "", admin, nil)
		var all struct {
			Orders []json.RawMessage `json:"orders"`
		}
		require.NoError(t, json.Unmarshal(list.Body.Bytes(), &all))
		assert.Len(t, all.Orders, 1)
	})
}

func TestPlaceOrderRejectsBadInput(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "malformed json", body: `{"items":`, want: http.StatusBadRequest},
		{name: "empty body", body: ``, want: http.StatusBadRequest},
		{name: "no items", body: `{"email":"g@example.com","payment_method":"cod"}`, want: http.StatusBadRequest},
		{
			name: "unknown product",
			body: strings.Replace(checkout, `"latte"`, `"mocha"`, 1),
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/orders", tt.body, nil, nil)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestOrderAccess(t *testing.T) {
	router := newRouter(t)

	rec := do(router, http.MethodPost, "/orders", checkout, customer, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decode(t, rec).Order.ID

	t.Run("mine requires a user", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/orders/mine", "", nil, nil).Code)
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/orders/mine", "", customer, nil).Code)
	})

	t.Run("other customers cannot see the order", func(t *testing.T) {
		stranger := &auth.Principal{UserID: "user-2", Role: auth.RoleCustomer}
		assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/orders/"+id, "", stranger, nil).Code)
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/orders/"+id, "", customer, nil).Code)
	})

	t.Run("customers cannot change status", func(t *testing.T) {
		rec := do(router, http.MethodPut, "/admin/orders/"+id+"/status", `{"status":"delivered"}`, customer, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin delivery awards points", func(t *testing.T) {
		rec := do(router, http.MethodPut, "/admin/orders/"+id+"/status", `{"status":"delivered"}`, admin, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := decode(t, rec)
		assert.Equal(t, "delivered", body.Order.Status)
		assert.True(t, body.Order.IsPaid)
		assert.Equal(t, 10, body.PointsAwarded)
	})

	t.Run("admin list filters by status", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/admin/orders?status=lost", "", admin, nil).Code)
		assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/admin/orders?status=delivered", "", admin, nil).Code)
	})
}

func TestCreateGatewayOrderDisabled(t *testing.T) {
	router := newRouter(t)

	rec := do(router, http.MethodPost, "/orders/gateway", checkout, nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

package helpers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/handlers"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/nimasrn/smartcart/internal/services"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/nimasrn/smartcart/pkg/pg"
	"github.com/nimasrn/smartcart/pkg/prom"
	"github.com/nimasrn/smartcart/pkg/redis"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func SetupTestDB(t *testing.T) *pg.DB {
	return repository.NewTestDB(t)
}

func SetupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)

	adapter, err := redis.NewRedisAdapter(context.Background(), "", &redis.Options{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mr, adapter
}

type APIOptions struct {
	CashIntentTTL time.Duration
	CodeLength    int
	// WithFeed publishes register events to a miniredis backed stream.
	WithFeed bool
}

// API is the full HTTP surface of cmd/api wired to sqlite and, optionally,
// miniredis. Requests run through the real router and middleware chain.
type API struct {
	DB      *pg.DB
	Feed    *feed.Feed
	Redis   redis.RedisAdapter
	Metrics *prom.Metrics
	Cashier *services.CashierService
	handler fasthttp.RequestHandler
}

func NewAPI(t *testing.T, opts APIOptions) *API {
	t.Helper()
	if opts.CashIntentTTL == 0 {
		opts.CashIntentTTL = 15 * time.Minute
	}
	if opts.CodeLength == 0 {
		opts.CodeLength = 6
	}

	api := &API{DB: SetupTestDB(t)}

	metrics, err := prom.Create("test", "test", "smartcart")
	require.NoError(t, err)
	api.Metrics = metrics

	var events services.EventPublisher
	if opts.WithFeed {
		_, adapter := SetupTestRedis(t)
		f, err := feed.New(context.Background(), adapter, feed.Config{
			Stream:        "test:register:feed",
			ConsumerGroup: "test-relay",
			ConsumerName:  "test-consumer",
			PollInterval:  20 * time.Millisecond,
			BatchSize:     50,
			MaxLen:        1000,
		})
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Stop(time.Second) })
		api.Feed = f
		api.Redis = adapter
		events = f
	}

	intentRepo := repository.NewCashIntentRepository(api.DB)
	api.Cashier = services.NewCashierService(intentRepo, repository.NewCashierCodeHistoryRepository(api.DB), events, metrics, opts.CashIntentTTL, opts.CodeLength)

	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	handlers.RegisterRoutes(s.Router, handlers.Set{
		Products:  handlers.NewProductHandler(services.NewCatalogService(repository.NewProductRepository(api.DB))),
		Customers: handlers.NewCustomerHandler(services.NewCustomerService(repository.NewCustomerRepository(api.DB))),
		Purchases: handlers.NewPurchaseHandler(services.NewPurchaseService(repository.NewPurchaseRepository(api.DB), intentRepo, events, metrics)),
		Cashier:   handlers.NewCashierHandler(api.Cashier),
		Admin:     handlers.NewAdminHandler(services.NewAdminService(repository.NewAdminRepository(api.DB))),
		Health:    handlers.NewHealthHandler(services.NewHealthService(api.DB)),
	})
	api.handler = s.Handler()

	return api
}

type Response struct {
	Status int
	Body   []byte
}

func (r Response) Decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, v), "body: %s", r.Body)
}

// Do runs one request. A non-nil body that is not []byte is JSON encoded.
func (a *API) Do(t *testing.T, method, path string, body any) Response {
	t.Helper()

	// Init attaches a fake server so ctx.Done works when the ctx reaches database/sql.
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&fasthttp.Request{}, nil, nil)
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		raw, ok := body.([]byte)
		if !ok {
			var err error
			raw, err = json.Marshal(body)
			require.NoError(t, err)
		}
		ctx.Request.Header.SetContentType("application/json")
		ctx.Request.SetBody(raw)
	}

	a.handler(ctx)

	out := make([]byte, len(ctx.Response.Body()))
	copy(out, ctx.Response.Body())
	return Response{Status: ctx.Response.StatusCode(), Body: out}
}

func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func AssertEventually(t *testing.T, timeout time.Duration, condition func() bool, msg string) {
	if !WaitForCondition(t, timeout, condition) {
		t.Fatal(msg)
	}
}

func ContextWithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

func Ptr[T any](v T) *T {
	return &v
}

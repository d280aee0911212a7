package e2e

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/smartcart/internal/feed"
	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/internal/repository"
	"github.com/nimasrn/smartcart/internal/services"
	"github.com/nimasrn/smartcart/test/fixtures"
	"github.com/nimasrn/smartcart/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type intentBody struct {
	Success     bool   `json:"success"`
	CashierCode string `json:"cashierCode"`
}

func createIntent(t *testing.T, api *helpers.API, c model.CustomerSaveRequest) string {
	t.Helper()
	resp := api.Do(t, "POST", "/cash-intent", fixtures.CashIntent(c))
	require.Equal(t, 200, resp.Status, string(resp.Body))

	var body intentBody
	resp.Decode(t, &body)
	require.True(t, body.Success)
	require.Len(t, body.CashierCode, 6)
	return body.CashierCode
}

func history(t *testing.T, api *helpers.API) []model.CashierCodeHistory {
	t.Helper()
	resp := api.Do(t, "GET", "/cashier-code-history", nil)
	require.Equal(t, 200, resp.Status)
	var items []model.CashierCodeHistory
	resp.Decode(t, &items)
	return items
}

func pendingIntents(t *testing.T, api *helpers.API) []model.CashIntent {
	t.Helper()
	resp := api.Do(t, "GET", "/cash-intents", nil)
	require.Equal(t, 200, resp.Status)
	var items []model.CashIntent
	resp.Decode(t, &items)
	return items
}

func TestE2E_CashCheckoutHandshake(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})

	code := createIntent(t, api, fixtures.Asha)
	assert.Len(t, pendingIntents(t, api), 1)

	resp := api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code))
	require.Equal(t, 200, resp.Status)
	var ok messageBody
	resp.Decode(t, &ok)
	assert.True(t, ok.Success)
	assert.Equal(t, "Code verified", ok.Message)

	// a code is consumed exactly once
	resp = api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code))
	assert.Equal(t, 401, resp.Status)
	var again messageBody
	resp.Decode(t, &again)
	assert.False(t, again.Success)
	assert.Equal(t, "Invalid code", again.Message)

	assert.Empty(t, pendingIntents(t, api))

	h := history(t, api)
	require.Len(t, h, 1)
	assert.True(t, h[0].Verified)
	assert.NotNil(t, h[0].VerifiedAt)
	assert.Equal(t, code, h[0].CashierCode)
}

func TestE2E_WrongCodeLeavesIntentPending(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})
	code := createIntent(t, api, fixtures.Asha)

	resp := api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, "ZZZZZZ"))
	assert.Equal(t, 401, resp.Status)

	// another customer's mobile does not match either
	resp = api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Ravi.Mobile, code))
	assert.Equal(t, 401, resp.Status)

	pending := pendingIntents(t, api)
	require.Len(t, pending, 1)
	assert.Equal(t, code, pending[0].CashierCode)
}

func TestE2E_ExpiredCode(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{CashIntentTTL: time.Millisecond})
	code := createIntent(t, api, fixtures.Asha)
	time.Sleep(20 * time.Millisecond)

	resp := api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code))
	assert.Equal(t, 401, resp.Status)
	var body messageBody
	resp.Decode(t, &body)
	assert.Equal(t, "Code expired", body.Message)

	assert.Empty(t, pendingIntents(t, api))
	h := history(t, api)
	require.Len(t, h, 1)
	assert.False(t, h[0].Verified)
	assert.Nil(t, h[0].VerifiedAt)

	// the expired intent is gone, so a retry is simply invalid
	resp = api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code))
	resp.Decode(t, &body)
	assert.Equal(t, "Invalid code", body.Message)
}

func TestE2E_NewIntentReplacesOldCode(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})

	first := createIntent(t, api, fixtures.Asha)
	var second string
	for {
		second = createIntent(t, api, fixtures.Asha)
		if second != first {
			break
		}
	}

	pending := pendingIntents(t, api)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].CashierCode)

	resp := api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, first))
	assert.Equal(t, 401, resp.Status)
	resp = api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, second))
	assert.Equal(t, 200, resp.Status)

	assert.GreaterOrEqual(t, len(history(t, api)), 2)
}

func TestE2E_ConcurrentVerifyConsumesOnce(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})
	code := createIntent(t, api, fixtures.Asha)

	const racers = 8
	statuses := make(chan int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses <- api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code)).Status
		}()
	}
	wg.Wait()
	close(statuses)

	success := 0
	for s := range statuses {
		if s == 200 {
			success++
		} else {
			assert.Equal(t, 401, s)
		}
	}
	assert.Equal(t, 1, success)
}

func TestE2E_PurchaseClearsIntent(t *testing.T) {
	t.Run("cash purchase removes pending intent", func(t *testing.T) {
		api := helpers.NewAPI(t, helpers.APIOptions{})
		code := createIntent(t, api, fixtures.Asha)

		resp := api.Do(t, "POST", "/purchase", fixtures.Purchase(fixtures.Asha, model.PaymentMethodCash, code))
		require.Equal(t, 200, resp.Status, string(resp.Body))
		var body messageBody
		resp.Decode(t, &body)
		assert.Equal(t, "Purchase saved", body.Message)

		assert.Empty(t, pendingIntents(t, api))

		resp = api.Do(t, "GET", "/purchases/cash", nil)
		var cash []model.Purchase
		resp.Decode(t, &cash)
		require.Len(t, cash, 1)
		assert.Equal(t, code, cash[0].CashierCode)
		require.Len(t, cash[0].Products, 2)
		assert.Equal(t, 2, cash[0].Products[0].Quantity)
	})

	t.Run("online purchase leaves pending intent", func(t *testing.T) {
		api := helpers.NewAPI(t, helpers.APIOptions{})
		createIntent(t, api, fixtures.Asha)

		resp := api.Do(t, "POST", "/purchase", fixtures.Purchase(fixtures.Asha, model.PaymentMethodOnline, ""))
		require.Equal(t, 200, resp.Status)

		assert.Len(t, pendingIntents(t, api), 1)

		var online, cash []model.Purchase
		api.Do(t, "GET", "/purchases/online", nil).Decode(t, &online)
		api.Do(t, "GET", "/purchases/cash", nil).Decode(t, &cash)
		assert.Len(t, online, 1)
		assert.Empty(t, cash)
	})

	t.Run("history is newest first", func(t *testing.T) {
		api := helpers.NewAPI(t, helpers.APIOptions{})
		require.Equal(t, 200, api.Do(t, "POST", "/purchase", fixtures.Purchase(fixtures.Asha, model.PaymentMethodOnline, "")).Status)
		time.Sleep(5 * time.Millisecond)
		require.Equal(t, 200, api.Do(t, "POST", "/purchase", fixtures.Purchase(fixtures.Ravi, model.PaymentMethodCash, "")).Status)

		var all []model.Purchase
		api.Do(t, "GET", "/purchase-history", nil).Decode(t, &all)
		require.Len(t, all, 2)
		assert.Equal(t, fixtures.Ravi.Mobile, all[0].Mobile)
	})

	t.Run("missing fields", func(t *testing.T) {
		api := helpers.NewAPI(t, helpers.APIOptions{})
		req := fixtures.Purchase(fixtures.Asha, model.PaymentMethodCash, "")
		req.Products = nil

		resp := api.Do(t, "POST", "/purchase", req)
		assert.Equal(t, 400, resp.Status)
	})
}

func TestE2E_ProductLifecycle(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})

	resp := api.Do(t, "POST", "/add-product", fixtures.MilkPacket)
	require.Equal(t, 200, resp.Status, string(resp.Body))

	resp = api.Do(t, "POST", "/add-product", fixtures.MilkPacket)
	assert.Equal(t, 400, resp.Status)
	var dup messageBody
	resp.Decode(t, &dup)
	assert.Equal(t, "Barcode already exists", dup.Message)

	resp = api.Do(t, "GET", "/product/189943756592", nil)
	require.Equal(t, 200, resp.Status)
	var p model.Product
	resp.Decode(t, &p)
	assert.Equal(t, "Milk Packet", p.Name)
	assert.Equal(t, 25.0, p.Price)

	resp = api.Do(t, "PUT", "/update-product/189943756592", map[string]any{"price": 27.5})
	require.Equal(t, 200, resp.Status)

	var managed struct {
		Success bool          `json:"success"`
		Product model.Product `json:"product"`
	}
	api.Do(t, "GET", "/product-manage/189943756592", nil).Decode(t, &managed)
	assert.True(t, managed.Success)
	assert.Equal(t, "Milk Packet", managed.Product.Name)
	assert.Equal(t, 27.5, managed.Product.Price)

	resp = api.Do(t, "DELETE", "/delete-product/189943756592", nil)
	require.Equal(t, 200, resp.Status)

	assert.Equal(t, 404, api.Do(t, "GET", "/product/189943756592", nil).Status)
	assert.Equal(t, 404, api.Do(t, "DELETE", "/delete-product/189943756592", nil).Status)
	assert.Equal(t, 404, api.Do(t, "PUT", "/update-product/189943756592", map[string]any{"name": "x"}).Status)
}

func TestE2E_ProductCatalog(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})

	for _, p := range []map[string]any{fixtures.MilkPacket, fixtures.Bread, fixtures.FreeSample} {
		require.Equal(t, 200, api.Do(t, "POST", "/add-product", p).Status)
	}
	assert.Equal(t, 400, api.Do(t, "POST", "/add-product", map[string]any{"barcode": "9", "name": "No price"}).Status)

	var list struct {
		Success  bool            `json:"success"`
		Products []model.Product `json:"products"`
	}
	api.Do(t, "GET", "/all-products", nil).Decode(t, &list)
	require.Len(t, list.Products, 3)
	assert.Equal(t, "Bread", list.Products[0].Name)
	assert.Equal(t, "Free Sample", list.Products[1].Name)
	assert.Equal(t, 0.0, list.Products[1].Price)
}

func TestE2E_CustomersAndAdmin(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})

	require.Equal(t, 200, api.Do(t, "POST", "/customer", fixtures.Asha).Status)
	updated := fixtures.Asha
	updated.Email = "asha@new.example.com"
	require.Equal(t, 200, api.Do(t, "POST", "/customer", updated).Status)
	assert.Equal(t, 400, api.Do(t, "POST", "/customer", map[string]string{"name": "x"}).Status)

	var customers []model.Customer
	api.Do(t, "GET", "/customers", nil).Decode(t, &customers)
	require.Len(t, customers, 1)
	assert.Equal(t, "asha@new.example.com", customers[0].Email)

	_, err := services.NewAdminService(repository.NewAdminRepository(api.DB)).Create(context.Background(), "admin@shop.io", "s3cret")
	require.NoError(t, err)

	resp := api.Do(t, "POST", "/admin/login", map[string]string{"email": "admin@shop.io", "password": "s3cret"})
	assert.Equal(t, 200, resp.Status)
	resp = api.Do(t, "POST", "/admin/login", map[string]string{"email": "admin@shop.io", "password": "wrong"})
	assert.Equal(t, 401, resp.Status)
	var body messageBody
	resp.Decode(t, &body)
	assert.False(t, body.Success)
}

func TestE2E_Health(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{})
	resp := api.Do(t, "GET", "/health", nil)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "success", string(resp.Body))
}

func TestE2E_FeedCarriesNoCodes(t *testing.T) {
	api := helpers.NewAPI(t, helpers.APIOptions{WithFeed: true})

	code := createIntent(t, api, fixtures.Asha)
	require.Equal(t, 200, api.Do(t, "POST", "/verify-cashier-code", fixtures.Verify(fixtures.Asha.Mobile, code)).Status)
	require.Equal(t, 200, api.Do(t, "POST", "/purchase", fixtures.Purchase(fixtures.Asha, model.PaymentMethodCash, code)).Status)

	var mu sync.Mutex
	var received []*feed.Message
	require.NoError(t, api.Feed.Consume(context.Background(), func(ctx context.Context, msg *feed.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		return nil
	}))

	helpers.AssertEventually(t, 3*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, "expected three register events")

	mu.Lock()
	defer mu.Unlock()
	types := make([]string, 0, len(received))
	for _, msg := range received {
		var raw map[string]any
		require.NoError(t, json.Unmarshal(msg.Data, &raw))
		assert.NotContains(t, raw, "cashierCode")
		for _, v := range raw {
			assert.NotEqual(t, code, v)
		}
		assert.NotContains(t, string(msg.Data), fixtures.Asha.Mobile)

		var ev model.RegisterEvent
		require.NoError(t, json.Unmarshal(msg.Data, &ev))
		assert.Equal(t, "******1111", ev.Mobile)
		types = append(types, ev.Type)
	}
	assert.Equal(t, []string{model.EventCashIntentCreated, model.EventCashIntentVerified, model.EventPurchaseRecorded}, types)
}

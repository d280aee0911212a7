package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/stretchr/testify/mock"
	"github.com/valyala/fasthttp"
)

func setupTestContext(method, path string, body []byte) *xhttp.RequestCtx {
	ctx := &fasthttp.RequestCtx{}
	ctx.Init(&fasthttp.Request{}, nil, nil)
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(path)
	if body != nil {
		ctx.Request.SetBody(body)
	}
	return ctx
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Add(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) Get(ctx context.Context, barcode string) (*model.Product, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) Update(ctx context.Context, barcode string, req model.ProductUpdateRequest) (*model.Product, error) {
	args := m.Called(ctx, barcode, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) Delete(ctx context.Context, barcode string) error {
	return m.Called(ctx, barcode).Error(0)
}

func (m *MockCatalogService) List(ctx context.Context) ([]*model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Product), args.Error(1)
}

type MockCustomerService struct {
	mock.Mock
}

func (m *MockCustomerService) Save(ctx context.Context, req model.CustomerSaveRequest) (*model.Customer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *MockCustomerService) List(ctx context.Context) ([]*model.Customer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Customer), args.Error(1)
}

type MockPurchaseService struct {
	mock.Mock
}

func (m *MockPurchaseService) Record(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Purchase), args.Error(1)
}

func (m *MockPurchaseService) List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Purchase), args.Error(1)
}

type MockCashierService struct {
	mock.Mock
}

func (m *MockCashierService) CreateIntent(ctx context.Context, req model.CashIntentCreateRequest) (*model.CashIntent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CashIntent), args.Error(1)
}

func (m *MockCashierService) Verify(ctx context.Context, req model.CashierCodeVerifyRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *MockCashierService) ListIntents(ctx context.Context) ([]*model.CashIntent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CashIntent), args.Error(1)
}

func (m *MockCashierService) ListHistory(ctx context.Context) ([]*model.CashierCodeHistory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.CashierCodeHistory), args.Error(1)
}

type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) Authenticate(ctx context.Context, req model.AdminLoginRequest) error {
	return m.Called(ctx, req).Error(0)
}

type MockHealthService struct {
	mock.Mock
}

func (m *MockHealthService) Check(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/valyala/fasthttp"
)

type CustomerService interface {
	Save(ctx context.Context, req model.CustomerSaveRequest) (*model.Customer, error)
	List(ctx context.Context) ([]*model.Customer, error)
}

type CustomerHandler struct {
	svc CustomerService
}

func RegisterCustomerRoutes(r Routes, h *CustomerHandler) {
	r.POST("/customer", h.SaveCustomer)
	r.GET("/customers", h.ListCustomers)
}

func NewCustomerHandler(svc CustomerService) *CustomerHandler {
	return &CustomerHandler{svc: svc}
}

func (h *CustomerHandler) SaveCustomer(ctx *xhttp.RequestCtx) {
	var req model.CustomerSaveRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Missing fields")
		return
	}
	if _, err := h.svc.Save(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Customer saved")
}

func (h *CustomerHandler) ListCustomers(ctx *xhttp.RequestCtx) {
	customers, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, orEmpty(customers))
}

package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/valyala/fasthttp"
)

type PurchaseService interface {
	Record(ctx context.Context, req model.PurchaseCreateRequest) (*model.Purchase, error)
	List(ctx context.Context, f model.PurchaseFilter) ([]*model.Purchase, error)
}

type PurchaseHandler struct {
	svc PurchaseService
}

func RegisterPurchaseRoutes(r Routes, h *PurchaseHandler) {
	r.POST("/purchase", h.RecordPurchase)
	r.GET("/purchase-history", h.listBy(""))
	r.GET("/purchases/cash", h.listBy(model.PaymentMethodCash))
	r.GET("/purchases/online", h.listBy(model.PaymentMethodOnline))
}

func NewPurchaseHandler(svc PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

func (h *PurchaseHandler) RecordPurchase(ctx *xhttp.RequestCtx) {
	var req model.PurchaseCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Missing fields")
		return
	}
	if _, err := h.svc.Record(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Purchase saved")
}

func (h *PurchaseHandler) ListPurchases(ctx *xhttp.RequestCtx, paymentMethod string) {
	items, err := h.svc.List(ctx, model.PurchaseFilter{PaymentMethod: paymentMethod})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, orEmpty(items))
}

func (h *PurchaseHandler) listBy(paymentMethod string) fasthttp.RequestHandler {
	return func(ctx *xhttp.RequestCtx) {
		h.ListPurchases(ctx, paymentMethod)
	}
}

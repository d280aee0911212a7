package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/valyala/fasthttp"
)

type CashierService interface {
	CreateIntent(ctx context.Context, req model.CashIntentCreateRequest) (*model.CashIntent, error)
	Verify(ctx context.Context, req model.CashierCodeVerifyRequest) error
	ListIntents(ctx context.Context) ([]*model.CashIntent, error)
	ListHistory(ctx context.Context) ([]*model.CashierCodeHistory, error)
}

type CashierHandler struct {
	svc CashierService
}

func RegisterCashierRoutes(r Routes, h *CashierHandler) {
	r.POST("/cash-intent", h.CreateIntent)
	r.GET("/cash-intents", h.ListIntents)
	r.POST("/verify-cashier-code", h.VerifyCode)
	r.GET("/cashier-code-history", h.ListHistory)
}

func NewCashierHandler(svc CashierService) *CashierHandler {
	return &CashierHandler{svc: svc}
}

type cashIntentResponse struct {
	Success     bool   `json:"success"`
	CashierCode string `json:"cashierCode"`
}

func (h *CashierHandler) CreateIntent(ctx *xhttp.RequestCtx) {
	var req model.CashIntentCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Missing fields")
		return
	}
	ci, err := h.svc.CreateIntent(ctx, req)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, cashIntentResponse{Success: true, CashierCode: ci.CashierCode})
}

func (h *CashierHandler) VerifyCode(ctx *xhttp.RequestCtx) {
	var req model.CashierCodeVerifyRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Missing fields")
		return
	}
	if err := h.svc.Verify(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Code verified")
}

func (h *CashierHandler) ListIntents(ctx *xhttp.RequestCtx) {
	intents, err := h.svc.ListIntents(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, orEmpty(intents))
}

func (h *CashierHandler) ListHistory(ctx *xhttp.RequestCtx) {
	history, err := h.svc.ListHistory(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, orEmpty(history))
}

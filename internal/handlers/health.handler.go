package handlers

import (
	"context"

	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/valyala/fasthttp"
)

type HealthService interface {
	Check(ctx context.Context) error
}

type HealthHandler struct {
	svc HealthService
}

func RegisterHealthRoutes(r Routes, h *HealthHandler) {
	r.GET("/health", h.GetHealth)
}

func NewHealthHandler(svc HealthService) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.svc.Check(ctx); err != nil {
		logger.Error("health check failed", "error", err)
		ctx.Response.SetStatusCode(fasthttp.StatusInternalServerError)
		ctx.Response.SetBodyString("unhealthy")
		return
	}
	ctx.Response.SetBodyString("success")
}

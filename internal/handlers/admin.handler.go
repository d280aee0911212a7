package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	"github.com/nimasrn/smartcart/internal/services"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/valyala/fasthttp"
)

type AdminService interface {
	Authenticate(ctx context.Context, req model.AdminLoginRequest) error
}

type AdminHandler struct {
	svc AdminService
}

func RegisterAdminRoutes(r Routes, h *AdminHandler) {
	r.POST("/admin/login", h.Login)
}

func NewAdminHandler(svc AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Login(ctx *xhttp.RequestCtx) {
	var req model.AdminLoginRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusUnauthorized, services.ErrInvalidCredentials.Message)
		return
	}
	if err := h.svc.Authenticate(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Login successful")
}

package handlers

import (
	"context"

	"github.com/nimasrn/smartcart/internal/model"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/valyala/fasthttp"
)

type CatalogService interface {
	Add(ctx context.Context, req model.ProductCreateRequest) (*model.Product, error)
	Get(ctx context.Context, barcode string) (*model.Product, error)
	Update(ctx context.Context, barcode string, req model.ProductUpdateRequest) (*model.Product, error)
	Delete(ctx context.Context, barcode string) error
	List(ctx context.Context) ([]*model.Product, error)
}

type ProductHandler struct {
	svc CatalogService
}

func RegisterProductRoutes(r Routes, h *ProductHandler) {
	r.POST("/add-product", h.AddProduct)
	r.GET("/product/{barcode}", h.GetProduct)
	r.GET("/product-manage/{barcode}", h.GetManagedProduct)
	r.PUT("/update-product/{barcode}", h.UpdateProduct)
	r.DELETE("/delete-product/{barcode}", h.DeleteProduct)
	r.GET("/all-products", h.ListProducts)
}

func NewProductHandler(svc CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc}
}

type productResponse struct {
	Success bool           `json:"success"`
	Product *model.Product `json:"product"`
}

type productListResponse struct {
	Success  bool             `json:"success"`
	Products []*model.Product `json:"products"`
}

func (h *ProductHandler) AddProduct(ctx *xhttp.RequestCtx) {
	var req model.ProductCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "All fields required")
		return
	}
	if _, err := h.svc.Add(ctx, req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Product added successfully")
}

// GetProduct serves the scanner lookup, which expects the bare product.
func (h *ProductHandler) GetProduct(ctx *xhttp.RequestCtx) {
	p, err := h.svc.Get(ctx, pathParam(ctx, "barcode"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, p)
}

func (h *ProductHandler) GetManagedProduct(ctx *xhttp.RequestCtx) {
	p, err := h.svc.Get(ctx, pathParam(ctx, "barcode"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, productResponse{Success: true, Product: p})
}

func (h *ProductHandler) UpdateProduct(ctx *xhttp.RequestCtx) {
	var req model.ProductUpdateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "invalid JSON")
		return
	}
	if _, err := h.svc.Update(ctx, pathParam(ctx, "barcode"), req); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Product updated successfully")
}

func (h *ProductHandler) DeleteProduct(ctx *xhttp.RequestCtx) {
	if err := h.svc.Delete(ctx, pathParam(ctx, "barcode")); err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeSuccess(ctx, "Product deleted successfully")
}

func (h *ProductHandler) ListProducts(ctx *xhttp.RequestCtx) {
	products, err := h.svc.List(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, productListResponse{Success: true, Products: orEmpty(products)})
}

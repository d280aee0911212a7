package handlers

import (
	"encoding/json"

	"github.com/nimasrn/smartcart/internal/services"
	xhttp "github.com/nimasrn/smartcart/pkg/http"
	"github.com/nimasrn/smartcart/pkg/logger"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
)

const msgStoreError = "Database error"

// Routes is satisfied by both xhttp.Router and xhttp.Group.
type Routes interface {
	GET(path string, handler fasthttp.RequestHandler)
	POST(path string, handler fasthttp.RequestHandler)
	PUT(path string, handler fasthttp.RequestHandler)
	DELETE(path string, handler fasthttp.RequestHandler)
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func readJSON(ctx *xhttp.RequestCtx, dst any) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, dst)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		logger.Error("encode response", "error", err, "path", string(ctx.Path()))
		ctx.Response.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeSuccess(ctx *xhttp.RequestCtx, msg string) {
	writeJSON(ctx, fasthttp.StatusOK, messageResponse{Success: true, Message: msg})
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, messageResponse{Success: false, Message: msg})
}

// writeServiceError maps a service error onto a status code. Anything that
// is not a known kind is a store failure: logged, never shown.
func writeServiceError(ctx *xhttp.RequestCtx, err error) {
	msg := services.PublicMessage(err)
	switch {
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrConflict):
		writeError(ctx, fasthttp.StatusBadRequest, msg)
	case errors.Is(err, services.ErrNotFound):
		writeError(ctx, fasthttp.StatusNotFound, msg)
	case errors.Is(err, services.ErrUnauthorized):
		writeError(ctx, fasthttp.StatusUnauthorized, msg)
	default:
		logger.Error("request failed",
			"error", err,
			"method", string(ctx.Method()),
			"path", string(ctx.Path()),
			"request_id", xhttp.RequestID(ctx))
		writeError(ctx, fasthttp.StatusInternalServerError, msgStoreError)
	}
}

func pathParam(ctx *xhttp.RequestCtx, name string) string {
	v, _ := ctx.UserValue(name).(string)
	return v
}

func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

package pdfrouter

import (
	"github.com/goliatone/go-pdfgen/adapters/pdfapi"
	"github.com/goliatone/go-pdfgen/pdfgen"
	"github.com/goliatone/go-router"
)

// Config configures the go-router adapter.
type Config = pdfapi.Config

// Handler exposes generation routes for go-router.
type Handler struct {
	controller *pdfapi.Controller
}

// NewHandler creates a go-router handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: pdfapi.NewController(cfg)}
}

// RegisterRoutes registers routes on a compatible go-router router.
func (h *Handler) RegisterRoutes(router any) {
	r, ok := router.(routeRegistrar)
	if !ok {
		return
	}
	base := h.basePath()

	r.Post(base, h.Handle)
	r.Post(base+"/", h.Handle)
	r.Get(base, h.Handle)
	r.Get(base+"/", h.Handle)
	r.Get(base+"/:id", h.Handle)
	r.Get(base+"/:id/download", h.Handle)
	r.Delete(base+"/:id", h.Handle)
}

// Handle executes the shared generation workflow.
func (h *Handler) Handle(c router.Context) error {
	if c == nil {
		return nil
	}
	if h == nil || h.controller == nil {
		pdfapi.WriteError(routerResponse{ctx: c}, pdfgen.NewError(pdfgen.KindInternal, "handler is nil", nil))
		return nil
	}
	h.controller.Serve(routerRequest{ctx: c}, routerResponse{ctx: c})
	return nil
}

func (h *Handler) basePath() string {
	if h == nil || h.controller == nil {
		return "/admin/pdfs"
	}
	path := h.controller.BasePath()
	if path == "" {
		return "/admin/pdfs"
	}
	return path
}

type routeRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Delete(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

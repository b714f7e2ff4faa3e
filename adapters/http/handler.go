package pdfhttp

import (
	"net/http"

	"github.com/goliatone/go-pdfgen/adapters/pdfapi"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// Config configures the HTTP adapter.
type Config = pdfapi.Config

// Handler exposes generation HTTP endpoints.
type Handler struct {
	controller *pdfapi.Controller
}

// NewHandler creates a new HTTP handler.
func NewHandler(cfg Config) *Handler {
	return &Handler{controller: pdfapi.NewController(cfg)}
}

// RegisterRoutes registers handlers on a compatible router.
func (h *Handler) RegisterRoutes(router any) {
	switch r := router.(type) {
	case interface{ Handle(string, http.Handler) }:
		r.Handle(h.basePath(), h)
		r.Handle(h.basePath()+"/", h)
	case interface {
		HandleFunc(string, func(http.ResponseWriter, *http.Request))
	}:
		r.HandleFunc(h.basePath(), h.ServeHTTP)
		r.HandleFunc(h.basePath()+"/", h.ServeHTTP)
	}
}

// ServeHTTP routes generation endpoints.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if w == nil {
		return
	}
	if h == nil || h.controller == nil {
		pdfapi.WriteError(httpResponse{w: w}, pdfgen.NewError(pdfgen.KindInternal, "handler is nil", nil))
		return
	}
	h.controller.Serve(httpRequest{r: r}, httpResponse{w: w, req: r})
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

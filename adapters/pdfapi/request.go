package pdfapi

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/goliatone/go-pdfgen/pdfgen"
)

// Request provides minimal request access for transport adapters.
type Request interface {
	Context() context.Context
	Method() string
	Path() string
	Header(name string) string
	Query(name string) string
	Body() io.ReadCloser
}

// RequestDecoder parses an HTTP request into a generation request.
type RequestDecoder interface {
	Decode(req Request) (pdfgen.GenerateRequest, error)
}

// JSONRequestDecoder decodes JSON into generation requests.
type JSONRequestDecoder struct{}

// Decode decodes a JSON request body into a generation request.
func (d JSONRequestDecoder) Decode(req Request) (pdfgen.GenerateRequest, error) {
	if req == nil {
		return pdfgen.GenerateRequest{}, pdfgen.NewError(pdfgen.KindInternal, "request is nil", nil)
	}
	body := req.Body()
	if body == nil {
		return pdfgen.GenerateRequest{}, pdfgen.NewError(pdfgen.KindValidation, "request body is required", nil)
	}
	defer body.Close()

	payload, err := decodePayload(body)
	if err != nil {
		return pdfgen.GenerateRequest{}, err
	}

	reqModel := pdfgen.GenerateRequest{
		Name:            payload.Name,
		HTML:            []byte(payload.HTML),
		TemplateName:    payload.TemplateName,
		TemplateContext: payload.TemplateContext,
		Tags:            payload.Tags,
		Locale:          payload.Locale,
		IdempotencyKey:  payload.IdempotencyKey,
		Options:         payload.Options.toRenderOptions(),
	}

	return reqModel, nil
}

type requestPayload struct {
	Name            string               `json:"name"`
	HTML            string               `json:"html,omitempty"`
	TemplateName    string               `json:"template_name,omitempty"`
	TemplateContext map[string]any       `json:"template_context,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
	Locale          string               `json:"locale,omitempty"`
	IdempotencyKey  string               `json:"idempotency_key,omitempty"`
	Options         renderOptionsPayload `json:"options,omitempty"`
}

type renderOptionsPayload struct {
	PaperSize         string  `json:"paper_size,omitempty"`
	Landscape         *bool   `json:"landscape,omitempty"`
	PrintBackground   *bool   `json:"print_background,omitempty"`
	Scale             float64 `json:"scale,omitempty"`
	MarginTop         string  `json:"margin_top,omitempty"`
	MarginBottom      string  `json:"margin_bottom,omitempty"`
	MarginLeft        string  `json:"margin_left,omitempty"`
	MarginRight       string  `json:"margin_right,omitempty"`
	PreferCSSPageSize *bool   `json:"prefer_css_page_size,omitempty"`
	BaseURL           string  `json:"base_url,omitempty"`
	ExternalAssets    string  `json:"external_assets,omitempty"`
}

func (p renderOptionsPayload) toRenderOptions() pdfgen.RenderOptions {
	return pdfgen.RenderOptions{
		PaperSize:            normalizePaperSize(p.PaperSize),
		Landscape:            p.Landscape,
		PrintBackground:      p.PrintBackground,
		Scale:                p.Scale,
		MarginTop:            p.MarginTop,
		MarginBottom:         p.MarginBottom,
		MarginLeft:           p.MarginLeft,
		MarginRight:          p.MarginRight,
		PreferCSSPageSize:    p.PreferCSSPageSize,
		BaseURL:              p.BaseURL,
		ExternalAssetsPolicy: pdfgen.AssetsPolicy(strings.ToLower(strings.TrimSpace(p.ExternalAssets))),
	}
}

func normalizePaperSize(size string) string {
	trimmed := strings.TrimSpace(size)
	if trimmed == "" {
		return ""
	}
	return strings.ToUpper(trimmed[:1]) + strings.ToLower(trimmed[1:])
}

func decodePayload(body io.Reader) (requestPayload, error) {
	var payload requestPayload
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return requestPayload{}, pdfgen.NewError(pdfgen.KindValidation, "invalid request payload", err)
	}
	return payload, nil
}

package pdfapi

import (
	"io"
	"strings"
	"testing"
)

func TestJSONRequestDecoder_Decode(t *testing.T) {
	payload := `{
		"name": "invoice",
		"html": "<h1>hi</h1>",
		"tags": ["billing"],
		"locale": "en",
		"options": {"paper_size": "a4", "landscape": true, "external_assets": "Block"}
	}`
	decoder := JSONRequestDecoder{}
	req, err := decoder.Decode(stubRequest{body: io.NopCloser(strings.NewReader(payload))})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Name != "invoice" {
		t.Fatalf("unexpected name %q", req.Name)
	}
	if string(req.HTML) != "<h1>hi</h1>" {
		t.Fatalf("unexpected html %q", req.HTML)
	}
	if req.Options.PaperSize != "A4" {
		t.Fatalf("expected normalized paper size, got %q", req.Options.PaperSize)
	}
	if req.Options.Landscape == nil || !*req.Options.Landscape {
		t.Fatalf("expected landscape true")
	}
	if req.Options.ExternalAssetsPolicy != "block" {
		t.Fatalf("unexpected assets policy %q", req.Options.ExternalAssetsPolicy)
	}
}

func TestJSONRequestDecoder_UnknownField(t *testing.T) {
	decoder := JSONRequestDecoder{}
	_, err := decoder.Decode(stubRequest{body: io.NopCloser(strings.NewReader(`{"nope":1}`))})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNormalizePaperSize(t *testing.T) {
	cases := map[string]string{
		"":       "",
		"a4":     "A4",
		"LETTER": "Letter",
		" legal": "Legal",
	}
	for in, want := range cases {
		if got := normalizePaperSize(in); got != want {
			t.Fatalf("normalizePaperSize(%q) = %q, want %q", in, got, want)
		}
	}
}

package pdfgen

import (
	"strings"
	"testing"
	"time"
)

func TestRenderArtifactName_Default(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	name, err := renderArtifactName("invoice", "", now)
	if err != nil {
		t.Fatalf("render artifact name: %v", err)
	}
	if name != "invoice_20240102T030405Z.pdf" {
		t.Fatalf("unexpected artifact name %q", name)
	}
}

func TestRenderArtifactName_CustomPattern(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	name, err := renderArtifactName("report", "{{.Date}}_{{.Name}}", now)
	if err != nil {
		t.Fatalf("render artifact name: %v", err)
	}
	if name != "20240102_report.pdf" {
		t.Fatalf("unexpected artifact name %q", name)
	}
}

func TestRenderArtifactName_EmptyResult(t *testing.T) {
	_, err := renderArtifactName("doc", "{{if false}}x{{end}}", time.Now())
	if err == nil {
		t.Fatal("expected error for empty filename")
	}
}

func TestTempHTMLName(t *testing.T) {
	first := tempHTMLName()
	second := tempHTMLName()

	if !strings.HasSuffix(first, ".html") {
		t.Fatalf("expected .html suffix, got %q", first)
	}
	if first == second {
		t.Fatalf("expected unique temp names, got %q twice", first)
	}
}

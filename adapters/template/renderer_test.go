package pdftemplate

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderer_FromDirectory(t *testing.T) {
	dir := t.TempDir()
	src := `<h1>{{ title }}</h1><p>Total: {{ total }}</p>`
	if err := os.WriteFile(filepath.Join(dir, "invoice.html"), []byte(src), 0o644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	renderer, err := NewRenderer(dir)
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	var buf bytes.Buffer
	err = renderer.Render(context.Background(), "invoice", map[string]any{
		"title": "Invoice 42",
		"total": 99,
	}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "<h1>Invoice 42</h1>") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if !strings.Contains(buf.String(), "Total: 99") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderer_MissingTemplate(t *testing.T) {
	renderer, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), "nope", nil, &buf); err == nil {
		t.Fatalf("expected missing template error")
	}
}

func TestRenderer_EmptyName(t *testing.T) {
	renderer, err := NewRenderer(t.TempDir())
	if err != nil {
		t.Fatalf("new renderer: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), "", nil, &buf); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStringRenderer(t *testing.T) {
	renderer, err := NewStringRenderer(map[string]string{
		"report": `{% for item in items %}<li>{{ item }}</li>{% endfor %}`,
	})
	if err != nil {
		t.Fatalf("new string renderer: %v", err)
	}

	var buf bytes.Buffer
	err = renderer.Render(context.Background(), "report", map[string]any{
		"items": []string{"a", "b"},
	}, &buf)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "<li>a</li><li>b</li>" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestRenderer_Globals(t *testing.T) {
	renderer, err := NewStringRenderer(map[string]string{
		"doc": `{{ brand }}: {{ name }}`,
	}, WithGlobals(map[string]any{"brand": "Acme"}))
	if err != nil {
		t.Fatalf("new string renderer: %v", err)
	}

	var buf bytes.Buffer
	if err := renderer.Render(context.Background(), "doc", map[string]any{"name": "report"}, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "Acme: report" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

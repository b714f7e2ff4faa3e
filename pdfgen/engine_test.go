package pdfgen

import (
	"context"
	"testing"
)

func TestGeneratorEngine_RendersBytes(t *testing.T) {
	toolRoot := t.TempDir()
	installRasterizer(t, toolRoot, `printf 'PDFBYTES' > "$3"`)
	gen := newTestGenerator(t, toolRoot, nil)

	engine := GeneratorEngine{Generator: gen, ScratchDir: t.TempDir()}
	pdf, err := engine.Render(context.Background(), RenderRequest{HTML: []byte("<p>doc</p>")})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(pdf) != "PDFBYTES" {
		t.Fatalf("unexpected pdf payload %q", pdf)
	}
}

func TestGeneratorEngine_MissingOutput(t *testing.T) {
	toolRoot := t.TempDir()
	installRasterizer(t, toolRoot, `exit 0`)
	gen := newTestGenerator(t, toolRoot, nil)

	engine := GeneratorEngine{Generator: gen}
	_, err := engine.Render(context.Background(), RenderRequest{HTML: []byte("<p>doc</p>")})
	if err == nil {
		t.Fatal("expected error when rasterizer produced no output")
	}
	if kind := KindFromError(err); kind != KindRasterizer {
		t.Fatalf("expected rasterizer kind, got %q", kind)
	}
}

func TestGeneratorEngine_NilGenerator(t *testing.T) {
	engine := GeneratorEngine{}
	_, err := engine.Render(context.Background(), RenderRequest{HTML: []byte("x")})
	if err == nil {
		t.Fatal("expected error for missing generator")
	}
	if kind := KindFromError(err); kind != KindValidation {
		t.Fatalf("expected validation kind, got %q", kind)
	}
}

func TestLimitedBuffer(t *testing.T) {
	buf := newLimitedBuffer(4)
	if _, err := buf.Write([]byte("1234")); err != nil {
		t.Fatalf("write within limit: %v", err)
	}
	if _, err := buf.Write([]byte("5")); err == nil {
		t.Fatal("expected error past limit")
	}
}

package pdfgen

import (
	"path/filepath"
	"testing"
)

func TestNewOptions_Defaults(t *testing.T) {
	root := t.TempDir()

	opts, err := NewOptions(root)
	if err != nil {
		t.Fatalf("new options: %v", err)
	}
	if opts.PaperSize != DefaultPaperSize {
		t.Fatalf("expected default paper size %q, got %q", DefaultPaperSize, opts.PaperSize)
	}
	if opts.script() != DefaultScript {
		t.Fatalf("expected default script %q, got %q", DefaultScript, opts.script())
	}
}

func TestNewOptions_BlankRoot(t *testing.T) {
	_, err := NewOptions("   ")
	if err == nil {
		t.Fatal("expected error for blank tool root")
	}
	if kind := KindFromError(err); kind != KindValidation {
		t.Fatalf("expected validation kind, got %q", kind)
	}
}

func TestNewOptions_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	_, err := NewOptions(missing)
	if err == nil {
		t.Fatal("expected error for missing tool root")
	}
	if kind := KindFromError(err); kind != KindValidation {
		t.Fatalf("expected validation kind, got %q", kind)
	}
}

func TestOptionsValidate_Nil(t *testing.T) {
	var opts *Options
	if err := opts.Validate(); err == nil {
		t.Fatal("expected error for nil options")
	}
}

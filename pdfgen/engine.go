package pdfgen

import (
	"bytes"
	"context"
	"errors"
	"os"
)

// DefaultMaxHTMLBytes guards in-memory HTML buffering before conversion.
const DefaultMaxHTMLBytes int64 = 8 * 1024 * 1024

// RenderRequest contains HTML input and render options for engines.
type RenderRequest struct {
	HTML    []byte
	Options RenderOptions
}

// Engine renders HTML content into PDF bytes.
type Engine interface {
	Render(ctx context.Context, req RenderRequest) ([]byte, error)
}

// EngineFunc adapts a function to an Engine.
type EngineFunc func(ctx context.Context, req RenderRequest) ([]byte, error)

func (f EngineFunc) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if f == nil {
		return nil, errors.New("engine func is nil")
	}
	return f(ctx, req)
}

// GeneratorEngine drives a Generator through a scratch directory and
// returns the produced PDF bytes. Because the byte pipeline has to read
// the output file, a rasterizer run that produced nothing surfaces here
// as a rasterizer error even when CheckExitCode is off.
type GeneratorEngine struct {
	Generator *Generator
	// ScratchDir receives intermediate PDF files. Defaults to the
	// system temp directory.
	ScratchDir string
}

// Render executes the rasterizer and reads back the output file.
func (e GeneratorEngine) Render(ctx context.Context, req RenderRequest) ([]byte, error) {
	if e.Generator == nil {
		return nil, NewError(KindValidation, "generator engine requires a generator", nil)
	}

	scratch := e.ScratchDir
	if scratch == "" {
		dir, err := os.MkdirTemp("", "pdfgen-*")
		if err != nil {
			return nil, NewError(KindInternal, "create scratch dir", err)
		}
		defer os.RemoveAll(dir)
		scratch = dir
	}

	paper := req.Options.PaperSize
	path, err := e.Generator.generate(ctx, string(req.HTML), scratch, paper)
	if err != nil {
		return nil, err
	}
	defer os.Remove(path)

	pdf, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(KindRasterizer, "rasterizer produced no output", err)
	}
	return pdf, nil
}

type limitedBuffer struct {
	buf     bytes.Buffer
	maxSize int64
}

func newLimitedBuffer(maxSize int64) *limitedBuffer {
	if maxSize <= 0 {
		maxSize = DefaultMaxHTMLBytes
	}
	return &limitedBuffer{maxSize: maxSize}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if b.maxSize > 0 && int64(b.buf.Len()+len(p)) > b.maxSize {
		return 0, NewError(KindValidation, "max html bytes exceeded", nil)
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

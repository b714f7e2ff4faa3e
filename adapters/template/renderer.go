package pdftemplate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-pdfgen/pdfgen"
)

// DefaultExtension is appended to template names without one.
const DefaultExtension = ".html"

// Renderer renders Django-style templates into HTML documents.
type Renderer struct {
	set       *pongo2.TemplateSet
	extension string
	globals   map[string]any
}

// Option configures a renderer.
type Option func(*Renderer)

// WithExtension overrides the default template extension.
func WithExtension(ext string) Option {
	return func(r *Renderer) {
		r.extension = ext
	}
}

// WithGlobals merges values into every template context.
func WithGlobals(globals map[string]any) Option {
	return func(r *Renderer) {
		r.globals = globals
	}
}

// NewRenderer creates a renderer backed by a template directory.
func NewRenderer(dir string, opts ...Option) (*Renderer, error) {
	loader, err := pongo2.NewLocalFileSystemLoader(dir)
	if err != nil {
		return nil, pdfgen.NewError(pdfgen.KindValidation, fmt.Sprintf("template dir %q is not usable", dir), err)
	}
	r := &Renderer{
		set:       pongo2.NewSet("pdfgen", loader),
		extension: DefaultExtension,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// NewStringRenderer creates a renderer from in-memory template sources.
// Names are used verbatim, no extension handling applies.
func NewStringRenderer(sources map[string]string, opts ...Option) (*Renderer, error) {
	set := pongo2.NewSet("pdfgen", newMemoryLoader(sources))
	r := &Renderer{set: set}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Render executes a named template with the provided context.
func (r *Renderer) Render(ctx context.Context, name string, data map[string]any, w io.Writer) error {
	if r == nil || r.set == nil {
		return pdfgen.NewError(pdfgen.KindNotImpl, "template renderer not configured", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if name == "" {
		return pdfgen.NewError(pdfgen.KindValidation, "template name is required", nil)
	}

	tpl, err := r.set.FromCache(r.resolveName(name))
	if err != nil {
		return pdfgen.NewError(pdfgen.KindNotFound, fmt.Sprintf("template %q not found", name), err)
	}

	tplCtx := pongo2.Context{}
	for k, v := range r.globals {
		tplCtx[k] = v
	}
	for k, v := range data {
		tplCtx[k] = v
	}

	if err := tpl.ExecuteWriter(tplCtx, w); err != nil {
		return pdfgen.NewError(pdfgen.KindInternal, fmt.Sprintf("template %q execution failed", name), err)
	}
	return nil
}

func (r *Renderer) resolveName(name string) string {
	if r.extension == "" || filepath.Ext(name) != "" {
		return name
	}
	return name + r.extension
}

var _ pdfgen.HTMLRenderer = (*Renderer)(nil)

type memoryLoader struct {
	sources map[string]string
}

func newMemoryLoader(sources map[string]string) memoryLoader {
	copied := make(map[string]string, len(sources))
	for k, v := range sources {
		copied[k] = v
	}
	return memoryLoader{sources: copied}
}

func (l memoryLoader) Abs(base, name string) string {
	return name
}

func (l memoryLoader) Get(path string) (io.Reader, error) {
	src, ok := l.sources[path]
	if !ok {
		return nil, fmt.Errorf("template %q not registered", path)
	}
	return strings.NewReader(src), nil
}

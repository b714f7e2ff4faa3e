package pdfgen

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	// DefaultPaperSize is used when no paper size is configured.
	DefaultPaperSize = "Letter"
	// DefaultScript is the rasterizer driver script executed by the tool.
	DefaultScript = "rasterize.js"
)

// PaperSizes lists the paper sizes understood by the bundled rasterizer
// script and the Chromium engine.
var PaperSizes = []string{"A3", "A4", "A5", "Letter", "Legal"}

// Options configures a Generator.
type Options struct {
	// ToolRoot is the directory holding the platform rasterizer binaries
	// and their driver script. It must exist.
	ToolRoot string
	// PaperSize is passed to the rasterizer. Defaults to "Letter".
	PaperSize string
	// Script is the driver script name. Defaults to "rasterize.js".
	Script string
	// CheckExitCode surfaces rasterizer exit failures instead of
	// returning the output path unconditionally.
	CheckExitCode bool
	// Timeout bounds a single rasterizer run. Zero means no limit.
	Timeout time.Duration
}

// NewOptions creates options for the given tool root folder.
func NewOptions(toolRoot string) (*Options, error) {
	opts := &Options{ToolRoot: toolRoot, PaperSize: DefaultPaperSize}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// Validate checks the options are usable.
func (o *Options) Validate() error {
	if o == nil {
		return NewError(KindValidation, "generator options are required", nil)
	}
	root := strings.TrimSpace(o.ToolRoot)
	if root == "" {
		return NewError(KindValidation, "tool root folder is required", nil)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return NewError(KindValidation, fmt.Sprintf("tool root folder %q is not a valid directory", o.ToolRoot), err)
	}
	return nil
}

func (o *Options) paperSize() string {
	if o == nil || o.PaperSize == "" {
		return DefaultPaperSize
	}
	return o.PaperSize
}

func (o *Options) script() string {
	if o == nil || o.Script == "" {
		return DefaultScript
	}
	return o.Script
}

package pdfgen

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Generator converts HTML documents to PDF by spawning a platform-specific
// rasterizer binary from the configured tool root folder. One child process
// is spawned and waited on per call; concurrent calls are independent.
type Generator struct {
	opts     Options
	platform Platform
}

// NewGenerator creates a generator. The host platform is detected once
// here; unsupported hosts fail before any file I/O.
func NewGenerator(opts *Options) (*Generator, error) {
	if opts == nil {
		return nil, NewError(KindValidation, "generator options are required", nil)
	}
	platform, err := DetectPlatform()
	if err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Generator{opts: *opts, platform: platform}, nil
}

// Platform returns the platform detected at construction.
func (g *Generator) Platform() Platform {
	if g == nil {
		return ""
	}
	return g.platform
}

// GeneratePDF writes html to a temporary file under the tool root, runs
// the rasterizer against it, and returns the output file path. The
// temporary input never survives the call. Unless CheckExitCode is set,
// the rasterizer's exit status is ignored and the path is returned even
// when no file was produced.
func (g *Generator) GeneratePDF(ctx context.Context, html string, outputFolder string) (string, error) {
	return g.generate(ctx, html, outputFolder, g.opts.paperSize())
}

func (g *Generator) generate(ctx context.Context, html, outputFolder, paperSize string) (string, error) {
	if g == nil {
		return "", NewError(KindInternal, "generator is nil", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if paperSize == "" {
		paperSize = g.opts.paperSize()
	}

	input, err := writeTempHTML(g.opts.ToolRoot, html)
	if err != nil {
		return "", NewError(KindInternal, "write temp html", err)
	}
	defer input.Remove()

	info, err := os.Stat(outputFolder)
	if err != nil || !info.IsDir() {
		return "", NewError(KindValidation, fmt.Sprintf("%q is not a valid directory", outputFolder), err)
	}

	outputPath := filepath.Join(outputFolder, input.Name+".pdf")
	if abs, absErr := filepath.Abs(outputPath); absErr == nil {
		outputPath = abs
	}

	cmdCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	exe := filepath.Join(g.opts.ToolRoot, g.platform.ExecutableName())
	cmd := exec.CommandContext(cmdCtx, exe, g.opts.script(), input.Name, outputPath, paperSize)
	cmd.Dir = g.opts.ToolRoot

	var stderr bytes.Buffer
	if g.opts.CheckExitCode {
		cmd.Stderr = &stderr
	}

	runErr := cmd.Run()
	if ctxErr := cmdCtx.Err(); ctxErr != nil {
		return "", NewError(KindFromError(ctxErr), "rasterizer interrupted", ctxErr)
	}
	if runErr != nil && g.opts.CheckExitCode {
		message := strings.TrimSpace(stderr.String())
		if message == "" {
			message = "rasterizer failed"
		}
		return "", NewError(KindRasterizer, message, runErr)
	}

	return outputPath, nil
}

// tempArtifact is a scoped input file. Remove is safe on every exit path.
type tempArtifact struct {
	Name string
	Path string
}

func writeTempHTML(dir, html string) (*tempArtifact, error) {
	name := tempHTMLName()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return nil, err
	}
	return &tempArtifact{Name: name, Path: path}, nil
}

func (a *tempArtifact) Remove() {
	if a == nil {
		return
	}
	_ = os.Remove(a.Path)
}

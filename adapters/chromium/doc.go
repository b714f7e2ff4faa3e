// Package pdfchromium provides a headless-Chromium rendering engine for
// go-pdfgen.
//
// The engine shares one browser instance across calls and opens a tab per
// render. It honors the RenderOptions page size, margins, scale, and
// external-asset policy. Use it where shipping the phantom rasterizer
// binaries is impractical.
package pdfchromium

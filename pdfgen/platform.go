package pdfgen

import (
	"fmt"
	"runtime"
)

// Platform identifies the host operating system family.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformMacOS   Platform = "macos"
)

// DetectPlatform classifies the host OS. Hosts outside
// {Linux, Windows, macOS} are not supported.
func DetectPlatform() (Platform, error) {
	return classifyOS(runtime.GOOS)
}

func classifyOS(goos string) (Platform, error) {
	switch goos {
	case "linux":
		return PlatformLinux, nil
	case "windows":
		return PlatformWindows, nil
	case "darwin":
		return PlatformMacOS, nil
	default:
		return "", NewError(KindPlatform, fmt.Sprintf("unsupported platform: %s", goos), nil)
	}
}

// Valid reports whether the platform is one of the supported values.
func (p Platform) Valid() bool {
	switch p {
	case PlatformLinux, PlatformWindows, PlatformMacOS:
		return true
	default:
		return false
	}
}

// ExecutableName returns the rasterizer binary name shipped for the platform.
func (p Platform) ExecutableName() string {
	switch p {
	case PlatformLinux:
		return "linux64_phantomjs.exe"
	case PlatformWindows:
		return "windows_phantomjs.exe"
	case PlatformMacOS:
		return "osx_phantomjs.exe"
	default:
		return ""
	}
}

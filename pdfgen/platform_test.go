package pdfgen

import "testing"

func TestClassifyOS(t *testing.T) {
	cases := []struct {
		goos string
		want Platform
	}{
		{"linux", PlatformLinux},
		{"windows", PlatformWindows},
		{"darwin", PlatformMacOS},
	}

	for _, tc := range cases {
		platform, err := classifyOS(tc.goos)
		if err != nil {
			t.Fatalf("classify %s: %v", tc.goos, err)
		}
		if platform != tc.want {
			t.Fatalf("expected %s for %s, got %s", tc.want, tc.goos, platform)
		}
		if !platform.Valid() {
			t.Fatalf("expected %s to be valid", platform)
		}
	}
}

func TestClassifyOS_Unsupported(t *testing.T) {
	_, err := classifyOS("plan9")
	if err == nil {
		t.Fatal("expected error for unsupported OS")
	}
	if kind := KindFromError(err); kind != KindPlatform {
		t.Fatalf("expected unsupported_platform kind, got %q", kind)
	}
}

func TestExecutableName(t *testing.T) {
	cases := []struct {
		platform Platform
		want     string
	}{
		{PlatformLinux, "linux64_phantomjs.exe"},
		{PlatformWindows, "windows_phantomjs.exe"},
		{PlatformMacOS, "osx_phantomjs.exe"},
		{Platform("haiku"), ""},
	}

	for _, tc := range cases {
		if got := tc.platform.ExecutableName(); got != tc.want {
			t.Fatalf("expected %q for %s, got %q", tc.want, tc.platform, got)
		}
	}
}

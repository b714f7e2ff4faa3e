package pdfgen

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
)

type filenameData struct {
	Name      string
	Timestamp string
	Date      string
}

// DefaultFilenamePattern names stored PDF artifacts.
const DefaultFilenamePattern = "{{.Name}}_{{.Timestamp}}"

func renderArtifactName(name, pattern string, now time.Time) (string, error) {
	if pattern == "" {
		pattern = DefaultFilenamePattern
	}
	if name == "" {
		name = "document"
	}

	data := filenameData{
		Name:      name,
		Timestamp: now.UTC().Format("20060102T150405Z"),
		Date:      now.UTC().Format("20060102"),
	}

	tmpl, err := template.New("filename").Parse(pattern)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	result := strings.TrimSpace(buf.String())
	if result == "" {
		return "", fmt.Errorf("empty filename")
	}
	if !strings.HasSuffix(strings.ToLower(result), ".pdf") {
		result = result + ".pdf"
	}
	return result, nil
}

// tempHTMLName returns a collision-resistant input file name.
func tempHTMLName() string {
	return uuid.NewString() + ".html"
}

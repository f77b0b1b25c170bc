// Package docs renders the operator documentation shipped with the node
// (AsciiDoc files under docs/) to HTML, caching rendered output.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bytesparadise/libasciidoc"
	"github.com/bytesparadise/libasciidoc/pkg/configuration"
)

type Service struct {
	docsDir string
	cache   map[string]string // filename -> html content
	mu      sync.RWMutex
}

func NewService(docsDir string) *Service {
	return &Service{
		docsDir: docsDir,
		cache:   make(map[string]string),
	}
}

// GetDoc renders the named AsciiDoc file to HTML. Rendered output is
// cached for the process lifetime; docs ship with the binary and do not
// change underneath it.
func (s *Service) GetDoc(ctx context.Context, filename string) (string, error) {
	// Names come from the URL; never let them escape the docs dir.
	filename = filepath.Base(filename)

	s.mu.RLock()
	content, ok := s.cache[filename]
	s.mu.RUnlock()
	if ok {
		return content, nil
	}

	data, err := os.ReadFile(filepath.Join(s.docsDir, filename))
	if err != nil {
		return "", fmt.Errorf("failed to read doc file: %w", err)
	}

	output := bytes.NewBuffer(nil)
	config := configuration.NewConfiguration(
		configuration.WithHeaderFooter(false),
		configuration.WithAttribute("toc", "left"),
	)

	if _, err := libasciidoc.Convert(bytes.NewReader(data), output, config); err != nil {
		return "", fmt.Errorf("failed to convert asciidoc: %w", err)
	}

	html := output.String()

	s.mu.Lock()
	s.cache[filename] = html
	s.mu.Unlock()

	return html, nil
}

// ListDocs returns the AsciiDoc filenames available for rendering.
func (s *Service) ListDocs() ([]string, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".adoc") {
			docs = append(docs, entry.Name())
		}
	}
	return docs, nil
}

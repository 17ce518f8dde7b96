package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"MCNews/internal/domain"
	"MCNews/pkg/fileutil"
)

const (
	defaultFilePath = "data/mcnews_data.json"
	fileMode        = 0o644
)

type fileBackend struct {
	path string
}

func newFileBackend(path string) (*fileBackend, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultFilePath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &fileBackend{path: path}, nil
}

func (b *fileBackend) Load(_ context.Context) (domain.Document, bool, error) {
	raw, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Document{}, false, nil
		}
		return domain.Document{}, false, fmt.Errorf("read %s: %w", b.path, err)
	}

	var doc domain.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Document{}, false, fmt.Errorf("%w: %s: %v", domain.ErrCorruptDocument, b.path, err)
	}
	return doc, true, nil
}

// Save replaces the file atomically with 2-space indented JSON and no trailing newline.
func (b *fileBackend) Save(_ context.Context, doc domain.Document) error {
	doc.Normalize()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	data := bytes.TrimRight(buf.Bytes(), "\n")

	if err := fileutil.WriteAtomic(b.path, data, fileMode); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (b *fileBackend) Close() error { return nil }

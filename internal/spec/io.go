package spec

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"reelsmith/internal/fileutil"
	"reelsmith/internal/services"
)

// Parse decodes a document from YAML without validating it.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, services.Wrap(services.ErrSchema, "spec", "parse", "invalid YAML", err)
	}
	return doc, nil
}

// Encode renders a document as YAML.
func Encode(doc Document) ([]byte, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode spec: %w", err)
	}
	return data, nil
}

// Load reads and parses a document from disk. A missing file is reported as
// services.ErrNotFound so callers can distinguish it from a broken document.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Document{}, services.Wrap(services.ErrNotFound, "spec", "load", path, err)
		}
		return Document{}, services.Wrap(services.ErrStorage, "spec", "load", path, err)
	}
	return Parse(data)
}

// Save writes the document atomically. Validation happens before the write so
// an invalid document never lands on disk.
func Save(doc Document, path string) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrStorage, "spec", "save", path, err)
	}
	return nil
}

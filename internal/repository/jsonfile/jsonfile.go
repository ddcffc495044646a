// Package jsonfile keeps the inventory snapshot in a single JSON document on disk.
package jsonfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/inventory"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/repository"
	"github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"
)

const gzipExt = ".gz"

// stateFile is the on-disk document. Keys of Products are product IDs.
type stateFile struct {
	Products map[string]productState `json:"products"`
}

type productState struct {
	Status      string   `json:"status"`
	Available   []string `json:"available"`
	Unavailable []string `json:"unavailable"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// Store reads and writes the snapshot file. Paths ending in .gz are gzip-compressed.
type Store struct {
	log      *slog.Logger
	path     string
	compress bool
}

// New creates a store for the file at path. The file does not need to exist yet.
func New(log *slog.Logger, path string) *Store {
	return &Store{log: log, path: path, compress: strings.HasSuffix(path, gzipExt)}
}

// GetState loads the snapshot, returning repository.ErrStateNotFound if the file is missing.
func (s *Store) GetState(ctx context.Context) (models.InventorySnapshot, error) {
	const opn = "repository.jsonfile.GetState"

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, repository.ErrStateNotFound
		}
		return nil, errs.Mark(fmt.Errorf("%s: failed to read %s: %w", opn, s.path, err), errs.ErrStorage)
	}

	if s.compress {
		if raw, err = gunzip(raw); err != nil {
			return nil, errs.Mark(fmt.Errorf("%s: failed to decompress %s: %w", opn, s.path, err), errs.ErrStorage)
		}
	}

	var doc stateFile
	if err = json.Unmarshal(raw, &doc); err != nil {
		return nil, errs.Mark(fmt.Errorf("%s: failed to decode %s: %w", opn, s.path, err), errs.ErrStorage)
	}

	snapshot := make(models.InventorySnapshot, len(doc.Products))
	for id, p := range doc.Products {
		snapshot[id] = p.toModel(id)
	}

	s.log.DebugContext(ctx, "Loaded state file", "path", s.path, "products", len(snapshot))

	return snapshot, nil
}

// UpdateState overwrites the file atomically: the document is written to a temporary
// file in the same directory and renamed over the old one.
func (s *Store) UpdateState(ctx context.Context, snapshot models.InventorySnapshot) error {
	const opn = "repository.jsonfile.UpdateState"

	doc := stateFile{Products: make(map[string]productState, len(snapshot))}
	for id, p := range snapshot {
		doc.Products[id] = fromModel(p)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.Mark(fmt.Errorf("%s: failed to encode state: %w", opn, err), errs.ErrStorage)
	}

	if s.compress {
		if data, err = gzipBytes(data); err != nil {
			return errs.Mark(fmt.Errorf("%s: failed to compress state: %w", opn, err), errs.ErrStorage)
		}
	}

	if err = writeAtomic(s.path, data); err != nil {
		return errs.Mark(fmt.Errorf("%s: %w", opn, err), errs.ErrStorage)
	}

	s.log.DebugContext(ctx, "Wrote state file", "path", s.path, "products", len(snapshot), "bytes", len(data))

	return nil
}

// Close is a no-op; the file is not kept open between calls.
func (s *Store) Close() error {
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temporary file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (p productState) toModel(id string) models.ProductSnapshot {
	classification := models.Classification(p.Status)
	if !classification.Valid() {
		classification = inventory.Classify(p.Available, p.Unavailable)
	}

	return models.ProductSnapshot{
		ID:             id,
		Title:          p.Title,
		URL:            p.URL,
		Classification: classification,
		Available:      p.Available,
		SoldOut:        p.Unavailable,
	}
}

func fromModel(p models.ProductSnapshot) productState {
	return productState{
		Status:      string(p.Classification),
		Available:   nonNil(p.Available),
		Unavailable: nonNil(p.SoldOut),
		Title:       p.Title,
		URL:         p.URL,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return s
}

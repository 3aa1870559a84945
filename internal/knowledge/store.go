// Package knowledge serves the per-category reference articles kept in a
// JSON file next to the ticket store.
package knowledge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Catalog maps a category name to its ordered articles.
type Catalog map[string][]domain.KnowledgeBaseEntry

// Categories returns the catalog keys, seeded categories first in their
// canonical order and any others alphabetically.
func (c Catalog) Categories() []string {
	keys := make([]string, 0, len(c))
	seen := map[string]bool{}
	for _, cat := range domain.Categories {
		if _, ok := c[string(cat)]; ok {
			keys = append(keys, string(cat))
			seen[string(cat)] = true
		}
	}
	var rest []string
	for k := range c {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Store reads knowledge base articles.
type Store interface {
	ArticlesFor(category string) []domain.KnowledgeBaseEntry
	Catalog() (Catalog, error)
	Excerpt() string
}

// FileStore keeps the catalog in a JSON file that is re-read on every lookup.
type FileStore struct {
	path   string
	logger *zap.Logger
}

// NewFileStore returns a store for path. Call EnsureDefaults to seed it.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// EnsureDefaults writes the seed catalog when the file does not exist. An
// existing file is never touched.
func (s *FileStore) EnsureDefaults() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create knowledge base directory: %w", err)
	}
	data, err := encodeCatalog(DefaultCatalog())
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write knowledge base: %w", err)
	}
	s.logger.Info("seeded knowledge base", zap.String("path", s.path))
	return nil
}

// Catalog reads the whole file.
func (s *FileStore) Catalog() (Catalog, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	catalog := Catalog{}
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return catalog, nil
}

// ArticlesFor returns the articles filed under category. Unknown categories
// and unreadable files yield an empty slice.
func (s *FileStore) ArticlesFor(category string) []domain.KnowledgeBaseEntry {
	catalog, err := s.Catalog()
	if err != nil {
		s.logger.Warn("knowledge base unreadable", zap.String("path", s.path), zap.Error(err))
		return []domain.KnowledgeBaseEntry{}
	}
	articles, ok := catalog[category]
	if !ok || articles == nil {
		return []domain.KnowledgeBaseEntry{}
	}
	return articles
}

// Excerpt renders the catalog as plain text for inclusion in a prompt.
// It returns "" when the catalog is empty or unreadable.
func (s *FileStore) Excerpt() string {
	catalog, err := s.Catalog()
	if err != nil {
		s.logger.Warn("knowledge base unreadable", zap.String("path", s.path), zap.Error(err))
		return ""
	}
	return RenderExcerpt(catalog)
}

// RenderExcerpt formats a catalog as one bullet per article under a heading
// per category.
func RenderExcerpt(catalog Catalog) string {
	var b strings.Builder
	for _, category := range catalog.Categories() {
		articles := catalog[category]
		if len(articles) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", category)
		for _, a := range articles {
			fmt.Fprintf(&b, "- %s: %s\n", a.Title, a.Solution)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// encodeCatalog writes two-space indented JSON with keys in Categories order.
func encodeCatalog(catalog Catalog) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, category := range catalog.Categories() {
		if i > 0 {
			buf.WriteString(",")
		}
		key, err := json.Marshal(category)
		if err != nil {
			return nil, err
		}
		entries, err := json.MarshalIndent(catalog[category], "  ", "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(entries)
	}
	buf.WriteString("\n}")
	return buf.Bytes(), nil
}

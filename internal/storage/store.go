package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/devstats/internal/stats"
)

// ReadStatus classifies the outcome of reading a record document, so callers
// can branch deterministically instead of inspecting errors.
type ReadStatus int

const (
	// ReadOK means the document parsed into a valid record.
	ReadOK ReadStatus = iota
	// ReadAbsent means the file is missing or empty; treated as no history.
	ReadAbsent
	// ReadCorrupt means the file exists but could not be parsed. Callers log
	// it and proceed as if absent; the file is replaced on the next write.
	ReadCorrupt
)

const (
	articlesDir     = "articles"
	accountFile     = "account.json"
	topArticlesFile = "top_articles.json"
)

// Store persists the analytics dataset as indented JSON documents under a
// single data directory: one document per article plus the account and
// rankings documents. Writes are whole-document replace.
type Store struct {
	dataDir string
}

func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dataDir, articlesDir), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &Store{dataDir: dataDir}, nil
}

// DataDir returns the root of the persisted dataset.
func (s *Store) DataDir() string {
	return s.dataDir
}

// ArticleKey is the record filename for an article identity.
func ArticleKey(id int, slug string) string {
	return fmt.Sprintf("%d-%s.json", id, slug)
}

func (s *Store) articlePath(key string) string {
	return filepath.Join(s.dataDir, articlesDir, key)
}

// ReadArticle loads one article document by its record filename.
func (s *Store) ReadArticle(key string) (*stats.ArticleHistory, ReadStatus) {
	var hist stats.ArticleHistory
	status := readDocument(s.articlePath(key), &hist)
	if status != ReadOK {
		return nil, status
	}
	return &hist, ReadOK
}

// WriteArticle replaces one article document.
func (s *Store) WriteArticle(key string, hist *stats.ArticleHistory) error {
	return writeDocument(s.articlePath(key), hist)
}

// ListArticleKeys returns the record filenames of all article documents,
// sorted by name. Backup files and non-JSON entries are ignored.
func (s *Store) ListArticleKeys() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dataDir, articlesDir))
	if err != nil {
		return nil, fmt.Errorf("listing article records: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, name)
	}
	return keys, nil
}

// ReadAccount loads the account summary document.
func (s *Store) ReadAccount() (*stats.AccountSummary, ReadStatus) {
	var acct stats.AccountSummary
	status := readDocument(filepath.Join(s.dataDir, accountFile), &acct)
	if status != ReadOK {
		return nil, status
	}
	return &acct, ReadOK
}

// WriteAccount replaces the account summary document.
func (s *Store) WriteAccount(acct *stats.AccountSummary) error {
	return writeDocument(filepath.Join(s.dataDir, accountFile), acct)
}

// ReadTopArticles loads the rankings document.
func (s *Store) ReadTopArticles() (*stats.TopArticles, ReadStatus) {
	var top stats.TopArticles
	status := readDocument(filepath.Join(s.dataDir, topArticlesFile), &top)
	if status != ReadOK {
		return nil, status
	}
	return &top, ReadOK
}

// WriteTopArticles replaces the rankings document.
func (s *Store) WriteTopArticles(top *stats.TopArticles) error {
	return writeDocument(filepath.Join(s.dataDir, topArticlesFile), top)
}

func readDocument(path string, out any) ReadStatus {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ReadAbsent
		}
		return ReadCorrupt
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ReadAbsent
	}
	if err := json.Unmarshal(data, out); err != nil {
		return ReadCorrupt
	}
	return ReadOK
}

func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}

package ingestion

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const defaultGlob = "*.pdf"

// Document is the text of one PDF page.
type Document struct {
	Content string
	Source  string
	// Page is the zero-based page index within Source.
	Page int
}

type parseFunc func(path string) ([]Document, error)

// Loader reads PDF files matching Glob from a directory. Only the top
// level of the directory is scanned unless Recursive is set.
type Loader struct {
	Glob      string
	Recursive bool

	parse  parseFunc
	logger *log.Logger
}

func NewLoader(glob string, recursive bool, logger *log.Logger) *Loader {
	if strings.TrimSpace(glob) == "" {
		glob = defaultGlob
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{Glob: glob, Recursive: recursive, parse: parsePDF, logger: logger}
}

// Load parses every matching file in dir. Files that fail to parse are
// logged and skipped.
func (l *Loader) Load(ctx context.Context, dir string) ([]Document, error) {
	paths, err := l.Match(dir)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages, err := l.LoadFile(path)
		if err != nil {
			l.logger.Printf("load failed for %s: %v", path, err)
			continue
		}
		docs = append(docs, pages...)
	}
	return docs, nil
}

// LoadFile parses a single file.
func (l *Loader) LoadFile(path string) ([]Document, error) {
	if DetectFormat(path) != FormatPDF {
		return nil, fmt.Errorf("unsupported document format: %s", filepath.Ext(path))
	}
	return l.parse(path)
}

// Match lists the files in dir that the loader would parse, sorted by path.
func (l *Loader) Match(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("data directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("data directory: %s is not a directory", dir)
	}

	if _, err := filepath.Match(l.Glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", l.Glob, err)
	}

	var paths []string
	if err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if path != dir && !l.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := filepath.Match(l.Glob, d.Name()); ok && DetectFormat(path) == FormatPDF {
			paths = append(paths, path)
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("walk data directory: %w", err)
	}

	sort.Strings(paths)
	return paths, nil
}

func parsePDF(path string) (docs []Document, err error) {
	// The pdf package panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			docs = nil
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	docs = make([]Document, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract text from page %d: %w", i, err)
		}
		text = normalizePlainText(text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, Document{Content: text, Source: path, Page: i - 1})
	}
	return docs, nil
}

func normalizePlainText(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.Join(lines, "\n")
}

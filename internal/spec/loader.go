package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/phillarmonic/mici/internal/errors"
	"github.com/phillarmonic/mici/internal/model"
	"gopkg.in/yaml.v3"
)

// Document is a parsed command file together with its raw text
type Document struct {
	Path    string
	Source  string
	Schema  *model.CommandSchema
	Locator *Locator
}

// CacheEntry represents a cached document with metadata
type CacheEntry struct {
	Document *Document
	ModTime  time.Time
}

// Loader handles loading and validating command files
type Loader struct {
	cache sync.Map // Cache documents by file path
}

// NewLoader creates a new command file loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads, parses and validates a command file. It returns a
// *errors.LoadError when the file cannot be read or parsed and a
// *errors.DiagnosticList when the schema is structurally invalid.
func (l *Loader) Load(path string) (*Document, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if cached, valid := l.getCachedDocument(path); valid {
		return cached, nil
	}

	doc, err := Read(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(doc); err != nil {
		return nil, err
	}

	l.cacheDocument(path, doc)
	return doc, nil
}

// Read reads and parses a command file without validating it
func Read(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyReadError(path, err)
	}
	return Parse(path, data)
}

// Parse deserializes command file text into a Document
func Parse(path string, data []byte) (*Document, error) {
	source := string(data)

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, syntaxError(path, source, err)
	}

	schema := &model.CommandSchema{}
	// An empty file has no document node; it decodes to the zero schema
	if root.Kind != 0 {
		if err := root.Decode(schema); err != nil {
			return nil, syntaxError(path, source, err)
		}
	}

	return &Document{
		Path:    path,
		Source:  source,
		Schema:  schema,
		Locator: NewLocator(source, &root),
	}, nil
}

func classifyReadError(path string, err error) *errors.LoadError {
	kind := errors.ReadError
	switch {
	case os.IsNotExist(err):
		kind = errors.NotFound
	case os.IsPermission(err):
		kind = errors.PermissionDenied
	}
	return &errors.LoadError{Kind: kind, Path: path, Err: err}
}

var yamlPositionPattern = regexp.MustCompile(`line (\d+)(?::\s*column (\d+))?`)

// syntaxError converts a yaml failure into a located load error. The span
// is a single byte at the reported line and column.
func syntaxError(path, source string, err error) *errors.LoadError {
	line, col := 1, 1
	if m := yamlPositionPattern.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
		if m[2] != "" {
			col, _ = strconv.Atoi(m[2])
		}
	}

	return &errors.LoadError{
		Kind:   errors.YamlSyntax,
		Path:   path,
		Err:    err,
		Source: source,
		Span:   errors.Span{Offset: errors.OffsetOf(source, line, col), Length: 1},
	}
}

// getCachedDocument retrieves a cached document if it's still valid
func (l *Loader) getCachedDocument(path string) (*Document, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}

	if cached, ok := l.cache.Load(path); ok {
		entry := cached.(*CacheEntry)
		if entry.ModTime.Equal(info.ModTime()) {
			return entry.Document, true
		}
		// File was modified, remove from cache
		l.cache.Delete(path)
	}

	return nil, false
}

// cacheDocument stores a validated document in the cache
func (l *Loader) cacheDocument(path string, doc *Document) {
	info, err := os.Stat(path)
	if err != nil {
		return // Don't cache if we can't get file info
	}

	l.cache.Store(path, &CacheEntry{
		Document: doc,
		ModTime:  info.ModTime(),
	})
}

// String describes the document for logs
func (d *Document) String() string {
	return fmt.Sprintf("%s (%s)", d.Schema.Name, d.Path)
}

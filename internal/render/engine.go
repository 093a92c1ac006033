// internal/render/engine.go
//
// Report rendering engine: template lookup, func-map injection, and an LRU
// of parsed templates.
//
// Context
// -------
// The HTTP layer never inspects how a report is produced.  It resolves the
// output extension, builds a Request, and hands it to an Engine.  The
// default TemplateEngine executes Go templates from the report's template
// location:
//
//   - a file:       used for every extension the report declares.
//   - a directory:  `<dir>/index.<ext>` is used for each extension, so a
//                   report can ship separate HTML and CSV layouts.
//
// `html` and `htm` output is produced with html/template (contextual
// escaping); everything else with text/template.
//
// Caching
// -------
// Parsed templates live in a golang-lru cache keyed by file and flavour.
// Concurrent cold loads of the same key are collapsed with singleflight so
// a burst of first requests parses the file once.
//
// Notes
// -----
// • Output is rendered into a buffer; a failed render writes nothing.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"io"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	texttemplate "text/template"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/kapenta/internal/report"
	"github.com/yanizio/kapenta/internal/requestinfo"
)

var (
	// ErrNoTemplate means the report declares no template location.
	ErrNoTemplate = errors.New("report has no template location")

	// ErrTemplateNotFound means the resolved template file does not exist.
	ErrTemplateNotFound = errors.New("report template not found")
)

// Engine produces report output.  Boot is called once by the server before
// any route is registered; Render may then be called concurrently.
type Engine interface {
	Boot() error
	Render(ctx context.Context, req Request, w io.Writer) (contentType string, err error)
}

// Request is everything an engine needs to render one report.
type Request struct {
	Resource  report.Resource
	Extension string     // already validated with SelectExtension
	Params    url.Values // query string merged with form body
	User      string     // authenticated username, "" when auth is off
	Info      *requestinfo.RequestInfo
}

// Data is the dot value inside report templates.
type Data struct {
	Report  ReportData
	Params  map[string]string // first value per key
	Values  url.Values
	Format  string
	User    string
	Request *requestinfo.RequestInfo
	Now     time.Time
}

// ReportData describes the report being rendered.
type ReportData struct {
	Name       string
	Path       string
	Extensions []string
}

// executor is satisfied by both *html/template.Template and
// *text/template.Template.
type executor interface {
	Execute(w io.Writer, data any) error
}

// DefaultCacheSize bounds the parsed-template cache when none is given.
const DefaultCacheSize = 256

// TemplateEngine is the default Engine.
type TemplateEngine struct {
	cache *lru.Cache[string, executor]
	group singleflight.Group
	now   func() time.Time

	bootOnce sync.Once
	bootErr  error
}

// NewTemplateEngine returns an engine caching up to size parsed templates.
func NewTemplateEngine(size int) (*TemplateEngine, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, executor](size)
	if err != nil {
		return nil, fmt.Errorf("template cache: %w", err)
	}
	return &TemplateEngine{cache: c, now: time.Now}, nil
}

// Boot registers MIME types for the common report extensions.  It runs at
// most once; later calls return the first result.
func (e *TemplateEngine) Boot() error {
	e.bootOnce.Do(func() {
		for ext, typ := range reportTypes {
			if err := mime.AddExtensionType("."+ext, typ); err != nil {
				e.bootErr = fmt.Errorf("register mime type %s: %w", ext, err)
				return
			}
		}
		zap.L().Debug("render engine booted", zap.Int("mime_types", len(reportTypes)))
	})
	return e.bootErr
}

// Render executes the report template for req.Extension and copies the
// result to w.  Nothing is written to w when an error is returned.
func (e *TemplateEngine) Render(ctx context.Context, req Request, w io.Writer) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	file, err := templateFile(req.Resource.Template, req.Extension)
	if err != nil {
		return "", err
	}

	t, err := e.load(file, isHTML(req.Extension))
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, e.data(req)); err != nil {
		return "", fmt.Errorf("execute %s: %w", file, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return "", err
	}
	return ContentType(req.Extension), nil
}

// Purge drops every cached template.
func (e *TemplateEngine) Purge() { e.cache.Purge() }

func (e *TemplateEngine) data(req Request) Data {
	params := make(map[string]string, len(req.Params))
	for k, v := range req.Params {
		if len(v) > 0 {
			params[k] = v[0]
		}
	}
	return Data{
		Report: ReportData{
			Name:       req.Resource.Name,
			Path:       req.Resource.Path,
			Extensions: req.Resource.Extensions,
		},
		Params:  params,
		Values:  req.Params,
		Format:  req.Extension,
		User:    req.User,
		Request: req.Info,
		Now:     e.now(),
	}
}

// load returns a cached template or parses it, one parse per key at a time.
func (e *TemplateEngine) load(file string, html bool) (executor, error) {
	key := file + "|text"
	if html {
		key = file + "|html"
	}
	if t, ok := e.cache.Get(key); ok {
		return t, nil
	}

	v, err, _ := e.group.Do(key, func() (any, error) {
		if t, ok := e.cache.Get(key); ok {
			return t, nil
		}
		t, err := parse(file, html)
		if err != nil {
			return nil, err
		}
		e.cache.Add(key, t)
		zap.L().Debug("template parsed", zap.String("file", file), zap.Bool("html", html))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(executor), nil
}

func parse(file string, html bool) (executor, error) {
	name := filepath.Base(file)
	if html {
		t, err := htmltemplate.New(name).Funcs(htmltemplate.FuncMap(funcMap())).ParseFiles(file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		return t, nil
	}
	t, err := texttemplate.New(name).Funcs(texttemplate.FuncMap(funcMap())).ParseFiles(file)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", file, err)
	}
	return t, nil
}

// templateFile resolves the template location for one extension.
func templateFile(location, ext string) (string, error) {
	if location == "" {
		return "", ErrNoTemplate
	}
	fi, err := os.Stat(location)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, location)
		}
		return "", err
	}
	if !fi.IsDir() {
		return location, nil
	}

	file := filepath.Join(location, "index."+ext)
	if _, err := os.Stat(file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrTemplateNotFound, file)
		}
		return "", err
	}
	return file, nil
}

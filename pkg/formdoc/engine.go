package formdoc

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/sirupsen/logrus"
)

// Serializer writes a built document in some output format.
type Serializer interface {
	Serialize(w io.Writer, doc *Document) error
}

// SerializerFunc adapts a function to Serializer.
type SerializerFunc func(w io.Writer, doc *Document) error

// Serialize implements Serializer.
func (f SerializerFunc) Serialize(w io.Writer, doc *Document) error {
	return f(w, doc)
}

// Result is the outcome of a successful render.
type Result struct {
	Bytes    []byte
	Document *Document
	Warnings []UnresolvedFieldWarning
	Duration time.Duration
}

// Engine loads templates through a cache and renders them.
type Engine struct {
	config  Config
	logger  logrus.FieldLogger
	cache   *TemplateCache
	builder *Builder
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCache replaces the template cache.
func WithCache(cache *TemplateCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

// New creates an engine. A nil config is read from the environment.
func New(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = ConfigFromEnvironment()
	}
	e := &Engine{config: *config}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = NewLogger(nil, config.LogLevel)
	}
	if e.cache == nil {
		e.cache = NewTemplateCache(CacheConfig{MaxSize: config.CacheMaxSize, TTL: config.CacheTTL})
	}
	e.builder = NewBuilder(config, e.logger)
	return e
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Logger returns the engine logger.
func (e *Engine) Logger() logrus.FieldLogger {
	return e.logger
}

// Cache returns the template cache.
func (e *Engine) Cache() *TemplateCache {
	return e.cache
}

// LoadTemplateFile loads a template file through the cache.
func (e *Engine) LoadTemplateFile(path string) (*Template, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}
	return e.cache.Load("file:"+key, func() (*Template, error) {
		e.logger.WithField("path", path).Debug("loading template")
		return LoadTemplateFile(path)
	})
}

// ParseTemplate parses template data through the cache. Entries are keyed
// by content, so the same bytes parse once.
func (e *Engine) ParseTemplate(data []byte, source string) (*Template, error) {
	key := "data:" + strconv.FormatUint(xxhash.Sum64(data), 16)
	return e.cache.Load(key, func() (*Template, error) {
		return ParseTemplate(data, source)
	})
}

// Build builds the document for tmpl without serializing it.
func (e *Engine) Build(ctx context.Context, tmpl *Template, fields Fields) (*Document, []UnresolvedFieldWarning, error) {
	return e.builder.BuildContext(ctx, tmpl, fields)
}

// Render builds tmpl and serializes the document with ser. On any error no
// bytes are returned.
func (e *Engine) Render(ctx context.Context, tmpl *Template, fields Fields, ser Serializer) (*Result, error) {
	start := time.Now()

	doc, warnings, err := e.builder.BuildContext(ctx, tmpl, fields)
	if err != nil {
		e.logger.WithError(err).WithField("kind", KindOf(err).String()).Error("build failed")
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := ser.Serialize(&buf, doc); err != nil {
		if !IsSerializationError(err) {
			err = NewSerializationError("", err)
		}
		e.logger.WithError(err).Error("serialization failed")
		return nil, err
	}

	res := &Result{
		Bytes:    buf.Bytes(),
		Document: doc,
		Warnings: warnings,
		Duration: time.Since(start),
	}
	e.logger.WithFields(logrus.Fields{
		"template": tmpl.Name,
		"bytes":    len(res.Bytes),
		"warnings": len(warnings),
		"duration": res.Duration,
	}).Info("rendered document")
	return res, nil
}

// RenderTo is Render writing the bytes to w.
func (e *Engine) RenderTo(ctx context.Context, w io.Writer, tmpl *Template, fields Fields, ser Serializer) (*Result, error) {
	res, err := e.Render(ctx, tmpl, fields, ser)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(res.Bytes); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return res, nil
}

// Package server exposes the built-in forms over HTTP.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/benjaminschreck/go-formdoc/pkg/formdoc"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/docx"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/forms"
	"github.com/benjaminschreck/go-formdoc/pkg/formdoc/preview"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-ID"

// UnresolvedHeader lists the fields that were rendered with the fallback.
const UnresolvedHeader = "X-Formdoc-Unresolved"

// Server renders forms on request. It holds no per-request state; every
// request builds its own document.
type Server struct {
	engine      *formdoc.Engine
	logger      logrus.FieldLogger
	metrics     *Metrics
	serializer  formdoc.Serializer
	defaultForm string
	mux         *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the metrics the server records to.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger sets the request logger. The engine logger is used otherwise.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSerializer replaces the DOCX serializer used by /download.
func WithSerializer(ser formdoc.Serializer) Option {
	return func(s *Server) {
		s.serializer = ser
	}
}

// New creates a server rendering with engine.
func New(engine *formdoc.Engine, opts ...Option) *Server {
	s := &Server{
		engine:      engine,
		defaultForm: engine.Config().Form,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = engine.Logger()
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.serializer == nil {
		s.serializer = docx.NewSerializer()
	}
	if s.defaultForm == "" {
		s.defaultForm = "mediation"
	}

	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /download", s.handleDownload)
	s.mux.HandleFunc("POST /download", s.handleDownload)
	s.mux.HandleFunc("GET /preview", s.handlePreview)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	return s
}

// Metrics returns the server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the root handler with request ids and access logging.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.mux)
}

// HTTPServer returns an http.Server serving s on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

type ctxKey int

const loggerKey ctxKey = iota

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

var routes = map[string]bool{
	"/":         true,
	"/download": true,
	"/preview":  true,
	"/healthz":  true,
	"/metrics":  true,
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		entry := s.logger.WithFields(logrus.Fields{
			"request_id": id,
			"method":     r.Method,
			"path":       r.URL.Path,
		})
		ctx := context.WithValue(r.Context(), loggerKey, entry)

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		route := r.URL.Path
		if !routes[route] {
			route = "other"
		}
		s.metrics.Requests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		entry.WithFields(logrus.Fields{
			"status":   rec.status,
			"duration": time.Since(start),
		}).Info("request")
	})
}

func requestLogger(r *http.Request, fallback logrus.FieldLogger) logrus.FieldLogger {
	if l, ok := r.Context().Value(loggerKey).(logrus.FieldLogger); ok {
		return l
	}
	return fallback
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	form, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	fields := requestFields(r)

	start := time.Now()
	res, err := s.engine.Render(r.Context(), form.Template, fields, s.serializer)
	s.observe(form.Name, "docx", start, res, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", docx.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", form.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Bytes)))
	if names := warningFields(res.Warnings); len(names) > 0 {
		w.Header().Set(UnresolvedHeader, strings.Join(names, ","))
	}
	if _, err := w.Write(res.Bytes); err != nil {
		requestLogger(r, s.logger).WithError(err).Warn("write response")
	}
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	form, ok := s.lookupForm(w, r)
	if !ok {
		return
	}
	fields := requestFields(r)

	start := time.Now()
	doc, warnings, err := s.engine.Build(r.Context(), form.Template, fields)
	var res *formdoc.Result
	if err == nil {
		res = &formdoc.Result{Document: doc, Warnings: warnings}
	}
	s.observe(form.Name, "html", start, res, err)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	opts := preview.Options{
		Title:       form.Title,
		DownloadURL: "/download?" + r.URL.RawQuery,
		Warnings:    warnings,
	}
	if err := preview.Render(&buf, doc, opts); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// lookupForm resolves the form named by the "form" parameter and writes a
// 404 when there is none.
func (s *Server) lookupForm(w http.ResponseWriter, r *http.Request) (*forms.Form, bool) {
	name := r.FormValue("form")
	if name == "" {
		name = s.defaultForm
	}
	form, err := forms.Lookup(name)
	if err != nil {
		if errors.Is(err, formdoc.ErrTemplateNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return nil, false
		}
		s.fail(w, r, err)
		return nil, false
	}
	return form, true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r, s.logger).WithError(err).WithField("kind", formdoc.KindOf(err).String()).Error("render failed")
	status := http.StatusInternalServerError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	http.Error(w, err.Error(), status)
}

func (s *Server) observe(form, format string, start time.Time, res *formdoc.Result, err error) {
	status := "ok"
	if err != nil {
		status = strings.ToLower(formdoc.KindOf(err).String())
	}
	s.metrics.Renders.WithLabelValues(form, format, status).Inc()
	s.metrics.Duration.WithLabelValues(form, format).Observe(time.Since(start).Seconds())
	if res == nil {
		return
	}
	for _, w := range res.Warnings {
		s.metrics.Unresolved.WithLabelValues(form, w.Field).Inc()
	}
}

// requestFields collects the field mapping from query and form values. The
// first value of each key wins. Blank values are dropped so that unfilled
// inputs of the index page render the fallback.
func requestFields(r *http.Request) formdoc.Fields {
	_ = r.ParseForm()
	fields := formdoc.Fields{}
	for key, values := range r.Form {
		if key == "form" || len(values) == 0 || strings.TrimSpace(values[0]) == "" {
			continue
		}
		fields[key] = values[0]
	}
	return fields
}

func warningFields(warnings []formdoc.UnresolvedFieldWarning) []string {
	names := make([]string, 0, len(warnings))
	for _, w := range warnings {
		names = append(names, w.Field)
	}
	return names
}

// previewURL builds the preview link of a form on the index page.
func previewURL(form string) string {
	return "/preview?" + url.Values{"form": {form}}.Encode()
}

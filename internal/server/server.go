// Package server exposes the dashboard over HTTP.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jboursiquot/pricedash"
	"github.com/jboursiquot/pricedash/internal/chart"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Server struct {
	dashboard *Dashboard
	source    ProductSource
	maxUpload int64
	now       func() time.Time
}

func NewServer(cfg *pricedash.Config, source ProductSource) *Server {
	return &Server{
		dashboard: NewDashboard(source),
		source:    source,
		maxUpload: cfg.Upload.MaxBytes,
		now:       time.Now,
	}
}

// Routes returns the chi router serving the page, the JSON API and the
// operational endpoints.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.Page)
	r.Post("/", s.Page)
	r.Get("/chart", s.Chart)

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", s.ListProducts)
		r.Post("/top", s.TopProducts)
	})

	r.Get("/healthz", handleHealthz)
	r.Get("/readyz", s.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Page renders the dashboard. A POST may carry an uploaded file in the
// "file" field; a GET never merges anything.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := s.readInput(w, r)
	if err != nil {
		s.renderError(w, err)
		return
	}
	defer cleanup()

	view, err := s.dashboard.Render(r.Context(), in)
	if err != nil {
		s.renderError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "page.html", view); err != nil {
		log.Error().Err(err).Msg("execute page template")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) readInput(w http.ResponseWriter, r *http.Request) (Input, func(), error) {
	noop := func() {}
	if r.Method == http.MethodPost {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
		if err := r.ParseMultipartForm(s.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return Input{}, noop, &pricedash.ParseError{File: "form", Err: err}
		}
	}
	if err := r.ParseForm(); err != nil {
		return Input{}, noop, &pricedash.ParseError{File: "form", Err: err}
	}

	in := Input{
		Chart:   r.Form.Get("chart"),
		Widgets: parseWidgets(r.Form, s.now()),
	}
	if r.Method != http.MethodPost || r.MultipartForm == nil {
		return in, noop, nil
	}

	file, header, err := r.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		return in, noop, nil
	case err != nil:
		return Input{}, noop, &pricedash.ParseError{File: "form", Err: err}
	}
	// browsers send an empty part when no file was chosen
	if header.Filename == "" && header.Size == 0 {
		_ = file.Close()
		return in, noop, nil
	}
	in.Upload = &Upload{Name: header.Filename, Data: file}
	return in, func() { _ = file.Close() }, nil
}

// Chart serves the base table as an image.
func (s *Server) Chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	kind, err := pricedash.ParseChartKind(q.Get("kind"))
	if q.Get("kind") == "" {
		kind, err = pricedash.ChartBar, nil
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := chart.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := s.dashboard.Base(r.Context())
	if err != nil {
		s.apiError(w, err)
		return
	}
	fig, _ := chart.Select(table, kind)

	var buf bytes.Buffer
	err = chart.Render(&buf, fig, format, chart.Options{Title: "Products by Price"})
	switch {
	case errors.Is(err, chart.ErrNothingToDraw):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.apiError(w, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	_, _ = buf.WriteTo(w)
}

func (s *Server) ListProducts(w http.ResponseWriter, r *http.Request) {
	table, err := s.dashboard.Base(r.Context())
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

type topResponse struct {
	File     string                 `json:"file"`
	Products pricedash.ProductTable `json:"products"`
}

// TopProducts merges the uploaded "file" part into the database table and
// returns the top rows.
func (s *Server) TopProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required: "+err.Error())
		return
	}
	defer file.Close()

	top, err := s.dashboard.Top(r.Context(), &Upload{Name: header.Filename, Data: file})
	if err != nil {
		s.apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, topResponse{File: header.Filename, Products: top})
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz opens a connection to confirm the database is reachable.
func (s *Server) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := s.source.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"database": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"database": "ok"})
}

// statusFor maps render failures to HTTP status codes.
func statusFor(err error) int {
	switch outcome(err) {
	case "connection_error":
		return http.StatusServiceUnavailable
	case "parse_error":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

type errorView struct {
	Status  int
	Kind    string
	Message string
}

func (s *Server) renderError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	log.Error().Err(err).Str("kind", outcome(err)).Int("status", status).Msg("render failed")

	msg := "Something went wrong while building the dashboard."
	switch status {
	case http.StatusServiceUnavailable:
		msg = "The product database is unavailable."
	case http.StatusBadRequest:
		msg = err.Error()
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = pageTemplates.ExecuteTemplate(w, "error.html", errorView{Status: status, Kind: outcome(err), Message: msg})
}

func (s *Server) apiError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	log.Error().Err(err).Str("kind", outcome(err)).Int("status", status).Msg("request failed")
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

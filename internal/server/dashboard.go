package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jboursiquot/pricedash"
	"github.com/jboursiquot/pricedash/internal/chart"
	"github.com/jboursiquot/pricedash/internal/upload"
)

// ProductSource loads the base product table.
type ProductSource interface {
	Products(ctx context.Context) (pricedash.ProductTable, error)
	Ping(ctx context.Context) error
}

// Upload is a file submitted with a render request.
type Upload struct {
	Name string
	Data io.Reader
}

// Input carries everything one render depends on.
type Input struct {
	Chart   string
	Upload  *Upload
	Widgets Widgets
}

// View is the outcome of one render.
type View struct {
	Heading    string
	Table      pricedash.ProductTable
	Uploaded   string
	Chart      pricedash.ChartKind
	ChartKinds []pricedash.ChartKind
	ChartSVG   template.HTML
	Notice     string
	Widgets    Widgets
	Echo       []string
	Choices    []string
}

// Dashboard runs the load, merge, chart pipeline once per call. It keeps no
// state between calls.
type Dashboard struct {
	source ProductSource
}

func NewDashboard(source ProductSource) *Dashboard {
	return &Dashboard{source: source}
}

// Render builds the page for in. Database and upload failures abort the
// render and are returned as *pricedash.ConnectionError or
// *pricedash.ParseError. An unknown chart kind is not an error: the view
// carries a notice instead of a chart.
func (d *Dashboard) Render(ctx context.Context, in Input) (*View, error) {
	kind := pricedash.ChartBar
	if in.Chart != "" {
		kind, _ = pricedash.ParseChartKind(in.Chart)
	}
	label := string(kind)
	if !kind.Valid() {
		label = "unsupported"
	}

	table, err := d.load(ctx)
	if err != nil {
		rendersTotal.WithLabelValues(label, outcome(err)).Inc()
		return nil, err
	}

	v := &View{
		Heading:    fmt.Sprintf("Top %d Products", pricedash.TopN),
		Chart:      kind,
		ChartKinds: pricedash.ChartKinds,
		Widgets:    in.Widgets,
		Echo:       in.Widgets.Echo(),
		Choices:    widgetChoices,
	}

	if in.Upload != nil {
		uploaded, err := parseUpload(in.Upload)
		if err != nil {
			rendersTotal.WithLabelValues(label, outcome(err)).Inc()
			return nil, err
		}
		table = pricedash.MergeAndRank(table, &uploaded)
		v.Uploaded = in.Upload.Name
	}
	v.Table = table

	fig, ok := chart.Select(table, kind)
	if !ok {
		v.Notice = fmt.Sprintf("Chart type %q is not supported.", kind)
		rendersTotal.WithLabelValues(label, "ok").Inc()
		return v, nil
	}

	var buf bytes.Buffer
	err = chart.Render(&buf, fig, chart.SVG, chart.Options{Title: v.Heading})
	switch {
	case errors.Is(err, chart.ErrNothingToDraw):
		v.Notice = "There is no data to chart."
	case err != nil:
		rendersTotal.WithLabelValues(label, outcome(err)).Inc()
		return nil, err
	default:
		v.ChartSVG = template.HTML(buf.String())
	}
	rendersTotal.WithLabelValues(label, "ok").Inc()
	return v, nil
}

// Base returns the unmodified database table.
func (d *Dashboard) Base(ctx context.Context) (pricedash.ProductTable, error) {
	return d.load(ctx)
}

// Top merges an upload into the database table and returns the top rows.
func (d *Dashboard) Top(ctx context.Context, up *Upload) (pricedash.ProductTable, error) {
	table, err := d.load(ctx)
	if err != nil {
		return nil, err
	}
	uploaded, err := parseUpload(up)
	if err != nil {
		return nil, err
	}
	return pricedash.MergeAndRank(table, &uploaded), nil
}

func (d *Dashboard) load(ctx context.Context) (pricedash.ProductTable, error) {
	start := time.Now()
	table, err := d.source.Products(ctx)
	queryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return table, nil
}

func parseUpload(up *Upload) (pricedash.ProductTable, error) {
	table, err := upload.Parse(up.Name, up.Data)
	if err != nil {
		return nil, err
	}
	format, _ := upload.DetectFormat(up.Name)
	uploadsTotal.WithLabelValues(string(format)).Inc()
	uploadRows.Observe(float64(len(table)))
	log.Debug().Str("file", up.Name).Int("rows", len(table)).Msg("upload parsed")
	return table, nil
}

// outcome classifies err for metrics and logs.
func outcome(err error) string {
	var connErr *pricedash.ConnectionError
	var parseErr *pricedash.ParseError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &connErr):
		return "connection_error"
	case errors.As(err, &parseErr):
		return "parse_error"
	}
	return "error"
}

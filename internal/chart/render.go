package chart

import (
	"errors"
	"fmt"
	"html"
	"io"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/jboursiquot/pricedash"
)

// ErrNothingToDraw is returned for figures go-chart cannot lay out: no
// points at all, or a pie whose slices add up to nothing.
var ErrNothingToDraw = errors.New("chart: nothing to draw")

type Format string

const (
	SVG Format = "svg"
	PNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "", SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", fmt.Errorf("unsupported image format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// text prepares a string for drawing. go-chart's SVG renderer writes text
// nodes verbatim, so markup in product titles must be escaped first.
func (f Format) text(s string) string {
	if f == PNG {
		return s
	}
	return html.EscapeString(s)
}

func (f Format) provider() gochart.RendererProvider {
	if f == PNG {
		return gochart.PNG
	}
	return gochart.SVG
}

type Options struct {
	Title  string
	Width  int // default 800
	Height int // default 400
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 800
	}
	if o.Height <= 0 {
		o.Height = 400
	}
	return o
}

var seriesColor = drawing.ColorFromHex("1f77b4")

// Render draws fig to w.
func Render(w io.Writer, fig *Figure, format Format, opts Options) error {
	if fig == nil || fig.Len() == 0 {
		return ErrNothingToDraw
	}
	opts = opts.withDefaults()

	var err error
	switch fig.Kind {
	case pricedash.ChartBar:
		err = renderBar(w, fig, format, opts)
	case pricedash.ChartLine, pricedash.ChartScatter:
		err = renderXY(w, fig, format, opts)
	case pricedash.ChartPie:
		err = renderPie(w, fig, format, opts)
	default:
		return fmt.Errorf("chart: cannot render kind %q", fig.Kind)
	}
	if err != nil {
		return fmt.Errorf("chart: render %s: %w", fig.Kind, err)
	}
	return nil
}

func background() gochart.Style {
	return gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

func renderBar(w io.Writer, fig *Figure, format Format, opts Options) error {
	bars := make([]gochart.Value, fig.Len())
	for i, v := range fig.Values {
		bars[i] = gochart.Value{Value: v, Label: format.text(fig.Categories[i])}
	}
	barWidth := (opts.Width - 120) / (2 * len(bars))
	if barWidth < 8 {
		barWidth = 8
	}
	bc := gochart.BarChart{
		Title:      format.text(opts.Title),
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		BarWidth:   barWidth,
		YAxis:      gochart.YAxis{Range: valueRange(fig.Values)},
		Bars:       bars,
	}
	return bc.Render(format.provider(), w)
}

func renderXY(w io.Writer, fig *Figure, format Format, opts Options) error {
	n := fig.Len()
	xs := fig.Positions
	ticks := make([]gochart.Tick, n)
	if fig.Kind == pricedash.ChartScatter {
		// titles are categorical: place them at their row index and label the ticks
		xs = make([]float64, n)
		for i := range xs {
			xs[i] = float64(i)
			ticks[i] = gochart.Tick{Value: float64(i), Label: format.text(fig.Categories[i])}
		}
	} else {
		for i, x := range xs {
			ticks[i] = gochart.Tick{Value: x, Label: strconv.Itoa(int(x))}
		}
	}

	style := gochart.Style{
		StrokeColor: seriesColor,
		StrokeWidth: 2,
		DotColor:    seriesColor,
		DotWidth:    4,
	}
	if !fig.Lines {
		style.StrokeWidth = gochart.Disabled
		style.DotWidth = 6
	}

	c := gochart.Chart{
		Title:      format.text(opts.Title),
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Ticks: ticks,
		},
		YAxis: gochart.YAxis{Range: valueRange(fig.Values)},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "price",
				XValues: xs,
				YValues: fig.Values,
				Style:   style,
			},
		},
	}
	return c.Render(format.provider(), w)
}

func renderPie(w io.Writer, fig *Figure, format Format, opts Options) error {
	var total float64
	slices := make([]gochart.Value, fig.Len())
	for i, v := range fig.Values {
		total += v
		slices[i] = gochart.Value{Value: v, Label: format.text(fig.Categories[i])}
	}
	if total <= 0 {
		return ErrNothingToDraw
	}
	pc := gochart.PieChart{
		Title:      format.text(opts.Title),
		Background: background(),
		Width:      opts.Width,
		Height:     opts.Height,
		Values:     slices,
	}
	return pc.Render(format.provider(), w)
}

// valueRange pads the y range so a single value or a flat series still has
// a non-empty axis.
func valueRange(values []float64) *gochart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &gochart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

// Package chart turns a product table into one of the supported chart
// figures and draws figures with go-chart.
package chart

import "github.com/jboursiquot/pricedash"

// Figure is a renderer-independent description of a chart.
//
// Categories carries the title column for bar, scatter and pie figures.
// Positions carries the row index for line figures, whose x axis is the
// table order rather than the titles.
type Figure struct {
	Kind       pricedash.ChartKind
	Categories []string
	Positions  []float64
	Values     []float64
	Lines      bool
	Markers    bool
}

// Len returns the number of data points.
func (f *Figure) Len() int { return len(f.Values) }

// Select builds the figure for kind. It is a pure function of its inputs and
// reports false, with no figure, for a kind it does not know.
func Select(t pricedash.ProductTable, kind pricedash.ChartKind) (*Figure, bool) {
	switch kind {
	case pricedash.ChartBar:
		return &Figure{Kind: kind, Categories: t.Titles(), Values: t.Prices()}, true
	case pricedash.ChartLine:
		pos := make([]float64, len(t))
		for i := range t {
			pos[i] = float64(i)
		}
		return &Figure{Kind: kind, Positions: pos, Values: t.Prices(), Lines: true, Markers: true}, true
	case pricedash.ChartScatter:
		return &Figure{Kind: kind, Categories: t.Titles(), Values: t.Prices(), Markers: true}, true
	case pricedash.ChartPie:
		return &Figure{Kind: kind, Categories: t.Titles(), Values: t.Prices()}, true
	}
	return nil, false
}

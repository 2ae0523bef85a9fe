package pricedash

import (
	"fmt"
	"strings"
)

// TopN is the number of rows kept by the merge-and-rank step.
const TopN = 5

type ProductRow struct {
	Title string  `json:"title"`
	Price float64 `json:"price"`
}

// ProductTable is an ordered set of rows with the fixed columns title and price.
type ProductTable []ProductRow

// Titles returns the title column in table order.
func (t ProductTable) Titles() []string {
	out := make([]string, len(t))
	for i, r := range t {
		out[i] = r.Title
	}
	return out
}

// Prices returns the price column in table order.
func (t ProductTable) Prices() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Price
	}
	return out
}

type ChartKind string

const (
	ChartBar     ChartKind = "bar"
	ChartLine    ChartKind = "line"
	ChartScatter ChartKind = "scatter"
	ChartPie     ChartKind = "pie"
)

// ChartKinds lists the supported kinds in the order they are offered to users.
var ChartKinds = []ChartKind{ChartBar, ChartLine, ChartScatter, ChartPie}

func (k ChartKind) Valid() bool {
	switch k {
	case ChartBar, ChartLine, ChartScatter, ChartPie:
		return true
	}
	return false
}

// ParseChartKind normalizes s and reports whether it names a supported kind.
// The normalized kind is returned either way so callers can echo it back.
func ParseChartKind(s string) (ChartKind, error) {
	k := ChartKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return k, fmt.Errorf("unsupported chart kind %q", s)
	}
	return k, nil
}

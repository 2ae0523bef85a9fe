package server

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"time"
)

// Widgets holds the free-standing inputs shown beside the chart. They are
// echoed back to the user and never influence the product table.
type Widgets struct {
	Date   string
	Text   string
	Slider int
	Choice string
	Toggle bool
	Color  string
}

const (
	dateLayout   = "2006-01-02"
	sliderMin    = 0
	sliderMax    = 100
	defaultColor = "#1f77b4"
)

var (
	widgetChoices = []string{"Option 1", "Option 2", "Option 3"}
	colorPattern  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// parseWidgets reads widget values from a form, replacing anything missing or
// out of range with its default. today supplies the default date.
func parseWidgets(form url.Values, today time.Time) Widgets {
	w := Widgets{
		Date:   today.Format(dateLayout),
		Text:   form.Get("text"),
		Slider: sliderMin,
		Choice: widgetChoices[0],
		Color:  defaultColor,
	}
	if d, err := time.Parse(dateLayout, form.Get("date")); err == nil {
		w.Date = d.Format(dateLayout)
	}
	if n, err := strconv.Atoi(form.Get("slider")); err == nil {
		w.Slider = min(max(n, sliderMin), sliderMax)
	}
	if c := form.Get("choice"); slices.Contains(widgetChoices, c) {
		w.Choice = c
	}
	switch form.Get("toggle") {
	case "on", "true", "1":
		w.Toggle = true
	}
	if c := form.Get("color"); colorPattern.MatchString(c) {
		w.Color = c
	}
	return w
}

// Echo returns one line per widget describing its current value.
func (w Widgets) Echo() []string {
	toggle := "off"
	if w.Toggle {
		toggle = "on"
	}
	return []string{
		fmt.Sprintf("Selected date: %s", w.Date),
		fmt.Sprintf("You wrote: %q", w.Text),
		fmt.Sprintf("Slider value: %d", w.Slider),
		fmt.Sprintf("Selected option: %s", w.Choice),
		fmt.Sprintf("Toggle is %s", toggle),
		fmt.Sprintf("Selected color: %s", w.Color),
	}
}

// Package charts renders deck statistics as interactive HTML charts.
package charts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ramonehamilton/commander-forge/internal/deck"
)

// Config holds chart appearance settings.
type Config struct {
	Width  string // e.g. "900px"
	Height string // e.g. "500px"
	Theme  string
}

// DefaultConfig returns the default chart configuration.
func DefaultConfig() Config {
	return Config{
		Width:  "900px",
		Height: "500px",
		Theme:  "light",
	}
}

// colorOrder is the canonical WUBRG+colorless ordering for pie slices.
var colorOrder = []string{"W", "U", "B", "R", "G", "C"}

var colorNames = map[string]string{
	"W": "White",
	"U": "Blue",
	"B": "Black",
	"R": "Red",
	"G": "Green",
	"C": "Colorless",
}

// colorFills approximate the mana symbol backgrounds.
var colorFills = map[string]string{
	"W": "#F8E7B9",
	"U": "#B3CEEA",
	"B": "#A69F9D",
	"R": "#EB9F82",
	"G": "#C4D3CA",
	"C": "#BFBFBF",
}

// ManaCurveChart builds a bar chart of card counts per mana value,
// covering every value from 0 to the highest present.
func ManaCurveChart(curve map[int]int, config Config) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Mana Curve",
			Subtitle: "Nonland cards by mana value",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Mana value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Cards"}),
	)

	maxValue := 0
	for v := range curve {
		if v > maxValue {
			maxValue = v
		}
	}

	labels := make([]string, 0, maxValue+1)
	data := make([]opts.BarData, 0, maxValue+1)
	for v := 0; v <= maxValue; v++ {
		labels = append(labels, strconv.Itoa(v))
		data = append(data, opts.BarData{Value: curve[v]})
	}

	bar.SetXAxis(labels).
		AddSeries("Cards", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:     opts.Bool(true),
				Position: "top",
			}),
		)
	return bar
}

// ColorDistributionChart builds a pie chart of mana symbols by color,
// in WUBRG order with colorless last.
func ColorDistributionChart(dist map[string]int, config Config) *charts.Pie {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  config.Width,
			Height: config.Height,
			Theme:  config.Theme,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Color Distribution",
			Subtitle: "Mana symbols across nonland cards",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "item",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)

	var data []opts.PieData
	for _, c := range colorOrder {
		count, ok := dist[c]
		if !ok || count == 0 {
			continue
		}
		data = append(data, opts.PieData{
			Name:      colorNames[c],
			Value:     count,
			ItemStyle: &opts.ItemStyle{Color: colorFills[c]},
		})
	}

	pie.AddSeries("Colors", data).
		SetSeriesOptions(
			charts.WithLabelOpts(opts.Label{
				Show:      opts.Bool(true),
				Formatter: "{b}: {c}",
			}),
			charts.WithPieChartOpts(opts.PieChart{
				Radius: []string{"35%", "70%"},
			}),
		)
	return pie
}

// WriteDeckCharts renders the mana curve and color distribution for d
// into w as a single HTML page.
func WriteDeckCharts(w io.Writer, d *deck.FinalDeck, config Config) error {
	page := components.NewPage()
	page.PageTitle = d.Commander.Name
	page.AddCharts(
		ManaCurveChart(d.ManaCurve, config),
		ColorDistributionChart(d.ColorDistribution, config),
	)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("rendering deck charts: %w", err)
	}
	return nil
}

// SaveDeckCharts writes mana_curve.html and color_distribution.html
// into dir, creating it when missing.
func SaveDeckCharts(dir string, d *deck.FinalDeck, config Config) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}

	files := map[string]components.Charter{
		"mana_curve.html":         ManaCurveChart(d.ManaCurve, config),
		"color_distribution.html": ColorDistributionChart(d.ColorDistribution, config),
	}
	for name, chart := range files {
		if err := renderFile(filepath.Join(dir, name), chart); err != nil {
			return err
		}
	}
	return nil
}

func renderFile(path string, chart components.Charter) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating chart file: %w", err)
	}
	defer func() { _ = f.Close() }()

	page := components.NewPage()
	page.AddCharts(chart)
	if err := page.Render(f); err != nil {
		return fmt.Errorf("rendering chart %s: %w", filepath.Base(path), err)
	}
	return nil
}

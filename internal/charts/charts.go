// Package charts renders aggregated ledger data as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2"

	"myexpense/internal/core"
)

var ErrNoData = errors.New("no data to chart")

const ContentType = "image/png"

var background = chart.Style{
	Padding: chart.Box{
		Top:    50,
		Left:   50,
		Right:  50,
		Bottom: 50,
	},
	FillColor: chart.ColorWhite,
}

// CategoryBreakdown draws a pie with one slice per category. Zero totals
// have no slice.
func CategoryBreakdown(items []core.CategoryTotal) ([]byte, error) {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	if !total.IsPositive() {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(items))
	for _, it := range items {
		if !it.Amount.IsPositive() {
			continue
		}
		pct := it.Amount.Div(total).Mul(decimal.NewFromInt(100))
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%s%%)", it.Category, core.FormatAmount(it.Amount), pct.StringFixed(1)),
			Value: it.Amount.InexactFloat64(),
			Style: chart.Style{
				FontSize:  12,
				FontColor: chart.ColorBlack,
			},
		})
	}

	pie := chart.PieChart{
		Title:      "Expenses by category",
		Width:      800,
		Height:     800,
		Values:     values,
		Background: background,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MonthlyComparison draws income and expense lines over month ticks.
func MonthlyComparison(s core.Series) ([]byte, error) {
	n := len(s.Months)
	if n == 0 || len(s.Income) != n || len(s.Expense) != n {
		return nil, ErrNoData
	}

	xs := make([]float64, n)
	income := make([]float64, n)
	expense := make([]float64, n)
	ticks := make([]chart.Tick, n)
	top := 0.0
	for i, m := range s.Months {
		xs[i] = float64(i)
		income[i] = s.Income[i].InexactFloat64()
		expense[i] = s.Expense[i].InexactFloat64()
		ticks[i] = chart.Tick{Value: float64(i), Label: m}
		top = max(top, income[i], expense[i])
	}
	if top == 0 {
		top = 1
	}

	graph := chart.Chart{
		Title:      "Income vs expense",
		Width:      1200,
		Height:     600,
		Background: background,
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.0f", f)
				}
				return ""
			},
			Style: chart.Style{FontSize: 12, FontColor: chart.ColorBlack},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Income",
				XValues: xs,
				YValues: income,
				Style: chart.Style{
					StrokeColor: chart.ColorGreen,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chart.ColorGreen,
				},
			},
			chart.ContinuousSeries{
				Name:    "Expense",
				XValues: xs,
				YValues: expense,
				Style: chart.Style{
					StrokeColor: chart.ColorRed,
					StrokeWidth: 2,
					DotWidth:    4,
					DotColor:    chart.ColorRed,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph, chart.Style{FontSize: 12, FontColor: chart.ColorBlack}),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render monthly chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Package charts renders dashboard charts as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"

	"fintrack/internal/core"
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no category data to chart")

const (
	width  = 800
	height = 500
)

// CategoryPie draws the expense share of each category. Categories with a
// non-positive total are left out.
func CategoryPie(cats []core.CategoryAmount) ([]byte, error) {
	var total int64
	for _, c := range cats {
		if c.Amount.Cents > 0 {
			total += c.Amount.Cents
		}
	}
	if total == 0 {
		return nil, ErrNoData
	}

	values := make([]chart.Value, 0, len(cats))
	for _, c := range cats {
		if c.Amount.Cents <= 0 {
			continue
		}
		share := float64(c.Amount.Cents) / float64(total) * 100
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %s (%.1f%%)", c.Name, c.Amount, share),
			Value: c.Amount.Units(),
		})
	}

	pie := chart.PieChart{
		Width:  width,
		Height: height,
		Values: values,
		Background: chart.Style{
			Padding:   chart.Box{Top: 40, Left: 40, Right: 40, Bottom: 40},
			FillColor: chart.ColorWhite,
		},
	}

	buf := new(bytes.Buffer)
	if err := pie.Render(chart.PNG, buf); err != nil {
		return nil, fmt.Errorf("render category chart: %w", err)
	}
	return buf.Bytes(), nil
}

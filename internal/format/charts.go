package format

import (
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/and161185/receivables-client/internal/model"
)

// TrendClass is the CSS class of a dynamics trend.
func TrendClass(t model.Trend) string {
	switch t {
	case model.TrendIncreasing:
		return "trend-up"
	case model.TrendDecreasing:
		return "trend-down"
	case model.TrendStable:
		return "trend-stable"
	}
	return ""
}

func seriesMax(series ...[]float64) float64 {
	m := math.Inf(-1)
	for _, s := range series {
		if len(s) > 0 {
			m = math.Max(m, slices.Max(s))
		}
	}
	return m
}

// BarHeight is value as a CSS percentage of the largest point in series,
// never below 2% so tiny bars stay visible.
func BarHeight(value float64, series ...[]float64) string {
	maxV := seriesMax(series...)
	if maxV <= 0 || math.IsInf(maxV, -1) {
		return "0%"
	}
	p := math.Max(value/maxV*100, 2)
	return strconv.FormatFloat(p, 'f', -1, 64) + "%"
}

// YAxisTicks returns five evenly spaced ticks from the maximum down to 0.
func YAxisTicks(series ...[]float64) []float64 {
	maxV := seriesMax(series...)
	if maxV <= 0 || math.IsInf(maxV, -1) {
		return []float64{0}
	}
	step := maxV / 4
	return []float64{maxV, step * 3, step * 2, step, 0}
}

func change(current, previous float64) float64 {
	return (current - previous) / previous * 100
}

// ChangeClass classifies the relative change against previous (±5% is neutral).
func ChangeClass(current, previous float64) string {
	if previous == 0 {
		return "change-neutral"
	}
	switch c := change(current, previous); {
	case c > 5:
		return "change-up"
	case c < -5:
		return "change-down"
	}
	return "change-neutral"
}

// ChangeLabel renders the signed relative change ("+12.5%").
func ChangeLabel(current, previous float64) string {
	if previous == 0 {
		return Placeholder
	}
	c := change(current, previous)
	sign := ""
	if c > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, c)
}

// ConcentrationRiskClass classifies a concentration percentage.
func ConcentrationRiskClass(percentage float64) string {
	switch {
	case percentage > 70:
		return "risk-critical"
	case percentage > 50:
		return "risk-high"
	case percentage > 30:
		return "risk-medium"
	}
	return "risk-low"
}

package dashboard

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mesikahq/patient-dashboard/internal/patient"
)

const (
	// ChartWindow is the number of most recent months plotted.
	ChartWindow = 6

	chartMin    = 60.0
	chartMax    = 180.0
	chartWidth  = 600.0
	chartHeight = 220.0
	chartPad    = 24.0
)

// Point is one plotted reading.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	X     float64 `json:"-"`
	Y     float64 `json:"-"`
}

// Series is one line of the blood pressure chart.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Points []Point `json:"points"`
}

// Polyline renders the series as an SVG points attribute.
func (s Series) Polyline() string {
	parts := make([]string, len(s.Points))
	for i, p := range s.Points {
		parts[i] = formatCoord(p.X) + "," + formatCoord(p.Y)
	}
	return strings.Join(parts, " ")
}

// Chart is the blood pressure chart over the most recent months.
type Chart struct {
	Labels    []string `json:"labels"`
	Systolic  Series   `json:"systolic"`
	Diastolic Series   `json:"diastolic"`
	YMin      float64  `json:"y_min"`
	YMax      float64  `json:"y_max"`
	Width     float64  `json:"-"`
	Height    float64  `json:"-"`
	Ticks     []Tick   `json:"-"`
}

// Tick is a horizontal grid line of the chart.
type Tick struct {
	Value float64
	Y     float64
}

// WindowHistory returns the last min(len(history), ChartWindow) records in
// chronological order.
func WindowHistory(history []patient.DiagnosisRecord) []patient.DiagnosisRecord {
	p := patient.Patient{DiagnosisHistory: history}
	return p.RecentHistory(ChartWindow)
}

// MonthLabel formats a record as "Mar. 24".
func MonthLabel(r patient.DiagnosisRecord) string {
	month := r.Month
	if len(month) > 3 {
		month = month[:3]
	}
	return fmt.Sprintf("%s. %d", month, r.Year%100)
}

// BuildChart lays out the chart for a diagnosis history.
func BuildChart(history []patient.DiagnosisRecord) Chart {
	window := WindowHistory(history)

	chart := Chart{
		Labels:    make([]string, len(window)),
		Systolic:  Series{Name: "Systolic", Color: "#E66F7F", Points: make([]Point, len(window))},
		Diastolic: Series{Name: "Diastolic", Color: "#986BFF", Points: make([]Point, len(window))},
		YMin:      chartMin,
		YMax:      chartMax,
		Width:     chartWidth,
		Height:    chartHeight,
	}

	for i, r := range window {
		label := MonthLabel(r)
		x := xFor(i, len(window))
		chart.Labels[i] = label
		chart.Systolic.Points[i] = Point{Label: label, Value: r.BloodPressure.Systolic.Value, X: x, Y: yFor(r.BloodPressure.Systolic.Value)}
		chart.Diastolic.Points[i] = Point{Label: label, Value: r.BloodPressure.Diastolic.Value, X: x, Y: yFor(r.BloodPressure.Diastolic.Value)}
	}

	for v := chartMin; v <= chartMax; v += 20 {
		chart.Ticks = append(chart.Ticks, Tick{Value: v, Y: yFor(v)})
	}

	return chart
}

func xFor(i, n int) float64 {
	if n <= 1 {
		return chartWidth / 2
	}
	span := chartWidth - 2*chartPad
	return chartPad + span*float64(i)/float64(n-1)
}

func yFor(v float64) float64 {
	if v < chartMin {
		v = chartMin
	}
	if v > chartMax {
		v = chartMax
	}
	span := chartHeight - 2*chartPad
	return chartPad + span*(chartMax-v)/(chartMax-chartMin)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

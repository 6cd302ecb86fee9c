package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DPI of the encoded PNG charts.
const DPI = 200

// Set2 is the qualitative palette used for every chart.
var Set2 = []color.Color{
	color.RGBA{R: 0x66, G: 0xc2, B: 0xa5, A: 0xff},
	color.RGBA{R: 0xfc, G: 0x8d, B: 0x62, A: 0xff},
	color.RGBA{R: 0x8d, G: 0xa0, B: 0xcb, A: 0xff},
	color.RGBA{R: 0xe7, G: 0x8a, B: 0xc3, A: 0xff},
	color.RGBA{R: 0xa6, G: 0xd8, B: 0x54, A: 0xff},
	color.RGBA{R: 0xff, G: 0xd9, B: 0x2f, A: 0xff},
}

var shade = color.RGBA{A: 0x0d}

// Encode draws p on a w x h canvas and returns the PNG bytes.
func Encode(p *plot.Plot, w, h vg.Length) ([]byte, error) {
	c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(DPI))
	p.Draw(draw.New(c))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}

// StripBox draws one jittered strip and one box per group, groups placed at
// x = 0..len(groups)-1. ymax clips the y axis when positive. Hours in
// [shadeFrom, shadeTo] get a light background band when shadeTo > shadeFrom.
func StripBox(title, xlabel, ylabel string, labels []string, groups [][]float64, ymax, shadeFrom, shadeTo float64) ([]byte, error) {
	p := newPlot(title, xlabel, ylabel)

	if shadeTo > shadeFrom {
		band, err := rect(shadeFrom, shadeTo, 0, math.Max(ymax, 1)*1.05, shade)
		if err != nil {
			return nil, err
		}
		p.Add(band)
	}

	rng := rand.New(rand.NewPCG(1, 2))
	var pts plotter.XYs
	for i, g := range groups {
		for _, v := range g {
			pts = append(pts, plotter.XY{X: float64(i) + (rng.Float64()-0.5)*0.8, Y: v})
		}
	}
	if len(pts) > 0 {
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build strip plot: %w", err)
		}
		s.GlyphStyle.Radius = vg.Points(1)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Color = color.RGBA{R: 0xc0, G: 0x50, B: 0x60, A: 0x80}
		p.Add(s)
	}

	if err := addBoxes(p, groups, Set2[2]); err != nil {
		return nil, err
	}

	p.NominalX(labels...)
	p.X.Min, p.X.Max = -1, float64(len(groups))
	p.Y.Min = 0
	if ymax > 0 {
		p.Y.Max = ymax
	}
	return Encode(p, 6*vg.Inch, 4*vg.Inch)
}

// Boxes draws one box per group.
func Boxes(title, ylabel string, labels []string, groups [][]float64, shadeFrom, shadeTo float64) ([]byte, error) {
	p := newPlot(title, "", ylabel)
	if err := addShade(p, groups, shadeFrom, shadeTo); err != nil {
		return nil, err
	}
	if err := addBoxes(p, groups, Set2[2]); err != nil {
		return nil, err
	}
	p.NominalX(labels...)
	p.X.Min, p.X.Max = -0.5, float64(len(groups))-0.5
	return Encode(p, 6*vg.Inch, 4*vg.Inch)
}

// Violins draws one width-scaled kernel density violin per group with an
// inner quartile box. Densities are cut at the data range.
func Violins(title, ylabel string, labels []string, groups [][]float64, shadeFrom, shadeTo float64) ([]byte, error) {
	p := newPlot(title, "", ylabel)
	if err := addShade(p, groups, shadeFrom, shadeTo); err != nil {
		return nil, err
	}
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		p.Add(newViolin(float64(i), g, Set2[2]))
	}
	p.NominalX(labels...)
	p.X.Min, p.X.Max = -0.5, float64(len(groups))-0.5
	return Encode(p, 6*vg.Inch, 4*vg.Inch)
}

// Heatmap draws values[row][col] with row and column labels, row 0 at the top.
// NaN cells are left blank.
func Heatmap(title string, rowLabels, colLabels []string, values [][]float64) ([]byte, error) {
	p := newPlot(title, "", "")

	grid := heatGrid{values: values}
	hi := 0.0
	for _, row := range values {
		for _, v := range row {
			if !math.IsNaN(v) {
				hi = math.Max(hi, v)
			}
		}
	}
	if hi == 0 {
		hi = 1
	}

	h := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	h.Min, h.Max = 0, hi
	h.NaN = color.Transparent
	p.Add(h)

	p.NominalX(colLabels...)
	reversed := make([]string, len(rowLabels))
	for i, l := range rowLabels {
		reversed[len(rowLabels)-1-i] = l
	}
	p.NominalY(reversed...)
	return Encode(p, 5*vg.Inch, 8*vg.Inch)
}

// heatGrid adapts a row-major matrix to plotter.GridXYZ with row 0 drawn on top.
type heatGrid struct {
	values [][]float64
}

func (g heatGrid) Dims() (c, r int) {
	if len(g.values) == 0 {
		return 0, 0
	}
	return len(g.values[0]), len(g.values)
}

func (g heatGrid) Z(c, r int) float64 { return g.values[len(g.values)-1-r][c] }
func (g heatGrid) X(c int) float64    { return float64(c) }
func (g heatGrid) Y(r int) float64    { return float64(r) }

// Series is one line of a time chart. NaN values break the line.
type Series struct {
	Values []float64
	Color  color.Color
	Alpha  uint8
}

// TimeLines draws series over shared timestamps.
func TimeLines(title, xlabel, ylabel string, times []time.Time, loc *time.Location, series ...Series) ([]byte, error) {
	p := newPlot(title, xlabel, ylabel)
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02", Time: plot.UnixTimeIn(loc)}

	for _, s := range series {
		for _, seg := range segments(times, s.Values) {
			l, err := plotter.NewLine(seg)
			if err != nil {
				return nil, fmt.Errorf("failed to build line: %w", err)
			}
			l.LineStyle.Width = vg.Points(1)
			l.LineStyle.Color = withAlpha(s.Color, s.Alpha)
			p.Add(l)
		}
	}
	p.Y.Min = 0
	return Encode(p, 7*vg.Inch, 4*vg.Inch)
}

// segments splits a series at NaN values.
func segments(times []time.Time, values []float64) []plotter.XYs {
	var out []plotter.XYs
	var cur plotter.XYs
	for i, v := range values {
		if math.IsNaN(v) {
			if len(cur) > 0 {
				out = append(out, cur)
			}
			cur = nil
			continue
		}
		cur = append(cur, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// ECDF draws the cumulative count of users (x) reaching each message count (y).
func ECDF(title, xlabel, ylabel string, counts []float64, logScale bool) ([]byte, error) {
	p := newPlot(title, xlabel, ylabel)

	sorted := append([]float64(nil), counts...)
	floats.Argsort(sorted, make([]int, len(sorted)))

	pts := make(plotter.XYs, 0, len(sorted)+1)
	pts = append(pts, plotter.XY{X: 0, Y: sorted[0]})
	for i, v := range sorted {
		pts = append(pts, plotter.XY{X: float64(i + 1), Y: v})
	}

	l, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build ecdf: %w", err)
	}
	l.StepStyle = plotter.PreStep
	l.LineStyle.Color = Set2[0]
	l.LineStyle.Width = vg.Points(1.5)
	p.Add(l)

	if logScale {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
	}
	p.X.Min = 0
	return Encode(p, 6*vg.Inch, 4*vg.Inch)
}

// BarsH draws horizontal bars, bar i labelled labels[i] from the bottom up.
func BarsH(title, xlabel string, labels []string, values []float64) ([]byte, error) {
	p := newPlot(title, xlabel, "")

	bars, err := plotter.NewBarChart(plotter.Values(values), vg.Points(8))
	if err != nil {
		return nil, fmt.Errorf("failed to build bar chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = Set2[2]
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalY(labels...)
	p.X.Min = 0

	return Encode(p, 12*vg.Inch, vg.Length(1+0.15*float64(len(values)))*vg.Inch+2*vg.Inch)
}

// Timeline draws interval i as a bar on row i from starts[i] to ends[i],
// marks every interval end but the last and annotates each bar with its index.
func Timeline(title string, starts, ends []time.Time, loc *time.Location) ([]byte, error) {
	p := newPlot(title, "", "")
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01", Time: plot.UnixTimeIn(loc)}

	var marks plotter.XYs
	labels := plotter.XYLabels{}
	for i := range starts {
		x0, x1 := float64(starts[i].Unix()), float64(ends[i].Unix())
		bar, err := rect(x0, x1, float64(i), float64(i)+1, Set2[i%len(Set2)])
		if err != nil {
			return nil, err
		}
		p.Add(bar)
		if i < len(starts)-1 {
			marks = append(marks, plotter.XY{X: x1, Y: float64(i) + 0.5})
		}
		labels.XYs = append(labels.XYs, plotter.XY{X: x1, Y: float64(i) + 0.5})
		labels.Labels = append(labels.Labels, fmt.Sprintf("  %d", i))
	}

	if len(marks) > 0 {
		s, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, fmt.Errorf("failed to build title marks: %w", err)
		}
		s.GlyphStyle.Color = Set2[2]
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(3)
		p.Add(s)
	}

	l, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, fmt.Errorf("failed to build title labels: %w", err)
	}
	p.Add(l)

	p.HideY()
	p.Y.Min, p.Y.Max = -1, float64(len(starts))+1
	return Encode(p, 12*vg.Inch, vg.Length(1+0.15*float64(len(starts)))*vg.Inch+2*vg.Inch)
}

func addBoxes(p *plot.Plot, groups [][]float64, fill color.Color) error {
	for i, g := range groups {
		if len(g) == 0 {
			continue
		}
		b, err := plotter.NewBoxPlot(vg.Points(14), float64(i), plotter.Values(g))
		if err != nil {
			return fmt.Errorf("failed to build box plot: %w", err)
		}
		b.FillColor = fill
		b.Outside = nil
		p.Add(b)
	}
	return nil
}

func addShade(p *plot.Plot, groups [][]float64, from, to float64) error {
	if to <= from {
		return nil
	}
	hi := 1.0
	for _, g := range groups {
		if len(g) > 0 {
			hi = math.Max(hi, floats.Max(g))
		}
	}
	band, err := rect(from, to, 0, hi*1.05, color.RGBA{G: 0xcc, A: 0x1a})
	if err != nil {
		return err
	}
	p.Add(band)
	return nil
}

func rect(x0, x1, y0, y1 float64, fill color.Color) (*plotter.Polygon, error) {
	poly, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}})
	if err != nil {
		return nil, fmt.Errorf("failed to build polygon: %w", err)
	}
	poly.Color = fill
	poly.LineStyle.Width = 0
	return poly, nil
}

func withAlpha(c color.Color, alpha uint8) color.Color {
	if alpha == 0 {
		return c
	}
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

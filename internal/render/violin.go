package render

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const violinPoints = 100

// violin is a kernel density estimate mirrored around Loc, scaled so that the
// widest point spans Width data units.
type violin struct {
	Loc   float64
	Width float64
	Color color.Color

	ys, dens []float64
	q1, med  float64
	q3       float64
	min, max float64
}

var (
	_ plot.Plotter    = (*violin)(nil)
	_ plot.DataRanger = (*violin)(nil)
)

func newViolin(loc float64, values []float64, c color.Color) *violin {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	v := &violin{
		Loc:   loc,
		Width: 0.8,
		Color: c,
		q1:    stat.Quantile(0.25, stat.LinInterp, sorted, nil),
		med:   stat.Quantile(0.5, stat.LinInterp, sorted, nil),
		q3:    stat.Quantile(0.75, stat.LinInterp, sorted, nil),
		min:   sorted[0],
		max:   sorted[len(sorted)-1],
	}
	v.ys, v.dens = kde(sorted)
	return v
}

// kde evaluates a Gaussian kernel density with Scott's bandwidth over the data range.
func kde(sorted []float64) (ys, dens []float64) {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	sd := stat.StdDev(sorted, nil)
	if lo == hi || sd == 0 || math.IsNaN(sd) {
		return []float64{lo, hi}, []float64{1, 1}
	}
	bw := sd * math.Pow(float64(len(sorted)), -0.2)

	ys = make([]float64, violinPoints)
	floats.Span(ys, lo, hi)
	dens = make([]float64, violinPoints)
	norm := 1 / (float64(len(sorted)) * bw * math.Sqrt(2*math.Pi))
	for i, y := range ys {
		var sum float64
		for _, x := range sorted {
			z := (y - x) / bw
			sum += math.Exp(-0.5 * z * z)
		}
		dens[i] = sum * norm
	}
	return ys, dens
}

func (v *violin) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	peak := floats.Max(v.dens)
	if peak == 0 {
		return
	}
	half := v.Width / 2

	pts := make([]vg.Point, 0, 2*len(v.ys))
	for i, y := range v.ys {
		w := half * v.dens[i] / peak
		pts = append(pts, vg.Point{X: trX(v.Loc + w), Y: trY(y)})
	}
	for i := len(v.ys) - 1; i >= 0; i-- {
		w := half * v.dens[i] / peak
		pts = append(pts, vg.Point{X: trX(v.Loc - w), Y: trY(v.ys[i])})
	}
	c.FillPolygon(v.Color, c.ClipPolygonXY(pts))

	whisker := draw.LineStyle{Color: color.Black, Width: vg.Points(1)}
	box := draw.LineStyle{Color: color.Black, Width: vg.Points(4)}
	x := trX(v.Loc)
	c.StrokeLine2(whisker, x, trY(v.min), x, trY(v.max))
	c.StrokeLine2(box, x, trY(v.q1), x, trY(v.q3))
	c.DrawGlyph(draw.GlyphStyle{Color: color.White, Radius: vg.Points(2), Shape: draw.CircleGlyph{}},
		vg.Point{X: x, Y: trY(v.med)})
}

func (v *violin) DataRange() (xmin, xmax, ymin, ymax float64) {
	return v.Loc - v.Width/2, v.Loc + v.Width/2, v.min, v.max
}

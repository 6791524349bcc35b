package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"rancher-dashboard/models"
	"rancher-dashboard/utils"
)

var (
	missingColor = color.RGBA{R: 210, G: 210, B: 210, A: 255}
	borderColor  = color.White
)

// Size of the rendered figure.
const (
	figureWidth  = 15 * vg.Inch
	figureHeight = 6 * vg.Inch
	colorBarArea = 1.6 * vg.Inch
	titleArea    = 0.5 * vg.Inch
)

// MapRenderer draws a MapFigure as a tile-grid choropleth: one panel per
// facet, all panels colored on the figure's shared domain.
type MapRenderer struct {
	logger *utils.Logger
}

// NewMapRenderer creates a MapRenderer with the given logger.
func NewMapRenderer(logger *utils.Logger) *MapRenderer {
	return &MapRenderer{logger: logger}
}

// PNG renders fig and returns the encoded image.
func (m *MapRenderer) PNG(fig *models.MapFigure) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Render(&buf, fig); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render writes fig to w as a PNG.
func (m *MapRenderer) Render(w io.Writer, fig *models.MapFigure) error {
	if len(fig.Facets) == 0 {
		return fmt.Errorf("render: %s has no facets", fig.Metric)
	}

	cmap := newColorScale(fig.Domain)

	panels := make([]*plot.Plot, len(fig.Facets))
	for i, facet := range fig.Facets {
		p, err := m.facetPlot(facet, cmap)
		if err != nil {
			return fmt.Errorf("render: facet %s: %w", facet.Year, err)
		}
		panels[i] = p
	}

	img := vgimg.New(figureWidth, figureHeight)
	dc := draw.New(img)

	title := draw.TextStyle{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(18)),
		XAlign:  draw.XCenter,
		YAlign:  draw.YTop,
		Handler: plot.DefaultTextHandler,
	}
	dc.FillText(title, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - vg.Points(8)}, fig.Title)

	body := draw.Crop(dc, 0, 0, 0, -titleArea)
	mapsArea := draw.Crop(body, 0, -colorBarArea, 0, 0)
	barArea := draw.Crop(body, body.Max.X-body.Min.X-colorBarArea, 0, vg.Points(20), -vg.Points(20))

	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Points(12),
	}
	canvases := plot.Align([][]*plot.Plot{panels}, tiles, mapsArea)
	for j, p := range panels {
		p.Draw(canvases[0][j])
	}

	colorBar(fig.Legend, cmap.bar()).Draw(barArea)

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("render: encode png: %w", err)
	}

	m.logger.Debug("[render] %s: %d panels", fig.Metric, len(panels))
	return nil
}

func (m *MapRenderer) facetPlot(facet models.MapFacet, cmap *colorScale) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Year=" + facet.Year
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.HideAxes()
	p.X.Min, p.X.Max = 0, gridCols
	p.Y.Min, p.Y.Max = -gridRows, 0

	values := make(map[string]*float64, len(facet.Points))
	for _, pt := range facet.Points {
		if _, ok := stateTiles[pt.Code]; !ok {
			m.logger.Debug("[render] No tile for %s (%s), skipping", pt.Code, pt.State)
			continue
		}
		values[pt.Code] = pt.Value
	}

	codes := make([]string, 0, len(stateTiles))
	for code := range stateTiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var labelXYs plotter.XYs
	var labelText []string
	var labelColors []color.Color

	for _, code := range codes {
		t := stateTiles[code]
		fill := color.Color(missingColor)
		if v := values[code]; v != nil {
			c, err := cmap.At(*v)
			if err != nil {
				return nil, fmt.Errorf("color for %s: %w", code, err)
			}
			fill = c
		}

		poly, err := plotter.NewPolygon(tileSquare(t))
		if err != nil {
			return nil, err
		}
		poly.Color = fill
		poly.LineStyle.Color = borderColor
		poly.LineStyle.Width = vg.Points(1.5)
		p.Add(poly)

		x, y := tileCenter(t)
		labelXYs = append(labelXYs, plotter.XY{X: x, Y: y})
		labelText = append(labelText, code)
		labelColors = append(labelColors, labelColor(fill))
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelText})
	if err != nil {
		return nil, err
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
		labels.TextStyle[i].YAlign = draw.YCenter
		labels.TextStyle[i].Color = labelColors[i]
	}
	p.Add(labels)

	return p, nil
}

func colorBar(legend string, cmap palette.ColorMap) *plot.Plot {
	p := plot.New()
	p.HideX()
	p.Y.Label.Text = legend
	p.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true})
	return p
}

// colorScale maps values onto a light-to-dark sequential ramp spanning the
// figure's domain. A degenerate or missing domain is widened to a unit range.
type colorScale struct {
	base     palette.ColorMap
	min, max float64
}

func newColorScale(domain *models.ColorDomain) *colorScale {
	s := &colorScale{base: moreland.Kindlmann(), min: 0, max: 1}
	s.base.SetMin(0)
	s.base.SetMax(1)

	if domain != nil {
		s.min, s.max = domain.Min, domain.Max
		if s.max <= s.min {
			s.max = s.min + 1
		}
	}
	return s
}

// At normalizes v into [0, 1] and looks it up on the reversed ramp, so low
// values are light and high values dark.
func (s *colorScale) At(v float64) (color.Color, error) {
	t := (v - s.min) / (s.max - s.min)
	t = math.Max(0, math.Min(1, t))
	return s.base.At(1 - t)
}

// bar returns a color map over the real domain for the legend.
func (s *colorScale) bar() palette.ColorMap {
	cm := palette.Reverse(moreland.Kindlmann())
	cm.SetMin(s.min)
	cm.SetMax(s.max)
	return cm
}

func tileSquare(t tile) plotter.XYs {
	x0, y0 := float64(t.col), -float64(t.row)
	return plotter.XYs{
		{X: x0, Y: y0},
		{X: x0 + 1, Y: y0},
		{X: x0 + 1, Y: y0 - 1},
		{X: x0, Y: y0 - 1},
	}
}

func tileCenter(t tile) (float64, float64) {
	return float64(t.col) + 0.5, -float64(t.row) - 0.5
}

// labelColor picks white text on dark fills and black text otherwise.
func labelColor(fill color.Color) color.Color {
	r, g, b, _ := fill.RGBA()
	luma := (299*r + 587*g + 114*b) / 1000
	if luma < 0x7fff {
		return color.White
	}
	return color.Black
}

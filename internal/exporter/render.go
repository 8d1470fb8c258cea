package exporter

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Renderer 将图表绘制为位图
type Renderer interface {
	Render(c *Chart) (image.Image, error)
}

// GonumRenderer 柱状图用 gonum/plot，饼图用 go-chart，注释文字绘制在图表下方
type GonumRenderer struct {
	Width  vg.Length
	Height vg.Length
	DPI    int
}

// NewGonumRenderer 默认 6x4.5 英寸、96 DPI
func NewGonumRenderer() *GonumRenderer {
	return &GonumRenderer{Width: 6 * vg.Inch, Height: 4.5 * vg.Inch, DPI: 96}
}

const (
	annotationFontSize = 11
	annotationLineGap  = 4
)

// Render 绘制单个图表
func (r *GonumRenderer) Render(c *Chart) (image.Image, error) {
	if c == nil || len(c.Series) == 0 {
		return nil, ErrNoData
	}

	canvas := vgimg.NewWith(vgimg.UseWH(r.Width, r.Height), vgimg.UseDPI(r.DPI))
	dc := draw.New(canvas)

	lines := annotationLines(c.Annotation)
	area := dc
	if len(lines) > 0 {
		reserved := vg.Length(len(lines)) * vg.Points(annotationFontSize+annotationLineGap) + vg.Points(annotationLineGap)
		area = draw.Crop(dc, 0, 0, reserved, 0)
	}

	switch c.Spec.Kind {
	case KindBar, KindGroupedBar:
		p, err := barPlot(c)
		if err != nil {
			return nil, err
		}
		p.Draw(area)
	case KindPie:
		img, err := r.pieImage(c, area)
		if err != nil {
			return nil, err
		}
		area.DrawImage(area.Rectangle, img)
	default:
		return nil, fmt.Errorf("unsupported chart kind %s", c.Spec.Kind)
	}

	drawAnnotation(&dc, lines)
	return canvas.Image(), nil
}

func barPlot(c *Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Spec.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = c.Spec.XLabel
	p.Y.Label.Text = c.Spec.YLabel
	p.Add(plotter.NewGrid())

	n := len(c.Series)
	width := vg.Points(40)
	if n > 1 {
		width = vg.Points(float64(60 / n))
	}

	for i, series := range c.Series {
		bars, err := plotter.NewBarChart(plotter.Values(series), width)
		if err != nil {
			return nil, fmt.Errorf("build bars for %s: %w", c.Spec.Slot, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = seriesColor(c.Spec.Colors, i)
		// 各序列围绕类目中心并排
		bars.Offset = width * vg.Length(2*i-n+1) / 2
		p.Add(bars)

		if n > 1 && i < len(c.Spec.SeriesNames) {
			p.Legend.Add(c.Spec.SeriesNames[i], bars)
		}
	}
	if n > 1 {
		p.Legend.Top = true
	}

	p.NominalX(c.Categories...)
	p.X.Tick.Label.XAlign = draw.XCenter
	return p, nil
}

func seriesColor(colors []color.Color, i int) color.Color {
	if i < len(colors) && colors[i] != nil {
		return colors[i]
	}
	return plotutil.Color(i)
}

// pieImage go-chart 渲染饼图 PNG 后解码，按绘图区像素尺寸生成
func (r *GonumRenderer) pieImage(c *Chart, area draw.Canvas) (image.Image, error) {
	size := area.Rectangle.Size()
	width := int(size.X.Dots(float64(r.DPI)))
	height := int(size.Y.Dots(float64(r.DPI)))

	values := make([]chart.Value, len(c.Categories))
	for i, label := range c.Categories {
		values[i] = chart.Value{Label: label, Value: c.Series[0][i]}
	}

	pie := chart.PieChart{
		Title:  c.Spec.Title,
		Width:  width,
		Height: height,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie for %s: %w", c.Spec.Slot, err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode pie for %s: %w", c.Spec.Slot, err)
	}
	return img, nil
}

func annotationLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func annotationStyle() text.Style {
	sty := plot.New().Title.TextStyle
	sty.Font.Size = vg.Points(annotationFontSize)
	sty.XAlign = draw.XCenter
	sty.YAlign = draw.YTop
	return sty
}

// drawAnnotation 自下而上预留的区域内逐行居中绘制
func drawAnnotation(dc *draw.Canvas, lines []string) {
	if len(lines) == 0 {
		return
	}
	sty := annotationStyle()
	step := vg.Points(annotationFontSize + annotationLineGap)
	x := dc.Min.X + (dc.Max.X-dc.Min.X)/2
	y := dc.Min.Y + vg.Length(len(lines))*step
	for _, line := range lines {
		dc.FillText(sty, vg.Point{X: x, Y: y}, line)
		y -= step
	}
}

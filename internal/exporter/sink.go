package exporter

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Sink 报告输出目标
type Sink interface {
	// Place 放置某个位置的图表；annotation 供不在图片内绘制注释的输出使用
	Place(slot Slot, img image.Image, annotation string) error
	// Save 写出最终文件
	Save(path string) error
	// InlineAnnotation 为 true 时注释绘制在图片内
	InlineAnnotation() bool
}

// 2x2 面板中的行列位置
var panelPositions = map[Slot][2]int{
	SlotRevenueByCountry:   {0, 0},
	SlotRevenueEvolution:   {0, 1},
	SlotMarginByProduct:    {1, 0},
	SlotMarginDistribution: {1, 1},
}

// ImageSink 2x2 图表面板，缺失的位置留白，保存为单个 PNG
type ImageSink struct {
	CellWidth  vg.Length
	CellHeight vg.Length
	DPI        int

	mu     sync.Mutex
	images map[Slot]image.Image
}

// NewImageSink 每格尺寸与渲染尺寸一致
func NewImageSink(r *GonumRenderer) *ImageSink {
	if r == nil {
		r = NewGonumRenderer()
	}
	return &ImageSink{
		CellWidth:  r.Width,
		CellHeight: r.Height,
		DPI:        r.DPI,
		images:     make(map[Slot]image.Image),
	}
}

// InlineAnnotation 面板内注释随图绘制
func (s *ImageSink) InlineAnnotation() bool { return true }

// Place 放置图表
func (s *ImageSink) Place(slot Slot, img image.Image, _ string) error {
	if _, ok := panelPositions[slot]; !ok {
		return fmt.Errorf("unknown slot %q", slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[slot] = img
	return nil
}

// Placed 已放置的位置
func (s *ImageSink) Placed(slot Slot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.images[slot]
	return ok
}

// Compose 合成面板
func (s *ImageSink) Compose() *vgimg.Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()

	canvas := vgimg.NewWith(vgimg.UseWH(2*s.CellWidth, 2*s.CellHeight), vgimg.UseDPI(s.DPI))
	dc := draw.New(canvas)
	for slot, pos := range panelPositions {
		img, ok := s.images[slot]
		if !ok {
			continue
		}
		row, col := pos[0], pos[1]
		// 画布原点在左下角，第 0 行位于上半部分
		minX := dc.Min.X + vg.Length(col)*s.CellWidth
		minY := dc.Min.Y + vg.Length(1-row)*s.CellHeight
		dc.DrawImage(vg.Rectangle{
			Min: vg.Point{X: minX, Y: minY},
			Max: vg.Point{X: minX + s.CellWidth, Y: minY + s.CellHeight},
		}, img)
	}
	return canvas
}

// Save 写出 PNG
func (s *ImageSink) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if _, err := (vgimg.PngCanvas{Canvas: s.Compose()}).WriteTo(f); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return f.Close()
}

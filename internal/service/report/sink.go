package report

import (
	"fmt"

	"salesreport/internal/exporter"
)

// 输出类型
const (
	SinkImage = "image"
	SinkDeck  = "deck"
)

// SinkOptions 输出目标配置
type SinkOptions struct {
	Kind       string
	Template   string
	Placements map[exporter.Slot]exporter.DeckPlacement
}

// NewSink 按类型创建输出目标
func NewSink(opts SinkOptions, renderer *exporter.GonumRenderer) (exporter.Sink, error) {
	switch opts.Kind {
	case "", SinkImage:
		return exporter.NewImageSink(renderer), nil
	case SinkDeck:
		return exporter.NewDeckSink(opts.Template, opts.Placements)
	default:
		return nil, fmt.Errorf("unknown sink %q", opts.Kind)
	}
}

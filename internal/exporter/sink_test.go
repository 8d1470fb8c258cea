package exporter

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"salesreport/internal/query"
)

func TestGonumRenderer_AllKinds(t *testing.T) {
	t.Parallel()

	r := NewGonumRenderer()
	charts := []*Chart{
		{
			Spec:       ChartSpec{Slot: SlotRevenueByCountry, Kind: KindBar, Title: "Revenue by country"},
			Categories: []string{"France", "Germany"},
			Series:     [][]float64{{250, 160}},
			Annotation: "France leads with 250.00 (60.98%)",
		},
		{
			Spec:       ChartSpec{Slot: SlotRevenueEvolution, Kind: KindGroupedBar, SeriesNames: []string{"2019", "2020"}},
			Categories: []string{"Germany", "France"},
			Series:     [][]float64{{80, 100}, {80, 150}},
		},
		{
			Spec:       ChartSpec{Slot: SlotMarginDistribution, Kind: KindPie, Title: "Alpha"},
			Categories: []string{"France", "Germany"},
			Series:     [][]float64{{90, 60}},
			Annotation: "line one\nline two",
		},
	}

	for _, c := range charts {
		img, err := r.Render(c)
		if err != nil {
			t.Fatalf("Render(%s): %v", c.Spec.Kind, err)
		}
		b := img.Bounds()
		if b.Dx() != 576 || b.Dy() != 432 {
			t.Fatalf("%s bounds=%v", c.Spec.Kind, b)
		}
	}

	if _, err := r.Render(&Chart{Spec: ChartSpec{Kind: KindBar}}); !errors.Is(err, ErrNoData) {
		t.Fatalf("want ErrNoData, got %v", err)
	}
}

func solid(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestImageSink_PanelLayout(t *testing.T) {
	t.Parallel()

	sink := NewImageSink(NewGonumRenderer())
	red := color.RGBA{R: 255, A: 255}
	blue := color.RGBA{B: 255, A: 255}
	if err := sink.Place(SlotRevenueByCountry, solid(red), ""); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := sink.Place(SlotMarginByProduct, solid(blue), ""); err != nil {
		t.Fatalf("Place: %v", err)
	}
	if err := sink.Place(Slot("bogus"), solid(red), ""); err == nil {
		t.Fatalf("unknown slot should fail")
	}

	path := filepath.Join(t.TempDir(), "out", "report.png")
	if err := sink.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1152 || b.Dy() != 864 {
		t.Fatalf("bounds=%v", b)
	}

	check := func(x, y int, want color.RGBA, name string) {
		r, g, b, _ := img.At(x, y).RGBA()
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Fatalf("%s pixel (%d,%d) = %d,%d,%d", name, x, y, r>>8, g>>8, b>>8)
		}
	}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	check(288, 216, red, "top-left")
	check(288, 648, blue, "bottom-left")
	check(864, 216, white, "top-right blank")
	check(864, 648, white, "bottom-right blank")
}

type fakeRenderer struct{ err error }

func (f fakeRenderer) Render(c *Chart) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return solid(color.Black), nil
}

type recordingSink struct {
	inline      bool
	annotations map[Slot]string
	saveErr     error
}

func (s *recordingSink) Place(slot Slot, _ image.Image, annotation string) error {
	if s.annotations == nil {
		s.annotations = map[Slot]string{}
	}
	s.annotations[slot] = annotation
	return nil
}
func (s *recordingSink) Save(string) error { return s.saveErr }

func (s *recordingSink) InlineAnnotation() bool { return s.inline }

func TestEmitter_SkipAndFatal(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	sink := &recordingSink{}
	var events []ProgressEvent
	e := NewEmitter(fakeRenderer{}, sink, zap.New(core))
	e.OnProgress = func(ev ProgressEvent) { events = append(events, ev) }

	bar := ChartSpec{Slot: SlotRevenueByCountry, Kind: KindBar, CategoryColumn: "country", ValueColumns: []string{"total_revenue"}}
	tbl := resultTable(query.RevenueByCountry, []string{"country", "total_revenue"}, []any{"FR", "1"})
	if err := e.Emit(bar, tbl, "caption"); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if sink.annotations[SlotRevenueByCountry] != "caption" {
		t.Fatalf("annotation not forwarded: %v", sink.annotations)
	}
	if len(events) != 1 || events[0].Percent != 25 || !events[0].Placed || events[0].Slot != SlotRevenueByCountry {
		t.Fatalf("progress=%+v", events)
	}

	err := e.Emit(bar, resultTable(query.RevenueByCountry, []string{"country", "total_revenue"}), "")
	var ee *EmitError
	if !errors.As(err, &ee) || ee.Fatal || ee.Slot != SlotRevenueByCountry || !errors.Is(err, ErrNoData) {
		t.Fatalf("empty table: got %v", err)
	}
	// 同一位置只计一次进度
	if len(events) != 1 {
		t.Fatalf("progress=%+v", events)
	}

	broken := NewEmitter(fakeRenderer{err: errors.New("boom")}, sink, zap.New(core))
	if err := broken.Emit(bar, tbl, ""); !errors.As(err, &ee) {
		t.Fatalf("render failure: got %v", err)
	}
	if logs.FilterMessage("chart skipped").Len() != 2 {
		t.Fatalf("expected two skip warnings, got %d", logs.Len())
	}

	sink.saveErr = errors.New("disk full")
	if err := e.Save("x.png"); !errors.As(err, &ee) || !ee.Fatal {
		t.Fatalf("save failure should be fatal, got %v", err)
	}
}

func TestEmitter_ProgressCountsSkippedSlots(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	e := NewEmitter(fakeRenderer{}, &recordingSink{}, nil)
	e.OnProgress = func(ev ProgressEvent) { events = append(events, ev) }

	bar := ChartSpec{Slot: SlotMarginByProduct, Kind: KindBar, CategoryColumn: "product", ValueColumns: []string{"margin_total"}}
	e.Skip(SlotRevenueByCountry)
	e.Skip(SlotRevenueByCountry)
	if err := e.Emit(bar, resultTable(query.MarginByProduct, []string{"product", "margin_total"}, []any{"Alpha", "3"}), ""); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	pie := ChartSpec{Slot: SlotMarginDistribution, Kind: KindPie, CategoryColumn: "country", ValueColumns: []string{"margin"}}
	_ = e.Emit(pie, resultTable(query.MarginDistribution, []string{"country", "margin"}, []any{"FR", "-1"}), "")
	e.Skip(SlotMarginDistribution)
	e.Skip(SlotRevenueEvolution)

	if len(events) != 4 {
		t.Fatalf("events=%+v", events)
	}
	wantSlots := []Slot{SlotRevenueByCountry, SlotMarginByProduct, SlotMarginDistribution, SlotRevenueEvolution}
	wantPlaced := []bool{false, true, false, false}
	for i, ev := range events {
		if ev.Slot != wantSlots[i] || ev.Placed != wantPlaced[i] || ev.Done != i+1 || ev.Total != 4 || ev.Percent != (i+1)*25 {
			t.Fatalf("event %d=%+v", i, ev)
		}
	}
}

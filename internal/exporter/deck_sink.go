package exporter

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	relTypeImage    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	contentTypesXML = "[Content_Types].xml"
)

// DeckPlacement 图表在演示文稿模板中的位置
type DeckPlacement struct {
	Slide   int    `toml:"slide" validate:"min=1"` // 幻灯片序号，从 1 开始
	Picture string `toml:"picture" validate:"required"`
	Text    string `toml:"text"` // 可空：不写注释
}

// DefaultDeckPlacements 每页两张图：第 1 页放营收图，第 2 页放毛利图
// 形状按位置编号命名为 Chart1-Chart4 / Caption1-Caption4
func DefaultDeckPlacements() map[Slot]DeckPlacement {
	out := make(map[Slot]DeckPlacement, len(Slots))
	for i, s := range Slots {
		n := i + 1
		out[s] = DeckPlacement{
			Slide:   i/2 + 1,
			Picture: fmt.Sprintf("Chart%d", n),
			Text:    fmt.Sprintf("Caption%d", n),
		}
	}
	return out
}

// DeckSink 以 .pptx 模板为底稿：图片占位形状的图片关系改指向新图，文本形状写入注释
type DeckSink struct {
	template   string
	placements map[Slot]DeckPlacement

	mu      sync.Mutex
	pending map[Slot]deckItem
}

type deckItem struct {
	png        []byte
	annotation string
}

// NewDeckSink 校验模板中包含配置的幻灯片
func NewDeckSink(templatePath string, placements map[Slot]DeckPlacement) (*DeckSink, error) {
	if strings.TrimSpace(templatePath) == "" {
		return nil, errors.New("deck template path is empty")
	}
	if len(placements) == 0 {
		placements = DefaultDeckPlacements()
	}

	zr, err := zip.OpenReader(templatePath)
	if err != nil {
		return nil, fmt.Errorf("open deck template: %w", err)
	}
	defer zr.Close()

	names := make(map[string]bool, len(zr.File))
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for slot, pl := range placements {
		if !names[slidePath(pl.Slide)] {
			return nil, fmt.Errorf("deck template has no slide %d for %s", pl.Slide, slot)
		}
	}

	return &DeckSink{
		template:   templatePath,
		placements: placements,
		pending:    make(map[Slot]deckItem),
	}, nil
}

// InlineAnnotation 注释写入文本形状，不绘制在图片内
func (s *DeckSink) InlineAnnotation() bool { return false }

// Place 编码 PNG 暂存，Save 时写入
func (s *DeckSink) Place(slot Slot, img image.Image, annotation string) error {
	if _, ok := s.placements[slot]; !ok {
		return fmt.Errorf("no deck placement for %s", slot)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[slot] = deckItem{png: buf.Bytes(), annotation: annotation}
	return nil
}

type zipEntry struct {
	name string
	data []byte
}

// Save 复制模板并写出新文稿；未放置的位置保持模板原样
func (s *DeckSink) Save(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readZip(s.template)
	if err != nil {
		return err
	}
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.name] = i
	}
	put := func(name string, data []byte) {
		if i, ok := index[name]; ok {
			entries[i].data = data
			return
		}
		index[name] = len(entries)
		entries = append(entries, zipEntry{name: name, data: data})
	}

	for _, slot := range Slots {
		item, ok := s.pending[slot]
		if !ok {
			continue
		}
		pl := s.placements[slot]

		media := fmt.Sprintf("salesreport_%s.png", slot)
		relsName := slideRelsPath(pl.Slide)
		var rels []byte
		if i, ok := index[relsName]; ok {
			rels = entries[i].data
		}
		rels, rid, err := addImageRelationship(rels, "../media/"+media)
		if err != nil {
			return fmt.Errorf("%s: %w", relsName, err)
		}

		slideName := slidePath(pl.Slide)
		slide, err := rewriteSlide(entries[index[slideName]].data, pl, rid, item.annotation)
		if err != nil {
			return fmt.Errorf("%s (%s): %w", slideName, slot, err)
		}

		put("ppt/media/"+media, item.png)
		put(relsName, rels)
		put(slideName, slide)
	}

	if i, ok := index[contentTypesXML]; ok {
		entries[i].data = ensurePNGContentType(entries[i].data)
	}

	return writeZip(path, entries)
}

func slidePath(n int) string {
	return fmt.Sprintf("ppt/slides/slide%d.xml", n)
}

func slideRelsPath(n int) string {
	return fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n)
}

func readZip(path string) ([]zipEntry, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open deck template: %w", err)
	}
	defer zr.Close()

	entries := make([]zipEntry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		entries = append(entries, zipEntry{name: f.Name, data: data})
	}
	return entries, nil
}

func writeZip(path string, entries []zipEntry) error {
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

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("add %s: %w", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return fmt.Errorf("write %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish deck: %w", err)
	}
	return f.Close()
}

// ---- relationships ----

type relationships struct {
	XMLName xml.Name       `xml:"http://schemas.openxmlformats.org/package/2006/relationships Relationships"`
	Items   []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr,omitempty"`
}

// addImageRelationship 追加图片关系，返回新的关系 ID
func addImageRelationship(data []byte, target string) ([]byte, string, error) {
	var rels relationships
	if len(bytes.TrimSpace(data)) > 0 {
		if err := xml.Unmarshal(data, &rels); err != nil {
			return nil, "", fmt.Errorf("parse relationships: %w", err)
		}
	}

	next := 1
	for _, r := range rels.Items {
		if n, err := strconv.Atoi(strings.TrimPrefix(r.ID, "rId")); err == nil && n >= next {
			next = n + 1
		}
	}
	id := "rId" + strconv.Itoa(next)
	rels.Items = append(rels.Items, relationship{ID: id, Type: relTypeImage, Target: target})

	out, err := xml.Marshal(rels)
	if err != nil {
		return nil, "", fmt.Errorf("encode relationships: %w", err)
	}
	return append([]byte(xml.Header), out...), id, nil
}

func ensurePNGContentType(data []byte) []byte {
	if bytes.Contains(bytes.ToLower(data), []byte(`extension="png"`)) {
		return data
	}
	i := bytes.LastIndex(data, []byte("</Types>"))
	if i < 0 {
		return data
	}
	out := make([]byte, 0, len(data)+64)
	out = append(out, data[:i]...)
	out = append(out, `<Default Extension="png" ContentType="image/png"/>`...)
	return append(out, data[i:]...)
}

// ---- slide xml ----

type shapeInfo struct {
	name    string
	blip    *span
	texts   []span
	bodyEnd int // </p:txBody> 起始偏移，-1 表示无
}

type span struct {
	start, end int
}

type splice struct {
	span
	repl []byte
}

var embedAttr = regexp.MustCompile(`([A-Za-z0-9]+:embed=")[^"]*(")`)

// scanShapes 记录每个形状的名称、图片引用与文本元素在原文中的字节区间
func scanShapes(doc []byte) ([]*shapeInfo, error) {
	d := xml.NewDecoder(bytes.NewReader(doc))
	var (
		shapes []*shapeInfo
		stack  []*shapeInfo
		text   *span
	)
	current := func() *shapeInfo {
		if len(stack) == 0 {
			return nil
		}
		return stack[len(stack)-1]
	}

	for {
		start := int(d.InputOffset())
		tok, err := d.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse slide: %w", err)
		}
		end := int(d.InputOffset())

		switch t := tok.(type) {
		case xml.StartElement:
			cur := current()
			switch t.Name.Local {
			case "sp", "pic":
				s := &shapeInfo{bodyEnd: -1}
				shapes = append(shapes, s)
				stack = append(stack, s)
			case "cNvPr":
				if cur != nil && cur.name == "" {
					for _, a := range t.Attr {
						if a.Name.Local == "name" {
							cur.name = a.Value
						}
					}
				}
			case "blip":
				if cur != nil && cur.blip == nil {
					cur.blip = &span{start: start, end: end}
				}
			case "t":
				if cur != nil {
					text = &span{start: start}
				}
			}
		case xml.EndElement:
			cur := current()
			switch t.Name.Local {
			case "sp", "pic":
				if len(stack) > 0 {
					stack = stack[:len(stack)-1]
				}
			case "t":
				if cur != nil && text != nil {
					text.end = end
					cur.texts = append(cur.texts, *text)
					text = nil
				}
			case "txBody":
				if cur != nil {
					cur.bodyEnd = start
				}
			}
		}
	}
	return shapes, nil
}

func findShape(shapes []*shapeInfo, name string) *shapeInfo {
	for _, s := range shapes {
		if s.name == name {
			return s
		}
	}
	return nil
}

// rewriteSlide 图片形状改引用 rid，文本形状替换为注释
func rewriteSlide(doc []byte, pl DeckPlacement, rid, annotation string) ([]byte, error) {
	shapes, err := scanShapes(doc)
	if err != nil {
		return nil, err
	}

	var edits []splice

	pic := findShape(shapes, pl.Picture)
	if pic == nil || pic.blip == nil {
		return nil, fmt.Errorf("picture shape %q not found", pl.Picture)
	}
	tag := doc[pic.blip.start:pic.blip.end]
	if !embedAttr.Match(tag) {
		return nil, fmt.Errorf("picture shape %q has no image reference", pl.Picture)
	}
	edits = append(edits, splice{span: *pic.blip, repl: embedAttr.ReplaceAll(tag, []byte("${1}"+rid+"${2}"))})

	if pl.Text != "" {
		box := findShape(shapes, pl.Text)
		if box == nil {
			return nil, fmt.Errorf("text shape %q not found", pl.Text)
		}
		content := escapeText(strings.Join(annotationLines(annotation), " "))
		switch {
		case len(box.texts) > 0:
			for i, t := range box.texts {
				repl := "<a:t></a:t>"
				if i == 0 {
					repl = "<a:t>" + content + "</a:t>"
				}
				edits = append(edits, splice{span: t, repl: []byte(repl)})
			}
		case box.bodyEnd >= 0:
			run := "<a:p><a:r><a:t>" + content + "</a:t></a:r></a:p>"
			edits = append(edits, splice{span: span{start: box.bodyEnd, end: box.bodyEnd}, repl: []byte(run)})
		default:
			return nil, fmt.Errorf("text shape %q has no text body", pl.Text)
		}
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := append([]byte(nil), doc...)
	for _, e := range edits {
		out = append(out[:e.start], append(append([]byte(nil), e.repl...), out[e.end:]...)...)
	}
	return out, nil
}

func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

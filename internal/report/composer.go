// Package report lays analytics views out as printable documents and renders
// them to PDF and XLSX.
//
// Layout is a pure step: Compose turns a header and a list of sections into
// positioned DrawBlocks without knowing the target renderer. Renderers only
// replay blocks.
package report

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// NoData replaces an empty table or key-value list
const NoData = "Aucune donnée disponible"

// BlockKind is a drawing primitive
type BlockKind string

const (
	BlockText  BlockKind = "text"
	BlockRect  BlockKind = "rect"
	BlockImage BlockKind = "image"
	BlockLine  BlockKind = "line"
)

// Align is the horizontal alignment of a text block
type Align string

const (
	AlignLeft   Align = "L"
	AlignCenter Align = "C"
	AlignRight  Align = "R"
)

// Colors used by the composer
const (
	ColorHeaderFill = "#2c3e50"
	ColorStripe     = "#f2f2f2"
	ColorText       = "#212529"
	ColorInverse    = "#ffffff"
	ColorMuted      = "#6c757d"
	ColorRule       = "#dee2e6"
)

// DrawBlock is one positioned drawing instruction. Coordinates are in
// millimetres from the top-left corner of the page.
type DrawBlock struct {
	Page  int       `json:"page"`
	Kind  BlockKind `json:"kind"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	W     float64   `json:"w"`
	H     float64   `json:"h"`
	Text  string    `json:"text,omitempty"`
	Size  float64   `json:"size,omitempty"`
	Bold  bool      `json:"bold,omitempty"`
	Align Align     `json:"align,omitempty"`
	Fill  string    `json:"fill,omitempty"`
	Color string    `json:"color,omitempty"`
}

// Header is printed at the top of the first page
type Header struct {
	Title       string
	Subtitle    string
	GeneratedAt time.Time
	Logo        bool
}

// Document is the composed, renderer-independent report
type Document struct {
	Header   Header
	Pages    int
	Blocks   []DrawBlock
	Sections []SectionSpec
}

// Layout holds page geometry in millimetres and font sizes in points.
type Layout struct {
	PageWidth   float64
	PageHeight  float64
	Margin      float64
	BottomLimit float64
	LineHeight  float64
	RowHeight   float64
	BodySize    float64
	HeadingSize float64
	TitleSize   float64
	LogoSize    float64
	KeyWidth    float64
}

// A4 portrait
var DefaultLayout = Layout{
	PageWidth:   210,
	PageHeight:  297,
	Margin:      15,
	BottomLimit: 270,
	LineHeight:  6,
	RowHeight:   7,
	BodySize:    10,
	HeadingSize: 13,
	TitleSize:   18,
	LogoSize:    22,
	KeyWidth:    75,
}

// ContentWidth is the printable width between margins.
func (l Layout) ContentWidth() float64 {
	return l.PageWidth - 2*l.Margin
}

// Measure returns the printed width of text in millimetres.
type Measure func(text string, size float64, bold bool) float64

// approxWidth assumes Helvetica's average advance of half an em.
func approxWidth(text string, size float64, bold bool) float64 {
	w := float64(utf8.RuneCountInString(text)) * size * 0.5 * 0.3528
	if bold {
		w *= 1.08
	}
	return w
}

// Composer lays out sections page by page
type Composer struct {
	layout  Layout
	measure Measure
}

// NewComposer creates a composer. A nil measure uses an approximation of
// Helvetica metrics.
func NewComposer(layout Layout, measure Measure) *Composer {
	if measure == nil {
		measure = approxWidth
	}
	return &Composer{layout: layout, measure: measure}
}

// Compose is pure: the same input always yields the same blocks.
func (c *Composer) Compose(header Header, sections []SectionSpec) Document {
	p := &pass{c: c, l: c.layout}
	p.newPage()
	p.header(header)

	for _, s := range sections {
		switch s.Kind {
		case SectionHeading:
			p.heading(s.Title)
		case SectionKeyValue:
			p.keyValues(s)
		case SectionTable:
			p.table(s)
		case SectionText:
			p.narrative(s)
		}
		p.y += p.l.LineHeight / 2
	}

	p.footers(header.GeneratedAt)
	return Document{Header: header, Pages: p.page, Blocks: p.blocks, Sections: sections}
}

// pass is the mutable cursor of a single Compose call.
type pass struct {
	c      *Composer
	l      Layout
	page   int
	y      float64
	title  string
	blocks []DrawBlock
}

func (p *pass) emit(b DrawBlock) {
	b.Page = p.page
	p.blocks = append(p.blocks, b)
}

func (p *pass) text(x, y, w, h float64, text string, size float64, bold bool, align Align, color string) {
	p.emit(DrawBlock{Kind: BlockText, X: x, Y: y, W: w, H: h, Text: text, Size: size, Bold: bold, Align: align, Color: color})
}

func (p *pass) newPage() {
	p.page++
	p.y = p.l.Margin
	if p.page > 1 && p.title != "" {
		p.text(p.l.Margin, p.y, p.l.ContentWidth(), p.l.LineHeight, p.title, p.l.BodySize-2, false, AlignRight, ColorMuted)
		p.y += p.l.LineHeight + 2
	}
}

// ensure starts a new page when h does not fit above the bottom limit.
func (p *pass) ensure(h float64) bool {
	if p.y+h <= p.l.BottomLimit {
		return false
	}
	p.newPage()
	return true
}

func (p *pass) header(h Header) {
	p.title = h.Title
	x := p.l.Margin
	top := p.y
	if h.Logo {
		p.emit(DrawBlock{Kind: BlockImage, X: x, Y: top, W: p.l.LogoSize, H: p.l.LogoSize})
		x += p.l.LogoSize + 5
	}
	width := p.l.PageWidth - p.l.Margin - x

	p.text(x, top+2, width, 9, h.Title, p.l.TitleSize, true, AlignLeft, ColorText)
	if h.Subtitle != "" {
		p.text(x, top+12, width, p.l.LineHeight, h.Subtitle, p.l.BodySize+1, false, AlignLeft, ColorMuted)
	}

	p.y = top + 20
	if h.Logo && p.y < top+p.l.LogoSize+2 {
		p.y = top + p.l.LogoSize + 2
	}
	p.emit(DrawBlock{Kind: BlockLine, X: p.l.Margin, Y: p.y, W: p.l.ContentWidth(), Color: ColorRule})
	p.y += p.l.LineHeight
}

func (p *pass) heading(title string) {
	if title == "" {
		return
	}
	// keep a heading with at least one line of its content
	p.ensure(9 + p.l.RowHeight)
	p.text(p.l.Margin, p.y, p.l.ContentWidth(), 8, title, p.l.HeadingSize, true, AlignLeft, ColorText)
	p.y += 9
}

func (p *pass) noData() {
	p.ensure(p.l.LineHeight)
	p.text(p.l.Margin, p.y, p.l.ContentWidth(), p.l.LineHeight, NoData, p.l.BodySize, false, AlignLeft, ColorMuted)
	p.y += p.l.LineHeight
}

func (p *pass) keyValues(s SectionSpec) {
	p.heading(s.Title)
	if len(s.Pairs) == 0 {
		p.noData()
		return
	}
	valueX := p.l.Margin + p.l.KeyWidth
	valueW := p.l.ContentWidth() - p.l.KeyWidth
	for _, kv := range s.Pairs {
		p.ensure(p.l.LineHeight)
		p.text(p.l.Margin, p.y, p.l.KeyWidth, p.l.LineHeight, kv.Key, p.l.BodySize, true, AlignLeft, ColorText)
		p.text(valueX, p.y, valueW, p.l.LineHeight, p.fit(kv.Value, valueW, p.l.BodySize, false), p.l.BodySize, false, AlignLeft, ColorText)
		p.y += p.l.LineHeight
	}
}

func (p *pass) table(s SectionSpec) {
	p.heading(s.Title)
	if len(s.Rows) == 0 || len(s.Columns) == 0 {
		p.noData()
		return
	}
	widths := p.columnWidths(s.Columns)

	p.ensure(2 * p.l.RowHeight)
	p.tableHeader(s.Columns, widths)

	for i, row := range s.Rows {
		if p.ensure(p.l.RowHeight) {
			p.tableHeader(s.Columns, widths)
		}
		if i%2 == 0 {
			p.emit(DrawBlock{Kind: BlockRect, X: p.l.Margin, Y: p.y, W: p.l.ContentWidth(), H: p.l.RowHeight, Fill: ColorStripe})
		}
		x := p.l.Margin
		for j, col := range s.Columns {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			p.text(x+1, p.y, widths[j]-2, p.l.RowHeight, p.fit(cell, widths[j]-2, p.l.BodySize-1, false), p.l.BodySize-1, false, col.align(), ColorText)
			x += widths[j]
		}
		p.y += p.l.RowHeight
	}
}

func (p *pass) tableHeader(cols []Column, widths []float64) {
	p.emit(DrawBlock{Kind: BlockRect, X: p.l.Margin, Y: p.y, W: p.l.ContentWidth(), H: p.l.RowHeight, Fill: ColorHeaderFill})
	x := p.l.Margin
	for j, col := range cols {
		p.text(x+1, p.y, widths[j]-2, p.l.RowHeight, p.fit(col.Label, widths[j]-2, p.l.BodySize-1, true), p.l.BodySize-1, true, col.align(), ColorInverse)
		x += widths[j]
	}
	p.y += p.l.RowHeight
}

// columnWidths scales declared widths to the content width. Columns without
// a width share what is left.
func (p *pass) columnWidths(cols []Column) []float64 {
	total := p.l.ContentWidth()
	widths := make([]float64, len(cols))
	var declared float64
	free := 0
	for i, col := range cols {
		widths[i] = col.Width
		declared += col.Width
		if col.Width <= 0 {
			free++
		}
	}
	if free > 0 {
		share := (total - declared) / float64(free)
		if share < 10 {
			share = 10
		}
		for i := range widths {
			if widths[i] <= 0 {
				widths[i] = share
				declared += share
			}
		}
	}
	if declared > 0 && declared != total {
		scale := total / declared
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func (p *pass) narrative(s SectionSpec) {
	p.heading(s.Title)
	for _, line := range wrap(s.Text, p.l.ContentWidth(), func(t string) float64 {
		return p.c.measure(t, p.l.BodySize, false)
	}) {
		p.ensure(p.l.LineHeight)
		p.text(p.l.Margin, p.y, p.l.ContentWidth(), p.l.LineHeight, line, p.l.BodySize, false, AlignLeft, ColorText)
		p.y += p.l.LineHeight
	}
}

func (p *pass) footers(at time.Time) {
	y := p.l.PageHeight - p.l.Margin + 3
	date := "Généré le " + at.Format("02/01/2006 à 15:04")
	for page := 1; page <= p.page; page++ {
		p.blocks = append(p.blocks,
			DrawBlock{Page: page, Kind: BlockLine, X: p.l.Margin, Y: y - 2, W: p.l.ContentWidth(), Color: ColorRule},
			DrawBlock{Page: page, Kind: BlockText, X: p.l.Margin, Y: y, W: p.l.ContentWidth() / 2, H: p.l.LineHeight,
				Text: date, Size: p.l.BodySize - 2, Align: AlignLeft, Color: ColorMuted},
			DrawBlock{Page: page, Kind: BlockText, X: p.l.Margin + p.l.ContentWidth()/2, Y: y, W: p.l.ContentWidth() / 2, H: p.l.LineHeight,
				Text: "Page " + strconv.Itoa(page), Size: p.l.BodySize - 2, Align: AlignRight, Color: ColorMuted},
		)
	}
}

// fit truncates text with an ellipsis so it stays within w.
func (p *pass) fit(text string, w, size float64, bold bool) string {
	if p.c.measure(text, size, bold) <= w {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "…"
		if p.c.measure(candidate, size, bold) <= w {
			return candidate
		}
	}
	return ""
}

// wrap splits text into lines no wider than w. Paragraph breaks are kept; a
// single word wider than w gets a line of its own.
func wrap(text string, w float64, measure func(string) float64) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		line := words[0]
		for _, word := range words[1:] {
			candidate := line + " " + word
			if measure(candidate) > w {
				lines = append(lines, line)
				line = word
				continue
			}
			line = candidate
		}
		lines = append(lines, line)
	}
	return lines
}

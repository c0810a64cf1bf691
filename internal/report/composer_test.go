package report

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = Header{
	Title:       "Rapport carburant",
	Subtitle:    "Période : avril 2024",
	GeneratedAt: time.Date(2024, time.April, 17, 10, 30, 0, 0, time.UTC),
}

func textsOf(blocks []DrawBlock) []string {
	var out []string
	for _, b := range blocks {
		if b.Kind == BlockText {
			out = append(out, b.Text)
		}
	}
	return out
}

func rectsWithFill(blocks []DrawBlock, fill string) []DrawBlock {
	var out []DrawBlock
	for _, b := range blocks {
		if b.Kind == BlockRect && b.Fill == fill {
			out = append(out, b)
		}
	}
	return out
}

func numberedRows(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("Véhicule %d", i+1), "10 000 Ar"}
	}
	return rows
}

var twoColumns = []Column{{Label: "Véhicule", Width: 100}, {Label: "Coût", Width: 80, Align: AlignRight}}

func TestCompose_EmptySectionsSayNoData(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)

	doc := c.Compose(testHeader, []SectionSpec{
		KeyValues("Synthèse"),
		Table("Dépenses par véhicule", twoColumns, nil),
	})

	texts := textsOf(doc.Blocks)
	noData := 0
	for _, txt := range texts {
		if txt == NoData {
			noData++
		}
	}
	assert.Equal(t, 2, noData)
	assert.Empty(t, rectsWithFill(doc.Blocks, ColorHeaderFill), "no table header without rows")
	assert.Equal(t, 1, doc.Pages)
}

func TestCompose_StripesAlternateRows(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)

	doc := c.Compose(testHeader, []SectionSpec{Table("Pleins", twoColumns, numberedRows(5))})

	stripes := rectsWithFill(doc.Blocks, ColorStripe)
	require.Len(t, stripes, 3)
	assert.InDelta(t, 2*DefaultLayout.RowHeight, stripes[1].Y-stripes[0].Y, 1e-9)
	assert.Len(t, rectsWithFill(doc.Blocks, ColorHeaderFill), 1)
}

func TestCompose_PageBreakRepeatsTableHeader(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)

	doc := c.Compose(testHeader, []SectionSpec{Table("Pleins", twoColumns, numberedRows(60))})

	require.Equal(t, 2, doc.Pages)
	headers := rectsWithFill(doc.Blocks, ColorHeaderFill)
	require.Len(t, headers, 2)
	assert.Equal(t, 1, headers[0].Page)
	assert.Equal(t, 2, headers[1].Page)

	for _, b := range doc.Blocks {
		if b.Kind == BlockRect {
			assert.LessOrEqual(t, b.Y+b.H, DefaultLayout.BottomLimit)
		}
	}

	var lastRow DrawBlock
	for _, b := range doc.Blocks {
		if b.Kind == BlockText && b.Text == "Véhicule 60" {
			lastRow = b
		}
	}
	assert.Equal(t, 2, lastRow.Page)
}

func TestCompose_FooterOnEveryPage(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)

	doc := c.Compose(testHeader, []SectionSpec{Table("Pleins", twoColumns, numberedRows(80))})

	require.GreaterOrEqual(t, doc.Pages, 2)
	for page := 1; page <= doc.Pages; page++ {
		var texts []string
		for _, b := range doc.Blocks {
			if b.Page == page && b.Kind == BlockText {
				texts = append(texts, b.Text)
			}
		}
		assert.Contains(t, texts, fmt.Sprintf("Page %d", page))
		assert.Contains(t, texts, "Généré le 17/04/2024 à 10:30")
	}
}

func TestCompose_IsDeterministic(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)
	sections := []SectionSpec{
		Heading("Carburant"),
		KeyValues("Synthèse", KeyValue{"Dépense totale", "480 000 Ar"}),
		Table("Pleins", twoColumns, numberedRows(12)),
		Narrative("Remarques", "Consommation stable sur la période."),
	}

	assert.Equal(t, c.Compose(testHeader, sections), c.Compose(testHeader, sections))
}

func TestCompose_NarrativeWrapsToContentWidth(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)
	text := strings.Repeat("carburant ", 120)

	doc := c.Compose(Header{Title: "Notes"}, []SectionSpec{Narrative("", text)})

	lines := 0
	for _, b := range doc.Blocks {
		if b.Kind == BlockText && strings.HasPrefix(b.Text, "carburant") {
			lines++
			assert.LessOrEqual(t, approxWidth(b.Text, DefaultLayout.BodySize, false), DefaultLayout.ContentWidth())
		}
	}
	assert.Greater(t, lines, 1)
}

func TestCompose_LongCellIsTruncated(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)
	long := strings.Repeat("Toyota Land Cruiser ", 10)

	doc := c.Compose(testHeader, []SectionSpec{
		Table("Véhicules", []Column{{Label: "Véhicule", Width: 40}, {Label: "Coût"}}, [][]string{{long, "1"}}),
	})

	found := false
	for _, b := range doc.Blocks {
		if b.Kind == BlockText && strings.HasPrefix(b.Text, "Toyota") {
			found = true
			assert.True(t, strings.HasSuffix(b.Text, "…"))
			assert.LessOrEqual(t, approxWidth(b.Text, b.Size, false), b.W)
		}
	}
	assert.True(t, found)
}

func TestCompose_LogoBlock(t *testing.T) {
	c := NewComposer(DefaultLayout, nil)
	h := testHeader
	h.Logo = true

	doc := c.Compose(h, nil)

	require.NotEmpty(t, doc.Blocks)
	assert.Equal(t, BlockImage, doc.Blocks[0].Kind)
	assert.Equal(t, DefaultLayout.LogoSize, doc.Blocks[0].W)
}

func TestColumnWidths(t *testing.T) {
	p := &pass{l: DefaultLayout}

	widths := p.columnWidths([]Column{{Width: 60}, {Width: 0}, {Width: 0}})

	require.Len(t, widths, 3)
	assert.InDelta(t, DefaultLayout.ContentWidth(), widths[0]+widths[1]+widths[2], 1e-9)
	assert.InDelta(t, widths[1], widths[2], 1e-9)
}

func TestWrap(t *testing.T) {
	measure := func(s string) float64 { return float64(len(s)) }

	assert.Equal(t, []string{"aa bb", "cc"}, wrap("aa bb cc", 5, measure))
	assert.Equal(t, []string{"loooooong", "a"}, wrap("loooooong a", 5, measure))
	assert.Equal(t, []string{"a", "", "b"}, wrap("a\n\nb", 5, measure))
}

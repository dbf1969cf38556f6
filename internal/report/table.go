package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Alignment selects the alignment of a table column.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Table renders rows with rounded borders. Short rows are padded.
func Table(headers []string, rows [][]string, aligns []Alignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == AlignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

var printer = message.NewPrinter(language.English)

// Count formats n with thousands separators.
func Count(n int) string { return printer.Sprintf("%d", n) }

// Score formats a score the way the line output does.
func Score(v float64) string { return fmt.Sprintf("%.4f", v) }

// RenderSummary draws a two column table describing doc.
func RenderSummary(doc Document) string {
	rows := [][]string{
		{"Run", doc.RunID},
		{"Reference", doc.Reference},
		{"Reconstructed", doc.Reconstructed},
	}
	if s := doc.Stream; s != nil {
		geometry := fmt.Sprintf("%dx%d %s, %d-bit", s.Width, s.Height, s.Chroma, s.Depth)
		if s.FrameRate != "" {
			geometry += " @ " + s.FrameRate
		}
		rows = append(rows, []string{"Stream", geometry})
	}
	rows = append(rows, []string{"Frames", Count(doc.Frames)})
	if doc.Total != nil {
		rows = append(rows, []string{"Total", Score(*doc.Total)})
	} else {
		rows = append(rows, []string{"Total", "n/a"})
	}
	if st := doc.Stats; st != nil {
		rows = append(rows,
			[]string{"Min / Median / Max", fmt.Sprintf("%s / %s / %s", Score(st.Min), Score(st.Median), Score(st.Max))},
			[]string{"Std dev", Score(st.StdDev)},
			[]string{"Worst frame", fmt.Sprintf("%08d", st.Worst)},
		)
		if st.Clamped > 0 {
			rows = append(rows, []string{"Identical frames", Count(st.Clamped)})
		}
	}
	if doc.Unpaired.Ref > 0 || doc.Unpaired.Rec > 0 {
		rows = append(rows, []string{"Unpaired", fmt.Sprintf("reference %s, reconstructed %s",
			Count(doc.Unpaired.Ref), Count(doc.Unpaired.Rec))})
	}
	if len(doc.Truncated) > 0 {
		rows = append(rows, []string{"Truncated", strings.Join(doc.Truncated, ", ")})
	}
	rows = append(rows, []string{"Elapsed", humanize.FtoaWithDigits(float64(doc.DurationMS)/1000, 2) + "s"})
	return Table([]string{"Field", "Value"}, rows, []Alignment{AlignLeft, AlignLeft})
}

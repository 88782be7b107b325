// Package render formats metadata records for the terminal.
package render

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Karonar1/lora-viewer/internal/metadata"
)

// UnknownBaseModel is shown when a file does not name its base checkpoint.
const UnknownBaseModel = "Unknown"

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	typeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

// ModelName returns the file name without directory and extension.
func ModelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ModelTypes joins the record's model type labels, or returns "-" when there are none.
func ModelTypes(r metadata.Record) string {
	if len(r.ModelTypes) == 0 {
		return "-"
	}
	labels := make([]string, 0, len(r.ModelTypes))
	for _, tag := range r.ModelTypes {
		labels = append(labels, tag.String())
	}
	return strings.Join(labels, ", ")
}

// Summary renders the model name, type, base checkpoint and tag table of a record.
func Summary(path string, r metadata.Record) string {
	var b strings.Builder

	fmt.Fprintln(&b, headingStyle.Render(ModelName(path)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Model type:"), typeStyle.Render(ModelTypes(r)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Base checkpoint:"), r.BaseModelOr(UnknownBaseModel))

	if len(r.TagFrequencies) > 0 {
		b.WriteString("\n")
		rows := make([][2]string, 0, len(r.TagFrequencies))
		for _, f := range r.TagFrequencies {
			rows = append(rows, [2]string{f.Tag, strconv.FormatFloat(f.Weight, 'f', -1, 64)})
		}
		b.WriteString(table(rows))
	}
	return b.String()
}

// MetadataTable renders the raw metadata sorted by key.
func MetadataTable(r metadata.Record) string {
	entries := r.SortedMetadata()
	rows := make([][2]string, 0, len(entries))
	for _, kv := range entries {
		rows = append(rows, [2]string{kv.Key, kv.Value})
	}
	return table(rows)
}

// TensorTable renders the tensor catalog, one tensor per line with its dimensions
// joined by ", ".
func TensorTable(r metadata.Record) string {
	rows := make([][2]string, 0, len(r.Tensors))
	for _, t := range r.Tensors {
		dims := make([]string, 0, len(t.Shape))
		for _, d := range t.Shape {
			dims = append(dims, strconv.FormatUint(d, 10))
		}
		rows = append(rows, [2]string{t.Name, strings.Join(dims, ", ")})
	}
	return table(rows)
}

// table renders two left-aligned columns.
func table(rows [][2]string) string {
	cols := make([][]string, 0, len(rows))
	for _, row := range rows {
		cols = append(cols, row[:])
	}
	return Columns(cols)
}

// Columns renders rows as left-aligned columns separated by two spaces. The last column
// is not padded.
func Columns(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i < len(row)-1 {
				cell = lipgloss.NewStyle().Width(widths[i]).MarginRight(2).Render(cell)
			}
			cells = append(cells, cell)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	return b.String()
}

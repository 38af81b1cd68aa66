package cmd

import (
	"os"
	"strings"

	"Chordbook/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func tableStyle(color bool) table.Style {
	if color {
		return table.StyleColoredBright
	}
	return table.StyleRounded
}

func renderTable(headers []string, rows [][]string, color bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(tableStyle(color))

	header := make(table.Row, columns)
	for i := range headers {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}
	return tw.Render()
}

// renderSections 每个段落一张表，和弦与歌词按出现顺序并排
func renderSections(blocks []model.SectionBlock, color bool) string {
	if len(blocks) == 0 {
		return "(no sections)"
	}

	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		tw := table.NewWriter()
		tw.SetStyle(tableStyle(color))
		tw.SetTitle(sectionTitle(b.Name))
		tw.AppendHeader(table.Row{"#", "Chord", "Lyric"})

		n := len(b.Chords)
		if len(b.Lyrics) > n {
			n = len(b.Lyrics)
		}
		for i := 0; i < n; i++ {
			chord, lyric := "", ""
			if i < len(b.Chords) {
				chord = b.Chords[i]
			}
			if i < len(b.Lyrics) {
				lyric = b.Lyrics[i]
			}
			tw.AppendRow(table.Row{i + 1, chord, lyric})
		}
		if n == 0 {
			tw.AppendRow(table.Row{"", "-", "-"})
		}
		out = append(out, tw.Render())
	}
	return strings.Join(out, "\n\n")
}

func sectionTitle(name string) string {
	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spboyer/modelrank/internal/models"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const absentCell = "-"

var numberPrinter = message.NewPrinter(language.English)

// table renders left-aligned columns sized by display width. The last column
// is truncated when the output is a terminal narrower than the table.
type table struct {
	headers []string
	rows    [][]string
}

func newTable(headers ...string) *table {
	return &table{headers: headers}
}

func (t *table) add(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *table) render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, c := range row {
			if sw := runewidth.StringWidth(c); sw > widths[i] {
				widths[i] = sw
			}
		}
	}

	if limit := terminalWidth(w); limit > 0 {
		last := len(widths) - 1
		used := 0
		for _, wd := range widths[:last] {
			used += wd + 2
		}
		if room := limit - used; room >= 8 && widths[last] > room {
			widths[last] = room
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, c := range cells {
			if i == len(cells)-1 {
				b.WriteString(runewidth.Truncate(c, widths[i], "…"))
				break
			}
			b.WriteString(padRight(c, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}

	writeRow(t.headers)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	writeRow(sep)
	for _, row := range t.rows {
		writeRow(row)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// terminalWidth returns the column count of w, or 0 when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func formatFloat(o models.Optional[float64], digits int) string {
	v, ok := o.Get()
	if !ok {
		return absentCell
	}
	return numberPrinter.Sprint(number.Decimal(v, number.MinFractionDigits(digits), number.MaxFractionDigits(digits)))
}

func formatInt(o models.Optional[int64]) string {
	v, ok := o.Get()
	if !ok {
		return absentCell
	}
	return numberPrinter.Sprint(number.Decimal(v))
}

func printRecommendationTable(w io.Writer, result *models.RecommendationResult) error {
	p := result.TaskProfile
	fmt.Fprintf(w, "Task: %s  weights quality %.2f, speed %.2f, cost %.2f  policy %s\n", //nolint:errcheck
		p.TaskType, p.WeightQuality, p.WeightSpeed, p.WeightCost, p.MissingPolicy)
	fmt.Fprintf(w, "Snapshot: %s", result.SnapshotTS) //nolint:errcheck
	if result.Refreshed {
		fmt.Fprint(w, " (refreshed)") //nolint:errcheck
	}
	fmt.Fprint(w, "\n\n") //nolint:errcheck

	t := newTable("#", "MODEL", "PROVIDER", "SCORE", "QUALITY", "SPEED", "COST", "$/1M IN", "CONTEXT", "WHY")
	for i, r := range result.Recommendations {
		m := r.Metrics
		t.add(
			fmt.Sprint(i+1),
			r.ModelName,
			r.Provider,
			fmt.Sprintf("%.4f", r.Score),
			fmt.Sprintf("%.2f", m.QualityNorm),
			fmt.Sprintf("%.2f", m.SpeedNorm),
			fmt.Sprintf("%.2f", m.CostNorm),
			formatFloat(m.PriceInputPer1M, 2),
			formatInt(m.ContextWindow),
			r.Justification,
		)
	}
	return t.render(w)
}

func printRecordTable(w io.Writer, records []models.Record) error {
	t := newTable("KEY", "PROVIDER", "QUALITY", "TOK/S", "TTFT S", "$/1M IN", "$/1M OUT", "CONTEXT", "SOURCE", "SNAPSHOT")
	for _, r := range records {
		t.add(
			r.CanonicalKey,
			r.Provider,
			formatFloat(r.QualityIndex, 1),
			formatFloat(r.OutputTokensPerS, 1),
			formatFloat(r.TTFTSeconds, 2),
			formatFloat(r.PriceInputPer1M, 2),
			formatFloat(r.PriceOutputPer1M, 2),
			formatInt(r.ContextWindow),
			r.Source,
			r.SnapshotTS.UTC().Format("2006-01-02T15:04:05Z"),
		)
	}
	return t.render(w)
}

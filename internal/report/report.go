package report

import (
	"html"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/tartampluch/drem/internal/config"
	"github.com/tartampluch/drem/internal/engine"
)

// Body is a rendered mail body in both representations.
type Body struct {
	Text string
	HTML string
}

// Text renders the birthday and anniversary tables as plain text.
func Text(b *engine.Batch) string {
	return birthdayTable(b.Birthdays).Render() + "\n" + anniversaryTable(b.Anniversaries).Render()
}

// HTML renders both tables inside a single HTML document.
func HTML(b *engine.Batch) string {
	var sb strings.Builder
	sb.WriteString(config.HTMLOpen)
	writeHTMLTables(&sb, b)
	sb.WriteString(config.HTMLClose)
	return sb.String()
}

// Compose builds the mail body: alert lines first, then the tables, then the footer.
// Empty alert text or footer are left out.
func Compose(b *engine.Batch, footer string) Body {
	var txt strings.Builder
	if b.AlertText != "" {
		txt.WriteString(b.AlertText)
		txt.WriteString("\n\n")
	}
	txt.WriteString(Text(b))
	if footer != "" {
		txt.WriteString("\n\n")
		txt.WriteString(footer)
	}

	var h strings.Builder
	h.WriteString(config.HTMLOpen)
	if len(b.AlertLines) > 0 {
		escaped := make([]string, len(b.AlertLines))
		for i, line := range b.AlertLines {
			escaped[i] = html.EscapeString(line)
		}
		h.WriteString("<p>" + strings.Join(escaped, "<br/>") + "</p>")
	}
	writeHTMLTables(&h, b)
	if footer != "" {
		h.WriteString("<p>" + html.EscapeString(footer) + "</p>")
	}
	h.WriteString(config.HTMLClose)

	return Body{Text: txt.String(), HTML: h.String()}
}

func writeHTMLTables(sb *strings.Builder, b *engine.Batch) {
	sb.WriteString("<p>")
	sb.WriteString(birthdayTable(b.Birthdays).RenderHTML())
	sb.WriteString("</p><p>")
	sb.WriteString(anniversaryTable(b.Anniversaries).RenderHTML())
	sb.WriteString("</p>")
}

func birthdayTable(events []engine.ComputedEvent) table.Writer {
	tw := newTable(table.Row{
		config.ColDaysBirthday, config.ColName, config.ColCurrentAge, config.ColBirthDate, config.ColDeathDate,
	})
	for _, ev := range events {
		death := config.CellUnknown
		if ev.HasSecondaryDate() {
			death = ev.SecondaryDate.Format(config.DateFormatDisplay)
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(ev.DaysUntilNext),
			ev.Name(),
			strconv.Itoa(ev.YearsElapsed),
			ev.AnchorDate.Format(config.DateFormatDisplay),
			death,
		})
	}
	return tw
}

func anniversaryTable(events []engine.ComputedEvent) table.Writer {
	tw := newTable(table.Row{
		config.ColDaysAnniv, config.ColSpouse1, config.ColSpouse2, config.ColYearsMarried, config.ColAnnivDate,
	})
	for _, ev := range events {
		s1, s2 := ev.Spouses()
		if s2 == "" {
			s2 = config.CellUnknown
		}
		tw.AppendRow(table.Row{
			strconv.Itoa(ev.DaysUntilNext),
			s1,
			s2,
			strconv.Itoa(ev.YearsElapsed),
			ev.AnchorDate.Format(config.DateFormatDisplay),
		})
	}
	return tw
}

// newTable returns a left-aligned ASCII table whose headers are printed verbatim.
// Rows are appended in the caller's order; the engine has already sorted them.
func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleDefault)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().HTML.CSSClass = config.HTMLCSSClass
	tw.AppendHeader(header)

	columns := make([]table.ColumnConfig, len(header))
	for i := range header {
		columns[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(columns)
	return tw
}

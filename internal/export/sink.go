package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatTable Format = "table"
)

// Sink encodes a projected table.
type Sink interface {
	Write(w io.Writer, t Table) error
	ContentType() string
	Extension() string
}

// SinkFor resolves the sink for a format; an empty format means CSV.
func SinkFor(format string) (Sink, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case "", FormatCSV:
		return CSVSink{}, nil
	case FormatTable:
		return TableSink{}, nil
	}
	return nil, fmt.Errorf("invalid export format %q", format)
}

// Filename builds the download name for an export taken at the given instant.
func Filename(set FieldSet, sink Sink, at time.Time) string {
	prefix := "releases"
	if set == FieldSetAdmin {
		prefix = "admin-releases"
	}
	return fmt.Sprintf("%s-%d.%s", prefix, at.UnixMilli(), sink.Extension())
}

// CSVSink writes comma separated rows joined by "\n". A value is wrapped in
// double quotes only when it contains a comma and embedded quotes are left as
// they are, so values holding both a comma and a quote do not round-trip.
// An empty table produces no output at all.
type CSVSink struct{}

func (CSVSink) ContentType() string { return "text/csv" }
func (CSVSink) Extension() string   { return "csv" }

func (CSVSink) Write(w io.Writer, t Table) error {
	if t.Empty() {
		return nil
	}
	lines := make([]string, 0, len(t.Rows)+1)
	lines = append(lines, csvLine(t.Headers))
	for _, row := range t.Rows {
		lines = append(lines, csvLine(row))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func csvLine(values []string) string {
	cells := make([]string, len(values))
	for i, v := range values {
		if strings.Contains(v, ",") {
			v = `"` + v + `"`
		}
		cells[i] = v
	}
	return strings.Join(cells, ",")
}

// TableSink renders a human-readable text table.
type TableSink struct{}

func (TableSink) ContentType() string { return "text/plain; charset=utf-8" }
func (TableSink) Extension() string   { return "txt" }

func (TableSink) Write(w io.Writer, t Table) error {
	columns := len(t.Headers)
	if columns == 0 {
		return nil
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, columns)
	for i, h := range t.Headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range t.Rows {
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
	tw.AppendFooter(table.Row{fmt.Sprintf("%d releases", len(t.Rows))})

	_, err := io.WriteString(w, tw.Render()+"\n")
	return err
}

// Render projects list onto set and writes it through sink.
func Render(w io.Writer, list []models.Release, set FieldSet, loc *time.Location, sink Sink) error {
	t, err := Project(list, set, loc)
	if err != nil {
		return err
	}
	return sink.Write(w, t)
}

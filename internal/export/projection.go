package export

import (
	"fmt"
	"time"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
)

// FieldSet selects which columns a projection carries.
type FieldSet string

const (
	FieldSetDashboard FieldSet = "dashboard"
	FieldSetAdmin     FieldSet = "admin"
)

// NotAvailable stands in for optional values that were never filled.
const NotAvailable = "N/A"

const (
	dayLayout    = "2006-01-02"
	minuteLayout = "2006-01-02 15:04"
)

// Table is a projected, fully stringified view of a release list.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

type column struct {
	header string
	value  func(rel *models.Release, loc *time.Location) string
}

var dashboardColumns = []column{
	{"Track Title", func(r *models.Release, _ *time.Location) string { return r.TrackTitle }},
	{"Primary Artist", func(r *models.Release, _ *time.Location) string { return r.PrimaryArtist }},
	{"Album", func(r *models.Release, _ *time.Location) string { return orNA(r.AlbumTitle) }},
	{"Album Type", func(r *models.Release, _ *time.Location) string { return r.AlbumType.String() }},
	{"Status", func(r *models.Release, _ *time.Location) string { return r.Status.String() }},
	{"ISRC", func(r *models.Release, _ *time.Location) string { return orNA(r.ISRC) }},
	{"UPC", func(r *models.Release, _ *time.Location) string { return orNA(r.UPC) }},
	{"Genre", func(r *models.Release, _ *time.Location) string { return orNA(r.PrimaryGenre) }},
	{"Release Date", func(r *models.Release, _ *time.Location) string { return orNA(r.ReleaseDate) }},
	{"Created", func(r *models.Release, loc *time.Location) string { return r.CreatedAt.In(loc).Format(dayLayout) }},
}

var adminColumns = []column{
	{"ID", func(r *models.Release, _ *time.Location) string { return r.ID.String() }},
	{"Track Title", func(r *models.Release, _ *time.Location) string { return r.TrackTitle }},
	{"Primary Artist", func(r *models.Release, _ *time.Location) string { return r.PrimaryArtist }},
	{"Album", func(r *models.Release, _ *time.Location) string { return orNA(r.AlbumTitle) }},
	{"Album Type", func(r *models.Release, _ *time.Location) string { return r.AlbumType.String() }},
	{"Status", func(r *models.Release, _ *time.Location) string { return r.Status.String() }},
	{"ISRC", func(r *models.Release, _ *time.Location) string { return orNA(r.ISRC) }},
	{"UPC", func(r *models.Release, _ *time.Location) string { return orNA(r.UPC) }},
	{"Genre", func(r *models.Release, _ *time.Location) string { return orNA(r.PrimaryGenre) }},
	{"Language", func(r *models.Release, _ *time.Location) string { return orNA(r.Language) }},
	{"Release Date", func(r *models.Release, _ *time.Location) string { return orNA(r.ReleaseDate) }},
	{"Label", func(r *models.Release, _ *time.Location) string { return orNA(r.LabelName) }},
	{"Explicit", func(r *models.Release, _ *time.Location) string { return yesNo(r.IsExplicit) }},
	{"Territories", func(r *models.Release, _ *time.Location) string { return orNA(r.Territories) }},
	{"Created", func(r *models.Release, loc *time.Location) string { return r.CreatedAt.In(loc).Format(minuteLayout) }},
	{"Updated", func(r *models.Release, loc *time.Location) string { return r.UpdatedAt.In(loc).Format(minuteLayout) }},
	{"Rejection Reason", func(r *models.Release, _ *time.Location) string { return orNA(r.RejectionReason) }},
}

// ParseFieldSet converts raw input into a FieldSet.
func ParseFieldSet(value string) (FieldSet, error) {
	switch FieldSet(value) {
	case FieldSetDashboard, FieldSetAdmin:
		return FieldSet(value), nil
	}
	return "", fmt.Errorf("invalid field set %q", value)
}

// Headers returns the column names of a field set in output order.
func Headers(set FieldSet) ([]string, error) {
	cols, err := columnsFor(set)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = col.header
	}
	return out, nil
}

// Project maps releases onto the columns of set, rendering timestamps in loc.
// The input is not modified.
func Project(list []models.Release, set FieldSet, loc *time.Location) (Table, error) {
	cols, err := columnsFor(set)
	if err != nil {
		return Table{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	headers, _ := Headers(set)
	table := Table{Headers: headers, Rows: make([][]string, 0, len(list))}
	for i := range list {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = col.value(&list[i], loc)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func columnsFor(set FieldSet) ([]column, error) {
	switch set {
	case FieldSetDashboard:
		return dashboardColumns, nil
	case FieldSetAdmin:
		return adminColumns, nil
	}
	return nil, fmt.Errorf("invalid field set %q", set)
}

// orNA substitutes N/A for an empty value only; whitespace is exported as is.
func orNA(value string) string {
	if value == "" {
		return NotAvailable
	}
	return value
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

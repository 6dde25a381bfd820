package services

import (
	"fmt"
	"strings"
	"time"

	"referral_platform/dashboard/store"
)

// CSV export of the submissions table. Every field is double-quoted with
// embedded quotes doubled, so commas inside values survive literally; N
// records produce N+1 lines including the header.

var exportColumns = []struct {
	Header string
	Field  string
}{
	{"Form", "form_name"},
	{"Parent Name", "parent_name"},
	{"Parent Email", "parent_email"},
	{"Parent Phone", "parent_phone"},
	{"Student Name", "student_name"},
	{"Student Grade", "student_grade"},
	{"School", "school_name"},
	{"District", "district_name"},
	{"City", "city"},
	{"State", "state"},
	{"Program", "program"},
	{"Status", "status"},
	{"Affiliate ID", "affiliate_id"},
	{"Date", "created_at"},
}

func submissionsCSV(records []store.Record) string {
	var sb strings.Builder

	headers := make([]string, 0, len(exportColumns))
	for _, col := range exportColumns {
		headers = append(headers, quoteCSV(col.Header))
	}
	sb.WriteString(strings.Join(headers, ","))

	for _, rec := range records {
		sb.WriteByte('\n')
		row := make([]string, 0, len(exportColumns))
		for _, col := range exportColumns {
			value := store.Str(rec, col.Field)
			if col.Field == "created_at" {
				value = exportDate(rec[col.Field])
			}
			row = append(row, quoteCSV(value))
		}
		sb.WriteString(strings.Join(row, ","))
	}

	return sb.String()
}

func quoteCSV(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// exportDate renders a stored timestamp as MM/DD/YYYY, tolerating the two
// forms the store backends produce.
func exportDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		return t.Format("01/02/2006")
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Format("01/02/2006")
		}
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

package history

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var exportHeader = []string{"created_at", "title", "body", "category", "course_id", "course_name", "read"}

// BuildExportCSV renders entries as a BOM-prefixed CSV with CRLF line
// endings so spreadsheet tools open it as UTF-8. Times are written in loc.
func BuildExportCSV(entries []Entry, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.UTC
	}
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, e := range entries {
		read := "no"
		if e.Read {
			read = "yes"
		}
		record := []string{
			e.CreatedAt.In(loc).Format(time.RFC3339),
			e.Title,
			e.Body,
			e.Category,
			e.CourseID,
			e.CourseName,
			read,
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("reminder-history-%s.csv", now.Format("20060102"))
}

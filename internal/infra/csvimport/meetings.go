// Package csvimport reads meeting exports into domain meetings.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"meeting-classifier/internal/domain/model"
)

// Header aliases, matched case-insensitively after trimming.
var columns = map[string][]string{
	"name":          {"nombre", "name"},
	"email":         {"correo electronico", "correo electrónico", "correo", "email"},
	"phone":         {"numero de telefono", "número de teléfono", "telefono", "phone"},
	"date":          {"fecha de la reunion", "fecha de la reunión", "fecha", "date"},
	"salesman":      {"vendedor asignado", "vendedor", "salesman", "salesman_name"},
	"closed":        {"closed", "cerrado"},
	"transcription": {"transcripcion", "transcripción", "transcription"},
}

var dateLayouts = []string{"2/1/2006", "2-1-2006", "2006-1-2", "2006/1/2", time.RFC3339}

// Result is what Read could and could not turn into meetings.
type Result struct {
	Meetings  []*model.Meeting
	TotalRows int
	Errors    []string
}

// Read parses a header row followed by one meeting per row. Invalid rows are reported in
// Result.Errors and skipped; only an unreadable stream or header returns an error.
func Read(r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx := indexHeader(header)
	for _, required := range []string{"name", "email", "phone", "date", "salesman"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("csv header: missing %s column", required)
		}
	}

	res := &Result{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		res.TotalRows++
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", res.TotalRows, err))
			continue
		}
		m, err := parseRow(idx, rec)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("row %d: %v", res.TotalRows, err))
			continue
		}
		res.Meetings = append(res.Meetings, m)
	}
	return res, nil
}

func indexHeader(header []string) map[string]int {
	idx := make(map[string]int, len(columns))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		for field, aliases := range columns {
			if _, seen := idx[field]; seen {
				continue
			}
			for _, a := range aliases {
				if h == a {
					idx[field] = i
				}
			}
		}
	}
	return idx
}

func parseRow(idx map[string]int, rec []string) (*model.Meeting, error) {
	get := func(field string) string {
		i, ok := idx[field]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var problems []string
	name, email, phone, salesman := get("name"), get("email"), get("phone"), get("salesman")
	if name == "" {
		problems = append(problems, "name is required")
	}
	if !strings.Contains(email, "@") {
		problems = append(problems, "valid email is required")
	}
	if phone == "" {
		problems = append(problems, "phone is required")
	}
	if salesman == "" {
		problems = append(problems, "salesman is required")
	}
	date, err := ParseDate(get("date"))
	if err != nil {
		problems = append(problems, err.Error())
	}
	closed, err := parseClosed(get("closed"))
	if err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return nil, errors.New(strings.Join(problems, ", "))
	}
	return model.NewMeeting(name, email, phone, salesman, date, closed, get("transcription"))
}

// ParseDate accepts dd/mm/yyyy, dd-mm-yyyy, yyyy-mm-dd, yyyy/mm/dd and RFC 3339.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("date is required")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseClosed(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "0":
		return false, nil
	case "true", "1":
		return true, nil
	default:
		return false, fmt.Errorf("closed must be true/false or 1/0, got %q", s)
	}
}

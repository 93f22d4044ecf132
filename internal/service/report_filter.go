package service

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/noah-isme/crm-dashboard-api/internal/models"
)

// ReportFilter holds the history table's client-side filters.
type ReportFilter struct {
	Search string
	Status string
	Type   string
}

// FilterReports keeps the rows matching every filter, preserving order. Search is a
// case-insensitive substring over type, author name, author email, status and the JSON payload.
// Status and type accept "All" or "" as no filter.
func FilterReports(rows []models.Report, filter ReportFilter) []models.Report {
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Report, 0, len(rows))
	for _, row := range rows {
		if !matchesSelect(filter.Status, string(row.Status)) {
			continue
		}
		if !matchesSelect(filter.Type, string(row.ReportType)) {
			continue
		}
		if needle != "" && !strings.Contains(searchText(row), needle) {
			continue
		}
		out = append(out, row)
	}
	return out
}

// DistinctTypes lists the report types present in rows, sorted.
func DistinctTypes(rows []models.Report) []string {
	seen := make(map[string]struct{})
	types := make([]string, 0)
	for _, row := range rows {
		t := string(row.ReportType)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func matchesSelect(selected, value string) bool {
	selected = strings.TrimSpace(selected)
	if selected == "" || selected == models.FilterAll {
		return true
	}
	return value == selected
}

func searchText(row models.Report) string {
	payload, err := json.Marshal(row.Payload)
	if err != nil {
		payload = nil
	}
	return strings.ToLower(strings.Join([]string{
		string(row.ReportType),
		row.AuthorName,
		row.AuthorEmail,
		string(row.Status),
		string(payload),
	}, "\n"))
}

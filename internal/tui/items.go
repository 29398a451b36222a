package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Joseda-hg/obracrm/internal/aggregate"
	"github.com/Joseda-hg/obracrm/internal/format"
	"github.com/Joseda-hg/obracrm/internal/group"
	"github.com/Joseda-hg/obracrm/internal/model"
	"github.com/Joseda-hg/obracrm/internal/view"
)

// facetEntry is one toggleable value of a select field in the filter pane.
type facetEntry struct {
	Field      model.FieldID
	FieldLabel string
	Value      string
	Label      string
	Count      int
}

// buildFacets lists the options of every select field of the page. Fields
// declared without options offer the values present in records.
func buildFacets(fields []model.FieldDescriptor, records []model.Record) []facetEntry {
	entries := make([]facetEntry, 0)
	for _, field := range fields {
		if field.Type != model.FieldTypeSelect {
			continue
		}

		counts := make(map[string]int)
		for _, record := range records {
			values, ok := record.Values(field.ID)
			if !ok {
				continue
			}
			for _, value := range values {
				counts[value]++
			}
		}

		options := field.Options
		if len(options) == 0 {
			values := make([]string, 0, len(counts))
			for value := range counts {
				values = append(values, value)
			}
			sort.Strings(values)
			for _, value := range values {
				options = append(options, model.Option{Value: value, Label: value})
			}
		}

		for _, option := range options {
			entries = append(entries, facetEntry{
				Field:      field.ID,
				FieldLabel: field.Label,
				Value:      option.Value,
				Label:      option.Label,
				Count:      counts[option.Value],
			})
		}
	}
	return entries
}

func selectedValues(state model.ViewState, field model.FieldID) []string {
	return parseTags(state.Values[string(field)])
}

func isFacetActive(state model.ViewState, entry facetEntry) bool {
	for _, value := range selectedValues(state, entry.Field) {
		if value == entry.Value {
			return true
		}
	}
	return false
}

// toggleFacet adds or removes entry's value from the comma list of its field.
func toggleFacet(state model.ViewState, entry facetEntry) model.ViewState {
	current := selectedValues(state, entry.Field)
	next := make([]string, 0, len(current)+1)
	found := false
	for _, value := range current {
		if value == entry.Value {
			found = true
			continue
		}
		next = append(next, value)
	}
	if !found {
		next = append(next, entry.Value)
	}
	return state.WithValue(string(entry.Field), strings.Join(next, ","))
}

// listLine is one printed line of the records pane: a section heading or a
// row, identified by its index in the flattened row list.
type listLine struct {
	heading string
	row     int
}

func flattenSections(sections []view.Section) ([]view.Row, []listLine) {
	rows := make([]view.Row, 0)
	lines := make([]listLine, 0)
	showHeadings := len(sections) > 1 || (len(sections) == 1 && sections[0].Key != group.KeyAll)
	for _, section := range sections {
		if showHeadings {
			lines = append(lines, listLine{heading: fmt.Sprintf("── %s (%d)", section.Label, section.Count), row: -1})
		}
		for _, row := range section.Rows {
			lines = append(lines, listLine{row: len(rows)})
			rows = append(rows, row)
		}
	}
	return rows, lines
}

func formatRowSummary(row view.Row) string {
	parts := []string{row.Title}
	if row.StatusLabel != "" {
		parts = append(parts, row.StatusLabel)
	}
	if row.PriorityLabel != "" {
		parts = append(parts, row.PriorityLabel)
	}
	if row.AmountText != "" {
		parts = append(parts, row.AmountText)
	}
	if row.DueLabel != "" {
		parts = append(parts, "vence "+row.DueLabel)
	} else if row.Age != "" {
		parts = append(parts, row.Age)
	}
	summary := strings.Join(parts, " | ")
	if row.Overdue {
		summary += " !"
	}
	if row.Kind == model.KindNotification && !row.Read {
		summary = "● " + summary
	}
	return summary
}

func formatSummaryLines(result view.Result) []string {
	filtered := result.Filtered
	lines := []string{
		fmt.Sprintf("Mostrando %s de %s", format.Count(result.Matched), format.Count(result.Total)),
		fmt.Sprintf("Vencidas: %d", filtered.Overdue),
	}
	if result.Kind == model.KindNotification {
		lines = append(lines, fmt.Sprintf("Sin leer: %d", filtered.Unread))
	}
	if filtered.AmountTotal != 0 {
		lines = append(lines, "Monto: "+format.Currency(filtered.AmountTotal))
	}
	lines = append(lines, countLines("Por estado", filtered.ByStatus)...)
	lines = append(lines, countLines("Por categoría", filtered.ByCategory)...)
	lines = append(lines, countLines("Por prioridad", filtered.ByPriority)...)
	return lines
}

func countLines(title string, counts []aggregate.Count) []string {
	if len(counts) == 0 {
		return nil
	}
	lines := []string{"", title + ":"}
	for _, count := range counts {
		lines = append(lines, fmt.Sprintf("  %s: %d", count.Label, count.Count))
	}
	return lines
}

// Package view composes a list page: search, filter, sort, page, group and
// summarize a collection of records in one pass per render.
package view

import (
	"strings"
	"time"

	"github.com/Joseda-hg/obracrm/internal/aggregate"
	"github.com/Joseda-hg/obracrm/internal/filter"
	"github.com/Joseda-hg/obracrm/internal/format"
	"github.com/Joseda-hg/obracrm/internal/group"
	"github.com/Joseda-hg/obracrm/internal/model"
)

// Schema describes the filter bar of each kind of list page.
type Schema interface {
	Fields(kind model.Kind) []model.FieldDescriptor
	SearchTargets(kind model.Kind) []model.FieldID
	DefaultGroup(kind model.Kind) string
}

type Composer struct {
	schema  Schema
	actions Actions
}

func NewComposer(schema Schema, actions Actions) *Composer {
	return &Composer{schema: schema, actions: actions}
}

type Result struct {
	Kind     model.Kind              `json:"kind"`
	GroupBy  string                  `json:"group_by"`
	Sections []Section               `json:"sections"`
	Summary  aggregate.Summary       `json:"summary"`
	Filtered aggregate.Summary       `json:"filtered"`
	Total    int                     `json:"total"`
	Matched  int                     `json:"matched"`
	Page     PageInfo                `json:"page"`
	Active   []ActiveFilter          `json:"active"`
	Fields   []model.FieldDescriptor `json:"fields"`
}

type Section struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
	Rows  []Row  `json:"rows"`
}

// Row is a record with everything the presentation layer prints next to it.
type Row struct {
	model.Record
	Overdue       bool   `json:"overdue"`
	Age           string `json:"age,omitempty"`
	DueLabel      string `json:"due_label,omitempty"`
	AmountText    string `json:"amount_text,omitempty"`
	PhoneText     string `json:"phone_text,omitempty"`
	StatusLabel   string `json:"status_label,omitempty"`
	PriorityLabel string `json:"priority_label,omitempty"`
}

// ActiveFilter is one applied criterion as the filter chips show it.
type ActiveFilter struct {
	Field    model.FieldID   `json:"field"`
	Label    string          `json:"label"`
	Operator filter.Operator `json:"operator"`
	Values   []string        `json:"values"`
}

// Criteria builds the filter set for state: the search box first, then one
// criterion per filled-in descriptor.
func (c *Composer) Criteria(kind model.Kind, state model.ViewState, loc *time.Location) filter.Set {
	var set filter.Set
	if term := strings.TrimSpace(state.Search); term != "" {
		set = set.Put(filter.Contains(filter.SearchField, term, c.schema.SearchTargets(kind)...))
	}
	for _, criterion := range filter.FromValues(c.schema.Fields(kind), state.Values, loc).Criteria() {
		set = set.Put(criterion)
	}
	return set
}

// GroupSpec resolves the grouping of state, falling back to the default of
// the kind when the state leaves it blank.
func (c *Composer) GroupSpec(kind model.Kind, state model.ViewState) group.Spec {
	if strings.TrimSpace(state.GroupBy) != "" {
		return group.ParseSpec(state.GroupBy)
	}
	return group.ParseSpec(c.schema.DefaultGroup(kind))
}

// Compose runs the pipeline over records. Each stage consumes the output of
// the previous one; records is never modified.
func (c *Composer) Compose(kind model.Kind, records []model.Record, state model.ViewState, now time.Time) Result {
	fields := c.schema.Fields(kind)
	set := c.Criteria(kind, state, now.Location())

	filtered := filter.Apply(records, set)
	sorted := Sort(filtered, state.SortBy, state.SortDesc)
	pageRecords, page := Paginate(sorted, state.Page, state.PageSize)

	spec := c.GroupSpec(kind, state)
	groups := group.Apply(pageRecords, spec, now)
	sections := make([]Section, 0, len(groups))
	for _, g := range groups {
		rows := make([]Row, 0, len(g.Records))
		for _, record := range g.Records {
			rows = append(rows, Annotate(record, now))
		}
		sections = append(sections, Section{Key: g.Key, Label: g.Label, Count: len(rows), Rows: rows})
	}

	return Result{
		Kind:     kind,
		GroupBy:  spec.String(),
		Sections: sections,
		Summary:  aggregate.Summarize(records, now),
		Filtered: aggregate.Summarize(filtered, now),
		Total:    len(records),
		Matched:  len(filtered),
		Page:     page,
		Active:   activeFilters(set, fields),
		Fields:   fields,
	}
}

// Annotate precomputes the display strings of one record.
func Annotate(record model.Record, now time.Time) Row {
	row := Row{
		Record:        record,
		Overdue:       aggregate.IsOverdue(record, now),
		StatusLabel:   record.Status.Label(),
		PriorityLabel: record.Priority.Label(),
	}
	if stamp, ok := record.DateStamp(); ok {
		row.Age = format.RelativeTime(stamp, now)
	}
	if record.DueAt != nil {
		row.DueLabel = format.Date(record.DueAt.In(now.Location()))
	}
	if record.Amount != nil {
		row.AmountText = format.Currency(*record.Amount)
	}
	if record.Phone != "" {
		row.PhoneText = format.Phone(record.Phone)
	}
	return row
}

func activeFilters(set filter.Set, fields []model.FieldDescriptor) []ActiveFilter {
	labels := make(map[model.FieldID]string, len(fields))
	for _, field := range fields {
		labels[field.ID] = field.Label
	}

	active := make([]ActiveFilter, 0, set.Len())
	for _, criterion := range set.Criteria() {
		label := labels[criterion.Field()]
		if criterion.Field() == filter.SearchField {
			label = "Búsqueda"
		}
		if label == "" {
			label = string(criterion.Field())
		}
		active = append(active, ActiveFilter{
			Field:    criterion.Field(),
			Label:    label,
			Operator: criterion.Operator(),
			Values:   criterion.Values(),
		})
	}
	return active
}

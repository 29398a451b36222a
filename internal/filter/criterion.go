// Package filter decides which records a list view shows: one criterion per
// field, combined with AND.
package filter

import (
	"strconv"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

type Operator string

const (
	OpContains Operator = "contains"
	OpEquals   Operator = "equals"
	OpIn       Operator = "in"
	OpRange    Operator = "range"
)

// SearchField keys the free-text search criterion so it never collides
// with a descriptor that filters the title field directly.
const SearchField model.FieldID = "q"

// Criterion is one condition on one field. It is immutable: build a new one
// with the constructors below whenever the user changes an input.
type Criterion struct {
	field   model.FieldID
	op      Operator
	term    string
	values  []string
	targets []model.FieldID

	temporal bool
	min, max *float64
	from, to *time.Time
}

// Contains matches when any of targets contains term, ignoring case and
// accents. Without targets the criterion's own field is searched. A blank
// term matches nothing.
func Contains(field model.FieldID, term string, targets ...model.FieldID) Criterion {
	if len(targets) == 0 {
		targets = []model.FieldID{field}
	}
	return Criterion{
		field:   field,
		op:      OpContains,
		term:    Fold(term),
		values:  []string{term},
		targets: append([]model.FieldID(nil), targets...),
	}
}

func Equals(field model.FieldID, value string) Criterion {
	return Criterion{field: field, op: OpEquals, values: []string{value}}
}

func In(field model.FieldID, values ...string) Criterion {
	return Criterion{field: field, op: OpIn, values: append([]string(nil), values...)}
}

// Between matches numeric fields inside [min, max]. A nil bound is open.
func Between(field model.FieldID, min, max *float64) Criterion {
	c := Criterion{field: field, op: OpRange, values: make([]string, 2)}
	if min != nil {
		value := *min
		c.min = &value
		c.values[0] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	if max != nil {
		value := *max
		c.max = &value
		c.values[1] = strconv.FormatFloat(value, 'f', -1, 64)
	}
	return c
}

// During matches date fields inside [from, to]. A nil bound is open.
func During(field model.FieldID, from, to *time.Time) Criterion {
	c := Criterion{field: field, op: OpRange, temporal: true, values: make([]string, 2)}
	if from != nil {
		value := *from
		c.from = &value
		c.values[0] = value.Format(dateLayout)
	}
	if to != nil {
		value := *to
		c.to = &value
		c.values[1] = value.Format(dateLayout)
	}
	return c
}

func (c Criterion) Field() model.FieldID { return c.field }

func (c Criterion) Operator() Operator { return c.op }

// Values returns the comparison values as given, for display. Ranges report
// [min, max] with an empty string for an open bound.
func (c Criterion) Values() []string { return append([]string(nil), c.values...) }

// Match reports whether record satisfies the criterion. A record that lacks
// the field never matches, whatever the operator.
func (c Criterion) Match(record model.Record) bool {
	switch c.op {
	case OpContains:
		if c.term == "" {
			return false
		}
		for _, target := range c.targets {
			value, ok := record.Text(target)
			if ok && containsFolded(value, c.term) {
				return true
			}
		}
		return false
	case OpEquals, OpIn:
		values, ok := record.Values(c.field)
		if !ok {
			return false
		}
		for _, value := range values {
			for _, want := range c.values {
				if value == want {
					return true
				}
			}
		}
		return false
	case OpRange:
		if c.temporal {
			return c.matchTime(record)
		}
		return c.matchNumber(record)
	}
	return false
}

func (c Criterion) matchTime(record model.Record) bool {
	value, ok := record.Time(c.field)
	if !ok {
		return false
	}
	if c.from != nil && value.Before(*c.from) {
		return false
	}
	if c.to != nil && value.After(*c.to) {
		return false
	}
	return true
}

func (c Criterion) matchNumber(record model.Record) bool {
	value, ok := record.Number(c.field)
	if !ok {
		return false
	}
	if c.min != nil && value < *c.min {
		return false
	}
	if c.max != nil && value > *c.max {
		return false
	}
	return true
}

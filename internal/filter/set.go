package filter

import "github.com/Joseda-hg/obracrm/internal/model"

// Set holds the active criteria, at most one per field, in the order the
// fields were first filtered. The zero value is an empty set and matches
// every record.
type Set struct {
	criteria []Criterion
}

func NewSet(criteria ...Criterion) Set {
	var set Set
	for _, criterion := range criteria {
		set = set.Put(criterion)
	}
	return set
}

// Put returns a copy of the set with criterion replacing whatever was
// active on the same field.
func (s Set) Put(criterion Criterion) Set {
	next := make([]Criterion, 0, len(s.criteria)+1)
	replaced := false
	for _, existing := range s.criteria {
		if existing.field == criterion.field {
			next = append(next, criterion)
			replaced = true
			continue
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, criterion)
	}
	return Set{criteria: next}
}

func (s Set) Without(field model.FieldID) Set {
	next := make([]Criterion, 0, len(s.criteria))
	for _, existing := range s.criteria {
		if existing.field != field {
			next = append(next, existing)
		}
	}
	return Set{criteria: next}
}

func (s Set) Get(field model.FieldID) (Criterion, bool) {
	for _, existing := range s.criteria {
		if existing.field == field {
			return existing, true
		}
	}
	return Criterion{}, false
}

func (s Set) Len() int { return len(s.criteria) }

func (s Set) Criteria() []Criterion {
	return append([]Criterion(nil), s.criteria...)
}

// Match is the AND of every criterion, stopping at the first miss.
func (s Set) Match(record model.Record) bool {
	for _, criterion := range s.criteria {
		if !criterion.Match(record) {
			return false
		}
	}
	return true
}

// Apply keeps the records that match set, preserving their relative order.
func Apply(records []model.Record, set Set) []model.Record {
	result := make([]model.Record, 0, len(records))
	for _, record := range records {
		if set.Match(record) {
			result = append(result, record)
		}
	}
	return result
}

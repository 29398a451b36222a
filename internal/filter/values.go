package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

const dateLayout = "2006-01-02"

// Value keys for range descriptors.
const (
	SuffixFrom = "_from"
	SuffixTo   = "_to"
	SuffixMin  = "_min"
	SuffixMax  = "_max"
)

// FromValues turns raw input values into criteria using the descriptors of
// a list page. Select values separated by commas become an in-set
// criterion. Date bounds are whole days in loc: the upper bound includes the
// entire day. Blank or unparsable inputs leave the field unfiltered.
func FromValues(descriptors []model.FieldDescriptor, values map[string]string, loc *time.Location) Set {
	if loc == nil {
		loc = time.Local
	}

	var set Set
	for _, descriptor := range descriptors {
		id := string(descriptor.ID)
		switch descriptor.Type {
		case model.FieldTypeText:
			term := strings.TrimSpace(values[id])
			if term == "" {
				continue
			}
			set = set.Put(Contains(descriptor.ID, term, descriptor.Targets...))
		case model.FieldTypeSelect:
			selected := splitList(values[id])
			switch len(selected) {
			case 0:
				continue
			case 1:
				set = set.Put(Equals(descriptor.ID, selected[0]))
			default:
				set = set.Put(In(descriptor.ID, selected...))
			}
		case model.FieldTypeDate:
			from := parseDay(values[id+SuffixFrom], loc)
			to := parseDay(values[id+SuffixTo], loc)
			if day := parseDay(values[id], loc); day != nil {
				from, to = day, day
			}
			if from == nil && to == nil {
				continue
			}
			if to != nil {
				end := to.AddDate(0, 0, 1).Add(-time.Nanosecond)
				to = &end
			}
			set = set.Put(During(descriptor.ID, from, to))
		case model.FieldTypeNumberRange:
			min := parseNumber(values[id+SuffixMin])
			max := parseNumber(values[id+SuffixMax])
			if min == nil && max == nil {
				continue
			}
			set = set.Put(Between(descriptor.ID, min, max))
		}
	}
	return set
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func parseDay(value string, loc *time.Location) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := time.ParseInLocation(dateLayout, trimmed, loc)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseNumber(value string) *float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	trimmed = strings.NewReplacer("$", "", ",", "").Replace(trimmed)
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil
	}
	return &parsed
}

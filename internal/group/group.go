// Package group buckets filtered records into labelled sections.
package group

import (
	"strings"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

type Mode string

const (
	ModeNone  Mode = "none"
	ModeDate  Mode = "date"
	ModeField Mode = "field"
)

const (
	KeyToday         = "hoy"
	KeyYesterday     = "ayer"
	KeyThisWeek      = "esta-semana"
	KeyOlder         = "anteriores"
	KeyAll           = "todos"
	KeyUncategorized = "sin-categoria"

	LabelUncategorized = "Sin Categoría"
)

var dateOrder = []struct {
	key   string
	label string
}{
	{KeyToday, "Hoy"},
	{KeyYesterday, "Ayer"},
	{KeyThisWeek, "Esta semana"},
	{KeyOlder, "Anteriores"},
}

type Spec struct {
	Mode  Mode
	Field model.FieldID
}

// ParseSpec reads the group_by value of a view: "", "none" and "off"
// disable grouping, "date" buckets by date and anything else names a field.
func ParseSpec(value string) Spec {
	value = strings.TrimSpace(strings.ToLower(value))
	switch value {
	case "", "none", "off":
		return Spec{Mode: ModeNone}
	case "date":
		return Spec{Mode: ModeDate}
	}
	return Spec{Mode: ModeField, Field: model.FieldID(value)}
}

func (s Spec) String() string {
	switch s.Mode {
	case ModeDate:
		return "date"
	case ModeField:
		return string(s.Field)
	}
	return "none"
}

type Group struct {
	Key     string         `json:"key"`
	Label   string         `json:"label"`
	Records []model.Record `json:"records"`
}

// Apply partitions records according to spec. Every record lands in exactly
// one group.
func Apply(records []model.Record, spec Spec, now time.Time) []Group {
	switch spec.Mode {
	case ModeDate:
		return ByDate(records, now)
	case ModeField:
		return ByField(records, spec.Field)
	}
	return All(records)
}

// All returns the single pseudo-group used when grouping is off, even when
// records is empty.
func All(records []model.Record) []Group {
	return []Group{{Key: KeyAll, Label: "Todos", Records: append([]model.Record{}, records...)}}
}

// ByDate buckets on each record's date stamp relative to now. Buckets come
// out in fixed order and empty ones are dropped. Records without a date
// stamp count as older.
func ByDate(records []model.Record, now time.Time) []Group {
	buckets := make(map[string][]model.Record, len(dateOrder))
	for _, record := range records {
		key := KeyOlder
		if stamp, ok := record.DateStamp(); ok {
			key = DateBucket(stamp, now)
		}
		buckets[key] = append(buckets[key], record)
	}

	groups := make([]Group, 0, len(dateOrder))
	for _, bucket := range dateOrder {
		if len(buckets[bucket.key]) == 0 {
			continue
		}
		groups = append(groups, Group{Key: bucket.key, Label: bucket.label, Records: buckets[bucket.key]})
	}
	return groups
}

// DateBucket compares calendar days in now's location. Stamps later than
// today count as today.
func DateBucket(stamp, now time.Time) string {
	days := calendarDays(stamp.In(now.Location()), now)
	switch {
	case days <= 0:
		return KeyToday
	case days == 1:
		return KeyYesterday
	case days < 7:
		return KeyThisWeek
	}
	return KeyOlder
}

func calendarDays(stamp, now time.Time) int {
	y1, m1, d1 := stamp.Date()
	y2, m2, d2 := now.Date()
	from := time.Date(y1, m1, d1, 0, 0, 0, 0, time.UTC)
	to := time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from).Hours() / 24)
}

// ByField buckets on the verbatim value of field in first-occurrence order.
func ByField(records []model.Record, field model.FieldID) []Group {
	return ByKey(records, func(record model.Record) (string, string) {
		value, ok := record.Text(field)
		if !ok {
			return KeyUncategorized, LabelUncategorized
		}
		switch field {
		case model.FieldStatus:
			return value, model.Status(value).Label()
		case model.FieldPriority:
			return value, model.Priority(value).Label()
		}
		return value, value
	})
}

// ByKey buckets records with an arbitrary key function. Groups are ordered
// by the first record that produced each key.
func ByKey(records []model.Record, key func(model.Record) (string, string)) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, record := range records {
		k, label := key(record)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k, Label: label})
		}
		groups[i].Records = append(groups[i].Records, record)
	}
	return groups
}

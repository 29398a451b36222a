package model

import (
	"strings"
	"time"
)

type FieldID string

const (
	FieldTitle       FieldID = "title"
	FieldDescription FieldID = "description"
	FieldStatus      FieldID = "status"
	FieldPriority    FieldID = "priority"
	FieldCategory    FieldID = "category"
	FieldAmount      FieldID = "amount"
	FieldDueAt       FieldID = "due_at"
	FieldOccurredAt  FieldID = "occurred_at"
	FieldCreatedAt   FieldID = "created_at"
	FieldRead        FieldID = "read"
	FieldPhone       FieldID = "phone"
	FieldTags        FieldID = "tags"
	FieldAssignee    FieldID = "assignee"
	FieldClient      FieldID = "client"
	FieldProject     FieldID = "project"
)

type FieldType string

const (
	FieldTypeText        FieldType = "text"
	FieldTypeSelect      FieldType = "select"
	FieldTypeDate        FieldType = "date"
	FieldTypeNumberRange FieldType = "numberRange"
)

type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

type FieldDescriptor struct {
	ID      FieldID   `json:"id" yaml:"id"`
	Label   string    `json:"label" yaml:"label"`
	Type    FieldType `json:"type" yaml:"type"`
	Options []Option  `json:"options,omitempty" yaml:"options"`
	// Targets lists the record fields a text descriptor searches. Empty
	// means the descriptor's own field.
	Targets []FieldID `json:"targets,omitempty" yaml:"targets"`
}

// Text returns the string form of a single-valued field. ok is false when
// the record does not carry the field.
func (r Record) Text(field FieldID) (string, bool) {
	var value string
	switch field {
	case FieldTitle:
		value = r.Title
	case FieldDescription:
		value = r.Description
	case FieldStatus:
		value = string(r.Status)
	case FieldPriority:
		value = string(r.Priority)
	case FieldCategory:
		value = r.Category
	case FieldPhone:
		value = r.Phone
	case FieldAssignee:
		if r.Assignee != nil {
			value = r.Assignee.Name
		}
	case FieldClient:
		if r.Client != nil {
			value = r.Client.Name
		}
	case FieldProject:
		if r.Project != nil {
			value = r.Project.Name
		}
	case FieldRead:
		if r.Read {
			return "true", true
		}
		return "false", true
	case FieldTags:
		if len(r.Tags) == 0 {
			return "", false
		}
		return strings.Join(r.Tags, ","), true
	default:
		value = r.Attributes[string(field)]
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// Values returns every value of a field; single-valued fields yield one
// element.
func (r Record) Values(field FieldID) ([]string, bool) {
	if field == FieldTags {
		if len(r.Tags) == 0 {
			return nil, false
		}
		return r.Tags, true
	}
	value, ok := r.Text(field)
	if !ok {
		return nil, false
	}
	return []string{value}, true
}

func (r Record) Time(field FieldID) (time.Time, bool) {
	var value *time.Time
	switch field {
	case FieldDueAt:
		value = r.DueAt
	case FieldOccurredAt:
		value = r.OccurredAt
	case FieldCreatedAt:
		if r.CreatedAt.IsZero() {
			return time.Time{}, false
		}
		return r.CreatedAt, true
	default:
		raw, ok := r.Attributes[string(field)]
		if !ok {
			return time.Time{}, false
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", raw)
			if err != nil {
				return time.Time{}, false
			}
		}
		return parsed, true
	}
	if value == nil || value.IsZero() {
		return time.Time{}, false
	}
	return *value, true
}

func (r Record) Number(field FieldID) (float64, bool) {
	switch field {
	case FieldAmount:
		if r.Amount == nil {
			return 0, false
		}
		return *r.Amount, true
	case FieldPriority:
		rank := r.Priority.Rank()
		if rank == 0 {
			return 0, false
		}
		return float64(rank), true
	}
	return 0, false
}

// DateStamp is the date a record is bucketed by when grouping by date:
// when it happened for notifications, when it is due otherwise.
func (r Record) DateStamp() (time.Time, bool) {
	if r.Kind == KindNotification {
		if stamp, ok := r.Time(FieldOccurredAt); ok {
			return stamp, true
		}
		return r.Time(FieldCreatedAt)
	}
	return r.Time(FieldDueAt)
}

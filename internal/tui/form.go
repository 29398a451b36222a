package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/obracrm/internal/db"
	"github.com/Joseda-hg/obracrm/internal/model"
)

type formField struct {
	Label string
	Value string
}

const (
	fieldTitle = iota
	fieldDescription
	fieldStatus
	fieldPriority
	fieldCategory
	fieldDue
	fieldAmount
	fieldTags
)

var priorityOrder = []string{"", "baja", "media", "alta", "urgente"}

func buildFormFields(record *model.Record) []formField {
	fields := []formField{
		{Label: "Título"},
		{Label: "Descripción"},
		{Label: "Estado (espacio/←→)"},
		{Label: "Prioridad (espacio/←→)"},
		{Label: "Categoría"},
		{Label: "Vence (AAAA-MM-DD)"},
		{Label: "Monto"},
		{Label: "Etiquetas"},
	}
	if record == nil {
		return fields
	}

	fields[fieldTitle].Value = record.Title
	fields[fieldDescription].Value = record.Description
	fields[fieldStatus].Value = string(record.Status)
	fields[fieldPriority].Value = string(record.Priority)
	fields[fieldCategory].Value = record.Category
	if record.DueAt != nil {
		fields[fieldDue].Value = record.DueAt.Format("2006-01-02")
	}
	if record.Amount != nil {
		fields[fieldAmount].Value = strconv.FormatFloat(*record.Amount, 'f', -1, 64)
	}
	fields[fieldTags].Value = strings.Join(record.Tags, ", ")
	return fields
}

// parseFormFields turns the form into store input. Dates are days in loc.
func parseFormFields(kind model.Kind, fields []formField, loc *time.Location) (db.RecordInput, error) {
	dueAt, err := parseDue(fields[fieldDue].Value, loc)
	if err != nil {
		return db.RecordInput{}, err
	}
	amount, err := parseAmount(fields[fieldAmount].Value)
	if err != nil {
		return db.RecordInput{}, err
	}

	return db.RecordInput{
		Kind:        kind,
		Title:       strings.TrimSpace(fields[fieldTitle].Value),
		Description: strings.TrimSpace(fields[fieldDescription].Value),
		Status:      strings.TrimSpace(fields[fieldStatus].Value),
		Priority:    strings.TrimSpace(fields[fieldPriority].Value),
		Category:    strings.TrimSpace(fields[fieldCategory].Value),
		DueAt:       dueAt,
		Amount:      amount,
		Tags:        parseTags(fields[fieldTags].Value),
	}, nil
}

func parseDue(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	parsed, err := time.ParseInLocation("2006-01-02", trimmed, loc)
	if err != nil {
		return nil, fmt.Errorf("fecha de vencimiento inválida")
	}
	return &parsed, nil
}

func parseAmount(value string) (*float64, error) {
	trimmed := strings.NewReplacer("$", "", ",", "", " ", "").Replace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, fmt.Errorf("monto inválido")
	}
	return &parsed, nil
}

func parseTags(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		result = append(result, trimmed)
	}
	return result
}

// recordInput carries a stored record back into store input, keeping the
// fields the form does not show.
func recordInput(record model.Record) db.RecordInput {
	return db.RecordInput{
		Kind:        record.Kind,
		Title:       record.Title,
		Description: record.Description,
		Status:      string(record.Status),
		Priority:    string(record.Priority),
		Category:    record.Category,
		Amount:      record.Amount,
		DueAt:       record.DueAt,
		OccurredAt:  record.OccurredAt,
		Read:        record.Read,
		Phone:       record.Phone,
		Tags:        record.Tags,
		Attributes:  record.Attributes,
		Assignee:    record.Assignee,
		Client:      record.Client,
		Project:     record.Project,
	}
}

func isStatusField(label string) bool {
	return strings.HasPrefix(label, "Estado")
}

func isPriorityField(label string) bool {
	return strings.HasPrefix(label, "Prioridad")
}

func cycleValue(order []string, current string, delta int) string {
	if len(order) == 0 {
		return current
	}
	value := strings.TrimSpace(strings.ToLower(current))
	index := 0
	for i, option := range order {
		if strings.ToLower(option) == value {
			index = i
			break
		}
	}
	index = (index + delta + len(order)) % len(order)
	return order[index]
}

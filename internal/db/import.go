package db

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Joseda-hg/obracrm/internal/model"
)

type recordFile struct {
	Records []recordEntry `yaml:"records"`
}

type recordEntry struct {
	Kind        string            `yaml:"kind"`
	Title       string            `yaml:"title"`
	Description string            `yaml:"description"`
	Status      string            `yaml:"status"`
	Priority    string            `yaml:"priority"`
	Category    string            `yaml:"category"`
	Amount      *float64          `yaml:"amount"`
	Due         string            `yaml:"due"`
	Occurred    string            `yaml:"occurred"`
	Read        bool              `yaml:"read"`
	Phone       string            `yaml:"phone"`
	Tags        []string          `yaml:"tags"`
	Attributes  map[string]string `yaml:"attributes"`
	Assignee    *model.Person     `yaml:"assignee"`
	Client      *model.Ref        `yaml:"client"`
	Project     *model.Ref        `yaml:"project"`
}

// LoadRecordsYAML reads a seed file of records. Dates are either RFC3339
// timestamps or plain days, interpreted in loc.
func LoadRecordsYAML(path string, loc *time.Location) ([]RecordInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records %s: %w", path, err)
	}

	var file recordFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}

	inputs := make([]RecordInput, 0, len(file.Records))
	for i, entry := range file.Records {
		input, err := entry.input(loc)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", path, i+1, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

func (e recordEntry) input(loc *time.Location) (RecordInput, error) {
	kind, ok := model.ParseKind(e.Kind)
	if !ok {
		return RecordInput{}, fmt.Errorf("unknown kind %q", e.Kind)
	}
	due, err := parseWhen(e.Due, loc)
	if err != nil {
		return RecordInput{}, fmt.Errorf("due: %w", err)
	}
	occurred, err := parseWhen(e.Occurred, loc)
	if err != nil {
		return RecordInput{}, fmt.Errorf("occurred: %w", err)
	}
	input := RecordInput{
		Kind:        kind,
		Title:       e.Title,
		Description: e.Description,
		Status:      e.Status,
		Priority:    e.Priority,
		Category:    e.Category,
		Amount:      e.Amount,
		DueAt:       due,
		OccurredAt:  occurred,
		Read:        e.Read,
		Phone:       e.Phone,
		Tags:        e.Tags,
		Attributes:  e.Attributes,
		Assignee:    e.Assignee,
		Client:      e.Client,
		Project:     e.Project,
	}
	if err := validateInput(input); err != nil {
		return RecordInput{}, err
	}
	return input, nil
}

func parseWhen(value string, loc *time.Location) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", trimmed, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", value)
	}
	return &parsed, nil
}

// ImportRecords creates every input in order and returns the stored records.
// The import is all or nothing: one bad input leaves the store untouched.
func (s *Store) ImportRecords(ctx context.Context, inputs []RecordInput) ([]model.Record, error) {
	for i, input := range inputs {
		if err := validateInput(input); err != nil {
			return nil, fmt.Errorf("import record %d: %w", i+1, err)
		}
	}

	var created []model.Record
	err := s.withTx(ctx, func(tx *Store) error {
		created = make([]model.Record, 0, len(inputs))
		for _, input := range inputs {
			record, err := tx.CreateRecord(ctx, input)
			if err != nil {
				return fmt.Errorf("import %q: %w", input.Title, err)
			}
			created = append(created, record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

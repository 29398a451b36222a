package db

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

func (s *Store) addHistory(ctx context.Context, recordID, eventType, details string) error {
	_, err := s.conn().ExecContext(ctx,
		"INSERT INTO record_history (record_id, event_type, details, created_at) VALUES (?,?,?,?)",
		recordID, eventType, details, s.now(),
	)
	if err != nil {
		return fmt.Errorf("add history: %w", err)
	}
	return nil
}

// ListHistory returns the events of a record, oldest first. History
// outlives the record itself.
func (s *Store) ListHistory(ctx context.Context, recordID string) ([]model.HistoryEntry, error) {
	rows, err := s.conn().QueryContext(ctx,
		"SELECT id, record_id, event_type, details, created_at FROM record_history WHERE record_id = ? ORDER BY id ASC",
		recordID,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	history := make([]model.HistoryEntry, 0)
	for rows.Next() {
		var entry model.HistoryEntry
		if err := rows.Scan(&entry.ID, &entry.RecordID, &entry.EventType, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func formatCreatedDetails(record model.Record) string {
	return "created: " + formatSnapshot(record)
}

func formatDeletedDetails(record model.Record) string {
	return "deleted: " + formatSnapshot(record)
}

func formatSnapshot(record model.Record) string {
	return fmt.Sprintf("kind=%s title='%s' status=%s priority=%s category=%s amount=%s due=%s tags=%s",
		record.Kind, record.Title, valueOrNone(string(record.Status)), valueOrNone(string(record.Priority)),
		valueOrNone(record.Category), formatAmount(record.Amount), formatDue(record.DueAt), formatTags(record.Tags))
}

func formatRecordDiff(before, after model.Record) string {
	changes := []string{}
	if before.Title != after.Title {
		changes = append(changes, formatChange("title", before.Title, after.Title))
	}
	if before.Description != after.Description {
		changes = append(changes, formatChange("description", before.Description, after.Description))
	}
	if before.Status != after.Status {
		changes = append(changes, formatChange("status", string(before.Status), string(after.Status)))
	}
	if before.Priority != after.Priority {
		changes = append(changes, formatChange("priority", string(before.Priority), string(after.Priority)))
	}
	if before.Category != after.Category {
		changes = append(changes, formatChange("category", before.Category, after.Category))
	}
	if formatAmount(before.Amount) != formatAmount(after.Amount) {
		changes = append(changes, formatChange("amount", formatAmount(before.Amount), formatAmount(after.Amount)))
	}
	if formatDue(before.DueAt) != formatDue(after.DueAt) {
		changes = append(changes, formatChange("due", formatDue(before.DueAt), formatDue(after.DueAt)))
	}
	if formatWhen(before.OccurredAt) != formatWhen(after.OccurredAt) {
		changes = append(changes, formatChange("occurred", formatWhen(before.OccurredAt), formatWhen(after.OccurredAt)))
	}
	if before.Read != after.Read {
		changes = append(changes, formatChange("read", strconv.FormatBool(before.Read), strconv.FormatBool(after.Read)))
	}
	if before.Phone != after.Phone {
		changes = append(changes, formatChange("phone", before.Phone, after.Phone))
	}
	if refName(before.Assignee) != refName(after.Assignee) {
		changes = append(changes, formatChange("assignee", refName(before.Assignee), refName(after.Assignee)))
	}
	if linkName(before.Client) != linkName(after.Client) {
		changes = append(changes, formatChange("client", linkName(before.Client), linkName(after.Client)))
	}
	if linkName(before.Project) != linkName(after.Project) {
		changes = append(changes, formatChange("project", linkName(before.Project), linkName(after.Project)))
	}
	beforeAttrs := formatAttributes(before.Attributes)
	afterAttrs := formatAttributes(after.Attributes)
	if beforeAttrs != afterAttrs {
		changes = append(changes, formatChange("attributes", beforeAttrs, afterAttrs))
	}
	beforeTags := formatTags(before.Tags)
	afterTags := formatTags(after.Tags)
	if beforeTags != afterTags {
		changes = append(changes, formatChange("tags", beforeTags, afterTags))
	}

	if len(changes) == 0 {
		return "updated: no changes"
	}

	return "updated: " + strings.Join(changes, "; ")
}

func formatChange(field, before, after string) string {
	return fmt.Sprintf("%s: '%s' -> '%s'", field, valueOrNone(before), valueOrNone(after))
}

func valueOrNone(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "none"
	}
	return trimmed
}

func formatDue(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.Format("2006-01-02")
}

func formatWhen(value *time.Time) string {
	if value == nil {
		return "none"
	}
	return value.UTC().Format("2006-01-02 15:04")
}

func formatAmount(value *float64) string {
	if value == nil {
		return "none"
	}
	return strconv.FormatFloat(*value, 'f', 2, 64)
}

func refName(person *model.Person) string {
	if person == nil {
		return ""
	}
	return person.Name
}

func linkName(ref *model.Ref) string {
	if ref == nil {
		return ""
	}
	return ref.Name
}

func formatAttributes(attrs map[string]string) string {
	if len(attrs) == 0 {
		return "none"
	}
	pairs := make([]string, 0, len(attrs))
	for key, value := range attrs {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "none"
	}

	names := append([]string(nil), tags...)
	sort.Strings(names)
	return strings.Join(names, ",")
}

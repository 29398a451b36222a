// Package aggregate computes the counts and sums shown on stat cards.
package aggregate

import (
	"time"

	"github.com/Joseda-hg/obracrm/internal/group"
	"github.com/Joseda-hg/obracrm/internal/model"
)

type Count struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

type Amount struct {
	Key    string  `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type Summary struct {
	Total            int      `json:"total"`
	ByStatus         []Count  `json:"by_status"`
	ByCategory       []Count  `json:"by_category"`
	ByPriority       []Count  `json:"by_priority"`
	Overdue          int      `json:"overdue"`
	Unread           int      `json:"unread"`
	AmountTotal      float64  `json:"amount_total"`
	AmountByCategory []Amount `json:"amount_by_category"`
}

func (s Summary) Status(status model.Status) int {
	return lookup(s.ByStatus, string(status))
}

func (s Summary) Category(name string) int {
	if name == "" {
		name = group.KeyUncategorized
	}
	return lookup(s.ByCategory, name)
}

func (s Summary) Priority(priority model.Priority) int {
	return lookup(s.ByPriority, string(priority))
}

func lookup(counts []Count, key string) int {
	for _, entry := range counts {
		if entry.Key == key {
			return entry.Count
		}
	}
	return 0
}

// IsOverdue reports a record due before now whose status is not terminal.
// Records without a due date are never overdue.
func IsOverdue(record model.Record, now time.Time) bool {
	if record.DueAt == nil || record.DueAt.IsZero() {
		return false
	}
	return record.DueAt.Before(now) && !record.Status.Terminal()
}

// Summarize walks records once. Breakdowns keep first-occurrence order.
func Summarize(records []model.Record, now time.Time) Summary {
	summary := Summary{
		ByStatus:         []Count{},
		ByCategory:       []Count{},
		ByPriority:       []Count{},
		AmountByCategory: []Amount{},
	}
	statusIndex := make(map[string]int)
	categoryIndex := make(map[string]int)
	priorityIndex := make(map[string]int)
	amountIndex := make(map[string]int)

	for _, record := range records {
		summary.Total++

		if record.Status != "" {
			summary.ByStatus = bump(summary.ByStatus, statusIndex, string(record.Status), record.Status.Label())
		}
		if record.Priority != "" {
			summary.ByPriority = bump(summary.ByPriority, priorityIndex, string(record.Priority), record.Priority.Label())
		}

		categoryKey, categoryLabel := group.KeyUncategorized, group.LabelUncategorized
		if category, ok := record.Text(model.FieldCategory); ok {
			categoryKey, categoryLabel = category, category
		}
		summary.ByCategory = bump(summary.ByCategory, categoryIndex, categoryKey, categoryLabel)

		if IsOverdue(record, now) {
			summary.Overdue++
		}
		if record.Kind == model.KindNotification && !record.Read {
			summary.Unread++
		}
		if record.Amount != nil {
			summary.AmountTotal += *record.Amount
			i, ok := amountIndex[categoryKey]
			if !ok {
				i = len(summary.AmountByCategory)
				amountIndex[categoryKey] = i
				summary.AmountByCategory = append(summary.AmountByCategory, Amount{Key: categoryKey, Label: categoryLabel})
			}
			summary.AmountByCategory[i].Amount += *record.Amount
		}
	}
	return summary
}

func bump(counts []Count, index map[string]int, key, label string) []Count {
	i, ok := index[key]
	if !ok {
		index[key] = len(counts)
		return append(counts, Count{Key: key, Label: label, Count: 1})
	}
	counts[i].Count++
	return counts
}

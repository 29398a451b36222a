package model

import "time"

type Record struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Status      Status            `json:"status,omitempty"`
	Priority    Priority          `json:"priority,omitempty"`
	Category    string            `json:"category,omitempty"`
	Amount      *float64          `json:"amount,omitempty"`
	DueAt       *time.Time        `json:"due_at,omitempty"`
	OccurredAt  *time.Time        `json:"occurred_at,omitempty"`
	Read        bool              `json:"read"`
	Phone       string            `json:"phone,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Assignee    *Person           `json:"assignee,omitempty"`
	Client      *Ref              `json:"client,omitempty"`
	Project     *Ref              `json:"project,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Person and Ref are display-only; nothing filters on them except the
// assignee/client/project name text fields.
type Person struct {
	ID    string `json:"id,omitempty" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`
}

type Ref struct {
	ID   string `json:"id,omitempty" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type HistoryEntry struct {
	ID        int64     `json:"id"`
	RecordID  string    `json:"record_id"`
	EventType string    `json:"event_type"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type SavedView struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	State     ViewState `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ViewState is everything a list page needs to reproduce what the user is
// looking at. It is recomputed into criteria on every render and never
// holds derived data.
type ViewState struct {
	Search   string            `json:"search"`
	Values   map[string]string `json:"values,omitempty"`
	GroupBy  string            `json:"group_by,omitempty"`
	SortBy   FieldID           `json:"sort_by,omitempty"`
	SortDesc bool              `json:"sort_desc,omitempty"`
	Page     int               `json:"page,omitempty"`
	PageSize int               `json:"page_size,omitempty"`
}

// WithValue returns a copy of the state with one filter value replaced.
// An empty value clears the field.
func (s ViewState) WithValue(key, value string) ViewState {
	values := make(map[string]string, len(s.Values)+1)
	for k, v := range s.Values {
		values[k] = v
	}
	if value == "" {
		delete(values, key)
	} else {
		values[key] = value
	}
	s.Values = values
	s.Page = 0
	return s
}

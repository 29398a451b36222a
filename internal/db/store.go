package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Joseda-hg/obracrm/internal/model"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
)

type Store struct {
	DB  *sql.DB
	tx  *sql.Tx
	now func() time.Time
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn is the open transaction when the store is scoped to one, the pool
// otherwise.
func (s *Store) conn() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.DB
}

// withTx runs fn against a copy of the store bound to a single transaction
// and commits only when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(*Store) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{DB: s.DB, tx: tx, now: s.now}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type RecordInput struct {
	Kind        model.Kind
	Title       string
	Description string
	Status      string
	Priority    string
	Category    string
	Amount      *float64
	DueAt       *time.Time
	OccurredAt  *time.Time
	Read        bool
	Phone       string
	Tags        []string
	Attributes  map[string]string
	Assignee    *model.Person
	Client      *model.Ref
	Project     *model.Ref
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

const recordColumns = `id, kind, title, description, status, priority, category, amount, due_at, occurred_at,
	is_read, phone, tags, attributes, assignee, client, project, created_at, updated_at`

func validateInput(input RecordInput) error {
	if _, ok := model.ParseKind(string(input.Kind)); !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, input.Kind)
	}
	if strings.TrimSpace(input.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	return nil
}

func (s *Store) CreateRecord(ctx context.Context, input RecordInput) (model.Record, error) {
	if err := validateInput(input); err != nil {
		return model.Record{}, err
	}

	now := s.now()
	record := recordFromInput(uuid.NewString(), input)
	record.Status = defaultStatus(record.Kind, record.Status)
	record.CreatedAt = now
	record.UpdatedAt = now

	cols, err := encodeRecord(record)
	if err != nil {
		return model.Record{}, err
	}
	_, err = s.conn().ExecContext(ctx, `INSERT INTO records (`+recordColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		record.ID, string(record.Kind), record.Title, record.Description,
		string(record.Status), string(record.Priority), record.Category,
		nullFloat(record.Amount), nullTime(record.DueAt), nullTime(record.OccurredAt),
		record.Read, record.Phone, cols.tags, cols.attributes,
		cols.assignee, cols.client, cols.project,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return model.Record{}, fmt.Errorf("insert record: %w", err)
	}

	created, err := s.GetRecord(ctx, record.ID)
	if err != nil {
		return model.Record{}, err
	}
	if err := s.addHistory(ctx, created.ID, "created", formatCreatedDetails(created)); err != nil {
		return model.Record{}, err
	}
	return created, nil
}

func (s *Store) UpdateRecord(ctx context.Context, id string, input RecordInput) (model.Record, error) {
	before, err := s.GetRecord(ctx, id)
	if err != nil {
		return model.Record{}, err
	}

	record := recordFromInput(id, input)
	record.Kind = before.Kind
	record.Status = defaultStatus(record.Kind, record.Status)
	record.CreatedAt = before.CreatedAt
	record.UpdatedAt = s.now()

	cols, err := encodeRecord(record)
	if err != nil {
		return model.Record{}, err
	}
	res, err := s.conn().ExecContext(ctx, `UPDATE records SET
			title=?, description=?, status=?, priority=?, category=?, amount=?, due_at=?, occurred_at=?,
			is_read=?, phone=?, tags=?, attributes=?, assignee=?, client=?, project=?, updated_at=?
		WHERE id=?`,
		record.Title, record.Description, string(record.Status), string(record.Priority), record.Category,
		nullFloat(record.Amount), nullTime(record.DueAt), nullTime(record.OccurredAt),
		record.Read, record.Phone, cols.tags, cols.attributes,
		cols.assignee, cols.client, cols.project, record.UpdatedAt,
		id,
	)
	if err != nil {
		return model.Record{}, fmt.Errorf("update record: %w", err)
	}
	if err := expectRow(res, id); err != nil {
		return model.Record{}, err
	}

	after, err := s.GetRecord(ctx, id)
	if err != nil {
		return model.Record{}, err
	}
	if err := s.addHistory(ctx, id, "updated", formatRecordDiff(before, after)); err != nil {
		return model.Record{}, err
	}
	return after, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (model.Record, error) {
	row := s.conn().QueryRowContext(ctx, `SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

// ListRecords returns every record of kind, oldest first. An empty kind
// lists all kinds. Filtering happens in the view composer, not in SQL.
func (s *Store) ListRecords(ctx context.Context, kind model.Kind) ([]model.Record, error) {
	q := strings.Builder{}
	q.WriteString("SELECT " + recordColumns + " FROM records WHERE 1=1")
	args := []any{}
	if kind != "" {
		q.WriteString(" AND kind = ?")
		args = append(args, string(kind))
	}
	q.WriteString(" ORDER BY created_at ASC, rowid ASC")

	rows, err := s.conn().QueryContext(ctx, q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	records := make([]model.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	before, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}

	if err := s.addHistory(ctx, id, "deleted", formatDeletedDetails(before)); err != nil {
		return err
	}

	res, err := s.conn().ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return expectRow(res, id)
}

// Complete closes a record: invoices become paid, clients inactive and
// everything else completed. Notifications are marked read instead.
func (s *Store) Complete(ctx context.Context, id string) error {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if record.Kind == model.KindNotification {
		return s.MarkRead(ctx, id)
	}
	return s.setStatus(ctx, record, completedStatus(record.Kind))
}

func (s *Store) Reopen(ctx context.Context, id string) error {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	if record.Kind == model.KindNotification {
		return s.setRead(ctx, record, false)
	}
	return s.setStatus(ctx, record, defaultStatus(record.Kind, ""))
}

func (s *Store) MarkRead(ctx context.Context, id string) error {
	record, err := s.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	return s.setRead(ctx, record, true)
}

func (s *Store) setRead(ctx context.Context, record model.Record, read bool) error {
	if record.Read == read {
		return nil
	}
	res, err := s.conn().ExecContext(ctx, "UPDATE records SET is_read = ?, updated_at = ? WHERE id = ?", read, s.now(), record.ID)
	if err != nil {
		return fmt.Errorf("set read: %w", err)
	}
	if err := expectRow(res, record.ID); err != nil {
		return err
	}
	return s.addHistory(ctx, record.ID, "read", "updated: "+formatChange("read", strconv.FormatBool(record.Read), strconv.FormatBool(read)))
}

// Delete is DeleteRecord under the name the view actions expect.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.DeleteRecord(ctx, id)
}

func (s *Store) setStatus(ctx context.Context, record model.Record, status model.Status) error {
	if record.Status == status {
		return nil
	}
	res, err := s.conn().ExecContext(ctx, "UPDATE records SET status = ?, updated_at = ? WHERE id = ?", string(status), s.now(), record.ID)
	if err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if err := expectRow(res, record.ID); err != nil {
		return err
	}
	return s.addHistory(ctx, record.ID, "status", "updated: "+formatChange("status", string(record.Status), string(status)))
}

func completedStatus(kind model.Kind) model.Status {
	switch kind {
	case model.KindInvoice:
		return model.StatusPaid
	case model.KindClient:
		return model.StatusInactive
	}
	return model.StatusCompleted
}

// defaultStatus fills in the opening status of a kind when status is blank.
func defaultStatus(kind model.Kind, status model.Status) model.Status {
	if status != "" {
		return status
	}
	switch kind {
	case model.KindClient, model.KindProject:
		return model.StatusActive
	case model.KindNotification:
		return ""
	}
	return model.StatusPending
}

func recordFromInput(id string, input RecordInput) model.Record {
	return model.Record{
		ID:          id,
		Kind:        input.Kind,
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Status:      model.NormalizeStatus(input.Status),
		Priority:    model.NormalizePriority(input.Priority),
		Category:    strings.TrimSpace(input.Category),
		Amount:      input.Amount,
		DueAt:       input.DueAt,
		OccurredAt:  input.OccurredAt,
		Read:        input.Read,
		Phone:       strings.TrimSpace(input.Phone),
		Tags:        normalizeTags(input.Tags),
		Attributes:  input.Attributes,
		Assignee:    input.Assignee,
		Client:      input.Client,
		Project:     input.Project,
	}
}

type encodedColumns struct {
	tags, attributes          string
	assignee, client, project string
}

func encodeRecord(record model.Record) (encodedColumns, error) {
	var cols encodedColumns
	var err error
	if cols.tags, err = encodeJSON(record.Tags, "[]"); err != nil {
		return cols, fmt.Errorf("encode tags: %w", err)
	}
	if cols.attributes, err = encodeJSON(record.Attributes, "{}"); err != nil {
		return cols, fmt.Errorf("encode attributes: %w", err)
	}
	if record.Assignee != nil {
		if cols.assignee, err = encodeJSON(record.Assignee, ""); err != nil {
			return cols, fmt.Errorf("encode assignee: %w", err)
		}
	}
	if record.Client != nil {
		if cols.client, err = encodeJSON(record.Client, ""); err != nil {
			return cols, fmt.Errorf("encode client: %w", err)
		}
	}
	if record.Project != nil {
		if cols.project, err = encodeJSON(record.Project, ""); err != nil {
			return cols, fmt.Errorf("encode project: %w", err)
		}
	}
	return cols, nil
}

func encodeJSON(value any, empty string) (string, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	if string(payload) == "null" {
		return empty, nil
	}
	return string(payload), nil
}

// decodeColumn reads a JSON column; an empty column leaves target as is.
func decodeColumn(raw string, target any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

// scanner abstracts sql.Row and sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.Record, error) {
	var record model.Record
	var kind, status, priority string
	var amount sql.NullFloat64
	var dueAt, occurredAt sql.NullTime
	var tagsJSON, attributesJSON, assigneeJSON, clientJSON, projectJSON string

	err := s.Scan(
		&record.ID, &kind, &record.Title, &record.Description, &status, &priority, &record.Category,
		&amount, &dueAt, &occurredAt,
		&record.Read, &record.Phone, &tagsJSON, &attributesJSON,
		&assigneeJSON, &clientJSON, &projectJSON,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return model.Record{}, err
	}

	record.Kind = model.Kind(kind)
	record.Status = model.Status(status)
	record.Priority = model.Priority(priority)
	if amount.Valid {
		value := amount.Float64
		record.Amount = &value
	}
	if dueAt.Valid {
		value := dueAt.Time
		record.DueAt = &value
	}
	if occurredAt.Valid {
		value := occurredAt.Time
		record.OccurredAt = &value
	}

	if err := decodeColumn(tagsJSON, &record.Tags); err != nil {
		return model.Record{}, fmt.Errorf("decode tags of %s: %w", record.ID, err)
	}
	if err := decodeColumn(attributesJSON, &record.Attributes); err != nil {
		return model.Record{}, fmt.Errorf("decode attributes of %s: %w", record.ID, err)
	}
	if assigneeJSON != "" {
		record.Assignee = &model.Person{}
		if err := decodeColumn(assigneeJSON, record.Assignee); err != nil {
			return model.Record{}, fmt.Errorf("decode assignee of %s: %w", record.ID, err)
		}
	}
	if clientJSON != "" {
		record.Client = &model.Ref{}
		if err := decodeColumn(clientJSON, record.Client); err != nil {
			return model.Record{}, fmt.Errorf("decode client of %s: %w", record.ID, err)
		}
	}
	if projectJSON != "" {
		record.Project = &model.Ref{}
		if err := decodeColumn(projectJSON, record.Project); err != nil {
			return model.Record{}, fmt.Errorf("decode project of %s: %w", record.ID, err)
		}
	}
	return record, nil
}

func expectRow(res sql.Result, id string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

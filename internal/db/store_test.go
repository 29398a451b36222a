package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

func TestCreateRecordPersistsFieldsAndHistory(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	amount := 125000.5
	due := time.Date(2026, time.November, 3, 0, 0, 0, 0, time.UTC)
	created, err := store.CreateRecord(context.Background(), RecordInput{
		Kind:       model.KindInvoice,
		Title:      "Estimación 4",
		Status:     "Pendiente",
		Category:   "Anticipo",
		Amount:     &amount,
		DueAt:      &due,
		Tags:       []string{"Obra", "obra", " Acero "},
		Attributes: map[string]string{"folio": "A-104"},
		Client:     &model.Ref{ID: "c1", Name: "Constructora del Bajío"},
	})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected record ID to be set")
	}
	if created.Status != model.StatusPending {
		t.Fatalf("expected status 'pendiente', got %q", created.Status)
	}
	if len(created.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", created.Tags)
	}
	if created.Amount == nil || *created.Amount != amount {
		t.Fatalf("expected amount %v, got %v", amount, created.Amount)
	}
	if created.DueAt == nil || !created.DueAt.Equal(due) {
		t.Fatalf("expected due %v, got %v", due, created.DueAt)
	}
	if created.Client == nil || created.Client.Name != "Constructora del Bajío" {
		t.Fatalf("expected client ref, got %+v", created.Client)
	}
	if created.Attributes["folio"] != "A-104" {
		t.Fatalf("expected folio attribute, got %v", created.Attributes)
	}

	history, err := store.ListHistory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].EventType != "created" {
		t.Fatalf("expected history event 'created', got %q", history[0].EventType)
	}
}

func TestCreateRecordDefaultsStatusByKind(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	client, err := store.CreateRecord(context.Background(), RecordInput{Kind: model.KindClient, Title: "Grupo Norte"})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if client.Status != model.StatusActive {
		t.Fatalf("expected client to start active, got %q", client.Status)
	}

	if _, err := store.CreateRecord(context.Background(), RecordInput{Kind: "proveedor", Title: "x"}); err == nil {
		t.Fatalf("expected unknown kind to be rejected")
	}
	if _, err := store.CreateRecord(context.Background(), RecordInput{Kind: model.KindTask, Title: "  "}); err == nil {
		t.Fatalf("expected blank title to be rejected")
	}
}

func TestUpdateRecordRecordsDiff(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.CreateRecord(context.Background(), RecordInput{Kind: model.KindTask, Title: "Colar losa", Priority: "media"})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	updated, err := store.UpdateRecord(context.Background(), created.ID, RecordInput{Kind: model.KindTask, Title: "Colar losa nivel 2", Priority: "alta"})
	if err != nil {
		t.Fatalf("update record: %v", err)
	}
	if updated.Priority != model.PriorityHigh {
		t.Fatalf("expected priority alta, got %q", updated.Priority)
	}

	history, err := store.ListHistory(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}
	details := history[1].Details
	if !strings.Contains(details, "title: 'Colar losa' -> 'Colar losa nivel 2'") || !strings.Contains(details, "priority: 'media' -> 'alta'") {
		t.Fatalf("unexpected diff: %s", details)
	}

	if _, err := store.UpdateRecord(context.Background(), "missing", RecordInput{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRecordDiffCoversEveryField(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindNotification, Title: "Pago recibido"})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}

	occurred := time.Date(2026, time.October, 18, 9, 30, 0, 0, time.UTC)
	if _, err := store.UpdateRecord(ctx, created.ID, RecordInput{
		Title:      "Pago recibido",
		OccurredAt: &occurred,
		Read:       true,
		Attributes: map[string]string{"folio": "A-17"},
		Client:     &model.Ref{Name: "Constructora Norte"},
		Project:    &model.Ref{Name: "Torre Sur"},
	}); err != nil {
		t.Fatalf("update record: %v", err)
	}

	history, err := store.ListHistory(ctx, created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	details := history[len(history)-1].Details
	for _, want := range []string{
		"occurred: 'none' -> '2026-10-18 09:30'",
		"read: 'false' -> 'true'",
		"client: 'none' -> 'Constructora Norte'",
		"project: 'none' -> 'Torre Sur'",
		"attributes: 'none' -> 'folio=A-17'",
	} {
		if !strings.Contains(details, want) {
			t.Fatalf("expected %q in diff, got %s", want, details)
		}
	}
}

func TestCorruptJSONColumnIsReported(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindTask, Title: "Pedir varilla", Tags: []string{"obra"}})
	if err != nil {
		t.Fatalf("create record: %v", err)
	}
	if _, err := store.DB.ExecContext(ctx, "UPDATE records SET tags = ? WHERE id = ?", "[obra", created.ID); err != nil {
		t.Fatalf("corrupt tags: %v", err)
	}

	if _, err := store.GetRecord(ctx, created.ID); err == nil || !strings.Contains(err.Error(), "decode tags") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := store.ListRecords(ctx, model.KindTask); err == nil {
		t.Fatalf("expected list to fail on a corrupt row")
	}
}

func TestActionsChangeStatus(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	task, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindTask, Title: "Pedir varilla"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	invoice, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindInvoice, Title: "Factura 88"})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if err := store.Complete(ctx, task.ID); err != nil {
		t.Fatalf("complete task: %v", err)
	}
	if err := store.Complete(ctx, invoice.ID); err != nil {
		t.Fatalf("complete invoice: %v", err)
	}

	reloaded, err := store.GetRecord(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if reloaded.Status != model.StatusCompleted {
		t.Fatalf("expected completada, got %q", reloaded.Status)
	}
	paid, err := store.GetRecord(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if paid.Status != model.StatusPaid {
		t.Fatalf("expected pagada, got %q", paid.Status)
	}

	if err := store.Reopen(ctx, task.ID); err != nil {
		t.Fatalf("reopen task: %v", err)
	}
	reloaded, err = store.GetRecord(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if reloaded.Status != model.StatusPending {
		t.Fatalf("expected pendiente after reopen, got %q", reloaded.Status)
	}

	if err := store.Complete(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMarkReadNotification(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	notification, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindNotification, Title: "Pago recibido", Category: "pago"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if notification.Read {
		t.Fatalf("expected new notification to be unread")
	}

	if err := store.MarkRead(ctx, notification.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if err := store.MarkRead(ctx, notification.ID); err != nil {
		t.Fatalf("mark read twice: %v", err)
	}

	reloaded, err := store.GetRecord(ctx, notification.ID)
	if err != nil {
		t.Fatalf("get notification: %v", err)
	}
	if !reloaded.Read {
		t.Fatalf("expected notification to be read")
	}

	history, err := store.ListHistory(ctx, notification.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected created and read events, got %d", len(history))
	}
}

func TestDeleteRecordKeepsHistory(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	created, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindProject, Title: "Bodega Apodaca"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := store.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete project: %v", err)
	}

	if _, err := store.GetRecord(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	history, err := store.ListHistory(ctx, created.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 2 || history[1].EventType != "deleted" {
		t.Fatalf("expected deleted event to survive, got %+v", history)
	}
}

func TestListRecordsByKind(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, input := range []RecordInput{
		{Kind: model.KindTask, Title: "A"},
		{Kind: model.KindClient, Title: "B"},
		{Kind: model.KindTask, Title: "C"},
	} {
		if _, err := store.CreateRecord(ctx, input); err != nil {
			t.Fatalf("create %s: %v", input.Title, err)
		}
	}

	tasks, err := store.ListRecords(ctx, model.KindTask)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 || tasks[0].Title != "A" || tasks[1].Title != "C" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	all, err := store.ListRecords(ctx, "")
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
}

func TestSavedViews(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := store.SaveView(ctx, model.SavedView{
		Name:  "Urgentes",
		Kind:  model.KindTask,
		State: model.ViewState{Values: map[string]string{"priority": "urgente"}, GroupBy: "none"},
	})
	if err != nil {
		t.Fatalf("save view: %v", err)
	}
	if saved.ID == 0 {
		t.Fatalf("expected view ID to be set")
	}

	saved.State.Search = "losa"
	if _, err := store.SaveView(ctx, saved); err != nil {
		t.Fatalf("update view: %v", err)
	}

	byName, err := store.GetViewByName(ctx, "Urgentes")
	if err != nil {
		t.Fatalf("get view: %v", err)
	}
	if byName.State.Search != "losa" || byName.State.Values["priority"] != "urgente" {
		t.Fatalf("unexpected state: %+v", byName.State)
	}

	views, err := store.ListViews(ctx, model.KindClient)
	if err != nil {
		t.Fatalf("list views: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("expected no client views, got %d", len(views))
	}

	if err := store.DeleteView(ctx, saved.ID); err != nil {
		t.Fatalf("delete view: %v", err)
	}
	if _, err := store.GetViewByName(ctx, "Urgentes"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestImportRecordsYAML(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `records:
  - kind: task
    title: Cimbrado de columnas
    priority: alta
    due: 2026-10-20
    assignee: {name: Ana Ruiz}
  - kind: notification
    title: Nueva cotización
    category: obra
    occurred: 2026-10-19T09:30:00-06:00
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}

	loc := time.FixedZone("CST", -6*60*60)
	inputs, err := LoadRecordsYAML(path, loc)
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if len(inputs) != 2 {
		t.Fatalf("expected 2 inputs, got %d", len(inputs))
	}
	if inputs[0].DueAt == nil || inputs[0].DueAt.Day() != 20 || inputs[0].DueAt.Location() != loc {
		t.Fatalf("expected due day in location, got %v", inputs[0].DueAt)
	}

	created, err := store.ImportRecords(context.Background(), inputs)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(created) != 2 || created[0].Assignee == nil || created[0].Assignee.Name != "Ana Ruiz" {
		t.Fatalf("unexpected import result: %+v", created)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("records:\n  - kind: task\n    title: x\n    due: mañana\n"), 0o644); err != nil {
		t.Fatalf("write bad seed: %v", err)
	}
	if _, err := LoadRecordsYAML(bad, loc); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestSaveViewByExistingName(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first, err := store.SaveView(ctx, model.SavedView{Name: "Urgentes", Kind: model.KindTask})
	if err != nil {
		t.Fatalf("save view: %v", err)
	}
	replaced, err := store.SaveView(ctx, model.SavedView{Name: " Urgentes ", Kind: model.KindTask, State: model.ViewState{Search: "losa"}})
	if err != nil {
		t.Fatalf("save by name: %v", err)
	}
	if replaced.ID != first.ID || replaced.State.Search != "losa" {
		t.Fatalf("expected the existing view to be replaced, got %+v", replaced)
	}

	other, err := store.SaveView(ctx, model.SavedView{Name: "Pagadas", Kind: model.KindInvoice})
	if err != nil {
		t.Fatalf("save second view: %v", err)
	}
	other.Name = "Urgentes"
	if _, err := store.SaveView(ctx, other); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if _, err := store.SaveView(ctx, model.SavedView{Name: "x", Kind: "proveedor"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unknown kind, got %v", err)
	}
	if _, err := store.CreateRecord(ctx, RecordInput{Kind: model.KindTask}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for missing title, got %v", err)
	}
}

func TestImportRejectsEntryWithoutTitle(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	content := `records:
  - kind: task
    title: Cimbrado de columnas
  - kind: task
    title: Colado de losa
  - kind: task
    title: "  "
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	if _, err := LoadRecordsYAML(path, time.UTC); err == nil || !strings.Contains(err.Error(), "record 3") {
		t.Fatalf("expected error for record 3, got %v", err)
	}

	inputs := []RecordInput{
		{Kind: model.KindTask, Title: "Cimbrado de columnas"},
		{Kind: model.KindTask, Title: "Colado de losa"},
		{Kind: model.KindTask, Title: ""},
	}
	if _, err := store.ImportRecords(context.Background(), inputs); err == nil {
		t.Fatalf("expected import error")
	}

	records, err := store.ListRecords(context.Background(), model.KindTask)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected nothing imported, got %d records", len(records))
	}
}

func TestImportRecordsRunsInOneTransaction(t *testing.T) {
	store, cleanup := newTestStore(t)
	defer cleanup()

	created, err := store.ImportRecords(context.Background(), []RecordInput{
		{Kind: model.KindTask, Title: "Cimbrado de columnas"},
		{Kind: model.KindInvoice, Title: "Factura 104"},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 records, got %d", len(created))
	}

	history, err := store.ListHistory(context.Background(), created[1].ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 || history[0].EventType != "created" {
		t.Fatalf("expected created history after commit, got %+v", history)
	}
}

func newTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	return NewStore(db), func() {
		_ = db.Close()
	}
}

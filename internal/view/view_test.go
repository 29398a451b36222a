package view

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Joseda-hg/obracrm/internal/catalog"
	"github.com/Joseda-hg/obracrm/internal/group"
	"github.com/Joseda-hg/obracrm/internal/model"
)

type recordedActions struct {
	calls []string
}

func (r *recordedActions) Complete(_ context.Context, id string) error {
	r.calls = append(r.calls, "complete:"+id)
	return nil
}

func (r *recordedActions) Reopen(_ context.Context, id string) error {
	r.calls = append(r.calls, "reopen:"+id)
	return nil
}

func (r *recordedActions) MarkRead(_ context.Context, id string) error {
	r.calls = append(r.calls, "mark_read:"+id)
	return nil
}

func (r *recordedActions) Delete(_ context.Context, id string) error {
	r.calls = append(r.calls, "delete:"+id)
	return nil
}

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(v float64) *float64 { return &v }

func testNow() time.Time {
	return time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)
}

func sampleTasks() []model.Record {
	now := testNow()
	return []model.Record{
		{ID: "t1", Kind: model.KindTask, Title: "Colado de losa", Status: model.StatusPending, Priority: model.PriorityHigh, Category: "Obra", DueAt: timePtr(now.AddDate(0, 0, -1))},
		{ID: "t2", Kind: model.KindTask, Title: "Revisión eléctrica", Status: model.StatusCompleted, Priority: model.PriorityLow, Category: "Instalaciones", DueAt: timePtr(now.AddDate(0, 0, -2))},
		{ID: "t3", Kind: model.KindTask, Title: "Cotizar acero", Status: model.StatusInProgress, Priority: model.PriorityUrgent, Category: "Obra", DueAt: timePtr(now.AddDate(0, 0, 3))},
		{ID: "t4", Kind: model.KindTask, Title: "Llamar al cliente", Status: model.StatusPending, Priority: model.PriorityMedium},
	}
}

func TestComposeWithoutStateKeepsEverything(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)
	records := sampleTasks()

	result := composer.Compose(model.KindTask, records, model.ViewState{GroupBy: "none"}, testNow())
	if result.Total != 4 || result.Matched != 4 {
		t.Fatalf("expected 4/4, got %d/%d", result.Matched, result.Total)
	}
	if len(result.Sections) != 1 || result.Sections[0].Key != group.KeyAll {
		t.Fatalf("expected single pseudo-group, got %+v", result.Sections)
	}
	for i, row := range result.Sections[0].Rows {
		if row.ID != records[i].ID {
			t.Fatalf("expected original order, got %s at %d", row.ID, i)
		}
	}
	if len(result.Active) != 0 {
		t.Fatalf("expected no active filters, got %+v", result.Active)
	}
}

func TestComposeSearchAndFilters(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)
	state := model.ViewState{
		Search:  "revision",
		Values:  map[string]string{"status": "completada"},
		GroupBy: "none",
	}

	result := composer.Compose(model.KindTask, sampleTasks(), state, testNow())
	if result.Matched != 1 {
		t.Fatalf("expected one match, got %d", result.Matched)
	}
	if got := result.Sections[0].Rows[0].ID; got != "t2" {
		t.Fatalf("expected t2, got %s", got)
	}
	if len(result.Active) != 2 || result.Active[0].Label != "Búsqueda" || result.Active[1].Label != "Estado" {
		t.Fatalf("unexpected active filters: %+v", result.Active)
	}
	if result.Summary.Total != 4 || result.Filtered.Total != 1 {
		t.Fatalf("expected full and filtered summaries, got %d and %d", result.Summary.Total, result.Filtered.Total)
	}
}

func TestComposeNarrowingNeverGrows(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)
	records := sampleTasks()

	state := model.ViewState{GroupBy: "none"}
	previous := composer.Compose(model.KindTask, records, state, testNow()).Matched
	for _, step := range []struct{ key, value string }{
		{"status", "pendiente,en_progreso"},
		{"category", "Obra"},
		{"priority", "alta"},
	} {
		state = state.WithValue(step.key, step.value)
		matched := composer.Compose(model.KindTask, records, state, testNow()).Matched
		if matched > previous {
			t.Fatalf("adding %s increased matches from %d to %d", step.key, previous, matched)
		}
		previous = matched
	}
	if previous != 1 {
		t.Fatalf("expected one remaining match, got %d", previous)
	}
}

func TestComposeUsesDefaultGroup(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)

	result := composer.Compose(model.KindTask, sampleTasks(), model.ViewState{}, testNow())
	if result.GroupBy != "status" {
		t.Fatalf("expected status grouping, got %q", result.GroupBy)
	}
	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 status sections, got %d", len(result.Sections))
	}
	if result.Sections[0].Label != "Pendiente" || result.Sections[0].Count != 2 {
		t.Fatalf("unexpected first section: %+v", result.Sections[0])
	}

	seen := 0
	for _, section := range result.Sections {
		seen += len(section.Rows)
	}
	if seen != result.Matched {
		t.Fatalf("sections hold %d rows, expected %d", seen, result.Matched)
	}
}

func TestComposeAnnotatesRows(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)
	now := testNow()
	records := []model.Record{
		{ID: "i1", Kind: model.KindInvoice, Title: "Estimación 3", Status: model.StatusPending, Amount: floatPtr(1500), DueAt: timePtr(now.AddDate(0, 0, -1)), Phone: "+52 55 1234 5678"},
	}

	result := composer.Compose(model.KindInvoice, records, model.ViewState{GroupBy: "none"}, now)
	row := result.Sections[0].Rows[0]
	if !row.Overdue {
		t.Fatalf("expected overdue row")
	}
	if row.AmountText == "" || row.AmountText[0] != '$' {
		t.Fatalf("expected currency text, got %q", row.AmountText)
	}
	if row.PhoneText != "55 1234 5678" {
		t.Fatalf("expected masked phone, got %q", row.PhoneText)
	}
	if row.StatusLabel != "Pendiente" || row.DueLabel == "" || row.Age == "" {
		t.Fatalf("expected labels, got %+v", row)
	}
}

func TestComposeAmountRange(t *testing.T) {
	composer := NewComposer(catalog.Default(), nil)
	records := []model.Record{
		{ID: "a", Kind: model.KindInvoice, Title: "A", Amount: floatPtr(500)},
		{ID: "b", Kind: model.KindInvoice, Title: "B", Amount: floatPtr(2500)},
		{ID: "c", Kind: model.KindInvoice, Title: "C"},
	}
	state := model.ViewState{GroupBy: "none", Values: map[string]string{"amount_min": "$1,000"}}

	result := composer.Compose(model.KindInvoice, records, state, testNow())
	if result.Matched != 1 || result.Sections[0].Rows[0].ID != "b" {
		t.Fatalf("expected only b, got %+v", result.Sections[0].Rows)
	}
	if values := result.Active[0].Values; len(values) != 2 || values[0] != "1000" || values[1] != "" {
		t.Fatalf("unexpected range chip values: %v", values)
	}
}

func TestSortMissingLast(t *testing.T) {
	records := sampleTasks()

	ascending := Sort(records, model.FieldDueAt, false)
	if ascending[0].ID != "t2" || ascending[3].ID != "t4" {
		t.Fatalf("unexpected ascending order: %s..%s", ascending[0].ID, ascending[3].ID)
	}
	descending := Sort(records, model.FieldDueAt, true)
	if descending[0].ID != "t3" || descending[3].ID != "t4" {
		t.Fatalf("unexpected descending order: %s..%s", descending[0].ID, descending[3].ID)
	}
	if records[0].ID != "t1" {
		t.Fatalf("sort modified its input")
	}

	byPriority := Sort(records, model.FieldPriority, true)
	if byPriority[0].ID != "t3" {
		t.Fatalf("expected urgent first, got %s", byPriority[0].ID)
	}
}

func TestPaginate(t *testing.T) {
	records := sampleTasks()

	page, info := Paginate(records, 1, 3)
	if len(page) != 1 || page[0].ID != "t4" {
		t.Fatalf("unexpected second page: %+v", page)
	}
	if info.Pages != 2 || info.Total != 4 || info.Page != 1 {
		t.Fatalf("unexpected page info: %+v", info)
	}

	page, info = Paginate(records, 9, 3)
	if info.Page != 1 || len(page) != 1 {
		t.Fatalf("expected clamp to last page, got %+v", info)
	}

	page, info = Paginate(nil, 0, 10)
	if len(page) != 0 || info.Pages != 1 {
		t.Fatalf("unexpected empty paging: %+v", info)
	}

	page, info = Paginate(records, 0, math.MaxInt)
	if len(page) != 4 || info.Pages != 1 || info.Page != 0 {
		t.Fatalf("expected one page for a huge size, got %d rows and %+v", len(page), info)
	}

	page, info = Paginate(records, math.MaxInt, 3)
	if info.Page != 1 || len(page) != 1 {
		t.Fatalf("expected huge page index to clamp, got %+v", info)
	}

	page, info = Paginate(records, -5, 3)
	if info.Page != 0 || len(page) != 3 {
		t.Fatalf("expected negative page to clamp to first, got %+v", info)
	}
}

func TestPerformDispatchesActions(t *testing.T) {
	actions := &recordedActions{}
	composer := NewComposer(catalog.Default(), actions)
	ctx := context.Background()

	for _, action := range []Action{ActionComplete, ActionReopen, ActionMarkRead, ActionDelete} {
		if err := composer.Perform(ctx, action, "r1"); err != nil {
			t.Fatalf("perform %s: %v", action, err)
		}
	}
	if len(actions.calls) != 4 || actions.calls[2] != "mark_read:r1" {
		t.Fatalf("unexpected calls: %v", actions.calls)
	}

	if err := composer.Perform(ctx, Action("archive"), "r1"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
	if _, err := ParseAction("archive"); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected parse error, got %v", err)
	}
	if err := NewComposer(catalog.Default(), nil).Perform(ctx, ActionDelete, "r1"); !errors.Is(err, ErrNoActions) {
		t.Fatalf("expected ErrNoActions, got %v", err)
	}
}

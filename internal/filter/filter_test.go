package filter

import (
	"testing"
	"time"

	"github.com/Joseda-hg/obracrm/internal/model"
)

func TestEmptySetMatchesEverything(t *testing.T) {
	records := []model.Record{
		{ID: "1", Title: "Colado de losa"},
		{ID: "2"},
		{},
	}
	var set Set
	for _, record := range records {
		if !set.Match(record) {
			t.Fatalf("expected empty set to match record %q", record.ID)
		}
	}
	if got := len(Apply(records, NewSet())); got != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), got)
	}
}

func TestBlankContainsTermMatchesNothing(t *testing.T) {
	record := model.Record{ID: "1", Title: "Colado de losa", Description: "Nivel 2"}
	for _, term := range []string{"", "   ", "\t"} {
		if Contains(model.FieldTitle, term, model.FieldTitle, model.FieldDescription).Match(record) {
			t.Fatalf("expected blank term %q to match nothing", term)
		}
	}
	if !Contains(model.FieldTitle, " LOSA ").Match(record) {
		t.Fatalf("expected padded term to still match")
	}
}

func TestMissingFieldNeverMatches(t *testing.T) {
	record := model.Record{ID: "1", Title: "Cotización de acero"}

	criteria := map[string]Criterion{
		"contains": Contains(model.FieldDescription, "acero"),
		"equals":   Equals(model.FieldStatus, "pendiente"),
		"in":       In(model.FieldCategory, "Materiales", "Acabados"),
		"amount":   Between(model.FieldAmount, nil, nil),
		"due":      During(model.FieldDueAt, nil, nil),
		"tags":     Equals(model.FieldTags, "urgente"),
		"attr":     Equals("municipio", "Zapopan"),
	}
	for name, criterion := range criteria {
		t.Run(name, func(t *testing.T) {
			if NewSet(criterion).Match(record) {
				t.Fatalf("expected %s criterion to reject record without the field", name)
			}
		})
	}
}

func TestContainsIsCaseAndAccentInsensitive(t *testing.T) {
	record := model.Record{
		Title:       "Revisión de planos",
		Description: "Entregar a la constructora",
		Assignee:    &model.Person{Name: "María González"},
	}

	cases := []struct {
		term string
		want bool
	}{
		{term: "REVISION", want: true},
		{term: "planos", want: true},
		{term: "gonzalez", want: true},
		{term: "constructora", want: true},
		{term: "cimentación", want: false},
	}
	for _, tc := range cases {
		criterion := Contains(SearchField, tc.term, model.FieldTitle, model.FieldDescription, model.FieldAssignee)
		if got := criterion.Match(record); got != tc.want {
			t.Errorf("Contains(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}
}

func TestFilterByStatusKeepsMatchingRecord(t *testing.T) {
	records := []model.Record{
		{ID: "1", Status: model.StatusActive},
		{ID: "2", Status: model.StatusInactive},
		{ID: "3", Status: model.StatusPending},
	}

	filtered := Apply(records, NewSet(Equals(model.FieldStatus, "activo")))
	if len(filtered) != 1 {
		t.Fatalf("expected 1 record, got %d", len(filtered))
	}
	if filtered[0].ID != "1" {
		t.Fatalf("expected record 1, got %q", filtered[0].ID)
	}
}

func TestAddingCriterionNeverIncreasesMatches(t *testing.T) {
	amount := func(v float64) *float64 { return &v }
	records := []model.Record{
		{ID: "1", Title: "Block", Category: "Materiales", Status: model.StatusPending, Amount: amount(1200)},
		{ID: "2", Title: "Cemento", Category: "Materiales", Status: model.StatusPaid, Amount: amount(5400)},
		{ID: "3", Title: "Cuadrilla", Category: "Mano de obra", Status: model.StatusPending, Amount: amount(18000)},
		{ID: "4", Title: "Grúa", Status: model.StatusPending},
	}

	steps := []Criterion{
		Equals(model.FieldStatus, string(model.StatusPending)),
		Equals(model.FieldCategory, "Materiales"),
		Between(model.FieldAmount, amount(1000), amount(2000)),
		Contains(SearchField, "block", model.FieldTitle),
	}

	set := NewSet()
	previous := len(Apply(records, set))
	for _, step := range steps {
		set = set.Put(step)
		current := len(Apply(records, set))
		if current > previous {
			t.Fatalf("adding %s on %s increased matches from %d to %d", step.Operator(), step.Field(), previous, current)
		}
		previous = current
	}
	if previous != 1 {
		t.Fatalf("expected 1 final match, got %d", previous)
	}
}

func TestRangeBoundsAreInclusiveAndOptional(t *testing.T) {
	amount := func(v float64) *float64 { return &v }
	record := model.Record{Amount: amount(500)}

	if !Between(model.FieldAmount, amount(500), amount(500)).Match(record) {
		t.Fatalf("expected inclusive bounds to match")
	}
	if !Between(model.FieldAmount, nil, amount(500)).Match(record) {
		t.Fatalf("expected open lower bound to match")
	}
	if !Between(model.FieldAmount, amount(100), nil).Match(record) {
		t.Fatalf("expected open upper bound to match")
	}
	if Between(model.FieldAmount, amount(501), nil).Match(record) {
		t.Fatalf("expected value below min to be rejected")
	}

	due := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	dated := model.Record{DueAt: &due}
	from := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	if !During(model.FieldDueAt, &from, nil).Match(dated) {
		t.Fatalf("expected due date after from to match")
	}
	if During(model.FieldDueAt, nil, &from).Match(dated) {
		t.Fatalf("expected due date after to bound to be rejected")
	}
}

func TestPutReplacesCriterionOnSameField(t *testing.T) {
	set := NewSet(Equals(model.FieldStatus, "activo"), Equals(model.FieldCategory, "Residencial"))
	set = set.Put(Equals(model.FieldStatus, "inactivo"))

	if set.Len() != 2 {
		t.Fatalf("expected 2 criteria, got %d", set.Len())
	}
	criteria := set.Criteria()
	if criteria[0].Field() != model.FieldStatus || criteria[0].Values()[0] != "inactivo" {
		t.Fatalf("expected status criterion to be replaced in place, got %v", criteria[0].Values())
	}

	set = set.Without(model.FieldStatus)
	if _, ok := set.Get(model.FieldStatus); ok {
		t.Fatalf("expected status criterion to be removed")
	}
}

func TestFromValues(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	descriptors := []model.FieldDescriptor{
		{ID: "search", Type: model.FieldTypeText, Targets: []model.FieldID{model.FieldTitle}},
		{ID: model.FieldStatus, Type: model.FieldTypeSelect},
		{ID: model.FieldDueAt, Type: model.FieldTypeDate},
		{ID: model.FieldAmount, Type: model.FieldTypeNumberRange},
	}

	t.Run("blank values are inactive", func(t *testing.T) {
		set := FromValues(descriptors, map[string]string{"search": "  ", "status": ""}, loc)
		if set.Len() != 0 {
			t.Fatalf("expected no criteria, got %d", set.Len())
		}
	})

	t.Run("comma list becomes in-set", func(t *testing.T) {
		set := FromValues(descriptors, map[string]string{"status": "pendiente, en_progreso"}, loc)
		criterion, ok := set.Get(model.FieldStatus)
		if !ok {
			t.Fatalf("expected status criterion")
		}
		if criterion.Operator() != OpIn {
			t.Fatalf("expected in operator, got %s", criterion.Operator())
		}
	})

	t.Run("date upper bound covers whole day", func(t *testing.T) {
		set := FromValues(descriptors, map[string]string{"due_at_to": "2026-10-19"}, loc)
		lateThatDay := time.Date(2026, 10, 19, 23, 30, 0, 0, loc)
		nextDay := time.Date(2026, 10, 20, 0, 30, 0, 0, loc)
		if !set.Match(model.Record{DueAt: &lateThatDay}) {
			t.Fatalf("expected record due late on the last day to match")
		}
		if set.Match(model.Record{DueAt: &nextDay}) {
			t.Fatalf("expected record due the next day to be rejected")
		}
	})

	t.Run("amount accepts currency input", func(t *testing.T) {
		set := FromValues(descriptors, map[string]string{"amount_min": "$1,000"}, loc)
		small, large := 999.0, 1000.0
		if set.Match(model.Record{Amount: &small}) {
			t.Fatalf("expected amount below minimum to be rejected")
		}
		if !set.Match(model.Record{Amount: &large}) {
			t.Fatalf("expected amount at minimum to match")
		}
	})

	t.Run("unparsable values are ignored", func(t *testing.T) {
		set := FromValues(descriptors, map[string]string{"due_at_from": "ayer", "amount_max": "mucho"}, loc)
		if set.Len() != 0 {
			t.Fatalf("expected no criteria, got %d", set.Len())
		}
	})
}

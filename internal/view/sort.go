package view

import (
	"sort"

	"github.com/Joseda-hg/obracrm/internal/filter"
	"github.com/Joseda-hg/obracrm/internal/model"
)

// Sort orders a copy of records by field. Records missing the field go
// last in either direction; ties keep their input order.
func Sort(records []model.Record, field model.FieldID, desc bool) []model.Record {
	sorted := append([]model.Record(nil), records...)
	if field == "" {
		return sorted
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp, iok, jok := compareField(sorted[i], sorted[j], field)
		if !iok || !jok {
			return iok && !jok
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	return sorted
}

func compareField(a, b model.Record, field model.FieldID) (int, bool, bool) {
	if at, aok := a.Time(field); aok || isTimeField(field) {
		bt, bok := b.Time(field)
		if !aok || !bok {
			return 0, aok, bok
		}
		return at.Compare(bt), true, true
	}

	an, aok := a.Number(field)
	bn, bok := b.Number(field)
	if aok || bok {
		if !aok || !bok {
			return 0, aok, bok
		}
		switch {
		case an < bn:
			return -1, true, true
		case an > bn:
			return 1, true, true
		}
		return 0, true, true
	}

	as, aok := a.Text(field)
	bs, bok := b.Text(field)
	if !aok || !bok {
		return 0, aok, bok
	}
	af, bf := filter.Fold(as), filter.Fold(bs)
	switch {
	case af < bf:
		return -1, true, true
	case af > bf:
		return 1, true, true
	}
	return 0, true, true
}

func isTimeField(field model.FieldID) bool {
	switch field {
	case model.FieldDueAt, model.FieldOccurredAt, model.FieldCreatedAt:
		return true
	}
	return false
}

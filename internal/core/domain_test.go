package core

import (
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year, month, want int
	}{
		{2024, 2, 29},
		{2023, 2, 28},
		{2024, 4, 30},
		{2024, 12, 31},
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %d) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}

func TestTransactionNormalize(t *testing.T) {
	tx := Transaction{Description: "  Colruyt ", Amount: Money{Cents: -4520}}.Normalize()
	if tx.Amount.Cents != 4520 {
		t.Fatalf("expected magnitude 4520, got %d", tx.Amount.Cents)
	}
	if tx.Description != "Colruyt" {
		t.Fatalf("expected trimmed description, got %q", tx.Description)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:          NewDate(2025, 1, 1),
		Description:   "ok",
		Amount:        Money{Cents: 100},
		SubcategoryID: "sub",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []struct {
		tx   Transaction
		want error
	}{
		{Transaction{Date: NewDate(2025, 1, 1), Description: "", Amount: Money{Cents: 1}, SubcategoryID: "s"}, ErrEmptyDescription},
		{Transaction{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: -1}, SubcategoryID: "s"}, ErrInvalidAmount},
		{Transaction{Date: NewDate(2025, 1, 1), Description: "a", Amount: Money{Cents: 1}}, ErrMissingSubcategory},
	}
	for i, tc := range bads {
		if err := tc.tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	b := Budget{Name: "Food", Limit: Money{Cents: 50000}, Period: PeriodMonthly}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if b.HasLinks() {
		t.Fatalf("budget without links reported links")
	}
	b.Period = "weekly"
	if err := b.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatalf("expected ErrInvalidPeriod, got %v", err)
	}
}

func TestRecurringTemplateValidate(t *testing.T) {
	base := RecurringTemplate{
		Description:   "Rent",
		Amount:        Money{Cents: 90000},
		Frequency:     Monthly,
		DayOfMonth:    1,
		SubcategoryID: "rent",
	}

	tests := []struct {
		name   string
		mutate func(*RecurringTemplate)
		want   error
	}{
		{"valid monthly", func(*RecurringTemplate) {}, nil},
		{"last day sentinel", func(rt *RecurringTemplate) { rt.DayOfMonth = LastDayOfMonth }, nil},
		{"day 29 rejected", func(rt *RecurringTemplate) { rt.DayOfMonth = 29 }, ErrInvalidDayOfMonth},
		{"weekly needs day of week", func(rt *RecurringTemplate) { rt.Frequency = Weekly }, ErrInvalidDayOfWeek},
		{"weekly with day of week", func(rt *RecurringTemplate) { rt.Frequency = Weekly; rt.DayOfWeek = 5 }, nil},
		{"unknown frequency", func(rt *RecurringTemplate) { rt.Frequency = "daily" }, ErrInvalidFrequency},
		{"zero amount", func(rt *RecurringTemplate) { rt.Amount = Money{} }, ErrInvalidAmount},
		{"end before start", func(rt *RecurringTemplate) {
			rt.StartDate = NewDate(2024, 5, 1)
			rt.EndDate = NewDate(2024, 4, 1)
		}, ErrEndBeforeStart},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := base
			tt.mutate(&rt)
			err := rt.Validate()
			if tt.want == nil && err != nil {
				t.Fatalf("expected ok, got %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCatalogLookups(t *testing.T) {
	cat := NewCatalog(
		[]Category{{ID: "c2", NameEN: "Transport", SortOrder: 2}, {ID: "c1", NameEN: "Food", SortOrder: 1}},
		[]Subcategory{
			{ID: "s2", CategoryID: "c1", NameEN: "Restaurant", SortOrder: 2},
			{ID: "s1", CategoryID: "c1", NameEN: "Groceries", SortOrder: 1},
			{ID: "s3", CategoryID: "c2", NameEN: "Fuel", SortOrder: 1},
		},
	)

	if id, ok := cat.CategoryOf("s2"); !ok || id != "c1" {
		t.Fatalf("CategoryOf(s2) = %q, %v", id, ok)
	}
	if _, ok := cat.CategoryOf("missing"); ok {
		t.Fatalf("unknown subcategory resolved")
	}
	subs := cat.SubcategoriesOf("c1")
	if len(subs) != 2 || subs[0].ID != "s1" {
		t.Fatalf("SubcategoriesOf(c1) not sorted by sort order: %+v", subs)
	}
	if cats := cat.Categories(); cats[0].ID != "c1" {
		t.Fatalf("categories not sorted: %+v", cats)
	}

	var nilCatalog *Catalog
	if _, ok := nilCatalog.CategoryOf("s1"); ok {
		t.Fatalf("nil catalog resolved a subcategory")
	}
}

func TestIDSet(t *testing.T) {
	s := NewIDSet("b", "a", "", "b")
	if s.Len() != 2 || !s.Has("a") || s.Has("") {
		t.Fatalf("unexpected set %v", s)
	}
	var empty IDSet
	if empty.Has("a") {
		t.Fatalf("nil set reported membership")
	}
	if got := s.Sorted(); got[0] != "a" || got[1] != "b" {
		t.Fatalf("Sorted() = %v", got)
	}
}

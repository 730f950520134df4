package core

import (
	"errors"
	"strings"
)

const (
	Monthly     Frequency = "monthly"
	Weekly      Frequency = "weekly"
	Biweekly    Frequency = "biweekly"
	Trimestrial Frequency = "trimestrial"
	Yearly      Frequency = "yearly"
)

const (
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// LastDayOfMonth is the DayOfMonth sentinel meaning "last calendar day of the month".
const LastDayOfMonth = 99

const maxDescriptionLength = 200

type (
	Frequency    string
	BudgetPeriod string

	Account struct {
		ID        string `json:"id"`
		Name      string `json:"name"`
		Bank      string `json:"bank,omitempty"`
		Color     string `json:"color,omitempty"`
		IsDefault bool   `json:"is_default"`
		SortOrder int    `json:"sort_order"`
	}

	Category struct {
		ID        string `json:"id"`
		NameFR    string `json:"name_fr"`
		NameEN    string `json:"name_en"`
		Icon      string `json:"icon,omitempty"`
		Color     string `json:"color,omitempty"`
		IsDefault bool   `json:"is_default"`
		SortOrder int    `json:"sort_order"`
	}

	Subcategory struct {
		ID         string `json:"id"`
		CategoryID string `json:"category_id"`
		NameFR     string `json:"name_fr"`
		NameEN     string `json:"name_en"`
		SortOrder  int    `json:"sort_order"`
	}

	// Transaction is a single spend entry. Amount is always a non-negative magnitude.
	Transaction struct {
		ID            string `json:"id"`
		Description   string `json:"description"`
		Amount        Money  `json:"amount"`
		Date          Date   `json:"date"`
		AccountID     string `json:"account_id,omitempty"`
		SubcategoryID string `json:"subcategory_id"`
		Notes         string `json:"notes,omitempty"`
	}

	// Budget links to categories and subcategories. A transaction counts
	// toward the budget when either link set covers it.
	Budget struct {
		ID             string       `json:"id"`
		Name           string       `json:"name"`
		Limit          Money        `json:"amount_limit"`
		Period         BudgetPeriod `json:"period"`
		Color          string       `json:"color,omitempty"`
		Icon           string       `json:"icon,omitempty"`
		Description    string       `json:"description,omitempty"`
		IsActive       bool         `json:"is_active"`
		CategoryIDs    IDSet        `json:"category_ids"`
		SubcategoryIDs IDSet        `json:"subcategory_ids"`
	}

	RecurringTemplate struct {
		ID            string    `json:"id"`
		Description   string    `json:"description"`
		Amount        Money     `json:"amount"`
		Frequency     Frequency `json:"frequency"`
		DayOfMonth    int       `json:"day_of_month,omitempty"`
		DayOfWeek     int       `json:"day_of_week,omitempty"` // 1=Monday..7=Sunday
		SubcategoryID string    `json:"subcategory_id"`
		AccountID     string    `json:"account_id,omitempty"`
		StartDate     Date      `json:"start_date"`
		EndDate       Date      `json:"end_date"`
		Notes         string    `json:"notes,omitempty"`
		IsActive      bool      `json:"is_active"`
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrAmountOutOfRange   = errors.New("amount out of range")
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrEmptyName          = errors.New("empty name")
	ErrMissingSubcategory = errors.New("missing subcategory")
	ErrMissingCategory    = errors.New("missing category")
	ErrInvalidPeriod      = errors.New("invalid budget period")
	ErrInvalidFrequency   = errors.New("invalid frequency")
	ErrInvalidDayOfMonth  = errors.New("invalid day of month")
	ErrInvalidDayOfWeek   = errors.New("invalid day of week")
	ErrEndBeforeStart     = errors.New("end date must not be before start date")
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Weekly, Biweekly, Trimestrial, Yearly:
		return true
	}
	return false
}

// UsesDayOfMonth reports whether the schedule is anchored on a day of the month.
func (f Frequency) UsesDayOfMonth() bool {
	return f == Monthly || f == Trimestrial || f == Yearly
}

func (p BudgetPeriod) Valid() bool {
	return p == PeriodMonthly || p == PeriodYearly
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.NameFR) == "" && strings.TrimSpace(c.NameEN) == "" {
		return ErrEmptyName
	}
	return nil
}

func (s Subcategory) Validate() error {
	if strings.TrimSpace(s.CategoryID) == "" {
		return ErrMissingCategory
	}
	if strings.TrimSpace(s.NameFR) == "" && strings.TrimSpace(s.NameEN) == "" {
		return ErrEmptyName
	}
	return nil
}

// Normalize trims the description and stores the amount as its magnitude.
func (t Transaction) Normalize() Transaction {
	t.Description = strings.TrimSpace(t.Description)
	t.Notes = strings.TrimSpace(t.Notes)
	t.Amount = t.Amount.Abs()
	return t
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := validateDescription(t.Description); err != nil {
		return err
	}
	if t.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.SubcategoryID) == "" {
		return ErrMissingSubcategory
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if err := b.Limit.Validate(); err != nil {
		return err
	}
	if !b.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

// HasLinks reports whether the budget is linked to at least one category or subcategory.
func (b Budget) HasLinks() bool {
	return b.CategoryIDs.Len() > 0 || b.SubcategoryIDs.Len() > 0
}

func (rt RecurringTemplate) Validate() error {
	if err := validateDescription(rt.Description); err != nil {
		return err
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if !rt.Frequency.Valid() {
		return ErrInvalidFrequency
	}
	if rt.Frequency.UsesDayOfMonth() {
		if !(rt.DayOfMonth >= 1 && rt.DayOfMonth <= 28) && rt.DayOfMonth != LastDayOfMonth {
			return ErrInvalidDayOfMonth
		}
	} else if rt.DayOfWeek < 1 || rt.DayOfWeek > 7 {
		return ErrInvalidDayOfWeek
	}
	if strings.TrimSpace(rt.SubcategoryID) == "" {
		return ErrMissingSubcategory
	}
	if !rt.StartDate.IsEmpty() {
		if err := rt.StartDate.Validate(); err != nil {
			return errors.New("invalid start date: " + err.Error())
		}
	}
	if !rt.EndDate.IsEmpty() {
		if err := rt.EndDate.Validate(); err != nil {
			return errors.New("invalid end date: " + err.Error())
		}
		if !rt.StartDate.IsEmpty() && rt.EndDate.Before(rt.StartDate.Time) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

func validateDescription(desc string) error {
	if len(strings.TrimSpace(desc)) == 0 {
		return ErrEmptyDescription
	}
	if len(desc) > maxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

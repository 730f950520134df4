package importer

import (
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/parse"
)

type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
)

type ErrorKind string

const (
	KindMissing ErrorKind = "missing"
	KindInvalid ErrorKind = "invalid"
	KindZero    ErrorKind = "zero"
)

// headerOffset turns a 0-based data row index into the 1-based line number
// of the source, counting the header line.
const headerOffset = 2

// RowError is a recoverable validation problem in one source row.
type RowError struct {
	Row   int       `json:"row"`
	Field Field     `json:"field"`
	Kind  ErrorKind `json:"kind"`
	Raw   string    `json:"raw"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s %s (%q)", e.Row, e.Kind, e.Field, e.Raw)
}

// Candidate is a parsed row awaiting commit. Unresolved candidates have no
// subcategory and need a manual assignment before they can be written.
type Candidate struct {
	Row           int        `json:"row"`
	Date          core.Date  `json:"date"`
	Description   string     `json:"description"`
	Amount        core.Money `json:"amount"`
	SubcategoryID string     `json:"subcategory_id,omitempty"`
	CategoryText  string     `json:"category_text,omitempty"`
	AccountID     string     `json:"account_id,omitempty"`
	AccountText   string     `json:"account_text,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Resolved      bool       `json:"resolved"`
}

// Transaction converts the candidate for the ledger.
func (c Candidate) Transaction() core.Transaction {
	return core.Transaction{
		Description:   c.Description,
		Amount:        c.Amount,
		Date:          c.Date,
		AccountID:     c.AccountID,
		SubcategoryID: c.SubcategoryID,
		Notes:         c.Notes,
	}.Normalize()
}

// Assign sets the subcategory of an unresolved candidate.
func (c Candidate) Assign(subcategoryID string) Candidate {
	c.SubcategoryID = strings.TrimSpace(subcategoryID)
	c.Resolved = c.SubcategoryID != ""
	return c
}

// Result is the outcome of normalizing a table.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	Errors     []RowError  `json:"errors"`
	Total      int         `json:"total"` // data rows read
}

// Valid returns the number of candidates.
func (r Result) Valid() int { return len(r.Candidates) }

// Unresolved returns candidates still lacking a subcategory.
func (r Result) Unresolved() []Candidate {
	out := []Candidate{}
	for _, c := range r.Candidates {
		if !c.Resolved {
			out = append(out, c)
		}
	}
	return out
}

// Importable returns candidates that can be committed as they are.
func (r Result) Importable() []Candidate {
	out := []Candidate{}
	for _, c := range r.Candidates {
		if c.Resolved {
			out = append(out, c)
		}
	}
	return out
}

// Normalize parses every row of t with mapping m. Row problems are collected
// in Result.Errors; only an unusable mapping returns an error.
func Normalize(t Table, m Mapping, catalog *core.Catalog, accounts []core.Account) (Result, error) {
	if err := m.Validate(); err != nil {
		return Result{}, err
	}
	res := Result{Candidates: []Candidate{}, Errors: []RowError{}, Total: len(t.Rows)}

	for i, row := range t.Rows {
		line := i + headerOffset
		ok := true

		dateRaw := row.Get(m.Date)
		date, err := parse.FlexibleDate(dateRaw)
		if err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Field: FieldDate, Kind: missingOr(dateRaw, KindInvalid), Raw: dateRaw})
			ok = false
		}

		desc := strings.TrimSpace(row.Get(m.Description))
		if desc == "" {
			res.Errors = append(res.Errors, RowError{Row: line, Field: FieldDescription, Kind: KindMissing})
			ok = false
		}

		amountRaw := row.Get(m.Amount)
		var amount core.Money
		if d, parsed := parse.FlexibleAmount(amountRaw); !parsed {
			res.Errors = append(res.Errors, RowError{Row: line, Field: FieldAmount, Kind: missingOr(amountRaw, KindInvalid), Raw: amountRaw})
			ok = false
		} else if money, err := core.ParseMoney(d); err != nil {
			res.Errors = append(res.Errors, RowError{Row: line, Field: FieldAmount, Kind: KindInvalid, Raw: amountRaw})
			ok = false
		} else if amount = money.Abs(); amount.IsZero() {
			res.Errors = append(res.Errors, RowError{Row: line, Field: FieldAmount, Kind: KindZero, Raw: amountRaw})
			ok = false
		}

		if !ok {
			continue
		}

		categoryText := strings.TrimSpace(row.Get(m.Category))
		accountText := strings.TrimSpace(row.Get(m.Account))
		subID, resolved := ResolveSubcategory(categoryText, catalog)
		res.Candidates = append(res.Candidates, Candidate{
			Row:           line,
			Date:          date,
			Description:   desc,
			Amount:        amount,
			SubcategoryID: subID,
			CategoryText:  categoryText,
			AccountID:     ResolveAccount(accountText, accounts),
			AccountText:   accountText,
			Notes:         strings.TrimSpace(row.Get(m.Notes)),
			Resolved:      resolved,
		})
	}
	return res, nil
}

func missingOr(raw string, kind ErrorKind) ErrorKind {
	if strings.TrimSpace(raw) == "" {
		return KindMissing
	}
	return kind
}

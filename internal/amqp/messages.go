package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// Message types, carried in the AMQP Type property.
const (
	TypeTransactionCreated = "transaction.created"
	TypeRecurringPending   = "recurring.pending"
)

// Transaction sources.
const (
	SourceManual    = "manual"
	SourceRecurring = "recurring"
	SourceImport    = "import"
)

// TransactionCreated announces a stored transaction.
type TransactionCreated struct {
	ID        string     `json:"id"`
	Amount    core.Money `json:"amount"`
	Date      core.Date  `json:"date"`
	Source    string     `json:"source"`
	Timestamp time.Time  `json:"timestamp"`
}

// RecurringPending notifies that a template's occurrence is due and not yet recorded.
// Nothing is written to the ledger; generating the transaction stays an explicit action.
type RecurringPending struct {
	TemplateID  string     `json:"template_id"`
	Description string     `json:"description"`
	Amount      core.Money `json:"amount"`
	Date        core.Date  `json:"date"`
	Timestamp   time.Time  `json:"timestamp"`
}

func NewTransactionCreated(tx core.Transaction, source string) *TransactionCreated {
	return &TransactionCreated{
		ID:        tx.ID,
		Amount:    tx.Amount,
		Date:      tx.Date,
		Source:    source,
		Timestamp: time.Now(),
	}
}

func NewRecurringPending(t core.RecurringTemplate, date core.Date) *RecurringPending {
	return &RecurringPending{
		TemplateID:  t.ID,
		Description: t.Description,
		Amount:      t.Amount,
		Date:        date,
		Timestamp:   time.Now(),
	}
}

func (m *TransactionCreated) ToJSON() ([]byte, error) { return json.Marshal(m) }

func (m *RecurringPending) ToJSON() ([]byte, error) { return json.Marshal(m) }

func TransactionCreatedFromJSON(data []byte) (*TransactionCreated, error) {
	var msg TransactionCreated
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TypeTransactionCreated, err)
	}
	return &msg, nil
}

func RecurringPendingFromJSON(data []byte) (*RecurringPending, error) {
	var msg RecurringPending
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("decode %s: %w", TypeRecurringPending, err)
	}
	return &msg, nil
}

package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"splitledger/ledger"
	"splitledger/models"
)

// Journal persists ledger events in the ledger_events table, one row per
// event keyed by sequence number.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// Append inserts ev. A row already holding ev.Seq means another writer got
// there first, reported as ledger.ErrConcurrencyConflict.
func (j *Journal) Append(ctx context.Context, ev ledger.Event) error {
	row, err := toRow(ev)
	if err != nil {
		return err
	}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("journal seq %d: %w", ev.Seq, ledger.ErrConcurrencyConflict)
		}
		return fmt.Errorf("journal seq %d: %w", ev.Seq, err)
	}
	return nil
}

// Load returns every stored event in sequence order.
func (j *Journal) Load(ctx context.Context) ([]ledger.Event, error) {
	var rows []models.LedgerEvent
	if err := j.db.WithContext(ctx).Order("seq").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load journal: %w", err)
	}
	events := make([]ledger.Event, len(rows))
	for i, row := range rows {
		ev, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		events[i] = ev
	}
	return events, nil
}

func toRow(ev ledger.Event) (models.LedgerEvent, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return models.LedgerEvent{}, fmt.Errorf("encode event %d: %w", ev.Seq, err)
	}
	row := models.LedgerEvent{
		Seq:        ev.Seq,
		Kind:       string(ev.Kind),
		EventID:    ev.ID(),
		Payload:    string(payload),
		RecordedAt: ev.RecordedAt,
	}
	if ev.Expense != nil {
		g := ev.Expense.GroupID
		row.GroupID = &g
	}
	return row, nil
}

func fromRow(row models.LedgerEvent) (ledger.Event, error) {
	var ev ledger.Event
	if err := json.Unmarshal([]byte(row.Payload), &ev); err != nil {
		return ledger.Event{}, fmt.Errorf("decode event %d: %w", row.Seq, err)
	}
	if ev.Seq != row.Seq || ev.ID() != row.EventID {
		return ledger.Event{}, fmt.Errorf("decode event %d: payload holds seq %d id %s", row.Seq, ev.Seq, ev.ID())
	}
	return ev, nil
}

var (
	_ ledger.Journal  = (*Journal)(nil)
	_ ledger.Registry = (*Directory)(nil)
)

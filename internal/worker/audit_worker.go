package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/storage"
)

// ExpenseReader is the read side of the store the worker needs.
type ExpenseReader interface {
	Get(ctx context.Context, id int64) (core.Expense, error)
}

// AuditRecord is one line of the audit log.
type AuditRecord struct {
	Event      string        `json:"event"`
	ID         int64         `json:"id"`
	EventTime  time.Time     `json:"event_time"`
	RecordedAt time.Time     `json:"recorded_at"`
	Expense    *AuditExpense `json:"expense,omitempty"`
}

// AuditExpense is the row as it looked when the event was recorded.
type AuditExpense struct {
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Date     string `json:"date"`
	Note     string `json:"note"`
}

// AuditWorker appends every expense event to a JSON-lines log.
type AuditWorker struct {
	reader ExpenseReader
	now    func() time.Time

	mu  sync.Mutex
	enc *json.Encoder
}

func NewAuditWorker(reader ExpenseReader, out io.Writer) *AuditWorker {
	return &AuditWorker{
		reader: reader,
		now:    time.Now,
		enc:    json.NewEncoder(out),
	}
}

// HandleEvent records the event. For creates and updates the current row is
// attached; a row that is already gone is recorded without it.
func (w *AuditWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	rec := AuditRecord{
		Event:      string(event.Type),
		ID:         event.ID,
		EventTime:  event.Timestamp,
		RecordedAt: w.now().UTC(),
	}

	if event.Type != amqp.EventDeleted {
		e, err := w.reader.Get(ctx, event.ID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			slog.WarnContext(ctx, "Expense gone before audit", "id", event.ID, "event_type", event.Type)
		case err != nil:
			return fmt.Errorf("get expense %d: %w", event.ID, err)
		default:
			rec.Expense = &AuditExpense{
				Amount:   e.Amount.StringFixed(2),
				Category: e.Category,
				Date:     core.FormatTimestamp(e.Date),
				Note:     e.Note,
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("write audit record: %w", err)
	}

	slog.InfoContext(ctx, "Audit record written", "id", event.ID, "event_type", event.Type)
	return nil
}

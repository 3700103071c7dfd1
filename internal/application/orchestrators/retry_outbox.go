package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"formations/internal/adapters/email"
	"formations/internal/adapters/metrics"
	outboxStore "formations/internal/adapters/storage/outbox"
	domain "formations/internal/domain/outbox"
)

// ActionExecutor executes a specific type of outbound action.
type ActionExecutor interface {
	// Execute runs the action with the given payload and returns the provider's ID.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxProcessor delivers outbox entries with bounded, backed-off retries.
type OutboxProcessor struct {
	store     outboxStore.Store
	executors map[string]ActionExecutor
	metrics   *metrics.Metrics
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store outboxStore.Store, executors map[string]ActionExecutor, m *metrics.Metrics) *OutboxProcessor {
	return &OutboxProcessor{
		store:     store,
		executors: executors,
		metrics:   m,
		now:       time.Now,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
	}
}

// ProcessPending attempts every pending entry whose backoff has elapsed.
// PRE: Context is valid
// POST: Attempted entries are saved with their new status
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	now := p.now()
	for _, entry := range entries {
		if now.Before(entry.ReadyAt(p.baseDelay, p.maxDelay)) {
			continue
		}
		if err := p.attempt(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

// ProcessSingle attempts one entry now, ignoring backoff (admin retry).
// A failed entry that ran out of attempts is granted one more.
// PRE: entryID is non-empty
// POST: Entry is attempted and saved; done and abandoned entries are refused
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == domain.StatusDone || entry.Status == domain.StatusAbandoned {
		return domain.ErrTerminal
	}
	if entry.Attempts >= entry.MaxAttempts {
		entry.MaxAttempts = entry.Attempts + 1
	}
	return p.attempt(ctx, entry)
}

// AbandonEntry marks an entry as abandoned by admin.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if entry.Status == domain.StatusDone {
		return domain.ErrTerminal
	}
	entry.MarkAbandoned()
	if err := p.store.Save(ctx, entry); err != nil {
		return err
	}
	slog.Info("outbox_entry_abandoned", "entry_id", entry.ID, "action_type", entry.ActionType)
	return nil
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) error {
	entry.MarkAttempt(p.now())

	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		p.metrics.OutboxDelivery(entry.ActionType, false)
		return p.store.Save(ctx, entry)
	}

	externalID, err := executor.Execute(ctx, entry.Payload)
	if err != nil {
		entry.MarkFailed(err)
		p.metrics.OutboxDelivery(entry.ActionType, false)
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		p.metrics.OutboxDelivery(entry.ActionType, true)
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

// --- Admin e-mail executor ---

// AdminEmailExecutor renders a course submission and sends it to the admin recipients.
type AdminEmailExecutor struct {
	Sender email.Sender
	To     []string
}

// Execute sends the submission e-mail described by payload.
// PRE: payload is a JSON email.CourseSubmission
// POST: Returns the provider message ID; with no recipient configured the action succeeds without sending
func (e *AdminEmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var sub email.CourseSubmission
	if err := json.Unmarshal([]byte(payload), &sub); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	if len(e.To) == 0 {
		slog.Info("admin_email_skipped", "course_id", sub.CourseID, "reason", "no_recipient")
		return "", nil
	}

	subject, html, err := email.RenderCourseSubmission(sub)
	if err != nil {
		return "", err
	}
	res, err := e.Sender.Send(ctx, email.SendRequest{To: e.To, Subject: subject, HTML: html, Tags: email.SubmissionTags(sub)})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// --- Background Worker ---

// StartBackgroundWorker starts a goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed; done is closed once it has exited
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) (done <-chan struct{}) {
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
	return finished
}

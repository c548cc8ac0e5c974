package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"launchkit/internal/apperr"
	"launchkit/internal/email"
	"launchkit/internal/metrics"
	"launchkit/internal/stats"
	"launchkit/internal/utils/logger"
)

// TaskHandler processes every task type.
type TaskHandler struct {
	sender   email.Sender
	retry    email.RetryPolicy
	stats    *stats.Service
	exporter *AuditExporter
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

type HandlerOption func(*TaskHandler)

func WithRetryPolicy(p email.RetryPolicy) HandlerOption {
	return func(h *TaskHandler) { h.retry = p }
}

func WithMetrics(m *metrics.Metrics) HandlerOption {
	return func(h *TaskHandler) { h.metrics = m }
}

// NewTaskHandler creates a new TaskHandler. stats and exporter may be nil when
// the deployment does not run those tasks.
func NewTaskHandler(sender email.Sender, statsService *stats.Service, exporter *AuditExporter, opts ...HandlerOption) *TaskHandler {
	h := &TaskHandler{
		sender:   sender,
		retry:    email.DefaultRetryPolicy,
		stats:    statsService,
		exporter: exporter,
		logger:   logger.New("task_handler"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds the handlers to mux.
func (h *TaskHandler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TaskTypeEmailSend, h.HandleEmailSend)
	if h.stats != nil {
		mux.HandleFunc(TaskTypeStatsSnapshot, h.HandleStatsSnapshot)
	}
	if h.exporter != nil {
		mux.HandleFunc(TaskTypeAuditExport, h.HandleAuditExport)
	}
}

func (h *TaskHandler) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var msg email.Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
	}

	id, err := email.SendWithRetry(ctx, h.sender, msg, h.retry)
	h.metrics.EmailSend(err)
	if err != nil {
		if apperr.IsKind(err, apperr.KindRateLimited) {
			return fmt.Errorf("email to %s rate limited: %v: %w", msg.To, err, asynq.SkipRetry)
		}
		return h.logger.Error(fmt.Sprintf("Failed to send email to %s ❌", msg.To), err)
	}
	h.logger.Success("sent %q to %s (id %s)", msg.Subject, msg.To, id)
	return nil
}

func (h *TaskHandler) HandleStatsSnapshot(ctx context.Context, _ *asynq.Task) error {
	snap, err := h.stats.Refresh(ctx)
	if err != nil {
		return h.logger.Error("Failed to refresh stats snapshot ❌", err)
	}
	h.logger.Info("stats snapshot: %d users, %d organizations, %d audit entries", snap.Users, snap.Organizations, snap.AuditEntries)
	return nil
}

func (h *TaskHandler) HandleAuditExport(ctx context.Context, t *asynq.Task) error {
	var p AuditExportPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode export payload: %v: %w", err, asynq.SkipRetry)
	}
	if p.Key == "" {
		return fmt.Errorf("export payload has no key: %w", asynq.SkipRetry)
	}

	res, err := h.exporter.Export(ctx, p)
	if err != nil {
		return h.logger.Error("Audit export failed ❌", err)
	}
	h.logger.Success("exported %d audit entries to %s", res.Count, res.Key)

	if p.NotifyEmail == "" {
		return nil
	}
	msg, err := email.ExportReady(p.NotifyEmail, res.URL, res.Count, int(exportLinkTTL.Hours()))
	if err != nil {
		return err
	}
	// The export is already stored; a failed notification must not redo it.
	if _, err := email.SendWithRetry(ctx, h.sender, msg, h.retry); err != nil {
		h.metrics.EmailSend(err)
		h.logger.Warn("export %s stored but notification failed: %v", res.Key, err)
		return nil
	}
	h.metrics.EmailSend(nil)
	return nil
}

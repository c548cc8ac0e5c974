package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"launchkit/internal/apperr"
	"launchkit/internal/events"
	"launchkit/internal/ids"
	"launchkit/internal/metrics"
	"launchkit/internal/models"
)

// Params describes one entry to write. Metadata is stored as JSON; nil stores no metadata.
type Params struct {
	Action     Action
	EntityType EntityType
	EntityID   string
	ActorID    string
	Metadata   map[string]any
}

// clockState is shared by a writer and its transaction-bound copies.
type clockState struct {
	mu   sync.Mutex
	last time.Time
}

type Writer struct {
	repo    Repository
	now     func() time.Time
	state   *clockState
	bus     *events.EventBus
	metrics *metrics.Metrics
}

type WriterOption func(*Writer)

func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) { w.now = now }
}

func WithEventBus(bus *events.EventBus) WriterOption {
	return func(w *Writer) { w.bus = bus }
}

func WithMetrics(m *metrics.Metrics) WriterOption {
	return func(w *Writer) { w.metrics = m }
}

func NewWriter(repo Repository, opts ...WriterOption) *Writer {
	w := &Writer{
		repo:  repo,
		now:   time.Now,
		state: &clockState{},
		bus:   events.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WithTx returns a writer whose inserts join tx. Timestamps stay ordered with the parent writer.
func (w *Writer) WithTx(tx *gorm.DB) *Writer {
	cp := *w
	cp.repo = w.repo.WithTx(tx)
	return &cp
}

// stamp returns a non-decreasing timestamp and an id ordered with it. Timestamps are
// truncated to microseconds so the stored value round-trips through postgres unchanged.
func (w *Writer) stamp() (string, time.Time) {
	w.state.mu.Lock()
	defer w.state.mu.Unlock()
	now := w.now().UTC().Truncate(time.Microsecond)
	if now.Before(w.state.last) {
		now = w.state.last
	}
	w.state.last = now
	return ids.NewAt(now), now
}

// CreateAuditLog appends one entry. Client IP and user agent come from the
// request attached with WithRequest. Insert failures are returned to the caller.
func (w *Writer) CreateAuditLog(ctx context.Context, p Params) (*models.AuditLog, error) {
	if !p.Action.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown audit action %q", p.Action), nil)
	}
	if !p.EntityType.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown audit entity type %q", p.EntityType), nil)
	}
	if p.EntityID == "" || p.ActorID == "" {
		return nil, apperr.Validation("audit entity id and actor id are required", nil)
	}

	var metadata datatypes.JSON
	if p.Metadata != nil {
		raw, err := json.Marshal(p.Metadata)
		if err != nil {
			return nil, apperr.Validation("audit metadata is not serializable", err)
		}
		metadata = datatypes.JSON(raw)
	}

	req := RequestFromContext(ctx)
	id, createdAt := w.stamp()
	entry := &models.AuditLog{
		ID:         id,
		Action:     string(p.Action),
		EntityType: string(p.EntityType),
		EntityID:   p.EntityID,
		ActorID:    p.ActorID,
		Metadata:   metadata,
		IPAddress:  req.IPAddress,
		UserAgent:  req.UserAgent,
		CreatedAt:  createdAt,
	}

	if err := w.repo.Insert(ctx, entry); err != nil {
		w.metrics.AuditWrite(entry.Action, err)
		return nil, fmt.Errorf("audit: insert %s: %w", entry.Action, err)
	}
	w.metrics.AuditWrite(entry.Action, nil)
	if w.bus != nil {
		w.bus.Emit(EventCreated, *entry)
	}
	return entry, nil
}

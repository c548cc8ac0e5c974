package tasks

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/apperr"
	"launchkit/internal/audit"
	"launchkit/internal/email"
	"launchkit/internal/models"
	"launchkit/internal/utils/logger"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (s *stubEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueCritical}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

func optionValue(opts []asynq.Option, typ asynq.OptionType) (interface{}, bool) {
	for _, o := range opts {
		if o.Type() == typ {
			return o.Value(), true
		}
	}
	return nil, false
}

func TestEnqueueEmailDisablesQueueRetries(t *testing.T) {
	stub := &stubEnqueuer{}
	c := &TaskClient{client: stub, logger: logger.New("test")}

	err := c.EnqueueEmail(context.Background(), email.Message{To: "a@b.c", Subject: "hi", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	require.Len(t, stub.tasks, 1)
	assert.Equal(t, TaskTypeEmailSend, stub.tasks[0].Type())

	var msg email.Message
	require.NoError(t, json.Unmarshal(stub.tasks[0].Payload(), &msg))
	assert.Equal(t, "a@b.c", msg.To)

	retries, ok := optionValue(stub.opts[0], asynq.MaxRetryOpt)
	require.True(t, ok)
	assert.Equal(t, 0, retries)
	queue, _ := optionValue(stub.opts[0], asynq.QueueOpt)
	assert.Equal(t, QueueCritical, queue)
}

func TestEnqueueAuditExportAssignsKey(t *testing.T) {
	stub := &stubEnqueuer{}
	c := &TaskClient{client: stub, logger: logger.New("test")}

	key, err := c.EnqueueAuditExport(context.Background(), AuditExportPayload{RequestedBy: "root"})
	require.NoError(t, err)
	assert.Len(t, key, 26)

	id, ok := optionValue(stub.opts[0], asynq.TaskIDOpt)
	require.True(t, ok)
	assert.Equal(t, key, id)
}

func TestEnqueueFailure(t *testing.T) {
	c := &TaskClient{client: &stubEnqueuer{err: errors.New("redis unavailable")}, logger: logger.New("test")}
	assert.Error(t, c.EnqueueEmail(context.Background(), email.Message{To: "a@b.c"}))
}

type stubSender struct {
	errs  []error
	calls int
	sent  []email.Message
}

func (s *stubSender) Send(_ context.Context, msg email.Message) (string, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	s.sent = append(s.sent, msg)
	return "msg-1", nil
}

var fastRetry = WithRetryPolicy(email.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond})

func emailTask(t *testing.T) *asynq.Task {
	data, err := json.Marshal(email.Message{To: "a@b.c", Subject: "hi"})
	require.NoError(t, err)
	return asynq.NewTask(TaskTypeEmailSend, data)
}

func TestHandleEmailSendRetriesInProcess(t *testing.T) {
	sender := &stubSender{errs: []error{errors.New("503"), errors.New("503")}}
	h := NewTaskHandler(sender, nil, nil, fastRetry)

	require.NoError(t, h.HandleEmailSend(context.Background(), emailTask(t)))
	assert.Equal(t, 3, sender.calls)
}

func TestHandleEmailSendGivesUp(t *testing.T) {
	boom := errors.New("503")
	sender := &stubSender{errs: []error{boom, boom, boom, boom}}
	h := NewTaskHandler(sender, nil, nil, fastRetry)

	err := h.HandleEmailSend(context.Background(), emailTask(t))
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
	assert.Equal(t, 3, sender.calls)
}

func TestHandleEmailSendSkipsRetryWhenRateLimited(t *testing.T) {
	sender := &stubSender{errs: []error{apperr.RateLimited("")}}
	h := NewTaskHandler(sender, nil, nil, fastRetry)

	err := h.HandleEmailSend(context.Background(), emailTask(t))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 1, sender.calls)
}

func TestHandleEmailSendRejectsBadPayload(t *testing.T) {
	h := NewTaskHandler(&stubSender{}, nil, nil)
	err := h.HandleEmailSend(context.Background(), asynq.NewTask(TaskTypeEmailSend, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

type sliceRepo struct {
	audit.Repository
	entries []models.AuditLog
}

func (r sliceRepo) Each(_ context.Context, _ audit.Filter, batchSize int, fn func([]models.AuditLog) error) error {
	for start := 0; start < len(r.entries); start += batchSize {
		end := start + batchSize
		if end > len(r.entries) {
			end = len(r.entries)
		}
		if err := fn(r.entries[start:end]); err != nil {
			return err
		}
	}
	return nil
}

type memStore struct {
	objects map[string][]byte
}

func (m *memStore) UploadObject(_ context.Context, key string, body []byte, _ string) error {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memStore) GetSignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + key + "?sig=1", nil
}

func TestHandleAuditExport(t *testing.T) {
	var entries []models.AuditLog
	for i := 0; i < 1203; i++ {
		entries = append(entries, models.AuditLog{ID: "id", Action: "user.create"})
	}
	store := &memStore{}
	sender := &stubSender{}
	h := NewTaskHandler(sender, nil, NewAuditExporter(sliceRepo{entries: entries}, store), fastRetry)

	data, err := json.Marshal(AuditExportPayload{Key: "exp1", NotifyEmail: "root@example.com"})
	require.NoError(t, err)
	require.NoError(t, h.HandleAuditExport(context.Background(), asynq.NewTask(TaskTypeAuditExport, data)))

	body := store.objects[ExportKey("exp1")]
	lines := 0
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		var e models.AuditLog
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		lines++
	}
	assert.Equal(t, 1203, lines)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "root@example.com", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].HTML, "1203 entries")
}

func TestCronHelpers(t *testing.T) {
	assert.NoError(t, ValidateCron("*/15 * * * *"))
	assert.Error(t, ValidateCron("every 15 minutes"))

	next, err := NextRun("*/15 * * * *", time.Date(2024, 1, 1, 10, 7, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC), next)
}

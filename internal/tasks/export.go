package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"launchkit/internal/audit"
	"launchkit/internal/models"
	"launchkit/internal/services"
)

const (
	exportBatchSize = 500
	exportLinkTTL   = 24 * time.Hour
)

// ExportKey is the object key an export with id is written to.
func ExportKey(id string) string {
	return fmt.Sprintf("audit-exports/%s.jsonl", id)
}

// AuditExporter writes audit entries to object storage as JSON lines, oldest first.
type AuditExporter struct {
	repo  audit.Repository
	store services.ObjectStore
}

func NewAuditExporter(repo audit.Repository, store services.ObjectStore) *AuditExporter {
	return &AuditExporter{repo: repo, store: store}
}

type ExportResult struct {
	Key   string
	URL   string
	Count int
}

func (e *AuditExporter) Export(ctx context.Context, p AuditExportPayload) (*ExportResult, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	count := 0
	err := e.repo.Each(ctx, p.Filter, exportBatchSize, func(batch []models.AuditLog) error {
		for i := range batch {
			if err := enc.Encode(&batch[i]); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit logs: %w", err)
	}

	key := ExportKey(p.Key)
	if err := e.store.UploadObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	url, err := e.store.GetSignedURL(ctx, key, exportLinkTTL)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}
	return &ExportResult{Key: key, URL: url, Count: count}, nil
}

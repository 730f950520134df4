package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/importer"
	"fintrack/internal/log"
)

// Preview is a normalized import that has not been written yet.
type Preview struct {
	Mapping  importer.Mapping `json:"mapping"`
	Detected bool             `json:"detected"`
	Headers  []string         `json:"headers"`
	Result   importer.Result  `json:"result"`
}

type ImportService struct {
	ledger    *LedgerService
	batchSize int
}

func NewImportService(ledger *LedgerService, batchSize int) *ImportService {
	if batchSize <= 0 {
		batchSize = importer.DefaultBatchSize
	}
	return &ImportService{ledger: ledger, batchSize: batchSize}
}

// Preview normalizes the table against the current taxonomy. A nil mapping is
// detected from the headers.
func (s *ImportService) Preview(ctx context.Context, table importer.Table, mapping *importer.Mapping) (Preview, error) {
	p := Preview{Headers: table.Headers}
	if mapping != nil {
		p.Mapping = *mapping
	} else {
		p.Mapping = importer.DetectMapping(table.Headers)
		p.Detected = true
	}

	snap, err := s.ledger.Snapshot(ctx)
	if err != nil {
		return Preview{}, err
	}

	res, err := importer.Normalize(table, p.Mapping, snap.Catalog, snap.Accounts)
	if err != nil {
		return Preview{}, fmt.Errorf("normalize import: %w", err)
	}
	p.Result = res

	slog.InfoContext(ctx, "Import preview ready",
		"rows", res.Total,
		"valid", res.Valid(),
		"errors", len(res.Errors),
		"unresolved", len(res.Unresolved()),
		"detected_mapping", p.Detected)
	return p, nil
}

// Commit writes the candidates in batches. See importer.Commit for the counting rules.
func (s *ImportService) Commit(ctx context.Context, candidates []importer.Candidate, onProgress func(importer.Progress)) (importer.CommitResult, error) {
	res, err := importer.Commit(ctx, s.ledger, candidates, importer.CommitOptions{
		BatchSize:  s.batchSize,
		OnProgress: onProgress,
	})

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogImportCommitted(ctx, res.Total, res.Imported, res.Failed, res.Skipped)
	if err != nil {
		return res, fmt.Errorf("commit import: %w", err)
	}
	return res, nil
}

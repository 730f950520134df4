package importer

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

const DefaultBatchSize = 50

// BatchWriter persists a batch of transactions atomically.
type BatchWriter interface {
	CreateTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error)
}

// Progress is reported after every batch.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
	Percent   int `json:"percent"`
}

type CommitOptions struct {
	BatchSize  int
	OnProgress func(Progress)
}

// CommitResult counts rows. Total is every candidate handed to Commit.
type CommitResult struct {
	Imported      int                `json:"imported"`
	Total         int                `json:"total"`
	Failed        int                `json:"failed"`
	Skipped       int                `json:"skipped"`
	FailedBatches int                `json:"failed_batches"`
	Created       []core.Transaction `json:"-"`
}

// Commit writes resolved candidates in sequential batches. A failed batch is
// counted and the next batch is still attempted. Unresolved candidates are
// skipped. When ctx is cancelled, Commit stops before the next batch and
// returns the counts so far with ctx.Err().
func Commit(ctx context.Context, w BatchWriter, candidates []Candidate, opts CommitOptions) (CommitResult, error) {
	size := opts.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}

	res := CommitResult{Total: len(candidates)}
	txs := make([]core.Transaction, 0, len(candidates))
	for _, c := range candidates {
		if !c.Resolved || c.SubcategoryID == "" {
			res.Skipped++
			continue
		}
		txs = append(txs, c.Transaction())
	}

	for start := 0; start < len(txs); start += size {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+size, len(txs))
		batch := txs[start:end]

		created, err := w.CreateTransactions(ctx, batch)
		if err != nil {
			res.Failed += len(batch)
			res.FailedBatches++
			slog.WarnContext(ctx, "Import batch failed",
				"component", "import",
				"batch_start", start,
				"batch_size", len(batch),
				"error", err)
		} else {
			res.Imported += len(batch)
			res.Created = append(res.Created, created...)
		}

		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				Processed: end,
				Total:     len(txs),
				Percent:   end * 100 / len(txs),
			})
		}
	}
	return res, nil
}

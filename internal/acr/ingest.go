package acr

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/horizonprm/horizon/internal/logging"
	"github.com/horizonprm/horizon/internal/metrics"
)

// Ingest defaults.
const (
	DefaultChunkSize = 50
	DefaultInterval  = time.Second
)

// BatchPoster uploads one JSON-array batch and returns the response text.
type BatchPoster interface {
	PostBatch(ctx context.Context, rows any) (string, error)
}

// IngestOptions tunes batching and pacing.
type IngestOptions struct {
	ChunkSize int           // default: 50
	Limiter   *rate.Limiter // default: one batch per second
	Logger    *zap.Logger
}

// IngestResult summarizes an upload.
type IngestResult struct {
	Total    int      `json:"total"`
	Uploaded int      `json:"uploaded"`
	Batches  int      `json:"batches"`
	Failed   int      `json:"failed_batches"`
	Errors   []string `json:"errors,omitempty"`
}

// Ingest uploads rows in chunks. A chunk counts as uploaded when the
// response mentions "Batch" or "Success"; failed chunks are reported and
// the upload continues. Only context cancellation stops it early.
func Ingest(ctx context.Context, poster BatchPoster, rows []Row, opts IngestOptions) (*IngestResult, error) {
	size := opts.ChunkSize
	if size <= 0 {
		size = DefaultChunkSize
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(DefaultInterval), 1)
	}
	log := logging.OrNop(opts.Logger).Named("acr")

	res := &IngestResult{Total: len(rows)}
	for start := 0; start < len(rows); start += size {
		if err := limiter.Wait(ctx); err != nil {
			return res, err
		}
		chunk := rows[start:min(start+size, len(rows))]
		res.Batches++

		text, err := poster.PostBatch(ctx, chunk)
		switch {
		case err != nil:
			res.Failed++
			res.Errors = append(res.Errors, err.Error())
			metrics.ImportedRows.WithLabelValues("failed").Add(float64(len(chunk)))
			log.Warn("batch failed", zap.Int("batch", res.Batches), zap.Error(err))
		case strings.Contains(text, "Batch") || strings.Contains(text, "Success"):
			res.Uploaded += len(chunk)
			metrics.ImportedRows.WithLabelValues("uploaded").Add(float64(len(chunk)))
			log.Info("batch uploaded", zap.Int("batch", res.Batches), zap.Int("rows", len(chunk)))
		default:
			res.Failed++
			res.Errors = append(res.Errors, text)
			metrics.ImportedRows.WithLabelValues("failed").Add(float64(len(chunk)))
			log.Warn("batch rejected", zap.Int("batch", res.Batches), zap.String("response", text))
		}

		if ctx.Err() != nil {
			return res, ctx.Err()
		}
	}
	return res, nil
}

// ImportFile parses the export at path and ingests its rows.
func ImportFile(ctx context.Context, path string, poster BatchPoster, loc *time.Location, opts IngestOptions) (Stats, *IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, nil, err
	}
	defer f.Close()

	rows, stats, err := Parse(f, loc)
	if err != nil {
		return stats, nil, err
	}
	res, err := Ingest(ctx, poster, rows, opts)
	return stats, res, err
}

package export

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

// journalRecord is one JSONL line: the batch's progress plus the entries
// that first appeared in it. Unlike the CSV files this is a true append-only
// audit trail, so size-based rotation keeps it bounded.
type journalRecord struct {
	Batch         int           `json:"batch"`
	TotalBatches  int           `json:"total_batches,omitempty"`
	InBatch       int           `json:"in_batch"`
	Cumulative    int           `json:"cumulative"`
	CompletedAt   time.Time     `json:"completed_at"`
	HighCount     int           `json:"high_count"`
	CriticalCount int           `json:"critical_count"`
	NewEntries    []model.Entry `json:"new_entries,omitempty"`
}

// JournalSink appends one JSON line per merged batch to a rotating file.
type JournalSink struct {
	mu  sync.Mutex
	out *lumberjack.Logger
}

// NewJournalSink creates a journal writing to path, rotating at maxSizeMB
// and keeping maxBackups rotated files.
func NewJournalSink(path string, maxSizeMB, maxBackups int) *JournalSink {
	return &JournalSink{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   true,
		},
	}
}

// Name implements the exporter contract.
func (j *JournalSink) Name() string { return "journal" }

// Export appends the batch record. Only entries born in this batch are
// journaled; the cumulative state is reconstructible by replaying lines.
func (j *JournalSink) Export(_ context.Context, snap *repository.Snapshot, rec model.BatchProgress) error {
	start := time.Now()
	defer func() {
		metrics.RecordExportDuration(float64(time.Since(start).Milliseconds()))
	}()

	line := journalRecord{
		Batch:         rec.Batch,
		TotalBatches:  rec.TotalBatches,
		InBatch:       rec.InBatch,
		Cumulative:    rec.Cumulative,
		CompletedAt:   rec.CompletedAt,
		HighCount:     rec.HighCount,
		CriticalCount: rec.CriticalCount,
	}
	for _, e := range snap.Entries {
		if e.Batch == rec.Batch {
			line.NewEntries = append(line.NewEntries, e)
		}
	}

	data, err := json.Marshal(line)
	if err != nil {
		return fmt.Errorf("marshaling journal record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.out.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing journal: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying rotating file.
func (j *JournalSink) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out.Close()
}

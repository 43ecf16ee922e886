// Package export persists batch outcomes: CSV files rewritten after every
// merge for downstream consumers, and a rotating JSONL journal for audit.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/sristy17/insider-Threat-Detection/internal/adapters/repository"
	"github.com/sristy17/insider-Threat-Detection/internal/domain/model"
	"github.com/sristy17/insider-Threat-Detection/pkg/metrics"
)

var scoredHeader = []string{"rank", "employee_id", "role", "score", "raw_risk", "tier", "partial", "batch"}

var progressHeader = []string{"batch", "total_batches", "in_batch", "cumulative", "completed_at", "high_count", "critical_count"}

// CSVSink rewrites the cumulative scored ranking and the batch progress
// history after every merge. Scores shift globally on every batch, so an
// append-only scored file would go stale immediately; full rewrites keep
// the files trustworthy at any point in time.
type CSVSink struct {
	scoredPath   string
	progressPath string
}

// NewCSVSink creates a sink writing the given file paths. Either path may
// be empty to disable that file.
func NewCSVSink(scoredPath, progressPath string) *CSVSink {
	return &CSVSink{scoredPath: scoredPath, progressPath: progressPath}
}

// Name implements the exporter contract.
func (s *CSVSink) Name() string { return "csv" }

// Export writes both files. The snapshot already carries the full ranked
// population; the progress history is rebuilt from what the sink is given
// plus what it wrote before, so only the latest record is appended.
func (s *CSVSink) Export(_ context.Context, snap *repository.Snapshot, rec model.BatchProgress) error {
	start := time.Now()
	defer func() {
		metrics.RecordExportDuration(float64(time.Since(start).Milliseconds()))
	}()

	if s.scoredPath != "" {
		if err := writeScoredCSV(s.scoredPath, snap.Entries); err != nil {
			return fmt.Errorf("writing scored csv: %w", err)
		}
	}
	if s.progressPath != "" {
		if err := appendProgressCSV(s.progressPath, rec); err != nil {
			return fmt.Errorf("writing progress csv: %w", err)
		}
	}
	return nil
}

// writeScoredCSV atomically replaces the scored ranking file: write to a
// temp file in the same directory, then rename over the target.
func writeScoredCSV(path string, entries []model.Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(scoredHeader); err != nil {
		tmp.Close()
		return err
	}
	for _, e := range entries {
		row := []string{
			strconv.Itoa(e.Rank),
			e.EmployeeID,
			e.Role,
			strconv.FormatFloat(e.Score, 'g', -1, 64),
			strconv.FormatFloat(e.RawRisk, 'g', -1, 64),
			string(e.Tier),
			strconv.FormatBool(e.Partial),
			strconv.Itoa(e.Batch),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// appendProgressCSV appends one progress row, writing the header first on a
// fresh file. Progress records are append-only, so appends are safe.
func appendProgressCSV(path string, rec model.BatchProgress) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	writeHeader := false
	if info, err := os.Stat(path); os.IsNotExist(err) || (err == nil && info.Size() == 0) {
		writeHeader = true
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(progressHeader); err != nil {
			return err
		}
	}
	row := []string{
		strconv.Itoa(rec.Batch),
		strconv.Itoa(rec.TotalBatches),
		strconv.Itoa(rec.InBatch),
		strconv.Itoa(rec.Cumulative),
		rec.CompletedAt.UTC().Format(time.RFC3339Nano),
		strconv.Itoa(rec.HighCount),
		strconv.Itoa(rec.CriticalCount),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

// LoadScoredCSV reads a scored ranking file back into entries, in file
// order. Round-trips exactly what writeScoredCSV produced.
func LoadScoredCSV(path string) ([]model.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	entries := make([]model.Entry, 0, len(rows)-1)
	for i, row := range rows[1:] {
		e, err := parseScoredRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func parseScoredRow(row []string) (model.Entry, error) {
	if len(row) != len(scoredHeader) {
		return model.Entry{}, fmt.Errorf("expected %d columns, got %d", len(scoredHeader), len(row))
	}
	rank, err := strconv.Atoi(row[0])
	if err != nil {
		return model.Entry{}, fmt.Errorf("rank: %w", err)
	}
	score, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return model.Entry{}, fmt.Errorf("score: %w", err)
	}
	raw, err := strconv.ParseFloat(row[4], 64)
	if err != nil {
		return model.Entry{}, fmt.Errorf("raw_risk: %w", err)
	}
	partial, err := strconv.ParseBool(row[6])
	if err != nil {
		return model.Entry{}, fmt.Errorf("partial: %w", err)
	}
	batch, err := strconv.Atoi(row[7])
	if err != nil {
		return model.Entry{}, fmt.Errorf("batch: %w", err)
	}
	return model.Entry{
		Rank:       rank,
		EmployeeID: row[1],
		Role:       row[2],
		Score:      score,
		RawRisk:    raw,
		Tier:       model.Tier(row[5]),
		Partial:    partial,
		Batch:      batch,
	}, nil
}

// LoadProgressCSV reads a progress history file back into records.
func LoadProgressCSV(path string) ([]model.BatchProgress, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	recs := make([]model.BatchProgress, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseProgressRow(row)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", path, i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func parseProgressRow(row []string) (model.BatchProgress, error) {
	if len(row) != len(progressHeader) {
		return model.BatchProgress{}, fmt.Errorf("expected %d columns, got %d", len(progressHeader), len(row))
	}
	ints := make([]int, 6)
	for i, idx := range []int{0, 1, 2, 3, 5, 6} {
		v, err := strconv.Atoi(row[idx])
		if err != nil {
			return model.BatchProgress{}, fmt.Errorf("%s: %w", progressHeader[idx], err)
		}
		ints[i] = v
	}
	at, err := time.Parse(time.RFC3339Nano, row[4])
	if err != nil {
		return model.BatchProgress{}, fmt.Errorf("completed_at: %w", err)
	}
	return model.BatchProgress{
		Batch:         ints[0],
		TotalBatches:  ints[1],
		InBatch:       ints[2],
		Cumulative:    ints[3],
		CompletedAt:   at,
		HighCount:     ints[4],
		CriticalCount: ints[5],
	}, nil
}

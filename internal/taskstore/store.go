package taskstore

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/gofrs/flock"
)

// ErrTerminalTransition is returned when an upsert would move a record out of
// a terminal status.
var ErrTerminalTransition = errors.New("job already terminal")

// ErrUnknownStatus is returned when an upsert carries a status outside the
// closed enum.
var ErrUnknownStatus = errors.New("unknown job status")

var columns = []string{
	"job_id", "project", "target", "prompt", "model", "status",
	"output_path", "source_url", "created_at", "updated_at",
	"error", "poll_count", "workdir", "target_duration",
}

// Store manages job persistence backed by a flat CSV file. All mutations are
// serialized by a single mutex and flushed synchronously, so any read that
// follows an upsert observes it.
type Store struct {
	path string
	lock *flock.Flock

	mu   sync.Mutex
	rows map[string]Record
}

// Open initializes or loads the task table at path. A missing file is created
// header-only. Rows that fail to parse are skipped. The backing file is
// guarded by an advisory lock so two processes cannot write it concurrently.
func Open(path string) (*Store, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve task table path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("create task table directory: %w", err)
	}

	lock := flock.New(abs + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire task table lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("task table %s is locked by another process", abs)
	}

	store := &Store{path: abs, lock: lock, rows: make(map[string]Record)}
	if err := store.load(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the advisory lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Path returns the resolved location of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Upsert inserts or replaces a record keyed by JobID and synchronously
// rewrites the table. Status values outside the closed enum are rejected, as
// is any transition out of a terminal status.
func (s *Store) Upsert(rec Record) error {
	if rec.JobID == "" {
		return errors.New("record has no job id")
	}
	if !rec.Status.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, rec.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rows[rec.JobID]; ok {
		if existing.IsTerminal() && existing.Status != rec.Status {
			return fmt.Errorf("%w: %s is %s", ErrTerminalTransition, rec.JobID, existing.Status)
		}
	}
	s.rows[rec.JobID] = rec
	return s.flush()
}

// Get returns one record by job id.
func (s *Store) Get(jobID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.rows[jobID]
	return rec, ok
}

// All returns a snapshot of every record, ordered by creation time then id.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Record, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].JobID < out[j].JobID
	})
	return out
}

// Summarize aggregates record counts for diagnostic output.
func (s *Store) Summarize() Summary {
	var sum Summary
	for _, rec := range s.All() {
		sum.Total++
		switch {
		case rec.Status == StatusSucceeded:
			sum.Succeeded++
		case rec.IsTerminal():
			sum.Failed++
		default:
			sum.Active++
		}
	}
	return sum
}

func (s *Store) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.flushLocked()
		}
		return fmt.Errorf("open task table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header := true
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Corrupt row: skip, never rewrite in place.
			continue
		}
		if header {
			header = false
			continue
		}
		rec, ok := parseRow(row)
		if !ok {
			continue
		}
		s.rows[rec.JobID] = rec
	}
	return nil
}

// flush rewrites the whole table under the store mutex. O(n) per write, which
// is fine at the tens-to-hundreds of jobs a pipeline run produces.
func (s *Store) flush() error {
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	tmp := s.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create temp task table: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		_ = file.Close()
		return fmt.Errorf("write task table header: %w", err)
	}

	ordered := make([]Record, 0, len(s.rows))
	for _, rec := range s.rows {
		ordered = append(ordered, rec)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].CreatedAt != ordered[j].CreatedAt {
			return ordered[i].CreatedAt < ordered[j].CreatedAt
		}
		return ordered[i].JobID < ordered[j].JobID
	})

	for _, rec := range ordered {
		if err := writer.Write(formatRow(rec)); err != nil {
			_ = file.Close()
			return fmt.Errorf("write task table row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		_ = file.Close()
		return fmt.Errorf("flush task table: %w", err)
	}
	if err := file.Sync(); err != nil {
		_ = file.Close()
		return fmt.Errorf("sync task table: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp task table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace task table: %w", err)
	}
	return nil
}

func formatRow(rec Record) []string {
	return []string{
		rec.JobID,
		rec.Project,
		rec.Target,
		rec.Prompt,
		rec.Model,
		string(rec.Status),
		rec.OutputPath,
		rec.SourceURL,
		strconv.FormatInt(rec.CreatedAt, 10),
		strconv.FormatInt(rec.UpdatedAt, 10),
		rec.Error,
		strconv.Itoa(rec.PollCount),
		rec.Workdir,
		strconv.FormatFloat(rec.TargetDuration, 'f', -1, 64),
	}
}

func parseRow(row []string) (Record, bool) {
	if len(row) < len(columns) {
		return Record{}, false
	}
	status, ok := ParseStatus(row[5])
	if !ok {
		return Record{}, false
	}
	created, err := strconv.ParseInt(row[8], 10, 64)
	if err != nil {
		return Record{}, false
	}
	updated, err := strconv.ParseInt(row[9], 10, 64)
	if err != nil {
		return Record{}, false
	}
	pollCount, err := strconv.Atoi(row[11])
	if err != nil {
		return Record{}, false
	}
	duration, err := strconv.ParseFloat(row[13], 64)
	if err != nil {
		duration = 0
	}

	rec := Record{
		JobID:          row[0],
		Project:        row[1],
		Target:         row[2],
		Prompt:         row[3],
		Model:          row[4],
		Status:         status,
		OutputPath:     row[6],
		SourceURL:      row[7],
		CreatedAt:      created,
		UpdatedAt:      updated,
		Error:          row[10],
		PollCount:      pollCount,
		Workdir:        row[12],
		TargetDuration: duration,
	}
	if rec.JobID == "" {
		return Record{}, false
	}
	return rec, true
}

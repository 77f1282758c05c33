package taskstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "tasks.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(id string) Record {
	now := time.Now().Unix()
	return Record{
		JobID:          id,
		Project:        "demo",
		Target:         "L1",
		Prompt:         "a meteor strikes the earth",
		Model:          "Wan-AI/Wan2.2-T2V-A14B",
		Status:         StatusSubmitted,
		CreatedAt:      now,
		UpdatedAt:      now,
		Workdir:        "/tmp/demo",
		TargetDuration: 5,
	}
}

func TestOpenMissingFileWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read table: %v", err)
	}
	if !strings.HasPrefix(string(data), "job_id,") {
		t.Fatalf("expected header-only file, got %q", string(data))
	}
	if got := len(store.All()); got != 0 {
		t.Fatalf("expected empty store, got %d rows", got)
	}
}

func TestUpsertIsIdempotentPerJobID(t *testing.T) {
	store := openTestStore(t)

	rec := sampleRecord("job-1")
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	rec.PollCount = 3
	rec.Status = StatusRunning
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	all := store.All()
	if len(all) != 1 {
		t.Fatalf("expected exactly one row, got %d", len(all))
	}
	if all[0].PollCount != 3 || all[0].Status != StatusRunning {
		t.Fatalf("latest values not retained: %+v", all[0])
	}
}

func TestUpsertSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	rec := sampleRecord("job-1")
	rec.Prompt = "prompt with, comma and \"quote\""
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, ok := reopened.Get("job-1")
	if !ok {
		t.Fatal("record missing after reopen")
	}
	if got.Prompt != rec.Prompt {
		t.Fatalf("prompt = %q, want %q", got.Prompt, rec.Prompt)
	}
	if got.TargetDuration != 5 {
		t.Fatalf("target duration = %v, want 5", got.TargetDuration)
	}
}

func TestTerminalTransitionRejected(t *testing.T) {
	store := openTestStore(t)

	rec := sampleRecord("job-1")
	rec.Status = StatusSucceeded
	rec.OutputPath = "/tmp/demo/L1.mp4"
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("Upsert terminal: %v", err)
	}

	rec.Status = StatusRunning
	err := store.Upsert(rec)
	if !errors.Is(err, ErrTerminalTransition) {
		t.Fatalf("expected ErrTerminalTransition, got %v", err)
	}

	// Same terminal status may be rewritten (repair pass updates output_path).
	rec.Status = StatusSucceeded
	rec.OutputPath = "/tmp/demo/L1_repaired.mp4"
	if err := store.Upsert(rec); err != nil {
		t.Fatalf("repair upsert: %v", err)
	}
	got, _ := store.Get("job-1")
	if got.OutputPath != "/tmp/demo/L1_repaired.mp4" {
		t.Fatalf("output path not updated: %q", got.OutputPath)
	}
}

func TestUnknownStatusRejected(t *testing.T) {
	store := openTestStore(t)
	rec := sampleRecord("job-1")
	rec.Status = Status("succeed")
	if err := store.Upsert(rec); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestLoadSkipsCorruptRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	content := strings.Join([]string{
		strings.Join(columns, ","),
		"job-1,demo,L1,p,m,Submitted,,,100,100,,0,/tmp,5",
		"garbage row that is not long enough",
		"job-2,demo,L2,p,m,NotAStatus,,,100,100,,0,/tmp,5",
		"job-3,demo,L3,p,m,Queued,,,101,101,,1,/tmp,3",
	}, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("seed table: %v", err)
	}

	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	all := store.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 parseable rows, got %d", len(all))
	}
	if all[0].JobID != "job-1" || all[1].JobID != "job-3" {
		t.Fatalf("unexpected rows: %+v", all)
	}
}

func TestSecondOpenOnSamePathFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.csv")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected second Open on the same path to fail while locked")
	}
}

func TestSummarize(t *testing.T) {
	store := openTestStore(t)

	states := []Status{StatusSubmitted, StatusRunning, StatusSucceeded, StatusFailed, StatusError}
	for i, status := range states {
		rec := sampleRecord("job-" + string(rune('a'+i)))
		rec.Status = status
		if err := store.Upsert(rec); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	sum := store.Summarize()
	if sum.Total != 5 || sum.Active != 2 || sum.Succeeded != 1 || sum.Failed != 2 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestStatusParseIsCaseSensitive(t *testing.T) {
	if _, ok := ParseStatus("succeeded"); ok {
		t.Fatal("lowercase status must not parse")
	}
	status, ok := ParseStatus("Succeeded")
	if !ok || !status.IsTerminal() {
		t.Fatalf("Succeeded should parse terminal, got %v %v", status, ok)
	}
	status, ok = ParseStatus("Queued")
	if !ok || status.IsTerminal() {
		t.Fatalf("Queued should parse non-terminal, got %v %v", status, ok)
	}
}

package preflight

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestCheckDirectoryAccess(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("Workdir", dir)
	if !result.Passed {
		t.Fatalf("temp dir should pass: %+v", result)
	}

	result = CheckDirectoryAccess("Workdir", filepath.Join(dir, "missing"))
	if result.Passed || !strings.Contains(result.Detail, "does not exist") {
		t.Fatalf("missing dir should fail: %+v", result)
	}
}

func TestCheckDiskSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDiskSpace("Disk space", dir, 1); !result.Passed {
		t.Fatalf("1 byte floor should pass: %+v", result)
	}
	// An impossible floor fails with a readable detail.
	result := CheckDiskSpace("Disk space", dir, 1<<62)
	if result.Passed {
		t.Fatalf("impossible floor should fail: %+v", result)
	}
	if !strings.Contains(result.Detail, "free") {
		t.Fatalf("detail should report free space: %+v", result)
	}
}

func TestPassed(t *testing.T) {
	if !Passed([]Result{{Passed: true}, {Passed: true}}) {
		t.Error("all-pass should report true")
	}
	if Passed([]Result{{Passed: true}, {Passed: false}}) {
		t.Error("any failure should report false")
	}
}

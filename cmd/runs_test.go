package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/swarmbench/internal/store"
)

func writeRun(t *testing.T, base, dir string, age time.Duration) {
	t.Helper()
	writeRunWithSummary(t, base, dir, age, []float64{3, 2, 1})
}

func writeRunWithSummary(t *testing.T, base, dir string, age time.Duration, progress []float64) {
	t.Helper()
	runs, err := store.NewFSStore(base)
	if err != nil {
		t.Fatal(err)
	}
	summary := store.Summary{GlobalBestFitness: store.Numbers(progress), EvaluationCount: 12}
	if err := runs.SaveArtifact(dir, store.SummaryFile, summary); err != nil {
		t.Fatalf("Failed to write summary: %v", err)
	}
	config := store.RunConfig{
		Problem: store.ProblemInfo{Name: "cec17_f1", Dim: 2},
		Method:  store.MethodInfo{Name: "PSO"},
	}
	if err := runs.SaveArtifact(dir, store.ConfigFile, config); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	mtime := time.Now().Add(-age)
	if err := os.Chtimes(filepath.Join(runs.RunPath(dir), store.SummaryFile), mtime, mtime); err != nil {
		t.Fatalf("Failed to set mtime: %v", err)
	}
}

func TestSelectRunsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{Dir: "run1", ModTime: now.AddDate(0, 0, -10)}, // 10 days old
		{Dir: "run2", ModTime: now.AddDate(0, 0, -5)},  // 5 days old
		{Dir: "run3", ModTime: now.AddDate(0, 0, -1)},  // 1 day old
		{Dir: "run4", ModTime: now.AddDate(0, 0, -30)}, // 30 days old
	}

	toDelete := selectRunsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	if toDelete[0].Dir != "run1" || toDelete[1].Dir != "run4" {
		t.Errorf("Expected run1 and run4 to be selected, got %s and %s", toDelete[0].Dir, toDelete[1].Dir)
	}
}

func TestSelectRunsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{Dir: "run1", ModTime: now.AddDate(0, 0, -10)},
		{Dir: "run2", ModTime: now.AddDate(0, 0, -5)},
		{Dir: "run3", ModTime: now.AddDate(0, 0, -1)},
		{Dir: "run4", ModTime: now.AddDate(0, 0, -30)},
	}

	toDelete := selectRunsForDeletion(infos, 2, 0)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 runs to delete, got %d", len(toDelete))
	}
	// oldest first
	if toDelete[0].Dir != "run4" || toDelete[1].Dir != "run1" {
		t.Errorf("Expected run4 and run1 (oldest), got %s and %s", toDelete[0].Dir, toDelete[1].Dir)
	}
}

func TestSelectRunsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.RunInfo{
		{Dir: "run1", ModTime: now.AddDate(0, 0, -10)},
		{Dir: "run2", ModTime: now.AddDate(0, 0, -5)},
		{Dir: "run3", ModTime: now.AddDate(0, 0, -1)},
		{Dir: "run4", ModTime: now.AddDate(0, 0, -30)},
		{Dir: "run5", ModTime: now.AddDate(0, 0, -2)},
	}

	// run1 and run4 by age, then keeping 2 also selects run2
	toDelete := selectRunsForDeletion(infos, 2, 7)

	if len(toDelete) != 3 {
		t.Fatalf("Expected 3 runs to delete without duplicates, got %d", len(toDelete))
	}
	if toDelete[2].Dir != "run2" {
		t.Errorf("Expected run2 to be selected by count, got %s", toDelete[2].Dir)
	}
}

func TestGetDirSize(t *testing.T) {
	tmpDir := t.TempDir()

	testFile := filepath.Join(tmpDir, "test.txt")
	content := []byte("Hello, World!")
	if err := os.WriteFile(testFile, content, 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	size, err := getDirSize(tmpDir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}

	if size < int64(len(content)) {
		t.Errorf("Expected size >= %d, got %d", len(content), size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{1073741824, "1.0 GB"},
	}

	for _, tt := range tests {
		result := formatBytes(tt.bytes)
		if result != tt.expected {
			t.Errorf("formatBytes(%d) = %s, expected %s", tt.bytes, result, tt.expected)
		}
	}
}

func TestDisplayRun(t *testing.T) {
	if got := displayRun("runs/abc"); got != "runs/abc" {
		t.Errorf("Expected short dir unchanged, got %s", got)
	}
	long := "grid_search/10/pso/cec17_f1/phi_p=-4.00_phi_g=-4.00"
	got := displayRun(long)
	if len(got) != 40 || got[:3] != "..." {
		t.Errorf("Expected 40 char display ending the dir, got %q", got)
	}
}

func TestRunsListCommand_NoRuns(t *testing.T) {
	originalDataDir := runsDataDir
	runsDataDir = t.TempDir()
	defer func() { runsDataDir = originalDataDir }()

	var buf bytes.Buffer
	listRunsCmd.SetOut(&buf)
	if err := runListRuns(listRunsCmd, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "No runs found in "+runsDataDir) {
		t.Errorf("Unexpected output: %s", buf.String())
	}
}

func TestRunsListCommand_WithRuns(t *testing.T) {
	tmpDir := t.TempDir()
	writeRun(t, tmpDir, "runs/a", 0)
	writeRun(t, tmpDir, "grid_search/2/pso/cec17_f1/phi_p=1.00_phi_g=1.00", time.Hour)
	writeRunWithSummary(t, tmpDir, "runs/b", 0, []float64{3, 1, 2})

	originalDataDir := runsDataDir
	runsDataDir = tmpDir
	defer func() { runsDataDir = originalDataDir }()

	var buf bytes.Buffer
	listRunsCmd.SetOut(&buf)
	if err := runListRuns(listRunsCmd, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Total runs: 3") {
		t.Errorf("Expected 3 runs, got: %s", out)
	}
	if !strings.Contains(out, "Invalid summaries: 1") {
		t.Errorf("Expected the regressed run to be flagged, got: %s", out)
	}
}

func TestRunsShowCommand(t *testing.T) {
	tmpDir := t.TempDir()
	writeRunWithSummary(t, tmpDir, "runs/a", 0, []float64{3, 1, 2})

	tw, err := store.NewTraceWriter(filepath.Join(tmpDir, "runs", "a"), false)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	for i := 0; i < 3; i++ {
		entry := store.TraceEntry{Iteration: i, BestFitness: 1, Timestamp: start.Add(time.Duration(i) * time.Second)}
		if err := tw.Write(entry); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}

	originalDataDir := runsDataDir
	runsDataDir = tmpDir
	defer func() { runsDataDir = originalDataDir }()

	var buf bytes.Buffer
	showRunCmd.SetOut(&buf)
	if err := runShowRun(showRunCmd, []string{"runs/a"}); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"cec17_f1 (dim 2)", "Iterations:  3", "invalid: ", "regressed at iteration 2", "Trace:       3 entries over 2s"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}

	if err := runShowRun(showRunCmd, []string{"runs/missing"}); err == nil {
		t.Error("Expected error for a missing run")
	}
}

func TestRunsCleanCommand_NoFlags(t *testing.T) {
	originalDataDir := runsDataDir
	runsDataDir = t.TempDir()
	defer func() { runsDataDir = originalDataDir }()

	keepLast = 0
	olderThanDays = 0

	if err := runCleanRuns(nil, nil); err == nil {
		t.Error("Expected error when no flags specified")
	}
}

func TestRunsCleanCommand_WithForce(t *testing.T) {
	tmpDir := t.TempDir()
	writeRun(t, tmpDir, "runs/old", 30*24*time.Hour)
	writeRun(t, tmpDir, "runs/new", 0)

	originalDataDir := runsDataDir
	runsDataDir = tmpDir
	defer func() { runsDataDir = originalDataDir }()

	keepLast = 0
	olderThanDays = 7
	forceClean = true
	defer func() { olderThanDays = 0; forceClean = false }()

	if err := runCleanRuns(nil, nil); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if _, err := os.Stat(filepath.Join(tmpDir, "runs", "old")); !os.IsNotExist(err) {
		t.Error("Expected old run to be deleted")
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "runs", "new", store.SummaryFile)); err != nil {
		t.Errorf("Expected new run to survive: %v", err)
	}
}

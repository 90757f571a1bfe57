package store

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// saveTestRun writes a config and summary into runDir.
func saveTestRun(t *testing.T, store *FSStore, runDir string, fitness ...float64) {
	t.Helper()

	config := RunConfig{
		Problem: ProblemInfo{Name: "cec17_f1", Dim: 10},
		Method: MethodInfo{
			Name:       "PSO",
			Parameters: map[string]json.Number{"w": "0.8", "particle_count": "30"},
		},
	}
	summary := Summary{GlobalBestFitness: Numbers(fitness), EvaluationCount: 42}

	if err := store.SaveArtifact(runDir, ConfigFile, config); err != nil {
		t.Fatalf("SaveArtifact config failed: %v", err)
	}
	if err := store.SaveArtifact(runDir, SummaryFile, summary); err != nil {
		t.Fatalf("SaveArtifact summary failed: %v", err)
	}
}

func TestNewFSStore(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(base)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != base {
		t.Errorf("Expected base %s, got %s", base, store.BaseDir())
	}
	if _, err := os.Stat(base); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestWriteJSON_Atomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run", SummaryFile)

	if err := writeJSON(path, Summary{GlobalBestFitness: Numbers([]float64{3, 2}), EvaluationCount: 7}); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Artifact not created: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"global_best_fitness":[3,2],"evaluation_count":7}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestWriteJSON_NonFiniteNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), DataFile)

	records := []IterationRecord{{
		GlobalBestFitness: 1,
		Particles: []ParticleRecord{{
			Fitness: Number(math.Inf(1)),
			Vel:     Numbers([]float64{math.NaN()}),
			Pos:     Numbers([]float64{math.Inf(-1)}),
		}},
	}}
	if err := writeJSON(path, records); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	want := `[{"global_best_fitness":1,"particles":[{"fitness":null,"vel":[null],"pos":[null]}]}]`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}

	var back []IterationRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !math.IsNaN(float64(back[0].Particles[0].Fitness)) {
		t.Errorf("Expected null to decode as NaN")
	}
}

func TestSaveAndLoadSummary(t *testing.T) {
	store, _ := setupTestStore(t)

	saveTestRun(t, store, "pso/run1", 10, 5, 5, 1)

	summary, err := store.LoadSummary("pso/run1")
	if err != nil {
		t.Fatalf("LoadSummary failed: %v", err)
	}
	if len(summary.GlobalBestFitness) != 4 {
		t.Errorf("Expected 4 iterations, got %d", len(summary.GlobalBestFitness))
	}
	if summary.EvaluationCount != 42 {
		t.Errorf("Expected 42 evaluations, got %d", summary.EvaluationCount)
	}

	config, err := store.LoadConfig("pso/run1")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Method.Parameters["particle_count"] != "30" {
		t.Errorf("Expected particle_count 30, got %s", config.Method.Parameters["particle_count"])
	}
}

func TestLoadSummary_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadSummary("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestLoadSummary_Corrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runDir := filepath.Join(tempDir, "bad")
	os.MkdirAll(runDir, 0755)
	os.WriteFile(filepath.Join(runDir, SummaryFile), []byte("{not json"), 0644)

	_, err := store.LoadSummary("bad")
	if err == nil {
		t.Fatal("Expected error for corrupted summary")
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Corrupted summary should not be reported as not found")
	}
}

func TestListRuns(t *testing.T) {
	store, tempDir := setupTestStore(t)

	saveTestRun(t, store, "b/run", 3, 2)
	saveTestRun(t, store, "a/run", 9, 8, 7)

	// directory without summary is ignored
	os.MkdirAll(filepath.Join(tempDir, "empty"), 0755)

	// corrupted summary is skipped
	os.MkdirAll(filepath.Join(tempDir, "corrupt"), 0755)
	os.WriteFile(filepath.Join(tempDir, "corrupt", SummaryFile), []byte("]"), 0644)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(infos))
	}

	if infos[0].Dir != filepath.Join("a", "run") {
		t.Errorf("Expected runs sorted by dir, got %s first", infos[0].Dir)
	}
	if infos[0].Iterations != 3 || infos[0].FinalFitness != 7 {
		t.Errorf("Unexpected info: %+v", infos[0])
	}
	if infos[0].Method != "PSO" || infos[0].Problem != "cec17_f1" || infos[0].Dim != 10 {
		t.Errorf("Config metadata missing: %+v", infos[0])
	}
	if infos[0].ModTime.IsZero() {
		t.Error("Expected ModTime to be set")
	}
}

func TestListRuns_FlagsRegressedSummary(t *testing.T) {
	store, _ := setupTestStore(t)

	saveTestRun(t, store, "sound", 3, 2, 2)
	saveTestRun(t, store, "regressed", 3, 1, 2)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(infos))
	}

	// sorted by dir: regressed, sound
	if !strings.Contains(infos[0].Issue, "regressed at iteration 2") {
		t.Errorf("Expected regression issue, got %q", infos[0].Issue)
	}
	if infos[1].Issue != "" {
		t.Errorf("Expected no issue for a non-increasing summary, got %q", infos[1].Issue)
	}
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected no runs, got %d", len(infos))
	}
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	saveTestRun(t, store, "gone", 1)

	if err := store.DeleteRun("gone"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "gone")); !os.IsNotExist(err) {
		t.Error("Run directory should be removed")
	}

	if err := store.DeleteRun("gone"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if err := store.DeleteRun(""); err == nil {
		t.Error("Expected error for empty run dir")
	}
}

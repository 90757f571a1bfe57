package store

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// writeJSON atomically writes v as JSON to path, creating parent directories.
// Uses temp file + rename so readers never see a partial artifact.
func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", filepath.Base(path), err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}

	slog.Debug("Artifact saved", "path", path, "bytes", len(data))
	return nil
}

// readJSON decodes path into v, mapping a missing file to NotFoundError.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &NotFoundError{Path: path}
	} else if err != nil {
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to deserialize %s: %w", filepath.Base(path), err)
	}
	return nil
}

// FSStore implements the Store interface on a directory tree rooted at
// baseDir. Run directories may be nested (e.g. <problem>/<combination>).
//
// Thread-safety: artifacts are written with atomic renames and no state is
// kept in memory, so concurrent runs writing to distinct directories are safe.
type FSStore struct {
	baseDir string
}

// NewFSStore creates a new filesystem-based store.
// The baseDir will be created if it doesn't exist.
func NewFSStore(baseDir string) (*FSStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FSStore{
		baseDir: baseDir,
	}, nil
}

// BaseDir returns the root directory of the store.
func (s *FSStore) BaseDir() string {
	return s.baseDir
}

// RunPath returns the absolute location of a run directory.
func (s *FSStore) RunPath(runDir string) string {
	return filepath.Join(s.baseDir, runDir)
}

// SaveArtifact atomically writes v as JSON into the run directory.
func (s *FSStore) SaveArtifact(runDir, name string, v any) error {
	if name == "" {
		return fmt.Errorf("artifact name cannot be empty")
	}
	return writeJSON(filepath.Join(s.RunPath(runDir), name), v)
}

// LoadSummary reads summary.json of a run.
func (s *FSStore) LoadSummary(runDir string) (*Summary, error) {
	var summary Summary
	if err := readJSON(filepath.Join(s.RunPath(runDir), SummaryFile), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// LoadConfig reads config.json of a run.
func (s *FSStore) LoadConfig(runDir string) (*RunConfig, error) {
	var config RunConfig
	if err := readJSON(filepath.Join(s.RunPath(runDir), ConfigFile), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// ListRuns returns metadata for all runs below the base directory, sorted by
// directory name.
func (s *FSStore) ListRuns() ([]RunInfo, error) {
	var infos []RunInfo

	err := filepath.WalkDir(s.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != SummaryFile {
			return nil
		}

		runDir, err := filepath.Rel(s.baseDir, filepath.Dir(path))
		if err != nil {
			return err
		}

		info, err := s.runInfo(runDir, d)
		if err != nil {
			slog.Warn("Failed to load run for listing", "dir", runDir, "error", err)
			return nil // Skip corrupted runs
		}
		infos = append(infos, info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan runs: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Dir < infos[j].Dir })

	slog.Debug("Listed runs", "count", len(infos))
	return infos, nil
}

func (s *FSStore) runInfo(runDir string, d fs.DirEntry) (RunInfo, error) {
	summary, err := s.LoadSummary(runDir)
	if err != nil {
		return RunInfo{}, err
	}
	stat, err := d.Info()
	if err != nil {
		return RunInfo{}, err
	}

	info := RunInfo{
		Dir:         runDir,
		Iterations:  len(summary.GlobalBestFitness),
		Evaluations: summary.EvaluationCount,
		ModTime:     stat.ModTime(),
	}
	info.FinalFitness, _ = summary.Final()
	if err := summary.Validate(); err != nil {
		info.Issue = err.Error()
	}

	// config.json is optional for listing
	if config, err := s.LoadConfig(runDir); err == nil {
		info.Problem = config.Problem.Name
		info.Dim = config.Problem.Dim
		info.Method = config.Method.Name
	}
	return info, nil
}

// DeleteRun removes a run directory and all of its artifacts.
func (s *FSStore) DeleteRun(runDir string) error {
	if runDir == "" || runDir == "." {
		return fmt.Errorf("run directory cannot be empty")
	}

	path := s.RunPath(runDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &NotFoundError{Path: runDir}
	} else if err != nil {
		return fmt.Errorf("failed to stat run directory: %w", err)
	}

	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("failed to remove run directory: %w", err)
	}

	slog.Debug("Run deleted", "dir", runDir, "path", path)
	return nil
}

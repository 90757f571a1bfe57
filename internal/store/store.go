package store

// Store defines the interface for run artifact persistence.
// A run is a directory holding config.json, summary.json, data.json and an
// optional trace.jsonl. Run directories are addressed relative to the store's
// base directory.
//
// Error handling conventions:
//   - Return nil error on success
//   - Return ErrNotFound if the run doesn't exist (for Load/Delete)
//   - Wrap underlying errors with context using fmt.Errorf("context: %w", err)
type Store interface {
	// SaveArtifact atomically writes v as JSON to <runDir>/<name>.
	// An existing artifact is overwritten.
	SaveArtifact(runDir, name string, v any) error

	// LoadSummary reads summary.json of a run.
	// Returns ErrNotFound if the run has no summary.
	LoadSummary(runDir string) (*Summary, error)

	// LoadConfig reads config.json of a run.
	// Returns ErrNotFound if the run has no config.
	LoadConfig(runDir string) (*RunConfig, error)

	// ListRuns returns metadata for every directory below the base that
	// holds a summary.json. The returned slice may be empty.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the run directory and all of its artifacts.
	// Returns ErrNotFound if the directory does not exist.
	DeleteRun(runDir string) error
}

// ErrNotFound is returned when a requested run or artifact does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run error.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return "run not found: " + e.Path
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}

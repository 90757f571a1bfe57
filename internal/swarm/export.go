package swarm

import (
	"errors"
	"fmt"

	"github.com/cwbudde/swarmbench/internal/store"
)

// artifacts opens the output directory as a store; the run directory is its
// root.
func (c *core) artifacts() (store.Store, error) {
	return store.NewFSStore(c.outDir)
}

func (c *core) saveArtifact(name string, v any) error {
	s, err := c.artifacts()
	if err != nil {
		return err
	}
	return s.SaveArtifact("", name, v)
}

// SaveSummary writes summary.json: the global best fitness after every
// iteration and the evaluation count.
func (c *core) SaveSummary() error {
	progress := make([]float64, len(c.history))
	for t, rec := range c.history {
		progress[t] = rec.GlobalBestFitness
	}

	summary := store.Summary{
		GlobalBestFitness: store.Numbers(progress),
		EvaluationCount:   c.problem.Evaluations(),
	}
	if err := c.saveArtifact(store.SummaryFile, summary); err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// SaveData writes data.json with every recorded particle. Particle fitness is
// recomputed without the memo so the export does not change the evaluation
// count.
func (c *core) SaveData() error {
	records := make([]store.IterationRecord, len(c.history))
	for t, rec := range c.history {
		particles := make([]store.ParticleRecord, len(rec.Particles))
		for i, snap := range rec.Particles {
			particles[i] = store.ParticleRecord{
				Fitness: store.Number(c.problem.FNoMemo(snap.Position)),
				Vel:     store.Numbers(snap.Velocity),
				Pos:     store.Numbers(snap.Position),
			}
		}
		records[t] = store.IterationRecord{
			GlobalBestFitness: store.Number(rec.GlobalBestFitness),
			Particles:         particles,
		}
	}

	if err := c.saveArtifact(store.DataFile, records); err != nil {
		return fmt.Errorf("save data: %w", err)
	}
	return nil
}

// SaveConfig writes config.json describing the problem and the method.
func (c *core) SaveConfig() error {
	config := store.RunConfig{
		Problem: store.ProblemInfo{
			Name: c.problem.Name(),
			Dim:  c.problem.Dim(),
		},
		Method: store.MethodInfo{
			Name:       c.name,
			Parameters: c.params.Numbers(),
		},
	}
	if err := c.saveArtifact(store.ConfigFile, config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

// SaveAll writes config, summary and data, reporting every failure.
func (c *core) SaveAll() error {
	return errors.Join(c.SaveConfig(), c.SaveSummary(), c.SaveData())
}

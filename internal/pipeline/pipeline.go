package pipeline

import (
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/syntheticlab/dataforge/internal/config"
	"github.com/syntheticlab/dataforge/internal/registry"
	"github.com/syntheticlab/dataforge/pkg/errors"
	"github.com/syntheticlab/dataforge/pkg/models"
)

// State identifies how far a run has progressed through the pipeline.
type State string

const (
	StatePending    State = "pending"
	StateProfiled   State = "profiled"
	StateGenerated  State = "generated"
	StateValidated  State = "validated"
	StateEvaluated  State = "evaluated"
	StateFinalized  State = "finalized"
	StateRegistered State = "registered"
)

// Stage names the pipeline stages as they appear in log events.
type Stage string

const (
	StageProfile  Stage = "profiling"
	StageGenerate Stage = "generation"
	StageValidate Stage = "validation"
	StageEvaluate Stage = "evaluation"
	StageFinalize Stage = "finalization"
	StageRegister Stage = "registry_update"
)

// Runner drives one run through the fixed stage order as an explicit state
// machine. Each transition requires the preceding state, so a later stage
// never starts after an earlier failure, and a partially completed run can
// be resumed by re-running from its recorded state.
type Runner struct {
	logger       *logrus.Logger
	dataset      string
	version      string
	datasetDir   string
	runDir       string
	registryPath string
	docs         config.Documents
	cfg          *config.Resolved
	state        State
}

// NewRunner builds a runner for a single run directory. The dataset name and
// version are derived from the directory paths, matching the seed derivation
// used by the generator.
func NewRunner(logger *logrus.Logger, datasetDir, runDir, registryPath string,
	docs config.Documents, cfg *config.Resolved) *Runner {
	return &Runner{
		logger:       logger,
		dataset:      filepath.Base(filepath.Clean(datasetDir)),
		version:      filepath.Base(filepath.Clean(runDir)),
		datasetDir:   datasetDir,
		runDir:       runDir,
		registryPath: registryPath,
		docs:         docs,
		cfg:          cfg,
		state:        StatePending,
	}
}

// State returns the runner's current state.
func (r *Runner) State() State {
	return r.state
}

// Run executes the full stage order. priorRunDir may be empty when no prior
// finalized run exists; profiling is then skipped and the evaluation report
// carries explicitly absent drift.
func (r *Runner) Run(priorRunDir string) error {
	if priorRunDir != "" {
		if err := r.step(StageProfile, StatePending, StateProfiled, func() error {
			return Profile(r.runDir, priorRunDir)
		}); err != nil {
			return err
		}
	} else {
		r.fields(StageProfile).Debug("stage_skip")
		r.state = StateProfiled
	}

	if err := r.step(StageGenerate, StateProfiled, StateGenerated, func() error {
		return Generate(r.datasetDir, r.runDir, r.cfg)
	}); err != nil {
		return err
	}
	if err := r.step(StageValidate, StateGenerated, StateValidated, func() error {
		return Validate(r.runDir, r.cfg)
	}); err != nil {
		return err
	}
	if err := r.step(StageEvaluate, StateValidated, StateEvaluated, func() error {
		return Evaluate(r.runDir)
	}); err != nil {
		return err
	}
	if err := r.step(StageFinalize, StateEvaluated, StateFinalized, func() error {
		return Finalize(r.datasetDir, r.runDir, r.docs)
	}); err != nil {
		return err
	}
	return r.step(StageRegister, StateFinalized, StateRegistered, func() error {
		return registry.Update(filepath.Join(r.runDir, models.FinalMetadataFile), r.registryPath)
	})
}

func (r *Runner) step(stage Stage, from, to State, fn func() error) error {
	if r.state != from {
		return errors.NewConsistencyError(errors.CodeInvalidField,
			fmt.Sprintf("stage %s requires state %s, run is %s", stage, from, r.state))
	}
	entry := r.fields(stage)
	entry.Info("stage_start")
	if err := fn(); err != nil {
		entry.WithField("error", err.Error()).Error("stage_error")
		return err
	}
	r.state = to
	entry.Info("stage_end")
	return nil
}

func (r *Runner) fields(stage Stage) *logrus.Entry {
	return r.logger.WithFields(logrus.Fields{
		"dataset": r.dataset,
		"version": r.version,
		"stage":   string(stage),
		"run_dir": r.runDir,
	})
}

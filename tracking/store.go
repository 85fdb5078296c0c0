// Package tracking implements a file-based experiment-tracking store in the
// MLflow mlruns directory convention. Each run is an append-only record of
// parameters, metrics, tags, and artifacts; existing records are never
// mutated by later runs, so concurrent invocations of the pipeline only ever
// write into their own run directories.
package tracking

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
	"github.com/YuminosukeSato/modelpipe/pkg/log"
)

const lifecycleActive = "active"

// FileStore is a tracking store rooted at a local directory
// (the "file://" tracking-URI convention).
type FileStore struct {
	root string
}

// NewFileStore opens (and creates if necessary) a store rooted at root.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create tracking root %s", root)
	}
	return &FileStore{root: root}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string { return s.root }

// Experiment is a named collection of runs.
type Experiment struct {
	ID   string
	Name string

	store *FileStore
}

type experimentMeta struct {
	ArtifactLocation string `yaml:"artifact_location"`
	ExperimentID     string `yaml:"experiment_id"`
	LifecycleStage   string `yaml:"lifecycle_stage"`
	Name             string `yaml:"name"`
}

// GetOrCreateExperiment resolves an experiment by name, creating it with the
// next free numeric ID when it does not exist yet.
func (s *FileStore) GetOrCreateExperiment(name string) (*Experiment, error) {
	if name == "" {
		return nil, errors.NewValueError("GetOrCreateExperiment", "experiment name is empty")
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list tracking root %s", s.root)
	}

	maxID := -1
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if id > maxID {
			maxID = id
		}

		var meta experimentMeta
		if err := readYAML(filepath.Join(s.root, entry.Name(), "meta.yaml"), &meta); err != nil {
			continue
		}
		if meta.Name == name && meta.LifecycleStage == lifecycleActive {
			return &Experiment{ID: meta.ExperimentID, Name: name, store: s}, nil
		}
	}

	id := strconv.Itoa(maxID + 1)
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create experiment directory %s", dir)
	}

	meta := experimentMeta{
		ArtifactLocation: "file://" + dir,
		ExperimentID:     id,
		LifecycleStage:   lifecycleActive,
		Name:             name,
	}
	if err := writeYAML(filepath.Join(dir, "meta.yaml"), &meta); err != nil {
		return nil, err
	}

	logger := log.With("tracking")
	logger.Info().
		Str(log.ExperimentKey, name).
		Str("experiment_id", id).
		Msg("experiment created")
	return &Experiment{ID: id, Name: name, store: s}, nil
}

// ListRunIDs returns the IDs of all runs recorded under the experiment.
func (e *Experiment) ListRunIDs() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(e.store.root, e.ID))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list experiment %s", e.ID)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// StartRun opens a new run under the experiment. The run directory and its
// params/metrics/tags/artifacts subtree are created immediately; End must be
// called to mark the record FINISHED.
func (e *Experiment) StartRun(name string) (*Run, error) {
	runID := strings.ReplaceAll(uuid.NewString(), "-", "")
	dir := filepath.Join(e.store.root, e.ID, runID)

	for _, sub := range []string{"params", "metrics", "tags", "artifacts"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, errors.Wrapf(err, "failed to create run directory %s", dir)
		}
	}

	run := &Run{
		ID:           runID,
		Name:         name,
		ExperimentID: e.ID,
		dir:          dir,
		startTime:    time.Now(),
	}
	if err := run.writeMeta("RUNNING", 0); err != nil {
		return nil, err
	}
	if err := run.SetTag("mlflow.runName", name); err != nil {
		return nil, err
	}

	logger := log.With("tracking")
	logger.Info().
		Str(log.RunIDKey, runID).
		Str("run_name", name).
		Str(log.ExperimentKey, e.Name).
		Msg("run started")
	return run, nil
}

func readYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "failed to parse %s", path)
	}
	return nil
}

func writeYAML(path string, in interface{}) error {
	data, err := yaml.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "failed to marshal yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

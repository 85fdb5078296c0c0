package tracking

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/YuminosukeSato/modelpipe/pkg/errors"
)

// Run is an open run record. All log methods are write-once-append: nothing
// previously written is ever rewritten except the meta status on End.
type Run struct {
	ID           string
	Name         string
	ExperimentID string

	dir       string
	startTime time.Time
	ended     bool
}

type runMeta struct {
	ArtifactURI    string `yaml:"artifact_uri"`
	EndTime        int64  `yaml:"end_time"`
	ExperimentID   string `yaml:"experiment_id"`
	LifecycleStage string `yaml:"lifecycle_stage"`
	RunID          string `yaml:"run_id"`
	RunName        string `yaml:"run_name"`
	StartTime      int64  `yaml:"start_time"`
	Status         string `yaml:"status"`
}

func (r *Run) writeMeta(status string, endTime int64) error {
	meta := runMeta{
		ArtifactURI:    "file://" + filepath.Join(r.dir, "artifacts"),
		EndTime:        endTime,
		ExperimentID:   r.ExperimentID,
		LifecycleStage: lifecycleActive,
		RunID:          r.ID,
		RunName:        r.Name,
		StartTime:      r.startTime.UnixMilli(),
		Status:         status,
	}
	return writeYAML(filepath.Join(r.dir, "meta.yaml"), &meta)
}

// Dir returns the run's directory inside the store.
func (r *Run) Dir() string { return r.dir }

// ArtifactsDir returns the run's artifact directory.
func (r *Run) ArtifactsDir() string { return filepath.Join(r.dir, "artifacts") }

// LogParam records a single parameter.
func (r *Run) LogParam(key string, value interface{}) error {
	path := filepath.Join(r.dir, "params", key)
	content := fmt.Sprintf("%v", value)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to log param %s", key)
	}
	return nil
}

// LogParams records a map of parameters in deterministic (sorted) order.
func (r *Run) LogParams(params map[string]interface{}) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := r.LogParam(k, params[k]); err != nil {
			return err
		}
	}
	return nil
}

// LogMetric appends a timestamped metric observation.
// The file format is one "<timestamp_ms> <value> <step>" line per call.
func (r *Run) LogMetric(key string, value float64, step int64) error {
	path := filepath.Join(r.dir, "metrics", key)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to open metric file %s", key)
	}
	defer f.Close()

	line := fmt.Sprintf("%d %v %d\n", time.Now().UnixMilli(), value, step)
	if _, err := f.WriteString(line); err != nil {
		return errors.Wrapf(err, "failed to log metric %s", key)
	}
	return nil
}

// SetTag records a tag.
func (r *Run) SetTag(key, value string) error {
	path := filepath.Join(r.dir, "tags", key)
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		return errors.Wrapf(err, "failed to set tag %s", key)
	}
	return nil
}

// LogArtifact copies a local file into the run's artifact directory, under
// artifactPath when non-empty. An existing artifact with the same name is
// overwritten without warning.
func (r *Run) LogArtifact(localPath, artifactPath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open artifact %s", localPath)
	}
	defer src.Close()

	destDir := r.ArtifactsDir()
	if artifactPath != "" {
		destDir = filepath.Join(destDir, artifactPath)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create artifact directory %s", destDir)
		}
	}

	destPath := filepath.Join(destDir, filepath.Base(localPath))
	dest, err := os.Create(destPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create artifact %s", destPath)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return errors.Wrapf(err, "failed to copy artifact %s", destPath)
	}
	return nil
}

// End marks the run FINISHED and stamps the end time. Calling End twice is
// an error: the record is immutable once closed.
func (r *Run) End() error {
	if r.ended {
		return errors.New("run already ended")
	}
	if err := r.writeMeta("FINISHED", time.Now().UnixMilli()); err != nil {
		return err
	}
	r.ended = true
	return nil
}
